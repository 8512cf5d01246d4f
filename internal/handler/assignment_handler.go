package handler

import (
	"net/http"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
)

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	who, err := actor(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing actor", err.Error())
		return
	}

	var req dto.CreateAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.svc.Assignments.Create(r.Context(), &req, who)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, dto.NewAssignmentResponse(a))
}

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	query, err := parseListAssignmentsQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if !h.validate(w, &query) {
		return
	}

	items, total, err := h.svc.Assignments.List(r.Context(), &query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := dto.PageResponse[dto.AssignmentResponse]{
		Items:    make([]dto.AssignmentResponse, len(items)),
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	for i := range items {
		resp.Items[i] = dto.NewAssignmentResponse(&items[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assignment id", err.Error())
		return
	}

	a, err := h.svc.Assignments.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.NewAssignmentResponse(a))
}

func (h *Handler) TerminateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assignment id", err.Error())
		return
	}
	who, err := actor(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing actor", err.Error())
		return
	}

	var req dto.TerminateAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.svc.Assignments.TerminateEarly(r.Context(), id, &req, who)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.NewAssignmentResponse(a))
}

func (h *Handler) CancelAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assignment id", err.Error())
		return
	}
	who, err := actor(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing actor", err.Error())
		return
	}

	var req dto.CancelAssignmentRequest
	if r.ContentLength != 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}

	a, err := h.svc.Assignments.Cancel(r.Context(), id, &req, who)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.NewAssignmentResponse(a))
}

func parseListAssignmentsQuery(r *http.Request) (dto.ListAssignmentsQuery, error) {
	var (
		query dto.ListAssignmentsQuery
		err   error
	)
	if query.EmployeeID, err = queryInt64(r, "employee_id"); err != nil {
		return query, err
	}
	if query.ContractID, err = queryInt64(r, "contract_id"); err != nil {
		return query, err
	}
	query.State = r.URL.Query().Get("state")
	if query.Page, err = queryInt(r, "page", 1); err != nil {
		return query, err
	}
	if query.PageSize, err = queryInt(r, "page_size", 50); err != nil {
		return query, err
	}
	return query, nil
}

// toAttendancePage собирает страницу посещаемости
func toAttendancePage(items []domain.Attendance, total int64, page, size int) dto.PageResponse[domain.Attendance] {
	if items == nil {
		items = []domain.Attendance{}
	}
	return dto.PageResponse[domain.Attendance]{Items: items, Total: total, Page: page, PageSize: size}
}
