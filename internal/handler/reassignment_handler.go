package handler

import (
	"net/http"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
)

func (h *Handler) CreateReassignment(w http.ResponseWriter, r *http.Request) {
	who, err := actor(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing actor", err.Error())
		return
	}

	var req dto.ReassignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.svc.Reassignment.Reassign(r.Context(), &req, who)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListHistories(w http.ResponseWriter, r *http.Request) {
	query, err := parseHistoryQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if !h.validate(w, &query) {
		return
	}

	items, total, err := h.svc.History.List(r.Context(), &query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.AssignmentHistory{}
	}

	h.respondJSON(w, http.StatusOK, dto.PageResponse[domain.AssignmentHistory]{
		Items:    items,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid history id", err.Error())
		return
	}

	history, err := h.svc.History.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, history)
}

func (h *Handler) RollbackHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid history id", err.Error())
		return
	}
	who, err := actor(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing actor", err.Error())
		return
	}

	resp, err := h.svc.History.Rollback(r.Context(), id, who)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func parseHistoryQuery(r *http.Request) (dto.ListHistoryQuery, error) {
	var (
		query dto.ListHistoryQuery
		err   error
	)
	if query.ContractID, err = queryInt64(r, "contract_id"); err != nil {
		return query, err
	}
	if query.EmployeeID, err = queryInt64(r, "employee_id"); err != nil {
		return query, err
	}
	query.Status = r.URL.Query().Get("status")
	query.Type = r.URL.Query().Get("type")
	if query.Page, err = queryInt(r, "page", 1); err != nil {
		return query, err
	}
	if query.PageSize, err = queryInt(r, "page_size", 50); err != nil {
		return query, err
	}
	return query, nil
}
