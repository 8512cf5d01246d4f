package handler

import (
	"net/http"

	"github.com/staffing-api/internal/dto"
)

func (h *Handler) ListAssignmentAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assignment id", err.Error())
		return
	}
	if _, err := h.svc.Assignments.GetByID(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	query, err := parseAttendanceQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	query.AssignmentID = &id
	h.listAttendance(w, r, &query)
}

func (h *Handler) ListEmployeeAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid employee id", err.Error())
		return
	}
	if _, err := h.svc.Directory.GetEmployee(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	query, err := parseAttendanceQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	query.EmployeeID = &id
	h.listAttendance(w, r, &query)
}

func (h *Handler) listAttendance(w http.ResponseWriter, r *http.Request, query *dto.ListAttendanceQuery) {
	if !h.validate(w, query) {
		return
	}

	items, total, err := h.svc.Attendance.List(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toAttendancePage(items, total, query.Page, query.PageSize))
}

func (h *Handler) AttendanceTotals(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assignment id", err.Error())
		return
	}

	totals, err := h.svc.Attendance.Totals(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, totals)
}

func parseAttendanceQuery(r *http.Request) (dto.ListAttendanceQuery, error) {
	var (
		query dto.ListAttendanceQuery
		err   error
	)
	if query.Month, err = queryInt(r, "month", 0); err != nil {
		return query, err
	}
	if query.Year, err = queryInt(r, "year", 0); err != nil {
		return query, err
	}
	if query.Page, err = queryInt(r, "page", 1); err != nil {
		return query, err
	}
	if query.PageSize, err = queryInt(r, "page_size", 50); err != nil {
		return query, err
	}
	return query, nil
}
