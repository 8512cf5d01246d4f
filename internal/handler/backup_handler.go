package handler

import (
	"net/http"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
)

func (h *Handler) ListDeletedAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assignment id", err.Error())
		return
	}

	items, err := h.svc.Backups.ListDeleted(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.DeletedAttendanceBackup{}
	}

	h.respondJSON(w, http.StatusOK, items)
}

func (h *Handler) RestoreAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := h.extractID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid backup id", err.Error())
		return
	}
	who, err := actor(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing actor", err.Error())
		return
	}

	row, err := h.svc.Backups.Restore(r.Context(), id, who)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, row)
}

func (h *Handler) RestoreAllAttendance(w http.ResponseWriter, r *http.Request) {
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

	rows, err := h.svc.Backups.RestoreAll(r.Context(), id, who)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.RestoreAllResponse{RestoredCount: len(rows), Restored: rows})
}
