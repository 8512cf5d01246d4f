package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/scheduler"
)

// RunPass выполняет проход за дату из ?date=, по умолчанию за сегодня
func (h *Handler) RunPass(w http.ResponseWriter, r *http.Request) {
	if _, err := actor(r); err != nil {
		h.respondError(w, http.StatusBadRequest, "missing actor", err.Error())
		return
	}

	date := h.clock.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid date", err.Error())
			return
		}
		date = d
	}

	name := scheduler.PassName(chi.URLParam(r, "pass"))
	report, err := h.svc.Passes.RunPass(r.Context(), name, date)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, report)
}
