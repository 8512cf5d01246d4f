package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/staffing-api/internal/config"
	"github.com/staffing-api/internal/middleware"
)

// NewRouter настраивает маршруты API
func NewRouter(h *Handler, metrics config.MetricsConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if metrics.Enabled {
		r.Handle(metrics.Path, promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentType)

		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", h.CreateAssignment)
			r.Get("/", h.ListAssignments)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetAssignment)
				r.Post("/terminate", h.TerminateAssignment)
				r.Post("/cancel", h.CancelAssignment)
				r.Get("/attendance", h.ListAssignmentAttendance)
				r.Get("/attendance/totals", h.AttendanceTotals)
				r.Get("/deleted-attendance", h.ListDeletedAttendance)
				r.Post("/deleted-attendance/restore", h.RestoreAllAttendance)
			})
		})

		r.Get("/employees/{id}/attendance", h.ListEmployeeAttendance)

		r.Post("/reassignments", h.CreateReassignment)

		r.Route("/histories", func(r chi.Router) {
			r.Get("/", h.ListHistories)
			r.Get("/{id}", h.GetHistory)
			r.Post("/{id}/rollback", h.RollbackHistory)
		})

		r.Post("/deleted-attendance/{id}/restore", h.RestoreAttendance)

		r.Post("/scheduler/passes/{pass}", h.RunPass)
	})

	return r
}
