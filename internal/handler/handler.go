package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
	"github.com/staffing-api/internal/middleware"
	"github.com/staffing-api/internal/scheduler"
	"github.com/staffing-api/internal/service"
)

// ActorHeader - заголовок с идентификатором оператора для полей аудита
const ActorHeader = "X-Actor"

// PassRunner запускает проход планировщика по запросу оператора
type PassRunner interface {
	RunPass(ctx context.Context, name scheduler.PassName, date time.Time) (*scheduler.PassReport, error)
}

// Services - сервисы, которые обслуживает REST слой
type Services struct {
	Assignments  service.AssignmentService
	Reassignment service.ReassignmentService
	Backups      service.BackupService
	History      service.HistoryService
	Attendance   service.AttendanceService
	Directory    service.DirectoryService
	Passes       PassRunner
}

type Handler struct {
	svc       Services
	clock     domain.Clock
	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(svc Services, clock domain.Clock, logger *zap.Logger) *Handler {
	return &Handler{
		svc:       svc,
		clock:     clock,
		validator: validator.New(),
		logger:    logger,
	}
}

var errActorRequired = errors.New(ActorHeader + " header is required")

func actor(r *http.Request) (string, error) {
	a := strings.TrimSpace(r.Header.Get(ActorHeader))
	if a == "" {
		return "", errActorRequired
	}
	return a, nil
}

func (h *Handler) extractID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, errors.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.Errorf("%s must be an integer", name)
	}
	return &v, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// decode читает тело запроса и проверяет его
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return h.validate(w, dst)
}

func (h *Handler) validate(w http.ResponseWriter, v any) bool {
	if err := h.validator.Struct(v); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return false
	}
	return true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.Kind(err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.respondError(w, http.StatusNotFound, kind, err.Error())
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrRollbackNotEligible),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrReplacementAlreadyHasAttendance),
		errors.Is(err, domain.ErrNoAttendanceForReplacedEmployee):
		h.respondError(w, http.StatusConflict, kind, err.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrNoDates):
		h.respondError(w, http.StatusBadRequest, kind, err.Error())
	default:
		h.logger.Error("internal error",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.respondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, errMsg, details string) {
	w.WriteHeader(status)
	resp := dto.ErrorResponse{Error: errMsg}
	if details != "" {
		resp.Message = details
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response", zap.Error(err))
	}
}
