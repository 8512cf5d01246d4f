package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
	"github.com/staffing-api/internal/events"
)

// ReassignmentService - замена сотрудника на договоре по датам
type ReassignmentService interface {
	Reassign(ctx context.Context, req *dto.ReassignmentRequest, actor string) (*dto.ReassignmentResponse, error)
}

type reassignmentService struct {
	Deps
}

// NewReassignmentService создаёт новый экземпляр сервиса
func NewReassignmentService(deps Deps) ReassignmentService {
	return &reassignmentService{Deps: deps.withDefaults()}
}

// dateOutcome - результат обработки одной даты
type dateOutcome struct {
	created domain.Attendance
	deleted domain.Attendance
}

// Reassign переносит дни заменяемого сотрудника на замещающего. Каждая дата
// обрабатывается в своей точке сохранения: ошибка по дате попадает в отчёт,
// остальные даты применяются. Если не применилась ни одна дата, запрос
// завершается первой ошибкой и ничего не записывается.
func (s *reassignmentService) Reassign(ctx context.Context, req *dto.ReassignmentRequest, actor string) (*dto.ReassignmentResponse, error) {
	kind := domain.ReassignmentType(req.Type)
	if kind != domain.ReassignmentTemporary && kind != domain.ReassignmentPermanent {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown reassignment type %q", req.Type)
	}
	if req.ReplacedEmployeeID == req.ReplacementEmployeeID {
		return nil, errors.Wrap(domain.ErrInvalidInput, "employee cannot replace themselves")
	}

	var explicit []time.Time
	var from time.Time
	switch kind {
	case domain.ReassignmentTemporary:
		dates, err := uniqueDates(req.Dates)
		if err != nil {
			return nil, err
		}
		explicit = dates
	case domain.ReassignmentPermanent:
		if req.FromDate == nil {
			return nil, errors.Wrap(domain.ErrInvalidInput, "from_date is required for permanent reassignment")
		}
		d, err := parseDate("from_date", *req.FromDate)
		if err != nil {
			return nil, err
		}
		from = d
	}

	resp := &dto.ReassignmentResponse{
		CreatedAttendances: []domain.Attendance{},
		DeletedAttendances: []domain.Attendance{},
		Failures:           []dto.DateFailure{},
	}

	err := s.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
		target, err := s.Repos.Assignments.GetByID(ctx, req.ReplacementAssignmentID)
		if err != nil {
			return err
		}
		if target.EmployeeID != req.ReplacementEmployeeID {
			return errors.Wrapf(domain.ErrInvalidInput, "assignment %d does not belong to employee %d", target.ID, req.ReplacementEmployeeID)
		}
		if !target.State.IsOpen() {
			return errors.Wrapf(domain.ErrInvalidState, "replacement assignment %d is %s", target.ID, target.State)
		}

		snap, err := s.partySnapshot(ctx, req.ReplacedEmployeeID, req.ReplacementEmployeeID, target.ContractID)
		if err != nil {
			return err
		}

		dates := explicit
		if kind == domain.ReassignmentPermanent {
			rows, err := s.Repos.Attendance.ListByEmployeeContractFrom(ctx, req.ReplacedEmployeeID, target.ContractID, from)
			if err != nil {
				return err
			}
			dates = distinct(datesOf(rows))
			if len(dates) == 0 {
				return errors.Wrapf(domain.ErrNoAttendanceForReplacedEmployee, "no attendance from %s", domain.FormatDate(from))
			}
		}
		resp.RequestedDaysCount = len(dates)

		h := snap.history(0, target.ID, kind, strings.TrimSpace(req.Description), actor)
		if err := s.Repos.Histories.Create(ctx, h); err != nil {
			return err
		}

		var (
			processed []time.Time
			oldID     int64
			firstErr  error
		)
		for _, d := range dates {
			var out dateOutcome
			err := s.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
				var err error
				out, err = s.reassignDate(ctx, req, target, h.ID, d, actor)
				return err
			})
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				resp.Failures = append(resp.Failures, dto.DateFailure{
					Date:    domain.FormatDate(d),
					Kind:    domain.Kind(err),
					Message: err.Error(),
				})
				s.Log.Warn("reassignment date skipped",
					zap.String("date", domain.FormatDate(d)),
					zap.Int64("replaced_employee_id", req.ReplacedEmployeeID),
					zap.Int64("replacement_employee_id", req.ReplacementEmployeeID),
					zap.Error(err),
				)
				continue
			}
			if oldID == 0 {
				oldID = out.deleted.AssignmentID
			}
			processed = append(processed, d)
			resp.CreatedAttendances = append(resp.CreatedAttendances, out.created)
			resp.DeletedAttendances = append(resp.DeletedAttendances, out.deleted)
		}

		if len(processed) == 0 {
			return firstErr
		}

		h.OldAssignmentID = oldID
		if err := s.Repos.Histories.SetOutcome(ctx, h, oldID, processed); err != nil {
			return err
		}
		resp.ProcessedDaysCount = len(processed)
		resp.History = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("reassignment created",
		zap.Int64("history_id", resp.History.ID),
		zap.String("type", string(kind)),
		zap.Int("processed", resp.ProcessedDaysCount),
		zap.Int("requested", resp.RequestedDaysCount),
		zap.String("actor", actor),
	)
	events.Emit(ctx, s.Events, s.Log,
		events.New(events.ReassignmentCreated, resp.History.NewAssignmentID, resp.History.ID, actor, s.Clock.Now()))
	return resp, nil
}

// reassignDate переносит один день. Дата должна входить в период назначения
// замещающего. Занятость замещающего проверяется до поиска исходной строки,
// поэтому повторный запрос на ту же дату получает ErrReplacementAlreadyHasAttendance.
func (s *reassignmentService) reassignDate(
	ctx context.Context,
	req *dto.ReassignmentRequest,
	target *domain.Assignment,
	historyID int64,
	date time.Time,
	actor string,
) (dateOutcome, error) {
	if !target.Covers(date) {
		return dateOutcome{}, errors.Wrapf(domain.ErrInvalidInput, "%s is outside replacement assignment %d", domain.FormatDate(date), target.ID)
	}

	occupied, err := s.Repos.Attendance.SlotExists(ctx, target.ID, req.ReplacementEmployeeID, date)
	if err != nil {
		return dateOutcome{}, err
	}
	if occupied {
		return dateOutcome{}, errors.Wrapf(domain.ErrReplacementAlreadyHasAttendance, "employee %d on %s", req.ReplacementEmployeeID, domain.FormatDate(date))
	}

	src, err := s.Repos.Attendance.FindByEmployeeContractDate(ctx, req.ReplacedEmployeeID, target.ContractID, date)
	if err != nil {
		if errors.Is(err, domain.ErrAttendanceNotFound) {
			return dateOutcome{}, errors.Wrapf(domain.ErrNoAttendanceForReplacedEmployee, "employee %d on %s", req.ReplacedEmployeeID, domain.FormatDate(date))
		}
		return dateOutcome{}, err
	}

	backup := domain.NewAttendanceBackup(src, domain.BackupReasonReassignment, &historyID, actor, s.Clock.Now())
	if err := s.Repos.Backups.Create(ctx, backup); err != nil {
		return dateOutcome{}, err
	}
	if err := s.Repos.Attendance.Delete(ctx, src.ID); err != nil {
		return dateOutcome{}, err
	}

	row := substitute(src, target, req, date)
	if err := s.Repos.Attendance.Create(ctx, row); err != nil {
		return dateOutcome{}, err
	}
	return dateOutcome{created: *row, deleted: *src}, nil
}

// substitute строит строку замещающего: денежные поля переносятся,
// если оператор не передал свои значения; отметка об утверждении не переносится
func substitute(src *domain.Attendance, target *domain.Assignment, req *dto.ReassignmentRequest, date time.Time) *domain.Attendance {
	row := &domain.Attendance{
		AssignmentID:   target.ID,
		EmployeeID:     req.ReplacementEmployeeID,
		Date:           date,
		WorkHours:      src.WorkHours,
		Bonus:          src.Bonus,
		Penalty:        src.Penalty,
		SupportCost:    src.SupportCost,
		Overtime:       src.Overtime,
		OvertimeAmount: src.OvertimeAmount,
		Description:    src.Description,
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		row.Description = desc
	}
	if o := req.Overrides; o != nil {
		if o.WorkHours != nil {
			row.WorkHours = *o.WorkHours
		}
		if o.Bonus != nil {
			row.Bonus = *o.Bonus
		}
		if o.Penalty != nil {
			row.Penalty = *o.Penalty
		}
		if o.SupportCost != nil {
			row.SupportCost = *o.SupportCost
		}
	}
	return row
}

func uniqueDates(values []string) ([]time.Time, error) {
	if len(values) == 0 {
		return nil, domain.ErrNoDates
	}
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := parseDate("dates", v)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return distinct(dates), nil
}

// distinct убирает повторы, сохраняя порядок
func distinct(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = domain.DateOf(d)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
