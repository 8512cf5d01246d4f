package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
	"github.com/staffing-api/internal/events"
	"github.com/staffing-api/internal/repository"
)

var defaultWorkHours = decimal.NewFromInt(8)

// AssignmentService определяет операции жизненного цикла назначения
type AssignmentService interface {
	Create(ctx context.Context, req *dto.CreateAssignmentRequest, actor string) (*domain.Assignment, error)
	GetByID(ctx context.Context, id int64) (*domain.Assignment, error)
	List(ctx context.Context, query *dto.ListAssignmentsQuery) ([]domain.Assignment, int64, error)
	TerminateEarly(ctx context.Context, id int64, req *dto.TerminateAssignmentRequest, actor string) (*domain.Assignment, error)
	Cancel(ctx context.Context, id int64, req *dto.CancelAssignmentRequest, actor string) (*domain.Assignment, error)
}

type assignmentService struct {
	Deps
}

// NewAssignmentService создаёт новый экземпляр сервиса
func NewAssignmentService(deps Deps) AssignmentService {
	return &assignmentService{Deps: deps.withDefaults()}
}

func (s *assignmentService) Create(ctx context.Context, req *dto.CreateAssignmentRequest, actor string) (*domain.Assignment, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	category := domain.AssignmentCategory(req.Category)
	if !category.Valid() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown category %q", req.Category)
	}

	var end *time.Time
	if req.EndDate != nil {
		d, err := parseDate("end_date", *req.EndDate)
		if err != nil {
			return nil, err
		}
		if d.Before(start) {
			return nil, domain.ErrInvalidDateRange
		}
		end = &d
	}

	// Временное назначение покрывает ровно один день
	if category == domain.CategoryTemporary {
		if end == nil {
			end = &start
		} else if !end.Equal(start) {
			return nil, errors.Wrap(domain.ErrInvalidDateRange, "temporary assignment covers a single day")
		}
	}

	hours := defaultWorkHours
	if req.DefaultWorkHours != nil {
		hours = *req.DefaultWorkHours
	}

	var created *domain.Assignment
	err = s.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
		emp, err := s.Repos.Directory.GetEmployee(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		if _, err := s.Repos.Directory.GetContract(ctx, req.ContractID); err != nil {
			return err
		}

		if category != domain.CategoryTemporary {
			exists, err := s.Repos.Assignments.ExistsOpen(ctx, req.EmployeeID, req.ContractID)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrAlreadyExists
			}
		}

		state := domain.StateInProgress
		if start.After(s.Clock.Today()) {
			state = domain.StateScheduled
		}

		a := &domain.Assignment{
			EmployeeID:   req.EmployeeID,
			ContractID:   req.ContractID,
			StartDate:    start,
			EndDate:      end,
			State:        state,
			Category:     category,
			SalaryAtTime: emp.Salary,
			Description:  strings.TrimSpace(req.Description),
			CreatedBy:    actor,
		}
		if err := s.Repos.Assignments.Create(ctx, a); err != nil {
			return err
		}

		if req.GenerateAttendance {
			last := domain.LastOfMonth(start)
			if end != nil {
				last = *end
			}
			days := domain.DaysBetween(start, last)
			rows := make([]domain.Attendance, len(days))
			for i, d := range days {
				rows[i] = domain.Attendance{
					AssignmentID: a.ID,
					EmployeeID:   a.EmployeeID,
					Date:         d,
					WorkHours:    hours,
				}
			}
			if err := s.Repos.Attendance.CreateBatch(ctx, rows); err != nil {
				return err
			}
		}

		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("assignment created",
		zap.Int64("assignment_id", created.ID),
		zap.Int64("employee_id", created.EmployeeID),
		zap.Int64("contract_id", created.ContractID),
		zap.String("state", string(created.State)),
		zap.String("actor", actor),
	)
	events.Emit(ctx, s.Events, s.Log, events.New(events.AssignmentCreated, created.ID, 0, actor, s.Clock.Now()))
	return created, nil
}

func (s *assignmentService) GetByID(ctx context.Context, id int64) (*domain.Assignment, error) {
	return s.Repos.Assignments.GetByID(ctx, id)
}

func (s *assignmentService) List(ctx context.Context, query *dto.ListAssignmentsQuery) ([]domain.Assignment, int64, error) {
	filter := repository.AssignmentFilter{
		EmployeeID: query.EmployeeID,
		ContractID: query.ContractID,
		Page:       page(query.Page, query.PageSize),
	}
	if query.State != "" {
		state := domain.AssignmentState(query.State)
		if !state.Valid() {
			return nil, 0, errors.Wrapf(domain.ErrInvalidInput, "unknown state %q", query.State)
		}
		filter.State = &state
	}
	return s.Repos.Assignments.List(ctx, filter)
}

// TerminateEarly переносит дату окончания назначения раньше. Посещаемость после
// новой даты уходит в архив, а перевод в TERMINATED выполнит проход завершения.
// Новая дата строго позже сегодняшней: сегодняшний проход мог уже отработать,
// а следующие выбирают только свою дату.
func (s *assignmentService) TerminateEarly(ctx context.Context, id int64, req *dto.TerminateAssignmentRequest, actor string) (*domain.Assignment, error) {
	newEnd, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	var (
		updated *domain.Assignment
		history *domain.AssignmentHistory
		moved   int
	)
	err = s.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.Repos.Assignments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if a.State != domain.StateInProgress {
			return errors.Wrapf(domain.ErrInvalidState, "assignment %d is %s", a.ID, a.State)
		}
		if !newEnd.After(s.Clock.Today()) || newEnd.Before(a.StartDate) {
			return errors.Wrap(domain.ErrInvalidDateRange, "new end date must be after today and not before start")
		}
		if a.EndDate != nil && !newEnd.Before(*a.EndDate) {
			return errors.Wrap(domain.ErrInvalidDateRange, "new end date must be before the current one")
		}

		snap, err := s.partySnapshot(ctx, a.EmployeeID, a.EmployeeID, a.ContractID)
		if err != nil {
			return err
		}

		rows, err := s.Repos.Attendance.ListByAssignmentAfter(ctx, a.ID, newEnd)
		if err != nil {
			return err
		}

		h := snap.history(a.ID, a.ID, domain.ReassignmentTermination, strings.TrimSpace(req.Reason), actor)
		h.Termination = &domain.TerminationSnapshot{
			PreviousEndDate:  a.EndDate,
			PreviousWorkDays: a.WorkDays,
			PreviousState:    a.State,
			NewEndDate:       newEnd,
		}
		h.Dates = domain.NewHistoryDates(datesOf(rows))
		if err := s.Repos.Histories.Create(ctx, h); err != nil {
			return err
		}

		now := s.Clock.Now()
		for i := range rows {
			backup := domain.NewAttendanceBackup(&rows[i], domain.BackupReasonTermination, &h.ID, actor, now)
			if err := s.Repos.Backups.Create(ctx, backup); err != nil {
				return err
			}
			if err := s.Repos.Attendance.Delete(ctx, rows[i].ID); err != nil {
				return err
			}
		}

		a.EndDate = &newEnd
		if err := s.Repos.Assignments.Update(ctx, a); err != nil {
			return err
		}

		updated, history, moved = a, h, len(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("assignment termination scheduled",
		zap.Int64("assignment_id", updated.ID),
		zap.String("end_date", domain.FormatDate(newEnd)),
		zap.Int("backed_up", moved),
		zap.Int64("history_id", history.ID),
		zap.String("actor", actor),
	)
	events.Emit(ctx, s.Events, s.Log, events.New(events.TerminationScheduled, updated.ID, history.ID, actor, s.Clock.Now()))
	return updated, nil
}

func (s *assignmentService) Cancel(ctx context.Context, id int64, req *dto.CancelAssignmentRequest, actor string) (*domain.Assignment, error) {
	var cancelled *domain.Assignment
	err := s.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.Repos.Assignments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Fire(domain.TriggerCancel); err != nil {
			return err
		}
		if err := s.Repos.Assignments.Update(ctx, a); err != nil {
			return err
		}
		cancelled = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("assignment cancelled",
		zap.Int64("assignment_id", cancelled.ID),
		zap.String("reason", req.Reason),
		zap.String("actor", actor),
	)
	events.Emit(ctx, s.Events, s.Log, events.New(events.AssignmentCancelled, cancelled.ID, 0, actor, s.Clock.Now()))
	return cancelled, nil
}
