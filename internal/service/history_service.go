package service

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
	"github.com/staffing-api/internal/events"
	"github.com/staffing-api/internal/repository"
)

// HistoryService - журнал замен и откат записей журнала
type HistoryService interface {
	GetByID(ctx context.Context, id int64) (*domain.AssignmentHistory, error)
	List(ctx context.Context, query *dto.ListHistoryQuery) ([]domain.AssignmentHistory, int64, error)
	Rollback(ctx context.Context, id int64, actor string) (*dto.RollbackResponse, error)
}

type historyService struct {
	Deps
}

// NewHistoryService создаёт новый экземпляр сервиса
func NewHistoryService(deps Deps) HistoryService {
	return &historyService{Deps: deps.withDefaults()}
}

func (s *historyService) GetByID(ctx context.Context, id int64) (*domain.AssignmentHistory, error) {
	return s.Repos.Histories.GetByID(ctx, id)
}

func (s *historyService) List(ctx context.Context, query *dto.ListHistoryQuery) ([]domain.AssignmentHistory, int64, error) {
	filter := repository.HistoryFilter{
		ContractID: query.ContractID,
		EmployeeID: query.EmployeeID,
		Page:       page(query.Page, query.PageSize),
	}
	if query.Status != "" {
		status := domain.HistoryStatus(query.Status)
		filter.Status = &status
	}
	if query.Type != "" {
		kind := domain.ReassignmentType(query.Type)
		filter.Type = &kind
	}
	return s.Repos.Histories.List(ctx, filter)
}

// findActive - единственная проверка, допускающая откат
func (s *historyService) findActive(ctx context.Context, id int64) (*domain.AssignmentHistory, error) {
	h, err := s.Repos.Histories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.Status != domain.HistoryActive {
		return nil, errors.Wrapf(domain.ErrRollbackNotEligible, "history %d is %s", h.ID, h.Status)
	}
	return h, nil
}

// Rollback отменяет одну запись журнала целиком. При любой ошибке транзакция
// откатывается и запись остаётся ACTIVE.
func (s *historyService) Rollback(ctx context.Context, id int64, actor string) (*dto.RollbackResponse, error) {
	resp := &dto.RollbackResponse{}
	var assignmentID int64

	err := s.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
		h, err := s.findActive(ctx, id)
		if err != nil {
			return err
		}

		switch h.Type {
		case domain.ReassignmentTermination:
			err = s.rollbackTermination(ctx, h, resp)
			assignmentID = h.OldAssignmentID
		default:
			err = s.rollbackReassignment(ctx, h, resp)
			assignmentID = h.NewAssignmentID
		}
		if err != nil {
			return err
		}

		if err := s.Repos.Histories.MarkRolledBack(ctx, h.ID, actor, s.Clock.Now()); err != nil {
			return err
		}
		resp.History, err = s.Repos.Histories.GetByID(ctx, h.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("history rolled back",
		zap.Int64("history_id", id),
		zap.String("type", string(resp.History.Type)),
		zap.Int("restored", resp.RestoredCount),
		zap.Int("removed", resp.RemovedCount),
		zap.String("actor", actor),
	)
	events.Emit(ctx, s.Events, s.Log, events.New(events.HistoryRolledBack, assignmentID, id, actor, s.Clock.Now()))
	return resp, nil
}

// rollbackReassignment удаляет строки замещающего и возвращает строки заменённого
func (s *historyService) rollbackReassignment(ctx context.Context, h *domain.AssignmentHistory, resp *dto.RollbackResponse) error {
	for _, d := range h.AffectedDates() {
		row, err := s.Repos.Attendance.FindSlot(ctx, h.NewAssignmentID, h.ReplacementEmployeeID, d)
		if err != nil {
			if errors.Is(err, domain.ErrAttendanceNotFound) {
				s.Log.Warn("substitute attendance already gone",
					zap.Int64("history_id", h.ID),
					zap.String("date", domain.FormatDate(d)),
				)
				continue
			}
			return err
		}
		if err := s.Repos.Attendance.Delete(ctx, row.ID); err != nil {
			return err
		}
		resp.RemovedCount++
	}

	backups, err := s.Repos.Backups.ListByHistory(ctx, h.ID)
	if err != nil {
		return err
	}
	restored, err := s.restoreEach(ctx, backups)
	if err != nil {
		return err
	}
	resp.RestoredCount = len(restored)
	return nil
}

// rollbackTermination возвращает архивные строки, дату окончания и число
// рабочих дней, сохранённые при досрочном завершении
func (s *historyService) rollbackTermination(ctx context.Context, h *domain.AssignmentHistory, resp *dto.RollbackResponse) error {
	if h.Termination == nil {
		return errors.Errorf("history %d has no termination snapshot", h.ID)
	}

	a, err := s.Repos.Assignments.GetByID(ctx, h.OldAssignmentID)
	if err != nil {
		return err
	}
	switch a.State {
	case domain.StateTerminated:
		if err := a.Fire(domain.TriggerReopen); err != nil {
			return err
		}
	case domain.StateInProgress:
		// проход завершения ещё не выполнялся
	default:
		return errors.Wrapf(domain.ErrInvalidState, "assignment %d is %s", a.ID, a.State)
	}

	backups, err := s.Repos.Backups.ListByHistory(ctx, h.ID)
	if err != nil {
		return err
	}
	restored, err := s.restoreEach(ctx, backups)
	if err != nil {
		return err
	}
	resp.RestoredCount = len(restored)

	a.EndDate = h.Termination.PreviousEndDate
	a.WorkDays = h.Termination.PreviousWorkDays
	return s.Repos.Assignments.Update(ctx, a)
}
