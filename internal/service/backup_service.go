package service

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/events"
)

// BackupService - просмотр и восстановление архивной посещаемости
type BackupService interface {
	ListDeleted(ctx context.Context, assignmentID int64) ([]domain.DeletedAttendanceBackup, error)
	Restore(ctx context.Context, backupID int64, actor string) (*domain.Attendance, error)
	RestoreAll(ctx context.Context, assignmentID int64, actor string) ([]domain.Attendance, error)
}

type backupService struct {
	Deps
}

// NewBackupService создаёт новый экземпляр сервиса
func NewBackupService(deps Deps) BackupService {
	return &backupService{Deps: deps.withDefaults()}
}

func (s *backupService) ListDeleted(ctx context.Context, assignmentID int64) ([]domain.DeletedAttendanceBackup, error) {
	if _, err := s.Repos.Assignments.GetByID(ctx, assignmentID); err != nil {
		return nil, err
	}
	return s.Repos.Backups.ListByAssignment(ctx, assignmentID)
}

func (s *backupService) Restore(ctx context.Context, backupID int64, actor string) (*domain.Attendance, error) {
	var restored *domain.Attendance
	err := s.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.Repos.Backups.GetByID(ctx, backupID)
		if err != nil {
			return err
		}
		held, err := s.heldByReassignment(ctx, b)
		if err != nil {
			return err
		}
		if held {
			return errors.Wrapf(domain.ErrInvalidState,
				"backup %d belongs to active reassignment history %d, roll the history back instead", b.ID, *b.HistoryID)
		}
		restored, err = s.restore(ctx, b)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("attendance restored",
		zap.Int64("backup_id", backupID),
		zap.Int64("attendance_id", restored.ID),
		zap.String("actor", actor),
	)
	events.Emit(ctx, s.Events, s.Log, events.New(events.AttendanceRestored, restored.AssignmentID, 0, actor, s.Clock.Now()))
	return restored, nil
}

// RestoreAll восстанавливает все архивные строки назначения или ни одной.
// Строки, снятые действующей заменой, остаются в архиве до её отката.
func (s *backupService) RestoreAll(ctx context.Context, assignmentID int64, actor string) ([]domain.Attendance, error) {
	var (
		restored []domain.Attendance
		skipped  int
	)
	err := s.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.Repos.Assignments.GetByID(ctx, assignmentID); err != nil {
			return err
		}
		backups, err := s.Repos.Backups.ListByAssignment(ctx, assignmentID)
		if err != nil {
			return err
		}
		free := backups[:0]
		for i := range backups {
			held, err := s.heldByReassignment(ctx, &backups[i])
			if err != nil {
				return err
			}
			if held {
				skipped++
				continue
			}
			free = append(free, backups[i])
		}
		restored, err = s.restoreEach(ctx, free)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("assignment attendance restored",
		zap.Int64("assignment_id", assignmentID),
		zap.Int("restored", len(restored)),
		zap.Int("held_by_reassignment", skipped),
		zap.String("actor", actor),
	)
	if len(restored) > 0 {
		events.Emit(ctx, s.Events, s.Log, events.New(events.AttendanceRestored, assignmentID, 0, actor, s.Clock.Now()))
	}
	return restored, nil
}

// heldByReassignment сообщает, что строку снял действующий перевод:
// её вернёт только откат истории вместе с удалением строки замещающего
func (s *backupService) heldByReassignment(ctx context.Context, b *domain.DeletedAttendanceBackup) (bool, error) {
	if b.Reason != domain.BackupReasonReassignment || b.HistoryID == nil {
		return false, nil
	}
	h, err := s.Repos.Histories.GetByID(ctx, *b.HistoryID)
	if err != nil {
		if errors.Is(err, domain.ErrHistoryNotFound) {
			return false, nil
		}
		return false, err
	}
	return h.Status == domain.HistoryActive, nil
}

func (d Deps) restoreEach(ctx context.Context, backups []domain.DeletedAttendanceBackup) ([]domain.Attendance, error) {
	restored := make([]domain.Attendance, 0, len(backups))
	for i := range backups {
		row, err := d.restore(ctx, &backups[i])
		if err != nil {
			return nil, err
		}
		restored = append(restored, *row)
	}
	return restored, nil
}

// restore воссоздаёт строку из снимка и удаляет архивную запись.
// Занятый слот не перезаписывается.
func (d Deps) restore(ctx context.Context, b *domain.DeletedAttendanceBackup) (*domain.Attendance, error) {
	row := b.Payload.Attendance()
	if row.ID == 0 {
		row.ID = b.AttendanceID
	}

	occupied, err := d.Repos.Attendance.SlotExists(ctx, row.AssignmentID, row.EmployeeID, row.Date)
	if err != nil {
		return nil, err
	}
	if occupied {
		return nil, errors.Wrapf(domain.ErrAttendanceAlreadyExists, "restore backup %d for %s", b.ID, domain.FormatDate(row.Date))
	}

	if err := d.Repos.Attendance.Create(ctx, row); err != nil {
		return nil, err
	}
	if err := d.Repos.Backups.Delete(ctx, b.ID); err != nil {
		return nil, err
	}
	return row, nil
}
