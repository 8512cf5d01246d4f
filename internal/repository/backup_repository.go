package repository

import (
	"context"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/staffing-api/internal/domain"
)

// BackupRepository - архив удалённой посещаемости
type BackupRepository interface {
	Create(ctx context.Context, b *domain.DeletedAttendanceBackup) error
	GetByID(ctx context.Context, id int64) (*domain.DeletedAttendanceBackup, error)
	ListByAssignment(ctx context.Context, assignmentID int64) ([]domain.DeletedAttendanceBackup, error)
	ListByHistory(ctx context.Context, historyID int64) ([]domain.DeletedAttendanceBackup, error)
	Delete(ctx context.Context, id int64) error
}

type backupRepository struct {
	db *gorm.DB
}

// NewBackupRepository создаёт новый экземпляр репозитория
func NewBackupRepository(db *gorm.DB) BackupRepository {
	return &backupRepository{db: db}
}

func (r *backupRepository) Create(ctx context.Context, b *domain.DeletedAttendanceBackup) error {
	if err := conn(ctx, r.db).Create(b).Error; err != nil {
		return errors.Wrap(err, "create attendance backup")
	}
	return nil
}

func (r *backupRepository) GetByID(ctx context.Context, id int64) (*domain.DeletedAttendanceBackup, error) {
	var b domain.DeletedAttendanceBackup
	err := conn(ctx, r.db).First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBackupNotFound
		}
		return nil, errors.Wrap(err, "get attendance backup")
	}
	return &b, nil
}

func (r *backupRepository) ListByAssignment(ctx context.Context, assignmentID int64) ([]domain.DeletedAttendanceBackup, error) {
	var items []domain.DeletedAttendanceBackup
	err := conn(ctx, r.db).
		Where("assignment_id = ?", assignmentID).
		Order("work_date ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "list attendance backups")
	}
	return items, nil
}

func (r *backupRepository) ListByHistory(ctx context.Context, historyID int64) ([]domain.DeletedAttendanceBackup, error) {
	var items []domain.DeletedAttendanceBackup
	err := conn(ctx, r.db).
		Where("history_id = ?", historyID).
		Order("work_date ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "list attendance backups by history")
	}
	return items, nil
}

func (r *backupRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&domain.DeletedAttendanceBackup{}, id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete attendance backup")
	}
	if result.RowsAffected == 0 {
		return domain.ErrBackupNotFound
	}
	return nil
}
