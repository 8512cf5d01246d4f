package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/staffing-api/internal/domain"
)

// HistoryFilter - условия выборки журнала замен
type HistoryFilter struct {
	EmployeeID *int64
	ContractID *int64
	Type       *domain.ReassignmentType
	Status     *domain.HistoryStatus
	Page       Page
}

// HistoryRepository - журнал замен и досрочных завершений
type HistoryRepository interface {
	Create(ctx context.Context, h *domain.AssignmentHistory) error
	GetByID(ctx context.Context, id int64) (*domain.AssignmentHistory, error)
	List(ctx context.Context, filter HistoryFilter) ([]domain.AssignmentHistory, int64, error)
	SetOutcome(ctx context.Context, h *domain.AssignmentHistory, oldAssignmentID int64, dates []time.Time) error
	MarkRolledBack(ctx context.Context, id int64, actor string, at time.Time) error
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository создаёт новый экземпляр репозитория
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func orderedDates(q *gorm.DB) *gorm.DB {
	return q.Order("position ASC")
}

func (r *historyRepository) Create(ctx context.Context, h *domain.AssignmentHistory) error {
	if h.Status == "" {
		h.Status = domain.HistoryActive
	}
	if err := conn(ctx, r.db).Create(h).Error; err != nil {
		return errors.Wrap(err, "create assignment history")
	}
	return nil
}

func (r *historyRepository) GetByID(ctx context.Context, id int64) (*domain.AssignmentHistory, error) {
	var h domain.AssignmentHistory
	err := conn(ctx, r.db).Preload("Dates", orderedDates).First(&h, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, errors.Wrap(err, "get assignment history")
	}
	return &h, nil
}

func (r *historyRepository) List(ctx context.Context, filter HistoryFilter) ([]domain.AssignmentHistory, int64, error) {
	query := conn(ctx, r.db).Model(&domain.AssignmentHistory{})

	if filter.EmployeeID != nil {
		query = query.Where("replaced_employee_id = ? OR replacement_employee_id = ?", *filter.EmployeeID, *filter.EmployeeID)
	}
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.Type != nil {
		query = query.Where("reassignment_type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count assignment history")
	}

	var items []domain.AssignmentHistory
	err := filter.Page.apply(query).
		Preload("Dates", orderedDates).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list assignment history")
	}
	return items, total, nil
}

// SetOutcome дописывает исходное назначение и обработанные даты в запись,
// созданную в начале той же операции
func (r *historyRepository) SetOutcome(ctx context.Context, h *domain.AssignmentHistory, oldAssignmentID int64, dates []time.Time) error {
	db := conn(ctx, r.db)
	err := db.Model(&domain.AssignmentHistory{}).Where("id = ?", h.ID).Update("old_assignment_id", oldAssignmentID).Error
	if err != nil {
		return errors.Wrap(err, "update history assignment")
	}
	rows := domain.NewHistoryDates(dates)
	for i := range rows {
		rows[i].HistoryID = h.ID
	}
	if len(rows) > 0 {
		if err := db.Create(&rows).Error; err != nil {
			return errors.Wrap(err, "create history dates")
		}
	}
	h.Dates = rows
	return nil
}

// MarkRolledBack переводит запись в ROLLED_BACK только из ACTIVE.
// Повторный откат получает ErrRollbackNotEligible.
func (r *historyRepository) MarkRolledBack(ctx context.Context, id int64, actor string, at time.Time) error {
	result := conn(ctx, r.db).Model(&domain.AssignmentHistory{}).
		Where("id = ? AND status = ?", id, domain.HistoryActive).
		Updates(map[string]any{
			"status":         domain.HistoryRolledBack,
			"rolled_back_by": actor,
			"rolled_back_at": at,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "mark history rolled back")
	}
	if result.RowsAffected == 0 {
		return domain.ErrRollbackNotEligible
	}
	return nil
}
