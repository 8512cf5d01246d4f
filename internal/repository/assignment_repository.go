package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/staffing-api/internal/domain"
)

// AssignmentFilter - условия выборки назначений
type AssignmentFilter struct {
	EmployeeID *int64
	ContractID *int64
	State      *domain.AssignmentState
	Page       Page
}

// AssignmentRepository определяет интерфейс для работы с назначениями
type AssignmentRepository interface {
	Create(ctx context.Context, a *domain.Assignment) error
	GetByID(ctx context.Context, id int64) (*domain.Assignment, error)
	Update(ctx context.Context, a *domain.Assignment) error
	List(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, int64, error)
	ExistsOpen(ctx context.Context, employeeID, contractID int64) (bool, error)
	ListDueForActivation(ctx context.Context, date time.Time) ([]domain.Assignment, error)
	ListDueForTermination(ctx context.Context, date time.Time) ([]domain.Assignment, error)
	ListTemporaryBefore(ctx context.Context, date time.Time) ([]domain.Assignment, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository создаёт новый экземпляр репозитория
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	if err := conn(ctx, r.db).Create(a).Error; err != nil {
		return errors.Wrap(err, "create assignment")
	}
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id int64) (*domain.Assignment, error) {
	var a domain.Assignment
	err := conn(ctx, r.db).First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, errors.Wrap(err, "get assignment")
	}
	return &a, nil
}

func (r *assignmentRepository) Update(ctx context.Context, a *domain.Assignment) error {
	if err := conn(ctx, r.db).Save(a).Error; err != nil {
		return errors.Wrap(err, "update assignment")
	}
	return nil
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, int64, error) {
	query := conn(ctx, r.db).Model(&domain.Assignment{})

	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count assignments")
	}

	var items []domain.Assignment
	err := filter.Page.apply(query).Order("start_date DESC, id DESC").Find(&items).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list assignments")
	}
	return items, total, nil
}

func (r *assignmentRepository) ExistsOpen(ctx context.Context, employeeID, contractID int64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&domain.Assignment{}).
		Where("employee_id = ? AND contract_id = ?", employeeID, contractID).
		Where("state IN ?", []domain.AssignmentState{domain.StateScheduled, domain.StateInProgress}).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "check open assignment")
	}
	return count > 0, nil
}

func (r *assignmentRepository) ListDueForActivation(ctx context.Context, date time.Time) ([]domain.Assignment, error) {
	var items []domain.Assignment
	err := conn(ctx, r.db).
		Where("state = ? AND start_date = ?", domain.StateScheduled, domain.DateOf(date)).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "list assignments due for activation")
	}
	return items, nil
}

func (r *assignmentRepository) ListDueForTermination(ctx context.Context, date time.Time) ([]domain.Assignment, error) {
	var items []domain.Assignment
	err := conn(ctx, r.db).
		Where("state = ? AND category <> ? AND end_date IS NOT NULL AND end_date = ?",
			domain.StateInProgress, domain.CategoryTemporary, domain.DateOf(date)).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "list assignments due for termination")
	}
	return items, nil
}

func (r *assignmentRepository) ListTemporaryBefore(ctx context.Context, date time.Time) ([]domain.Assignment, error) {
	var items []domain.Assignment
	err := conn(ctx, r.db).
		Where("state = ? AND category = ? AND start_date < ?", domain.StateInProgress, domain.CategoryTemporary, domain.DateOf(date)).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "list temporary assignments")
	}
	return items, nil
}
