package repository

import (
	"context"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/staffing-api/internal/domain"
)

// DirectoryRepository - справочник сотрудников, заказчиков и договоров (только чтение)
type DirectoryRepository interface {
	GetEmployee(ctx context.Context, id int64) (*domain.Employee, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	GetContract(ctx context.Context, id int64) (*domain.Contract, error)
}

type directoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository создаёт новый экземпляр репозитория
func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) GetEmployee(ctx context.Context, id int64) (*domain.Employee, error) {
	var emp domain.Employee
	if err := first(ctx, r.db, &emp, id, domain.ErrEmployeeNotFound); err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *directoryRepository) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := first(ctx, r.db, &c, id, domain.ErrCustomerNotFound); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *directoryRepository) GetContract(ctx context.Context, id int64) (*domain.Contract, error) {
	var c domain.Contract
	if err := first(ctx, r.db, &c, id, domain.ErrContractNotFound); err != nil {
		return nil, err
	}
	return &c, nil
}

func first(ctx context.Context, db *gorm.DB, dest any, id int64, notFound error) error {
	err := conn(ctx, db).First(dest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound
		}
		return errors.Wrap(err, "directory lookup")
	}
	return nil
}
