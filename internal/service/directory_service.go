package service

import (
	"context"

	"github.com/staffing-api/internal/domain"
)

// DirectoryService - чтение справочника сотрудников, заказчиков и договоров
type DirectoryService interface {
	GetEmployee(ctx context.Context, id int64) (*domain.Employee, error)
	GetContract(ctx context.Context, id int64) (*domain.Contract, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
}

type directoryService struct {
	Deps
}

// NewDirectoryService создаёт новый экземпляр сервиса
func NewDirectoryService(deps Deps) DirectoryService {
	return &directoryService{Deps: deps.withDefaults()}
}

func (s *directoryService) GetEmployee(ctx context.Context, id int64) (*domain.Employee, error) {
	return s.Repos.Directory.GetEmployee(ctx, id)
}

func (s *directoryService) GetContract(ctx context.Context, id int64) (*domain.Contract, error) {
	return s.Repos.Directory.GetContract(ctx, id)
}

func (s *directoryService) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.Repos.Directory.GetCustomer(ctx, id)
}
