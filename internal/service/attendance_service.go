package service

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
	"github.com/staffing-api/internal/repository"
)

// AttendanceService - запросы к журналу посещаемости для расчётов и API
type AttendanceService interface {
	List(ctx context.Context, query *dto.ListAttendanceQuery) ([]domain.Attendance, int64, error)
	SumBonus(ctx context.Context, assignmentID int64) (decimal.Decimal, error)
	SumPenalty(ctx context.Context, assignmentID int64) (decimal.Decimal, error)
	SumSupportCost(ctx context.Context, assignmentID int64) (decimal.Decimal, error)
	Totals(ctx context.Context, assignmentID int64) (*dto.AttendanceTotals, error)
}

type attendanceService struct {
	Deps
}

// NewAttendanceService создаёт новый экземпляр сервиса
func NewAttendanceService(deps Deps) AttendanceService {
	return &attendanceService{Deps: deps.withDefaults()}
}

func (s *attendanceService) List(ctx context.Context, query *dto.ListAttendanceQuery) ([]domain.Attendance, int64, error) {
	if query.AssignmentID == nil && query.EmployeeID == nil {
		return nil, 0, errors.Wrap(domain.ErrInvalidInput, "assignment or employee is required")
	}
	if query.Month != 0 && query.Year == 0 {
		return nil, 0, errors.Wrap(domain.ErrInvalidInput, "month filter requires year")
	}
	return s.Repos.Attendance.List(ctx, repository.AttendanceFilter{
		AssignmentID: query.AssignmentID,
		EmployeeID:   query.EmployeeID,
		Year:         query.Year,
		Month:        query.Month,
		Page:         page(query.Page, query.PageSize),
	})
}

func (s *attendanceService) SumBonus(ctx context.Context, assignmentID int64) (decimal.Decimal, error) {
	return s.Repos.Attendance.Sum(ctx, assignmentID, repository.AmountBonus)
}

func (s *attendanceService) SumPenalty(ctx context.Context, assignmentID int64) (decimal.Decimal, error) {
	return s.Repos.Attendance.Sum(ctx, assignmentID, repository.AmountPenalty)
}

func (s *attendanceService) SumSupportCost(ctx context.Context, assignmentID int64) (decimal.Decimal, error) {
	return s.Repos.Attendance.Sum(ctx, assignmentID, repository.AmountSupportCost)
}

func (s *attendanceService) Totals(ctx context.Context, assignmentID int64) (*dto.AttendanceTotals, error) {
	if _, err := s.Repos.Assignments.GetByID(ctx, assignmentID); err != nil {
		return nil, err
	}
	bonus, err := s.SumBonus(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	penalty, err := s.SumPenalty(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	support, err := s.SumSupportCost(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return &dto.AttendanceTotals{
		AssignmentID: assignmentID,
		Bonus:        bonus,
		Penalty:      penalty,
		SupportCost:  support,
	}, nil
}
