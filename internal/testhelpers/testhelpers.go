// Package testhelpers поднимает изолированную sqlite базу и заполняет справочники для тестов.
package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/staffing-api/internal/domain"
)

// NewDB создаёт отдельную in-memory базу на каждый тест
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(domain.AllModels()...))
	return db
}

// Logger возвращает логгер, который ничего не пишет
func Logger() *zap.Logger {
	return zap.NewNop()
}

// Date разбирает дату в формате 2006-01-02
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

// DatePtr - то же, что Date, но возвращает указатель
func DatePtr(t *testing.T, s string) *time.Time {
	t.Helper()
	d := Date(t, s)
	return &d
}

// FixedClock возвращает функцию времени, всегда отдающую указанный момент
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// SeedEmployee добавляет сотрудника в справочник
func SeedEmployee(t *testing.T, db *gorm.DB, name string) *domain.Employee {
	t.Helper()
	emp := &domain.Employee{
		Code:     "EMP-" + uuid.NewString()[:8],
		FullName: name,
		Salary:   decimal.NewFromInt(30000),
	}
	require.NoError(t, db.WithContext(context.Background()).Create(emp).Error)
	return emp
}

// SeedContract добавляет заказчика и договор с ним
func SeedContract(t *testing.T, db *gorm.DB, customerName string) (*domain.Customer, *domain.Contract) {
	t.Helper()
	customer := &domain.Customer{
		Code: "CUS-" + uuid.NewString()[:8],
		Name: customerName,
	}
	require.NoError(t, db.Create(customer).Error)

	contract := &domain.Contract{
		Code:       "CON-" + uuid.NewString()[:8],
		CustomerID: customer.ID,
		StartDate:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(contract).Error)
	return customer, contract
}

// AssignmentOption меняет назначение перед сохранением
type AssignmentOption func(*domain.Assignment)

func WithState(s domain.AssignmentState) AssignmentOption {
	return func(a *domain.Assignment) { a.State = s }
}

func WithCategory(c domain.AssignmentCategory) AssignmentOption {
	return func(a *domain.Assignment) { a.Category = c }
}

func WithEndDate(d time.Time) AssignmentOption {
	return func(a *domain.Assignment) {
		end := domain.DateOf(d)
		a.EndDate = &end
	}
}

func WithWorkDays(n int) AssignmentOption {
	return func(a *domain.Assignment) { a.WorkDays = n }
}

// SeedAssignment сохраняет назначение в обход сервиса.
// По умолчанию: IN_PROGRESS, FIXED_BY_CONTRACT, без даты окончания.
func SeedAssignment(t *testing.T, db *gorm.DB, employeeID, contractID int64, start time.Time, opts ...AssignmentOption) *domain.Assignment {
	t.Helper()
	a := &domain.Assignment{
		EmployeeID:   employeeID,
		ContractID:   contractID,
		StartDate:    domain.DateOf(start),
		State:        domain.StateInProgress,
		Category:     domain.CategoryFixedByContract,
		SalaryAtTime: decimal.NewFromInt(30000),
		CreatedBy:    "seed",
	}
	for _, opt := range opts {
		opt(a)
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// SeedAttendance добавляет отработанный день
func SeedAttendance(t *testing.T, db *gorm.DB, assignmentID, employeeID int64, date time.Time) *domain.Attendance {
	t.Helper()
	row := &domain.Attendance{
		AssignmentID: assignmentID,
		EmployeeID:   employeeID,
		Date:         domain.DateOf(date),
		WorkHours:    decimal.NewFromInt(8),
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

// CountAttendance считает строки посещаемости по условию
func CountAttendance(t *testing.T, db *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Attendance{}).Where(query, args...).Count(&n).Error)
	return n
}
