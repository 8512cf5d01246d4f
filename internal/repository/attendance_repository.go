package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/staffing-api/internal/domain"
)

// AmountColumn - денежная колонка посещаемости, по которой считается сумма
type AmountColumn string

const (
	AmountBonus       AmountColumn = "bonus"
	AmountPenalty     AmountColumn = "penalty"
	AmountSupportCost AmountColumn = "support_cost"
)

func (c AmountColumn) valid() bool {
	switch c {
	case AmountBonus, AmountPenalty, AmountSupportCost:
		return true
	}
	return false
}

// AttendanceFilter - условия выборки посещаемости.
// Month учитывается только вместе с Year.
type AttendanceFilter struct {
	AssignmentID *int64
	EmployeeID   *int64
	Year         int
	Month        int
	Page         Page
}

// AttendanceRepository определяет интерфейс для работы с посещаемостью
type AttendanceRepository interface {
	Create(ctx context.Context, a *domain.Attendance) error
	CreateBatch(ctx context.Context, rows []domain.Attendance) error
	GetByID(ctx context.Context, id int64) (*domain.Attendance, error)
	Delete(ctx context.Context, id int64) error
	FindSlot(ctx context.Context, assignmentID, employeeID int64, date time.Time) (*domain.Attendance, error)
	SlotExists(ctx context.Context, assignmentID, employeeID int64, date time.Time) (bool, error)
	FindByEmployeeContractDate(ctx context.Context, employeeID, contractID int64, date time.Time) (*domain.Attendance, error)
	ListByEmployeeContractFrom(ctx context.Context, employeeID, contractID int64, from time.Time) ([]domain.Attendance, error)
	ListByAssignmentAfter(ctx context.Context, assignmentID int64, after time.Time) ([]domain.Attendance, error)
	CountInRange(ctx context.Context, assignmentID int64, from, to time.Time) (int64, error)
	List(ctx context.Context, filter AttendanceFilter) ([]domain.Attendance, int64, error)
	Sum(ctx context.Context, assignmentID int64, column AmountColumn) (decimal.Decimal, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository создаёт новый экземпляр репозитория
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, a *domain.Attendance) error {
	a.Date = domain.DateOf(a.Date)
	if err := conn(ctx, r.db).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAttendanceAlreadyExists
		}
		return errors.Wrap(err, "create attendance")
	}
	return nil
}

func (r *attendanceRepository) CreateBatch(ctx context.Context, rows []domain.Attendance) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].Date = domain.DateOf(rows[i].Date)
	}
	if err := conn(ctx, r.db).CreateInBatches(rows, 100).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAttendanceAlreadyExists
		}
		return errors.Wrap(err, "create attendance batch")
	}
	return nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id int64) (*domain.Attendance, error) {
	var a domain.Attendance
	err := conn(ctx, r.db).First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAttendanceNotFound
		}
		return nil, errors.Wrap(err, "get attendance")
	}
	return &a, nil
}

func (r *attendanceRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&domain.Attendance{}, id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete attendance")
	}
	if result.RowsAffected == 0 {
		return domain.ErrAttendanceNotFound
	}
	return nil
}

func (r *attendanceRepository) FindSlot(ctx context.Context, assignmentID, employeeID int64, date time.Time) (*domain.Attendance, error) {
	var a domain.Attendance
	err := conn(ctx, r.db).
		Where("assignment_id = ? AND employee_id = ? AND work_date = ?", assignmentID, employeeID, domain.DateOf(date)).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAttendanceNotFound
		}
		return nil, errors.Wrap(err, "find attendance slot")
	}
	return &a, nil
}

func (r *attendanceRepository) SlotExists(ctx context.Context, assignmentID, employeeID int64, date time.Time) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&domain.Attendance{}).
		Where("assignment_id = ? AND employee_id = ? AND work_date = ?", assignmentID, employeeID, domain.DateOf(date)).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "check attendance slot")
	}
	return count > 0, nil
}

// contractScope ограничивает выборку строками сотрудника на назначениях договора
func contractScope(employeeID, contractID int64) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Select("attendance.*").
			Joins("JOIN assignments ON assignments.id = attendance.assignment_id").
			Where("attendance.employee_id = ? AND assignments.contract_id = ?", employeeID, contractID)
	}
}

func (r *attendanceRepository) FindByEmployeeContractDate(ctx context.Context, employeeID, contractID int64, date time.Time) (*domain.Attendance, error) {
	var a domain.Attendance
	err := conn(ctx, r.db).
		Scopes(contractScope(employeeID, contractID)).
		Where("attendance.work_date = ?", domain.DateOf(date)).
		Order("attendance.id ASC").
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAttendanceNotFound
		}
		return nil, errors.Wrap(err, "find attendance by employee and contract")
	}
	return &a, nil
}

func (r *attendanceRepository) ListByEmployeeContractFrom(ctx context.Context, employeeID, contractID int64, from time.Time) ([]domain.Attendance, error) {
	var rows []domain.Attendance
	err := conn(ctx, r.db).
		Scopes(contractScope(employeeID, contractID)).
		Where("attendance.work_date >= ?", domain.DateOf(from)).
		Order("attendance.work_date ASC, attendance.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list attendance by employee and contract")
	}
	return rows, nil
}

func (r *attendanceRepository) ListByAssignmentAfter(ctx context.Context, assignmentID int64, after time.Time) ([]domain.Attendance, error) {
	var rows []domain.Attendance
	err := conn(ctx, r.db).
		Where("assignment_id = ? AND work_date > ?", assignmentID, domain.DateOf(after)).
		Order("work_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list attendance after date")
	}
	return rows, nil
}

func (r *attendanceRepository) CountInRange(ctx context.Context, assignmentID int64, from, to time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&domain.Attendance{}).
		Where("assignment_id = ? AND work_date >= ? AND work_date <= ?", assignmentID, domain.DateOf(from), domain.DateOf(to)).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count attendance")
	}
	return count, nil
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]domain.Attendance, int64, error) {
	query := conn(ctx, r.db).Model(&domain.Attendance{})

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.Year > 0 {
		from := time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(1, 0, -1)
		if filter.Month >= 1 && filter.Month <= 12 {
			from = time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, time.UTC)
			to = domain.LastOfMonth(from)
		}
		query = query.Where("work_date >= ? AND work_date <= ?", from, to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count attendance")
	}

	var rows []domain.Attendance
	err := filter.Page.apply(query).Order("work_date DESC, id DESC").Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list attendance")
	}
	return rows, total, nil
}

func (r *attendanceRepository) Sum(ctx context.Context, assignmentID int64, column AmountColumn) (decimal.Decimal, error) {
	if !column.valid() {
		return decimal.Zero, errors.Errorf("unknown amount column %q", column)
	}
	var total decimal.NullDecimal
	err := conn(ctx, r.db).Model(&domain.Attendance{}).
		Select("SUM("+string(column)+")").
		Where("assignment_id = ?", assignmentID).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "sum attendance %s", column)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
