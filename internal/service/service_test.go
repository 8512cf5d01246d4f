package service_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/events"
	"github.com/staffing-api/internal/repository"
	"github.com/staffing-api/internal/service"
	"github.com/staffing-api/internal/testhelpers"
)

// fixture - база, сервисы и два сотрудника на одном договоре
type fixture struct {
	db       *gorm.DB
	repos    *repository.Repositories
	deps     service.Deps
	recorder *events.Recorder

	replaced    *domain.Employee
	replacement *domain.Employee
	contract    *domain.Contract
}

func newFixture(t *testing.T, now string) *fixture {
	t.Helper()
	db := testhelpers.NewDB(t)
	repos := repository.New(db)
	rec := &events.Recorder{}

	at, err := time.Parse(time.RFC3339, now)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		repos:    repos,
		recorder: rec,
		deps: service.Deps{
			Repos:  repos,
			Clock:  domain.Clock{NowFunc: testhelpers.FixedClock(at), Location: time.UTC},
			Events: rec,
			Log:    testhelpers.Logger(),
		},
	}
	f.replaced = testhelpers.SeedEmployee(t, db, "Ирина Соколова")
	f.replacement = testhelpers.SeedEmployee(t, db, "Ольга Смирнова")
	_, f.contract = testhelpers.SeedContract(t, db, "ООО Чистый офис")
	return f
}

// seedPaidAttendance добавляет день с денежными полями
func (f *fixture) seedPaidAttendance(t *testing.T, a *domain.Assignment, date, bonus string) *domain.Attendance {
	t.Helper()
	row := &domain.Attendance{
		AssignmentID: a.ID,
		EmployeeID:   a.EmployeeID,
		Date:         testhelpers.Date(t, date),
		WorkHours:    decimal.NewFromInt(8),
		Bonus:        decimal.RequireFromString(bonus),
		Penalty:      decimal.NewFromInt(10),
		Description:  "уборка этажа",
	}
	require.NoError(t, f.db.Create(row).Error)
	return row
}

func (f *fixture) countBackups(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.DeletedAttendanceBackup{}).Count(&n).Error)
	return n
}

func allHistory() repository.HistoryFilter {
	return repository.HistoryFilter{}
}

func attendanceOf(assignmentID int64) repository.AttendanceFilter {
	return repository.AttendanceFilter{AssignmentID: &assignmentID}
}
