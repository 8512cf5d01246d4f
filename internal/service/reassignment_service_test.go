package service_test

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
	"github.com/staffing-api/internal/events"
	"github.com/staffing-api/internal/service"
	"github.com/staffing-api/internal/testhelpers"
)

func temporaryRequest(f *fixture, target *domain.Assignment, dates ...string) *dto.ReassignmentRequest {
	return &dto.ReassignmentRequest{
		ReplacementEmployeeID:   f.replacement.ID,
		ReplacementAssignmentID: target.ID,
		ReplacedEmployeeID:      f.replaced.ID,
		Type:                    string(domain.ReassignmentTemporary),
		Dates:                   dates,
	}
}

func TestReassign_TemporarySingleDay(t *testing.T) {
	f := newFixture(t, "2025-03-01T09:00:00Z")
	ctx := context.Background()
	day := testhelpers.Date(t, "2025-03-01")

	source := testhelpers.SeedAssignment(t, f.db, f.replaced.ID, f.contract.ID, day,
		testhelpers.WithCategory(domain.CategoryTemporary), testhelpers.WithEndDate(day))
	target := testhelpers.SeedAssignment(t, f.db, f.replacement.ID, f.contract.ID, day,
		testhelpers.WithCategory(domain.CategoryTemporary), testhelpers.WithEndDate(day))
	original := f.seedPaidAttendance(t, source, "2025-03-01", "100.5")

	svc := service.NewReassignmentService(f.deps)
	resp, err := svc.Reassign(ctx, temporaryRequest(f, target, "2025-03-01"), "dispatcher")
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ProcessedDaysCount)
	assert.Equal(t, 1, resp.RequestedDaysCount)
	assert.Empty(t, resp.Failures)
	require.Len(t, resp.CreatedAttendances, 1)
	require.Len(t, resp.DeletedAttendances, 1)
	assert.Equal(t, original.ID, resp.DeletedAttendances[0].ID)

	created := resp.CreatedAttendances[0]
	assert.Equal(t, f.replacement.ID, created.EmployeeID)
	assert.Equal(t, target.ID, created.AssignmentID)
	assert.True(t, created.Bonus.Equal(decimal.RequireFromString("100.5")))
	assert.Equal(t, "уборка этажа", created.Description)

	h := resp.History
	require.NotNil(t, h)
	assert.Equal(t, domain.ReassignmentTemporary, h.Type)
	assert.Equal(t, domain.HistoryActive, h.Status)
	assert.Equal(t, source.ID, h.OldAssignmentID)
	assert.Equal(t, target.ID, h.NewAssignmentID)
	assert.Equal(t, "Ирина Соколова", h.ReplacedEmployeeName)
	assert.Equal(t, "Ольга Смирнова", h.ReplacementEmployeeName)
	assert.Equal(t, "ООО Чистый офис", h.CustomerName)
	assert.Equal(t, "dispatcher", h.CreatedBy)

	stored, err := f.repos.Histories.GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, source.ID, stored.OldAssignmentID)
	require.Len(t, stored.Dates, 1)
	assert.Equal(t, "2025-03-01", domain.FormatDate(stored.Dates[0].Date))

	assert.Equal(t, int64(0), testhelpers.CountAttendance(t, f.db, "employee_id = ?", f.replaced.ID))
	assert.Equal(t, int64(1), testhelpers.CountAttendance(t, f.db, "employee_id = ?", f.replacement.ID))

	backups, err := f.repos.Backups.ListByHistory(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, original.ID, backups[0].AttendanceID)
	assert.Equal(t, domain.BackupReasonReassignment, backups[0].Reason)
	assert.Equal(t, "dispatcher", backups[0].RemovedBy)

	assert.Equal(t, []events.Type{events.ReassignmentCreated}, f.recorder.Types())
}

func TestReassign_RepeatIsRejected(t *testing.T) {
	f := newFixture(t, "2025-03-01T09:00:00Z")
	ctx := context.Background()
	day := testhelpers.Date(t, "2025-03-01")

	source := testhelpers.SeedAssignment(t, f.db, f.replaced.ID, f.contract.ID, day)
	target := testhelpers.SeedAssignment(t, f.db, f.replacement.ID, f.contract.ID, day)
	f.seedPaidAttendance(t, source, "2025-03-01", "0")

	svc := service.NewReassignmentService(f.deps)
	_, err := svc.Reassign(ctx, temporaryRequest(f, target, "2025-03-01"), "dispatcher")
	require.NoError(t, err)

	_, err = svc.Reassign(ctx, temporaryRequest(f, target, "2025-03-01"), "dispatcher")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrReplacementAlreadyHasAttendance))
	assert.Equal(t, "ReplacementAlreadyHasAttendance", domain.Kind(err))

	_, total, err := f.repos.Histories.List(ctx, allHistory())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "failed request leaves no history")
	assert.Equal(t, int64(1), f.countBackups(t))
}

func TestReassign_PartialBatch(t *testing.T) {
	f := newFixture(t, "2025-03-01T09:00:00Z")
	ctx := context.Background()
	start := testhelpers.Date(t, "2025-03-01")

	source := testhelpers.SeedAssignment(t, f.db, f.replaced.ID, f.contract.ID, start)
	target := testhelpers.SeedAssignment(t, f.db, f.replacement.ID, f.contract.ID, start)
	f.seedPaidAttendance(t, source, "2025-03-01", "10")
	f.seedPaidAttendance(t, source, "2025-03-03", "30")
	// у замещающего уже есть 2025-03-03
	testhelpers.SeedAttendance(t, f.db, target.ID, f.replacement.ID, testhelpers.Date(t, "2025-03-03"))

	svc := service.NewReassignmentService(f.deps)
	resp, err := svc.Reassign(ctx,
		temporaryRequest(f, target, "2025-03-01", "2025-03-02", "2025-03-03", "2025-03-01"), "dispatcher")
	require.NoError(t, err)

	assert.Equal(t, 3, resp.RequestedDaysCount, "duplicates are collapsed")
	assert.Equal(t, 1, resp.ProcessedDaysCount)
	require.Len(t, resp.Failures, 2)
	assert.Equal(t, "2025-03-02", resp.Failures[0].Date)
	assert.Equal(t, "NoAttendanceForReplacedEmployee", resp.Failures[0].Kind)
	assert.Equal(t, "2025-03-03", resp.Failures[1].Date)
	assert.Equal(t, "ReplacementAlreadyHasAttendance", resp.Failures[1].Kind)

	stored, err := f.repos.Histories.GetByID(ctx, resp.History.ID)
	require.NoError(t, err)
	require.Len(t, stored.Dates, 1)
	assert.Equal(t, "2025-03-01", domain.FormatDate(stored.Dates[0].Date))

	// неудачные даты ничего не изменили
	assert.Equal(t, int64(1), testhelpers.CountAttendance(t, f.db, "employee_id = ? AND work_date = ?",
		f.replaced.ID, testhelpers.Date(t, "2025-03-03")))
	assert.Equal(t, int64(1), f.countBackups(t))
}

func TestReassign_NothingApplicable(t *testing.T) {
	f := newFixture(t, "2025-03-01T09:00:00Z")
	ctx := context.Background()
	start := testhelpers.Date(t, "2025-03-01")

	testhelpers.SeedAssignment(t, f.db, f.replaced.ID, f.contract.ID, start)
	target := testhelpers.SeedAssignment(t, f.db, f.replacement.ID, f.contract.ID, start)

	svc := service.NewReassignmentService(f.deps)
	_, err := svc.Reassign(ctx, temporaryRequest(f, target, "2025-03-05"), "dispatcher")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoAttendanceForReplacedEmployee))

	_, total, err := f.repos.Histories.List(ctx, allHistory())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, f.countBackups(t))
	assert.Empty(t, f.recorder.Types())
}

func TestReassign_Permanent(t *testing.T) {
	f := newFixture(t, "2025-03-01T09:00:00Z")
	ctx := context.Background()
	start := testhelpers.Date(t, "2025-03-01")

	source := testhelpers.SeedAssignment(t, f.db, f.replaced.ID, f.contract.ID, start)
	target := testhelpers.SeedAssignment(t, f.db, f.replacement.ID, f.contract.ID, start)
	for _, d := range domain.DaysBetween(start, testhelpers.Date(t, "2025-03-05")) {
		testhelpers.SeedAttendance(t, f.db, source.ID, f.replaced.ID, d)
	}

	from := "2025-03-03"
	bonus := decimal.NewFromInt(500)
	svc := service.NewReassignmentService(f.deps)
	resp, err := svc.Reassign(ctx, &dto.ReassignmentRequest{
		ReplacementEmployeeID:   f.replacement.ID,
		ReplacementAssignmentID: target.ID,
		ReplacedEmployeeID:      f.replaced.ID,
		Type:                    string(domain.ReassignmentPermanent),
		FromDate:                &from,
		Description:             "постоянная замена",
		Overrides:               &dto.AttendanceOverrides{Bonus: &bonus},
	}, "dispatcher")
	require.NoError(t, err)

	assert.Equal(t, 3, resp.ProcessedDaysCount)
	assert.Equal(t, domain.ReassignmentPermanent, resp.History.Type)
	for _, row := range resp.CreatedAttendances {
		assert.True(t, row.Bonus.Equal(bonus))
		assert.Equal(t, "постоянная замена", row.Description)
	}
	assert.Equal(t, int64(2), testhelpers.CountAttendance(t, f.db, "employee_id = ?", f.replaced.ID))
	assert.Equal(t, int64(3), testhelpers.CountAttendance(t, f.db, "employee_id = ?", f.replacement.ID))

	stored, err := f.repos.Histories.GetByID(ctx, resp.History.ID)
	require.NoError(t, err)
	dates := stored.AffectedDates()
	require.Len(t, dates, 3)
	assert.Equal(t, "2025-03-03", domain.FormatDate(dates[0]))
	assert.Equal(t, "2025-03-05", domain.FormatDate(dates[2]))
}

func TestReassign_Validation(t *testing.T) {
	f := newFixture(t, "2025-03-01T09:00:00Z")
	ctx := context.Background()
	start := testhelpers.Date(t, "2025-03-01")

	foreign := testhelpers.SeedAssignment(t, f.db, f.replaced.ID, f.contract.ID, start)
	closed := testhelpers.SeedAssignment(t, f.db, f.replacement.ID, f.contract.ID, start,
		testhelpers.WithState(domain.StateCompleted))
	svc := service.NewReassignmentService(f.deps)

	tests := []struct {
		name    string
		req     *dto.ReassignmentRequest
		wantErr error
	}{
		{
			name:    "assignment of another employee",
			req:     temporaryRequest(f, foreign, "2025-03-01"),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "closed replacement assignment",
			req:     temporaryRequest(f, closed, "2025-03-01"),
			wantErr: domain.ErrInvalidState,
		},
		{
			name:    "no dates",
			req:     temporaryRequest(f, closed),
			wantErr: domain.ErrNoDates,
		},
		{
			name:    "bad date",
			req:     temporaryRequest(f, closed, "01.03.2025"),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "self replacement",
			req: &dto.ReassignmentRequest{
				ReplacementEmployeeID:   f.replaced.ID,
				ReplacementAssignmentID: foreign.ID,
				ReplacedEmployeeID:      f.replaced.ID,
				Type:                    string(domain.ReassignmentTemporary),
				Dates:                   []string{"2025-03-01"},
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "permanent without from date",
			req: &dto.ReassignmentRequest{
				ReplacementEmployeeID:   f.replacement.ID,
				ReplacementAssignmentID: closed.ID,
				ReplacedEmployeeID:      f.replaced.ID,
				Type:                    string(domain.ReassignmentPermanent),
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "missing assignment",
			req: &dto.ReassignmentRequest{
				ReplacementEmployeeID:   f.replacement.ID,
				ReplacementAssignmentID: 9999,
				ReplacedEmployeeID:      f.replaced.ID,
				Type:                    string(domain.ReassignmentTemporary),
				Dates:                   []string{"2025-03-01"},
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reassign(ctx, tt.req, "dispatcher")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), err.Error())
		})
	}
}

func TestReassign_DateOutsideReplacementAssignment(t *testing.T) {
	f := newFixture(t, "2025-03-01T09:00:00Z")
	ctx := context.Background()
	day := testhelpers.Date(t, "2025-03-01")

	source := testhelpers.SeedAssignment(t, f.db, f.replaced.ID, f.contract.ID, testhelpers.Date(t, "2025-02-01"))
	target := testhelpers.SeedAssignment(t, f.db, f.replacement.ID, f.contract.ID, day,
		testhelpers.WithCategory(domain.CategoryTemporary), testhelpers.WithEndDate(day))
	f.seedPaidAttendance(t, source, "2025-02-28", "10")
	f.seedPaidAttendance(t, source, "2025-03-01", "10")
	f.seedPaidAttendance(t, source, "2025-03-02", "10")

	svc := service.NewReassignmentService(f.deps)
	resp, err := svc.Reassign(ctx, temporaryRequest(f, target, "2025-02-28", "2025-03-01", "2025-03-02"), "dispatcher")
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ProcessedDaysCount)
	require.Len(t, resp.Failures, 2)
	for _, failure := range resp.Failures {
		assert.Equal(t, "InvalidInput", failure.Kind, failure.Date)
	}
	assert.Equal(t, int64(2), testhelpers.CountAttendance(t, f.db, "employee_id = ?", f.replaced.ID))
	assert.Equal(t, int64(1), testhelpers.CountAttendance(t, f.db, "employee_id = ?", f.replacement.ID))

	_, err = svc.Reassign(ctx, temporaryRequest(f, target, "2025-03-02"), "dispatcher")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
