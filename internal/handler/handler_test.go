package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/staffing-api/internal/config"
	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/dto"
	"github.com/staffing-api/internal/handler"
	"github.com/staffing-api/internal/repository"
	"github.com/staffing-api/internal/scheduler"
	"github.com/staffing-api/internal/service"
	"github.com/staffing-api/internal/testhelpers"
)

type testServer struct {
	server *httptest.Server
	db     *gorm.DB
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testhelpers.NewDB(t)
	repos := repository.New(db)
	clock := domain.Clock{
		NowFunc:  testhelpers.FixedClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
		Location: time.UTC,
	}
	log := testhelpers.Logger()
	deps := service.Deps{Repos: repos, Clock: clock, Log: log}

	passes := scheduler.DefaultPasses(scheduler.Deps{Repos: repos, Clock: clock, Log: log})
	runner := scheduler.NewRunner(passes, scheduler.NewMemoryLocker(), clock,
		config.SchedulerConfig{Enabled: false, Interval: time.Hour}, log)

	h := handler.NewHandler(handler.Services{
		Assignments:  service.NewAssignmentService(deps),
		Reassignment: service.NewReassignmentService(deps),
		Backups:      service.NewBackupService(deps),
		History:      service.NewHistoryService(deps),
		Attendance:   service.NewAttendanceService(deps),
		Directory:    service.NewDirectoryService(deps),
		Passes:       runner,
	}, clock, log)

	router := handler.NewRouter(h, config.MetricsConfig{Enabled: true, Path: "/metrics"}, log)
	ts := &testServer{server: httptest.NewServer(router), db: db}
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) url(format string, args ...any) string {
	return ts.server.URL + fmt.Sprintf(format, args...)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodPost, url, body, "dispatcher")
}

func doJSON(t *testing.T, method, url string, body any, actor string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(handler.ActorHeader, actor)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func requireError(t *testing.T, resp *http.Response, status int, kind string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	if kind != "" {
		assert.Equal(t, kind, body.Error)
	}
}

// pair - два сотрудника на одном договоре с посещаемостью заменяемого
type pair struct {
	replaced, replacement *domain.Employee
	source, target        *domain.Assignment
}

func seedPair(t *testing.T, db *gorm.DB, days ...string) pair {
	t.Helper()
	replaced := testhelpers.SeedEmployee(t, db, "Ирина Соколова")
	replacement := testhelpers.SeedEmployee(t, db, "Ольга Смирнова")
	_, contract := testhelpers.SeedContract(t, db, "ООО Чистый офис")
	start := testhelpers.Date(t, "2025-03-01")

	p := pair{
		replaced:    replaced,
		replacement: replacement,
		source:      testhelpers.SeedAssignment(t, db, replaced.ID, contract.ID, start),
		target:      testhelpers.SeedAssignment(t, db, replacement.ID, contract.ID, start),
	}
	for _, d := range days {
		testhelpers.SeedAttendance(t, db, p.source.ID, replaced.ID, testhelpers.Date(t, d))
	}
	return p
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := get(t, ts.url("/health"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := get(t, ts.url("/metrics"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAssignment(t *testing.T) {
	ts := setupTestServer(t)
	emp := testhelpers.SeedEmployee(t, ts.db, "Анна Петрова")
	_, contract := testhelpers.SeedContract(t, ts.db, "ООО Чистота")

	body := map[string]any{
		"employee_id": emp.ID,
		"contract_id": contract.ID,
		"start_date":  "2025-03-15",
		"category":    "FIXED_BY_CONTRACT",
	}

	resp := postJSON(t, ts.url("/assignments"), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	created := decode[dto.AssignmentResponse](t, resp)
	assert.Equal(t, "SCHEDULED", created.State)
	assert.Equal(t, "2025-03-15", created.StartDate)
	assert.Equal(t, "dispatcher", created.CreatedBy)

	resp = get(t, ts.url("/assignments/%d", created.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.url("/assignments"), body)
	requireError(t, resp, http.StatusConflict, "AlreadyExists")

	resp = get(t, ts.url("/assignments?employee_id=%d", emp.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.PageResponse[dto.AssignmentResponse]](t, resp)
	assert.Equal(t, int64(1), page.Total)
}

func TestCreateAssignment_BadRequests(t *testing.T) {
	ts := setupTestServer(t)
	emp := testhelpers.SeedEmployee(t, ts.db, "Анна Петрова")
	_, contract := testhelpers.SeedContract(t, ts.db, "ООО Чистота")

	tests := []struct {
		name   string
		body   any
		actor  string
		status int
	}{
		{
			name:   "missing actor",
			body:   map[string]any{"employee_id": emp.ID, "contract_id": contract.ID, "start_date": "2025-03-01", "category": "TEMPORARY"},
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed date",
			body:   map[string]any{"employee_id": emp.ID, "contract_id": contract.ID, "start_date": "01.03.2025", "category": "TEMPORARY"},
			actor:  "hr",
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown category",
			body:   map[string]any{"employee_id": emp.ID, "contract_id": contract.ID, "start_date": "2025-03-01", "category": "SEASONAL"},
			actor:  "hr",
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown contract",
			body:   map[string]any{"employee_id": emp.ID, "contract_id": 999, "start_date": "2025-03-01", "category": "TEMPORARY"},
			actor:  "hr",
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.url("/assignments"), tt.body, tt.actor)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.url("/assignments"), bytes.NewBufferString("invalid"))
		require.NoError(t, err)
		req.Header.Set(handler.ActorHeader, "hr")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetAssignment_Errors(t *testing.T) {
	ts := setupTestServer(t)

	requireError(t, get(t, ts.url("/assignments/999")), http.StatusNotFound, "NotFound")
	assert.Equal(t, http.StatusBadRequest, get(t, ts.url("/assignments/abc")).StatusCode)
}

func TestCancelAssignment(t *testing.T) {
	ts := setupTestServer(t)
	p := seedPair(t, ts.db)

	resp := doJSON(t, http.MethodPost, ts.url("/assignments/%d/cancel", p.source.ID), nil, "hr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CANCELLED", decode[dto.AssignmentResponse](t, resp).State)

	resp = doJSON(t, http.MethodPost, ts.url("/assignments/%d/cancel", p.source.ID), nil, "hr")
	requireError(t, resp, http.StatusConflict, "InvalidState")
}

func TestReassignmentWorkflow(t *testing.T) {
	ts := setupTestServer(t)
	p := seedPair(t, ts.db, "2025-03-01")

	req := map[string]any{
		"replacement_employee_id":   p.replacement.ID,
		"replacement_assignment_id": p.target.ID,
		"replaced_employee_id":      p.replaced.ID,
		"reassignment_type":         "TEMPORARY",
		"dates":                     []string{"2025-03-01"},
	}

	resp := postJSON(t, ts.url("/reassignments"), req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ReassignmentResponse](t, resp)
	assert.Equal(t, 1, created.ProcessedDaysCount)
	require.NotNil(t, created.History)
	historyID := created.History.ID

	resp = postJSON(t, ts.url("/reassignments"), req)
	requireError(t, resp, http.StatusConflict, "ReplacementAlreadyHasAttendance")

	resp = get(t, ts.url("/histories/%d", historyID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[domain.AssignmentHistory](t, resp)
	assert.Equal(t, domain.HistoryActive, history.Status)
	require.Len(t, history.Dates, 1)

	resp = get(t, ts.url("/histories?employee_id=%d&status=ACTIVE", p.replaced.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), decode[dto.PageResponse[domain.AssignmentHistory]](t, resp).Total)

	resp = postJSON(t, ts.url("/histories/%d/rollback", historyID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rb := decode[dto.RollbackResponse](t, resp)
	assert.Equal(t, 1, rb.RestoredCount)
	assert.Equal(t, 1, rb.RemovedCount)

	resp = postJSON(t, ts.url("/histories/%d/rollback", historyID), nil)
	requireError(t, resp, http.StatusConflict, "RollbackNotEligible")

	resp = doJSON(t, http.MethodPost, ts.url("/histories/%d/rollback", historyID), nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReassignment_Validation(t *testing.T) {
	ts := setupTestServer(t)
	p := seedPair(t, ts.db)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		kind   string
	}{
		{
			name: "same employee on both sides",
			body: map[string]any{
				"replacement_employee_id": p.replaced.ID, "replacement_assignment_id": p.source.ID,
				"replaced_employee_id": p.replaced.ID, "reassignment_type": "TEMPORARY", "dates": []string{"2025-03-01"},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "temporary without dates",
			body: map[string]any{
				"replacement_employee_id": p.replacement.ID, "replacement_assignment_id": p.target.ID,
				"replaced_employee_id": p.replaced.ID, "reassignment_type": "TEMPORARY",
			},
			status: http.StatusBadRequest,
		},
		{
			name: "permanent without from_date",
			body: map[string]any{
				"replacement_employee_id": p.replacement.ID, "replacement_assignment_id": p.target.ID,
				"replaced_employee_id": p.replaced.ID, "reassignment_type": "PERMANENT",
			},
			status: http.StatusBadRequest,
		},
		{
			name: "no attendance to move",
			body: map[string]any{
				"replacement_employee_id": p.replacement.ID, "replacement_assignment_id": p.target.ID,
				"replaced_employee_id": p.replaced.ID, "reassignment_type": "TEMPORARY", "dates": []string{"2025-03-07"},
			},
			status: http.StatusConflict,
			kind:   "NoAttendanceForReplacedEmployee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireError(t, postJSON(t, ts.url("/reassignments"), tt.body), tt.status, tt.kind)
		})
	}
}

func TestTerminateAndRestore(t *testing.T) {
	ts := setupTestServer(t)
	p := seedPair(t, ts.db, "2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04")

	resp := postJSON(t, ts.url("/assignments/%d/terminate", p.source.ID), map[string]any{"end_date": "2025-03-02"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	terminated := decode[dto.AssignmentResponse](t, resp)
	require.NotNil(t, terminated.EndDate)
	assert.Equal(t, "2025-03-02", *terminated.EndDate)

	resp = get(t, ts.url("/assignments/%d/deleted-attendance", p.source.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	backups := decode[[]domain.DeletedAttendanceBackup](t, resp)
	require.Len(t, backups, 2)

	resp = postJSON(t, ts.url("/deleted-attendance/%d/restore", backups[0].ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	row := decode[domain.Attendance](t, resp)
	assert.Equal(t, backups[0].AttendanceID, row.ID)

	resp = postJSON(t, ts.url("/deleted-attendance/%d/restore", backups[0].ID), nil)
	requireError(t, resp, http.StatusNotFound, "NotFound")

	resp = postJSON(t, ts.url("/assignments/%d/deleted-attendance/restore", p.source.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[dto.RestoreAllResponse](t, resp)
	assert.Equal(t, 1, all.RestoredCount)

	resp = postJSON(t, ts.url("/assignments/%d/terminate", p.source.ID), map[string]any{"end_date": "2025-02-01"})
	requireError(t, resp, http.StatusBadRequest, "InvalidInput")
}

func TestAttendanceEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	p := seedPair(t, ts.db)
	for _, d := range []string{"2025-02-28", "2025-03-01", "2025-03-02"} {
		row := &domain.Attendance{
			AssignmentID: p.source.ID,
			EmployeeID:   p.replaced.ID,
			Date:         testhelpers.Date(t, d),
			WorkHours:    decimal.NewFromInt(8),
			SupportCost:  decimal.NewFromInt(15),
		}
		require.NoError(t, ts.db.Create(row).Error)
	}

	resp := get(t, ts.url("/assignments/%d/attendance?year=2025&month=3", p.source.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.PageResponse[domain.Attendance]](t, resp)
	assert.Equal(t, int64(2), page.Total)

	resp = get(t, ts.url("/employees/%d/attendance", p.replaced.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), decode[dto.PageResponse[domain.Attendance]](t, resp).Total)

	resp = get(t, ts.url("/assignments/%d/attendance?month=3", p.source.ID))
	requireError(t, resp, http.StatusBadRequest, "InvalidInput")

	resp = get(t, ts.url("/assignments/%d/attendance?month=13&year=2025", p.source.ID))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, ts.url("/assignments/%d/attendance/totals", p.source.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	totals := decode[dto.AttendanceTotals](t, resp)
	assert.True(t, totals.SupportCost.Equal(decimal.NewFromInt(45)), totals.SupportCost.String())

	requireError(t, get(t, ts.url("/employees/999/attendance")), http.StatusNotFound, "NotFound")
}

func TestRunPass(t *testing.T) {
	ts := setupTestServer(t)
	emp := testhelpers.SeedEmployee(t, ts.db, "Анна Петрова")
	_, contract := testhelpers.SeedContract(t, ts.db, "ООО Чистота")
	a := testhelpers.SeedAssignment(t, ts.db, emp.ID, contract.ID, testhelpers.Date(t, "2025-03-03"),
		testhelpers.WithState(domain.StateScheduled))

	resp := postJSON(t, ts.url("/scheduler/passes/activation?date=2025-03-03"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[scheduler.PassReport](t, resp)
	assert.Equal(t, scheduler.PassActivation, report.Pass)
	assert.Equal(t, 1, report.Transitioned)

	resp = get(t, ts.url("/assignments/%d", a.ID))
	assert.Equal(t, "IN_PROGRESS", decode[dto.AssignmentResponse](t, resp).State)

	requireError(t, postJSON(t, ts.url("/scheduler/passes/weekly"), nil), http.StatusNotFound, "NotFound")
	assert.Equal(t, http.StatusBadRequest, postJSON(t, ts.url("/scheduler/passes/activation?date=tomorrow"), nil).StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t)

	resp := doJSON(t, http.MethodDelete, ts.url("/reassignments"), nil, "dispatcher")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
