package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/staffing-api/internal/domain"
)

// CreateAssignmentRequest - запрос на создание назначения
type CreateAssignmentRequest struct {
	EmployeeID         int64            `json:"employee_id" validate:"required,min=1"`
	ContractID         int64            `json:"contract_id" validate:"required,min=1"`
	StartDate          string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate            *string          `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Category           string           `json:"category" validate:"required,oneof=FIXED_BY_CONTRACT FIXED_BY_DAY TEMPORARY FIXED_BY_COMPANY"`
	Description        string           `json:"description" validate:"max=2000"`
	GenerateAttendance bool             `json:"generate_attendance"`
	DefaultWorkHours   *decimal.Decimal `json:"default_work_hours"`
}

// TerminateAssignmentRequest - досрочное завершение назначения
type TerminateAssignmentRequest struct {
	EndDate string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason  string `json:"reason" validate:"max=2000"`
}

// CancelAssignmentRequest - отмена назначения оператором
type CancelAssignmentRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

// ListAssignmentsQuery - фильтры списка назначений
type ListAssignmentsQuery struct {
	EmployeeID *int64 `validate:"omitempty,min=1"`
	ContractID *int64 `validate:"omitempty,min=1"`
	State      string `validate:"omitempty,oneof=SCHEDULED IN_PROGRESS TERMINATED COMPLETED CANCELLED"`
	Page       int    `validate:"min=1"`
	PageSize   int    `validate:"min=1,max=500"`
}

// AttendanceOverrides заменяют перенесённые значения в новой строке посещаемости
type AttendanceOverrides struct {
	WorkHours   *decimal.Decimal `json:"work_hours"`
	Bonus       *decimal.Decimal `json:"bonus"`
	Penalty     *decimal.Decimal `json:"penalty"`
	SupportCost *decimal.Decimal `json:"support_cost"`
}

// ReassignmentRequest - замена одного сотрудника другим.
// TEMPORARY принимает явный список дат, PERMANENT - дату начала.
type ReassignmentRequest struct {
	ReplacementEmployeeID   int64                `json:"replacement_employee_id" validate:"required,min=1"`
	ReplacementAssignmentID int64                `json:"replacement_assignment_id" validate:"required,min=1"`
	ReplacedEmployeeID      int64                `json:"replaced_employee_id" validate:"required,min=1,nefield=ReplacementEmployeeID"`
	Type                    string               `json:"reassignment_type" validate:"required,oneof=TEMPORARY PERMANENT"`
	Dates                   []string             `json:"dates" validate:"required_if=Type TEMPORARY,dive,datetime=2006-01-02"`
	FromDate                *string              `json:"from_date" validate:"required_if=Type PERMANENT,omitempty,datetime=2006-01-02"`
	Description             string               `json:"description" validate:"max=2000"`
	Overrides               *AttendanceOverrides `json:"overrides"`
}

// DateFailure - причина, по которой дата не была обработана
type DateFailure struct {
	Date    string `json:"date"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ReassignmentResponse - итог замены
type ReassignmentResponse struct {
	CreatedAttendances []domain.Attendance       `json:"created_attendances"`
	DeletedAttendances []domain.Attendance       `json:"deleted_attendances"`
	ProcessedDaysCount int                       `json:"processed_days_count"`
	RequestedDaysCount int                       `json:"requested_days_count"`
	Failures           []DateFailure             `json:"failures"`
	History            *domain.AssignmentHistory `json:"history"`
}

// RollbackResponse - итог отката записи истории
type RollbackResponse struct {
	RestoredCount int                       `json:"restored_count"`
	RemovedCount  int                       `json:"removed_count"`
	History       *domain.AssignmentHistory `json:"history"`
}

// RestoreAllResponse - итог восстановления всех архивных строк назначения
type RestoreAllResponse struct {
	RestoredCount int                 `json:"restored_count"`
	Restored      []domain.Attendance `json:"restored"`
}

// ListHistoryQuery - фильтры журнала замен
type ListHistoryQuery struct {
	ContractID *int64 `validate:"omitempty,min=1"`
	EmployeeID *int64 `validate:"omitempty,min=1"`
	Status     string `validate:"omitempty,oneof=ACTIVE ROLLED_BACK"`
	Type       string `validate:"omitempty,oneof=TEMPORARY PERMANENT TERMINATION"`
	Page       int    `validate:"min=1"`
	PageSize   int    `validate:"min=1,max=500"`
}

// ListAttendanceQuery - фильтры посещаемости; месяц задаётся только вместе с годом
type ListAttendanceQuery struct {
	AssignmentID *int64 `validate:"omitempty,min=1"`
	EmployeeID   *int64 `validate:"omitempty,min=1"`
	Month        int    `validate:"omitempty,min=1,max=12"`
	Year         int    `validate:"omitempty,min=1900,max=9999"`
	Page         int    `validate:"min=1"`
	PageSize     int    `validate:"min=1,max=500"`
}

// AttendanceTotals - суммы денежных полей посещаемости по назначению
type AttendanceTotals struct {
	AssignmentID int64           `json:"assignment_id"`
	Bonus        decimal.Decimal `json:"bonus"`
	Penalty      decimal.Decimal `json:"penalty"`
	SupportCost  decimal.Decimal `json:"support_cost"`
}

// PageResponse - страница списка
type PageResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// AssignmentResponse - ответ с данными назначения
type AssignmentResponse struct {
	ID           int64           `json:"id"`
	EmployeeID   int64           `json:"employee_id"`
	ContractID   int64           `json:"contract_id"`
	StartDate    string          `json:"start_date"`
	EndDate      *string         `json:"end_date,omitempty"`
	State        string          `json:"state"`
	Category     string          `json:"category"`
	WorkDays     int             `json:"work_days"`
	SalaryAtTime decimal.Decimal `json:"salary_at_time"`
	Description  string          `json:"description"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewAssignmentResponse переводит даты назначения в формат YYYY-MM-DD
func NewAssignmentResponse(a *domain.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		ContractID:   a.ContractID,
		StartDate:    domain.FormatDate(a.StartDate),
		State:        string(a.State),
		Category:     string(a.Category),
		WorkDays:     a.WorkDays,
		SalaryAtTime: a.SalaryAtTime,
		Description:  a.Description,
		CreatedBy:    a.CreatedBy,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if a.EndDate != nil {
		end := domain.FormatDate(*a.EndDate)
		resp.EndDate = &end
	}
	return resp
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
