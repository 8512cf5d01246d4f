package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssignmentCategory - вид назначения
type AssignmentCategory string

const (
	CategoryFixedByContract AssignmentCategory = "FIXED_BY_CONTRACT"
	CategoryFixedByDay      AssignmentCategory = "FIXED_BY_DAY"
	CategoryTemporary       AssignmentCategory = "TEMPORARY"
	CategoryFixedByCompany  AssignmentCategory = "FIXED_BY_COMPANY"
)

func (c AssignmentCategory) Valid() bool {
	switch c {
	case CategoryFixedByContract, CategoryFixedByDay, CategoryTemporary, CategoryFixedByCompany:
		return true
	}
	return false
}

// Assignment - работа одного сотрудника на одном договоре в течение периода.
// Связи с сотрудником и договором хранятся только как идентификаторы.
type Assignment struct {
	ID           int64              `json:"id" gorm:"primaryKey;autoIncrement"`
	EmployeeID   int64              `json:"employee_id" gorm:"not null;index"`
	ContractID   int64              `json:"contract_id" gorm:"not null;index"`
	StartDate    time.Time          `json:"start_date" gorm:"type:date;not null;index"`
	EndDate      *time.Time         `json:"end_date" gorm:"type:date;index"`
	State        AssignmentState    `json:"state" gorm:"type:varchar(20);not null;index"`
	Category     AssignmentCategory `json:"category" gorm:"type:varchar(30);not null"`
	WorkDays     int                `json:"work_days" gorm:"not null;default:0"`
	SalaryAtTime decimal.Decimal    `json:"salary_at_time" gorm:"type:numeric(14,2);not null;default:0"`
	Description  string             `json:"description" gorm:"type:text"`
	CreatedBy    string             `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt    time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Assignment) TableName() string {
	return "assignments"
}

// Covers сообщает, попадает ли дата в период назначения
func (a *Assignment) Covers(date time.Time) bool {
	d := DateOf(date)
	if d.Before(DateOf(a.StartDate)) {
		return false
	}
	return a.EndDate == nil || !d.After(DateOf(*a.EndDate))
}

// Attendance - отработанный день сотрудника по назначению.
// Слот (assignment, employee, date) уникален.
type Attendance struct {
	ID             int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	AssignmentID   int64           `json:"assignment_id" gorm:"not null;uniqueIndex:idx_attendance_slot,priority:1"`
	EmployeeID     int64           `json:"employee_id" gorm:"not null;uniqueIndex:idx_attendance_slot,priority:2;index"`
	Date           time.Time       `json:"date" gorm:"column:work_date;type:date;not null;uniqueIndex:idx_attendance_slot,priority:3"`
	WorkHours      decimal.Decimal `json:"work_hours" gorm:"type:numeric(5,2);not null;default:0"`
	Bonus          decimal.Decimal `json:"bonus" gorm:"type:numeric(14,2);not null;default:0"`
	Penalty        decimal.Decimal `json:"penalty" gorm:"type:numeric(14,2);not null;default:0"`
	SupportCost    decimal.Decimal `json:"support_cost" gorm:"type:numeric(14,2);not null;default:0"`
	Overtime       bool            `json:"overtime" gorm:"not null;default:false"`
	OvertimeAmount decimal.Decimal `json:"overtime_amount" gorm:"type:numeric(14,2);not null;default:0"`
	ApprovedBy     *string         `json:"approved_by,omitempty" gorm:"type:varchar(100)"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`
	Description    string          `json:"description" gorm:"type:text"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Attendance) TableName() string {
	return "attendance"
}

// Snapshot фиксирует все поля строки для архива
func (a *Attendance) Snapshot() AttendanceSnapshot {
	return AttendanceSnapshot{
		ID:             a.ID,
		AssignmentID:   a.AssignmentID,
		EmployeeID:     a.EmployeeID,
		Date:           a.Date,
		WorkHours:      a.WorkHours,
		Bonus:          a.Bonus,
		Penalty:        a.Penalty,
		SupportCost:    a.SupportCost,
		Overtime:       a.Overtime,
		OvertimeAmount: a.OvertimeAmount,
		ApprovedBy:     a.ApprovedBy,
		ApprovedAt:     a.ApprovedAt,
		Description:    a.Description,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AttendanceSnapshot - типизированный снимок удалённой строки посещаемости.
// Хранится в backup как JSON и восстанавливается без обращения к другим таблицам.
type AttendanceSnapshot struct {
	ID             int64           `json:"id"`
	AssignmentID   int64           `json:"assignment_id"`
	EmployeeID     int64           `json:"employee_id"`
	Date           time.Time       `json:"date"`
	WorkHours      decimal.Decimal `json:"work_hours"`
	Bonus          decimal.Decimal `json:"bonus"`
	Penalty        decimal.Decimal `json:"penalty"`
	SupportCost    decimal.Decimal `json:"support_cost"`
	Overtime       bool            `json:"overtime"`
	OvertimeAmount decimal.Decimal `json:"overtime_amount"`
	ApprovedBy     *string         `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Attendance воссоздаёт исходную строку с исходным идентификатором
func (s AttendanceSnapshot) Attendance() *Attendance {
	return &Attendance{
		ID:             s.ID,
		AssignmentID:   s.AssignmentID,
		EmployeeID:     s.EmployeeID,
		Date:           DateOf(s.Date),
		WorkHours:      s.WorkHours,
		Bonus:          s.Bonus,
		Penalty:        s.Penalty,
		SupportCost:    s.SupportCost,
		Overtime:       s.Overtime,
		OvertimeAmount: s.OvertimeAmount,
		ApprovedBy:     s.ApprovedBy,
		ApprovedAt:     s.ApprovedAt,
		Description:    s.Description,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// BackupReason - почему строка посещаемости ушла в архив
type BackupReason string

const (
	BackupReasonReassignment BackupReason = "REASSIGNMENT"
	BackupReasonTermination  BackupReason = "TERMINATION"
)

// DeletedAttendanceBackup - архивная копия удалённой строки посещаемости.
// Пишется один раз, удаляется только при восстановлении.
type DeletedAttendanceBackup struct {
	ID             int64              `json:"id" gorm:"primaryKey;autoIncrement"`
	AttendanceID   int64              `json:"attendance_id" gorm:"not null;index"`
	AssignmentID   int64              `json:"assignment_id" gorm:"not null;index"`
	EmployeeID     int64              `json:"employee_id" gorm:"not null"`
	Date           time.Time          `json:"date" gorm:"column:work_date;type:date;not null"`
	WorkHours      decimal.Decimal    `json:"work_hours" gorm:"type:numeric(5,2);not null;default:0"`
	Bonus          decimal.Decimal    `json:"bonus" gorm:"type:numeric(14,2);not null;default:0"`
	Penalty        decimal.Decimal    `json:"penalty" gorm:"type:numeric(14,2);not null;default:0"`
	SupportCost    decimal.Decimal    `json:"support_cost" gorm:"type:numeric(14,2);not null;default:0"`
	Overtime       bool               `json:"overtime" gorm:"not null;default:false"`
	OvertimeAmount decimal.Decimal    `json:"overtime_amount" gorm:"type:numeric(14,2);not null;default:0"`
	Payload        AttendanceSnapshot `json:"payload" gorm:"type:text;not null;serializer:json"`
	Reason         BackupReason       `json:"reason" gorm:"type:varchar(20);not null"`
	HistoryID      *int64             `json:"history_id,omitempty" gorm:"index"`
	RemovedBy      string             `json:"removed_by" gorm:"type:varchar(100)"`
	RemovedAt      time.Time          `json:"removed_at" gorm:"not null"`
}

// TableName задаёт имя таблицы для GORM
func (DeletedAttendanceBackup) TableName() string {
	return "deleted_attendance_backup"
}

// NewAttendanceBackup копирует строку посещаемости в архивную запись
func NewAttendanceBackup(a *Attendance, reason BackupReason, historyID *int64, actor string, at time.Time) *DeletedAttendanceBackup {
	return &DeletedAttendanceBackup{
		AttendanceID:   a.ID,
		AssignmentID:   a.AssignmentID,
		EmployeeID:     a.EmployeeID,
		Date:           a.Date,
		WorkHours:      a.WorkHours,
		Bonus:          a.Bonus,
		Penalty:        a.Penalty,
		SupportCost:    a.SupportCost,
		Overtime:       a.Overtime,
		OvertimeAmount: a.OvertimeAmount,
		Payload:        a.Snapshot(),
		Reason:         reason,
		HistoryID:      historyID,
		RemovedBy:      actor,
		RemovedAt:      at,
	}
}

// HistoryStatus - ACTIVE записи можно откатить, ROLLED_BACK окончательны
type HistoryStatus string

const (
	HistoryActive     HistoryStatus = "ACTIVE"
	HistoryRolledBack HistoryStatus = "ROLLED_BACK"
)

// ReassignmentType - вид операции в истории
type ReassignmentType string

const (
	ReassignmentTemporary ReassignmentType = "TEMPORARY"
	ReassignmentPermanent ReassignmentType = "PERMANENT"
	// ReassignmentTermination - досрочное завершение назначения
	ReassignmentTermination ReassignmentType = "TERMINATION"
)

// TerminationSnapshot - состояние назначения до досрочного завершения
type TerminationSnapshot struct {
	PreviousEndDate  *time.Time      `json:"previous_end_date,omitempty"`
	PreviousWorkDays int             `json:"previous_work_days"`
	PreviousState    AssignmentState `json:"previous_state"`
	NewEndDate       time.Time       `json:"new_end_date"`
}

// AssignmentHistory - журнал одной операции замены или досрочного завершения.
// Имена и заказчик денормализованы на момент операции.
type AssignmentHistory struct {
	ID                      int64                   `json:"id" gorm:"primaryKey;autoIncrement"`
	OldAssignmentID         int64                   `json:"old_assignment_id" gorm:"not null;index"`
	NewAssignmentID         int64                   `json:"new_assignment_id" gorm:"not null;index"`
	ReplacedEmployeeID      int64                   `json:"replaced_employee_id" gorm:"not null;index"`
	ReplacedEmployeeName    string                  `json:"replaced_employee_name" gorm:"type:varchar(200)"`
	ReplacementEmployeeID   int64                   `json:"replacement_employee_id" gorm:"not null;index"`
	ReplacementEmployeeName string                  `json:"replacement_employee_name" gorm:"type:varchar(200)"`
	ContractID              int64                   `json:"contract_id" gorm:"not null;index"`
	CustomerName            string                  `json:"customer_name" gorm:"type:varchar(200)"`
	Type                    ReassignmentType        `json:"reassignment_type" gorm:"column:reassignment_type;type:varchar(20);not null"`
	Notes                   string                  `json:"notes" gorm:"type:text"`
	Status                  HistoryStatus           `json:"status" gorm:"type:varchar(20);not null;index"`
	Termination             *TerminationSnapshot    `json:"termination,omitempty" gorm:"type:text;serializer:json"`
	CreatedBy               string                  `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt               time.Time               `json:"created_at" gorm:"autoCreateTime"`
	RolledBackBy            *string                 `json:"rolled_back_by,omitempty" gorm:"type:varchar(100)"`
	RolledBackAt            *time.Time              `json:"rolled_back_at,omitempty"`
	Dates                   []AssignmentHistoryDate `json:"dates" gorm:"foreignKey:HistoryID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (AssignmentHistory) TableName() string {
	return "assignment_history"
}

// AffectedDates возвращает затронутые даты в исходном порядке
func (h *AssignmentHistory) AffectedDates() []time.Time {
	dates := make([]time.Time, len(h.Dates))
	for i, d := range h.Dates {
		dates[i] = DateOf(d.Date)
	}
	return dates
}

// AssignmentHistoryDate - дочерняя таблица затронутых дат
type AssignmentHistoryDate struct {
	ID        int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	HistoryID int64     `json:"-" gorm:"not null;index"`
	Position  int       `json:"-" gorm:"not null"`
	Date      time.Time `json:"date" gorm:"column:work_date;type:date;not null"`
}

// TableName задаёт имя таблицы для GORM
func (AssignmentHistoryDate) TableName() string {
	return "assignment_history_dates"
}

// NewHistoryDates строит дочерние строки в порядке дат операции
func NewHistoryDates(dates []time.Time) []AssignmentHistoryDate {
	rows := make([]AssignmentHistoryDate, len(dates))
	for i, d := range dates {
		rows[i] = AssignmentHistoryDate{Position: i, Date: DateOf(d)}
	}
	return rows
}
