package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party - общая способность сотрудника и заказчика: идентичность для отображения.
// Поля, специфичные для вида, живут в отдельных структурах.
type Party interface {
	PartyID() int64
	DisplayName() string
	PartyCode() string
}

// Employee - сотрудник клининговой компании (справочник, только чтение)
type Employee struct {
	ID        int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Code      string          `json:"code" gorm:"type:varchar(50);not null;uniqueIndex"`
	FullName  string          `json:"full_name" gorm:"type:varchar(200);not null"`
	Salary    decimal.Decimal `json:"salary" gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) PartyID() int64      { return e.ID }
func (e *Employee) DisplayName() string { return e.FullName }
func (e *Employee) PartyCode() string   { return e.Code }

// Customer - заказчик услуг
type Customer struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Code      string    `json:"code" gorm:"type:varchar(50);not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) PartyID() int64      { return c.ID }
func (c *Customer) DisplayName() string { return c.Name }
func (c *Customer) PartyCode() string   { return c.Code }

// Contract - договор с заказчиком
type Contract struct {
	ID         int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Code       string     `json:"code" gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID int64      `json:"customer_id" gorm:"not null;index"`
	StartDate  time.Time  `json:"start_date" gorm:"type:date;not null"`
	EndDate    *time.Time `json:"end_date" gorm:"type:date"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (Contract) TableName() string {
	return "contracts"
}

// AllModels перечисляет модели для AutoMigrate в тестах
func AllModels() []any {
	return []any{
		&Employee{},
		&Customer{},
		&Contract{},
		&Assignment{},
		&Attendance{},
		&DeletedAttendanceBackup{},
		&AssignmentHistory{},
		&AssignmentHistoryDate{},
	}
}
