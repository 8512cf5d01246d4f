package domain

import "github.com/go-faster/errors"

// Определение бизнес-ошибок
var (
	ErrNotFound                        = errors.New("not found")
	ErrInvalidState                    = errors.New("transition is not allowed from the current state")
	ErrNoAttendanceForReplacedEmployee = errors.New("replaced employee has no attendance for this date")
	ErrReplacementAlreadyHasAttendance = errors.New("replacement employee already has attendance for this date")
	ErrAlreadyExists                   = errors.New("active assignment for this employee and contract already exists")
	ErrRollbackNotEligible             = errors.New("history record is not active and cannot be rolled back")
	ErrInvalidDateRange                = errors.New("end date must not be before start date")
	ErrNoDates                         = errors.New("at least one date is required")
	ErrInvalidInput                    = errors.New("invalid input")
)

// Уточнённые варианты ErrNotFound: errors.Is(err, ErrNotFound) срабатывает для всех
var (
	ErrAssignmentNotFound = errors.Wrap(ErrNotFound, "assignment")
	ErrAttendanceNotFound = errors.Wrap(ErrNotFound, "attendance")
	ErrHistoryNotFound    = errors.Wrap(ErrNotFound, "assignment history")
	ErrBackupNotFound     = errors.Wrap(ErrNotFound, "deleted attendance backup")
	ErrEmployeeNotFound   = errors.Wrap(ErrNotFound, "employee")
	ErrContractNotFound   = errors.Wrap(ErrNotFound, "contract")
	ErrCustomerNotFound   = errors.Wrap(ErrNotFound, "customer")
)

// ErrAttendanceAlreadyExists возвращается при восстановлении в занятый слот.
// Это частный случай ErrReplacementAlreadyHasAttendance.
var ErrAttendanceAlreadyExists = errors.Wrap(ErrReplacementAlreadyHasAttendance, "attendance already exists")

// Kind возвращает имя вида ошибки для ответов API и отчётов
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAttendanceAlreadyExists):
		return "AttendanceAlreadyExists"
	case errors.Is(err, ErrReplacementAlreadyHasAttendance):
		return "ReplacementAlreadyHasAttendance"
	case errors.Is(err, ErrNoAttendanceForReplacedEmployee):
		return "NoAttendanceForReplacedEmployee"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidState):
		return "InvalidState"
	case errors.Is(err, ErrAlreadyExists):
		return "AlreadyExists"
	case errors.Is(err, ErrRollbackNotEligible):
		return "RollbackNotEligible"
	case errors.Is(err, ErrInvalidDateRange), errors.Is(err, ErrNoDates), errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	default:
		return "Internal"
	}
}
