package domain

import "github.com/go-faster/errors"

// AssignmentState - состояние жизненного цикла назначения
type AssignmentState string

const (
	StateScheduled  AssignmentState = "SCHEDULED"
	StateInProgress AssignmentState = "IN_PROGRESS"
	StateTerminated AssignmentState = "TERMINATED"
	StateCompleted  AssignmentState = "COMPLETED"
	StateCancelled  AssignmentState = "CANCELLED"
)

// IsTerminal - из конечных состояний выводит только откат
func (s AssignmentState) IsTerminal() bool {
	return s == StateTerminated || s == StateCompleted || s == StateCancelled
}

// IsOpen - назначение ещё занимает сотрудника на договоре
func (s AssignmentState) IsOpen() bool {
	return s == StateScheduled || s == StateInProgress
}

func (s AssignmentState) Valid() bool {
	switch s {
	case StateScheduled, StateInProgress, StateTerminated, StateCompleted, StateCancelled:
		return true
	}
	return false
}

// Trigger - событие, которое двигает назначение по состояниям
type Trigger string

const (
	// TriggerActivate вызывает только проход активации
	TriggerActivate Trigger = "activate"
	// TriggerTerminate вызывает только проход завершения
	TriggerTerminate Trigger = "terminate"
	// TriggerComplete вызывает только проход временных назначений
	TriggerComplete Trigger = "complete"
	// TriggerCancel - действие оператора
	TriggerCancel Trigger = "cancel"
	// TriggerReopen вызывает только откат завершения
	TriggerReopen Trigger = "reopen"
)

type transition struct {
	from []AssignmentState
	to   AssignmentState
}

var transitions = map[Trigger]transition{
	TriggerActivate:  {from: []AssignmentState{StateScheduled}, to: StateInProgress},
	TriggerTerminate: {from: []AssignmentState{StateInProgress}, to: StateTerminated},
	TriggerComplete:  {from: []AssignmentState{StateInProgress}, to: StateCompleted},
	TriggerCancel:    {from: []AssignmentState{StateScheduled, StateInProgress}, to: StateCancelled},
	TriggerReopen:    {from: []AssignmentState{StateTerminated}, to: StateInProgress},
}

// Target возвращает состояние, в которое ведёт trigger из состояния from
func (t Trigger) Target(from AssignmentState) (AssignmentState, bool) {
	tr, ok := transitions[t]
	if !ok {
		return "", false
	}
	for _, s := range tr.from {
		if s == from {
			return tr.to, true
		}
	}
	return "", false
}

// Fire применяет trigger к назначению или возвращает ErrInvalidState
func (a *Assignment) Fire(t Trigger) error {
	to, ok := t.Target(a.State)
	if !ok {
		return errors.Wrapf(ErrInvalidState, "assignment %d: %s from %s", a.ID, t, a.State)
	}
	if t == TriggerComplete && a.Category != CategoryTemporary {
		return errors.Wrapf(ErrInvalidState, "assignment %d: only temporary assignments complete", a.ID)
	}
	if t == TriggerTerminate && a.Category == CategoryTemporary {
		return errors.Wrapf(ErrInvalidState, "assignment %d: temporary assignments complete, not terminate", a.ID)
	}
	a.State = to
	return nil
}
