// Package scheduler содержит ежедневные проходы, двигающие назначения по состояниям.
// Каждый проход - функция "выполнить один раз за дату", цикл запуска живёт в Runner.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/events"
	"github.com/staffing-api/internal/repository"
)

// PassName - имя прохода, используется в метриках, ключах блокировки и API
type PassName string

const (
	PassActivation          PassName = "activation"
	PassTermination         PassName = "termination"
	PassTemporaryCompletion PassName = "temporary_completion"
)

// Failure - назначение, которое проход не смог обработать
type Failure struct {
	AssignmentID int64  `json:"assignment_id"`
	Kind         string `json:"kind"`
	Message      string `json:"message"`
}

// PassReport - итог одного прохода
type PassReport struct {
	Pass         PassName  `json:"pass"`
	Date         string    `json:"date"`
	Candidates   int       `json:"candidates"`
	Transitioned int       `json:"transitioned"`
	Failures     []Failure `json:"failures"`
}

// Pass - один ежедневный проход
type Pass interface {
	Name() PassName
	Run(ctx context.Context, date time.Time) (*PassReport, error)
}

// Deps - зависимости проходов
type Deps struct {
	Repos  *repository.Repositories
	Clock  domain.Clock
	Events events.Publisher
	Log    *zap.Logger
}

type pass struct {
	Deps
	name       PassName
	event      events.Type
	candidates func(ctx context.Context, date time.Time) ([]domain.Assignment, error)
	apply      func(ctx context.Context, a *domain.Assignment, date time.Time) error
}

func (p *pass) Name() PassName { return p.name }

// Run обрабатывает кандидатов в одной транзакции, каждое назначение в своей
// точке сохранения. Ошибка по назначению логируется и не прерывает проход.
func (p *pass) Run(ctx context.Context, date time.Time) (*PassReport, error) {
	date = domain.DateOf(date)
	started := time.Now()
	m := getMetrics()

	report := &PassReport{Pass: p.name, Date: domain.FormatDate(date), Failures: []Failure{}}
	var moved []int64

	err := p.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
		items, err := p.candidates(ctx, date)
		if err != nil {
			return err
		}
		report.Candidates = len(items)

		for i := range items {
			a := &items[i]
			err := p.Repos.Tx.InTx(ctx, func(ctx context.Context) error {
				return p.apply(ctx, a, date)
			})
			if err != nil {
				report.Failures = append(report.Failures, Failure{
					AssignmentID: a.ID,
					Kind:         domain.Kind(err),
					Message:      err.Error(),
				})
				m.failures.WithLabelValues(string(p.name)).Inc()
				p.Log.Error("scheduler pass failed for assignment",
					zap.String("pass", string(p.name)),
					zap.String("date", report.Date),
					zap.Int64("assignment_id", a.ID),
					zap.Error(err),
				)
				continue
			}
			moved = append(moved, a.ID)
		}
		return nil
	})
	m.duration.WithLabelValues(string(p.name)).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}

	report.Transitioned = len(moved)
	m.transitions.WithLabelValues(string(p.name)).Add(float64(len(moved)))

	if len(moved) > 0 {
		now := p.Clock.Now()
		evs := make([]events.Event, len(moved))
		for i, id := range moved {
			evs[i] = events.New(p.event, id, 0, "scheduler", now)
		}
		events.Emit(ctx, p.Events, p.Log, evs...)
	}

	p.Log.Info("scheduler pass finished",
		zap.String("pass", string(p.name)),
		zap.String("date", report.Date),
		zap.Int("candidates", report.Candidates),
		zap.Int("transitioned", report.Transitioned),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

// NewActivationPass переводит SCHEDULED назначения с startDate == date в IN_PROGRESS.
// Посещаемость не трогает.
func NewActivationPass(deps Deps) Pass {
	deps = deps.withDefaults()
	return &pass{
		Deps:       deps,
		name:       PassActivation,
		event:      events.AssignmentActivated,
		candidates: deps.Repos.Assignments.ListDueForActivation,
		apply: func(ctx context.Context, a *domain.Assignment, _ time.Time) error {
			if err := a.Fire(domain.TriggerActivate); err != nil {
				return err
			}
			return deps.Repos.Assignments.Update(ctx, a)
		},
	}
}

// NewTerminationPass переводит IN_PROGRESS назначения с endDate == date в TERMINATED
// и пересчитывает workDays как число строк посещаемости с первого числа месяца по date
func NewTerminationPass(deps Deps) Pass {
	deps = deps.withDefaults()
	return &pass{
		Deps:       deps,
		name:       PassTermination,
		event:      events.AssignmentTerminated,
		candidates: deps.Repos.Assignments.ListDueForTermination,
		apply: func(ctx context.Context, a *domain.Assignment, date time.Time) error {
			count, err := deps.Repos.Attendance.CountInRange(ctx, a.ID, domain.FirstOfMonth(date), date)
			if err != nil {
				return err
			}
			if err := a.Fire(domain.TriggerTerminate); err != nil {
				return err
			}
			a.WorkDays = int(count)
			return deps.Repos.Assignments.Update(ctx, a)
		},
	}
}

// NewTemporaryCompletionPass завершает временные назначения, чей день уже прошёл
func NewTemporaryCompletionPass(deps Deps) Pass {
	deps = deps.withDefaults()
	return &pass{
		Deps:       deps,
		name:       PassTemporaryCompletion,
		event:      events.AssignmentCompleted,
		candidates: deps.Repos.Assignments.ListTemporaryBefore,
		apply: func(ctx context.Context, a *domain.Assignment, _ time.Time) error {
			if err := a.Fire(domain.TriggerComplete); err != nil {
				return err
			}
			return deps.Repos.Assignments.Update(ctx, a)
		},
	}
}

// DefaultPasses возвращает проходы в порядке запуска
func DefaultPasses(deps Deps) []Pass {
	return []Pass{
		NewActivationPass(deps),
		NewTerminationPass(deps),
		NewTemporaryCompletionPass(deps),
	}
}
