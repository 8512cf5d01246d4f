package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/staffing-api/internal/config"
	"github.com/staffing-api/internal/domain"
)

// Runner запускает проходы по таймеру за текущую дату
type Runner struct {
	passes   []Pass
	locker   Locker
	clock    domain.Clock
	interval time.Duration
	lockTTL  time.Duration
	enabled  bool
	log      *zap.Logger
}

func NewRunner(passes []Pass, locker Locker, clock domain.Clock, cfg config.SchedulerConfig, log *zap.Logger) *Runner {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		passes:   passes,
		locker:   locker,
		clock:    clock,
		interval: cfg.Interval,
		lockTTL:  cfg.LockTTL,
		enabled:  cfg.Enabled,
		log:      log,
	}
}

// Run выполняет проходы сразу и затем на каждом тике, пока ctx не отменён
func (r *Runner) Run(ctx context.Context) error {
	if !r.enabled {
		r.log.Info("scheduler disabled")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Tick(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick выполняет все проходы за сегодняшнюю дату, пропуская уже выполненные
func (r *Runner) Tick(ctx context.Context) []PassReport {
	date := r.clock.Today()
	reports := make([]PassReport, 0, len(r.passes))

	for _, p := range r.passes {
		if ctx.Err() != nil {
			break
		}

		key := lockKey(p.Name(), date)
		ok, err := r.locker.Acquire(ctx, key, r.lockTTL)
		if err != nil {
			r.log.Warn("scheduler lock unavailable", zap.String("pass", string(p.Name())), zap.Error(err))
			continue
		}
		if !ok {
			r.log.Debug("scheduler pass already done", zap.String("pass", string(p.Name())), zap.String("date", domain.FormatDate(date)))
			continue
		}

		report, err := p.Run(ctx, date)
		if err != nil {
			r.log.Error("scheduler pass aborted",
				zap.String("pass", string(p.Name())),
				zap.String("date", domain.FormatDate(date)),
				zap.Error(err),
			)
			// освобождаем, чтобы следующий тик повторил проход
			if relErr := r.locker.Release(ctx, key); relErr != nil {
				r.log.Warn("scheduler lock release failed", zap.String("key", key), zap.Error(relErr))
			}
			continue
		}
		reports = append(reports, *report)
	}
	return reports
}

// RunPass выполняет один проход по запросу оператора, без блокировки
func (r *Runner) RunPass(ctx context.Context, name PassName, date time.Time) (*PassReport, error) {
	for _, p := range r.passes {
		if p.Name() == name {
			return p.Run(ctx, date)
		}
	}
	return nil, errors.Wrapf(domain.ErrNotFound, "scheduler pass %q", name)
}

func lockKey(name PassName, date time.Time) string {
	return fmt.Sprintf("staffing:scheduler:%s:%s", name, domain.FormatDate(date))
}
