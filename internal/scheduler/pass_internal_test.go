package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/repository"
	"github.com/staffing-api/internal/testhelpers"
)

func TestPassFailureIsolation(t *testing.T) {
	db := testhelpers.NewDB(t)
	repos := repository.New(db)
	ctx := context.Background()

	emp := testhelpers.SeedEmployee(t, db, "Анна Петрова")
	_, contract := testhelpers.SeedContract(t, db, "ООО Чистота")
	today := testhelpers.Date(t, "2025-03-01")
	ok := testhelpers.SeedAssignment(t, db, emp.ID, contract.ID, today, testhelpers.WithState(domain.StateScheduled))
	broken := testhelpers.SeedAssignment(t, db, emp.ID, contract.ID, today, testhelpers.WithState(domain.StateScheduled))

	deps := Deps{Repos: repos, Clock: domain.Clock{Location: time.UTC}}.withDefaults()
	p := &pass{
		Deps:       deps,
		name:       PassActivation,
		candidates: repos.Assignments.ListDueForActivation,
		apply: func(ctx context.Context, a *domain.Assignment, _ time.Time) error {
			if err := a.Fire(domain.TriggerActivate); err != nil {
				return err
			}
			if err := repos.Assignments.Update(ctx, a); err != nil {
				return err
			}
			if a.ID == broken.ID {
				return errors.New("downstream failure")
			}
			return nil
		},
	}

	report, err := p.Run(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, report.Transitioned)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken.ID, report.Failures[0].AssignmentID)
	assert.Equal(t, "Internal", report.Failures[0].Kind)

	got, err := repos.Assignments.GetByID(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, got.State)

	got, err = repos.Assignments.GetByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateScheduled, got.State, "savepoint rolled back the failed assignment")
}

func TestLockKey(t *testing.T) {
	key := lockKey(PassTermination, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "staffing:scheduler:termination:2025-03-02", key)
}

func TestMemoryLockerExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLocker()
	l.nowFn = func() time.Time { return now }
	ctx := context.Background()

	acquired, err := l.Acquire(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = l.Acquire(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.False(t, acquired)

	now = now.Add(2 * time.Hour)
	acquired, err = l.Acquire(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired, "expired lock is taken over")

	require.NoError(t, l.Release(ctx, "k"))
	acquired, err = l.Acquire(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired)
}
