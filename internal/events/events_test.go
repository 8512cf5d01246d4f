package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/staffing-api/internal/events"
)

func TestNew(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.FixedZone("MSK", 3*3600))
	e := events.New(events.HistoryRolledBack, 1, 7, "operator", at)

	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, events.HistoryRolledBack, e.Type)
	assert.Equal(t, int64(1), e.AssignmentID)
	assert.Equal(t, int64(7), e.HistoryID)
	assert.Equal(t, time.UTC, e.OccurredAt.Location())
	assert.True(t, e.OccurredAt.Equal(at))
}

func TestEmit(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("publishes in order", func(t *testing.T) {
		rec := &events.Recorder{}
		events.Emit(ctx, rec, zap.NewNop(),
			events.New(events.AssignmentCreated, 1, 0, "a", now),
			events.New(events.AssignmentActivated, 1, 0, "a", now),
		)
		assert.Equal(t, []events.Type{events.AssignmentCreated, events.AssignmentActivated}, rec.Types())
	})

	t.Run("publish error is swallowed", func(t *testing.T) {
		rec := &events.Recorder{Err: errors.New("broker down")}
		assert.NotPanics(t, func() {
			events.Emit(ctx, rec, zap.NewNop(), events.New(events.AssignmentCreated, 1, 0, "a", now))
		})
		assert.Empty(t, rec.Events())
	})

	t.Run("nil publisher", func(t *testing.T) {
		assert.NotPanics(t, func() {
			events.Emit(ctx, nil, zap.NewNop(), events.New(events.AssignmentCreated, 1, 0, "a", now))
		})
	})
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	require.NoError(t, p.Publish(context.Background(), events.New(events.AssignmentCancelled, 1, 0, "", time.Now())))
}
