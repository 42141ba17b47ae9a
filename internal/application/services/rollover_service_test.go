package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusplan/bot/internal/domain/entities"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/infrastructure/metrics"
)

func newTestRollover(t *testing.T) (*RolloverService, *LedgerService, *memStore) {
	t.Helper()
	store := newMemStore()
	ledger := NewLedgerService(store, logger.Nop()).WithClock(fixedClock(10))
	rollover := NewRolloverService(ledger, logger.Nop(), metrics.New())
	return rollover, ledger, store
}

func seedYesterday(t *testing.T, store *memStore) {
	t.Helper()
	yesterday := NewLedgerService(store, logger.Nop()).WithClock(fixedClock(9))
	ctx := context.Background()
	require.NoError(t, yesterday.Add(ctx, "1", entities.ListMain, "unfinished main"))
	require.NoError(t, yesterday.Add(ctx, "1", entities.ListExtra, "finished extra"))
	require.NoError(t, yesterday.Complete(ctx, "1", entities.ListExtra, 1))
}

func TestRolloverCarriesOnlyUnfinished(t *testing.T) {
	rollover, ledger, store := newTestRollover(t)
	seedYesterday(t, store)
	ctx := context.Background()

	now := time.Date(2025, time.June, 10, 5, 0, 0, 0, time.Local)
	require.NoError(t, rollover.RolloverAll(ctx, now))

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	require.Len(t, day.Main, 1)
	assert.Equal(t, "unfinished main", day.Main[0].Text)
	assert.False(t, day.Main[0].Done)
	// The completed extra task is not carried.
	assert.Empty(t, day.Extra)

	// Yesterday's record is untouched: tasks are copied, not moved.
	root, err := store.Load(ctx)
	require.NoError(t, err)
	prev := root["1"].Day("2025-06-09")
	require.NotNil(t, prev)
	assert.Len(t, prev.Main, 1)
	assert.False(t, prev.Main[0].Done)
	assert.Len(t, prev.Extra, 1)
}

// Running the sweep twice on the same day duplicates every carried task.
// That is documented behavior, not a bug: single fire per day is the
// operator's responsibility.
func TestRolloverIsNotIdempotent(t *testing.T) {
	rollover, ledger, store := newTestRollover(t)
	seedYesterday(t, store)
	ctx := context.Background()

	now := time.Date(2025, time.June, 10, 5, 0, 0, 0, time.Local)
	require.NoError(t, rollover.RolloverAll(ctx, now))
	require.NoError(t, rollover.RolloverAll(ctx, now))

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	require.Len(t, day.Main, 2)
	assert.Equal(t, day.Main[0].Text, day.Main[1].Text)
}

// Rollover bypasses the add-time cap: carrying work forward may push a
// day's main list past the limit.
func TestRolloverIgnoresMainCap(t *testing.T) {
	rollover, ledger, store := newTestRollover(t)
	ctx := context.Background()

	yesterday := NewLedgerService(store, logger.Nop()).WithClock(fixedClock(9))
	for i := 0; i < entities.MaxMainTasks; i++ {
		require.NoError(t, yesterday.Add(ctx, "1", entities.ListMain, "carryover"))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, ledger.Add(ctx, "1", entities.ListMain, "fresh"))
	}

	now := time.Date(2025, time.June, 10, 5, 0, 0, 0, time.Local)
	require.NoError(t, rollover.RolloverAll(ctx, now))

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, day.Main, entities.MaxMainTasks+2)
}

func TestRolloverSweepsAllUsers(t *testing.T) {
	rollover, ledger, store := newTestRollover(t)
	ctx := context.Background()

	yesterday := NewLedgerService(store, logger.Nop()).WithClock(fixedClock(9))
	require.NoError(t, yesterday.Add(ctx, "1", entities.ListMain, "for user one"))
	require.NoError(t, yesterday.Add(ctx, "2", entities.ListExtra, "for user two"))

	now := time.Date(2025, time.June, 10, 5, 0, 0, 0, time.Local)
	require.NoError(t, rollover.RolloverAll(ctx, now))

	one, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, one.Main, 1)

	two, err := ledger.ListToday(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, two.Extra, 1)
}

func TestRolloverNoYesterdayIsNoop(t *testing.T) {
	rollover, ledger, _ := newTestRollover(t)
	ctx := context.Background()

	require.NoError(t, ledger.Add(ctx, "1", entities.ListMain, "today only"))

	now := time.Date(2025, time.June, 10, 5, 0, 0, 0, time.Local)
	require.NoError(t, rollover.RolloverAll(ctx, now))

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, day.Main, 1)
}
