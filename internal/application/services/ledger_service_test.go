package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusplan/bot/internal/domain/entities"
	"github.com/focusplan/bot/internal/infrastructure/logger"
)

// memStore is an in-memory ports.Store. It deep-copies through JSON on
// both paths so tests observe the same full-snapshot semantics as the
// file store: mutations are only visible after a Save.
type memStore struct {
	mu   sync.Mutex
	data []byte
}

func newMemStore() *memStore {
	return &memStore{data: []byte("{}")}
}

func (m *memStore) Load(ctx context.Context) (entities.StoreRoot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var root entities.StoreRoot
	if err := json.Unmarshal(m.data, &root); err != nil {
		return nil, err
	}
	if root == nil {
		root = entities.StoreRoot{}
	}
	root.Normalize()
	return root, nil
}

func (m *memStore) Save(ctx context.Context, root entities.StoreRoot) error {
	raw, err := json.Marshal(root)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = raw
	return nil
}

func fixedClock(day int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, time.June, day, 12, 0, 0, 0, time.Local)
	}
}

func newTestLedger(t *testing.T) (*LedgerService, *memStore) {
	t.Helper()
	store := newMemStore()
	ledger := NewLedgerService(store, logger.Nop()).WithClock(fixedClock(10))
	return ledger, store
}

func TestAddThenListToday(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Add(ctx, "1", entities.ListMain, "write the report"))

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	require.Len(t, day.Main, 1)
	assert.Equal(t, "write the report", day.Main[0].Text)
	assert.False(t, day.Main[0].Done)
	assert.Empty(t, day.Extra)
}

func TestAddEmptyTextRejected(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	assert.ErrorIs(t, ledger.Add(ctx, "1", entities.ListMain, ""), entities.ErrEmptyTaskText)
	assert.ErrorIs(t, ledger.Add(ctx, "1", entities.ListExtra, "   "), entities.ErrEmptyTaskText)
}

func TestMainTaskCap(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < entities.MaxMainTasks; i++ {
		require.NoError(t, ledger.Add(ctx, "1", entities.ListMain, "task"))
	}

	err := ledger.Add(ctx, "1", entities.ListMain, "one too many")
	assert.ErrorIs(t, err, entities.ErrMainTaskLimit)

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, day.Main, entities.MaxMainTasks)
}

func TestExtraTasksUncapped(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, ledger.Add(ctx, "1", entities.ListExtra, "task"))
	}

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, day.Extra, 10)
}

func TestCompleteMarksOnlyThatPosition(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, ledger.Add(ctx, "1", entities.ListMain, text))
	}
	require.NoError(t, ledger.Complete(ctx, "1", entities.ListMain, 2))

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	assert.False(t, day.Main[0].Done)
	assert.True(t, day.Main[1].Done)
	assert.False(t, day.Main[2].Done)
}

func TestCompleteOutOfRange(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	// No user record at all.
	assert.ErrorIs(t, ledger.Complete(ctx, "1", entities.ListMain, 1), entities.ErrTaskNotFound)

	require.NoError(t, ledger.Add(ctx, "1", entities.ListMain, "a"))
	assert.ErrorIs(t, ledger.Complete(ctx, "1", entities.ListMain, 0), entities.ErrTaskNotFound)
	assert.ErrorIs(t, ledger.Complete(ctx, "1", entities.ListMain, 2), entities.ErrTaskNotFound)
	// Other list for the same day is empty.
	assert.ErrorIs(t, ledger.Complete(ctx, "1", entities.ListExtra, 1), entities.ErrTaskNotFound)
}

func TestDeleteShiftsIndices(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, ledger.Add(ctx, "1", entities.ListExtra, text))
	}
	require.NoError(t, ledger.Complete(ctx, "1", entities.ListExtra, 2))

	statsBefore, err := ledger.StatsFor(ctx, "1")
	require.NoError(t, err)

	// Deleting position 2 (done) shifts "c" down into its slot.
	require.NoError(t, ledger.Delete(ctx, "1", entities.ListExtra, 2))

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	require.Len(t, day.Extra, 2)
	assert.Equal(t, "a", day.Extra[0].Text)
	assert.Equal(t, "c", day.Extra[1].Text)
	assert.False(t, day.Extra[1].Done)

	statsAfter, err := ledger.StatsFor(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, statsBefore.Total-1, statsAfter.Total)
	assert.Equal(t, statsBefore.Done-1, statsAfter.Done)
}

func TestDeleteOutOfRange(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	assert.ErrorIs(t, ledger.Delete(ctx, "1", entities.ListMain, 1), entities.ErrTaskNotFound)

	require.NoError(t, ledger.Add(ctx, "1", entities.ListMain, "a"))
	assert.ErrorIs(t, ledger.Delete(ctx, "1", entities.ListMain, 2), entities.ErrTaskNotFound)
}

func TestResetClearsOnlyToday(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	yesterday := NewLedgerService(store, logger.Nop()).WithClock(fixedClock(9))
	require.NoError(t, yesterday.Add(ctx, "1", entities.ListMain, "old"))
	require.NoError(t, yesterday.Complete(ctx, "1", entities.ListMain, 1))

	today := NewLedgerService(store, logger.Nop()).WithClock(fixedClock(10))
	require.NoError(t, today.Add(ctx, "1", entities.ListMain, "done task"))
	require.NoError(t, today.Add(ctx, "1", entities.ListExtra, "pending task"))
	require.NoError(t, today.Complete(ctx, "1", entities.ListMain, 1))

	require.NoError(t, today.Reset(ctx, "1"))

	day, err := today.ListToday(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, day.Main)
	assert.Empty(t, day.Extra)

	// Yesterday's history still counts.
	stats, err := today.StatsFor(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, entities.Stats{Done: 1, Total: 1}, stats)
}

func TestResetCreatesUser(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reset(ctx, "7"))

	root, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, root, "7")
	day := root["7"].Day("2025-06-10")
	require.NotNil(t, day)
	assert.Empty(t, day.Main)
}

func TestStatsForZeroHistory(t *testing.T) {
	ledger, _ := newTestLedger(t)

	stats, err := ledger.StatsFor(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, entities.Stats{}, stats)
}

func TestListTodayEmptyForUnknownUser(t *testing.T) {
	ledger, _ := newTestLedger(t)

	day, err := ledger.ListToday(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, day.Main)
	assert.NotNil(t, day.Extra)
	assert.Empty(t, day.Main)
}

// Regression test for the lost-update race: every mutation runs
// load-mutate-save over the whole store, so two concurrent adds must
// both survive once serialized behind the ledger's lock.
func TestConcurrentAddsLoseNothing(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	const callers = 2
	const perCaller = 20

	var wg sync.WaitGroup
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perCaller; i++ {
				assert.NoError(t, ledger.Add(ctx, "1", entities.ListExtra, "task"))
			}
		}()
	}
	wg.Wait()

	day, err := ledger.ListToday(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, day.Extra, callers*perCaller)
}
