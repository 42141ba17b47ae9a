package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/focusplan/bot/internal/domain/entities"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/ports"
)

// LedgerService owns the per-user, per-day task lists and every operation
// that mutates them. Mutations run load-mutate-save over the full store as
// one critical section behind a single mutex, so concurrent callers cannot
// clobber each other's writes. Reads go straight to the latest snapshot.
//
// User-facing task addressing is positional: 1-based within a list for a
// given day, and deleting an entry shifts every later index down by one.
type LedgerService struct {
	store  ports.Store
	logger *logger.Logger

	// now is swappable for tests; "today" is always derived from it
	// in local time at the moment of the operation.
	now func() time.Time

	mu sync.Mutex
}

// NewLedgerService creates a new ledger service
func NewLedgerService(store ports.Store, logger *logger.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the ledger's clock. Intended for tests.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// Mutate runs fn against the loaded root and persists the result, all
// inside the ledger's critical section. The rollover job shares this
// entry point so its store-wide sweep serializes with user operations.
func (s *LedgerService) Mutate(ctx context.Context, fn func(root entities.StoreRoot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	if err := fn(root); err != nil {
		return err
	}

	if err := s.store.Save(ctx, root); err != nil {
		return fmt.Errorf("save store: %w", err)
	}

	return nil
}

// EnsureUser creates the user record if it does not exist yet.
func (s *LedgerService) EnsureUser(ctx context.Context, userID string) error {
	return s.Mutate(ctx, func(root entities.StoreRoot) error {
		root.EnsureUser(userID)
		return nil
	})
}

// Add appends a task with the given text to today's list. Main tasks are
// capped at three per day, enforced here and only here.
func (s *LedgerService) Add(ctx context.Context, userID string, list entities.TaskList, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return entities.ErrEmptyTaskText
	}

	today := entities.DateKey(s.now())

	err := s.Mutate(ctx, func(root entities.StoreRoot) error {
		day := root.EnsureUser(userID).EnsureDay(today)
		if list == entities.ListMain && len(day.Main) >= entities.MaxMainTasks {
			return entities.ErrMainTaskLimit
		}
		target := day.Pick(list)
		*target = append(*target, entities.Task{Text: text})
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Task added", "user_id", userID, "list", list, "date", today)
	return nil
}

// ListToday returns today's record for the user, or an empty record if
// the user has nothing for today. Read-only.
func (s *LedgerService) ListToday(ctx context.Context, userID string) (*entities.DayRecord, error) {
	root, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}

	day := root[userID].Day(entities.DateKey(s.now()))
	if day == nil {
		return entities.NewDayRecord(), nil
	}
	return day, nil
}

// Complete marks the task at the given 1-based position in today's list
// as done.
func (s *LedgerService) Complete(ctx context.Context, userID string, list entities.TaskList, index1 int) error {
	today := entities.DateKey(s.now())

	err := s.Mutate(ctx, func(root entities.StoreRoot) error {
		tasks, err := todaysList(root, userID, today, list)
		if err != nil {
			return err
		}
		if index1 < 1 || index1 > len(tasks) {
			return entities.ErrTaskNotFound
		}
		tasks[index1-1].Done = true
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Task completed", "user_id", userID, "list", list, "index", index1, "date", today)
	return nil
}

// Delete removes the task at the given 1-based position in today's list.
// Every later entry shifts down by one index.
func (s *LedgerService) Delete(ctx context.Context, userID string, list entities.TaskList, index1 int) error {
	today := entities.DateKey(s.now())

	err := s.Mutate(ctx, func(root entities.StoreRoot) error {
		day := root[userID].Day(today)
		if day == nil {
			return entities.ErrTaskNotFound
		}
		target := day.Pick(list)
		if index1 < 1 || index1 > len(*target) {
			return entities.ErrTaskNotFound
		}
		*target = append((*target)[:index1-1], (*target)[index1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Task deleted", "user_id", userID, "list", list, "index", index1, "date", today)
	return nil
}

// Reset replaces today's record with empty lists. The date key stays;
// other days are untouched. Creates the user record if absent.
func (s *LedgerService) Reset(ctx context.Context, userID string) error {
	today := entities.DateKey(s.now())

	err := s.Mutate(ctx, func(root entities.StoreRoot) error {
		root.EnsureUser(userID).Tasks[today] = entities.NewDayRecord()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Day reset", "user_id", userID, "date", today)
	return nil
}

// StatsFor returns the user's lifetime completion counts across every
// recorded day. A user with no history yields zero counts.
func (s *LedgerService) StatsFor(ctx context.Context, userID string) (entities.Stats, error) {
	root, err := s.store.Load(ctx)
	if err != nil {
		return entities.Stats{}, fmt.Errorf("load store: %w", err)
	}
	return root[userID].StatsFor(), nil
}

func todaysList(root entities.StoreRoot, userID, dateKey string, list entities.TaskList) ([]entities.Task, error) {
	user, ok := root[userID]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	day := user.Day(dateKey)
	if day == nil {
		return nil, entities.ErrTaskNotFound
	}
	return *day.Pick(list), nil
}
