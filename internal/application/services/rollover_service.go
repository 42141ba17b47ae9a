package services

import (
	"context"
	"time"

	"github.com/focusplan/bot/internal/domain/entities"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/infrastructure/metrics"
)

// RolloverService carries unfinished tasks forward at the start of each
// day. Tasks are copied, not moved: yesterday's record keeps the
// unfinished entry as historical fact, so a task carried forward and
// later completed counts twice in lifetime stats.
//
// The sweep is NOT idempotent within a day. Running it twice on the same
// date duplicates every carried task, so the operator (the scheduler, or
// whoever runs the manual CLI command) must guarantee single fire per day.
type RolloverService struct {
	ledger  *LedgerService
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewRolloverService creates a new rollover service
func NewRolloverService(ledger *LedgerService, logger *logger.Logger, m *metrics.Metrics) *RolloverService {
	return &RolloverService{
		ledger:  ledger,
		logger:  logger,
		metrics: m,
	}
}

// RolloverAll copies every not-done task from yesterday's record into
// today's matching list, for every known user. Today's record is created
// lazily. The main-task cap does not apply here: carrying work forward
// may push a day's main list past the add-time limit.
func (s *RolloverService) RolloverAll(ctx context.Context, now time.Time) error {
	today := entities.DateKey(now)
	yesterday := entities.DateKey(now.AddDate(0, 0, -1))

	carried := 0
	err := s.ledger.Mutate(ctx, func(root entities.StoreRoot) error {
		for _, user := range root {
			prev := user.Day(yesterday)
			if prev == nil {
				continue
			}
			for _, list := range []entities.TaskList{entities.ListMain, entities.ListExtra} {
				for _, task := range *prev.Pick(list) {
					if task.Done {
						continue
					}
					target := user.EnsureDay(today).Pick(list)
					*target = append(*target, entities.Task{Text: task.Text})
					carried++
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RolloverTasksCarried.Add(float64(carried))
	s.logger.Infow("Rollover completed", "from", yesterday, "to", today, "tasks_carried", carried)
	return nil
}
