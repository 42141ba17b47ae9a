package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/focusplan/bot/internal/infrastructure/config"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/infrastructure/metrics"
	"github.com/focusplan/bot/internal/ports"
)

// NotifierService broadcasts a reminder message to every known user,
// best-effort. A failed or timed-out delivery to one user is logged and
// skipped; it never aborts the sweep. There is no retry and no delivery
// confirmation.
type NotifierService struct {
	store   ports.Store
	sender  ports.Sender
	logger  *logger.Logger
	metrics *metrics.Metrics

	sendTimeout time.Duration
	limiter     *rate.Limiter
}

// NewNotifierService creates a new notifier service
func NewNotifierService(store ports.Store, sender ports.Sender, cfg config.NotifierConfig, logger *logger.Logger, m *metrics.Metrics) *NotifierService {
	return &NotifierService{
		store:       store,
		sender:      sender,
		logger:      logger,
		metrics:     m,
		sendTimeout: cfg.SendTimeout,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
	}
}

// Broadcast sends text to every known user. Recipients are visited in
// sorted order so runs are comparable in the logs. Each send is bounded
// by the configured timeout and paced by the outbound rate limiter, so a
// hung transport cannot stall the timer path indefinitely.
func (s *NotifierService) Broadcast(ctx context.Context, text string) error {
	root, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	userIDs := make([]string, 0, len(root))
	for userID := range root {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	sent, failed := 0, 0
	for _, userID := range userIDs {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("broadcast interrupted: %w", err)
		}
		if err := s.sendOne(ctx, userID, text); err != nil {
			failed++
			s.metrics.BroadcastsFailed.Inc()
			s.logger.Warnw("Broadcast delivery failed", "user_id", userID, "error", err.Error())
			continue
		}
		sent++
		s.metrics.BroadcastsSent.Inc()
	}

	s.logger.Infow("Broadcast completed", "recipients", len(userIDs), "sent", sent, "failed", failed)
	return nil
}

func (s *NotifierService) sendOne(ctx context.Context, userID, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	return s.sender.Send(sendCtx, userID, text)
}
