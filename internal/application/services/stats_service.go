package services

import (
	"context"
	"fmt"

	"github.com/focusplan/bot/internal/domain/entities"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/ports"
)

// StatsService computes completion statistics across all users for the
// administrator view. Pure reads; cost grows with total recorded history
// since nothing is ever archived.
type StatsService struct {
	store  ports.Store
	logger *logger.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(store ports.Store, logger *logger.Logger) *StatsService {
	return &StatsService{store: store, logger: logger}
}

// GlobalStats returns lifetime completion counts for every known user.
func (s *StatsService) GlobalStats(ctx context.Context) (map[string]entities.Stats, error) {
	root, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}

	stats := make(map[string]entities.Stats, len(root))
	for userID, user := range root {
		stats[userID] = user.StatsFor()
	}
	return stats, nil
}
