package service

import (
	"context"
	"fmt"
	"time"

	"tutorbot/internal/model"
	"tutorbot/pkg/logger"

	"go.uber.org/zap"
)

const (
	statsCacheKey = "stats"
	statsCacheTTL = 15 * time.Second
)

// StatsService serves the aggregate projection behind the health endpoint and
// the admin panel.
type StatsService struct {
	stats StatsRepository
	cache Cache
}

func NewStatsService(stats StatsRepository, cache Cache) *StatsService {
	return &StatsService{
		stats: stats,
		cache: cache,
	}
}

func (s *StatsService) Stats(ctx context.Context) (*model.Stats, error) {
	if s.cache != nil {
		var cached model.Stats
		hit, err := s.cache.GetJSON(ctx, statsCacheKey, &cached)
		if err != nil {
			logger.Logger().Warn("stats cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	stats, err := s.stats.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, statsCacheKey, stats, statsCacheTTL); err != nil {
			logger.Logger().Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
