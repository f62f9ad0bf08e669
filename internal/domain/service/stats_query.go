package service

import (
	"context"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
	"github.com/gboigwe/nuru-sub002/internal/domain/useCases"
)

// StatsQueryService is the read-only view over the aggregates served to the
// API layer. The entity store is the primary read path; for the protocol
// row it falls back to the latest durable snapshot when the store comes up
// empty (e.g. a fresh cache after a restart).
type StatsQueryService struct {
	store     repository.EntityStore
	snapshots repository.StatsPersistence // optional, may be nil
}

func NewStatsQueryService(store repository.EntityStore, snapshots repository.StatsPersistence) *StatsQueryService {
	return &StatsQueryService{store: store, snapshots: snapshots}
}

// Ensure interface compliance
var _ useCases.StatsQuery = (*StatsQueryService)(nil)

func (s *StatsQueryService) ProtocolStats(ctx context.Context) (*model.ProtocolStat, error) {
	stats, err := s.store.GetProtocolStat(ctx)
	if err != nil {
		return nil, err
	}
	if stats != nil {
		return stats, nil
	}

	if s.snapshots != nil {
		snap, err := s.snapshots.GetLatestProtocolSnapshot(ctx)
		if err == nil && snap != nil {
			return snap, nil
		}
	}

	// Nothing processed yet: serve the zero row rather than an error.
	return model.NewProtocolStat(), nil
}

func (s *StatsQueryService) UserStats(ctx context.Context, address string) (*model.User, error) {
	return s.store.GetUser(ctx, address)
}

func (s *StatsQueryService) AllUsers(ctx context.Context) ([]*model.User, error) {
	return s.store.GetAllUsers(ctx)
}

func (s *StatsQueryService) DailyStats(ctx context.Context) ([]*model.DailyStat, error) {
	return s.store.GetAllDailyStats(ctx)
}

func (s *StatsQueryService) CurrencyStats(ctx context.Context) ([]*model.CurrencyStat, error) {
	return s.store.GetAllCurrencyStats(ctx)
}
