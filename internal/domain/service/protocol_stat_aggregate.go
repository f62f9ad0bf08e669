package service

import (
	"context"
	"math/big"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
)

// ProtocolStatAggregate owns the single protocol-wide row. The row lives in
// the same store substrate as every other entity under a fixed key; the
// handle is injected, so there is no process-wide mutable global.
type ProtocolStatAggregate struct {
	store repository.ProtocolStatStore
}

func NewProtocolStatAggregate(store repository.ProtocolStatStore) *ProtocolStatAggregate {
	return &ProtocolStatAggregate{store: store}
}

func (a *ProtocolStatAggregate) LoadOrCreate(ctx context.Context) (*model.ProtocolStat, error) {
	s, err := a.store.GetProtocolStat(ctx)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	return model.NewProtocolStat(), nil
}

// RecordInitiated counts an opened order plus however many of its parties
// were seen for the first time (0, 1 or 2).
func (a *ProtocolStatAggregate) RecordInitiated(s *model.ProtocolStat, newUsers uint64, ts int64) {
	s.TotalPaymentsAllTime++
	s.TotalUniqueUsers += newUsers
	s.LastUpdated = ts
}

// RecordCompleted adds a settled payment's volume and fee and recomputes
// the all-time truncating average.
func (a *ProtocolStatAggregate) RecordCompleted(s *model.ProtocolStat, amount, fee *big.Int, ts int64) {
	s.TotalVolumeAllTime = new(big.Int).Add(s.TotalVolumeAllTime, amount)
	s.TotalFeesAllTime = new(big.Int).Add(s.TotalFeesAllTime, fee)
	s.TotalCompletedPayments++
	s.AveragePaymentAmount = truncDiv(s.TotalVolumeAllTime, s.TotalCompletedPayments)
	s.LastUpdated = ts
}

func (a *ProtocolStatAggregate) RecordCancelled(s *model.ProtocolStat, ts int64) {
	s.TotalCancelledPayments++
	s.LastUpdated = ts
}

func (a *ProtocolStatAggregate) Save(ctx context.Context, s *model.ProtocolStat) error {
	return a.store.SaveProtocolStat(ctx, s)
}
