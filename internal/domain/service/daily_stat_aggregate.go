package service

import (
	"context"
	"math/big"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
)

// DailyStatAggregate owns the per-day rollups. Buckets are keyed by the
// canonical day start of the triggering event's own timestamp, so a payment
// initiated on one day and completed on the next contributes to two buckets.
type DailyStatAggregate struct {
	store repository.DailyStatStore
}

func NewDailyStatAggregate(store repository.DailyStatStore) *DailyStatAggregate {
	return &DailyStatAggregate{store: store}
}

// LoadOrCreate fetches the rollup for the bucket containing ts.
func (a *DailyStatAggregate) LoadOrCreate(ctx context.Context, ts int64) (*model.DailyStat, error) {
	date := DayBucket(ts)
	s, err := a.store.GetDailyStat(ctx, date)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	return model.NewDailyStat(date), nil
}

// RecordInitiated counts an order opened within this bucket.
func (a *DailyStatAggregate) RecordInitiated(s *model.DailyStat) {
	s.TotalPayments++
}

// RecordCompleted adds a settled payment's volume and fee, then recomputes
// the truncating average from the authoritative sum and count.
func (a *DailyStatAggregate) RecordCompleted(s *model.DailyStat, amount, fee *big.Int) {
	s.TotalVolume = new(big.Int).Add(s.TotalVolume, amount)
	s.TotalFees = new(big.Int).Add(s.TotalFees, fee)
	s.CompletedPayments++
	s.AverageAmount = truncDiv(s.TotalVolume, s.CompletedPayments)
}

// RecordCancelled counts a cancellation; cancelled payments never
// contribute volume or fees.
func (a *DailyStatAggregate) RecordCancelled(s *model.DailyStat) {
	s.CancelledPayments++
}

func (a *DailyStatAggregate) Save(ctx context.Context, s *model.DailyStat) error {
	return a.store.SaveDailyStat(ctx, s)
}

// truncDiv returns sum/count with integer truncation, or zero when the
// count is zero. Averages are always derived this way, never accepted from
// outside.
func truncDiv(sum *big.Int, count uint64) *big.Int {
	if count == 0 {
		return new(big.Int)
	}
	return new(big.Int).Div(sum, new(big.Int).SetUint64(count))
}
