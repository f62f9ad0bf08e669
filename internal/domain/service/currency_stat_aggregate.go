package service

import (
	"context"
	"math/big"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
)

// CurrencyStatAggregate owns the per-currency rollups, keyed by the
// normalized code the classifier assigned at initiation.
type CurrencyStatAggregate struct {
	store repository.CurrencyStatStore
}

func NewCurrencyStatAggregate(store repository.CurrencyStatStore) *CurrencyStatAggregate {
	return &CurrencyStatAggregate{store: store}
}

func (a *CurrencyStatAggregate) LoadOrCreate(ctx context.Context, currency string) (*model.CurrencyStat, error) {
	s, err := a.store.GetCurrencyStat(ctx, currency)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	return model.NewCurrencyStat(currency), nil
}

// RecordCompleted adds a settled payment's volume and recomputes the
// truncating average.
func (a *CurrencyStatAggregate) RecordCompleted(s *model.CurrencyStat, amount *big.Int, ts int64) {
	s.TotalVolume = new(big.Int).Add(s.TotalVolume, amount)
	s.TotalPayments++
	s.AverageAmount = truncDiv(s.TotalVolume, s.TotalPayments)
	s.LastUpdated = ts
}

func (a *CurrencyStatAggregate) Save(ctx context.Context, s *model.CurrencyStat) error {
	return a.store.SaveCurrencyStat(ctx, s)
}
