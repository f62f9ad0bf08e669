// Package service provides implementations of domain services that implement core business logic
// This package depends only on domain models and repository interfaces (not implementations)
package service

import (
	"context"
	"math/big"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
)

// UserAggregate owns load-or-create and all field mutations for User
// entities. No other code path constructs or mutates a User; the "first
// sighting" signal that drives ProtocolStat.TotalUniqueUsers comes from
// the created flag of LoadOrCreate.
type UserAggregate struct {
	store repository.UserStore
}

func NewUserAggregate(store repository.UserStore) *UserAggregate {
	return &UserAggregate{store: store}
}

// LoadOrCreate fetches the user for an address, initializing it with
// zeroed counters and the neutral reputation when absent. The second
// return value reports whether the user was created by this call.
func (a *UserAggregate) LoadOrCreate(ctx context.Context, address string) (*model.User, bool, error) {
	u, err := a.store.GetUser(ctx, address)
	if err != nil {
		return nil, false, err
	}
	if u != nil {
		return u, false, nil
	}
	return model.NewUser(address), true, nil
}

// RecordSent applies a completed payment on the sending side.
func (a *UserAggregate) RecordSent(u *model.User, amount *big.Int, ts int64) {
	u.TotalSent = new(big.Int).Add(u.TotalSent, amount)
	u.PaymentsSentCount++
	a.Touch(u, ts)
}

// RecordReceived applies a completed payment on the receiving side.
func (a *UserAggregate) RecordReceived(u *model.User, amount *big.Int, ts int64) {
	u.TotalReceived = new(big.Int).Add(u.TotalReceived, amount)
	u.PaymentsReceivedCount++
	a.Touch(u, ts)
}

// SetReputation stores an absolute score; reputation is not derived from
// payment counters and may move in either direction.
func (a *UserAggregate) SetReputation(u *model.User, score int64) {
	u.Reputation = score
}

// Touch advances the activity timestamps. FirstTransactionAt is immutable
// once set; LastTransactionAt only moves forward.
func (a *UserAggregate) Touch(u *model.User, ts int64) {
	if u.FirstTransactionAt == 0 {
		u.FirstTransactionAt = ts
	}
	if ts > u.LastTransactionAt {
		u.LastTransactionAt = ts
	}
}

func (a *UserAggregate) Save(ctx context.Context, u *model.User) error {
	return a.store.SaveUser(ctx, u)
}
