// Package repository defines all the repository interfaces used by domain services
// Following the dependency inversion principle, domain logic depends on these interfaces,
// and infrastructure implementations provide concrete implementations
package repository

import (
	"context"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
)

// Absence signal: every Get* method returns (nil, nil) when the entity does
// not exist. The aggregate managers rely on this to drive load-or-create.

// PaymentStore is keyed by the order id.
type PaymentStore interface {
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	SavePayment(ctx context.Context, p *model.Payment) error
}

// UserStore is keyed by the account address.
type UserStore interface {
	GetUser(ctx context.Context, address string) (*model.User, error)
	SaveUser(ctx context.Context, u *model.User) error
	GetAllUsers(ctx context.Context) ([]*model.User, error)
}

// DailyStatStore is keyed by the bucket start timestamp.
type DailyStatStore interface {
	GetDailyStat(ctx context.Context, date int64) (*model.DailyStat, error)
	SaveDailyStat(ctx context.Context, s *model.DailyStat) error
	GetAllDailyStats(ctx context.Context) ([]*model.DailyStat, error)
}

// CurrencyStatStore is keyed by the normalized currency code.
type CurrencyStatStore interface {
	GetCurrencyStat(ctx context.Context, currency string) (*model.CurrencyStat, error)
	SaveCurrencyStat(ctx context.Context, s *model.CurrencyStat) error
	GetAllCurrencyStats(ctx context.Context) ([]*model.CurrencyStat, error)
}

// ProtocolStatStore holds the single protocol row under model.ProtocolStatID.
type ProtocolStatStore interface {
	GetProtocolStat(ctx context.Context) (*model.ProtocolStat, error)
	SaveProtocolStat(ctx context.Context, s *model.ProtocolStat) error
}

// EntityStore is the keyed load/save substrate the lifecycle handler runs
// against. No cross-entity transactional guarantees are assumed beyond
// single-entity read-modify-write; the handler orders its writes so the
// Payment row lands before any derived aggregate.
type EntityStore interface {
	PaymentStore
	UserStore
	DailyStatStore
	CurrencyStatStore
	ProtocolStatStore
}

// EventPersistence defines the interface for the durable raw-event log.
// The engine appends every consumed lifecycle event here so a restarted
// process can reprocess from the last durably committed position.
type EventPersistence interface {
	// SaveEvent appends one raw lifecycle event, identified by its
	// transport-level event id.
	SaveEvent(ctx context.Context, eventID, kind, orderID string, payload []byte, blockTimestamp int64) error

	// GetEventsSince returns raw event payloads with a block timestamp at or
	// after the given unix time, in chain order.
	GetEventsSince(ctx context.Context, since int64) ([][]byte, error)
}

// StatsPersistence defines the interface for durable protocol-stat snapshots.
// Snapshots are a reporting convenience; the entity store remains the source
// of truth for the live row.
type StatsPersistence interface {
	SaveProtocolSnapshot(ctx context.Context, s *model.ProtocolStat) error
	GetLatestProtocolSnapshot(ctx context.Context) (*model.ProtocolStat, error)
}
