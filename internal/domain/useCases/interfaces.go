package useCases

import (
	"context"
	"net/http"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
)

// LifecycleProcessor defines the interface for applying payment lifecycle
// events to the derived aggregates. One method per event kind; the caller
// guarantees chain-order delivery.
type LifecycleProcessor interface {
	OnInitiated(ctx context.Context, ev *model.PaymentInitiated) error
	OnCompleted(ctx context.Context, ev *model.PaymentCompleted) error
	OnCancelled(ctx context.Context, ev *model.PaymentCancelled) error
	OnReputationChanged(ctx context.Context, ev *model.ReputationUpdated) error
}

// StatsQuery defines the read-only interface exposed to the API layer.
type StatsQuery interface {
	ProtocolStats(ctx context.Context) (*model.ProtocolStat, error)
	UserStats(ctx context.Context, address string) (*model.User, error)
	AllUsers(ctx context.Context) ([]*model.User, error)
	DailyStats(ctx context.Context) ([]*model.DailyStat, error)
	CurrencyStats(ctx context.Context) ([]*model.CurrencyStat, error)
}

// Broadcaster defines an interface for pushing updates to WebSocket/API layers.
type Broadcaster interface {
	BroadcastProtocolStats(stats *model.ProtocolStat)
	Handler() func(http.ResponseWriter, *http.Request)
}
