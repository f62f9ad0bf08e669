package service

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"sync/atomic"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
	"github.com/gboigwe/nuru-sub002/internal/domain/useCases"
)

// LifecycleHandler applies payment lifecycle events to the derived
// aggregates. One entry point per event kind; the event source calls them
// sequentially in chain order, so no locking happens here.
//
// Writes are ordered with the Payment row first and derived aggregates
// after, so a mid-handler persistence failure cannot leave aggregates
// referencing a payment that never landed.
type LifecycleHandler struct {
	store      repository.EntityStore
	users      *UserAggregate
	daily      *DailyStatAggregate
	currencies *CurrencyStatAggregate
	protocol   *ProtocolStatAggregate

	defaultCurrency string
	dropped         atomic.Uint64 // terminal events for unknown order ids
}

func NewLifecycleHandler(store repository.EntityStore, defaultCurrency string) *LifecycleHandler {
	return &LifecycleHandler{
		store:           store,
		users:           NewUserAggregate(store),
		daily:           NewDailyStatAggregate(store),
		currencies:      NewCurrencyStatAggregate(store),
		protocol:        NewProtocolStatAggregate(store),
		defaultCurrency: defaultCurrency,
	}
}

// Ensure interface compliance
var _ useCases.LifecycleProcessor = (*LifecycleHandler)(nil)

// OnInitiated opens a new PENDING payment and counts it on the day bucket
// and the protocol row. An already-existing order id is overwritten; the
// event source delivers each order's Initiated event at most once.
func (h *LifecycleHandler) OnInitiated(ctx context.Context, ev *model.PaymentInitiated) error {
	if ev == nil {
		return nil
	}

	payment := &model.Payment{
		ID:            ev.OrderID,
		Sender:        ev.Sender,
		Recipient:     ev.Recipient,
		Amount:        new(big.Int).Set(ev.Amount),
		Currency:      ClassifyCurrency(ev.Metadata, h.defaultCurrency),
		PlatformFee:   new(big.Int),
		NetAmount:     new(big.Int).Set(ev.Amount),
		Status:        model.StatusPending,
		VoiceHash:     ev.VoiceHash,
		InitiatedAt:   ev.BlockTimestamp,
		SenderUser:    ev.Sender,
		RecipientUser: ev.Recipient,
	}

	sender, senderNew, err := h.users.LoadOrCreate(ctx, ev.Sender)
	if err != nil {
		return fmt.Errorf("load sender %s: %w", ev.Sender, err)
	}
	recipient, recipientNew := sender, false
	if ev.Recipient != ev.Sender {
		recipient, recipientNew, err = h.users.LoadOrCreate(ctx, ev.Recipient)
		if err != nil {
			return fmt.Errorf("load recipient %s: %w", ev.Recipient, err)
		}
	}
	h.users.Touch(sender, ev.BlockTimestamp)

	day, err := h.daily.LoadOrCreate(ctx, ev.BlockTimestamp)
	if err != nil {
		return fmt.Errorf("load daily stat: %w", err)
	}
	h.daily.RecordInitiated(day)

	proto, err := h.protocol.LoadOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("load protocol stat: %w", err)
	}
	var newUsers uint64
	if senderNew {
		newUsers++
	}
	if recipientNew {
		newUsers++
	}
	h.protocol.RecordInitiated(proto, newUsers, ev.BlockTimestamp)

	// Payment is the source of truth; it goes first.
	if err := h.store.SavePayment(ctx, payment); err != nil {
		return fmt.Errorf("save payment %s: %w", payment.ID, err)
	}
	if err := h.users.Save(ctx, sender); err != nil {
		return fmt.Errorf("save sender %s: %w", sender.Address, err)
	}
	if recipient != sender {
		if err := h.users.Save(ctx, recipient); err != nil {
			return fmt.Errorf("save recipient %s: %w", recipient.Address, err)
		}
	}
	if err := h.daily.Save(ctx, day); err != nil {
		return fmt.Errorf("save daily stat %d: %w", day.Date, err)
	}
	if err := h.protocol.Save(ctx, proto); err != nil {
		return fmt.Errorf("save protocol stat: %w", err)
	}
	return nil
}

// OnCompleted settles a payment and rolls its volume and fee into the user,
// daily, currency and protocol aggregates. The day bucket is keyed by this
// event's own timestamp, not the initiation day. A completion for an
// unknown order id is dropped (counted and logged, never an error).
func (h *LifecycleHandler) OnCompleted(ctx context.Context, ev *model.PaymentCompleted) error {
	if ev == nil {
		return nil
	}

	payment, err := h.store.GetPayment(ctx, ev.OrderID)
	if err != nil {
		return fmt.Errorf("load payment %s: %w", ev.OrderID, err)
	}
	if payment == nil {
		h.dropped.Add(1)
		log.Printf("Dropping completion for unknown order %s", ev.OrderID)
		return nil
	}

	payment.Status = model.StatusCompleted
	payment.CompletedAt = ev.BlockTimestamp
	payment.PlatformFee = new(big.Int).Set(ev.Fee)
	payment.NetAmount = new(big.Int).Sub(ev.Amount, ev.Fee)
	if ev.GasUsed != nil {
		payment.GasUsed = new(big.Int).Set(ev.GasUsed)
	}

	sender, _, err := h.users.LoadOrCreate(ctx, payment.SenderUser)
	if err != nil {
		return fmt.Errorf("load sender %s: %w", payment.SenderUser, err)
	}
	h.users.RecordSent(sender, ev.Amount, ev.BlockTimestamp)

	recipient := sender
	if payment.RecipientUser != payment.SenderUser {
		recipient, _, err = h.users.LoadOrCreate(ctx, payment.RecipientUser)
		if err != nil {
			return fmt.Errorf("load recipient %s: %w", payment.RecipientUser, err)
		}
	}
	h.users.RecordReceived(recipient, ev.Amount, ev.BlockTimestamp)

	day, err := h.daily.LoadOrCreate(ctx, ev.BlockTimestamp)
	if err != nil {
		return fmt.Errorf("load daily stat: %w", err)
	}
	h.daily.RecordCompleted(day, ev.Amount, ev.Fee)

	proto, err := h.protocol.LoadOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("load protocol stat: %w", err)
	}
	h.protocol.RecordCompleted(proto, ev.Amount, ev.Fee, ev.BlockTimestamp)

	currency, err := h.currencies.LoadOrCreate(ctx, payment.Currency)
	if err != nil {
		return fmt.Errorf("load currency stat %s: %w", payment.Currency, err)
	}
	h.currencies.RecordCompleted(currency, ev.Amount, ev.BlockTimestamp)

	if err := h.store.SavePayment(ctx, payment); err != nil {
		return fmt.Errorf("save payment %s: %w", payment.ID, err)
	}
	if err := h.users.Save(ctx, sender); err != nil {
		return fmt.Errorf("save sender %s: %w", sender.Address, err)
	}
	if recipient != sender {
		if err := h.users.Save(ctx, recipient); err != nil {
			return fmt.Errorf("save recipient %s: %w", recipient.Address, err)
		}
	}
	if err := h.daily.Save(ctx, day); err != nil {
		return fmt.Errorf("save daily stat %d: %w", day.Date, err)
	}
	if err := h.protocol.Save(ctx, proto); err != nil {
		return fmt.Errorf("save protocol stat: %w", err)
	}
	if err := h.currencies.Save(ctx, currency); err != nil {
		return fmt.Errorf("save currency stat %s: %w", currency.Currency, err)
	}
	return nil
}

// OnCancelled marks a payment cancelled and counts it on the day bucket of
// this event's timestamp and on the protocol row. Cancelled payments never
// contribute volume, fees or currency rollups. Unknown order ids are
// dropped the same way as in OnCompleted.
func (h *LifecycleHandler) OnCancelled(ctx context.Context, ev *model.PaymentCancelled) error {
	if ev == nil {
		return nil
	}

	payment, err := h.store.GetPayment(ctx, ev.OrderID)
	if err != nil {
		return fmt.Errorf("load payment %s: %w", ev.OrderID, err)
	}
	if payment == nil {
		h.dropped.Add(1)
		log.Printf("Dropping cancellation for unknown order %s", ev.OrderID)
		return nil
	}

	payment.Status = model.StatusCancelled
	payment.CancelledAt = ev.BlockTimestamp
	payment.CancellationReason = ev.Reason

	day, err := h.daily.LoadOrCreate(ctx, ev.BlockTimestamp)
	if err != nil {
		return fmt.Errorf("load daily stat: %w", err)
	}
	h.daily.RecordCancelled(day)

	proto, err := h.protocol.LoadOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("load protocol stat: %w", err)
	}
	h.protocol.RecordCancelled(proto, ev.BlockTimestamp)

	if err := h.store.SavePayment(ctx, payment); err != nil {
		return fmt.Errorf("save payment %s: %w", payment.ID, err)
	}
	if err := h.daily.Save(ctx, day); err != nil {
		return fmt.Errorf("save daily stat %d: %w", day.Date, err)
	}
	if err := h.protocol.Save(ctx, proto); err != nil {
		return fmt.Errorf("save protocol stat: %w", err)
	}
	return nil
}

// OnReputationChanged stores an absolute reputation score for the address,
// creating the user if it has never been seen. No counters move.
func (h *LifecycleHandler) OnReputationChanged(ctx context.Context, ev *model.ReputationUpdated) error {
	if ev == nil {
		return nil
	}

	u, _, err := h.users.LoadOrCreate(ctx, ev.User)
	if err != nil {
		return fmt.Errorf("load user %s: %w", ev.User, err)
	}
	h.users.SetReputation(u, ev.NewScore)
	if err := h.users.Save(ctx, u); err != nil {
		return fmt.Errorf("save user %s: %w", u.Address, err)
	}
	return nil
}

// DroppedEvents reports how many terminal events referenced an order id
// the store has never seen.
func (h *LifecycleHandler) DroppedEvents() uint64 {
	return h.dropped.Load()
}
