package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/gboigwe/nuru-sub002/internal/app/dto"
	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
	"github.com/gboigwe/nuru-sub002/internal/domain/useCases"
	"github.com/gboigwe/nuru-sub002/internal/infrastructure/queue"
)

// ErrContextCancelled is returned when the context is cancelled during processing
var ErrContextCancelled = errors.New("context cancelled during processing")

// EventProcessor drains lifecycle events from a channel, dispatches each to
// the handler entry point matching its kind, appends it to the audit log,
// and broadcasts the refreshed protocol stats. Events are processed one at
// a time; the next one starts only after the previous handler returned.
type EventProcessor struct {
	EventCh     <-chan *dto.PaymentEventDTO
	Handler     useCases.LifecycleProcessor
	Query       useCases.StatsQuery
	Broadcaster useCases.Broadcaster
	AuditLog    repository.EventPersistence // optional, may be nil
	Consumer    queue.EventConsumer         // optional, used for commits when backed by Kafka
	DedupCache  map[string]struct{}         // simple in-memory deduplication, replace with Redis for HA
}

func NewEventProcessor(eventCh <-chan *dto.PaymentEventDTO, handler useCases.LifecycleProcessor, query useCases.StatsQuery, broadcaster useCases.Broadcaster) *EventProcessor {
	return &EventProcessor{
		EventCh:     eventCh,
		Handler:     handler,
		Query:       query,
		Broadcaster: broadcaster,
		DedupCache:  make(map[string]struct{}),
	}
}

func (p *EventProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.EventCh:
			if err := p.processEvent(ctx, ev); err != nil {
				if errors.Is(err, ErrContextCancelled) {
					log.Println("Context cancelled, stopping event processor")
					return ctx.Err()
				}
				// Other errors are just logged but processing continues
				log.Printf("Error processing event: %v", err)
			}
			if p.Consumer != nil && ev != nil {
				if err := p.Consumer.Commit(ctx, ev); err != nil && ctx.Err() == nil {
					log.Printf("Failed to commit event %s: %v", ev.ID, err)
				}
			}
		}
	}
}

// processEvent handles a single lifecycle event with proper context cancellation checks
func (p *EventProcessor) processEvent(ctx context.Context, ev *dto.PaymentEventDTO) error {
	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	if ev == nil {
		return nil
	}

	// Deduplication (replace with Redis for distributed setup)
	if _, exists := p.DedupCache[ev.ID]; exists {
		return nil
	}
	p.DedupCache[ev.ID] = struct{}{}

	if err := p.dispatch(ctx, ev); err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	if p.AuditLog != nil {
		payload, err := json.Marshal(ev)
		if err == nil {
			if err := p.AuditLog.SaveEvent(ctx, ev.ID, ev.Type, ev.OrderID, payload, ev.BlockTimestamp); err != nil {
				log.Printf("Failed to append event %s to audit log: %v", ev.ID, err)
			}
		}
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	// Broadcast the refreshed protocol stats
	stats, err := p.Query.ProtocolStats(ctx)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	p.Broadcaster.BroadcastProtocolStats(stats)

	return nil
}

// dispatch routes the envelope to the handler entry point for its kind.
// Unknown kinds are logged and skipped so a newer contract version cannot
// wedge the consumer.
func (p *EventProcessor) dispatch(ctx context.Context, ev *dto.PaymentEventDTO) error {
	switch ev.Type {
	case model.KindInitiated:
		return p.Handler.OnInitiated(ctx, ev.ToInitiated())
	case model.KindCompleted:
		return p.Handler.OnCompleted(ctx, ev.ToCompleted())
	case model.KindCancelled:
		return p.Handler.OnCancelled(ctx, ev.ToCancelled())
	case model.KindReputationUpdated:
		return p.Handler.OnReputationChanged(ctx, ev.ToReputationUpdated())
	default:
		log.Printf("Skipping event %s with unknown type %q", ev.ID, ev.Type)
		return nil
	}
}
