package service

import (
	"context"
	"log"

	"github.com/gboigwe/nuru-sub002/internal/app/dto"
	"github.com/gboigwe/nuru-sub002/internal/infrastructure/queue"
)

// EventProducerUseCase handles publishing lifecycle events to Kafka
type EventProducerUseCase struct {
	Producer queue.EventProducer
}

// NewEventProducerUseCase creates a new use case for publishing events
func NewEventProducerUseCase(producer queue.EventProducer) *EventProducerUseCase {
	return &EventProducerUseCase{
		Producer: producer,
	}
}

// Execute publishes a lifecycle event to Kafka
func (uc *EventProducerUseCase) Execute(ctx context.Context, ev *dto.PaymentEventDTO) error {
	err := uc.Producer.PublishEvent(ctx, ev)
	if err != nil {
		log.Printf("Failed to publish event to Kafka: %v", err)
		return err
	}
	return nil
}

// ExecuteBatch publishes a batch of lifecycle events to Kafka
func (uc *EventProducerUseCase) ExecuteBatch(ctx context.Context, events []*dto.PaymentEventDTO) error {
	err := uc.Producer.PublishEventBatch(ctx, events)
	if err != nil {
		log.Printf("Failed to publish event batch to Kafka: %v", err)
		return err
	}
	return nil
}
