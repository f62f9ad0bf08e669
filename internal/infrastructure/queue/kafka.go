package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/gboigwe/nuru-sub002/internal/app/dto"
)

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	BatchSize     int
	BatchTimeout  int
}

// EventProducer defines interface for producing payment lifecycle events
type EventProducer interface {
	PublishEvent(ctx context.Context, ev *dto.PaymentEventDTO) error
	PublishEventBatch(ctx context.Context, events []*dto.PaymentEventDTO) error
	Close() error
}

// EventConsumer defines interface for consuming payment lifecycle events
type EventConsumer interface {
	Subscribe(ctx context.Context) (<-chan *dto.PaymentEventDTO, error)
	Commit(ctx context.Context, ev *dto.PaymentEventDTO) error
	Close() error
}

// KafkaProducer implements EventProducer using Kafka
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a new Kafka producer
func NewKafkaProducer(config KafkaConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{}, // hash partitioning keeps each order's events in one partition
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaProducer{writer: writer}
}

// PublishEvent sends a lifecycle event to Kafka
func (p *KafkaProducer) PublishEvent(ctx context.Context, ev *dto.PaymentEventDTO) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(partitionKey(ev)),
		Value: data,
		Time:  time.Now(),
	})
}

// PublishEventBatch sends a batch of lifecycle events to Kafka
func (p *KafkaProducer) PublishEventBatch(ctx context.Context, events []*dto.PaymentEventDTO) error {
	msgSlice := make([]kafka.Message, len(events))
	for i, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		msgSlice[i] = kafka.Message{
			Key:   []byte(partitionKey(ev)),
			Value: data,
			Time:  time.Now(),
		}
	}
	return p.writer.WriteMessages(ctx, msgSlice...)
}

// partitionKey picks the ordering key for an event: the order id for
// payment events, the address for reputation events.
func partitionKey(ev *dto.PaymentEventDTO) string {
	if ev.OrderID != "" {
		return ev.OrderID
	}
	return ev.User
}

// Close closes the producer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer implements EventConsumer using Kafka
type KafkaConsumer struct {
	reader        *kafka.Reader
	topic         string
	pendingMsgs   map[string]kafka.Message // Map of event ID to Kafka message
	pendingMsgsMu sync.RWMutex             // Mutex to protect the pendingMsgs map
	batchSize     int                      // Number of messages to accumulate before batch commit
	batchTimeout  time.Duration            // Max time to wait before committing a batch
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(config KafkaConfig) *KafkaConsumer {
	// Disable auto-commit to allow explicit commits
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3,              // 10KB
		MaxBytes:       10e6,              // 10MB
		CommitInterval: 0,                 // Disable auto commit - we'll handle this manually
		StartOffset:    kafka.FirstOffset, // Start from oldest message if no offset is stored
	})

	return &KafkaConsumer{
		reader:       reader,
		topic:        config.Topic,
		pendingMsgs:  make(map[string]kafka.Message),
		batchSize:    config.BatchSize,
		batchTimeout: time.Duration(config.BatchTimeout) * time.Millisecond,
	}
}

// Subscribe returns a channel of lifecycle events from Kafka
func (c *KafkaConsumer) Subscribe(ctx context.Context) (<-chan *dto.PaymentEventDTO, error) {
	eventCh := make(chan *dto.PaymentEventDTO, 1000) // Buffer to handle bursts

	// Start a background goroutine for batch commits
	go c.startBatchCommitter(ctx)

	// Start the main consumer goroutine
	go func() {
		defer close(eventCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil { // Only log if not due to context cancellation
						log.Printf("Error fetching message: %v", err)
					}
					return
				}

				var ev dto.PaymentEventDTO
				if err := json.Unmarshal(msg.Value, &ev); err != nil {
					log.Printf("Error unmarshalling event: %v", err)
					// Commit bad messages to avoid getting stuck
					_ = c.reader.CommitMessages(ctx, msg)
					continue
				}

				// Make sure we have an ID for tracking
				if ev.ID == "" {
					ev.ID = fmt.Sprintf("%s-%d-%d", ev.Type, msg.Partition, msg.Offset)
				}

				// Store message for later commit (before sending to channel to ensure we don't miss commits)
				c.pendingMsgsMu.Lock()
				c.pendingMsgs[ev.ID] = msg
				pendingCount := len(c.pendingMsgs)
				c.pendingMsgsMu.Unlock()

				if pendingCount > c.batchSize*10 {
					log.Printf("Warning: Large number of uncommitted messages: %d, batchSize is %d", pendingCount, c.batchSize)
				}

				// Send to channel (blocking if buffer is full)
				select {
				case <-ctx.Done():
					return
				case eventCh <- &ev:
					// Actual commit happens in Commit() or the batch committer
				}
			}
		}
	}()

	return eventCh, nil
}

// startBatchCommitter runs a background process that periodically commits messages in batches
func (c *KafkaConsumer) startBatchCommitter(ctx context.Context) {
	ticker := time.NewTicker(c.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final commit before shutting down
			c.commitAllPending(context.Background()) // Use a new context since the original is canceled
			return
		case <-ticker.C:
			c.commitAllPending(ctx)
		}
	}
}

// commitAllPending commits all pending messages
func (c *KafkaConsumer) commitAllPending(ctx context.Context) {
	c.pendingMsgsMu.Lock()
	defer c.pendingMsgsMu.Unlock()

	if len(c.pendingMsgs) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(c.pendingMsgs))
	for _, msg := range c.pendingMsgs {
		msgs = append(msgs, msg)
	}

	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		log.Printf("Error committing batch of %d messages: %v", len(msgs), err)
		return
	}

	log.Printf("Successfully committed batch of %d messages", len(msgs))
	c.pendingMsgs = make(map[string]kafka.Message)
}

// Commit acknowledges that an event has been processed
func (c *KafkaConsumer) Commit(ctx context.Context, ev *dto.PaymentEventDTO) error {
	if ev == nil || ev.ID == "" {
		return fmt.Errorf("cannot commit nil event or event with empty ID")
	}

	c.pendingMsgsMu.Lock()
	msg, exists := c.pendingMsgs[ev.ID]
	if !exists {
		c.pendingMsgsMu.Unlock()
		return fmt.Errorf("message for event %s not found in pending messages", ev.ID)
	}

	// If we have enough messages, commit them all as a batch
	shouldBatchCommit := len(c.pendingMsgs) >= c.batchSize

	if !shouldBatchCommit {
		delete(c.pendingMsgs, ev.ID) // Remove from pending before unlocking
		c.pendingMsgsMu.Unlock()

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit message for event %s: %w", ev.ID, err)
		}
		return nil
	}

	c.pendingMsgsMu.Unlock()
	c.commitAllPending(ctx)
	return nil
}

// Close closes the consumer
func (c *KafkaConsumer) Close() error {
	// Final commit of any pending messages
	c.commitAllPending(context.Background())
	return c.reader.Close()
}
