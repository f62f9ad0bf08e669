package app

import (
	"context"
	"log"

	"github.com/gboigwe/nuru-sub002/config"
	"github.com/gboigwe/nuru-sub002/internal/app/dto"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
	"github.com/gboigwe/nuru-sub002/internal/domain/service"
	ws "github.com/gboigwe/nuru-sub002/internal/handlers/websocket"
	redisrepo "github.com/gboigwe/nuru-sub002/internal/infrastructure/cache"
	"github.com/gboigwe/nuru-sub002/internal/infrastructure/memstore"
	"github.com/gboigwe/nuru-sub002/internal/infrastructure/queue"
	chrepo "github.com/gboigwe/nuru-sub002/internal/infrastructure/storage"
)

// Processor defines the common interface for event processors
type Processor interface {
	Run(ctx context.Context) error
}

// AppContext holds all app dependencies
type AppContext struct {
	Config         *config.Config
	Store          repository.EntityStore
	Handler        *service.LifecycleHandler
	Query          *service.StatsQueryService
	Broadcaster    *ws.WebSocketBroadcaster
	EventProcessor Processor
	KafkaConsumer  *queue.KafkaConsumer
	KafkaProducer  *queue.KafkaProducer
	Publisher      *service.EventProducerUseCase // nil when Kafka is disabled
	EventCh        chan *dto.PaymentEventDTO     // direct channel, nil when consuming from Kafka
}

// NewApp initializes the app context with all dependencies
func NewApp(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg}

	// Entity store: Redis in normal operation, in-memory fallback when
	// Redis is unreachable (local demo runs, tests)
	redisRepo := redisrepo.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisRepo.Ping(ctx); err != nil {
		log.Printf("Warning: Redis unavailable (%v), using in-memory entity store", err)
		app.Store = memstore.New()
	} else {
		app.Store = redisRepo
		log.Println("Redis entity store initialized")
	}

	// Durable audit log and snapshots (ClickHouse), optional
	var eventLog repository.EventPersistence
	var snapshots repository.StatsPersistence
	chConfig := chrepo.ClickHouseConfig{
		Addr:     cfg.ClickhouseAddr,
		Username: cfg.ClickhouseUsername,
		Password: cfg.ClickhousePassword,
		Timeout:  cfg.ClickhouseTimeout,
	}
	clickhouseRepo, err := chrepo.NewClickHouseRepository(chConfig)
	if err != nil {
		log.Printf("Warning: Failed to connect to ClickHouse: %v. Continuing without audit log.", err)
	} else {
		eventLog = clickhouseRepo
		snapshots = clickhouseRepo
		log.Println("ClickHouse event log initialized")
	}

	app.Handler = service.NewLifecycleHandler(app.Store, cfg.DefaultCurrency)
	app.Query = service.NewStatsQueryService(app.Store, snapshots)
	app.Broadcaster = ws.NewWebSocketBroadcaster()

	kafkaConfig := queue.KafkaConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		BatchSize:     cfg.KafkaBatchSize,
		BatchTimeout:  cfg.KafkaBatchTimeout,
	}

	if cfg.KafkaEnabled {
		log.Println("Using Kafka for event consumption...")
		app.KafkaConsumer = queue.NewKafkaConsumer(kafkaConfig)

		eventCh, err := app.KafkaConsumer.Subscribe(ctx)
		if err != nil {
			return nil, err
		}
		log.Println("Kafka consumer subscribed to topic")

		processor := NewEventProcessor(eventCh, app.Handler, app.Query, app.Broadcaster)
		processor.AuditLog = eventLog
		processor.Consumer = app.KafkaConsumer
		app.EventProcessor = processor

		// Producer is wired for the demo generator path
		app.KafkaProducer = queue.NewKafkaProducer(kafkaConfig)
		app.Publisher = service.NewEventProducerUseCase(app.KafkaProducer)
		log.Println("Kafka consumer and producer initialized")
	} else {
		log.Println("Kafka disabled, using direct channel...")
		app.EventCh = make(chan *dto.PaymentEventDTO, cfg.EventBufferSize)
		processor := NewEventProcessor(app.EventCh, app.Handler, app.Query, app.Broadcaster)
		processor.AuditLog = eventLog
		app.EventProcessor = processor
	}

	return app, nil
}

// Cleanup performs graceful shutdown of all components
func (a *AppContext) Cleanup(ctx context.Context) {
	if a.KafkaConsumer != nil {
		log.Println("Closing Kafka consumer...")
		if err := a.KafkaConsumer.Close(); err != nil {
			log.Printf("Error closing Kafka consumer: %v", err)
		}
	}

	if a.KafkaProducer != nil {
		log.Println("Closing Kafka producer...")
		if err := a.KafkaProducer.Close(); err != nil {
			log.Printf("Error closing Kafka producer: %v", err)
		}
	}

	if a.EventCh != nil {
		log.Println("Closing direct channel...")
		close(a.EventCh)
	}

	log.Println("All resources cleaned up")
}
