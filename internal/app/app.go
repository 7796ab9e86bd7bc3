package app

import (
	"context"
	"time"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/events"
	"catalog/pkg/kafka"
	"catalog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP surface is built on.
type Deps struct {
	Repository       repositories.ProductRepository
	Publisher        events.Publisher
	StorageName      string
	HealthCheck      func(ctx context.Context) error
	StorageTimeout   time.Duration
	CORSAllowOrigins string
}

// NewFiberApp wires services, handlers and middleware into a Fiber app.
func NewFiberApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "catalog",
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})

	allowOrigins := d.CORSAllowOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	middleware.Install(app, allowOrigins)

	productService := services.NewProductService(d.Repository, d.Publisher, d.StorageTimeout)
	handlers.NewProductHandler(productService).RegisterRoutes(app)
	handlers.NewHealthHandler(d.StorageName, d.HealthCheck).RegisterRoutes(app)

	return app
}

// App owns the process-wide resources: storage connection, event publisher and HTTP app.
type App struct {
	Fiber   *fiber.App
	cfg     *config.Config
	closers []func() error
}

// New opens storage and the event publisher selected by cfg and builds the HTTP app.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	repo, check, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	publisher, err := a.openPublisher()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Fiber = NewFiberApp(Deps{
		Repository:       repo,
		Publisher:        publisher,
		StorageName:      cfg.StorageDriver,
		HealthCheck:      check,
		StorageTimeout:   cfg.StorageTimeout,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (repositories.ProductRepository, func(context.Context) error, error) {
	cfg := a.cfg
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })

		coll, err := database.EnsureProductCollection(ctx, client.Database(cfg.MongoDatabase), cfg.MongoCollection)
		if err != nil {
			return nil, nil, err
		}
		check := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		return repositories.NewMongoProductRepository(coll), check, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.OpenGORM(cfg.StorageDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, errors.Wrap(err, "get sql.DB")
		}
		a.closers = append(a.closers, sqlDB.Close)
		zap.L().Info("connected to database", zap.String("driver", cfg.StorageDriver))
		return repositories.NewGORMProductRepository(db), sqlDB.PingContext, nil

	case config.DriverMemory:
		zap.L().Warn("using in-memory storage, products are lost on restart")
		return repositories.NewMemoryProductRepository(), nil, nil
	}
	return nil, nil, errors.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func (a *App) openPublisher() (events.Publisher, error) {
	cfg := a.cfg
	switch cfg.EventsDriver {
	case config.EventsRabbitMQ:
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			return nil, errors.Wrap(err, "rabbitmq")
		}
		a.closers = append(a.closers, client.Close)

		if cfg.EventsConsume {
			if err := client.ConsumeEvents(LogEvent); err != nil {
				return nil, errors.Wrap(err, "start event consumer")
			}
			zap.L().Info("consuming product events", zap.String("queue", cfg.RabbitMQQueue))
		}
		return client, nil

	case config.EventsKafka:
		producer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		return producer, nil
	}
	return events.Noop{}, nil
}

// LogEvent is the consumer used with EVENTS_CONSUME: it records every catalog event.
func LogEvent(event events.Event) error {
	zap.L().Info("product event",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("product_id", event.ProductID),
		zap.Time("occurred_at", event.OccurredAt))
	return nil
}

// Listen serves HTTP on the configured port until Shutdown is called.
func (a *App) Listen() error {
	zap.L().Info("starting server", zap.String("addr", a.cfg.AppPort), zap.String("storage", a.cfg.StorageDriver))
	return a.Fiber.Listen(a.cfg.AppPort)
}

// Shutdown stops accepting requests, waits for in-flight ones up to timeout, then releases resources.
func (a *App) Shutdown(timeout time.Duration) error {
	var err error
	if a.Fiber != nil {
		err = a.Fiber.ShutdownWithTimeout(timeout)
	}
	a.Close()
	return err
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			zap.L().Warn("error while closing resource", zap.Error(err))
		}
	}
	a.closers = nil
}
