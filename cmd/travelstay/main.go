package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"travelstay/internal/app/bootstrap"
	"travelstay/internal/app/middleware"
	"travelstay/internal/app/notifications"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/policies"
	appschedule "travelstay/internal/app/schedule"
	authsvc "travelstay/internal/app/services/auth"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainpayments "travelstay/internal/domain/payments"
	"travelstay/internal/infra/broker/kafka"
	"travelstay/internal/infra/config"
	"travelstay/internal/infra/db/gormstore"
	mongostore "travelstay/internal/infra/db/mongo"
	ginserver "travelstay/internal/infra/http/gin"
	"travelstay/internal/infra/inbox"
	"travelstay/internal/infra/mail"
	"travelstay/internal/infra/notify"
	"travelstay/internal/infra/obs"
	infraoutbox "travelstay/internal/infra/outbox"
	"travelstay/internal/infra/payments/chapa"
	infraschedule "travelstay/internal/infra/schedule"
	"travelstay/internal/infra/security"
	"travelstay/internal/infra/storage/memory"
	"travelstay/internal/infra/storage/s3"
	"travelstay/internal/infra/validation"
)

const (
	flagEnvFile     = "env-file"
	flagHTTPAddr    = "addr"
	flagDatabaseURL = "database-url"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "travelstay: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "travelstay",
		Short:         "Travel listing marketplace backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String(flagEnvFile, ".env", "optional dotenv file loaded before the environment")
	root.PersistentFlags().String(flagDatabaseURL, "", "PostgreSQL URL or SQLite path; empty keeps data in memory")
	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, outbox relay and notification consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
	cmd.Flags().String(flagHTTPAddr, "", "HTTP listen address")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required for migrate")
			}
			logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
			db, driver, err := gormstore.Open(cfg.DatabaseURL, logger)
			if err != nil {
				return fmt.Errorf("database open: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := gormstore.Migrate(db); err != nil {
				return err
			}
			logger.Info("schema migrated", "driver", driver)
			return nil
		},
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString(flagEnvFile)
	v, err := config.NewViper(envFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.BindFlags(v, cmd.Flags(), map[string]string{
		flagHTTPAddr:    "HTTP_ADDR",
		flagDatabaseURL: "DATABASE_URL",
	}); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

type storage struct {
	factory uow.UoWFactory
	outbox  infraoutbox.Store
	ready   obs.Check
	close   func()
}

func openStorage(cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, keeping data in memory")
		store := memory.NewStore()
		return storage{factory: store, outbox: store.Outbox(), close: func() {}}, nil
	}
	db, driver, err := gormstore.Open(cfg.DatabaseURL, logger)
	if err != nil {
		return storage{}, fmt.Errorf("database open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return storage{}, err
	}
	if err := gormstore.Migrate(db); err != nil {
		_ = sqlDB.Close()
		return storage{}, err
	}
	logger.Info("database ready", "driver", driver)
	return storage{
		factory: gormstore.New(db, driver),
		outbox:  gormstore.NewOutboxStore(db, driver),
		ready:   sqlDB.PingContext,
		close:   func() { _ = sqlDB.Close() },
	}, nil
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	store, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()
	checks := map[string]obs.Check{}
	if store.ready != nil {
		checks["database"] = store.ready
	}

	var (
		idempotency middleware.IdempotencyStore = memory.NewIdempotencyStore()
		eventInbox  notify.Inbox                = memory.NewInbox()
	)
	if cfg.MongoURI != "" {
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(closeCtx)
		}()
		if idempotency, err = mongostore.NewIdempotencyStore(ctx, client.DB); err != nil {
			return err
		}
		if eventInbox, err = inbox.NewStore(ctx, client.DB, cfg.KafkaGroup); err != nil {
			return err
		}
		checks["mongo"] = client.Ping
	} else {
		logger.Warn("MONGO_URI not set, idempotency keys and inbox kept in memory")
	}

	dispatcher := &notifications.Dispatcher{
		UoWFactory: store.factory,
		Mailer:     mail.LogMailer{From: cfg.MailFrom, Logger: logger},
		Logger:     logger,
	}
	notifyHandler := &notify.Handler{Inbox: eventInbox, Dispatcher: dispatcher, Logger: logger}

	var (
		producer infraoutbox.Producer = notify.LocalProducer{Handler: notifyHandler}
		consumer *kafka.Consumer
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaClientID, nil)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer kafkaProducer.Close()
		producer = kafkaProducer
		if consumer, err = kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, nil, notifyHandler, logger); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		defer consumer.Close()
	} else {
		logger.Warn("KAFKA_BROKERS not set, notifications dispatched in process")
	}

	worker := infraoutbox.NewWorker(store.outbox, producer)
	worker.Interval = cfg.OutboxPollInterval
	worker.TopicPrefix = cfg.KafkaTopicPrefix
	worker.Backoff = cfg.RetryBackoff
	worker.ID = "outbox-" + uuid.NewString()
	worker.Logger = logger

	if cfg.ChapaSecretKey == "" {
		logger.Warn("CHAPA_SECRET_KEY not set, checkout requests will be rejected by the gateway")
	}
	gateway := chapa.NewClient(cfg.ChapaAPIURL, cfg.ChapaSecretKey, cfg.BackendURL, cfg.FrontendURL, logger)

	var images policies.ImageStore = s3.NoopStore{}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL, logger)
		if err != nil {
			return fmt.Errorf("object storage: %w", err)
		}
		images = client
	} else {
		logger.Warn("S3_ENDPOINT not set, image uploads disabled")
	}

	buses := bootstrap.NewBuses(bootstrap.Dependencies{
		UoWFactory:  store.factory,
		Encoder:     outbox.JSONEventEncoder{},
		Gateway:     gateway,
		Images:      images,
		Idempotency: idempotency,
		Validator:   validation.New(),
		Flusher:     worker,
		Logger:      logger,
	})

	tokens, err := security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		return err
	}
	authService := &authsvc.Service{
		UoWFactory: store.factory,
		Passwords:  security.BcryptHasher{},
		Tokens:     tokens,
		Logger:     logger,
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: checks}, ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Listing:        ginserver.ListingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Reviews:        ginserver.ReviewsHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Payment:        ginserver.PaymentHandler{Commands: buses.Commands, Queries: buses.Queries, WebhookSecret: cfg.ChapaWebhookSecret, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	})

	scheduler := infraschedule.NewLocal(logger)
	reminders := &appschedule.BookingReminders{
		UoWFactory: store.factory,
		Encoder:    outbox.JSONEventEncoder{},
		Scheduler:  scheduler,
		At:         cfg.ReminderTime,
		Logger:     logger,
	}
	scheduler.Register(appschedule.BookingRemindersJob, func(ctx context.Context, payload []byte) error {
		if err := reminders.Handle(ctx, payload); err != nil {
			return err
		}
		return worker.Flush(ctx)
	})
	if err := reminders.Start(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped", "error", err)
		}
	}()
	if consumer != nil {
		topics := []string{
			infraoutbox.TopicFor(cfg.KafkaTopicPrefix, domainbooking.EventBookingCreated),
			infraoutbox.TopicFor(cfg.KafkaTopicPrefix, domainbooking.EventBookingStatusChanged),
			infraoutbox.TopicFor(cfg.KafkaTopicPrefix, domainbooking.EventBookingReminder),
			infraoutbox.TopicFor(cfg.KafkaTopicPrefix, domainpayments.EventPaymentStatusChanged),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx, topics); err != nil {
				logger.Error("notification consumer stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	wg.Wait()
	logger.Info("HTTP server stopped")
	return nil
}
