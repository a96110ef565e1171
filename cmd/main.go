package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/db"
	"github.com/senyabanana/pharma-marketplace/internal/events"
	"github.com/senyabanana/pharma-marketplace/internal/handlers"
	"github.com/senyabanana/pharma-marketplace/internal/metrics"
	"github.com/senyabanana/pharma-marketplace/internal/notify"
	"github.com/senyabanana/pharma-marketplace/internal/repository"
	"github.com/senyabanana/pharma-marketplace/internal/router"
	"github.com/senyabanana/pharma-marketplace/internal/router/config"
	"github.com/senyabanana/pharma-marketplace/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "pharma-marketplace").Logger()
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := services.Deps{Logger: logger}

	switch cfg.StorageDriver {
	case config.PostgresDriver:
		runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

		dbPool, err := db.InitDb(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("error initializing database")
		}
		defer dbPool.Close()

		deps.Tx = repository.NewPostgresTransactor(dbPool)
		deps.Offers = repository.NewPostgresOfferRepository(dbPool)
		deps.Tenders = repository.NewPostgresTenderRepository(dbPool)
		deps.Responses = repository.NewPostgresResponseRepository(dbPool)
		deps.Orders = repository.NewPostgresOrderRepository(dbPool)
	default:
		store := repository.NewMemoryStore()
		deps.Tx, deps.Offers, deps.Tenders, deps.Responses, deps.Orders = store, store, store, store, store
		log.Warn().Msg("using in-memory storage, data will be lost on restart")
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(notify.NewKafkaWriter(brokers, cfg.KafkaNotificationTopic))
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaNotificationTopic).Msg("kafka notifications enabled")
	}

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		publisher = events.NewRedisPublisher(client, cfg.RedisChannelPrefix)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis tender events enabled")
	}

	deps.Metrics = metrics.New(prometheus.DefaultRegisterer)
	dispatcher := notify.NewDispatcher(notifier, cfg.NotifyTimeout, logger, deps.Metrics.NotificationFailed)
	deps.Notifier = dispatcher
	deps.Publisher = publisher

	offerService := services.NewOfferService(deps)
	orderService := services.NewOrderService(deps)
	tenderService := services.NewTenderService(deps)
	responseService := services.NewResponseService(deps)

	routes := router.InitRoutes(router.Handlers{
		Offers:    handlers.NewOfferHandler(offerService, orderService, logger, cfg.RequestTimeout),
		Tenders:   handlers.NewTenderHandler(tenderService, logger, cfg.RequestTimeout),
		Responses: handlers.NewResponseHandler(responseService, orderService, logger, cfg.RequestTimeout),
		Orders:    handlers.NewOrderHandler(orderService, logger, cfg.RequestTimeout),
		Metrics:   promhttp.Handler(),
	})

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("server is listening on %s...", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	dispatcher.Wait()
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create a new migrate instance")
	}

	if err = migration.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("failed to run migrate up")
	}
	log.Info().Msg("db migrated successfully")
}
