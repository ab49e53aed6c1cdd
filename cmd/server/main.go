package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/Subscription-ledger/config"
	"github.com/Dhoini/Subscription-ledger/internal/api/rest"
	"github.com/Dhoini/Subscription-ledger/internal/contract"
	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/kafka"
	"github.com/Dhoini/Subscription-ledger/internal/kafka/producer"
	"github.com/Dhoini/Subscription-ledger/internal/ledger"
	"github.com/Dhoini/Subscription-ledger/internal/metrics"
	"github.com/Dhoini/Subscription-ledger/internal/middleware"
	"github.com/Dhoini/Subscription-ledger/internal/repository"
	"github.com/Dhoini/Subscription-ledger/internal/repository/postgres"
	"github.com/Dhoini/Subscription-ledger/internal/service"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logLevel := logger.DEBUG
	if cfg.App.Env == "production" {
		logLevel = logger.INFO
		gin.SetMode(gin.ReleaseMode)
	}
	log := logger.New(logLevel)
	log.Info("Starting subscription ledger service v%s (env: %s)", version, cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Метрики
	promRegistry := prometheus.NewRegistry()
	subscriptionMetrics := metrics.NewSubscriptionMetrics(promRegistry, log)
	systemMetrics := metrics.NewSystemMetrics(promRegistry, log)
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Леджер и контракты
	owner := domain.Address(cfg.Ledger.Owner)
	gatewayAccount := domain.Address(cfg.Ledger.GatewayAccount)

	l := ledger.New(log)
	registry := contract.NewSubscriptionRegistry(owner)
	gateway := contract.NewPaymentGateway(owner, gatewayAccount, registry)
	credential := contract.NewAccessCredential(owner, owner)

	// Шлюз становится единственным авторизованным процессором реестра
	if err := l.Submit(ctx, owner, 0, func(tx *ledger.Tx) error {
		return registry.SetProcessor(tx, gateway.Address())
	}); err != nil {
		log.Fatal("Failed to register gateway as processor: %v", err)
	}

	l.AttachSink(subscriptionMetrics)

	// Архив событий в PostgreSQL (опционально)
	if cfg.Database.Enabled {
		pool, err := postgres.NewConnection(ctx, cfg.Database.DSN, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL: %v", err)
		}
		defer pool.Close()

		eventStore := postgres.NewEventStore(pool, log)
		if err := eventStore.Migrate(ctx); err != nil {
			log.Fatal("Failed to run event store migration: %v", err)
		}
		l.AttachSink(eventStore)
		log.Info("PostgreSQL event archive enabled")
	}

	// Поток событий в Kafka (опционально)
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureKafkaTopics(cfg.Kafka.Brokers, log); err != nil {
			log.Fatal("Failed to ensure Kafka topics: %v", err)
		}

		kafkaCfg := kafka.NewConfig(cfg.Kafka.Brokers)
		syncProducer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafka.NewSaramaConfig(kafkaCfg, log))
		if err != nil {
			log.Fatal("Failed to create Kafka producer: %v", err)
		}

		eventProducer := producer.NewKafkaEventProducer(syncProducer, log)
		defer eventProducer.Close()
		l.AttachSink(eventProducer)
		log.Info("Kafka event stream enabled (brokers: %v)", cfg.Kafka.Brokers)
	}

	// Кэш подписок в Redis (опционально)
	var cache service.SubscriptionCache
	if cfg.Redis.Enabled {
		redisCache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis: %v", err)
		}
		cache = redisCache
		l.AttachSink(service.NewCacheInvalidationSink(cache, log))
		log.Info("Redis subscription cache enabled")
	}

	// Снапшоты реестра подписок (опционально)
	var snapshots service.SnapshotStore
	if cfg.Ledger.SnapshotPath != "" {
		snapshots = repository.NewSnapshotRepository(cfg.Ledger.SnapshotPath, log)
	}

	subscriptionService := service.NewSubscriptionService(l, registry, gateway, credential, cache, snapshots, owner, log)

	if err := subscriptionService.RestoreSnapshot(ctx); err != nil {
		log.Warnw("Failed to restore subscription snapshot", "error", err)
	}

	// HTTP API
	authMiddleware := middleware.NewJWTMiddleware(log, &middleware.DefaultTokenValidator{
		Secret: []byte(cfg.Auth.JWTSecret),
	})

	router := rest.SetupRouter(rest.RouterDeps{
		Service:  subscriptionService,
		Auth:     authMiddleware,
		Registry: promRegistry,
		Version:  version,
		Log:      log,
	})

	server := rest.NewServer(cfg, router, log)
	go func() {
		if err := server.Run(); err != nil {
			log.Fatal("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := subscriptionService.SaveSnapshot(shutdownCtx); err != nil {
		log.Errorw("Failed to save subscription snapshot", "error", err)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	log.Info("Service stopped")
}
