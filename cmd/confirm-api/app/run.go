package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/nexflow/easepay-confirm/configs"
	"github.com/nexflow/easepay-confirm/internal/adapter/cache"
	httpadapter "github.com/nexflow/easepay-confirm/internal/adapter/http"
	"github.com/nexflow/easepay-confirm/internal/adapter/http/middleware"
	"github.com/nexflow/easepay-confirm/internal/adapter/kafka"
	"github.com/nexflow/easepay-confirm/internal/adapter/queue"
	"github.com/nexflow/easepay-confirm/internal/adapter/repo"
	"github.com/nexflow/easepay-confirm/internal/logging"
	"github.com/nexflow/easepay-confirm/internal/security"
	"github.com/nexflow/easepay-confirm/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	log := logging.New("app")
	log.Info("confirm-api starting up")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	maxOpen := cfg.MySQL.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 16
	}
	maxIdle := cfg.MySQL.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 16
	}
	lifetime := cfg.MySQL.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	cancel()

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq: anomaly alerts out, bridged payment events in
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	alerts, err := queue.NewAnomalyPublisher(ch)
	if err != nil {
		return nil, nil, err
	}

	// webhook shared secret
	signer, err := security.NewWebhookSigner(cfg.Gateway.WebhookSecret)
	if err != nil {
		return nil, nil, err
	}

	// infra
	ledger := repo.NewMySQLLedger(db)
	anomalies := repo.NewMySQLAnomalyRepo(db)
	dedupe := cache.NewRedisDeliveryStore(rdb, cfg.Dedupe.TTL)
	statusCache := cache.NewRedisStatusCache(rdb, cfg.Cache.TTL)

	// use cases share one lock set so webhook and checkout mutations for
	// the same order serialize
	locks := usecase.NewOrderLocks()
	reconciler := usecase.NewReconciler(ledger, locks, anomalies, alerts, statusCache, cfg.Gateway.ID)
	checkout := usecase.NewSessionBuilder(ledger, locks, cfg.GatewayConfig())
	refunds := usecase.NewRefundRecorder(ledger, locks, cfg.Gateway.ID)

	// broker-bridged payment events feed the same reconciler
	events := queue.NewPaymentEventHandler(reconciler)
	if err := setupQueue(ch, cfg, events); err != nil {
		return nil, nil, err
	}
	kafkaCancel, err := setupKafkaListener(cfg, events)
	if err != nil {
		return nil, nil, err
	}

	// handlers + router + middleware
	wh := httpadapter.NewWebhookHandler(reconciler, dedupe)
	oh := httpadapter.NewOrderHandler(checkout, refunds, ledger, statusCache)
	th := httpadapter.NewTokenHandler(cfg, security.NewClientRegistry(cfg))
	authz := middleware.NewAuthz(cfg)
	wa := middleware.NewWebhookAuth(signer)
	router := httpadapter.NewRouter(wh, oh, th, authz, wa)

	cleanup := func() {
		kafkaCancel()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupQueue(ch *amqp091.Channel, cfg configs.Config, h *queue.PaymentEventHandler) error {
	if cfg.Rabbit.EventsQueue == "" {
		return nil
	}
	router := queue.NewRouter(ch, queue.WithPrefetch(50))
	router.Register(cfg.Rabbit.EventsQueue, queue.JSONHandler[usecase.PaymentEventMsg]{HandleFunc: h.HandleEvent})
	return router.Start()
}

func setupKafkaListener(cfg configs.Config, h *queue.PaymentEventHandler) (func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return func() {}, nil
	}

	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return nil, err
	}

	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.Topic}, h.HandleEvent)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logging.New("kafka-consumer").Error("consumer stopped", "error", err)
		}
	}()

	return func() {
		cancel()
		_ = grp.Close()
	}, nil
}
