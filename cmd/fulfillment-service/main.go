package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/orderflow/fulfillment-service/internal/config"
	deliveryapp "github.com/orderflow/fulfillment-service/internal/delivery/application"
	deliveryhttp "github.com/orderflow/fulfillment-service/internal/delivery/infrastructure/http"
	deliverypg "github.com/orderflow/fulfillment-service/internal/delivery/infrastructure/postgres"
	inventoryapp "github.com/orderflow/fulfillment-service/internal/inventory/application"
	inventorypg "github.com/orderflow/fulfillment-service/internal/inventory/infrastructure/postgres"
	notificationkafka "github.com/orderflow/fulfillment-service/internal/notification/kafka"
	notificationpg "github.com/orderflow/fulfillment-service/internal/notification/postgres"
	orderhttp "github.com/orderflow/fulfillment-service/internal/order/infrastructure/http"
	orderpg "github.com/orderflow/fulfillment-service/internal/order/infrastructure/postgres"
	paymentapp "github.com/orderflow/fulfillment-service/internal/payment/application"
	paymenthttp "github.com/orderflow/fulfillment-service/internal/payment/infrastructure/http"
	storagepg "github.com/orderflow/fulfillment-service/internal/storage/postgres"
	trackingapp "github.com/orderflow/fulfillment-service/internal/tracking/application"
	trackinghttp "github.com/orderflow/fulfillment-service/internal/tracking/infrastructure/http"
	"github.com/orderflow/fulfillment-service/pkg/idempotency"
	"github.com/orderflow/fulfillment-service/pkg/logging"
	"github.com/orderflow/fulfillment-service/pkg/outbox"
	"github.com/orderflow/fulfillment-service/pkg/shutdown"
	"github.com/orderflow/fulfillment-service/pkg/tracing"
)

func main() {
	log := logging.New()
	cfg := config.Load()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	writer := notificationkafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()

	// Stores and the transactional session provider.
	sessions := storagepg.NewProvider(pool)
	orders := orderpg.NewRepository(log, pool)
	stock := inventorypg.NewRepository(log, pool)
	deliveries := deliverypg.NewRepository(log, pool)

	// Notification trigger: outbox rows relayed to Kafka.
	notifier := notificationpg.NewNotifier(log, pool)
	outboxStore := notificationpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.NotificationTopic)
	relay := outbox.NewRelay(log, outboxStore, dispatch, cfg.ServiceName+"-relay")

	// Services.
	inventorySvc := inventoryapp.NewService(log, stock)
	reconciler := paymentapp.NewReconciler(log, orders, inventorySvc, sessions)
	deliverySvc := deliveryapp.NewService(log, deliveries, orders, notifier)
	trackingSvc := trackingapp.NewService(log, deliveries, orders)

	dedupe := idempotency.NewStore(rdb, cfg.WebhookDedupeTTL)

	r := chi.NewRouter()
	r.Mount("/webhooks", paymenthttp.NewHandler(log, reconciler, dedupe).Routes())
	r.Mount("/deliveries", deliveryhttp.NewHandler(log, deliverySvc).Routes())
	r.Mount("/track", trackinghttp.NewHandler(log, trackingSvc).Routes())
	r.Mount("/orders", orderhttp.NewHandler(log, orders).Routes())

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("fulfillment-service shutdown complete")
}
