package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appCart "github.com/Zhima-Mochi/minimarket/internal/application/cart"
	appCheckout "github.com/Zhima-Mochi/minimarket/internal/application/checkout"
	appOrder "github.com/Zhima-Mochi/minimarket/internal/application/order"
	"github.com/Zhima-Mochi/minimarket/internal/application/stock"
	appWebhook "github.com/Zhima-Mochi/minimarket/internal/application/webhook"
	"github.com/Zhima-Mochi/minimarket/internal/config"
	"github.com/Zhima-Mochi/minimarket/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/minimarket/internal/infrastructure/gormrepo"
	"github.com/Zhima-Mochi/minimarket/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minimarket/internal/infrastructure/notify"
	"github.com/Zhima-Mochi/minimarket/internal/infrastructure/redisrepo"
	"github.com/Zhima-Mochi/minimarket/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minimarket/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	db, err := gormrepo.Open(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		baseLogger.Fatal("postgres_open_failed", zap.Error(err))
	}
	if err := db.Migrate(); err != nil {
		baseLogger.Fatal("postgres_migrate_failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() { _ = redisClient.Close() }()

	productRepo := gormrepo.NewProductRepo(db)
	orderRepo := gormrepo.NewOrderRepo(db)
	paymentRepo := gormrepo.NewPaymentRepo(db)
	couponRepo := gormrepo.NewCouponRepo(db)
	cartRepo := redisrepo.NewCartRepo(redisClient)

	idGenerator := id.NewUUIDGenerator()
	ledger := stock.NewLedger(productRepo)
	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayTimeout())

	dispatcher := notify.NewDispatcher(notify.NewLogSender(baseLogger), baseLogger)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop(context.Background())

	cartService := appCart.NewService(cartRepo, productRepo)
	orderService := appOrder.NewService(db, orderRepo, productRepo, couponRepo, ledger, idGenerator, cfg.ShippingFeeAmount())
	checkoutService := appCheckout.NewService(orderRepo, gatewayClient, cfg.Currency, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	webhookService := appWebhook.NewService(db, orderRepo, paymentRepo, cartRepo, dispatcher, idGenerator)

	metrics := &httppresentation.Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		WebhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_events_total",
				Help: "Count of payment webhook events by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
	}
	prometheus.MustRegister(metrics.Requests, metrics.Duration, metrics.WebhookEvents)

	handler := httppresentation.NewHandler(
		cartService, orderService, checkoutService, webhookService,
		cfg.WebhookSecret, baseLogger, metrics,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		baseLogger.Info("http_server_stopped")
	}
}
