package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/shop/internal/health"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/service/outbox"
	"github.com/vladislavdragonenkov/shop/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	MetricsAddr string
	// PostgresDSN переключает хранилища с in-memory на PostgreSQL.
	PostgresDSN string
	// RedisAddr переключает каталог товаров на Redis.
	RedisAddr string
	// KafkaBrokers включает публикацию outbox-событий в Kafka.
	KafkaBrokers []string
	OutboxTopic  string
	PollInterval time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:  ":9090",
		OutboxTopic:  kafka.TopicOrderEvents,
		PollInterval: time.Second,
	}
}

// ConfigFromEnv формирует конфигурацию, позволяя переопределить
// значения по умолчанию через переменные окружения.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("SHOP_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("SHOP_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("SHOP_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("SHOP_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SHOP_OUTBOX_TOPIC"); v != "" {
		cfg.OutboxTopic = v
	}
	return cfg
}

// Run поднимает зависимости, запускает outbox-relay и ops HTTP-сервер
// и работает до отмены ctx. Оформление заказов доступно через
// Dependencies.Workflow() встраивающему коду; собственного API-слоя
// у сервиса нет.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Kafka producer опционален: без брокеров relay просто не стартует.
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}

	relayCtx, cancelRelay := context.WithCancel(ctx)
	defer cancelRelay()
	relayDone := make(chan struct{})
	if producer != nil {
		worker := outbox.NewWorker(
			deps.Outbox,
			kafka.NewOutboxPublisher(producer, cfg.OutboxTopic),
			outbox.Options{
				Logger:       logger.WithField("component", "outbox-relay"),
				DLQPublisher: kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue),
				PollInterval: cfg.PollInterval,
			},
		)
		go func() {
			defer close(relayDone)
			worker.Run(relayCtx)
		}()
	} else {
		close(relayDone)
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewCheckerFunc("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Store.Ping(pingCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	<-ctx.Done()
	logger.Info("получен сигнал остановки, завершаем работу")

	cancelRelay()
	select {
	case <-relayDone:
	case <-time.After(5 * time.Second):
		logger.Warn("outbox relay не остановился за таймаут")
	}

	shutdownHTTP(metricsSrv, logger)

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			logger.Info("kafka producer closed")
		}
	}

	return ctx.Err()
}

// startMetricsServer запускает HTTP-обработчики /metrics и health-проб.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
