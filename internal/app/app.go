package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/cartsync/internal/health"
	"github.com/vladislavdragonenkov/cartsync/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/cartsync/internal/metrics"
	"github.com/vladislavdragonenkov/cartsync/internal/service/cart"
	"github.com/vladislavdragonenkov/cartsync/internal/service/handoff"
	"github.com/vladislavdragonenkov/cartsync/internal/service/view"
	transporthttp "github.com/vladislavdragonenkov/cartsync/internal/transport/http"
	"github.com/vladislavdragonenkov/cartsync/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	// Storage — бекенд состояния корзины: memory | redis | postgres.
	Storage     string
	PostgresDSN string
	RedisAddr   string

	// KafkaBrokers — опциональный канал push-уведомлений об изменениях.
	KafkaBrokers []string

	// PollInterval — период опроса durable-хранилища.
	PollInterval time.Duration

	// WhatsAppPhone — номер получателя заказа в международном формате без "+".
	WhatsAppPhone string
}

// DefaultConfig возвращает базовую конфигурацию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:      ":8080",
		MetricsAddr:   ":9090",
		Storage:       StorageMemory,
		PollInterval:  2 * time.Second,
		WhatsAppPhone: "33628494751",
	}
}

// Run собирает и запускает сервис корзины: Store поверх durable-хранилища,
// синхронизатор поверхностей, poll-цикл, API и сервер метрик. Завершается
// при отмене ctx или фатальной ошибке сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("failed to close storage")
		}
	}()

	cartMetrics := metrics.NewCartMetrics()

	// Kafka-уведомления опциональны: без них cross-context изменения
	// обнаруживает только poll-цикл.
	var notifier *kafka.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		notifier, err = kafka.NewNotifier(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka notifier, continuing without kafka")
			notifier = nil
		} else {
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka notifier initialized")
		}
	}

	storeOptions := []cart.Option{
		cart.WithLogger(logger.WithField("layer", "cart")),
		cart.WithMetrics(cartMetrics),
	}
	if notifier != nil {
		storeOptions = append(storeOptions, cart.WithNotifier(notifier))
	}
	store := cart.NewStore(deps.State, storeOptions...)
	store.Load(ctx)

	sync := view.NewSynchronizer(store,
		view.WithLogger(logger.WithField("layer", "view")),
		view.WithMetrics(cartMetrics),
	)

	poller := view.NewPoller(store, sync,
		view.WithPollInterval(cfg.PollInterval),
		view.WithPollerLogger(logger.WithField("layer", "poller")),
	)
	go poller.Run(ctx)

	var listener *kafka.Listener
	if notifier != nil {
		// Чужое событие — лишь подсказка перечитать хранилище вне очереди.
		listener, err = kafka.NewListener(cfg.KafkaBrokers, "cartsync-"+store.Origin(), store.Origin(), func(kafka.CartEvent) {
			poller.ProcessOnce(ctx)
		})
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka listener, relying on polling only")
			listener = nil
		} else if err := listener.Start(ctx); err != nil {
			logger.WithError(err).Warn("failed to start kafka listener, relying on polling only")
			listener = nil
		}
	}

	builder := handoff.NewBuilder(cfg.WhatsAppPhone,
		handoff.WithLogger(logger.WithField("layer", "handoff")),
		handoff.WithMetrics(cartMetrics),
	)

	handler := transporthttp.NewHandler(store, sync, builder, logger.WithField("layer", "http"))

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.Pinger != nil {
		healthHandler.RegisterChecker("state-store", healthcheck.NewStorageChecker(cfg.Storage, deps.Pinger, 2*time.Second))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler.Routes()}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("cart API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	shutdown := func() {
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		if listener != nil {
			if err := listener.Stop(); err != nil {
				logger.WithError(err).Warn("failed to stop kafka listener")
			}
		}
		if notifier != nil {
			if err := notifier.Close(); err != nil {
				logger.WithError(err).Warn("failed to close kafka notifier")
			}
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис корзины")
		shutdown()
		return ctx.Err()
	case err := <-errCh:
		shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
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
		logger.WithError(err).Warn("http shutdown with error")
	}
}
