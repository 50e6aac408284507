package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/rms/internal/auth"
	"github.com/vladislavdragonenkov/rms/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/rms/internal/health"
	"github.com/vladislavdragonenkov/rms/internal/metrics"
	"github.com/vladislavdragonenkov/rms/internal/service/account"
	"github.com/vladislavdragonenkov/rms/internal/service/addressbook"
	"github.com/vladislavdragonenkov/rms/internal/service/catalog"
	"github.com/vladislavdragonenkov/rms/internal/service/dashboard"
	"github.com/vladislavdragonenkov/rms/internal/service/idempotency"
	"github.com/vladislavdragonenkov/rms/internal/service/ordering"
	"github.com/vladislavdragonenkov/rms/internal/service/outbox"
	"github.com/vladislavdragonenkov/rms/internal/service/payment"
	"github.com/vladislavdragonenkov/rms/internal/service/storestatus"
	"github.com/vladislavdragonenkov/rms/internal/storage/rediscache"
	"github.com/vladislavdragonenkov/rms/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/rms/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает REST API, gRPC health, сервер метрик и фоновые воркеры и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	publishers, err := initOutboxPublishers(cfg, logger)
	if err != nil {
		return err
	}
	defer publishers.close(logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}

	services, issuer, redisClient, err := buildServices(ctx, cfg, deps, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		healthHandler.RegisterOptional("redis", healthcheck.NewFuncChecker("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	workersCtx, stopWorkers := context.WithCancel(ctx)
	workersDone := startWorkers(workersCtx, cfg, deps, publishers)

	router := httpapi.NewRouter(services, httpapi.Options{
		Tokens:      issuer,
		Logger:      logger.WithField("layer", "http"),
		Metrics:     metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		CORSOrigins: cfg.CORSOrigins,
	})
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	grpcServer, healthServer := newGRPCServer(logger)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		stopWorkers()
		<-workersDone
		shutdownHTTP(metricsSrv, logger)
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC health server listening on %s", cfg.GRPCAddr)
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		logger.Infof("REST API listening on %s", cfg.HTTPAddr)
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		runErr = ctx.Err()
	case err := <-errCh:
		if !errors.Is(err, grpc.ErrServerStopped) {
			runErr = err
		}
	}

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownHTTP(apiSrv, logger)
	stopGRPC(grpcServer, logger)
	shutdownHTTP(metricsSrv, logger)
	stopWorkers()
	<-workersDone

	return runErr
}

// buildServices собирает доменные сервисы поверх репозиториев и выполняет стартовую инициализацию.
func buildServices(ctx context.Context, cfg Config, deps *runtimeDeps, logger *log.Entry) (httpapi.Services, *auth.Issuer, *redis.Client, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return httpapi.Services{}, nil, nil, err
	}
	loc, err := dashboard.LoadLocation(cfg.StoreTimezone)
	if err != nil {
		return httpapi.Services{}, nil, nil, err
	}

	var reader domain.CatalogReader = catalog.NewReader(deps.products, deps.addons)
	catalogOpts := []catalog.Option{catalog.WithLogger(logger.WithField("component", "catalog"))}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache := rediscache.NewCatalogCache(redisClient, reader, cfg.CatalogCacheTTL)
		reader = cache
		catalogOpts = append(catalogOpts, catalog.WithInvalidator(cache))
		logger.WithField("addr", cfg.RedisAddr).Info("catalog cache enabled")
	}

	gateway, err := newPaymentGateway(cfg, logger)
	if err != nil {
		return httpapi.Services{}, nil, nil, err
	}

	store := storestatus.NewService(deps.storeConfig, logger.WithField("component", "store-status"))
	if err := store.Bootstrap(ctx); err != nil {
		return httpapi.Services{}, nil, nil, err
	}

	accounts := account.NewService(deps.users, issuer, logger.WithField("component", "account"))
	if err := accounts.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return httpapi.Services{}, nil, nil, err
	}

	orders := ordering.NewService(ordering.Dependencies{
		Orders:    deps.orders,
		Catalog:   reader,
		Addresses: deps.addresses,
		Store:     store,
		Timeline:  deps.timeline,
		Outbox:    deps.outbox,
	},
		ordering.WithLogger(logger.WithField("component", "ordering")),
		ordering.WithMetrics(metrics.NewOrderMetrics()),
	)

	return httpapi.Services{
		Accounts:    accounts,
		Catalog:     catalog.NewService(deps.products, deps.addons, catalogOpts...),
		Addresses:   addressbook.NewService(deps.addresses, logger.WithField("component", "addressbook")),
		Store:       store,
		Orders:      orders,
		Dashboard:   dashboard.NewService(deps.dashboard, loc),
		Payments:    payment.NewService(gateway, logger.WithField("component", "payment")),
		Idempotency: idempotency.NewGuard(deps.idempotency, cfg.IdempotencyTTL, logger.WithField("component", "idempotency")),
	}, issuer, redisClient, nil
}

func newPaymentGateway(cfg Config, logger *log.Entry) (domain.PaymentGateway, error) {
	if cfg.MercadoPagoToken == "" {
		logger.Warn("mercado pago access token is not set, using mock payment gateway")
		return payment.NewMockGateway(), nil
	}
	gateway, err := payment.NewMercadoPagoGateway(cfg.MercadoPagoToken)
	if err != nil {
		return nil, err
	}
	return payment.NewBreakerGateway(gateway, payment.DefaultBreakerConfig(), logger.WithField("component", "payment-breaker")), nil
}

// startWorkers запускает outbox и cleanup воркеры; канал закрывается, когда оба остановились.
func startWorkers(ctx context.Context, cfg Config, deps *runtimeDeps, publishers *outboxPublishers) <-chan struct{} {
	done := make(chan struct{})
	cleanup := idempotency.NewCleanupWorker(deps.idempotency,
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)

	var outboxWorker *outbox.Worker
	if publishers.enabled() {
		outboxWorker = outbox.NewWorker(deps.outbox, publishers.main,
			outbox.WithDLQPublisher(publishers.dlq),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
	}

	go func() {
		defer close(done)
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			if outboxWorker != nil {
				outboxWorker.Run(ctx)
			}
		}()
		cleanup.Run(ctx)
		<-finished
	}()
	return done
}

func newGRPCServer(logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	grpcMetrics.InitializeMetrics(server)
	return server, healthServer
}

func stopGRPC(server *grpc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn("grpc graceful stop timed out, forcing stop")
		server.Stop()
	}
}

// startMetricsServer запускает /metrics и health endpoints.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("metrics available at %s/metrics", addr)
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
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
