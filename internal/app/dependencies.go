package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/rms/internal/health"
	"github.com/vladislavdragonenkov/rms/internal/storage/memory"
	"github.com/vladislavdragonenkov/rms/internal/storage/postgres"
)

// runtimeDeps — репозитории выбранного storage-драйвера.
type runtimeDeps struct {
	products       domain.ProductRepository
	addons         domain.AddonRepository
	addresses      domain.AddressRepository
	storeConfig    domain.StoreConfigRepository
	users          domain.UserRepository
	orders         domain.OrderRepository
	dashboard      domain.DashboardRepository
	timeline       domain.TimelineRepository
	outbox         domain.OutboxRepository
	idempotency    domain.IdempotencyRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDeps, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.Info("using in-memory storage")
		return newMemoryDependencies(), nil
	case StorageDriverPostgres:
		return newPostgresDependencies(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func newMemoryDependencies() *runtimeDeps {
	orders := memory.NewOrderRepository()
	return &runtimeDeps{
		products:    memory.NewProductRepository(),
		addons:      memory.NewAddonRepository(),
		addresses:   memory.NewAddressRepository(),
		storeConfig: memory.NewStoreConfigRepository(),
		users:       memory.NewUserRepository(),
		orders:      orders,
		dashboard:   orders,
		timeline:    memory.NewTimelineRepository(),
		outbox:      memory.NewOutboxRepository(),
		idempotency: memory.NewIdempotencyRepository(),
	}
}

func newPostgresDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDeps, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("%s is required for postgres storage", EnvPostgresDSN)
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres schema is up to date")
	}
	logger.Info("using postgres storage")

	return &runtimeDeps{
		products:       postgres.NewProductRepository(store),
		addons:         postgres.NewAddonRepository(store),
		addresses:      postgres.NewAddressRepository(store),
		storeConfig:    postgres.NewStoreConfigRepository(store),
		users:          postgres.NewUserRepository(store),
		orders:         postgres.NewOrderRepository(store),
		dashboard:      postgres.NewDashboardRepository(store),
		timeline:       postgres.NewTimelineRepository(store),
		outbox:         postgres.NewOutboxRepository(store),
		idempotency:    postgres.NewIdempotencyRepository(store),
		storageChecker: healthcheck.NewPingChecker("postgres", store),
		closeFn:        store.Close,
	}, nil
}

func (d *runtimeDeps) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}
