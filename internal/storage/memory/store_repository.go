package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

type storeConfigRepositoryInMemory struct {
	mu  sync.RWMutex
	cfg *domain.StoreConfig
}

// NewStoreConfigRepository создаёт in-memory хранилище singleton-настроек магазина.
func NewStoreConfigRepository() domain.StoreConfigRepository {
	return &storeConfigRepositoryInMemory{}
}

func (r *storeConfigRepositoryInMemory) Get(_ context.Context) (domain.StoreConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cfg == nil {
		return domain.StoreConfig{}, domain.ErrStoreConfigAbsent
	}
	return *r.cfg, nil
}

func (r *storeConfigRepositoryInMemory) CreateIfAbsent(_ context.Context, cfg domain.StoreConfig) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg != nil {
		return false, nil
	}
	cfg.ID = domain.StoreConfigID
	r.cfg = &cfg
	return true, nil
}

func (r *storeConfigRepositoryInMemory) Put(_ context.Context, cfg domain.StoreConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg.ID = domain.StoreConfigID
	r.cfg = &cfg
	return nil
}

var _ domain.StoreConfigRepository = (*storeConfigRepositoryInMemory)(nil)
