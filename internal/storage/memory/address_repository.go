package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

type addressRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Address
}

// NewAddressRepository создаёт in-memory реализацию AddressRepository.
func NewAddressRepository() domain.AddressRepository {
	return &addressRepositoryInMemory{items: make(map[string]domain.Address)}
}

func (r *addressRepositoryInMemory) Create(_ context.Context, address domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[address.ID]; exists {
		return domain.ErrConflict
	}
	r.items[address.ID] = address
	return nil
}

func (r *addressRepositoryInMemory) GetForOwner(_ context.Context, id, ownerID string) (domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	address, ok := r.items[id]
	if !ok || address.UserID != ownerID {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	return address, nil
}

func (r *addressRepositoryInMemory) ListByOwner(_ context.Context, ownerID string) ([]domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Address, 0)
	for _, address := range r.items {
		if address.UserID == ownerID {
			result = append(result, address)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *addressRepositoryInMemory) Update(_ context.Context, address domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[address.ID]
	if !ok || current.UserID != address.UserID {
		return domain.ErrAddressNotFound
	}
	r.items[address.ID] = address
	return nil
}

func (r *addressRepositoryInMemory) Delete(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok || current.UserID != ownerID {
		return domain.ErrAddressNotFound
	}
	delete(r.items, id)
	return nil
}

var _ domain.AddressRepository = (*addressRepositoryInMemory)(nil)
