package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository создаёт in-memory реализацию ProductRepository.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{items: make(map[string]domain.Product)}
}

func (r *productRepositoryInMemory) Create(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.ErrConflict
	}
	r.items[product.ID] = cloneProduct(product)
	return nil
}

func (r *productRepositoryInMemory) Update(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; !exists {
		return domain.ErrProductNotFound
	}
	r.items[product.ID] = cloneProduct(product)
	return nil
}

func (r *productRepositoryInMemory) Get(_ context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return cloneProduct(product), nil
}

func (r *productRepositoryInMemory) List(_ context.Context, filter domain.CatalogFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.items))
	for _, product := range r.items {
		if product.Trashed() != filter.Trashed {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(string(product.Category), filter.Category) {
			continue
		}
		if filter.Available != nil && product.Available != *filter.Available {
			continue
		}
		result = append(result, cloneProduct(product))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *productRepositoryInMemory) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		product, ok := r.items[id]
		if !ok || product.Trashed() {
			continue
		}
		result = append(result, cloneProduct(product))
	}
	return result, nil
}

func (r *productRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.items, id)
	return nil
}

type addonRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Addon
}

// NewAddonRepository создаёт in-memory реализацию AddonRepository.
func NewAddonRepository() domain.AddonRepository {
	return &addonRepositoryInMemory{items: make(map[string]domain.Addon)}
}

func (r *addonRepositoryInMemory) Create(_ context.Context, addon domain.Addon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[addon.ID]; exists {
		return domain.ErrConflict
	}
	r.items[addon.ID] = cloneAddon(addon)
	return nil
}

func (r *addonRepositoryInMemory) Update(_ context.Context, addon domain.Addon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[addon.ID]; !exists {
		return domain.ErrAddonNotFound
	}
	r.items[addon.ID] = cloneAddon(addon)
	return nil
}

func (r *addonRepositoryInMemory) Get(_ context.Context, id string) (domain.Addon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addon, ok := r.items[id]
	if !ok {
		return domain.Addon{}, domain.ErrAddonNotFound
	}
	return cloneAddon(addon), nil
}

func (r *addonRepositoryInMemory) List(_ context.Context, filter domain.CatalogFilter) ([]domain.Addon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Addon, 0, len(r.items))
	for _, addon := range r.items {
		if addon.Trashed() != filter.Trashed {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(addon.Category, filter.Category) {
			continue
		}
		if filter.Available != nil && addon.Available != *filter.Available {
			continue
		}
		result = append(result, cloneAddon(addon))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *addonRepositoryInMemory) FindByIDs(_ context.Context, ids []string) ([]domain.Addon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Addon, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		addon, ok := r.items[id]
		if !ok || addon.Trashed() {
			continue
		}
		result = append(result, cloneAddon(addon))
	}
	return result, nil
}

func (r *addonRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrAddonNotFound
	}
	delete(r.items, id)
	return nil
}

func cloneProduct(src domain.Product) domain.Product {
	dst := src
	dst.AddonIDs = append([]string(nil), src.AddonIDs...)
	if src.DeletedAt != nil {
		at := *src.DeletedAt
		dst.DeletedAt = &at
	}
	return dst
}

func cloneAddon(src domain.Addon) domain.Addon {
	dst := src
	if src.DeletedAt != nil {
		at := *src.DeletedAt
		dst.DeletedAt = &at
	}
	return dst
}

var (
	_ domain.ProductRepository = (*productRepositoryInMemory)(nil)
	_ domain.AddonRepository   = (*addonRepositoryInMemory)(nil)
)
