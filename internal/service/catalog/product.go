package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// ProductInput — поля продукта при создании и изменении.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
	// Available — nil при создании означает true, при изменении оставляет как было.
	Available *bool
	AddonIDs  []string
}

// CreateProduct добавляет продукт в меню.
func (s *Service) CreateProduct(ctx context.Context, actor domain.Actor, in ProductInput) (domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Product{}, err
	}

	now := s.now()
	product := domain.Product{
		ID:        uuid.NewString(),
		Available: true,
		CreatedAt: now,
	}
	if err := s.applyProductInput(ctx, &product, in); err != nil {
		return domain.Product{}, err
	}
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}
	s.logger.WithFields(log.Fields{"product_id": product.ID, "actor_id": actor.UserID}).Info("product created")
	return product, nil
}

// UpdateProduct перезаписывает поля продукта, включая набор доступных добавок.
func (s *Service) UpdateProduct(ctx context.Context, actor domain.Actor, id string, in ProductInput) (domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Product{}, err
	}

	product, err := s.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.applyProductInput(ctx, &product, in); err != nil {
		return domain.Product{}, err
	}
	product.UpdatedAt = s.now()

	if err := s.products.Update(ctx, product); err != nil {
		return domain.Product{}, err
	}
	s.invalidateProduct(ctx, product.ID)
	return product, nil
}

// GetProduct возвращает продукт; продукт из корзины видит только ADMIN.
func (s *Service) GetProduct(ctx context.Context, actor domain.Actor, id string) (domain.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product.Trashed() && !actor.IsAdmin() {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// ListProducts возвращает активные продукты по фильтру.
func (s *Service) ListProducts(ctx context.Context, filter domain.CatalogFilter) ([]domain.Product, error) {
	filter.Trashed = false
	return s.products.List(ctx, filter)
}

// ListProductTrash возвращает продукты из корзины.
func (s *Service) ListProductTrash(ctx context.Context, actor domain.Actor) ([]domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.products.List(ctx, domain.CatalogFilter{Trashed: true})
}

// TrashProduct переносит продукт в корзину (мягкое удаление).
func (s *Service) TrashProduct(ctx context.Context, actor domain.Actor, id string) error {
	return s.setProductTrashed(ctx, actor, id, true)
}

// RestoreProduct возвращает продукт из корзины.
func (s *Service) RestoreProduct(ctx context.Context, actor domain.Actor, id string) error {
	return s.setProductTrashed(ctx, actor, id, false)
}

// DeleteProduct удаляет продукт навсегда; продукт должен быть в корзине.
func (s *Service) DeleteProduct(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}
	if !product.Trashed() {
		return domain.ErrNotInTrash
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateProduct(ctx, id)
	s.logger.WithFields(log.Fields{"product_id": id, "actor_id": actor.UserID}).Info("product deleted permanently")
	return nil
}

func (s *Service) setProductTrashed(ctx context.Context, actor domain.Actor, id string, trashed bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case trashed && product.Trashed():
		return domain.ErrAlreadyInTrash
	case !trashed && !product.Trashed():
		return domain.ErrNotInTrash
	}

	now := s.now()
	product.DeletedAt = nil
	if trashed {
		product.DeletedAt = &now
	}
	product.UpdatedAt = now
	if err := s.products.Update(ctx, product); err != nil {
		return err
	}
	s.invalidateProduct(ctx, id)
	return nil
}

func (s *Service) applyProductInput(ctx context.Context, product *domain.Product, in ProductInput) error {
	product.Name = strings.TrimSpace(in.Name)
	product.Description = strings.TrimSpace(in.Description)
	product.Price = in.Price
	product.ImageURL = strings.TrimSpace(in.ImageURL)
	product.Category = domain.Category(strings.ToLower(strings.TrimSpace(in.Category)))
	if in.Available != nil {
		product.Available = *in.Available
	}
	product.AddonIDs = uniqueIDs(in.AddonIDs)

	if errs := product.Validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return s.checkAddonRefs(ctx, product.AddonIDs)
}

// checkAddonRefs требует, чтобы все добавки продукта существовали и не были в корзине.
func (s *Service) checkAddonRefs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.addons.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return domain.ErrUnknownAddonRef
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	result := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
