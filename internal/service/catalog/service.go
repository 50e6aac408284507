// Package catalog управляет меню: продукты, добавки и их корзина.
package catalog

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// Invalidator сбрасывает закешированные позиции после записи.
type Invalidator interface {
	InvalidateProduct(ctx context.Context, id string) error
	InvalidateAddon(ctx context.Context, id string) error
}

// Option настраивает Service.
type Option func(*Service)

// WithInvalidator подключает кеш, который нужно сбрасывать при изменениях.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service — операции над каталогом. Запись доступна только ADMIN.
type Service struct {
	products    domain.ProductRepository
	addons      domain.AddonRepository
	invalidator Invalidator
	logger      *log.Entry
	now         func() time.Time
}

// NewService создаёт сервис каталога.
func NewService(products domain.ProductRepository, addons domain.AddonRepository, options ...Option) *Service {
	s := &Service{
		products: products,
		addons:   addons,
		logger:   log.WithField("component", "catalog"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) invalidateProduct(ctx context.Context, id string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateProduct(ctx, id); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Warn("failed to invalidate cached product")
	}
}

func (s *Service) invalidateAddon(ctx context.Context, id string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateAddon(ctx, id); err != nil {
		s.logger.WithError(err).WithField("addon_id", id).Warn("failed to invalidate cached addon")
	}
}

// Reader адаптирует репозитории к domain.CatalogReader для сборки заказа.
type Reader struct {
	products domain.ProductRepository
	addons   domain.AddonRepository
}

// NewReader создаёт Reader.
func NewReader(products domain.ProductRepository, addons domain.AddonRepository) *Reader {
	return &Reader{products: products, addons: addons}
}

// FindProductsByIDs возвращает активные продукты из списка.
func (r *Reader) FindProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	return r.products.FindByIDs(ctx, ids)
}

// FindAddonsByIDs возвращает активные добавки из списка.
func (r *Reader) FindAddonsByIDs(ctx context.Context, ids []string) ([]domain.Addon, error) {
	return r.addons.FindByIDs(ctx, ids)
}

var _ domain.CatalogReader = (*Reader)(nil)
