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

// AddonInput — поля добавки.
type AddonInput struct {
	Name      string
	Price     decimal.Decimal
	Category  string
	Available *bool
}

// CreateAddon добавляет добавку.
func (s *Service) CreateAddon(ctx context.Context, actor domain.Actor, in AddonInput) (domain.Addon, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Addon{}, err
	}

	now := s.now()
	addon := domain.Addon{ID: uuid.NewString(), Available: true, CreatedAt: now, UpdatedAt: now}
	if err := applyAddonInput(&addon, in); err != nil {
		return domain.Addon{}, err
	}
	if err := s.addons.Create(ctx, addon); err != nil {
		return domain.Addon{}, err
	}
	s.logger.WithFields(log.Fields{"addon_id": addon.ID, "actor_id": actor.UserID}).Info("addon created")
	return addon, nil
}

// UpdateAddon перезаписывает поля добавки.
func (s *Service) UpdateAddon(ctx context.Context, actor domain.Actor, id string, in AddonInput) (domain.Addon, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Addon{}, err
	}
	addon, err := s.addons.Get(ctx, id)
	if err != nil {
		return domain.Addon{}, err
	}
	if err := applyAddonInput(&addon, in); err != nil {
		return domain.Addon{}, err
	}
	addon.UpdatedAt = s.now()
	if err := s.addons.Update(ctx, addon); err != nil {
		return domain.Addon{}, err
	}
	s.invalidateAddon(ctx, addon.ID)
	return addon, nil
}

// GetAddon возвращает добавку; добавку из корзины видит только ADMIN.
func (s *Service) GetAddon(ctx context.Context, actor domain.Actor, id string) (domain.Addon, error) {
	addon, err := s.addons.Get(ctx, id)
	if err != nil {
		return domain.Addon{}, err
	}
	if addon.Trashed() && !actor.IsAdmin() {
		return domain.Addon{}, domain.ErrAddonNotFound
	}
	return addon, nil
}

// ListAddons возвращает активные добавки.
func (s *Service) ListAddons(ctx context.Context, filter domain.CatalogFilter) ([]domain.Addon, error) {
	filter.Trashed = false
	return s.addons.List(ctx, filter)
}

// ListAddonTrash возвращает добавки из корзины.
func (s *Service) ListAddonTrash(ctx context.Context, actor domain.Actor) ([]domain.Addon, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.addons.List(ctx, domain.CatalogFilter{Trashed: true})
}

// TrashAddon переносит добавку в корзину.
func (s *Service) TrashAddon(ctx context.Context, actor domain.Actor, id string) error {
	return s.setAddonTrashed(ctx, actor, id, true)
}

// RestoreAddon возвращает добавку из корзины.
func (s *Service) RestoreAddon(ctx context.Context, actor domain.Actor, id string) error {
	return s.setAddonTrashed(ctx, actor, id, false)
}

// DeleteAddon удаляет добавку навсегда; добавка должна быть в корзине.
func (s *Service) DeleteAddon(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	addon, err := s.addons.Get(ctx, id)
	if err != nil {
		return err
	}
	if !addon.Trashed() {
		return domain.ErrNotInTrash
	}
	if err := s.addons.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateAddon(ctx, id)
	return nil
}

func (s *Service) setAddonTrashed(ctx context.Context, actor domain.Actor, id string, trashed bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	addon, err := s.addons.Get(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case trashed && addon.Trashed():
		return domain.ErrAlreadyInTrash
	case !trashed && !addon.Trashed():
		return domain.ErrNotInTrash
	}

	now := s.now()
	addon.DeletedAt = nil
	if trashed {
		addon.DeletedAt = &now
	}
	addon.UpdatedAt = now
	if err := s.addons.Update(ctx, addon); err != nil {
		return err
	}
	s.invalidateAddon(ctx, id)
	return nil
}

func applyAddonInput(addon *domain.Addon, in AddonInput) error {
	addon.Name = strings.TrimSpace(in.Name)
	addon.Price = in.Price
	addon.Category = strings.TrimSpace(in.Category)
	if in.Available != nil {
		addon.Available = *in.Available
	}
	if errs := addon.Validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
