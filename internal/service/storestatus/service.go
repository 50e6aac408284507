// Package storestatus управляет флагом «магазин открыт» и сообщениями витрины.
package storestatus

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// UpdateInput — частичное изменение настроек; nil-поле не меняется.
type UpdateInput struct {
	IsOpen         *bool
	OpeningMessage *string
	ClosingMessage *string
}

// Service — доступ к singleton-настройкам магазина.
type Service struct {
	repo   domain.StoreConfigRepository
	logger *log.Entry
	now    func() time.Time
}

// NewService создаёт сервис статуса магазина.
func NewService(repo domain.StoreConfigRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "storestatus")
	}
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Bootstrap создаёт настройки по умолчанию, если их ещё нет. Вызывается при старте.
func (s *Service) Bootstrap(ctx context.Context) error {
	created, err := s.repo.CreateIfAbsent(ctx, domain.DefaultStoreConfig(s.now()))
	if err != nil {
		return err
	}
	if created {
		s.logger.Info("store config initialized with defaults")
	}
	return nil
}

// Get возвращает настройки, создавая их при отсутствии.
func (s *Service) Get(ctx context.Context) (domain.StoreConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if errors.Is(err, domain.ErrStoreConfigAbsent) {
		if err := s.Bootstrap(ctx); err != nil {
			return domain.StoreConfig{}, err
		}
		return s.repo.Get(ctx)
	}
	return cfg, err
}

// IsOpen сообщает, принимает ли магазин заказы.
func (s *Service) IsOpen(ctx context.Context) (bool, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return cfg.IsOpen, nil
}

// Update меняет настройки; доступно персоналу, побеждает последняя запись.
func (s *Service) Update(ctx context.Context, actor domain.Actor, in UpdateInput) (domain.StoreConfig, error) {
	if !actor.IsStaff() {
		return domain.StoreConfig{}, domain.ErrForbidden
	}

	cfg, err := s.Get(ctx)
	if err != nil {
		return domain.StoreConfig{}, err
	}
	if in.IsOpen != nil {
		cfg.IsOpen = *in.IsOpen
	}
	if in.OpeningMessage != nil {
		cfg.OpeningMessage = strings.TrimSpace(*in.OpeningMessage)
	}
	if in.ClosingMessage != nil {
		cfg.ClosingMessage = strings.TrimSpace(*in.ClosingMessage)
	}
	cfg.UpdatedAt = s.now()

	if err := s.repo.Put(ctx, cfg); err != nil {
		return domain.StoreConfig{}, err
	}
	s.logger.WithFields(log.Fields{"actor_id": actor.UserID, "is_open": cfg.IsOpen}).Info("store status updated")
	return cfg, nil
}

var _ domain.StoreStatus = (*Service)(nil)
