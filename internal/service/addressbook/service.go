// Package addressbook хранит адреса доставки клиентов.
package addressbook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// AddressInput — поля адреса от клиента.
type AddressInput struct {
	ZipCode      string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	Nickname     string
}

// Service — CRUD адресов; каждый клиент видит только свои.
type Service struct {
	repo   domain.AddressRepository
	logger *log.Entry
	now    func() time.Time
}

// NewService создаёт сервис адресов.
func NewService(repo domain.AddressRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "addressbook")
	}
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create сохраняет новый адрес вызывающего.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in AddressInput) (domain.Address, error) {
	now := s.now()
	address := domain.Address{
		ID:        uuid.NewString(),
		UserID:    actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&address, in)
	if err := validate(&address); err != nil {
		return domain.Address{}, err
	}
	if err := s.repo.Create(ctx, address); err != nil {
		return domain.Address{}, err
	}
	s.logger.WithFields(log.Fields{"address_id": address.ID, "user_id": actor.UserID}).Debug("address created")
	return address, nil
}

// List возвращает адреса вызывающего.
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]domain.Address, error) {
	return s.repo.ListByOwner(ctx, actor.UserID)
}

// Get возвращает свой адрес; чужой неотличим от отсутствующего.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (domain.Address, error) {
	return s.repo.GetForOwner(ctx, id, actor.UserID)
}

// Update перезаписывает поля своего адреса.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, in AddressInput) (domain.Address, error) {
	address, err := s.repo.GetForOwner(ctx, id, actor.UserID)
	if err != nil {
		return domain.Address{}, err
	}
	apply(&address, in)
	if err := validate(&address); err != nil {
		return domain.Address{}, err
	}
	address.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, address); err != nil {
		return domain.Address{}, err
	}
	return address, nil
}

// Delete удаляет свой адрес. Заказы сохраняют снимок адреса.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	return s.repo.Delete(ctx, id, actor.UserID)
}

func apply(address *domain.Address, in AddressInput) {
	address.ZipCode = in.ZipCode
	address.Street = in.Street
	address.Number = in.Number
	address.Complement = in.Complement
	address.Neighborhood = in.Neighborhood
	address.City = in.City
	address.State = in.State
	address.Nickname = in.Nickname
	address.Normalize()
}

func validate(address *domain.Address) error {
	if errs := address.Validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
