// Package ordering собирает заказы из корзины и ведёт их по жизненному циклу.
package ordering

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Dependencies — хранилища и сервисы, нужные заказам. Timeline и Outbox необязательны.
type Dependencies struct {
	Orders    domain.OrderRepository
	Catalog   domain.CatalogReader
	Addresses domain.AddressRepository
	Store     domain.StoreStatus
	Timeline  domain.TimelineRepository
	Outbox    domain.OutboxRepository
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics включает метрики заказов.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service — сборка заказов и их жизненный цикл.
type Service struct {
	orders    domain.OrderRepository
	catalog   domain.CatalogReader
	addresses domain.AddressRepository
	store     domain.StoreStatus
	timeline  domain.TimelineRepository
	outbox    domain.OutboxRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
	now       func() time.Time
}

// NewService создаёт сервис заказов.
func NewService(deps Dependencies, options ...Option) *Service {
	s := &Service{
		orders:    deps.Orders,
		catalog:   deps.Catalog,
		addresses: deps.Addresses,
		store:     deps.Store,
		timeline:  deps.Timeline,
		outbox:    deps.Outbox,
		logger:    log.WithField("component", "ordering"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	return s
}
