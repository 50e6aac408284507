package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/rms/internal/auth"
	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/service/account"
	"github.com/vladislavdragonenkov/rms/internal/service/addressbook"
	"github.com/vladislavdragonenkov/rms/internal/service/catalog"
	"github.com/vladislavdragonenkov/rms/internal/service/dashboard"
	"github.com/vladislavdragonenkov/rms/internal/service/ordering"
	"github.com/vladislavdragonenkov/rms/internal/service/outbox"
	"github.com/vladislavdragonenkov/rms/internal/service/storestatus"
	"github.com/vladislavdragonenkov/rms/internal/storage/memory"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []domain.OutboxMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		types = append(types, m.EventType)
	}
	return types
}

// OrderLifecycleTestSuite прогоняет заказ через все сервисы поверх in-memory хранилища.
type OrderLifecycleTestSuite struct {
	suite.Suite
	ctx context.Context

	accounts  *account.Service
	catalog   *catalog.Service
	addresses *addressbook.Service
	store     *storestatus.Service
	orders    *ordering.Service
	dashboard *dashboard.Service
	worker    *outbox.Worker
	published *recordingPublisher

	admin    domain.Actor
	kitchen  domain.Actor
	customer domain.Actor
}

func (s *OrderLifecycleTestSuite) SetupTest() {
	base := log.New()
	base.SetLevel(log.WarnLevel)
	logger := base.WithField("component", "integration-test")
	s.ctx = context.Background()

	issuer, err := auth.NewIssuer("integration-secret", time.Hour)
	s.Require().NoError(err)

	products, addons := memory.NewProductRepository(), memory.NewAddonRepository()
	addresses := memory.NewAddressRepository()
	orders := memory.NewOrderRepository()
	outboxRepo := memory.NewOutboxRepository()

	s.accounts = account.NewService(memory.NewUserRepository(), issuer, logger)
	s.catalog = catalog.NewService(products, addons, catalog.WithLogger(logger))
	s.addresses = addressbook.NewService(addresses, logger)
	s.store = storestatus.NewService(memory.NewStoreConfigRepository(), logger)
	s.Require().NoError(s.store.Bootstrap(s.ctx))
	s.orders = ordering.NewService(ordering.Dependencies{
		Orders:    orders,
		Catalog:   catalog.NewReader(products, addons),
		Addresses: addresses,
		Store:     s.store,
		Timeline:  memory.NewTimelineRepository(),
		Outbox:    outboxRepo,
	}, ordering.WithLogger(logger))
	s.dashboard = dashboard.NewService(orders, time.UTC)
	s.published = &recordingPublisher{}
	s.worker = outbox.NewWorker(outboxRepo, s.published, outbox.WithLogger(logger), outbox.WithRetryBaseDelay(0))

	s.Require().NoError(s.accounts.SeedAdmin(s.ctx, "admin@rms.local", "admin123"))
	session, err := s.accounts.Login(s.ctx, "admin@rms.local", "admin123")
	s.Require().NoError(err)
	s.admin, err = issuer.Parse(session.Token)
	s.Require().NoError(err)

	kitchen, err := s.accounts.CreateUser(s.ctx, s.admin, account.RegisterInput{
		Name: "Cozinha", Email: "kitchen@rms.local", Password: "kitchen1", Role: string(domain.RoleKitchen),
	})
	s.Require().NoError(err)
	s.kitchen = domain.Actor{UserID: kitchen.ID, Role: kitchen.Role}

	customer, err := s.accounts.Register(s.ctx, account.RegisterInput{
		Name: "Ana", Email: "ana@example.com", Password: "secret1",
	})
	s.Require().NoError(err)
	s.customer = domain.Actor{UserID: customer.ID, Role: customer.Role}
}

func (s *OrderLifecycleTestSuite) seedMenu() (productID, addonID string) {
	addon, err := s.catalog.CreateAddon(s.ctx, s.admin, catalog.AddonInput{
		Name: "Bacon", Price: decimal.RequireFromString("5.00"), Category: "addon",
	})
	s.Require().NoError(err)

	product, err := s.catalog.CreateProduct(s.ctx, s.admin, catalog.ProductInput{
		Name: "Smash Burger", Price: decimal.RequireFromString("29.90"), Category: "burger", AddonIDs: []string{addon.ID},
	})
	s.Require().NoError(err)
	return product.ID, addon.ID
}

func (s *OrderLifecycleTestSuite) customerAddress(neighborhood string) string {
	address, err := s.addresses.Create(s.ctx, s.customer, addressbook.AddressInput{
		ZipCode: "22070-011", Street: "Av. Atlântica", Number: "1702",
		Neighborhood: neighborhood, City: "Rio de Janeiro", State: "RJ",
	})
	s.Require().NoError(err)
	return address.ID
}

func (s *OrderLifecycleTestSuite) TestDeliveryOrderToDone() {
	productID, addonID := s.seedMenu()
	addressID := s.customerAddress("Copacabana")

	order, err := s.orders.Create(s.ctx, s.customer, ordering.CreateOrderInput{
		Type:          string(domain.OrderTypeDelivery),
		AddressID:     addressID,
		PaymentMethod: domain.PaymentMethodPix,
		Items: []ordering.CartLine{
			{ProductID: productID, Quantity: 2, AddonIDs: []string{addonID}},
		},
	})
	s.Require().NoError(err)
	s.Equal("79.8", order.TotalPrice.String())
	s.Equal("50-60 min", order.EstimatedDeliveryTime)
	s.Require().NotNil(order.Address)
	s.Equal("Copacabana", order.Address.Neighborhood)

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusPreparing, domain.OrderStatusDelivering, domain.OrderStatusDone,
	} {
		order, err = s.orders.Update(s.ctx, s.kitchen, order.ID, ordering.UpdateInput{Status: string(status)})
		s.Require().NoError(err, status)
		s.Equal(status, order.Status)
	}

	_, err = s.orders.Cancel(s.ctx, s.admin, order.ID)
	s.Require().ErrorIs(err, domain.ErrInvalidTransition)

	timeline, err := s.orders.Timeline(s.ctx, s.customer, order.ID)
	s.Require().NoError(err)
	s.Len(timeline, 4)

	result := s.worker.ProcessOnce(s.ctx)
	s.Equal(4, result.Sent)
	s.Equal(0, result.Failed)
	types := s.published.eventTypes()
	s.Require().Len(types, 4)
	s.Equal(domain.EventOrderCreated, types[0])

	summary, err := s.dashboard.Summary(s.ctx, s.kitchen)
	s.Require().NoError(err)
	s.Equal(1, summary.TotalOrders)
	s.Equal(1, summary.ByStatus[domain.OrderStatusDone])
}

func (s *OrderLifecycleTestSuite) TestCustomerCancelsPendingOrder() {
	productID, _ := s.seedMenu()

	order, err := s.orders.Create(s.ctx, s.customer, ordering.CreateOrderInput{
		Type:          string(domain.OrderTypeTakeout),
		PaymentMethod: domain.PaymentMethodCash,
		Items:         []ordering.CartLine{{ProductID: productID, Quantity: 1}},
	})
	s.Require().NoError(err)
	s.True(order.DeliveryFee.IsZero())

	canceled, err := s.orders.Cancel(s.ctx, s.customer, order.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCanceled, canceled.Status)

	s.worker.ProcessOnce(s.ctx)
	s.Contains(s.published.eventTypes(), domain.EventOrderCanceled)
}

func (s *OrderLifecycleTestSuite) TestClosedStoreRejectsOrders() {
	productID, _ := s.seedMenu()
	closed := false
	_, err := s.store.Update(s.ctx, s.kitchen, storestatus.UpdateInput{IsOpen: &closed})
	s.Require().NoError(err)

	_, err = s.orders.Create(s.ctx, s.customer, ordering.CreateOrderInput{
		Type:          string(domain.OrderTypeTakeout),
		PaymentMethod: domain.PaymentMethodCash,
		Items:         []ordering.CartLine{{ProductID: productID, Quantity: 1}},
	})
	s.Require().ErrorIs(err, domain.ErrStoreClosed)

	list, err := s.orders.List(s.ctx, s.customer, ordering.ListInput{})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *OrderLifecycleTestSuite) TestTrashedProductIsDroppedFromCart() {
	productID, _ := s.seedMenu()
	s.Require().NoError(s.catalog.TrashProduct(s.ctx, s.admin, productID))

	order, err := s.orders.Create(s.ctx, s.customer, ordering.CreateOrderInput{
		Type:          string(domain.OrderTypeDelivery),
		AddressID:     s.customerAddress("Barra da Tijuca"),
		PaymentMethod: domain.PaymentMethodCard,
		Items:         []ordering.CartLine{{ProductID: productID, Quantity: 3}},
	})
	s.Require().NoError(err)
	s.Empty(order.Items)
	s.Equal("20", order.TotalPrice.String())
}

func TestOrderLifecycleSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
