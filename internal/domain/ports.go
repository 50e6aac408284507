package domain

import (
	"context"
	"time"
)

// OrderFilter ограничивает выборку заказов.
type OrderFilter struct {
	// CustomerID — пусто означает все заказы (для персонала).
	CustomerID string
	// Status — пусто означает любой статус.
	Status OrderStatus
	Limit  int
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create атомарно сохраняет заказ вместе с позициями и их добавками.
	Create(ctx context.Context, order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(ctx context.Context, id string) (Order, error)
	// List возвращает заказы от новых к старым.
	List(ctx context.Context, filter OrderFilter) ([]Order, error)
	// Save обновляет статусы заказа с учётом optimistic locking.
	Save(ctx context.Context, order Order) error
}

// DashboardRepository — агрегатные запросы по заказам.
type DashboardRepository interface {
	Summary(ctx context.Context) (DashboardSummary, error)
	// DailyRevenue возвращает только дни с заказами начиная с since (по локальной дате loc).
	DailyRevenue(ctx context.Context, since time.Time, loc *time.Location) ([]DailyRevenue, error)
	TopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error)
}

// ProductRepository хранит продукты меню.
type ProductRepository interface {
	Create(ctx context.Context, product Product) error
	Update(ctx context.Context, product Product) error
	// Get возвращает продукт в том числе из корзины.
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, filter CatalogFilter) ([]Product, error)
	// FindByIDs пакетно ищет активные продукты; отсутствующие id просто не попадают в ответ.
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
	Delete(ctx context.Context, id string) error
}

// AddonRepository хранит добавки.
type AddonRepository interface {
	Create(ctx context.Context, addon Addon) error
	Update(ctx context.Context, addon Addon) error
	Get(ctx context.Context, id string) (Addon, error)
	List(ctx context.Context, filter CatalogFilter) ([]Addon, error)
	FindByIDs(ctx context.Context, ids []string) ([]Addon, error)
	Delete(ctx context.Context, id string) error
}

// CatalogReader — пакетные поиски каталога, которые использует сборка заказа.
type CatalogReader interface {
	FindProductsByIDs(ctx context.Context, ids []string) ([]Product, error)
	FindAddonsByIDs(ctx context.Context, ids []string) ([]Addon, error)
}

// StoreStatus сообщает, принимает ли ресторан заказы.
type StoreStatus interface {
	IsOpen(ctx context.Context) (bool, error)
}

// AddressRepository хранит адреса клиентов.
type AddressRepository interface {
	Create(ctx context.Context, address Address) error
	// GetForOwner возвращает ErrAddressNotFound и для чужого адреса.
	GetForOwner(ctx context.Context, id, ownerID string) (Address, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Address, error)
	Update(ctx context.Context, address Address) error
	Delete(ctx context.Context, id, ownerID string) error
}

// StoreConfigRepository хранит singleton-настройки магазина.
type StoreConfigRepository interface {
	// Get возвращает ErrStoreConfigAbsent, если строка ещё не создана.
	Get(ctx context.Context) (StoreConfig, error)
	// CreateIfAbsent вставляет строку, только если её нет; true, если строка создана.
	CreateIfAbsent(ctx context.Context, cfg StoreConfig) (bool, error)
	// Put перезаписывает строку (last-write-wins).
	Put(ctx context.Context, cfg StoreConfig) error
}

// UserRepository хранит учётные записи.
type UserRepository interface {
	// Create возвращает ErrEmailTaken при дубликате email.
	Create(ctx context.Context, user User) error
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user User) error
}

// PaymentGateway — внешний платёжный процессор (карта и PIX).
type PaymentGateway interface {
	CreateCardCharge(ctx context.Context, charge CardCharge) (Charge, error)
	CreatePixCharge(ctx context.Context, charge PixCharge) (Charge, error)
	GetPayment(ctx context.Context, id string) (Charge, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(ctx context.Context, key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(ctx context.Context, key string) (IdempotencyRecord, error)
	MarkDone(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	MarkFailed(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
