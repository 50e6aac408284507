package domain

import (
	"errors"
	"fmt"
)

// Базовые категории ошибок. Конкретные ошибки оборачивают одну из них,
// поэтому вызывающая сторона может проверять errors.Is на любом уровне.
var (
	// ErrValidation — некорректные входные данные.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — запрошенная сущность отсутствует или недоступна вызывающему.
	ErrNotFound = errors.New("not found")
	// ErrStoreClosed — ресторан сейчас не принимает заказы.
	ErrStoreClosed = errors.New("store is closed")
	// ErrForbidden — нарушение прав роли или владения.
	ErrForbidden = errors.New("forbidden")
	// ErrBusinessRule — операция противоречит бизнес-правилу (например, недопустимый переход статуса).
	ErrBusinessRule = errors.New("business rule violation")
	// ErrUnauthenticated — вызывающий не прошёл аутентификацию.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrConflict — конкурентная модификация или дубликат уникального ключа.
	ErrConflict = errors.New("conflict")
)

// Ошибки заказа.
var (
	ErrCustomerRequired      = fmt.Errorf("%w: customer_id is required", ErrValidation)
	ErrOrderTypeInvalid      = fmt.Errorf("%w: order type must be DELIVERY or TAKEOUT", ErrValidation)
	ErrItemQtyInvalid        = fmt.Errorf("%w: item quantity must be at least 1", ErrValidation)
	ErrItemPriceInvalid      = fmt.Errorf("%w: item price must be non-negative", ErrValidation)
	ErrPaymentMethodRequired = fmt.Errorf("%w: payment method is required", ErrValidation)
	ErrAddressRequired       = fmt.Errorf("%w: address_id is required for delivery orders", ErrValidation)
	ErrOrderStatusInvalid    = fmt.Errorf("%w: unknown order status", ErrValidation)
	ErrPaymentStatusInvalid  = fmt.Errorf("%w: unknown payment status", ErrValidation)
	ErrOrderUpdateEmpty      = fmt.Errorf("%w: status or payment status is required", ErrValidation)
	ErrAmountNegative        = fmt.Errorf("%w: total price must be non-negative", ErrValidation)
	ErrAmountMismatch        = fmt.Errorf("%w: total price does not match items sum plus delivery fee", ErrValidation)

	// ErrOrderNotFound возвращается, если заказ не найден или принадлежит другому клиенту.
	ErrOrderNotFound = fmt.Errorf("%w: order not found", ErrNotFound)
	// ErrAddressNotFound возвращается, если адрес не найден у данного владельца.
	ErrAddressNotFound = fmt.Errorf("%w: address not found", ErrNotFound)

	// ErrInvalidTransition — запрошенный переход статуса не разрешён таблицей переходов.
	ErrInvalidTransition = fmt.Errorf("%w: invalid order status transition", ErrBusinessRule)
	// ErrOrderAlreadyInPreparation — клиент пытается отменить заказ, который уже не в PENDING.
	ErrOrderAlreadyInPreparation = fmt.Errorf("%w: order already in preparation", ErrBusinessRule)

	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = fmt.Errorf("%w: order version conflict", ErrConflict)
)

// Ошибки каталога.
var (
	ErrNameRequired    = fmt.Errorf("%w: name is required", ErrValidation)
	ErrPriceNegative   = fmt.Errorf("%w: price must be non-negative", ErrValidation)
	ErrCategoryInvalid = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrProductNotFound = fmt.Errorf("%w: product not found", ErrNotFound)
	ErrAddonNotFound   = fmt.Errorf("%w: addon not found", ErrNotFound)
	ErrUnknownAddonRef = fmt.Errorf("%w: product references unknown addon", ErrValidation)
	ErrNotInTrash      = fmt.Errorf("%w: item is not in trash", ErrBusinessRule)
	ErrAlreadyInTrash  = fmt.Errorf("%w: item is already in trash", ErrBusinessRule)
)

// ErrStoreConfigAbsent — singleton-настройка магазина ещё не создана.
var ErrStoreConfigAbsent = fmt.Errorf("%w: store config not found", ErrNotFound)

// Ошибки адресной книги.
var (
	ErrAddressFieldRequired = fmt.Errorf("%w: zip code, street, number, neighborhood and city are required", ErrValidation)
	ErrStateInvalid         = fmt.Errorf("%w: state must be a two-letter code", ErrValidation)
)

// Ошибки учётных записей.
var (
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrEmailInvalid       = fmt.Errorf("%w: email is invalid", ErrValidation)
	ErrPasswordTooShort   = fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	ErrRoleInvalid        = fmt.Errorf("%w: unknown role", ErrValidation)
)

// Ошибки платёжного шлюза.
var (
	ErrPaymentAmountInvalid = fmt.Errorf("%w: payment amount must be greater than zero", ErrValidation)
	ErrPaymentIDInvalid     = fmt.Errorf("%w: payment id is invalid", ErrValidation)
	// ErrPaymentGateway — внешний процессор вернул ошибку или не ответил вовремя.
	ErrPaymentGateway = errors.New("payment gateway error")
)

// Ошибки idempotency и outbox.
var (
	ErrIdempotencyKeyRequired         = fmt.Errorf("%w: idempotency key is required", ErrValidation)
	ErrIdempotencyRequestHashRequired = fmt.Errorf("%w: idempotency request hash is required", ErrValidation)
	ErrIdempotencyKeyNotFound         = fmt.Errorf("%w: idempotency key not found", ErrNotFound)
	ErrIdempotencyKeyAlreadyExists    = fmt.Errorf("%w: idempotency key already exists", ErrConflict)
	ErrIdempotencyHashMismatch        = fmt.Errorf("%w: idempotency key reused with different payload", ErrConflict)
	ErrIdempotencyInProgress          = fmt.Errorf("%w: request with this idempotency key is still processing", ErrConflict)

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsIdempotencyConflict проверяет, что ключ идемпотентности уже занят.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
