package domain

import "time"

// StoreConfigID — идентификатор единственной строки настроек магазина.
const StoreConfigID = 1

const (
	DefaultOpeningMessage = "We are open! Place your order."
	DefaultClosingMessage = "We are closed right now. Come back soon!"
)

// StoreConfig — глобальный флаг приёма заказов и сообщения для витрины.
type StoreConfig struct {
	ID             int
	IsOpen         bool
	OpeningMessage string
	ClosingMessage string
	UpdatedAt      time.Time
}

// DefaultStoreConfig возвращает настройки, создаваемые при первом запуске.
func DefaultStoreConfig(now time.Time) StoreConfig {
	return StoreConfig{
		ID:             StoreConfigID,
		IsOpen:         true,
		OpeningMessage: DefaultOpeningMessage,
		ClosingMessage: DefaultClosingMessage,
		UpdatedAt:      now,
	}
}
