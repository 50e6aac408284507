package domain

import "time"

// IdempotencyStatus — состояние ключа из заголовка Idempotency-Key при создании заказа.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing: заказ по ключу ещё создаётся, повтор получает конфликт.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone: ответ сохранён и отдаётся повторам без создания нового заказа.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed: сервер ответил 5xx, повтор выполнит запрос заново.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

// IdempotencyRecord хранит ответ на POST /orders с ключом идемпотентности.
// Key уже содержит id пользователя, поэтому одинаковые ключи разных клиентов не пересекаются.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	HTTPStatus   int
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// IdempotencyStatusFor выбирает итоговый статус ключа по HTTP-коду ответа.
// Ошибки клиента (4xx) сохраняются как done: повтор с тем же телом получит тот же ответ.
func IdempotencyStatusFor(httpStatus int) IdempotencyStatus {
	if httpStatus >= 500 {
		return IdempotencyStatusFailed
	}
	return IdempotencyStatusDone
}

// Replayable сообщает, что сохранённый ответ можно вернуть повтору.
func (r IdempotencyRecord) Replayable() bool {
	return r.Status == IdempotencyStatusDone
}

// ExpiredAt сообщает, что к моменту t ключ можно удалить.
func (r IdempotencyRecord) ExpiredAt(t time.Time) bool {
	return !r.TTLAt.After(t)
}
