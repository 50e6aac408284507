// Package idempotency реализует повтор ответа для запросов с заголовком Idempotency-Key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// DefaultTTL — сколько хранится ответ для повторов.
const DefaultTTL = 24 * time.Hour

// Replay — сохранённый ответ на первый запрос с тем же ключом.
type Replay struct {
	HTTPStatus int
	Body       []byte
}

// Guard резервирует ключ перед выполнением запроса и сохраняет ответ после.
type Guard struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	now    func() time.Time
	logger *log.Entry
}

// NewGuard создаёт Guard; ttl<=0 означает DefaultTTL.
func NewGuard(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.WithField("component", "idempotency-guard")
	}
	return &Guard{
		repo:   repo,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// ScopedKey привязывает ключ клиента к пользователю, чтобы разные пользователи не пересекались.
func ScopedKey(userID, key string) string {
	return strings.TrimSpace(userID) + ":" + strings.TrimSpace(key)
}

// RequestHash — sha256 тела запроса в hex.
func RequestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Begin резервирует ключ. Если ответ уже сохранён, возвращает его для повтора.
// Незавершённый запрос с тем же ключом даёт ErrIdempotencyInProgress,
// другой payload даёт ErrIdempotencyHashMismatch.
func (g *Guard) Begin(ctx context.Context, key string, body []byte) (*Replay, error) {
	record, err := g.repo.CreateProcessing(ctx, key, RequestHash(body), g.now().Add(g.ttl))
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
	default:
		return nil, err
	}

	switch {
	case record.Status == domain.IdempotencyStatusProcessing:
		return nil, domain.ErrIdempotencyInProgress
	case record.Replayable():
		return &Replay{HTTPStatus: record.HTTPStatus, Body: record.ResponseBody}, nil
	default:
		// Предыдущая попытка упала на стороне сервера: запрос выполняется заново.
		return nil, nil
	}
}

// Complete сохраняет ответ. Ответ 5xx помечает ключ failed, и повтор выполнит запрос ещё раз.
func (g *Guard) Complete(ctx context.Context, key string, httpStatus int, body []byte) {
	var err error
	if domain.IdempotencyStatusFor(httpStatus) == domain.IdempotencyStatusFailed {
		err = g.repo.MarkFailed(ctx, key, body, httpStatus)
	} else {
		err = g.repo.MarkDone(ctx, key, body, httpStatus)
	}
	if err != nil {
		g.logger.WithError(err).WithField("http_status", httpStatus).Warn("failed to store idempotent response")
	}
}
