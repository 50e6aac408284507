package httpapi

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/rms/internal/service/idempotency"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 128
)

var errKeyTooLong = errors.New("idempotency key is too long")

// capturingWriter дублирует тело ответа, чтобы сохранить его под ключом.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// idempotent повторяет сохранённый ответ для запроса с тем же Idempotency-Key.
// Без заголовка запрос выполняется как обычно.
func idempotent(guard *idempotency.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := strings.TrimSpace(c.GetHeader(idempotencyHeader))
		if guard == nil || rawKey == "" {
			c.Next()
			return
		}
		if len(rawKey) > maxIdempotencyKey {
			respondError(c, errBadBody(errKeyTooLong))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondError(c, errBadBody(err))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		key := idempotency.ScopedKey(actorFrom(c).UserID, rawKey)
		replay, err := guard.Begin(ctx, key, body)
		if err != nil {
			respondError(c, err)
			return
		}
		if replay != nil {
			c.Header(replayedHeader, "true")
			c.Data(replay.HTTPStatus, "application/json; charset=utf-8", replay.Body)
			c.Abort()
			return
		}

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		guard.Complete(ctx, key, writer.Status(), writer.body.Bytes())
	}
}
