package ordering

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

type change struct {
	timelineType string
	eventType    string
	status       string
	reason       string
	actorID      string
}

// recordChange пишет timeline и outbox после успешного сохранения заказа.
// Ошибки только логируются: заказ уже сохранён и запрос считается успешным.
func (s *Service) recordChange(ctx context.Context, order domain.Order, c change) {
	logger := s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"event":    c.eventType,
	})

	if s.timeline != nil {
		err := s.timeline.Append(ctx, domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     c.timelineType,
			Status:   c.status,
			Reason:   c.reason,
			ActorID:  c.actorID,
			Occurred: order.UpdatedAt,
		})
		if err != nil {
			s.metrics.RecordSideEffectError("timeline")
			logger.WithError(err).Warn("append timeline event failed")
		}
	}

	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(domain.NewOrderEvent(c.eventType, order, c.actorID, order.UpdatedAt))
	if err != nil {
		s.metrics.RecordSideEffectError("outbox")
		logger.WithError(err).Error("marshal order event failed")
		return
	}
	_, err = s.outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   order.ID,
		EventType:     c.eventType,
		Payload:       payload,
	})
	if err != nil {
		s.metrics.RecordSideEffectError("outbox")
		logger.WithError(err).Warn("enqueue order event failed")
	}
}
