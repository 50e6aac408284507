package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/rms/internal/messaging/rabbitmq"
	"github.com/vladislavdragonenkov/rms/internal/version"
)

// outboxPublishers — основной и DLQ паблишеры выбранного брокера.
type outboxPublishers struct {
	main    domain.OutboxPublisher
	dlq     domain.OutboxPublisher
	closeFn func() error
}

// initOutboxPublishers подключается к брокеру. Для BrokerNone возвращает пустой набор:
// события копятся в outbox и публикуются после включения брокера.
func initOutboxPublishers(cfg Config, logger *log.Entry) (*outboxPublishers, error) {
	switch cfg.OutboxBroker {
	case BrokerNone, "":
		logger.Warn("outbox broker is disabled, events stay pending in outbox")
		return &outboxPublishers{}, nil
	case BrokerKafka:
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, "rms-"+version.GetVersion())
		if err != nil {
			return nil, err
		}
		logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		return &outboxPublishers{
			main:    kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			dlq:     kafka.NewDLQPublisher(producer),
			closeFn: producer.Close,
		}, nil
	case BrokerRabbitMQ:
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		logger.WithField("exchange", cfg.RabbitMQExchange).Info("rabbitmq publisher initialized")
		return &outboxPublishers{
			main:    publisher,
			dlq:     publisher.DeadLetter(),
			closeFn: publisher.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported outbox broker %q", cfg.OutboxBroker)
	}
}

func (p *outboxPublishers) enabled() bool {
	return p != nil && p.main != nil
}

func (p *outboxPublishers) close(logger *log.Entry) {
	if p == nil || p.closeFn == nil {
		return
	}
	if err := p.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close outbox publisher")
		return
	}
	logger.Info("outbox publisher closed")
}
