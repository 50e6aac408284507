package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/messaging"
)

// DefaultExchange — topic exchange для событий заказов.
const DefaultExchange = "rms.order.events"

// DeadLetterRoutingKey — routing key для сообщений, исчерпавших попытки.
const DeadLetterRoutingKey = "dlq"

var errPublisherClosed = errors.New("rabbitmq publisher is not initialized")

// Channel — часть *amqp.Channel, которой пользуется паблишер.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher публикует outbox-сообщения в topic exchange; routing key равен типу события.
type Publisher struct {
	conn       io.Closer
	channel    Channel
	exchange   string
	routingKey string
	now        func() time.Time
	logger     *log.Entry
}

// NewPublisher подключается к брокеру и объявляет durable topic exchange.
func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	publisher, err := newPublisher(conn, channel, exchange)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, err
	}
	return publisher, nil
}

func newPublisher(conn io.Closer, channel Channel, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		now:      time.Now,
		logger:   log.WithField("component", "rabbitmq-publisher"),
	}, nil
}

// DeadLetter возвращает паблишер в тот же exchange с фиксированным routing key для DLQ.
func (p *Publisher) DeadLetter() *Publisher {
	dlq := *p
	dlq.routingKey = DeadLetterRoutingKey
	return &dlq
}

// Publish отправляет сообщение в обёртке messaging.Envelope.
func (p *Publisher) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	if p == nil || p.channel == nil {
		return errPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	at := p.now()
	body, err := messaging.NewEnvelope(msg, at).Encode()
	if err != nil {
		return err
	}

	routingKey := p.routingKey
	if routingKey == "" {
		routingKey = msg.EventType
	}

	err = p.channel.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         msg.EventType,
		Timestamp:    at.UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message %s: %w", msg.ID, err)
	}

	p.logger.WithFields(log.Fields{
		"exchange":    p.exchange,
		"routing_key": routingKey,
		"message_id":  msg.ID,
	}).Debug("message published to rabbitmq")
	return nil
}

// Close закрывает канал и соединение.
func (p *Publisher) Close() error {
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

var _ domain.OutboxPublisher = (*Publisher)(nil)
