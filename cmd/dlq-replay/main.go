// Command dlq-replay переносит outbox-события из DLQ-топика обратно в топик событий заказов.
// По умолчанию работает в dry-run: только читает и логирует кандидатов.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/messaging"
	"github.com/vladislavdragonenkov/rms/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
	envKafkaBrokers    = "RMS_KAFKA_BROKERS"
)

type config struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	limit       int
	execute     bool
	idleTimeout time.Duration
}

// offsetClient — часть sarama.Client для определения границ партиций.
type offsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Partitions(topic string) ([]int32, error)
}

type partitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

type partitionSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error)
}

// saramaSource сужает sarama.Consumer до partitionSource.
type saramaSource struct {
	consumer sarama.Consumer
}

func (s saramaSource) ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error) {
	pc, err := s.consumer.ConsumePartition(topic, partition, offset)
	if err != nil {
		return nil, err
	}
	return pc, nil
}

// republisher — *kafka.Producer в execute-режиме.
type republisher interface {
	PublishRaw(topic, key string, value []byte, headers map[string]string) error
}

type stats struct {
	processed int
	replayed  int
	skipped   int
}

func (s *stats) add(o stats) {
	s.processed += o.processed
	s.replayed += o.replayed
	s.skipped += o.skipped
}

func parseConfig(args []string, getenv func(string) string) (config, error) {
	var (
		brokersRaw string
		cfg        config
	)
	fs := flag.NewFlagSet("dlq-replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&brokersRaw, "brokers", "", "Kafka brokers, comma-separated (fallback: "+envKafkaBrokers+")")
	fs.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ source topic")
	fs.StringVar(&cfg.targetTopic, "target-topic", kafka.TopicOrderEvents, "replay target topic")
	fs.IntVar(&cfg.limit, "limit", defaultReplayLimit, "max messages to scan")
	fs.BoolVar(&cfg.execute, "execute", false, "publish messages; default is dry-run")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "idle timeout per partition")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = getenv(envKafkaBrokers)
	}
	for _, b := range strings.Split(brokersRaw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.brokers = append(cfg.brokers, b)
		}
	}

	var errs []error
	if len(cfg.brokers) == 0 {
		errs = append(errs, fmt.Errorf("kafka brokers are required (-brokers or %s)", envKafkaBrokers))
	}
	if strings.TrimSpace(cfg.sourceTopic) == "" || strings.TrimSpace(cfg.targetTopic) == "" {
		errs = append(errs, errors.New("source-topic and target-topic are required"))
	}
	if cfg.limit <= 0 {
		errs = append(errs, errors.New("limit must be > 0"))
	}
	if cfg.idleTimeout <= 0 {
		errs = append(errs, errors.New("idle-timeout must be > 0"))
	}
	if err := errors.Join(errs...); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// decodeEnvelope проверяет, что значение является конвертом outbox-события с непустыми id и типом.
func decodeEnvelope(value []byte) (messaging.Envelope, error) {
	var env messaging.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return messaging.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.ID == "" || env.EventType == "" {
		return messaging.Envelope{}, errors.New("envelope without id or event_type")
	}
	return env, nil
}

func replay(ctx context.Context, cfg config, client offsetClient, source partitionSource, out republisher) (stats, error) {
	var total stats
	if cfg.execute && out == nil {
		return total, errors.New("producer is required in execute mode")
	}

	partitions, err := client.Partitions(cfg.sourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", cfg.sourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		if total.processed >= cfg.limit {
			break
		}
		s, err := replayPartition(ctx, cfg, client, source, out, partition, cfg.limit-total.processed)
		total.add(s)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func replayPartition(ctx context.Context, cfg config, client offsetClient, source partitionSource, out republisher, partition int32, limit int) (stats, error) {
	var s stats
	oldest, err := client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return s, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return s, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return s, nil
	}

	pc, err := source.ConsumePartition(cfg.sourceTopic, partition, oldest)
	if err != nil {
		return s, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(cfg.idleTimeout)
	defer idle.Stop()

	for s.processed < limit {
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-idle.C:
			return s, nil
		case cerr := <-pc.Errors():
			if cerr != nil {
				return s, fmt.Errorf("partition %d consumer error: %w", partition, cerr)
			}
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil {
				return s, nil
			}
			idle.Reset(cfg.idleTimeout)
			s.processed++

			logger := log.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})
			env, err := decodeEnvelope(msg.Value)
			if err != nil {
				s.skipped++
				logger.WithError(err).Warn("skip unsupported dlq message")
			} else if cfg.execute {
				err := out.PublishRaw(cfg.targetTopic, env.AggregateID, msg.Value, map[string]string{
					kafka.HeaderEventType:     env.EventType,
					kafka.HeaderAggregateType: env.AggregateType,
					kafka.HeaderOriginalTopic: cfg.sourceTopic,
				})
				if err != nil {
					return s, fmt.Errorf("republish %s: %w", env.ID, err)
				}
				s.replayed++
			} else {
				s.replayed++
				logger.WithFields(log.Fields{"event_id": env.ID, "event_type": env.EventType}).Info("dlq replay candidate")
			}

			if msg.Offset+1 >= newest {
				return s, nil
			}
		}
	}
	return s, nil
}

func run(ctx context.Context, cfg config) error {
	client, err := sarama.NewClient(cfg.brokers, sarama.NewConfig())
	if err != nil {
		return fmt.Errorf("create kafka client: %w", err)
	}
	defer client.Close()

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer consumer.Close()

	var out republisher
	if cfg.execute {
		producer, err := kafka.NewProducer(cfg.brokers, "rms-dlq-replay")
		if err != nil {
			return err
		}
		defer producer.Close()
		out = producer
	}

	result, err := replay(ctx, cfg, client, saramaSource{consumer: consumer}, out)
	mode := "dry-run"
	if cfg.execute {
		mode = "execute"
	}
	log.WithFields(log.Fields{
		"mode":      mode,
		"processed": result.processed,
		"replayed":  result.replayed,
		"skipped":   result.skipped,
	}).Info("dlq replay finished")
	return err
}

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		log.WithError(err).Fatal("invalid arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("dlq replay failed")
	}
}
