package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Message is one outbox row on its way to a broker.
type Message struct {
	ID         int64
	Topic      string
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
	ClientID    string
}

// KafkaPublisher writes outbox messages to Kafka, one topic per event type.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	prefix   string
	logger   *zap.Logger
}

func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newKafkaPublisher(producer, cfg.TopicPrefix, logger), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, prefix string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, prefix: prefix, logger: logger}
}

func (p *KafkaPublisher) topic(t string) string {
	if p.prefix == "" {
		return t
	}
	return p.prefix + "." + t
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	topic := p.topic(msg.Topic)
	pm := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(msg.Topic)},
			{Key: []byte("event-id"), Value: []byte(strconv.FormatInt(msg.ID, 10))},
			{Key: []byte("timestamp"), Value: []byte(msg.OccurredAt.UTC().Format(time.RFC3339))},
		},
	}
	partition, offset, err := p.producer.SendMessage(pm)
	if err != nil {
		return fmt.Errorf("send to %s: %w", topic, err)
	}
	p.logger.Debug("event published to kafka",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
		zap.Int64("event_id", msg.ID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// LogPublisher logs events instead of shipping them; used when no broker is configured.
type LogPublisher struct{ logger *zap.Logger }

func NewLogPublisher(logger *zap.Logger) *LogPublisher { return &LogPublisher{logger: logger} }

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.logger.Info("event",
		zap.String("topic", msg.Topic),
		zap.String("key", msg.Key),
		zap.Int64("event_id", msg.ID),
		zap.ByteString("payload", msg.Payload),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
