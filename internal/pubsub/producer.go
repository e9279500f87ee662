package pubsub

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// NewProducer broadcasts events to the configured Kafka topics.
func NewProducer(cfg Config, log logger.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Balancer: &kafka.LeastBytes{},
		},
		topics: cfg.Topics,
		log:    log.With("kafka_producer"),
	}
}

type Producer struct {
	writer *kafka.Writer
	topics []string
	log    logger.Logger
}

// Broadcast publishes the JSON encoding of event, keyed by key, to
// every configured topic.
func (p *Producer) Broadcast(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WrapFail(err, "marshal event to json")
	}

	msgs := make([]kafka.Message, 0, len(p.topics))
	for _, topic := range p.topics {
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: data,
		})
	}

	err = p.writer.WriteMessages(ctx, msgs...)
	return errors.WrapFail(err, "write kafka messages")
}

func (p *Producer) Close() error {
	err := p.writer.Close()
	return errors.WrapFail(err, "close kafka writer")
}
