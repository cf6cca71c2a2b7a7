package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/resume-builder/internal/config"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

const (
	TopicExportEvents       = "export.events"
	TopicMediaEvents        = "media.events"
	TopicNotificationEvents = "notification.events"
)

type KafkaProducerClient struct {
	ExportEventsWriter       *kafka.Writer
	MediaEventsWriter        *kafka.Writer
	NotificationEventsWriter *kafka.Writer
	logger                   logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
	}

	log.Info("Initialize Kafka Producers successfully.")

	return &KafkaProducerClient{
		ExportEventsWriter:       newWriter(TopicExportEvents),
		MediaEventsWriter:        newWriter(TopicMediaEvents),
		NotificationEventsWriter: newWriter(TopicNotificationEvents),
		logger:                   log,
	}, nil
}

func (c *KafkaProducerClient) PublishExportEvent(ctx context.Context, payload ExportEventPayload) error {
	return publish(ctx, c.ExportEventsWriter, payload.JobID.String(), payload)
}

func (c *KafkaProducerClient) PublishMediaEvent(ctx context.Context, payload MediaEventPayload) error {
	return publish(ctx, c.MediaEventsWriter, payload.MediaID.String(), payload)
}

func (c *KafkaProducerClient) PublishNotificationEvent(ctx context.Context, payload NotificationPayload) error {
	return publish(ctx, c.NotificationEventsWriter, payload.Email, payload)
}

// publish keys messages by entity id so every event of one entity lands on
// the same partition.
func publish(ctx context.Context, w *kafka.Writer, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", w.Topic, err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("write %s event: %w", w.Topic, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	for _, w := range []*kafka.Writer{c.ExportEventsWriter, c.MediaEventsWriter, c.NotificationEventsWriter} {
		if w != nil {
			w.Close()
		}
	}
	c.logger.Info("Closed Kafka Producers")
}
