// Package events publishes document lifecycle notifications to Kafka so
// downstream services can react to finished enhancement attempts.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"articleforge/config"
	"articleforge/types"
)

// DocumentEvent is the wire payload for a finished attempt. Bodies are
// deliberately excluded; consumers fetch the document if they need it.
type DocumentEvent struct {
	DocumentID     string       `json:"document_id"`
	Status         types.Status `json:"status"`
	OriginalTitle  string       `json:"original_title"`
	UpdatedTitle   string       `json:"updated_title,omitempty"`
	ProviderUsed   string       `json:"provider_used,omitempty"`
	ReferenceCount int          `json:"reference_count"`
	OccurredAt     time.Time    `json:"occurred_at"`
}

// Publisher emits DocumentEvents on a single topic, keyed by document
// id so one document's events stay ordered within a partition.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// PublisherConfig holds Kafka producer configuration.
type PublisherConfig struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// NewPublisher creates a Publisher with acks from all in-sync replicas.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger.With("component", "events"),
	}, nil
}

// NewPublisherFromEnv builds a Publisher from KAFKA_BROKERS and
// KAFKA_TOPIC. Returns (nil, nil) when KAFKA_BROKERS is unset so the
// caller can run without eventing.
func NewPublisherFromEnv(logger *slog.Logger) (*Publisher, error) {
	brokers := config.EnvOrDefault("KAFKA_BROKERS", "")
	if brokers == "" {
		return nil, nil
	}
	return NewPublisher(PublisherConfig{
		Brokers: strings.Split(brokers, ","),
		Topic:   config.EnvOrDefault("KAFKA_TOPIC", "document-events"),
		Logger:  logger,
	})
}

// DocumentProcessed publishes an event for a finished attempt.
func (p *Publisher) DocumentProcessed(ctx context.Context, doc *types.Document) error {
	event := DocumentEvent{
		DocumentID:     doc.ID,
		Status:         doc.Status,
		OriginalTitle:  doc.OriginalTitle,
		UpdatedTitle:   doc.UpdatedTitle,
		ProviderUsed:   doc.ProviderUsed,
		ReferenceCount: len(doc.AcquiredReferences),
		OccurredAt:     time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal document event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(doc.ID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish document event: %w", err)
	}

	p.logger.Debug("document event published",
		"document_id", doc.ID,
		"status", doc.Status,
		"partition", partition,
		"offset", offset)
	return nil
}

// Close shuts down the underlying producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
