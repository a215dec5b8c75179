package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ResultPublisher reports session events to the external results
// collaborator. Reporting is best-effort: one attempt per event, failures
// are logged by the caller and never block the session.
type ResultPublisher interface {
	PublishResult(ctx context.Context, event *ResultEvent) error
	Close() error
}

// KafkaResultPublisher implements ResultPublisher using Watermill with Kafka
type KafkaResultPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topicName string
}

// PublisherConfig holds configuration for the result publisher
type PublisherConfig struct {
	KafkaBrokers []string
	TopicName    string
	Logger       *slog.Logger
}

// NewKafkaResultPublisher creates a new Kafka-based result publisher using Watermill
func NewKafkaResultPublisher(config PublisherConfig) (*KafkaResultPublisher, error) {
	logger := watermill.NewSlogLogger(config.Logger)

	publisherConfig := kafka.PublisherConfig{
		Brokers:   config.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}

	publisher, err := kafka.NewPublisher(publisherConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return &KafkaResultPublisher{
		publisher: publisher,
		logger:    config.Logger,
		topicName: config.TopicName,
	}, nil
}

// PublishResult publishes a session event to Kafka
func (p *KafkaResultPublisher) PublishResult(ctx context.Context, event *ResultEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal result event: %w", err)
	}

	msg := message.NewMessage(event.ID, eventBytes)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		p.logger.Error("Failed to publish result event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to publish result event: %w", err)
	}

	p.logger.Debug("Published result event",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", p.topicName)

	return nil
}

// Close closes the publisher and releases resources
func (p *KafkaResultPublisher) Close() error {
	return p.publisher.Close()
}

// LoggingResultPublisher is the fallback sink when no brokers are
// configured: events are logged and dropped.
type LoggingResultPublisher struct {
	logger *slog.Logger
}

func NewLoggingResultPublisher(logger *slog.Logger) *LoggingResultPublisher {
	return &LoggingResultPublisher{logger: logger}
}

func (p *LoggingResultPublisher) PublishResult(ctx context.Context, event *ResultEvent) error {
	p.logger.Info("Result event (no broker configured)",
		"event_id", event.ID,
		"event_type", event.Type)
	return nil
}

func (p *LoggingResultPublisher) Close() error {
	return nil
}

// MockResultPublisher is an in-memory implementation for testing
type MockResultPublisher struct {
	mu     sync.Mutex
	events []ResultEvent

	// FailWith, when set, is returned from every publish call.
	FailWith error
}

// NewMockResultPublisher creates a new mock result publisher
func NewMockResultPublisher() *MockResultPublisher {
	return &MockResultPublisher{}
}

// PublishResult stores the event in memory (for testing)
func (m *MockResultPublisher) PublishResult(ctx context.Context, event *ResultEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.events = append(m.events, *event)
	return nil
}

// Close is a no-op for the mock publisher
func (m *MockResultPublisher) Close() error {
	return nil
}

// PublishedEvents returns a copy of all published events (for testing)
func (m *MockResultPublisher) PublishedEvents() []ResultEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ResultEvent(nil), m.events...)
}

// ClearEvents clears all published events (for testing)
func (m *MockResultPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
