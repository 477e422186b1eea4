package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/CatGallery/internal/domain"
	"github.com/segmentio/kafka-go"
)

// SnapshotProducer publishes gallery snapshots to a Kafka topic.
type SnapshotProducer struct {
	writer *kafka.Writer
}

var _ domain.SnapshotPublisher = (*SnapshotProducer)(nil)

func NewSnapshotProducer(brokers []string, topic string) *SnapshotProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{}, // same session, same partition, so snapshots stay ordered
	}
	slog.Info("Kafka Producer initialized", "brokers", brokers, "topic", topic)
	return &SnapshotProducer{writer: w}
}

func (p *SnapshotProducer) Publish(ctx context.Context, snapshot *domain.Snapshot) error {
	msg, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write to kafka", "error", err)
		return err
	}

	slog.Debug("Published snapshot to Kafka", "session", snapshot.SessionID, "version", snapshot.Version)
	return nil
}

func (p *SnapshotProducer) Close() error {
	return p.writer.Close()
}

func encodeSnapshot(snapshot *domain.Snapshot) (kafka.Message, error) {
	if snapshot == nil || snapshot.SessionID == "" {
		return kafka.Message{}, fmt.Errorf("snapshot without session id")
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	return kafka.Message{
		Key:   []byte(snapshot.SessionID),
		Value: payload,
	}, nil
}

func decodeSnapshot(m kafka.Message) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := json.Unmarshal(m.Value, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.SessionID == "" {
		snapshot.SessionID = string(m.Key)
	}
	return &snapshot, nil
}
