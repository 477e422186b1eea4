package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/CatGallery/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// SnapshotConsumer reads gallery snapshots back from Kafka.
type SnapshotConsumer struct {
	reader *kafka.Reader
}

// tailGroupPrefix names the throwaway group used when no group is given.
const tailGroupPrefix = "catgallery-tail-"

// NewSnapshotConsumer joins groupID. An empty groupID joins a fresh group of
// its own, so every partition is tailed from the latest offset.
func NewSnapshotConsumer(brokers []string, topic string, groupID string) *SnapshotConsumer {
	cfg := readerConfig(brokers, topic, groupID)
	r := kafka.NewReader(cfg)
	slog.Info("Kafka Consumer initialized", "brokers", brokers, "topic", topic, "group", cfg.GroupID)
	return &SnapshotConsumer{reader: r}
}

func readerConfig(brokers []string, topic string, groupID string) kafka.ReaderConfig {
	cfg := kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	}
	if groupID == "" {
		// Without a group a reader is bound to a single partition, while the
		// producer spreads sessions across all of them.
		cfg.GroupID = tailGroupPrefix + uuid.NewString()
		cfg.StartOffset = kafka.LastOffset
	}
	return cfg
}

type SnapshotHandler func(ctx context.Context, snapshot *domain.Snapshot) error

// Start blocks until ctx is cancelled or the reader fails. Handler errors are
// logged and the message is skipped.
func (c *SnapshotConsumer) Start(ctx context.Context, handler SnapshotHandler) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			slog.Error("Error reading kafka message", "error", err)
			return err
		}

		snapshot, err := decodeSnapshot(m)
		if err != nil {
			slog.Error("Error decoding snapshot", "partition", m.Partition, "offset", m.Offset, "error", err)
			continue
		}

		slog.Debug("Received snapshot from Kafka", "session", snapshot.SessionID, "partition", m.Partition)

		if err := handler(ctx, snapshot); err != nil {
			slog.Error("Error handling snapshot", "session", snapshot.SessionID, "error", err)
		}
	}
}

func (c *SnapshotConsumer) Close() error {
	return c.reader.Close()
}
