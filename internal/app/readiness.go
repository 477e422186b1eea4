package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReadinessWaiter blocks startup until the snapshot topic is reachable.
type ReadinessWaiter struct {
	brokers  []string
	topic    string
	interval time.Duration
}

func NewReadinessWaiter(brokers []string, topic string) *ReadinessWaiter {
	return &ReadinessWaiter{
		brokers:  brokers,
		topic:    topic,
		interval: 2 * time.Second,
	}
}

// WaitForDependencies returns immediately when no brokers are configured.
func (w *ReadinessWaiter) WaitForDependencies(ctx context.Context) error {
	if len(w.brokers) == 0 {
		slog.Info("Kafka disabled, skipping readiness check")
		return nil
	}
	return w.waitForKafka(ctx)
}

func (w *ReadinessWaiter) waitForKafka(ctx context.Context) error {
	slog.Info("Waiting for Kafka...", "brokers", w.brokers, "topic", w.topic)
	// No overall timeout: wait until the broker is up or ctx is cancelled.
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.checkKafka(ctx); err != nil {
				slog.Warn("Kafka not ready yet", "error", err)
				continue
			}
			slog.Info("Kafka is ready")
			return nil
		}
	}
}

func (w *ReadinessWaiter) checkKafka(ctx context.Context) error {
	dialer := &net.Dialer{Timeout: 2 * time.Second}
	for _, broker := range w.brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			return fmt.Errorf("failed to connect to broker %s: %w", broker, err)
		}
		_ = conn.Close()
	}

	conn, err := kafka.DialContext(ctx, "tcp", w.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	partitions, err := conn.ReadPartitions(w.topic)
	if err != nil {
		return fmt.Errorf("failed to read partitions for topic %s: %w", w.topic, err)
	}
	if len(partitions) == 0 {
		return fmt.Errorf("topic %s has no partitions", w.topic)
	}
	return nil
}
