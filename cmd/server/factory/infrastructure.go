// Package factory provides dependency injection constructors for infrastructure components.
package factory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/CatGallery/internal/app"
	"github.com/CatGallery/internal/domain"
	"github.com/CatGallery/internal/infra/catapi"
	"github.com/CatGallery/internal/infra/queue"
	"github.com/CatGallery/pkg/config"
	"github.com/CatGallery/pkg/logging"
	"go.uber.org/fx"
)

// NewCatAPIClient creates the upstream client with its circuit breaker.
func NewCatAPIClient(cfg *config.Config) (*catapi.Client, error) {
	if cfg.CatAPI.BaseURL == "" {
		return nil, errors.New("cat api base url not configured")
	}
	return catapi.NewClient(catapi.Options{
		BaseURL:     cfg.CatAPI.BaseURL,
		Order:       cfg.CatAPI.Order,
		Timeout:     cfg.CatAPI.Timeout,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	})
}

// NewErrorSampler creates the sampler shared by gateway error logging.
func NewErrorSampler(cfg *config.Config) (*logging.ErrorSampler, error) {
	if cfg.ErrorLogInterval <= 0 {
		return nil, errors.New("error log interval must be positive")
	}
	return logging.NewErrorSampler(cfg.ErrorLogInterval, slog.Default()), nil
}

// NewSnapshotPublisher returns a Kafka producer when brokers are configured
// and a discarding publisher otherwise.
func NewSnapshotPublisher(cfg *config.Config, lc fx.Lifecycle) (domain.SnapshotPublisher, error) {
	if !cfg.KafkaEnabled() {
		slog.Info("Kafka brokers not configured, snapshots are discarded")
		return app.DiscardPublisher{}, nil
	}
	if cfg.Kafka.Topic == "" {
		return nil, errors.New("kafka topic not configured")
	}

	producer := queue.NewSnapshotProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
	return producer, nil
}
