package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/CatGallery/cmd/server/factory"
	"github.com/CatGallery/internal/app"
	"github.com/CatGallery/internal/infra/tracing"
	transport "github.com/CatGallery/internal/transport/http"
	"github.com/CatGallery/pkg/config"
	"go.uber.org/fx"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	fx.New(
		fx.Provide(
			// Config
			config.Load,

			// Infrastructure
			factory.NewCatAPIClient,
			factory.NewErrorSampler,
			factory.NewSnapshotPublisher,

			// Gateway & services
			factory.NewGateway,
			factory.NewSnapshotRelay,
			factory.NewSessionManager,

			// HTTP Server
			transport.NewHTTPServer,
		),
		fx.Invoke(
			SetupTracer,
			WaitForReady, // Block until dependencies are ready
			StartServer,
			RegisterHooks, // stops first: closing sessions ends open event streams
		),
	).Run()
}

// --- Invokers ---

// RegisterHooks closes every open session on shutdown. In-flight fetches are
// abandoned and the relay drains before the producer closes.
func RegisterHooks(lc fx.Lifecycle, sessions *app.SessionManager) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Info("Closing gallery sessions", "count", sessions.Len())
			return sessions.CloseAll(ctx)
		},
	})
}

func SetupTracer(lc fx.Lifecycle, cfg *config.Config) error {
	if !cfg.TracingEnabled() {
		slog.Info("Tracing disabled")
		return nil
	}

	ctx := context.Background()
	shutdown, err := tracing.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		slog.Error("Failed to initialize tracer", "error", err)
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Info("Shutting down tracer provider")
			return shutdown(ctx)
		},
	})
	return nil
}

// WaitForReady blocks until all dependencies are ready.
func WaitForReady(cfg *config.Config) error {
	ctx := context.Background()
	waiter := app.NewReadinessWaiter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	return waiter.WaitForDependencies(ctx)
}

func StartServer(lc fx.Lifecycle, server *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				slog.Info("Starting gallery server", "address", server.Addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("HTTP server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
