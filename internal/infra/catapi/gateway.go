package catapi

import (
	"context"
	"log/slog"

	"github.com/CatGallery/internal/domain"
	"github.com/CatGallery/internal/infra/metrics"
	"github.com/CatGallery/pkg/logging"
)

// outcomeCancelled labels fetches abandoned by their caller.
const outcomeCancelled = "cancelled"

// PageFetcher performs one page request. *Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, req domain.PageRequest) ([]domain.CatImage, error)
}

// Gateway turns a PageFetcher call into the Loading → Success|Error stream
// the gallery session consumes.
type Gateway struct {
	fetcher PageFetcher
	sampler *logging.ErrorSampler
}

var _ domain.Gateway = (*Gateway)(nil)

// NewGateway wraps fetcher. A nil sampler logs every error.
func NewGateway(fetcher PageFetcher, sampler *logging.ErrorSampler) *Gateway {
	if sampler == nil {
		sampler = logging.NewErrorSampler(1, nil)
	}
	return &Gateway{fetcher: fetcher, sampler: sampler}
}

// Fetch starts the request on its own goroutine. The returned channel is
// buffered for both notifications, so a caller that stops reading never
// blocks the request.
func (g *Gateway) Fetch(ctx context.Context, req domain.PageRequest) <-chan domain.Outcome {
	out := make(chan domain.Outcome, 2)
	go func() {
		defer close(out)
		out <- domain.Loading()

		images, err := g.fetcher.FetchPage(ctx, req)
		class := Classify(err)

		if err != nil {
			msg := Message(err)
			if ctx.Err() != nil {
				// Superseded or closed; nobody is waiting for this result.
				metrics.FetchOutcomes.WithLabelValues(outcomeCancelled).Inc()
				slog.Debug("Fetch cancelled", "page", req.Page, "error", err)
				out <- domain.Failed(msg)
				return
			}
			metrics.FetchOutcomes.WithLabelValues(string(class)).Inc()
			g.sampler.Error(string(class), "Error loading cat images",
				"page", req.Page, "limit", req.Limit, "error", err)
			out <- domain.Failed(msg)
			return
		}

		metrics.FetchOutcomes.WithLabelValues(string(class)).Inc()
		g.sampler.Reset(string(ClassNetwork))
		g.sampler.Reset(string(ClassHTTP))
		slog.Debug("Fetched cat images", "page", req.Page, "count", len(images))
		out <- domain.Success(images)
	}()
	return out
}
