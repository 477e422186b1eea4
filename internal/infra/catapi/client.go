package catapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CatGallery/internal/domain"
	"github.com/CatGallery/internal/infra/metrics"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public cat API.
	DefaultBaseURL = "https://api.thecatapi.com/v1/"

	searchPath   = "images/search"
	tracerName   = "catgallery/catapi"
	maxBodyBytes = 4 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL     string
	Order       string // sent as the order parameter when set: RAND, ASC or DESC
	Timeout     time.Duration
	MaxFailures uint32        // consecutive failures before the breaker opens
	OpenTimeout time.Duration // how long the breaker stays open
	HTTPClient  *http.Client
}

// Client talks to the images/search endpoint.
type Client struct {
	endpoint *url.URL
	order    string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
}

// NewClient validates opts and builds a client. Zero values fall back to defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid cat api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid cat api base url %q: scheme must be http or https", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 3
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	maxFailures := opts.MaxFailures
	cbSettings := gobreaker.Settings{
		Name:        "catapi",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Only upstream unavailability trips the breaker; 4xx and bad bodies do not.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				return httpErr.StatusCode < http.StatusInternalServerError
			}
			var netErr *NetworkError
			return !errors.As(err, &netErr)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("CircuitBreaker state changed", "name", name, "from", from, "to", to)
		},
	}

	return &Client{
		endpoint: base.ResolveReference(&url.URL{Path: searchPath}),
		order:    strings.ToUpper(opts.Order),
		client:   httpClient,
		cb:       gobreaker.NewCircuitBreaker(cbSettings),
	}, nil
}

// FetchPage issues exactly one GET for req. It never retries.
// Returned errors are one of *HTTPError, *NetworkError, ErrEmptyResult or
// *UnexpectedError.
func (c *Client) FetchPage(ctx context.Context, req domain.PageRequest) ([]domain.CatImage, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("invalid page request: %w", err)}
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "catapi.FetchPage")
	defer span.End()
	span.SetAttributes(
		attribute.Int("limit", req.Limit),
		attribute.Int("page", req.Page),
		attribute.Bool("paged", req.Paged),
	)

	start := time.Now()
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.do(ctx, req)
	})
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &UnexpectedError{Err: fmt.Errorf("cat api unavailable: %w", err)}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	images, _ := result.([]domain.CatImage)
	if len(images) == 0 {
		span.SetStatus(codes.Error, ErrEmptyResult.Error())
		return nil, ErrEmptyResult
	}
	if len(images) > req.Limit {
		slog.Debug("Applying limit", "fetched", len(images), "limit", req.Limit)
		images = images[:req.Limit]
	}
	span.SetAttributes(attribute.Int("images", len(images)))
	return images, nil
}

func (c *Client) do(ctx context.Context, req domain.PageRequest) ([]domain.CatImage, error) {
	pageURL := c.pageURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		slog.Warn("Request failed", "url", pageURL, "error", err)
		return nil, classifyTransportError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("Failed to close response body", "error", err)
		}
	}()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	images, err := DecodeImages(body)
	if err != nil {
		return nil, &UnexpectedError{Err: err}
	}
	return images, nil
}

func (c *Client) pageURL(req domain.PageRequest) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(req.Limit))
	if req.Paged {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if c.order != "" {
		q.Set("order", c.order)
	}

	u := *c.endpoint
	u.RawQuery = q.Encode()
	return u.String()
}
