package factory

import (
	"errors"
	"fmt"

	"github.com/CatGallery/internal/app"
	"github.com/CatGallery/internal/domain"
	"github.com/CatGallery/internal/infra/catapi"
	"github.com/CatGallery/pkg/config"
	"github.com/CatGallery/pkg/logging"
)

// NewGateway wraps the client as the outcome-streaming gateway.
func NewGateway(client *catapi.Client, sampler *logging.ErrorSampler) (domain.Gateway, error) {
	if client == nil {
		return nil, errors.New("cat api client is nil")
	}
	return catapi.NewGateway(client, sampler), nil
}

// NewSnapshotRelay creates the relay feeding session states to the publisher.
func NewSnapshotRelay(publisher domain.SnapshotPublisher) (*app.SnapshotRelay, error) {
	if publisher == nil {
		return nil, errors.New("snapshot publisher is nil")
	}
	return app.NewSnapshotRelay(publisher), nil
}

// NewSessionManager creates the session manager with validation.
func NewSessionManager(
	gateway domain.Gateway,
	relay *app.SnapshotRelay,
	cfg *config.Config,
) (*app.SessionManager, error) {
	if gateway == nil {
		return nil, errors.New("gateway is nil")
	}
	if cfg.CatAPI.PageSize < 1 || cfg.CatAPI.PageSize > 100 {
		return nil, fmt.Errorf("invalid page size: %d (must be 1-100)", cfg.CatAPI.PageSize)
	}
	return app.NewSessionManager(gateway, cfg.CatAPI.PageSize, relay), nil
}
