package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/CatGallery/internal/domain"
	"github.com/CatGallery/internal/infra/metrics"
)

// SnapshotRelay forwards every state a session publishes to a SnapshotPublisher.
type SnapshotRelay struct {
	publisher domain.SnapshotPublisher
	timeout   time.Duration
	now       func() time.Time
	wg        sync.WaitGroup
}

func NewSnapshotRelay(publisher domain.SnapshotPublisher) *SnapshotRelay {
	return &SnapshotRelay{
		publisher: publisher,
		timeout:   5 * time.Second,
		now:       time.Now,
	}
}

// Attach observes s until it closes. Publish failures are logged and counted;
// they never affect the session.
func (r *SnapshotRelay) Attach(s *Session) {
	states, _ := s.ObserveVersioned()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		var count int
		for vs := range states {
			count++
			r.handleState(&domain.Snapshot{
				SessionID: s.ID(),
				Version:   vs.Version,
				State:     vs.State,
				At:        r.now().UTC(),
			})
		}
		slog.Debug("Snapshot relay detached", "session", s.ID(), "snapshots", count)
	}()
}

func (r *SnapshotRelay) handleState(snapshot *domain.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.publisher.Publish(ctx, snapshot); err != nil {
		slog.Error("Failed to publish snapshot", "session", snapshot.SessionID, "version", snapshot.Version, "error", err)
		metrics.SnapshotsPublished.WithLabelValues("error").Inc()
		return
	}
	metrics.SnapshotsPublished.WithLabelValues("success").Inc()
}

// Wait blocks until every attached session has closed and drained.
func (r *SnapshotRelay) Wait() {
	r.wg.Wait()
}

// DiscardPublisher drops snapshots. It stands in when no broker is configured.
type DiscardPublisher struct{}

func (DiscardPublisher) Publish(context.Context, *domain.Snapshot) error { return nil }
func (DiscardPublisher) Close() error                                    { return nil }
