package domain

import (
	"context"
	"fmt"
	"time"
)

// DefaultPageSize is the number of images requested per page when no limit is set.
const DefaultPageSize = 10

// NoPage is the CurrentPage value before the first page has been loaded.
const NoPage = -1

// CatImage identifies and locates one image returned by the upstream API.
type CatImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PageRequest parameterises a single gateway call.
// When Paged is false no page parameter is sent and the upstream returns a
// single random batch.
type PageRequest struct {
	Limit int
	Page  int
	Paged bool
}

// NewPageRequest returns a request for the given zero-based page.
func NewPageRequest(limit, page int) PageRequest {
	return PageRequest{Limit: limit, Page: page, Paged: true}
}

// Normalize fills in the default limit.
func (r PageRequest) Normalize() PageRequest {
	if r.Limit == 0 {
		r.Limit = DefaultPageSize
	}
	return r
}

// Validate reports whether the request can be sent upstream.
func (r PageRequest) Validate() error {
	if r.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", r.Limit)
	}
	if r.Paged && r.Page < 0 {
		return fmt.Errorf("page must be >= 0, got %d", r.Page)
	}
	return nil
}

// Gateway performs one fetch and reports its progress as a stream of outcomes:
// exactly one Loading followed by exactly one Success or Error. The channel is
// closed after the terminal outcome.
type Gateway interface {
	Fetch(ctx context.Context, req PageRequest) <-chan Outcome
}

// Snapshot is a published copy of a session's state.
type Snapshot struct {
	SessionID string       `json:"session_id"`
	Version   uint64       `json:"version"`
	State     GalleryState `json:"state"`
	At        time.Time    `json:"at"`
}

// SnapshotPublisher ships snapshots out of the process.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snapshot *Snapshot) error
	Close() error
}
