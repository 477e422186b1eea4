package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/CatGallery/internal/domain"
	"github.com/CatGallery/internal/infra/metrics"
)

// Session is the pagination state machine of one gallery.
// It owns a GalleryState, turns intents into gateway fetches and publishes a
// copy of the state to every observer after each mutation.
type Session struct {
	id       string
	gateway  domain.Gateway
	pageSize int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       domain.GalleryState
	version     uint64
	generation  uint64 // identifies the current fetch; stale outcomes are dropped
	inFlight    bool
	cancelFetch context.CancelFunc
	observers   map[int]chan domain.GalleryState
	versioned   map[int]chan VersionedState
	nextObsID   int
	closed      bool
}

// NewSession creates an idle session. pageSize <= 0 uses domain.DefaultPageSize.
func NewSession(id string, gateway domain.Gateway, pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:        id,
		gateway:   gateway,
		pageSize:  pageSize,
		ctx:       ctx,
		cancel:    cancel,
		state:     domain.NewGalleryState(),
		observers: make(map[int]chan domain.GalleryState),
		versioned: make(map[int]chan VersionedState),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns a copy of the current state.
func (s *Session) State() domain.GalleryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Version returns the number of mutations applied so far.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// VersionedState is a state paired with the mutation count that produced it.
type VersionedState struct {
	State   domain.GalleryState
	Version uint64
}

// Observe returns a channel carrying the latest state. The current state is
// available immediately. Observers that fall behind only skip intermediate
// states. The channel is closed when stop is called or the session closes.
func (s *Session) Observe() (<-chan domain.GalleryState, func()) {
	return observe(s, s.observers, func() domain.GalleryState { return s.state.Clone() })
}

// ObserveVersioned is Observe with each state tagged by its Version.
func (s *Session) ObserveVersioned() (<-chan VersionedState, func()) {
	return observe(s, s.versioned, s.versionedLocked)
}

func (s *Session) versionedLocked() VersionedState {
	return VersionedState{State: s.state.Clone(), Version: s.version}
}

func observe[T any](s *Session, observers map[int]chan T, current func() T) (<-chan T, func()) {
	ch := make(chan T, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextObsID
	s.nextObsID++
	observers[id] = ch
	ch <- current()
	s.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := observers[id]; ok {
				delete(observers, id)
				close(c)
			}
		})
	}
	return ch, stop
}

// Dispatch applies an intent. It never blocks on the network; effects are
// visible only through Observe and State.
func (s *Session) Dispatch(intent domain.Intent) {
	slog.Debug("Process intent", "session", s.id, "intent", intent)
	metrics.IntentsDispatched.WithLabelValues(intent.String()).Inc()

	switch intent {
	case domain.LoadImages, domain.RefreshImages:
		s.loadInitial()
	case domain.LoadMoreImages:
		s.loadMore()
	default:
		slog.Warn("Ignoring unknown intent", "session", s.id, "intent", intent)
	}
}

func (s *Session) loadInitial() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.inFlight {
		// A new load supersedes whatever is running.
		s.cancelFetch()
		s.inFlight = false
		s.state.IsLoadingMore = false
		metrics.FetchesSuperseded.Inc()
	}

	s.state.CurrentPage = 0
	s.state.Images = []domain.CatImage{}
	s.state.CanLoadMore = true
	s.publishLocked()

	s.startFetchLocked(0, false)
}

func (s *Session) loadMore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	st := s.state
	if st.IsLoading || st.IsLoadingMore || !st.CanLoadMore || s.inFlight {
		metrics.IntentsIgnored.WithLabelValues(domain.LoadMoreImages.String()).Inc()
		return
	}

	s.startFetchLocked(st.CurrentPage+1, true)
}

func (s *Session) startFetchLocked(page int, appendMode bool) {
	s.generation++
	gen := s.generation

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelFetch = cancel
	s.inFlight = true

	req := domain.NewPageRequest(s.pageSize, page)
	slog.Debug("Fetching cat images", "session", s.id, "page", page, "append", appendMode)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		outcomes := s.gateway.Fetch(ctx, req)
		for {
			select {
			case outcome, ok := <-outcomes:
				if !ok {
					s.finish(gen)
					return
				}
				s.apply(gen, page, appendMode, outcome)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// finish settles a fetch whose stream ended without a terminal outcome.
func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation || !s.inFlight {
		return
	}
	slog.Warn("Fetch ended without a result", "session", s.id)
	s.inFlight = false
	s.state.IsLoading = false
	s.state.IsLoadingMore = false
	s.publishLocked()
}

// apply merges one gateway outcome into the state.
func (s *Session) apply(gen uint64, page int, appendMode bool, outcome domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		return
	}

	switch outcome.Kind {
	case domain.OutcomeLoading:
		s.state.IsLoading = !appendMode
		s.state.IsLoadingMore = appendMode
		s.state.Error = ""

	case domain.OutcomeSuccess:
		slog.Info("Loaded cat images", "session", s.id, "count", len(outcome.Images), "page", page, "append", appendMode)
		s.state.IsLoading = false
		s.state.IsLoadingMore = false
		s.state.Error = ""
		if appendMode {
			merged := make([]domain.CatImage, 0, len(s.state.Images)+len(outcome.Images))
			merged = append(merged, s.state.Images...)
			s.state.Images = append(merged, outcome.Images...)
		} else {
			s.state.Images = append([]domain.CatImage{}, outcome.Images...)
		}
		s.state.CurrentPage = page
		// Never cleared here, even for a short or empty page.
		s.state.CanLoadMore = true
		s.inFlight = false

	case domain.OutcomeError:
		slog.Error("Error loading images", "session", s.id, "page", page, "append", appendMode, "error", outcome.Message)
		s.state.IsLoading = false
		s.state.IsLoadingMore = false
		s.state.Error = outcome.Message
		s.inFlight = false
	}

	s.publishLocked()
}

// publishLocked bumps the version and hands the new state to every observer,
// replacing any value the observer has not read yet.
func (s *Session) publishLocked() {
	s.version++
	for _, ch := range s.observers {
		replace(ch, s.state.Clone())
	}
	for _, ch := range s.versioned {
		replace(ch, s.versionedLocked())
	}
}

func replace[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}

// Close abandons any in-flight fetch, closes all observer channels and waits
// for fetch goroutines to exit or ctx to expire.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	for id, ch := range s.observers {
		delete(s.observers, id)
		close(ch)
	}
	for id, ch := range s.versioned {
		delete(s.versioned, id)
		close(ch)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
