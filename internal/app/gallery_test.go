package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/CatGallery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway hands every Fetch call to the test, which decides what the
// stream emits and when.
type fakeGateway struct {
	mu       sync.Mutex
	requests []domain.PageRequest
	calls    chan *fakeCall
}

type fakeCall struct {
	ctx context.Context
	req domain.PageRequest
	out chan domain.Outcome
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: make(chan *fakeCall, 16)}
}

func (g *fakeGateway) Fetch(ctx context.Context, req domain.PageRequest) <-chan domain.Outcome {
	out := make(chan domain.Outcome, 2)
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	g.calls <- &fakeCall{ctx: ctx, req: req, out: out}
	return out
}

func (g *fakeGateway) requestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *fakeGateway) next(t *testing.T) *fakeCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(time.Second):
		t.Fatal("expected a gateway call")
		return nil
	}
}

func (g *fakeGateway) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-g.calls:
		t.Fatalf("unexpected gateway call for page %d", c.req.Page)
	case <-time.After(50 * time.Millisecond):
	}
}

func (c *fakeCall) loading() {
	c.out <- domain.Loading()
}

func (c *fakeCall) succeed(images ...domain.CatImage) {
	c.out <- domain.Success(images)
	close(c.out)
}

func (c *fakeCall) fail(msg string) {
	c.out <- domain.Failed(msg)
	close(c.out)
}

func img(id string) domain.CatImage {
	return domain.CatImage{ID: id, URL: "u" + id}
}

func waitForState(t *testing.T, s *Session, cond func(domain.GalleryState) bool) domain.GalleryState {
	t.Helper()
	require.Eventually(t, func() bool { return cond(s.State()) }, time.Second, 2*time.Millisecond)
	return s.State()
}

func settled(st domain.GalleryState) bool {
	return !st.IsLoading && !st.IsLoadingMore
}

func newTestSession(t *testing.T) (*Session, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway()
	s := NewSession("test", gw, 10)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s, gw
}

// loadFirstPage drives a session through a successful initial load.
func loadFirstPage(t *testing.T, s *Session, gw *fakeGateway, images ...domain.CatImage) {
	t.Helper()
	s.Dispatch(domain.LoadImages)
	call := gw.next(t)
	call.loading()
	call.succeed(images...)
	waitForState(t, s, func(st domain.GalleryState) bool {
		return settled(st) && st.CurrentPage == 0 && len(st.Images) == len(images)
	})
}

func TestSession_InitialState(t *testing.T) {
	s, gw := newTestSession(t)

	st := s.State()
	assert.False(t, st.IsLoading)
	assert.False(t, st.IsLoadingMore)
	assert.Empty(t, st.Images)
	assert.Equal(t, domain.NoPage, st.CurrentPage)
	assert.True(t, st.CanLoadMore)
	assert.False(t, st.HasError())
	assert.Equal(t, 0, gw.requestCount())
}

func TestSession_LoadImages_Success(t *testing.T) {
	s, gw := newTestSession(t)

	s.Dispatch(domain.LoadImages)
	call := gw.next(t)
	assert.Equal(t, domain.NewPageRequest(10, 0), call.req)

	call.loading()
	st := waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoading })
	assert.False(t, st.IsLoadingMore)

	call.succeed(img("1"), img("2"))
	st = waitForState(t, s, settled)

	assert.Equal(t, []domain.CatImage{{ID: "1", URL: "u1"}, {ID: "2", URL: "u2"}}, st.Images)
	assert.Equal(t, 0, st.CurrentPage)
	assert.Empty(t, st.Error)
	assert.True(t, st.CanLoadMore)
}

func TestSession_LoadImages_ReplacesPreviousImages(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"), img("2"), img("3"))

	s.Dispatch(domain.LoadImages)
	call := gw.next(t)
	call.loading()
	call.succeed(img("9"))

	st := waitForState(t, s, func(st domain.GalleryState) bool { return settled(st) && len(st.Images) == 1 })
	assert.Equal(t, []domain.CatImage{img("9")}, st.Images)
}

func TestSession_LoadMore_AppendsNextPage(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"), img("2"))

	s.Dispatch(domain.LoadMoreImages)
	call := gw.next(t)
	assert.Equal(t, domain.NewPageRequest(10, 1), call.req)

	call.loading()
	st := waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoadingMore })
	assert.False(t, st.IsLoading)
	assert.Len(t, st.Images, 2, "images stay visible while loading more")

	call.succeed(img("3"))
	st = waitForState(t, s, func(st domain.GalleryState) bool { return settled(st) && st.CurrentPage == 1 })

	assert.Equal(t, []domain.CatImage{img("1"), img("2"), img("3")}, st.Images)
	assert.Empty(t, st.Error)
}

func TestSession_LoadMore_KeepsDuplicates(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"), img("2"))

	s.Dispatch(domain.LoadMoreImages)
	call := gw.next(t)
	call.loading()
	call.succeed(img("2"), img("1"))

	st := waitForState(t, s, func(st domain.GalleryState) bool { return st.CurrentPage == 1 })
	assert.Equal(t, []domain.CatImage{img("1"), img("2"), img("2"), img("1")}, st.Images)
}

func TestSession_LoadMore_FailureKeepsPageForRetry(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"), img("2"))

	s.Dispatch(domain.LoadMoreImages)
	call := gw.next(t)
	call.loading()
	call.fail("network")

	st := waitForState(t, s, func(st domain.GalleryState) bool { return settled(st) && st.HasError() })
	assert.Equal(t, "network", st.Error)
	assert.Equal(t, 0, st.CurrentPage)
	assert.Equal(t, []domain.CatImage{img("1"), img("2")}, st.Images)

	// Retry asks for the same page and clears the error once loading starts.
	s.Dispatch(domain.LoadMoreImages)
	retry := gw.next(t)
	assert.Equal(t, 1, retry.req.Page)

	retry.loading()
	st = waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoadingMore })
	assert.Empty(t, st.Error)

	retry.succeed(img("3"))
	st = waitForState(t, s, func(st domain.GalleryState) bool { return st.CurrentPage == 1 })
	assert.Equal(t, []domain.CatImage{img("1"), img("2"), img("3")}, st.Images)
}

func TestSession_LoadMore_IgnoredWhileBusy(t *testing.T) {
	s, gw := newTestSession(t)

	s.Dispatch(domain.LoadImages)
	first := gw.next(t)

	// Fetch started but Loading not yet reported.
	before, version := s.State(), s.Version()
	s.Dispatch(domain.LoadMoreImages)
	gw.expectNoCall(t)
	assert.Equal(t, before, s.State())
	assert.Equal(t, version, s.Version())

	// First page loading.
	first.loading()
	waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoading })
	before, version = s.State(), s.Version()
	s.Dispatch(domain.LoadMoreImages)
	gw.expectNoCall(t)
	assert.Equal(t, before, s.State())
	assert.Equal(t, version, s.Version())

	first.succeed(img("1"))
	waitForState(t, s, settled)

	// Next page loading.
	s.Dispatch(domain.LoadMoreImages)
	more := gw.next(t)
	more.loading()
	waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoadingMore })
	before, version = s.State(), s.Version()
	s.Dispatch(domain.LoadMoreImages)
	gw.expectNoCall(t)
	assert.Equal(t, before, s.State())
	assert.Equal(t, version, s.Version())

	more.succeed(img("2"))
	waitForState(t, s, func(st domain.GalleryState) bool { return st.CurrentPage == 1 })
	assert.Equal(t, 2, gw.requestCount())
}

func TestSession_LoadMore_IgnoredWhenExhausted(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"))

	s.mu.Lock()
	s.state.CanLoadMore = false
	s.mu.Unlock()

	version := s.Version()
	s.Dispatch(domain.LoadMoreImages)
	gw.expectNoCall(t)
	assert.Equal(t, version, s.Version())
}

func TestSession_LoadMore_EmptyPageKeepsCanLoadMore(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"))

	// A short or empty page does not stop pagination; the next load-more
	// still goes out.
	s.Dispatch(domain.LoadMoreImages)
	call := gw.next(t)
	call.loading()
	call.succeed()

	st := waitForState(t, s, func(st domain.GalleryState) bool { return st.CurrentPage == 1 })
	assert.True(t, st.CanLoadMore)
	assert.Equal(t, []domain.CatImage{img("1")}, st.Images)

	s.Dispatch(domain.LoadMoreImages)
	assert.Equal(t, 2, gw.next(t).req.Page)
}

func TestSession_Refresh_ResetsBeforeFetching(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"), img("2"), img("3"), img("4"), img("5"))

	s.Dispatch(domain.LoadMoreImages)
	call := gw.next(t)
	call.loading()
	call.fail("boom")
	waitForState(t, s, func(st domain.GalleryState) bool { return st.HasError() && settled(st) })

	s.Dispatch(domain.RefreshImages)
	refresh := gw.next(t)
	assert.Equal(t, domain.NewPageRequest(10, 0), refresh.req)

	st := s.State()
	assert.Empty(t, st.Images)
	assert.Equal(t, 0, st.CurrentPage)
	assert.True(t, st.CanLoadMore)

	refresh.loading()
	st = waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoading })
	assert.Empty(t, st.Error)

	refresh.succeed(img("a"))
	st = waitForState(t, s, settled)
	assert.Equal(t, []domain.CatImage{img("a")}, st.Images)
	assert.Equal(t, 0, st.CurrentPage)
}

func TestSession_Refresh_ErrorLeavesNoImages(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"), img("2"))

	s.Dispatch(domain.RefreshImages)
	call := gw.next(t)
	call.loading()
	call.fail("No cat images found")

	st := waitForState(t, s, func(st domain.GalleryState) bool { return settled(st) && st.HasError() })
	assert.Empty(t, st.Images)
	assert.Equal(t, "No cat images found", st.Error)
	assert.Equal(t, 0, st.CurrentPage)
}

func TestSession_Refresh_SupersedesInFlightFetch(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"))

	s.Dispatch(domain.LoadMoreImages)
	stale := gw.next(t)
	stale.loading()
	waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoadingMore })

	s.Dispatch(domain.RefreshImages)
	fresh := gw.next(t)

	select {
	case <-stale.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("superseded fetch was not cancelled")
	}

	fresh.loading()
	st := waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoading })
	assert.False(t, st.IsLoadingMore)

	// The stale page arrives late and must not be merged.
	stale.succeed(img("stale"))
	fresh.succeed(img("x"), img("y"))

	st = waitForState(t, s, func(st domain.GalleryState) bool { return settled(st) && len(st.Images) == 2 })
	assert.Equal(t, []domain.CatImage{img("x"), img("y")}, st.Images)
	assert.Equal(t, 0, st.CurrentPage)
}

func TestSession_LoadingFlagsNeverBothTrue(t *testing.T) {
	s, gw := newTestSession(t)
	states, stop := s.Observe()
	defer stop()

	var seen []domain.GalleryState
	done := make(chan struct{})
	go func() {
		defer close(done)
		for st := range states {
			seen = append(seen, st)
		}
	}()

	loadFirstPage(t, s, gw, img("1"))

	s.Dispatch(domain.LoadMoreImages)
	more := gw.next(t)
	more.loading()
	waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoadingMore })

	s.Dispatch(domain.RefreshImages)
	refresh := gw.next(t)
	refresh.loading()
	more.fail("late")
	refresh.succeed(img("2"))
	waitForState(t, s, func(st domain.GalleryState) bool { return settled(st) && st.CurrentPage == 0 && len(st.Images) == 1 })

	stop()
	<-done

	require.NotEmpty(t, seen)
	for i, st := range seen {
		assert.False(t, st.IsLoading && st.IsLoadingMore, "state %d has both loading flags set", i)
	}
}

func TestSession_ObserveDeliversCurrentState(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"), img("2"))

	states, stop := s.Observe()
	defer stop()

	select {
	case st := <-states:
		assert.Len(t, st.Images, 2)
		assert.Equal(t, 0, st.CurrentPage)
	default:
		t.Fatal("current state should be immediately available")
	}
}

func TestSession_ObserveSnapshotsAreCopies(t *testing.T) {
	s, gw := newTestSession(t)
	loadFirstPage(t, s, gw, img("1"))

	states, stop := s.Observe()
	defer stop()
	st := <-states
	st.Images[0].ID = "mutated"

	assert.Equal(t, "1", s.State().Images[0].ID)
}

func TestSession_CloseDiscardsPendingResult(t *testing.T) {
	gw := newFakeGateway()
	s := NewSession("closing", gw, 10)
	states, _ := s.Observe()

	s.Dispatch(domain.LoadImages)
	call := gw.next(t)
	call.loading()
	waitForState(t, s, func(st domain.GalleryState) bool { return st.IsLoading })

	closed := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		closed <- s.Close(ctx)
	}()

	select {
	case <-call.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("in-flight fetch was not cancelled on close")
	}
	call.succeed(img("late"))
	require.NoError(t, <-closed)

	assert.Empty(t, s.State().Images, "result after close must be discarded")

	// Observer channel drains and closes.
	for range states {
	}

	s.Dispatch(domain.LoadImages)
	gw.expectNoCall(t)
}
