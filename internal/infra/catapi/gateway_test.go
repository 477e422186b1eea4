package catapi

import (
	"context"
	"testing"

	"github.com/CatGallery/internal/domain"
	"github.com/CatGallery/internal/infra/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchPage(ctx context.Context, req domain.PageRequest) ([]domain.CatImage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CatImage), args.Error(1)
}

func collect(ch <-chan domain.Outcome) []domain.Outcome {
	var outcomes []domain.Outcome
	for o := range ch {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func TestGateway_Fetch_Success(t *testing.T) {
	fetcher := new(MockFetcher)
	images := []domain.CatImage{{ID: "1", URL: "u1"}}
	fetcher.On("FetchPage", mock.Anything, domain.NewPageRequest(10, 0)).Return(images, nil).Once()

	outcomes := collect(NewGateway(fetcher, nil).Fetch(context.Background(), domain.NewPageRequest(10, 0)))

	assert.Equal(t, []domain.Outcome{domain.Loading(), domain.Success(images)}, outcomes)
	fetcher.AssertExpectations(t)
}

func TestGateway_Fetch_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty", ErrEmptyResult, "No cat images found"},
		{"http", &HTTPError{StatusCode: 503}, "Failed to fetch cat images: 503"},
		{"network", &NetworkError{Err: context.DeadlineExceeded}, "Network error. Please check your internet connection"},
		{"unexpected", &UnexpectedError{Err: assert.AnError}, "An unexpected error occurred: " + assert.AnError.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := new(MockFetcher)
			fetcher.On("FetchPage", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			outcomes := collect(NewGateway(fetcher, nil).Fetch(context.Background(), domain.NewPageRequest(10, 1)))

			assert.Equal(t, []domain.Outcome{domain.Loading(), domain.Failed(tt.want)}, outcomes)
			fetcher.AssertNumberOfCalls(t, "FetchPage", 1)
		})
	}
}

func TestGateway_Fetch_CancelledIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := new(MockFetcher)
	fetcher.On("FetchPage", mock.Anything, mock.Anything).
		Return(nil, &UnexpectedError{Err: context.Canceled}).Once()

	unexpectedBefore := testutil.ToFloat64(metrics.FetchOutcomes.WithLabelValues(string(ClassUnexpected)))
	cancelledBefore := testutil.ToFloat64(metrics.FetchOutcomes.WithLabelValues(outcomeCancelled))

	outcomes := collect(NewGateway(fetcher, nil).Fetch(ctx, domain.NewPageRequest(10, 2)))

	assert.Len(t, outcomes, 2)
	assert.Equal(t, domain.OutcomeError, outcomes[1].Kind)
	assert.Equal(t, unexpectedBefore, testutil.ToFloat64(metrics.FetchOutcomes.WithLabelValues(string(ClassUnexpected))))
	assert.Equal(t, cancelledBefore+1, testutil.ToFloat64(metrics.FetchOutcomes.WithLabelValues(outcomeCancelled)))
}

func TestGateway_Fetch_CountsOutcomeClass(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchPage", mock.Anything, mock.Anything).Return(nil, &HTTPError{StatusCode: 500}).Once()

	before := testutil.ToFloat64(metrics.FetchOutcomes.WithLabelValues(string(ClassHTTP)))
	collect(NewGateway(fetcher, nil).Fetch(context.Background(), domain.NewPageRequest(10, 0)))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.FetchOutcomes.WithLabelValues(string(ClassHTTP))))
}
