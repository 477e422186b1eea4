package mocks

import (
	"context"

	"github.com/CatGallery/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSnapshotPublisher struct {
	mock.Mock
}

var _ domain.SnapshotPublisher = (*MockSnapshotPublisher)(nil)

func (m *MockSnapshotPublisher) Publish(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
