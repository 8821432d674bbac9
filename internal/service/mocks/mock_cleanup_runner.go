package mocks

import (
	"context"
	"time"

	"aircheck/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockCleanupRunner struct {
	mock.Mock
}

func (m *MockCleanupRunner) RunCleanup(ctx context.Context, now time.Time) (*service.CleanupResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CleanupResult), args.Error(1)
}
