package mocks

import (
	"context"

	"aircheck/internal/model"
	"aircheck/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockShowService struct {
	mock.Mock
}

func (m *MockShowService) Create(ctx context.Context, name string, retentionValue int, retentionUnit model.TTLUnit) (*model.Show, error) {
	args := m.Called(ctx, name, retentionValue, retentionUnit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Show), args.Error(1)
}

func (m *MockShowService) Get(ctx context.Context, id string) (*model.Show, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Show), args.Error(1)
}

func (m *MockShowService) List(ctx context.Context, limit, offset int) (*service.ShowListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShowListResult), args.Error(1)
}
