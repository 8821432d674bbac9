package mocks

import (
	"context"

	"aircheck/internal/model"
	"aircheck/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockShowRepository struct {
	mock.Mock
}

func (m *MockShowRepository) Create(ctx context.Context, show *model.Show) (*model.Show, error) {
	args := m.Called(ctx, show)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Show), args.Error(1)
}

func (m *MockShowRepository) FindByID(ctx context.Context, id string) (*model.Show, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Show), args.Error(1)
}

func (m *MockShowRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Show], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Show]), args.Error(1)
}
