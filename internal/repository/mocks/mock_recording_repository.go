package mocks

import (
	"context"
	"time"

	"aircheck/internal/model"
	"aircheck/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockRecordingRepository struct {
	mock.Mock
}

func (m *MockRecordingRepository) Create(ctx context.Context, rec *model.Recording) (*model.Recording, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recording), args.Error(1)
}

func (m *MockRecordingRepository) FindByID(ctx context.Context, id string) (*model.Recording, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recording), args.Error(1)
}

func (m *MockRecordingRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Recording], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Recording]), args.Error(1)
}

func (m *MockRecordingRepository) UpdateRetention(ctx context.Context, id string, override *model.RetentionPolicy, expiresAt *time.Time, version int64) error {
	args := m.Called(ctx, id, override, expiresAt, version)
	return args.Error(0)
}

func (m *MockRecordingRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Recording, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recording), args.Error(1)
}

func (m *MockRecordingRepository) ListExpiringWithin(ctx context.Context, now, until time.Time) ([]model.Recording, error) {
	args := m.Called(ctx, now, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recording), args.Error(1)
}

func (m *MockRecordingRepository) Claim(ctx context.Context, id, claimID string, now, leaseUntil time.Time) (bool, error) {
	args := m.Called(ctx, id, claimID, now, leaseUntil)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecordingRepository) ReleaseClaim(ctx context.Context, id, claimID string) error {
	args := m.Called(ctx, id, claimID)
	return args.Error(0)
}

func (m *MockRecordingRepository) DeleteClaimed(ctx context.Context, id, claimID string) error {
	args := m.Called(ctx, id, claimID)
	return args.Error(0)
}
