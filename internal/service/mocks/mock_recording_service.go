package mocks

import (
	"context"
	"io"
	"time"

	"aircheck/internal/model"
	"aircheck/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockRecordingService struct {
	mock.Mock
}

func (m *MockRecordingService) Ingest(ctx context.Context, r io.Reader, showID, title, contentType string, size int64, recordedAt time.Time) (*model.Recording, error) {
	args := m.Called(ctx, r, showID, title, contentType, size, recordedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recording), args.Error(1)
}

func (m *MockRecordingService) Get(ctx context.Context, id string, now time.Time) (*service.RecordingView, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecordingView), args.Error(1)
}

func (m *MockRecordingService) List(ctx context.Context, limit, offset int, now time.Time) (*service.RecordingListResult, error) {
	args := m.Called(ctx, limit, offset, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecordingListResult), args.Error(1)
}

func (m *MockRecordingService) Download(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockRecordingService) SetOverride(ctx context.Context, id string, value int, unit model.TTLUnit) (*model.Recording, error) {
	args := m.Called(ctx, id, value, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recording), args.Error(1)
}

func (m *MockRecordingService) RevertToDefault(ctx context.Context, id string) (*model.Recording, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recording), args.Error(1)
}

func (m *MockRecordingService) Extend(ctx context.Context, id string, additionalDays int) (*model.Recording, error) {
	args := m.Called(ctx, id, additionalDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recording), args.Error(1)
}

func (m *MockRecordingService) ExpiringWithin(ctx context.Context, windowDays int, now time.Time) ([]service.RecordingView, error) {
	args := m.Called(ctx, windowDays, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.RecordingView), args.Error(1)
}
