package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"aircheck/internal/model"
	"aircheck/internal/repository"
	"aircheck/internal/retention"
	"aircheck/internal/storage"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("recording not found")
	ErrShowNotFound = errors.New("show not found")
	ErrReaderNil    = errors.New("reader is nil")

	// ErrInvalidTTL is a caller error: the override value or unit is outside
	// the allowed range. Not retryable.
	ErrInvalidTTL = errors.New("invalid ttl")

	// ErrNotExtendable is a caller error: a recording with no expiry cannot
	// be extended.
	ErrNotExtendable = errors.New("recording never expires and cannot be extended")

	// ErrConcurrentModification means a retention write lost a race against
	// another mutation of the same recording. Callers should retry.
	ErrConcurrentModification = errors.New("concurrent modification")
)

const (
	minOverrideValue = 1
	maxOverrideValue = 3650
	maxExtendDays    = 365

	downloadURLExpiry = 15 * time.Minute
)

// RecordingView is the service-level DTO for a recording enriched with its
// expiry bucket, ready for rendering by the dashboard.
type RecordingView struct {
	model.Recording
	Expiry       retention.Expiry `json:"expiry"`
	ExpiryBucket string           `json:"expiry_bucket"`
}

// RecordingListResult is the service-level DTO for paginated recordings.
type RecordingListResult struct {
	Items []RecordingView `json:"data"`
	Total int             `json:"total"`
}

// RecordingService defines the use cases for recorded audio artifacts:
// ingest at capture time, read access for the dashboard, and the retention
// (TTL) mutation operations.
type RecordingService interface {
	// Ingest uploads captured audio to object storage, resolves the initial
	// expiry from the owning show's default policy, and persists the
	// metadata row. Storage is rolled back if the DB save fails.
	Ingest(ctx context.Context, r io.Reader, showID, title, contentType string, size int64, recordedAt time.Time) (*model.Recording, error)

	// Get returns a single recording with its expiry bucket at now.
	Get(ctx context.Context, id string, now time.Time) (*RecordingView, error)

	// List returns recordings with expiry buckets using limit/offset and a
	// total count.
	List(ctx context.Context, limit, offset int, now time.Time) (*RecordingListResult, error)

	// Download returns a time-limited URL for the recording's audio blob.
	Download(ctx context.Context, id string) (string, error)

	// SetOverride stores a per-recording TTL superseding the show default
	// and re-resolves the materialized expiry. The value must lie in
	// [1, 3650] for finite units.
	SetOverride(ctx context.Context, id string, value int, unit model.TTLUnit) (*model.Recording, error)

	// RevertToDefault clears the override and recomputes the expiry from the
	// current show default. Idempotent if already unoverridden.
	RevertToDefault(ctx context.Context, id string) (*model.Recording, error)

	// Extend advances the materialized expiry by additionalDays in [1, 365]
	// without touching the stored override, so a later revert or override
	// discards the extension. Fails with ErrNotExtendable on an indefinite
	// recording.
	Extend(ctx context.Context, id string, additionalDays int) (*model.Recording, error)

	// ExpiringWithin returns recordings still active at now whose remaining
	// lifetime is at most windowDays, soonest first. Consistent with the
	// classifier: no returned recording classifies as expired or never.
	ExpiringWithin(ctx context.Context, windowDays int, now time.Time) ([]RecordingView, error)
}

// recordingService is a concrete implementation of RecordingService.
type recordingService struct {
	store storage.Storage
	recs  repository.RecordingRepository
	shows repository.ShowRepository
}

// NewRecordingService constructs a new RecordingService.
func NewRecordingService(store storage.Storage, recs repository.RecordingRepository, shows repository.ShowRepository) RecordingService {
	return &recordingService{store: store, recs: recs, shows: shows}
}

func (s *recordingService) Ingest(ctx context.Context, r io.Reader, showID, title, contentType string, size int64, recordedAt time.Time) (*model.Recording, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if showID == "" {
		return nil, ErrIDRequired
	}
	show, err := s.shows.FindByID(ctx, showID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}

	id := uuid.New().String()
	key := path.Join("recordings", id+".mp3")

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"show-id": showID,
			"title":   title,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	rec := &model.Recording{
		ID:          id,
		ShowID:      showID,
		Title:       title,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
		RecordedAt:  recordedAt.UTC(),
	}
	rec.ExpiresAt = retention.Resolve(rec, show)

	stored, err := s.recs.Create(ctx, rec)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil && !errors.Is(delErr, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *recordingService) Get(ctx context.Context, id string, now time.Time) (*RecordingView, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	rec, err := s.recs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v := newView(*rec, now)
	return &v, nil
}

func (s *recordingService) List(ctx context.Context, limit, offset int, now time.Time) (*RecordingListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.recs.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := make([]RecordingView, 0, len(res.Items))
	for _, rec := range res.Items {
		items = append(items, newView(rec, now))
	}
	return &RecordingListResult{Items: items, Total: res.Total}, nil
}

func (s *recordingService) Download(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	rec, err := s.recs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return s.store.PresignGet(ctx, rec.StoragePath, downloadURLExpiry)
}

func (s *recordingService) SetOverride(ctx context.Context, id string, value int, unit model.TTLUnit) (*model.Recording, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if unit != model.UnitIndefinite && (value < minOverrideValue || value > maxOverrideValue) {
		return nil, fmt.Errorf("%w: value %d out of range [%d, %d]", ErrInvalidTTL, value, minOverrideValue, maxOverrideValue)
	}
	switch unit {
	case model.UnitDays, model.UnitWeeks, model.UnitMonths, model.UnitIndefinite:
	default:
		return nil, fmt.Errorf("%w: unknown unit %q", ErrInvalidTTL, unit)
	}

	override := &model.RetentionPolicy{Value: value, Unit: unit}
	return s.applyRetention(ctx, id, func(rec *model.Recording, show *model.Show) (*model.RetentionPolicy, *time.Time, error) {
		rec.TTLOverride = override
		return override, retention.Resolve(rec, show), nil
	})
}

func (s *recordingService) RevertToDefault(ctx context.Context, id string) (*model.Recording, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	return s.applyRetention(ctx, id, func(rec *model.Recording, show *model.Show) (*model.RetentionPolicy, *time.Time, error) {
		rec.TTLOverride = nil
		return nil, retention.Resolve(rec, show), nil
	})
}

func (s *recordingService) Extend(ctx context.Context, id string, additionalDays int) (*model.Recording, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if additionalDays < 1 || additionalDays > maxExtendDays {
		return nil, fmt.Errorf("%w: additional days %d out of range [1, %d]", ErrInvalidTTL, additionalDays, maxExtendDays)
	}
	return s.applyRetention(ctx, id, func(rec *model.Recording, _ *model.Show) (*model.RetentionPolicy, *time.Time, error) {
		if rec.ExpiresAt == nil {
			return nil, nil, ErrNotExtendable
		}
		// The override (or its absence) stays as stored; only the
		// materialized expiry advances.
		extended := rec.ExpiresAt.AddDate(0, 0, additionalDays)
		return rec.TTLOverride, &extended, nil
	})
}

func (s *recordingService) ExpiringWithin(ctx context.Context, windowDays int, now time.Time) ([]RecordingView, error) {
	if windowDays < 1 {
		return nil, fmt.Errorf("%w: window days %d must be positive", ErrInvalidTTL, windowDays)
	}
	until := now.AddDate(0, 0, windowDays)
	items, err := s.recs.ListExpiringWithin(ctx, now, until)
	if err != nil {
		return nil, err
	}
	views := make([]RecordingView, 0, len(items))
	for _, rec := range items {
		v := newView(rec, now)
		if v.Expiry.State != retention.StateActive {
			// The query window and the classifier agree by construction;
			// skip defensively if a row slid past the boundary mid-query.
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// applyRetention runs one serialized retention mutation: read the recording
// and its show, compute the new override/expiry pair, and write it back
// guarded by the version stamp read. A lost race surfaces as
// ErrConcurrentModification for the caller to retry.
func (s *recordingService) applyRetention(ctx context.Context, id string, compute func(rec *model.Recording, show *model.Show) (*model.RetentionPolicy, *time.Time, error)) (*model.Recording, error) {
	rec, err := s.recs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	show, err := s.shows.FindByID(ctx, rec.ShowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}

	override, expiresAt, err := compute(rec, show)
	if err != nil {
		return nil, err
	}

	if err := s.recs.UpdateRetention(ctx, id, override, expiresAt, rec.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}

	rec.TTLOverride = override
	rec.ExpiresAt = expiresAt
	rec.Version++
	return rec, nil
}

func newView(rec model.Recording, now time.Time) RecordingView {
	exp := retention.Classify(rec.ExpiresAt, now)
	return RecordingView{
		Recording:    rec,
		Expiry:       exp,
		ExpiryBucket: exp.Bucket(),
	}
}
