package repository

import (
	"context"
	"time"

	"aircheck/internal/model"
)

// RecordingRepository defines data access for recordings using SQL queries
// only. No business logic here — strictly persistence operations.
type RecordingRepository interface {
	// Create inserts a new recording record and returns the stored row.
	Create(ctx context.Context, rec *model.Recording) (*model.Recording, error)

	// FindByID returns a recording by its ID.
	FindByID(ctx context.Context, id string) (*model.Recording, error)

	// List returns a paginated list of recordings and a total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Recording], error)

	// UpdateRetention writes the override columns and materialized expiry in
	// one conditional update guarded by the version stamp. It returns
	// ErrVersionConflict if no row matched id+version.
	UpdateRetention(ctx context.Context, id string, override *model.RetentionPolicy, expiresAt *time.Time, version int64) error

	// ListExpired returns up to limit recordings whose expiry instant is at
	// or before now and that carry no live cleanup claim.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Recording, error)

	// ListExpiringWithin returns recordings whose expiry instant is strictly
	// after now and at or before until, ordered soonest first.
	ListExpiringWithin(ctx context.Context, now, until time.Time) ([]model.Recording, error)

	// Claim atomically leases an expired recording to a cleanup run. The
	// update succeeds only if the recording is still expired at now and is
	// either unclaimed or holds a lease that has itself expired. It reports
	// whether the claim was won; losing is not an error.
	Claim(ctx context.Context, id, claimID string, now, leaseUntil time.Time) (bool, error)

	// ReleaseClaim clears the lease if still held by claimID, so a future
	// cleanup run can retry the recording.
	ReleaseClaim(ctx context.Context, id, claimID string) error

	// DeleteClaimed removes the recording row, but only while the lease is
	// still held by claimID. Returns ErrNotClaimed otherwise.
	DeleteClaimed(ctx context.Context, id, claimID string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
