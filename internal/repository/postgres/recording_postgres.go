package postgres

import (
	"context"
	"database/sql"
	"time"

	"aircheck/internal/model"
	"aircheck/internal/repository"
)

// RecordingPostgres is a PostgreSQL implementation of
// repository.RecordingRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type RecordingPostgres struct {
	db *sql.DB
}

// NewRecordingPostgres creates a new RecordingPostgres repository.
func NewRecordingPostgres(db *sql.DB) *RecordingPostgres {
	return &RecordingPostgres{db: db}
}

var _ repository.RecordingRepository = (*RecordingPostgres)(nil)

const recordingColumns = `id, show_id, title, storage_path, size, content_type, recorded_at, ttl_value, ttl_unit, expires_at, version`

// scanRecording maps one row onto a model.Recording, folding the nullable
// override and expiry columns into their pointer forms.
func scanRecording(row interface{ Scan(dest ...any) error }) (*model.Recording, error) {
	var (
		rec       model.Recording
		ttlValue  sql.NullInt64
		ttlUnit   sql.NullString
		expiresAt sql.NullTime
	)
	if err := row.Scan(
		&rec.ID,
		&rec.ShowID,
		&rec.Title,
		&rec.StoragePath,
		&rec.Size,
		&rec.ContentType,
		&rec.RecordedAt,
		&ttlValue,
		&ttlUnit,
		&expiresAt,
		&rec.Version,
	); err != nil {
		return nil, err
	}
	if ttlValue.Valid && ttlUnit.Valid {
		rec.TTLOverride = &model.RetentionPolicy{
			Value: int(ttlValue.Int64),
			Unit:  model.TTLUnit(ttlUnit.String),
		}
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		rec.ExpiresAt = &t
	}
	return &rec, nil
}

func overrideColumns(p *model.RetentionPolicy) (sql.NullInt64, sql.NullString) {
	if p == nil {
		return sql.NullInt64{}, sql.NullString{}
	}
	return sql.NullInt64{Int64: int64(p.Value), Valid: true},
		sql.NullString{String: string(p.Unit), Valid: true}
}

func expiryColumn(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create inserts a new recording row and returns the stored record.
func (r *RecordingPostgres) Create(ctx context.Context, rec *model.Recording) (*model.Recording, error) {
	const q = `
		INSERT INTO recordings (id, show_id, title, storage_path, size, content_type, recorded_at, ttl_value, ttl_unit, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + recordingColumns
	ttlValue, ttlUnit := overrideColumns(rec.TTLOverride)
	row := r.db.QueryRowContext(ctx, q,
		rec.ID,
		rec.ShowID,
		rec.Title,
		rec.StoragePath,
		rec.Size,
		rec.ContentType,
		rec.RecordedAt,
		ttlValue,
		ttlUnit,
		expiryColumn(rec.ExpiresAt),
	)
	return scanRecording(row)
}

// FindByID fetches a single recording by its ID.
func (r *RecordingPostgres) FindByID(ctx context.Context, id string) (*model.Recording, error) {
	const q = `
		SELECT ` + recordingColumns + `
		FROM recordings
		WHERE id = $1
	`
	return scanRecording(r.db.QueryRowContext(ctx, q, id))
}

// List returns recordings using LIMIT/OFFSET pagination and a total count.
func (r *RecordingPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Recording], error) {
	const qCount = `SELECT COUNT(*) FROM recordings`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + recordingColumns + `
		FROM recordings
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectRecordings(rows)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Recording]{Items: items, Total: total}, nil
}

// UpdateRetention performs the version-guarded write of the override and
// materialized expiry columns. Zero rows affected means the stamp moved
// under us (or the row is gone) and surfaces as ErrVersionConflict.
func (r *RecordingPostgres) UpdateRetention(ctx context.Context, id string, override *model.RetentionPolicy, expiresAt *time.Time, version int64) error {
	const q = `
		UPDATE recordings
		SET ttl_value = $1, ttl_unit = $2, expires_at = $3, version = version + 1
		WHERE id = $4 AND version = $5
	`
	ttlValue, ttlUnit := overrideColumns(override)
	res, err := r.db.ExecContext(ctx, q, ttlValue, ttlUnit, expiryColumn(expiresAt), id, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}

// ListExpired selects cleanup candidates: expired at now, with no live lease.
func (r *RecordingPostgres) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Recording, error) {
	const q = `
		SELECT ` + recordingColumns + `
		FROM recordings
		WHERE expires_at IS NOT NULL
		  AND expires_at <= $1
		  AND (claimed_by IS NULL OR claim_expires_at <= $1)
		ORDER BY expires_at ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecordings(rows)
}

// ListExpiringWithin selects recordings still active at now but expiring by until.
func (r *RecordingPostgres) ListExpiringWithin(ctx context.Context, now, until time.Time) ([]model.Recording, error) {
	const q = `
		SELECT ` + recordingColumns + `
		FROM recordings
		WHERE expires_at IS NOT NULL
		  AND expires_at > $1
		  AND expires_at <= $2
		ORDER BY expires_at ASC
	`
	rows, err := r.db.QueryContext(ctx, q, now, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecordings(rows)
}

// Claim leases an expired recording to one cleanup run. The condition
// re-validates expiry at now so a recording whose policy changed since
// selection is not claimed, and allows taking over a lease whose own
// expiry has passed (orphaned by a crashed run).
func (r *RecordingPostgres) Claim(ctx context.Context, id, claimID string, now, leaseUntil time.Time) (bool, error) {
	const q = `
		UPDATE recordings
		SET claimed_by = $1, claim_expires_at = $2
		WHERE id = $3
		  AND expires_at IS NOT NULL
		  AND expires_at <= $4
		  AND (claimed_by IS NULL OR claim_expires_at <= $4)
	`
	res, err := r.db.ExecContext(ctx, q, claimID, leaseUntil, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseClaim clears the lease if still held by claimID.
func (r *RecordingPostgres) ReleaseClaim(ctx context.Context, id, claimID string) error {
	const q = `
		UPDATE recordings
		SET claimed_by = NULL, claim_expires_at = NULL
		WHERE id = $1 AND claimed_by = $2
	`
	_, err := r.db.ExecContext(ctx, q, id, claimID)
	return err
}

// DeleteClaimed removes the metadata row while the lease is held.
func (r *RecordingPostgres) DeleteClaimed(ctx context.Context, id, claimID string) error {
	const q = `DELETE FROM recordings WHERE id = $1 AND claimed_by = $2`
	res, err := r.db.ExecContext(ctx, q, id, claimID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotClaimed
	}
	return nil
}

func collectRecordings(rows *sql.Rows) ([]model.Recording, error) {
	items := make([]model.Recording, 0)
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
