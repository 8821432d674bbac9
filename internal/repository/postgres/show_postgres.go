package postgres

import (
	"context"
	"database/sql"

	"aircheck/internal/model"
	"aircheck/internal/repository"
)

// ShowPostgres is a PostgreSQL implementation of repository.ShowRepository.
type ShowPostgres struct {
	db *sql.DB
}

// NewShowPostgres creates a new ShowPostgres repository.
func NewShowPostgres(db *sql.DB) *ShowPostgres {
	return &ShowPostgres{db: db}
}

var _ repository.ShowRepository = (*ShowPostgres)(nil)

const showColumns = `id, name, retention_value, retention_unit, created_at`

func scanShow(row interface{ Scan(dest ...any) error }) (*model.Show, error) {
	var (
		s    model.Show
		unit string
	)
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.DefaultRetention.Value,
		&unit,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.DefaultRetention.Unit = model.TTLUnit(unit)
	return &s, nil
}

// Create inserts a new show row and returns the stored record.
func (r *ShowPostgres) Create(ctx context.Context, show *model.Show) (*model.Show, error) {
	const q = `
		INSERT INTO shows (id, name, retention_value, retention_unit, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + showColumns
	row := r.db.QueryRowContext(ctx, q,
		show.ID,
		show.Name,
		show.DefaultRetention.Value,
		string(show.DefaultRetention.Unit),
		show.CreatedAt,
	)
	return scanShow(row)
}

// FindByID fetches a single show by its ID.
func (r *ShowPostgres) FindByID(ctx context.Context, id string) (*model.Show, error) {
	const q = `
		SELECT ` + showColumns + `
		FROM shows
		WHERE id = $1
	`
	return scanShow(r.db.QueryRowContext(ctx, q, id))
}

// List returns shows using LIMIT/OFFSET pagination and a total count.
func (r *ShowPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Show], error) {
	const qCount = `SELECT COUNT(*) FROM shows`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + showColumns + `
		FROM shows
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Show, 0)
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Show]{Items: items, Total: total}, nil
}
