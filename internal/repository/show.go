package repository

import (
	"context"

	"aircheck/internal/model"
)

// ShowRepository defines data access for shows. The full station/show CRUD
// lives in the dashboard layer; the retention engine only needs to read a
// show's default policy and create the rows tests and ingest depend on.
type ShowRepository interface {
	Create(ctx context.Context, show *model.Show) (*model.Show, error)
	FindByID(ctx context.Context, id string) (*model.Show, error)
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Show], error)
}
