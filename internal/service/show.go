package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aircheck/internal/model"
	"aircheck/internal/repository"
)

// ShowListResult is the service-level DTO for paginated shows.
type ShowListResult struct {
	Items []model.Show `json:"data"`
	Total int          `json:"total"`
}

// ShowService covers the minimal show management the retention engine
// depends on; the rest of the show/station CRUD belongs to the dashboard.
type ShowService interface {
	// Create persists a show with its default retention policy, which
	// governs every recording of the show that carries no override.
	Create(ctx context.Context, name string, retentionValue int, retentionUnit model.TTLUnit) (*model.Show, error)
	Get(ctx context.Context, id string) (*model.Show, error)
	List(ctx context.Context, limit, offset int) (*ShowListResult, error)
}

type showService struct {
	shows repository.ShowRepository
}

// NewShowService constructs a new ShowService.
func NewShowService(shows repository.ShowRepository) ShowService {
	return &showService{shows: shows}
}

func (s *showService) Create(ctx context.Context, name string, retentionValue int, retentionUnit model.TTLUnit) (*model.Show, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	if retentionValue < 0 || retentionValue > maxOverrideValue {
		return nil, fmt.Errorf("%w: value %d out of range [0, %d]", ErrInvalidTTL, retentionValue, maxOverrideValue)
	}
	switch retentionUnit {
	case model.UnitDays, model.UnitWeeks, model.UnitMonths, model.UnitIndefinite:
	default:
		return nil, fmt.Errorf("%w: unknown unit %q", ErrInvalidTTL, retentionUnit)
	}

	show := &model.Show{
		ID:               uuid.New().String(),
		Name:             name,
		DefaultRetention: model.RetentionPolicy{Value: retentionValue, Unit: retentionUnit},
		CreatedAt:        time.Now().UTC(),
	}
	return s.shows.Create(ctx, show)
}

func (s *showService) Get(ctx context.Context, id string) (*model.Show, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	show, err := s.shows.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return show, nil
}

func (s *showService) List(ctx context.Context, limit, offset int) (*ShowListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.shows.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ShowListResult{Items: res.Items, Total: res.Total}, nil
}
