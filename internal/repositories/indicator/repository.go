// Package indicator reads the indicator and life cycle reference tables.
package indicator

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
)

type IndicatorRepository interface {
	FindAll(ctx context.Context, includeHidden bool) ([]*models.Indicator, error)
	FindByIdent(ctx context.Context, ident string) (*models.Indicator, error)
	FindLifeCycles(ctx context.Context) ([]*models.LifeCycle, error)
}

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) FindAll(ctx context.Context, includeHidden bool) ([]*models.Indicator, error) {
	ctx, span := tracing.StartSpan(ctx, "IndicatorRepository.FindAll")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "ident", "name", "unit", "is_hidden", "p_order").From("elca.indicators")
	if !includeHidden {
		sb.Where("NOT is_hidden")
	}
	sb.OrderBy("p_order", "id").Asc()

	query, args := sb.Build()

	var indicators []*models.Indicator
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &indicators, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, nil, "failed to list indicators")
	}

	return indicators, nil
}

// FindByIdent returns the indicator with ident, or nil. Results are remembered per request.
func (r *Repository) FindByIdent(ctx context.Context, ident string) (*models.Indicator, error) {
	ctx, span := tracing.StartSpan(ctx, "IndicatorRepository.FindByIdent")
	defer span.End()

	return memo.GetOrFetch(ctx, memo.Key("indicator", ident), func(ctx context.Context) (*models.Indicator, error) {
		sb := database.NewSelectBuilder()
		sb.Select("id", "ident", "name", "unit", "is_hidden", "p_order").
			From("elca.indicators").
			Where(sb.Equal("ident", ident))

		query, args := sb.Build()

		var indicator models.Indicator
		err := database.Executor(ctx, r.db).GetContext(ctx, &indicator, query, args...)
		if repositories.IsNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"ident": ident}, "failed to get indicator")
		}
		return &indicator, nil
	})
}

func (r *Repository) FindLifeCycles(ctx context.Context) ([]*models.LifeCycle, error) {
	ctx, span := tracing.StartSpan(ctx, "IndicatorRepository.FindLifeCycles")
	defer span.End()

	query := `SELECT ident, name, phase, coalesce(description, '') AS description, p_order
FROM elca.life_cycles
ORDER BY p_order, ident`

	var lifeCycles []*models.LifeCycle
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &lifeCycles, query); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, nil, "failed to list life cycles")
	}

	return lifeCycles, nil
}
