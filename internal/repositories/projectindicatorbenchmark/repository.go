// Package projectindicatorbenchmark stores the benchmark score a project variant reached per indicator.
package projectindicatorbenchmark

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const projectBenchmarksTable = "elca.project_indicator_benchmarks"

var columns = []string{"project_variant_id", "indicator_id", "benchmark"}

type ProjectIndicatorBenchmarkRepository interface {
	Save(ctx context.Context, benchmark *models.ProjectIndicatorBenchmark) error
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.ProjectIndicatorBenchmark, error)
	FindByProjectVariantIDAndIndicatorID(ctx context.Context, projectVariantID, indicatorID int64) (*models.ProjectIndicatorBenchmark, error)
	DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) error
	Copy(ctx context.Context, src *models.ProjectIndicatorBenchmark, newProjectVariantID int64) (*models.ProjectIndicatorBenchmark, error)
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

func (r *Repository) Save(ctx context.Context, benchmark *models.ProjectIndicatorBenchmark) error {
	ctx, span := tracing.StartSpan(ctx, "ProjectIndicatorBenchmarkRepository.Save")
	defer span.End()

	if err := utils.ValidateStruct(benchmark); err != nil {
		return err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(projectBenchmarksTable).
		Cols(columns...).
		Values(benchmark.ProjectVariantID, benchmark.IndicatorID, benchmark.Benchmark)
	ub := ib.OnConflict("project_variant_id", "indicator_id")
	ub.Set(ub.Assign("benchmark", database.Excluded("benchmark")))

	query, args := ib.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{
		"project_variant_id": benchmark.ProjectVariantID,
		"indicator_id":       benchmark.IndicatorID,
	}, "failed to save project indicator benchmark")
	return err
}

func (r *Repository) FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.ProjectIndicatorBenchmark, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectIndicatorBenchmarkRepository.FindByProjectVariantID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(projectBenchmarksTable).
		Where(sb.Equal("project_variant_id", projectVariantID)).
		OrderBy("indicator_id").Asc()

	query, args := sb.Build()

	return repositories.Select[models.ProjectIndicatorBenchmark](ctx, r.db, r.logger, query, args,
		map[string]any{"project_variant_id": projectVariantID}, "failed to list project indicator benchmarks")
}

func (r *Repository) FindByProjectVariantIDAndIndicatorID(ctx context.Context, projectVariantID, indicatorID int64) (*models.ProjectIndicatorBenchmark, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectIndicatorBenchmarkRepository.FindByProjectVariantIDAndIndicatorID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(projectBenchmarksTable).
		Where(
			sb.Equal("project_variant_id", projectVariantID),
			sb.Equal("indicator_id", indicatorID),
		)

	query, args := sb.Build()

	return repositories.Get[models.ProjectIndicatorBenchmark](ctx, r.db, r.logger, query, args, map[string]any{
		"project_variant_id": projectVariantID,
		"indicator_id":       indicatorID,
	}, "failed to get project indicator benchmark")
}

func (r *Repository) DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) error {
	ctx, span := tracing.StartSpan(ctx, "ProjectIndicatorBenchmarkRepository.DeleteByProjectVariantID")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(projectBenchmarksTable).Where(db.Equal("project_variant_id", projectVariantID))

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"project_variant_id": projectVariantID}, "failed to delete project indicator benchmarks")
	return err
}

func (r *Repository) Copy(ctx context.Context, src *models.ProjectIndicatorBenchmark, newProjectVariantID int64) (*models.ProjectIndicatorBenchmark, error) {
	if src == nil || newProjectVariantID == 0 {
		return nil, nil
	}

	copied := *src
	copied.ProjectVariantID = newProjectVariantID
	if err := r.Save(ctx, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}
