// Package benchmarkthreshold stores the indicator value reached at each score of a benchmark version.
package benchmarkthreshold

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const (
	thresholdsTable = "elca.benchmark_thresholds"
	thresholdsView  = "elca.benchmark_thresholds_v"
)

var columns = []string{"id", "benchmark_version_id", "indicator_id", "score", "value"}

type BenchmarkThresholdRepository interface {
	Create(ctx context.Context, threshold *models.BenchmarkThreshold) (*models.BenchmarkThreshold, error)
	FindByID(ctx context.Context, id int64) (*models.BenchmarkThreshold, error)
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkThreshold, error)
	FindByVersionIDAndIndicatorIdent(ctx context.Context, versionID int64, ident string) ([]*models.BenchmarkThreshold, error)
	FindByVersionIDAndIndicatorIDAndScore(ctx context.Context, versionID, indicatorID int64, score int) (*models.BenchmarkThreshold, error)
	Update(ctx context.Context, threshold *models.BenchmarkThreshold) error
	Delete(ctx context.Context, id int64) error
	Copy(ctx context.Context, src *models.BenchmarkThreshold, newVersionID int64) (*models.BenchmarkThreshold, error)
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

func (r *Repository) Create(ctx context.Context, threshold *models.BenchmarkThreshold) (*models.BenchmarkThreshold, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkThresholdRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(threshold); err != nil {
		return nil, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(thresholdsTable).
		Cols("benchmark_version_id", "indicator_id", "score", "value").
		Values(threshold.BenchmarkVersionID, threshold.IndicatorID, threshold.Score, threshold.Value).
		Returning(columns...)

	query, args := ib.Build()

	created, err := repositories.Get[models.BenchmarkThreshold](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": threshold.BenchmarkVersionID,
		"indicator_id":         threshold.IndicatorID,
		"score":                threshold.Score,
	}, "failed to create benchmark threshold")
	if err != nil {
		return nil, err
	}
	created.IndicatorIdent = threshold.IndicatorIdent
	return created, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.BenchmarkThreshold, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkThresholdRepository.FindByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(append(columns, "indicator_ident")...).From(thresholdsView).Where(sb.Equal("id", id))

	query, args := sb.Build()

	return repositories.Get[models.BenchmarkThreshold](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_threshold_id": id}, "failed to get benchmark threshold")
}

func (r *Repository) FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkThreshold, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkThresholdRepository.FindByVersionID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(append(columns, "indicator_ident")...).
		From(thresholdsView).
		Where(sb.Equal("benchmark_version_id", versionID)).
		OrderBy("indicator_id", "score").Asc()

	query, args := sb.Build()

	return repositories.Select[models.BenchmarkThreshold](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": versionID}, "failed to list benchmark thresholds")
}

// FindByVersionIDAndIndicatorIdent returns the thresholds of one indicator, lowest score first.
func (r *Repository) FindByVersionIDAndIndicatorIdent(ctx context.Context, versionID int64, ident string) ([]*models.BenchmarkThreshold, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkThresholdRepository.FindByVersionIDAndIndicatorIdent")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(append(columns, "indicator_ident")...).
		From(thresholdsView).
		Where(
			sb.Equal("benchmark_version_id", versionID),
			sb.Equal("indicator_ident", ident),
		).
		OrderBy("score").Asc()

	query, args := sb.Build()

	return repositories.Select[models.BenchmarkThreshold](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": versionID,
		"indicator_ident":      ident,
	}, "failed to list benchmark thresholds by indicator")
}

func (r *Repository) FindByVersionIDAndIndicatorIDAndScore(ctx context.Context, versionID, indicatorID int64, score int) (*models.BenchmarkThreshold, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkThresholdRepository.FindByVersionIDAndIndicatorIDAndScore")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(append(columns, "indicator_ident")...).
		From(thresholdsView).
		Where(
			sb.Equal("benchmark_version_id", versionID),
			sb.Equal("indicator_id", indicatorID),
			sb.Equal("score", score),
		)

	query, args := sb.Build()

	return repositories.Get[models.BenchmarkThreshold](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": versionID,
		"indicator_id":         indicatorID,
		"score":                score,
	}, "failed to get benchmark threshold")
}

func (r *Repository) Update(ctx context.Context, threshold *models.BenchmarkThreshold) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkThresholdRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(thresholdsTable).
		Set(
			ub.Assign("score", threshold.Score),
			ub.Assign("value", threshold.Value),
		).
		Where(ub.Equal("id", threshold.ID))

	query, args := ub.Build()

	affected, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_threshold_id": threshold.ID}, "failed to update benchmark threshold")
	if err != nil {
		return err
	}
	if affected == 0 {
		return repositories.NotFound("benchmark threshold %d not found", threshold.ID)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkThresholdRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(thresholdsTable).Where(db.Equal("id", id))

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_threshold_id": id}, "failed to delete benchmark threshold")
	return err
}

// Copy re-creates src under newVersionID.
func (r *Repository) Copy(ctx context.Context, src *models.BenchmarkThreshold, newVersionID int64) (*models.BenchmarkThreshold, error) {
	if src == nil || newVersionID == 0 {
		return nil, nil
	}

	copied := *src
	copied.ID = 0
	copied.BenchmarkVersionID = newVersionID
	return r.Create(ctx, &copied)
}
