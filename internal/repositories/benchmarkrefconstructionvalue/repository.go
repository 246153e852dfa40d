// Package benchmarkrefconstructionvalue stores the reference construction values of a benchmark version.
package benchmarkrefconstructionvalue

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const refConstructionValuesTable = "elca.benchmark_ref_construction_values"

type BenchmarkRefConstructionValueRepository interface {
	Save(ctx context.Context, value *models.BenchmarkRefConstructionValue) error
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkRefConstructionValue, error)
	FindByVersionIDAndIndicatorID(ctx context.Context, versionID, indicatorID int64) (*models.BenchmarkRefConstructionValue, error)
	Delete(ctx context.Context, versionID, indicatorID int64) error
	Copy(ctx context.Context, src *models.BenchmarkRefConstructionValue, newVersionID int64) (*models.BenchmarkRefConstructionValue, error)
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

// Save inserts the value or overwrites the one stored for the same version and indicator.
func (r *Repository) Save(ctx context.Context, value *models.BenchmarkRefConstructionValue) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkRefConstructionValueRepository.Save")
	defer span.End()

	if err := utils.ValidateStruct(value); err != nil {
		return err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(refConstructionValuesTable).
		Cols("benchmark_version_id", "indicator_id", "value").
		Values(value.BenchmarkVersionID, value.IndicatorID, repositories.NullFloat64(value.Value))
	ub := ib.OnConflict("benchmark_version_id", "indicator_id")
	ub.Set(ub.Assign("value", database.Excluded("value")))

	query, args := ib.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": value.BenchmarkVersionID,
		"indicator_id":         value.IndicatorID,
	}, "failed to save benchmark reference construction value")
	return err
}

func (r *Repository) FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkRefConstructionValue, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkRefConstructionValueRepository.FindByVersionID")
	defer span.End()

	query, args := database.Build(`SELECT v.benchmark_version_id, v.indicator_id, v.value, i.ident AS indicator_ident
FROM elca.benchmark_ref_construction_values v
    JOIN elca.indicators i ON i.id = v.indicator_id
WHERE v.benchmark_version_id = ${versionId}
ORDER BY i.p_order, i.id`, map[string]any{"versionId": versionID})

	return repositories.Select[models.BenchmarkRefConstructionValue](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": versionID}, "failed to list benchmark reference construction values")
}

func (r *Repository) FindByVersionIDAndIndicatorID(ctx context.Context, versionID, indicatorID int64) (*models.BenchmarkRefConstructionValue, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkRefConstructionValueRepository.FindByVersionIDAndIndicatorID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("benchmark_version_id", "indicator_id", "value").
		From(refConstructionValuesTable).
		Where(
			sb.Equal("benchmark_version_id", versionID),
			sb.Equal("indicator_id", indicatorID),
		)

	query, args := sb.Build()

	return repositories.Get[models.BenchmarkRefConstructionValue](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": versionID,
		"indicator_id":         indicatorID,
	}, "failed to get benchmark reference construction value")
}

func (r *Repository) Delete(ctx context.Context, versionID, indicatorID int64) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkRefConstructionValueRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(refConstructionValuesTable).
		Where(
			db.Equal("benchmark_version_id", versionID),
			db.Equal("indicator_id", indicatorID),
		)

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": versionID,
		"indicator_id":         indicatorID,
	}, "failed to delete benchmark reference construction value")
	return err
}

func (r *Repository) Copy(ctx context.Context, src *models.BenchmarkRefConstructionValue, newVersionID int64) (*models.BenchmarkRefConstructionValue, error) {
	if src == nil || newVersionID == 0 {
		return nil, nil
	}

	copied := *src
	copied.BenchmarkVersionID = newVersionID
	if err := r.Save(ctx, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}
