// Package benchmarkrefprocessconfig stores the reference process configs (heating, electricity, process energy) of a benchmark version.
package benchmarkrefprocessconfig

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const refProcessConfigsTable = "elca.benchmark_ref_process_configs"

var columns = []string{"benchmark_version_id", "ident", "process_config_id"}

type BenchmarkRefProcessConfigRepository interface {
	Save(ctx context.Context, config *models.BenchmarkRefProcessConfig) error
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkRefProcessConfig, error)
	FindByVersionIDAndIdent(ctx context.Context, versionID int64, ident string) (*models.BenchmarkRefProcessConfig, error)
	Delete(ctx context.Context, versionID int64, ident string) error
	Copy(ctx context.Context, src *models.BenchmarkRefProcessConfig, newVersionID int64) (*models.BenchmarkRefProcessConfig, error)
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

func (r *Repository) Save(ctx context.Context, config *models.BenchmarkRefProcessConfig) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkRefProcessConfigRepository.Save")
	defer span.End()

	if err := utils.ValidateStruct(config); err != nil {
		return err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(refProcessConfigsTable).
		Cols(columns...).
		Values(config.BenchmarkVersionID, config.Ident, config.ProcessConfigID)
	ub := ib.OnConflict("benchmark_version_id", "ident")
	ub.Set(ub.Assign("process_config_id", database.Excluded("process_config_id")))

	query, args := ib.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": config.BenchmarkVersionID,
		"ident":                config.Ident,
	}, "failed to save benchmark reference process config")
	return err
}

func (r *Repository) FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkRefProcessConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkRefProcessConfigRepository.FindByVersionID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(refProcessConfigsTable).
		Where(sb.Equal("benchmark_version_id", versionID)).
		OrderBy("ident").Asc()

	query, args := sb.Build()

	return repositories.Select[models.BenchmarkRefProcessConfig](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": versionID}, "failed to list benchmark reference process configs")
}

func (r *Repository) FindByVersionIDAndIdent(ctx context.Context, versionID int64, ident string) (*models.BenchmarkRefProcessConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkRefProcessConfigRepository.FindByVersionIDAndIdent")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(refProcessConfigsTable).
		Where(
			sb.Equal("benchmark_version_id", versionID),
			sb.Equal("ident", ident),
		)

	query, args := sb.Build()

	return repositories.Get[models.BenchmarkRefProcessConfig](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": versionID,
		"ident":                ident,
	}, "failed to get benchmark reference process config")
}

func (r *Repository) Delete(ctx context.Context, versionID int64, ident string) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkRefProcessConfigRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(refProcessConfigsTable).
		Where(
			db.Equal("benchmark_version_id", versionID),
			db.Equal("ident", ident),
		)

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": versionID,
		"ident":                ident,
	}, "failed to delete benchmark reference process config")
	return err
}

func (r *Repository) Copy(ctx context.Context, src *models.BenchmarkRefProcessConfig, newVersionID int64) (*models.BenchmarkRefProcessConfig, error) {
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
