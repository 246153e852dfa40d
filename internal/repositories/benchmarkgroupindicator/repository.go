// Package benchmarkgroupindicator assigns indicators to benchmark groups.
package benchmarkgroupindicator

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const groupIndicatorsTable = "elca.benchmark_group_indicators"

type BenchmarkGroupIndicatorRepository interface {
	Create(ctx context.Context, groupIndicator *models.BenchmarkGroupIndicator) error
	FindByGroupID(ctx context.Context, groupID int64) ([]*models.BenchmarkGroupIndicator, error)
	FindByVersionIDAndIndicatorIdent(ctx context.Context, versionID int64, ident string) ([]*models.BenchmarkGroupIndicator, error)
	DeleteByGroupID(ctx context.Context, groupID int64) error
	Copy(ctx context.Context, src *models.BenchmarkGroupIndicator, newGroupID int64) (*models.BenchmarkGroupIndicator, error)
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

func (r *Repository) Create(ctx context.Context, groupIndicator *models.BenchmarkGroupIndicator) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupIndicatorRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(groupIndicator); err != nil {
		return err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(groupIndicatorsTable).
		Cols("group_id", "indicator_id").
		Values(groupIndicator.GroupID, groupIndicator.IndicatorID).
		OnConflictDoNothing()

	query, args := ib.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{
		"group_id":     groupIndicator.GroupID,
		"indicator_id": groupIndicator.IndicatorID,
	}, "failed to create benchmark group indicator")
	return err
}

func (r *Repository) FindByGroupID(ctx context.Context, groupID int64) ([]*models.BenchmarkGroupIndicator, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupIndicatorRepository.FindByGroupID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("group_id", "indicator_id").
		From(groupIndicatorsTable).
		Where(sb.Equal("group_id", groupID)).
		OrderBy("indicator_id").Asc()

	query, args := sb.Build()

	return repositories.Select[models.BenchmarkGroupIndicator](ctx, r.db, r.logger, query, args,
		map[string]any{"group_id": groupID}, "failed to list benchmark group indicators")
}

// FindByVersionIDAndIndicatorIdent returns the group assignments of an indicator within a version.
func (r *Repository) FindByVersionIDAndIndicatorIdent(ctx context.Context, versionID int64, ident string) ([]*models.BenchmarkGroupIndicator, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupIndicatorRepository.FindByVersionIDAndIndicatorIdent")
	defer span.End()

	query, args := database.Build(`SELECT gi.group_id, gi.indicator_id
FROM elca.benchmark_group_indicators gi
    JOIN elca.benchmark_groups g ON g.id = gi.group_id
    JOIN elca.indicators i ON i.id = gi.indicator_id
WHERE g.benchmark_version_id = ${versionId}
  AND i.ident = ${ident}
ORDER BY gi.group_id`, map[string]any{"versionId": versionID, "ident": ident})

	return repositories.Select[models.BenchmarkGroupIndicator](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": versionID,
		"indicator_ident":      ident,
	}, "failed to list benchmark group indicators by indicator")
}

func (r *Repository) DeleteByGroupID(ctx context.Context, groupID int64) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupIndicatorRepository.DeleteByGroupID")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(groupIndicatorsTable).Where(db.Equal("group_id", groupID))

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{"group_id": groupID}, "failed to delete benchmark group indicators")
	return err
}

func (r *Repository) Copy(ctx context.Context, src *models.BenchmarkGroupIndicator, newGroupID int64) (*models.BenchmarkGroupIndicator, error) {
	if src == nil || newGroupID == 0 {
		return nil, nil
	}

	copied := &models.BenchmarkGroupIndicator{GroupID: newGroupID, IndicatorID: src.IndicatorID}
	if err := r.Create(ctx, copied); err != nil {
		return nil, err
	}
	return copied, nil
}
