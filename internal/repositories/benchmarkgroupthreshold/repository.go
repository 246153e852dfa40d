// Package benchmarkgroupthreshold stores the captions a benchmark group assigns to score levels.
package benchmarkgroupthreshold

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const groupThresholdsTable = "elca.benchmark_group_thresholds"

var columns = []string{"id", "group_id", "score", "caption"}

type BenchmarkGroupThresholdRepository interface {
	Create(ctx context.Context, threshold *models.BenchmarkGroupThreshold) (*models.BenchmarkGroupThreshold, error)
	FindByGroupID(ctx context.Context, groupID int64) ([]*models.BenchmarkGroupThreshold, error)
	Update(ctx context.Context, threshold *models.BenchmarkGroupThreshold) error
	Delete(ctx context.Context, id int64) error
	Copy(ctx context.Context, src *models.BenchmarkGroupThreshold, newGroupID int64) (*models.BenchmarkGroupThreshold, error)
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

func (r *Repository) Create(ctx context.Context, threshold *models.BenchmarkGroupThreshold) (*models.BenchmarkGroupThreshold, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupThresholdRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(threshold); err != nil {
		return nil, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(groupThresholdsTable).
		Cols("group_id", "score", "caption").
		Values(threshold.GroupID, threshold.Score, threshold.Caption).
		Returning(columns...)

	query, args := ib.Build()

	return repositories.Get[models.BenchmarkGroupThreshold](ctx, r.db, r.logger, query, args, map[string]any{
		"group_id": threshold.GroupID,
		"score":    threshold.Score,
	}, "failed to create benchmark group threshold")
}

// FindByGroupID returns the thresholds of a group, lowest score first.
func (r *Repository) FindByGroupID(ctx context.Context, groupID int64) ([]*models.BenchmarkGroupThreshold, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupThresholdRepository.FindByGroupID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(groupThresholdsTable).
		Where(sb.Equal("group_id", groupID)).
		OrderBy("score").Asc()

	query, args := sb.Build()

	return repositories.Select[models.BenchmarkGroupThreshold](ctx, r.db, r.logger, query, args,
		map[string]any{"group_id": groupID}, "failed to list benchmark group thresholds")
}

func (r *Repository) Update(ctx context.Context, threshold *models.BenchmarkGroupThreshold) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupThresholdRepository.Update")
	defer span.End()

	if err := utils.ValidateStruct(threshold); err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(groupThresholdsTable).
		Set(
			ub.Assign("score", threshold.Score),
			ub.Assign("caption", threshold.Caption),
		).
		Where(ub.Equal("id", threshold.ID))

	query, args := ub.Build()

	affected, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"id": threshold.ID}, "failed to update benchmark group threshold")
	if err != nil {
		return err
	}
	if affected == 0 {
		return repositories.NotFound("benchmark group threshold %d not found", threshold.ID)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupThresholdRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(groupThresholdsTable).Where(db.Equal("id", id))

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{"id": id}, "failed to delete benchmark group threshold")
	return err
}

func (r *Repository) Copy(ctx context.Context, src *models.BenchmarkGroupThreshold, newGroupID int64) (*models.BenchmarkGroupThreshold, error) {
	if src == nil || newGroupID == 0 {
		return nil, nil
	}

	return r.Create(ctx, &models.BenchmarkGroupThreshold{
		GroupID: newGroupID,
		Score:   src.Score,
		Caption: src.Caption,
	})
}
