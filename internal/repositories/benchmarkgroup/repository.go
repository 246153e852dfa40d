// Package benchmarkgroup stores benchmark groups. Copying a group carries its indicators and thresholds.
package benchmarkgroup

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkgroupindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkgroupthreshold"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const groupsTable = "elca.benchmark_groups"

var columns = []string{"id", "benchmark_version_id", "name"}

type BenchmarkGroupRepository interface {
	Create(ctx context.Context, group *models.BenchmarkGroup) (*models.BenchmarkGroup, error)
	FindByID(ctx context.Context, id int64) (*models.BenchmarkGroup, error)
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkGroup, error)
	FindByVersionIDAndName(ctx context.Context, versionID int64, name string) (*models.BenchmarkGroup, error)
	Update(ctx context.Context, group *models.BenchmarkGroup) error
	Delete(ctx context.Context, id int64) error
	Copy(ctx context.Context, src *models.BenchmarkGroup, newVersionID int64) (*models.BenchmarkGroup, error)
}

type Repository struct {
	db         database.DB
	logger     ectologger.Logger
	indicators benchmarkgroupindicator.BenchmarkGroupIndicatorRepository
	thresholds benchmarkgroupthreshold.BenchmarkGroupThresholdRepository
}

func NewRepository(
	db database.DB,
	logger ectologger.Logger,
	indicators benchmarkgroupindicator.BenchmarkGroupIndicatorRepository,
	thresholds benchmarkgroupthreshold.BenchmarkGroupThresholdRepository,
) *Repository {
	return &Repository{
		db:         db,
		logger:     logger,
		indicators: indicators,
		thresholds: thresholds,
	}
}

func (r *Repository) Create(ctx context.Context, group *models.BenchmarkGroup) (*models.BenchmarkGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(group); err != nil {
		return nil, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(groupsTable).
		Cols("benchmark_version_id", "name").
		Values(group.BenchmarkVersionID, group.Name).
		Returning(columns...)

	query, args := ib.Build()

	return repositories.Get[models.BenchmarkGroup](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": group.BenchmarkVersionID,
		"name":                 group.Name,
	}, "failed to create benchmark group")
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.BenchmarkGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupRepository.FindByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(groupsTable).Where(sb.Equal("id", id))

	query, args := sb.Build()

	return repositories.Get[models.BenchmarkGroup](ctx, r.db, r.logger, query, args, map[string]any{"group_id": id}, "failed to get benchmark group")
}

func (r *Repository) FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupRepository.FindByVersionID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(groupsTable).
		Where(sb.Equal("benchmark_version_id", versionID)).
		OrderBy("id").Asc()

	query, args := sb.Build()

	return repositories.Select[models.BenchmarkGroup](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": versionID}, "failed to list benchmark groups")
}

func (r *Repository) FindByVersionIDAndName(ctx context.Context, versionID int64, name string) (*models.BenchmarkGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupRepository.FindByVersionIDAndName")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(groupsTable).
		Where(
			sb.Equal("benchmark_version_id", versionID),
			sb.Equal("name", name),
		)

	query, args := sb.Build()

	return repositories.Get[models.BenchmarkGroup](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": versionID,
		"name":                 name,
	}, "failed to get benchmark group by name")
}

func (r *Repository) Update(ctx context.Context, group *models.BenchmarkGroup) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupRepository.Update")
	defer span.End()

	if err := utils.ValidateStruct(group); err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(groupsTable).Set(ub.Assign("name", group.Name)).Where(ub.Equal("id", group.ID))

	query, args := ub.Build()

	affected, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{"group_id": group.ID}, "failed to update benchmark group")
	if err != nil {
		return err
	}
	if affected == 0 {
		return repositories.NotFound("benchmark group %d not found", group.ID)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(groupsTable).Where(db.Equal("id", id))

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{"group_id": id}, "failed to delete benchmark group")
	return err
}

// Copy re-creates src under newVersionID together with its indicators and thresholds.
func (r *Repository) Copy(ctx context.Context, src *models.BenchmarkGroup, newVersionID int64) (*models.BenchmarkGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkGroupRepository.Copy")
	defer span.End()

	if src == nil || newVersionID == 0 {
		return nil, nil
	}

	var copied *models.BenchmarkGroup
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		var err error
		copied, err = r.Create(ctx, &models.BenchmarkGroup{BenchmarkVersionID: newVersionID, Name: src.Name})
		if err != nil {
			return err
		}

		groupIndicators, err := r.indicators.FindByGroupID(ctx, src.ID)
		if err != nil {
			return err
		}
		for _, groupIndicator := range groupIndicators {
			if _, err := r.indicators.Copy(ctx, groupIndicator, copied.ID); err != nil {
				return err
			}
		}

		thresholds, err := r.thresholds.FindByGroupID(ctx, src.ID)
		if err != nil {
			return err
		}
		for _, threshold := range thresholds {
			if _, err := r.thresholds.Copy(ctx, threshold, copied.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return copied, nil
}
