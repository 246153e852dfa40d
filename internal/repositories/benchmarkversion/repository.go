// Package benchmarkversion stores benchmark versions and resolves their construction classes.
package benchmarkversion

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

type BenchmarkVersionRepository interface {
	Create(ctx context.Context, version *models.BenchmarkVersion) (*models.BenchmarkVersion, error)
	FindByID(ctx context.Context, id int64) (*models.BenchmarkVersion, error)
	FindBySystemID(ctx context.Context, systemID int64, activeOnly bool) ([]*models.BenchmarkVersion, error)
	CountBySystemID(ctx context.Context, systemID int64) (int, error)
	Update(ctx context.Context, version *models.BenchmarkVersion) error
	Delete(ctx context.Context, id int64) error
	ConstrClassIDs(ctx context.Context, version *models.BenchmarkVersion) ([]int64, error)
	Copy(ctx context.Context, src *models.BenchmarkVersion, name string) (*models.BenchmarkVersion, error)
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

func (r *Repository) Create(ctx context.Context, version *models.BenchmarkVersion) (*models.BenchmarkVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(version); err != nil {
		return nil, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(versionsTable).
		Cols("benchmark_system_id", "name", "process_db_id", "is_active", "use_reference_model", "project_life_time").
		Values(
			version.BenchmarkSystemID,
			version.Name,
			repositories.NullInt64(version.ProcessDbID),
			version.IsActive,
			version.UseReferenceModel,
			repositories.NullInt(version.ProjectLifeTime),
		).
		Returning(columns...)

	query, args := ib.Build()

	var row BenchmarkVersionRow
	if err := database.Executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{
			"benchmark_system_id": version.BenchmarkSystemID,
			"name":                version.Name,
		}, "failed to create benchmark version")
	}

	created := ToBenchmarkVersion(&row, false)
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"benchmark_version_id": created.ID,
		"benchmark_system_id":  created.BenchmarkSystemID,
	}).Debugf("Created %s", versionsTable)

	return created, nil
}

// FindByID reads a version from the view so its construction classes come along.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.BenchmarkVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionRepository.FindByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(append(columns, "constr_class_ids")...).From(versionsView).Where(sb.Equal("id", id))

	query, args := sb.Build()

	row, err := repositories.Get[BenchmarkVersionRow](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": id}, "failed to get benchmark version")
	if err != nil || row == nil {
		return nil, err
	}
	return ToBenchmarkVersion(row, true), nil
}

func (r *Repository) FindBySystemID(ctx context.Context, systemID int64, activeOnly bool) ([]*models.BenchmarkVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionRepository.FindBySystemID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(append(columns, "constr_class_ids")...).
		From(versionsView).
		Where(sb.Equal("benchmark_system_id", systemID))
	if activeOnly {
		sb.Where("is_active")
	}
	sb.OrderBy("name", "id").Asc()

	query, args := sb.Build()

	rows, err := repositories.Select[BenchmarkVersionRow](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_system_id": systemID}, "failed to list benchmark versions")
	if err != nil {
		return nil, err
	}
	return ToBenchmarkVersions(rows, true), nil
}

func (r *Repository) CountBySystemID(ctx context.Context, systemID int64) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionRepository.CountBySystemID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("count(*)").From(versionsTable).Where(sb.Equal("benchmark_system_id", systemID))

	query, args := sb.Build()

	var count int
	if err := database.Executor(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		return 0, repositories.InternalError(ctx, r.logger, err, map[string]any{"benchmark_system_id": systemID}, "failed to count benchmark versions")
	}
	return count, nil
}

func (r *Repository) Update(ctx context.Context, version *models.BenchmarkVersion) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionRepository.Update")
	defer span.End()

	if err := utils.ValidateStruct(version); err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(versionsTable).
		Set(
			ub.Assign("name", version.Name),
			ub.Assign("process_db_id", repositories.NullInt64(version.ProcessDbID)),
			ub.Assign("is_active", version.IsActive),
			ub.Assign("use_reference_model", version.UseReferenceModel),
			ub.Assign("project_life_time", repositories.NullInt(version.ProjectLifeTime)),
		).
		Where(ub.Equal("id", version.ID))

	query, args := ub.Build()

	affected, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": version.ID}, "failed to update benchmark version")
	if err != nil {
		return err
	}
	if affected == 0 {
		return repositories.NotFound("benchmark version %d not found", version.ID)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(versionsTable).Where(db.Equal("id", id))

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": id}, "failed to delete benchmark version")
	return err
}

// ConstrClassIDs returns the construction classes of version. Versions read from the view already
// carry them; others are resolved from the join table once and kept on the version.
func (r *Repository) ConstrClassIDs(ctx context.Context, version *models.BenchmarkVersion) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionRepository.ConstrClassIDs")
	defer span.End()

	if version == nil {
		return nil, nil
	}
	if version.ConstrClassIDsLoaded {
		return version.ConstrClassIDs, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("constr_class_id").
		From(versionConstrClasses).
		Where(sb.Equal("benchmark_version_id", version.ID)).
		OrderBy("constr_class_id").Asc()

	query, args := sb.Build()

	ids := []int64{}
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"benchmark_version_id": version.ID}, "failed to list benchmark version construction classes")
	}

	version.ConstrClassIDs = ids
	version.ConstrClassIDsLoaded = true
	return ids, nil
}

// Copy inserts an inactive version of the same system with the settings of src.
func (r *Repository) Copy(ctx context.Context, src *models.BenchmarkVersion, name string) (*models.BenchmarkVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionRepository.Copy")
	defer span.End()

	if src == nil {
		return nil, nil
	}

	copied := *src
	copied.ID = 0
	copied.Name = strings.TrimSpace(name)
	copied.IsActive = false
	copied.ConstrClassIDs = nil
	copied.ConstrClassIDsLoaded = false

	return r.Create(ctx, &copied)
}
