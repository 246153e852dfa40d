// Package benchmarksystem stores benchmark systems, the top level of the scoring configuration.
package benchmarksystem

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const systemsTable = "elca.benchmark_systems"

var columns = []string{"id", "name", "model_class", "is_active", "description"}

type BenchmarkSystemRepository interface {
	Create(ctx context.Context, system *models.BenchmarkSystem) (*models.BenchmarkSystem, error)
	FindByID(ctx context.Context, id int64) (*models.BenchmarkSystem, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*models.BenchmarkSystem, error)
	FindByVersionID(ctx context.Context, versionID int64) (*models.BenchmarkSystem, error)
	Update(ctx context.Context, system *models.BenchmarkSystem) error
	Delete(ctx context.Context, id int64) error
	IsUsedInProject(ctx context.Context, id int64) (bool, error)
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

func (r *Repository) Create(ctx context.Context, system *models.BenchmarkSystem) (*models.BenchmarkSystem, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkSystemRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(system); err != nil {
		return nil, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(systemsTable).
		Cols("name", "model_class", "is_active", "description").
		Values(system.Name, system.ModelClass, system.IsActive, repositories.NullString(system.Description)).
		Returning(columns...)

	query, args := ib.Build()

	return repositories.Get[models.BenchmarkSystem](ctx, r.db, r.logger, query, args,
		map[string]any{"name": system.Name}, "failed to create benchmark system")
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.BenchmarkSystem, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkSystemRepository.FindByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(systemsTable).Where(sb.Equal("id", id))

	query, args := sb.Build()

	return repositories.Get[models.BenchmarkSystem](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_system_id": id}, "failed to get benchmark system")
}

func (r *Repository) FindAll(ctx context.Context, activeOnly bool) ([]*models.BenchmarkSystem, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkSystemRepository.FindAll")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(systemsTable)
	if activeOnly {
		sb.Where("is_active")
	}
	sb.OrderBy("name", "id").Asc()

	query, args := sb.Build()

	return repositories.Select[models.BenchmarkSystem](ctx, r.db, r.logger, query, args, nil, "failed to list benchmark systems")
}

// FindByVersionID returns the system owning a benchmark version.
func (r *Repository) FindByVersionID(ctx context.Context, versionID int64) (*models.BenchmarkSystem, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkSystemRepository.FindByVersionID")
	defer span.End()

	query, args := database.Build(`SELECT s.id, s.name, s.model_class, s.is_active, s.description
FROM elca.benchmark_systems s
    JOIN elca.benchmark_versions v ON v.benchmark_system_id = s.id
WHERE v.id = ${versionId}`, map[string]any{"versionId": versionID})

	return repositories.Get[models.BenchmarkSystem](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": versionID}, "failed to get benchmark system by version")
}

func (r *Repository) Update(ctx context.Context, system *models.BenchmarkSystem) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkSystemRepository.Update")
	defer span.End()

	if err := utils.ValidateStruct(system); err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(systemsTable).
		Set(
			ub.Assign("name", system.Name),
			ub.Assign("model_class", system.ModelClass),
			ub.Assign("is_active", system.IsActive),
			ub.Assign("description", repositories.NullString(system.Description)),
		).
		Where(ub.Equal("id", system.ID))

	query, args := ub.Build()

	affected, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_system_id": system.ID}, "failed to update benchmark system")
	if err != nil {
		return err
	}
	if affected == 0 {
		return repositories.NotFound("benchmark system %d not found", system.ID)
	}
	return nil
}

// Delete removes a system. Versions and their children go with it through cascading keys.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkSystemRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(systemsTable).Where(db.Equal("id", id))

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_system_id": id}, "failed to delete benchmark system")
	return err
}

// IsUsedInProject reports whether any project is rated with a version of the system.
func (r *Repository) IsUsedInProject(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkSystemRepository.IsUsedInProject")
	defer span.End()

	query, args := database.Build(`SELECT EXISTS (
    SELECT 1
    FROM elca.projects p
        JOIN elca.benchmark_versions v ON v.id = p.benchmark_version_id
    WHERE v.benchmark_system_id = ${systemId}
)`, map[string]any{"systemId": id})

	var used bool
	if err := database.Executor(ctx, r.db).GetContext(ctx, &used, query, args...); err != nil {
		return false, repositories.InternalError(ctx, r.logger, err, map[string]any{"benchmark_system_id": id}, "failed to check benchmark system usage")
	}
	return used, nil
}
