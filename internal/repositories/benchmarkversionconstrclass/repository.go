// Package benchmarkversionconstrclass links benchmark versions to the construction classes they apply to.
package benchmarkversionconstrclass

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const constrClassesTable = "elca.benchmark_version_constr_classes"

var columns = []string{"id", "benchmark_version_id", "constr_class_id"}

type BenchmarkVersionConstrClassRepository interface {
	Create(ctx context.Context, constrClass *models.BenchmarkVersionConstrClass) (*models.BenchmarkVersionConstrClass, error)
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkVersionConstrClass, error)
	Delete(ctx context.Context, id int64) error
	DeleteByVersionID(ctx context.Context, versionID int64) error
	Copy(ctx context.Context, src *models.BenchmarkVersionConstrClass, newVersionID int64) (*models.BenchmarkVersionConstrClass, error)
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

func (r *Repository) Create(ctx context.Context, constrClass *models.BenchmarkVersionConstrClass) (*models.BenchmarkVersionConstrClass, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionConstrClassRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(constrClass); err != nil {
		return nil, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(constrClassesTable).
		Cols("benchmark_version_id", "constr_class_id").
		Values(constrClass.BenchmarkVersionID, constrClass.ConstrClassID).
		Returning(columns...)

	query, args := ib.Build()

	return repositories.Get[models.BenchmarkVersionConstrClass](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": constrClass.BenchmarkVersionID,
		"constr_class_id":      constrClass.ConstrClassID,
	}, "failed to create benchmark version construction class")
}

func (r *Repository) FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkVersionConstrClass, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionConstrClassRepository.FindByVersionID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(constrClassesTable).
		Where(sb.Equal("benchmark_version_id", versionID)).
		OrderBy("id").Asc()

	query, args := sb.Build()

	return repositories.Select[models.BenchmarkVersionConstrClass](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": versionID}, "failed to list benchmark version construction classes")
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionConstrClassRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(constrClassesTable).Where(db.Equal("id", id))

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args, map[string]any{"id": id}, "failed to delete benchmark version construction class")
	return err
}

func (r *Repository) DeleteByVersionID(ctx context.Context, versionID int64) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkVersionConstrClassRepository.DeleteByVersionID")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(constrClassesTable).Where(db.Equal("benchmark_version_id", versionID))

	query, args := db.Build()

	_, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": versionID}, "failed to delete benchmark version construction classes")
	return err
}

func (r *Repository) Copy(ctx context.Context, src *models.BenchmarkVersionConstrClass, newVersionID int64) (*models.BenchmarkVersionConstrClass, error) {
	if src == nil || newVersionID == 0 {
		return nil, nil
	}

	return r.Create(ctx, &models.BenchmarkVersionConstrClass{
		BenchmarkVersionID: newVersionID,
		ConstrClassID:      src.ConstrClassID,
	})
}
