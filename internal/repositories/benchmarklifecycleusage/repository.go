// Package benchmarklifecycleusage stores which life cycles a benchmark version counts for construction,
// maintenance and energy demand.
package benchmarklifecycleusage

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const usageSpecificationsTable = "elca.benchmark_life_cycle_usage_specifications"

var columns = []string{"id", "benchmark_version_id", "life_cycle_ident", "use_in_construction", "use_in_maintenance", "use_in_energy_demand"}

type BenchmarkLifeCycleUsageRepository interface {
	Create(ctx context.Context, spec *models.BenchmarkLifeCycleUsageSpecification) (*models.BenchmarkLifeCycleUsageSpecification, error)
	CreateDefaults(ctx context.Context, versionID int64, lifeCycles []*models.LifeCycle) ([]*models.BenchmarkLifeCycleUsageSpecification, error)
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkLifeCycleUsageSpecification, error)
	FindByVersionIDAndLifeCycleIdent(ctx context.Context, versionID int64, ident string) (*models.BenchmarkLifeCycleUsageSpecification, error)
	Update(ctx context.Context, spec *models.BenchmarkLifeCycleUsageSpecification) error
	Copy(ctx context.Context, src *models.BenchmarkLifeCycleUsageSpecification, newVersionID int64) (*models.BenchmarkLifeCycleUsageSpecification, error)
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

func (r *Repository) Create(ctx context.Context, spec *models.BenchmarkLifeCycleUsageSpecification) (*models.BenchmarkLifeCycleUsageSpecification, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkLifeCycleUsageRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(spec); err != nil {
		return nil, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(usageSpecificationsTable).
		Cols("benchmark_version_id", "life_cycle_ident", "use_in_construction", "use_in_maintenance", "use_in_energy_demand").
		Values(spec.BenchmarkVersionID, spec.LifeCycleIdent, spec.UseInConstruction, spec.UseInMaintenance, spec.UseInEnergyDemand).
		Returning(columns...)

	query, args := ib.Build()

	return repositories.Get[models.BenchmarkLifeCycleUsageSpecification](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": spec.BenchmarkVersionID,
		"life_cycle_ident":     spec.LifeCycleIdent,
	}, "failed to create benchmark life cycle usage specification")
}

// DefaultIdents returns every life cycle ident or phase that has a default usage, sorted.
func DefaultIdents() []string {
	seen := map[string]bool{}
	for _, defaults := range []map[string]bool{
		models.ConstructionUsageDefaults,
		models.MaintenanceUsageDefaults,
		models.EnergyDemandUsageDefaults,
	} {
		for ident := range defaults {
			seen[ident] = true
		}
	}

	idents := make([]string, 0, len(seen))
	for ident := range seen {
		idents = append(idents, ident)
	}
	sort.Strings(idents)
	return idents
}

// CreateDefaults stores the default usage for every known life cycle of a new version.
// Idents missing from lifeCycles are skipped; with no lifeCycles every default ident is stored.
func (r *Repository) CreateDefaults(ctx context.Context, versionID int64, lifeCycles []*models.LifeCycle) ([]*models.BenchmarkLifeCycleUsageSpecification, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkLifeCycleUsageRepository.CreateDefaults")
	defer span.End()

	known := make(map[string]bool, len(lifeCycles))
	for _, lifeCycle := range lifeCycles {
		known[lifeCycle.Ident] = true
	}

	var created []*models.BenchmarkLifeCycleUsageSpecification
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		for _, ident := range DefaultIdents() {
			if len(known) > 0 && !known[ident] {
				continue
			}
			spec, err := r.Create(ctx, &models.BenchmarkLifeCycleUsageSpecification{
				BenchmarkVersionID: versionID,
				LifeCycleIdent:     ident,
				UseInConstruction:  models.ConstructionUsageDefaults[ident],
				UseInMaintenance:   models.MaintenanceUsageDefaults[ident],
				UseInEnergyDemand:  models.EnergyDemandUsageDefaults[ident],
			})
			if err != nil {
				return err
			}
			created = append(created, spec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Repository) FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkLifeCycleUsageSpecification, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkLifeCycleUsageRepository.FindByVersionID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(usageSpecificationsTable).
		Where(sb.Equal("benchmark_version_id", versionID)).
		OrderBy("life_cycle_ident").Asc()

	query, args := sb.Build()

	return repositories.Select[models.BenchmarkLifeCycleUsageSpecification](ctx, r.db, r.logger, query, args,
		map[string]any{"benchmark_version_id": versionID}, "failed to list benchmark life cycle usage specifications")
}

func (r *Repository) FindByVersionIDAndLifeCycleIdent(ctx context.Context, versionID int64, ident string) (*models.BenchmarkLifeCycleUsageSpecification, error) {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkLifeCycleUsageRepository.FindByVersionIDAndLifeCycleIdent")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).
		From(usageSpecificationsTable).
		Where(
			sb.Equal("benchmark_version_id", versionID),
			sb.Equal("life_cycle_ident", ident),
		)

	query, args := sb.Build()

	return repositories.Get[models.BenchmarkLifeCycleUsageSpecification](ctx, r.db, r.logger, query, args, map[string]any{
		"benchmark_version_id": versionID,
		"life_cycle_ident":     ident,
	}, "failed to get benchmark life cycle usage specification")
}

func (r *Repository) Update(ctx context.Context, spec *models.BenchmarkLifeCycleUsageSpecification) error {
	ctx, span := tracing.StartSpan(ctx, "BenchmarkLifeCycleUsageRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(usageSpecificationsTable).
		Set(
			ub.Assign("use_in_construction", spec.UseInConstruction),
			ub.Assign("use_in_maintenance", spec.UseInMaintenance),
			ub.Assign("use_in_energy_demand", spec.UseInEnergyDemand),
		).
		Where(ub.Equal("id", spec.ID))

	query, args := ub.Build()

	affected, err := repositories.Exec(ctx, r.db, r.logger, query, args,
		map[string]any{"id": spec.ID}, "failed to update benchmark life cycle usage specification")
	if err != nil {
		return err
	}
	if affected == 0 {
		return repositories.NotFound("benchmark life cycle usage specification %d not found", spec.ID)
	}
	return nil
}

func (r *Repository) Copy(ctx context.Context, src *models.BenchmarkLifeCycleUsageSpecification, newVersionID int64) (*models.BenchmarkLifeCycleUsageSpecification, error) {
	if src == nil || newVersionID == 0 {
		return nil, nil
	}

	copied := *src
	copied.ID = 0
	copied.BenchmarkVersionID = newVersionID
	return r.Create(ctx, &copied)
}
