package benchmark

import (
	"context"

	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

type SystemRepository interface {
	Create(ctx context.Context, system *models.BenchmarkSystem) (*models.BenchmarkSystem, error)
	FindByID(ctx context.Context, id int64) (*models.BenchmarkSystem, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*models.BenchmarkSystem, error)
	Delete(ctx context.Context, id int64) error
	IsUsedInProject(ctx context.Context, id int64) (bool, error)
}

type VersionRepository interface {
	Create(ctx context.Context, version *models.BenchmarkVersion) (*models.BenchmarkVersion, error)
	FindByID(ctx context.Context, id int64) (*models.BenchmarkVersion, error)
	FindBySystemID(ctx context.Context, systemID int64, activeOnly bool) ([]*models.BenchmarkVersion, error)
	CountBySystemID(ctx context.Context, systemID int64) (int, error)
	Delete(ctx context.Context, id int64) error
	Copy(ctx context.Context, src *models.BenchmarkVersion, name string) (*models.BenchmarkVersion, error)
}

type ThresholdRepository interface {
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkThreshold, error)
	Copy(ctx context.Context, src *models.BenchmarkThreshold, newVersionID int64) (*models.BenchmarkThreshold, error)
}

type RefConstructionValueRepository interface {
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkRefConstructionValue, error)
	Copy(ctx context.Context, src *models.BenchmarkRefConstructionValue, newVersionID int64) (*models.BenchmarkRefConstructionValue, error)
}

type RefProcessConfigRepository interface {
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkRefProcessConfig, error)
	Copy(ctx context.Context, src *models.BenchmarkRefProcessConfig, newVersionID int64) (*models.BenchmarkRefProcessConfig, error)
}

type ConstrClassRepository interface {
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkVersionConstrClass, error)
	Copy(ctx context.Context, src *models.BenchmarkVersionConstrClass, newVersionID int64) (*models.BenchmarkVersionConstrClass, error)
}

type LifeCycleUsageRepository interface {
	CreateDefaults(ctx context.Context, versionID int64, lifeCycles []*models.LifeCycle) ([]*models.BenchmarkLifeCycleUsageSpecification, error)
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkLifeCycleUsageSpecification, error)
	Copy(ctx context.Context, src *models.BenchmarkLifeCycleUsageSpecification, newVersionID int64) (*models.BenchmarkLifeCycleUsageSpecification, error)
}

type GroupRepository interface {
	FindByID(ctx context.Context, id int64) (*models.BenchmarkGroup, error)
	FindByVersionID(ctx context.Context, versionID int64) ([]*models.BenchmarkGroup, error)
	Copy(ctx context.Context, src *models.BenchmarkGroup, newVersionID int64) (*models.BenchmarkGroup, error)
}

type GroupIndicatorRepository interface {
	FindByVersionIDAndIndicatorIdent(ctx context.Context, versionID int64, ident string) ([]*models.BenchmarkGroupIndicator, error)
}

type GroupThresholdRepository interface {
	FindByGroupID(ctx context.Context, groupID int64) ([]*models.BenchmarkGroupThreshold, error)
}

type ProjectBenchmarkRepository interface {
	Save(ctx context.Context, benchmark *models.ProjectIndicatorBenchmark) error
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.ProjectIndicatorBenchmark, error)
	Copy(ctx context.Context, src *models.ProjectIndicatorBenchmark, newProjectVariantID int64) (*models.ProjectIndicatorBenchmark, error)
}

type IndicatorRepository interface {
	FindAll(ctx context.Context, includeHidden bool) ([]*models.Indicator, error)
	FindByIdent(ctx context.Context, ident string) (*models.Indicator, error)
	FindLifeCycles(ctx context.Context) ([]*models.LifeCycle, error)
}

// Repositories bundles the stores the service reads and writes.
type Repositories struct {
	Systems               SystemRepository
	Versions              VersionRepository
	Thresholds            ThresholdRepository
	RefConstructionValues RefConstructionValueRepository
	RefProcessConfigs     RefProcessConfigRepository
	ConstrClasses         ConstrClassRepository
	LifeCycleUsages       LifeCycleUsageRepository
	Groups                GroupRepository
	GroupIndicators       GroupIndicatorRepository
	GroupThresholds       GroupThresholdRepository
	ProjectBenchmarks     ProjectBenchmarkRepository
	Indicators            IndicatorRepository
}
