package benchmarkversion

import (
	"database/sql"

	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/lib/pq"
)

const (
	versionsTable        = "elca.benchmark_versions"
	versionsView         = "elca.benchmark_versions_with_constr_classes"
	versionConstrClasses = "elca.benchmark_version_constr_classes"
)

var columns = []string{"id", "benchmark_system_id", "name", "process_db_id", "is_active", "use_reference_model", "project_life_time"}

// BenchmarkVersionRow is a row of the versions table, or of the view when ConstrClassIDs is selected.
type BenchmarkVersionRow struct {
	ID                int64         `db:"id"`
	BenchmarkSystemID int64         `db:"benchmark_system_id"`
	Name              string        `db:"name"`
	ProcessDbID       sql.NullInt64 `db:"process_db_id"`
	IsActive          bool          `db:"is_active"`
	UseReferenceModel bool          `db:"use_reference_model"`
	ProjectLifeTime   sql.NullInt32 `db:"project_life_time"`
	ConstrClassIDs    pq.Int64Array `db:"constr_class_ids"`
}

func ToBenchmarkVersion(row *BenchmarkVersionRow, fromView bool) *models.BenchmarkVersion {
	version := &models.BenchmarkVersion{
		ID:                row.ID,
		BenchmarkSystemID: row.BenchmarkSystemID,
		Name:              row.Name,
		ProcessDbID:       repositories.Int64Value(row.ProcessDbID),
		IsActive:          row.IsActive,
		UseReferenceModel: row.UseReferenceModel,
		ProjectLifeTime:   repositories.IntValue(row.ProjectLifeTime),
	}
	if fromView {
		version.ConstrClassIDs = []int64(row.ConstrClassIDs)
		if version.ConstrClassIDs == nil {
			version.ConstrClassIDs = []int64{}
		}
		version.ConstrClassIDsLoaded = true
	}
	return version
}

func ToBenchmarkVersions(rows []*BenchmarkVersionRow, fromView bool) []*models.BenchmarkVersion {
	versions := make([]*models.BenchmarkVersion, 0, len(rows))
	for _, row := range rows {
		versions = append(versions, ToBenchmarkVersion(row, fromView))
	}
	return versions
}
