package models

import "fmt"

// Reference area idents used by benchmark versions
const (
	ReferenceAreaNGF = "netFloorSpace"
	ReferenceAreaWF  = "livingSpace"
)

// Reference process config idents
const (
	RefProcessConfigHeating       = "heating"
	RefProcessConfigElectricity   = "electricity"
	RefProcessConfigProcessEnergy = "process-energy"
)

// RefProcessConfigIdents lists the idents a benchmark version may reference.
var RefProcessConfigIdents = []string{
	RefProcessConfigHeating,
	RefProcessConfigElectricity,
	RefProcessConfigProcessEnergy,
}

type BenchmarkSystem struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name" validate:"required,max=150"`
	ModelClass  string  `json:"model_class" db:"model_class" validate:"required,max=250"`
	IsActive    bool    `json:"is_active" db:"is_active"`
	Description *string `json:"description,omitempty" db:"description"`
}

type BenchmarkVersion struct {
	ID                int64   `json:"id" db:"id"`
	BenchmarkSystemID int64   `json:"benchmark_system_id" db:"benchmark_system_id" validate:"required,gt=0"`
	Name              string  `json:"name" db:"name" validate:"required,max=150"`
	ProcessDbID       *int64  `json:"process_db_id,omitempty" db:"process_db_id"`
	IsActive          bool    `json:"is_active" db:"is_active"`
	UseReferenceModel bool    `json:"use_reference_model" db:"use_reference_model"`
	ProjectLifeTime   *int    `json:"project_life_time,omitempty" db:"project_life_time" validate:"omitempty,gt=0"`
	ConstrClassIDs    []int64 `json:"constr_class_ids,omitempty"`
	// ConstrClassIDsLoaded is set when ConstrClassIDs came from the denormalized view column.
	ConstrClassIDsLoaded bool `json:"-"`
}

type BenchmarkGroup struct {
	ID                 int64  `json:"id" db:"id"`
	BenchmarkVersionID int64  `json:"benchmark_version_id" db:"benchmark_version_id" validate:"required,gt=0"`
	Name               string `json:"name" db:"name" validate:"required,max=200"`
}

type BenchmarkGroupIndicator struct {
	GroupID     int64 `json:"group_id" db:"group_id" validate:"required,gt=0"`
	IndicatorID int64 `json:"indicator_id" db:"indicator_id" validate:"required,gt=0"`
}

type BenchmarkGroupThreshold struct {
	ID      int64  `json:"id" db:"id"`
	GroupID int64  `json:"group_id" db:"group_id" validate:"required,gt=0"`
	Score   int    `json:"score" db:"score"`
	Caption string `json:"caption" db:"caption" validate:"required"`
}

type BenchmarkThreshold struct {
	ID                 int64   `json:"id" db:"id"`
	BenchmarkVersionID int64   `json:"benchmark_version_id" db:"benchmark_version_id" validate:"required,gt=0"`
	IndicatorID        int64   `json:"indicator_id" db:"indicator_id" validate:"required,gt=0"`
	Score              int     `json:"score" db:"score"`
	Value              float64 `json:"value" db:"value"`
	IndicatorIdent     string  `json:"indicator_ident,omitempty" db:"indicator_ident"`
}

type BenchmarkRefConstructionValue struct {
	BenchmarkVersionID int64    `json:"benchmark_version_id" db:"benchmark_version_id" validate:"required,gt=0"`
	IndicatorID        int64    `json:"indicator_id" db:"indicator_id" validate:"required,gt=0"`
	Value              *float64 `json:"value,omitempty" db:"value"`
	IndicatorIdent     string   `json:"indicator_ident,omitempty" db:"indicator_ident"`
}

type BenchmarkRefProcessConfig struct {
	BenchmarkVersionID int64  `json:"benchmark_version_id" db:"benchmark_version_id" validate:"required,gt=0"`
	Ident              string `json:"ident" db:"ident" validate:"required,oneof=heating electricity process-energy"`
	ProcessConfigID    int64  `json:"process_config_id" db:"process_config_id" validate:"required,gt=0"`
}

type BenchmarkVersionConstrClass struct {
	ID                 int64 `json:"id" db:"id"`
	BenchmarkVersionID int64 `json:"benchmark_version_id" db:"benchmark_version_id" validate:"required,gt=0"`
	ConstrClassID      int64 `json:"constr_class_id" db:"constr_class_id" validate:"required,gt=0"`
}

type BenchmarkLifeCycleUsageSpecification struct {
	ID                 int64  `json:"id" db:"id"`
	BenchmarkVersionID int64  `json:"benchmark_version_id" db:"benchmark_version_id" validate:"required,gt=0"`
	LifeCycleIdent     string `json:"life_cycle_ident" db:"life_cycle_ident" validate:"required,max=20"`
	UseInConstruction  bool   `json:"use_in_construction" db:"use_in_construction"`
	UseInMaintenance   bool   `json:"use_in_maintenance" db:"use_in_maintenance"`
	UseInEnergyDemand  bool   `json:"use_in_energy_demand" db:"use_in_energy_demand"`
}

// Default life cycle usage of new benchmark versions, keyed by life cycle ident or phase.
var (
	ConstructionUsageDefaults = map[string]bool{
		LifeCyclePhaseProd: true,
		LifeCycleIdentA1:   true,
		LifeCycleIdentA2:   true,
		LifeCycleIdentA3:   true,
		LifeCycleIdentA13:  true,
		LifeCyclePhaseEol:  true,
		LifeCycleIdentC3:   true,
		LifeCycleIdentC4:   true,
		LifeCycleIdentD:    false,
	}
	MaintenanceUsageDefaults = map[string]bool{
		LifeCyclePhaseProd: true,
		LifeCycleIdentA1:   true,
		LifeCycleIdentA2:   true,
		LifeCycleIdentA3:   true,
		LifeCycleIdentA13:  true,
		LifeCyclePhaseEol:  true,
		LifeCycleIdentC3:   true,
		LifeCycleIdentC4:   true,
		LifeCycleIdentD:    false,
	}
	EnergyDemandUsageDefaults = map[string]bool{
		LifeCyclePhaseOp: true,
		LifeCycleIdentB6: true,
	}
)

type ProjectIndicatorBenchmark struct {
	ProjectVariantID int64 `json:"project_variant_id" db:"project_variant_id" validate:"required,gt=0"`
	IndicatorID      int64 `json:"indicator_id" db:"indicator_id" validate:"required,gt=0"`
	Benchmark        int   `json:"benchmark" db:"benchmark" validate:"gte=0"`
}

// Rating returns the rating of the stored benchmark score.
func (b *ProjectIndicatorBenchmark) Rating() Rating {
	return RatingForScore(float64(b.Benchmark))
}

// GroupBenchmarkResult is the group caption reached by an indicator score.
type GroupBenchmarkResult struct {
	Name    string `json:"name"`
	Caption string `json:"caption"`
}

type Rating string

const (
	RatingGold   Rating = "gold"
	RatingSilver Rating = "silver"
	RatingBronze Rating = "bronze"
	RatingNone   Rating = ""
)

type ratingBand struct {
	rating   Rating
	min, max float64
}

// Bands are closed integer ranges; scores in the gaps between them rate none.
var ratingBands = []ratingBand{
	{RatingGold, 80, 100},
	{RatingSilver, 70, 79},
	{RatingBronze, 60, 69},
}

// RatingForScore maps a benchmark score in percent to its rating.
func RatingForScore(score float64) Rating {
	for _, band := range ratingBands {
		if score < band.min || score > band.max {
			continue
		}
		return band.rating
	}
	return RatingNone
}

// RatingBounds returns the inclusive lower and upper score of a rating.
func RatingBounds(rating Rating) (float64, float64, error) {
	for _, band := range ratingBands {
		if band.rating == rating {
			return band.min, band.max, nil
		}
	}
	return 0, 0, fmt.Errorf("unknown rating %q", rating)
}
