package models

// Life cycle phases
const (
	LifeCyclePhaseProd  = "prod"
	LifeCyclePhaseOp    = "op"
	LifeCyclePhaseEol   = "eol"
	LifeCyclePhaseRec   = "rec"
	LifeCyclePhaseMaint = "maint"
	LifeCyclePhaseTotal = "total"
)

// Life cycle idents (EN 15804 modules)
const (
	LifeCycleIdentA13   = "A1-3"
	LifeCycleIdentA1    = "A1"
	LifeCycleIdentA2    = "A2"
	LifeCycleIdentA3    = "A3"
	LifeCycleIdentA4    = "A4"
	LifeCycleIdentA5    = "A5"
	LifeCycleIdentB6    = "B6"
	LifeCycleIdentC1    = "C1"
	LifeCycleIdentC2    = "C2"
	LifeCycleIdentC3    = "C3"
	LifeCycleIdentC4    = "C4"
	LifeCycleIdentD     = "D"
	LifeCycleIdentTotal = "total"
)

// Indicator idents
const (
	IndicatorPeNEm = "peNEm"
	IndicatorPeEm  = "peEm"
	IndicatorPet   = "pet"
	IndicatorPere  = "pere"
	IndicatorPerm  = "perm"
	IndicatorPenre = "penre"
	IndicatorPenrm = "penrm"
	IndicatorPert  = "pert"
	IndicatorPenrt = "penrt"
	IndicatorGwp   = "gwp"
	IndicatorOdp   = "odp"
)

type LifeCycle struct {
	Ident       string `json:"ident" db:"ident"`
	Name        string `json:"name" db:"name"`
	Phase       string `json:"phase" db:"phase"`
	Description string `json:"description,omitempty" db:"description"`
	POrder      int    `json:"p_order" db:"p_order"`
}

type Indicator struct {
	ID       int64  `json:"id" db:"id"`
	Ident    string `json:"ident" db:"ident"`
	Name     string `json:"name" db:"name"`
	Unit     string `json:"unit" db:"unit"`
	IsHidden bool   `json:"is_hidden" db:"is_hidden"`
	POrder   int    `json:"p_order" db:"p_order"`
}
