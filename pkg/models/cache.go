package models

import "time"

// Item types name the node type that owns a cache item.
const (
	CacheItemTypeProjectVariant      = "ElcaCacheProjectVariant"
	CacheItemTypeElementType         = "ElcaCacheElementType"
	CacheItemTypeElement             = "ElcaCacheElement"
	CacheItemTypeElementComponent    = "ElcaCacheElementComponent"
	CacheItemTypeFinalEnergyDemand   = "ElcaCacheFinalEnergyDemand"
	CacheItemTypeFinalEnergySupply   = "ElcaCacheFinalEnergySupply"
	CacheItemTypeFinalEnergyRefModel = "ElcaCacheFinalEnergyRefModel"
	CacheItemTypeTransportMean       = "ElcaCacheTransportMean"
)

// CacheItem is a node of the result cache tree. Every cached aggregate owns exactly one item.
type CacheItem struct {
	ID         int64     `json:"id" db:"id"`
	ParentID   *int64    `json:"parent_id,omitempty" db:"parent_id"`
	ProjectID  int64     `json:"project_id" db:"project_id"`
	Type       string    `json:"type" db:"type"`
	IsVirtual  bool      `json:"is_virtual" db:"is_virtual"`
	IsOutdated bool      `json:"is_outdated" db:"is_outdated"`
	Version    int64     `json:"version" db:"version"`
	Created    time.Time `json:"created" db:"created"`
	Modified   time.Time `json:"modified,omitempty" db:"modified"`
}

// IsRoot reports whether the item has no parent.
func (i *CacheItem) IsRoot() bool {
	return i.ParentID == nil
}

// NewCacheItem holds the values needed to allocate a cache item.
type NewCacheItem struct {
	ProjectID  int64  `validate:"required,gt=0"`
	Type       string `validate:"required,min=1,max=100"`
	ParentID   *int64
	IsVirtual  bool
	IsOutdated bool
}

// OutdatedCacheItem is a dirty item together with its depth in the tree.
type OutdatedCacheItem struct {
	CacheItem
	Depth int `json:"depth" db:"depth"`
}

// CacheIndicator is one indicator value of a cache item for a life cycle ident.
type CacheIndicator struct {
	ItemID         int64   `json:"item_id" db:"item_id" validate:"required,gt=0"`
	LifeCycleIdent string  `json:"life_cycle_ident" db:"life_cycle_ident" validate:"required,max=20"`
	IndicatorID    int64   `json:"indicator_id" db:"indicator_id" validate:"required,gt=0"`
	ProcessID      *int64  `json:"process_id,omitempty" db:"process_id"`
	Value          float64 `json:"value" db:"value"`
	Ratio          float64 `json:"ratio" db:"ratio" validate:"gte=0,lte=1"`
	IsPartial      bool    `json:"is_partial" db:"is_partial"`
}

// CacheIndicatorView joins indicator rows with their item and indicator ident.
type CacheIndicatorView struct {
	CacheIndicator
	IndicatorIdent string `json:"indicator_ident" db:"indicator_ident"`
	ProjectID      int64  `json:"project_id" db:"project_id"`
	Type           string `json:"type" db:"type"`
}

// CacheProjectVariant is the root of a project variant's cache tree.
type CacheProjectVariant struct {
	ItemID           int64      `json:"item_id" db:"item_id"`
	ProjectVariantID int64      `json:"project_variant_id" db:"project_variant_id" validate:"required,gt=0"`
	Item             *CacheItem `json:"item,omitempty"`
}

// CacheElementType is an element type branch. Mass is the aggregated mass of its elements.
type CacheElementType struct {
	ItemID            int64      `json:"item_id" db:"item_id"`
	ProjectVariantID  int64      `json:"project_variant_id" db:"project_variant_id" validate:"required,gt=0"`
	ElementTypeNodeID int64      `json:"element_type_node_id" db:"element_type_node_id" validate:"required,gt=0"`
	Mass              *float64   `json:"mass,omitempty" db:"mass"`
	Item              *CacheItem `json:"item,omitempty"`
}

// CacheElement caches an element of a project variant.
type CacheElement struct {
	ItemID          int64      `json:"item_id" db:"item_id"`
	ElementID       int64      `json:"element_id" db:"element_id" validate:"required,gt=0"`
	CompositeItemID *int64     `json:"composite_item_id,omitempty" db:"composite_item_id"`
	Mass            *float64   `json:"mass,omitempty" db:"mass"`
	Quantity        *float64   `json:"quantity,omitempty" db:"quantity"`
	RefUnit         *string    `json:"ref_unit,omitempty" db:"ref_unit" validate:"omitempty,max=10"`
	Item            *CacheItem `json:"item,omitempty"`
}

// CacheElementComponent caches a component of an element.
type CacheElementComponent struct {
	ItemID             int64      `json:"item_id" db:"item_id"`
	ElementComponentID int64      `json:"element_component_id" db:"element_component_id" validate:"required,gt=0"`
	Mass               *float64   `json:"mass,omitempty" db:"mass"`
	Quantity           *float64   `json:"quantity,omitempty" db:"quantity"`
	RefUnit            *string    `json:"ref_unit,omitempty" db:"ref_unit" validate:"omitempty,max=10"`
	NumReplacements    *int       `json:"num_replacements,omitempty" db:"num_replacements" validate:"omitempty,gte=0"`
	Item               *CacheItem `json:"item,omitempty"`
}

// CacheFinalEnergyDemand caches a final energy demand.
type CacheFinalEnergyDemand struct {
	ItemID              int64      `json:"item_id" db:"item_id"`
	FinalEnergyDemandID int64      `json:"final_energy_demand_id" db:"final_energy_demand_id" validate:"required,gt=0"`
	Quantity            *float64   `json:"quantity,omitempty" db:"quantity"`
	RefUnit             *string    `json:"ref_unit,omitempty" db:"ref_unit" validate:"omitempty,max=10"`
	Item                *CacheItem `json:"item,omitempty"`
}

// CacheFinalEnergySupply caches a final energy supply.
type CacheFinalEnergySupply struct {
	ItemID              int64      `json:"item_id" db:"item_id"`
	FinalEnergySupplyID int64      `json:"final_energy_supply_id" db:"final_energy_supply_id" validate:"required,gt=0"`
	Quantity            *float64   `json:"quantity,omitempty" db:"quantity"`
	RefUnit             *string    `json:"ref_unit,omitempty" db:"ref_unit" validate:"omitempty,max=10"`
	Item                *CacheItem `json:"item,omitempty"`
}

// CacheFinalEnergyRefModel caches a final energy reference model. Its item is always virtual.
type CacheFinalEnergyRefModel struct {
	ItemID                int64      `json:"item_id" db:"item_id"`
	FinalEnergyRefModelID int64      `json:"final_energy_ref_model_id" db:"final_energy_ref_model_id" validate:"required,gt=0"`
	Quantity              *float64   `json:"quantity,omitempty" db:"quantity"`
	RefUnit               *string    `json:"ref_unit,omitempty" db:"ref_unit" validate:"omitempty,max=10"`
	Item                  *CacheItem `json:"item,omitempty"`
}

// CacheTransportMean caches a transport mean.
type CacheTransportMean struct {
	ItemID          int64      `json:"item_id" db:"item_id"`
	TransportMeanID int64      `json:"transport_mean_id" db:"transport_mean_id" validate:"required,gt=0"`
	Quantity        *float64   `json:"quantity,omitempty" db:"quantity"`
	RefUnit         *string    `json:"ref_unit,omitempty" db:"ref_unit" validate:"omitempty,max=10"`
	Item            *CacheItem `json:"item,omitempty"`
}

// CacheTreeNode is a read model of the cache tree returned by the API.
type CacheTreeNode struct {
	Item       *CacheItem        `json:"item"`
	Indicators []*CacheIndicator `json:"indicators,omitempty"`
	Children   []*CacheTreeNode  `json:"children,omitempty"`
}

// CacheCheck reports the integrity checks of a project's cache.
type CacheCheck struct {
	ProjectID       int64 `json:"project_id"`
	DuplicateTotals int   `json:"duplicate_totals"`
	A1A2OrA3Totals  int   `json:"a1_a2_or_a3_totals"`
}

// OK reports whether no duplicate totals were found.
func (c CacheCheck) OK() bool {
	return c.DuplicateTotals == 0
}

// IndicatorResults are the values of one life cycle module computed for a cache item.
// ProcessID is set when the values belong to a single process of the item.
type IndicatorResults struct {
	LifeCycleIdent string           `json:"life_cycle_ident" validate:"required,max=20"`
	ProcessID      *int64           `json:"process_id,omitempty"`
	Ratio          float64          `json:"ratio" validate:"gte=0,lte=1"`
	Values         []IndicatorValue `json:"values" validate:"dive"`
}

type IndicatorValue struct {
	IndicatorID int64   `json:"indicator_id" validate:"required,gt=0"`
	Value       float64 `json:"value"`
}

// CacheRefresh reports a recomputation run.
type CacheRefresh struct {
	ProjectID  int64   `json:"project_id"`
	Recomputed int     `json:"recomputed"`
	Aggregated int     `json:"aggregated"`
	Conflicts  int     `json:"conflicts"`
	ItemIDs    []int64 `json:"item_ids,omitempty"`
}

// CloneMaps map the ids of a source project variant's owners to their copies.
type CloneMaps struct {
	Elements             map[int64]int64 `json:"elements"`
	ElementComponents    map[int64]int64 `json:"element_components"`
	FinalEnergyDemands   map[int64]int64 `json:"final_energy_demands"`
	FinalEnergySupplies  map[int64]int64 `json:"final_energy_supplies"`
	FinalEnergyRefModels map[int64]int64 `json:"final_energy_ref_models"`
	TransportMeans       map[int64]int64 `json:"transport_means"`
}
