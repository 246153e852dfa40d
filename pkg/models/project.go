package models

// The types below mirror rows of the host application's project tables. The cache only reads them.

type Project struct {
	ID                 int64  `json:"id" db:"id"`
	Name               string `json:"name" db:"name"`
	ProcessDbID        int64  `json:"process_db_id" db:"process_db_id"`
	CurrentVariantID   *int64 `json:"current_variant_id,omitempty" db:"current_variant_id"`
	BenchmarkVersionID *int64 `json:"benchmark_version_id,omitempty" db:"benchmark_version_id"`
}

type ProjectVariant struct {
	ID        int64  `json:"id" db:"id"`
	ProjectID int64  `json:"project_id" db:"project_id"`
	Name      string `json:"name" db:"name"`
}

// ElementTypeNode is a node of the element type nested set.
type ElementTypeNode struct {
	NodeID           int64  `json:"node_id" db:"node_id"`
	DinCode          *int   `json:"din_code,omitempty" db:"din_code"`
	Name             string `json:"name" db:"name"`
	IsCompositeLevel bool   `json:"is_composite_level" db:"is_composite_level"`
	Lft              int    `json:"lft" db:"lft"`
	Rgt              int    `json:"rgt" db:"rgt"`
	Level            int    `json:"level" db:"level"`
}

type Element struct {
	ID                int64  `json:"id" db:"id"`
	ElementTypeNodeID int64  `json:"element_type_node_id" db:"element_type_node_id"`
	ProjectVariantID  *int64 `json:"project_variant_id,omitempty" db:"project_variant_id"`
	Name              string `json:"name" db:"name"`
	IsComposite       bool   `json:"is_composite" db:"is_composite"`
}

type ElementComponent struct {
	ID        int64 `json:"id" db:"id"`
	ElementID int64 `json:"element_id" db:"element_id"`
}

type FinalEnergyDemand struct {
	ID               int64 `json:"id" db:"id"`
	ProjectVariantID int64 `json:"project_variant_id" db:"project_variant_id"`
}

type FinalEnergySupply struct {
	ID               int64 `json:"id" db:"id"`
	ProjectVariantID int64 `json:"project_variant_id" db:"project_variant_id"`
}

type FinalEnergyRefModel struct {
	ID               int64 `json:"id" db:"id"`
	ProjectVariantID int64 `json:"project_variant_id" db:"project_variant_id"`
}

type TransportMean struct {
	ID               int64 `json:"id" db:"id"`
	ProjectVariantID int64 `json:"project_variant_id" db:"project_variant_id"`
}
