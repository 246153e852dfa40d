package cacheelementtype

import (
	"database/sql"

	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

const elementTypesTable = "elca_cache.element_types"

// CacheElementTypeRow represents the database row for an element type branch
type CacheElementTypeRow struct {
	ItemID            sql.NullInt64   `db:"item_id"`
	ProjectVariantID  sql.NullInt64   `db:"project_variant_id"`
	ElementTypeNodeID sql.NullInt64   `db:"element_type_node_id"`
	Mass              sql.NullFloat64 `db:"mass"`
}

var elementTypeStruct = database.NewStruct(new(CacheElementTypeRow))

func FromCacheElementType(node *models.CacheElementType) *CacheElementTypeRow {
	return &CacheElementTypeRow{
		ItemID:            sql.NullInt64{Int64: node.ItemID, Valid: true},
		ProjectVariantID:  sql.NullInt64{Int64: node.ProjectVariantID, Valid: true},
		ElementTypeNodeID: sql.NullInt64{Int64: node.ElementTypeNodeID, Valid: true},
		Mass:              repositories.NullFloat64(node.Mass),
	}
}

func ToCacheElementType(row *CacheElementTypeRow) *models.CacheElementType {
	return &models.CacheElementType{
		ItemID:            row.ItemID.Int64,
		ProjectVariantID:  row.ProjectVariantID.Int64,
		ElementTypeNodeID: row.ElementTypeNodeID.Int64,
		Mass:              repositories.Float64Value(row.Mass),
	}
}

func ToCacheElementTypes(rows []CacheElementTypeRow) []*models.CacheElementType {
	nodes := make([]*models.CacheElementType, len(rows))
	for i := range rows {
		nodes[i] = ToCacheElementType(&rows[i])
	}
	return nodes
}
