package cacheelementcomponent

import (
	"database/sql"

	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

const componentsTable = "elca_cache.element_components"

type CacheElementComponentRow struct {
	ItemID             sql.NullInt64   `db:"item_id"`
	ElementComponentID sql.NullInt64   `db:"element_component_id"`
	Mass               sql.NullFloat64 `db:"mass"`
	Quantity           sql.NullFloat64 `db:"quantity"`
	RefUnit            sql.NullString  `db:"ref_unit"`
	NumReplacements    sql.NullInt32   `db:"num_replacements"`
}

var componentStruct = database.NewStruct(new(CacheElementComponentRow))

func FromCacheElementComponent(node *models.CacheElementComponent) *CacheElementComponentRow {
	return &CacheElementComponentRow{
		ItemID:             sql.NullInt64{Int64: node.ItemID, Valid: true},
		ElementComponentID: sql.NullInt64{Int64: node.ElementComponentID, Valid: true},
		Mass:               repositories.NullFloat64(node.Mass),
		Quantity:           repositories.NullFloat64(node.Quantity),
		RefUnit:            repositories.NullString(node.RefUnit),
		NumReplacements:    repositories.NullInt(node.NumReplacements),
	}
}

func ToCacheElementComponent(row *CacheElementComponentRow) *models.CacheElementComponent {
	return &models.CacheElementComponent{
		ItemID:             row.ItemID.Int64,
		ElementComponentID: row.ElementComponentID.Int64,
		Mass:               repositories.Float64Value(row.Mass),
		Quantity:           repositories.Float64Value(row.Quantity),
		RefUnit:            repositories.StringValue(row.RefUnit),
		NumReplacements:    repositories.IntValue(row.NumReplacements),
	}
}

func ToCacheElementComponents(rows []CacheElementComponentRow) []*models.CacheElementComponent {
	nodes := make([]*models.CacheElementComponent, len(rows))
	for i := range rows {
		nodes[i] = ToCacheElementComponent(&rows[i])
	}
	return nodes
}
