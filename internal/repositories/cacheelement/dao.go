package cacheelement

import (
	"database/sql"

	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

const elementsTable = "elca_cache.elements"

// CacheElementRow represents the database row for a cached element
type CacheElementRow struct {
	ItemID          sql.NullInt64   `db:"item_id"`
	ElementID       sql.NullInt64   `db:"element_id"`
	CompositeItemID sql.NullInt64   `db:"composite_item_id"`
	Mass            sql.NullFloat64 `db:"mass"`
	Quantity        sql.NullFloat64 `db:"quantity"`
	RefUnit         sql.NullString  `db:"ref_unit"`
}

var elementStruct = database.NewStruct(new(CacheElementRow))

func FromCacheElement(node *models.CacheElement) *CacheElementRow {
	return &CacheElementRow{
		ItemID:          sql.NullInt64{Int64: node.ItemID, Valid: true},
		ElementID:       sql.NullInt64{Int64: node.ElementID, Valid: true},
		CompositeItemID: repositories.NullInt64(node.CompositeItemID),
		Mass:            repositories.NullFloat64(node.Mass),
		Quantity:        repositories.NullFloat64(node.Quantity),
		RefUnit:         repositories.NullString(node.RefUnit),
	}
}

func ToCacheElement(row *CacheElementRow) *models.CacheElement {
	return &models.CacheElement{
		ItemID:          row.ItemID.Int64,
		ElementID:       row.ElementID.Int64,
		CompositeItemID: repositories.Int64Value(row.CompositeItemID),
		Mass:            repositories.Float64Value(row.Mass),
		Quantity:        repositories.Float64Value(row.Quantity),
		RefUnit:         repositories.StringValue(row.RefUnit),
	}
}

func ToCacheElements(rows []CacheElementRow) []*models.CacheElement {
	nodes := make([]*models.CacheElement, len(rows))
	for i := range rows {
		nodes[i] = ToCacheElement(&rows[i])
	}
	return nodes
}
