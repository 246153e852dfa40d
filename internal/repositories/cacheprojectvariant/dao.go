package cacheprojectvariant

import (
	"database/sql"

	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

const projectVariantsTable = "elca_cache.project_variants"

// CacheProjectVariantRow represents the database row for a project variant root
type CacheProjectVariantRow struct {
	ItemID           sql.NullInt64 `db:"item_id"`
	ProjectVariantID sql.NullInt64 `db:"project_variant_id"`
}

var projectVariantStruct = database.NewStruct(new(CacheProjectVariantRow))

func ToCacheProjectVariant(row *CacheProjectVariantRow) *models.CacheProjectVariant {
	return &models.CacheProjectVariant{
		ItemID:           row.ItemID.Int64,
		ProjectVariantID: row.ProjectVariantID.Int64,
	}
}

func ToCacheProjectVariants(rows []CacheProjectVariantRow) []*models.CacheProjectVariant {
	nodes := make([]*models.CacheProjectVariant, len(rows))
	for i := range rows {
		nodes[i] = ToCacheProjectVariant(&rows[i])
	}
	return nodes
}
