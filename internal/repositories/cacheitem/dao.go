package cacheitem

import (
	"database/sql"

	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

const (
	itemsTable = "elca_cache.items"
)

var itemColumns = []string{"id", "parent_id", "project_id", "type", "is_virtual", "is_outdated", "version", "created", "modified"}

// CacheItemRow represents the database row for a cache item
type CacheItemRow struct {
	ID         sql.NullInt64  `db:"id"`
	ParentID   sql.NullInt64  `db:"parent_id"`
	ProjectID  sql.NullInt64  `db:"project_id"`
	Type       sql.NullString `db:"type"`
	IsVirtual  sql.NullBool   `db:"is_virtual"`
	IsOutdated sql.NullBool   `db:"is_outdated"`
	Version    sql.NullInt64  `db:"version"`
	Created    sql.NullTime   `db:"created"`
	Modified   sql.NullTime   `db:"modified"`
}

// OutdatedCacheItemRow is a cache item row with its depth below the root.
type OutdatedCacheItemRow struct {
	CacheItemRow
	Depth sql.NullInt64 `db:"depth"`
}

var itemStruct = database.NewStruct(new(CacheItemRow))

// ToCacheItem converts a database row to a domain model
func ToCacheItem(row *CacheItemRow) *models.CacheItem {
	item := &models.CacheItem{
		ID:         row.ID.Int64,
		ProjectID:  row.ProjectID.Int64,
		Type:       row.Type.String,
		IsVirtual:  row.IsVirtual.Bool,
		IsOutdated: row.IsOutdated.Bool,
		Version:    row.Version.Int64,
		Created:    row.Created.Time,
		Modified:   row.Modified.Time,
	}
	if row.ParentID.Valid {
		parentID := row.ParentID.Int64
		item.ParentID = &parentID
	}
	return item
}

// ToCacheItems converts a slice of database rows to domain models
func ToCacheItems(rows []CacheItemRow) []*models.CacheItem {
	items := make([]*models.CacheItem, len(rows))
	for i := range rows {
		items[i] = ToCacheItem(&rows[i])
	}
	return items
}

func toOutdatedCacheItems(rows []OutdatedCacheItemRow) []*models.OutdatedCacheItem {
	items := make([]*models.OutdatedCacheItem, len(rows))
	for i := range rows {
		items[i] = &models.OutdatedCacheItem{
			CacheItem: *ToCacheItem(&rows[i].CacheItemRow),
			Depth:     int(rows[i].Depth.Int64),
		}
	}
	return items
}
