package cacheindicator

import (
	"database/sql"

	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

const (
	indicatorsTable = "elca_cache.indicators"
	indicatorsView  = "elca_cache.indicators_v"
)

// CacheIndicatorRow represents the database row for a cache indicator
type CacheIndicatorRow struct {
	ItemID         sql.NullInt64   `db:"item_id"`
	LifeCycleIdent sql.NullString  `db:"life_cycle_ident"`
	IndicatorID    sql.NullInt64   `db:"indicator_id"`
	ProcessID      sql.NullInt64   `db:"process_id"`
	Value          sql.NullFloat64 `db:"value"`
	Ratio          sql.NullFloat64 `db:"ratio"`
	IsPartial      sql.NullBool    `db:"is_partial"`
}

var indicatorStruct = database.NewStruct(new(CacheIndicatorRow))

// FromCacheIndicator converts a domain model to a database row
func FromCacheIndicator(i *models.CacheIndicator) *CacheIndicatorRow {
	row := &CacheIndicatorRow{
		ItemID:         sql.NullInt64{Int64: i.ItemID, Valid: true},
		LifeCycleIdent: sql.NullString{String: i.LifeCycleIdent, Valid: true},
		IndicatorID:    sql.NullInt64{Int64: i.IndicatorID, Valid: true},
		Value:          sql.NullFloat64{Float64: i.Value, Valid: true},
		Ratio:          sql.NullFloat64{Float64: i.Ratio, Valid: true},
		IsPartial:      sql.NullBool{Bool: i.IsPartial, Valid: true},
	}
	if i.ProcessID != nil {
		row.ProcessID = sql.NullInt64{Int64: *i.ProcessID, Valid: true}
	}
	return row
}

// ToCacheIndicator converts a database row to a domain model
func ToCacheIndicator(row *CacheIndicatorRow) *models.CacheIndicator {
	i := &models.CacheIndicator{
		ItemID:         row.ItemID.Int64,
		LifeCycleIdent: row.LifeCycleIdent.String,
		IndicatorID:    row.IndicatorID.Int64,
		Value:          row.Value.Float64,
		Ratio:          row.Ratio.Float64,
		IsPartial:      row.IsPartial.Bool,
	}
	if row.ProcessID.Valid {
		processID := row.ProcessID.Int64
		i.ProcessID = &processID
	}
	return i
}

// ToCacheIndicators converts a slice of database rows to domain models
func ToCacheIndicators(rows []CacheIndicatorRow) []*models.CacheIndicator {
	indicators := make([]*models.CacheIndicator, len(rows))
	for i := range rows {
		indicators[i] = ToCacheIndicator(&rows[i])
	}
	return indicators
}
