package cacheindicator

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
	"github.com/huandu/go-sqlbuilder"
)

// CacheIndicatorRepository manages the indicator values attached to cache items.
type CacheIndicatorRepository interface {
	FindByPK(ctx context.Context, itemID int64, lifeCycleIdent string, indicatorID int64, processID *int64) (*models.CacheIndicator, error)
	FindByItemID(ctx context.Context, itemID int64) ([]*models.CacheIndicator, error)
	FindByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.CacheIndicator, error)
	Create(ctx context.Context, indicator *models.CacheIndicator) error
	Update(ctx context.Context, indicator *models.CacheIndicator) error
	Upsert(ctx context.Context, indicator *models.CacheIndicator) (bool, error)
	Copy(ctx context.Context, srcItemID, dstItemID int64) (bool, error)
	DeleteByItemID(ctx context.Context, itemID int64) error
	DeleteByItemIDAndLifeCyclePhase(ctx context.Context, itemID int64, phase string) error
	DeleteByItemIDAndLifeCycleIdent(ctx context.Context, itemID int64, lifeCycleIdent string) error
	DeleteElementTypeIndicatorsByProjectID(ctx context.Context, projectID int64) error
	CountDuplicateTotals(ctx context.Context, projectID int64) (int, error)
	CountA1A2OrA3Totals(ctx context.Context, projectID int64) (int, error)
	Aggregate(ctx context.Context, parentItemID int64) (int64, error)
}

// Repository implements CacheIndicatorRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new cache indicator repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func processIDCondition(cond *sqlbuilder.Cond, processID *int64) string {
	if processID == nil {
		return "process_id IS NULL"
	}
	return cond.Equal("process_id", *processID)
}

// FindByPK looks up a single row by its logical key. It returns nil when there is none.
func (r *Repository) FindByPK(ctx context.Context, itemID int64, lifeCycleIdent string, indicatorID int64, processID *int64) (*models.CacheIndicator, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.FindByPK")
	defer span.End()

	sb := indicatorStruct.SelectFrom(indicatorsTable)
	sb.Where(
		sb.Equal("item_id", itemID),
		sb.Equal("life_cycle_ident", lifeCycleIdent),
		sb.Equal("indicator_id", indicatorID),
		processIDCondition(&sb.Cond, processID),
	)

	query, args := sb.Build()

	var row CacheIndicatorRow
	err := database.Executor(ctx, r.db).GetContext(ctx, &row, query, args...)
	if repositories.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{
			"item_id":          itemID,
			"life_cycle_ident": lifeCycleIdent,
			"indicator_id":     indicatorID,
		}, "failed to get cache indicator")
	}

	return ToCacheIndicator(&row), nil
}

// FindByItemID lists the indicator rows of an item.
func (r *Repository) FindByItemID(ctx context.Context, itemID int64) ([]*models.CacheIndicator, error) {
	return r.FindByItemIDs(ctx, []int64{itemID})
}

// FindByItemIDs lists the indicator rows of several items.
func (r *Repository) FindByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.CacheIndicator, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.FindByItemIDs")
	defer span.End()

	if len(itemIDs) == 0 {
		return []*models.CacheIndicator{}, nil
	}

	sb := indicatorStruct.SelectFrom(indicatorsTable)
	sb.Where(sb.In("item_id", sqlbuilder.Flatten(itemIDs)...))
	sb.OrderBy("item_id", "life_cycle_ident", "indicator_id", "process_id").Asc()

	query, args := sb.Build()

	var rows []CacheIndicatorRow
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"item_ids": itemIDs}, "failed to list cache indicators")
	}

	return ToCacheIndicators(rows), nil
}

// Create inserts an indicator row.
func (r *Repository) Create(ctx context.Context, indicator *models.CacheIndicator) error {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(indicator); err != nil {
		return err
	}

	ib := indicatorStruct.InsertInto(indicatorsTable, FromCacheIndicator(indicator))
	query, args := ib.Build()

	if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return repositories.InternalError(ctx, r.logger, err, map[string]any{
			"item_id":          indicator.ItemID,
			"life_cycle_ident": indicator.LifeCycleIdent,
			"indicator_id":     indicator.IndicatorID,
		}, "failed to create cache indicator")
	}

	return nil
}

func (r *Repository) update(ctx context.Context, indicator *models.CacheIndicator) (int64, error) {
	ub := database.NewUpdateBuilder()
	ub.Update(indicatorsTable).
		Set(
			ub.Assign("value", indicator.Value),
			ub.Assign("ratio", indicator.Ratio),
			ub.Assign("is_partial", indicator.IsPartial),
		).
		Where(
			ub.Equal("item_id", indicator.ItemID),
			ub.Equal("life_cycle_ident", indicator.LifeCycleIdent),
			ub.Equal("indicator_id", indicator.IndicatorID),
			processIDCondition(&ub.Cond, indicator.ProcessID),
		)

	query, args := ub.Build()

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, repositories.InternalError(ctx, r.logger, err, map[string]any{
			"item_id":          indicator.ItemID,
			"life_cycle_ident": indicator.LifeCycleIdent,
			"indicator_id":     indicator.IndicatorID,
		}, "failed to update cache indicator")
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}

// Update writes value, ratio and the partial flag of an existing row.
func (r *Repository) Update(ctx context.Context, indicator *models.CacheIndicator) error {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.Update")
	defer span.End()

	if err := utils.ValidateStruct(indicator); err != nil {
		return err
	}

	affected, err := r.update(ctx, indicator)
	if err != nil {
		return err
	}
	if affected == 0 {
		return repositories.NotFound("cache indicator %d/%s/%d does not exist", indicator.ItemID, indicator.LifeCycleIdent, indicator.IndicatorID)
	}
	return nil
}

// Upsert updates the row with the same logical key or inserts it. It reports whether a row was inserted.
func (r *Repository) Upsert(ctx context.Context, indicator *models.CacheIndicator) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.Upsert")
	defer span.End()

	if err := utils.ValidateStruct(indicator); err != nil {
		return false, err
	}

	inserted := false
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		affected, err := r.update(ctx, indicator)
		if err != nil || affected > 0 {
			return err
		}
		inserted = true
		return r.Create(ctx, indicator)
	})

	return inserted, err
}

// Copy duplicates every indicator row of srcItemID onto dstItemID in one statement.
// It returns false without error when either id is zero.
func (r *Repository) Copy(ctx context.Context, srcItemID, dstItemID int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.Copy")
	defer span.End()

	if srcItemID == 0 || dstItemID == 0 {
		return false, nil
	}

	query, args := database.Build(`INSERT INTO elca_cache.indicators (item_id, life_cycle_ident, indicator_id, process_id, value, ratio, is_partial)
SELECT ${dst}, life_cycle_ident, indicator_id, process_id, value, ratio, is_partial
FROM elca_cache.indicators
WHERE item_id = ${src}`, map[string]any{"src": srcItemID, "dst": dstItemID})

	if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return false, repositories.InternalError(ctx, r.logger, err, map[string]any{
			"src_item_id": srcItemID,
			"dst_item_id": dstItemID,
		}, "failed to copy cache indicators")
	}

	return true, nil
}

func (r *Repository) exec(ctx context.Context, query string, args []any, fields map[string]any, message string) error {
	if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return repositories.InternalError(ctx, r.logger, err, fields, message)
	}
	return nil
}

// DeleteByItemID removes all indicator rows of an item.
func (r *Repository) DeleteByItemID(ctx context.Context, itemID int64) error {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.DeleteByItemID")
	defer span.End()

	dlb := database.NewDeleteBuilder()
	dlb.DeleteFrom(indicatorsTable).Where(dlb.Equal("item_id", itemID))
	query, args := dlb.Build()

	return r.exec(ctx, query, args, map[string]any{"item_id": itemID}, "failed to delete cache indicators")
}

// DeleteByItemIDAndLifeCyclePhase removes the rows of every life cycle ident in phase.
func (r *Repository) DeleteByItemIDAndLifeCyclePhase(ctx context.Context, itemID int64, phase string) error {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.DeleteByItemIDAndLifeCyclePhase")
	defer span.End()

	query, args := database.Build(`DELETE FROM elca_cache.indicators
WHERE item_id = ${itemId}
  AND life_cycle_ident IN (SELECT ident FROM elca.life_cycles WHERE phase = ${phase})`,
		map[string]any{"itemId": itemID, "phase": phase})

	return r.exec(ctx, query, args, map[string]any{"item_id": itemID, "phase": phase}, "failed to delete cache indicators by phase")
}

// DeleteByItemIDAndLifeCycleIdent removes the rows of one life cycle ident.
func (r *Repository) DeleteByItemIDAndLifeCycleIdent(ctx context.Context, itemID int64, lifeCycleIdent string) error {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.DeleteByItemIDAndLifeCycleIdent")
	defer span.End()

	dlb := database.NewDeleteBuilder()
	dlb.DeleteFrom(indicatorsTable).Where(
		dlb.Equal("item_id", itemID),
		dlb.Equal("life_cycle_ident", lifeCycleIdent),
	)
	query, args := dlb.Build()

	return r.exec(ctx, query, args, map[string]any{"item_id": itemID, "life_cycle_ident": lifeCycleIdent}, "failed to delete cache indicators by ident")
}

// DeleteElementTypeIndicatorsByProjectID removes the indicators of every element type branch of a project.
func (r *Repository) DeleteElementTypeIndicatorsByProjectID(ctx context.Context, projectID int64) error {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.DeleteElementTypeIndicatorsByProjectID")
	defer span.End()

	query, args := database.Build(`DELETE FROM elca_cache.indicators
WHERE item_id IN (
    SELECT t.item_id
    FROM elca_cache.element_types t
        JOIN elca.project_variants v ON v.id = t.project_variant_id
    WHERE v.project_id = ${projectId}
)`, map[string]any{"projectId": projectID})

	return r.exec(ctx, query, args, map[string]any{"project_id": projectID}, "failed to delete element type indicators")
}

func (r *Repository) count(ctx context.Context, query string, args []any, projectID int64, message string) (int, error) {
	var count int
	if err := database.Executor(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		return 0, repositories.InternalError(ctx, r.logger, err, map[string]any{"project_id": projectID}, message)
	}
	return count, nil
}

// CountDuplicateTotals counts items of a project with more than one GWP total row.
// A correctly computed project yields zero.
func (r *Repository) CountDuplicateTotals(ctx context.Context, projectID int64) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.CountDuplicateTotals")
	defer span.End()

	if projectID == 0 {
		return 0, nil
	}

	query, args := database.Build(fmt.Sprintf(`SELECT count(*) FROM (
    SELECT ci.item_id
    FROM %s ci
        JOIN elca.indicators i ON i.id = ci.indicator_id
    WHERE ci.life_cycle_ident = ${lcIdent}
      AND i.ident = ${indicatorIdent}
      AND ci.project_id = ${projectId}
    GROUP BY ci.item_id, ci.life_cycle_ident
    HAVING count(*) > 1
) duplicates`, indicatorsView), map[string]any{
		"lcIdent":        models.LifeCycleIdentTotal,
		"indicatorIdent": models.IndicatorGwp,
		"projectId":      projectID,
	})

	return r.count(ctx, query, args, projectID, "failed to count duplicate totals")
}

// CountA1A2OrA3Totals counts complete GWP rows of the A1, A2 and A3 modules on project variant roots.
func (r *Repository) CountA1A2OrA3Totals(ctx context.Context, projectID int64) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.CountA1A2OrA3Totals")
	defer span.End()

	if projectID == 0 {
		return 0, nil
	}

	query, args := database.Build(fmt.Sprintf(`SELECT count(*)
FROM %s ci
    JOIN elca.indicators i ON i.id = ci.indicator_id
WHERE ci.life_cycle_ident IN (${a1}, ${a2}, ${a3})
  AND ci.type = ${type}
  AND i.ident = ${indicatorIdent}
  AND ci.is_partial = false
  AND ci.project_id = ${projectId}`, indicatorsView), map[string]any{
		"a1":             models.LifeCycleIdentA1,
		"a2":             models.LifeCycleIdentA2,
		"a3":             models.LifeCycleIdentA3,
		"type":           models.CacheItemTypeProjectVariant,
		"indicatorIdent": models.IndicatorGwp,
		"projectId":      projectID,
	})

	return r.count(ctx, query, args, projectID, "failed to count A1, A2 or A3 totals")
}

// Aggregate replaces the summary rows (process_id NULL) of parentItemID with the sums of its
// non-virtual children. A child contributes its own summary rows where it has them and its
// per-process rows otherwise. It returns the number of rows written.
func (r *Repository) Aggregate(ctx context.Context, parentItemID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheIndicatorRepository.Aggregate")
	defer span.End()

	var written int64
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		dlb := database.NewDeleteBuilder()
		dlb.DeleteFrom(indicatorsTable).Where(dlb.Equal("item_id", parentItemID), "process_id IS NULL")
		query, args := dlb.Build()

		if err := r.exec(ctx, query, args, map[string]any{"item_id": parentItemID}, "failed to clear aggregated indicators"); err != nil {
			return err
		}

		query, args = database.Build(`INSERT INTO elca_cache.indicators (item_id, life_cycle_ident, indicator_id, process_id, value, ratio, is_partial)
SELECT ${parentId}, ci.life_cycle_ident, ci.indicator_id, NULL, sum(ci.value), 1, bool_or(ci.is_partial)
FROM elca_cache.indicators ci
    JOIN elca_cache.items i ON i.id = ci.item_id
WHERE i.parent_id = ${parentId}
  AND NOT i.is_virtual
  AND (ci.process_id IS NULL OR NOT EXISTS (
      SELECT 1 FROM elca_cache.indicators s
      WHERE s.item_id = ci.item_id
        AND s.life_cycle_ident = ci.life_cycle_ident
        AND s.indicator_id = ci.indicator_id
        AND s.process_id IS NULL))
GROUP BY ci.life_cycle_ident, ci.indicator_id`, map[string]any{"parentId": parentItemID})

		result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
		if err != nil {
			return repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": parentItemID}, "failed to aggregate cache indicators")
		}
		written, _ = result.RowsAffected()
		return nil
	})

	return written, err
}
