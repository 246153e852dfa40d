package cacheitem

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

// CacheItemRepository manages the nodes of the result cache tree.
type CacheItemRepository interface {
	Create(ctx context.Context, item models.NewCacheItem) (*models.CacheItem, error)
	FindByID(ctx context.Context, id int64) (*models.CacheItem, error)
	Get(ctx context.Context, id int64) (*models.CacheItem, error)
	FindByParentID(ctx context.Context, parentID int64) ([]*models.CacheItem, error)
	FindSubtree(ctx context.Context, rootID int64) ([]*models.OutdatedCacheItem, error)
	FindOutdatedByProjectID(ctx context.Context, projectID int64) ([]*models.OutdatedCacheItem, error)
	FindOutdatedBySubtree(ctx context.Context, rootID int64) ([]*models.OutdatedCacheItem, error)
	SetIsOutdated(ctx context.Context, id int64, isOutdated bool) error
	MarkAncestorsOutdated(ctx context.Context, id int64) (int64, error)
	MarkAncestorsOfOutdatedOutdated(ctx context.Context, projectID int64) (int64, error)
	UpdateIsVirtual(ctx context.Context, id int64, isVirtual bool) error
	CompleteRecompute(ctx context.Context, id int64, expectedVersion int64) error
	Delete(ctx context.Context, id int64) error
}

// Repository implements CacheItemRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new cache item repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func memoKey(id int64) string {
	return memo.Key("cache_item", id)
}

// Create inserts a new item. It runs on the transaction bound to ctx so the item and
// its owning node row commit or roll back together.
func (r *Repository) Create(ctx context.Context, item models.NewCacheItem) (*models.CacheItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(item); err != nil {
		return nil, err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(itemsTable).
		Cols("parent_id", "project_id", "type", "is_virtual", "is_outdated").
		Values(repositories.NullInt64(item.ParentID), item.ProjectID, item.Type, item.IsVirtual, item.IsOutdated).
		Returning(itemColumns...)

	query, args := ib.Build()

	var row CacheItemRow
	if err := database.Executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{
			"project_id": item.ProjectID,
			"type":       item.Type,
		}, "failed to create cache item")
	}

	created := ToCacheItem(&row)

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"item_id":    created.ID,
		"project_id": created.ProjectID,
		"type":       created.Type,
	}).Debugf("Created %s", itemsTable)

	return created, nil
}

// FindByID reads an item from the database. It returns nil when the item does not exist.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.CacheItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.FindByID")
	defer span.End()

	sb := itemStruct.SelectFrom(itemsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var row CacheItemRow
	err := database.Executor(ctx, r.db).GetContext(ctx, &row, query, args...)
	if repositories.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": id}, "failed to get cache item")
	}

	return ToCacheItem(&row), nil
}

// Get returns the item remembered for this request or reads it.
func (r *Repository) Get(ctx context.Context, id int64) (*models.CacheItem, error) {
	return memo.GetOrFetch(ctx, memoKey(id), func(ctx context.Context) (*models.CacheItem, error) {
		return r.FindByID(ctx, id)
	})
}

// FindByParentID lists the direct children of an item.
func (r *Repository) FindByParentID(ctx context.Context, parentID int64) ([]*models.CacheItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.FindByParentID")
	defer span.End()

	sb := itemStruct.SelectFrom(itemsTable)
	sb.Where(sb.Equal("parent_id", parentID))
	sb.OrderBy("id").Asc()

	query, args := sb.Build()

	var rows []CacheItemRow
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"parent_id": parentID}, "failed to list cache items")
	}

	return ToCacheItems(rows), nil
}

const treeQuery = `WITH RECURSIVE tree AS (
    SELECT id, 0 AS depth FROM elca_cache.items WHERE %s
    UNION ALL
    SELECT c.id, t.depth + 1 FROM elca_cache.items c JOIN tree t ON c.parent_id = t.id
)
SELECT i.id, i.parent_id, i.project_id, i.type, i.is_virtual, i.is_outdated, i.version, i.created, i.modified, t.depth
FROM elca_cache.items i
    JOIN tree t ON t.id = i.id
WHERE %s
ORDER BY t.depth DESC, i.id`

func (r *Repository) selectTree(ctx context.Context, seed string, outdatedOnly bool, args map[string]any) ([]*models.OutdatedCacheItem, error) {
	filter := "true"
	if outdatedOnly {
		filter = "i.is_outdated"
	}
	format := strings.Replace(treeQuery, "%s", seed, 1)
	format = strings.Replace(format, "%s", filter, 1)

	query, queryArgs := database.Build(format, args)

	var rows []OutdatedCacheItemRow
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &rows, query, queryArgs...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, args, "failed to walk cache tree")
	}

	return toOutdatedCacheItems(rows), nil
}

// FindSubtree returns rootID and all its descendants, deepest first.
func (r *Repository) FindSubtree(ctx context.Context, rootID int64) ([]*models.OutdatedCacheItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.FindSubtree")
	defer span.End()

	return r.selectTree(ctx, "id = ${rootId}", false, map[string]any{"rootId": rootID})
}

// FindOutdatedByProjectID returns the dirty items of all trees of a project, deepest first.
func (r *Repository) FindOutdatedByProjectID(ctx context.Context, projectID int64) ([]*models.OutdatedCacheItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.FindOutdatedByProjectID")
	defer span.End()

	return r.selectTree(ctx, "project_id = ${projectId} AND parent_id IS NULL", true, map[string]any{"projectId": projectID})
}

// FindOutdatedBySubtree returns the dirty items below and including rootID, deepest first.
// Depth is relative to rootID.
func (r *Repository) FindOutdatedBySubtree(ctx context.Context, rootID int64) ([]*models.OutdatedCacheItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.FindOutdatedBySubtree")
	defer span.End()

	return r.selectTree(ctx, "id = ${rootId}", true, map[string]any{"rootId": rootID})
}

// SetIsOutdated flips the dirty flag of a single item. It never touches parents or children.
func (r *Repository) SetIsOutdated(ctx context.Context, id int64, isOutdated bool) error {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.SetIsOutdated")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(itemsTable).
		Set(
			ub.Assign("is_outdated", isOutdated),
			"version = version + 1",
			"modified = now()",
		).
		Where(ub.Equal("id", id))

	query, args := ub.Build()

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": id}, "failed to update cache item")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return repositories.NotFound("cache item %d does not exist", id)
	}

	memo.Forget(ctx, memoKey(id))
	return nil
}

// MarkAncestorsOutdated marks every ancestor of id outdated and returns how many were touched.
func (r *Repository) MarkAncestorsOutdated(ctx context.Context, id int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.MarkAncestorsOutdated")
	defer span.End()

	query, args := database.Build(`WITH RECURSIVE ancestors AS (
    SELECT parent_id AS id FROM elca_cache.items WHERE id = ${id} AND parent_id IS NOT NULL
    UNION
    SELECT p.parent_id FROM elca_cache.items p JOIN ancestors a ON p.id = a.id WHERE p.parent_id IS NOT NULL
)
UPDATE elca_cache.items
SET is_outdated = true, version = version + 1, modified = now()
WHERE id IN (SELECT id FROM ancestors)`, map[string]any{"id": id})

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": id}, "failed to mark cache item ancestors outdated")
	}

	memo.ForgetPrefix(ctx, "cache_item:")
	affected, _ := result.RowsAffected()
	return affected, nil
}

// MarkAncestorsOfOutdatedOutdated propagates the dirty flag of a project's items to their ancestors.
func (r *Repository) MarkAncestorsOfOutdatedOutdated(ctx context.Context, projectID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.MarkAncestorsOfOutdatedOutdated")
	defer span.End()

	query, args := database.Build(`WITH RECURSIVE ancestors AS (
    SELECT parent_id AS id FROM elca_cache.items WHERE project_id = ${projectId} AND is_outdated AND parent_id IS NOT NULL
    UNION
    SELECT p.parent_id FROM elca_cache.items p JOIN ancestors a ON p.id = a.id WHERE p.parent_id IS NOT NULL
)
UPDATE elca_cache.items
SET is_outdated = true, version = version + 1, modified = now()
WHERE id IN (SELECT id FROM ancestors) AND NOT is_outdated`, map[string]any{"projectId": projectID})

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, repositories.InternalError(ctx, r.logger, err, map[string]any{"project_id": projectID}, "failed to propagate outdated cache items")
	}

	memo.ForgetPrefix(ctx, "cache_item:")
	affected, _ := result.RowsAffected()
	return affected, nil
}

// UpdateIsVirtual changes whether the item counts towards its parent's totals.
func (r *Repository) UpdateIsVirtual(ctx context.Context, id int64, isVirtual bool) error {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.UpdateIsVirtual")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(itemsTable).
		Set(
			ub.Assign("is_virtual", isVirtual),
			"version = version + 1",
			"modified = now()",
		).
		Where(ub.Equal("id", id))

	query, args := ub.Build()

	if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": id}, "failed to update cache item")
	}

	memo.Forget(ctx, memoKey(id))
	return nil
}

// CompleteRecompute clears the dirty flag if the item still has expectedVersion.
// Any write since the item was read bumps the version and yields ErrConcurrentModification.
func (r *Repository) CompleteRecompute(ctx context.Context, id int64, expectedVersion int64) error {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.CompleteRecompute")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(itemsTable).
		Set(
			ub.Assign("is_outdated", false),
			"modified = now()",
		).
		Where(
			ub.Equal("id", id),
			ub.Equal("version", expectedVersion),
		)

	query, args := ub.Build()

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": id}, "failed to complete cache item recompute")
	}

	memo.Forget(ctx, memoKey(id))

	if affected, _ := result.RowsAffected(); affected == 0 {
		existing, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return repositories.NotFound("cache item %d does not exist", id)
		}

		r.logger.WithContext(ctx).WithFields(map[string]any{
			"item_id":          id,
			"expected_version": expectedVersion,
			"actual_version":   existing.Version,
		}).Warn("Cache item changed during recompute")
		return repositories.ErrConcurrentModification
	}

	return nil
}

// Delete removes an item together with its subtree, its node row and its indicators.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "CacheItemRepository.Delete")
	defer span.End()

	dlb := database.NewDeleteBuilder()
	dlb.DeleteFrom(itemsTable).Where(dlb.Equal("id", id))

	query, args := dlb.Build()

	if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": id}, "failed to delete cache item")
	}

	memo.ForgetPrefix(ctx, "cache_item:")
	return nil
}
