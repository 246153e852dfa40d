// Package cacheprojectvariant stores the roots of the cache trees, one per project variant.
package cacheprojectvariant

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
)

type CacheProjectVariantRepository interface {
	Create(ctx context.Context, projectVariantID int64, itemID *int64) (*models.CacheProjectVariant, error)
	FindByItemID(ctx context.Context, itemID int64) (*models.CacheProjectVariant, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) (*models.CacheProjectVariant, error)
	FindByProjectID(ctx context.Context, projectID int64) ([]*models.CacheProjectVariant, error)
	FindOrCreate(ctx context.Context, projectVariantID int64) (*models.CacheProjectVariant, error)
	Copy(ctx context.Context, src *models.CacheProjectVariant, newProjectVariantID int64) (*models.CacheProjectVariant, error)
	SetIsOutdated(ctx context.Context, node *models.CacheProjectVariant, isOutdated bool) error
	Delete(ctx context.Context, node *models.CacheProjectVariant) error
}

type Repository struct {
	db         database.DB
	logger     ectologger.Logger
	items      cacheitem.CacheItemRepository
	indicators cacheindicator.CacheIndicatorRepository
	projects   project.ProjectRepository
}

func NewRepository(db database.DB, logger ectologger.Logger, items cacheitem.CacheItemRepository, indicators cacheindicator.CacheIndicatorRepository, projects project.ProjectRepository) *Repository {
	return &Repository{
		db:         db,
		logger:     logger,
		items:      items,
		indicators: indicators,
		projects:   projects,
	}
}

func memoKey(projectVariantID int64) string {
	return memo.Key("cache_project_variant", projectVariantID)
}

// Create inserts the root of a project variant. Without itemID a new root item is allocated.
func (r *Repository) Create(ctx context.Context, projectVariantID int64, itemID *int64) (*models.CacheProjectVariant, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheProjectVariantRepository.Create")
	defer span.End()

	if projectVariantID <= 0 {
		return nil, repositories.BadRequest("project variant id must be positive")
	}

	var node *models.CacheProjectVariant
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		item, err := r.resolveItem(ctx, projectVariantID, itemID)
		if err != nil {
			return err
		}

		ib := database.NewInsertBuilder()
		ib.InsertInto(projectVariantsTable).
			Cols("item_id", "project_variant_id").
			Values(item.ID, projectVariantID)

		query, args := ib.Build()

		if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
			return repositories.InternalError(ctx, r.logger, err, map[string]any{
				"item_id":            item.ID,
				"project_variant_id": projectVariantID,
			}, "failed to create cache project variant")
		}

		node = &models.CacheProjectVariant{
			ItemID:           item.ID,
			ProjectVariantID: projectVariantID,
			Item:             item,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}

func (r *Repository) resolveItem(ctx context.Context, projectVariantID int64, itemID *int64) (*models.CacheItem, error) {
	if itemID != nil {
		item, err := r.items.Get(ctx, *itemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, repositories.NotFound("cache item %d does not exist", *itemID)
		}
		return item, nil
	}

	variant, err := r.projects.FindVariantByID(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, repositories.NotFound("project variant %d does not exist", projectVariantID)
	}

	return r.items.Create(ctx, models.NewCacheItem{
		ProjectID:  variant.ProjectID,
		Type:       models.CacheItemTypeProjectVariant,
		IsOutdated: true,
	})
}

func (r *Repository) findOne(ctx context.Context, column string, value int64) (*models.CacheProjectVariant, error) {
	sb := projectVariantStruct.SelectFrom(projectVariantsTable)
	sb.Where(sb.Equal(column, value))

	query, args := sb.Build()

	var row CacheProjectVariantRow
	err := database.Executor(ctx, r.db).GetContext(ctx, &row, query, args...)
	if repositories.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{column: value}, "failed to get cache project variant")
	}

	return ToCacheProjectVariant(&row), nil
}

func (r *Repository) FindByItemID(ctx context.Context, itemID int64) (*models.CacheProjectVariant, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheProjectVariantRepository.FindByItemID")
	defer span.End()

	return r.findOne(ctx, "item_id", itemID)
}

func (r *Repository) FindByProjectVariantID(ctx context.Context, projectVariantID int64) (*models.CacheProjectVariant, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheProjectVariantRepository.FindByProjectVariantID")
	defer span.End()

	return r.findOne(ctx, "project_variant_id", projectVariantID)
}

func (r *Repository) FindByProjectID(ctx context.Context, projectID int64) ([]*models.CacheProjectVariant, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheProjectVariantRepository.FindByProjectID")
	defer span.End()

	query, args := database.Build(`SELECT pv.item_id, pv.project_variant_id
FROM elca_cache.project_variants pv
    JOIN elca_cache.items i ON i.id = pv.item_id
WHERE i.project_id = ${projectId}
ORDER BY pv.project_variant_id`, map[string]any{"projectId": projectID})

	var rows []CacheProjectVariantRow
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"project_id": projectID}, "failed to list cache project variants")
	}

	return ToCacheProjectVariants(rows), nil
}

// FindOrCreate returns the root of a project variant, creating it on first use.
// The result is remembered for the rest of the request.
func (r *Repository) FindOrCreate(ctx context.Context, projectVariantID int64) (*models.CacheProjectVariant, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheProjectVariantRepository.FindOrCreate")
	defer span.End()

	return memo.GetOrFetch(ctx, memoKey(projectVariantID), func(ctx context.Context) (*models.CacheProjectVariant, error) {
		node, err := r.FindByProjectVariantID(ctx, projectVariantID)
		if err != nil || node != nil {
			return node, err
		}
		created, err := r.Create(ctx, projectVariantID, nil)
		if err == nil {
			database.OnRollback(ctx, func() { memo.Forget(ctx, memoKey(projectVariantID)) })
		}
		return created, err
	})
}

// Copy creates a root for newProjectVariantID and copies the indicator rows of src onto it.
func (r *Repository) Copy(ctx context.Context, src *models.CacheProjectVariant, newProjectVariantID int64) (*models.CacheProjectVariant, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheProjectVariantRepository.Copy")
	defer span.End()

	if src == nil || newProjectVariantID == 0 {
		return nil, nil
	}

	var copied *models.CacheProjectVariant
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		var err error
		if copied, err = r.Create(ctx, newProjectVariantID, nil); err != nil {
			return err
		}
		_, err = r.indicators.Copy(ctx, src.ItemID, copied.ItemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return copied, nil
}

func (r *Repository) SetIsOutdated(ctx context.Context, node *models.CacheProjectVariant, isOutdated bool) error {
	return r.items.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

// Delete removes the root and with it the whole tree of the project variant.
func (r *Repository) Delete(ctx context.Context, node *models.CacheProjectVariant) error {
	ctx, span := tracing.StartSpan(ctx, "CacheProjectVariantRepository.Delete")
	defer span.End()

	if err := r.items.Delete(ctx, node.ItemID); err != nil {
		return err
	}

	memo.Forget(ctx, memoKey(node.ProjectVariantID))
	return nil
}
