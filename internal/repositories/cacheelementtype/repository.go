// Package cacheelementtype stores the element type branches of the cache trees.
//
// Branches follow the element type nested set. A branch hangs below the branch of its
// enclosing element type node, or below the project variant root when the node has no parent.
// Missing ancestors are created on the way.
package cacheelementtype

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheprojectvariant"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

type CacheElementTypeRepository interface {
	Create(ctx context.Context, node *models.CacheElementType, itemID *int64) (*models.CacheElementType, error)
	FindByItemID(ctx context.Context, itemID int64) (*models.CacheElementType, error)
	FindByProjectVariantIDAndElementTypeNodeID(ctx context.Context, projectVariantID, elementTypeNodeID int64) (*models.CacheElementType, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheElementType, error)
	FindOrCreate(ctx context.Context, projectVariantID, elementTypeNodeID int64) (*models.CacheElementType, error)
	Copy(ctx context.Context, src *models.CacheElementType, newProjectVariantID int64) (*models.CacheElementType, error)
	Update(ctx context.Context, node *models.CacheElementType) error
	SetIsOutdated(ctx context.Context, node *models.CacheElementType, isOutdated bool) error
	Delete(ctx context.Context, node *models.CacheElementType) error
}

type Repository struct {
	db         database.DB
	logger     ectologger.Logger
	items      cacheitem.CacheItemRepository
	indicators cacheindicator.CacheIndicatorRepository
	variants   cacheprojectvariant.CacheProjectVariantRepository
	projects   project.ProjectRepository
}

func NewRepository(
	db database.DB,
	logger ectologger.Logger,
	items cacheitem.CacheItemRepository,
	indicators cacheindicator.CacheIndicatorRepository,
	variants cacheprojectvariant.CacheProjectVariantRepository,
	projects project.ProjectRepository,
) *Repository {
	return &Repository{
		db:         db,
		logger:     logger,
		items:      items,
		indicators: indicators,
		variants:   variants,
		projects:   projects,
	}
}

func memoKey(projectVariantID, elementTypeNodeID int64) string {
	return memo.Key("cache_element_type", projectVariantID, elementTypeNodeID)
}

// Create inserts a branch for node.ElementTypeNodeID. Without itemID the parent chain is
// resolved and created as needed, all inside one unit of work.
func (r *Repository) Create(ctx context.Context, node *models.CacheElementType, itemID *int64) (*models.CacheElementType, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementTypeRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(node); err != nil {
		return nil, err
	}

	var created *models.CacheElementType
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		item, err := r.resolveItem(ctx, node, itemID)
		if err != nil {
			return err
		}

		row := FromCacheElementType(node)
		row.ItemID.Int64 = item.ID

		ib := elementTypeStruct.InsertInto(elementTypesTable, row)
		query, args := ib.Build()

		if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
			return repositories.InternalError(ctx, r.logger, err, map[string]any{
				"item_id":              item.ID,
				"project_variant_id":   node.ProjectVariantID,
				"element_type_node_id": node.ElementTypeNodeID,
			}, "failed to create cache element type")
		}

		created = ToCacheElementType(row)
		created.Item = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Repository) resolveItem(ctx context.Context, node *models.CacheElementType, itemID *int64) (*models.CacheItem, error) {
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

	parentItemID, err := r.resolveParentItemID(ctx, node.ProjectVariantID, node.ElementTypeNodeID)
	if err != nil {
		return nil, err
	}

	variant, err := r.projects.FindVariantByID(ctx, node.ProjectVariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, repositories.NotFound("project variant %d does not exist", node.ProjectVariantID)
	}

	return r.items.Create(ctx, models.NewCacheItem{
		ProjectID:  variant.ProjectID,
		Type:       models.CacheItemTypeElementType,
		ParentID:   &parentItemID,
		IsOutdated: true,
	})
}

func (r *Repository) resolveParentItemID(ctx context.Context, projectVariantID, elementTypeNodeID int64) (int64, error) {
	parentNode, err := r.projects.FindParentByNodeID(ctx, elementTypeNodeID)
	if err != nil {
		return 0, err
	}

	if parentNode != nil {
		parent, err := r.FindOrCreate(ctx, projectVariantID, parentNode.NodeID)
		if err != nil {
			return 0, err
		}
		return parent.ItemID, nil
	}

	root, err := r.variants.FindOrCreate(ctx, projectVariantID)
	if err != nil {
		return 0, err
	}
	return root.ItemID, nil
}

func (r *Repository) FindByItemID(ctx context.Context, itemID int64) (*models.CacheElementType, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementTypeRepository.FindByItemID")
	defer span.End()

	sb := elementTypeStruct.SelectFrom(elementTypesTable)
	sb.Where(sb.Equal("item_id", itemID))

	return r.get(ctx, sb, map[string]any{"item_id": itemID})
}

func (r *Repository) FindByProjectVariantIDAndElementTypeNodeID(ctx context.Context, projectVariantID, elementTypeNodeID int64) (*models.CacheElementType, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementTypeRepository.FindByProjectVariantIDAndElementTypeNodeID")
	defer span.End()

	sb := elementTypeStruct.SelectFrom(elementTypesTable)
	sb.Where(
		sb.Equal("project_variant_id", projectVariantID),
		sb.Equal("element_type_node_id", elementTypeNodeID),
	)

	return r.get(ctx, sb, map[string]any{
		"project_variant_id":   projectVariantID,
		"element_type_node_id": elementTypeNodeID,
	})
}

func (r *Repository) get(ctx context.Context, sb *database.SelectBuilder, fields map[string]any) (*models.CacheElementType, error) {
	query, args := sb.Build()

	var row CacheElementTypeRow
	err := database.Executor(ctx, r.db).GetContext(ctx, &row, query, args...)
	if repositories.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, fields, "failed to get cache element type")
	}

	return ToCacheElementType(&row), nil
}

// FindByProjectVariantID lists the branches of a project variant in nested set order.
func (r *Repository) FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheElementType, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementTypeRepository.FindByProjectVariantID")
	defer span.End()

	query, args := database.Build(`SELECT t.item_id, t.project_variant_id, t.element_type_node_id, t.mass
FROM elca_cache.element_types t
    JOIN elca.element_types n ON n.node_id = t.element_type_node_id
WHERE t.project_variant_id = ${projectVariantId}
ORDER BY n.lft`, map[string]any{"projectVariantId": projectVariantID})

	var rows []CacheElementTypeRow
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"project_variant_id": projectVariantID}, "failed to list cache element types")
	}

	return ToCacheElementTypes(rows), nil
}

// FindOrCreate returns the branch of an element type node, creating it and its ancestors on first use.
func (r *Repository) FindOrCreate(ctx context.Context, projectVariantID, elementTypeNodeID int64) (*models.CacheElementType, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementTypeRepository.FindOrCreate")
	defer span.End()

	return memo.GetOrFetch(ctx, memoKey(projectVariantID, elementTypeNodeID), func(ctx context.Context) (*models.CacheElementType, error) {
		node, err := r.FindByProjectVariantIDAndElementTypeNodeID(ctx, projectVariantID, elementTypeNodeID)
		if err != nil || node != nil {
			return node, err
		}
		created, err := r.Create(ctx, &models.CacheElementType{
			ProjectVariantID:  projectVariantID,
			ElementTypeNodeID: elementTypeNodeID,
		}, nil)
		if err == nil {
			database.OnRollback(ctx, func() { memo.Forget(ctx, memoKey(projectVariantID, elementTypeNodeID)) })
		}
		return created, err
	})
}

// Copy creates the branch below newProjectVariantID and copies src's indicator rows.
func (r *Repository) Copy(ctx context.Context, src *models.CacheElementType, newProjectVariantID int64) (*models.CacheElementType, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementTypeRepository.Copy")
	defer span.End()

	if src == nil || newProjectVariantID == 0 {
		return nil, nil
	}

	var copied *models.CacheElementType
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		var err error
		copied, err = r.FindByProjectVariantIDAndElementTypeNodeID(ctx, newProjectVariantID, src.ElementTypeNodeID)
		if err != nil {
			return err
		}
		if copied == nil {
			copied, err = r.Create(ctx, &models.CacheElementType{
				ProjectVariantID:  newProjectVariantID,
				ElementTypeNodeID: src.ElementTypeNodeID,
				Mass:              src.Mass,
			}, nil)
			if err != nil {
				return err
			}
		} else {
			// created earlier as the ancestor of another copied branch
			copied.Mass = src.Mass
			if err := r.Update(ctx, copied); err != nil {
				return err
			}
			if err := r.indicators.DeleteByItemID(ctx, copied.ItemID); err != nil {
				return err
			}
		}

		_, err = r.indicators.Copy(ctx, src.ItemID, copied.ItemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	memo.Forget(ctx, memoKey(newProjectVariantID, src.ElementTypeNodeID))
	return copied, nil
}

func (r *Repository) Update(ctx context.Context, node *models.CacheElementType) error {
	ctx, span := tracing.StartSpan(ctx, "CacheElementTypeRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(elementTypesTable).
		Set(ub.Assign("mass", repositories.NullFloat64(node.Mass))).
		Where(ub.Equal("item_id", node.ItemID))

	query, args := ub.Build()

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": node.ItemID}, "failed to update cache element type")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return repositories.NotFound("cache element type %d does not exist", node.ItemID)
	}

	return nil
}

func (r *Repository) SetIsOutdated(ctx context.Context, node *models.CacheElementType, isOutdated bool) error {
	return r.items.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (r *Repository) Delete(ctx context.Context, node *models.CacheElementType) error {
	ctx, span := tracing.StartSpan(ctx, "CacheElementTypeRepository.Delete")
	defer span.End()

	if err := r.items.Delete(ctx, node.ItemID); err != nil {
		return err
	}

	memo.ForgetPrefix(ctx, "cache_element_type:")
	return nil
}
