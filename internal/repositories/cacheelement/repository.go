// Package cacheelement stores cached elements. An element hangs below the branch of its element type.
package cacheelement

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheelementtype"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

type CacheElementRepository interface {
	Create(ctx context.Context, node *models.CacheElement, itemID *int64) (*models.CacheElement, error)
	FindByItemID(ctx context.Context, itemID int64) (*models.CacheElement, error)
	FindByElementID(ctx context.Context, elementID int64) (*models.CacheElement, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheElement, error)
	FindOrCreate(ctx context.Context, elementID int64) (*models.CacheElement, error)
	Copy(ctx context.Context, src *models.CacheElement, newElementID int64, compositeItemID *int64) (*models.CacheElement, error)
	Update(ctx context.Context, node *models.CacheElement) error
	SetIsOutdated(ctx context.Context, node *models.CacheElement, isOutdated bool) error
	Delete(ctx context.Context, node *models.CacheElement) error
}

type Repository struct {
	db           database.DB
	logger       ectologger.Logger
	items        cacheitem.CacheItemRepository
	indicators   cacheindicator.CacheIndicatorRepository
	elementTypes cacheelementtype.CacheElementTypeRepository
	projects     project.ProjectRepository
}

func NewRepository(
	db database.DB,
	logger ectologger.Logger,
	items cacheitem.CacheItemRepository,
	indicators cacheindicator.CacheIndicatorRepository,
	elementTypes cacheelementtype.CacheElementTypeRepository,
	projects project.ProjectRepository,
) *Repository {
	return &Repository{
		db:           db,
		logger:       logger,
		items:        items,
		indicators:   indicators,
		elementTypes: elementTypes,
		projects:     projects,
	}
}

func memoKey(elementID int64) string {
	return memo.Key("cache_element", elementID)
}

// Create inserts a cached element. Without itemID the element type branch is resolved and
// a new item allocated. The item is virtual when the element is composite or its element type
// is a composite level, so it does not count twice towards the branch totals.
func (r *Repository) Create(ctx context.Context, node *models.CacheElement, itemID *int64) (*models.CacheElement, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(node); err != nil {
		return nil, err
	}

	var created *models.CacheElement
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		item, err := r.resolveItem(ctx, node.ElementID, itemID)
		if err != nil {
			return err
		}

		row := FromCacheElement(node)
		row.ItemID.Int64 = item.ID

		ib := elementStruct.InsertInto(elementsTable, row)
		query, args := ib.Build()

		if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
			return repositories.InternalError(ctx, r.logger, err, map[string]any{
				"item_id":    item.ID,
				"element_id": node.ElementID,
			}, "failed to create cache element")
		}

		created = ToCacheElement(row)
		created.Item = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Repository) resolveItem(ctx context.Context, elementID int64, itemID *int64) (*models.CacheItem, error) {
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

	element, err := r.projects.FindElementByID(ctx, elementID)
	if err != nil {
		return nil, err
	}
	if element == nil {
		return nil, repositories.NotFound("element %d does not exist", elementID)
	}
	if element.ProjectVariantID == nil {
		return nil, repositories.BadRequest("element %d is a template and has no project variant", elementID)
	}

	typeNode, err := r.projects.FindElementTypeNodeByID(ctx, element.ElementTypeNodeID)
	if err != nil {
		return nil, err
	}
	if typeNode == nil {
		return nil, repositories.NotFound("element type %d does not exist", element.ElementTypeNodeID)
	}

	parent, err := r.elementTypes.FindOrCreate(ctx, *element.ProjectVariantID, element.ElementTypeNodeID)
	if err != nil {
		return nil, err
	}

	variant, err := r.projects.FindVariantByID(ctx, *element.ProjectVariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, repositories.NotFound("project variant %d does not exist", *element.ProjectVariantID)
	}

	return r.items.Create(ctx, models.NewCacheItem{
		ProjectID:  variant.ProjectID,
		Type:       models.CacheItemTypeElement,
		ParentID:   &parent.ItemID,
		IsVirtual:  element.IsComposite || typeNode.IsCompositeLevel,
		IsOutdated: true,
	})
}

func (r *Repository) get(ctx context.Context, column string, value int64) (*models.CacheElement, error) {
	sb := elementStruct.SelectFrom(elementsTable)
	sb.Where(sb.Equal(column, value))

	query, args := sb.Build()

	var row CacheElementRow
	err := database.Executor(ctx, r.db).GetContext(ctx, &row, query, args...)
	if repositories.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{column: value}, "failed to get cache element")
	}

	return ToCacheElement(&row), nil
}

func (r *Repository) FindByItemID(ctx context.Context, itemID int64) (*models.CacheElement, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementRepository.FindByItemID")
	defer span.End()

	return r.get(ctx, "item_id", itemID)
}

func (r *Repository) FindByElementID(ctx context.Context, elementID int64) (*models.CacheElement, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementRepository.FindByElementID")
	defer span.End()

	return r.get(ctx, "element_id", elementID)
}

// FindByProjectVariantID lists cached elements of a project variant, composites first.
func (r *Repository) FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheElement, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementRepository.FindByProjectVariantID")
	defer span.End()

	query, args := database.Build(`SELECT c.item_id, c.element_id, c.composite_item_id, c.mass, c.quantity, c.ref_unit
FROM elca_cache.elements c
    JOIN elca.elements e ON e.id = c.element_id
WHERE e.project_variant_id = ${projectVariantId}
ORDER BY e.is_composite DESC, c.element_id`, map[string]any{"projectVariantId": projectVariantID})

	var rows []CacheElementRow
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"project_variant_id": projectVariantID}, "failed to list cache elements")
	}

	return ToCacheElements(rows), nil
}

func (r *Repository) FindOrCreate(ctx context.Context, elementID int64) (*models.CacheElement, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementRepository.FindOrCreate")
	defer span.End()

	return memo.GetOrFetch(ctx, memoKey(elementID), func(ctx context.Context) (*models.CacheElement, error) {
		node, err := r.FindByElementID(ctx, elementID)
		if err != nil || node != nil {
			return node, err
		}
		return r.Create(ctx, &models.CacheElement{ElementID: elementID}, nil)
	})
}

// Copy caches newElementID with src's payload and indicator rows. compositeItemID replaces
// src's composite reference, which points into the source tree.
func (r *Repository) Copy(ctx context.Context, src *models.CacheElement, newElementID int64, compositeItemID *int64) (*models.CacheElement, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementRepository.Copy")
	defer span.End()

	if src == nil || newElementID == 0 {
		return nil, nil
	}

	var copied *models.CacheElement
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		var err error
		copied, err = r.Create(ctx, &models.CacheElement{
			ElementID:       newElementID,
			CompositeItemID: compositeItemID,
			Mass:            src.Mass,
			Quantity:        src.Quantity,
			RefUnit:         src.RefUnit,
		}, nil)
		if err != nil {
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

func (r *Repository) Update(ctx context.Context, node *models.CacheElement) error {
	ctx, span := tracing.StartSpan(ctx, "CacheElementRepository.Update")
	defer span.End()

	if err := utils.ValidateStruct(node); err != nil {
		return err
	}

	row := FromCacheElement(node)

	ub := database.NewUpdateBuilder()
	ub.Update(elementsTable).
		Set(
			ub.Assign("composite_item_id", row.CompositeItemID),
			ub.Assign("mass", row.Mass),
			ub.Assign("quantity", row.Quantity),
			ub.Assign("ref_unit", row.RefUnit),
		).
		Where(ub.Equal("item_id", node.ItemID))

	query, args := ub.Build()

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": node.ItemID}, "failed to update cache element")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return repositories.NotFound("cache element %d does not exist", node.ItemID)
	}

	memo.Forget(ctx, memoKey(node.ElementID))
	return nil
}

func (r *Repository) SetIsOutdated(ctx context.Context, node *models.CacheElement, isOutdated bool) error {
	return r.items.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (r *Repository) Delete(ctx context.Context, node *models.CacheElement) error {
	ctx, span := tracing.StartSpan(ctx, "CacheElementRepository.Delete")
	defer span.End()

	if err := r.items.Delete(ctx, node.ItemID); err != nil {
		return err
	}

	memo.Forget(ctx, memoKey(node.ElementID))
	return nil
}
