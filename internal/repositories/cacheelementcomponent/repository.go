package cacheelementcomponent

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheelement"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

type CacheElementComponentRepository interface {
	Create(ctx context.Context, node *models.CacheElementComponent, itemID *int64) (*models.CacheElementComponent, error)
	FindByItemID(ctx context.Context, itemID int64) (*models.CacheElementComponent, error)
	FindByElementComponentID(ctx context.Context, elementComponentID int64) (*models.CacheElementComponent, error)
	FindByElementID(ctx context.Context, elementID int64) ([]*models.CacheElementComponent, error)
	Copy(ctx context.Context, src *models.CacheElementComponent, newElementComponentID int64) (*models.CacheElementComponent, error)
	Update(ctx context.Context, node *models.CacheElementComponent) error
	SetIsOutdated(ctx context.Context, node *models.CacheElementComponent, isOutdated bool) error
	Delete(ctx context.Context, node *models.CacheElementComponent) error
}

type Repository struct {
	db         database.DB
	logger     ectologger.Logger
	items      cacheitem.CacheItemRepository
	indicators cacheindicator.CacheIndicatorRepository
	elements   cacheelement.CacheElementRepository
	projects   project.ProjectRepository
}

func NewRepository(
	db database.DB,
	logger ectologger.Logger,
	items cacheitem.CacheItemRepository,
	indicators cacheindicator.CacheIndicatorRepository,
	elements cacheelement.CacheElementRepository,
	projects project.ProjectRepository,
) *Repository {
	return &Repository{
		db:         db,
		logger:     logger,
		items:      items,
		indicators: indicators,
		elements:   elements,
		projects:   projects,
	}
}

// Create inserts a cached component below the cached element it belongs to.
// The element is cached on the fly when it is not yet.
func (r *Repository) Create(ctx context.Context, node *models.CacheElementComponent, itemID *int64) (*models.CacheElementComponent, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementComponentRepository.Create")
	defer span.End()

	if err := utils.ValidateStruct(node); err != nil {
		return nil, err
	}

	var created *models.CacheElementComponent
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		item, err := r.resolveItem(ctx, node.ElementComponentID, itemID)
		if err != nil {
			return err
		}

		row := FromCacheElementComponent(node)
		row.ItemID.Int64 = item.ID

		query, args := componentStruct.InsertInto(componentsTable, row).Build()

		if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
			return repositories.InternalError(ctx, r.logger, err, map[string]any{
				"item_id":              item.ID,
				"element_component_id": node.ElementComponentID,
			}, "failed to create cache element component")
		}

		created = ToCacheElementComponent(row)
		created.Item = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Repository) resolveItem(ctx context.Context, componentID int64, itemID *int64) (*models.CacheItem, error) {
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

	component, err := r.projects.FindElementComponentByID(ctx, componentID)
	if err != nil {
		return nil, err
	}
	if component == nil {
		return nil, repositories.NotFound("element component %d does not exist", componentID)
	}

	parent, err := r.elements.FindOrCreate(ctx, component.ElementID)
	if err != nil {
		return nil, err
	}

	parentItem := parent.Item
	if parentItem == nil {
		if parentItem, err = r.items.Get(ctx, parent.ItemID); err != nil {
			return nil, err
		}
		if parentItem == nil {
			return nil, repositories.NotFound("cache item %d does not exist", parent.ItemID)
		}
	}

	return r.items.Create(ctx, models.NewCacheItem{
		ProjectID:  parentItem.ProjectID,
		Type:       models.CacheItemTypeElementComponent,
		ParentID:   &parentItem.ID,
		IsOutdated: true,
	})
}

func (r *Repository) get(ctx context.Context, column string, value int64) (*models.CacheElementComponent, error) {
	sb := componentStruct.SelectFrom(componentsTable)
	sb.Where(sb.Equal(column, value))

	query, args := sb.Build()

	var row CacheElementComponentRow
	err := database.Executor(ctx, r.db).GetContext(ctx, &row, query, args...)
	if repositories.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{column: value}, "failed to get cache element component")
	}

	return ToCacheElementComponent(&row), nil
}

func (r *Repository) FindByItemID(ctx context.Context, itemID int64) (*models.CacheElementComponent, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementComponentRepository.FindByItemID")
	defer span.End()

	return r.get(ctx, "item_id", itemID)
}

func (r *Repository) FindByElementComponentID(ctx context.Context, elementComponentID int64) (*models.CacheElementComponent, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementComponentRepository.FindByElementComponentID")
	defer span.End()

	return r.get(ctx, "element_component_id", elementComponentID)
}

func (r *Repository) FindByElementID(ctx context.Context, elementID int64) ([]*models.CacheElementComponent, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementComponentRepository.FindByElementID")
	defer span.End()

	query, args := database.Build(`SELECT c.item_id, c.element_component_id, c.mass, c.quantity, c.ref_unit, c.num_replacements
FROM elca_cache.element_components c
    JOIN elca.element_components ec ON ec.id = c.element_component_id
WHERE ec.element_id = ${elementId}
ORDER BY c.element_component_id`, map[string]any{"elementId": elementID})

	var rows []CacheElementComponentRow
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"element_id": elementID}, "failed to list cache element components")
	}

	return ToCacheElementComponents(rows), nil
}

func (r *Repository) Copy(ctx context.Context, src *models.CacheElementComponent, newElementComponentID int64) (*models.CacheElementComponent, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheElementComponentRepository.Copy")
	defer span.End()

	if src == nil || newElementComponentID == 0 {
		return nil, nil
	}

	var copied *models.CacheElementComponent
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		var err error
		copied, err = r.Create(ctx, &models.CacheElementComponent{
			ElementComponentID: newElementComponentID,
			Mass:               src.Mass,
			Quantity:           src.Quantity,
			RefUnit:            src.RefUnit,
			NumReplacements:    src.NumReplacements,
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

func (r *Repository) Update(ctx context.Context, node *models.CacheElementComponent) error {
	ctx, span := tracing.StartSpan(ctx, "CacheElementComponentRepository.Update")
	defer span.End()

	if err := utils.ValidateStruct(node); err != nil {
		return err
	}

	row := FromCacheElementComponent(node)

	ub := database.NewUpdateBuilder()
	ub.Update(componentsTable).
		Set(
			ub.Assign("mass", row.Mass),
			ub.Assign("quantity", row.Quantity),
			ub.Assign("ref_unit", row.RefUnit),
			ub.Assign("num_replacements", row.NumReplacements),
		).
		Where(ub.Equal("item_id", node.ItemID))

	query, args := ub.Build()

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": node.ItemID}, "failed to update cache element component")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return repositories.NotFound("cache element component %d does not exist", node.ItemID)
	}

	return nil
}

func (r *Repository) SetIsOutdated(ctx context.Context, node *models.CacheElementComponent, isOutdated bool) error {
	return r.items.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (r *Repository) Delete(ctx context.Context, node *models.CacheElementComponent) error {
	ctx, span := tracing.StartSpan(ctx, "CacheElementComponentRepository.Delete")
	defer span.End()

	return r.items.Delete(ctx, node.ItemID)
}
