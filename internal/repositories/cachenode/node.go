// Package cachenode holds the storage shared by cache nodes that hang directly below a
// project variant root and carry a quantity with its reference unit: final energy demands,
// supplies, reference models and transport means.
package cachenode

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheprojectvariant"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
)

// Config describes one node table.
type Config struct {
	// Name prefixes spans and log messages, e.g. "CacheFinalEnergyDemandRepository"
	Name        string
	Table       string
	OwnerColumn string
	ItemType    string
	// OwnerVariantQuery selects the item ids of a project variant's nodes. It must use ${projectVariantId}.
	OwnerVariantQuery string
}

// Node is the common payload of the node tables.
type Node struct {
	ItemID   int64
	OwnerID  int64
	Quantity *float64
	RefUnit  *string
	Item     *models.CacheItem
}

type nodeRow struct {
	ItemID   sql.NullInt64   `db:"item_id"`
	OwnerID  sql.NullInt64   `db:"owner_id"`
	Quantity sql.NullFloat64 `db:"quantity"`
	RefUnit  sql.NullString  `db:"ref_unit"`
}

func toNode(row *nodeRow) *Node {
	return &Node{
		ItemID:   row.ItemID.Int64,
		OwnerID:  row.OwnerID.Int64,
		Quantity: repositories.Float64Value(row.Quantity),
		RefUnit:  repositories.StringValue(row.RefUnit),
	}
}

type Repository struct {
	db         database.DB
	logger     ectologger.Logger
	items      cacheitem.CacheItemRepository
	indicators cacheindicator.CacheIndicatorRepository
	variants   cacheprojectvariant.CacheProjectVariantRepository
	config     Config
}

func NewRepository(
	db database.DB,
	logger ectologger.Logger,
	items cacheitem.CacheItemRepository,
	indicators cacheindicator.CacheIndicatorRepository,
	variants cacheprojectvariant.CacheProjectVariantRepository,
	config Config,
) *Repository {
	return &Repository{
		db:         db,
		logger:     logger,
		items:      items,
		indicators: indicators,
		variants:   variants,
		config:     config,
	}
}

// Create inserts node for the owner. Without itemID a new item is allocated below the root of
// projectVariantID, which is created when missing.
func (r *Repository) Create(ctx context.Context, node Node, projectVariantID int64, isVirtual bool, itemID *int64) (*Node, error) {
	ctx, span := tracing.StartSpan(ctx, r.config.Name+".Create")
	defer span.End()

	var created *Node
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		item, err := r.resolveItem(ctx, projectVariantID, isVirtual, itemID)
		if err != nil {
			return err
		}

		ib := database.NewInsertBuilder()
		ib.InsertInto(r.config.Table).
			Cols("item_id", r.config.OwnerColumn, "quantity", "ref_unit").
			Values(item.ID, node.OwnerID, repositories.NullFloat64(node.Quantity), repositories.NullString(node.RefUnit))

		query, args := ib.Build()

		if _, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
			return repositories.InternalError(ctx, r.logger, err, map[string]any{
				"item_id":            item.ID,
				r.config.OwnerColumn: node.OwnerID,
			}, fmt.Sprintf("failed to create %s", r.config.Table))
		}

		node.ItemID = item.ID
		node.Item = item
		created = &node
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Repository) resolveItem(ctx context.Context, projectVariantID int64, isVirtual bool, itemID *int64) (*models.CacheItem, error) {
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

	root, err := r.variants.FindOrCreate(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}

	rootItem := root.Item
	if rootItem == nil {
		if rootItem, err = r.items.Get(ctx, root.ItemID); err != nil {
			return nil, err
		}
		if rootItem == nil {
			return nil, repositories.NotFound("cache item %d does not exist", root.ItemID)
		}
	}

	return r.items.Create(ctx, models.NewCacheItem{
		ProjectID:  rootItem.ProjectID,
		Type:       r.config.ItemType,
		ParentID:   &rootItem.ID,
		IsVirtual:  isVirtual,
		IsOutdated: true,
	})
}

func (r *Repository) selectBuilder() *database.SelectBuilder {
	sb := database.NewSelectBuilder()
	sb.Select("item_id", r.config.OwnerColumn+" AS owner_id", "quantity", "ref_unit").From(r.config.Table)
	return sb
}

func (r *Repository) get(ctx context.Context, column string, value int64) (*Node, error) {
	sb := r.selectBuilder()
	sb.Where(sb.Equal(column, value))

	query, args := sb.Build()

	var row nodeRow
	err := database.Executor(ctx, r.db).GetContext(ctx, &row, query, args...)
	if repositories.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{column: value}, fmt.Sprintf("failed to get %s", r.config.Table))
	}

	return toNode(&row), nil
}

func (r *Repository) FindByItemID(ctx context.Context, itemID int64) (*Node, error) {
	ctx, span := tracing.StartSpan(ctx, r.config.Name+".FindByItemID")
	defer span.End()

	return r.get(ctx, "item_id", itemID)
}

func (r *Repository) FindByOwnerID(ctx context.Context, ownerID int64) (*Node, error) {
	ctx, span := tracing.StartSpan(ctx, r.config.Name+".FindByOwnerID")
	defer span.End()

	return r.get(ctx, r.config.OwnerColumn, ownerID)
}

// FindByProjectVariantID lists the nodes whose owners belong to a project variant.
func (r *Repository) FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*Node, error) {
	ctx, span := tracing.StartSpan(ctx, r.config.Name+".FindByProjectVariantID")
	defer span.End()

	query, args := database.Build(fmt.Sprintf(`SELECT item_id, %[1]s AS owner_id, quantity, ref_unit
FROM %[2]s
WHERE item_id IN (%[3]s)
ORDER BY %[1]s`, r.config.OwnerColumn, r.config.Table, r.config.OwnerVariantQuery),
		map[string]any{"projectVariantId": projectVariantID})

	var rows []nodeRow
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"project_variant_id": projectVariantID}, fmt.Sprintf("failed to list %s", r.config.Table))
	}

	nodes := make([]*Node, len(rows))
	for i := range rows {
		nodes[i] = toNode(&rows[i])
	}
	return nodes, nil
}

// Copy creates a node for newOwnerID below newProjectVariantID and copies src's indicator rows.
func (r *Repository) Copy(ctx context.Context, src *Node, newOwnerID, newProjectVariantID int64, isVirtual bool) (*Node, error) {
	ctx, span := tracing.StartSpan(ctx, r.config.Name+".Copy")
	defer span.End()

	var copied *Node
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		var err error
		copied, err = r.Create(ctx, Node{
			OwnerID:  newOwnerID,
			Quantity: src.Quantity,
			RefUnit:  src.RefUnit,
		}, newProjectVariantID, isVirtual, nil)
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

func (r *Repository) Update(ctx context.Context, node *Node) error {
	ctx, span := tracing.StartSpan(ctx, r.config.Name+".Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(r.config.Table).
		Set(
			ub.Assign("quantity", repositories.NullFloat64(node.Quantity)),
			ub.Assign("ref_unit", repositories.NullString(node.RefUnit)),
		).
		Where(ub.Equal("item_id", node.ItemID))

	query, args := ub.Build()

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return repositories.InternalError(ctx, r.logger, err, map[string]any{"item_id": node.ItemID}, fmt.Sprintf("failed to update %s", r.config.Table))
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return repositories.NotFound("%s %d does not exist", r.config.Table, node.ItemID)
	}

	return nil
}

func (r *Repository) SetIsOutdated(ctx context.Context, itemID int64, isOutdated bool) error {
	return r.items.SetIsOutdated(ctx, itemID, isOutdated)
}

func (r *Repository) Delete(ctx context.Context, itemID int64) error {
	ctx, span := tracing.StartSpan(ctx, r.config.Name+".Delete")
	defer span.End()

	return r.items.Delete(ctx, itemID)
}

// DeleteByProjectVariantID removes every node of a project variant and returns how many went.
func (r *Repository) DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, r.config.Name+".DeleteByProjectVariantID")
	defer span.End()

	query, args := database.Build(
		fmt.Sprintf("DELETE FROM elca_cache.items WHERE id IN (%s)", r.config.OwnerVariantQuery),
		map[string]any{"projectVariantId": projectVariantID},
	)

	result, err := database.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, repositories.InternalError(ctx, r.logger, err, map[string]any{"project_variant_id": projectVariantID}, fmt.Sprintf("failed to delete %s", r.config.Table))
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}
