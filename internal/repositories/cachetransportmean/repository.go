// Package cachetransportmean caches the transport means of a project variant.
// A transport mean not included in the LCA is stored with a virtual item.
package cachetransportmean

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cachenode"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheprojectvariant"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

type CacheTransportMeanRepository interface {
	Create(ctx context.Context, node *models.CacheTransportMean, isVirtual bool, itemID *int64) (*models.CacheTransportMean, error)
	FindByItemID(ctx context.Context, itemID int64) (*models.CacheTransportMean, error)
	FindByTransportMeanID(ctx context.Context, transportMeanID int64) (*models.CacheTransportMean, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheTransportMean, error)
	Copy(ctx context.Context, src *models.CacheTransportMean, newTransportMeanID int64) (*models.CacheTransportMean, error)
	Update(ctx context.Context, node *models.CacheTransportMean) error
	SetIsOutdated(ctx context.Context, node *models.CacheTransportMean, isOutdated bool) error
	Delete(ctx context.Context, node *models.CacheTransportMean) error
	DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error)
}

type Repository struct {
	nodes    *cachenode.Repository
	items    cacheitem.CacheItemRepository
	projects project.ProjectRepository
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
		nodes: cachenode.NewRepository(db, logger, items, indicators, variants, cachenode.Config{
			Name:              "CacheTransportMeanRepository",
			Table:             "elca_cache.transport_means",
			OwnerColumn:       "transport_mean_id",
			ItemType:          models.CacheItemTypeTransportMean,
			OwnerVariantQuery: `SELECT c.item_id FROM elca_cache.transport_means c
    JOIN elca.project_transport_means m ON m.id = c.transport_mean_id
    JOIN elca.project_transports t ON t.id = m.project_transport_id
WHERE t.project_variant_id = ${projectVariantId}`,
		}),
		items:    items,
		projects: projects,
	}
}

func toModel(node *cachenode.Node) *models.CacheTransportMean {
	if node == nil {
		return nil
	}
	return &models.CacheTransportMean{
		ItemID:          node.ItemID,
		TransportMeanID: node.OwnerID,
		Quantity:        node.Quantity,
		RefUnit:         node.RefUnit,
		Item:            node.Item,
	}
}

func toNode(m *models.CacheTransportMean) cachenode.Node {
	return cachenode.Node{
		ItemID:   m.ItemID,
		OwnerID:  m.TransportMeanID,
		Quantity: m.Quantity,
		RefUnit:  m.RefUnit,
	}
}

func (r *Repository) projectVariantID(ctx context.Context, transportMeanID int64) (int64, error) {
	mean, err := r.projects.FindTransportMeanByID(ctx, transportMeanID)
	if err != nil {
		return 0, err
	}
	if mean == nil {
		return 0, repositories.NotFound("transport mean %d does not exist", transportMeanID)
	}
	return mean.ProjectVariantID, nil
}

func (r *Repository) Create(ctx context.Context, node *models.CacheTransportMean, isVirtual bool, itemID *int64) (*models.CacheTransportMean, error) {
	if err := utils.ValidateStruct(node); err != nil {
		return nil, err
	}

	projectVariantID, err := r.projectVariantID(ctx, node.TransportMeanID)
	if err != nil {
		return nil, err
	}

	created, err := r.nodes.Create(ctx, toNode(node), projectVariantID, isVirtual, itemID)
	if err != nil {
		return nil, err
	}
	return toModel(created), nil
}

func (r *Repository) FindByItemID(ctx context.Context, itemID int64) (*models.CacheTransportMean, error) {
	node, err := r.nodes.FindByItemID(ctx, itemID)
	return toModel(node), err
}

func (r *Repository) FindByTransportMeanID(ctx context.Context, transportMeanID int64) (*models.CacheTransportMean, error) {
	node, err := r.nodes.FindByOwnerID(ctx, transportMeanID)
	return toModel(node), err
}

func (r *Repository) FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheTransportMean, error) {
	nodes, err := r.nodes.FindByProjectVariantID(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.CacheTransportMean, len(nodes))
	for i, node := range nodes {
		result[i] = toModel(node)
	}
	return result, nil
}

// Copy caches newTransportMeanID with src's payload, virtual flag and indicator rows.
func (r *Repository) Copy(ctx context.Context, src *models.CacheTransportMean, newTransportMeanID int64) (*models.CacheTransportMean, error) {
	if src == nil || newTransportMeanID == 0 {
		return nil, nil
	}

	srcItem, err := r.items.Get(ctx, src.ItemID)
	if err != nil {
		return nil, err
	}
	if srcItem == nil {
		return nil, repositories.NotFound("cache item %d does not exist", src.ItemID)
	}

	projectVariantID, err := r.projectVariantID(ctx, newTransportMeanID)
	if err != nil {
		return nil, err
	}

	node := toNode(src)
	copied, err := r.nodes.Copy(ctx, &node, newTransportMeanID, projectVariantID, srcItem.IsVirtual)
	if err != nil {
		return nil, err
	}
	return toModel(copied), nil
}

func (r *Repository) Update(ctx context.Context, node *models.CacheTransportMean) error {
	if err := utils.ValidateStruct(node); err != nil {
		return err
	}

	n := toNode(node)
	return r.nodes.Update(ctx, &n)
}

func (r *Repository) SetIsOutdated(ctx context.Context, node *models.CacheTransportMean, isOutdated bool) error {
	return r.nodes.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (r *Repository) Delete(ctx context.Context, node *models.CacheTransportMean) error {
	return r.nodes.Delete(ctx, node.ItemID)
}

func (r *Repository) DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error) {
	return r.nodes.DeleteByProjectVariantID(ctx, projectVariantID)
}
