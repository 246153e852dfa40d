// Package cachefinalenergydemand caches the final energy demands of a project variant.
package cachefinalenergydemand

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

const isVirtual = false

type CacheFinalEnergyDemandRepository interface {
	Create(ctx context.Context, node *models.CacheFinalEnergyDemand, itemID *int64) (*models.CacheFinalEnergyDemand, error)
	FindByItemID(ctx context.Context, itemID int64) (*models.CacheFinalEnergyDemand, error)
	FindByFinalEnergyDemandID(ctx context.Context, finalEnergyDemandID int64) (*models.CacheFinalEnergyDemand, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheFinalEnergyDemand, error)
	Copy(ctx context.Context, src *models.CacheFinalEnergyDemand, newFinalEnergyDemandID int64) (*models.CacheFinalEnergyDemand, error)
	Update(ctx context.Context, node *models.CacheFinalEnergyDemand) error
	SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergyDemand, isOutdated bool) error
	Delete(ctx context.Context, node *models.CacheFinalEnergyDemand) error
	DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error)
}

type Repository struct {
	nodes    *cachenode.Repository
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
			Name:              "CacheFinalEnergyDemandRepository",
			Table:             "elca_cache.final_energy_demands",
			OwnerColumn:       "final_energy_demand_id",
			ItemType:          models.CacheItemTypeFinalEnergyDemand,
			OwnerVariantQuery: `SELECT c.item_id FROM elca_cache.final_energy_demands c
    JOIN elca.project_final_energy_demands l ON l.id = c.final_energy_demand_id
WHERE l.project_variant_id = ${projectVariantId}`,
		}),
		projects: projects,
	}
}

func toModel(node *cachenode.Node) *models.CacheFinalEnergyDemand {
	if node == nil {
		return nil
	}
	return &models.CacheFinalEnergyDemand{
		ItemID:              node.ItemID,
		FinalEnergyDemandID: node.OwnerID,
		Quantity:            node.Quantity,
		RefUnit:             node.RefUnit,
		Item:                node.Item,
	}
}

func toNode(m *models.CacheFinalEnergyDemand) cachenode.Node {
	return cachenode.Node{
		ItemID:   m.ItemID,
		OwnerID:  m.FinalEnergyDemandID,
		Quantity: m.Quantity,
		RefUnit:  m.RefUnit,
	}
}

func (r *Repository) projectVariantID(ctx context.Context, finalEnergyDemandID int64) (int64, error) {
	owner, err := r.projects.FindFinalEnergyDemandByID(ctx, finalEnergyDemandID)
	if err != nil {
		return 0, err
	}
	if owner == nil {
		return 0, repositories.NotFound("final energy demand %d does not exist", finalEnergyDemandID)
	}
	return owner.ProjectVariantID, nil
}

func (r *Repository) Create(ctx context.Context, node *models.CacheFinalEnergyDemand, itemID *int64) (*models.CacheFinalEnergyDemand, error) {
	if err := utils.ValidateStruct(node); err != nil {
		return nil, err
	}

	projectVariantID, err := r.projectVariantID(ctx, node.FinalEnergyDemandID)
	if err != nil {
		return nil, err
	}

	created, err := r.nodes.Create(ctx, toNode(node), projectVariantID, isVirtual, itemID)
	if err != nil {
		return nil, err
	}
	return toModel(created), nil
}

func (r *Repository) FindByItemID(ctx context.Context, itemID int64) (*models.CacheFinalEnergyDemand, error) {
	node, err := r.nodes.FindByItemID(ctx, itemID)
	return toModel(node), err
}

func (r *Repository) FindByFinalEnergyDemandID(ctx context.Context, finalEnergyDemandID int64) (*models.CacheFinalEnergyDemand, error) {
	node, err := r.nodes.FindByOwnerID(ctx, finalEnergyDemandID)
	return toModel(node), err
}

func (r *Repository) FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheFinalEnergyDemand, error) {
	nodes, err := r.nodes.FindByProjectVariantID(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.CacheFinalEnergyDemand, len(nodes))
	for i, node := range nodes {
		result[i] = toModel(node)
	}
	return result, nil
}

// Copy caches newFinalEnergyDemandID with src's payload and indicator rows. It returns nil for a nil src or a zero owner.
func (r *Repository) Copy(ctx context.Context, src *models.CacheFinalEnergyDemand, newFinalEnergyDemandID int64) (*models.CacheFinalEnergyDemand, error) {
	if src == nil || newFinalEnergyDemandID == 0 {
		return nil, nil
	}

	projectVariantID, err := r.projectVariantID(ctx, newFinalEnergyDemandID)
	if err != nil {
		return nil, err
	}

	node := toNode(src)
	copied, err := r.nodes.Copy(ctx, &node, newFinalEnergyDemandID, projectVariantID, isVirtual)
	if err != nil {
		return nil, err
	}
	return toModel(copied), nil
}

func (r *Repository) Update(ctx context.Context, node *models.CacheFinalEnergyDemand) error {
	if err := utils.ValidateStruct(node); err != nil {
		return err
	}

	n := toNode(node)
	return r.nodes.Update(ctx, &n)
}

func (r *Repository) SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergyDemand, isOutdated bool) error {
	return r.nodes.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (r *Repository) Delete(ctx context.Context, node *models.CacheFinalEnergyDemand) error {
	return r.nodes.Delete(ctx, node.ItemID)
}

func (r *Repository) DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error) {
	return r.nodes.DeleteByProjectVariantID(ctx, projectVariantID)
}
