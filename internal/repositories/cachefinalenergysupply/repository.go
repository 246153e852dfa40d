package cachefinalenergysupply

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

type CacheFinalEnergySupplyRepository interface {
	Create(ctx context.Context, node *models.CacheFinalEnergySupply, itemID *int64) (*models.CacheFinalEnergySupply, error)
	FindByItemID(ctx context.Context, itemID int64) (*models.CacheFinalEnergySupply, error)
	FindByFinalEnergySupplyID(ctx context.Context, finalEnergySupplyID int64) (*models.CacheFinalEnergySupply, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheFinalEnergySupply, error)
	Copy(ctx context.Context, src *models.CacheFinalEnergySupply, newFinalEnergySupplyID int64) (*models.CacheFinalEnergySupply, error)
	Update(ctx context.Context, node *models.CacheFinalEnergySupply) error
	SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergySupply, isOutdated bool) error
	Delete(ctx context.Context, node *models.CacheFinalEnergySupply) error
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
			Name:              "CacheFinalEnergySupplyRepository",
			Table:             "elca_cache.final_energy_supplies",
			OwnerColumn:       "final_energy_supply_id",
			ItemType:          models.CacheItemTypeFinalEnergySupply,
			OwnerVariantQuery: `SELECT c.item_id FROM elca_cache.final_energy_supplies c
    JOIN elca.project_final_energy_supplies l ON l.id = c.final_energy_supply_id
WHERE l.project_variant_id = ${projectVariantId}`,
		}),
		projects: projects,
	}
}

func toModel(node *cachenode.Node) *models.CacheFinalEnergySupply {
	if node == nil {
		return nil
	}
	return &models.CacheFinalEnergySupply{
		ItemID:              node.ItemID,
		FinalEnergySupplyID: node.OwnerID,
		Quantity:            node.Quantity,
		RefUnit:             node.RefUnit,
		Item:                node.Item,
	}
}

func toNode(m *models.CacheFinalEnergySupply) cachenode.Node {
	return cachenode.Node{
		ItemID:   m.ItemID,
		OwnerID:  m.FinalEnergySupplyID,
		Quantity: m.Quantity,
		RefUnit:  m.RefUnit,
	}
}

func (r *Repository) projectVariantID(ctx context.Context, finalEnergySupplyID int64) (int64, error) {
	owner, err := r.projects.FindFinalEnergySupplyByID(ctx, finalEnergySupplyID)
	if err != nil {
		return 0, err
	}
	if owner == nil {
		return 0, repositories.NotFound("final energy supply %d does not exist", finalEnergySupplyID)
	}
	return owner.ProjectVariantID, nil
}

func (r *Repository) Create(ctx context.Context, node *models.CacheFinalEnergySupply, itemID *int64) (*models.CacheFinalEnergySupply, error) {
	if err := utils.ValidateStruct(node); err != nil {
		return nil, err
	}

	projectVariantID, err := r.projectVariantID(ctx, node.FinalEnergySupplyID)
	if err != nil {
		return nil, err
	}

	created, err := r.nodes.Create(ctx, toNode(node), projectVariantID, isVirtual, itemID)
	if err != nil {
		return nil, err
	}
	return toModel(created), nil
}

func (r *Repository) FindByItemID(ctx context.Context, itemID int64) (*models.CacheFinalEnergySupply, error) {
	node, err := r.nodes.FindByItemID(ctx, itemID)
	return toModel(node), err
}

func (r *Repository) FindByFinalEnergySupplyID(ctx context.Context, finalEnergySupplyID int64) (*models.CacheFinalEnergySupply, error) {
	node, err := r.nodes.FindByOwnerID(ctx, finalEnergySupplyID)
	return toModel(node), err
}

func (r *Repository) FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheFinalEnergySupply, error) {
	nodes, err := r.nodes.FindByProjectVariantID(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.CacheFinalEnergySupply, len(nodes))
	for i, node := range nodes {
		result[i] = toModel(node)
	}
	return result, nil
}

// Copy caches newFinalEnergySupplyID with src's payload and indicator rows. It returns nil for a nil src or a zero owner.
func (r *Repository) Copy(ctx context.Context, src *models.CacheFinalEnergySupply, newFinalEnergySupplyID int64) (*models.CacheFinalEnergySupply, error) {
	if src == nil || newFinalEnergySupplyID == 0 {
		return nil, nil
	}

	projectVariantID, err := r.projectVariantID(ctx, newFinalEnergySupplyID)
	if err != nil {
		return nil, err
	}

	node := toNode(src)
	copied, err := r.nodes.Copy(ctx, &node, newFinalEnergySupplyID, projectVariantID, isVirtual)
	if err != nil {
		return nil, err
	}
	return toModel(copied), nil
}

func (r *Repository) Update(ctx context.Context, node *models.CacheFinalEnergySupply) error {
	if err := utils.ValidateStruct(node); err != nil {
		return err
	}

	n := toNode(node)
	return r.nodes.Update(ctx, &n)
}

func (r *Repository) SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergySupply, isOutdated bool) error {
	return r.nodes.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (r *Repository) Delete(ctx context.Context, node *models.CacheFinalEnergySupply) error {
	return r.nodes.Delete(ctx, node.ItemID)
}

func (r *Repository) DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error) {
	return r.nodes.DeleteByProjectVariantID(ctx, projectVariantID)
}
