// Package cachefinalenergyrefmodel caches the final energy of the reference building.
// Its items are virtual: the reference model is compared against, never summed into the variant.
package cachefinalenergyrefmodel

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

const isVirtual = true

type CacheFinalEnergyRefModelRepository interface {
	Create(ctx context.Context, node *models.CacheFinalEnergyRefModel, itemID *int64) (*models.CacheFinalEnergyRefModel, error)
	FindByItemID(ctx context.Context, itemID int64) (*models.CacheFinalEnergyRefModel, error)
	FindByFinalEnergyRefModelID(ctx context.Context, finalEnergyRefModelID int64) (*models.CacheFinalEnergyRefModel, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheFinalEnergyRefModel, error)
	Copy(ctx context.Context, src *models.CacheFinalEnergyRefModel, newFinalEnergyRefModelID int64) (*models.CacheFinalEnergyRefModel, error)
	Update(ctx context.Context, node *models.CacheFinalEnergyRefModel) error
	SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergyRefModel, isOutdated bool) error
	Delete(ctx context.Context, node *models.CacheFinalEnergyRefModel) error
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
			Name:              "CacheFinalEnergyRefModelRepository",
			Table:             "elca_cache.final_energy_ref_models",
			OwnerColumn:       "final_energy_ref_model_id",
			ItemType:          models.CacheItemTypeFinalEnergyRefModel,
			OwnerVariantQuery: `SELECT c.item_id FROM elca_cache.final_energy_ref_models c
    JOIN elca.project_final_energy_ref_models l ON l.id = c.final_energy_ref_model_id
WHERE l.project_variant_id = ${projectVariantId}`,
		}),
		projects: projects,
	}
}

func toModel(node *cachenode.Node) *models.CacheFinalEnergyRefModel {
	if node == nil {
		return nil
	}
	return &models.CacheFinalEnergyRefModel{
		ItemID:                node.ItemID,
		FinalEnergyRefModelID: node.OwnerID,
		Quantity:              node.Quantity,
		RefUnit:               node.RefUnit,
		Item:                  node.Item,
	}
}

func toNode(m *models.CacheFinalEnergyRefModel) cachenode.Node {
	return cachenode.Node{
		ItemID:   m.ItemID,
		OwnerID:  m.FinalEnergyRefModelID,
		Quantity: m.Quantity,
		RefUnit:  m.RefUnit,
	}
}

func (r *Repository) projectVariantID(ctx context.Context, finalEnergyRefModelID int64) (int64, error) {
	owner, err := r.projects.FindFinalEnergyRefModelByID(ctx, finalEnergyRefModelID)
	if err != nil {
		return 0, err
	}
	if owner == nil {
		return 0, repositories.NotFound("final energy ref model %d does not exist", finalEnergyRefModelID)
	}
	return owner.ProjectVariantID, nil
}

func (r *Repository) Create(ctx context.Context, node *models.CacheFinalEnergyRefModel, itemID *int64) (*models.CacheFinalEnergyRefModel, error) {
	if err := utils.ValidateStruct(node); err != nil {
		return nil, err
	}

	projectVariantID, err := r.projectVariantID(ctx, node.FinalEnergyRefModelID)
	if err != nil {
		return nil, err
	}

	created, err := r.nodes.Create(ctx, toNode(node), projectVariantID, isVirtual, itemID)
	if err != nil {
		return nil, err
	}
	return toModel(created), nil
}

func (r *Repository) FindByItemID(ctx context.Context, itemID int64) (*models.CacheFinalEnergyRefModel, error) {
	node, err := r.nodes.FindByItemID(ctx, itemID)
	return toModel(node), err
}

func (r *Repository) FindByFinalEnergyRefModelID(ctx context.Context, finalEnergyRefModelID int64) (*models.CacheFinalEnergyRefModel, error) {
	node, err := r.nodes.FindByOwnerID(ctx, finalEnergyRefModelID)
	return toModel(node), err
}

func (r *Repository) FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheFinalEnergyRefModel, error) {
	nodes, err := r.nodes.FindByProjectVariantID(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.CacheFinalEnergyRefModel, len(nodes))
	for i, node := range nodes {
		result[i] = toModel(node)
	}
	return result, nil
}

// Copy caches newFinalEnergyRefModelID with src's payload and indicator rows. It returns nil for a nil src or a zero owner.
func (r *Repository) Copy(ctx context.Context, src *models.CacheFinalEnergyRefModel, newFinalEnergyRefModelID int64) (*models.CacheFinalEnergyRefModel, error) {
	if src == nil || newFinalEnergyRefModelID == 0 {
		return nil, nil
	}

	projectVariantID, err := r.projectVariantID(ctx, newFinalEnergyRefModelID)
	if err != nil {
		return nil, err
	}

	node := toNode(src)
	copied, err := r.nodes.Copy(ctx, &node, newFinalEnergyRefModelID, projectVariantID, isVirtual)
	if err != nil {
		return nil, err
	}
	return toModel(copied), nil
}

func (r *Repository) Update(ctx context.Context, node *models.CacheFinalEnergyRefModel) error {
	if err := utils.ValidateStruct(node); err != nil {
		return err
	}

	n := toNode(node)
	return r.nodes.Update(ctx, &n)
}

func (r *Repository) SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergyRefModel, isOutdated bool) error {
	return r.nodes.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (r *Repository) Delete(ctx context.Context, node *models.CacheFinalEnergyRefModel) error {
	return r.nodes.Delete(ctx, node.ItemID)
}

func (r *Repository) DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error) {
	return r.nodes.DeleteByProjectVariantID(ctx, projectVariantID)
}
