package cache

import (
	"context"
	"time"

	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

type ItemRepository interface {
	FindByID(ctx context.Context, id int64) (*models.CacheItem, error)
	FindByParentID(ctx context.Context, parentID int64) ([]*models.CacheItem, error)
	FindSubtree(ctx context.Context, rootID int64) ([]*models.OutdatedCacheItem, error)
	FindOutdatedByProjectID(ctx context.Context, projectID int64) ([]*models.OutdatedCacheItem, error)
	FindOutdatedBySubtree(ctx context.Context, rootID int64) ([]*models.OutdatedCacheItem, error)
	SetIsOutdated(ctx context.Context, id int64, isOutdated bool) error
	MarkAncestorsOutdated(ctx context.Context, id int64) (int64, error)
	MarkAncestorsOfOutdatedOutdated(ctx context.Context, projectID int64) (int64, error)
	UpdateIsVirtual(ctx context.Context, id int64, isVirtual bool) error
	CompleteRecompute(ctx context.Context, id int64, expectedVersion int64) error
}

type IndicatorRepository interface {
	FindByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.CacheIndicator, error)
	Upsert(ctx context.Context, indicator *models.CacheIndicator) (bool, error)
	Aggregate(ctx context.Context, parentItemID int64) (int64, error)
	CountDuplicateTotals(ctx context.Context, projectID int64) (int, error)
	CountA1A2OrA3Totals(ctx context.Context, projectID int64) (int, error)
}

type ProjectVariantRepository interface {
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) (*models.CacheProjectVariant, error)
	Copy(ctx context.Context, src *models.CacheProjectVariant, newProjectVariantID int64) (*models.CacheProjectVariant, error)
}

type ElementTypeRepository interface {
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheElementType, error)
	FindByProjectVariantIDAndElementTypeNodeID(ctx context.Context, projectVariantID, elementTypeNodeID int64) (*models.CacheElementType, error)
	Copy(ctx context.Context, src *models.CacheElementType, newProjectVariantID int64) (*models.CacheElementType, error)
}

type ElementRepository interface {
	Create(ctx context.Context, node *models.CacheElement, itemID *int64) (*models.CacheElement, error)
	FindByElementID(ctx context.Context, elementID int64) (*models.CacheElement, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheElement, error)
	Copy(ctx context.Context, src *models.CacheElement, newElementID int64, compositeItemID *int64) (*models.CacheElement, error)
	Update(ctx context.Context, node *models.CacheElement) error
	SetIsOutdated(ctx context.Context, node *models.CacheElement, isOutdated bool) error
}

type ElementComponentRepository interface {
	Create(ctx context.Context, node *models.CacheElementComponent, itemID *int64) (*models.CacheElementComponent, error)
	FindByElementComponentID(ctx context.Context, elementComponentID int64) (*models.CacheElementComponent, error)
	FindByElementID(ctx context.Context, elementID int64) ([]*models.CacheElementComponent, error)
	Copy(ctx context.Context, src *models.CacheElementComponent, newElementComponentID int64) (*models.CacheElementComponent, error)
	Update(ctx context.Context, node *models.CacheElementComponent) error
	SetIsOutdated(ctx context.Context, node *models.CacheElementComponent, isOutdated bool) error
	Delete(ctx context.Context, node *models.CacheElementComponent) error
}

type FinalEnergyDemandRepository interface {
	Create(ctx context.Context, node *models.CacheFinalEnergyDemand, itemID *int64) (*models.CacheFinalEnergyDemand, error)
	FindByFinalEnergyDemandID(ctx context.Context, finalEnergyDemandID int64) (*models.CacheFinalEnergyDemand, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheFinalEnergyDemand, error)
	Copy(ctx context.Context, src *models.CacheFinalEnergyDemand, newFinalEnergyDemandID int64) (*models.CacheFinalEnergyDemand, error)
	Update(ctx context.Context, node *models.CacheFinalEnergyDemand) error
	SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergyDemand, isOutdated bool) error
	DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error)
}

type FinalEnergySupplyRepository interface {
	Create(ctx context.Context, node *models.CacheFinalEnergySupply, itemID *int64) (*models.CacheFinalEnergySupply, error)
	FindByFinalEnergySupplyID(ctx context.Context, finalEnergySupplyID int64) (*models.CacheFinalEnergySupply, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheFinalEnergySupply, error)
	Copy(ctx context.Context, src *models.CacheFinalEnergySupply, newFinalEnergySupplyID int64) (*models.CacheFinalEnergySupply, error)
	Update(ctx context.Context, node *models.CacheFinalEnergySupply) error
	SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergySupply, isOutdated bool) error
	DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error)
}

type FinalEnergyRefModelRepository interface {
	Create(ctx context.Context, node *models.CacheFinalEnergyRefModel, itemID *int64) (*models.CacheFinalEnergyRefModel, error)
	FindByFinalEnergyRefModelID(ctx context.Context, finalEnergyRefModelID int64) (*models.CacheFinalEnergyRefModel, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheFinalEnergyRefModel, error)
	Copy(ctx context.Context, src *models.CacheFinalEnergyRefModel, newFinalEnergyRefModelID int64) (*models.CacheFinalEnergyRefModel, error)
	Update(ctx context.Context, node *models.CacheFinalEnergyRefModel) error
	SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergyRefModel, isOutdated bool) error
	DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error)
}

type TransportMeanRepository interface {
	Create(ctx context.Context, node *models.CacheTransportMean, isVirtual bool, itemID *int64) (*models.CacheTransportMean, error)
	FindByTransportMeanID(ctx context.Context, transportMeanID int64) (*models.CacheTransportMean, error)
	FindByProjectVariantID(ctx context.Context, projectVariantID int64) ([]*models.CacheTransportMean, error)
	Copy(ctx context.Context, src *models.CacheTransportMean, newTransportMeanID int64) (*models.CacheTransportMean, error)
	Update(ctx context.Context, node *models.CacheTransportMean) error
	SetIsOutdated(ctx context.Context, node *models.CacheTransportMean, isOutdated bool) error
	DeleteByProjectVariantID(ctx context.Context, projectVariantID int64) (int64, error)
}

type ProjectRepository interface {
	FindVariantByID(ctx context.Context, variantID int64) (*models.ProjectVariant, error)
}

// Locker serializes recomputations of a project across instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl, timeout time.Duration, fn func(ctx context.Context) error) error
}

type Repositories struct {
	Items                ItemRepository
	Indicators           IndicatorRepository
	ProjectVariants      ProjectVariantRepository
	ElementTypes         ElementTypeRepository
	Elements             ElementRepository
	ElementComponents    ElementComponentRepository
	FinalEnergyDemands   FinalEnergyDemandRepository
	FinalEnergySupplies  FinalEnergySupplyRepository
	FinalEnergyRefModels FinalEnergyRefModelRepository
	TransportMeans       TransportMeanRepository
	Projects             ProjectRepository
}
