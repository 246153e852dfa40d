package cache

import (
	"context"

	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/metrics"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
)

// CloneProjectVariant copies the cache tree of srcProjectVariantID onto newProjectVariantID.
// Owners missing from maps are not copied. Composite elements are copied first so the composite
// item references of their parts can be remapped onto the copies.
func (s *Service) CloneProjectVariant(ctx context.Context, srcProjectVariantID, newProjectVariantID int64, maps models.CloneMaps) (*models.CacheProjectVariant, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.CloneProjectVariant")
	defer span.End()

	variant, err := s.repos.Projects.FindVariantByID(ctx, newProjectVariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, repositories.NotFound("project variant %d does not exist", newProjectVariantID)
	}

	src, err := s.repos.ProjectVariants.FindByProjectVariantID(ctx, srcProjectVariantID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, repositories.NotFound("project variant %d has no cache", srcProjectVariantID)
	}

	var root *models.CacheProjectVariant
	copies := copyCounts{}
	err = s.withTx(ctx, func(ctx context.Context) error {
		root, err = s.repos.ProjectVariants.Copy(ctx, src, newProjectVariantID)
		if err != nil {
			return err
		}
		countCopy(copies, models.CacheItemTypeProjectVariant, root)

		elementTypes, err := s.repos.ElementTypes.FindByProjectVariantID(ctx, srcProjectVariantID)
		if err != nil {
			return err
		}
		for _, elementType := range elementTypes {
			copied, err := s.repos.ElementTypes.Copy(ctx, elementType, newProjectVariantID)
			if err != nil {
				return err
			}
			countCopy(copies, models.CacheItemTypeElementType, copied)
		}

		if err := s.cloneElements(ctx, srcProjectVariantID, maps, copies); err != nil {
			return err
		}

		demands, err := s.repos.FinalEnergyDemands.FindByProjectVariantID(ctx, srcProjectVariantID)
		if err != nil {
			return err
		}
		for _, demand := range demands {
			copied, err := s.repos.FinalEnergyDemands.Copy(ctx, demand, maps.FinalEnergyDemands[demand.FinalEnergyDemandID])
			if err != nil {
				return err
			}
			countCopy(copies, models.CacheItemTypeFinalEnergyDemand, copied)
		}

		supplies, err := s.repos.FinalEnergySupplies.FindByProjectVariantID(ctx, srcProjectVariantID)
		if err != nil {
			return err
		}
		for _, supply := range supplies {
			copied, err := s.repos.FinalEnergySupplies.Copy(ctx, supply, maps.FinalEnergySupplies[supply.FinalEnergySupplyID])
			if err != nil {
				return err
			}
			countCopy(copies, models.CacheItemTypeFinalEnergySupply, copied)
		}

		refModels, err := s.repos.FinalEnergyRefModels.FindByProjectVariantID(ctx, srcProjectVariantID)
		if err != nil {
			return err
		}
		for _, refModel := range refModels {
			copied, err := s.repos.FinalEnergyRefModels.Copy(ctx, refModel, maps.FinalEnergyRefModels[refModel.FinalEnergyRefModelID])
			if err != nil {
				return err
			}
			countCopy(copies, models.CacheItemTypeFinalEnergyRefModel, copied)
		}

		transportMeans, err := s.repos.TransportMeans.FindByProjectVariantID(ctx, srcProjectVariantID)
		if err != nil {
			return err
		}
		for _, transportMean := range transportMeans {
			copied, err := s.repos.TransportMeans.Copy(ctx, transportMean, maps.TransportMeans[transportMean.TransportMeanID])
			if err != nil {
				return err
			}
			countCopy(copies, models.CacheItemTypeTransportMean, copied)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	copies.observe()

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"source_project_variant_id": srcProjectVariantID,
		"project_variant_id":        newProjectVariantID,
		"item_id":                   root.ItemID,
	}).Info("Cloned project variant cache")

	return root, nil
}

func (s *Service) cloneElements(ctx context.Context, srcProjectVariantID int64, maps models.CloneMaps, copies copyCounts) error {
	elements, err := s.repos.Elements.FindByProjectVariantID(ctx, srcProjectVariantID)
	if err != nil {
		return err
	}

	itemIDs := make(map[int64]int64, len(elements))
	for _, element := range elements {
		var compositeItemID *int64
		if element.CompositeItemID != nil {
			if id, ok := itemIDs[*element.CompositeItemID]; ok {
				compositeItemID = &id
			}
		}

		copied, err := s.repos.Elements.Copy(ctx, element, maps.Elements[element.ElementID], compositeItemID)
		if err != nil {
			return err
		}
		if copied == nil {
			continue
		}
		countCopy(copies, models.CacheItemTypeElement, copied)
		itemIDs[element.ItemID] = copied.ItemID

		components, err := s.repos.ElementComponents.FindByElementID(ctx, element.ElementID)
		if err != nil {
			return err
		}
		for _, component := range components {
			copiedComponent, err := s.repos.ElementComponents.Copy(ctx, component, maps.ElementComponents[component.ElementComponentID])
			if err != nil {
				return err
			}
			countCopy(copies, models.CacheItemTypeElementComponent, copiedComponent)
		}
	}
	return nil
}

// copyCounts collects copies by node type until the clone is committed.
type copyCounts map[string]int

func countCopy[T any](c copyCounts, nodeType string, copied *T) {
	if copied != nil {
		c[nodeType]++
	}
}

func (c copyCounts) observe() {
	for nodeType, count := range c {
		metrics.NodeCopiesTotal.WithLabelValues(nodeType).Add(float64(count))
	}
}
