// Package cache keeps the result cache tree of a project up to date: it stores node payloads and
// indicator values, recomputes outdated aggregates bottom-up and clones whole project variants.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/kafka"
	"github.com/IWUGERMANY/elca-sub002/pkg/metrics"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
)

type Options struct {
	LockTTL     time.Duration
	LockTimeout time.Duration
}

type Service struct {
	logger    ectologger.Logger
	repos     Repositories
	locker    Locker
	publisher kafka.Publisher
	options   Options
	withTx    func(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewService creates the cache service. A nil locker runs recomputations without a project lock.
func NewService(db database.DB, logger ectologger.Logger, repos Repositories, locker Locker, publisher kafka.Publisher, options Options) *Service {
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	if options.LockTTL == 0 {
		options.LockTTL = 2 * time.Minute
	}
	if options.LockTimeout == 0 {
		options.LockTimeout = 10 * time.Second
	}
	return &Service{
		logger:    logger,
		repos:     repos,
		locker:    locker,
		publisher: publisher,
		options:   options,
		withTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return database.WithTx(ctx, db, fn)
		},
	}
}

// store updates and invalidates an existing node or creates it, in one unit of work.
func store[T any](
	ctx context.Context,
	s *Service,
	nodeType string,
	find func(ctx context.Context) (*T, error),
	update func(ctx context.Context, existing *T) error,
	create func(ctx context.Context) (*T, error),
) (*T, error) {
	var (
		stored  *T
		outcome string
	)
	err := s.withTx(ctx, func(ctx context.Context) error {
		existing, err := find(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			outcome = outcomeUpdated
			stored = existing
			return update(ctx, existing)
		}

		outcome = outcomeCreated
		stored, err = create(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.NodeStoresTotal.WithLabelValues(nodeType, outcome).Inc()
	return stored, nil
}

// StoreElement caches the payload of an element. The composite item reference is replaced by the given one.
func (s *Service) StoreElement(ctx context.Context, node *models.CacheElement) (*models.CacheElement, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.StoreElement")
	defer span.End()

	return store(ctx, s, models.CacheItemTypeElement,
		func(ctx context.Context) (*models.CacheElement, error) {
			return s.repos.Elements.FindByElementID(ctx, node.ElementID)
		},
		func(ctx context.Context, existing *models.CacheElement) error {
			existing.CompositeItemID = node.CompositeItemID
			existing.Mass = node.Mass
			existing.Quantity = node.Quantity
			existing.RefUnit = node.RefUnit
			if err := s.repos.Elements.Update(ctx, existing); err != nil {
				return err
			}
			return s.repos.Elements.SetIsOutdated(ctx, existing, true)
		},
		func(ctx context.Context) (*models.CacheElement, error) {
			return s.repos.Elements.Create(ctx, node, nil)
		},
	)
}

func (s *Service) StoreElementComponent(ctx context.Context, node *models.CacheElementComponent) (*models.CacheElementComponent, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.StoreElementComponent")
	defer span.End()

	return store(ctx, s, models.CacheItemTypeElementComponent,
		func(ctx context.Context) (*models.CacheElementComponent, error) {
			return s.repos.ElementComponents.FindByElementComponentID(ctx, node.ElementComponentID)
		},
		func(ctx context.Context, existing *models.CacheElementComponent) error {
			existing.Mass = node.Mass
			existing.Quantity = node.Quantity
			existing.RefUnit = node.RefUnit
			existing.NumReplacements = node.NumReplacements
			if err := s.repos.ElementComponents.Update(ctx, existing); err != nil {
				return err
			}
			return s.repos.ElementComponents.SetIsOutdated(ctx, existing, true)
		},
		func(ctx context.Context) (*models.CacheElementComponent, error) {
			return s.repos.ElementComponents.Create(ctx, node, nil)
		},
	)
}

// RemoveElementComponent drops a cached component and marks its element outdated.
// Unknown components are ignored.
func (s *Service) RemoveElementComponent(ctx context.Context, elementComponentID int64) error {
	ctx, span := tracing.StartSpan(ctx, "cache.RemoveElementComponent")
	defer span.End()

	return s.withTx(ctx, func(ctx context.Context) error {
		node, err := s.repos.ElementComponents.FindByElementComponentID(ctx, elementComponentID)
		if err != nil || node == nil {
			return err
		}

		item, err := s.repos.Items.FindByID(ctx, node.ItemID)
		if err != nil {
			return err
		}

		if err := s.repos.ElementComponents.Delete(ctx, node); err != nil {
			return err
		}

		if item == nil || item.ParentID == nil {
			return nil
		}
		return s.repos.Items.SetIsOutdated(ctx, *item.ParentID, true)
	})
}

func (s *Service) StoreFinalEnergyDemand(ctx context.Context, node *models.CacheFinalEnergyDemand) (*models.CacheFinalEnergyDemand, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.StoreFinalEnergyDemand")
	defer span.End()

	return store(ctx, s, models.CacheItemTypeFinalEnergyDemand,
		func(ctx context.Context) (*models.CacheFinalEnergyDemand, error) {
			return s.repos.FinalEnergyDemands.FindByFinalEnergyDemandID(ctx, node.FinalEnergyDemandID)
		},
		func(ctx context.Context, existing *models.CacheFinalEnergyDemand) error {
			existing.Quantity = node.Quantity
			existing.RefUnit = node.RefUnit
			if err := s.repos.FinalEnergyDemands.Update(ctx, existing); err != nil {
				return err
			}
			return s.repos.FinalEnergyDemands.SetIsOutdated(ctx, existing, true)
		},
		func(ctx context.Context) (*models.CacheFinalEnergyDemand, error) {
			return s.repos.FinalEnergyDemands.Create(ctx, node, nil)
		},
	)
}

func (s *Service) StoreFinalEnergySupply(ctx context.Context, node *models.CacheFinalEnergySupply) (*models.CacheFinalEnergySupply, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.StoreFinalEnergySupply")
	defer span.End()

	return store(ctx, s, models.CacheItemTypeFinalEnergySupply,
		func(ctx context.Context) (*models.CacheFinalEnergySupply, error) {
			return s.repos.FinalEnergySupplies.FindByFinalEnergySupplyID(ctx, node.FinalEnergySupplyID)
		},
		func(ctx context.Context, existing *models.CacheFinalEnergySupply) error {
			existing.Quantity = node.Quantity
			existing.RefUnit = node.RefUnit
			if err := s.repos.FinalEnergySupplies.Update(ctx, existing); err != nil {
				return err
			}
			return s.repos.FinalEnergySupplies.SetIsOutdated(ctx, existing, true)
		},
		func(ctx context.Context) (*models.CacheFinalEnergySupply, error) {
			return s.repos.FinalEnergySupplies.Create(ctx, node, nil)
		},
	)
}

func (s *Service) StoreFinalEnergyRefModel(ctx context.Context, node *models.CacheFinalEnergyRefModel) (*models.CacheFinalEnergyRefModel, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.StoreFinalEnergyRefModel")
	defer span.End()

	return store(ctx, s, models.CacheItemTypeFinalEnergyRefModel,
		func(ctx context.Context) (*models.CacheFinalEnergyRefModel, error) {
			return s.repos.FinalEnergyRefModels.FindByFinalEnergyRefModelID(ctx, node.FinalEnergyRefModelID)
		},
		func(ctx context.Context, existing *models.CacheFinalEnergyRefModel) error {
			existing.Quantity = node.Quantity
			existing.RefUnit = node.RefUnit
			if err := s.repos.FinalEnergyRefModels.Update(ctx, existing); err != nil {
				return err
			}
			return s.repos.FinalEnergyRefModels.SetIsOutdated(ctx, existing, true)
		},
		func(ctx context.Context) (*models.CacheFinalEnergyRefModel, error) {
			return s.repos.FinalEnergyRefModels.Create(ctx, node, nil)
		},
	)
}

// StoreTransportMean caches a transport mean. Its item is virtual unless the transport is included in the LCA.
func (s *Service) StoreTransportMean(ctx context.Context, node *models.CacheTransportMean, includeInLca bool) (*models.CacheTransportMean, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.StoreTransportMean")
	defer span.End()

	return store(ctx, s, models.CacheItemTypeTransportMean,
		func(ctx context.Context) (*models.CacheTransportMean, error) {
			return s.repos.TransportMeans.FindByTransportMeanID(ctx, node.TransportMeanID)
		},
		func(ctx context.Context, existing *models.CacheTransportMean) error {
			existing.Quantity = node.Quantity
			existing.RefUnit = node.RefUnit
			if err := s.repos.TransportMeans.Update(ctx, existing); err != nil {
				return err
			}
			if err := s.repos.TransportMeans.SetIsOutdated(ctx, existing, true); err != nil {
				return err
			}
			return s.repos.Items.UpdateIsVirtual(ctx, existing.ItemID, !includeInLca)
		},
		func(ctx context.Context) (*models.CacheTransportMean, error) {
			return s.repos.TransportMeans.Create(ctx, node, !includeInLca, nil)
		},
	)
}

// removeAll deletes a project variant's nodes of one type and marks the variant root outdated
// when anything was removed.
func (s *Service) removeAll(ctx context.Context, projectVariantID int64, nodeType string, deleteFn func(ctx context.Context, projectVariantID int64) (int64, error)) error {
	return s.withTx(ctx, func(ctx context.Context) error {
		removed, err := deleteFn(ctx, projectVariantID)
		if err != nil || removed == 0 {
			return err
		}

		s.logger.WithContext(ctx).WithFields(map[string]any{
			"project_variant_id": projectVariantID,
			"node_type":          nodeType,
			"removed":            removed,
		}).Debug("Removed cache nodes")

		root, err := s.repos.ProjectVariants.FindByProjectVariantID(ctx, projectVariantID)
		if err != nil || root == nil {
			return err
		}
		return s.repos.Items.SetIsOutdated(ctx, root.ItemID, true)
	})
}

func (s *Service) RemoveFinalEnergyDemands(ctx context.Context, projectVariantID int64) error {
	ctx, span := tracing.StartSpan(ctx, "cache.RemoveFinalEnergyDemands")
	defer span.End()

	return s.removeAll(ctx, projectVariantID, models.CacheItemTypeFinalEnergyDemand, s.repos.FinalEnergyDemands.DeleteByProjectVariantID)
}

func (s *Service) RemoveFinalEnergySupplies(ctx context.Context, projectVariantID int64) error {
	ctx, span := tracing.StartSpan(ctx, "cache.RemoveFinalEnergySupplies")
	defer span.End()

	return s.removeAll(ctx, projectVariantID, models.CacheItemTypeFinalEnergySupply, s.repos.FinalEnergySupplies.DeleteByProjectVariantID)
}

func (s *Service) RemoveFinalEnergyRefModels(ctx context.Context, projectVariantID int64) error {
	ctx, span := tracing.StartSpan(ctx, "cache.RemoveFinalEnergyRefModels")
	defer span.End()

	return s.removeAll(ctx, projectVariantID, models.CacheItemTypeFinalEnergyRefModel, s.repos.FinalEnergyRefModels.DeleteByProjectVariantID)
}

func (s *Service) RemoveTransportMeans(ctx context.Context, projectVariantID int64) error {
	ctx, span := tracing.StartSpan(ctx, "cache.RemoveTransportMeans")
	defer span.End()

	return s.removeAll(ctx, projectVariantID, models.CacheItemTypeTransportMean, s.repos.TransportMeans.DeleteByProjectVariantID)
}

// StoreIndicators writes the values of one life cycle module onto item and marks the item outdated.
// With zeroValues every value is stored as 0 while the rows are kept.
func (s *Service) StoreIndicators(ctx context.Context, item *models.CacheItem, results *models.IndicatorResults, zeroValues, isPartial bool) error {
	ctx, span := tracing.StartSpan(ctx, "cache.StoreIndicators")
	defer span.End()

	if item == nil {
		return repositories.BadRequest("cache item is required")
	}
	if err := utils.ValidateStruct(results); err != nil {
		return err
	}

	stored := 0
	err := s.withTx(ctx, func(ctx context.Context) error {
		for _, result := range results.Values {
			value := result.Value
			if zeroValues {
				value = 0
			}
			if _, err := s.repos.Indicators.Upsert(ctx, &models.CacheIndicator{
				ItemID:         item.ID,
				LifeCycleIdent: results.LifeCycleIdent,
				IndicatorID:    result.IndicatorID,
				ProcessID:      results.ProcessID,
				Value:          value,
				Ratio:          results.Ratio,
				IsPartial:      isPartial,
			}); err != nil {
				return err
			}
			stored++
		}

		// bumps the version even when the item is already outdated, so a refresh that read it before stays stale
		if err := s.repos.Items.SetIsOutdated(ctx, item.ID, true); err != nil {
			return err
		}
		item.IsOutdated = true
		return nil
	})
	if err != nil {
		return err
	}

	metrics.IndicatorRowsStored.Add(float64(stored))

	event := kafka.NewEvent(kafka.TopicCacheOutdated, item.ProjectID)
	event.ItemIDs = []int64{item.ID}
	s.publish(ctx, kafka.TopicCacheOutdated, event)

	return nil
}

// StoreItemIndicators resolves itemID and stores results on it.
func (s *Service) StoreItemIndicators(ctx context.Context, itemID int64, results *models.IndicatorResults, zeroValues, isPartial bool) error {
	item, err := s.repos.Items.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return repositories.NotFound("cache item %d does not exist", itemID)
	}
	return s.StoreIndicators(ctx, item, results, zeroValues, isPartial)
}

// Refresh recomputes every outdated item of a project, deepest first, under the project lock.
// Items that change while they are recomputed stay outdated and are counted as conflicts.
func (s *Service) Refresh(ctx context.Context, projectID int64) (*models.CacheRefresh, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.Refresh")
	defer span.End()

	return s.refresh(ctx, projectID, func(ctx context.Context) ([]*models.OutdatedCacheItem, error) {
		return s.repos.Items.FindOutdatedByProjectID(ctx, projectID)
	})
}

// RefreshProjectVariant recomputes the tree of a project variant including its root.
// Without a cached root there is nothing to do.
func (s *Service) RefreshProjectVariant(ctx context.Context, projectVariantID int64) (*models.CacheRefresh, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.RefreshProjectVariant")
	defer span.End()

	root, err := s.repos.ProjectVariants.FindByProjectVariantID(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return &models.CacheRefresh{}, nil
	}

	return s.refreshSubtree(ctx, root.ItemID, root.ItemID)
}

// RefreshElementTypeTree recomputes an element type branch and the path up to its project variant root.
func (s *Service) RefreshElementTypeTree(ctx context.Context, projectVariantID, elementTypeNodeID int64) (*models.CacheRefresh, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.RefreshElementTypeTree")
	defer span.End()

	branch, err := s.repos.ElementTypes.FindByProjectVariantIDAndElementTypeNodeID(ctx, projectVariantID, elementTypeNodeID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return &models.CacheRefresh{}, nil
	}

	root, err := s.repos.ProjectVariants.FindByProjectVariantID(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, repositories.NotFound("project variant %d has no cache", projectVariantID)
	}

	return s.refreshSubtree(ctx, branch.ItemID, root.ItemID)
}

func (s *Service) refreshSubtree(ctx context.Context, startID, rootID int64) (*models.CacheRefresh, error) {
	start, err := s.repos.Items.FindByID(ctx, startID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, repositories.NotFound("cache item %d does not exist", startID)
	}

	return s.refresh(ctx, start.ProjectID, func(ctx context.Context) ([]*models.OutdatedCacheItem, error) {
		if err := s.repos.Items.SetIsOutdated(ctx, startID, true); err != nil {
			return nil, err
		}
		if _, err := s.repos.Items.MarkAncestorsOutdated(ctx, startID); err != nil {
			return nil, err
		}
		return s.repos.Items.FindOutdatedBySubtree(ctx, rootID)
	})
}

func (s *Service) refresh(ctx context.Context, projectID int64, outdated func(ctx context.Context) ([]*models.OutdatedCacheItem, error)) (*models.CacheRefresh, error) {
	started := time.Now()
	result := &models.CacheRefresh{ProjectID: projectID}

	err := s.withProjectLock(ctx, projectID, func(ctx context.Context) error {
		return s.withTx(ctx, func(ctx context.Context) error {
			if _, err := s.repos.Items.MarkAncestorsOfOutdatedOutdated(ctx, projectID); err != nil {
				return err
			}

			items, err := outdated(ctx)
			if err != nil {
				return err
			}
			return s.recompute(ctx, items, result)
		})
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RefreshDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}

	metrics.RefreshedItemsTotal.Add(float64(result.Recomputed))
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": projectID,
		"recomputed": result.Recomputed,
		"aggregated": result.Aggregated,
		"conflicts":  result.Conflicts,
		"duration":   time.Since(started).String(),
	}).Info("Refreshed cache")

	if result.Recomputed > 0 {
		event := kafka.NewEvent(kafka.TopicCacheRecomputed, projectID)
		event.ItemIDs = result.ItemIDs
		s.publish(ctx, kafka.TopicCacheRecomputed, event)
	}

	return result, nil
}

// recompute walks items in the given order. Items with children get their indicator rows replaced
// by the sum of their children; every item is then cleared if its version did not move.
func (s *Service) recompute(ctx context.Context, items []*models.OutdatedCacheItem, result *models.CacheRefresh) error {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Depth > items[j].Depth
	})

	for _, item := range items {
		children, err := s.repos.Items.FindByParentID(ctx, item.ID)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			if _, err := s.repos.Indicators.Aggregate(ctx, item.ID); err != nil {
				return err
			}
			result.Aggregated++
		}

		err = s.repos.Items.CompleteRecompute(ctx, item.ID, item.Version)
		if errors.Is(err, repositories.ErrConcurrentModification) {
			metrics.ConcurrentModificationsTotal.Inc()
			result.Conflicts++
			continue
		}
		if err != nil {
			return err
		}

		result.Recomputed++
		result.ItemIDs = append(result.ItemIDs, item.ID)
	}
	return nil
}

func (s *Service) withProjectLock(ctx context.Context, projectID int64, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}

	requested := time.Now()
	return s.locker.WithLock(ctx, fmt.Sprintf("project:%d", projectID), s.options.LockTTL, s.options.LockTimeout, func(ctx context.Context) error {
		metrics.LockWaitTime.Observe(time.Since(requested).Seconds())
		return fn(ctx)
	})
}

// Check counts the integrity violations of a project's cache.
func (s *Service) Check(ctx context.Context, projectID int64) (*models.CacheCheck, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.Check")
	defer span.End()

	duplicates, err := s.repos.Indicators.CountDuplicateTotals(ctx, projectID)
	if err != nil {
		return nil, err
	}
	a1a2a3, err := s.repos.Indicators.CountA1A2OrA3Totals(ctx, projectID)
	if err != nil {
		return nil, err
	}

	check := &models.CacheCheck{
		ProjectID:       projectID,
		DuplicateTotals: duplicates,
		A1A2OrA3Totals:  a1a2a3,
	}
	if !check.OK() {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"project_id":       projectID,
			"duplicate_totals": duplicates,
		}).Warn("Cache contains duplicate totals")
	}

	return check, nil
}

// CheckProjectVariant reports a 404 unless projectVariantID is a variant of projectID.
func (s *Service) CheckProjectVariant(ctx context.Context, projectID, projectVariantID int64) error {
	ctx, span := tracing.StartSpan(ctx, "cache.CheckProjectVariant")
	defer span.End()

	variant, err := s.repos.Projects.FindVariantByID(ctx, projectVariantID)
	if err != nil {
		return err
	}
	if variant == nil || variant.ProjectID != projectID {
		return repositories.NotFound("project %d has no variant %d", projectID, projectVariantID)
	}
	return nil
}

// GetTree returns the cache tree of a project variant with the indicator rows of every item.
func (s *Service) GetTree(ctx context.Context, projectVariantID int64) (*models.CacheTreeNode, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.GetTree")
	defer span.End()

	root, err := s.repos.ProjectVariants.FindByProjectVariantID(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, repositories.NotFound("project variant %d has no cache", projectVariantID)
	}

	items, err := s.repos.Items.FindSubtree(ctx, root.ItemID)
	if err != nil {
		return nil, err
	}

	ids := ectolinq.Map(items, func(item *models.OutdatedCacheItem) int64 { return item.ID })
	indicators, err := s.repos.Indicators.FindByItemIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]*models.CacheTreeNode, len(items))
	for _, item := range items {
		cacheItem := item.CacheItem
		nodes[item.ID] = &models.CacheTreeNode{Item: &cacheItem}
	}
	for _, indicator := range indicators {
		if node, ok := nodes[indicator.ItemID]; ok {
			node.Indicators = append(node.Indicators, indicator)
		}
	}
	for _, item := range items {
		if item.ID == root.ItemID || item.ParentID == nil {
			continue
		}
		if parent, ok := nodes[*item.ParentID]; ok {
			parent.Children = append(parent.Children, nodes[item.ID])
		}
	}
	for _, node := range nodes {
		sort.Slice(node.Children, func(i, j int) bool {
			return node.Children[i].Item.ID < node.Children[j].Item.ID
		})
	}

	tree, ok := nodes[root.ItemID]
	if !ok {
		return nil, repositories.NotFound("cache item %d does not exist", root.ItemID)
	}
	return tree, nil
}

func (s *Service) publish(ctx context.Context, topic string, event *kafka.Event) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("topic", topic).Warn("Failed to publish cache event")
	}
}
