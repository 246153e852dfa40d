package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/kafka"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

// memCache is an in-memory item tree with indicator rows.
type memCache struct {
	items      map[int64]*models.CacheItem
	indicators []*models.CacheIndicator
	nextID     int64
	conflicts  map[int64]bool
	duplicates int
	a1a2a3     int
}

func newMemCache() *memCache {
	return &memCache{items: map[int64]*models.CacheItem{}, conflicts: map[int64]bool{}}
}

func (m *memCache) add(projectID int64, itemType string, parentID *int64, isVirtual bool) *models.CacheItem {
	m.nextID++
	item := &models.CacheItem{
		ID:         m.nextID,
		ParentID:   parentID,
		ProjectID:  projectID,
		Type:       itemType,
		IsVirtual:  isVirtual,
		IsOutdated: true,
		Version:    1,
	}
	m.items[item.ID] = item
	return item
}

func (m *memCache) addIndicator(itemID int64, lifeCycleIdent string, indicatorID int64, value float64) {
	m.indicators = append(m.indicators, &models.CacheIndicator{
		ItemID:         itemID,
		LifeCycleIdent: lifeCycleIdent,
		IndicatorID:    indicatorID,
		Value:          value,
		Ratio:          1,
	})
}

func (m *memCache) value(itemID int64, lifeCycleIdent string, indicatorID int64) (float64, bool) {
	for _, row := range m.indicators {
		if row.ItemID == itemID && row.LifeCycleIdent == lifeCycleIdent && row.IndicatorID == indicatorID && row.ProcessID == nil {
			return row.Value, true
		}
	}
	return 0, false
}

func (m *memCache) copyIndicators(srcItemID, dstItemID int64) {
	for _, row := range m.indicatorsOf(srcItemID) {
		copied := *row
		copied.ItemID = dstItemID
		m.indicators = append(m.indicators, &copied)
	}
}

func (m *memCache) indicatorsOf(itemID int64) []*models.CacheIndicator {
	var rows []*models.CacheIndicator
	for _, row := range m.indicators {
		if row.ItemID == itemID {
			rows = append(rows, row)
		}
	}
	return rows
}

func (m *memCache) remove(itemID int64) {
	for _, child := range m.children(itemID) {
		m.remove(child.ID)
	}
	delete(m.items, itemID)
	kept := m.indicators[:0]
	for _, row := range m.indicators {
		if row.ItemID != itemID {
			kept = append(kept, row)
		}
	}
	m.indicators = kept
}

func (m *memCache) children(parentID int64) []*models.CacheItem {
	var children []*models.CacheItem
	for _, item := range m.items {
		if item.ParentID != nil && *item.ParentID == parentID {
			children = append(children, item)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children
}

func (m *memCache) subtree(rootID int64, outdatedOnly bool) []*models.OutdatedCacheItem {
	root, ok := m.items[rootID]
	if !ok {
		return nil
	}

	var result []*models.OutdatedCacheItem
	var walk func(item *models.CacheItem, depth int)
	walk = func(item *models.CacheItem, depth int) {
		if !outdatedOnly || item.IsOutdated {
			result = append(result, &models.OutdatedCacheItem{CacheItem: *item, Depth: depth})
		}
		for _, child := range m.children(item.ID) {
			walk(child, depth+1)
		}
	}
	walk(root, 0)

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Depth != result[j].Depth {
			return result[i].Depth > result[j].Depth
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (m *memCache) FindByID(_ context.Context, id int64) (*models.CacheItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (m *memCache) FindByParentID(_ context.Context, parentID int64) ([]*models.CacheItem, error) {
	return m.children(parentID), nil
}

func (m *memCache) FindSubtree(_ context.Context, rootID int64) ([]*models.OutdatedCacheItem, error) {
	return m.subtree(rootID, false), nil
}

func (m *memCache) FindOutdatedByProjectID(_ context.Context, projectID int64) ([]*models.OutdatedCacheItem, error) {
	var result []*models.OutdatedCacheItem
	for _, item := range m.items {
		if item.ProjectID == projectID && item.ParentID == nil {
			result = append(result, m.subtree(item.ID, true)...)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Depth != result[j].Depth {
			return result[i].Depth > result[j].Depth
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *memCache) FindOutdatedBySubtree(_ context.Context, rootID int64) ([]*models.OutdatedCacheItem, error) {
	return m.subtree(rootID, true), nil
}

func (m *memCache) SetIsOutdated(_ context.Context, id int64, isOutdated bool) error {
	item, ok := m.items[id]
	if !ok {
		return repositories.NotFound("cache item %d does not exist", id)
	}
	item.IsOutdated = isOutdated
	item.Version++
	return nil
}

func (m *memCache) MarkAncestorsOutdated(_ context.Context, id int64) (int64, error) {
	var touched int64
	item, ok := m.items[id]
	for ok && item.ParentID != nil {
		item, ok = m.items[*item.ParentID]
		if ok {
			item.IsOutdated = true
			item.Version++
			touched++
		}
	}
	return touched, nil
}

func (m *memCache) MarkAncestorsOfOutdatedOutdated(_ context.Context, projectID int64) (int64, error) {
	var touched int64
	for changed := true; changed; {
		changed = false
		for _, item := range m.items {
			if item.ProjectID != projectID || !item.IsOutdated || item.ParentID == nil {
				continue
			}
			parent := m.items[*item.ParentID]
			if parent != nil && !parent.IsOutdated {
				parent.IsOutdated = true
				parent.Version++
				touched++
				changed = true
			}
		}
	}
	return touched, nil
}

func (m *memCache) UpdateIsVirtual(_ context.Context, id int64, isVirtual bool) error {
	item, ok := m.items[id]
	if !ok {
		return repositories.NotFound("cache item %d does not exist", id)
	}
	item.IsVirtual = isVirtual
	item.Version++
	return nil
}

func (m *memCache) CompleteRecompute(_ context.Context, id int64, expectedVersion int64) error {
	item, ok := m.items[id]
	if !ok {
		return repositories.NotFound("cache item %d does not exist", id)
	}
	if m.conflicts[id] || item.Version != expectedVersion {
		return repositories.ErrConcurrentModification
	}
	item.IsOutdated = false
	return nil
}

func (m *memCache) FindByItemIDs(_ context.Context, itemIDs []int64) ([]*models.CacheIndicator, error) {
	var rows []*models.CacheIndicator
	for _, id := range itemIDs {
		rows = append(rows, m.indicatorsOf(id)...)
	}
	return rows, nil
}

func (m *memCache) Upsert(_ context.Context, indicator *models.CacheIndicator) (bool, error) {
	for _, row := range m.indicators {
		if row.ItemID == indicator.ItemID && row.LifeCycleIdent == indicator.LifeCycleIdent &&
			row.IndicatorID == indicator.IndicatorID && sameProcess(row.ProcessID, indicator.ProcessID) {
			*row = *indicator
			return false, nil
		}
	}
	copied := *indicator
	m.indicators = append(m.indicators, &copied)
	return true, nil
}

func sameProcess(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Aggregate sums the totals of the non-virtual children, ignoring process rows.
func (m *memCache) Aggregate(_ context.Context, parentItemID int64) (int64, error) {
	type key struct {
		lifeCycleIdent string
		indicatorID    int64
	}
	sums := map[key]*models.CacheIndicator{}
	var order []key
	for _, child := range m.children(parentItemID) {
		if child.IsVirtual {
			continue
		}
		for _, row := range m.indicatorsOf(child.ID) {
			if row.ProcessID != nil {
				continue
			}
			k := key{row.LifeCycleIdent, row.IndicatorID}
			sum, ok := sums[k]
			if !ok {
				sum = &models.CacheIndicator{ItemID: parentItemID, LifeCycleIdent: k.lifeCycleIdent, IndicatorID: k.indicatorID, Ratio: 1}
				sums[k] = sum
				order = append(order, k)
			}
			sum.Value += row.Value
			sum.IsPartial = sum.IsPartial || row.IsPartial
		}
	}

	kept := m.indicators[:0]
	for _, row := range m.indicators {
		if row.ItemID != parentItemID || row.ProcessID != nil {
			kept = append(kept, row)
		}
	}
	m.indicators = kept
	for _, k := range order {
		m.indicators = append(m.indicators, sums[k])
	}
	return int64(len(order)), nil
}

func (m *memCache) CountDuplicateTotals(_ context.Context, _ int64) (int, error) {
	return m.duplicates, nil
}

func (m *memCache) CountA1A2OrA3Totals(_ context.Context, _ int64) (int, error) {
	return m.a1a2a3, nil
}

type fakeProjectVariants struct {
	mem       *memCache
	projectOf map[int64]int64
	roots     map[int64]*models.CacheProjectVariant
}

func (f *fakeProjectVariants) findOrCreate(projectVariantID int64) *models.CacheProjectVariant {
	if root, ok := f.roots[projectVariantID]; ok {
		return root
	}
	item := f.mem.add(f.projectOf[projectVariantID], models.CacheItemTypeProjectVariant, nil, false)
	root := &models.CacheProjectVariant{ItemID: item.ID, ProjectVariantID: projectVariantID}
	f.roots[projectVariantID] = root
	return root
}

func (f *fakeProjectVariants) FindByProjectVariantID(_ context.Context, projectVariantID int64) (*models.CacheProjectVariant, error) {
	return f.roots[projectVariantID], nil
}

func (f *fakeProjectVariants) Copy(_ context.Context, src *models.CacheProjectVariant, newProjectVariantID int64) (*models.CacheProjectVariant, error) {
	if src == nil || newProjectVariantID == 0 {
		return nil, nil
	}
	root := f.findOrCreate(newProjectVariantID)
	f.mem.copyIndicators(src.ItemID, root.ItemID)
	return root, nil
}

func (f *fakeProjectVariants) FindVariantByID(_ context.Context, variantID int64) (*models.ProjectVariant, error) {
	projectID, ok := f.projectOf[variantID]
	if !ok {
		return nil, nil
	}
	return &models.ProjectVariant{ID: variantID, ProjectID: projectID}, nil
}

type fakeElementTypes struct {
	mem      *memCache
	variants *fakeProjectVariants
	branches []*models.CacheElementType
}

func (f *fakeElementTypes) find(projectVariantID, elementTypeNodeID int64) *models.CacheElementType {
	for _, branch := range f.branches {
		if branch.ProjectVariantID == projectVariantID && branch.ElementTypeNodeID == elementTypeNodeID {
			return branch
		}
	}
	return nil
}

func (f *fakeElementTypes) findOrCreate(projectVariantID, elementTypeNodeID int64) *models.CacheElementType {
	if branch := f.find(projectVariantID, elementTypeNodeID); branch != nil {
		return branch
	}
	root := f.variants.findOrCreate(projectVariantID)
	item := f.mem.add(f.variants.projectOf[projectVariantID], models.CacheItemTypeElementType, &root.ItemID, false)
	branch := &models.CacheElementType{ItemID: item.ID, ProjectVariantID: projectVariantID, ElementTypeNodeID: elementTypeNodeID}
	f.branches = append(f.branches, branch)
	return branch
}

func (f *fakeElementTypes) FindByProjectVariantID(_ context.Context, projectVariantID int64) ([]*models.CacheElementType, error) {
	var result []*models.CacheElementType
	for _, branch := range f.branches {
		if branch.ProjectVariantID == projectVariantID {
			result = append(result, branch)
		}
	}
	return result, nil
}

func (f *fakeElementTypes) FindByProjectVariantIDAndElementTypeNodeID(_ context.Context, projectVariantID, elementTypeNodeID int64) (*models.CacheElementType, error) {
	return f.find(projectVariantID, elementTypeNodeID), nil
}

func (f *fakeElementTypes) Copy(_ context.Context, src *models.CacheElementType, newProjectVariantID int64) (*models.CacheElementType, error) {
	if src == nil || newProjectVariantID == 0 {
		return nil, nil
	}
	copied := f.findOrCreate(newProjectVariantID, src.ElementTypeNodeID)
	copied.Mass = src.Mass
	f.mem.copyIndicators(src.ItemID, copied.ItemID)
	return copied, nil
}

// owner describes the live element a cached element belongs to.
type owner struct {
	projectVariantID  int64
	elementTypeNodeID int64
	isComposite       bool
}

type fakeElements struct {
	mem          *memCache
	elementTypes *fakeElementTypes
	owners       map[int64]owner
	nodes        map[int64]*models.CacheElement
	order        []int64
}

func (f *fakeElements) Create(_ context.Context, node *models.CacheElement, _ *int64) (*models.CacheElement, error) {
	o, ok := f.owners[node.ElementID]
	if !ok {
		return nil, repositories.NotFound("element %d does not exist", node.ElementID)
	}
	branch := f.elementTypes.findOrCreate(o.projectVariantID, o.elementTypeNodeID)
	item := f.mem.add(f.elementTypes.variants.projectOf[o.projectVariantID], models.CacheItemTypeElement, &branch.ItemID, o.isComposite)

	created := *node
	created.ItemID = item.ID
	f.nodes[node.ElementID] = &created
	f.order = append(f.order, node.ElementID)
	return &created, nil
}

func (f *fakeElements) FindByElementID(_ context.Context, elementID int64) (*models.CacheElement, error) {
	node, ok := f.nodes[elementID]
	if !ok {
		return nil, nil
	}
	copied := *node
	return &copied, nil
}

func (f *fakeElements) FindByProjectVariantID(_ context.Context, projectVariantID int64) ([]*models.CacheElement, error) {
	var composites, parts []*models.CacheElement
	for _, elementID := range f.order {
		node, ok := f.nodes[elementID]
		if !ok || f.owners[elementID].projectVariantID != projectVariantID {
			continue
		}
		if f.owners[elementID].isComposite {
			composites = append(composites, node)
		} else {
			parts = append(parts, node)
		}
	}
	return append(composites, parts...), nil
}

func (f *fakeElements) Copy(ctx context.Context, src *models.CacheElement, newElementID int64, compositeItemID *int64) (*models.CacheElement, error) {
	if src == nil || newElementID == 0 {
		return nil, nil
	}
	copied, err := f.Create(ctx, &models.CacheElement{
		ElementID:       newElementID,
		CompositeItemID: compositeItemID,
		Mass:            src.Mass,
		Quantity:        src.Quantity,
		RefUnit:         src.RefUnit,
	}, nil)
	if err != nil {
		return nil, err
	}
	f.mem.copyIndicators(src.ItemID, copied.ItemID)
	return copied, nil
}

func (f *fakeElements) Update(_ context.Context, node *models.CacheElement) error {
	copied := *node
	f.nodes[node.ElementID] = &copied
	return nil
}

func (f *fakeElements) SetIsOutdated(ctx context.Context, node *models.CacheElement, isOutdated bool) error {
	return f.mem.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

type fakeComponents struct {
	mem       *memCache
	elements  *fakeElements
	elementOf map[int64]int64
	nodes     map[int64]*models.CacheElementComponent
}

func (f *fakeComponents) Create(_ context.Context, node *models.CacheElementComponent, _ *int64) (*models.CacheElementComponent, error) {
	element, ok := f.elements.nodes[f.elementOf[node.ElementComponentID]]
	if !ok {
		return nil, repositories.NotFound("element component %d does not exist", node.ElementComponentID)
	}
	parent := f.mem.items[element.ItemID]
	item := f.mem.add(parent.ProjectID, models.CacheItemTypeElementComponent, &parent.ID, false)

	created := *node
	created.ItemID = item.ID
	f.nodes[node.ElementComponentID] = &created
	return &created, nil
}

func (f *fakeComponents) FindByElementComponentID(_ context.Context, elementComponentID int64) (*models.CacheElementComponent, error) {
	node, ok := f.nodes[elementComponentID]
	if !ok {
		return nil, nil
	}
	copied := *node
	return &copied, nil
}

func (f *fakeComponents) FindByElementID(_ context.Context, elementID int64) ([]*models.CacheElementComponent, error) {
	var ids []int64
	for componentID := range f.nodes {
		if f.elementOf[componentID] == elementID {
			ids = append(ids, componentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*models.CacheElementComponent, len(ids))
	for i, id := range ids {
		result[i] = f.nodes[id]
	}
	return result, nil
}

func (f *fakeComponents) Copy(ctx context.Context, src *models.CacheElementComponent, newElementComponentID int64) (*models.CacheElementComponent, error) {
	if src == nil || newElementComponentID == 0 {
		return nil, nil
	}
	copied, err := f.Create(ctx, &models.CacheElementComponent{
		ElementComponentID: newElementComponentID,
		Mass:               src.Mass,
		Quantity:           src.Quantity,
		RefUnit:            src.RefUnit,
		NumReplacements:    src.NumReplacements,
	}, nil)
	if err != nil {
		return nil, err
	}
	f.mem.copyIndicators(src.ItemID, copied.ItemID)
	return copied, nil
}

func (f *fakeComponents) Update(_ context.Context, node *models.CacheElementComponent) error {
	copied := *node
	f.nodes[node.ElementComponentID] = &copied
	return nil
}

func (f *fakeComponents) SetIsOutdated(ctx context.Context, node *models.CacheElementComponent, isOutdated bool) error {
	return f.mem.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (f *fakeComponents) Delete(_ context.Context, node *models.CacheElementComponent) error {
	f.mem.remove(node.ItemID)
	delete(f.nodes, node.ElementComponentID)
	return nil
}

// ownerStore keeps nodes that hang directly below a project variant root, keyed by owner id.
type ownerStore[T any] struct {
	mem       *memCache
	variants  *fakeProjectVariants
	itemType  string
	variantOf map[int64]int64
	nodes     map[int64]*T
	ownerOf   func(*T) int64
	itemOf    func(*T) int64
	withItem  func(T, int64) T
	withOwner func(T, int64) T
}

func (s *ownerStore[T]) create(node *T, isVirtual bool) (*T, error) {
	projectVariantID, ok := s.variantOf[s.ownerOf(node)]
	if !ok {
		return nil, repositories.NotFound("owner %d does not exist", s.ownerOf(node))
	}
	root := s.variants.findOrCreate(projectVariantID)
	item := s.mem.add(s.variants.projectOf[projectVariantID], s.itemType, &root.ItemID, isVirtual)

	created := s.withItem(*node, item.ID)
	s.nodes[s.ownerOf(node)] = &created
	return &created, nil
}

func (s *ownerStore[T]) findByOwner(ownerID int64) *T {
	node, ok := s.nodes[ownerID]
	if !ok {
		return nil
	}
	copied := *node
	return &copied
}

func (s *ownerStore[T]) findByProjectVariantID(projectVariantID int64) []*T {
	var owners []int64
	for ownerID := range s.nodes {
		if s.variantOf[ownerID] == projectVariantID {
			owners = append(owners, ownerID)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })

	result := make([]*T, len(owners))
	for i, ownerID := range owners {
		result[i] = s.nodes[ownerID]
	}
	return result
}

func (s *ownerStore[T]) copy(src *T, newOwnerID int64) (*T, error) {
	if src == nil || newOwnerID == 0 {
		return nil, nil
	}
	isVirtual := s.mem.items[s.itemOf(src)].IsVirtual
	node := s.withOwner(*src, newOwnerID)
	copied, err := s.create(&node, isVirtual)
	if err != nil {
		return nil, err
	}
	s.mem.copyIndicators(s.itemOf(src), s.itemOf(copied))
	return copied, nil
}

func (s *ownerStore[T]) update(node *T) error {
	copied := *node
	s.nodes[s.ownerOf(node)] = &copied
	return nil
}

func (s *ownerStore[T]) deleteByProjectVariantID(projectVariantID int64) int64 {
	var removed int64
	for ownerID, node := range s.nodes {
		if s.variantOf[ownerID] == projectVariantID {
			s.mem.remove(s.itemOf(node))
			delete(s.nodes, ownerID)
			removed++
		}
	}
	return removed
}

type demandStore struct {
	*ownerStore[models.CacheFinalEnergyDemand]
}

func newDemandStore(mem *memCache, variants *fakeProjectVariants, variantOf map[int64]int64) *demandStore {
	return &demandStore{&ownerStore[models.CacheFinalEnergyDemand]{
		mem: mem, variants: variants, itemType: models.CacheItemTypeFinalEnergyDemand,
		variantOf: variantOf, nodes: map[int64]*models.CacheFinalEnergyDemand{},
		ownerOf: func(n *models.CacheFinalEnergyDemand) int64 { return n.FinalEnergyDemandID },
		itemOf:  func(n *models.CacheFinalEnergyDemand) int64 { return n.ItemID },
		withItem: func(n models.CacheFinalEnergyDemand, itemID int64) models.CacheFinalEnergyDemand {
			n.ItemID = itemID
			return n
		},
		withOwner: func(n models.CacheFinalEnergyDemand, ownerID int64) models.CacheFinalEnergyDemand {
			n.FinalEnergyDemandID = ownerID
			return n
		},
	}}
}

func (s *demandStore) Create(_ context.Context, node *models.CacheFinalEnergyDemand, _ *int64) (*models.CacheFinalEnergyDemand, error) {
	return s.create(node, false)
}

func (s *demandStore) FindByFinalEnergyDemandID(_ context.Context, id int64) (*models.CacheFinalEnergyDemand, error) {
	return s.findByOwner(id), nil
}

func (s *demandStore) FindByProjectVariantID(_ context.Context, projectVariantID int64) ([]*models.CacheFinalEnergyDemand, error) {
	return s.findByProjectVariantID(projectVariantID), nil
}

func (s *demandStore) Copy(_ context.Context, src *models.CacheFinalEnergyDemand, newID int64) (*models.CacheFinalEnergyDemand, error) {
	return s.copy(src, newID)
}

func (s *demandStore) Update(_ context.Context, node *models.CacheFinalEnergyDemand) error {
	return s.update(node)
}

func (s *demandStore) SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergyDemand, isOutdated bool) error {
	return s.mem.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (s *demandStore) DeleteByProjectVariantID(_ context.Context, projectVariantID int64) (int64, error) {
	return s.deleteByProjectVariantID(projectVariantID), nil
}

type supplyStore struct {
	*ownerStore[models.CacheFinalEnergySupply]
}

func newSupplyStore(mem *memCache, variants *fakeProjectVariants, variantOf map[int64]int64) *supplyStore {
	return &supplyStore{&ownerStore[models.CacheFinalEnergySupply]{
		mem: mem, variants: variants, itemType: models.CacheItemTypeFinalEnergySupply,
		variantOf: variantOf, nodes: map[int64]*models.CacheFinalEnergySupply{},
		ownerOf: func(n *models.CacheFinalEnergySupply) int64 { return n.FinalEnergySupplyID },
		itemOf:  func(n *models.CacheFinalEnergySupply) int64 { return n.ItemID },
		withItem: func(n models.CacheFinalEnergySupply, itemID int64) models.CacheFinalEnergySupply {
			n.ItemID = itemID
			return n
		},
		withOwner: func(n models.CacheFinalEnergySupply, ownerID int64) models.CacheFinalEnergySupply {
			n.FinalEnergySupplyID = ownerID
			return n
		},
	}}
}

func (s *supplyStore) Create(_ context.Context, node *models.CacheFinalEnergySupply, _ *int64) (*models.CacheFinalEnergySupply, error) {
	return s.create(node, false)
}

func (s *supplyStore) FindByFinalEnergySupplyID(_ context.Context, id int64) (*models.CacheFinalEnergySupply, error) {
	return s.findByOwner(id), nil
}

func (s *supplyStore) FindByProjectVariantID(_ context.Context, projectVariantID int64) ([]*models.CacheFinalEnergySupply, error) {
	return s.findByProjectVariantID(projectVariantID), nil
}

func (s *supplyStore) Copy(_ context.Context, src *models.CacheFinalEnergySupply, newID int64) (*models.CacheFinalEnergySupply, error) {
	return s.copy(src, newID)
}

func (s *supplyStore) Update(_ context.Context, node *models.CacheFinalEnergySupply) error {
	return s.update(node)
}

func (s *supplyStore) SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergySupply, isOutdated bool) error {
	return s.mem.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (s *supplyStore) DeleteByProjectVariantID(_ context.Context, projectVariantID int64) (int64, error) {
	return s.deleteByProjectVariantID(projectVariantID), nil
}

type refModelStore struct {
	*ownerStore[models.CacheFinalEnergyRefModel]
}

func newRefModelStore(mem *memCache, variants *fakeProjectVariants, variantOf map[int64]int64) *refModelStore {
	return &refModelStore{&ownerStore[models.CacheFinalEnergyRefModel]{
		mem: mem, variants: variants, itemType: models.CacheItemTypeFinalEnergyRefModel,
		variantOf: variantOf, nodes: map[int64]*models.CacheFinalEnergyRefModel{},
		ownerOf: func(n *models.CacheFinalEnergyRefModel) int64 { return n.FinalEnergyRefModelID },
		itemOf:  func(n *models.CacheFinalEnergyRefModel) int64 { return n.ItemID },
		withItem: func(n models.CacheFinalEnergyRefModel, itemID int64) models.CacheFinalEnergyRefModel {
			n.ItemID = itemID
			return n
		},
		withOwner: func(n models.CacheFinalEnergyRefModel, ownerID int64) models.CacheFinalEnergyRefModel {
			n.FinalEnergyRefModelID = ownerID
			return n
		},
	}}
}

func (s *refModelStore) Create(_ context.Context, node *models.CacheFinalEnergyRefModel, _ *int64) (*models.CacheFinalEnergyRefModel, error) {
	return s.create(node, true)
}

func (s *refModelStore) FindByFinalEnergyRefModelID(_ context.Context, id int64) (*models.CacheFinalEnergyRefModel, error) {
	return s.findByOwner(id), nil
}

func (s *refModelStore) FindByProjectVariantID(_ context.Context, projectVariantID int64) ([]*models.CacheFinalEnergyRefModel, error) {
	return s.findByProjectVariantID(projectVariantID), nil
}

func (s *refModelStore) Copy(_ context.Context, src *models.CacheFinalEnergyRefModel, newID int64) (*models.CacheFinalEnergyRefModel, error) {
	return s.copy(src, newID)
}

func (s *refModelStore) Update(_ context.Context, node *models.CacheFinalEnergyRefModel) error {
	return s.update(node)
}

func (s *refModelStore) SetIsOutdated(ctx context.Context, node *models.CacheFinalEnergyRefModel, isOutdated bool) error {
	return s.mem.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (s *refModelStore) DeleteByProjectVariantID(_ context.Context, projectVariantID int64) (int64, error) {
	return s.deleteByProjectVariantID(projectVariantID), nil
}

type transportMeanStore struct {
	*ownerStore[models.CacheTransportMean]
}

func newTransportMeanStore(mem *memCache, variants *fakeProjectVariants, variantOf map[int64]int64) *transportMeanStore {
	return &transportMeanStore{&ownerStore[models.CacheTransportMean]{
		mem: mem, variants: variants, itemType: models.CacheItemTypeTransportMean,
		variantOf: variantOf, nodes: map[int64]*models.CacheTransportMean{},
		ownerOf: func(n *models.CacheTransportMean) int64 { return n.TransportMeanID },
		itemOf:  func(n *models.CacheTransportMean) int64 { return n.ItemID },
		withItem: func(n models.CacheTransportMean, itemID int64) models.CacheTransportMean {
			n.ItemID = itemID
			return n
		},
		withOwner: func(n models.CacheTransportMean, ownerID int64) models.CacheTransportMean {
			n.TransportMeanID = ownerID
			return n
		},
	}}
}

func (s *transportMeanStore) Create(_ context.Context, node *models.CacheTransportMean, isVirtual bool, _ *int64) (*models.CacheTransportMean, error) {
	return s.create(node, isVirtual)
}

func (s *transportMeanStore) FindByTransportMeanID(_ context.Context, id int64) (*models.CacheTransportMean, error) {
	return s.findByOwner(id), nil
}

func (s *transportMeanStore) FindByProjectVariantID(_ context.Context, projectVariantID int64) ([]*models.CacheTransportMean, error) {
	return s.findByProjectVariantID(projectVariantID), nil
}

func (s *transportMeanStore) Copy(_ context.Context, src *models.CacheTransportMean, newID int64) (*models.CacheTransportMean, error) {
	return s.copy(src, newID)
}

func (s *transportMeanStore) Update(_ context.Context, node *models.CacheTransportMean) error {
	return s.update(node)
}

func (s *transportMeanStore) SetIsOutdated(ctx context.Context, node *models.CacheTransportMean, isOutdated bool) error {
	return s.mem.SetIsOutdated(ctx, node.ItemID, isOutdated)
}

func (s *transportMeanStore) DeleteByProjectVariantID(_ context.Context, projectVariantID int64) (int64, error) {
	return s.deleteByProjectVariantID(projectVariantID), nil
}

type fakeLocker struct {
	keys []string
	err  error
}

func (l *fakeLocker) WithLock(ctx context.Context, key string, _, _ time.Duration, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}

var errLocked = errors.New("lock not acquired")

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []*kafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
