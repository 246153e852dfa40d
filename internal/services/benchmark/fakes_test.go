package benchmark

import (
	"context"
	"sync"

	"github.com/IWUGERMANY/elca-sub002/pkg/kafka"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

// childStore is an in-memory child collection keyed by parent id.
type childStore[T any] struct {
	byParent map[int64][]*T
	parentOf func(*T) int64
	reparent func(T, int64) T
	copies   []*T
	failOn   int
}

func newChildStore[T any](parentOf func(*T) int64, reparent func(T, int64) T, items ...*T) *childStore[T] {
	store := &childStore[T]{byParent: map[int64][]*T{}, parentOf: parentOf, reparent: reparent}
	for _, item := range items {
		store.byParent[parentOf(item)] = append(store.byParent[parentOf(item)], item)
	}
	return store
}

func (s *childStore[T]) FindByVersionID(_ context.Context, versionID int64) ([]*T, error) {
	return s.byParent[versionID], nil
}

func (s *childStore[T]) Copy(_ context.Context, src *T, newParentID int64) (*T, error) {
	if src == nil || newParentID == 0 {
		return nil, nil
	}
	if s.failOn > 0 && len(s.copies)+1 == s.failOn {
		return nil, errCopyFailed
	}
	copied := s.reparent(*src, newParentID)
	s.copies = append(s.copies, &copied)
	return &copied, nil
}

type thresholdStore struct{ *childStore[models.BenchmarkThreshold] }
type refConstructionValueStore struct {
	*childStore[models.BenchmarkRefConstructionValue]
}
type refProcessConfigStore struct {
	*childStore[models.BenchmarkRefProcessConfig]
}
type constrClassStore struct {
	*childStore[models.BenchmarkVersionConstrClass]
}

type usageStore struct {
	*childStore[models.BenchmarkLifeCycleUsageSpecification]
	defaults map[int64][]*models.LifeCycle
}

func (s *usageStore) CreateDefaults(_ context.Context, versionID int64, lifeCycles []*models.LifeCycle) ([]*models.BenchmarkLifeCycleUsageSpecification, error) {
	if s.defaults == nil {
		s.defaults = map[int64][]*models.LifeCycle{}
	}
	s.defaults[versionID] = lifeCycles
	return nil, nil
}

type groupStore struct {
	*childStore[models.BenchmarkGroup]
}

func (s *groupStore) FindByID(_ context.Context, id int64) (*models.BenchmarkGroup, error) {
	for _, groups := range s.byParent {
		for _, group := range groups {
			if group.ID == id {
				return group, nil
			}
		}
	}
	return nil, nil
}

type fakeSystems struct {
	systems map[int64]*models.BenchmarkSystem
	used    map[int64]bool
	deleted []int64
	nextID  int64
}

func (f *fakeSystems) Create(_ context.Context, system *models.BenchmarkSystem) (*models.BenchmarkSystem, error) {
	f.nextID++
	created := *system
	created.ID = f.nextID
	f.systems[created.ID] = &created
	return &created, nil
}

func (f *fakeSystems) FindByID(_ context.Context, id int64) (*models.BenchmarkSystem, error) {
	return f.systems[id], nil
}

func (f *fakeSystems) FindAll(_ context.Context, _ bool) ([]*models.BenchmarkSystem, error) {
	var systems []*models.BenchmarkSystem
	for _, system := range f.systems {
		systems = append(systems, system)
	}
	return systems, nil
}

func (f *fakeSystems) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSystems) IsUsedInProject(_ context.Context, id int64) (bool, error) {
	return f.used[id], nil
}

type fakeVersions struct {
	versions map[int64]*models.BenchmarkVersion
	deleted  []int64
	nextID   int64
}

func (f *fakeVersions) Create(_ context.Context, version *models.BenchmarkVersion) (*models.BenchmarkVersion, error) {
	f.nextID++
	created := *version
	created.ID = f.nextID
	f.versions[created.ID] = &created
	return &created, nil
}

func (f *fakeVersions) FindByID(_ context.Context, id int64) (*models.BenchmarkVersion, error) {
	return f.versions[id], nil
}

func (f *fakeVersions) FindBySystemID(_ context.Context, systemID int64, _ bool) ([]*models.BenchmarkVersion, error) {
	var versions []*models.BenchmarkVersion
	for id := int64(1); id <= f.nextID; id++ {
		if version, ok := f.versions[id]; ok && version.BenchmarkSystemID == systemID {
			versions = append(versions, version)
		}
	}
	return versions, nil
}

func (f *fakeVersions) CountBySystemID(ctx context.Context, systemID int64) (int, error) {
	versions, _ := f.FindBySystemID(ctx, systemID, false)
	return len(versions), nil
}

func (f *fakeVersions) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	delete(f.versions, id)
	return nil
}

func (f *fakeVersions) Copy(ctx context.Context, src *models.BenchmarkVersion, name string) (*models.BenchmarkVersion, error) {
	copied := *src
	copied.Name = name
	copied.IsActive = false
	return f.Create(ctx, &copied)
}

type fakeGroupIndicators struct {
	byIdent map[string][]*models.BenchmarkGroupIndicator
}

func (f *fakeGroupIndicators) FindByVersionIDAndIndicatorIdent(_ context.Context, _ int64, ident string) ([]*models.BenchmarkGroupIndicator, error) {
	return f.byIdent[ident], nil
}

type fakeGroupThresholds struct {
	byGroup map[int64][]*models.BenchmarkGroupThreshold
}

func (f *fakeGroupThresholds) FindByGroupID(_ context.Context, groupID int64) ([]*models.BenchmarkGroupThreshold, error) {
	return f.byGroup[groupID], nil
}

type fakeProjectBenchmarks struct {
	saved []*models.ProjectIndicatorBenchmark
}

func (f *fakeProjectBenchmarks) Save(_ context.Context, benchmark *models.ProjectIndicatorBenchmark) error {
	f.saved = append(f.saved, benchmark)
	return nil
}

func (f *fakeProjectBenchmarks) FindByProjectVariantID(_ context.Context, projectVariantID int64) ([]*models.ProjectIndicatorBenchmark, error) {
	var benchmarks []*models.ProjectIndicatorBenchmark
	for _, benchmark := range f.saved {
		if benchmark.ProjectVariantID == projectVariantID {
			benchmarks = append(benchmarks, benchmark)
		}
	}
	return benchmarks, nil
}

func (f *fakeProjectBenchmarks) Copy(ctx context.Context, src *models.ProjectIndicatorBenchmark, newProjectVariantID int64) (*models.ProjectIndicatorBenchmark, error) {
	copied := *src
	copied.ProjectVariantID = newProjectVariantID
	return &copied, f.Save(ctx, &copied)
}

type fakeIndicators struct {
	indicators []*models.Indicator
	lifeCycles []*models.LifeCycle
}

func (f *fakeIndicators) FindAll(_ context.Context, _ bool) ([]*models.Indicator, error) {
	return f.indicators, nil
}

func (f *fakeIndicators) FindByIdent(_ context.Context, ident string) (*models.Indicator, error) {
	for _, indicator := range f.indicators {
		if indicator.Ident == ident {
			return indicator, nil
		}
	}
	return nil, nil
}

func (f *fakeIndicators) FindLifeCycles(_ context.Context) ([]*models.LifeCycle, error) {
	return f.lifeCycles, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]*kafka.Event
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]*kafka.Event{}
	}
	p.events[topic] = append(p.events[topic], event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
