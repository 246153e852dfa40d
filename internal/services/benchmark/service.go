// Package benchmark manages benchmark systems and versions and maps project scores to ratings.
package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/kafka"
	"github.com/IWUGERMANY/elca-sub002/pkg/metrics"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
)

const copyNamePrefix = "Kopie von "

type Service struct {
	logger    ectologger.Logger
	repos     Repositories
	publisher kafka.Publisher
	withTx    func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewService(db database.DB, logger ectologger.Logger, repos Repositories, publisher kafka.Publisher) *Service {
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	return &Service{
		logger:    logger,
		repos:     repos,
		publisher: publisher,
		withTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return database.WithTx(ctx, db, fn)
		},
	}
}

func (s *Service) ListSystems(ctx context.Context, activeOnly bool) ([]*models.BenchmarkSystem, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.ListSystems")
	defer span.End()

	return s.repos.Systems.FindAll(ctx, activeOnly)
}

func (s *Service) GetSystem(ctx context.Context, systemID int64) (*models.BenchmarkSystem, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.GetSystem")
	defer span.End()

	system, err := s.repos.Systems.FindByID(ctx, systemID)
	if err != nil {
		return nil, err
	}
	if system == nil {
		return nil, repositories.NotFound("benchmark system %d not found", systemID)
	}
	return system, nil
}

func (s *Service) CreateSystem(ctx context.Context, system *models.BenchmarkSystem) (*models.BenchmarkSystem, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.CreateSystem")
	defer span.End()

	system.Name = strings.TrimSpace(system.Name)
	return s.repos.Systems.Create(ctx, system)
}

// DeleteSystem removes a system unless a project is rated with one of its versions.
func (s *Service) DeleteSystem(ctx context.Context, systemID int64) error {
	ctx, span := tracing.StartSpan(ctx, "benchmark.DeleteSystem")
	defer span.End()

	if _, err := s.GetSystem(ctx, systemID); err != nil {
		return err
	}

	used, err := s.repos.Systems.IsUsedInProject(ctx, systemID)
	if err != nil {
		return err
	}
	if used {
		return repositories.Conflict("benchmark system %d is used by projects", systemID)
	}

	return s.repos.Systems.Delete(ctx, systemID)
}

// CopySystem clones a system with all of its versions. The copy is inactive.
func (s *Service) CopySystem(ctx context.Context, systemID int64) (*models.BenchmarkSystem, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.CopySystem")
	defer span.End()

	src, err := s.GetSystem(ctx, systemID)
	if err != nil {
		return nil, err
	}

	var copied *models.BenchmarkSystem
	err = s.withTx(ctx, func(ctx context.Context) error {
		copied, err = s.repos.Systems.Create(ctx, &models.BenchmarkSystem{
			Name:        copyNamePrefix + src.Name,
			ModelClass:  src.ModelClass,
			IsActive:    false,
			Description: src.Description,
		})
		if err != nil {
			return err
		}

		versions, err := s.repos.Versions.FindBySystemID(ctx, src.ID, false)
		if err != nil {
			return err
		}
		for _, version := range versions {
			moved := *version
			moved.BenchmarkSystemID = copied.ID
			if _, err := s.copyVersionTree(ctx, &moved, version.ID, version.Name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"source_system_id":    src.ID,
		"benchmark_system_id": copied.ID,
	}).Info("Copied benchmark system")

	return copied, nil
}

func (s *Service) ListVersions(ctx context.Context, systemID int64, activeOnly bool) ([]*models.BenchmarkVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.ListVersions")
	defer span.End()

	return s.repos.Versions.FindBySystemID(ctx, systemID, activeOnly)
}

func (s *Service) GetVersion(ctx context.Context, versionID int64) (*models.BenchmarkVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.GetVersion")
	defer span.End()

	version, err := s.repos.Versions.FindByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, repositories.NotFound("benchmark version %d not found", versionID)
	}
	return version, nil
}

// CreateVersion stores a new version together with the default life cycle usage specifications.
func (s *Service) CreateVersion(ctx context.Context, version *models.BenchmarkVersion) (*models.BenchmarkVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.CreateVersion")
	defer span.End()

	if _, err := s.GetSystem(ctx, version.BenchmarkSystemID); err != nil {
		return nil, err
	}

	var created *models.BenchmarkVersion
	err := s.withTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repos.Versions.Create(ctx, version)
		if err != nil {
			return err
		}

		lifeCycles, err := s.repos.Indicators.FindLifeCycles(ctx)
		if err != nil {
			return err
		}
		_, err = s.repos.LifeCycleUsages.CreateDefaults(ctx, created.ID, lifeCycles)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// CopyVersion clones a version and every child collection in one unit of work.
// Without a name the copy is called "Kopie von <name>". The copy is inactive.
func (s *Service) CopyVersion(ctx context.Context, versionID int64, name *string) (*models.BenchmarkVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.CopyVersion")
	defer span.End()

	src, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	copyName := copyNamePrefix + src.Name
	if name != nil && strings.TrimSpace(*name) != "" {
		copyName = strings.TrimSpace(*name)
	}

	var copied *models.BenchmarkVersion
	err = s.withTx(ctx, func(ctx context.Context) error {
		copied, err = s.copyVersionTree(ctx, src, src.ID, copyName)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.BenchmarkVersionCopiesTotal.Inc()
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"source_version_id":    src.ID,
		"benchmark_version_id": copied.ID,
	}).Info("Copied benchmark version")

	event := kafka.NewEvent(kafka.TopicBenchmarkVersionCopied, 0)
	event.Data = map[string]any{
		"source_version_id":    src.ID,
		"benchmark_version_id": copied.ID,
		"benchmark_system_id":  copied.BenchmarkSystemID,
	}
	if err := s.publisher.Publish(ctx, kafka.TopicBenchmarkVersionCopied, event); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish benchmark version copy")
	}

	return copied, nil
}

// copyVersionTree inserts the copy of version and re-creates the children of srcID below it.
// It must run inside a unit of work.
func (s *Service) copyVersionTree(ctx context.Context, version *models.BenchmarkVersion, srcID int64, name string) (*models.BenchmarkVersion, error) {
	copied, err := s.repos.Versions.Copy(ctx, version, name)
	if err != nil {
		return nil, err
	}

	thresholds, err := s.repos.Thresholds.FindByVersionID(ctx, srcID)
	if err != nil {
		return nil, err
	}
	if err := copyAll(ctx, thresholds, copied.ID, s.repos.Thresholds.Copy); err != nil {
		return nil, err
	}

	refProcessConfigs, err := s.repos.RefProcessConfigs.FindByVersionID(ctx, srcID)
	if err != nil {
		return nil, err
	}
	if err := copyAll(ctx, refProcessConfigs, copied.ID, s.repos.RefProcessConfigs.Copy); err != nil {
		return nil, err
	}

	refConstructionValues, err := s.repos.RefConstructionValues.FindByVersionID(ctx, srcID)
	if err != nil {
		return nil, err
	}
	if err := copyAll(ctx, refConstructionValues, copied.ID, s.repos.RefConstructionValues.Copy); err != nil {
		return nil, err
	}

	usages, err := s.repos.LifeCycleUsages.FindByVersionID(ctx, srcID)
	if err != nil {
		return nil, err
	}
	if err := copyAll(ctx, usages, copied.ID, s.repos.LifeCycleUsages.Copy); err != nil {
		return nil, err
	}

	groups, err := s.repos.Groups.FindByVersionID(ctx, srcID)
	if err != nil {
		return nil, err
	}
	if err := copyAll(ctx, groups, copied.ID, s.repos.Groups.Copy); err != nil {
		return nil, err
	}

	constrClasses, err := s.repos.ConstrClasses.FindByVersionID(ctx, srcID)
	if err != nil {
		return nil, err
	}
	if err := copyAll(ctx, constrClasses, copied.ID, s.repos.ConstrClasses.Copy); err != nil {
		return nil, err
	}

	return copied, nil
}

func copyAll[T any](ctx context.Context, items []*T, newParentID int64, copyFn func(context.Context, *T, int64) (*T, error)) error {
	for _, item := range items {
		if _, err := copyFn(ctx, item, newParentID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteVersion removes a version. The last version of a system cannot be deleted.
func (s *Service) DeleteVersion(ctx context.Context, versionID int64) error {
	ctx, span := tracing.StartSpan(ctx, "benchmark.DeleteVersion")
	defer span.End()

	version, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	count, err := s.repos.Versions.CountBySystemID(ctx, version.BenchmarkSystemID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return repositories.Conflict("benchmark version %d is the last version of system %d", versionID, version.BenchmarkSystemID)
	}

	return s.repos.Versions.Delete(ctx, versionID)
}

// GroupBenchmark returns, per indicator ident, the group of the indicator and the caption of the
// highest group threshold whose score does not exceed the indicator score.
// Indicators without a group are left out.
func (s *Service) GroupBenchmark(ctx context.Context, versionID int64, scores map[string]float64) (map[string]*models.GroupBenchmarkResult, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.GroupBenchmark")
	defer span.End()

	results := map[string]*models.GroupBenchmarkResult{}

	groups, err := s.repos.Groups.FindByVersionID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return results, nil
	}
	groupsByID := make(map[int64]*models.BenchmarkGroup, len(groups))
	for _, group := range groups {
		groupsByID[group.ID] = group
	}

	for ident, score := range scores {
		groupIndicators, err := s.repos.GroupIndicators.FindByVersionIDAndIndicatorIdent(ctx, versionID, ident)
		if err != nil {
			return nil, err
		}
		if len(groupIndicators) == 0 {
			continue
		}
		groupIndicator := ectolinq.First(groupIndicators)

		group, ok := groupsByID[groupIndicator.GroupID]
		if !ok {
			continue
		}
		result := &models.GroupBenchmarkResult{Name: group.Name}

		thresholds, err := s.repos.GroupThresholds.FindByGroupID(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		for _, threshold := range thresholds {
			if score < float64(threshold.Score) {
				break
			}
			result.Caption = threshold.Caption
		}

		results[ident] = result
	}

	return results, nil
}

// Rate returns the rating of every stored indicator benchmark of a project variant, keyed by indicator ident.
func (s *Service) Rate(ctx context.Context, projectVariantID int64) (map[string]models.Rating, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.Rate")
	defer span.End()

	benchmarks, err := s.repos.ProjectBenchmarks.FindByProjectVariantID(ctx, projectVariantID)
	if err != nil {
		return nil, err
	}

	indicators, err := s.repos.Indicators.FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	identsByID := make(map[int64]string, len(indicators))
	for _, indicator := range indicators {
		identsByID[indicator.ID] = indicator.Ident
	}

	ratings := make(map[string]models.Rating, len(benchmarks))
	for _, benchmark := range benchmarks {
		ident, ok := identsByID[benchmark.IndicatorID]
		if !ok {
			ident = fmt.Sprint(benchmark.IndicatorID)
		}
		ratings[ident] = benchmark.Rating()
	}
	return ratings, nil
}

// StoreProjectBenchmark saves the benchmark scores of a project variant, keyed by indicator ident.
func (s *Service) StoreProjectBenchmark(ctx context.Context, projectVariantID int64, scores map[string]int) error {
	ctx, span := tracing.StartSpan(ctx, "benchmark.StoreProjectBenchmark")
	defer span.End()

	return s.withTx(ctx, func(ctx context.Context) error {
		for ident, score := range scores {
			indicator, err := s.repos.Indicators.FindByIdent(ctx, ident)
			if err != nil {
				return err
			}
			if indicator == nil {
				return repositories.NotFound("indicator %s not found", ident)
			}

			if err := s.repos.ProjectBenchmarks.Save(ctx, &models.ProjectIndicatorBenchmark{
				ProjectVariantID: projectVariantID,
				IndicatorID:      indicator.ID,
				Benchmark:        score,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// CopyProjectBenchmarks copies the stored benchmarks of one project variant to another.
func (s *Service) CopyProjectBenchmarks(ctx context.Context, srcProjectVariantID, newProjectVariantID int64) ([]*models.ProjectIndicatorBenchmark, error) {
	ctx, span := tracing.StartSpan(ctx, "benchmark.CopyProjectBenchmarks")
	defer span.End()

	benchmarks, err := s.repos.ProjectBenchmarks.FindByProjectVariantID(ctx, srcProjectVariantID)
	if err != nil {
		return nil, err
	}

	var copied []*models.ProjectIndicatorBenchmark
	err = s.withTx(ctx, func(ctx context.Context) error {
		for _, benchmark := range benchmarks {
			c, err := s.repos.ProjectBenchmarks.Copy(ctx, benchmark, newProjectVariantID)
			if err != nil {
				return err
			}
			if c != nil {
				copied = append(copied, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return copied, nil
}
