package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/IWUGERMANY/elca-sub002/config"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkgroup"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkgroupindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkgroupthreshold"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarklifecycleusage"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkrefconstructionvalue"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkrefprocessconfig"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarksystem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkthreshold"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkversion"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/benchmarkversionconstrclass"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheelement"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheelementcomponent"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheelementtype"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cachefinalenergydemand"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cachefinalenergyrefmodel"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cachefinalenergysupply"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheprojectvariant"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cachetransportmean"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/indicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/projectindicatorbenchmark"
	"github.com/IWUGERMANY/elca-sub002/internal/services/benchmark"
	"github.com/IWUGERMANY/elca-sub002/internal/services/cache"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/health"
	"github.com/IWUGERMANY/elca-sub002/pkg/kafka"
	"github.com/IWUGERMANY/elca-sub002/pkg/redis"
	"github.com/IWUGERMANY/elca-sub002/pkg/startup"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing/exporters"
)

// app holds the process wide dependencies. Fields are filled by the startup dependencies.
type app struct {
	cfg     *config.Config
	logger  ectologger.Logger
	startup *startup.Startup
	checker *health.Checker

	shutdownTracing func(context.Context) error

	sqlDB     *sqlx.DB
	db        database.DB
	redis     *redis.Client
	publisher kafka.Publisher

	cache     *cache.Service
	benchmark *benchmark.Service
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func newApp(cfg *config.Config, logger ectologger.Logger) *app {
	a := &app{
		cfg:       cfg,
		logger:    logger,
		startup:   startup.NewStartup(logger, cfg.StartupMaxAttempts),
		checker:   health.NewChecker(cfg.Version),
		publisher: kafka.NoopPublisher{},
	}

	a.startup.AddDependency(&startup.Dependency{
		Name:    "tracing",
		OnStart: a.startTracing,
		OnStop: func(ctx context.Context) error {
			return a.shutdownTracing(ctx)
		},
	})
	a.startup.AddDependency(&startup.Dependency{
		Name:    "database",
		OnStart: a.startDatabase,
		OnStop: func(context.Context) error {
			return a.sqlDB.Close()
		},
	})
	if cfg.RedisEnabled() {
		a.startup.AddDependency(&startup.Dependency{
			Name:    "redis",
			OnStart: a.startRedis,
			OnStop: func(context.Context) error {
				return a.redis.Close()
			},
		})
	}
	if len(cfg.Brokers()) > 0 {
		a.startup.AddDependency(&startup.Dependency{
			Name:    "kafka",
			OnStart: a.startKafka,
			OnStop: func(context.Context) error {
				return a.publisher.Close()
			},
		})
	}

	requires := []string{"database"}
	if cfg.RedisEnabled() {
		requires = append(requires, "redis")
	}
	if len(cfg.Brokers()) > 0 {
		requires = append(requires, "kafka")
	}
	a.startup.AddDependency(&startup.Dependency{
		Name:     "services",
		Requires: requires,
		OnStart: func(context.Context) error {
			a.wireServices()
			return nil
		},
	})

	return a
}

func (a *app) startTracing(ctx context.Context) error {
	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{Logger: a.logger}
	if a.cfg.OTLPEnabled {
		otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: a.cfg.OTLPEndpoint,
			Protocol: a.cfg.OTLPProtocol,
			Insecure: a.cfg.OTLPInsecure,
		})
		if err != nil {
			return err
		}
		exporter = otlp
	}
	a.shutdownTracing = tracing.Init(a.cfg.AppName, exporter)
	return nil
}

func (a *app) startDatabase(ctx context.Context) error {
	sqlDB, err := sqlx.Open(a.cfg.DatabaseDriver, a.cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(a.cfg.DatabaseMaxOpenConns)
	sqlDB.SetMaxIdleConns(a.cfg.DatabaseMaxIdleConns)
	sqlDB.SetConnMaxLifetime(a.cfg.DatabaseConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return err
	}

	a.sqlDB = sqlDB
	a.db = database.NewDatabaseInstance(sqlDB, a.logger)
	a.checker.AddCheck("database", health.PingFunc(sqlDB.PingContext))
	return nil
}

func (a *app) startRedis(ctx context.Context) error {
	client, err := redis.NewClient(ctx, redis.Config{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	a.checker.AddOptionalCheck("redis", client)
	return nil
}

func (a *app) startKafka(context.Context) error {
	producerConfig := kafka.DefaultProducerConfig()
	producerConfig.Brokers = a.cfg.Brokers()
	producerConfig.Compression = a.cfg.KafkaCompression

	producer, err := kafka.NewProducer(producerConfig, a.logger)
	if err != nil {
		return err
	}
	a.publisher = producer
	return nil
}

func (a *app) wireServices() {
	items := cacheitem.NewRepository(a.db, a.logger)
	indicators := cacheindicator.NewRepository(a.db, a.logger)
	projects := project.NewRepository(a.db, a.logger)
	variants := cacheprojectvariant.NewRepository(a.db, a.logger, items, indicators, projects)
	elementTypes := cacheelementtype.NewRepository(a.db, a.logger, items, indicators, variants, projects)
	elements := cacheelement.NewRepository(a.db, a.logger, items, indicators, elementTypes, projects)

	// a typed nil *redis.Locker would defeat the nil check in the service
	var locker cache.Locker
	if a.redis != nil {
		locker = redis.NewLocker(a.redis, a.cfg.RedisLockPrefix)
	}

	a.cache = cache.NewService(a.db, a.logger, cache.Repositories{
		Items:                items,
		Indicators:           indicators,
		ProjectVariants:      variants,
		ElementTypes:         elementTypes,
		Elements:             elements,
		ElementComponents:    cacheelementcomponent.NewRepository(a.db, a.logger, items, indicators, elements, projects),
		FinalEnergyDemands:   cachefinalenergydemand.NewRepository(a.db, a.logger, items, indicators, variants, projects),
		FinalEnergySupplies:  cachefinalenergysupply.NewRepository(a.db, a.logger, items, indicators, variants, projects),
		FinalEnergyRefModels: cachefinalenergyrefmodel.NewRepository(a.db, a.logger, items, indicators, variants, projects),
		TransportMeans:       cachetransportmean.NewRepository(a.db, a.logger, items, indicators, variants, projects),
		Projects:             projects,
	}, locker, a.publisher, cache.Options{
		LockTTL:     a.cfg.RefreshLockTTL,
		LockTimeout: a.cfg.RefreshLockTimeout,
	})

	groupIndicators := benchmarkgroupindicator.NewRepository(a.db, a.logger)
	groupThresholds := benchmarkgroupthreshold.NewRepository(a.db, a.logger)
	a.benchmark = benchmark.NewService(a.db, a.logger, benchmark.Repositories{
		Systems:               benchmarksystem.NewRepository(a.db, a.logger),
		Versions:              benchmarkversion.NewRepository(a.db, a.logger),
		Thresholds:            benchmarkthreshold.NewRepository(a.db, a.logger),
		RefConstructionValues: benchmarkrefconstructionvalue.NewRepository(a.db, a.logger),
		RefProcessConfigs:     benchmarkrefprocessconfig.NewRepository(a.db, a.logger),
		ConstrClasses:         benchmarkversionconstrclass.NewRepository(a.db, a.logger),
		LifeCycleUsages:       benchmarklifecycleusage.NewRepository(a.db, a.logger),
		Groups:                benchmarkgroup.NewRepository(a.db, a.logger, groupIndicators, groupThresholds),
		GroupIndicators:       groupIndicators,
		GroupThresholds:       groupThresholds,
		ProjectBenchmarks:     projectindicatorbenchmark.NewRepository(a.db, a.logger),
		Indicators:            indicator.NewRepository(a.db, a.logger),
	}, a.publisher)
}

func (a *app) start(ctx context.Context) error {
	return a.startup.Start(ctx)
}

func (a *app) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.startup.Stop(ctx); err != nil {
		a.logger.WithError(err).Error("Failed to stop dependencies")
	}
}
