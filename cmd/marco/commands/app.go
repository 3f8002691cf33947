package commands

import (
	"fmt"

	"github.com/radezheng/marco/internal/api"
	"github.com/radezheng/marco/internal/api/handlers"
	"github.com/radezheng/marco/internal/indicator"
	"github.com/radezheng/marco/internal/pipeline"
	"github.com/radezheng/marco/internal/sector"
	"github.com/radezheng/marco/internal/source/eastmoney"
	"github.com/radezheng/marco/internal/source/fred"
	"github.com/radezheng/marco/internal/store"
	"github.com/radezheng/marco/internal/strategyconfig"
	"github.com/radezheng/marco/pkg/config"
	"github.com/radezheng/marco/pkg/database"
	"github.com/radezheng/marco/pkg/httputil"
	"github.com/radezheng/marco/pkg/logger"
	"github.com/radezheng/marco/pkg/metrics"
	"github.com/radezheng/marco/pkg/redis"
)

// app bundles the wired application graph shared by the commands
// ⭐ SSOT: 依赖组装只在这里
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	strategy *strategyconfig.Config

	observations *store.ObservationRepository
	sectors      *store.SectorRepository

	runner    *pipeline.Runner
	snapshots *pipeline.Snapshots
	hub       *api.Hub
}

// newApp loads config and wires the full dependency graph.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	strategy, _, err := strategyconfig.LoadOrDefault(cfg.StrategyConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"strategy": strategy.Meta.StrategyID,
		"version":  strategy.Meta.Version,
		"hash":     hash[:12],
	}).Info("策略配置已加载")

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(redisClient, strategy.Meta.StrategyID)

	// Upstream clients, one paced HTTP client per source
	fredClient := fred.NewClient(
		httpClient(log, cfg.FRED.RatePerSec),
		cfg.FRED.BaseURL,
		log,
	)
	emClient := eastmoney.NewClient(
		httpClient(log, cfg.Eastmoney.RatePerSec),
		cfg.Eastmoney.PushBaseURL,
		cfg.Eastmoney.HistBaseURL,
		cfg.Eastmoney.BoardPageURL,
		log,
	)

	// Repositories
	observations := store.NewObservationRepository(db.Pool)
	states := store.NewIndicatorStateRepository(db.Pool)
	regimes := store.NewRegimeRepository(db.Pool)
	sectors := store.NewSectorRepository(db.Pool)

	// Engines, parameterized from the strategy config
	classifier := indicator.NewClassifier(strategy.ClassifierConfig())
	mapper, err := indicator.NewAllocationMapper(strategy.Templates())
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("build allocation mapper: %w", err)
	}
	regimeCls := indicator.NewRegimeClassifier(mapper, strategy.RegimeGates())
	derive := indicator.NewDerivedSeriesComputer(log)
	engine := sector.NewEngine(log)

	runner := pipeline.NewRunner(pipeline.RunnerDeps{
		Observations: observations,
		States:       states,
		Regimes:      regimes,
		Sectors:      sectors,
		FRED:         fredClient,
		Eastmoney:    emClient,
		Classifier:   classifier,
		RegimeCls:    regimeCls,
		Derive:       derive,
		Engine:       engine,
		Recorder:     metrics.New(),
		Logger:       log,
	})

	snapshots := pipeline.NewSnapshots(observations, sectors, classifier, derive, regimeCls, emClient, cache, log)

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        redisClient,
		strategy:     strategy,
		observations: observations,
		sectors:      sectors,
		runner:       runner,
		snapshots:    snapshots,
		hub:          api.NewHub(log),
	}, nil
}

// httpClient builds one paced HTTP client for an upstream source.
func httpClient(log *logger.Logger, ratePerSec float64) *httputil.Client {
	return httputil.New(log).WithRateLimit(ratePerSec)
}

// sectorDefaults maps the strategy's sector section to handler defaults.
func (a *app) sectorDefaults() handlers.SectorDefaults {
	return handlers.SectorDefaults{
		TopN:       a.strategy.Sector.TopNDefault,
		MatrixDays: a.strategy.Sector.MatrixDaysDefault,
		MatrixTopK: a.strategy.Sector.MatrixTopKDefault,
	}
}

// Close releases the app's connections.
func (a *app) Close() {
	a.hub.Close()
	a.redis.Close()
	a.db.Close()
}
