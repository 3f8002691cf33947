package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/indicator"
	"github.com/radezheng/marco/internal/sector"
	"github.com/radezheng/marco/internal/source/eastmoney"
	"github.com/radezheng/marco/internal/source/fred"
	"github.com/radezheng/marco/pkg/logger"
	"github.com/radezheng/marco/pkg/metrics"
)

// derivedSource tags derived observation rows
const derivedSource = "derived"

// baseSeriesOrder fixes the fetch order for deterministic result payloads
var baseSeriesOrder = []string{
	contracts.SeriesWALCL,
	contracts.SeriesTGA,
	contracts.SeriesRRP,
	contracts.SeriesSOFR,
	contracts.SeriesEFFR,
	contracts.SeriesIORB,
	contracts.SeriesDGS10,
	contracts.SeriesVIX,
	contracts.SeriesVXV,
	contracts.SeriesHYOAS,
	contracts.SeriesUSDBroad,
}

// Runner orchestrates one full ingest-and-classify cycle
// ⭐ SSOT: ingest 流程只在这里编排
// 单序列/单板块失败只记录进 Errors，不中止整轮。重跑同一日期是纯覆盖。
type Runner struct {
	obs       contracts.ObservationRepository
	states    contracts.IndicatorStateRepository
	regimes   contracts.RegimeRepository
	sectors   contracts.SectorRepository
	fred      *fred.Client
	eastmoney *eastmoney.Client

	classify  *classifier
	regimeCls *indicator.RegimeClassifier
	derive    *indicator.DerivedSeriesComputer
	engine    *sector.Engine

	recorder *metrics.Recorder
	logger   *logger.Logger
}

// RunnerDeps bundles the runner's collaborators
type RunnerDeps struct {
	Observations contracts.ObservationRepository
	States       contracts.IndicatorStateRepository
	Regimes      contracts.RegimeRepository
	Sectors      contracts.SectorRepository
	FRED         *fred.Client
	Eastmoney    *eastmoney.Client
	Classifier   *indicator.QuantileStateClassifier
	RegimeCls    *indicator.RegimeClassifier
	Derive       *indicator.DerivedSeriesComputer
	Engine       *sector.Engine
	Recorder     *metrics.Recorder
	Logger       *logger.Logger
}

// NewRunner creates an ingest pipeline runner
func NewRunner(deps RunnerDeps) *Runner {
	return &Runner{
		obs:       deps.Observations,
		states:    deps.States,
		regimes:   deps.Regimes,
		sectors:   deps.Sectors,
		fred:      deps.FRED,
		eastmoney: deps.Eastmoney,
		classify:  newClassifier(deps.Classifier, deps.Derive),
		regimeCls: deps.RegimeCls,
		derive:    deps.Derive,
		engine:    deps.Engine,
		recorder:  deps.Recorder,
		logger:    deps.Logger,
	}
}

// Run executes one full cycle: fetch → derive → classify → sectors.
func (r *Runner) Run(ctx context.Context) (*contracts.IngestResult, error) {
	result := &contracts.IngestResult{
		StartedAt:  time.Now(),
		Errors:     make(map[string]string),
		CoreStates: make(map[string]contracts.State),
	}

	fetched := r.fetchBaseSeries(ctx, result)
	r.deriveSeries(ctx, fetched, result)

	if err := r.classifyAndPersist(ctx, result); err != nil {
		r.recorder.RecordIngestRun("error")
		return result, err
	}

	r.runSectorPipeline(ctx, result)

	result.FinishedAt = time.Now()
	r.recorder.RecordIngestRun("ok")
	r.recorder.RecordObservations(result.InsertedOrUpdated)

	r.logger.WithFields(map[string]interface{}{
		"inserted": result.InsertedOrUpdated,
		"fetched":  len(result.BaseSeriesFetched),
		"errors":   len(result.Errors),
		"sectors":  result.SectorCount,
		"duration": result.FinishedAt.Sub(result.StartedAt),
	}).Info("ingest 完成")
	return result, nil
}

// fetchBaseSeries refreshes every FRED series, tolerating per-key failures.
func (r *Runner) fetchBaseSeries(ctx context.Context, result *contracts.IngestResult) map[string]indicator.Series {
	start := time.Now()
	defer func() { r.recorder.RecordStageDuration("fetch", time.Since(start).Seconds()) }()

	fetched := make(map[string]indicator.Series, len(baseSeriesOrder))
	for _, key := range baseSeriesOrder {
		obs, err := r.fred.FetchSeries(ctx, key)
		if err != nil {
			result.Errors[key] = err.Error()
			r.recorder.RecordSourceError(key)
			r.logger.WithError(err).WithField("series", key).Warn("基础序列抓取失败")
			continue
		}

		n, err := r.obs.UpsertSeries(ctx, key, obs)
		if err != nil {
			result.Errors[key] = err.Error()
			continue
		}

		result.InsertedOrUpdated += n
		result.BaseSeriesFetched = append(result.BaseSeriesFetched, key)
		fetched[key] = indicator.FromObservations(obs)
	}
	return fetched
}

// deriveSeries computes and persists the composite series from this fetch.
func (r *Runner) deriveSeries(ctx context.Context, fetched map[string]indicator.Series, result *contracts.IngestResult) {
	start := time.Now()
	defer func() { r.recorder.RecordStageDuration("derive", time.Since(start).Seconds()) }()

	// 合成流动性：WALCL 周频作时钟，TGA/RRP backward 对齐
	if !fetched[contracts.SeriesWALCL].Empty() && !fetched[contracts.SeriesTGA].Empty() {
		level := r.derive.LiquidityLevel(fetched[contracts.SeriesWALCL], fetched[contracts.SeriesTGA], fetched[contracts.SeriesRRP])
		r.upsertDerived(ctx, contracts.SeriesLiquidityLevel, level, result)
		r.upsertDerived(ctx, contracts.SeriesLiquidityDeltaW, r.derive.LiquidityDeltaW(level), result)
	}

	if !fetched[contracts.SeriesSOFR].Empty() {
		spread := r.derive.FundingSpread(fetched[contracts.SeriesSOFR], fetched[contracts.SeriesIORB], fetched[contracts.SeriesEFFR])
		r.upsertDerived(ctx, contracts.SeriesFundingSpread, spread, result)
	}

	if !fetched[contracts.SeriesVIX].Empty() && !fetched[contracts.SeriesVXV].Empty() {
		slope := r.derive.VIXSlope(fetched[contracts.SeriesVIX], fetched[contracts.SeriesVXV])
		r.upsertDerived(ctx, contracts.SeriesVIXSlope, slope, result)
	}

	if !fetched[contracts.SeriesDGS10].Empty() {
		rv := r.derive.RealizedVol20D(fetched[contracts.SeriesDGS10])
		r.upsertDerived(ctx, contracts.SeriesTreasuryVol20D, rv, result)
	}
}

func (r *Runner) upsertDerived(ctx context.Context, key string, series indicator.Series, result *contracts.IngestResult) {
	if series.Empty() {
		return
	}

	obs := make([]contracts.Observation, 0, len(series))
	for _, p := range series {
		obs = append(obs, contracts.Observation{SeriesKey: key, Date: p.Date, Value: p.Value, Source: derivedSource})
	}

	n, err := r.obs.UpsertSeries(ctx, key, obs)
	if err != nil {
		result.Errors[key] = err.Error()
		return
	}
	result.InsertedOrUpdated += n
}

// classifyAndPersist picks the as-of date, classifies, and stores states.
func (r *Runner) classifyAndPersist(ctx context.Context, result *contracts.IngestResult) error {
	start := time.Now()
	defer func() { r.recorder.RecordStageDuration("classify", time.Since(start).Seconds()) }()

	asof, ok, err := r.chooseAsof(ctx)
	if err != nil {
		return fmt.Errorf("choose asof: %w", err)
	}
	if !ok {
		r.logger.Warn("核心序列还没有共同日期，跳过分类")
		return nil
	}
	result.Asof = &asof

	cls, err := r.classify.classifyAt(ctx, repoLoader(r.obs), asof)
	if err != nil {
		return fmt.Errorf("classify at %s: %w", asof.Format("2006-01-02"), err)
	}

	for i := range cls.Indicators {
		if err := r.states.Upsert(ctx, &cls.Indicators[i]); err != nil {
			return fmt.Errorf("persist indicator %s: %w", cls.Indicators[i].IndicatorKey, err)
		}
	}
	result.CoreStates = cls.CoreStates

	regime, allocation, err := r.regimeCls.Classify(asof, cls.CoreStates, cls.VIXKey)
	if err != nil {
		return fmt.Errorf("classify regime: %w", err)
	}
	if regime == nil {
		return nil
	}

	if err := r.regimes.Upsert(ctx, regime); err != nil {
		return fmt.Errorf("persist regime: %w", err)
	}
	result.Regime = regime
	result.Allocation = allocation
	r.recorder.RecordRegime(string(regime.Regime), regime.RiskScore)
	return nil
}

// chooseAsof returns the most recent date common to the slowest core series.
// 核心时钟: 流动性差分、HY OAS、资金利差、波动率结构（或 VIX 兜底）。
func (r *Runner) chooseAsof(ctx context.Context) (time.Time, bool, error) {
	now := time.Now()

	coreSources := []string{contracts.SeriesLiquidityDeltaW, contracts.SeriesHYOAS}
	if _, ok, err := r.obs.MaxDate(ctx, contracts.SeriesFundingSpread, now); err != nil {
		return time.Time{}, false, err
	} else if ok {
		coreSources = append(coreSources, contracts.SeriesFundingSpread)
	}
	if _, ok, err := r.obs.MaxDate(ctx, contracts.SeriesVIXSlope, now); err != nil {
		return time.Time{}, false, err
	} else if ok {
		coreSources = append(coreSources, contracts.SeriesVIXSlope)
	} else {
		coreSources = append(coreSources, contracts.SeriesVIX)
	}

	var asof time.Time
	found := false
	for _, key := range coreSources {
		d, ok, err := r.obs.MaxDate(ctx, key, now)
		if err != nil {
			return time.Time{}, false, err
		}
		if !ok {
			continue
		}
		if !found || d.Before(asof) {
			asof = d
			found = true
		}
	}
	return asof, found, nil
}

// sectorWorkers bounds the concurrent per-board fetches
const sectorWorkers = 5

// sectorFetchResult carries one board's refresh outcome out of the pool
type sectorFetchResult struct {
	code     string
	input    sector.Input
	inserted int
	err      error
}

// runSectorPipeline refreshes CN industry boards and their rotation metrics.
// 板块抓取走固定大小的 worker 池，限速由 HTTP 客户端统一负责。
func (r *Runner) runSectorPipeline(ctx context.Context, result *contracts.IngestResult) {
	start := time.Now()
	defer func() { r.recorder.RecordStageDuration("sector", time.Since(start).Seconds()) }()

	industries, err := r.eastmoney.FetchIndustryList(ctx)
	if err != nil {
		result.Errors["sector_industries"] = err.Error()
		r.recorder.RecordSourceError("sector_industries")
		return
	}
	if err := r.sectors.UpsertIndustries(ctx, industries); err != nil {
		result.Errors["sector_industries"] = err.Error()
		return
	}

	indCh := make(chan contracts.SectorIndustry, len(industries))
	resultCh := make(chan sectorFetchResult, len(industries))

	var wg sync.WaitGroup
	for i := 0; i < sectorWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range indCh {
				in, n, err := r.refreshSector(ctx, ind)
				resultCh <- sectorFetchResult{code: ind.Code, input: in, inserted: n, err: err}
			}
		}()
	}

	for _, ind := range industries {
		indCh <- ind
	}
	close(indCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	inputs := make([]sector.Input, 0, len(industries))
	var latest time.Time
	for res := range resultCh {
		result.InsertedOrUpdated += res.inserted
		if res.err != nil {
			result.Errors[res.code] = res.err.Error()
			r.recorder.RecordSourceError("sector_" + res.code)
			continue
		}
		inputs = append(inputs, res.input)
		if last, ok := res.input.Flows.Last(); ok && last.Date.After(latest) {
			latest = last.Date
		}
	}
	if latest.IsZero() {
		return
	}

	prevRanks, err := r.previousRanks(ctx, latest)
	if err != nil {
		result.Errors["sector_prev_ranks"] = err.Error()
		prevRanks = nil
	}

	metricsOut := r.engine.ComputeDay(latest, inputs, prevRanks)
	if err := r.sectors.UpsertDailyMetrics(ctx, metricsOut); err != nil {
		result.Errors["sector_metrics"] = err.Error()
		return
	}
	result.SectorCount = len(metricsOut)
}

// refreshSector fetches and persists one board's raw series.
// 返回写入行数而不是直接累计，避免 worker 并发改 result。
func (r *Runner) refreshSector(ctx context.Context, ind contracts.SectorIndustry) (sector.Input, int, error) {
	flows, err := r.eastmoney.FetchFundFlowHist(ctx, ind.Code)
	if err != nil {
		return sector.Input{}, 0, err
	}
	inserted, err := r.sectors.UpsertFlows(ctx, ind.Code, flows)
	if err != nil {
		return sector.Input{}, 0, err
	}

	closes, err := r.eastmoney.FetchBoardKlines(ctx, ind.Code, 60)
	if err != nil {
		return sector.Input{}, inserted, err
	}
	n, err := r.sectors.UpsertCloses(ctx, ind.Code, closes)
	if err != nil {
		return sector.Input{}, inserted, err
	}
	inserted += n

	return sector.Input{
		Code:   ind.Code,
		Name:   ind.Name,
		Flows:  indicator.FromObservations(flows),
		Closes: indicator.FromObservations(closes),
	}, inserted, nil
}

// previousRanks loads yesterday's ranks for rank_change computation.
func (r *Runner) previousRanks(ctx context.Context, today time.Time) (map[string]int, error) {
	prevDate, ok, err := r.sectors.GetLatestMetricsDate(ctx, today.AddDate(0, 0, -1))
	if err != nil || !ok {
		return nil, err
	}

	prev, err := r.sectors.GetDailyMetrics(ctx, prevDate)
	if err != nil {
		return nil, err
	}
	return sector.RanksByCode(prev), nil
}
