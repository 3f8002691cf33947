package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/indicator"
	"github.com/radezheng/marco/internal/sector"
	"github.com/radezheng/marco/internal/source/eastmoney"
	"github.com/radezheng/marco/pkg/logger"
	"github.com/radezheng/marco/pkg/redis"
)

// ErrNoObservations is returned before the first successful ingest.
var ErrNoObservations = fmt.Errorf("no observations available yet, run ingest first")

// Snapshots is the read-side service: compute-on-read with cache.
// ⭐ SSOT: 查询路径的指标/板块组装只在这里
// 分类现算而不是读 ingest 落库的状态，保证任意历史 asof 都可问。
type Snapshots struct {
	obs     contracts.ObservationRepository
	sectors contracts.SectorRepository

	classify  *classifier
	regimeCls *indicator.RegimeClassifier
	eastmoney *eastmoney.Client

	cache  *redis.Cache
	logger *logger.Logger
}

// NewSnapshots creates the snapshot query service
func NewSnapshots(
	obs contracts.ObservationRepository,
	sectors contracts.SectorRepository,
	states *indicator.QuantileStateClassifier,
	derive *indicator.DerivedSeriesComputer,
	regimeCls *indicator.RegimeClassifier,
	em *eastmoney.Client,
	cache *redis.Cache,
	log *logger.Logger,
) *Snapshots {
	return &Snapshots{
		obs:       obs,
		sectors:   sectors,
		classify:  newClassifier(states, derive),
		regimeCls: regimeCls,
		eastmoney: em,
		cache:     cache,
		logger:    log,
	}
}

// cacheTag renders the asof pointer for cache keys ("latest" when unpinned).
func cacheTag(requested *time.Time) string {
	if requested == nil {
		return "latest"
	}
	return requested.Format("2006-01-02")
}

// Build returns the full macro snapshot for the requested date.
// requested 为 nil 表示"数据允许的最新日期"。
func (s *Snapshots) Build(ctx context.Context, requested *time.Time) (*contracts.Snapshot, error) {
	key := redis.SnapshotKey(cacheTag(requested))
	var cached contracts.Snapshot
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	asof, ok, err := s.effectiveAsof(ctx, requested)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoObservations
	}

	cls, err := s.classify.classifyAt(ctx, repoLoader(s.obs), asof)
	if err != nil {
		return nil, fmt.Errorf("classify at %s: %w", asof.Format("2006-01-02"), err)
	}

	snapshot := &contracts.Snapshot{
		Asof:       asof,
		Indicators: cls.Indicators,
	}

	regime, allocation, err := s.regimeCls.Classify(asof, cls.CoreStates, cls.VIXKey)
	if err != nil {
		return nil, err
	}
	snapshot.Regime = regime
	snapshot.Allocation = allocation

	if err := s.cache.Set(ctx, key, snapshot, redis.TTLMedium); err != nil {
		s.logger.WithError(err).Warn("快照缓存写入失败")
	}
	return snapshot, nil
}

// effectiveAsof picks the most recent date common to the slowest core series.
// 流动性用 WALCL 作时钟而不是衍生差分序列：RRP 早期稀疏，
// 用差分序列会把可问的历史起点人为推迟。
func (s *Snapshots) effectiveAsof(ctx context.Context, requested *time.Time) (time.Time, bool, error) {
	end := time.Now()
	if requested != nil {
		end = *requested
	}
	end = contracts.DateOf(end)

	coreSources := []string{contracts.SeriesWALCL, contracts.SeriesHYOAS}

	// 资金利差 2021 年后才存在，早期历史不应该被它拖住
	if _, ok, err := s.obs.MaxDate(ctx, contracts.SeriesFundingSpread, end); err != nil {
		return time.Time{}, false, err
	} else if ok {
		coreSources = append(coreSources, contracts.SeriesFundingSpread)
	}

	if _, ok, err := s.obs.MaxDate(ctx, contracts.SeriesVIXSlope, end); err != nil {
		return time.Time{}, false, err
	} else if ok {
		coreSources = append(coreSources, contracts.SeriesVIXSlope)
	} else {
		coreSources = append(coreSources, contracts.SeriesVIX)
	}

	var asof time.Time
	found := false
	for _, key := range coreSources {
		d, ok, err := s.obs.MaxDate(ctx, key, end)
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

// SectorOverview returns the rotation overview for the requested date.
func (s *Snapshots) SectorOverview(ctx context.Context, requested *time.Time, topN int) (*contracts.SectorOverview, error) {
	key := redis.SectorOverviewKey(cacheTag(requested), topN)
	var cached contracts.SectorOverview
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	asof, ok, err := s.latestMetricsDate(ctx, requested)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 还没有板块数据：返回空但结构完整的总览
		return &contracts.SectorOverview{
			TopInflow:   []contracts.SectorDailyMetrics{},
			TopOutflow:  []contracts.SectorDailyMetrics{},
			NewMainline: []contracts.SectorTransition{},
			Fading:      []contracts.SectorTransition{},
		}, nil
	}

	today, err := s.sectors.GetDailyMetrics(ctx, asof)
	if err != nil {
		return nil, err
	}

	prevStates := map[string]contracts.RotationState{}
	if prevDate, ok, err := s.sectors.GetLatestMetricsDate(ctx, asof.AddDate(0, 0, -1)); err == nil && ok {
		if prev, err := s.sectors.GetDailyMetrics(ctx, prevDate); err == nil {
			prevStates = sector.StatesByCode(prev)
		}
	}

	overview := sector.BuildOverview(asof, today, prevStates, topN)
	if err := s.cache.Set(ctx, key, overview, redis.TTLMedium); err != nil {
		s.logger.WithError(err).Warn("板块总览缓存写入失败")
	}
	return overview, nil
}

// SectorMatrix returns the sector × date heatmap.
func (s *Snapshots) SectorMatrix(ctx context.Context, requested *time.Time, days, topK int, direction contracts.MatrixDirection) (*contracts.SectorMatrix, error) {
	key := redis.SectorMatrixKey(cacheTag(requested), days, topK, string(direction))
	var cached contracts.SectorMatrix
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	asof, ok, err := s.latestMetricsDate(ctx, requested)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &contracts.SectorMatrix{Dates: []time.Time{}, Rows: []contracts.SectorMatrixRow{}}, nil
	}

	industries, err := s.sectors.ListIndustries(ctx)
	if err != nil {
		return nil, err
	}

	from := asof.AddDate(0, 0, -days)
	flows := make(map[string]indicator.Series, len(industries))
	for _, ind := range industries {
		obs, err := s.sectors.GetFlows(ctx, ind.Code, from, asof)
		if err != nil {
			return nil, err
		}
		flows[ind.Code] = indicator.FromObservations(obs)
	}

	top := sector.SelectTopSectors(asof, days, industries, flows, direction, topK)
	matrix := sector.BuildMatrix(asof, days, top, flows, direction)

	if err := s.cache.Set(ctx, key, matrix, redis.TTLMedium); err != nil {
		s.logger.WithError(err).Warn("板块热力图缓存写入失败")
	}
	return matrix, nil
}

// latestMetricsDate resolves the effective sector date for a request.
func (s *Snapshots) latestMetricsDate(ctx context.Context, requested *time.Time) (time.Time, bool, error) {
	end := time.Now()
	if requested != nil {
		end = *requested
	}
	return s.sectors.GetLatestMetricsDate(ctx, contracts.DateOf(end))
}

// SectorBreadth fetches a board's constituents live and computes the
// share of members with a positive daily change.
func (s *Snapshots) SectorBreadth(ctx context.Context, code string) (*contracts.SectorBreadth, error) {
	key := redis.SectorBreadthKey(code)
	var cached contracts.SectorBreadth
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	quotes, err := s.eastmoney.FetchConstituents(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents for %s: %w", code, err)
	}

	returns := make([]float64, 0, len(quotes))
	for _, q := range quotes {
		returns = append(returns, q.ChangePct)
	}
	breadth := sector.ComputeBreadth(code, contracts.DateOf(time.Now()), returns)

	if err := s.cache.Set(ctx, key, breadth, redis.TTLShort); err != nil {
		s.logger.WithError(err).Warn("板块广度缓存写入失败")
	}
	return &breadth, nil
}

// Series returns one raw or derived series' points for charting.
func (s *Snapshots) Series(ctx context.Context, seriesKey string, from, to time.Time) ([]contracts.Observation, error) {
	return s.obs.GetSeries(ctx, seriesKey, from, to)
}
