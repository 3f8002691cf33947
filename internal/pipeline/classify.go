package pipeline

import (
	"context"
	"time"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/indicator"
)

// historyDays is the default load window for classification history
// (5 年：够算 3 年分位窗口，留缓冲)。
const historyDays = 365 * 5

// extendedHistoryDays covers series that need extra runway (流动性 6 年)
const extendedHistoryDays = 365 * 6

// usdReturnPeriods is the observation span of the USD momentum return
const usdReturnPeriods = 60

// seriesLoader fetches one series' history ending at asof.
type seriesLoader func(ctx context.Context, key string, asof time.Time, days int) (indicator.Series, error)

// repoLoader adapts the observation repository to a seriesLoader.
func repoLoader(repo contracts.ObservationRepository) seriesLoader {
	return func(ctx context.Context, key string, asof time.Time, days int) (indicator.Series, error) {
		from := contracts.DateOf(asof).AddDate(0, 0, -days)
		obs, err := repo.GetSeries(ctx, key, from, asof)
		if err != nil {
			return nil, err
		}
		return indicator.FromObservations(obs), nil
	}
}

// classification is the per-date output of the indicator rules
type classification struct {
	Indicators []contracts.IndicatorState
	CoreStates map[string]contracts.State
	VIXKey     string
}

// classifier bundles the pure engines behind the date-level rules.
// ⭐ SSOT: "某日期该算哪些指标" 的规则只在这里
// 与原始数据的耦合全部走 seriesLoader，ingest 与查询路径复用同一套规则。
type classifier struct {
	states *indicator.QuantileStateClassifier
	derive *indicator.DerivedSeriesComputer
}

func newClassifier(states *indicator.QuantileStateClassifier, derive *indicator.DerivedSeriesComputer) *classifier {
	return &classifier{states: states, derive: derive}
}

// classifyAt evaluates every indicator defined for asof.
// 序列在 asof 当日无观测 → 该指标整体跳过（不是 U）；
// U 只给 "有当日值但窗口不足" 的情形。
func (c *classifier) classifyAt(ctx context.Context, load seriesLoader, asof time.Time) (*classification, error) {
	out := &classification{CoreStates: make(map[string]contracts.State)}

	add := func(st contracts.IndicatorState, core bool) {
		out.Indicators = append(out.Indicators, st)
		if core {
			out.CoreStates[st.IndicatorKey] = st.State
		}
	}

	// 流动性方向（周度差分的分位带）
	liq, err := c.liquidityDelta(ctx, load, asof)
	if err != nil {
		return nil, err
	}
	if v, ok := liq.At(asof); ok {
		add(c.states.ClassifyBanded(contracts.IndicatorLiquidity, liq, asof, v), true)
	}

	// 信用利差（HY OAS 代理）
	credit, err := load(ctx, contracts.SeriesHYOAS, asof, historyDays)
	if err != nil {
		return nil, err
	}
	if v, ok := credit.At(asof); ok {
		st := c.states.ClassifyThreshold(contracts.IndicatorCreditSpread, credit, asof, v)
		st.Details.Proxy = contracts.SeriesHYOAS
		add(st, true)
	}

	// 资金面压力（SOFR − IORB/EFFR）
	funding, err := load(ctx, contracts.SeriesFundingSpread, asof, historyDays)
	if err != nil {
		return nil, err
	}
	if v, ok := funding.At(asof); ok {
		add(c.states.ClassifyThreshold(contracts.IndicatorFundingStress, funding, asof, v), true)
	}

	// 美债已实现波动率（20 日年化）
	if err := c.treasuryVol(ctx, load, asof, add); err != nil {
		return nil, err
	}

	// 波动率期限结构，VXV 缺失回退到 VIX level
	if err := c.vixStructure(ctx, load, asof, out, add); err != nil {
		return nil, err
	}

	// 美元动量（60 观测区间收益 vs 自身历史分位）
	if err := c.usdStrength(ctx, load, asof, add); err != nil {
		return nil, err
	}

	return out, nil
}

// liquidityDelta recomputes the weekly liquidity delta ending at asof.
// 不读预存的衍生序列而是现算：RRP 在早期历史稀疏，
// 现算可以保证 backward 对齐始终基于完整的原始窗口。
func (c *classifier) liquidityDelta(ctx context.Context, load seriesLoader, asof time.Time) (indicator.Series, error) {
	walcl, err := load(ctx, contracts.SeriesWALCL, asof, extendedHistoryDays)
	if err != nil {
		return nil, err
	}
	if walcl.Empty() {
		return nil, nil
	}

	tga, err := load(ctx, contracts.SeriesTGA, asof, extendedHistoryDays)
	if err != nil {
		return nil, err
	}
	rrp, err := load(ctx, contracts.SeriesRRP, asof, extendedHistoryDays)
	if err != nil {
		return nil, err
	}

	level := c.derive.LiquidityLevel(walcl, tga, rrp)
	return c.derive.LiquidityDeltaW(level), nil
}

func (c *classifier) treasuryVol(ctx context.Context, load seriesLoader, asof time.Time, add func(contracts.IndicatorState, bool)) error {
	vol, err := load(ctx, contracts.SeriesTreasuryVol20D, asof, historyDays)
	if err != nil {
		return err
	}

	if v, ok := vol.At(asof); ok {
		add(c.states.ClassifyThreshold(contracts.IndicatorTreasuryVol, vol, asof, v), false)
		return nil
	}

	// 衍生序列还没落库时从 DGS10 现算
	dgs10, err := load(ctx, contracts.SeriesDGS10, asof, extendedHistoryDays)
	if err != nil {
		return err
	}
	rv := c.derive.RealizedVol20D(dgs10)
	if v, ok := rv.At(asof); ok {
		add(c.states.ClassifyThreshold(contracts.IndicatorTreasuryVol, rv, asof, v), false)
	}
	return nil
}

func (c *classifier) vixStructure(ctx context.Context, load seriesLoader, asof time.Time, out *classification, add func(contracts.IndicatorState, bool)) error {
	slope, err := load(ctx, contracts.SeriesVIXSlope, asof, historyDays)
	if err != nil {
		return err
	}
	if v, ok := slope.At(asof); ok {
		add(c.states.ClassifyStructure(contracts.IndicatorVIXStructure, asof, v), true)
		out.VIXKey = contracts.IndicatorVIXStructure
		return nil
	}

	vix, err := load(ctx, contracts.SeriesVIX, asof, historyDays)
	if err != nil {
		return err
	}
	if v, ok := vix.At(asof); ok {
		st := c.states.ClassifyThreshold(contracts.IndicatorVIXLevel, vix, asof, v)
		st.Details.Proxy = contracts.SeriesVIX
		add(st, true)
		out.VIXKey = contracts.IndicatorVIXLevel
	}
	return nil
}

// usdStrength classifies the 60-observation USD return against its own
// return history. 观测数不足（≤70 或位置 <60）时整体跳过。
func (c *classifier) usdStrength(ctx context.Context, load seriesLoader, asof time.Time, add func(contracts.IndicatorState, bool)) error {
	usd, err := load(ctx, contracts.SeriesUSDBroad, asof, extendedHistoryDays)
	if err != nil {
		return err
	}
	if usd.Len() <= 70 {
		return nil
	}

	i := usd.IndexOf(asof)
	if i < usdReturnPeriods {
		return nil
	}

	rets := usd.PeriodReturns(usdReturnPeriods)
	if v, ok := rets.At(asof); ok {
		add(c.states.ClassifyThreshold(contracts.IndicatorUSDStrength, rets, asof, v), false)
	}
	return nil
}
