package indicator

import (
	"math"
	"time"

	"github.com/radezheng/marco/pkg/logger"
)

// DerivedSeriesComputer builds composite series from raw inputs
// ⭐ SSOT: 衍生序列计算只在这里
// 所有计算都是逐点且确定性的；缺输入时该日期无定义，而不是报错。
type DerivedSeriesComputer struct {
	logger *logger.Logger
}

// NewDerivedSeriesComputer creates a new derived series computer
func NewDerivedSeriesComputer(log *logger.Logger) *DerivedSeriesComputer {
	return &DerivedSeriesComputer{logger: log}
}

// annualizationFactor converts daily stddev to annualized vol (√252 trading days)
var annualizationFactor = math.Sqrt(252)

// fallbackAt resolves the first series in the chain with a value on date.
// 显式的有序 fallback 解析，代替散落在调用点的条件分支。
func fallbackAt(date time.Time, chain ...Series) (float64, bool) {
	for _, s := range chain {
		if v, ok := s.At(date); ok {
			return v, ok
		}
	}
	return 0, false
}

// LiquidityLevel computes walcl − tga − rrp on WALCL dates.
// WALCL 是周频、TGA 日频、RRP 稀疏且起始晚：用 WALCL 日期作时钟，
// TGA/RRP 做 backward asof 对齐，RRP 缺失按 0 处理（设施启用前的年代）。
func (c *DerivedSeriesComputer) LiquidityLevel(walcl, tga, rrp Series) Series {
	if walcl.Empty() {
		return nil
	}

	out := make(Series, 0, len(walcl))
	for _, p := range walcl {
		tgaV, ok := tga.AsofAt(p.Date)
		if !ok {
			continue
		}
		rrpV, ok := rrp.AsofAt(p.Date)
		if !ok {
			rrpV = 0
		}
		out = append(out, Point{Date: p.Date, Value: p.Value - tgaV - rrpV})
	}
	return out
}

// LiquidityDeltaW is the first difference of the liquidity level.
// WALCL 为周频，相邻观测差分即"周度"变化。
func (c *DerivedSeriesComputer) LiquidityDeltaW(level Series) Series {
	return level.Diff()
}

// FundingSpread computes sofr − (iorb | effr) per date.
// IORB 缺失的日期按序回退到 EFFR。
func (c *DerivedSeriesComputer) FundingSpread(sofr, iorb, effr Series) Series {
	if sofr.Empty() {
		return nil
	}

	out := make(Series, 0, len(sofr))
	for _, p := range sofr {
		base, ok := fallbackAt(p.Date, iorb, effr)
		if !ok {
			continue
		}
		out = append(out, Point{Date: p.Date, Value: p.Value - base})
	}
	return out
}

// VIXSlope computes vix − vxv on dates where both are defined.
// VXV 整段缺失时不产出斜率序列，由分类层回退到 VIX level 分类。
func (c *DerivedSeriesComputer) VIXSlope(vix, vxv Series) Series {
	if vix.Empty() || vxv.Empty() {
		return nil
	}

	out := make(Series, 0, len(vix))
	for _, p := range vix {
		v3m, ok := vxv.At(p.Date)
		if !ok {
			continue
		}
		out = append(out, Point{Date: p.Date, Value: p.Value - v3m})
	}
	return out
}

// realizedVolWindow is the number of daily changes behind one vol point
const realizedVolWindow = 20

// RealizedVol20D computes annualized 20-day realized vol of a yield series.
// 每个点 = 最近 20 个日度一阶差分的标准差 × √252；不足 20 个差分的日期无定义。
func (c *DerivedSeriesComputer) RealizedVol20D(yields Series) Series {
	changes := yields.Diff()
	if len(changes) < realizedVolWindow {
		return nil
	}

	out := make(Series, 0, len(changes)-realizedVolWindow+1)
	for i := realizedVolWindow - 1; i < len(changes); i++ {
		window := changes[i-realizedVolWindow+1 : i+1]
		sd := stddev(window.Values())
		out = append(out, Point{Date: changes[i].Date, Value: sd * annualizationFactor})
	}
	return out
}

// stddev is the sample standard deviation (ddof=1, pandas rolling default)
func stddev(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return 0
	}

	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(n)

	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
