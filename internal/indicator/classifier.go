package indicator

import (
	"sort"
	"time"

	"github.com/radezheng/marco/internal/contracts"
)

// ClassifierConfig tunes the rolling-quantile state classifier
type ClassifierConfig struct {
	// LookbackDays is the calendar window ending strictly before the as-of
	// date (默认 3 年，约 756 个交易日的观测).
	LookbackDays int

	// MinObservations below which the state is U.
	MinObservations int

	// Q1/Q2 are the threshold-mode quantiles (p90/p95).
	Q1 float64
	Q2 float64

	// BandLo/BandHi are the banded-mode quantiles (q33/q66).
	BandLo float64
	BandHi float64

	// FlatBand is the structure-mode neutral band around zero slope.
	FlatBand float64

	// HighIsRiskOff flips the threshold direction for series where low
	// values are the stress signal.
	HighIsRiskOff bool
}

// DefaultClassifierConfig returns the standard classification parameters
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		LookbackDays:    365 * 3,
		MinObservations: 60,
		Q1:              0.90,
		Q2:              0.95,
		BandLo:          0.33,
		BandHi:          0.66,
		FlatBand:        0.25,
		HighIsRiskOff:   true,
	}
}

// QuantileStateClassifier classifies a value against its rolling history
// ⭐ SSOT: 红绿灯状态判定只在这里
// 纯函数：相同 (序列, 日期, 窗口) 必然得到相同的状态与明细。
type QuantileStateClassifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a classifier with the given config
func NewClassifier(cfg ClassifierConfig) *QuantileStateClassifier {
	return &QuantileStateClassifier{cfg: cfg}
}

// Config returns the active configuration.
func (c *QuantileStateClassifier) Config() ClassifierConfig {
	return c.cfg
}

// window slices the lookback history ending strictly before asof.
func (c *QuantileStateClassifier) window(hist Series, asof time.Time) Series {
	start := contracts.DateOf(asof).AddDate(0, 0, -c.cfg.LookbackDays)
	return hist.Before(start, asof)
}

// ClassifyThreshold applies the p90/p95 threshold mode.
func (c *QuantileStateClassifier) ClassifyThreshold(key string, hist Series, asof time.Time, value float64) contracts.IndicatorState {
	win := c.window(hist, asof)
	if win.Len() < c.cfg.MinObservations {
		return c.Unknown(key, asof, contracts.ModeThreshold, "insufficient_history")
	}

	vals := win.Values()
	q1 := Quantile(vals, c.cfg.Q1)
	q2 := Quantile(vals, c.cfg.Q2)

	var state contracts.State
	if c.cfg.HighIsRiskOff {
		switch {
		case value >= q2:
			state = contracts.StateRed
		case value >= q1:
			state = contracts.StateYellow
		default:
			state = contracts.StateGreen
		}
	} else {
		// low is risk-off (rare here)
		switch {
		case value <= q2:
			state = contracts.StateRed
		case value <= q1:
			state = contracts.StateYellow
		default:
			state = contracts.StateGreen
		}
	}

	score := state.RiskScore()
	return contracts.IndicatorState{
		IndicatorKey: key,
		Date:         contracts.DateOf(asof),
		State:        state,
		Score:        &score,
		Details: contracts.StateDetails{
			Mode:      contracts.ModeThreshold,
			Threshold: &contracts.ThresholdDetails{Q1: q1, Q2: q2, Value: value},
		},
	}
}

// ClassifyBanded applies the q33/q66 direction-band mode.
// 用于方向型序列（如流动性周度变化）：高于上带 = 净投放（利好 G），
// 低于下带 = 净回笼（利空 R），带内为中性 Y。
func (c *QuantileStateClassifier) ClassifyBanded(key string, hist Series, asof time.Time, value float64) contracts.IndicatorState {
	win := c.window(hist, asof)
	if win.Len() < c.cfg.MinObservations {
		return c.Unknown(key, asof, contracts.ModeBanded, "insufficient_history")
	}

	vals := win.Values()
	qLo := Quantile(vals, c.cfg.BandLo)
	qHi := Quantile(vals, c.cfg.BandHi)

	var state contracts.State
	var label string
	switch {
	case value >= qHi:
		state, label = contracts.StateGreen, "net_inject"
	case value <= qLo:
		state, label = contracts.StateRed, "net_withdraw"
	default:
		state, label = contracts.StateYellow, "flat"
	}

	score := state.RiskScore()
	return contracts.IndicatorState{
		IndicatorKey: key,
		Date:         contracts.DateOf(asof),
		State:        state,
		Score:        &score,
		Details: contracts.StateDetails{
			Mode:   contracts.ModeBanded,
			Banded: &contracts.BandedDetails{QLo: qLo, QHi: qHi, Value: value, Label: label},
		},
	}
}

// ClassifyStructure applies the term-structure slope mode.
// slope = 近月 − 3 个月；贴水（正斜率）是风险信号。
func (c *QuantileStateClassifier) ClassifyStructure(key string, asof time.Time, slope float64) contracts.IndicatorState {
	var state contracts.State
	var structure string
	switch {
	case slope > c.cfg.FlatBand:
		state, structure = contracts.StateRed, "backwardation"
	case slope >= -c.cfg.FlatBand:
		state, structure = contracts.StateYellow, "flat"
	default:
		state, structure = contracts.StateGreen, "contango"
	}

	score := state.RiskScore()
	return contracts.IndicatorState{
		IndicatorKey: key,
		Date:         contracts.DateOf(asof),
		State:        state,
		Score:        &score,
		Details: contracts.StateDetails{
			Mode:      contracts.ModeStructure,
			Structure: &contracts.StructureDetails{Slope: slope, Structure: structure},
		},
	}
}

// Unknown builds the U state with a machine-readable reason.
// U 是合法的终态（数据缺口），不是错误。
func (c *QuantileStateClassifier) Unknown(key string, asof time.Time, mode contracts.ClassificationMode, reason string) contracts.IndicatorState {
	return contracts.IndicatorState{
		IndicatorKey: key,
		Date:         contracts.DateOf(asof),
		State:        contracts.StateUnknown,
		Score:        nil,
		Details: contracts.StateDetails{
			Mode:   mode,
			Reason: reason,
		},
	}
}

// Quantile computes the linear-interpolation percentile (pandas default).
// q 取 [0,1]；输入无需有序，内部排序副本。
func Quantile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	if len(vals) == 1 {
		return vals[0]
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	rank := q * float64(len(sorted)-1)
	lo := int(rank)
	frac := rank - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
