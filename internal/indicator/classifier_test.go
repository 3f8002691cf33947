package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radezheng/marco/internal/contracts"
)

// seq builds a daily series of values starting at start.
func seq(start time.Time, values ...float64) Series {
	points := make([]Point, 0, len(values))
	for i, v := range values {
		points = append(points, Point{Date: start.AddDate(0, 0, i), Value: v})
	}
	return NewSeries(points)
}

// rangeSeries builds a daily series 1..n ending the day before asof.
func rangeSeries(asof time.Time, n int) Series {
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, Point{
			Date:  asof.AddDate(0, 0, -(n - i)),
			Value: float64(i + 1),
		})
	}
	return NewSeries(points)
}

func TestQuantile_LinearInterpolation(t *testing.T) {
	vals := make([]float64, 100)
	for i := range vals {
		vals[i] = float64(i + 1)
	}

	// 1..100: p90 = 1 + 0.9*99 = 90.1, p95 = 95.05
	assert.InDelta(t, 90.1, Quantile(vals, 0.90), 1e-9)
	assert.InDelta(t, 95.05, Quantile(vals, 0.95), 1e-9)
	assert.InDelta(t, 1.0, Quantile(vals, 0.0), 1e-9)
	assert.InDelta(t, 100.0, Quantile(vals, 1.0), 1e-9)
}

func TestClassifyThreshold_States(t *testing.T) {
	asof := contracts.YMD(2025, 6, 2)
	hist := rangeSeries(asof, 100)
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		name  string
		value float64
		want  contracts.State
	}{
		{"below p90 is green", 50, contracts.StateGreen},
		{"just below p90 is green", 90.0, contracts.StateGreen},
		{"between p90 and p95 is yellow", 92, contracts.StateYellow},
		{"value 96 against 1..100 is red", 96, contracts.StateRed},
		{"at p95 is red", 95.05, contracts.StateRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := c.ClassifyThreshold("credit_spread", hist, asof, tt.value)
			assert.Equal(t, tt.want, st.State)
			require.NotNil(t, st.Details.Threshold)
			assert.InDelta(t, 90.1, st.Details.Threshold.Q1, 1e-9)
			assert.InDelta(t, 95.05, st.Details.Threshold.Q2, 1e-9)
			assert.InDelta(t, tt.value, st.Details.Threshold.Value, 1e-9)
		})
	}
}

func TestClassifyThreshold_LowIsRiskOff(t *testing.T) {
	asof := contracts.YMD(2025, 6, 2)
	hist := rangeSeries(asof, 100)

	cfg := DefaultClassifierConfig()
	cfg.HighIsRiskOff = false
	cfg.Q1 = 0.10
	cfg.Q2 = 0.05
	c := NewClassifier(cfg)

	st := c.ClassifyThreshold("liquidity_floor", hist, asof, 2.0)
	assert.Equal(t, contracts.StateRed, st.State)

	st = c.ClassifyThreshold("liquidity_floor", hist, asof, 50.0)
	assert.Equal(t, contracts.StateGreen, st.State)
}

func TestClassifyThreshold_InsufficientHistory(t *testing.T) {
	asof := contracts.YMD(2025, 6, 2)
	hist := rangeSeries(asof, 30) // below the 60-observation floor
	c := NewClassifier(DefaultClassifierConfig())

	st := c.ClassifyThreshold("credit_spread", hist, asof, 10)
	assert.Equal(t, contracts.StateUnknown, st.State)
	assert.Nil(t, st.Score)
	assert.Equal(t, "insufficient_history", st.Details.Reason)
}

func TestClassifyThreshold_WindowExcludesAsof(t *testing.T) {
	asof := contracts.YMD(2025, 6, 2)
	hist := rangeSeries(asof, 100)

	// A huge value on the as-of date itself must not move the thresholds.
	spiked := append(Series{}, hist...)
	spiked = NewSeries(append(spiked, Point{Date: asof, Value: 1e9}))

	c := NewClassifier(DefaultClassifierConfig())
	plain := c.ClassifyThreshold("credit_spread", hist, asof, 96)
	withSpike := c.ClassifyThreshold("credit_spread", spiked, asof, 96)

	assert.Equal(t, plain.Details.Threshold.Q1, withSpike.Details.Threshold.Q1)
	assert.Equal(t, plain.Details.Threshold.Q2, withSpike.Details.Threshold.Q2)
}

func TestClassifyThreshold_Idempotent(t *testing.T) {
	asof := contracts.YMD(2025, 6, 2)
	hist := rangeSeries(asof, 200)
	c := NewClassifier(DefaultClassifierConfig())

	first := c.ClassifyThreshold("treasury_vol", hist, asof, 150)
	second := c.ClassifyThreshold("treasury_vol", hist, asof, 150)

	assert.Equal(t, first.State, second.State)
	assert.Equal(t, *first.Score, *second.Score)
	assert.Equal(t, *first.Details.Threshold, *second.Details.Threshold)
}

func TestClassifyBanded_Labels(t *testing.T) {
	asof := contracts.YMD(2025, 6, 2)
	hist := rangeSeries(asof, 100)
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		name      string
		value     float64
		wantState contracts.State
		wantLabel string
	}{
		{"above high band is net_inject", 90, contracts.StateGreen, "net_inject"},
		{"below low band is net_withdraw", 5, contracts.StateRed, "net_withdraw"},
		{"inside band is flat", 50, contracts.StateYellow, "flat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := c.ClassifyBanded("synthetic_liquidity", hist, asof, tt.value)
			assert.Equal(t, tt.wantState, st.State)
			require.NotNil(t, st.Details.Banded)
			assert.Equal(t, tt.wantLabel, st.Details.Banded.Label)
			assert.Less(t, st.Details.Banded.QLo, st.Details.Banded.QHi)
		})
	}
}

func TestClassifyStructure_Labels(t *testing.T) {
	asof := contracts.YMD(2025, 6, 2)
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		name          string
		slope         float64
		wantState     contracts.State
		wantStructure string
	}{
		{"positive slope is backwardation", 1.5, contracts.StateRed, "backwardation"},
		{"slope inside flat band", 0.1, contracts.StateYellow, "flat"},
		{"negative slope is contango", -2.0, contracts.StateGreen, "contango"},
		{"edge of flat band stays flat", -0.25, contracts.StateYellow, "flat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := c.ClassifyStructure("vix_structure", asof, tt.slope)
			assert.Equal(t, tt.wantState, st.State)
			require.NotNil(t, st.Details.Structure)
			assert.Equal(t, tt.wantStructure, st.Details.Structure.Structure)
		})
	}
}

func TestClassifier_ThresholdsDeterministic(t *testing.T) {
	asof := contracts.YMD(2025, 6, 2)
	c := NewClassifier(DefaultClassifierConfig())

	shortHist := rangeSeries(asof, 100)
	longHist := rangeSeries(asof, 150)

	a := c.ClassifyThreshold("credit_spread", shortHist, asof, 96)
	b := c.ClassifyThreshold("credit_spread", longHist, asof, 96)

	// Growing the window moves the thresholds, but each window is reproducible.
	assert.NotEqual(t, a.Details.Threshold.Q1, b.Details.Threshold.Q1)
	again := c.ClassifyThreshold("credit_spread", longHist, asof, 96)
	assert.Equal(t, b.Details.Threshold.Q1, again.Details.Threshold.Q1)
}
