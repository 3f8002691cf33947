package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radezheng/marco/internal/contracts"
)

func TestLiquidityLevel_AsofAlignment(t *testing.T) {
	c := NewDerivedSeriesComputer(nil)

	// WALCL is weekly; TGA daily with a gap; RRP starts late.
	walcl := NewSeries([]Point{
		{Date: contracts.YMD(2025, 1, 1), Value: 7000},
		{Date: contracts.YMD(2025, 1, 8), Value: 7100},
		{Date: contracts.YMD(2025, 1, 15), Value: 7050},
	})
	tga := NewSeries([]Point{
		{Date: contracts.YMD(2024, 12, 31), Value: 700},
		{Date: contracts.YMD(2025, 1, 8), Value: 650},
	})
	rrp := NewSeries([]Point{
		{Date: contracts.YMD(2025, 1, 14), Value: 300},
	})

	level := c.LiquidityLevel(walcl, tga, rrp)
	require.Len(t, level, 3)

	// 2025-01-01: tga backward-fills from 12-31, rrp missing => 0
	assert.Equal(t, contracts.YMD(2025, 1, 1), level[0].Date)
	assert.InDelta(t, 7000-700, level[0].Value, 1e-9)

	// 2025-01-08: exact tga match, rrp still missing
	assert.InDelta(t, 7100-650, level[1].Value, 1e-9)

	// 2025-01-15: tga backward-fills from 01-08, rrp from 01-14
	assert.InDelta(t, 7050-650-300, level[2].Value, 1e-9)
}

func TestLiquidityLevel_RequiresTGA(t *testing.T) {
	c := NewDerivedSeriesComputer(nil)

	walcl := NewSeries([]Point{
		{Date: contracts.YMD(2025, 1, 1), Value: 7000},
		{Date: contracts.YMD(2025, 1, 8), Value: 7100},
	})
	tga := NewSeries([]Point{
		{Date: contracts.YMD(2025, 1, 5), Value: 650},
	})

	// The first WALCL date has no TGA history behind it and is skipped.
	level := c.LiquidityLevel(walcl, tga, nil)
	require.Len(t, level, 1)
	assert.Equal(t, contracts.YMD(2025, 1, 8), level[0].Date)
}

func TestLiquidityDeltaW(t *testing.T) {
	c := NewDerivedSeriesComputer(nil)

	level := seq(contracts.YMD(2025, 1, 1), 100, 110, 95)
	delta := c.LiquidityDeltaW(level)

	require.Len(t, delta, 2)
	assert.InDelta(t, 10, delta[0].Value, 1e-9)
	assert.InDelta(t, -15, delta[1].Value, 1e-9)
}

func TestFundingSpread_IORBFallback(t *testing.T) {
	c := NewDerivedSeriesComputer(nil)

	sofr := NewSeries([]Point{
		{Date: contracts.YMD(2025, 3, 3), Value: 5.31},
		{Date: contracts.YMD(2025, 3, 4), Value: 5.40},
		{Date: contracts.YMD(2025, 3, 5), Value: 5.32},
	})
	iorb := NewSeries([]Point{
		{Date: contracts.YMD(2025, 3, 3), Value: 5.30},
	})
	effr := NewSeries([]Point{
		{Date: contracts.YMD(2025, 3, 3), Value: 5.33},
		{Date: contracts.YMD(2025, 3, 4), Value: 5.33},
	})

	spread := c.FundingSpread(sofr, iorb, effr)
	require.Len(t, spread, 2)

	// 03-03 uses IORB, 03-04 falls back to EFFR, 03-05 has neither.
	assert.InDelta(t, 0.01, spread[0].Value, 1e-9)
	assert.InDelta(t, 0.07, spread[1].Value, 1e-9)
}

func TestVIXSlope_IntersectionOnly(t *testing.T) {
	c := NewDerivedSeriesComputer(nil)

	vix := NewSeries([]Point{
		{Date: contracts.YMD(2025, 5, 1), Value: 18},
		{Date: contracts.YMD(2025, 5, 2), Value: 25},
	})
	vxv := NewSeries([]Point{
		{Date: contracts.YMD(2025, 5, 2), Value: 21},
	})

	slope := c.VIXSlope(vix, vxv)
	require.Len(t, slope, 1)
	assert.Equal(t, contracts.YMD(2025, 5, 2), slope[0].Date)
	assert.InDelta(t, 4, slope[0].Value, 1e-9)

	// No VXV at all means no slope series.
	assert.Nil(t, c.VIXSlope(vix, nil))
}

func TestRealizedVol20D(t *testing.T) {
	c := NewDerivedSeriesComputer(nil)

	// Alternating +0.1/-0.1 daily changes give a constant-variance window.
	points := make([]Point, 0, 40)
	v := 4.0
	for i := 0; i < 40; i++ {
		points = append(points, Point{Date: contracts.YMD(2025, 1, 1).AddDate(0, 0, i), Value: v})
		if i%2 == 0 {
			v += 0.1
		} else {
			v -= 0.1
		}
	}
	yields := NewSeries(points)

	vol := c.RealizedVol20D(yields)
	require.NotEmpty(t, vol)
	// 39 diffs, window 20 => 20 vol points
	assert.Len(t, vol, 20)

	// Sample stddev of ten +0.1 and ten -0.1 values: sqrt(0.01*20/19)
	wantSD := math.Sqrt(0.01 * 20.0 / 19.0)
	assert.InDelta(t, wantSD*annualizationFactor, vol[0].Value, 1e-9)
	assert.Equal(t, yields[20].Date, vol[0].Date)
}

func TestRealizedVol20D_TooShort(t *testing.T) {
	c := NewDerivedSeriesComputer(nil)
	yields := seq(contracts.YMD(2025, 1, 1), 4.0, 4.1, 4.2)
	assert.Nil(t, c.RealizedVol20D(yields))
}

func TestStddev_SampleVariance(t *testing.T) {
	assert.InDelta(t, 1.0, stddev([]float64{1, 2, 3}), 1e-9)
	assert.Equal(t, 0.0, stddev([]float64{5}))
}
