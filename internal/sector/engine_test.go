package sector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/indicator"
)

// flowSeries builds a daily series ending on end.
func flowSeries(end time.Time, values ...float64) indicator.Series {
	points := make([]indicator.Point, 0, len(values))
	for i, v := range values {
		points = append(points, indicator.Point{
			Date:  end.AddDate(0, 0, -(len(values) - 1 - i)),
			Value: v,
		})
	}
	return indicator.NewSeries(points)
}

// inputWith builds a sector whose flow_5d and price_return_5d land on the
// given values: five daily flows summing to flow5d and six closes producing
// priceRet5d.
func inputWith(code, name string, end time.Time, flow5d, priceRet5d float64) Input {
	return Input{
		Code:   code,
		Name:   name,
		Flows:  flowSeries(end, flow5d/5, flow5d/5, flow5d/5, flow5d/5, flow5d/5),
		Closes: flowSeries(end, 100, 100, 100, 100, 100, 100*(1+priceRet5d)),
	}
}

func TestComputeDay_FourStateTable(t *testing.T) {
	e := NewEngine(nil)
	day := contracts.YMD(2025, 7, 1)

	inputs := []Input{
		inputWith("BK0001", "甲", day, 500, 0.02),   // 流入 + 上涨
		inputWith("BK0002", "乙", day, 300, -0.01),  // 流入 + 下跌
		inputWith("BK0003", "丙", day, -200, 0.03),  // 流出 + 上涨
		inputWith("BK0004", "丁", day, -400, -0.02), // 流出 + 下跌
	}

	metrics := e.ComputeDay(day, inputs, nil)
	require.Len(t, metrics, 4)

	byCode := map[string]contracts.SectorDailyMetrics{}
	for _, m := range metrics {
		byCode[m.Code] = m
	}

	assert.Equal(t, contracts.RotationMarkup, byCode["BK0001"].State)
	assert.Equal(t, contracts.RotationAccumulation, byCode["BK0002"].State)
	assert.Equal(t, contracts.RotationDistribution, byCode["BK0003"].State)
	assert.Equal(t, contracts.RotationFading, byCode["BK0004"].State)

	// divergence: 吸筹 +1, 派发 −1, 同向 0
	assert.Equal(t, 0, byCode["BK0001"].DivergenceScore)
	assert.Equal(t, 1, byCode["BK0002"].DivergenceScore)
	assert.Equal(t, -1, byCode["BK0003"].DivergenceScore)
	assert.Equal(t, 0, byCode["BK0004"].DivergenceScore)
}

func TestComputeDay_RankAndTieBreak(t *testing.T) {
	e := NewEngine(nil)
	day := contracts.YMD(2025, 7, 1)

	inputs := []Input{
		inputWith("BK0300", "丙", day, 100, 0.01),
		inputWith("BK0100", "甲", day, 100, 0.01), // same-day flow ties with BK0300
		inputWith("BK0200", "乙", day, 900, 0.01),
	}

	metrics := e.ComputeDay(day, inputs, nil)
	require.Len(t, metrics, 3)

	// Descending by main_net, ties by code ascending.
	assert.Equal(t, "BK0200", metrics[0].Code)
	assert.Equal(t, "BK0100", metrics[1].Code)
	assert.Equal(t, "BK0300", metrics[2].Code)
	assert.Equal(t, []int{1, 2, 3}, []int{metrics[0].Rank, metrics[1].Rank, metrics[2].Rank})
}

func TestComputeDay_RankChange(t *testing.T) {
	e := NewEngine(nil)
	day := contracts.YMD(2025, 7, 2)

	inputs := []Input{
		inputWith("BK0001", "甲", day, 900, 0.01),
		inputWith("BK0002", "乙", day, 100, 0.01),
	}
	prevRanks := map[string]int{"BK0001": 10} // BK0002 had no rank yesterday

	metrics := e.ComputeDay(day, inputs, prevRanks)
	require.Len(t, metrics, 2)

	require.NotNil(t, metrics[0].RankChange)
	assert.Equal(t, -9, *metrics[0].RankChange)
	assert.Equal(t, contracts.SpeedStrongUp, metrics[0].Speed())

	assert.Nil(t, metrics[1].RankChange)
	assert.Equal(t, contracts.SpeedFlat, metrics[1].Speed())
}

func TestComputeDay_MissingDataDegrades(t *testing.T) {
	e := NewEngine(nil)
	day := contracts.YMD(2025, 7, 1)

	// Too few closes for a 5-day return, flows present.
	shortCloses := Input{
		Code:   "BK0001",
		Name:   "甲",
		Flows:  flowSeries(day, 10, 20, 30),
		Closes: flowSeries(day, 100, 101),
	}
	// No flow at all on the target date.
	noFlowToday := Input{
		Code:   "BK0002",
		Name:   "乙",
		Flows:  flowSeries(day.AddDate(0, 0, -1), 10, 20),
		Closes: flowSeries(day, 100, 100, 100, 100, 100, 102),
	}

	metrics := e.ComputeDay(day, []Input{shortCloses, noFlowToday}, nil)
	require.Len(t, metrics, 1)

	m := metrics[0]
	assert.Equal(t, "BK0001", m.Code)
	assert.Equal(t, contracts.RotationUnknown, m.State)
	assert.Equal(t, 0, m.DivergenceScore)
	assert.Nil(t, m.PriceReturn5D)
	require.NotNil(t, m.Flow5D)
	assert.InDelta(t, 60, *m.Flow5D, 1e-9) // partial window sums what exists
	assert.Equal(t, 1, m.Rank)
}

func TestComputeDay_FlowWindows(t *testing.T) {
	e := NewEngine(nil)
	day := contracts.YMD(2025, 7, 10)

	// 12 daily flows: the 5d and 10d sums pick the trailing windows.
	in := Input{
		Code:   "BK0001",
		Name:   "甲",
		Flows:  flowSeries(day, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2),
		Closes: flowSeries(day, 100, 100, 100, 100, 100, 110),
	}

	metrics := e.ComputeDay(day, []Input{in}, nil)
	require.Len(t, metrics, 1)

	require.NotNil(t, metrics[0].Flow5D)
	require.NotNil(t, metrics[0].Flow10D)
	assert.InDelta(t, 10, *metrics[0].Flow5D, 1e-9)  // 2*5
	assert.InDelta(t, 15, *metrics[0].Flow10D, 1e-9) // 1*5 + 2*5
	assert.InDelta(t, 2, metrics[0].MainNet, 1e-9)

	require.NotNil(t, metrics[0].PriceReturn5D)
	assert.InDelta(t, 0.10, *metrics[0].PriceReturn5D, 1e-9)
}

func TestComputeDay_EmptyInputs(t *testing.T) {
	e := NewEngine(nil)
	metrics := e.ComputeDay(contracts.YMD(2025, 7, 1), nil, nil)
	assert.Empty(t, metrics)
}

func TestRanksAndStatesByCode(t *testing.T) {
	metrics := []contracts.SectorDailyMetrics{
		{Code: "BK0001", Rank: 1, State: contracts.RotationMarkup},
		{Code: "BK0002", Rank: 2, State: contracts.RotationFading},
	}

	ranks := RanksByCode(metrics)
	assert.Equal(t, map[string]int{"BK0001": 1, "BK0002": 2}, ranks)

	states := StatesByCode(metrics)
	assert.Equal(t, contracts.RotationMarkup, states["BK0001"])
	assert.Equal(t, contracts.RotationFading, states["BK0002"])
}
