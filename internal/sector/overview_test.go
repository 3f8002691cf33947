package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radezheng/marco/internal/contracts"
)

func intPtr(v int) *int { return &v }

func TestBuildOverview_TopLists(t *testing.T) {
	day := contracts.YMD(2025, 7, 1)
	today := []contracts.SectorDailyMetrics{
		{Code: "BK0001", Name: "甲", Date: day, MainNet: 500, Rank: 1},
		{Code: "BK0002", Name: "乙", Date: day, MainNet: -300, Rank: 4},
		{Code: "BK0003", Name: "丙", Date: day, MainNet: 200, Rank: 2},
		{Code: "BK0004", Name: "丁", Date: day, MainNet: -100, Rank: 3},
	}

	overview := BuildOverview(day, today, nil, 2)
	require.NotNil(t, overview)

	require.Len(t, overview.TopInflow, 2)
	assert.Equal(t, "BK0001", overview.TopInflow[0].Code)
	assert.Equal(t, "BK0003", overview.TopInflow[1].Code)

	require.Len(t, overview.TopOutflow, 2)
	assert.Equal(t, "BK0002", overview.TopOutflow[0].Code)
	assert.Equal(t, "BK0004", overview.TopOutflow[1].Code)
}

func TestBuildOverview_Transitions(t *testing.T) {
	day := contracts.YMD(2025, 7, 1)
	today := []contracts.SectorDailyMetrics{
		{Code: "BK0001", Name: "甲", MainNet: 500, Rank: 1, State: contracts.RotationMarkup, RankChange: intPtr(-9), DivergenceScore: 0},
		{Code: "BK0002", Name: "乙", MainNet: 400, Rank: 2, State: contracts.RotationMarkup}, // already markup yesterday
		{Code: "BK0003", Name: "丙", MainNet: -300, Rank: 3, State: contracts.RotationFading},
		{Code: "BK0004", Name: "丁", MainNet: -400, Rank: 4, State: contracts.RotationAccumulation},
	}
	prev := map[string]contracts.RotationState{
		"BK0001": contracts.RotationAccumulation,
		"BK0002": contracts.RotationMarkup,
		"BK0003": contracts.RotationDistribution,
	}

	overview := BuildOverview(day, today, prev, 10)

	require.Len(t, overview.NewMainline, 1)
	nm := overview.NewMainline[0]
	assert.Equal(t, "BK0001", nm.Code)
	assert.Equal(t, contracts.RotationAccumulation, nm.PrevState)
	assert.Equal(t, contracts.SpeedStrongUp, nm.Speed)

	require.Len(t, overview.Fading, 1)
	assert.Equal(t, "BK0003", overview.Fading[0].Code)
	assert.Equal(t, contracts.RotationDistribution, overview.Fading[0].PrevState)
}

func TestBuildOverview_MissingPrevCountsAsNew(t *testing.T) {
	day := contracts.YMD(2025, 7, 1)
	today := []contracts.SectorDailyMetrics{
		{Code: "BK0001", Name: "甲", MainNet: 500, Rank: 1, State: contracts.RotationMarkup},
	}

	overview := BuildOverview(day, today, map[string]contracts.RotationState{}, 10)
	require.Len(t, overview.NewMainline, 1)
	assert.Equal(t, contracts.RotationUnknown, overview.NewMainline[0].PrevState)
}

func TestBuildOverview_EmptyDay(t *testing.T) {
	overview := BuildOverview(contracts.YMD(2025, 7, 1), nil, nil, 5)
	require.NotNil(t, overview)
	assert.Empty(t, overview.TopInflow)
	assert.Empty(t, overview.TopOutflow)
	assert.Empty(t, overview.NewMainline)
	assert.Empty(t, overview.Fading)
}
