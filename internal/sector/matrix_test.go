package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/indicator"
)

func TestBuildMatrix_Shape(t *testing.T) {
	asof := contracts.YMD(2025, 7, 10)
	sectors := []contracts.SectorIndustry{
		{Code: "BK0001", Name: "甲"},
		{Code: "BK0002", Name: "乙"},
	}
	flows := map[string]indicator.Series{
		"BK0001": flowSeries(asof, 10, -20, 30, -40, 50),
		"BK0002": flowSeries(asof, 5, 5, 5, 5, 500),
	}

	m := BuildMatrix(asof, 10, sectors, flows, contracts.DirectionAbs)
	require.NotNil(t, m)
	require.Len(t, m.Dates, 5)
	require.Len(t, m.Rows, 2)

	for _, row := range m.Rows {
		assert.Len(t, row.Values, len(m.Dates))
		for _, v := range row.Values {
			assert.GreaterOrEqual(t, v, -3.0)
			assert.LessOrEqual(t, v, 3.0)
		}
	}

	// The outlier day dominates BK0002's row.
	last := m.Rows[1].Values[len(m.Dates)-1]
	for _, v := range m.Rows[1].Values[:len(m.Dates)-1] {
		assert.Greater(t, last, v)
	}
}

func TestBuildMatrix_DirectionFilter(t *testing.T) {
	asof := contracts.YMD(2025, 7, 10)
	sectors := []contracts.SectorIndustry{{Code: "BK0001", Name: "甲"}}
	flows := map[string]indicator.Series{
		"BK0001": flowSeries(asof, 10, -20, 30, -40, 50),
	}

	// Inflow-only: outflow days carry no signal (zero cells).
	in := BuildMatrix(asof, 10, sectors, flows, contracts.DirectionInflow)
	require.Len(t, in.Rows, 1)
	assert.Zero(t, in.Rows[0].Values[1])
	assert.Zero(t, in.Rows[0].Values[3])

	// Outflow-only: inflow days are the zero cells.
	out := BuildMatrix(asof, 10, sectors, flows, contracts.DirectionOutflow)
	assert.Zero(t, out.Rows[0].Values[0])
	assert.Zero(t, out.Rows[0].Values[2])
	assert.Zero(t, out.Rows[0].Values[4])
	assert.NotZero(t, out.Rows[0].Values[1])
}

func TestBuildMatrix_EmptyWindow(t *testing.T) {
	asof := contracts.YMD(2025, 7, 10)
	sectors := []contracts.SectorIndustry{{Code: "BK0001", Name: "甲"}}

	m := BuildMatrix(asof, 10, sectors, map[string]indicator.Series{}, contracts.DirectionAbs)
	require.NotNil(t, m)
	assert.Empty(t, m.Dates)
	assert.Empty(t, m.Rows)
}

func TestBuildMatrix_MissingDatesAreZero(t *testing.T) {
	asof := contracts.YMD(2025, 7, 10)
	sectors := []contracts.SectorIndustry{
		{Code: "BK0001", Name: "甲"},
		{Code: "BK0002", Name: "乙"},
	}
	flows := map[string]indicator.Series{
		"BK0001": flowSeries(asof, 10, 20, 30, 40, 50),
		// BK0002 traded on fewer days; the date axis still unions both.
		"BK0002": flowSeries(asof, 7, 9),
	}

	m := BuildMatrix(asof, 10, sectors, flows, contracts.DirectionAbs)
	require.Len(t, m.Dates, 5)
	require.Len(t, m.Rows, 2)
	assert.Zero(t, m.Rows[1].Values[0])
	assert.Zero(t, m.Rows[1].Values[1])
	assert.Zero(t, m.Rows[1].Values[2])
}

func TestSelectTopSectors(t *testing.T) {
	asof := contracts.YMD(2025, 7, 10)
	sectors := []contracts.SectorIndustry{
		{Code: "BK0003", Name: "丙"},
		{Code: "BK0001", Name: "甲"},
		{Code: "BK0002", Name: "乙"},
	}
	flows := map[string]indicator.Series{
		"BK0001": flowSeries(asof, 100, 100),
		"BK0002": flowSeries(asof, 500, 500),
		"BK0003": flowSeries(asof, -50, -50),
	}

	top := SelectTopSectors(asof, 10, sectors, flows, contracts.DirectionAbs, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "BK0002", top[0].Code)
	assert.Equal(t, "BK0001", top[1].Code)

	// Inflow direction ignores BK0003's outflows entirely.
	topIn := SelectTopSectors(asof, 10, sectors, flows, contracts.DirectionInflow, 3)
	require.Len(t, topIn, 3)
	assert.Equal(t, "BK0003", topIn[2].Code)
}
