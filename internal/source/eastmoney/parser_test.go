package eastmoney

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radezheng/marco/internal/contracts"
)

func TestParseFlowKlines(t *testing.T) {
	klines := []string{
		"2025-07-01,123456.5,-100,200,300,400",
		"2025-07-02,-98765.0,-100,200,300,400",
		"garbage-line",
		"not-a-date,100,1,2,3,4",
	}

	obs, err := ParseFlowKlines("BK0428", klines)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "BK0428", obs[0].SeriesKey)
	assert.Equal(t, contracts.YMD(2025, 7, 1), obs[0].Date)
	assert.InDelta(t, 123456.5, obs[0].Value, 1e-9)
	assert.Equal(t, SourceName, obs[0].Source)
	assert.InDelta(t, -98765.0, obs[1].Value, 1e-9)
}

func TestParseFlowKlines_AllRowsBad(t *testing.T) {
	_, err := ParseFlowKlines("BK0428", []string{"garbage", "more,garbage"})
	assert.Error(t, err)
}

func TestParseFlowKlines_Empty(t *testing.T) {
	obs, err := ParseFlowKlines("BK0428", nil)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestParseCloseKlines(t *testing.T) {
	klines := []string{
		"2025-07-01,10.0,10.5,10.8,9.9,1000,50000",
		"2025-07-02,10.5,10.2,10.6,10.1,900,45000",
	}

	obs, err := ParseCloseKlines("BK0428", klines)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	// close is the third column, not open
	assert.InDelta(t, 10.5, obs[0].Value, 1e-9)
	assert.InDelta(t, 10.2, obs[1].Value, 1e-9)
}

func TestParseBoardHTML(t *testing.T) {
	html := `<html><body>
		<a href="/bk/90.BK0428.html">电力行业</a>
		<a href="https://quote.eastmoney.com/bk/90.BK1036.html">半导体</a>
		<a href="/bk/90.BK0428.html">电力行业(重复)</a>
		<a href="/stock/000001.html">平安银行</a>
		<a href="/bk/90.BK0477.html"></a>
	</body></html>`

	industries, err := ParseBoardHTML([]byte(html))
	require.NoError(t, err)
	require.Len(t, industries, 2)

	assert.Equal(t, "BK0428", industries[0].Code)
	assert.Equal(t, "电力行业", industries[0].Name)
	assert.Equal(t, "BK1036", industries[1].Code)
	assert.Equal(t, "半导体", industries[1].Name)
}

func TestParseBoardHTML_NoBoards(t *testing.T) {
	_, err := ParseBoardHTML([]byte(`<html><body><a href="/x.html">x</a></body></html>`))
	assert.Error(t, err)
}

func TestPctValue_Unmarshal(t *testing.T) {
	var row struct {
		Pct pctValue `json:"f3"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"f3": 1.25}`), &row))
	assert.InDelta(t, 1.25, float64(row.Pct), 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`{"f3": "-"}`), &row))
	assert.Zero(t, float64(row.Pct))
}
