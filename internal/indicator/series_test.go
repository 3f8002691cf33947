package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radezheng/marco/internal/contracts"
)

func TestNewSeries_NormalizesAndDedupes(t *testing.T) {
	// Unsorted input, timestamps with clock parts, duplicate date.
	s := NewSeries([]Point{
		{Date: time.Date(2025, 2, 3, 15, 30, 0, 0, time.UTC), Value: 2},
		{Date: contracts.YMD(2025, 2, 1), Value: 1},
		{Date: time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC), Value: 99},
	})

	require.Len(t, s, 2)
	assert.Equal(t, contracts.YMD(2025, 2, 1), s[0].Date)
	assert.Equal(t, contracts.YMD(2025, 2, 3), s[1].Date)
	// last write wins on the duplicate date
	assert.InDelta(t, 99, s[1].Value, 1e-9)
}

func TestSeries_AtAndAsofAt(t *testing.T) {
	s := seq(contracts.YMD(2025, 2, 1), 1, 2, 3) // 02-01, 02-02, 02-03

	v, ok := s.At(contracts.YMD(2025, 2, 2))
	require.True(t, ok)
	assert.InDelta(t, 2, v, 1e-9)

	_, ok = s.At(contracts.YMD(2025, 2, 5))
	assert.False(t, ok)

	// asof lookup backward-fills from the last prior observation
	v, ok = s.AsofAt(contracts.YMD(2025, 2, 10))
	require.True(t, ok)
	assert.InDelta(t, 3, v, 1e-9)

	_, ok = s.AsofAt(contracts.YMD(2025, 1, 31))
	assert.False(t, ok)
}

func TestSeries_BetweenAndBefore(t *testing.T) {
	s := seq(contracts.YMD(2025, 2, 1), 1, 2, 3, 4, 5)

	between := s.Between(contracts.YMD(2025, 2, 2), contracts.YMD(2025, 2, 4))
	require.Len(t, between, 3)
	assert.InDelta(t, 2, between[0].Value, 1e-9)
	assert.InDelta(t, 4, between[2].Value, 1e-9)

	// Before excludes the upper bound.
	before := s.Before(contracts.YMD(2025, 2, 2), contracts.YMD(2025, 2, 4))
	require.Len(t, before, 2)
	assert.InDelta(t, 3, before[1].Value, 1e-9)

	assert.Nil(t, s.Before(contracts.YMD(2025, 3, 1), contracts.YMD(2025, 3, 10)))
}

func TestSeries_Diff(t *testing.T) {
	// Irregular spacing: diffs pair consecutive observations, not calendar days.
	s := NewSeries([]Point{
		{Date: contracts.YMD(2025, 2, 1), Value: 10},
		{Date: contracts.YMD(2025, 2, 8), Value: 13},
		{Date: contracts.YMD(2025, 2, 22), Value: 9},
	})

	d := s.Diff()
	require.Len(t, d, 2)
	assert.Equal(t, contracts.YMD(2025, 2, 8), d[0].Date)
	assert.InDelta(t, 3, d[0].Value, 1e-9)
	assert.InDelta(t, -4, d[1].Value, 1e-9)

	assert.Nil(t, seq(contracts.YMD(2025, 2, 1), 10).Diff())
}

func TestSeries_PeriodReturns(t *testing.T) {
	s := seq(contracts.YMD(2025, 2, 1), 100, 110, 121)

	r := s.PeriodReturns(1)
	require.Len(t, r, 2)
	assert.InDelta(t, 0.10, r[0].Value, 1e-9)
	assert.InDelta(t, 0.10, r[1].Value, 1e-9)

	r = s.PeriodReturns(2)
	require.Len(t, r, 1)
	assert.InDelta(t, 0.21, r[0].Value, 1e-9)

	assert.Nil(t, s.PeriodReturns(5))
}

func TestSeries_Tail(t *testing.T) {
	s := seq(contracts.YMD(2025, 2, 1), 1, 2, 3, 4)
	assert.Len(t, s.Tail(2), 2)
	assert.Len(t, s.Tail(10), 4)
	assert.InDelta(t, 3, s.Tail(2)[0].Value, 1e-9)
}
