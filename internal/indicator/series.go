package indicator

import (
	"sort"
	"time"

	"github.com/radezheng/marco/internal/contracts"
)

// Point is one dated value of a time series
type Point struct {
	Date  time.Time
	Value float64
}

// Series is a date-ascending sequence of points with unique dates
// 分类核心只依赖显式传入的历史窗口，Series 本身不持有任何共享状态。
type Series []Point

// NewSeries builds a normalized series: dates truncated to UTC day,
// sorted ascending, duplicates resolved by last-write-wins.
func NewSeries(points []Point) Series {
	if len(points) == 0 {
		return nil
	}

	byDate := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDate[contracts.DateOf(p.Date)] = p.Value
	}

	out := make(Series, 0, len(byDate))
	for d, v := range byDate {
		out = append(out, Point{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FromObservations converts repository rows to a Series.
func FromObservations(obs []contracts.Observation) Series {
	points := make([]Point, 0, len(obs))
	for _, o := range obs {
		points = append(points, Point{Date: o.Date, Value: o.Value})
	}
	return NewSeries(points)
}

// Len returns the number of points.
func (s Series) Len() int { return len(s) }

// Empty reports whether the series has no points.
func (s Series) Empty() bool { return len(s) == 0 }

// Last returns the most recent point.
func (s Series) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// At returns the value on an exact date.
func (s Series) At(date time.Time) (float64, bool) {
	d := contracts.DateOf(date)
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(d) })
	if i < len(s) && s[i].Date.Equal(d) {
		return s[i].Value, true
	}
	return 0, false
}

// AsofAt returns the last value at or before date (backward asof lookup).
func (s Series) AsofAt(date time.Time) (float64, bool) {
	d := contracts.DateOf(date)
	i := sort.Search(len(s), func(i int) bool { return s[i].Date.After(d) })
	if i == 0 {
		return 0, false
	}
	return s[i-1].Value, true
}

// IndexOf returns the position of an exact date, or -1.
func (s Series) IndexOf(date time.Time) int {
	d := contracts.DateOf(date)
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(d) })
	if i < len(s) && s[i].Date.Equal(d) {
		return i
	}
	return -1
}

// Between returns the sub-series with from <= date <= to.
func (s Series) Between(from, to time.Time) Series {
	f, t := contracts.DateOf(from), contracts.DateOf(to)
	lo := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(f) })
	hi := sort.Search(len(s), func(i int) bool { return s[i].Date.After(t) })
	if lo >= hi {
		return nil
	}
	return s[lo:hi]
}

// Before returns the sub-series with from <= date < to.
func (s Series) Before(from, to time.Time) Series {
	f, t := contracts.DateOf(from), contracts.DateOf(to)
	lo := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(f) })
	hi := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(t) })
	if lo >= hi {
		return nil
	}
	return s[lo:hi]
}

// Tail returns the last n points (all of them when fewer exist).
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Diff returns first differences between consecutive available observations.
// 注意: 是相邻可用观测之间的差分，不是日历周期差分（WALCL 为周频）。
func (s Series) Diff() Series {
	if len(s) < 2 {
		return nil
	}
	out := make(Series, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		out = append(out, Point{Date: s[i].Date, Value: s[i].Value - s[i-1].Value})
	}
	return out
}

// PeriodReturns returns v[i]/v[i-periods] − 1 by observation position.
func (s Series) PeriodReturns(periods int) Series {
	if periods <= 0 || len(s) <= periods {
		return nil
	}
	out := make(Series, 0, len(s)-periods)
	for i := periods; i < len(s); i++ {
		prev := s[i-periods].Value
		if prev == 0 {
			continue
		}
		out = append(out, Point{Date: s[i].Date, Value: s[i].Value/prev - 1.0})
	}
	return out
}

// Values extracts the value column.
func (s Series) Values() []float64 {
	vals := make([]float64, len(s))
	for i, p := range s {
		vals[i] = p.Value
	}
	return vals
}
