package sector

import (
	"math"
	"sort"
	"time"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/indicator"
)

// matrixClamp bounds every heatmap cell
const matrixClamp = 3.0

// BuildMatrix produces the sector × date strength heatmap.
// ⭐ SSOT: 热力图标准化只在这里
// 日期轴 = 窗口内所有板块流向日期的并集（升序）。每行先按方向过滤取值，
// 再对该板块自身窗口做 z-score，缺值记 0，最终钳制到 [-3, 3]。
func BuildMatrix(asof time.Time, days int, sectors []contracts.SectorIndustry, flows map[string]indicator.Series, direction contracts.MatrixDirection) *contracts.SectorMatrix {
	dates := windowDates(asof, days, sectors, flows)
	matrix := &contracts.SectorMatrix{
		Dates: dates,
		Rows:  make([]contracts.SectorMatrixRow, 0, len(sectors)),
	}
	if len(dates) == 0 {
		return matrix
	}

	for _, s := range sectors {
		series := flows[s.Code]

		raw := make([]float64, len(dates))
		present := make([]bool, len(dates))
		sample := make([]float64, 0, len(dates))
		for i, d := range dates {
			v, ok := series.At(d)
			if !ok {
				continue
			}
			dv, keep := directional(v, direction)
			if !keep {
				continue
			}
			raw[i] = dv
			present[i] = true
			sample = append(sample, dv)
		}

		mean, sd := meanStd(sample)
		values := make([]float64, len(dates))
		for i := range dates {
			if !present[i] || sd == 0 {
				continue
			}
			values[i] = clamp((raw[i]-mean)/sd, -matrixClamp, matrixClamp)
		}

		matrix.Rows = append(matrix.Rows, contracts.SectorMatrixRow{
			Code:   s.Code,
			Name:   s.Name,
			Values: values,
		})
	}
	return matrix
}

// SelectTopSectors picks the K sectors with the largest directional flow
// magnitude over the window. Ties break by code ascending.
func SelectTopSectors(asof time.Time, days int, sectors []contracts.SectorIndustry, flows map[string]indicator.Series, direction contracts.MatrixDirection, topK int) []contracts.SectorIndustry {
	from := contracts.DateOf(asof).AddDate(0, 0, -days)

	type scored struct {
		industry contracts.SectorIndustry
		score    float64
	}
	ranked := make([]scored, 0, len(sectors))
	for _, s := range sectors {
		var score float64
		for _, p := range flows[s.Code].Between(from, asof) {
			if dv, keep := directional(p.Value, direction); keep {
				score += math.Abs(dv)
			}
		}
		ranked = append(ranked, scored{industry: s, score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].industry.Code < ranked[j].industry.Code
	})

	if topK > 0 && topK < len(ranked) {
		ranked = ranked[:topK]
	}
	out := make([]contracts.SectorIndustry, len(ranked))
	for i, r := range ranked {
		out[i] = r.industry
	}
	return out
}

// windowDates unions the flow dates of all sectors inside the trailing window.
func windowDates(asof time.Time, days int, sectors []contracts.SectorIndustry, flows map[string]indicator.Series) []time.Time {
	from := contracts.DateOf(asof).AddDate(0, 0, -days)

	seen := make(map[time.Time]struct{})
	for _, s := range sectors {
		for _, p := range flows[s.Code].Between(from, asof) {
			seen[p.Date] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// directional applies the in/out/abs filter to a raw flow value.
// 不满足方向的取值不参与该行的统计（记缺值），而不是记 0 压低方差。
func directional(v float64, direction contracts.MatrixDirection) (float64, bool) {
	switch direction {
	case contracts.DirectionInflow:
		return v, v > 0
	case contracts.DirectionOutflow:
		return v, v < 0
	default:
		return math.Abs(v), true
	}
}

func meanStd(vals []float64) (float64, float64) {
	n := len(vals)
	if n == 0 {
		return 0, 0
	}

	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(n)

	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
