package sector

import (
	"sort"
	"time"

	"github.com/radezheng/marco/internal/contracts"
)

// BuildOverview aggregates one day's metrics into the rotation overview.
// ⭐ SSOT: 今日主线/退潮切换判定只在这里
// prevStates 是昨日 code → state 映射；昨日无记录的板块按 未知 对待，
// 因此首日所有 主升 板块都会进入 new_mainline。
func BuildOverview(date time.Time, today []contracts.SectorDailyMetrics, prevStates map[string]contracts.RotationState, topN int) *contracts.SectorOverview {
	overview := &contracts.SectorOverview{
		Date:        contracts.DateOf(date),
		TopInflow:   topByMainNet(today, topN, true),
		TopOutflow:  topByMainNet(today, topN, false),
		NewMainline: transitionsInto(today, prevStates, contracts.RotationMarkup),
		Fading:      transitionsInto(today, prevStates, contracts.RotationFading),
	}
	return overview
}

// topByMainNet sorts by same-day net flow and truncates to n.
func topByMainNet(metrics []contracts.SectorDailyMetrics, n int, descending bool) []contracts.SectorDailyMetrics {
	sorted := make([]contracts.SectorDailyMetrics, len(metrics))
	copy(sorted, metrics)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MainNet != sorted[j].MainNet {
			if descending {
				return sorted[i].MainNet > sorted[j].MainNet
			}
			return sorted[i].MainNet < sorted[j].MainNet
		}
		return sorted[i].Code < sorted[j].Code
	})

	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// transitionsInto lists sectors entering target state today.
func transitionsInto(today []contracts.SectorDailyMetrics, prevStates map[string]contracts.RotationState, target contracts.RotationState) []contracts.SectorTransition {
	out := make([]contracts.SectorTransition, 0)
	for _, m := range today {
		if m.State != target {
			continue
		}
		prev, ok := prevStates[m.Code]
		if !ok {
			prev = contracts.RotationUnknown
		}
		if prev == target {
			continue
		}
		out = append(out, contracts.SectorTransition{
			Code:            m.Code,
			Name:            m.Name,
			State:           m.State,
			PrevState:       prev,
			Rank:            m.Rank,
			DivergenceScore: m.DivergenceScore,
			Speed:           m.Speed(),
		})
	}

	// 固定输出顺序：按当日排名
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
