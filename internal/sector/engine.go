package sector

import (
	"sort"
	"time"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/indicator"
	"github.com/radezheng/marco/pkg/logger"
)

// Input is one sector's trailing raw series feeding the rotation engine
type Input struct {
	Code   string
	Name   string
	Flows  indicator.Series // 日度主力净流入
	Closes indicator.Series // 板块收盘指数
}

// Engine computes per-sector rotation metrics for one trading day
// ⭐ SSOT: 板块轮动四态/排名/背离判定只在这里
// 纯函数：同一 (日期, 输入窗口, 昨日排名) 必然得到同一组指标。
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a sector rotation engine
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// flow5DWindow / flow10DWindow are the rolling-sum widths in observations
const (
	flow5DWindow  = 5
	flow10DWindow = 10

	// priceReturnSpan needs span+1 closes: 最新收盘 vs 倒数第 6 根
	priceReturnSpan = 5
)

// ComputeDay builds SectorDailyMetrics for every sector with a defined
// main_net on date. prevRanks carries yesterday's rank per code; sectors
// absent there get a null rank_change.
// 缺当日净流入的板块不产出记录（rank 必须是当日有值板块上的一个排列）。
func (e *Engine) ComputeDay(date time.Time, inputs []Input, prevRanks map[string]int) []contracts.SectorDailyMetrics {
	day := contracts.DateOf(date)

	out := make([]contracts.SectorDailyMetrics, 0, len(inputs))
	for _, in := range inputs {
		mainNet, ok := in.Flows.At(day)
		if !ok {
			continue
		}

		flowWindow := in.Flows.Between(time.Time{}, day)
		flow5d := rollingSum(flowWindow, flow5DWindow)
		flow10d := rollingSum(flowWindow, flow10DWindow)
		priceRet := priceReturn(in.Closes.Between(time.Time{}, day))

		m := contracts.SectorDailyMetrics{
			Code:            in.Code,
			Name:            in.Name,
			Date:            day,
			MainNet:         mainNet,
			Flow5D:          flow5d,
			Flow10D:         flow10d,
			PriceReturn5D:   priceRet,
			State:           rotationState(flow5d, priceRet),
			DivergenceScore: divergenceScore(flow5d, priceRet),
		}
		out = append(out, m)
	}

	rank(out)
	applyRankChange(out, prevRanks)
	return out
}

// rollingSum sums the trailing n observations, or all of them when fewer
// exist. Nil when the window is empty.
func rollingSum(window indicator.Series, n int) *float64 {
	tail := window.Tail(n)
	if tail.Empty() {
		return nil
	}
	var sum float64
	for _, p := range tail {
		sum += p.Value
	}
	return &sum
}

// priceReturn computes close[t]/close[t-5] − 1 over the trailing closes.
// 不足 6 根收盘时无定义。
func priceReturn(closes indicator.Series) *float64 {
	if closes.Len() < priceReturnSpan+1 {
		return nil
	}
	last := closes[closes.Len()-1].Value
	base := closes[closes.Len()-1-priceReturnSpan].Value
	if base == 0 {
		return nil
	}
	ret := last/base - 1.0
	return &ret
}

// rotationState maps the flow/price direction pair onto the four states.
// 任一侧无定义 → 未知。
func rotationState(flow5d, priceRet *float64) contracts.RotationState {
	if flow5d == nil || priceRet == nil {
		return contracts.RotationUnknown
	}

	flowPos := *flow5d > 0
	pricePos := *priceRet > 0
	switch {
	case flowPos && pricePos:
		return contracts.RotationMarkup
	case flowPos && !pricePos:
		return contracts.RotationAccumulation
	case !flowPos && pricePos:
		return contracts.RotationDistribution
	default:
		return contracts.RotationFading
	}
}

// divergenceScore flags price/flow disagreement.
// +1 价跌资金进（隐性吸筹），−1 价涨资金出（隐性派发）。
func divergenceScore(flow5d, priceRet *float64) int {
	if flow5d == nil || priceRet == nil {
		return 0
	}
	switch {
	case *priceRet < 0 && *flow5d > 0:
		return 1
	case *priceRet > 0 && *flow5d < 0:
		return -1
	default:
		return 0
	}
}

// rank assigns the 1-based position by same-day main_net descending.
// 并列按板块代码升序，保证 rank_change 跨日稳定。
func rank(metrics []contracts.SectorDailyMetrics) {
	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].MainNet != metrics[j].MainNet {
			return metrics[i].MainNet > metrics[j].MainNet
		}
		return metrics[i].Code < metrics[j].Code
	})
	for i := range metrics {
		metrics[i].Rank = i + 1
	}
}

// applyRankChange fills rank(t) − rank(t−1); nil when yesterday is unknown.
func applyRankChange(metrics []contracts.SectorDailyMetrics, prevRanks map[string]int) {
	for i := range metrics {
		prev, ok := prevRanks[metrics[i].Code]
		if !ok {
			continue
		}
		change := metrics[i].Rank - prev
		metrics[i].RankChange = &change
	}
}

// RanksByCode extracts the code → rank map for the next day's rank_change.
func RanksByCode(metrics []contracts.SectorDailyMetrics) map[string]int {
	ranks := make(map[string]int, len(metrics))
	for _, m := range metrics {
		ranks[m.Code] = m.Rank
	}
	return ranks
}

// StatesByCode extracts the code → state map for transition detection.
func StatesByCode(metrics []contracts.SectorDailyMetrics) map[string]contracts.RotationState {
	states := make(map[string]contracts.RotationState, len(metrics))
	for _, m := range metrics {
		states[m.Code] = m.State
	}
	return states
}
