package contracts

import "time"

// RotationState is the four-state rotation label for one sector on one day
// 资金方向 × 价格方向的组合，窗口均为短期（5日）。
type RotationState string

const (
	RotationAccumulation RotationState = "吸筹" // flow in, price down
	RotationMarkup       RotationState = "主升" // flow in, price up
	RotationDistribution RotationState = "派发" // flow out, price up
	RotationFading       RotationState = "退潮" // flow out, price down
	RotationUnknown      RotationState = "未知" // either side undefined
)

// RotationSpeed classifies the day-over-day rank move into an arrow label
type RotationSpeed string

const (
	SpeedStrongUp   RotationSpeed = "strong_up"
	SpeedUp         RotationSpeed = "up"
	SpeedFlat       RotationSpeed = "flat"
	SpeedDown       RotationSpeed = "down"
	SpeedStrongDown RotationSpeed = "strong_down"
)

// SpeedFromRankChange maps rank_change to a rotation speed.
// 符号约定: rank_change = rank(t) − rank(t−1)，负数 = 排名前移（走强）。
func SpeedFromRankChange(change *int) RotationSpeed {
	if change == nil {
		return SpeedFlat
	}
	switch {
	case *change <= -8:
		return SpeedStrongUp
	case *change <= -2:
		return SpeedUp
	case *change >= 8:
		return SpeedStrongDown
	case *change >= 2:
		return SpeedDown
	default:
		return SpeedFlat
	}
}

// SectorDailyMetrics is the per-sector per-day rotation record
type SectorDailyMetrics struct {
	Code string    `json:"code"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`

	MainNet       float64  `json:"main_net"`
	Flow5D        *float64 `json:"flow_5d"`
	Flow10D       *float64 `json:"flow_10d"`
	PriceReturn5D *float64 `json:"price_return_5d"`

	// DivergenceScore: +1 价跌而资金流入（隐性吸筹）, −1 价涨而资金流出（隐性派发）, 0 其他
	DivergenceScore int           `json:"divergence_score"`
	State           RotationState `json:"state"`

	// Rank is the 1-based position by same-day main_net, descending.
	Rank       int  `json:"rank"`
	RankChange *int `json:"rank_change"` // nil when yesterday's rank is undefined
}

// Speed returns the rotation speed arrow for this record.
func (m *SectorDailyMetrics) Speed() RotationSpeed {
	return SpeedFromRankChange(m.RankChange)
}

// SectorTransition is a sector that changed rotation state day-over-day
type SectorTransition struct {
	Code            string        `json:"code"`
	Name            string        `json:"name"`
	State           RotationState `json:"state"`
	PrevState       RotationState `json:"prev_state"`
	Rank            int           `json:"rank"`
	DivergenceScore int           `json:"divergence_score"`
	Speed           RotationSpeed `json:"speed"`
}

// SectorOverview is the aggregated same-day view across all sectors
type SectorOverview struct {
	Date        time.Time            `json:"date"`
	TopInflow   []SectorDailyMetrics `json:"top_inflow"`
	TopOutflow  []SectorDailyMetrics `json:"top_outflow"`
	NewMainline []SectorTransition   `json:"new_mainline"`
	Fading      []SectorTransition   `json:"fading"`
}

// MatrixDirection filters which side of the flow feeds the heatmap
type MatrixDirection string

const (
	DirectionInflow  MatrixDirection = "in"
	DirectionOutflow MatrixDirection = "out"
	DirectionAbs     MatrixDirection = "abs"
)

// Valid reports whether d is a defined direction filter.
func (d MatrixDirection) Valid() bool {
	return d == DirectionInflow || d == DirectionOutflow || d == DirectionAbs
}

// SectorMatrixRow is one sector's strength sequence, aligned with SectorMatrix.Dates
type SectorMatrixRow struct {
	Code   string    `json:"code"`
	Name   string    `json:"name"`
	Values []float64 `json:"values"` // clamped to [-3, 3]
}

// SectorMatrix is the sector × date heatmap payload
type SectorMatrix struct {
	Dates []time.Time       `json:"dates"`
	Rows  []SectorMatrixRow `json:"rows"`
}

// SectorBreadth is the up-ratio of one sector's constituents
type SectorBreadth struct {
	Code  string    `json:"code"`
	Date  time.Time `json:"date"`
	Up    int       `json:"up"`
	Total int       `json:"total"`
	Ratio float64   `json:"ratio"` // Up/Total, 0 when Total is 0
}
