package contracts

import "time"

// State is the traffic-light classification of one indicator
// G=良性, Y=关注, R=压力, U=数据不足
type State string

const (
	StateGreen   State = "G"
	StateYellow  State = "Y"
	StateRed     State = "R"
	StateUnknown State = "U"
)

// RiskScore maps a state to its contribution in the aggregate risk score.
// U 不参与计分（按 0 计），见 RegimeState 说明。
func (s State) RiskScore() float64 {
	switch s {
	case StateYellow:
		return 1.0
	case StateRed:
		return 2.0
	default:
		return 0.0
	}
}

// Valid reports whether s is one of the four defined states.
func (s State) Valid() bool {
	switch s {
	case StateGreen, StateYellow, StateRed, StateUnknown:
		return true
	}
	return false
}

// ClassificationMode selects how an indicator value is turned into a State
type ClassificationMode string

const (
	ModeThreshold ClassificationMode = "threshold" // p90/p95 分位阈值
	ModeBanded    ClassificationMode = "banded"    // q33/q66 方向带
	ModeStructure ClassificationMode = "structure" // 期限结构斜率
)

// StateDetails is the tagged per-mode detail payload behind a classification.
// 固定为带标签的变体而不是 map，序列化后仍是通用 JSON。
type StateDetails struct {
	Mode ClassificationMode `json:"mode"`

	Threshold *ThresholdDetails `json:"threshold,omitempty"`
	Banded    *BandedDetails    `json:"banded,omitempty"`
	Structure *StructureDetails `json:"structure,omitempty"`

	// Reason is set when State is U ("insufficient_history", "missing_value").
	Reason string `json:"reason,omitempty"`

	// Proxy names a substitute source series (e.g. "vix" when VXV is absent).
	Proxy string `json:"proxy,omitempty"`
}

// ThresholdDetails records the rolling p90/p95 cut points
type ThresholdDetails struct {
	Q1    float64 `json:"q1"` // p90
	Q2    float64 `json:"q2"` // p95
	Value float64 `json:"value"`
}

// BandedDetails records the q_lo/q_hi band and the qualitative label
type BandedDetails struct {
	QLo   float64 `json:"q_lo"`
	QHi   float64 `json:"q_hi"`
	Value float64 `json:"value"`
	Label string  `json:"label"` // net_inject / flat / net_withdraw
}

// StructureDetails records the signed slope and the structure label
type StructureDetails struct {
	Slope     float64 `json:"slope"`
	Structure string  `json:"structure"` // contango / flat / backwardation
}

// IndicatorState is the classified state of one indicator on one date
type IndicatorState struct {
	IndicatorKey string       `json:"indicator_key"`
	Date         time.Time    `json:"date"`
	State        State        `json:"state"`
	Score        *float64     `json:"score"` // nil when State is U
	Details      StateDetails `json:"details"`
}

// Indicator keys emitted by the classification pipeline.
const (
	IndicatorLiquidity     = "synthetic_liquidity"
	IndicatorCreditSpread  = "credit_spread"
	IndicatorFundingStress = "funding_stress"
	IndicatorTreasuryVol   = "treasury_vol"
	IndicatorVIXStructure  = "vix_structure"
	IndicatorVIXLevel      = "vix_level" // fallback when VXV is unavailable
	IndicatorUSDStrength   = "usd_strength"
)
