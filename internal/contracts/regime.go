package contracts

import (
	"fmt"
	"math"
	"time"
)

// Regime is the aggregate market posture: A=risk-on, B=neutral, C=risk-off
type Regime string

const (
	RegimeRiskOn  Regime = "A"
	RegimeNeutral Regime = "B"
	RegimeRiskOff Regime = "C"
)

// Valid reports whether r is a defined regime.
func (r Regime) Valid() bool {
	return r == RegimeRiskOn || r == RegimeNeutral || r == RegimeRiskOff
}

// RegimeDrivers records the core indicator states behind a regime decision
type RegimeDrivers struct {
	Core   map[string]State `json:"core"` // indicator_key -> state, core set only
	Reds   int              `json:"reds"`
	Greens int              `json:"greens"`
}

// RegimeState is the overall classification for one date
// RiskScore 计分规则: G=0, Y=1, R=2; U 按 0 计（不剔除成员）。
type RegimeState struct {
	Date         time.Time     `json:"date"`
	Regime       Regime        `json:"regime"`
	RiskScore    float64       `json:"risk_score"`
	TemplateName string        `json:"template_name"`
	Drivers      RegimeDrivers `json:"drivers"`
}

// AllocationTemplate is a static allocation mapped from a regime
type AllocationTemplate struct {
	Name                string             `json:"template_name"`
	AssetClassWeights   map[string]float64 `json:"asset_class_weights"`
	EquityBucketWeights map[string]float64 `json:"equity_bucket_weights"`
	Overlays            map[string]float64 `json:"overlays"`
}

// weightSumTolerance bounds the acceptable drift of a weight map from 1.0
const weightSumTolerance = 0.01

// Validate checks that the primary weight maps each sum to ~1.0.
// 权重表配置错误属于程序缺陷，直接报错而不是静默修正。
func (t *AllocationTemplate) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("allocation template: name is required")
	}
	if err := validateWeightSum(t.AssetClassWeights); err != nil {
		return fmt.Errorf("template %q asset_class_weights: %w", t.Name, err)
	}
	if len(t.EquityBucketWeights) > 0 {
		if err := validateWeightSum(t.EquityBucketWeights); err != nil {
			return fmt.Errorf("template %q equity_bucket_weights: %w", t.Name, err)
		}
	}
	return nil
}

func validateWeightSum(weights map[string]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("empty weight map")
	}
	var sum float64
	for k, w := range weights {
		if w < 0 {
			return fmt.Errorf("negative weight for %q", k)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights sum to %.4f, want 1.0±%.2f", sum, weightSumTolerance)
	}
	return nil
}

// Snapshot bundles everything valid as of one date for the query path
type Snapshot struct {
	Asof       time.Time           `json:"asof"`
	Indicators []IndicatorState    `json:"indicators"`
	Regime     *RegimeState        `json:"regime,omitempty"`
	Allocation *AllocationTemplate `json:"allocation,omitempty"`
}
