package indicator

import (
	"fmt"
	"time"

	"github.com/radezheng/marco/internal/contracts"
)

// CoreIndicatorKeys is the fixed set feeding the regime decision.
// vix_structure 缺失时由 vix_level 顶替（VXV 不可得的回退链）。
var CoreIndicatorKeys = []string{
	contracts.IndicatorLiquidity,
	contracts.IndicatorCreditSpread,
	contracts.IndicatorFundingStress,
	contracts.IndicatorVIXStructure,
}

// RegimeGates parameterizes the A/B/C decision thresholds
type RegimeGates struct {
	MinCore        int // 核心指标少于此数不判 regime
	RedGate        int // R 数达到即 C
	RedGateWithVIX int // R 数达到且波动率结构 R 即 C
}

// DefaultRegimeGates returns the built-in gate thresholds.
func DefaultRegimeGates() RegimeGates {
	return RegimeGates{MinCore: 3, RedGate: 3, RedGateWithVIX: 2}
}

// RegimeClassifier aggregates core indicator states into one regime
// ⭐ SSOT: A/B/C 判定规则只在这里
type RegimeClassifier struct {
	mapper *AllocationMapper
	gates  RegimeGates
}

// NewRegimeClassifier creates a new regime classifier
func NewRegimeClassifier(mapper *AllocationMapper, gates RegimeGates) *RegimeClassifier {
	return &RegimeClassifier{mapper: mapper, gates: gates}
}

// Classify evaluates the priority-ordered regime rules for one date.
// coreStates 只包含核心指标; vixKey 标记波动率结构指标的实际 key
// （vix_structure 或回退后的 vix_level），空串表示两者都缺失。
//
// 规则（按优先级）:
//  1. 全部 G 且核心集 ≥3 个 → A
//  2. R 数 ≥3，或 R 数 ≥2 且波动率结构指标为 R → C
//  3. 其余 → B
func (rc *RegimeClassifier) Classify(date time.Time, coreStates map[string]contracts.State, vixKey string) (*contracts.RegimeState, *contracts.AllocationTemplate, error) {
	if len(coreStates) < rc.gates.MinCore {
		return nil, nil, nil
	}

	reds, greens := 0, 0
	for _, st := range coreStates {
		switch st {
		case contracts.StateRed:
			reds++
		case contracts.StateGreen:
			greens++
		}
	}

	var regime contracts.Regime
	switch {
	case greens == len(coreStates):
		regime = contracts.RegimeRiskOn
	case reds >= rc.gates.RedGate ||
		(reds >= rc.gates.RedGateWithVIX && vixKey != "" && coreStates[vixKey] == contracts.StateRed):
		regime = contracts.RegimeRiskOff
	default:
		regime = contracts.RegimeNeutral
	}

	// risk_score: G=0, Y=1, R=2; U 按 0 计
	var riskScore float64
	for _, st := range coreStates {
		riskScore += st.RiskScore()
	}

	tmpl, err := rc.mapper.TemplateFor(regime)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve template: %w", err)
	}

	drivers := contracts.RegimeDrivers{
		Core:   coreStates,
		Reds:   reds,
		Greens: greens,
	}

	state := &contracts.RegimeState{
		Date:         contracts.DateOf(date),
		Regime:       regime,
		RiskScore:    riskScore,
		TemplateName: tmpl.Name,
		Drivers:      drivers,
	}
	return state, tmpl, nil
}
