package indicator

import (
	"fmt"

	"github.com/radezheng/marco/internal/contracts"
)

// AllocationMapper is a pure regime → template lookup
// ⭐ SSOT: 仓位模板映射只在这里
// 模板在构造时校验一次（主权重和 ≈1.0）；查到未定义 regime 属于配置缺陷，直接报错。
type AllocationMapper struct {
	templates map[contracts.Regime]*contracts.AllocationTemplate
}

// NewAllocationMapper validates and indexes the templates by regime.
func NewAllocationMapper(templates map[contracts.Regime]*contracts.AllocationTemplate) (*AllocationMapper, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("allocation mapper: no templates configured")
	}

	for regime, tmpl := range templates {
		if !regime.Valid() {
			return nil, fmt.Errorf("allocation mapper: unknown regime %q", regime)
		}
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("allocation mapper: %w", err)
		}
	}

	return &AllocationMapper{templates: templates}, nil
}

// TemplateFor resolves the template for a regime.
func (m *AllocationMapper) TemplateFor(regime contracts.Regime) (*contracts.AllocationTemplate, error) {
	tmpl, ok := m.templates[regime]
	if !ok {
		return nil, fmt.Errorf("no allocation template for regime %q", regime)
	}
	return tmpl, nil
}

// DefaultTemplates returns the built-in allocation tables.
// 数值与策略文档一致；可被 strategyconfig YAML 覆盖。
func DefaultTemplates() map[contracts.Regime]*contracts.AllocationTemplate {
	return map[contracts.Regime]*contracts.AllocationTemplate{
		contracts.RegimeRiskOn: {
			Name: "Risk-On",
			AssetClassWeights: map[string]float64{
				"Equity":           0.60,
				"Rates":            0.10,
				"Credit":           0.15,
				"Cash":             0.05,
				"Gold&Commodities": 0.10,
			},
			EquityBucketWeights: map[string]float64{
				"Tech+CommSvcs":        0.25,
				"ConsDisc":             0.15,
				"Industrials":          0.15,
				"Financials":           0.12,
				"Materials":            0.08,
				"Energy":               0.08,
				"HealthCare":           0.10,
				"Staples+Utilities+RE": 0.07,
			},
			Overlays: map[string]float64{"FX_HEDGE": 0.20},
		},
		contracts.RegimeNeutral: {
			Name: "Neutral",
			AssetClassWeights: map[string]float64{
				"Equity":           0.45,
				"Rates":            0.20,
				"Credit":           0.15,
				"Cash":             0.10,
				"Gold&Commodities": 0.10,
			},
			EquityBucketWeights: map[string]float64{
				"Tech+CommSvcs":        0.18,
				"ConsDisc":             0.10,
				"Industrials":          0.12,
				"Financials":           0.12,
				"Materials":            0.08,
				"Energy":               0.06,
				"HealthCare":           0.14,
				"Staples+Utilities+RE": 0.20,
			},
			Overlays: map[string]float64{"FX_HEDGE": 0.50},
		},
		contracts.RegimeRiskOff: {
			Name: "Risk-Off",
			AssetClassWeights: map[string]float64{
				"Equity":           0.25,
				"Rates":            0.40,
				"Credit":           0.05,
				"Cash":             0.20,
				"Gold&Commodities": 0.10,
			},
			EquityBucketWeights: map[string]float64{
				"Tech+CommSvcs":        0.12,
				"ConsDisc":             0.05,
				"Industrials":          0.08,
				"Financials":           0.08,
				"Materials":            0.05,
				"Energy":               0.04,
				"HealthCare":           0.22,
				"Staples+Utilities+RE": 0.36,
			},
			Overlays: map[string]float64{"FX_HEDGE": 0.90},
		},
	}
}
