package strategyconfig

import (
	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/indicator"
)

// Config 宏观指标分类与板块轮动策略的全量参数
// ⭐ SSOT: 策略参数只在这里定义，YAML 覆盖默认值
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Classifier  Classifier  `yaml:"classifier" json:"classifier"`
	Regime      RegimeRules `yaml:"regime" json:"regime"`
	Allocations Allocations `yaml:"allocations" json:"allocations"`
	Sector      Sector      `yaml:"sector" json:"sector"`
}

// Meta 元信息
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Classifier 红绿灯分类参数
type Classifier struct {
	LookbackDays    int       `yaml:"lookback_days" json:"lookback_days"`
	MinObservations int       `yaml:"min_observations" json:"min_observations"`
	Threshold       Quantiles `yaml:"threshold" json:"threshold"`
	Band            Band      `yaml:"band" json:"band"`
	FlatBand        float64   `yaml:"flat_band" json:"flat_band"`
}

type Quantiles struct {
	Q1 float64 `yaml:"q1" json:"q1"` // 黄灯分位
	Q2 float64 `yaml:"q2" json:"q2"` // 红灯分位
}

type Band struct {
	Lo float64 `yaml:"lo" json:"lo"`
	Hi float64 `yaml:"hi" json:"hi"`
}

// RegimeRules A/B/C 判定门槛
type RegimeRules struct {
	MinCore        int `yaml:"min_core" json:"min_core"`
	RedGate        int `yaml:"red_gate" json:"red_gate"`                   // R 数达到即 C
	RedGateWithVIX int `yaml:"red_gate_with_vix" json:"red_gate_with_vix"` // R 数 + 波动率结构 R 即 C
}

// Template 单个仓位模板
type Template struct {
	Name                string             `yaml:"name" json:"name"`
	AssetClassWeights   map[string]float64 `yaml:"asset_class_weights" json:"asset_class_weights"`
	EquityBucketWeights map[string]float64 `yaml:"equity_bucket_weights" json:"equity_bucket_weights"`
	Overlays            map[string]float64 `yaml:"overlays" json:"overlays"`
}

// Allocations 三个 regime 各一个模板
type Allocations struct {
	RiskOn  Template `yaml:"risk_on" json:"risk_on"`
	Neutral Template `yaml:"neutral" json:"neutral"`
	RiskOff Template `yaml:"risk_off" json:"risk_off"`
}

// Sector 板块轮动参数
type Sector struct {
	TopNDefault       int `yaml:"top_n_default" json:"top_n_default"`
	MatrixDaysDefault int `yaml:"matrix_days_default" json:"matrix_days_default"`
	MatrixTopKDefault int `yaml:"matrix_top_k_default" json:"matrix_top_k_default"`
}

// Default returns the built-in parameter set used when no YAML is supplied.
func Default() *Config {
	cc := indicator.DefaultClassifierConfig()

	cfg := &Config{
		Meta: Meta{
			StrategyID: "cn_macro_v1",
			Version:    "1.0",
			Timezone:   "Asia/Shanghai",
		},
		Classifier: Classifier{
			LookbackDays:    cc.LookbackDays,
			MinObservations: cc.MinObservations,
			Threshold:       Quantiles{Q1: cc.Q1, Q2: cc.Q2},
			Band:            Band{Lo: cc.BandLo, Hi: cc.BandHi},
			FlatBand:        cc.FlatBand,
		},
		Regime: RegimeRules{
			MinCore:        3,
			RedGate:        3,
			RedGateWithVIX: 2,
		},
		Sector: Sector{
			TopNDefault:       10,
			MatrixDaysDefault: 20,
			MatrixTopKDefault: 15,
		},
	}

	defaults := indicator.DefaultTemplates()
	cfg.Allocations = Allocations{
		RiskOn:  fromContractTemplate(defaults[contracts.RegimeRiskOn]),
		Neutral: fromContractTemplate(defaults[contracts.RegimeNeutral]),
		RiskOff: fromContractTemplate(defaults[contracts.RegimeRiskOff]),
	}
	return cfg
}

// ClassifierConfig converts the YAML section to the engine's config.
func (c *Config) ClassifierConfig() indicator.ClassifierConfig {
	return indicator.ClassifierConfig{
		LookbackDays:    c.Classifier.LookbackDays,
		MinObservations: c.Classifier.MinObservations,
		Q1:              c.Classifier.Threshold.Q1,
		Q2:              c.Classifier.Threshold.Q2,
		BandLo:          c.Classifier.Band.Lo,
		BandHi:          c.Classifier.Band.Hi,
		FlatBand:        c.Classifier.FlatBand,
		HighIsRiskOff:   true,
	}
}

// RegimeGates converts the YAML section to the engine's gate thresholds.
func (c *Config) RegimeGates() indicator.RegimeGates {
	return indicator.RegimeGates{
		MinCore:        c.Regime.MinCore,
		RedGate:        c.Regime.RedGate,
		RedGateWithVIX: c.Regime.RedGateWithVIX,
	}
}

// Templates converts the YAML allocations to contract templates.
func (c *Config) Templates() map[contracts.Regime]*contracts.AllocationTemplate {
	return map[contracts.Regime]*contracts.AllocationTemplate{
		contracts.RegimeRiskOn:  toContractTemplate(c.Allocations.RiskOn),
		contracts.RegimeNeutral: toContractTemplate(c.Allocations.Neutral),
		contracts.RegimeRiskOff: toContractTemplate(c.Allocations.RiskOff),
	}
}

func toContractTemplate(t Template) *contracts.AllocationTemplate {
	return &contracts.AllocationTemplate{
		Name:                t.Name,
		AssetClassWeights:   t.AssetClassWeights,
		EquityBucketWeights: t.EquityBucketWeights,
		Overlays:            t.Overlays,
	}
}

func fromContractTemplate(t *contracts.AllocationTemplate) Template {
	return Template{
		Name:                t.Name,
		AssetClassWeights:   t.AssetClassWeights,
		EquityBucketWeights: t.EquityBucketWeights,
		Overlays:            t.Overlays,
	}
}
