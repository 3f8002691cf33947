package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
meta:
  strategy_id: cn_macro_v1
  version: "1.0"
  timezone: Asia/Shanghai
classifier:
  lookback_days: 1095
  min_observations: 60
  threshold: {q1: 0.90, q2: 0.95}
  band: {lo: 0.33, hi: 0.66}
  flat_band: 0.25
regime:
  min_core: 3
  red_gate: 3
  red_gate_with_vix: 2
allocations:
  risk_on:
    name: Risk-On
    asset_class_weights: {Equity: 0.60, Rates: 0.10, Credit: 0.15, Cash: 0.05, "Gold&Commodities": 0.10}
    overlays: {FX_HEDGE: 0.20}
  neutral:
    name: Neutral
    asset_class_weights: {Equity: 0.45, Rates: 0.20, Credit: 0.15, Cash: 0.10, "Gold&Commodities": 0.10}
    overlays: {FX_HEDGE: 0.50}
  risk_off:
    name: Risk-Off
    asset_class_weights: {Equity: 0.25, Rates: 0.40, Credit: 0.05, Cash: 0.20, "Gold&Commodities": 0.10}
    overlays: {FX_HEDGE: 0.90}
sector:
  top_n_default: 10
  matrix_days_default: 20
  matrix_top_k_default: 15
`

func TestLoad_Valid(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.NotEmpty(t, raw)

	assert.Equal(t, "cn_macro_v1", cfg.Meta.StrategyID)
	assert.Equal(t, 1095, cfg.Classifier.LookbackDays)
	assert.InDelta(t, 0.95, cfg.Classifier.Threshold.Q2, 1e-9)
	assert.InDelta(t, 0.90, cfg.Allocations.RiskOff.Overlays["FX_HEDGE"], 1e-9)
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	path := writeTempConfig(t, validYAML+"\nsurprise_field: 1\n")

	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadWeightsFails(t *testing.T) {
	bad := writeTempConfig(t, `
meta: {strategy_id: x, version: "1", timezone: UTC}
classifier:
  lookback_days: 1095
  min_observations: 60
  threshold: {q1: 0.90, q2: 0.95}
  band: {lo: 0.33, hi: 0.66}
  flat_band: 0.25
regime: {min_core: 3, red_gate: 3, red_gate_with_vix: 2}
allocations:
  risk_on: {name: A, asset_class_weights: {Equity: 0.5}}
  neutral: {name: B, asset_class_weights: {Equity: 1.0}}
  risk_off: {name: C, asset_class_weights: {Equity: 1.0}}
sector: {top_n_default: 10, matrix_days_default: 20, matrix_top_k_default: 15}
`)

	_, _, err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset_class_weights")
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	cc := cfg.ClassifierConfig()
	assert.Equal(t, 60, cc.MinObservations)
	assert.InDelta(t, 0.90, cc.Q1, 1e-9)
	assert.True(t, cc.HighIsRiskOff)

	templates := cfg.Templates()
	require.Len(t, templates, 3)
	for _, tmpl := range templates {
		assert.NoError(t, tmpl.Validate())
	}
}

func TestLoadOrDefault_EmptyPath(t *testing.T) {
	cfg, raw, err := LoadOrDefault("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Nil(t, raw)
	assert.Equal(t, "cn_macro_v1", cfg.Meta.StrategyID)
}

func TestValidate_RegimeGates(t *testing.T) {
	cfg := Default()
	cfg.Regime.RedGateWithVIX = 5 // exceeds red_gate

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "red_gate_with_vix")
}

func TestHash_Reproducible(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	b, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := Default()
	changed.Classifier.Threshold.Q2 = 0.99
	c, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
