package strategyconfig

import (
	"fmt"
	"math"
)

// ValidationError 校验失败（程序中止级别）
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints.
// 失败即返回 error，由调用方决定是否中止。
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Classifier ===
	if cfg.Classifier.LookbackDays <= 0 {
		return ValidationError{"classifier.lookback_days", "must be > 0"}
	}
	if cfg.Classifier.MinObservations <= 1 {
		return ValidationError{"classifier.min_observations", "must be > 1"}
	}
	if err := validateQuantile("classifier.threshold.q1", cfg.Classifier.Threshold.Q1); err != nil {
		return err
	}
	if err := validateQuantile("classifier.threshold.q2", cfg.Classifier.Threshold.Q2); err != nil {
		return err
	}
	if cfg.Classifier.Threshold.Q1 >= cfg.Classifier.Threshold.Q2 {
		return ValidationError{"classifier.threshold", "q1 must be < q2"}
	}
	if err := validateQuantile("classifier.band.lo", cfg.Classifier.Band.Lo); err != nil {
		return err
	}
	if err := validateQuantile("classifier.band.hi", cfg.Classifier.Band.Hi); err != nil {
		return err
	}
	if cfg.Classifier.Band.Lo >= cfg.Classifier.Band.Hi {
		return ValidationError{"classifier.band", "lo must be < hi"}
	}
	if cfg.Classifier.FlatBand < 0 {
		return ValidationError{"classifier.flat_band", "must be >= 0"}
	}

	// === Regime ===
	if cfg.Regime.MinCore < 1 {
		return ValidationError{"regime.min_core", "must be >= 1"}
	}
	if cfg.Regime.RedGate < 1 {
		return ValidationError{"regime.red_gate", "must be >= 1"}
	}
	if cfg.Regime.RedGateWithVIX < 1 || cfg.Regime.RedGateWithVIX > cfg.Regime.RedGate {
		return ValidationError{"regime.red_gate_with_vix", "must be in [1, red_gate]"}
	}

	// === Allocations ===
	for _, tc := range []struct {
		field string
		tmpl  Template
	}{
		{"allocations.risk_on", cfg.Allocations.RiskOn},
		{"allocations.neutral", cfg.Allocations.Neutral},
		{"allocations.risk_off", cfg.Allocations.RiskOff},
	} {
		if err := validateTemplate(tc.field, tc.tmpl); err != nil {
			return err
		}
	}

	// === Sector ===
	if cfg.Sector.TopNDefault <= 0 {
		return ValidationError{"sector.top_n_default", "must be > 0"}
	}
	if cfg.Sector.MatrixDaysDefault <= 0 {
		return ValidationError{"sector.matrix_days_default", "must be > 0"}
	}
	if cfg.Sector.MatrixTopKDefault <= 0 {
		return ValidationError{"sector.matrix_top_k_default", "must be > 0"}
	}

	return nil
}

func validateQuantile(field string, q float64) error {
	if q <= 0 || q >= 1 {
		return ValidationError{field, "must be in (0, 1)"}
	}
	return nil
}

// validateTemplate requires the main weight block to sum to 1.0.
func validateTemplate(field string, t Template) error {
	if t.Name == "" {
		return ValidationError{field + ".name", "required"}
	}
	if len(t.AssetClassWeights) == 0 {
		return ValidationError{field + ".asset_class_weights", "required"}
	}

	if err := validateWeightsSum(field+".asset_class_weights", t.AssetClassWeights); err != nil {
		return err
	}
	if len(t.EquityBucketWeights) > 0 {
		if err := validateWeightsSum(field+".equity_bucket_weights", t.EquityBucketWeights); err != nil {
			return err
		}
	}
	for name, w := range t.Overlays {
		if w < 0 || w > 1 {
			return ValidationError{field + ".overlays." + name, "must be in [0, 1]"}
		}
	}
	return nil
}

func validateWeightsSum(field string, weights map[string]float64) error {
	var sum float64
	for name, w := range weights {
		if w < 0 {
			return ValidationError{field + "." + name, "must be >= 0"}
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 0.01 {
		return ValidationError{field, fmt.Sprintf("weights must sum to 1.0, got %.4f", sum)}
	}
	return nil
}
