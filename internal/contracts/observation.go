package contracts

import "time"

// Observation is one (series_key, date, value) point of a raw or derived series
// ⭐ SSOT: 观测值数据结构只在这里定义
type Observation struct {
	SeriesKey string    `json:"series_key"`
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Source    string    `json:"source"` // "fred", "eastmoney", "derived"
}

// YMD builds a normalized observation date (UTC midnight).
// 所有日期都用这个约定，避免时区/时分秒漂移导致 key 不一致。
func YMD(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf normalizes an arbitrary timestamp to the observation date convention.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Base series keys fetched from FRED public CSV.
// 注意: 部分序列在 FRED 分发里可能缺失（如 VXV），采集层按 key 记录错误并跳过。
const (
	SeriesWALCL    = "walcl"         // Fed total assets
	SeriesTGA      = "tga"           // Treasury General Account
	SeriesRRP      = "rrp"           // Overnight Reverse Repo
	SeriesSOFR     = "sofr"          // Secured overnight rate
	SeriesEFFR     = "effr"          // Effective funds rate
	SeriesIORB     = "iorb"          // Interest on reserve balances
	SeriesDGS10    = "dgs10"         // 10Y treasury yield
	SeriesVIX      = "vix"           // Near-term implied vol index
	SeriesVXV      = "vxv"           // 3M implied vol index
	SeriesHYOAS    = "hy_oas"        // High yield OAS
	SeriesUSDBroad = "usd_twi_broad" // USD trade-weighted index
)

// Derived series keys produced by the indicator pipeline.
const (
	SeriesLiquidityLevel  = "synthetic_liquidity_level"
	SeriesLiquidityDeltaW = "synthetic_liquidity_delta_w"
	SeriesFundingSpread   = "funding_spread"
	SeriesTreasuryVol20D  = "treasury_realized_vol_20d"
	SeriesVIXSlope        = "vix_slope"
)
