package contracts

import (
	"context"
	"time"
)

// Repository interfaces between the classification core and persistence
// ⭐ SSOT: 存储接口只在这里定义，实现在 internal/store

// ObservationRepository persists raw and derived series points
type ObservationRepository interface {
	// UpsertSeries writes points for one series; re-ingestion overwrites by date.
	UpsertSeries(ctx context.Context, seriesKey string, points []Observation) (int, error)

	// GetSeries returns date-ordered points of one series in [from, to].
	GetSeries(ctx context.Context, seriesKey string, from, to time.Time) ([]Observation, error)

	// MaxDate returns the latest observation date <= asof for a series, or false.
	MaxDate(ctx context.Context, seriesKey string, asof time.Time) (time.Time, bool, error)
}

// IndicatorStateRepository persists classified indicator states
type IndicatorStateRepository interface {
	Upsert(ctx context.Context, state *IndicatorState) error
	GetByDate(ctx context.Context, date time.Time) ([]IndicatorState, error)
	GetLatestDate(ctx context.Context, asof time.Time) (time.Time, bool, error)
}

// RegimeRepository persists the daily regime decision
type RegimeRepository interface {
	Upsert(ctx context.Context, state *RegimeState) error
	GetByDate(ctx context.Context, date time.Time) (*RegimeState, error)
}

// SectorIndustry is one tracked industry board (东财行业板块)
type SectorIndustry struct {
	Code string `json:"code"` // e.g. "BK0428"
	Name string `json:"name"`
}

// SectorRepository persists industries and their daily rotation metrics
type SectorRepository interface {
	UpsertIndustries(ctx context.Context, industries []SectorIndustry) error
	ListIndustries(ctx context.Context) ([]SectorIndustry, error)

	UpsertDailyMetrics(ctx context.Context, metrics []SectorDailyMetrics) error
	GetDailyMetrics(ctx context.Context, date time.Time) ([]SectorDailyMetrics, error)
	GetLatestMetricsDate(ctx context.Context, asof time.Time) (time.Time, bool, error)

	// UpsertFlows/UpsertCloses keep the raw per-sector series for window math.
	UpsertFlows(ctx context.Context, code string, points []Observation) (int, error)
	UpsertCloses(ctx context.Context, code string, points []Observation) (int, error)
	GetFlows(ctx context.Context, code string, from, to time.Time) ([]Observation, error)
	GetCloses(ctx context.Context, code string, from, to time.Time) ([]Observation, error)
}
