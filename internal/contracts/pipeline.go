package contracts

import "time"

// IngestResult summarizes one full pipeline run
// ⭐ SSOT: ingest → API/调度器 的结果传递
type IngestResult struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// InsertedOrUpdated counts observation rows written (raw + derived).
	InsertedOrUpdated int `json:"inserted_or_updated"`

	// BaseSeriesFetched lists series keys that refreshed successfully.
	BaseSeriesFetched []string `json:"base_series_fetched"`

	// Errors maps a series key (or sector code) to its fetch failure.
	// 单个序列失败不会中止其他指标的分类。
	Errors map[string]string `json:"errors"`

	// Asof is the classification date, nil when no common date exists yet.
	Asof *time.Time `json:"asof"`

	Regime     *RegimeState        `json:"regime,omitempty"`
	Allocation *AllocationTemplate `json:"allocation,omitempty"`
	CoreStates map[string]State    `json:"core_states"`

	// SectorCount is the number of sectors with metrics written for Asof.
	SectorCount int `json:"sector_count"`
}

// HasErrors reports whether any per-key failure was recorded.
func (r *IngestResult) HasErrors() bool {
	return len(r.Errors) > 0
}
