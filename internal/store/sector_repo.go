package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radezheng/marco/internal/contracts"
)

// SectorRepository implements contracts.SectorRepository
// ⭐ SSOT: 板块及轮动指标的存取只在这里
// flow/close 原始序列单独落表，窗口计算在引擎侧完成。
type SectorRepository struct {
	pool *pgxpool.Pool
}

// NewSectorRepository creates a new sector repository
func NewSectorRepository(pool *pgxpool.Pool) *SectorRepository {
	return &SectorRepository{pool: pool}
}

// UpsertIndustries refreshes the tracked industry board list.
func (r *SectorRepository) UpsertIndustries(ctx context.Context, industries []contracts.SectorIndustry) error {
	query := `
		INSERT INTO sector.industry (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name
	`

	for _, ind := range industries {
		if _, err := r.pool.Exec(ctx, query, ind.Code, ind.Name); err != nil {
			return err
		}
	}
	return nil
}

// ListIndustries returns all tracked industry boards.
func (r *SectorRepository) ListIndustries(ctx context.Context) ([]contracts.SectorIndustry, error) {
	query := `SELECT code, name FROM sector.industry ORDER BY code ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var industries []contracts.SectorIndustry
	for rows.Next() {
		var ind contracts.SectorIndustry
		if err := rows.Scan(&ind.Code, &ind.Name); err != nil {
			return nil, err
		}
		industries = append(industries, ind)
	}
	return industries, rows.Err()
}

// UpsertDailyMetrics writes one day's rotation metrics; reruns overwrite.
func (r *SectorRepository) UpsertDailyMetrics(ctx context.Context, metrics []contracts.SectorDailyMetrics) error {
	query := `
		INSERT INTO sector.daily_metrics (
			code, name, metric_date, main_net, flow_5d, flow_10d,
			price_return_5d, divergence_score, state, rank, rank_change
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (code, metric_date) DO UPDATE SET
			name = EXCLUDED.name,
			main_net = EXCLUDED.main_net,
			flow_5d = EXCLUDED.flow_5d,
			flow_10d = EXCLUDED.flow_10d,
			price_return_5d = EXCLUDED.price_return_5d,
			divergence_score = EXCLUDED.divergence_score,
			state = EXCLUDED.state,
			rank = EXCLUDED.rank,
			rank_change = EXCLUDED.rank_change
	`

	for _, m := range metrics {
		_, err := r.pool.Exec(ctx, query,
			m.Code, m.Name, contracts.DateOf(m.Date), m.MainNet, m.Flow5D, m.Flow10D,
			m.PriceReturn5D, m.DivergenceScore, string(m.State), m.Rank, m.RankChange,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetDailyMetrics retrieves all sectors' metrics for one date, rank ascending.
func (r *SectorRepository) GetDailyMetrics(ctx context.Context, date time.Time) ([]contracts.SectorDailyMetrics, error) {
	query := `
		SELECT code, name, metric_date, main_net, flow_5d, flow_10d,
			price_return_5d, divergence_score, state, rank, rank_change
		FROM sector.daily_metrics
		WHERE metric_date = $1
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, query, contracts.DateOf(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []contracts.SectorDailyMetrics
	for rows.Next() {
		var m contracts.SectorDailyMetrics
		var stateStr string
		err := rows.Scan(
			&m.Code, &m.Name, &m.Date, &m.MainNet, &m.Flow5D, &m.Flow10D,
			&m.PriceReturn5D, &m.DivergenceScore, &stateStr, &m.Rank, &m.RankChange,
		)
		if err != nil {
			return nil, err
		}
		m.State = contracts.RotationState(stateStr)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// GetLatestMetricsDate returns the most recent metrics date <= asof.
func (r *SectorRepository) GetLatestMetricsDate(ctx context.Context, asof time.Time) (time.Time, bool, error) {
	query := `
		SELECT metric_date
		FROM sector.daily_metrics
		WHERE metric_date <= $1
		ORDER BY metric_date DESC
		LIMIT 1
	`

	var d time.Time
	err := r.pool.QueryRow(ctx, query, contracts.DateOf(asof)).Scan(&d)
	if err == pgx.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}

// UpsertFlows writes one sector's daily main-net series.
func (r *SectorRepository) UpsertFlows(ctx context.Context, code string, points []contracts.Observation) (int, error) {
	return r.upsertSeries(ctx, "sector.flow", code, points)
}

// UpsertCloses writes one sector's daily close series.
func (r *SectorRepository) UpsertCloses(ctx context.Context, code string, points []contracts.Observation) (int, error) {
	return r.upsertSeries(ctx, "sector.close", code, points)
}

// GetFlows returns one sector's flow points in [from, to].
func (r *SectorRepository) GetFlows(ctx context.Context, code string, from, to time.Time) ([]contracts.Observation, error) {
	return r.getSeries(ctx, "sector.flow", code, from, to)
}

// GetCloses returns one sector's close points in [from, to].
func (r *SectorRepository) GetCloses(ctx context.Context, code string, from, to time.Time) ([]contracts.Observation, error) {
	return r.getSeries(ctx, "sector.close", code, from, to)
}

func (r *SectorRepository) upsertSeries(ctx context.Context, table, code string, points []contracts.Observation) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO ` + table + ` (code, obs_date, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (code, obs_date) DO UPDATE SET
			value = EXCLUDED.value
	`

	count := 0
	for _, p := range points {
		if _, err := r.pool.Exec(ctx, query, code, contracts.DateOf(p.Date), p.Value); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (r *SectorRepository) getSeries(ctx context.Context, table, code string, from, to time.Time) ([]contracts.Observation, error) {
	query := `
		SELECT code, obs_date, value
		FROM ` + table + `
		WHERE code = $1 AND obs_date BETWEEN $2 AND $3
		ORDER BY obs_date ASC
	`

	rows, err := r.pool.Query(ctx, query, code, contracts.DateOf(from), contracts.DateOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []contracts.Observation
	for rows.Next() {
		var o contracts.Observation
		if err := rows.Scan(&o.SeriesKey, &o.Date, &o.Value); err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

var _ contracts.SectorRepository = (*SectorRepository)(nil)
var _ contracts.ObservationRepository = (*ObservationRepository)(nil)
var _ contracts.IndicatorStateRepository = (*IndicatorStateRepository)(nil)
var _ contracts.RegimeRepository = (*RegimeRepository)(nil)
