package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radezheng/marco/internal/contracts"
)

// ObservationRepository implements contracts.ObservationRepository
// ⭐ SSOT: 原始/衍生序列的存取只在这里
type ObservationRepository struct {
	pool *pgxpool.Pool
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(pool *pgxpool.Pool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

// UpsertSeries writes points for one series; re-ingestion overwrites by date.
func (r *ObservationRepository) UpsertSeries(ctx context.Context, seriesKey string, points []contracts.Observation) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO macro.observation (series_key, obs_date, value, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (series_key, obs_date) DO UPDATE SET
			value = EXCLUDED.value,
			source = EXCLUDED.source
	`

	count := 0
	for _, p := range points {
		if _, err := r.pool.Exec(ctx, query, seriesKey, contracts.DateOf(p.Date), p.Value, p.Source); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// GetSeries returns date-ordered points of one series in [from, to].
func (r *ObservationRepository) GetSeries(ctx context.Context, seriesKey string, from, to time.Time) ([]contracts.Observation, error) {
	query := `
		SELECT series_key, obs_date, value, source
		FROM macro.observation
		WHERE series_key = $1 AND obs_date BETWEEN $2 AND $3
		ORDER BY obs_date ASC
	`

	rows, err := r.pool.Query(ctx, query, seriesKey, contracts.DateOf(from), contracts.DateOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []contracts.Observation
	for rows.Next() {
		var o contracts.Observation
		if err := rows.Scan(&o.SeriesKey, &o.Date, &o.Value, &o.Source); err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// MaxDate returns the latest observation date <= asof for a series.
func (r *ObservationRepository) MaxDate(ctx context.Context, seriesKey string, asof time.Time) (time.Time, bool, error) {
	query := `
		SELECT obs_date
		FROM macro.observation
		WHERE series_key = $1 AND obs_date <= $2
		ORDER BY obs_date DESC
		LIMIT 1
	`

	var d time.Time
	err := r.pool.QueryRow(ctx, query, seriesKey, contracts.DateOf(asof)).Scan(&d)
	if err == pgx.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}
