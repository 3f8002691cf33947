package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radezheng/marco/internal/contracts"
)

// IndicatorStateRepository implements contracts.IndicatorStateRepository
// ⭐ SSOT: 指标红绿灯状态的存取只在这里
// details 列是 JSONB，保留分位阈值等判定明细供前端展示。
type IndicatorStateRepository struct {
	pool *pgxpool.Pool
}

// NewIndicatorStateRepository creates a new indicator state repository
func NewIndicatorStateRepository(pool *pgxpool.Pool) *IndicatorStateRepository {
	return &IndicatorStateRepository{pool: pool}
}

// Upsert writes one indicator state; reruns overwrite by (key, date).
func (r *IndicatorStateRepository) Upsert(ctx context.Context, state *contracts.IndicatorState) error {
	details, err := json.Marshal(state.Details)
	if err != nil {
		return fmt.Errorf("marshal details for %s: %w", state.IndicatorKey, err)
	}

	query := `
		INSERT INTO macro.indicator_state (indicator_key, state_date, state, score, details)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (indicator_key, state_date) DO UPDATE SET
			state = EXCLUDED.state,
			score = EXCLUDED.score,
			details = EXCLUDED.details
	`

	_, err = r.pool.Exec(ctx, query,
		state.IndicatorKey, contracts.DateOf(state.Date), string(state.State), state.Score, details,
	)
	return err
}

// GetByDate retrieves all indicator states for one date.
func (r *IndicatorStateRepository) GetByDate(ctx context.Context, date time.Time) ([]contracts.IndicatorState, error) {
	query := `
		SELECT indicator_key, state_date, state, score, details
		FROM macro.indicator_state
		WHERE state_date = $1
		ORDER BY indicator_key ASC
	`

	rows, err := r.pool.Query(ctx, query, contracts.DateOf(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []contracts.IndicatorState
	for rows.Next() {
		var s contracts.IndicatorState
		var stateStr string
		var details []byte
		if err := rows.Scan(&s.IndicatorKey, &s.Date, &stateStr, &s.Score, &details); err != nil {
			return nil, err
		}
		s.State = contracts.State(stateStr)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &s.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details for %s: %w", s.IndicatorKey, err)
			}
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// GetLatestDate returns the most recent classified date <= asof.
func (r *IndicatorStateRepository) GetLatestDate(ctx context.Context, asof time.Time) (time.Time, bool, error) {
	query := `
		SELECT state_date
		FROM macro.indicator_state
		WHERE state_date <= $1
		ORDER BY state_date DESC
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
