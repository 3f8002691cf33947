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

// RegimeRepository implements contracts.RegimeRepository
// ⭐ SSOT: 市场状态(A/B/C)记录的存取只在这里
type RegimeRepository struct {
	pool *pgxpool.Pool
}

// NewRegimeRepository creates a new regime repository
func NewRegimeRepository(pool *pgxpool.Pool) *RegimeRepository {
	return &RegimeRepository{pool: pool}
}

// Upsert writes one regime decision; reruns overwrite by date.
func (r *RegimeRepository) Upsert(ctx context.Context, state *contracts.RegimeState) error {
	drivers, err := json.Marshal(state.Drivers)
	if err != nil {
		return fmt.Errorf("marshal drivers: %w", err)
	}

	query := `
		INSERT INTO macro.regime_state (state_date, regime, risk_score, template_name, drivers)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (state_date) DO UPDATE SET
			regime = EXCLUDED.regime,
			risk_score = EXCLUDED.risk_score,
			template_name = EXCLUDED.template_name,
			drivers = EXCLUDED.drivers
	`

	_, err = r.pool.Exec(ctx, query,
		contracts.DateOf(state.Date), string(state.Regime), state.RiskScore, state.TemplateName, drivers,
	)
	return err
}

// GetByDate retrieves the regime decision for one date, nil when absent.
func (r *RegimeRepository) GetByDate(ctx context.Context, date time.Time) (*contracts.RegimeState, error) {
	query := `
		SELECT state_date, regime, risk_score, template_name, drivers
		FROM macro.regime_state
		WHERE state_date = $1
	`

	var s contracts.RegimeState
	var regimeStr string
	var drivers []byte
	err := r.pool.QueryRow(ctx, query, contracts.DateOf(date)).Scan(
		&s.Date, &regimeStr, &s.RiskScore, &s.TemplateName, &drivers,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.Regime = contracts.Regime(regimeStr)
	if len(drivers) > 0 {
		if err := json.Unmarshal(drivers, &s.Drivers); err != nil {
			return nil, fmt.Errorf("unmarshal drivers: %w", err)
		}
	}
	return &s, nil
}
