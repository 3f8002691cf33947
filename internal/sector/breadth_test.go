package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/radezheng/marco/internal/contracts"
)

func TestComputeBreadth(t *testing.T) {
	day := contracts.YMD(2025, 7, 1)

	tests := []struct {
		name      string
		returns   []float64
		wantUp    int
		wantTotal int
		wantRatio float64
	}{
		{"mixed returns", []float64{0.02, -0.01, 0.005, 0}, 2, 4, 0.5},
		{"all up", []float64{0.01, 0.02}, 2, 2, 1.0},
		{"all down", []float64{-0.01, -0.02}, 0, 2, 0},
		{"zero counts as not up", []float64{0}, 0, 1, 0},
		{"empty constituents", nil, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ComputeBreadth("BK0428", day, tt.returns)
			assert.Equal(t, "BK0428", b.Code)
			assert.Equal(t, day, b.Date)
			assert.Equal(t, tt.wantUp, b.Up)
			assert.Equal(t, tt.wantTotal, b.Total)
			assert.InDelta(t, tt.wantRatio, b.Ratio, 1e-9)
		})
	}
}
