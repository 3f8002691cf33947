package sector

import (
	"time"

	"github.com/radezheng/marco/internal/contracts"
)

// ComputeBreadth counts a sector's constituents with positive short-term
// return. Zero constituents yields a well-formed zero-ratio result.
// 成分股短期涨跌由调用方取数（东财板块成分快照），这里只做占比统计。
func ComputeBreadth(code string, date time.Time, constituentReturns []float64) contracts.SectorBreadth {
	b := contracts.SectorBreadth{
		Code:  code,
		Date:  contracts.DateOf(date),
		Total: len(constituentReturns),
	}
	for _, r := range constituentReturns {
		if r > 0 {
			b.Up++
		}
	}
	if b.Total > 0 {
		b.Ratio = float64(b.Up) / float64(b.Total)
	}
	return b
}
