package sector

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/indicator"
)

func TestEngine_RankPermutation_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	day := contracts.YMD(2025, 7, 1)

	properties.Property("当日 rank 是 1..N 的排列，无空洞无重复", prop.ForAll(
		func(flows []float64) bool {
			e := NewEngine(nil)

			inputs := make([]Input, 0, len(flows))
			for i, f := range flows {
				inputs = append(inputs, Input{
					Code:  code(i),
					Name:  code(i),
					Flows: flowSeries(day, f),
				})
			}

			metrics := e.ComputeDay(day, inputs, nil)
			if len(metrics) != len(flows) {
				return false
			}

			seen := make(map[int]bool, len(metrics))
			for _, m := range metrics {
				if m.Rank < 1 || m.Rank > len(metrics) || seen[m.Rank] {
					return false
				}
				seen[m.Rank] = true
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-1e6, 1e6)),
	))

	properties.Property("排名按当日净流入降序单调", prop.ForAll(
		func(flows []float64) bool {
			e := NewEngine(nil)

			inputs := make([]Input, 0, len(flows))
			for i, f := range flows {
				inputs = append(inputs, Input{Code: code(i), Name: code(i), Flows: flowSeries(day, f)})
			}

			metrics := e.ComputeDay(day, inputs, nil)
			sort.Slice(metrics, func(i, j int) bool { return metrics[i].Rank < metrics[j].Rank })
			for i := 1; i < len(metrics); i++ {
				if metrics[i-1].MainNet < metrics[i].MainNet {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-1e6, 1e6)),
	))

	properties.TestingRun(t)
}

func TestBuildMatrix_Clamp_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	asof := contracts.YMD(2025, 7, 10)

	properties.Property("热力图所有格子都落在 [-3, 3]", prop.ForAll(
		func(flows []float64) bool {
			sectors := []contracts.SectorIndustry{{Code: "BK0001", Name: "甲"}}
			series := map[string]indicator.Series{"BK0001": flowSeries(asof, flows...)}

			for _, dir := range []contracts.MatrixDirection{contracts.DirectionInflow, contracts.DirectionOutflow, contracts.DirectionAbs} {
				m := BuildMatrix(asof, len(flows)+1, sectors, series, dir)
				for _, row := range m.Rows {
					if len(row.Values) != len(m.Dates) {
						return false
					}
					for _, v := range row.Values {
						if v < -3.0 || v > 3.0 {
							return false
						}
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-1e9, 1e9)),
	))

	properties.TestingRun(t)
}

func TestSpeedFromRankChange_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("速度箭头与 rank_change 符号一致", prop.ForAll(
		func(change int) bool {
			speed := contracts.SpeedFromRankChange(&change)
			switch {
			case change <= -8:
				return speed == contracts.SpeedStrongUp
			case change <= -2:
				return speed == contracts.SpeedUp
			case change >= 8:
				return speed == contracts.SpeedStrongDown
			case change >= 2:
				return speed == contracts.SpeedDown
			default:
				return speed == contracts.SpeedFlat
			}
		},
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}

// code renders a deterministic board code for generated inputs.
func code(i int) string {
	const digits = "0123456789"
	return "BK" + string([]byte{
		digits[(i/1000)%10],
		digits[(i/100)%10],
		digits[(i/10)%10],
		digits[i%10],
	})
}
