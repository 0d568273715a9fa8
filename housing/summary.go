package housing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ColumnStats mirrors a describe() row. Std is nil for fewer than two values.
type ColumnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Std    *float64 `json:"std"`
	Min    float64  `json:"min"`
	P25    float64  `json:"25%"`
	P50    float64  `json:"50%"`
	P75    float64  `json:"75%"`
	Max    float64  `json:"max"`
}

// Summary describes every numeric column, in header order.
func (ds *Dataset) Summary() []ColumnStats {
	columns := ds.NumericColumns()
	out := make([]ColumnStats, 0, len(columns))
	for _, name := range columns {
		values, present, err := ds.Numeric(name)
		if err != nil {
			continue
		}
		observed := make([]float64, 0, len(values))
		for i, v := range values {
			if present[i] {
				observed = append(observed, v)
			}
		}
		out = append(out, describe(name, observed))
	}
	return out
}

func describe(name string, values []float64) ColumnStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := ColumnStats{
		Column: name,
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P25:    quantile(sorted, 0.25),
		P50:    quantile(sorted, 0.50),
		P75:    quantile(sorted, 0.75),
	}
	if len(sorted) > 1 {
		m, std := stat.MeanStdDev(sorted, nil)
		s.Mean = m
		s.Std = &std
	} else {
		s.Mean = sorted[0]
	}
	return s
}

// quantile interpolates linearly between closest ranks at p*(n-1).
// gonum's LinInterp uses a different plotting position, so describe()
// percentiles would not line up with it.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	frac := pos - lo
	return sorted[int(lo)] + frac*(sorted[int(hi)]-sorted[int(lo)])
}
