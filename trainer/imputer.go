package trainer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Imputer fills missing (NaN) feature values with the per-column median of
// the training population. The fitted medians are reused verbatim at scoring
// time; the imputer is never refit on scoring data.
type Imputer struct {
	medians []float64
}

func fitImputer(X [][]float64) *Imputer {
	medians := make([]float64, numFeatures)
	for col := 0; col < numFeatures; col++ {
		vals := make([]float64, 0, len(X))
		for _, row := range X {
			if !math.IsNaN(row[col]) {
				vals = append(vals, row[col])
			}
		}
		if len(vals) == 0 {
			// An all-missing column has no median; 0 is the neutral fill.
			medians[col] = 0
			continue
		}
		sort.Float64s(vals)
		medians[col] = stat.Quantile(0.5, stat.LinInterp, vals, nil)
	}
	return &Imputer{medians: medians}
}

// Transform returns a filled copy; the input rows are left untouched.
func (im *Imputer) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		filled := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				filled[j] = im.medians[j]
			} else {
				filled[j] = v
			}
		}
		out[i] = filled
	}
	return out
}

func (im *Imputer) transformRow(row []float64) []float64 {
	filled := make([]float64, len(row))
	for j, v := range row {
		if math.IsNaN(v) {
			filled[j] = im.medians[j]
		} else {
			filled[j] = v
		}
	}
	return filled
}
