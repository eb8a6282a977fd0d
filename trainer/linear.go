package trainer

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"infrascore/features"
)

// linearModel estimates event cost by least squares over the standard
// feature columns plus an intercept. Deterministic by construction: the QR
// solve involves no randomness, unlike the boosted trees it replaces.
type linearModel struct {
	imp  *Imputer
	beta *mat.VecDense // beta[0] is the intercept
}

func trainLinear(X [][]float64, y []float64, imp *Imputer) (*linearModel, error) {
	n := len(X)
	if n == 0 {
		return nil, errors.New("no cost-labeled rows")
	}

	filled := imp.Transform(X)
	flat := make([]float64, 0, n*(numFeatures+1))
	for _, row := range filled {
		flat = append(flat, 1)
		flat = append(flat, row...)
	}
	A := mat.NewDense(n, numFeatures+1, flat)
	b := mat.NewVecDense(n, y)

	var beta mat.VecDense
	if err := beta.SolveVec(A, b); err != nil {
		// An ill-conditioned solve still yields usable coefficients; a rank
		// deficient one does not, and the caller falls back.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("least squares solve: %w", err)
		}
	}

	return &linearModel{imp: imp, beta: &beta}, nil
}

func (m *linearModel) Evaluate(recs []features.Record) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		row := m.imp.transformRow(featureVector(r))
		v := m.beta.AtVec(0)
		for j, x := range row {
			v += m.beta.AtVec(j+1) * x
		}
		out[i] = v
	}
	return out
}
