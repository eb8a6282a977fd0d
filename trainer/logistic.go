package trainer

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"infrascore/features"
)

// Full-batch gradient descent settings. Fixed so that identical inputs train
// identical weights.
const (
	logisticEpochs = 500
	logisticRate   = 0.1
	logisticL2     = 1e-4
)

// logisticModel is a class-weight-balanced logistic classifier over the
// standard feature columns. It carries its training-time imputer and
// standardization parameters so scoring reuses them unchanged.
type logisticModel struct {
	imp     *Imputer
	mean    []float64
	std     []float64
	weights *mat.VecDense
	bias    float64
}

func trainLogistic(X [][]float64, y []float64, imp *Imputer) *logisticModel {
	filled := imp.Transform(X)
	n := len(filled)

	mean := make([]float64, numFeatures)
	std := make([]float64, numFeatures)
	col := make([]float64, n)
	for j := 0; j < numFeatures; j++ {
		for i := range filled {
			col[i] = filled[i][j]
		}
		m, s := stat.MeanStdDev(col, nil)
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		mean[j] = m
		std[j] = s
	}

	flat := make([]float64, 0, n*numFeatures)
	for _, row := range filled {
		for j, v := range row {
			flat = append(flat, (v-mean[j])/std[j])
		}
	}
	A := mat.NewDense(n, numFeatures, flat)

	// Balanced class weights, sklearn style: n / (2 * class count).
	pos := 0.0
	for _, v := range y {
		pos += v
	}
	neg := float64(n) - pos
	wPos, wNeg := 1.0, 1.0
	if pos > 0 && neg > 0 {
		wPos = float64(n) / (2 * pos)
		wNeg = float64(n) / (2 * neg)
	}
	totalW := wPos*pos + wNeg*neg

	w := mat.NewVecDense(numFeatures, nil)
	bias := 0.0
	z := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(numFeatures, nil)

	for epoch := 0; epoch < logisticEpochs; epoch++ {
		z.MulVec(A, w)
		gradBias := 0.0
		for i := 0; i < n; i++ {
			p := sigmoid(z.AtVec(i) + bias)
			sw := wNeg
			if y[i] == 1 {
				sw = wPos
			}
			r := sw * (p - y[i])
			resid.SetVec(i, r)
			gradBias += r
		}
		grad.MulVec(A.T(), resid)
		grad.ScaleVec(1/totalW, grad)
		grad.AddScaledVec(grad, logisticL2, w)
		w.AddScaledVec(w, -logisticRate, grad)
		bias -= logisticRate * gradBias / totalW
	}

	return &logisticModel{imp: imp, mean: mean, std: std, weights: w, bias: bias}
}

func (m *logisticModel) Evaluate(recs []features.Record) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		row := m.imp.transformRow(featureVector(r))
		z := m.bias
		for j, v := range row {
			z += m.weights.AtVec(j) * (v - m.mean[j]) / m.std[j]
		}
		out[i] = sigmoid(z)
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
