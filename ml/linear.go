package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// minRcond keeps round-off in exactly collinear columns out of the rank.
const minRcond = 1e-12

// LinearRegression is ordinary least squares with an intercept. The system is
// solved on centred data through a thin SVD, so collinear columns yield the
// minimum-norm solution instead of an error.
type LinearRegression struct {
	Coefficients []float64
	Intercept    float64

	trained bool
}

// NewLinearRegression returns an ordinary least squares model with intercept.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

func (lr *LinearRegression) Fit(features [][]float64, targets []float64) error {
	width, err := validateTrainingSet(features, targets)
	if err != nil {
		return err
	}
	n := len(features)

	colMeans := make([]float64, width)
	for _, row := range features {
		for j, v := range row {
			colMeans[j] += v
		}
	}
	for j := range colMeans {
		colMeans[j] /= float64(n)
	}
	yMean := mean(targets)

	lr.Coefficients = make([]float64, width)
	lr.Intercept = yMean
	if width == 0 {
		lr.trained = true
		return nil
	}

	centred := mat.NewDense(n, width, nil)
	yc := mat.NewVecDense(n, nil)
	for i, row := range features {
		for j, v := range row {
			centred.Set(i, j, v-colMeans[j])
		}
		yc.SetVec(i, targets[i]-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(centred, mat.SVDThin); !ok {
		return errors.New("svd factorization failed")
	}
	rcond := (math.Nextafter(1, 2) - 1) * float64(max(n, width))
	if rcond < minRcond {
		rcond = minRcond
	}
	rank := svd.Rank(rcond)

	var beta mat.VecDense
	if rank > 0 {
		svd.SolveVecTo(&beta, yc, rank)
		for j := 0; j < width; j++ {
			lr.Coefficients[j] = beta.AtVec(j)
		}
	}

	intercept := yMean
	for j, c := range lr.Coefficients {
		intercept -= c * colMeans[j]
	}
	lr.Intercept = intercept
	lr.trained = true
	return nil
}

func (lr *LinearRegression) Predict(features []float64) (float64, error) {
	if !lr.trained {
		return 0, ErrNotTrained
	}
	if len(features) != len(lr.Coefficients) {
		return 0, ErrSizeMismatch
	}
	value := lr.Intercept
	for j, c := range lr.Coefficients {
		value += c * features[j]
	}
	return value, nil
}
