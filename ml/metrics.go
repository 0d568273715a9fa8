package ml

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// R2 returns the coefficient of determination of predicted against actual.
// A constant actual series scores 1 for an exact prediction and 0 otherwise.
// Non-finite inputs yield ErrNonFiniteScore rather than a NaN score.
func R2(actual, predicted []float64) (float64, error) {
	if len(actual) == 0 {
		return 0, errors.New("no samples to score")
	}
	if len(actual) != len(predicted) {
		return 0, ErrSizeMismatch
	}

	m := stat.Mean(actual, nil)
	var residual, total float64
	for i, y := range actual {
		d := y - predicted[i]
		residual += d * d
		t := y - m
		total += t * t
	}
	if total == 0 {
		if residual == 0 {
			return 1, nil
		}
		return 0, nil
	}
	score := stat.RSquaredFrom(predicted, actual, nil)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, ErrNonFiniteScore
	}
	return score, nil
}

// TrainTestSplit shuffles 0..n-1 with a fixed seed and returns the train and
// test indices. The test side holds ceil(testRatio*n) rows and is taken from
// the front of the permutation.
func TrainTestSplit(n int, testRatio float64, seed int64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(seed))
	perm := rnd.Perm(n)

	nTest := TestSize(n, testRatio)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test
}

// TestSize is the number of held-out rows for n samples.
func TestSize(n int, testRatio float64) int {
	if n <= 0 {
		return 0
	}
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	// absorb float noise such as 0.2*15 = 3.0000000000000004
	nTest := int(math.Ceil(testRatio*float64(n) - 1e-9))
	if nTest > n {
		nTest = n
	}
	return nTest
}
