package ml

import (
	"math"
	"sort"
	"testing"
)

func TestR2(t *testing.T) {
	tests := []struct {
		name      string
		actual    []float64
		predicted []float64
		want      float64
	}{
		{"perfect", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"mean baseline", []float64{1, 2, 3}, []float64{2, 2, 2}, 0},
		{"worse than mean", []float64{1, 2, 3}, []float64{3, 2, 1}, -3},
		{"constant exact", []float64{4, 4}, []float64{4, 4}, 1},
		{"constant miss", []float64{4, 4}, []float64{4, 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2(tt.actual, tt.predicted)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("R2() = %f, want %f", got, tt.want)
			}
		})
	}

	if _, err := R2(nil, nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := R2([]float64{1}, []float64{1, 2}); err != ErrSizeMismatch {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
	if _, err := R2([]float64{1, 2, 3}, []float64{1, math.NaN(), 3}); err != ErrNonFiniteScore {
		t.Errorf("expected ErrNonFiniteScore for NaN prediction, got %v", err)
	}
	if _, err := R2([]float64{1, math.Inf(1), 3}, []float64{1, 2, 3}); err != ErrNonFiniteScore {
		t.Errorf("expected ErrNonFiniteScore for infinite actual, got %v", err)
	}
}

func TestTrainTestSplit(t *testing.T) {
	for _, n := range []int{1, 5, 10, 15, 101} {
		train, test := TrainTestSplit(n, 0.2, 42)
		if len(train)+len(test) != n {
			t.Fatalf("n=%d: train+test = %d", n, len(train)+len(test))
		}
		if len(test) != TestSize(n, 0.2) {
			t.Fatalf("n=%d: unexpected test size %d", n, len(test))
		}
		all := append(append([]int(nil), train...), test...)
		sort.Ints(all)
		for i, v := range all {
			if v != i {
				t.Fatalf("n=%d: indices are not a permutation: %v", n, all)
			}
		}
	}

	a, b := TrainTestSplit(50, 0.2, 42)
	c, d := TrainTestSplit(50, 0.2, 42)
	for i := range a {
		if a[i] != c[i] {
			t.Fatal("same seed produced different train indices")
		}
	}
	for i := range b {
		if b[i] != d[i] {
			t.Fatal("same seed produced different test indices")
		}
	}
}

func TestTestSize(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{4, 1},
		{5, 1},
		{10, 2},
		{15, 3},
		{21613, 4323},
	}
	for _, tt := range tests {
		if got := TestSize(tt.n, 0.2); got != tt.want {
			t.Errorf("TestSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
