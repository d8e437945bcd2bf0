package kinetics

import (
	"errors"
	"math"
	"testing"
)

func TestTransitionMatrixNormalized(t *testing.T) {
	got, err := TransitionMatrix([]int{0, 1, 2, 1, 0}, 3, true)
	if err != nil {
		t.Fatalf("TransitionMatrix() error = %v", err)
	}
	want := [][]float64{
		{0, 1, 0},
		{0.5, 0, 0.5},
		{0, 1, 0},
	}
	for i := range want {
		for j := range want[i] {
			if math.Abs(got[i][j]-want[i][j]) > 1e-12 {
				t.Errorf("matrix[%d][%d] = %f, want %f", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestTransitionMatrixCounts(t *testing.T) {
	got, err := TransitionMatrix([]int{0, 1, 1, 0, 1}, 2, false)
	if err != nil {
		t.Fatalf("TransitionMatrix() error = %v", err)
	}
	want := [][]float64{
		{0, 2},
		{1, 1},
	}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("counts[%d][%d] = %f, want %f", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestTransitionMatrixRowStochastic(t *testing.T) {
	traj := []int{0, 3, 1, 0, 2, 2, 1, 3, 0, 1}
	m, err := TransitionMatrix(traj, 6, true)
	if err != nil {
		t.Fatalf("TransitionMatrix() error = %v", err)
	}
	for i, sum := range RowSums(m) {
		// Visited rows sum to 1; rows never transitioned out of stay zero.
		if sum != 0 && math.Abs(sum-1) > 1e-12 {
			t.Errorf("row %d sum = %f, want 0 or 1", i, sum)
		}
	}
	// States 4 and 5 never appear: their rows must be all-zero, not NaN.
	for _, i := range []int{4, 5} {
		for j, v := range m[i] {
			if v != 0 {
				t.Errorf("unvisited row %d col %d = %f, want 0", i, j, v)
			}
			if math.IsNaN(v) {
				t.Errorf("unvisited row %d col %d is NaN", i, j)
			}
		}
	}
}

func TestTransitionMatrixRangeError(t *testing.T) {
	tests := []struct {
		name string
		traj []int
		n    int
	}{
		{"value too large", []int{0, 3}, 3},
		{"negative value", []int{0, -1}, 3},
		{"zero size", []int{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TransitionMatrix(tt.traj, tt.n, true)
			var re *RangeError
			if !errors.As(err, &re) {
				t.Fatalf("TransitionMatrix() error = %v, want *RangeError", err)
			}
		})
	}
}

func TestTransitionMatrixEmptyTrajectory(t *testing.T) {
	m, err := TransitionMatrix(nil, 2, true)
	if err != nil {
		t.Fatalf("TransitionMatrix() error = %v", err)
	}
	for i := range m {
		for j := range m[i] {
			if m[i][j] != 0 {
				t.Errorf("matrix[%d][%d] = %f, want 0", i, j, m[i][j])
			}
		}
	}
}
