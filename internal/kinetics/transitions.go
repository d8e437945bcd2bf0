// Package kinetics derives kinetic statistics from stitched trajectories:
// transition matrices over state or replica space, and boundary-to-boundary
// transit and round-trip times.
package kinetics

import "fmt"

// RangeError reports a trajectory value outside the declared index range.
type RangeError struct {
	Frame int // position in the trajectory
	Value int
	N     int // declared range is [0, N)
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("trajectory frame %d: index %d outside [0, %d)", e.Frame, e.Value, e.N)
}

// checkRange verifies every trajectory value lies in [0, n).
func checkRange(trajectory []int, n int) error {
	for i, v := range trajectory {
		if v < 0 || v >= n {
			return &RangeError{Frame: i, Value: v, N: n}
		}
	}
	return nil
}

// TransitionMatrix counts one-step transitions in a trajectory and returns
// an n×n matrix. With normalize, each row is divided by its sum so that row
// i holds the empirical probability of stepping from i to j; rows with no
// outgoing transitions stay all-zero rather than 0/0.
//
// The trajectory may be in state space or replica space; the matrix only
// sees integer indices.
func TransitionMatrix(trajectory []int, n int, normalize bool) ([][]float64, error) {
	if n < 1 {
		return nil, &RangeError{Frame: -1, Value: 0, N: n}
	}
	if err := checkRange(trajectory, n); err != nil {
		return nil, err
	}

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for t := 1; t < len(trajectory); t++ {
		m[trajectory[t-1]][trajectory[t]]++
	}

	if normalize {
		for i := range m {
			var sum float64
			for _, v := range m[i] {
				sum += v
			}
			if sum == 0 {
				continue
			}
			for j := range m[i] {
				m[i][j] /= sum
			}
		}
	}
	return m, nil
}

// RowSums returns the per-row totals of a matrix, useful for spotting
// states that were never transitioned out of.
func RowSums(m [][]float64) []float64 {
	sums := make([]float64, len(m))
	for i, row := range m {
		for _, v := range row {
			sums[i] += v
		}
	}
	return sums
}
