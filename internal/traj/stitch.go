// Package traj reconstructs continuous per-configuration state trajectories
// from the per-replica, per-iteration segments written by a replica-exchange
// expanded-ensemble run. Configurations swap replicas between iterations, so
// the raw segments must be reordered, de-duplicated at iteration boundaries,
// and shifted into the global state-index space before any kinetic analysis.
package traj

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SequenceSource yields the ordered local state-index sequence of one raw
// segment. Implementations own the file format; the stitcher never looks
// inside a segment handle.
type SequenceSource interface {
	Extract(path string) ([]int, error)
}

// ShapeError reports an inconsistency between the segment table, the replica
// assignment, and the shift table.
type ShapeError struct {
	Config    int // configuration index, -1 when not applicable
	Iteration int // 1-based iteration index, 0 when not applicable
	Replica   int // replica index, -1 when not applicable
	Reason    string
}

func (e *ShapeError) Error() string {
	s := "stitch input: " + e.Reason
	if e.Config >= 0 {
		s += fmt.Sprintf(" (configuration %d", e.Config)
		if e.Iteration > 0 {
			s += fmt.Sprintf(", iteration %d", e.Iteration)
		}
		if e.Replica >= 0 {
			s += fmt.Sprintf(", replica %d", e.Replica)
		}
		s += ")"
	}
	return s
}

// Input bundles the three tables the stitcher consumes.
type Input struct {
	// Segments[replica][iteration] is the raw segment handle (a dhdl file
	// path) produced by that replica slot during that iteration.
	Segments [][]string

	// Assignment[config][iteration] is the replica slot the configuration
	// occupied during that iteration.
	Assignment [][]int

	// Shifts[replica] is the offset that places a state index local to that
	// replica's sub-range into the global state-index space.
	Shifts []int
}

// Validate checks the three tables against each other. Every (replica,
// iteration) pair referenced by the assignment must exist in the segment
// table, and every referenced replica must have a shift entry.
func (in Input) Validate() error {
	if len(in.Assignment) == 0 {
		return &ShapeError{Config: -1, Replica: -1, Reason: "empty replica assignment"}
	}
	nIter := len(in.Assignment[0])
	if nIter == 0 {
		return &ShapeError{Config: 0, Replica: -1, Reason: "assignment row has no iterations"}
	}
	for c, row := range in.Assignment {
		if len(row) != nIter {
			return &ShapeError{Config: c, Replica: -1,
				Reason: fmt.Sprintf("assignment row has %d iterations, want %d", len(row), nIter)}
		}
		for j, r := range row {
			if r < 0 || r >= len(in.Segments) {
				return &ShapeError{Config: c, Iteration: j + 1, Replica: r,
					Reason: fmt.Sprintf("replica index out of range [0, %d)", len(in.Segments))}
			}
			if j >= len(in.Segments[r]) || in.Segments[r][j] == "" {
				return &ShapeError{Config: c, Iteration: j + 1, Replica: r,
					Reason: "no segment recorded for referenced replica/iteration"}
			}
			if r >= len(in.Shifts) {
				return &ShapeError{Config: c, Iteration: j + 1, Replica: r,
					Reason: fmt.Sprintf("shift table has %d entries", len(in.Shifts))}
			}
		}
	}
	return nil
}

// Stitch builds one globally-indexed trajectory per configuration.
//
// For each configuration the segments it actually visited are looked up via
// the assignment, extracted through src, and concatenated in iteration order.
// The first sample of every iteration after the first duplicates the final
// sample of the previous iteration (the restart frame) and is dropped. Each
// sample is shifted by the offset of the replica occupied during its
// iteration, not by the configuration identity.
func Stitch(src SequenceSource, in Input) ([][]int, error) {
	return StitchContext(context.Background(), src, in, 1)
}

// StitchContext is Stitch with bounded parallelism across configurations.
// Configurations share no mutable state, so they are stitched on up to
// workers goroutines; the result order always matches the assignment order.
func StitchContext(ctx context.Context, src SequenceSource, in Input, workers int) ([][]int, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	out := make([][]int, len(in.Assignment))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := range in.Assignment {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := stitchOne(src, in, c)
			if err != nil {
				return err
			}
			out[c] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func stitchOne(src SequenceSource, in Input, c int) ([]int, error) {
	var states []int
	for j, r := range in.Assignment[c] {
		seq, err := src.Extract(in.Segments[r][j])
		if err != nil {
			return nil, fmt.Errorf("configuration %d, iteration %d: %w", c, j+1, err)
		}
		if j > 0 && len(seq) > 0 {
			// The first frame of iteration j+1 repeats the last frame of
			// iteration j.
			seq = seq[1:]
		}
		for _, s := range seq {
			states = append(states, s+in.Shifts[r])
		}
	}
	return states, nil
}
