package traj

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DiscoverSegments builds the [replica][iteration] segment table for an
// expanded-ensemble run directory laid out as
//
//	root/sim_<replica>/iteration_<n>/dhdl.xvg
//
// with replicas and iterations both numbered from 1 on disk. Missing files
// surface as a ShapeError so that a truncated run fails before any parsing.
func DiscoverSegments(root string, nReplicas, nIterations int) ([][]string, error) {
	if nReplicas < 1 || nIterations < 1 {
		return nil, &ShapeError{Config: -1, Replica: -1,
			Reason: fmt.Sprintf("need at least 1 replica and 1 iteration, got %d and %d", nReplicas, nIterations)}
	}
	segments := make([][]string, nReplicas)
	for r := 0; r < nReplicas; r++ {
		segments[r] = make([]string, nIterations)
		for j := 0; j < nIterations; j++ {
			p := filepath.Join(root, fmt.Sprintf("sim_%d", r+1), fmt.Sprintf("iteration_%d", j+1), "dhdl.xvg")
			if _, err := os.Stat(p); err != nil {
				return nil, &ShapeError{Config: -1, Iteration: j + 1, Replica: r,
					Reason: fmt.Sprintf("segment file missing: %s", p)}
			}
			segments[r][j] = p
		}
	}
	return segments, nil
}

// ReadAssignment reads a replica-assignment table: one whitespace-separated
// row of replica indices per configuration, iterations left to right.
// Blank lines and '#' comments are skipped. The table must be rectangular.
func ReadAssignment(r io.Reader) ([][]int, error) {
	var rows [][]int
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := make([]int, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("assignment line %d: bad replica index %q", lineNo, f)
			}
			row[i] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, &ShapeError{Config: len(rows), Replica: -1,
				Reason: fmt.Sprintf("assignment row has %d iterations, want %d", len(row), len(rows[0]))}
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ShapeError{Config: -1, Replica: -1, Reason: "empty replica assignment"}
	}
	return rows, nil
}

// ReadAssignmentFile reads a replica-assignment table from path.
func ReadAssignmentFile(path string) ([][]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := ReadAssignment(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ParseShifts parses a comma-separated list of per-replica index offsets,
// e.g. "0,4,8,12".
func ParseShifts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	shifts := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad shift value %q", p)
		}
		shifts = append(shifts, v)
	}
	if len(shifts) == 0 {
		return nil, fmt.Errorf("no shift values in %q", s)
	}
	return shifts, nil
}

// UniformShifts returns the shift table for replicas whose state sub-ranges
// are spaced evenly, s states apart: replica r gets shift r*s.
func UniformShifts(nReplicas, spacing int) []int {
	shifts := make([]int, nReplicas)
	for r := range shifts {
		shifts[r] = r * spacing
	}
	return shifts
}

// ReadTrajectories reads trajectories in the plain text format written by
// WriteTrajectories: one whitespace-separated row of state indices per
// configuration. Unlike assignment tables, rows need not be the same length.
func ReadTrajectories(r io.Reader) ([][]int, error) {
	var rows [][]int
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := make([]int, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("trajectory line %d: bad state index %q", lineNo, f)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadTrajectoriesFile reads trajectories from path.
func ReadTrajectoriesFile(path string) ([][]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	trajs, err := ReadTrajectories(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trajs, nil
}

// WriteTrajectories writes one whitespace-separated row per configuration.
func WriteTrajectories(w io.Writer, trajs [][]int) error {
	bw := bufio.NewWriter(w)
	for _, t := range trajs {
		for i, s := range t {
			if i > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(strconv.Itoa(s)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
