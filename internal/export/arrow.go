// Package export writes analysis results as Arrow IPC files so they can be
// loaded directly into dataframe tooling. Trajectories use a long format
// with one row per frame; transition matrices use one row per matrix cell.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

var trajectorySchema = arrow.NewSchema([]arrow.Field{
	{Name: "configuration", Type: arrow.PrimitiveTypes.Int64},
	{Name: "step", Type: arrow.PrimitiveTypes.Int64},
	{Name: "state", Type: arrow.PrimitiveTypes.Int64},
}, nil)

var matrixSchema = arrow.NewSchema([]arrow.Field{
	{Name: "from", Type: arrow.PrimitiveTypes.Int64},
	{Name: "to", Type: arrow.PrimitiveTypes.Int64},
	{Name: "probability", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteTrajectories writes per-configuration state trajectories in long
// format (configuration, step, state).
func WriteTrajectories(w io.Writer, trajectories [][]int) error {
	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, trajectorySchema)
	defer b.Release()

	cfgB := b.Field(0).(*array.Int64Builder)
	stepB := b.Field(1).(*array.Int64Builder)
	stateB := b.Field(2).(*array.Int64Builder)
	for cfg, states := range trajectories {
		for step, s := range states {
			cfgB.Append(int64(cfg))
			stepB.Append(int64(step))
			stateB.Append(int64(s))
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return writeRecord(w, trajectorySchema, rec, mem)
}

// WriteTrajectoriesFile writes trajectories to an IPC file at path.
func WriteTrajectoriesFile(path string, trajectories [][]int) error {
	return writeToFile(path, func(w io.Writer) error {
		return WriteTrajectories(w, trajectories)
	})
}

// ReadTrajectories reads a long-format trajectory IPC stream back into
// per-configuration state slices. Configurations must be numbered
// contiguously from 0, which is what WriteTrajectories produces.
func ReadTrajectories(r ipc.ReadAtSeeker) ([][]int, error) {
	var trajectories [][]int
	err := readRecords(r, trajectorySchema, func(rec arrow.Record) error {
		cfgs := rec.Column(0).(*array.Int64)
		states := rec.Column(2).(*array.Int64)
		for i := 0; i < int(rec.NumRows()); i++ {
			cfg := int(cfgs.Value(i))
			if cfg < 0 || cfg > len(trajectories) {
				return fmt.Errorf("configuration %d out of order at row %d", cfg, i)
			}
			if cfg == len(trajectories) {
				trajectories = append(trajectories, nil)
			}
			trajectories[cfg] = append(trajectories[cfg], int(states.Value(i)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trajectories, nil
}

// ReadTrajectoriesFile reads trajectories from an IPC file at path.
func ReadTrajectoriesFile(path string) ([][]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTrajectories(f)
}

// WriteMatrix writes a transition matrix as (from, to, probability) rows.
// Every cell is written, including zeros, so the matrix dimension survives
// the round trip.
func WriteMatrix(w io.Writer, matrix [][]float64) error {
	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, matrixSchema)
	defer b.Release()

	fromB := b.Field(0).(*array.Int64Builder)
	toB := b.Field(1).(*array.Int64Builder)
	probB := b.Field(2).(*array.Float64Builder)
	for i, row := range matrix {
		for j, p := range row {
			fromB.Append(int64(i))
			toB.Append(int64(j))
			probB.Append(p)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return writeRecord(w, matrixSchema, rec, mem)
}

// WriteMatrixFile writes a transition matrix to an IPC file at path.
func WriteMatrixFile(path string, matrix [][]float64) error {
	return writeToFile(path, func(w io.Writer) error {
		return WriteMatrix(w, matrix)
	})
}

// ReadMatrix reads a matrix IPC stream back into a dense square matrix.
func ReadMatrix(r ipc.ReadAtSeeker) ([][]float64, error) {
	type cell struct {
		from, to int
		p        float64
	}
	var cells []cell
	n := 0
	err := readRecords(r, matrixSchema, func(rec arrow.Record) error {
		froms := rec.Column(0).(*array.Int64)
		tos := rec.Column(1).(*array.Int64)
		probs := rec.Column(2).(*array.Float64)
		for i := 0; i < int(rec.NumRows()); i++ {
			c := cell{from: int(froms.Value(i)), to: int(tos.Value(i)), p: probs.Value(i)}
			if c.from < 0 || c.to < 0 {
				return fmt.Errorf("negative matrix index at row %d", i)
			}
			if c.from >= n {
				n = c.from + 1
			}
			if c.to >= n {
				n = c.to + 1
			}
			cells = append(cells, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for _, c := range cells {
		matrix[c.from][c.to] = c.p
	}
	return matrix, nil
}

// ReadMatrixFile reads a transition matrix from an IPC file at path.
func ReadMatrixFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMatrix(f)
}

func writeRecord(w io.Writer, schema *arrow.Schema, rec arrow.Record, mem memory.Allocator) error {
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to create IPC writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	return fw.Close()
}

func readRecords(r ipc.ReadAtSeeker, want *arrow.Schema, fn func(arrow.Record) error) error {
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return fmt.Errorf("failed to open IPC file: %w", err)
	}
	defer fr.Close()

	if !fr.Schema().Equal(want) {
		return fmt.Errorf("unexpected schema %s", fr.Schema())
	}
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			return fmt.Errorf("failed to read record %d: %w", i, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeToFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
