// Package dhdl parses GROMACS dhdl .xvg output segments into local
// state-index sequences. It is the raw-data boundary of the analysis
// pipeline: everything downstream works on plain integer sequences.
package dhdl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// stateLegend is the xvg legend title of the column holding the sampled
// alchemical state index in expanded-ensemble dhdl files.
const stateLegend = "Thermodynamic state"

// ParseError reports a malformed or unreadable dhdl segment.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("dhdl %s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("dhdl %s: %s", e.Path, e.Msg)
}

// Source extracts state sequences from dhdl files on disk.
// It satisfies traj.SequenceSource.
type Source struct{}

// Extract returns the time-ordered local state-index sequence of one segment.
func (Source) Extract(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: err.Error()}
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads an xvg-formatted dhdl stream and returns the state column.
// The path argument is used for error reporting only.
//
// An xvg file carries '#' comment lines, '@' header lines (including one
// legend per data column), and whitespace-separated data rows whose first
// column is time. The state column is located by its legend title.
func Parse(r io.Reader, path string) ([]int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	stateCol := -1
	var states []int
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "@") {
			if idx, title, ok := parseLegend(line); ok && title == stateLegend {
				// Legend s<idx> labels data column idx+1; column 0 is time.
				stateCol = idx + 1
			}
			continue
		}

		if stateCol < 0 {
			return nil, &ParseError{Path: path, Line: lineNo,
				Msg: fmt.Sprintf("data before a %q legend", stateLegend)}
		}
		fields := strings.Fields(line)
		if stateCol >= len(fields) {
			return nil, &ParseError{Path: path, Line: lineNo,
				Msg: fmt.Sprintf("row has %d columns, state column is %d", len(fields), stateCol)}
		}
		// GROMACS writes the state index as a float ("2.000000").
		v, err := strconv.ParseFloat(fields[stateCol], 64)
		if err != nil {
			return nil, &ParseError{Path: path, Line: lineNo,
				Msg: fmt.Sprintf("bad state value %q", fields[stateCol])}
		}
		states = append(states, int(v))
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Path: path, Msg: err.Error()}
	}
	if stateCol < 0 {
		return nil, &ParseError{Path: path, Msg: fmt.Sprintf("no %q legend found", stateLegend)}
	}
	if len(states) == 0 {
		return nil, &ParseError{Path: path, Msg: "no data rows"}
	}
	return states, nil
}

// parseLegend matches lines of the form `@ s0 legend "Title"`.
func parseLegend(line string) (idx int, title string, ok bool) {
	fields := strings.SplitN(line, " legend ", 2)
	if len(fields) != 2 {
		return 0, "", false
	}
	tag := strings.TrimSpace(strings.TrimPrefix(fields[0], "@"))
	if !strings.HasPrefix(tag, "s") {
		return 0, "", false
	}
	n, err := strconv.Atoi(tag[1:])
	if err != nil {
		return 0, "", false
	}
	return n, strings.Trim(strings.TrimSpace(fields[1]), `"`), true
}
