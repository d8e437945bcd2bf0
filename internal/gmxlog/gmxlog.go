// Package gmxlog extracts weight-updating metadata from expanded-ensemble
// simulation logs: the final Wang-Landau incrementor, the final lambda
// weights and histogram counts, and the time at which the weights
// equilibrated (if they did).
package gmxlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// EquilTime sentinel values. A log from a weight-updating run that never
// equilibrated reports EquilNotReached; a fixed-weight run reports
// EquilFixed. Any positive value is the equilibration time in ps.
const (
	EquilNotReached = -1
	EquilFixed      = 0
)

// Info holds the metadata parsed from one expanded-ensemble log.
type Info struct {
	// WLDelta is the final Wang-Landau incrementor. Nil when the weights
	// were fixed or had already equilibrated (the incrementor is no longer
	// meaningful in either case).
	WLDelta *float64

	// Weights are the final lambda weights, one per state, in kT.
	Weights []float64

	// Counts are the final histogram counts, one per state.
	Counts []int

	// EquilTime is the weight equilibration time in ps, or one of the
	// sentinels above.
	EquilTime float64
}

// ParseError reports a log that does not contain the expected
// expanded-ensemble sections.
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("log %s: %s", e.Path, e.Msg)
}

const weightTableHeader = "Count   G(in kT)"

// ParseFile parses the log at path.
func ParseFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, &ParseError{Path: path, Msg: err.Error()}
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse parses an expanded-ensemble log stream. The path argument is used
// for error reporting only.
//
// Three log shapes exist: the weights were still updating at the end of the
// run (EquilTime = -1, WLDelta set), the weights equilibrated during the run
// (EquilTime > 0 in ps), or the weights were fixed throughout (EquilTime = 0).
// The final weight table is the last "Count   G(in kT)" block in the file.
func Parse(r io.Reader, path string) (Info, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Info{}, &ParseError{Path: path, Msg: err.Error()}
	}

	nStates := 0
	tinit := 0.0
	dt := 0.0
	fixed := false
	haveStats := false
	for _, l := range lines {
		switch {
		case strings.Contains(l, "n-lambdas"):
			if v, err := mdpIntValue(l); err == nil {
				nStates = v
			}
		case strings.Contains(l, "tinit"):
			if v, err := mdpFloatValue(l); err == nil {
				tinit = v
			}
		case strings.Contains(l, "lmc-stats"):
			haveStats = true
			v := mdpStringValue(l)
			fixed = v == "no" || v == "No"
		case strings.Contains(l, "dt  "):
			if v, err := mdpFloatValue(l); err == nil {
				dt = v
			}
		}
	}
	if nStates == 0 {
		return Info{}, &ParseError{Path: path, Msg: "no n-lambdas parameter found"}
	}
	if !haveStats {
		return Info{}, &ParseError{Path: path, Msg: "no lmc-stats parameter found"}
	}

	// Locate the final weight table.
	header := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], weightTableHeader) {
			header = i
			break
		}
	}
	if header < 0 || header+nStates >= len(lines) {
		return Info{}, &ParseError{Path: path, Msg: "no final weight table found"}
	}

	info := Info{EquilTime: EquilNotReached}
	for i := 1; i <= nStates; i++ {
		w, c, err := parseWeightRow(lines[header+i])
		if err != nil {
			return Info{}, &ParseError{Path: path,
				Msg: fmt.Sprintf("weight table row %d: %v", i, err)}
		}
		info.Weights = append(info.Weights, w)
		info.Counts = append(info.Counts, c)
	}

	if fixed {
		info.EquilTime = EquilFixed
		return info, nil
	}

	// Weights were updating. If the weights equilibrated mid-run the log
	// records the step; otherwise the incrementor printed alongside the
	// final table is the current Wang-Landau delta.
	for _, l := range lines {
		if strings.Contains(l, "Weights have equilibrated") {
			step, err := equilStep(l)
			if err != nil {
				return Info{}, &ParseError{Path: path, Msg: err.Error()}
			}
			info.EquilTime = float64(step)*dt + tinit
			return info, nil
		}
	}

	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], "Wang-Landau incrementor is") {
			_, after, _ := strings.Cut(lines[i], ":")
			v, err := strconv.ParseFloat(strings.TrimSpace(after), 64)
			if err != nil {
				return Info{}, &ParseError{Path: path,
					Msg: fmt.Sprintf("bad Wang-Landau incrementor: %v", err)}
			}
			info.WLDelta = &v
			break
		}
	}
	return info, nil
}

// parseWeightRow reads one state row of the weight table. Rows marking the
// currently occupied state carry a trailing "<<" indicator that offsets the
// weight and count columns by one.
func parseWeightRow(line string) (weight float64, count int, err error) {
	fields := strings.Fields(line)
	wIdx, cIdx := len(fields)-2, len(fields)-3
	if strings.Contains(line, "<<") {
		wIdx, cIdx = len(fields)-3, len(fields)-4
	}
	if cIdx < 0 {
		return 0, 0, fmt.Errorf("short row %q", line)
	}
	weight, err = strconv.ParseFloat(fields[wIdx], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad weight in %q", line)
	}
	count, err = strconv.Atoi(fields[cIdx])
	if err != nil {
		return 0, 0, fmt.Errorf("bad count in %q", line)
	}
	return weight, count, nil
}

// equilStep extracts N from lines like
// "Step 3036: Weights have equilibrated, using criteria: wl-delta".
func equilStep(line string) (int, error) {
	before, _, ok := strings.Cut(line, ":")
	if !ok {
		return 0, fmt.Errorf("bad equilibration line %q", line)
	}
	_, after, ok := strings.Cut(before, "Step")
	if !ok {
		return 0, fmt.Errorf("bad equilibration line %q", line)
	}
	step, err := strconv.Atoi(strings.TrimSpace(after))
	if err != nil {
		return 0, fmt.Errorf("bad equilibration step in %q", line)
	}
	return step, nil
}

// mdp parameter lines look like "   n-lambdas                      = 6".
func mdpStringValue(line string) string {
	_, after, ok := strings.Cut(line, "=")
	if !ok {
		return ""
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func mdpIntValue(line string) (int, error) {
	return strconv.Atoi(mdpStringValue(line))
}

func mdpFloatValue(line string) (float64, error) {
	return strconv.ParseFloat(mdpStringValue(line), 64)
}
