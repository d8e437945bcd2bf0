// Package mdp reads and writes GROMACS run-parameter (.mdp) files. The file
// is modeled as an ordered list of entries so that writing reproduces the
// original layout: parameters, comments, and blank lines all keep their
// positions. Comments trailing a parameter on the same line are discarded.
package mdp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseError reports a line that is neither blank, a comment, nor a
// key = value parameter.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

type entryKind int

const (
	kindParam entryKind = iota
	kindComment
	kindBlank
)

type entry struct {
	kind entryKind
	key  string
	// value is one of string, int, float64, []int, or []float64.
	// Comments store their text here.
	value any
}

// File is a parsed mdp file. Parameter values are autoconverted: a single
// numeric token becomes int or float64, a run of numeric tokens becomes
// []int or []float64, and everything else stays a string.
type File struct {
	entries []entry
	index   map[string]int
}

// ParseFile reads and parses the mdp file at path.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse parses an mdp stream. The path argument is used for error
// reporting only.
func Parse(r io.Reader, path string) (*File, error) {
	file := &File{index: make(map[string]int)}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			file.entries = append(file.entries, entry{kind: kindBlank})
		case strings.HasPrefix(line, ";"):
			text := strings.TrimSpace(strings.TrimPrefix(line, ";"))
			file.entries = append(file.entries, entry{kind: kindComment, value: text})
		default:
			key, rest, ok := strings.Cut(line, "=")
			if !ok {
				return nil, &ParseError{Path: path, Line: lineNo,
					Msg: fmt.Sprintf("unrecognized line %q", line)}
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, &ParseError{Path: path, Line: lineNo,
					Msg: "parameter line with empty key"}
			}
			// Trailing same-line comments are dropped.
			value, _, _ := strings.Cut(rest, ";")
			file.Set(key, autoConvert(strings.TrimSpace(value)))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Path: path, Line: lineNo, Msg: err.Error()}
	}
	return file, nil
}

// Get returns the value of a parameter and whether it is present.
func (f *File) Get(key string) (any, bool) {
	i, ok := f.index[key]
	if !ok {
		return nil, false
	}
	return f.entries[i].value, true
}

// Set replaces the value of an existing parameter or appends a new one.
func (f *File) Set(key string, value any) {
	if i, ok := f.index[key]; ok {
		f.entries[i].value = value
		return
	}
	f.index[key] = len(f.entries)
	f.entries = append(f.entries, entry{kind: kindParam, key: key, value: value})
}

// Keys returns the parameter names in file order.
func (f *File) Keys() []string {
	var keys []string
	for _, e := range f.entries {
		if e.kind == kindParam {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Write dumps the file in its recorded order. With skipEmpty set,
// parameters whose value is the empty string are omitted.
func (f *File) Write(w io.Writer, skipEmpty bool) error {
	bw := bufio.NewWriter(w)
	for _, e := range f.entries {
		switch e.kind {
		case kindBlank:
			fmt.Fprintln(bw)
		case kindComment:
			fmt.Fprintf(bw, "; %s\n", e.value)
		case kindParam:
			if skipEmpty && e.value == "" {
				continue
			}
			fmt.Fprintf(bw, "%s = %s\n", e.key, formatValue(e.value))
		}
	}
	return bw.Flush()
}

// WriteFile writes the file to path.
func (f *File) WriteFile(path string, skipEmpty bool) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Write(out, skipEmpty); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Compare parses every file in paths and reports the parameters whose
// values are not identical across all of them. Keys and string values are
// canonicalized with dashes replaced by underscores, so "lmc-stats = no"
// and "lmc_stats = no" compare equal. The result maps each differing
// parameter to one value per input file, nil where the file lacks it.
func Compare(paths []string) (map[string][]any, error) {
	all := make([]map[string]any, len(paths))
	for i, p := range paths {
		f, err := ParseFile(p)
		if err != nil {
			return nil, err
		}
		m := make(map[string]any)
		for _, e := range f.entries {
			if e.kind == kindParam {
				m[canonKey(e.key)] = canonValue(e.value)
			}
		}
		all[i] = m
	}

	seen := make(map[string]bool)
	diff := make(map[string][]any)
	for _, m := range all {
		for key := range m {
			if seen[key] {
				continue
			}
			seen[key] = true
			values := make([]any, len(paths))
			same := true
			for i := range all {
				v, ok := all[i][key]
				if !ok {
					values[i] = nil
					same = false
					continue
				}
				values[i] = v
				if i > 0 && !equalValue(values[0], v) {
					same = false
				}
			}
			if !same {
				diff[key] = values
			}
		}
	}
	return diff, nil
}

func canonKey(key string) string {
	return strings.ReplaceAll(key, "-", "_")
}

func canonValue(v any) any {
	if s, ok := v.(string); ok {
		return strings.ReplaceAll(s, "-", "_")
	}
	return v
}

// equalValue compares parameter values with numeric widening, so the int 0
// and the float 0.0 read from two files compare equal.
func equalValue(a, b any) bool {
	af, aNum := asFloats(a)
	bf, bNum := asFloats(b)
	if aNum && bNum {
		if len(af) != len(bf) {
			return false
		}
		for i := range af {
			if af[i] != bf[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

func asFloats(v any) ([]float64, bool) {
	switch x := v.(type) {
	case int:
		return []float64{float64(x)}, true
	case float64:
		return []float64{x}, true
	case []int:
		fs := make([]float64, len(x))
		for i, n := range x {
			fs[i] = float64(n)
		}
		return fs, true
	case []float64:
		return x, true
	}
	return nil, false
}

func autoConvert(value string) any {
	fields := strings.Fields(value)
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return convertToken(fields[0])
	}

	ints := make([]int, 0, len(fields))
	floats := make([]float64, 0, len(fields))
	allInt, allFloat := true, true
	for _, tok := range fields {
		if n, err := strconv.Atoi(tok); err == nil {
			ints = append(ints, n)
		} else {
			allInt = false
		}
		if x, err := strconv.ParseFloat(tok, 64); err == nil {
			floats = append(floats, x)
		} else {
			allFloat = false
		}
	}
	if allInt {
		return ints
	}
	if allFloat {
		return floats
	}
	return value
}

func convertToken(tok string) any {
	if n, err := strconv.Atoi(tok); err == nil {
		return n
	}
	if x, err := strconv.ParseFloat(tok, 64); err == nil {
		return x
	}
	return tok
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []int:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, " ")
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}
