package gmxlog

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const updatingLog = `Input Parameters:
   n-lambdas                      = 4
   tinit                          = 0
   dt                             = 0.002
   lmc-stats                      = wang-landau

             MC-lambda information
  Wang-Landau incrementor is:        0.8
  N  CoulL   VdwL    Count   G(in kT)  dG(in kT)
  1  0.000  0.000       12    0.00000    1.20000
  2  0.250  0.250        8    1.20000    0.80000
  3  0.500  0.500        5    2.00000    0.90000 <<
  4  1.000  1.000        3    2.90000    0.00000

             MC-lambda information
  Wang-Landau incrementor is:        0.4
  N  CoulL   VdwL    Count   G(in kT)  dG(in kT)
  1  0.000  0.000       20    0.00000    1.10000 <<
  2  0.250  0.250       15    1.10000    0.70000
  3  0.500  0.500       10    1.80000    0.85000
  4  1.000  1.000        6    2.65000    0.00000
`

const equilibratedLog = `Input Parameters:
   n-lambdas                      = 3
   tinit                          = 10
   dt                             = 0.002
   lmc-stats                      = wang-landau

Step 3030: Weights have equilibrated, using criteria: wl-delta

             MC-lambda information
  N  CoulL   VdwL    Count   G(in kT)  dG(in kT)
  1  0.000  0.000        7    0.00000    1.40000
  2  0.500  0.500        4    1.40000    0.60000 <<
  3  1.000  1.000        2    2.00000    0.00000
`

const fixedLog = `Input Parameters:
   n-lambdas                      = 3
   tinit                          = 0
   dt                             = 0.002
   lmc-stats                      = no

             MC-lambda information
  N  CoulL   VdwL    Count   G(in kT)  dG(in kT)
  1  0.000  0.000        9    0.00000    1.55000
  2  0.500  0.500        6    1.55000    1.00000
  3  1.000  1.000        1    2.55000    0.00000 <<
`

func TestParseUpdating(t *testing.T) {
	info, err := Parse(strings.NewReader(updatingLog), "updating.log")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if info.EquilTime != EquilNotReached {
		t.Errorf("EquilTime = %f, want %d", info.EquilTime, EquilNotReached)
	}
	if info.WLDelta == nil || *info.WLDelta != 0.4 {
		t.Errorf("WLDelta = %v, want 0.4", info.WLDelta)
	}
	// The final table wins, and the "<<" marker must not skew the columns.
	wantWeights := []float64{0, 1.1, 1.8, 2.65}
	wantCounts := []int{20, 15, 10, 6}
	for i := range wantWeights {
		if math.Abs(info.Weights[i]-wantWeights[i]) > 1e-9 {
			t.Errorf("Weights[%d] = %f, want %f", i, info.Weights[i], wantWeights[i])
		}
		if info.Counts[i] != wantCounts[i] {
			t.Errorf("Counts[%d] = %d, want %d", i, info.Counts[i], wantCounts[i])
		}
	}
}

func TestParseEquilibrated(t *testing.T) {
	info, err := Parse(strings.NewReader(equilibratedLog), "equil.log")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	// 3030 steps * 0.002 ps + tinit 10 ps.
	if math.Abs(info.EquilTime-16.06) > 1e-9 {
		t.Errorf("EquilTime = %f, want 16.06", info.EquilTime)
	}
	if info.WLDelta != nil {
		t.Errorf("WLDelta = %v, want nil after equilibration", *info.WLDelta)
	}
	if len(info.Weights) != 3 || len(info.Counts) != 3 {
		t.Fatalf("parsed %d weights, %d counts, want 3 each", len(info.Weights), len(info.Counts))
	}
}

func TestParseFixed(t *testing.T) {
	info, err := Parse(strings.NewReader(fixedLog), "fixed.log")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if info.EquilTime != EquilFixed {
		t.Errorf("EquilTime = %f, want %d", info.EquilTime, EquilFixed)
	}
	if info.WLDelta != nil {
		t.Errorf("WLDelta = %v, want nil for fixed weights", *info.WLDelta)
	}
	if info.Counts[0] != 9 || info.Weights[2] != 2.55 {
		t.Errorf("table misparsed: weights %v counts %v", info.Weights, info.Counts)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no weight table", "   n-lambdas  = 2\n   lmc-stats  = wang-landau\n"},
		{"missing lmc-stats", "   n-lambdas  = 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), "bad.log")
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse() error = %v, want *ParseError", err)
			}
		})
	}
}
