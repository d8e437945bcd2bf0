package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(&Config{Name: "rexkin", Version: "test", DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// writeRunTree lays out a 2-replica, 2-iteration simulation tree whose
// stitched trajectories are known by construction.
func writeRunTree(t *testing.T, root string) {
	t.Helper()
	segments := map[string][]int{
		"sim_1/iteration_1": {0, 1},
		"sim_1/iteration_2": {1, 2},
		"sim_2/iteration_1": {1, 1},
		"sim_2/iteration_2": {1, 0},
	}
	for dir, states := range segments {
		full := filepath.Join(root, dir)
		if err := os.MkdirAll(full, 0o755); err != nil {
			t.Fatal(err)
		}
		content := "@ s0 legend \"Thermodynamic state\"\n"
		for i, s := range states {
			content += fmt.Sprintf("%d.0 %d.000000\n", i, s)
		}
		if err := os.WriteFile(filepath.Join(full, "dhdl.xvg"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func stitchTestRun(t *testing.T, s *Server) string {
	t.Helper()
	root := t.TempDir()
	writeRunTree(t, root)

	assignmentPath := filepath.Join(root, "rep_trajs.txt")
	if err := os.WriteFile(assignmentPath, []byte("0 1\n1 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, out, err := s.handleStitch(context.Background(), nil, StitchInput{
		Root:           root,
		AssignmentFile: assignmentPath,
		Replicas:       2,
		Iterations:     2,
		Shifts:         "0,2",
		Label:          "test",
		States:         5,
		Save:           true,
	})
	if err != nil {
		t.Fatalf("handleStitch() error = %v", err)
	}
	if out.RunID == "" {
		t.Fatal("handleStitch() saved run without id")
	}
	return out.RunID
}

func TestHandleStitch(t *testing.T) {
	s := newTestServer(t)
	id := stitchTestRun(t, s)

	// Configuration 0: replica 0 iteration 1, then replica 1 iteration 2
	// (first frame dropped, shift 2). Configuration 1 is the mirror image.
	trajectories, err := s.store.Trajectories(context.Background(), id)
	if err != nil {
		t.Fatalf("Trajectories() error = %v", err)
	}
	want := [][]int{
		{0, 1, 2},
		{3, 3, 2},
	}
	if !reflect.DeepEqual(trajectories, want) {
		t.Errorf("stitched trajectories = %v, want %v", trajectories, want)
	}
}

func TestHandleTransitions(t *testing.T) {
	s := newTestServer(t)
	id := stitchTestRun(t, s)

	_, out, err := s.handleTransitions(context.Background(), nil, TransitionsInput{
		RunID:         id,
		Configuration: 0,
		States:        5,
		Counts:        true,
	})
	if err != nil {
		t.Fatalf("handleTransitions() error = %v", err)
	}
	// Trajectory {0,1,2}: transitions 0->1 and 1->2.
	if out.Matrix[0][1] != 1 || out.Matrix[1][2] != 1 {
		t.Errorf("counts matrix = %v", out.Matrix)
	}

	_, _, err = s.handleTransitions(context.Background(), nil, TransitionsInput{
		RunID:         id,
		Configuration: 7,
		States:        5,
	})
	if err == nil {
		t.Error("handleTransitions() expected out-of-range error")
	}
}

func TestHandleTransit(t *testing.T) {
	s := newTestServer(t)
	id := stitchTestRun(t, s)

	_, out, err := s.handleTransit(context.Background(), nil, TransitInput{
		RunID:  id,
		States: 4,
		Save:   true,
	})
	if err != nil {
		t.Fatalf("handleTransit() error = %v", err)
	}
	if len(out.Configurations) != 2 {
		t.Fatalf("got %d configuration summaries, want 2", len(out.Configurations))
	}
	// With n=4 neither configuration visits both boundary states, so every
	// list is empty. That is a valid result, not an error.
	if out.Configurations[0].Forward != 0 || out.Configurations[1].Backward != 0 {
		t.Errorf("expected empty transit lists, got %+v", out.Configurations)
	}
	if out.Configurations[0].Unit != "step" {
		t.Errorf("unit = %q, want step", out.Configurations[0].Unit)
	}

	stored, err := s.store.Transits(context.Background(), id)
	if err != nil {
		t.Fatalf("Transits() error = %v", err)
	}
	if len(stored) != 6 {
		t.Errorf("stored %d summaries, want 6 (2 configurations x 3 directions)", len(stored))
	}
}

func TestHandleRuns(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleRuns(context.Background(), nil, RunsInput{})
	if err != nil {
		t.Fatalf("handleRuns() error = %v", err)
	}
	if out.Count != 0 {
		t.Fatalf("handleRuns() on empty store count = %d", out.Count)
	}

	stitchTestRun(t, s)
	_, out, err = s.handleRuns(context.Background(), nil, RunsInput{})
	if err != nil {
		t.Fatalf("handleRuns() error = %v", err)
	}
	if out.Count != 1 || len(out.Runs) != 1 {
		t.Fatalf("handleRuns() count = %d, want 1", out.Count)
	}
	if out.Runs[0].Label != "test" || out.Runs[0].States != 5 {
		t.Errorf("run summary = %+v", out.Runs[0])
	}
}
