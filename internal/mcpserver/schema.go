// Package mcpserver exposes rexkin analyses over the Model Context Protocol.
package mcpserver

// StitchInput defines the input for the rexkin_stitch tool.
type StitchInput struct {
	Root           string `json:"root" jsonschema:"Simulation output tree containing sim_*/iteration_*/dhdl.xvg"`
	AssignmentFile string `json:"assignment_file" jsonschema:"Path to the whitespace-separated replica assignment table (replicas x iterations)"`
	Replicas       int    `json:"replicas" jsonschema:"Number of replicas"`
	Iterations     int    `json:"iterations" jsonschema:"Number of exchange iterations"`
	Shifts         string `json:"shifts,omitempty" jsonschema:"Comma-separated per-replica offsets into the global state space (e.g. '0,4,8'). Defaults to all zeros."`
	Label          string `json:"label,omitempty" jsonschema:"Label for the saved run"`
	Save           bool   `json:"save,omitempty" jsonschema:"Persist the stitched trajectories in the run database (default: false)"`
	States         int    `json:"states,omitempty" jsonschema:"Total number of states across all replicas (recorded with the saved run)"`
}

// StitchOutput defines the output for the rexkin_stitch tool.
type StitchOutput struct {
	RunID          string `json:"run_id,omitempty" jsonschema:"ID of the saved run (when save is true)"`
	Configurations int    `json:"configurations" jsonschema:"Number of stitched configurations"`
	Frames         []int  `json:"frames" jsonschema:"Trajectory length per configuration"`
	Message        string `json:"message" jsonschema:"Human-readable result message"`
}

// TransitionsInput defines the input for the rexkin_transitions tool.
type TransitionsInput struct {
	RunID         string `json:"run_id" jsonschema:"ID of a saved run"`
	Configuration int    `json:"configuration" jsonschema:"Configuration index within the run"`
	States        int    `json:"states" jsonschema:"Number of states (matrix dimension)"`
	Counts        bool   `json:"counts,omitempty" jsonschema:"Return raw transition counts instead of row-normalized probabilities"`
}

// TransitionsOutput defines the output for the rexkin_transitions tool.
type TransitionsOutput struct {
	Matrix [][]float64 `json:"matrix" jsonschema:"Transition matrix, row-normalized unless counts was requested"`
}

// TransitInput defines the input for the rexkin_transit tool.
type TransitInput struct {
	RunID  string  `json:"run_id" jsonschema:"ID of a saved run"`
	States int     `json:"states" jsonschema:"Number of states"`
	DT     float64 `json:"dt,omitempty" jsonschema:"Sampling interval in ps per frame. Zero reports step counts."`
	Save   bool    `json:"save,omitempty" jsonschema:"Persist the transit summaries with the run (default: false)"`
}

// ConfigTransits summarizes the transit kinetics of one configuration.
type ConfigTransits struct {
	Configuration int     `json:"configuration"`
	Forward       int     `json:"forward" jsonschema:"Number of forward transits"`
	Backward      int     `json:"backward" jsonschema:"Number of backward transits"`
	MeanForward   float64 `json:"mean_forward"`
	MeanBackward  float64 `json:"mean_backward"`
	MeanRoundTrip float64 `json:"mean_round_trip"`
	Unit          string  `json:"unit"`
}

// TransitOutput defines the output for the rexkin_transit tool.
type TransitOutput struct {
	Configurations []ConfigTransits `json:"configurations"`
}

// RunsInput defines the input for the rexkin_runs tool.
type RunsInput struct{}

// RunSummary is one row of the rexkin_runs listing.
type RunSummary struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Root       string  `json:"root"`
	Replicas   int     `json:"replicas"`
	Iterations int     `json:"iterations"`
	States     int     `json:"states"`
	DT         float64 `json:"dt"`
	CreatedAt  string  `json:"created_at"`
}

// RunsOutput defines the output for the rexkin_runs tool.
type RunsOutput struct {
	Runs  []RunSummary `json:"runs"`
	Count int          `json:"count"`
}
