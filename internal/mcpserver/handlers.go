package mcpserver

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rexkin/rexkin/internal/dhdl"
	"github.com/rexkin/rexkin/internal/kinetics"
	"github.com/rexkin/rexkin/internal/ratelimit"
	"github.com/rexkin/rexkin/internal/store"
	"github.com/rexkin/rexkin/internal/traj"
)

func (s *Server) handleStitch(ctx context.Context, req *sdk.CallToolRequest, args StitchInput) (*sdk.CallToolResult, StitchOutput, error) {
	if err := ratelimit.CheckLimit(s.limiters, "rexkin_stitch"); err != nil {
		return nil, StitchOutput{}, err
	}

	assignment, err := traj.ReadAssignmentFile(args.AssignmentFile)
	if err != nil {
		return nil, StitchOutput{}, fmt.Errorf("failed to read assignment table: %w", err)
	}

	segments, err := traj.DiscoverSegments(args.Root, args.Replicas, args.Iterations)
	if err != nil {
		return nil, StitchOutput{}, err
	}

	shifts := make([]int, args.Replicas)
	if args.Shifts != "" {
		shifts, err = traj.ParseShifts(args.Shifts)
		if err != nil {
			return nil, StitchOutput{}, err
		}
	}

	trajectories, err := traj.StitchContext(ctx, dhdl.Source{}, traj.Input{
		Segments:   segments,
		Assignment: assignment,
		Shifts:     shifts,
	}, 0)
	if err != nil {
		return nil, StitchOutput{}, err
	}

	out := StitchOutput{Configurations: len(trajectories)}
	for _, states := range trajectories {
		out.Frames = append(out.Frames, len(states))
	}

	if args.Save {
		id, err := s.store.SaveRun(ctx, store.Run{
			Label:       args.Label,
			Root:        args.Root,
			NReplicas:   args.Replicas,
			NIterations: args.Iterations,
			NStates:     args.States,
		}, trajectories)
		if err != nil {
			return nil, StitchOutput{}, fmt.Errorf("failed to save run: %w", err)
		}
		out.RunID = id
		out.Message = fmt.Sprintf("Stitched %d configurations and saved run %s", len(trajectories), id)
	} else {
		out.Message = fmt.Sprintf("Stitched %d configurations", len(trajectories))
	}
	return nil, out, nil
}

func (s *Server) handleTransitions(ctx context.Context, req *sdk.CallToolRequest, args TransitionsInput) (*sdk.CallToolResult, TransitionsOutput, error) {
	if err := ratelimit.CheckLimit(s.limiters, "rexkin_transitions"); err != nil {
		return nil, TransitionsOutput{}, err
	}

	trajectories, err := s.store.Trajectories(ctx, args.RunID)
	if err != nil {
		return nil, TransitionsOutput{}, err
	}
	if args.Configuration < 0 || args.Configuration >= len(trajectories) {
		return nil, TransitionsOutput{}, fmt.Errorf("configuration %d out of range (run has %d)", args.Configuration, len(trajectories))
	}

	matrix, err := kinetics.TransitionMatrix(trajectories[args.Configuration], args.States, !args.Counts)
	if err != nil {
		return nil, TransitionsOutput{}, err
	}
	return nil, TransitionsOutput{Matrix: matrix}, nil
}

func (s *Server) handleTransit(ctx context.Context, req *sdk.CallToolRequest, args TransitInput) (*sdk.CallToolResult, TransitOutput, error) {
	if err := ratelimit.CheckLimit(s.limiters, "rexkin_transit"); err != nil {
		return nil, TransitOutput{}, err
	}

	trajectories, err := s.store.Trajectories(ctx, args.RunID)
	if err != nil {
		return nil, TransitOutput{}, err
	}

	var out TransitOutput
	var summaries []store.TransitSummary
	for cfg, states := range trajectories {
		tt, err := kinetics.DetectTransits(states, args.States, args.DT)
		if err != nil {
			return nil, TransitOutput{}, fmt.Errorf("configuration %d: %w", cfg, err)
		}
		out.Configurations = append(out.Configurations, ConfigTransits{
			Configuration: cfg,
			Forward:       len(tt.Forward),
			Backward:      len(tt.Backward),
			MeanForward:   kinetics.Mean(tt.Forward),
			MeanBackward:  kinetics.Mean(tt.Backward),
			MeanRoundTrip: kinetics.Mean(tt.RoundTrip),
			Unit:          tt.Unit,
		})
		if args.Save {
			summaries = append(summaries,
				store.TransitSummary{Configuration: cfg, Direction: store.DirForward, Mean: kinetics.Mean(tt.Forward), Events: len(tt.Forward), Unit: tt.Unit},
				store.TransitSummary{Configuration: cfg, Direction: store.DirBackward, Mean: kinetics.Mean(tt.Backward), Events: len(tt.Backward), Unit: tt.Unit},
				store.TransitSummary{Configuration: cfg, Direction: store.DirRoundTrip, Mean: kinetics.Mean(tt.RoundTrip), Events: len(tt.RoundTrip), Unit: tt.Unit},
			)
		}
	}

	if args.Save {
		if err := s.store.SaveTransits(ctx, args.RunID, summaries); err != nil {
			return nil, TransitOutput{}, fmt.Errorf("failed to save transit summaries: %w", err)
		}
	}
	return nil, out, nil
}

func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (*sdk.CallToolResult, RunsOutput, error) {
	if err := ratelimit.CheckLimit(s.limiters, "rexkin_runs"); err != nil {
		return nil, RunsOutput{}, err
	}

	runs, err := s.store.ListRuns(ctx)
	if err != nil {
		return nil, RunsOutput{}, err
	}

	out := RunsOutput{Count: len(runs)}
	for _, run := range runs {
		out.Runs = append(out.Runs, RunSummary{
			ID:         run.ID,
			Label:      run.Label,
			Root:       run.Root,
			Replicas:   run.NReplicas,
			Iterations: run.NIterations,
			States:     run.NStates,
			DT:         run.DT,
			CreatedAt:  run.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return nil, out, nil
}
