package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rexkin/rexkin/internal/dhdl"
	"github.com/rexkin/rexkin/internal/store"
	"github.com/rexkin/rexkin/internal/traj"
	"github.com/spf13/cobra"
)

func newStitchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stitch <root>",
		Short: "Stitch per-replica dhdl segments into per-configuration trajectories",
		Long: `Stitch reads the dhdl.xvg segments under <root>/sim_*/iteration_*/ and
the replica assignment table, and reconstructs the state trajectory each
configuration followed through the global state space. The first frame of
every iteration after the first repeats the previous iteration's last
frame and is dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")
			assignmentPath, _ := cmd.Flags().GetString("assignment")
			replicas, _ := cmd.Flags().GetInt("replicas")
			iterations, _ := cmd.Flags().GetInt("iterations")
			shiftSpec, _ := cmd.Flags().GetString("shifts")
			states, _ := cmd.Flags().GetInt("states")
			outPath, _ := cmd.Flags().GetString("out")
			save, _ := cmd.Flags().GetBool("save")
			label, _ := cmd.Flags().GetString("label")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if replicas == 0 {
				replicas = cfg.Run.Replicas
			}
			if iterations == 0 {
				iterations = cfg.Run.Iterations
			}
			if states == 0 {
				states = cfg.Run.States
			}
			if replicas <= 0 || iterations <= 0 {
				return fmt.Errorf("replicas and iterations must be set (flags or config)")
			}

			logger := newLogger(cfg)
			trace := newTraceLogger(cfg)
			defer trace.Close()

			assignment, err := traj.ReadAssignmentFile(assignmentPath)
			if err != nil {
				return fmt.Errorf("failed to read assignment table: %w", err)
			}

			segments, err := traj.DiscoverSegments(root, replicas, iterations)
			if err != nil {
				return err
			}

			shifts := cfg.Run.Shifts
			if shiftSpec != "" {
				shifts, err = traj.ParseShifts(shiftSpec)
				if err != nil {
					return err
				}
			}
			if len(shifts) == 0 {
				shifts = make([]int, replicas)
			}

			logger.Debug("stitching trajectories",
				"root", root, "replicas", replicas, "iterations", iterations)

			trajectories, err := traj.StitchContext(cmd.Context(), dhdl.Source{}, traj.Input{
				Segments:   segments,
				Assignment: assignment,
				Shifts:     shifts,
			}, cfg.Analysis.Workers)
			if err != nil {
				return err
			}
			for i, t := range trajectories {
				trace.Log(map[string]any{
					"event":         "trajectory_stitched",
					"configuration": i,
					"frames":        len(t),
				})
			}

			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				if err := traj.WriteTrajectories(f, trajectories); err != nil {
					f.Close()
					return fmt.Errorf("failed to write trajectories: %w", err)
				}
				if err := f.Close(); err != nil {
					return err
				}
			}

			var runID string
			if save {
				runStore, err := store.Open(cfg.Data.Dir)
				if err != nil {
					return err
				}
				defer runStore.Close()
				runID, err = runStore.SaveRun(cmd.Context(), store.Run{
					Label:       label,
					Root:        root,
					NReplicas:   replicas,
					NIterations: iterations,
					NStates:     states,
					DT:          cfg.Run.DT,
				}, trajectories)
				if err != nil {
					return fmt.Errorf("failed to save run: %w", err)
				}
			}

			if jsonOut {
				out := map[string]any{
					"configurations": len(trajectories),
					"trajectories":   trajectories,
				}
				if runID != "" {
					out["run_id"] = runID
				}
				return json.NewEncoder(os.Stdout).Encode(out)
			}

			fmt.Printf("Stitched %d configurations\n", len(trajectories))
			for i, t := range trajectories {
				fmt.Printf("  configuration %d: %d frames\n", i, len(t))
			}
			if runID != "" {
				fmt.Printf("Saved run %s\n", runID)
			}
			return nil
		},
	}

	cmd.Flags().String("assignment", "rep_trajs.txt", "Replica assignment table (replicas x iterations)")
	cmd.Flags().Int("replicas", 0, "Number of replicas (overrides config)")
	cmd.Flags().Int("iterations", 0, "Number of exchange iterations (overrides config)")
	cmd.Flags().Int("states", 0, "Total number of states (recorded with saved runs)")
	cmd.Flags().String("shifts", "", "Comma-separated per-replica state offsets, e.g. '0,4,8'")
	cmd.Flags().String("out", "", "Write stitched trajectories to this text file")
	cmd.Flags().Bool("save", false, "Persist the stitched trajectories in the run database")
	cmd.Flags().String("label", "", "Label for the saved run")
	return cmd
}
