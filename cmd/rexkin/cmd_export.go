package main

import (
	"fmt"

	"github.com/rexkin/rexkin/internal/export"
	"github.com/rexkin/rexkin/internal/kinetics"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export analysis results as Arrow IPC files",
	}
	cmd.AddCommand(newExportTrajectoriesCmd(), newExportMatrixCmd())
	return cmd
}

func newExportTrajectoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trajectories",
		Short: "Export stitched trajectories in long format (configuration, step, state)",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run")
			trajPath, _ := cmd.Flags().GetString("traj")
			outPath, _ := cmd.Flags().GetString("out")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			trajectories, err := loadTrajectories(cmd, cfg.Data.Dir, runID, trajPath)
			if err != nil {
				return err
			}

			if err := export.WriteTrajectoriesFile(outPath, trajectories); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			fmt.Printf("Wrote %d configurations to %s\n", len(trajectories), outPath)
			return nil
		},
	}
	cmd.Flags().String("run", "", "ID of a saved run to export")
	cmd.Flags().String("traj", "", "Trajectory text file to export instead of a saved run")
	cmd.Flags().String("out", "trajectories.arrow", "Output IPC file")
	return cmd
}

func newExportMatrixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Export a transition matrix as (from, to, probability) rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run")
			trajPath, _ := cmd.Flags().GetString("traj")
			outPath, _ := cmd.Flags().GetString("out")
			configuration, _ := cmd.Flags().GetInt("configuration")
			states, _ := cmd.Flags().GetInt("states")
			counts, _ := cmd.Flags().GetBool("counts")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if states == 0 {
				states = cfg.Run.States
			}
			if states <= 0 {
				return fmt.Errorf("states must be set (flag or config)")
			}

			trajectories, err := loadTrajectories(cmd, cfg.Data.Dir, runID, trajPath)
			if err != nil {
				return err
			}
			if configuration < 0 || configuration >= len(trajectories) {
				return fmt.Errorf("configuration %d out of range (have %d)", configuration, len(trajectories))
			}

			matrix, err := kinetics.TransitionMatrix(trajectories[configuration], states, !counts)
			if err != nil {
				return err
			}
			if err := export.WriteMatrixFile(outPath, matrix); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			fmt.Printf("Wrote %dx%d matrix to %s\n", states, states, outPath)
			return nil
		},
	}
	cmd.Flags().String("run", "", "ID of a saved run")
	cmd.Flags().String("traj", "", "Trajectory text file instead of a saved run")
	cmd.Flags().Int("configuration", 0, "Configuration index to analyze")
	cmd.Flags().Int("states", 0, "Number of states (matrix dimension)")
	cmd.Flags().Bool("counts", false, "Export raw counts instead of probabilities")
	cmd.Flags().String("out", "matrix.arrow", "Output IPC file")
	return cmd
}
