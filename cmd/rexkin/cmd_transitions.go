package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rexkin/rexkin/internal/kinetics"
	"github.com/rexkin/rexkin/internal/store"
	"github.com/rexkin/rexkin/internal/traj"
	"github.com/spf13/cobra"
)

func newTransitionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Compute state transition matrices from stitched trajectories",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			runID, _ := cmd.Flags().GetString("run")
			trajPath, _ := cmd.Flags().GetString("traj")
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

			matrices := make([][][]float64, len(trajectories))
			for i, t := range trajectories {
				m, err := kinetics.TransitionMatrix(t, states, !counts)
				if err != nil {
					return fmt.Errorf("configuration %d: %w", i, err)
				}
				matrices[i] = m
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"states":   states,
					"counts":   counts,
					"matrices": matrices,
				})
			}

			for i, m := range matrices {
				fmt.Printf("configuration %d:\n", i)
				for _, row := range m {
					for j, v := range row {
						if j > 0 {
							fmt.Print("  ")
						}
						fmt.Printf("%8.4f", v)
					}
					fmt.Println()
				}
			}
			return nil
		},
	}

	cmd.Flags().String("run", "", "ID of a saved run to analyze")
	cmd.Flags().String("traj", "", "Trajectory text file to analyze instead of a saved run")
	cmd.Flags().Int("states", 0, "Number of states (matrix dimension)")
	cmd.Flags().Bool("counts", false, "Report raw transition counts instead of probabilities")
	return cmd
}

// loadTrajectories resolves the trajectory source shared by the analysis
// commands: a saved run (--run) or a trajectory text file (--traj).
func loadTrajectories(cmd *cobra.Command, dataDir, runID, trajPath string) ([][]int, error) {
	switch {
	case runID != "" && trajPath != "":
		return nil, fmt.Errorf("cannot specify both --run and --traj")
	case runID != "":
		runStore, err := store.Open(dataDir)
		if err != nil {
			return nil, err
		}
		defer runStore.Close()
		return runStore.Trajectories(cmd.Context(), runID)
	case trajPath != "":
		return traj.ReadTrajectoriesFile(trajPath)
	default:
		return nil, fmt.Errorf("one of --run or --traj is required")
	}
}
