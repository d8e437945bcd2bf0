package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rexkin/rexkin/internal/kinetics"
	"github.com/rexkin/rexkin/internal/store"
	"github.com/spf13/cobra"
)

func newTransitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transit",
		Short: "Extract transit and round-trip times between the state-ladder ends",
		Long: `Transit scans each stitched trajectory for crossings between state 0 and
state N-1. A forward transit is the time from last leaving state 0 to
first arriving at state N-1; backward is the reverse. Round trips are the
element-wise sums after the two lists are reconciled to equal length.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			runID, _ := cmd.Flags().GetString("run")
			trajPath, _ := cmd.Flags().GetString("traj")
			states, _ := cmd.Flags().GetInt("states")
			dt, _ := cmd.Flags().GetFloat64("dt")
			save, _ := cmd.Flags().GetBool("save")

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
			if dt == 0 {
				dt = cfg.Run.DT
			}
			if save && runID == "" {
				return fmt.Errorf("--save requires --run")
			}

			trajectories, err := loadTrajectories(cmd, cfg.Data.Dir, runID, trajPath)
			if err != nil {
				return err
			}

			type result struct {
				Configuration int       `json:"configuration"`
				Forward       []float64 `json:"forward"`
				Backward      []float64 `json:"backward"`
				RoundTrip     []float64 `json:"round_trip"`
				Unit          string    `json:"unit"`
			}
			results := make([]result, len(trajectories))
			var summaries []store.TransitSummary
			for i, t := range trajectories {
				tt, err := kinetics.DetectTransits(t, states, dt)
				if err != nil {
					return fmt.Errorf("configuration %d: %w", i, err)
				}
				results[i] = result{
					Configuration: i,
					Forward:       tt.Forward,
					Backward:      tt.Backward,
					RoundTrip:     tt.RoundTrip,
					Unit:          tt.Unit,
				}
				summaries = append(summaries,
					store.TransitSummary{Configuration: i, Direction: store.DirForward, Mean: kinetics.Mean(tt.Forward), Events: len(tt.Forward), Unit: tt.Unit},
					store.TransitSummary{Configuration: i, Direction: store.DirBackward, Mean: kinetics.Mean(tt.Backward), Events: len(tt.Backward), Unit: tt.Unit},
					store.TransitSummary{Configuration: i, Direction: store.DirRoundTrip, Mean: kinetics.Mean(tt.RoundTrip), Events: len(tt.RoundTrip), Unit: tt.Unit},
				)
			}

			if save {
				runStore, err := store.Open(cfg.Data.Dir)
				if err != nil {
					return err
				}
				defer runStore.Close()
				if err := runStore.SaveTransits(cmd.Context(), runID, summaries); err != nil {
					return fmt.Errorf("failed to save transit summaries: %w", err)
				}
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"configurations": results,
				})
			}

			for _, r := range results {
				fmt.Printf("configuration %d (%s):\n", r.Configuration, r.Unit)
				if len(r.RoundTrip) == 0 {
					fmt.Println("  no complete transits observed")
					continue
				}
				fmt.Printf("  forward:    %d events, mean %.4g\n", len(r.Forward), kinetics.Mean(r.Forward))
				fmt.Printf("  backward:   %d events, mean %.4g\n", len(r.Backward), kinetics.Mean(r.Backward))
				fmt.Printf("  round trip: %d events, mean %.4g\n", len(r.RoundTrip), kinetics.Mean(r.RoundTrip))
			}
			return nil
		},
	}

	cmd.Flags().String("run", "", "ID of a saved run to analyze")
	cmd.Flags().String("traj", "", "Trajectory text file to analyze instead of a saved run")
	cmd.Flags().Int("states", 0, "Number of states")
	cmd.Flags().Float64("dt", 0, "Sampling interval in ps per frame (0 reports step counts)")
	cmd.Flags().Bool("save", false, "Persist transit summaries with the saved run")
	return cmd
}
