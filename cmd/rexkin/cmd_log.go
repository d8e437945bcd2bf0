package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rexkin/rexkin/internal/gmxlog"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log <file>...",
		Short: "Summarize weight-updating metadata from expanded-ensemble logs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			type logSummary struct {
				Path      string    `json:"path"`
				WLDelta   *float64  `json:"wl_delta,omitempty"`
				Weights   []float64 `json:"weights"`
				Counts    []int     `json:"counts"`
				EquilTime float64   `json:"equil_time"`
			}

			summaries := make([]logSummary, 0, len(args))
			for _, path := range args {
				info, err := gmxlog.ParseFile(path)
				if err != nil {
					return err
				}
				summaries = append(summaries, logSummary{
					Path:      path,
					WLDelta:   info.WLDelta,
					Weights:   info.Weights,
					Counts:    info.Counts,
					EquilTime: info.EquilTime,
				})
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(summaries)
			}

			for _, s := range summaries {
				fmt.Printf("%s:\n", s.Path)
				switch {
				case s.EquilTime == gmxlog.EquilFixed:
					fmt.Println("  weights: fixed")
				case s.EquilTime == gmxlog.EquilNotReached:
					fmt.Printf("  weights: still updating (Wang-Landau delta %g)\n", *s.WLDelta)
				default:
					fmt.Printf("  weights: equilibrated at %g ps\n", s.EquilTime)
				}
				fmt.Printf("  final weights (kT): %v\n", s.Weights)
				fmt.Printf("  histogram counts:   %v\n", s.Counts)
			}
			return nil
		},
	}
}
