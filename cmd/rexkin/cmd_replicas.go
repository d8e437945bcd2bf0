package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rexkin/rexkin/internal/kinetics"
	"github.com/rexkin/rexkin/internal/traj"
	"github.com/spf13/cobra"
)

func newReplicasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replicas <assignment-file>",
		Short: "Analyze replica-space transitions from the assignment table",
		Long: `Replicas treats each row of the replica assignment table as a trajectory
through replica space (which replica a configuration occupied at each
iteration) and reports its transition matrix. Frequent off-diagonal mass
means configurations are mixing well between replicas.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			counts, _ := cmd.Flags().GetBool("counts")

			assignment, err := traj.ReadAssignmentFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read assignment table: %w", err)
			}
			if len(assignment) == 0 {
				return fmt.Errorf("empty assignment table")
			}
			nReplicas := len(assignment)

			matrices := make([][][]float64, len(assignment))
			for i, row := range assignment {
				m, err := kinetics.TransitionMatrix(row, nReplicas, !counts)
				if err != nil {
					return fmt.Errorf("configuration %d: %w", i, err)
				}
				matrices[i] = m
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"replicas": nReplicas,
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

	cmd.Flags().Bool("counts", false, "Report raw transition counts instead of probabilities")
	return cmd
}
