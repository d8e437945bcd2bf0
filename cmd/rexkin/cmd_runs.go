package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rexkin/rexkin/internal/store"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage saved analysis runs",
	}
	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd(), newRunsDeleteCmd())
	return cmd
}

func openRunStore(cmd *cobra.Command) (*store.RunStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Data.Dir)
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			runs, err := runStore.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Println("No saved runs.")
				return nil
			}
			for _, run := range runs {
				label := run.Label
				if label == "" {
					label = "(unlabeled)"
				}
				fmt.Printf("%s  %s  %d replicas x %d iterations, %d states  %s\n",
					run.ID, label, run.NReplicas, run.NIterations, run.NStates,
					run.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a saved run and its stored summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			run, err := runStore.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			trajectories, err := runStore.Trajectories(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			transits, err := runStore.Transits(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"run":          run,
					"trajectories": trajectories,
					"transits":     transits,
				})
			}

			fmt.Printf("run %s (%s)\n", run.ID, run.Label)
			fmt.Printf("  root:       %s\n", run.Root)
			fmt.Printf("  layout:     %d replicas x %d iterations, %d states\n",
				run.NReplicas, run.NIterations, run.NStates)
			fmt.Printf("  created:    %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
			for i, t := range trajectories {
				fmt.Printf("  configuration %d: %d frames\n", i, len(t))
			}
			for _, sum := range transits {
				fmt.Printf("  transit %d/%s: %d events, mean %.4g %s\n",
					sum.Configuration, sum.Direction, sum.Events, sum.Mean, sum.Unit)
			}
			return nil
		},
	}
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			if err := runStore.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted run %s\n", args[0])
			return nil
		},
	}
}
