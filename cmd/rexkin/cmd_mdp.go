package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rexkin/rexkin/internal/mdp"
	"github.com/spf13/cobra"
)

func newMdpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdp",
		Short: "Inspect and compare run-parameter files",
	}
	cmd.AddCommand(newMdpShowCmd(), newMdpCompareCmd())
	return cmd
}

func newMdpShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the parameters of an mdp file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			f, err := mdp.ParseFile(args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				params := make(map[string]any)
				for _, key := range f.Keys() {
					v, _ := f.Get(key)
					params[key] = v
				}
				return json.NewEncoder(os.Stdout).Encode(params)
			}

			for _, key := range f.Keys() {
				v, _ := f.Get(key)
				fmt.Printf("%s = %v\n", key, v)
			}
			return nil
		},
	}
}

func newMdpCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <file> <file>...",
		Short: "Report parameters whose values differ across mdp files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			diff, err := mdp.Compare(args)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(diff)
			}

			if len(diff) == 0 {
				fmt.Println("No differing parameters.")
				return nil
			}

			keys := make([]string, 0, len(diff))
			for k := range diff {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s:\n", k)
				for i, v := range diff[k] {
					if v == nil {
						fmt.Printf("  %s: (absent)\n", args[i])
						continue
					}
					fmt.Printf("  %s: %v\n", args[i], v)
				}
			}
			return nil
		},
	}
}
