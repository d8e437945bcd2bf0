package main

import (
	"github.com/rexkin/rexkin/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Starts a Model Context Protocol server exposing the rexkin analysis
tools (stitch, transitions, transit, runs) to MCP clients over stdio.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			server, err := mcpserver.NewServer(&mcpserver.Config{
				Name:    "rexkin",
				Version: version,
				DataDir: cfg.Data.Dir,
			})
			if err != nil {
				return err
			}
			return server.Run(cmd.Context())
		},
	}
}
