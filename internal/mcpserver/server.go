package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rexkin/rexkin/internal/ratelimit"
	"github.com/rexkin/rexkin/internal/store"
)

// Server wraps the MCP SDK server and the run database.
type Server struct {
	server   *sdk.Server
	store    *store.RunStore
	limiters ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "rexkin")
	Version string // Server version
	DataDir string // Directory holding the run database
}

// NewServer creates a new MCP server exposing the rexkin analysis tools.
func NewServer(cfg *Config) (*Server, error) {
	runStore, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:   mcpServer,
		store:    runStore,
		limiters: ratelimit.NewToolLimiters(),
	}
	s.registerTools()
	return s, nil
}

// registerTools registers all rexkin MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "rexkin_stitch",
		Description: "Stitch per-replica dhdl segments into per-configuration state trajectories",
	}, s.handleStitch)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "rexkin_transitions",
		Description: "Compute the state transition matrix of a saved trajectory",
	}, s.handleTransitions)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "rexkin_transit",
		Description: "Detect boundary-to-boundary transit and round-trip times in saved trajectories",
	}, s.handleTransit)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "rexkin_runs",
		Description: "List saved analysis runs",
	}, s.handleRuns)
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.store.Close()
	return err
}

// Close closes the server and releases resources.
func (s *Server) Close() error {
	return s.store.Close()
}
