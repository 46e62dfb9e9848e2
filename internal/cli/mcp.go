package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/commitquest/internal/config"
	"github.com/aretw0/commitquest/internal/logging"
	"github.com/aretw0/commitquest/pkg/adapters/mcp"
	"github.com/aretw0/commitquest/pkg/observability"
	"github.com/aretw0/commitquest/pkg/session"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// MCPOptions configures the MCP host.
type MCPOptions struct {
	Config    *config.Config
	Transport string
	// Addr is the SSE listen address.
	Addr string
}

// ServeMCP exposes quest sessions as MCP tools.
// Logs always go to Stderr so they cannot corrupt JSON-RPC on Stdout.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	cfg := opts.Config
	logger := logging.New(cfg.SlogLevel())

	engine, err := NewEngine(cfg, logger, observability.LogHooks(logger))
	if err != nil {
		return err
	}

	persistence, err := NewPersistence(cfg)
	if err != nil {
		return err
	}
	defer persistence.Close()

	manager := session.NewManager(persistence.Store, engine,
		append(persistence.ManagerOptions(), session.WithLogger(logger))...)
	srv := mcp.NewServer(manager, logger)

	switch opts.Transport {
	case TransportStdio, "":
		logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		addr := opts.Addr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		if err := srv.ServeSSE(ctx, addr); err != nil {
			return err
		}
		logger.Info("MCP server stopped gracefully")
		return nil
	}
	fmt.Fprintf(os.Stderr, "supported transports: %s, %s\n", TransportStdio, TransportSSE)
	return fmt.Errorf("unknown transport: %s", opts.Transport)
}
