package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/lightpivot"
	"github.com/aretw0/lightpivot/internal/cli"
	"github.com/aretw0/lightpivot/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the pivot table to AI agents as MCP tools (drill_down, drill_through,
back, refresh, change_base_query, set_row_count, effective_query) and resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		opts := optionsFromFlags(cmd)

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		log.SetOutput(os.Stderr)
		logger := serviceLogger(opts.Debug)

		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		table, closeTable, err := cli.NewTable(ctx, cfg, opts, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeTable(); err != nil {
				logger.Warn("close failed", "err", err)
			}
		}()

		srv := mcp.NewServer(table, lightpivot.Version, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("starting lightpivot MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			addr := fmt.Sprintf(":%d", port)
			logger.Info("starting lightpivot MCP server (sse)", "port", port)
			if err := srv.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port)); err != nil {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
