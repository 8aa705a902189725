package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	pulsemcp "github.com/valter-silva-au/workpulse/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the pulse MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pulse MCP server on stdio",
	Long: `Start the pulse MCP server on stdio transport.

The server exposes reports as MCP tools that AI assistants can call:
get_report, get_alerts, get_run_metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reporter == nil || Records == nil {
			return fmt.Errorf("reporter not initialized")
		}

		srv := pulsemcp.NewServer(Reporter, Records, AlertEngine, MetricsCalc, EventLog, Logger, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
