package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/toccata/internal/config"
	"github.com/jackzampolin/toccata/internal/home"
	"github.com/jackzampolin/toccata/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the toccata server",
	Long: `Start the toccata HTTP server.

The server renders uploaded PDFs, runs the two-pass extraction pipeline,
and records every run in a local SQLite database under the home directory.

The server provides:
  - /health           - Basic server health check
  - /status           - Detailed status (providers, database)
  - /api/toc/extract  - Table of contents extraction
  - /api/toc/process  - Full processing with heading reconciliation
  - /api/runs         - Run history

Examples:
  toccata serve                    # Start on default port 8080
  toccata serve --port 3000        # Start on custom port
  toccata serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load config with hot reload
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		// Create server
		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			Home:          h,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
