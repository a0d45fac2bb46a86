// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ala-agent/internal/server"
	"github.com/pdiddy/ala-agent/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the agent over HTTP",
	Long: `Serve exposes the pipeline as a JSON API:

  POST /v1/ask            {"query": "..."} -> reply
  GET  /v1/resolve/{name} taxon record for a name or LSID
  GET  /healthz           liveness
  GET  /metrics           Prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server always logs JSON.
	tc := loadConfig().Telemetry
	tc.LogJSON = true
	logger = telemetry.NewLogger(tc, os.Stderr)

	c, err := wire(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	a, err := c.agent(nil, logger)
	if err != nil {
		return err
	}

	if addr == "" {
		addr = c.cfg.Server.Addr
	}
	gin.SetMode(gin.ReleaseMode)
	return server.Run(ctx, addr, server.NewRouter(a, c.resolver, logger), logger)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr, \":8080\")")

	rootCmd.AddCommand(serveCmd)
}
