package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rex-zones-humides/internal/async"
	"github.com/joseph-ayodele/rex-zones-humides/internal/export"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ingest"
	"github.com/joseph-ayodele/rex-zones-humides/internal/mcpserver"
	"github.com/joseph-ayodele/rex-zones-humides/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing submit_document, run_status,
last_result and export_last_result. Logs go to stderr.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newPipelineApp(ctx)
	if err != nil {
		return exitError(err)
	}
	defer a.Close()

	store := session.NewStore()
	queue := async.NewRunQueue(a.proc, store, a.logger,
		async.WithWorkers(a.cfg.Queue.Workers),
		async.WithQueueSize(a.cfg.Queue.Size),
		async.WithProcessTimeout(a.cfg.Pipeline.RunTimeout),
	)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		queue.Shutdown(shutdownCtx)
	}()

	srv := mcpserver.NewServer(version, ingest.NewReader(a.logger), queue, store, export.NewService(a.logger), a.logger)
	a.logger.Info("serve.start", "transport", "stdio", "workers", a.cfg.Queue.Workers)
	return srv.Run(ctx)
}
