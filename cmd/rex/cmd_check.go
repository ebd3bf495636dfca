package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ingest"
	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

var checkCmd = &cobra.Command{
	Use:   "check [file.pdf]",
	Short: "Validate configuration and assets, and optionally preflight a PDF",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return exitError(err)
	}
	out := cmd.OutOrStdout()
	if err := cfg.Validate(); err != nil {
		return exitError(err)
	}
	fmt.Fprintf(out, "config:    ok (extractor=%s, concurrency=%d)\n", cfg.Pipeline.Extractor, cfg.Pipeline.Concurrency)

	assets, err := llm.LoadAssets(llm.DefaultAssetPaths(cfg.Pipeline.AssetsDir), logger)
	if err != nil {
		return exitError(err)
	}
	if err := assets.Validate(); err != nil {
		return exitError(err)
	}
	fmt.Fprintf(out, "assets:    ok (%s, %s)\n", assets.DetailSchema.Name, assets.ListSchema.Name)

	if len(args) == 0 {
		return nil
	}
	doc, err := ingest.NewReader(logger).ReadDocument(cmd.Context(), args[0])
	if err != nil {
		return exitError(err)
	}
	pages, err := ocr.Preflight(doc.Content, cfg.Pipeline.MaxPages)
	if err != nil {
		return exitError(common.UploadError("preflight", err))
	}
	fmt.Fprintf(out, "document:  ok (%s, %d page(s), sha256 %s)\n", doc.Filename, pages, doc.SHA256[:12])
	return nil
}
