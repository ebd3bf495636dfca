package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
	"github.com/joseph-ayodele/rex-zones-humides/internal/export"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ingest"
	"github.com/joseph-ayodele/rex-zones-humides/internal/mcpserver"
)

var extractFlags struct {
	outDir      string
	format      string
	concurrency int
	strict      bool
	skipHidden  bool
	quiet       bool
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf|dir>...",
	Short: "Run the full extraction pipeline and write the exports",
	Long: `Runs upload, OCR, project listing and per-project extraction for each PDF.
Directories are walked recursively; files with identical content are extracted once.
Progress is printed to stderr; one export per document is written to --out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractFlags.outDir, "out", "o", ".", "Output directory")
	f.StringVar(&extractFlags.format, "format", "xlsx", "Export format: xlsx, json or both")
	f.IntVar(&extractFlags.concurrency, "concurrency", 0, "Parallel per-project extractions (overrides REX_CONCURRENCY)")
	f.BoolVar(&extractFlags.strict, "strict", false, "Skip projects whose record fails the detail schema")
	f.BoolVar(&extractFlags.skipHidden, "skip-hidden", true, "Skip hidden files and directories")
	f.BoolVarP(&extractFlags.quiet, "quiet", "q", false, "Do not print progress")
}

func runExtract(cmd *cobra.Command, args []string) error {
	formats, err := exportFormats(extractFlags.format)
	if err != nil {
		return err
	}
	strictSet := cmd.Flags().Changed("strict")

	ctx := cmd.Context()
	a, err := newPipelineApp(ctx, func(cfg *common.Config) {
		applyExtractFlags(cfg, strictSet)
	})
	if err != nil {
		return exitError(err)
	}
	defer a.Close()

	reader := ingest.NewReader(a.logger)
	docs, err := collectDocuments(cmd, reader, args)
	if err != nil {
		return exitError(err)
	}
	if err := os.MkdirAll(extractFlags.outDir, 0o755); err != nil {
		return err
	}

	exporter := export.NewService(a.logger)
	progress := cmd.ErrOrStderr()
	if extractFlags.quiet {
		progress = io.Discard
	}

	var failed int
	written := map[string]bool{}
	for _, doc := range docs {
		fmt.Fprintf(progress, "%s\n", doc.Filename)
		run := a.proc.Start(ctx, doc)
		for ev := range run.Events() {
			fmt.Fprintf(progress, "  %s\n", ev)
		}
		res, err := run.Wait()
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", doc.Filename, exitError(err))
			continue
		}
		for _, format := range formats {
			path, err := writeExport(exporter, res, doc.SHA256, format, written)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d projet(s)\t%s\n", doc.Filename, len(res.Projects), path)
		}
		for _, p := range res.Projects {
			fmt.Fprintf(progress, "  projet: %s\n", projectLine(p))
		}
		for _, s := range res.Skipped {
			fmt.Fprintf(progress, "  ignoré: %s (p. %d-%d) %s\n", s.Title, s.PageStart, s.PageEnd, s.Reason)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d/%d document(s) failed", failed, len(docs))
	}
	return nil
}

func collectDocuments(cmd *cobra.Command, reader *ingest.Reader, args []string) ([]entity.RawDocument, error) {
	ctx := cmd.Context()
	var docs []entity.RawDocument
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			doc, err := reader.ReadDocument(ctx, arg)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}
		results, stats, err := reader.ScanDirectory(ctx, arg, extractFlags.skipHidden)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			switch {
			case r.Err != "":
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", r.SourcePath, r.Err)
			case r.Duplicate:
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: doublon, ignoré\n", r.SourcePath)
			default:
				docs = append(docs, r.Document)
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d PDF trouvé(s), %d doublon(s), %d erreur(s)\n", arg, stats.Matched, stats.Deduplicated, stats.Failed)
	}
	if len(docs) == 0 {
		return nil, errors.New("no PDF document to extract")
	}
	return docs, nil
}

// projectLine summarizes a record as its title, region and page range.
func projectLine(p entity.ProjectRecord) string {
	line := p.Title
	if d := p.Details(); d.Presentation != nil && d.Presentation.Region != "" {
		line += " (" + d.Presentation.Region + ")"
	}
	return fmt.Sprintf("%s, p. %d-%d", line, p.PageStart, p.PageEnd)
}

func exportFormats(s string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx":
		return []string{"xlsx"}, nil
	case "json":
		return []string{"json"}, nil
	case "both":
		return []string{"xlsx", "json"}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", s)
	}
}

// applyExtractFlags copies the extract flags that override the loaded config.
func applyExtractFlags(cfg *common.Config, strictSet bool) {
	if extractFlags.concurrency > 0 {
		cfg.Pipeline.Concurrency = extractFlags.concurrency
	}
	if strictSet {
		cfg.Pipeline.StrictSchema = extractFlags.strict
	}
}

// writeExport writes one export and records its path in written. A path already
// written in this invocation gets a short content hash appended to its name.
func writeExport(exporter *export.Service, res *entity.PipelineResult, sha, format string, written map[string]bool) (string, error) {
	var (
		data []byte
		err  error
	)
	if format == "json" {
		data, err = exporter.JSON(res)
	} else {
		data, err = exporter.XLSX(res)
	}
	if err != nil {
		return "", err
	}
	path := uniquePath(mcpserver.OutputPath(extractFlags.outDir, res.Filename, format), sha, written)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	written[path] = true
	return path, nil
}

// uniquePath returns path, or a variant tagged with the first hash characters
// (then a counter) when path is already in used.
func uniquePath(path, sha string, used map[string]bool) string {
	if !used[path] {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	tag := sha
	if len(tag) > 8 {
		tag = tag[:8]
	}
	candidate := fmt.Sprintf("%s_%s%s", base, tag, ext)
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%s_%d%s", base, tag, i, ext)
	}
	return candidate
}
