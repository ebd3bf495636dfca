package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/extract"
	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
	"github.com/joseph-ayodele/rex-zones-humides/internal/llm/mistral"
	"github.com/joseph-ayodele/rex-zones-humides/internal/llm/vertex"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
	"github.com/joseph-ayodele/rex-zones-humides/internal/pipeline"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg    *common.Config
	logger *slog.Logger

	mistral   *mistral.Client
	ocr       *ocr.Adapter
	assets    *llm.Assets
	completer llm.JSONCompleter
	proc      *pipeline.Processor

	closers []func() error
}

// loadConfig reads the configuration and applies the root flag overrides.
func loadConfig() (*common.Config, *slog.Logger, error) {
	if rootFlags.configPath != "" {
		if err := os.Setenv("REX_CONFIG", rootFlags.configPath); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if rootFlags.logLevel != "" {
		cfg.Log.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		cfg.Log.Format = rootFlags.logFormat
	}
	logger, err := common.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, common.ConfigurationError("logger", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newOCRApp wires only the Mistral OCR side.
func newOCRApp() (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Mistral.APIKey == "" {
		return nil, common.ConfigurationError("MISTRAL_API_KEY is required", common.ErrInvalidInput)
	}
	a := &app{cfg: cfg, logger: logger}
	a.mistral = mistral.NewClient(mistral.Config{
		APIKey:      cfg.Mistral.APIKey,
		BaseURL:     cfg.Mistral.BaseURL,
		OCRModel:    cfg.Mistral.OCRModel,
		ChatModel:   cfg.Mistral.ChatModel,
		Temperature: cfg.Mistral.Temperature,
		Timeout:     cfg.Mistral.Timeout,
	}, logger)
	a.ocr = ocr.NewAdapter(a.mistral, ocr.Config{
		CallTimeout: cfg.Pipeline.CallTimeout,
		MaxPages:    cfg.Pipeline.MaxPages,
	}, logger)
	return a, nil
}

// newPipelineApp wires the full pipeline. The extraction backend is chosen by
// the configured extractor. overrides apply command flags to the loaded config.
func newPipelineApp(ctx context.Context, overrides ...func(*common.Config)) (*app, error) {
	a, err := newOCRApp()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(a.cfg)
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	a.assets, err = llm.LoadAssets(llm.DefaultAssetPaths(a.cfg.Pipeline.AssetsDir), a.logger)
	if err != nil {
		return nil, err
	}

	switch a.cfg.Pipeline.Extractor {
	case common.ExtractorVertex:
		vc, err := vertex.NewClient(ctx, vertex.Config{
			Project:     a.cfg.Vertex.Project,
			Region:      a.cfg.Vertex.Region,
			Model:       a.cfg.Vertex.Model,
			Temperature: a.cfg.Mistral.Temperature,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, vc.Close)
		a.completer = vc
	default:
		a.completer = a.mistral
	}

	lister := extract.NewListExtractor(a.completer, a.assets, a.cfg.Pipeline.CallTimeout, a.logger)
	detailer := extract.NewProjectExtractor(a.completer, a.assets, a.logger,
		extract.WithStrictSchema(a.cfg.Pipeline.StrictSchema),
		extract.WithCallTimeout(a.cfg.Pipeline.CallTimeout),
	)
	a.proc = pipeline.NewProcessor(a.logger, a.ocr, lister, detailer, pipeline.Config{
		Concurrency: a.cfg.Pipeline.Concurrency,
		RunTimeout:  a.cfg.Pipeline.RunTimeout,
	})
	a.logger.Info("app.wired",
		"extractor", a.cfg.Pipeline.Extractor,
		"concurrency", a.cfg.Pipeline.Concurrency,
		"strict_schema", a.cfg.Pipeline.StrictSchema,
	)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("app.close.failed", "error", err)
		}
	}
}

// exitError prints the user-facing message of err.
func exitError(err error) error {
	st := common.Status(err)
	return fmt.Errorf("%s (%s)", st.Message(), st.Code())
}
