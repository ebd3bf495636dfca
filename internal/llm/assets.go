package llm

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
)

// Assets is the immutable prompt and schema set shared by every pipeline run.
type Assets struct {
	DetailSchema *Schema
	ListSchema   *Schema
	DetailPrompt string
	ListPrompt   string
}

// AssetPaths locates the four asset files.
type AssetPaths struct {
	DetailSchema string
	ListSchema   string
	DetailPrompt string
	ListPrompt   string
}

// DefaultAssetPaths returns the standard file names under dir.
func DefaultAssetPaths(dir string) AssetPaths {
	return AssetPaths{
		DetailSchema: filepath.Join(dir, constants.DetailSchemaFile),
		ListSchema:   filepath.Join(dir, constants.ListSchemaFile),
		DetailPrompt: filepath.Join(dir, constants.DetailPromptFile),
		ListPrompt:   filepath.Join(dir, constants.ListPromptFile),
	}
}

// LoadAssets loads both schemas and both prompts, injecting each schema into its prompt.
// Any failure is reported as a configuration error.
func LoadAssets(paths AssetPaths, logger *slog.Logger) (*Assets, error) {
	if logger == nil {
		logger = slog.Default()
	}

	detail, err := LoadSchema(paths.DetailSchema)
	if err != nil {
		return nil, common.ConfigurationError("detail schema unavailable", err)
	}
	list, err := LoadSchema(paths.ListSchema)
	if err != nil {
		return nil, common.ConfigurationError("list schema unavailable", err)
	}
	detailPrompt, err := LoadPrompt(paths.DetailPrompt, detail)
	if err != nil {
		return nil, common.ConfigurationError("detail prompt unavailable", err)
	}
	listPrompt, err := LoadPrompt(paths.ListPrompt, list)
	if err != nil {
		return nil, common.ConfigurationError("list prompt unavailable", err)
	}

	logger.Info("llm.assets.loaded",
		"detail_schema", detail.Name,
		"list_schema", list.Name,
		"detail_prompt_len", len(detailPrompt),
		"list_prompt_len", len(listPrompt),
	)
	return &Assets{
		DetailSchema: detail,
		ListSchema:   list,
		DetailPrompt: detailPrompt,
		ListPrompt:   listPrompt,
	}, nil
}

// Validate reports an error when any asset is missing.
func (a *Assets) Validate() error {
	switch {
	case a == nil:
		return common.ConfigurationError("assets not loaded", nil)
	case a.DetailSchema == nil || a.ListSchema == nil:
		return common.ConfigurationError("schemas not loaded", nil)
	case a.DetailPrompt == "" || a.ListPrompt == "":
		return common.ConfigurationError(fmt.Sprintf("empty prompt (detail=%d list=%d bytes)", len(a.DetailPrompt), len(a.ListPrompt)), nil)
	}
	return nil
}
