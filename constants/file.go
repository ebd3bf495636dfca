package constants

import "strings"

// AllowedExtensions holds the file extensions accepted by the pipeline.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// Default asset file names, resolved under the assets directory.
const (
	DetailSchemaFile = "REX.schema.json"
	ListSchemaFile   = "REXlist.schema.json"
	DetailPromptFile = "REXPrompt.md"
	ListPromptFile   = "listPrompt.md"
)

// SchemaPlaceholder is replaced by the pretty-printed schema in prompt templates.
const SchemaPlaceholder = "{{ SCHEMA_JSON }}"

// ExportSuffix is appended to the document base name for spreadsheet exports.
const ExportSuffix = "_REX_export.xlsx"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
