package llm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
)

// LoadPrompt reads the prompt template at path. When schema is non-nil every
// placeholder token is replaced by the pretty-printed schema.
func LoadPrompt(path string, schema *Schema) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("prompt %s: %w", path, common.ErrNotFound)
		}
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}
	text := string(raw)
	if schema != nil {
		text = InjectSchema(text, schema)
	}
	return text, nil
}

// InjectSchema replaces every placeholder occurrence in text with the schema JSON.
func InjectSchema(text string, schema *Schema) string {
	return strings.ReplaceAll(text, constants.SchemaPlaceholder, schema.Pretty())
}
