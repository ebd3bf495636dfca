package mcpserver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/rex-zones-humides/internal/export"
)

// OutputPath resolves where an export is written. An empty target or an
// existing directory receives the default file name for source.
func OutputPath(target, source, format string) string {
	name := export.Filename(source)
	if format == "json" {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".json"
	}
	if strings.TrimSpace(target) == "" {
		return name
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return filepath.Join(target, name)
	}
	return target
}
