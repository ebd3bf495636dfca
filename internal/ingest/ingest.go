package ingest

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
)

// Result is the per-file ingest outcome.
type Result struct {
	SourcePath string
	Document   entity.RawDocument
	Duplicate  bool
	ReadAt     time.Time
	Err        string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// AllowedExt reports whether ext, with or without the dot, is a PDF extension.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden reports whether the last element of path starts with a dot.
// "." itself is the current directory, not a hidden entry.
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && strings.HasPrefix(base, ".")
}
