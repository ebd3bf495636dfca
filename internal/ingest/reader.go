package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
)

// Reader loads PDF documents from the local filesystem.
type Reader struct {
	logger *slog.Logger
	// MaxBytes rejects larger files; 0 = no limit.
	MaxBytes int64
}

func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// ReadDocument reads one file into a RawDocument named after its base name.
func (r *Reader) ReadDocument(ctx context.Context, path string) (entity.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return entity.RawDocument{}, err
	}
	if strings.TrimSpace(path) == "" {
		return entity.RawDocument{}, common.NewAppError(common.ErrInvalidInput, "chemin du document requis", nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return entity.RawDocument{}, common.NewAppError(common.ErrInvalidInput, fmt.Sprintf("chemin invalide: %s", path), err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return entity.RawDocument{}, common.NewAppError(common.ErrInvalidInput, fmt.Sprintf("extension non supportée: %q", ext), nil)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return entity.RawDocument{}, common.NewAppError(common.ErrNotFound, fmt.Sprintf("fichier introuvable: %s", abs), err)
		}
		return entity.RawDocument{}, fmt.Errorf("stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return entity.RawDocument{}, common.NewAppError(common.ErrInvalidInput, fmt.Sprintf("%s est un répertoire", abs), nil)
	}
	if r.MaxBytes > 0 && info.Size() > r.MaxBytes {
		return entity.RawDocument{}, common.NewAppError(common.ErrInvalidInput, fmt.Sprintf("fichier trop volumineux: %d octets", info.Size()), nil)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return entity.RawDocument{}, fmt.Errorf("read %s: %w", abs, err)
	}
	doc := entity.NewRawDocument(filepath.Base(abs), content)
	r.logger.Debug("ingest.read.ok", "path", abs, "bytes", doc.Size(), "sha256", doc.SHA256)
	return doc, nil
}

// ScanDirectory walks root, skips hidden entries if requested, and reads every
// PDF it finds. Files whose content hash was already seen are marked duplicate.
func (r *Reader) ScanDirectory(ctx context.Context, root string, skipHidden bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewAppError(common.ErrInvalidInput, "root path is required", nil)
	}

	var (
		results []Result
		stats   DirStats
		hashes  = map[string]struct{}{}
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Result{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		doc, err := r.ReadDocument(ctx, path)
		if err != nil {
			results = append(results, Result{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		_, dup := hashes[doc.SHA256]
		hashes[doc.SHA256] = struct{}{}
		results = append(results, Result{SourcePath: path, Document: doc, Duplicate: dup, ReadAt: time.Now().UTC()})
		stats.Succeeded++
		if dup {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	r.logger.Info("ingest.scan.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed,
		"duplicates", stats.Deduplicated,
	)
	return results, stats, nil
}
