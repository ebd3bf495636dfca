package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
)

// Page is one page of raw OCR output. Index is zero-based as produced by the capability.
type Page struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// Document is the ordered raw OCR result of one file.
type Document struct {
	Pages []Page `json:"pages"`
	Model string `json:"model,omitempty"`
}

// FileRef identifies a file stored by the OCR capability.
type FileRef struct {
	ID string
}

// Capability is the remote OCR service: store a file, resolve a fetchable URL
// for it, run OCR against that URL.
type Capability interface {
	Upload(ctx context.Context, filename string, content []byte) (FileRef, error)
	SignedURL(ctx context.Context, ref FileRef) (string, error)
	Process(ctx context.Context, documentURL string) (Document, error)
}

// Reference is an uploaded document ready for OCR.
type Reference struct {
	Filename string
	FileID   string
	URL      string
	Pages    int // from preflight; 0 when unknown
}

type Config struct {
	CallTimeout   time.Duration // per capability call; 0 = none
	MaxPages      int           // 0 = no limit
	SkipPreflight bool
}

// Adapter wraps a Capability with preflight checks, per-call timeouts and the
// upload / OCR error taxonomy.
type Adapter struct {
	cap    Capability
	cfg    Config
	logger *slog.Logger
}

func NewAdapter(capability Capability, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{cap: capability, cfg: cfg, logger: logger}
}

// Upload preflights content, stores it with the capability and resolves its URL.
// Every failure is an UploadError.
func (a *Adapter) Upload(ctx context.Context, filename string, content []byte) (Reference, error) {
	log := common.LoggerFromContext(ctx, a.logger)
	start := time.Now()

	ref := Reference{Filename: filename}
	if !a.cfg.SkipPreflight {
		pages, err := Preflight(content, a.cfg.MaxPages)
		if err != nil {
			log.Error("ocr.preflight.failed", "filename", filename, "error", err)
			return ref, common.UploadError(fmt.Sprintf("le fichier %s n'a pas pu être lu", filename), err)
		}
		ref.Pages = pages
	}

	cctx, cancel := a.callContext(ctx)
	fileRef, err := a.cap.Upload(cctx, filename, content)
	cancel()
	if err != nil {
		log.Error("ocr.upload.failed", "filename", filename, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return ref, common.UploadError("échec de l'envoi du fichier", timeoutCause(err))
	}
	ref.FileID = fileRef.ID

	cctx, cancel = a.callContext(ctx)
	url, err := a.cap.SignedURL(cctx, fileRef)
	cancel()
	if err != nil {
		log.Error("ocr.signed_url.failed", "file_id", fileRef.ID, "error", err)
		return ref, common.UploadError("impossible d'obtenir l'URL du fichier", timeoutCause(err))
	}
	if url == "" {
		return ref, common.UploadError("URL du fichier vide", nil)
	}
	ref.URL = url

	log.Info("ocr.upload.ok",
		"filename", filename,
		"file_id", ref.FileID,
		"bytes", len(content),
		"pages", ref.Pages,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ref, nil
}

// Process runs OCR on an uploaded reference. Failures and empty output are
// OCRProcessingErrors.
func (a *Adapter) Process(ctx context.Context, ref Reference) (Document, error) {
	log := common.LoggerFromContext(ctx, a.logger)
	start := time.Now()

	cctx, cancel := a.callContext(ctx)
	doc, err := a.cap.Process(cctx, ref.URL)
	cancel()
	if err != nil {
		log.Error("ocr.process.failed", "file_id", ref.FileID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Document{}, common.OCRProcessingError("échec du traitement OCR", timeoutCause(err))
	}
	if len(doc.Pages) == 0 {
		log.Error("ocr.process.empty", "file_id", ref.FileID)
		return Document{}, common.OCRProcessingError("aucune page renvoyée par l'OCR", nil)
	}
	if ref.Pages > 0 && ref.Pages != len(doc.Pages) {
		log.Warn("ocr.process.page_count_mismatch", "file_id", ref.FileID, "preflight_pages", ref.Pages, "ocr_pages", len(doc.Pages))
	}

	log.Info("ocr.process.ok",
		"file_id", ref.FileID,
		"pages", len(doc.Pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// OCR uploads then processes content in one call.
func (a *Adapter) OCR(ctx context.Context, filename string, content []byte) (Document, error) {
	ref, err := a.Upload(ctx, filename, content)
	if err != nil {
		return Document{}, err
	}
	return a.Process(ctx, ref)
}

func (a *Adapter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.CallTimeout > 0 {
		return context.WithTimeout(ctx, a.cfg.CallTimeout)
	}
	return context.WithCancel(ctx)
}

func timeoutCause(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout: %w", err)
	}
	return err
}
