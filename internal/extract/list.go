package extract

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

// ListExtractor asks the extraction capability for the projects of a whole document.
type ListExtractor struct {
	completer llm.JSONCompleter
	assets    *llm.Assets
	timeout   time.Duration
	logger    *slog.Logger
}

func NewListExtractor(completer llm.JSONCompleter, assets *llm.Assets, timeout time.Duration, logger *slog.Logger) *ListExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListExtractor{completer: completer, assets: assets, timeout: timeout, logger: logger}
}

// Extract returns the candidates with usable page bounds.
// A call failure is an ExtractionError, an unparseable reply a ListParseError,
// and an empty list a NoProjectsFoundError.
func (e *ListExtractor) Extract(ctx context.Context, doc ocr.NormalizedDocument) (ListResult, error) {
	log := common.LoggerFromContext(ctx, e.logger)
	start := time.Now()

	payload, err := doc.Payload()
	if err != nil {
		return ListResult{}, common.ExtractionError("encodage des pages impossible", err)
	}

	cctx, cancel := callContext(ctx, e.timeout)
	content, err := e.completer.CompleteJSON(cctx, llm.CompletionRequest{
		System: e.assets.ListPrompt,
		User:   payload,
		Label:  "list",
	})
	cancel()
	if err != nil {
		log.Error("extract.list.call_failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return ListResult{}, common.ExtractionError("échec de l'extraction de la liste de projets", err)
	}

	obj, err := llm.DecodeObject(content)
	if err != nil {
		log.Error("extract.list.parse_failed", "error", err, "content_len", len(content))
		return ListResult{}, common.ListParseError("Erreur lors du parsing de la liste de projets", err)
	}
	if e.assets.ListSchema != nil {
		if vErr := e.assets.ListSchema.Validate(obj); vErr != nil {
			log.Warn("extract.list.schema_mismatch", "error", vErr)
		}
	}

	var items []any
	switch v := obj[constants.ListKey].(type) {
	case nil:
	case []any:
		items = v
	default:
		log.Error("extract.list.bad_shape", "key", constants.ListKey, "type", fmt.Sprintf("%T", v))
		return ListResult{}, common.ListParseError("Erreur lors du parsing de la liste de projets",
			fmt.Errorf("%s must be an array, got %T", constants.ListKey, v))
	}
	if len(items) == 0 {
		log.Warn("extract.list.empty")
		return ListResult{}, common.NoProjectsFoundError("Aucun projet trouvé dans le document")
	}

	res := ListResult{Raw: len(items)}
	for idx, item := range items {
		c, reason := candidateFrom(idx, item)
		if reason != "" {
			log.Warn("extract.list.candidate_excluded", "position", idx, "title", c.Title, "reason", reason)
			res.Excluded = append(res.Excluded, Exclusion{Position: idx, Title: c.Title, Reason: reason})
			continue
		}
		res.Candidates = append(res.Candidates, c)
	}

	log.Info("extract.list.ok",
		"raw", res.Raw,
		"kept", len(res.Candidates),
		"excluded", len(res.Excluded),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// candidateFrom converts one raw list entry. A non-empty reason means the entry is excluded.
func candidateFrom(idx int, item any) (entity.ProjectCandidate, string) {
	c := entity.ProjectCandidate{Title: fmt.Sprintf(constants.DefaultTitle, idx+1), Position: idx}
	m, isObj := item.(map[string]any)
	if !isObj {
		return c, fmt.Sprintf("entry is %T, not an object", item)
	}
	if t, ok := m[constants.ListTitle].(string); ok && strings.TrimSpace(t) != "" {
		c.Title = strings.TrimSpace(t)
	}

	start, ok := pageNumber(m[constants.ListStart])
	if !ok {
		return c, fmt.Sprintf("missing or invalid %s: %v", constants.ListStart, m[constants.ListStart])
	}
	end, ok := pageNumber(m[constants.ListEnd])
	if !ok {
		return c, fmt.Sprintf("missing or invalid %s: %v", constants.ListEnd, m[constants.ListEnd])
	}
	c.PageStart, c.PageEnd = start, end
	return c, ""
}

// pageNumber accepts positive integers, also as numeric strings. Absent, null,
// zero, empty, boolean and non-integral values are falsy.
func pageNumber(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t < 1 || t != math.Trunc(t) || t > math.MaxInt32 {
			return 0, false
		}
		return int(t), true
	case int:
		return t, t >= 1
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || n < 1 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
