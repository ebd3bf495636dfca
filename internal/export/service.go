package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
)

// SheetName is the worksheet holding one row per project.
const SheetName = "REX"

// Service turns pipeline results into downloadable files.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Row is one flattened project: ordered column keys and their cell text.
type Row struct {
	Keys   []string
	Values map[string]string
}

// Flatten lifts the fields of every known section to the top level, sections
// in display order and keys sorted within a section. Lists are joined with
// ", " and nested objects are written as compact JSON. A key repeated in a
// later section overwrites the earlier value. The metadata keys come last.
func Flatten(rec entity.ProjectRecord) Row {
	row := Row{Values: map[string]string{}}
	set := func(k, v string) {
		if _, seen := row.Values[k]; !seen {
			row.Keys = append(row.Keys, k)
		}
		row.Values[k] = v
	}
	for _, s := range constants.Sections() {
		sec, ok := rec.Section(s)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(sec))
		for k := range sec {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			set(k, entity.Text(sec[k]))
		}
	}
	set(constants.MetaProjectTitle, rec.Title)
	set(constants.MetaPageStart, fmt.Sprint(rec.PageStart))
	set(constants.MetaPageEnd, fmt.Sprint(rec.PageEnd))
	return row
}

// Columns returns the union of row keys in first-seen order, metadata last.
func Columns(rows []Row) []string {
	var cols []string
	seen := map[string]bool{}
	for _, r := range rows {
		for _, k := range r.Keys {
			if seen[k] || constants.IsReserved(k) {
				continue
			}
			seen[k] = true
			cols = append(cols, k)
		}
	}
	return append(cols, constants.ReservedKeys...)
}

// XLSX returns a workbook with one row per extracted project.
func (s *Service) XLSX(res *entity.PipelineResult) ([]byte, error) {
	if res == nil {
		return nil, common.NewAppError(common.ErrNotFound, "aucun résultat à exporter", nil)
	}
	start := time.Now()

	rows := make([]Row, 0, len(res.Projects))
	for _, p := range res.Projects {
		rows = append(rows, Flatten(p))
	}
	headers := Columns(rows)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if index, _ := f.GetSheetIndex(SheetName); index == -1 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return nil, fmt.Errorf("xlsx sheet: %w", err)
		}
	}
	activeIndex, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(activeIndex)
	// The default sheet would otherwise be exported empty.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	for r, row := range rows {
		for c, h := range headers {
			v, ok := row.Values[h]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(SheetName, cell, v)
		}
	}

	if n := len(headers); n > 0 {
		last, _ := excelize.ColumnNumberToName(n)
		_ = f.SetColWidth(SheetName, "A", last, 24)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", res.RunID,
		"rows", len(rows),
		"columns", len(headers),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// JSON returns the result as indented JSON, records in their flat form.
func (s *Service) JSON(res *entity.PipelineResult) ([]byte, error) {
	if res == nil {
		return nil, common.NewAppError(common.ErrNotFound, "aucun résultat à exporter", nil)
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json export: %w", err)
	}
	s.logger.Info("export.json.ok", "run_id", res.RunID, "bytes", len(b))
	return b, nil
}

// Filename derives the spreadsheet name from the source document name.
func Filename(source string) string {
	base := filepath.Base(source)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(base, ext)
	}
	return base + constants.ExportSuffix
}
