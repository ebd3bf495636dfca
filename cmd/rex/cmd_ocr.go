package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rex-zones-humides/internal/ingest"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

var ocrFlags struct {
	pages string
}

var ocrCmd = &cobra.Command{
	Use:   "ocr <file.pdf>",
	Short: "OCR a document and print the normalized page payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runOCR,
}

func init() {
	ocrCmd.Flags().StringVar(&ocrFlags.pages, "pages", "", "Inclusive 1-indexed page range, e.g. 3-5")
}

func runOCR(cmd *cobra.Command, args []string) error {
	var rng *ocr.PageRange
	if ocrFlags.pages != "" {
		r, err := parsePageRange(ocrFlags.pages)
		if err != nil {
			return err
		}
		rng = &r
	}

	a, err := newOCRApp()
	if err != nil {
		return exitError(err)
	}
	defer a.Close()

	doc, err := ingest.NewReader(a.logger).ReadDocument(cmd.Context(), args[0])
	if err != nil {
		return exitError(err)
	}
	res, err := a.ocr.OCR(cmd.Context(), doc.Filename, doc.Content)
	if err != nil {
		return exitError(err)
	}
	payload, err := ocr.Normalize(res, rng).Payload()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), payload)
	return nil
}

func parsePageRange(s string) (ocr.PageRange, error) {
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		hi = lo
	}
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return ocr.PageRange{}, fmt.Errorf("invalid page range %q", s)
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return ocr.PageRange{}, fmt.Errorf("invalid page range %q", s)
	}
	return ocr.PageRange{Start: start, End: end}, nil
}
