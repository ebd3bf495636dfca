package entity

import (
	"encoding/json"
	"time"
)

// DisplayDateLayout is the run date format shown to users.
const DisplayDateLayout = "02/01/2006 15:04"

// SkippedProject records a candidate that produced no record, and why.
type SkippedProject struct {
	Title     string `json:"title"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_fin"`
	Reason    string `json:"reason"`
}

// PipelineResult is the artifact of one successful run.
type PipelineResult struct {
	RunID     string           `json:"run_id"`
	Filename  string           `json:"filename"`
	Timestamp time.Time        `json:"timestamp"`
	Projects  []ProjectRecord  `json:"projects"`
	Skipped   []SkippedProject `json:"skipped,omitempty"`
	Excluded  int              `json:"excluded"`
}

// DisplayDate formats the run timestamp as dd/mm/yyyy HH:MM.
func (r PipelineResult) DisplayDate() string {
	return r.Timestamp.Local().Format(DisplayDateLayout)
}

func (r PipelineResult) MarshalJSON() ([]byte, error) {
	type alias PipelineResult
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias: alias(r), Date: r.DisplayDate()})
}
