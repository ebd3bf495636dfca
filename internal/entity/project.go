package entity

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
)

// ProjectCandidate is one entry of the project list, with 1-indexed inclusive bounds.
type ProjectCandidate struct {
	Title     string `json:"title"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_fin"`
	// Position is the 0-based index in the raw model list.
	Position int `json:"position"`
}

// ProjectRecord is a schema-shaped project plus its page-range metadata.
// Fields never holds the reserved metadata keys.
type ProjectRecord struct {
	Title     string
	PageStart int
	PageEnd   int
	Fields    map[string]any
}

// NewProjectRecord copies fields, dropping any reserved key the model produced.
func NewProjectRecord(c ProjectCandidate, fields map[string]any) ProjectRecord {
	clean := make(map[string]any, len(fields))
	for k, v := range fields {
		if constants.IsReserved(k) {
			continue
		}
		clean[k] = v
	}
	return ProjectRecord{Title: c.Title, PageStart: c.PageStart, PageEnd: c.PageEnd, Fields: clean}
}

// Map returns the record as one flat mapping with the reserved keys attached.
func (r ProjectRecord) Map() map[string]any {
	m := maps.Clone(r.Fields)
	if m == nil {
		m = map[string]any{}
	}
	m[constants.MetaProjectTitle] = r.Title
	m[constants.MetaPageStart] = r.PageStart
	m[constants.MetaPageEnd] = r.PageEnd
	return m
}

// Section returns the named top-level section as an object, if present.
func (r ProjectRecord) Section(s constants.Section) (map[string]any, bool) {
	v, ok := r.Fields[string(s)].(map[string]any)
	return v, ok
}

func (r ProjectRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func (r *ProjectRecord) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	title, _ := m[constants.MetaProjectTitle].(string)
	start, err := intField(m, constants.MetaPageStart)
	if err != nil {
		return err
	}
	end, err := intField(m, constants.MetaPageEnd)
	if err != nil {
		return err
	}
	*r = NewProjectRecord(ProjectCandidate{Title: title, PageStart: start, PageEnd: end}, m)
	return nil
}

func intField(m map[string]any, key string) (int, error) {
	switch v := m[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%s: unexpected type %T", key, v)
	}
}
