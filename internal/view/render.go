package view

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/athanius07/EMESRT11/internal/changelog"
	"github.com/athanius07/EMESRT11/internal/dataset"
)

// Content types and the CSV attachment name.
const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	CSVFilename     = "emesrt_l7l8l9.csv"
)

// ContentDisposition is the header value that makes clients save the CSV.
var ContentDisposition = fmt.Sprintf("attachment; filename=%q", CSVFilename)

// Response is the JSON read body. Changelog is nil unless requested, and
// then it is always an array.
type Response struct {
	GeneratedAt string               `json:"generated_at"`
	Count       int                  `json:"count"`
	Rows        dataset.Snapshot     `json:"rows"`
	Changelog   *changelog.Changelog `json:"changelog,omitempty"`
}

// NewResponse builds the body for rows already filtered. count is the
// filtered length.
func NewResponse(generatedAt string, rows dataset.Snapshot, history changelog.Changelog, includeChangelog bool) Response {
	if rows == nil {
		rows = dataset.Snapshot{}
	}
	resp := Response{
		GeneratedAt: generatedAt,
		Count:       len(rows),
		Rows:        rows,
	}
	if includeChangelog {
		if history == nil {
			history = changelog.Changelog{}
		}
		resp.Changelog = &history
	}
	return resp
}

// WriteJSON encodes v compactly without HTML escaping.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Header returns the CSV columns for rows. The first row decides: known
// fields it carries come first in canonical order, then any other keys
// sorted. With no rows the full canonical field list is used.
func Header(rows dataset.Snapshot) []string {
	if len(rows) == 0 {
		return append([]string(nil), dataset.Fields...)
	}

	first := rows[0]
	known := make(map[string]bool, len(dataset.Fields))
	header := make([]string, 0, len(first))
	for _, f := range dataset.Fields {
		known[f] = true
		if _, ok := first[f]; ok {
			header = append(header, f)
		}
	}

	var extra []string
	for k := range first {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(header, extra...)
}

// WriteCSV writes a header row and one row per record. Fields a record
// lacks are written empty; fields outside the header are dropped.
func WriteCSV(w io.Writer, rows dataset.Snapshot) error {
	header := Header(rows)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	line := make([]string, len(header))
	for i, r := range rows {
		for j, h := range header {
			line[j] = r.Get(h)
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
