package view

import (
	"net/url"

	"github.com/athanius07/EMESRT11/internal/dataset"
)

// Query parameter names.
const (
	ParamCached           = "cached"
	ParamIncludeChangelog = "include_changelog"
	ParamFormat           = "format"
	ParamMandates         = "mandates"
	ParamSubnational      = "subnational"
	ParamFrameworks       = "frameworks"
)

// Format is the response body encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatCSV
)

func (f Format) String() string {
	if f == FormatCSV {
		return "csv"
	}
	return "json"
}

// Toggles enables or disables each record category.
type Toggles struct {
	Mandates    bool
	Subnational bool
	Frameworks  bool
}

// AllCategories enables every category.
func AllCategories() Toggles {
	return Toggles{Mandates: true, Subnational: true, Frameworks: true}
}

// Allows reports whether records of category pass. Unknown categories
// never pass.
func (t Toggles) Allows(category string) bool {
	switch category {
	case dataset.CategoryMandate:
		return t.Mandates
	case dataset.CategorySubnational:
		return t.Subnational
	case dataset.CategoryFramework:
		return t.Frameworks
	default:
		return false
	}
}

// Query is a parsed read request.
type Query struct {
	Cached           bool
	IncludeChangelog bool
	Format           Format
	Toggles          Toggles
}

// ParseQuery reads the request parameters. Only the exact value "1"
// turns a flag on, only "0" turns a category off, and only "csv" selects
// CSV; anything else takes the default.
func ParseQuery(q url.Values) Query {
	format := FormatJSON
	if q.Get(ParamFormat) == "csv" {
		format = FormatCSV
	}
	return Query{
		Cached:           q.Get(ParamCached) == "1",
		IncludeChangelog: q.Get(ParamIncludeChangelog) == "1",
		Format:           format,
		Toggles:          ParseToggles(q),
	}
}

// ParseToggles reads the category toggles. Each defaults to enabled.
func ParseToggles(q url.Values) Toggles {
	return Toggles{
		Mandates:    q.Get(ParamMandates) != "0",
		Subnational: q.Get(ParamSubnational) != "0",
		Frameworks:  q.Get(ParamFrameworks) != "0",
	}
}

// Filter keeps the records whose category t allows, in order. The result
// is never nil.
func Filter(s dataset.Snapshot, t Toggles) dataset.Snapshot {
	out := make(dataset.Snapshot, 0, len(s))
	for _, r := range s {
		if t.Allows(r.Get(dataset.FieldType)) {
			out = append(out, r)
		}
	}
	return out
}
