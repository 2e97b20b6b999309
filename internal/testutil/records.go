package testutil

import "github.com/athanius07/EMESRT11/internal/dataset"

// Record builds a dataset.Record with the natural key fields set and the
// remaining fields filled with stable placeholder values. Extra pairs
// override any field.
func Record(country, jurisdiction, title, url string, extra ...string) dataset.Record {
	r := dataset.Record{
		dataset.FieldJurisdiction:    jurisdiction,
		dataset.FieldCountry:         country,
		dataset.FieldTitle:           title,
		dataset.FieldType:            dataset.CategoryMandate,
		dataset.FieldPublicationDate: "2024-01-01",
		dataset.FieldStatus:          "In force",
		dataset.FieldScope:           "L9",
		dataset.FieldURL:             url,
		dataset.FieldNotes:           "",
	}
	for i := 0; i+1 < len(extra); i += 2 {
		r[extra[i]] = extra[i+1]
	}
	return r
}

// ThreeRecords returns a small snapshot with distinct natural keys.
func ThreeRecords() dataset.Snapshot {
	return dataset.Snapshot{
		Record("AU", "WA", "Regulation A", "https://example.org/a", dataset.FieldPublicationDate, "2025-02-15"),
		Record("US", "MSHA", "Rule B", "https://example.org/b", dataset.FieldPublicationDate, "2015-01-15"),
		Record("Global", "ICMM", "Framework C", "https://example.org/c",
			dataset.FieldType, dataset.CategoryFramework,
			dataset.FieldPublicationDate, "2024-01-01"),
	}
}
