package dataset

import (
	"strings"

	"github.com/athanius07/EMESRT11/internal/canon"
)

// Field names as they appear on the wire, in storage and in CSV headers.
const (
	FieldJurisdiction    = "Jurisdiction/Body"
	FieldCountry         = "Country"
	FieldTitle           = "Title"
	FieldType            = "Type"
	FieldPublicationDate = "Publication Date"
	FieldStatus          = "Status"
	FieldScope           = "EMESRT Scope (L7/L8/L9)?"
	FieldURL             = "URL"
	FieldNotes           = "Notes"
)

// Fields lists every known field in presentation order.
var Fields = []string{
	FieldJurisdiction,
	FieldCountry,
	FieldTitle,
	FieldType,
	FieldPublicationDate,
	FieldStatus,
	FieldScope,
	FieldURL,
	FieldNotes,
}

// Record categories, stored in FieldType.
const (
	CategoryMandate     = "Government mandate"
	CategorySubnational = "Sub-national guidance"
	CategoryFramework   = "Industry framework/standard"
)

// KeySeparator joins the natural key fields.
const KeySeparator = "|"

// Record is one regulatory record. Fields are not validated; an absent
// field reads as the empty string.
type Record map[string]string

// Get returns the field value, or "" when absent.
func (r Record) Get(field string) string {
	return r[field]
}

// NaturalKey identifies the entity a record describes:
// Country|Jurisdiction/Body|Title|URL.
//
// Keys are assumed unique within one snapshot but this is not enforced;
// see Snapshot.Duplicates.
func (r Record) NaturalKey() string {
	return strings.Join([]string{
		r.Get(FieldCountry),
		r.Get(FieldJurisdiction),
		r.Get(FieldTitle),
		r.Get(FieldURL),
	}, KeySeparator)
}

// Fingerprint is the content digest of the whole record. Field insertion
// order has no effect because the canonical form sorts keys.
func (r Record) Fingerprint() string {
	return canon.Digest(canon.DomainRecord, canon.StringMap(r))
}

// Clone returns an independent copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
