// Package view turns a snapshot into what a client asked for: the query
// toggles decide which categories survive, and the format decides between
// a JSON document and a CSV attachment.
package view
