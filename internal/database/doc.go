// Package database provides SQLite-based storage for leak findings.
//
// LeakDB stores one row per source URL in the findings table, together
// with the extracted data as a JSON document. Every extracted value is
// also written to finding_values, indexed on (category, value), so that
// membership lookups ("which findings contain this phone number?") do not
// scan the JSON documents.
//
// The url column is UNIQUE. Inserting a second finding for a URL that is
// already stored fails with ErrDuplicateURL; rows are never updated or
// deleted.
//
// SQLite is accessed through modernc.org/sqlite (no cgo). WAL mode lets the
// read API see committed findings while a crawl is writing.
package database
