// Package model defines the core data structures used throughout leakwatch.
//
// This package contains the following main types:
//   - Finding: A persisted record of sensitive data discovered at one URL
//   - Data: The extraction result, one StringSet per Category
//   - Lookup: The identifiers a reader asks about on the read path
//   - RunStats: A summary of a single crawl pipeline run
//
// The extract, pipeline, database, lookup and api packages all exchange
// these types. Finding serializes to exactly {query, url, data, timestamp}.
package model
