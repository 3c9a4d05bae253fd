// Package main provides the entry point for the leakwatch CLI.
//
// leakwatch periodically searches public paste and code-sharing sites for
// pages that expose email addresses, phone numbers and card numbers, stores
// what it finds in SQLite, and serves a read API for lookups.
//
// Usage:
//
//	leakwatch serve
//	leakwatch crawl
//	leakwatch lookup --email someone@example.com
//
// See --help for all available options.
package main

func main() {
	Execute()
}
