// Package extract finds sensitive values in free text.
//
// An Extractor is composed of Matchers, one per category. The default set
// recognizes email addresses, Indian mobile numbers and credit-card-like
// digit runs using fixed regular expressions. Matches are returned
// verbatim: no case folding, no separator stripping and no semantic
// validation such as a Luhn check. A credit-card match is therefore only
// "13 to 16 digits, optionally separated", and false positives are expected.
//
// # Usage
//
//	ex := extract.New()
//	data := ex.Extract(pageText)
//	if data.IsEmpty() {
//	    // nothing sensitive on this page
//	}
//
// Extraction is pure and deterministic. It performs no I/O and is safe
// for concurrent use.
package extract
