// Package api serves the read-only HTTP interface over stored findings.
//
// Routes:
//
//	GET /        liveness, {"status":"Breach monitor running"}
//	GET /search  findings matching ?email=, ?phone= or ?credit_card=
//
// /search combines the supplied parameters with OR and answers with a JSON
// array (possibly empty) of findings. A request without any parameter is
// rejected with 400. Every error, including unknown routes, is a JSON
// object with a single "error" key.
//
// The request logger records parameter names only. Values are the very
// identifiers people look up and never reach the logs.
package api
