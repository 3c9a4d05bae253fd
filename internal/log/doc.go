// Package log builds slog loggers whose output never re-publishes the data
// the crawler collects.
//
// SecureHandler wraps any slog.Handler and rewrites attributes before they
// reach it:
//   - keys that carry credentials (cookie, authorization, proxy passwords)
//     are replaced with MaskValue
//   - values that look like secrets (JWT, bearer and basic credentials,
//     private key blocks) are replaced with MaskValue
//   - email addresses, phone numbers and card numbers inside any string
//     value, including errors, are masked in place
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("stored finding", "url", url, "emails", n)
package log
