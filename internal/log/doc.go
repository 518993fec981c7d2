// Package log builds the application's slog loggers and masks secrets in
// their output.
//
// The SecureHandler wraps any slog.Handler and sanitizes attributes before
// they are written:
//   - Keys naming credentials (Authorization, Cookie, token,
//     service_account_json, private_key and similar)
//   - Header maps, where only the sensitive entries are masked
//   - URL query parameters carrying tokens
//   - Values that look like secrets: JWTs, bearer tokens, Google API keys,
//     PEM private key blocks and inline service account JSON
//
// Verbose mode only lowers the level. Masking is always applied, so a debug
// log of an API request carrying a captured token can be shared safely.
//
// # Usage
//
//	logger, err := log.NewLogger(os.Stderr, "json", verbose)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
package log
