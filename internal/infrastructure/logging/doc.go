// Package logging provides structured logging for enodebd.
//
// It wraps log/slog with JSON (default) or text output, level filtering and
// the default fields service and version. Device-scoped loggers add serial
// and device_type, and the session state machine adds the session id.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log secrets, tokens or passwords.
package logging
