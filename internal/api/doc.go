// Package api implements the operator HTTP API and WebSocket event stream
// of the ACS.
//
// This package provides:
//   - REST endpoints to list eNodeBs, read their status and transition
//     history, queue reboots and resets, and push JSON-encoded CWMP
//     messages through the message bridge
//   - Operator login with JWT access tokens and rotating refresh tokens
//   - A WebSocket hub relaying status and session events
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Security
//
// Every route except health, metrics, login and refresh needs a bearer
// access token. Each handler checks the caller's role against a permission
// from package auth. WebSocket connections authenticate with a single-use
// ticket so the access token never appears in a URL.
//
// # Graceful Degradation
//
// The server runs without MQTT or InfluxDB; only their health fields
// change.
package api
