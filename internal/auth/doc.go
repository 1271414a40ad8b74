// Package auth authenticates operators of the management API.
//
// Operators log in with a username and password (Argon2id hashes) and
// receive a short-lived JWT access token plus an opaque refresh token.
// Refresh tokens rotate on every use and belong to a family: presenting a
// token that was already rotated revokes the whole family.
//
// Three roles exist. Viewers read device state and history, operators may
// also reboot devices and push messages through the exchange bridge, and
// admins additionally read the audit log and manage operator accounts.
package auth
