// Package session hosts quest sessions for multi-client surfaces (HTTP, MCP).
//
// A Manager serialises work per session ID so two submissions for the same
// session never interleave, persists each resulting state and reports the
// transcript diff to observers.
package session
