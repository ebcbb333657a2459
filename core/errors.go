package core

import "errors"

// Sentinel errors for the failure classes the orchestrator maps to
// fixed user-facing text. Everything else degrades to a generic
// apologetic message that echoes the underlying error.
var (
	// ErrNotFound reports that a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotConfigured reports a missing required credential, such as
	// the model API key.
	ErrNotConfigured = errors.New("service not configured")

	// ErrRateLimited reports that the model provider rejected the call
	// for exceeding its rate limits.
	ErrRateLimited = errors.New("rate limited")
)
