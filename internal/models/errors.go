package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation. Caller error, never retried.
var (
	ErrInvalidTopic        = errors.New("topic is empty after normalization")
	ErrInvalidTimestamp    = errors.New("timestamp is older than the last recorded transition")
	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// Sentinel errors for structural misuse of the knowledge tree.
var (
	ErrTreeInitialized = errors.New("tree already has a root")
	ErrParentNotFound  = errors.New("parent node not found")
	ErrNodeNotFound    = errors.New("node not found")
	ErrCycle           = errors.New("topic equals an ancestor of the parent")
	ErrRootRemoval     = errors.New("root cannot be removed, use reset")
)

// Sentinel errors for session lookup and lifecycle.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session already ended")
)

// Transient/external errors. Recoverable by caller-driven retry; the engine
// guarantees no partial state mutation when these are returned.
var (
	ErrSuggestionProvider = errors.New("suggestion provider failed")
	ErrStoreUnavailable   = errors.New("session store unavailable")
)

// ErrExpansionInProgress is returned when an expansion is already outstanding
// for the session. Callers should wait and retry.
var ErrExpansionInProgress = errors.New("expansion already in progress for session")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
