package domain

import "errors"

var (
	// ErrBackendUnavailable signals an unreachable index, store, or cache.
	// Callers degrade to partial data; it is never fatal to a request.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrDocumentNotFound signals a missing document row.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrModelNotReady signals a missing ranking model or feature schema.
	// Surfaced only via the status endpoint, never as a request error.
	ErrModelNotReady = errors.New("ranking model not ready")
	// ErrSchemaMismatch signals a feature vector whose length disagrees
	// with the bound schema.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrInvalidLimit signals a non-positive result limit. This is a
	// contract violation and does surface to the caller.
	ErrInvalidLimit = errors.New("limit must be at least 1")
)
