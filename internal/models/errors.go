package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and handlers
var (
	// ErrPolicyBlocked means the target site's robots policy forbids scraping
	ErrPolicyBlocked = errors.New("scraping disallowed by robots policy")

	// ErrUnsupportedFormat means an upload is neither PDF nor DOCX
	ErrUnsupportedFormat = errors.New("unsupported upload format")

	// ErrImageResolution means the image provider returned no usable candidates
	ErrImageResolution = errors.New("no images resolved")

	// ErrNotFound means the requested record does not exist for this owner
	ErrNotFound = errors.New("not found")

	// ErrNoContent means no acquirer produced any context for the topic
	ErrNoContent = errors.New("no source content available")
)

// FetchError wraps a transport-level failure against an external endpoint
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps a failure to extract structure from fetched or uploaded bytes
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// GenerationError means the outline model failed to produce a usable outline.
// It aborts the pipeline; nothing is persisted when it occurs.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("outline generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
