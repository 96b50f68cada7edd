package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrEmptyResponse     = errors.New("empty response body")
	ErrBodyTooLarge      = errors.New("response body exceeds size limit")
	ErrUnexpectedStatus  = errors.New("unexpected status")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrMalformedPair     = errors.New("malformed quality pair")
	ErrNotFetched        = errors.New("category was not fetched")
)

// FetchError wraps errors that occur while retrieving a remote document.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedRecordError reports a single quality pair of a gem that matched the
// record shape but could not be turned into a QualityData.
type MalformedRecordError struct {
	GemID string
	Raw   string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.GemID != "" {
		return fmt.Sprintf("malformed record in gem %q (%q): %v", e.GemID, e.Raw, e.Err)
	}
	return fmt.Sprintf("malformed record %q: %v", e.Raw, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the gem processing pipeline.
type PipelineError struct {
	Stage string
	GemID string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q (gem %q): %v", e.Stage, e.GemID, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
