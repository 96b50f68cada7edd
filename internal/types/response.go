package types

import (
	"net/http"
	"time"
)

// Document is a fetched source or translation document.
type Document struct {
	// URL is the location the document was requested from.
	URL string

	// StatusCode is the HTTP status code, or 200 for local files.
	StatusCode int

	// Headers are the response headers, empty for local files.
	Headers http.Header

	// Body is the decoded document body.
	Body []byte

	// ContentType is the MIME type reported by the server.
	ContentType string

	// FetchDuration is how long the fetch took.
	FetchDuration time.Duration

	// FetchedAt is when the document was received.
	FetchedAt time.Time
}

// Text returns the body as a string.
func (d *Document) Text() string {
	return string(d.Body)
}

