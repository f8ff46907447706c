package entities

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransientBackend marks a rate-limited or server-side failure that may succeed on retry.
	ErrTransientBackend = errors.New("transient backend error")

	// ErrPermanentBackend marks a client-side or malformed-response failure that is not retried.
	ErrPermanentBackend = errors.New("permanent backend error")

	// ErrUnauthorized marks rejected credentials. Backends failing this way are
	// disabled for the remainder of a batch.
	ErrUnauthorized = errors.New("backend rejected credentials")

	// ErrIO marks a local read or write failure.
	ErrIO = errors.New("i/o error")

	// ErrConfiguration marks missing or unusable settings, fatal at batch start.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyInput is returned when the repository list has no usable entries.
	ErrEmptyInput = errors.New("no repositories found in input")

	// ErrInvalidReference is returned for repository URLs that cannot be parsed.
	ErrInvalidReference = errors.New("invalid repository reference")

	// ErrGeneratedIndex is returned by backends that publish the remote
	// repository when the site's index.html exists only in the local checkout.
	ErrGeneratedIndex = errors.New("index.html was generated locally and is not in the repository")
)

// StatusError is a non-2xx HTTP outcome classified under one of the backend sentinels.
type StatusError struct {
	Kind error
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return e.Kind }

// ClassifyStatus wraps a non-2xx HTTP status into the matching sentinel error.
func ClassifyStatus(code int, body string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &StatusError{Kind: ErrUnauthorized, Code: code, Body: body}
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return &StatusError{Kind: ErrTransientBackend, Code: code, Body: body}
	default:
		return &StatusError{Kind: ErrPermanentBackend, Code: code, Body: body}
	}
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

// IsConfigurationClass reports whether err means the backend cannot work for any repository.
func IsConfigurationClass(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrConfiguration)
}
