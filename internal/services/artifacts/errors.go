package artifacts

import (
	"errors"
	"fmt"
)

var (
	ErrNoSource    = errors.New("artifact missing locally and no source URL configured")
	ErrUnsupported = errors.New("unsupported URL scheme")
	ErrEmpty       = errors.New("source returned no bytes")
)

// FetchError reports a failed download. It is fatal at startup.
type FetchError struct {
	URL  string
	Path string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s to %s: %v", e.URL, e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// LoadError reports an artifact that could not be decoded. It is fatal at startup.
type LoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
