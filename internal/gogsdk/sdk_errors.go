package gogsdk

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound means the local file vanished between scan and upload.
	ErrFileNotFound = errors.New("gogsdk: local file not found")

	// ErrEmptyBody means the storage API returned an empty object body.
	ErrEmptyBody = errors.New("gogsdk: empty response body")
)

// ManifestError means game client credentials could not be derived from the
// build manifest. Not retryable; there is nothing to sync without them.
type ManifestError struct {
	GameID string
	Reason string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest error for game %s: %s", e.GameID, e.Reason)
}

// TokenExchangeError means the refresh-token exchange was rejected.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: status %d: %s", e.StatusCode, e.Body)
}

// StorageErrorKind separates the 404-as-empty special case from genuine
// failures against the cloud storage namespace.
type StorageErrorKind int

const (
	StorageNotFound StorageErrorKind = iota
	StorageTransient
	StorageFatal
)

func (k StorageErrorKind) String() string {
	switch k {
	case StorageNotFound:
		return "not_found"
	case StorageTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// StorageError is a failed cloud storage operation.
type StorageError struct {
	Kind       StorageErrorKind
	Op         string
	Path       string
	StatusCode int
	Err        error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %s: status %d", e.Op, e.Path, e.Kind, e.StatusCode)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageNotFound reports whether err is a StorageError with the NotFound kind.
func IsStorageNotFound(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == StorageNotFound
}

func newStorageError(op, path string, statusCode int, err error) *StorageError {
	kind := StorageFatal
	switch {
	case err != nil:
		kind = StorageTransient
	case statusCode == 404:
		kind = StorageNotFound
	case statusCode >= 500:
		kind = StorageTransient
	}
	return &StorageError{Kind: kind, Op: op, Path: path, StatusCode: statusCode, Err: err}
}
