package hlsgate

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrInvalidRequest indicates the request named no usable account/object pair
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnknownAccount indicates the account identifier is not in the registry
	ErrUnknownAccount = errors.New("unknown account")

	// ErrManifestNotFound indicates the playlist could not be fetched upstream
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrConfiguration indicates the tenant table could not be loaded
	ErrConfiguration = errors.New("tenant configuration unavailable")
)

// SignError represents a failure while presigning a URL for a tenant object
type SignError struct {
	Account string
	Key     string
	Op      string
	Err     error
}

func (e *SignError) Error() string {
	return fmt.Sprintf("sign %s failed for key %s on account %s: %v", e.Op, e.Key, e.Account, e.Err)
}

func (e *SignError) Unwrap() error {
	return e.Err
}

// RewriteError represents a failure while rewriting one playlist line. A
// single failed line fails the whole rewrite; partially signed manifests are
// never returned.
type RewriteError struct {
	Key  string
	Line int
	Err  error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("rewrite of %s failed at line %d: %v", e.Key, e.Line, e.Err)
}

func (e *RewriteError) Unwrap() error {
	return e.Err
}
