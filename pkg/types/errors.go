package types

import (
	"errors"
	"fmt"
)

// ErrInvalidKey is returned for object keys that are empty or contain empty segments.
var ErrInvalidKey = errors.New("invalid object key")

// ClientCreationError is returned when a bucket client cannot be constructed.
// Failed attempts are never cached.
type ClientCreationError struct {
	Bucket string
	Err    error
}

func (e *ClientCreationError) Error() string {
	return fmt.Sprintf("create client for bucket %s: %v", e.Bucket, e.Err)
}

func (e *ClientCreationError) Unwrap() error {
	return e.Err
}

// ListingError is returned when a listing page cannot be fetched after the
// store client exhausted its retries.
type ListingError struct {
	Bucket string
	Page   int
	Err    error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("list bucket %s (page %d): %v", e.Bucket, e.Page, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// TreeConflictError reports a key that implies both a file and a directory at
// the same path. The node established first is kept.
type TreeConflictError struct {
	Bucket  string
	Key     string
	Segment string
	Reason  string
}

func (e *TreeConflictError) Error() string {
	return fmt.Sprintf("tree conflict in bucket %s: key %q at segment %q: %s", e.Bucket, e.Key, e.Segment, e.Reason)
}

// PermissionResolutionError wraps a failure of the permission source.
type PermissionResolutionError struct {
	UserId string
	Err    error
}

func (e *PermissionResolutionError) Error() string {
	return fmt.Sprintf("resolve permissions for user %s: %v", e.UserId, e.Err)
}

func (e *PermissionResolutionError) Unwrap() error {
	return e.Err
}

// IsClientCreationError reports whether err is or wraps a ClientCreationError.
func IsClientCreationError(err error) bool {
	var target *ClientCreationError
	return errors.As(err, &target)
}

// IsListingError reports whether err is or wraps a ListingError.
func IsListingError(err error) bool {
	var target *ListingError
	return errors.As(err, &target)
}
