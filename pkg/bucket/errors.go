package bucket

import (
	"errors"
	"fmt"

	"github.com/cloudbend/stratus/pkg/transport"
)

// Sentinel errors for request validation and response decoding.
var (
	// ErrInvalidRange is returned by GetRange when start >= end, before any
	// network request is issued.
	ErrInvalidRange = errors.New("range start must be less than end")

	// ErrMissingETag indicates a part-upload response without an ETag header.
	// This is a protocol-level failure, distinct from an HTTP status failure.
	ErrMissingETag = errors.New("missing ETag header in response")
)

// OpError wraps a failed bucket operation with its context.
type OpError struct {
	// Op is the operation that failed (e.g., "Get", "PutStream").
	Op string

	// Bucket is the bucket name.
	Bucket string

	// Key is the object key, if applicable.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("s3 %s: %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("s3 %s: %s: %v", e.Op, e.Bucket, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OpError) Unwrap() error {
	return e.Err
}

// DecodeError indicates a response that could not be interpreted: malformed
// XML, or a header that failed to parse.
type DecodeError struct {
	// What names the artifact that failed to decode (e.g., "ListBucketResult").
	What string

	// Err is the underlying decode failure.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MultipartError is a part-upload failure, possibly compounded by a failed
// AbortMultipartUpload. The original cause always takes precedence: Unwrap
// exposes Cause, and AbortErr is carried as supplementary context only.
type MultipartError struct {
	// Cause is the part-upload failure that terminated the upload.
	Cause error

	// AbortErr is non-nil when the automatic AbortMultipartUpload issued
	// after the failure itself failed, leaving the session orphaned.
	AbortErr error
}

// Error implements the error interface.
func (e *MultipartError) Error() string {
	if e.AbortErr != nil {
		return fmt.Sprintf("multipart upload failed: %v (abort also failed: %v)", e.Cause, e.AbortErr)
	}
	return fmt.Sprintf("multipart upload failed: %v", e.Cause)
}

// Unwrap returns the original cause.
func (e *MultipartError) Unwrap() error {
	return e.Cause
}

// StatusCode extracts the HTTP status from an error chain, returning false
// when the failure happened below the HTTP layer.
func StatusCode(err error) (int, bool) {
	var se *transport.StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

// IsNotFound reports whether err is an HTTP 404 from the server.
func IsNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == 404
}
