package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory classifies the failures the upload store can report.
// Callers use it to pick a response status and to decide whether an
// operation is worth retrying.
type ErrorCategory int

const (
	// ErrorStorage indicates the store could not accept or keep data,
	// for example because its capacity is exhausted.
	ErrorStorage ErrorCategory = iota + 1

	// ErrorCompression indicates a payload could not be compressed or
	// decompressed.
	ErrorCompression

	// ErrorChecksum indicates data did not match the checksum it was
	// stored or committed with.
	ErrorChecksum

	// ErrorCodec indicates a stored record could not be encoded or decoded.
	ErrorCodec

	// ErrorNotFound indicates a referenced chunk or asset does not exist.
	ErrorNotFound

	// ErrorUnauthorized indicates the caller is anonymous or does not own
	// the referenced resource.
	ErrorUnauthorized
)

// String returns the string representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorStorage:
		return "storage"
	case ErrorCompression:
		return "compression"
	case ErrorChecksum:
		return "checksum"
	case ErrorCodec:
		return "codec"
	case ErrorNotFound:
		return "not-found"
	case ErrorUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

type UploadError struct {
	Err       error
	Operation string
	Timestamp time.Time
	Category  ErrorCategory
}

// New wraps err into an UploadError stamped with the current time.
func New(category ErrorCategory, operation string, err error) *UploadError {
	return &UploadError{Err: err, Operation: operation, Category: category, Timestamp: time.Now()}
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("[%v] %s: %v", e.Category, e.Operation, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// IsRetryAble returns whether errors of this category can be retried.
func (e *UploadError) IsRetryAble() bool {
	switch e.Category {
	case ErrorStorage:
		// Space may be reclaimed by the expiry sweep or asset deletion.
		return true
	case ErrorCompression, ErrorChecksum, ErrorCodec:
		return false
	case ErrorNotFound, ErrorUnauthorized:
		return false
	default:
		return false
	}
}

// CategoryOf returns the category of the first UploadError in err's chain,
// or 0 when there is none.
func CategoryOf(err error) ErrorCategory {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Category
	}
	return 0
}

// IsCategory reports whether err carries an UploadError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	return CategoryOf(err) == category
}
