package catalog

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Kind classifies catalog operation failures. Every error returned by
// the service layer carries exactly one kind so callers can map it to
// a transport response without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation marks malformed or out-of-range input.
	KindValidation
	// KindNotAuthorized marks an actor that fails the admin check.
	KindNotAuthorized
	// KindUniqueness marks a duplicate sku or variant combination.
	KindUniqueness
	// KindInvariant marks an operation that would break a catalog invariant.
	KindInvariant
	// KindNotFound marks a missing product, variant, category or status row.
	KindNotFound
	// KindTransient marks a connectivity or storage failure safe to retry.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotAuthorized:
		return "not_authorized"
	case KindUniqueness:
		return "uniqueness_violation"
	case KindInvariant:
		return "invariant_violation"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient_store_error"
	default:
		return "unknown"
	}
}

// Error is the service error type. Message is human readable; Err holds
// the wrapped cause when one exists.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from a service error; unrecognized errors
// are treated as transient storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindTransient
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// wrapStoreErr classifies a raw database error into the taxonomy.
func wrapStoreErr(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: msg, Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateErr(err):
		return &Error{Kind: KindUniqueness, Message: msg, Err: err}
	default:
		return &Error{Kind: KindTransient, Message: msg, Err: errors.WithStack(err)}
	}
}

// isDuplicateErr matches driver-level unique constraint messages for the
// backends we run on (postgres and sqlite).
func isDuplicateErr(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}
