package errcodes

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

const (
	CodeNotFound         = "not_found"
	CodeSetupRequired    = "setup_required"
	CodeTooManyRequests  = "too_many_requests"
	CodeValidationError  = "validation_error"
	CodeUnknownParameter = "unknown_parameter"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// HasCode reports whether err (or anything it wraps) is an *Error with the
// given code.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// IsStoreUnavailable reports whether err means the book store can't serve
// queries at all, as opposed to a query that matched nothing.
func IsStoreUnavailable(err error) bool {
	return HasCode(err, CodeSetupRequired)
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		CodeNotFound,
	}
}

// StoreUnavailable returns a 503 error for a catalog database that is
// unreachable or hasn't been set up yet. The reason is included in the
// message so the setup-required page can tell the operator what is missing.
func StoreUnavailable(reason string) error {
	return &Error{
		http.StatusServiceUnavailable,
		fmt.Sprintf("Catalog setup required: %s.", reason),
		CodeSetupRequired,
	}
}

func TooManyRequests() error {
	return &Error{
		http.StatusTooManyRequests,
		"Too many requests, slow down.",
		CodeTooManyRequests,
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		CodeUnknownParameter,
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		CodeValidationError,
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}
