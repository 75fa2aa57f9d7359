package status

import "errors"

// HTTPError couples an error message with the status code a client would see for it.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// CodeOf returns the status code carried by err, or InternalServerError if err isn't
// an HTTPError.
func CodeOf(err error) Code {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return InternalServerError
}

var (
	// parse errors. None of them is ever answered, the connection is simply closed
	ErrBadRequest           = NewError(BadRequest, "bad request")
	ErrHeaderFieldsTooLarge = NewError(RequestHeaderFieldsTooLarge, "too large headers section")
	ErrBodyTooLarge         = NewError(RequestEntityTooLarge, "request body is too large")
	ErrBadContentLength     = NewError(BadRequest, "malformed Content-Length value")

	ErrNotFound            = NewError(NotFound, "not found")
	ErrMethodNotAllowed    = NewError(MethodNotAllowed, "method not allowed")
	ErrInternalServerError = NewError(InternalServerError, "internal server error")
)
