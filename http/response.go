package http

import (
	"io"

	"github.com/indigo-web/httpd/http/headers"
	"github.com/indigo-web/httpd/http/status"
)

// why 8? Date, Server, Connection, Content-Type and Content-Length are set almost for
// every response, the rest is a spare room.
const preallocRespHeaders = 8

// Response accumulates the status line and the headers. Headers are kept in the order
// they were first set in.
type Response struct {
	// Code is 0 until set.
	Code    status.Code
	Status  status.Status
	Headers *headers.Headers
	// Body is streamed after the headers and closed once sent. nil means no body.
	Body io.ReadCloser
	// Size is exactly how many bytes of Body are sent. It must match Content-Length.
	Size int64
}

func NewResponse() *Response {
	return &Response{
		Headers: headers.NewPrealloc(preallocRespHeaders),
	}
}

// SetStatus sets both the code and the reason phrase. Last call wins.
func (r *Response) SetStatus(code status.Code, reason status.Status) *Response {
	r.Code = code
	r.Status = reason
	return r
}

// WithCode sets the code together with its standard reason phrase.
func (r *Response) WithCode(code status.Code) *Response {
	return r.SetStatus(code, status.Text(code))
}

// WriteHeader sets the header, replacing the value of an existing one with the same key.
// Otherwise, the header is added to the end.
func (r *Response) WriteHeader(key, value string) *Response {
	r.Headers.Set(key, value)
	return r
}

// AppendHeader extends the value of an existing header with "; " and the value. Absent
// headers are left untouched, so a header must always be set by WriteHeader first.
func (r *Response) AppendHeader(key, value string) *Response {
	r.Headers.Append(key, value)
	return r
}

// Attachment sets the body. Only the first size bytes of it are ever sent. The previous
// body, if any, is closed.
func (r *Response) Attachment(body io.ReadCloser, size int64) *Response {
	r.Detach()
	r.Body, r.Size = body, size
	return r
}

// Detach closes and drops the body, if any.
func (r *Response) Detach() *Response {
	if r.Body != nil {
		_ = r.Body.Close()
	}

	r.Body, r.Size = nil, 0
	return r
}

// HasBody reports whether a body is attached.
func (r *Response) HasBody() bool {
	return r.Body != nil
}

// Clear returns the response to its initial state, leaving the headers storage allocated.
func (r *Response) Clear() *Response {
	r.Detach()
	r.Code, r.Status = 0, ""
	r.Headers.Clear()
	return r
}
