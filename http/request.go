package http

import (
	"net"

	"github.com/indigo-web/httpd/http/headers"
	"github.com/indigo-web/httpd/http/method"
)

// Request represents HTTP request. The object is reused across requests of a single
// connection, so none of its fields must be retained after the response is sent.
type Request struct {
	// Method is an enum representing the request method. Tokens out of the supported
	// set are represented by method.Unknown.
	Method method.Method
	// URI is the request target exactly as it was received.
	URI string
	// Path is the URI with the query stripped.
	Path string
	// Query holds everything starting from the question mark inclusively. Check HasQuery
	// in order to distinguish an absent query from a bare "?".
	Query    string
	HasQuery bool
	// Proto is the raw protocol version token, e.g. HTTP/1.1.
	Proto string
	// Headers holds header pairs in the order of their appearance. Repeated keys aren't
	// merged, lookup returns the first one.
	Headers *headers.Headers
	// ContentLength is -1 when the request had no Content-Length header.
	ContentLength int
	// Body holds exactly ContentLength bytes. It is nil if ContentLength is -1.
	Body []byte
	// Remote holds the remote address.
	Remote net.Addr
}

func NewRequest(hdrs *headers.Headers, remote net.Addr) *Request {
	return &Request{
		Method:        method.Unknown,
		Headers:       hdrs,
		ContentLength: -1,
		Remote:        remote,
	}
}

// SetURI sets the URI and splits it into the path and the query.
func (r *Request) SetURI(uri string) {
	r.URI = uri
	r.Path, r.Query, r.HasQuery = uri, "", false

	for i := 0; i < len(uri); i++ {
		if uri[i] == '?' {
			r.Path, r.Query, r.HasQuery = uri[:i], uri[i:], true
			break
		}
	}
}

// HasBody reports whether the request carried a Content-Length header.
func (r *Request) HasBody() bool {
	return r.ContentLength >= 0
}

// Clear resets the request to its initial state. Remote is kept, as it doesn't change
// during the connection's lifetime.
func (r *Request) Clear() {
	r.Method = method.Unknown
	r.URI, r.Path, r.Query, r.Proto = "", "", "", ""
	r.HasQuery = false
	r.Headers.Clear()
	r.ContentLength = -1
	r.Body = nil
}
