package transport

import (
	"github.com/indigo-web/httpd/http"
)

// Reader is the source requests are parsed from. Bytes read beyond the request must
// be given back via Unread.
type Reader interface {
	Read() ([]byte, error)
	Unread([]byte)
}

type Writer interface {
	Write([]byte) error
}

type Parser interface {
	Parse(reader Reader) error
}

// Serializer renders the response and writes it. The header block and the body are
// always sent as separate writes. Body is written only if withBody is true, the number
// of body bytes written is returned.
type Serializer interface {
	Write(response *http.Response, withBody bool, writer Writer) (int64, error)
}

// Transport is a general pair of a parser and a serializer. Usually consists of both belonging
// to a same protocol major version
type Transport interface {
	Parser
	Serializer
}
