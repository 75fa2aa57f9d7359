package http1

import (
	"io"
	"strconv"

	"github.com/indigo-web/httpd/http"
	"github.com/indigo-web/httpd/internal/transport"
)

// minimalFileBuffSize defines the minimal size of the file buffer. Smaller values are
// rejected by the config validation, so the fallback is only hit by direct callers.
const minimalFileBuffSize = 16

var colonsp = []byte(": ")

type Serializer struct {
	version string
	buff    []byte
	// fileBuff isn't allocated until needed in order to save memory in cases,
	// where no files are being sent
	fileBuff     []byte
	fileBuffSize int
}

func NewSerializer(version string, buff []byte, fileBuffSize int) *Serializer {
	if fileBuffSize < minimalFileBuffSize {
		fileBuffSize = minimalFileBuffSize
	}

	return &Serializer{
		version:      version,
		buff:         buff[:0],
		fileBuffSize: fileBuffSize,
	}
}

// Write renders the status line and the headers in the order they were set and sends
// them with a single write. If withBody is set and a body is attached, exactly
// response.Size bytes of it follow in chunks of the file buffer size. A body running
// short is reported with io.ErrUnexpectedEOF, as the headers are already gone and the
// connection can't be reused. The body is closed in any case.
func (s *Serializer) Write(
	response *http.Response, withBody bool, writer transport.Writer,
) (written int64, err error) {
	defer s.clear()
	defer response.Detach()

	s.renderResponseLine(response)
	s.renderHeaders(response)
	s.crlf()

	if err = writer.Write(s.buff); err != nil {
		return 0, err
	}

	if !withBody || !response.HasBody() {
		return 0, nil
	}

	return s.sendBody(response.Body, response.Size, writer)
}

func (s *Serializer) renderResponseLine(response *http.Response) {
	s.buff = append(s.buff, s.version...)
	s.sp()
	s.buff = strconv.AppendUint(s.buff, uint64(response.Code), 10)
	s.sp()
	s.buff = append(s.buff, response.Status...)
	s.crlf()
}

func (s *Serializer) renderHeaders(response *http.Response) {
	for _, header := range response.Headers.Unwrap() {
		s.buff = append(s.buff, header.Key...)
		s.buff = append(s.buff, colonsp...)
		s.buff = append(s.buff, header.Value...)
		s.crlf()
	}
}

func (s *Serializer) sendBody(body io.Reader, size int64, writer transport.Writer) (written int64, err error) {
	if len(s.fileBuff) == 0 {
		s.fileBuff = make([]byte, s.fileBuffSize)
	}

	written, err = s.writePlainBody(io.LimitReader(body, size), writer)
	if err == nil && written < size {
		err = io.ErrUnexpectedEOF
	}

	return written, err
}

func (s *Serializer) writePlainBody(r io.Reader, writer transport.Writer) (written int64, err error) {
	for {
		n, err := r.Read(s.fileBuff)
		if n > 0 {
			if err := writer.Write(s.fileBuff[:n]); err != nil {
				return written, err
			}

			written += int64(n)
		}

		switch err {
		case nil:
		case io.EOF:
			return written, nil
		default:
			return written, err
		}
	}
}

func (s *Serializer) sp() {
	s.buff = append(s.buff, ' ')
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, crlf...)
}

func (s *Serializer) clear() {
	s.buff = s.buff[:0]
}
