package http1

import (
	"bytes"
	"strings"

	"github.com/indigo-web/httpd/http"
	"github.com/indigo-web/httpd/http/method"
	"github.com/indigo-web/httpd/http/status"
	"github.com/indigo-web/httpd/internal/buffer"
	"github.com/indigo-web/httpd/internal/transport"
	"github.com/indigo-web/utils/uf"
)

var (
	crlf     = []byte("\r\n")
	crlfcrlf = []byte("\r\n\r\n")
)

// Parser reads a whole request at once: the head section is accumulated until the empty
// line is met, then the body is read if the Content-Length header is presented. The
// request object is filled by pointer. Strings in it refer to the parser's buffers, so
// they are valid only until the next Parse call.
//
// Any error means there's no request to respond to. Bytes following the request (a
// pipelined one, for example) are given back to the reader.
type Parser struct {
	request *http.Request
	head    *buffer.Buffer
	body    *buffer.Buffer
}

func NewParser(request *http.Request, head, body *buffer.Buffer) *Parser {
	return &Parser{
		request: request,
		head:    head,
		body:    body,
	}
}

func (p *Parser) Parse(reader transport.Reader) error {
	p.head.Clear()
	p.body.Clear()

	head, err := p.readHead(reader)
	if err != nil {
		return err
	}

	if err = p.parseHead(head); err != nil {
		return err
	}

	return p.readBody(reader)
}

func (p *Parser) readHead(reader transport.Reader) ([]byte, error) {
	for {
		data, err := reader.Read()
		if err != nil {
			return nil, err
		}

		chunk := data
		if room := p.head.Limit() - p.head.Len(); len(chunk) > room {
			chunk = chunk[:room]
		}

		// the terminator may be split between two reads
		offset := max(p.head.Len()-len(crlfcrlf)+1, 0)
		before := p.head.Len()
		p.head.Append(chunk)

		if i := bytes.Index(p.head.Bytes()[offset:], crlfcrlf); i != -1 {
			end := offset + i + len(crlfcrlf)
			reader.Unread(data[end-before:])
			p.head.Trunc(end)

			return p.head.Bytes(), nil
		}

		if len(chunk) < len(data) || p.head.Len() == p.head.Limit() {
			return nil, status.ErrHeaderFieldsTooLarge
		}
	}
}

func (p *Parser) parseHead(head []byte) error {
	request := p.request

	// drop the empty line. The last remaining line also loses its CRLF
	head = head[:len(head)-len(crlfcrlf)]
	line, rest := cutLine(head)

	sp := bytes.IndexByte(line, ' ')
	if sp <= 0 {
		return status.ErrBadRequest
	}

	request.Method = method.Parse(uf.B2S(line[:sp]))
	line = line[sp+1:]

	sp = bytes.IndexByte(line, ' ')
	if sp <= 0 {
		return status.ErrBadRequest
	}

	request.SetURI(uf.B2S(line[:sp]))
	request.Proto = uf.B2S(line[sp+1:])

	for len(rest) > 0 {
		line, rest = cutLine(rest)

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return status.ErrBadRequest
		}

		key, value := line[:colon], line[colon+1:]
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}

		request.Headers.Add(uf.B2S(key), uf.B2S(value))
	}

	return nil
}

func (p *Parser) readBody(reader transport.Reader) error {
	value, found := p.request.Headers.Get("Content-Length")
	if !found {
		return nil
	}

	length, ok := parseContentLength(value)
	if !ok {
		return status.ErrBadContentLength
	}

	if length > p.body.Limit() {
		return status.ErrBodyTooLarge
	}

	for p.body.Len() < length {
		data, err := reader.Read()
		if err != nil {
			return err
		}

		if left := length - p.body.Len(); len(data) > left {
			reader.Unread(data[left:])
			data = data[:left]
		}

		p.body.Append(data)
	}

	p.request.ContentLength = length
	p.request.Body = p.body.Bytes()
	if p.request.Body == nil {
		p.request.Body = []byte{}
	}

	return nil
}

func cutLine(data []byte) (line, rest []byte) {
	if i := bytes.Index(data, crlf); i != -1 {
		return data[:i], data[i+len(crlf):]
	}

	return data, nil
}

// parseContentLength accepts decimal digits surrounded by optional whitespace. Values
// longer than 18 digits can't pass any sane limit anyway, so they are rejected as
// malformed instead of overflowing.
func parseContentLength(value string) (n int, ok bool) {
	value = strings.Trim(value, " \t")
	if len(value) == 0 || len(value) > 18 {
		return 0, false
	}

	for i := 0; i < len(value); i++ {
		char := value[i]
		if char < '0' || char > '9' {
			return 0, false
		}

		n = n*10 + int(char-'0')
	}

	return n, true
}
