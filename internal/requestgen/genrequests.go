package requestgen

import (
	"strconv"
	"strings"

	"github.com/indigo-web/httpd/http/headers"
)

// Headers returns n headers with long names and values, Host is always the last one.
func Headers(n int) *headers.Headers {
	hdrs := headers.NewPrealloc(n)

	for i := 0; i < n-1; i++ {
		hdrs.Add("some-random-header-name-nobody-cares-about"+strconv.Itoa(i), strings.Repeat("b", 100))
	}

	return hdrs.Add("Host", "localhost")
}

func HeadersBlock(hdrs *headers.Headers) (buff []byte) {
	for _, pair := range hdrs.Unwrap() {
		buff = append(buff, pair.Key+": "+pair.Value+"\r\n"...)
	}

	return buff
}

// Generate renders a GET request to /uri with the headers.
func Generate(uri string, hdrs *headers.Headers) (request []byte) {
	request = append(request, "GET /"+uri+" HTTP/1.1\r\n"...)
	request = append(request, HeadersBlock(hdrs)...)

	return append(request, '\r', '\n')
}

// Disperse splits the data into pieces of n bytes at most.
func Disperse(data []byte, n int) (parts [][]byte) {
	for len(data) > n {
		parts = append(parts, data[:n])
		data = data[n:]
	}

	if len(data) > 0 {
		parts = append(parts, data)
	}

	return parts
}
