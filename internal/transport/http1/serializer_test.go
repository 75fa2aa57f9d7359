package http1

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	stdhttp "net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/indigo-web/httpd/http"
	"github.com/indigo-web/httpd/http/status"
	"github.com/indigo-web/httpd/internal/server/tcp/dummy"
	"github.com/stretchr/testify/require"
)

func getSerializer() *Serializer {
	return NewSerializer("HTTP/1.1", make([]byte, 0, 1024), 128)
}

func readResponse(t *testing.T, data []byte, method string) *stdhttp.Response {
	stdreq, err := stdhttp.NewRequest(method, "/", nil)
	require.NoError(t, err)
	resp, err := stdhttp.ReadResponse(bufio.NewReader(bytes.NewBuffer(data)), stdreq)
	require.NoError(t, err)

	return resp
}

func openFile(t *testing.T, content string) *os.File {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	return file
}

type trackedBody struct {
	io.Reader
	closed bool
}

func newTrackedBody(content string) *trackedBody {
	return &trackedBody{Reader: strings.NewReader(content)}
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

type failingWriter struct {
	writes int
	failAt int
}

func (f *failingWriter) Write([]byte) error {
	f.writes++
	if f.writes >= f.failAt {
		return errors.New("broken pipe")
	}

	return nil
}

func TestSerializer_Write(t *testing.T) {
	t.Run("status line and headers in order", func(t *testing.T) {
		serializer := getSerializer()
		response := http.NewResponse().
			WithCode(status.NotFound).
			WriteHeader("Server", "httpd").
			WriteHeader("Content-Length", "0").
			WriteHeader("X-Custom", "a").
			AppendHeader("X-Custom", "b")

		writer := dummy.NewSinkholeWriter()
		n, err := serializer.Write(response, true, writer)
		require.NoError(t, err)
		require.Zero(t, n)
		require.Equal(t,
			"HTTP/1.1 404 Not Found\r\n"+
				"Server: httpd\r\n"+
				"Content-Length: 0\r\n"+
				"X-Custom: a; b\r\n"+
				"\r\n",
			string(writer.Data),
		)
		require.Equal(t, 1, writer.Writes)
	})

	t.Run("custom reason phrase", func(t *testing.T) {
		serializer := getSerializer()
		response := http.NewResponse().SetStatus(status.OK, "Totally Fine")
		writer := dummy.NewSinkholeWriter()
		_, err := serializer.Write(response, true, writer)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(string(writer.Data), "HTTP/1.1 200 Totally Fine\r\n"))
	})

	t.Run("configured version", func(t *testing.T) {
		serializer := NewSerializer("HTTP/1.0", nil, 128)
		writer := dummy.NewSinkholeWriter()
		_, err := serializer.Write(http.NewResponse().WithCode(status.OK), true, writer)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(string(writer.Data), "HTTP/1.0 200 OK\r\n"))
	})

	t.Run("file in chunks", func(t *testing.T) {
		content := strings.Repeat("0123456789", 50)
		serializer := getSerializer()
		response := http.NewResponse().
			WithCode(status.OK).
			WriteHeader("Content-Type", "text/plain").
			WriteHeader("Content-Length", "500").
			Attachment(openFile(t, content), 500)

		writer := dummy.NewSinkholeWriter()
		n, err := serializer.Write(response, true, writer)
		require.NoError(t, err)
		require.Equal(t, int64(len(content)), n)
		// the head, then 500/128 rounded up chunks
		require.Equal(t, 1+4, writer.Writes)
		require.False(t, response.HasBody())

		resp := readResponse(t, writer.Data, stdhttp.MethodGet)
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, content, string(body))
	})

	t.Run("without body", func(t *testing.T) {
		body := newTrackedBody("Hello, world!")
		serializer := getSerializer()
		response := http.NewResponse().
			WithCode(status.OK).
			WriteHeader("Content-Length", "13").
			Attachment(body, 13)

		writer := dummy.NewSinkholeWriter()
		n, err := serializer.Write(response, false, writer)
		require.NoError(t, err)
		require.Zero(t, n)
		require.Equal(t, 1, writer.Writes)
		require.True(t, body.closed)

		resp := readResponse(t, writer.Data, stdhttp.MethodHead)
		require.Equal(t, 13, int(resp.ContentLength))
		content, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Empty(t, content)
	})

	t.Run("buffer is reused", func(t *testing.T) {
		serializer := getSerializer()
		response := http.NewResponse().WithCode(status.OK).WriteHeader("Content-Length", "0")

		first := dummy.NewSinkholeWriter()
		_, err := serializer.Write(response, true, first)
		require.NoError(t, err)
		second := dummy.NewSinkholeWriter()
		_, err = serializer.Write(response, true, second)
		require.NoError(t, err)
		require.Equal(t, first.Data, second.Data)
	})

	t.Run("body longer than announced", func(t *testing.T) {
		body := newTrackedBody("Hello, world! And some more")
		serializer := getSerializer()
		response := http.NewResponse().
			WithCode(status.OK).
			WriteHeader("Content-Length", "13").
			Attachment(body, 13)

		writer := dummy.NewSinkholeWriter()
		n, err := serializer.Write(response, true, writer)
		require.NoError(t, err)
		require.Equal(t, int64(13), n)
		require.True(t, strings.HasSuffix(string(writer.Data), "\r\n\r\nHello, world!"))
		require.True(t, body.closed)
	})

	t.Run("body shorter than announced", func(t *testing.T) {
		body := newTrackedBody("Hello")
		serializer := getSerializer()
		response := http.NewResponse().
			WithCode(status.OK).
			WriteHeader("Content-Length", "13").
			Attachment(body, 13)

		writer := dummy.NewSinkholeWriter()
		n, err := serializer.Write(response, true, writer)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		require.Equal(t, int64(5), n)
		require.True(t, body.closed)
	})

	t.Run("failing writer", func(t *testing.T) {
		content := strings.Repeat("a", 1000)
		serializer := getSerializer()

		body := newTrackedBody(content)
		response := http.NewResponse().WithCode(status.OK).Attachment(body, 1000)
		_, err := serializer.Write(response, true, &failingWriter{failAt: 1})
		require.Error(t, err)
		require.True(t, body.closed)

		response.Attachment(newTrackedBody(content), 1000)
		writer := &failingWriter{failAt: 3}
		n, err := serializer.Write(response, true, writer)
		require.Error(t, err)
		require.Equal(t, int64(128), n)
		require.Equal(t, 3, writer.writes)
	})

	t.Run("minimal file buffer", func(t *testing.T) {
		serializer := NewSerializer("HTTP/1.1", nil, 1)
		require.Equal(t, minimalFileBuffSize, serializer.fileBuffSize)
	})
}
