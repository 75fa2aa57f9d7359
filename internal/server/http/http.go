package http

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/httpd/config"
	"github.com/indigo-web/httpd/http"
	"github.com/indigo-web/httpd/http/headers"
	"github.com/indigo-web/httpd/http/method"
	"github.com/indigo-web/httpd/http/status"
	"github.com/indigo-web/httpd/internal/buffer"
	"github.com/indigo-web/httpd/internal/metrics"
	"github.com/indigo-web/httpd/internal/server/tcp"
	"github.com/indigo-web/httpd/internal/static"
	"github.com/indigo-web/httpd/internal/timer"
	"github.com/indigo-web/httpd/internal/transport"
	"github.com/indigo-web/httpd/internal/transport/http1"
	"github.com/indigo-web/utils/strcomp"
	"github.com/rs/zerolog"
)

// connIDLength is the length of a random connection identifier, appearing in every log
// line about the connection
const connIDLength = 8

// Server holds everything the workers share. None of it is mutated after construction.
type Server struct {
	cfg      *config.Config
	resolver *static.Resolver
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewServer(
	cfg *config.Config, resolver *static.Resolver, metrics *metrics.Metrics, logger zerolog.Logger,
) *Server {
	return &Server{
		cfg:      cfg,
		resolver: resolver,
		metrics:  metrics,
		logger:   logger,
	}
}

// Worker processes connections one by one. All the buffers and entities are owned by
// the worker exclusively and reused across connections.
type Worker struct {
	server   *Server
	id       int
	readBuff []byte
	request  *http.Request
	response *http.Response
	trans    transport.Transport

	// the rest lives as long as the current connection does
	client  tcp.Client
	log     zerolog.Logger
	served  int
	timeout time.Duration
	close   bool
	started time.Time
	sent    int64
}

func (s *Server) NewWorker(id int) *Worker {
	cfg := s.cfg
	request := http.NewRequest(headers.New(), nil)

	return &Worker{
		server:   s,
		id:       id,
		readBuff: make([]byte, cfg.Limits.ReadBufferSize),
		request:  request,
		response: http.NewResponse(),
		trans: http1.New(
			request,
			buffer.New(cfg.Limits.HeaderGrowth, cfg.Limits.HeaderSize),
			buffer.New(cfg.Limits.BodyGrowth, cfg.Limits.BodySize),
			cfg.HTTPVersion,
			make([]byte, 0, cfg.Limits.HeaderGrowth),
			cfg.FileBufferSize,
		),
	}
}

// Serve runs the connection through the states until it's closed. The connection is
// always closed on return, except the case of a panic.
func (w *Worker) Serve(conn net.Conn) {
	cfg := w.server.cfg
	w.client = tcp.NewClient(conn, cfg.RequestTimeout, w.readBuff)
	w.request.Remote = w.client.Remote()
	w.served = 0
	w.timeout = cfg.RequestTimeout
	w.close = false
	w.log = w.server.logger.With().
		Str("conn", uniuri.NewLen(connIDLength)).
		Stringer("remote", w.request.Remote).
		Int("worker", w.id).
		Logger()

	w.server.metrics.ConnectionOpened()
	defer w.server.metrics.ConnectionClosed()

	for state := awaitRequest; state != nil; {
		state = state(w)
	}
}

// handle dispatches the request by its method. Only GET, HEAD and POST are served, all
// of them in the same way.
func (w *Worker) handle() {
	switch w.request.Method {
	case method.GET, method.HEAD, method.POST:
		w.serveFile()
	default:
		w.fail(status.ErrMethodNotAllowed)
	}
}

// safeHandle recovers handler panics, turning them into errors.
func (w *Worker) safeHandle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", status.ErrInternalServerError, r)
		}
	}()

	w.handle()
	return nil
}

// serveFile opens the file before anything is rendered, so a file that can't be read
// is still answered with a proper error response.
func (w *Worker) serveFile() {
	fd, file, err := w.server.resolver.Open(w.request.Path)
	if err != nil {
		w.fail(err)
		return
	}

	w.response.WithCode(status.OK)
	w.attach(fd, file)
}

// fail responds with the status code corresponding to the error. Error documents are
// attached to every response except 405 Method Not Allowed.
func (w *Worker) fail(err error) {
	code := status.CodeOf(err)
	if code == status.InternalServerError {
		w.log.Error().Err(err).Str("path", w.request.Path).Msg("failed to process the request")
	}

	w.response.Detach().WithCode(code)

	if code != status.MethodNotAllowed {
		if fd, file, ok := w.errorDocument(code); ok {
			w.attach(fd, file)
			return
		}
	}

	w.response.WriteHeader("Content-Length", "0")
}

// internalError discards everything the handler has set except the common headers
// and responds with 500 Internal Server Error.
func (w *Worker) internalError(err error) {
	w.response.Clear()
	w.setCommonHeaders()
	w.fail(err)
}

// errorDocument opens the error document configured for the code. Documents that
// can't be opened are skipped.
func (w *Worker) errorDocument(code status.Code) (*os.File, static.File, bool) {
	file, ok := w.server.resolver.ErrorDocument(code)
	if !ok {
		return nil, static.File{}, false
	}

	fd, opened, err := static.OpenFile(file)
	if err != nil {
		w.log.Warn().Err(err).Str("path", file.Path).Msg("failed to open the error document")
		return nil, static.File{}, false
	}

	return fd, opened, true
}

// attach takes over the opened file, it's closed together with the response.
func (w *Worker) attach(fd *os.File, file static.File) {
	w.response.
		Attachment(fd, file.Size).
		WriteHeader("Content-Type", file.Type)
	if file.IsText() && len(w.server.cfg.Charset) > 0 {
		w.response.AppendHeader("Content-Type", "charset="+w.server.cfg.Charset)
	}

	w.response.WriteHeader("Content-Length", strconv.FormatInt(file.Size, 10))
}

// setCommonHeaders sets the headers every response carries. The decision whether the
// connection is kept alive is also made here, as it must be announced to the client.
func (w *Worker) setCommonHeaders() {
	w.close = !w.keepAlive()

	connection := "keep-alive"
	if w.close {
		connection = "close"
	}

	w.response.
		WriteHeader("Date", timer.Date()).
		WriteHeader("Server", w.server.cfg.ServerName).
		WriteHeader("Connection", connection)
}

// keepAlive reports whether the connection may serve one more request. Missing
// Connection header means the client doesn't want it.
func (w *Worker) keepAlive() bool {
	value, found := w.request.Headers.Get("Connection")
	if !found || strcomp.EqualFold(value, "close") {
		return false
	}

	return !w.server.cfg.KeepAliveLimited(w.served)
}
