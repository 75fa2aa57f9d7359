package httpd

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/indigo-web/httpd/config"
	"github.com/indigo-web/httpd/internal/dispatch"
	"github.com/indigo-web/httpd/internal/metrics"
	"github.com/indigo-web/httpd/internal/server/http"
	"github.com/indigo-web/httpd/internal/server/tcp"
	"github.com/indigo-web/httpd/internal/static"
	"github.com/rs/zerolog"
)

var (
	ErrNotRunning     = errors.New("the server isn't running")
	ErrAlreadyRunning = errors.New("the server is already running")
)

// metricsShutdownTimeout limits how long the metrics listener may finish its requests
const metricsShutdownTimeout = 5 * time.Second

type hooks struct {
	OnStart, OnStop func()
}

// App is the static files server. It accepts connections on a single listener and
// hands them over to a fixed number of workers through a bounded queue.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger
	hooks  hooks

	mu      sync.Mutex
	server  *tcp.Server
	addr    net.Addr
	metrics *metrics.Metrics
}

// New returns a new App instance. The config must not be modified afterward.
func New(cfg *config.Config) *App {
	return &App{
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
}

// Logger replaces the default logger, which discards everything.
func (a *App) Logger(logger zerolog.Logger) *App {
	a.logger = logger
	return a
}

// NotifyOnStart calls the callback at the moment, when the listener is bound and the
// workers are started.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback at the moment, when the server is down. It's guaranteed,
// that no new connections are accepted by then and all the workers are done.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Serve listens on the configured port on all interfaces and blocks until Stop is
// called or the listener fails.
func (a *App) Serve() error {
	sock, err := net.Listen("tcp", ":"+strconv.Itoa(int(a.cfg.ListenPort)))
	if err != nil {
		return err
	}

	return a.ServeListener(sock)
}

// ServeListener serves connections accepted by the listener. The listener is closed
// on return. nil is returned if the server was stopped via Stop.
func (a *App) ServeListener(sock net.Listener) error {
	if err := a.cfg.Validate(); err != nil {
		_ = sock.Close()
		return fmt.Errorf("config: %w", err)
	}

	resolver, err := static.New(a.cfg)
	if err != nil {
		_ = sock.Close()
		return err
	}

	queue := dispatch.NewQueue[net.Conn](a.cfg.ThreadPoolSize)
	collectors := metrics.New()
	collectors.WatchQueue(queue.Len, queue.Cap)

	httpServer := http.NewServer(a.cfg, resolver, collectors, a.logger)
	workers := make([]*http.Worker, a.cfg.ThreadPoolSize)
	for i := range workers {
		workers[i] = httpServer.NewWorker(i)
	}

	pool := dispatch.NewPool(queue, len(workers), func(worker int, conn net.Conn) {
		workers[worker].Serve(conn)
	}).OnPanic(func(worker int, conn net.Conn, recovered any) {
		collectors.Panic()
		a.logger.Error().
			Int("worker", worker).
			Interface("panic", recovered).
			Bytes("stack", debug.Stack()).
			Msg("recovered from panic, closing the connection")
		_ = conn.Close()
	})

	server := tcp.NewServer(sock, a.logger, func(conn net.Conn) {
		a.logger.Info().Stringer("remote", conn.RemoteAddr()).Msg("accepted connection")

		if err := queue.Enqueue(conn); err != nil {
			_ = conn.Close()
		}
	})

	a.mu.Lock()
	if a.server != nil {
		a.mu.Unlock()
		_ = sock.Close()
		return ErrAlreadyRunning
	}

	a.server, a.addr, a.metrics = server, sock.Addr(), collectors
	a.mu.Unlock()

	metricsServer, err := a.serveMetrics(collectors)
	if err != nil {
		_ = server.Stop()
		a.reset()
		return err
	}

	pool.Start()
	a.logger.Info().
		Stringer("addr", sock.Addr()).
		Int("workers", a.cfg.ThreadPoolSize).
		Str("root", resolver.Root()).
		Msg("server started")
	callIfNotNil(a.hooks.OnStart)

	err = server.Start()

	// connections already waiting in the queue are still served
	queue.Close()
	pool.Wait()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		_ = metricsServer.Shutdown(ctx)
		cancel()
	}

	a.reset()
	a.logger.Info().Msg("server stopped")
	callIfNotNil(a.hooks.OnStop)

	if errors.Is(err, tcp.ErrShutdown) {
		return nil
	}

	return err
}

func (a *App) serveMetrics(collectors *metrics.Metrics) (*stdhttp.Server, error) {
	if a.cfg.MetricsPort == 0 {
		return nil, nil
	}

	sock, err := net.Listen("tcp", ":"+strconv.Itoa(int(a.cfg.MetricsPort)))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/metrics", collectors.Handler())
	server := &stdhttp.Server{
		Handler:           mux,
		ReadHeaderTimeout: a.cfg.RequestTimeout,
	}

	go func() {
		if err := server.Serve(sock); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("metrics listener failed")
		}
	}()

	a.logger.Info().Stringer("addr", sock.Addr()).Msg("metrics are exposed")

	return server, nil
}

// Stop stops accepting new connections. Serve returns as soon as all the already
// accepted connections are served.
func (a *App) Stop() error {
	a.mu.Lock()
	server := a.server
	a.mu.Unlock()

	if server == nil {
		return ErrNotRunning
	}

	return server.Stop()
}

// Addr returns the address the server listens on, or nil if it isn't running.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.addr
}

// Metrics returns the collectors of the running server, or nil if it isn't running.
func (a *App) Metrics() *metrics.Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.metrics
}

func (a *App) reset() {
	a.mu.Lock()
	a.server, a.addr, a.metrics = nil, nil, nil
	a.mu.Unlock()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
