package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/indigo-web/httpd/http/mime"
	"github.com/indigo-web/httpd/http/status"
)

// OutputLevel controls how talkative the server is.
type OutputLevel uint8

const (
	Silent OutputLevel = iota
	Normal
	Verbose
	Debug
)

type ErrorDocument struct {
	Code status.Code
	// Path is either absolute or relative to the Config.ServerRoot.
	Path string
}

type (
	// Limits aren't exposed by configuration files and are left for programmatic tuning.
	Limits struct {
		// HeaderSize is the hard ceiling of the request line together with the headers
		// section, including the terminating empty line.
		HeaderSize int
		// HeaderGrowth is the step the header buffer grows by.
		HeaderGrowth int
		// BodySize is the maximal accepted Content-Length value.
		BodySize int
		// BodyGrowth is the step the body buffer grows by.
		BodyGrowth int
		// ReadBufferSize is the size of a single read from the socket.
		ReadBufferSize int
	}
)

// Config is read-only once the server is started and is therefore shared by all the
// workers without any synchronization.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	ServerName string
	// ServerRoot is the base for relative error document paths.
	ServerRoot string
	// DocumentRoot is the directory all the request paths are resolved against.
	DocumentRoot string
	// HTTPVersion is rendered into the status line of every response.
	HTTPVersion string
	// Charset is appended to the Content-Type of every text/* response.
	Charset string
	// DefaultType is used for files with unknown or no extension.
	DefaultType    mime.MIME
	ThreadPoolSize int
	ListenPort     uint16
	// KeepAliveTimeout limits how long a persistent connection may stay idle between requests.
	KeepAliveTimeout time.Duration
	// RequestTimeout limits how long a fresh connection may stay silent, and how long every
	// single read may take while receiving a request.
	RequestTimeout time.Duration
	// MaxKeepAliveRequests is the number of responses after which a persistent connection
	// is closed anyway. 0 disables the limit.
	MaxKeepAliveRequests int `test:"nullable"`
	// DirectoryIndex lists file names tried in order when a directory is requested.
	DirectoryIndex []string
	ErrorDocuments []ErrorDocument `test:"nullable"`
	OutputLevel    OutputLevel
	// FileBufferSize is the size of chunks files are streamed in.
	FileBufferSize int
	// MetricsPort exposes Prometheus metrics at /metrics. 0 disables it.
	MetricsPort uint16 `test:"nullable"`
	// ResolveCacheTTL enables caching of path resolutions. 0 disables it.
	ResolveCacheTTL time.Duration `test:"nullable"`
	Limits          Limits
}

// Default returns default config. Those are initially well-balanced and mirror what the
// configuration files are usually shipped with.
func Default() *Config {
	return &Config{
		ServerName:           "httpd",
		ServerRoot:           ".",
		DocumentRoot:         "./www",
		HTTPVersion:          "HTTP/1.1",
		Charset:              "UTF-8",
		DefaultType:          mime.Plain,
		ThreadPoolSize:       10,
		ListenPort:           8080,
		KeepAliveTimeout:     5 * time.Second,
		RequestTimeout:       30 * time.Second,
		MaxKeepAliveRequests: 100,
		DirectoryIndex:       []string{"index.html", "index.htm"},
		OutputLevel:          Normal,
		FileBufferSize:       1024,
		Limits: Limits{
			HeaderSize:     8 * 1024,
			HeaderGrowth:   512,
			BodySize:       1024 * 1024 * 1024, // 1 gigabyte
			BodyGrowth:     1024 * 1024,
			ReadBufferSize: 4 * 1024,
		},
	}
}

var (
	ErrNoDocumentRoot    = errors.New("DocumentRoot must be set")
	ErrBadThreadPoolSize = errors.New("ThreadPoolSize must be at least 1")
	ErrBadListenPort     = errors.New("ListenPort must be set")
	ErrBadHTTPVersion    = errors.New("HTTPVersion must be set")
	ErrBadLimits         = errors.New("limits and buffer sizes must be positive")
	ErrSmallFileBuffer   = fmt.Errorf("FileBufferSize must be at least %d", MinFileBufferSize)
)

// MinFileBufferSize is the smallest chunk files may be streamed in.
const MinFileBufferSize = 16

// Validate rejects configurations the server can't run with.
func (c *Config) Validate() error {
	switch {
	case len(c.DocumentRoot) == 0:
		return ErrNoDocumentRoot
	case c.ThreadPoolSize < 1:
		return ErrBadThreadPoolSize
	case c.ListenPort == 0:
		return ErrBadListenPort
	case len(c.HTTPVersion) == 0:
		return ErrBadHTTPVersion
	case c.FileBufferSize < MinFileBufferSize:
		return ErrSmallFileBuffer
	case c.Limits.HeaderSize <= 0, c.Limits.HeaderGrowth <= 0,
		c.Limits.BodySize < 0, c.Limits.BodyGrowth <= 0, c.Limits.ReadBufferSize <= 0:
		return ErrBadLimits
	case c.MaxKeepAliveRequests < 0:
		return fmt.Errorf("MaxKeepAliveRequests must not be negative, got %d", c.MaxKeepAliveRequests)
	}

	return nil
}

// KeepAliveLimited reports whether n served responses reach the keep-alive limit.
func (c *Config) KeepAliveLimited(n int) bool {
	return c.MaxKeepAliveRequests > 0 && n >= c.MaxKeepAliveRequests
}
