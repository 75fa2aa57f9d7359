package dummy

import (
	"io"
	"net"
	"time"

	"github.com/indigo-web/httpd/internal/server/tcp"
	"github.com/indigo-web/httpd/internal/unreader"
)

var _ tcp.Client = new(CircularClient)

// CircularClient is a client that on every read-operation returns the next piece of
// data it was initialised with, starting over after the last one. This is used mainly
// for benchmarking and testing the parser on dispersed input
type CircularClient struct {
	unreader        *unreader.Unreader
	data            [][]byte
	pointer         int
	closed, oneTime bool
	Written         []byte
}

func NewCircularClient(data ...[]byte) *CircularClient {
	return &CircularClient{
		unreader: new(unreader.Unreader),
		data:     data,
	}
}

func (c *CircularClient) Read() ([]byte, error) {
	return c.unreader.PendingOr(func() ([]byte, error) {
		if c.closed || len(c.data) == 0 {
			return nil, io.EOF
		}

		if c.pointer >= len(c.data) {
			if c.oneTime {
				c.closed = true
				return nil, io.EOF
			}

			c.pointer = 0
		}

		piece := c.data[c.pointer]
		c.pointer++

		return piece, nil
	})
}

func (c *CircularClient) Unread(takeback []byte) {
	c.unreader.Unread(takeback)
}

func (c *CircularClient) Await(time.Duration) error {
	if c.unreader.Pending() {
		return nil
	}

	data, err := c.Read()
	if err != nil {
		return err
	}

	c.unreader.Unread(data)
	return nil
}

func (c *CircularClient) Write(b []byte) error {
	c.Written = append(c.Written, b...)
	return nil
}

func (*CircularClient) Remote() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func (c *CircularClient) Close() error {
	c.closed = true
	return nil
}

// OneTime makes the client return io.EOF once all the pieces were read.
func (c *CircularClient) OneTime() *CircularClient {
	c.oneTime = true
	return c
}

// NewNopClient returns a client that is closed from the very beginning.
func NewNopClient() tcp.Client {
	return NewCircularClient()
}

// SinkholeWriter collects everything written into it.
type SinkholeWriter struct {
	Data   []byte
	Writes int
}

func NewSinkholeWriter() *SinkholeWriter {
	return new(SinkholeWriter)
}

func (s *SinkholeWriter) Write(b []byte) error {
	s.Data = append(s.Data, b...)
	s.Writes++
	return nil
}
