package tcp

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/indigo-web/httpd/internal/timer"
	"github.com/indigo-web/httpd/internal/unreader"
)

type Client interface {
	// Read returns the pending data if there's any, otherwise reads from the socket. The
	// returned slice is valid until the next call.
	Read() ([]byte, error)
	Unread([]byte)
	// Await blocks until the peer sends something or the timeout expires. Received
	// bytes are kept pending and returned by the next Read.
	Await(timeout time.Duration) error
	Write([]byte) error
	Remote() net.Addr
	Close() error
}

type client struct {
	unreader *unreader.Unreader
	buff     []byte
	conn     net.Conn
	timeout  time.Duration
}

// NewClient wraps the connection. Every read and write must be done in timeout.
func NewClient(conn net.Conn, timeout time.Duration, buff []byte) Client {
	return &client{
		unreader: new(unreader.Unreader),
		buff:     buff,
		conn:     conn,
		timeout:  timeout,
	}
}

func (c *client) Read() ([]byte, error) {
	return c.unreader.PendingOr(func() ([]byte, error) {
		return c.read(c.timeout)
	})
}

func (c *client) Await(timeout time.Duration) error {
	if c.unreader.Pending() {
		return nil
	}

	data, err := c.read(timeout)
	if err != nil {
		return err
	}

	c.unreader.Unread(data)
	return nil
}

func (c *client) read(timeout time.Duration) ([]byte, error) {
	if err := c.conn.SetReadDeadline(timer.Deadline(timeout)); err != nil {
		return nil, err
	}

	n, err := c.conn.Read(c.buff)
	if n > 0 {
		// the error, if any, is going to be returned by the next read
		return c.buff[:n], nil
	}

	if err == nil {
		err = io.ErrNoProgress
	}

	return nil, err
}

func (c *client) Unread(b []byte) {
	c.unreader.Unread(b)
}

func (c *client) Write(b []byte) error {
	if err := c.conn.SetWriteDeadline(timer.Deadline(c.timeout)); err != nil {
		return err
	}

	_, err := c.conn.Write(b)
	return err
}

func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *client) Close() error {
	return c.conn.Close()
}

// IsClosed reports whether the error means the peer has gone. Such errors are the
// regular way for a connection to end and aren't worth reporting.
func IsClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// IsTimeout reports whether the error is caused by an expired deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
