package tcp

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var ErrShutdown = errors.New("listener has been shut down")

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

type onConnection func(net.Conn)

// Server is the accept loop. Accepted connections are passed to the callback
// synchronously, so a blocking callback stops the loop from accepting new ones.
type Server struct {
	sock     net.Listener
	onConn   onConnection
	log      zerolog.Logger
	shutdown atomic.Bool
	stop     chan struct{}
}

func NewServer(sock net.Listener, logger zerolog.Logger, onConn onConnection) *Server {
	return &Server{
		sock:   sock,
		onConn: onConn,
		log:    logger,
		stop:   make(chan struct{}),
	}
}

// Start runs the accept loop until Stop is called, in which case ErrShutdown is returned.
// Failed accepts (e.g. running out of file descriptors) are retried with a growing delay,
// only a listener closed behind the server's back ends the loop with its error.
func (s *Server) Start() error {
	var delay time.Duration

	for {
		conn, err := s.sock.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return ErrShutdown
			}

			if errors.Is(err, net.ErrClosed) {
				return err
			}

			delay = nextAcceptDelay(delay)
			s.log.Error().Err(err).Dur("retry_in", delay).Msg("failed to accept a connection")

			select {
			case <-time.After(delay):
			case <-s.stop:
				return ErrShutdown
			}

			continue
		}

		delay = 0
		s.onConn(conn)
	}
}

// Stop closes the listener. Already accepted connections are left untouched.
func (s *Server) Stop() error {
	if s.shutdown.CompareAndSwap(false, true) {
		close(s.stop)
	}

	return s.sock.Close()
}

func (s *Server) Addr() net.Addr {
	return s.sock.Addr()
}

func nextAcceptDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}

	return min(2*delay, maxAcceptDelay)
}
