package http

import (
	"time"

	"github.com/indigo-web/httpd/http/method"
	"github.com/indigo-web/httpd/internal/server/tcp"
)

// stateFunc is a single state of the connection. It returns the next one, nil means
// the connection is over.
type stateFunc func(*Worker) stateFunc

// awaitRequest waits for the first bytes of the next request. Idle connections are
// closed once the timeout expires.
func awaitRequest(w *Worker) stateFunc {
	err := w.client.Await(w.timeout)
	switch {
	case err == nil:
		return processRequest
	case tcp.IsTimeout(err):
		w.log.Debug().Dur("timeout", w.timeout).Msg("idle connection closed")
	case tcp.IsClosed(err):
		w.log.Debug().Msg("closed by peer")
	default:
		w.log.Error().Err(err).Msg("failed to wait for a request")
	}

	return closeConnection
}

// processRequest parses the request and builds the response. Malformed requests aren't
// answered.
func processRequest(w *Worker) stateFunc {
	w.request.Clear()
	w.response.Clear()

	if err := w.trans.Parse(w.client); err != nil {
		if tcp.IsClosed(err) {
			w.log.Debug().Msg("closed by peer in the middle of a request")
		} else {
			w.server.metrics.ParseError()
			w.log.Info().Err(err).Msg("malformed request, closing the connection")
		}

		return closeConnection
	}

	w.log.Trace().
		Str("method", w.request.Method.String()).
		Str("uri", w.request.URI).
		Str("proto", w.request.Proto).
		Int("headers", w.request.Headers.Len()).
		Int("body", len(w.request.Body)).
		Msg("request parsed")

	w.started = time.Now()
	w.served++
	w.setCommonHeaders()

	if err := w.safeHandle(); err != nil {
		w.internalError(err)
	}

	return sendResponse
}

// sendResponse writes the response. The body is never sent in response to HEAD.
func sendResponse(w *Worker) stateFunc {
	withBody := w.request.Method != method.HEAD
	sent, err := w.trans.Write(w.response, withBody, w.client)
	w.sent = sent
	w.server.metrics.Request(w.request.Method, w.response.Code, sent, time.Since(w.started))

	if err != nil {
		if tcp.IsClosed(err) {
			w.log.Debug().Msg("closed by peer while sending the response")
		} else {
			w.log.Warn().Err(err).Msg("failed to send the response")
		}

		return closeConnection
	}

	return decide
}

// decide either waits for the next request or closes the connection, as it was
// announced in the Connection header.
func decide(w *Worker) stateFunc {
	w.log.Debug().
		Str("method", w.request.Method.String()).
		Str("uri", w.request.URI).
		Uint16("code", uint16(w.response.Code)).
		Int64("bytes", w.sent).
		Int("served", w.served).
		Msg("request served")

	if w.close {
		return closeConnection
	}

	w.timeout = w.server.cfg.KeepAliveTimeout
	return awaitRequest
}

func closeConnection(w *Worker) stateFunc {
	if err := w.client.Close(); err != nil && !tcp.IsClosed(err) {
		w.log.Debug().Err(err).Msg("failed to close the connection")
	}

	return nil
}
