// Package dispatch is the single HTTP entry point in front of the pages
// backend and the API backend.
//
// Requests whose path starts with the configured prefix go to the API; every
// other request goes to the pages backend. Bodies are passed through
// untouched. A client that disconnects mid-response is not a server error:
// the failure is logged at info level and swallowed here, for both backends.
package dispatch

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/rearqui/portfolio/logger"
)

// DefaultPrefix is the path prefix served by the API backend.
const DefaultPrefix = "/api"

// Backend identifies where a request is sent.
type Backend int

const (
	// Pages is the page rendering and admin backend.
	Pages Backend = iota
	// API is the typed JSON API backend.
	API
)

func (b Backend) String() string {
	if b == API {
		return "api"
	}
	return "pages"
}

// Dispatcher routes requests between the two backends.
type Dispatcher struct {
	prefix string
	pages  http.Handler
	api    http.Handler
	logger logger.Logger
}

// New creates a Dispatcher. An empty prefix selects DefaultPrefix.
func New(prefix string, pages, api http.Handler, log logger.Logger) *Dispatcher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Dispatcher{
		prefix: prefix,
		pages:  pages,
		api:    api,
		logger: log,
	}
}

// Prefix returns the configured API prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Route returns the backend that serves path.
func (d *Dispatcher) Route(path string) Backend {
	if strings.HasPrefix(path, d.prefix) {
		return API
	}
	return Pages
}

// ServeHTTP forwards the request to the selected backend.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	backend := d.Route(r.URL.Path)
	handler := d.pages
	if backend == API {
		handler = d.api
	}

	rw := &responseWriter{ResponseWriter: w}
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if err, ok := rec.(error); ok && IsDisconnect(err) {
			d.logDisconnect(r, backend, err)
			return
		}
		panic(rec)
	}()

	handler.ServeHTTP(rw, r)

	if rw.writeErr != nil {
		d.logDisconnect(r, backend, rw.writeErr)
	}
}

func (d *Dispatcher) logDisconnect(r *http.Request, backend Backend, err error) {
	d.logger.Info(r.Context(), "client disconnected", map[string]interface{}{
		"backend": backend.String(),
		"method":  r.Method,
		"path":    r.URL.Path,
		"error":   err.Error(),
	})
}

// IsDisconnect reports whether err means the client went away mid-response.
// http.ErrAbortHandler is not a disconnect: the handler chose to abort and
// net/http must see the panic to drop the connection.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, net.ErrClosed)
}

// responseWriter remembers the first disconnect seen while writing.
type responseWriter struct {
	http.ResponseWriter
	writeErr error
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil && rw.writeErr == nil && IsDisconnect(err) {
		rw.writeErr = err
	}
	return n, err
}

// Flush forwards to the underlying writer so streaming responses keep working.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack forwards to the underlying writer.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
