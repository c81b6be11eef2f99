// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/invowk/m3bridge/internal/issue"
)

const (
	// DefaultDialTimeout bounds connection establishment.
	DefaultDialTimeout = 10 * time.Second
	// DefaultBufferSize is the size of each Session buffer.
	DefaultBufferSize = 64 * 1024
)

// ErrHalfCloseUnsupported is returned by CloseRead and CloseWrite when the
// underlying connection cannot close one direction.
var ErrHalfCloseUnsupported = errors.New("connection does not support half-close")

type (
	// ConnectError reports a failed dial. It wraps issue.ErrTransportConnect
	// and the dial error.
	ConnectError struct {
		Endpoint Endpoint
		Cause    error
	}

	// Dialer opens sessions. The zero value uses the defaults.
	Dialer struct {
		Timeout    time.Duration
		BufferSize int
		Logger     *slog.Logger
	}

	// Session is a buffered duplex stream over one connection.
	Session struct {
		conn net.Conn
		r    *bufio.Reader

		wmu sync.Mutex
		w   *bufio.Writer

		closeOnce sync.Once
		closeErr  error
	}

	halfCloser interface {
		CloseRead() error
		CloseWrite() error
	}
)

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s: %s: %v", issue.ErrTransportConnect, e.Endpoint.Address(), e.Cause)
}

// Unwrap returns the sentinel and the dial error.
func (e *ConnectError) Unwrap() []error { return []error{issue.ErrTransportConnect, e.Cause} }

// Open dials ep with the default Dialer.
func Open(ctx context.Context, ep Endpoint) (*Session, error) {
	return (&Dialer{}).Open(ctx, ep)
}

// Open dials ep over TCP.
func (d *Dialer) Open(ctx context.Context, ep Endpoint) (*Session, error) {
	if err := ep.Port.Validate(); err != nil {
		return nil, &issue.ArgumentParseError{Token: ep.String(), Cause: err}
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	nd := net.Dialer{Timeout: timeout}
	conn, err := nd.DialContext(ctx, "tcp", ep.Address())
	if err != nil {
		return nil, &ConnectError{Endpoint: ep, Cause: err}
	}
	if d.Logger != nil {
		d.Logger.Debug("connected", "endpoint", ep.Address(), "local", conn.LocalAddr().String())
	}
	return NewSession(conn, d.BufferSize), nil
}

// NewSession wraps an established connection. A non-positive size selects
// DefaultBufferSize.
func NewSession(conn net.Conn, size int) *Session {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Session{
		conn: conn,
		r:    bufio.NewReaderSize(conn, size),
		w:    bufio.NewWriterSize(conn, size),
	}
}

// Read reads from the buffered input half.
func (s *Session) Read(p []byte) (int, error) { return s.r.Read(p) }

// Write buffers p on the output half. Call Flush or CloseWrite to send it.
func (s *Session) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.w.Write(p)
}

// Flush sends buffered output.
func (s *Session) Flush() error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.w.Flush()
}

// CloseRead shuts down the input half. Writes keep working.
func (s *Session) CloseRead() error {
	hc, ok := s.conn.(halfCloser)
	if !ok {
		return ErrHalfCloseUnsupported
	}
	return hc.CloseRead()
}

// CloseWrite flushes pending output and shuts down the output half; the
// peer reads end of stream. Reads keep working.
func (s *Session) CloseWrite() error {
	hc, ok := s.conn.(halfCloser)
	if !ok {
		return ErrHalfCloseUnsupported
	}
	if err := s.Flush(); err != nil {
		return err
	}
	return hc.CloseWrite()
}

// Close closes the connection, unblocking pending reads and writes.
// Unflushed output is discarded. Only the first call has an effect.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

var _ io.ReadWriteCloser = (*Session)(nil)
