// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// peer listens on loopback and hands the first accepted connection to the
// returned channel.
func peer(t *testing.T) (Endpoint, <-chan net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	conns := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(conns)
			return
		}
		t.Cleanup(func() { _ = c.Close() })
		conns <- c
	}()
	port := ln.Addr().(*net.TCPAddr).Port
	return Endpoint{Host: "127.0.0.1", Port: types.Port(port)}, conns
}

func open(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	ep, conns := peer(t)
	s, err := (&Dialer{Timeout: 5 * time.Second}).Open(context.Background(), ep)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	c, ok := <-conns
	if !ok {
		t.Fatal("peer did not accept")
	}
	return s, c
}

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token   string
		want    Endpoint
		wantErr bool
	}{
		{token: "4000", want: Endpoint{Port: 4000}},
		{token: "build-agent:4000", want: Endpoint{Host: "build-agent", Port: 4000}},
		{token: " 10.0.0.1:65535 ", want: Endpoint{Host: "10.0.0.1", Port: 65535}},
		{token: "host:1:2", wantErr: true},
		{token: "abc", wantErr: true},
		{token: "host:", wantErr: true},
		{token: "0", wantErr: true},
		{token: "70000", wantErr: true},
		{token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEndpoint(tt.token)
			if tt.wantErr {
				var ape *issue.ArgumentParseError
				if !errors.As(err, &ape) || !errors.Is(err, types.ErrInvalidPort) {
					t.Fatalf("ParseEndpoint(%q) error = %v, want ArgumentParseError", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEndpoint(%q) error: %v", tt.token, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseEndpoint(%q) mismatch (-want +got):\n%s", tt.token, diff)
			}
		})
	}
}

func TestEndpointAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ep       Endpoint
		wantAddr string
		wantStr  string
	}{
		{ep: Endpoint{Port: 80}, wantAddr: "localhost:80", wantStr: "80"},
		{ep: Endpoint{Host: "h", Port: 81}, wantAddr: "h:81", wantStr: "h:81"},
		{ep: Endpoint{Host: "::1", Port: 82}, wantAddr: "[::1]:82", wantStr: "::1:82"},
	}
	for _, tt := range tests {
		if got := tt.ep.Address(); got != tt.wantAddr {
			t.Errorf("Address() = %q, want %q", got, tt.wantAddr)
		}
		if got := tt.ep.String(); got != tt.wantStr {
			t.Errorf("String() = %q, want %q", got, tt.wantStr)
		}
	}
}

func TestOpenFailures(t *testing.T) {
	t.Parallel()

	t.Run("refused", func(t *testing.T) {
		t.Parallel()
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		port := ln.Addr().(*net.TCPAddr).Port
		_ = ln.Close()

		_, err = Open(context.Background(), Endpoint{Host: "127.0.0.1", Port: types.Port(port)})
		var ce *ConnectError
		if !errors.As(err, &ce) || !errors.Is(err, issue.ErrTransportConnect) {
			t.Fatalf("Open() error = %v, want ConnectError", err)
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Parallel()
		_, err := Open(context.Background(), Endpoint{})
		if !errors.Is(err, issue.ErrArgumentParse) {
			t.Fatalf("Open() error = %v, want ErrArgumentParse", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Open(ctx, Endpoint{Host: "127.0.0.1", Port: 9})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Open() error = %v, want context.Canceled", err)
		}
	})
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	s, c := open(t)
	if _, err := io.WriteString(s, "ping\n"); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil || line != "ping\n" {
		t.Fatalf("peer read %q, %v", line, err)
	}

	if _, err := io.WriteString(c, "pong\n"); err != nil {
		t.Fatal(err)
	}
	line, err = bufio.NewReader(s).ReadString('\n')
	if err != nil || line != "pong\n" {
		t.Fatalf("session read %q, %v", line, err)
	}
	if s.RemoteAddr().String() != c.LocalAddr().String() {
		t.Errorf("RemoteAddr() = %v, want %v", s.RemoteAddr(), c.LocalAddr())
	}
}

func TestCloseWriteKeepsReadHalf(t *testing.T) {
	t.Parallel()

	s, c := open(t)
	if _, err := io.WriteString(s, "request"); err != nil {
		t.Fatal(err)
	}
	if err := s.CloseWrite(); err != nil {
		t.Fatalf("CloseWrite() error: %v", err)
	}

	// The peer sees the buffered bytes followed by end of stream.
	got, err := io.ReadAll(c)
	if err != nil || string(got) != "request" {
		t.Fatalf("peer ReadAll() = %q, %v", got, err)
	}

	if _, err := io.WriteString(c, "reply"); err != nil {
		t.Fatal(err)
	}
	_ = c.(*net.TCPConn).CloseWrite()
	got, err = io.ReadAll(s)
	if err != nil || string(got) != "reply" {
		t.Fatalf("session ReadAll() = %q, %v", got, err)
	}
}

func TestCloseReadKeepsWriteHalf(t *testing.T) {
	t.Parallel()

	s, c := open(t)
	if err := s.CloseRead(); err != nil {
		t.Fatalf("CloseRead() error: %v", err)
	}
	if _, err := io.WriteString(s, "still writing"); err != nil {
		t.Fatal(err)
	}
	if err := s.CloseWrite(); err != nil {
		t.Fatalf("CloseWrite() error: %v", err)
	}
	got, err := io.ReadAll(c)
	if err != nil || string(got) != "still writing" {
		t.Fatalf("peer ReadAll() = %q, %v", got, err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	s, _ := open(t)
	first := s.Close()
	if err := s.Close(); err != first {
		t.Errorf("second Close() = %v, want %v", err, first)
	}
	if _, err := s.Read(make([]byte, 1)); err == nil {
		t.Error("Read() after Close succeeded")
	}
}

func TestHalfCloseUnsupported(t *testing.T) {
	t.Parallel()

	a, b := net.Pipe()
	defer b.Close()
	s := NewSession(a, 0)
	defer s.Close()

	if err := s.CloseRead(); !errors.Is(err, ErrHalfCloseUnsupported) {
		t.Errorf("CloseRead() error = %v", err)
	}
	if err := s.CloseWrite(); !errors.Is(err, ErrHalfCloseUnsupported) {
		t.Errorf("CloseWrite() error = %v", err)
	}
}

func TestRelay(t *testing.T) {
	t.Parallel()

	s, c := open(t)
	h := HandlerFunc(func(_ context.Context, in io.Reader, out io.Writer) (types.ExitCode, error) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil {
			return types.ExitFailure, err
		}
		_, err = io.WriteString(out, strings.ToUpper(line))
		return 7, err
	})

	if _, err := io.WriteString(c, "hello\n"); err != nil {
		t.Fatal(err)
	}
	code, err := Relay(context.Background(), s, h)
	if err != nil {
		t.Fatalf("Relay() error: %v", err)
	}
	if code != 7 {
		t.Errorf("Relay() code = %d, want 7", code)
	}

	// Relay flushed the reply.
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil || line != "HELLO\n" {
		t.Fatalf("peer read %q, %v", line, err)
	}
}

func TestRelayHandlerError(t *testing.T) {
	t.Parallel()

	s, _ := open(t)
	boom := errors.New("boom")
	code, err := Relay(context.Background(), s, HandlerFunc(func(context.Context, io.Reader, io.Writer) (types.ExitCode, error) {
		return 3, boom
	}))
	if code != 3 || !errors.Is(err, boom) {
		t.Errorf("Relay() = %d, %v; want 3, boom", code, err)
	}
}

func TestRelayCancelUnblocksHandler(t *testing.T) {
	t.Parallel()

	s, _ := open(t)
	ctx, cancel := context.WithCancel(context.Background())
	reading := make(chan struct{})
	go func() {
		<-reading
		cancel()
	}()

	code, err := Relay(ctx, s, HandlerFunc(func(_ context.Context, in io.Reader, _ io.Writer) (types.ExitCode, error) {
		close(reading)
		_, err := in.Read(make([]byte, 1))
		return types.ExitFailure, err
	}))
	if code != types.ExitFailure {
		t.Errorf("Relay() code = %d", code)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Relay() error = %v, want context.Canceled", err)
	}
}

// expiredContext reports cancellation without ever closing Done, as a
// context cancelled after the handler returned looks to Relay.
type expiredContext struct{ context.Context }

func (expiredContext) Err() error { return context.Canceled }

func TestRelayCancellationAfterHandlerReturns(t *testing.T) {
	t.Parallel()

	s, _ := open(t)
	code, err := Relay(expiredContext{context.Background()}, s, HandlerFunc(func(context.Context, io.Reader, io.Writer) (types.ExitCode, error) {
		return types.ExitSuccess, nil
	}))
	if code != types.ExitSuccess || err != nil {
		t.Errorf("Relay() = %d, %v; want success without error", code, err)
	}
}
