package rcon

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeConn struct {
	mu     sync.Mutex
	fail   error
	closed bool
	sent   []string
}

func (c *fakeConn) Execute(_ context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, command)
	if c.fail != nil {
		return "", c.fail
	}
	return "ok:" + command, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// fakeDialer hands out fakeConns and counts attempts.
type fakeDialer struct {
	mu       sync.Mutex
	attempts int
	err      error
	conns    []*fakeConn
	next     func(*fakeConn)
}

func (d *fakeDialer) dial(context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	if d.err != nil {
		return nil, d.err
	}
	c := &fakeConn{}
	if d.next != nil {
		d.next(c)
	}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func TestSessionReusesConnection(t *testing.T) {
	d := &fakeDialer{}
	s := NewSessionWithDialer("mc:25575", d.dial)

	for _, cmd := range []string{"list", "tps", "say hi"} {
		resp, err := s.Execute(context.Background(), cmd)
		if err != nil {
			t.Fatalf("Execute(%q) error: %v", cmd, err)
		}
		if resp != "ok:"+cmd {
			t.Errorf("Execute(%q) = %q", cmd, resp)
		}
	}

	if d.Attempts() != 1 {
		t.Errorf("dial attempts = %d, want 1", d.Attempts())
	}
	if !s.Connected() {
		t.Error("session should be connected")
	}
}

func TestSessionConnectFailure(t *testing.T) {
	d := &fakeDialer{err: ErrAuthFailed}
	s := NewSessionWithDialer("mc:25575", d.dial)

	_, err := s.Execute(context.Background(), "list")
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("error = %v, want *ConnectionError", err)
	}
	if connErr.Addr != "mc:25575" {
		t.Errorf("Addr = %q", connErr.Addr)
	}
	if !errors.Is(err, ErrAuthFailed) {
		t.Error("ConnectionError should unwrap to ErrAuthFailed")
	}
	if s.Connected() {
		t.Error("session should not be connected after a failed dial")
	}
}

func TestSessionDropsConnectionOnSendFailure(t *testing.T) {
	d := &fakeDialer{}
	s := NewSessionWithDialer("mc:25575", d.dial)

	if _, err := s.Execute(context.Background(), "list"); err != nil {
		t.Fatal(err)
	}
	first := d.conns[0]
	first.mu.Lock()
	first.fail = io.ErrUnexpectedEOF
	first.mu.Unlock()

	_, err := s.Execute(context.Background(), "tps")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want *CommandError", err)
	}
	if cmdErr.Command != "tps" || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("CommandError = %+v", cmdErr)
	}
	if !first.closed {
		t.Error("failed connection should be closed")
	}
	if s.Connected() {
		t.Error("session should have discarded the failed connection")
	}

	// The next call reconnects.
	if _, err := s.Execute(context.Background(), "list"); err != nil {
		t.Fatalf("Execute after reconnect: %v", err)
	}
	if d.Attempts() != 2 {
		t.Errorf("dial attempts = %d, want 2", d.Attempts())
	}
}

func TestSessionKeepsConnectionOnEmptyCommand(t *testing.T) {
	d := &fakeDialer{next: func(c *fakeConn) { c.fail = ErrEmptyCommand }}
	s := NewSessionWithDialer("mc:25575", d.dial)

	_, err := s.Execute(context.Background(), "  ")
	if !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("error = %v, want ErrEmptyCommand", err)
	}
	if !s.Connected() {
		t.Error("a rejected command should not drop the connection")
	}
}

func TestSessionReset(t *testing.T) {
	d := &fakeDialer{}
	s := NewSessionWithDialer("mc:25575", d.dial)

	s.Execute(context.Background(), "list")
	s.Reset()
	if s.Connected() {
		t.Fatal("Reset should discard the connection")
	}
	if !d.conns[0].closed {
		t.Error("Reset should close the connection")
	}

	s.Execute(context.Background(), "list")
	if d.Attempts() != 2 {
		t.Errorf("dial attempts = %d, want 2", d.Attempts())
	}
}

func TestSessionClose(t *testing.T) {
	s := NewSessionWithDialer("mc:25575", (&fakeDialer{}).dial)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() on idle session: %v", err)
	}
	s.Execute(context.Background(), "list")
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if s.Connected() {
		t.Error("session should be disconnected after Close")
	}
}

// TestSessionSerializesDials checks that concurrent callers never dial at the
// same time, even while every dial fails.
func TestSessionSerializesDials(t *testing.T) {
	var inFlight, maxInFlight, attempts atomic.Int32
	dial := func(context.Context) (Conn, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		attempts.Add(1)
		time.Sleep(2 * time.Millisecond)
		return nil, errors.New("connection refused")
	}
	s := NewSessionWithDialer("mc:25575", dial)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Execute(context.Background(), "list")
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("max concurrent dials = %d, want 1", got)
	}
	if got := attempts.Load(); got != 16 {
		t.Errorf("dial attempts = %d, want 16", got)
	}
}
