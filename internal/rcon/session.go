package rcon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/craftpanel/backend/internal/logging"
	"github.com/craftpanel/backend/internal/metrics"
	"go.uber.org/zap"
)

// DialFunc opens and authenticates a new Conn.
type DialFunc func(ctx context.Context) (Conn, error)

// Session owns at most one live Conn to a fixed endpoint. The Conn is dialed
// lazily, reused across commands and dropped on the first transport fault.
// All use of the Conn is serialized by mu.
type Session struct {
	mu   sync.Mutex
	addr string
	dial DialFunc
	conn Conn

	// connected mirrors conn != nil for readers that must not wait on mu.
	connected atomic.Bool
}

// NewSession returns a Session that dials addr over TCP.
func NewSession(addr, password string, opts Options) *Session {
	return NewSessionWithDialer(addr, func(ctx context.Context) (Conn, error) {
		return Dial(ctx, addr, password, opts)
	})
}

// NewSessionWithDialer returns a Session that opens connections with dial.
func NewSessionWithDialer(addr string, dial DialFunc) *Session {
	return &Session{addr: addr, dial: dial}
}

// Execute sends command over the cached connection, dialing first if there
// is none. A connect failure returns *ConnectionError; a send or receive
// failure drops the connection and returns *CommandError. There is no retry.
func (s *Session) Execute(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.ensureConnected(ctx)
	if err != nil {
		return "", err
	}

	resp, err := conn.Execute(ctx, command)
	if err != nil {
		if !errors.Is(err, ErrEmptyCommand) && !errors.Is(err, ErrCommandTooLong) {
			s.dropLocked(err)
		}
		return "", &CommandError{Command: command, Err: err}
	}
	return resp, nil
}

// ensureConnected returns the live connection or dials a new one. Caller
// must hold s.mu.
func (s *Session) ensureConnected(ctx context.Context) (Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}

	conn, err := s.dial(ctx)
	metrics.RecordConnect(err)
	if err != nil {
		return nil, &ConnectionError{Addr: s.addr, Err: err}
	}
	s.conn = conn
	s.connected.Store(true)
	logging.L().Info("rcon authenticated", zap.String("addr", s.addr))
	return conn, nil
}

// Reset discards the cached connection so the next Execute dials afresh.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(nil)
}

// Connected reports whether a connection is cached. It does not wait for a
// command in flight.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// Close tears down the cached connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.connected.Store(false)
	return err
}

func (s *Session) dropLocked(cause error) {
	if s.conn == nil {
		return
	}
	s.conn.Close()
	s.conn = nil
	s.connected.Store(false)
	if cause != nil {
		logging.L().Warn("rcon connection dropped", zap.String("addr", s.addr), zap.Error(cause))
	}
}
