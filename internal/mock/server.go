// Package mock runs an in-process RCON endpoint that behaves like a small
// Minecraft server. It backs the -mock flag and the package tests.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/craftpanel/backend/internal/rcon"
)

// Handler answers one command. Returning ok=false makes the server close the
// connection instead of replying, which clients see as a reset.
type Handler func(command string) (response string, ok bool)

type Server struct {
	ln       net.Listener
	password string

	mu      sync.Mutex
	handler Handler
	conns   map[net.Conn]struct{}
	players []string
	max     int
	tick    int
	closed  bool

	accepted atomic.Int64
	commands atomic.Int64
	wg       sync.WaitGroup
}

var playerNames = []string{"Notch", "jeb_", "Dinnerbone", "Grumm", "Searge", "Marc"}

// NewServer listens on a loopback port. Call Serve to start accepting.
func NewServer(password string) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		ln:       ln,
		password: password,
		conns:    make(map[net.Conn]struct{}),
		players:  []string{"Notch", "jeb_"},
		max:      20,
	}
	return s, nil
}

// Start serves connections until ctx is cancelled.
func Start(ctx context.Context, password string) (*Server, error) {
	s, err := NewServer(password)
	if err != nil {
		return nil, err
	}
	go s.Serve()
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return s, nil
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Password() string {
	return s.password
}

// SetHandler overrides the built-in command responses. nil restores them.
func (s *Server) SetHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Accepted returns how many connections were accepted.
func (s *Server) Accepted() int {
	return int(s.accepted.Load())
}

// Commands returns how many exec packets were answered.
func (s *Server) Commands() int {
	return int(s.commands.Load())
}

// DropConnections closes every open client connection.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
}

func (s *Server) Serve() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.accepted.Add(1)
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			c.Close()
			return
		}
		s.conns[c] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			s.serveConn(c)
		}()
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	err := s.ln.Close()
	s.DropConnections()
	s.wg.Wait()
	return err
}

func (s *Server) serveConn(c net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		c.Close()
	}()

	authed := false
	for {
		p, err := rcon.ReadPacket(c)
		if err != nil {
			return
		}

		switch {
		case p.Type == rcon.TypeAuth:
			id := p.ID
			authed = p.Body == s.password
			if !authed {
				id = rcon.AuthFailedID
			}
			if rcon.WritePacket(c, rcon.Packet{ID: id, Type: rcon.TypeAuthResponse}) != nil {
				return
			}
		case !authed:
			rcon.WritePacket(c, rcon.Packet{ID: rcon.AuthFailedID, Type: rcon.TypeAuthResponse})
			return
		case p.Type == rcon.TypeExec:
			resp, ok := s.respond(p.Body)
			if !ok {
				return
			}
			s.commands.Add(1)
			if rcon.WritePacket(c, rcon.Packet{ID: p.ID, Type: rcon.TypeResponse, Body: resp}) != nil {
				return
			}
		}
	}
}

func (s *Server) respond(command string) (string, bool) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		return h(command)
	}
	return s.builtin(command), true
}

func (s *Server) builtin(command string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "list":
		s.advance()
		return fmt.Sprintf("There are %d/%d players online: %s", len(s.players), s.max, strings.Join(s.players, ", "))
	case "tps":
		tps := 20.0 - rand.Float64()*0.4
		return fmt.Sprintf("§6TPS from last 1m, 5m, 15m: §a%.2f, §a%.2f, §a20.0", tps, tps+0.1)
	case "say":
		return ""
	default:
		return fmt.Sprintf("Unknown or incomplete command, see below for error\n%s<--[HERE]", command)
	}
}

// advance moves the fake population one step: players drift in and out.
// Caller must hold s.mu.
func (s *Server) advance() {
	s.tick++
	if s.tick%3 != 0 {
		return
	}
	if len(s.players) < len(playerNames) && rand.Intn(2) == 0 {
		for _, name := range playerNames {
			if !slices.Contains(s.players, name) {
				s.players = append(s.players, name)
				return
			}
		}
	}
	if len(s.players) > 0 {
		s.players = s.players[:len(s.players)-1]
	}
}

