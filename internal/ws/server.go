package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/craftpanel/backend/internal/logging"
	"github.com/craftpanel/backend/internal/metrics"
	"github.com/craftpanel/backend/internal/status"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxCommandBody = 64 << 10

// Console executes operator commands.
type Console interface {
	Execute(ctx context.Context, command string) (string, error)
	Connected() bool
}

// StatusSource serves status snapshots.
type StatusSource interface {
	Last() status.Snapshot
	Refresh(ctx context.Context) status.Snapshot
	Health() []status.StepHealth
}

type Server struct {
	console        Console
	status         StatusSource
	broadcaster    *Broadcaster
	auth           *Authenticator
	frontend       http.Handler
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

// NewServer wires the HTTP boundary. frontend may be nil when no static
// assets are available.
func NewServer(console Console, source StatusSource, broadcaster *Broadcaster, auth *Authenticator, frontend http.Handler, allowedOrigins []string) *Server {
	s := &Server{
		console:        console,
		status:         source,
		broadcaster:    broadcaster,
		auth:           auth,
		frontend:       frontend,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	s.route(mux, "/api/stats", http.HandlerFunc(s.handleStats))
	s.route(mux, "/api/command", http.HandlerFunc(s.handleCommand))
	s.route(mux, "/api/health", http.HandlerFunc(s.handleHealth))
	s.route(mux, "/ws", http.HandlerFunc(s.handleWS))
	s.route(mux, "/metrics", metrics.Handler())

	if s.frontend != nil {
		mux.Handle("/", securityHeaders(s.auth.Middleware(s.frontend)))
	}
}

func (s *Server) route(mux *http.ServeMux, path string, h http.Handler) {
	mux.Handle(path, securityHeaders(metrics.Middleware(path, s.auth.Middleware(h))))
}

// Handler returns the complete request pipeline.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return logging.Middleware(mux)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var snap status.Snapshot
	switch r.URL.Query().Get("refresh") {
	case "1", "true":
		snap = s.status.Refresh(r.Context())
	default:
		snap = s.status.Last()
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, CommandFailure{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		writeJSON(w, http.StatusBadRequest, CommandFailure{Error: "No command provided"})
		return
	}

	user, _, _ := r.BasicAuth()
	log := logging.WithContext(r.Context()).With(
		zap.String("user", user),
		zap.String("command", req.Command),
	)

	resp, err := s.console.Execute(r.Context(), req.Command)
	metrics.RecordCommand(metrics.SourceOperator, err)
	if err != nil {
		log.Warn("operator command failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, CommandFailure{Error: err.Error()})
		return
	}
	log.Info("operator command executed")
	writeJSON(w, http.StatusOK, CommandResult{Success: true, Response: resp})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthPayload{
		RCONConnected: s.console.Connected(),
		Steps:         s.status.Health(),
		Clients:       s.broadcaster.ClientCount(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WithContext(r.Context()).Debug("ws upgrade failed", zap.Error(err))
		return
	}

	log := logging.L().With(zap.String("remote_addr", r.RemoteAddr))

	c, err := s.broadcaster.AddClient(conn)
	if err != nil {
		log.Warn("ws client rejected", zap.Error(err))
		data, _ := json.Marshal(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.TextMessage, data)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"))
		conn.Close()
		return
	}
	log.Info("ws client connected")

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Info("ws client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if s.allowedOrigins[origin] {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Host

	if s.allowedHosts[host] || host == r.Host {
		return true
	}

	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.L().Debug("writing response failed", zap.Error(err))
	}
}

// NewHTTPServer returns an http.Server with conservative timeouts. Write
// timeouts are left unset since websocket connections are long lived.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
