package client

import (
	"encoding/json"
	"time"
)

// MessageType mirrors the backend's websocket message types.
type MessageType string

const (
	MsgStatus MessageType = "status"
	MsgError  MessageType = "error"
)

// WSMessage is the envelope for all websocket messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Addon is one installed mod or plugin.
type Addon struct {
	Name string `json:"name"`
	Size string `json:"size"`
}

// Snapshot is the server status published by the backend.
type Snapshot struct {
	Players    int     `json:"players"`
	MaxPlayers int     `json:"maxPlayers"`
	TPS        float64 `json:"tps"`
	Uptime     int64   `json:"uptime"`
	Mods       []Addon `json:"mods"`
}

// HealthStatus mirrors the backend's refresh step status.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusDegraded HealthStatus = "degraded"
	StatusFailed   HealthStatus = "failed"
)

type StepHealth struct {
	Step                string       `json:"step"`
	Status              HealthStatus `json:"status"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	LastError           string       `json:"lastError,omitempty"`
	LastFailure         *time.Time   `json:"lastFailure,omitempty"`
}

// Health is the payload of /api/health.
type Health struct {
	RCONConnected bool         `json:"rconConnected"`
	Steps         []StepHealth `json:"steps"`
	Clients       int          `json:"clients"`
}

// ErrorPayload is sent before the backend closes a rejected connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

type commandResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error"`
}
