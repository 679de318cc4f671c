package ws

import (
	"github.com/craftpanel/backend/internal/status"
)

type MessageType string

const (
	MsgStatus MessageType = "status"
	MsgError  MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type CommandRequest struct {
	Command string `json:"command"`
}

// CommandResult is the success shape of POST /api/command. Response is kept
// even when empty since many commands reply with nothing.
type CommandResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

type CommandFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthPayload struct {
	RCONConnected bool                `json:"rconConnected"`
	Steps         []status.StepHealth `json:"steps"`
	Clients       int                 `json:"clients"`
}
