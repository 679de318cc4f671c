package rcon

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailed      = errors.New("rcon: authentication failed")
	ErrEmptyCommand    = errors.New("rcon: empty command")
	ErrCommandTooLong  = errors.New("rcon: command too long")
	ErrPacketSize      = errors.New("rcon: invalid packet size")
	ErrUnexpectedReply = errors.New("rcon: unexpected reply")
)

// ConnectionError reports a failure to establish an authenticated session.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rcon connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// CommandError reports a send or receive failure on an established session.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("rcon command %q: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
