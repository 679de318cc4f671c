package rcon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Conn is one authenticated remote console channel.
type Conn interface {
	Execute(ctx context.Context, command string) (string, error)
	Close() error
}

// Options bound the time spent on the network. Zero values fall back to
// five seconds.
type Options struct {
	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

const defaultTimeout = 5 * time.Second

// maxStalePackets caps how many replies with a foreign id are skipped while
// waiting for the one matching the request.
const maxStalePackets = 8

// TCPConn speaks Source RCON over TCP.
type TCPConn struct {
	conn    net.Conn
	timeout time.Duration
	nextID  int32
}

// Dial connects to addr and authenticates with password.
func Dial(ctx context.Context, addr, password string, opts Options) (*TCPConn, error) {
	dialTimeout := opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultTimeout
	}
	cmdTimeout := opts.CommandTimeout
	if cmdTimeout <= 0 {
		cmdTimeout = defaultTimeout
	}

	d := net.Dialer{Timeout: dialTimeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	c := &TCPConn{conn: nc, timeout: cmdTimeout}
	if err := c.auth(ctx, password); err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

func (c *TCPConn) auth(ctx context.Context, password string) error {
	id := c.newID()
	reply, err := c.roundTrip(ctx, Packet{ID: id, Type: TypeAuth, Body: password}, TypeAuthResponse)
	if err != nil {
		return err
	}
	if reply.ID == AuthFailedID {
		return ErrAuthFailed
	}
	if reply.ID != id {
		return fmt.Errorf("%w: auth reply id %d, want %d", ErrUnexpectedReply, reply.ID, id)
	}
	return nil
}

// Execute sends command and returns the server's response text.
func (c *TCPConn) Execute(ctx context.Context, command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", ErrEmptyCommand
	}
	if len(command) > maxCommandLen {
		return "", fmt.Errorf("%w: %d bytes", ErrCommandTooLong, len(command))
	}

	reply, err := c.roundTrip(ctx, Packet{ID: c.newID(), Type: TypeExec, Body: command}, TypeResponse)
	if err != nil {
		return "", err
	}
	return reply.Body, nil
}

// roundTrip sends req and reads until a reply of wantType carrying req's id
// (or the auth failure id) arrives.
func (c *TCPConn) roundTrip(ctx context.Context, req Packet, wantType int32) (Packet, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Packet{}, err
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := WritePacket(c.conn, req); err != nil {
		return Packet{}, c.ctxErr(ctx, err)
	}

	for i := 0; i < maxStalePackets; i++ {
		reply, err := ReadPacket(c.conn)
		if err != nil {
			return Packet{}, c.ctxErr(ctx, err)
		}
		if reply.ID == AuthFailedID {
			return reply, ErrAuthFailed
		}
		if reply.Type != wantType || reply.ID != req.ID {
			continue
		}
		return reply, nil
	}
	return Packet{}, fmt.Errorf("%w: no reply to request %d", ErrUnexpectedReply, req.ID)
}

// ctxErr prefers the context's error when the deadline was forced by
// cancellation.
func (c *TCPConn) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}
	return err
}

func (c *TCPConn) newID() int32 {
	c.nextID++
	if c.nextID <= 0 {
		c.nextID = 1
	}
	return c.nextID
}

func (c *TCPConn) Close() error {
	return c.conn.Close()
}
