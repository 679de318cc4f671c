package rcon_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/craftpanel/backend/internal/mock"
	"github.com/craftpanel/backend/internal/rcon"
)

func startMock(t *testing.T, password string) *mock.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv, err := mock.Start(ctx, password)
	if err != nil {
		t.Fatalf("mock.Start: %v", err)
	}
	return srv
}

func TestDialAndExecute(t *testing.T) {
	srv := startMock(t, "pw")
	srv.SetHandler(func(cmd string) (string, bool) {
		return "echo " + cmd, true
	})

	c, err := rcon.Dial(context.Background(), srv.Addr(), "pw", rcon.Options{})
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()

	for _, cmd := range []string{"list", "time set day"} {
		resp, err := c.Execute(context.Background(), cmd)
		if err != nil {
			t.Fatalf("Execute(%q) error: %v", cmd, err)
		}
		if resp != "echo "+cmd {
			t.Errorf("Execute(%q) = %q", cmd, resp)
		}
	}
}

func TestDialWrongPassword(t *testing.T) {
	srv := startMock(t, "pw")

	_, err := rcon.Dial(context.Background(), srv.Addr(), "nope", rcon.Options{})
	if !errors.Is(err, rcon.ErrAuthFailed) {
		t.Fatalf("Dial() error = %v, want ErrAuthFailed", err)
	}
}

func TestDialUnreachable(t *testing.T) {
	srv := startMock(t, "pw")
	addr := srv.Addr()
	srv.Close()

	_, err := rcon.Dial(context.Background(), addr, "pw", rcon.Options{DialTimeout: time.Second})
	if err == nil {
		t.Fatal("expected dial error against closed listener")
	}
}

func TestExecuteRejectsBadCommands(t *testing.T) {
	srv := startMock(t, "pw")
	c, err := rcon.Dial(context.Background(), srv.Addr(), "pw", rcon.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Execute(context.Background(), ""); !errors.Is(err, rcon.ErrEmptyCommand) {
		t.Errorf("empty command error = %v, want ErrEmptyCommand", err)
	}
	if _, err := c.Execute(context.Background(), strings.Repeat("a", 2000)); !errors.Is(err, rcon.ErrCommandTooLong) {
		t.Errorf("long command error = %v, want ErrCommandTooLong", err)
	}
	if srv.Commands() != 0 {
		t.Errorf("server answered %d commands, want 0", srv.Commands())
	}
}

func TestExecuteTimesOut(t *testing.T) {
	srv := startMock(t, "pw")
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	srv.SetHandler(func(string) (string, bool) {
		<-block
		return "", true
	})

	c, err := rcon.Dial(context.Background(), srv.Addr(), "pw", rcon.Options{CommandTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	start := time.Now()
	if _, err := c.Execute(context.Background(), "list"); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Execute took %s, deadline not applied", elapsed)
	}
}

func TestExecuteHonoursContextCancel(t *testing.T) {
	srv := startMock(t, "pw")
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	srv.SetHandler(func(string) (string, bool) {
		<-block
		return "", true
	})

	c, err := rcon.Dial(context.Background(), srv.Addr(), "pw", rcon.Options{CommandTimeout: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err = c.Execute(ctx, "list")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestSessionReconnectsAfterServerReset(t *testing.T) {
	srv := startMock(t, "pw")
	srv.SetHandler(func(cmd string) (string, bool) { return cmd, true })
	s := rcon.NewSession(srv.Addr(), "pw", rcon.Options{CommandTimeout: time.Second})
	defer s.Close()

	if _, err := s.Execute(context.Background(), "list"); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	srv.DropConnections()

	_, err := s.Execute(context.Background(), "list")
	var cmdErr *rcon.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Execute after reset error = %v, want *CommandError", err)
	}

	resp, err := s.Execute(context.Background(), "list")
	if err != nil {
		t.Fatalf("Execute after reconnect: %v", err)
	}
	if resp != "list" {
		t.Errorf("response = %q, want list", resp)
	}
	if srv.Accepted() != 2 {
		t.Errorf("server accepted %d connections, want 2", srv.Accepted())
	}
}
