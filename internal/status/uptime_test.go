package status

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestProcessUptimeNotFound(t *testing.T) {
	_, err := processUptime(context.Background(), "no-such-process-8c1f2e7a")
	if !errors.Is(err, ErrProcessNotFound) {
		t.Errorf("processUptime() error = %v, want ErrProcessNotFound", err)
	}
}

func TestProcessUptimeFindsTestBinary(t *testing.T) {
	saved := selfPID
	selfPID = -1
	defer func() { selfPID = saved }()

	up, err := processUptime(context.Background(), filepath.Base(os.Args[0]))
	if err != nil {
		t.Skipf("process listing unavailable: %v", err)
	}
	if up < 0 {
		t.Errorf("uptime = %d, want >= 0", up)
	}
}
