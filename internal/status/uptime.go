package status

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

var ErrProcessNotFound = errors.New("status: game server process not found")

// selfPID is skipped when matching so the panel never reports itself.
var selfPID = int32(os.Getpid())

// processUptime finds the first local process whose command line contains
// match and returns whole seconds since it started.
func processUptime(ctx context.Context, match string) (int64, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range procs {
		if p.Pid == selfPID {
			continue
		}
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || !strings.Contains(cmdline, match) {
			continue
		}
		created, err := p.CreateTimeWithContext(ctx)
		if err != nil {
			continue
		}
		return int64(time.Since(time.UnixMilli(created)) / time.Second), nil
	}
	return 0, ErrProcessNotFound
}
