// This file is part of cc65dbg.
//
// cc65dbg is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// cc65dbg is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with cc65dbg.  If not, see <https://www.gnu.org/licenses/>.

package grip

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"

	"github.com/jetsetilly/cc65dbg/logger"
)

// Process is a launched emulator process.
type Process interface {
	Kill() error
}

// Command describes a process to be launched.
type Command struct {
	Path  string
	Args  []string
	Dir   string
	Env   []string
	Title string
}

func (c Command) String() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", c.Path, strings.Join(c.Args, " ")))
}

// Launcher starts a process. The process must outlive the context, which only
// bounds the time taken to start it.
type Launcher func(ctx context.Context, cmd Command) (Process, error)

// ExecLauncher starts processes with os/exec. The output of the process is
// copied to the log.
func ExecLauncher(ctx context.Context, c Command) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return nil, err
	}

	tag := strings.ToLower(c.Title)
	go func() {
		s := bufio.NewScanner(pr)
		for s.Scan() {
			logger.Log(logger.Allow, tag, s.Text())
		}
	}()

	go func() {
		err := cmd.Wait()
		if err != nil {
			logger.Logf(logger.Allow, tag, "process ended: %v", err)
		} else {
			logger.Log(logger.Allow, tag, "process ended")
		}
		pw.Close()
	}()

	return cmd.Process, nil
}

// FreePort returns the first port at or above start that can be listened on,
// searching no more than 256 ports.
func FreePort(start int) (int, error) {
	var err error
	for p := start; p < start+256; p++ {
		var ln net.Listener
		ln, err = net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", p))
		if err == nil {
			ln.Close()
			return p, nil
		}
	}
	return 0, fmt.Errorf("grip: no free port in the range %d to %d: %w", start, start+255, err)
}
