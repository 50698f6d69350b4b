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
	"context"
	"fmt"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/transport"
)

// AppleWin is the family of AppleWin emulators. Support for AppleWin is not
// complete: snapshots are not supported and so run-ahead must be disabled.
type AppleWin struct {
	caps   Capabilities
	probed bool
}

// Name implements the Family interface.
func (a *AppleWin) Name() string {
	return "AppleWin"
}

// Capabilities implements the Family interface.
func (a *AppleWin) Capabilities() Capabilities {
	return a.caps
}

// Supports implements the Family interface.
func (a *AppleWin) Supports(t monitor.CommandType) bool {
	switch t {
	case monitor.CmdDump, monitor.CmdUndump:
		return false
	}
	return true
}

func (a *AppleWin) probe(ctx context.Context, port int, quit bool) error {
	if a.probed {
		return nil
	}

	conn, err := transport.Dial(ctx, fmt.Sprintf("127.0.0.1:%d", port), 2)
	if err != nil {
		return err
	}
	defer conn.Close()

	info, err := transport.Call[*monitor.EmulatorInfoResponse](ctx, conn, monitor.EmulatorInfo{})
	if err != nil {
		return err
	}

	a.probed = true
	a.caps = Capabilities{
		Version:            info.VersionString(),
		Revision:           info.SVNRevision,
		APIVersion:         info.APIVersion,
		Joyport:            true,
		IndexedDisplayOnly: true,
	}
	logger.Logf(logger.Allow, "applewin", "version %s api %d", a.caps.Version, a.caps.APIVersion)

	if quit {
		if _, err := conn.Exec(ctx, monitor.Quit{}); err != nil {
			logger.Logf(logger.Allow, "applewin", "version probe: %v", err)
		}
	}

	return nil
}

// Connect implements the Family interface.
func (a *AppleWin) Connect(ctx context.Context, port int) (*transport.Conn, error) {
	if err := a.probe(ctx, port, false); err != nil {
		return nil, err
	}
	return transport.Dial(ctx, fmt.Sprintf("127.0.0.1:%d", port), a.caps.APIVersion)
}

// AppleWinArgs assembles the command line for AppleWin.
func AppleWinArgs(opts StartOptions, binaryPort int) []string {
	args := []string{
		"--binary-monitor", "--binary-monitor-address", fmt.Sprintf("127.0.0.1:%d", binaryPort),
	}
	return append(args, opts.Args...)
}

// Start implements the Family interface.
func (a *AppleWin) Start(ctx context.Context, g *Grip, opts StartOptions) (*transport.Conn, error) {
	if !a.probed {
		port, err := FreePort(opts.Port)
		if err != nil {
			return nil, err
		}

		probe := NewGrip(a)
		probe.Launcher = g.Launcher
		err = probe.launch(ctx, Command{
			Path: opts.Executable,
			Args: []string{
				"--default",
				"--binary-monitor", "--binary-monitor-address", fmt.Sprintf("127.0.0.1:%d", port),
			},
			Dir:   ".",
			Title: "AppleWin",
		})
		if err != nil {
			return nil, err
		}

		err = a.probe(ctx, port, true)
		_ = probe.Terminate(ctx)
		if err != nil {
			return nil, err
		}
	}

	binaryPort, err := FreePort(opts.Port)
	if err != nil {
		return nil, err
	}

	err = g.launch(ctx, Command{
		Path:  opts.Executable,
		Args:  AppleWinArgs(opts, binaryPort),
		Dir:   opts.Dir,
		Title: "AppleWin",
	})
	if err != nil {
		return nil, err
	}

	return a.Connect(ctx, binaryPort)
}

// Autostart implements the Family interface.
func (a *AppleWin) Autostart(ctx context.Context, g *Grip, program string) error {
	_, err := g.Exec(ctx, monitor.Autostart{Run: true, Index: 0, Filename: program})
	return err
}

// DisplayRGBA implements the Family interface.
func (a *AppleWin) DisplayRGBA(ctx context.Context, g *Grip) (*monitor.DisplayGetResponse, error) {
	if !a.caps.IndexedDisplayOnly {
		return nil, curated.Errorf(NotImplemented, a.Name(), "an RGBA display")
	}
	return indexedToRGBA(ctx, g)
}
