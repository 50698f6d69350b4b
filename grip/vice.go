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
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/transport"
)

// the SVN revisions that introduced features before they appeared in a
// numbered release
const (
	viceJoyportRevision  = 41221
	viceCompoundRevision = 39825
)

// the releases that include the features
var viceFeatureRelease = mustConstraint(">= 3.6")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// the range from which the text monitor port is chosen
const (
	viceTextPortMin = 29170
	viceTextPortMax = 29400
)

// the capabilities assumed when the version handshake fails. the
// emulatorInfo command did not exist before 3.5
var viceFallback = Capabilities{
	Version:    "3.5.0",
	APIVersion: 1,
}

// Vice is the family of VICE emulators.
type Vice struct {
	caps   Capabilities
	probed bool
}

// Name implements the Family interface.
func (v *Vice) Name() string {
	return "VICE"
}

// Capabilities implements the Family interface.
func (v *Vice) Capabilities() Capabilities {
	return v.caps
}

// Supports implements the Family interface.
func (v *Vice) Supports(t monitor.CommandType) bool {
	return true
}

// ViceCapabilities derives the capabilities of VICE from the reply to the
// emulatorInfo command.
func ViceCapabilities(info *monitor.EmulatorInfoResponse) Capabilities {
	caps := Capabilities{
		Version:    info.VersionString(),
		Revision:   info.SVNRevision,
		APIVersion: info.APIVersion,
	}

	release := false
	if ver, err := semver.NewVersion(caps.Version); err == nil {
		release = viceFeatureRelease.Check(ver)
	} else {
		logger.Logf(logger.Allow, "vice", "unrecognised version %q: %v", caps.Version, err)
	}

	caps.Joyport = release || caps.Revision >= viceJoyportRevision
	caps.CompoundDirectory = release || caps.Revision >= viceCompoundRevision
	caps.IndexedDisplayOnly = caps.APIVersion >= 2
	caps.KeyboardPetsciiOnly = caps.APIVersion >= 2

	return caps
}

// probe connects with a throwaway connection and asks for the version. If
// quit is true the emulator is asked to quit afterwards.
func (v *Vice) probe(ctx context.Context, port int, quit bool) {
	if v.probed {
		return
	}
	v.probed = true
	v.caps = viceFallback

	conn, err := transport.Dial(ctx, fmt.Sprintf("127.0.0.1:%d", port), 2)
	if err != nil {
		logger.Logf(logger.Allow, "vice", "version probe: %v", err)
		return
	}
	defer conn.Close()

	info, err := transport.Call[*monitor.EmulatorInfoResponse](ctx, conn, monitor.EmulatorInfo{})
	if err != nil {
		logger.Logf(logger.Allow, "vice", "version probe: %v", err)
		return
	}

	v.caps = ViceCapabilities(info)
	logger.Logf(logger.Allow, "vice", "version %s (r%d) api %d", v.caps.Version, v.caps.Revision, v.caps.APIVersion)

	if quit {
		if _, err := conn.Exec(ctx, monitor.Quit{}); err != nil {
			logger.Logf(logger.Allow, "vice", "version probe: %v", err)
		}
	}
}

// Connect implements the Family interface.
func (v *Vice) Connect(ctx context.Context, port int) (*transport.Conn, error) {
	v.probe(ctx, port, false)
	return transport.Dial(ctx, fmt.Sprintf("127.0.0.1:%d", port), v.caps.APIVersion)
}

// viceTextPort asks VICE for the address of the text monitor. Returns zero if the
// text monitor is not enabled.
func viceTextPort(ctx context.Context, g *Grip) int {
	conn := g.Conn()
	if conn == nil {
		return 0
	}
	resps, err := transport.CallBatch[*monitor.ResourceGetResponse](ctx, conn, []monitor.Command{
		monitor.ResourceGet{Name: "MonitorServer"},
		monitor.ResourceGet{Name: "MonitorServerAddress"},
	})
	if err != nil {
		logger.Logf(logger.Allow, "vice", "text monitor: %v", err)
		return 0
	}
	if resps[0].IntValue == 0 {
		return 0
	}
	addr := resps[1].StringValue
	p, err := strconv.Atoi(addr[strings.LastIndex(addr, ":")+1:])
	if err != nil {
		logger.Logf(logger.Allow, "vice", "text monitor address %q: %v", addr, err)
		return 0
	}
	return p
}

// ViceDirectories returns the value of the -directory option. Returns nil if
// there is no system directory.
func ViceDirectories(systemDir string, m machine.Type, compound bool) []string {
	if systemDir == "" {
		return nil
	}

	if compound {
		return []string{systemDir}
	}

	var dirs []string
	switch m {
	case machine.C64:
		dirs = append(dirs, "C64")
	case machine.C128:
		dirs = append(dirs, "C128")
	case machine.PET:
		dirs = append(dirs, "PET")
	case machine.VIC20:
		dirs = append(dirs, "VIC20")
	case machine.Plus4:
		dirs = append(dirs, "PLUS4")
	}
	dirs = append(dirs, "DRIVES", "PRINTER")

	for i := range dirs {
		dirs[i] = filepath.Join(systemDir, dirs[i])
	}
	return dirs
}

func viceDirectoryArgs(dirs []string) []string {
	if len(dirs) == 0 {
		return nil
	}
	return []string{"-directory", strings.Join(dirs, string(os.PathListSeparator))}
}

// ViceArgs assembles the command line for VICE.
func ViceArgs(opts StartOptions, caps Capabilities, binaryPort int, textPort int) []string {
	args := viceDirectoryArgs(ViceDirectories(opts.SystemDir, opts.Machine, caps.CompoundDirectory))

	if opts.Sound {
		args = append(args, "-sound")
	} else {
		args = append(args, "+sound")
	}

	if opts.Machine == machine.C64 {
		args = append(args, "-iecdevice8")
	}

	args = append(args, "-autostart-warp", "-autostartprgmode", "1", "+autostart-handle-tde")

	if opts.LabelFile != "" {
		args = append(args, "-moncommands", opts.LabelFile)
	}

	args = append(args,
		"-remotemonitor", "-remotemonitoraddress", fmt.Sprintf("127.0.0.1:%d", textPort),
		"-binarymonitor", "-binarymonitoraddress", fmt.Sprintf("127.0.0.1:%d", binaryPort),
	)

	return append(args, opts.Args...)
}

// ViceProbeArgs assembles the command line for the version probe. VICE is
// started with default settings so it is less likely to fail.
func ViceProbeArgs(opts StartOptions, binaryPort int) []string {
	args := []string{"-default"}

	// the presence of the GLSL directory indicates a release recent enough to
	// accept a compound directory
	if _, err := os.Stat(filepath.Join(filepath.Dir(opts.Executable), "..", "data", "GLSL")); err == nil {
		args = append(args, viceDirectoryArgs(ViceDirectories(opts.SystemDir, opts.Machine, true))...)
	}

	return append(args,
		"+sound",
		"+remotemonitor",
		"-binarymonitor", "-binarymonitoraddress", fmt.Sprintf("127.0.0.1:%d", binaryPort),
	)
}

// Start implements the Family interface.
func (v *Vice) Start(ctx context.Context, g *Grip, opts StartOptions) (*transport.Conn, error) {
	if !v.probed {
		port, err := FreePort(opts.Port)
		if err != nil {
			return nil, err
		}

		probe := NewGrip(v)
		probe.Launcher = g.Launcher
		err = probe.launch(ctx, Command{
			Path:  opts.Executable,
			Args:  ViceProbeArgs(opts, port),
			Dir:   ".",
			Title: "VICE",
		})
		if err != nil {
			return nil, err
		}

		v.probe(ctx, port, true)

		// the probe process is killed if it hasn't quit
		_ = probe.Terminate(ctx)
	}

	textStart := viceTextPortMin + rand.Intn(viceTextPortMax-viceTextPortMin)
	textPort, err := FreePort(textStart)
	if err != nil {
		return nil, err
	}
	binaryPort, err := FreePort(opts.Port)
	if err != nil {
		return nil, err
	}

	err = g.launch(ctx, Command{
		Path:  opts.Executable,
		Args:  ViceArgs(opts, v.caps, binaryPort, textPort),
		Dir:   opts.Dir,
		Title: "VICE",
	})
	if err != nil {
		return nil, err
	}

	conn, err := v.Connect(ctx, binaryPort)
	if err != nil {
		return nil, err
	}
	g.attach(conn)
	g.TextPort = viceTextPort(ctx, g)

	return conn, nil
}

// Autostart implements the Family interface.
func (v *Vice) Autostart(ctx context.Context, g *Grip, program string) error {
	_, err := g.Exec(ctx, monitor.Autostart{Run: true, Index: 0, Filename: program})
	return err
}

// DisplayRGBA implements the Family interface.
func (v *Vice) DisplayRGBA(ctx context.Context, g *Grip) (*monitor.DisplayGetResponse, error) {
	if !v.caps.IndexedDisplayOnly {
		return g.Display(ctx, monitor.RGBA)
	}
	return indexedToRGBA(ctx, g)
}

// fetch the display in the indexed format and expand it with the palette
func indexedToRGBA(ctx context.Context, g *Grip) (*monitor.DisplayGetResponse, error) {
	disp, err := g.Display(ctx, monitor.Indexed8)
	if err != nil {
		return nil, err
	}
	pal, err := g.Palette(ctx)
	if err != nil {
		return nil, err
	}

	rgba := make([]byte, len(disp.Data)*4)
	for i, idx := range disp.Data {
		if int(idx) >= len(pal.Entries) {
			continue
		}
		e := pal.Entries[idx]
		rgba[i*4] = e.Red
		rgba[i*4+1] = e.Green
		rgba[i*4+2] = e.Blue
		rgba[i*4+3] = 0xff
	}

	r := *disp
	r.BPP = 32
	r.Data = rgba
	return &r, nil
}
