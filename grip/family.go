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
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/transport"
)

// Sentinel error patterns.
const (
	NotImplemented  = "grip: %s does not implement %s"
	NoEmulator      = "grip: cannot find the emulator %s: %v"
	LaunchFailed    = "grip: could not start %s with %q: %v"
	NotConnected    = "grip: not connected"
	AutostartFailed = "grip: could not autostart %s. is the path correct?: %v"
)

// Capabilities of the emulator, as discovered by the version handshake.
type Capabilities struct {
	Version  string
	Revision uint32

	// the API version of the binary monitor
	APIVersion uint8

	// the emulator accepts a list of directories for the -directory option
	CompoundDirectory bool

	// the display can only be fetched in the indexed format
	IndexedDisplayOnly bool

	// the keyboard buffer only accepts PETSCII
	KeyboardPetsciiOnly bool

	// the joyportSet command is supported
	Joyport bool
}

// StartOptions are the options used when launching an emulator.
type StartOptions struct {
	// the binary monitor is given the first free port at or above Port
	Port int

	// working directory of the emulator process
	Dir string

	Machine    machine.Type
	Executable string

	// extra arguments added to the end of the command line
	Args []string

	// a file of monitor commands that defines labels. may be empty
	LabelFile string

	// directory containing the emulator's system files (ROMs, drives, etc.).
	// may be empty
	SystemDir string

	Sound bool
}

// Family is implemented by each emulator family.
type Family interface {
	Name() string

	// Connect to an emulator that is already running with its binary
	// monitor on the port.
	Connect(ctx context.Context, port int) (*transport.Conn, error)

	// Start the emulator. The connection is nil if the family can only
	// connect once a program has been autostarted.
	Start(ctx context.Context, g *Grip, opts StartOptions) (*transport.Conn, error)

	// Autostart a program.
	Autostart(ctx context.Context, g *Grip, program string) error

	// DisplayRGBA returns the current display with four bytes per pixel.
	DisplayRGBA(ctx context.Context, g *Grip) (*monitor.DisplayGetResponse, error)

	// Capabilities discovered by the version handshake. The zero value before
	// the handshake.
	Capabilities() Capabilities

	// Supports returns false for commands that the family can't perform.
	Supports(t monitor.CommandType) bool
}

// NewFamily returns the family of emulator suitable for the machine type.
func NewFamily(m machine.Type) Family {
	switch m {
	case machine.Apple2:
		return &AppleWin{}
	case machine.NES:
		return &Mesen{}
	}
	return &Vice{}
}

// Executables returns the names of the executables for the machine type, in
// order of preference.
func Executables(m machine.Type, preferX64 bool) []string {
	switch m {
	case machine.Apple2:
		return []string{"sa2"}
	case machine.NES:
		return []string{"Mesen.exe"}
	}

	names := m.ViceExecutables()
	if preferX64 && len(names) == 2 && names[1] == "x64" {
		names = []string{"x64", "x64sc"}
	}
	return names
}

// FindExecutable returns the path of the emulator for the machine type. If dir
// is empty the executable is searched for in the PATH.
func FindExecutable(m machine.Type, dir string, preferX64 bool) (string, error) {
	var err error
	names := Executables(m, preferX64)
	for _, n := range names {
		p := n
		if dir != "" {
			p = filepath.Join(dir, n)
		}

		// a file that exists is accepted even if it is not executable.
		// Mesen.exe is a .NET assembly without the executable bit on Linux
		if st, serr := os.Stat(p); serr == nil && !st.IsDir() {
			return p, nil
		}

		var lp string
		lp, err = exec.LookPath(p)
		if err == nil {
			return lp, nil
		}
	}
	return "", curated.Errorf(NoEmulator, names[0], err)
}
