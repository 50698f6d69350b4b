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
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/transport"
)

// the name of the lua script that implements the binary monitor inside Mesen.
// the script is found in the system directory
const mesenScript = "mesen_binary_monitor.lua"

// Mesen is the family of Mesen emulators, driven by a lua script that
// implements a subset of the binary monitor. Mesen can't be started until the
// program is known so the connection is made by Autostart.
type Mesen struct {
	crit       sync.Mutex
	cmd        Command
	binaryPort int
}

// Name implements the Family interface.
func (m *Mesen) Name() string {
	return "Mesen"
}

// Capabilities implements the Family interface.
func (m *Mesen) Capabilities() Capabilities {
	return Capabilities{
		Version:    "0.9.9",
		APIVersion: 2,
		Joyport:    true,
	}
}

// Supports implements the Family interface.
func (m *Mesen) Supports(t monitor.CommandType) bool {
	switch t {
	case monitor.CmdDump, monitor.CmdUndump, monitor.CmdKeyboardFeed,
		monitor.CmdResourceGet, monitor.CmdResourceSet:
		return false
	}
	return true
}

// Connect implements the Family interface.
func (m *Mesen) Connect(ctx context.Context, port int) (*transport.Conn, error) {
	return transport.Dial(ctx, fmt.Sprintf("127.0.0.1:%d", port), 2)
}

// MesenCommand returns the command that launches Mesen with the program.
func MesenCommand(opts StartOptions, binaryPort int, program string) Command {
	args := []string{filepath.Join(opts.SystemDir, mesenScript)}
	args = append(args, opts.Args...)
	args = append(args, program)

	c := Command{
		Path: opts.Executable,
		Args: args,
		Dir:  opts.Dir,
		Env: []string{
			fmt.Sprintf("MESEN_REMOTE_BASEDIR=%s", opts.SystemDir),
			"MESEN_REMOTE_WAIT=1",
			fmt.Sprintf("MESEN_REMOTE_PORT=%d", binaryPort),
		},
		Title: "Mesen",
	}

	// Mesen.exe is a .NET assembly
	if runtime.GOOS != "windows" {
		c.Args = append([]string{c.Path}, c.Args...)
		c.Path = "mono"
	}

	return c
}

// Start implements the Family interface. Nothing is launched until Autostart.
func (m *Mesen) Start(ctx context.Context, g *Grip, opts StartOptions) (*transport.Conn, error) {
	port, err := FreePort(opts.Port)
	if err != nil {
		return nil, err
	}

	m.crit.Lock()
	defer m.crit.Unlock()
	m.binaryPort = port
	m.cmd = MesenCommand(opts, port, "")
	m.cmd.Args = m.cmd.Args[:len(m.cmd.Args)-1]

	return nil, nil
}

// Autostart implements the Family interface.
func (m *Mesen) Autostart(ctx context.Context, g *Grip, program string) error {
	m.crit.Lock()
	cmd := m.cmd
	port := m.binaryPort
	m.crit.Unlock()

	if cmd.Path == "" {
		return curated.Errorf(NotConnected)
	}

	cmd.Args = append(append([]string{}, cmd.Args...), program)
	if err := g.launch(ctx, cmd); err != nil {
		return err
	}

	conn, err := m.Connect(ctx, port)
	if err != nil {
		return err
	}
	g.attach(conn)

	return nil
}

// DisplayRGBA implements the Family interface. The script sends the display
// as a PNG image.
func (m *Mesen) DisplayRGBA(ctx context.Context, g *Grip) (*monitor.DisplayGetResponse, error) {
	disp, err := g.Display(ctx, monitor.RGBA)
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(disp.Data))
	if err != nil {
		return nil, fmt.Errorf("grip: mesen display: %w", err)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	r := *disp
	r.BPP = 32
	r.Data = rgba.Pix
	return &r, nil
}
