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

package grip_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/grip"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/monitor/monitortest"
	"github.com/jetsetilly/cc65dbg/test"
)

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func connect(t *testing.T, family grip.Family) (*grip.Grip, *monitortest.Fake) {
	t.Helper()

	f, err := monitortest.NewFake()
	test.DemandSuccess(t, err)
	t.Cleanup(func() { f.Close() })

	g := grip.NewGrip(family)
	test.DemandSuccess(t, g.Connect(timeout(t), f.Port()))
	t.Cleanup(func() { g.Disconnect() })

	return g, f
}

func TestViceConnect(t *testing.T) {
	ctx := timeout(t)
	g, f := connect(t, &grip.Vice{})

	caps := g.Capabilities()
	test.ExpectEquality(t, caps.Version, "3.7.1")
	test.ExpectEquality(t, caps.APIVersion, uint8(2))
	test.ExpectEquality(t, caps.Joyport, true)
	test.ExpectEquality(t, caps.CompoundDirectory, true)
	test.ExpectEquality(t, caps.IndexedDisplayOnly, true)

	// the version is only asked for by the probe
	test.ExpectEquality(t, f.Count(monitor.CmdEmulatorInfo), 1)

	f.SetMemory(0x0800, []byte{1, 2, 3, 4})
	b, err := g.MemoryGet(ctx, 0x0801, 2, 0)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, string(b), string([]byte{2, 3}))

	b, err = g.MemoryGet(ctx, 0x0801, 0, 0)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(b), 0)
}

func TestViceCapabilities(t *testing.T) {
	caps := grip.ViceCapabilities(&monitor.EmulatorInfoResponse{
		Header:      monitor.Header{APIVersion: 1},
		Version:     []byte{3, 5, 0, 0},
		SVNRevision: 40000,
	})
	test.ExpectEquality(t, caps.Version, "3.5.0")
	test.ExpectEquality(t, caps.Joyport, false)
	test.ExpectEquality(t, caps.CompoundDirectory, true)
	test.ExpectEquality(t, caps.IndexedDisplayOnly, false)
	test.ExpectEquality(t, caps.KeyboardPetsciiOnly, false)

	caps = grip.ViceCapabilities(&monitor.EmulatorInfoResponse{
		Header:      monitor.Header{APIVersion: 1},
		Version:     []byte{3, 5, 0, 0},
		SVNRevision: 41221,
	})
	test.ExpectEquality(t, caps.Joyport, true)
}

func TestWithAllBreaksDisabled(t *testing.T) {
	ctx := timeout(t)
	g, f := connect(t, &grip.Vice{})

	a, err := g.CheckpointSet(ctx, monitor.CheckpointSet{Start: 0x1000, End: 0x1000, Stop: true, Enabled: true, Operation: monitor.OpExec})
	test.DemandSuccess(t, err)
	b, err := g.CheckpointSet(ctx, monitor.CheckpointSet{Start: 0x2000, End: 0x2000, Stop: true, Enabled: true, Operation: monitor.OpExec})
	test.DemandSuccess(t, err)
	c, err := g.CheckpointSet(ctx, monitor.CheckpointSet{Start: 0x3000, End: 0x3000, Stop: false, Enabled: true, Operation: monitor.OpExec})
	test.DemandSuccess(t, err)

	err = g.WithAllBreaksDisabled(ctx, func() error {
		l, err := g.CheckpointList(ctx)
		if err != nil {
			return err
		}
		for _, ci := range l {
			if ci.Stop && ci.Enabled {
				t.Errorf("checkpoint %d is still enabled", ci.ID)
			}
		}
		return g.CheckpointDelete(ctx, b.ID)
	})
	test.ExpectSuccess(t, err)

	enabled := make(map[uint32]bool)
	for _, ci := range f.Checkpoints() {
		enabled[ci.ID] = ci.Enabled
	}
	test.ExpectEquality(t, len(enabled), 2)
	test.ExpectEquality(t, enabled[a.ID], true)
	test.ExpectEquality(t, enabled[c.ID], true)
}

func TestDisplayRGBA(t *testing.T) {
	g, _ := connect(t, &grip.Vice{})

	d, err := g.DisplayRGBA(timeout(t))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, d.BPP, uint8(32))
	test.ExpectEquality(t, len(d.Data), 8*4*4)

	// pixel 3 is palette entry 3, which is grey with value 48
	test.ExpectEquality(t, d.Data[12], uint8(48))
	test.ExpectEquality(t, d.Data[13], uint8(48))
	test.ExpectEquality(t, d.Data[14], uint8(48))
	test.ExpectEquality(t, d.Data[15], uint8(0xff))
}

func TestExpectStopAt(t *testing.T) {
	ctx := timeout(t)
	g, f := connect(t, &grip.Vice{})

	f.SetTrace([]monitortest.Step{{PC: 0x1000}, {PC: 0x1002}, {PC: 0x1004}, {PC: 0x1006}, {PC: 0x1008}})

	cps := []monitor.CheckpointSet{
		{Start: 0x1002, End: 0x1002, Stop: true, Enabled: true, Operation: monitor.OpExec},
		{Start: 0x1006, End: 0x1006, Stop: true, Enabled: true, Operation: monitor.OpExec},
	}
	_, err := g.CheckpointSetBatch(ctx, cps)
	test.DemandSuccess(t, err)

	w, err := g.ExpectStopAt(0x1006, 0x1006, true)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, g.Exit(ctx))

	s, err := w.Wait(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.PC, uint16(0x1006))
	test.ExpectEquality(t, f.Position(), 3)
	test.ExpectEquality(t, f.Count(monitor.CmdExit), 2)
}

func TestMesenUnsupported(t *testing.T) {
	g, _ := connect(t, &grip.Mesen{})

	err := g.Dump(timeout(t), "snapshot")
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, curated.Is(err, grip.NotImplemented), true)

	_, err = g.ResourceGet(timeout(t), "MonitorServer")
	test.ExpectEquality(t, curated.Is(err, grip.NotImplemented), true)

	// the joyport is supported
	test.ExpectSuccess(t, g.JoyportSet(timeout(t), 0, 0x10))
}

func TestNotConnected(t *testing.T) {
	g := grip.NewGrip(&grip.Vice{})
	err := g.Ping(timeout(t))
	test.ExpectEquality(t, curated.Is(err, grip.NotConnected), true)
}

func TestViceArgs(t *testing.T) {
	opts := grip.StartOptions{
		Machine:   machine.C64,
		LabelFile: "program.lbl",
		Args:      []string{"-autostartprgmode", "0"},
	}
	args := strings.Join(grip.ViceArgs(opts, grip.Capabilities{}, 6502, 29200), " ")
	test.ExpectEquality(t, args, "+sound -iecdevice8 -autostart-warp -autostartprgmode 1 +autostart-handle-tde "+
		"-moncommands program.lbl -remotemonitor -remotemonitoraddress 127.0.0.1:29200 "+
		"-binarymonitor -binarymonitoraddress 127.0.0.1:6502 -autostartprgmode 0")

	opts = grip.StartOptions{Machine: machine.PET, Sound: true}
	args = strings.Join(grip.ViceArgs(opts, grip.Capabilities{}, 1, 2), " ")
	test.ExpectEquality(t, strings.HasPrefix(args, "-sound -autostart-warp"), true)
}

func TestViceDirectories(t *testing.T) {
	test.ExpectEquality(t, len(grip.ViceDirectories("", machine.C64, false)), 0)

	dirs := grip.ViceDirectories("/vice", machine.C64, true)
	test.ExpectEquality(t, strings.Join(dirs, ","), "/vice")

	dirs = grip.ViceDirectories("/vice", machine.VIC20, false)
	test.ExpectEquality(t, strings.Join(dirs, ","), strings.Join([]string{
		filepath.Join("/vice", "VIC20"),
		filepath.Join("/vice", "DRIVES"),
		filepath.Join("/vice", "PRINTER"),
	}, ","))
}

func TestMesenCommand(t *testing.T) {
	c := grip.MesenCommand(grip.StartOptions{
		Executable: "Mesen.exe",
		SystemDir:  "/mesen",
		Args:       []string{"--fullscreen"},
	}, 6502, "game.nes")

	test.ExpectEquality(t, c.Args[len(c.Args)-1], "game.nes")
	test.ExpectEquality(t, c.Args[len(c.Args)-2], "--fullscreen")
	test.ExpectEquality(t, strings.Join(c.Env, " "), "MESEN_REMOTE_BASEDIR=/mesen MESEN_REMOTE_WAIT=1 MESEN_REMOTE_PORT=6502")
}

func TestFindExecutable(t *testing.T) {
	dir := t.TempDir()

	_, err := grip.FindExecutable(machine.Plus4, dir, false)
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, curated.Is(err, grip.NoEmulator), true)

	// a file that exists is accepted even without the executable bit
	p := filepath.Join(dir, "xplus4")
	test.DemandSuccess(t, os.WriteFile(p, []byte{}, 0o644))
	found, err := grip.FindExecutable(machine.Plus4, dir, false)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, found, p)
}

func TestExecutables(t *testing.T) {
	test.ExpectEquality(t, grip.Executables(machine.C64, false)[0], "x64sc")
	test.ExpectEquality(t, grip.Executables(machine.C64, true)[0], "x64")
	test.ExpectEquality(t, grip.Executables(machine.NES, false)[0], "Mesen.exe")
}
