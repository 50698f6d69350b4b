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


package console_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jetsetilly/cc65dbg/console"
	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugger"
	"github.com/jetsetilly/cc65dbg/launch"
	"github.com/jetsetilly/cc65dbg/monitor/monitortest"
	"github.com/jetsetilly/cc65dbg/terminal"
	"github.com/jetsetilly/cc65dbg/terminal/commandline"
	"github.com/jetsetilly/cc65dbg/test"
)

// mockTerm feeds lines from the in channel and collects output in the out
// channel.
type mockTerm struct {
	in  chan string
	out chan string
}

func newMockTerm() *mockTerm {
	return &mockTerm{
		in:  make(chan string),
		out: make(chan string, 1024),
	}
}

func (m *mockTerm) Initialise() error { return nil }
func (m *mockTerm) CleanUp() {}
func (m *mockTerm) RegisterTabCompletion(terminal.TabCompletion) {}
func (m *mockTerm) Silence(bool) {}
func (m *mockTerm) IsInteractive() bool { return false }

func (m *mockTerm) TermRead(terminal.Prompt) (string, error) {
	s, ok := <-m.in
	if !ok {
		return "", curated.Errorf(terminal.UserAbort)
	}
	return s, nil
}

func (m *mockTerm) TermPrintLine(style terminal.Style, s string) {
	if style == terminal.StyleEcho {
		return
	}
	m.out <- s
}

// expect waits for a line of output that is equal to want
func (m *mockTerm) expect(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	var seen []string
	for {
		select {
		case s := <-m.out:
			if s == want {
				return
			}
			seen = append(seen, s)
		case <-deadline:
			t.Fatalf("timed out waiting for %q. output was %q", want, seen)
			return
		}
	}
}

const progDbg = `version	major=2,minor=0
file	id=0,name="main.c",size=100,mtime=0x5C8A1E30,mod=0
seg	id=0,name="CODE",start=0x001000,size=0x000020,addrsize=absolute,type=ro
seg	id=1,name="ZEROPAGE",start=0x000002,size=0x00001A,addrsize=zeropage,type=rw
span	id=0,seg=0,start=0,size=16
span	id=1,seg=0,start=0,size=5
span	id=2,seg=0,start=5,size=5
span	id=3,seg=0,start=10,size=5
span	id=4,seg=0,start=15,size=1
span	id=5,seg=0,start=0,size=2
span	id=6,seg=0,start=2,size=3
span	id=7,seg=0,start=5,size=2
span	id=8,seg=0,start=7,size=3
span	id=9,seg=0,start=10,size=2
span	id=10,seg=0,start=12,size=3
scope	id=0,name="_main",mod=0,size=16,span=0
csym	id=0,name="main",scope=0,type=0,sc=ext,sym=0
line	id=0,file=0,line=3,span=1
line	id=1,file=0,line=4,span=2
line	id=2,file=0,line=5,span=3
line	id=3,file=0,line=6,span=4
sym	id=0,name="_main",addrsize=absolute,size=16,scope=0,val=0x1000,seg=0,type=lab
`

const progMap = `Exports list by value:
----------------------

Imports list:
`

var progCode = []byte{
	0xa9, 0x01, 0x8d, 0x00, 0x09,
	0xa9, 0x02, 0x8d, 0x00, 0x09,
	0xa9, 0x03, 0x8d, 0x00, 0x09,
	0x60,
}

func progTrace() []monitortest.Step {
	trace := []monitortest.Step{
		{PC: 0x0800}, {PC: 0x0803},
		{PC: 0x1000},
		{PC: 0x1002, Writes: []uint16{0x0900}},
		{PC: 0x1005},
		{PC: 0x1007, Writes: []uint16{0x0900}},
		{PC: 0x100a},
		{PC: 0x100c, Writes: []uint16{0x0900}},
		{PC: 0x100f},
	}
	for i := 0; i < 16; i++ {
		trace = append(trace, monitortest.Step{PC: uint16(0x0806 + i)})
	}
	return trace
}

func flag(b bool) *bool {
	return &b
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func setup(t *testing.T) (*console.Console, *debugger.Debugger, *mockTerm, launch.Config) {
	t.Helper()

	dir := t.TempDir()
	dbgFile := filepath.Join(dir, "prog.dbg")
	mapFile := filepath.Join(dir, "prog.map")
	test.DemandSuccess(t, os.WriteFile(dbgFile, []byte(progDbg), 0o644))
	test.DemandSuccess(t, os.WriteFile(mapFile, []byte(progMap), 0o644))

	f, err := monitortest.NewFake()
	test.DemandSuccess(t, err)
	t.Cleanup(func() { f.Close() })
	f.SetMemory(0x1000, progCode)
	f.SetTrace(progTrace())

	p, err := debugger.NewPreferences(filepath.Join(dir, "preferences"))
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, p.UpdateInterval.Set(60000))

	term := newMockTerm()
	con, err := console.NewConsole(term)
	test.DemandSuccess(t, err)

	d := debugger.NewDebugger(p, con.Emit)
	con.Attach(d)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.Terminate(ctx)
	})

	cfg := launch.Config{
		Program:     filepath.Join(dir, "prog.c64"),
		DebugFile:   dbgFile,
		MapFile:     mapFile,
		BuildDir:    dir,
		Port:        f.Port(),
		RunAhead:    flag(false),
		StopOnEntry: flag(true),
		StopOnExit:  flag(false),
	}

	return con, d, term, cfg
}

func TestSession(t *testing.T) {
	con, d, term, cfg := setup(t)
	ctx := timeout(t)

	test.DemandSuccess(t, d.Load(ctx, cfg))
	test.DemandSuccess(t, d.Attach(ctx))
	term.expect(t, "program entry at $1000 main.c:3")
	term.expect(t, "program started")

	quit, err := con.Execute(ctx, "where")
	test.ExpectSuccess(t, err)
	test.ExpectFailure(t, quit)
	term.expect(t, "$1000 main.c:3")

	_, err = con.Execute(ctx, "n")
	test.ExpectSuccess(t, err)
	term.expect(t, "$1005 main.c:4")

	_, err = con.Execute(ctx, "print 1+2")
	test.ExpectSuccess(t, err)
	term.expect(t, "3")

	_, err = con.Execute(ctx, "break main.c:5")
	test.ExpectSuccess(t, err)
	term.expect(t, "breakpoint #1 main.c:5 ($100a)")

	_, err = con.Execute(ctx, "c")
	test.ExpectSuccess(t, err)
	term.expect(t, "running")
	term.expect(t, "breakpoint #1 at $100a main.c:5")

	_, err = con.Execute(ctx, "break")
	test.ExpectSuccess(t, err)
	term.expect(t, "#1 main.c:5 ($100a)")

	_, err = con.Execute(ctx, "foo")
	test.ExpectSuccess(t, curated.Is(err, commandline.UnknownCommand))

	_, err = con.Execute(ctx, "poke $0900")
	test.ExpectSuccess(t, curated.Is(err, console.MissingArgument))

	_, err = con.Execute(ctx, "telemetry maybe")
	test.ExpectSuccess(t, curated.Is(err, console.InvalidArgument))

	quit, err = con.Execute(ctx, "quit")
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, quit)
	term.expect(t, "session ended")
}

func TestRunWithoutSession(t *testing.T) {
	con, _, term, _ := setup(t)

	done := make(chan error)
	go func() {
		done <- con.Run(context.Background())
	}()

	term.in <- "help step"
	term.expect(t, "STEP\n  aliases: s\n\nstep into the current line")

	term.in <- "break main.c:3 if x == 1 log hello"
	term.expect(t, `#1 main.c:3 unverified if x == 1 log "hello"`)

	term.in <- "b main.c:x"
	term.expect(t, "BREAK: invalid argument (main.c:x)")

	term.in <- "regs"
	term.expect(t, debugger.NotLoaded)

	close(term.in)

	select {
	case err := <-done:
		test.ExpectSuccess(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not end")
	}

	term.expect(t, "session ended")
}

func TestHelpOverview(t *testing.T) {
	con, _, term, _ := setup(t)

	_, err := con.Execute(context.Background(), "help")
	test.ExpectSuccess(t, err)

	select {
	case s := <-term.out:
		test.ExpectSuccess(t, strings.HasPrefix(s, "AUTOSTART"))
		test.ExpectSuccess(t, strings.Contains(s, "\nWHERE"))
	case <-time.After(time.Second):
		t.Fatal("no help output")
	}
}

func TestScript(t *testing.T) {
	con, _, term, _ := setup(t)

	script := filepath.Join(t.TempDir(), "breaks.script")

	done := make(chan error)
	go func() {
		done <- con.Run(context.Background())
	}()

	term.in <- "script record " + script
	term.expect(t, "recording to "+script)

	term.in <- "break main.c:3"
	term.expect(t, "#1 main.c:3 unverified")

	// failed commands are not recorded
	term.in <- "foo"
	term.expect(t, "unrecognised command (FOO)")

	term.in <- "script end"

	term.in <- "script " + script
	term.expect(t, "#2 main.c:3 unverified")

	// recording to an existing file is not allowed
	term.in <- "script record " + script
	term.expect(t, "script: "+script+" already exists")

	close(term.in)
	select {
	case err := <-done:
		test.ExpectSuccess(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not end")
	}

	b, err := os.ReadFile(script)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, string(b), "break main.c:3\n")
}
