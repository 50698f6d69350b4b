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


package debugger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jetsetilly/cc65dbg/debugger"
	"github.com/jetsetilly/cc65dbg/debugger/govern"
	"github.com/jetsetilly/cc65dbg/launch"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/monitor/monitortest"
	"github.com/jetsetilly/cc65dbg/test"
)

// _main stores three values and returns
//
//	$1000  LDA #$01     ; line 3
//	$1002  STA $0900
//	$1005  LDA #$02     ; line 4
//	$1007  STA $0900
//	$100a  LDA #$03     ; line 5
//	$100c  STA $0900
//	$100f  RTS          ; line 6
const mainDbg = `version	major=2,minor=0
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

const mainMap = `Exports list by value:
----------------------

Imports list:
`

var mainCode = []byte{
	0xa9, 0x01, 0x8d, 0x00, 0x09,
	0xa9, 0x02, 0x8d, 0x00, 0x09,
	0xa9, 0x03, 0x8d, 0x00, 0x09,
	0x60,
}

func mainTrace(codeWrite bool) []monitortest.Step {
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
	if codeWrite {
		trace[5].Writes = []uint16{0x1005}
	}
	for i := 0; i < 16; i++ {
		trace = append(trace, monitortest.Step{PC: uint16(0x0806 + i)})
	}
	return trace
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

type fixture struct {
	d      *debugger.Debugger
	f      *monitortest.Fake
	cfg    launch.Config
	events chan debugger.Event
	seen   []debugger.Event
}

func flag(b bool) *bool {
	return &b
}

func setup(t *testing.T, codeWrite bool, config func(*launch.Config)) *fixture {
	t.Helper()

	dir := t.TempDir()
	dbgFile := filepath.Join(dir, "prog.dbg")
	mapFile := filepath.Join(dir, "prog.map")
	test.DemandSuccess(t, os.WriteFile(dbgFile, []byte(mainDbg), 0o644))
	test.DemandSuccess(t, os.WriteFile(mapFile, []byte(mainMap), 0o644))

	f, err := monitortest.NewFake()
	test.DemandSuccess(t, err)
	t.Cleanup(func() { f.Close() })
	f.SetMemory(0x1000, mainCode)
	f.SetTrace(mainTrace(codeWrite))

	p, err := debugger.NewPreferences(filepath.Join(dir, "preferences"))
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, p.UpdateInterval.Set(60000))

	fx := &fixture{
		f:      f,
		events: make(chan debugger.Event, 1024),
	}
	fx.d = debugger.NewDebugger(p, func(ev debugger.Event) {
		select {
		case fx.events <- ev:
		default:
			t.Errorf("event channel full. dropped %s", ev)
		}
	})

	fx.cfg = launch.Config{
		Program:     filepath.Join(dir, "prog.c64"),
		DebugFile:   dbgFile,
		MapFile:     mapFile,
		BuildDir:    dir,
		Port:        f.Port(),
		RunAhead:    flag(false),
		StopOnEntry: flag(true),
		StopOnExit:  flag(false),
	}
	if config != nil {
		config(&fx.cfg)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		fx.d.Terminate(ctx)
	})

	return fx
}

func (fx *fixture) attach(t *testing.T) {
	t.Helper()
	ctx := timeout(t)
	test.DemandSuccess(t, fx.d.Load(ctx, fx.cfg))
	test.DemandSuccess(t, fx.d.Attach(ctx))
}

// waitFor returns the next event of the kind. other events are kept in the
// seen list
func (fx *fixture) waitFor(t *testing.T, kind debugger.EventKind) debugger.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-fx.events:
			fx.seen = append(fx.seen, ev)
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
			return debugger.Event{}
		}
	}
}

// drain moves every pending event to the seen list
func (fx *fixture) drain() {
	for {
		select {
		case ev := <-fx.events:
			fx.seen = append(fx.seen, ev)
		default:
			return
		}
	}
}

func (fx *fixture) count(kind debugger.EventKind) int {
	var n int
	for _, ev := range fx.seen {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestAttachStopOnEntry(t *testing.T) {
	fx := setup(t, false, nil)
	fx.attach(t)

	ev := fx.waitFor(t, debugger.StopOnEntry)
	test.ExpectEquality(t, ev.Position.Address, 0x1000)
	test.ExpectEquality(t, ev.Position.Line, 2)
	test.ExpectEquality(t, filepath.Base(ev.Position.File), "main.c")

	fx.waitFor(t, debugger.Started)
	test.ExpectEquality(t, fx.d.State(), govern.Stopped)
	test.ExpectEquality(t, fx.d.Reason(), govern.Entry)

	// the entry checkpoint is removed once the program has started
	for _, ci := range fx.f.Checkpoints() {
		test.ExpectSuccess(t, !(ci.Start == 0x1000 && ci.Stop && ci.Enabled && ci.Operation == monitor.OpExec))
	}
}

func TestNext(t *testing.T) {
	fx := setup(t, false, nil)
	fx.attach(t)
	fx.waitFor(t, debugger.Started)

	ctx := timeout(t)
	test.DemandSuccess(t, fx.d.Next(ctx))
	ev := fx.waitFor(t, debugger.StopOnStep)
	test.ExpectEquality(t, ev.Position.Address, 0x1005)
	test.ExpectEquality(t, ev.Position.Line, 3)
	test.ExpectEquality(t, fx.d.Reason(), govern.Step)

	test.DemandSuccess(t, fx.d.Next(ctx))
	ev = fx.waitFor(t, debugger.StopOnStep)
	test.ExpectEquality(t, ev.Position.Line, 4)

	// the line guards have been removed. only the checkpoints of the call
	// stack and the guards remain
	before := len(fx.f.Checkpoints())
	test.DemandSuccess(t, fx.d.Next(ctx))
	fx.waitFor(t, debugger.StopOnStep)
	test.ExpectEquality(t, len(fx.f.Checkpoints()), before)
}

func TestBreakpointVerification(t *testing.T) {
	fx := setup(t, false, nil)

	ctx := timeout(t)
	bps, err := fx.d.SetBreakpoint(ctx, "main.c", debugger.BreakpointSpec{Line: 4})
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(bps), 1)
	test.ExpectEquality(t, bps[0].Verified, false)

	fx.attach(t)
	fx.waitFor(t, debugger.Started)
	fx.drain()
	test.ExpectEquality(t, fx.count(debugger.BreakpointValidated), 1)

	l := fx.d.Breakpoints()
	test.DemandEquality(t, len(l), 1)
	test.ExpectEquality(t, l[0].Verified, true)

	var placed int
	for _, ci := range fx.f.Checkpoints() {
		if ci.Start == 0x100a && ci.Stop {
			placed++
		}
	}
	test.ExpectEquality(t, placed, 1)

	// verifying again places nothing new
	n := fx.f.Count(monitor.CmdCheckpointSet)
	test.DemandSuccess(t, fx.d.VerifyBreakpoints(ctx))
	test.ExpectEquality(t, fx.f.Count(monitor.CmdCheckpointSet), n)
	fx.drain()
	test.ExpectEquality(t, fx.count(debugger.BreakpointValidated), 1)

	test.DemandSuccess(t, fx.d.Continue(ctx))
	ev := fx.waitFor(t, debugger.StopOnBreakpoint)
	test.ExpectEquality(t, ev.Position.Address, 0x100a)
	test.ExpectEquality(t, ev.Breakpoint.ID, l[0].ID)
	test.ExpectEquality(t, fx.d.Reason(), govern.Breakpoint)

	// clearing the file removes the checkpoint
	test.DemandSuccess(t, fx.d.ClearBreakpoints(ctx, "main.c"))
	test.ExpectEquality(t, len(fx.d.Breakpoints()), 0)
	for _, ci := range fx.f.Checkpoints() {
		test.ExpectInequality(t, ci.Start, uint16(0x100a))
	}
}

func TestConditionalBreakpoint(t *testing.T) {
	fx := setup(t, false, nil)
	fx.attach(t)
	fx.waitFor(t, debugger.Started)

	ctx := timeout(t)
	_, err := fx.d.SetBreakpoint(ctx, "main.c", debugger.BreakpointSpec{Line: 3, Condition: "1 == 2"})
	test.DemandSuccess(t, err)

	// the condition is false so the program runs to the end
	test.DemandSuccess(t, fx.d.Continue(ctx))
	fx.waitFor(t, debugger.End)
	test.ExpectEquality(t, fx.count(debugger.StopOnBreakpoint), 0)
	test.ExpectEquality(t, fx.d.State(), govern.Terminated)
}

func TestLogMessage(t *testing.T) {
	fx := setup(t, false, nil)
	fx.attach(t)
	fx.waitFor(t, debugger.Started)

	ctx := timeout(t)
	_, err := fx.d.SetBreakpoint(ctx, "main.c", debugger.BreakpointSpec{Line: 3, LogMessage: "hit {1+1}"})
	test.DemandSuccess(t, err)

	test.DemandSuccess(t, fx.d.Continue(ctx))
	ev := fx.waitFor(t, debugger.Output)
	test.ExpectEquality(t, ev.Text, "hit 2\n")
	fx.waitFor(t, debugger.StopOnBreakpoint)
}

func TestStopOnExit(t *testing.T) {
	fx := setup(t, false, func(cfg *launch.Config) {
		cfg.StopOnExit = flag(true)
	})
	fx.attach(t)
	fx.waitFor(t, debugger.Started)

	test.DemandSuccess(t, fx.d.Continue(timeout(t)))
	ev := fx.waitFor(t, debugger.StopOnExit)
	test.ExpectEquality(t, ev.Position.Address, 0x100f)
	test.ExpectEquality(t, fx.d.Reason(), govern.Exit)
	test.ExpectEquality(t, fx.d.State(), govern.Stopped)
}

func TestCodeSegmentGuard(t *testing.T) {
	fx := setup(t, true, nil)
	fx.attach(t)
	fx.waitFor(t, debugger.Started)

	test.DemandSuccess(t, fx.d.Continue(timeout(t)))
	ev := fx.waitFor(t, debugger.Message)
	for ev.Level != debugger.Error {
		ev = fx.waitFor(t, debugger.Message)
	}
	test.ExpectEquality(t, ev.Text, "CODE segment was modified. Your program may be broken!")
	fx.waitFor(t, debugger.StopOnStep)
}

func TestRunAheadRestoration(t *testing.T) {
	fx := setup(t, false, func(cfg *launch.Config) {
		cfg.RunAhead = flag(true)
	})
	fx.attach(t)
	fx.waitFor(t, debugger.Started)

	test.ExpectEquality(t, fx.f.Count(monitor.CmdDump), 1)
	test.ExpectEquality(t, fx.f.Count(monitor.CmdUndump), 1)

	pos := fx.f.Position()
	mem := fx.f.Memory()
	regs := make(map[uint8]uint16)
	for _, r := range []uint8{monitortest.RegA, monitortest.RegX, monitortest.RegY,
		monitortest.RegPC, monitortest.RegSP, monitortest.RegFL, monitortest.RegLIN, monitortest.RegCYC} {
		regs[r] = fx.f.Register(r)
	}

	test.DemandSuccess(t, fx.d.Pause(timeout(t)))
	fx.waitFor(t, debugger.StopOnStep)

	test.ExpectEquality(t, fx.f.Count(monitor.CmdDump), 2)
	test.ExpectEquality(t, fx.f.Count(monitor.CmdUndump), 2)
	test.ExpectEquality(t, fx.f.Position(), pos)
	test.ExpectEquality(t, string(fx.f.Memory()), string(mem))
	for r, v := range regs {
		test.ExpectEquality(t, fx.f.Register(r), v, r)
	}
	test.ExpectEquality(t, fx.d.Position().Address, 0x1000)
}

func TestStepOutOfMain(t *testing.T) {
	fx := setup(t, false, nil)
	fx.attach(t)
	fx.waitFor(t, debugger.Started)

	// main has no caller so the debugger stays where it is
	test.DemandSuccess(t, fx.d.StepOut(timeout(t)))
	ev := fx.waitFor(t, debugger.Message)
	for ev.Text != debugger.CannotStepOut {
		ev = fx.waitFor(t, debugger.Message)
	}
	ev = fx.waitFor(t, debugger.StopOnStep)
	test.ExpectEquality(t, ev.Position.Address, 0x1000)
}

func TestNotLoaded(t *testing.T) {
	fx := setup(t, false, nil)
	ctx := timeout(t)
	test.ExpectFailure(t, fx.d.Attach(ctx))
	test.ExpectFailure(t, fx.d.Next(ctx))
}

func TestTerminate(t *testing.T) {
	fx := setup(t, false, nil)
	fx.attach(t)
	fx.waitFor(t, debugger.Started)

	ctx := timeout(t)
	test.DemandSuccess(t, fx.d.Terminate(ctx))
	fx.waitFor(t, debugger.End)
	test.ExpectEquality(t, fx.d.State(), govern.Terminated)
	test.ExpectFailure(t, fx.d.Continue(ctx))

	// a second call does nothing
	test.ExpectSuccess(t, fx.d.Terminate(ctx))
	fx.drain()
	test.ExpectEquality(t, fx.count(debugger.End), 1)
}

func TestAttachWaitRemovesCheckpoints(t *testing.T) {
	fx := setup(t, false, nil)

	// the program never arrives in memory so the wait ends with the deadline
	fx.f.SetMemory(0x1000, make([]byte, len(mainCode)))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	test.DemandSuccess(t, fx.d.Load(ctx, fx.cfg))
	test.ExpectFailure(t, fx.d.Attach(ctx))

	var placed int
	for _, r := range fx.f.Received() {
		if cp, ok := r.Command.(monitor.CheckpointSet); ok && cp.Operation == monitor.OpStore {
			placed++
		}
	}
	test.ExpectSuccess(t, placed > 0)

	for _, ci := range fx.f.Checkpoints() {
		load := ci.Operation == monitor.OpStore && ci.Start == ci.End &&
			(ci.Start == 0x1000 || ci.Start == 0x100f)
		test.ExpectFailure(t, load, ci.ID)
	}
}
