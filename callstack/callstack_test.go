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

package callstack_test

import (
	"context"
	"testing"
	"time"

	"github.com/jetsetilly/cc65dbg/callstack"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/grip"
	"github.com/jetsetilly/cc65dbg/mapfile"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/monitor/monitortest"
	"github.com/jetsetilly/cc65dbg/test"
	"github.com/jetsetilly/cc65dbg/transport"
)

// _main calls _fact, which calls itself. _g is a tail call to _fact followed
// by a jump to a stack adjustment routine
//
//	$1000  JSR $1010   ; _main
//	$1003  RTS
//	$1010  NOP         ; _fact
//	$1011  JSR $1010
//	$1014  RTS
//	$1020  JMP $1010   ; _g
//	$1023  JMP $0b00   ; incsp2
const factDbg = `version	major=2,minor=0
file	id=0,name="fact.c",size=100,mtime=0x5C8A1E30,mod=0
seg	id=0,name="CODE",start=0x001000,size=0x000030,addrsize=absolute,type=ro
span	id=0,seg=0,start=0,size=4
span	id=1,seg=0,start=16,size=5
span	id=2,seg=0,start=0,size=3
span	id=3,seg=0,start=3,size=1
span	id=4,seg=0,start=16,size=1
span	id=5,seg=0,start=17,size=3
span	id=6,seg=0,start=20,size=1
span	id=7,seg=0,start=32,size=6
scope	id=0,name="_main",mod=0,size=4,span=0
scope	id=1,name="_fact",mod=0,size=5,span=1
scope	id=2,name="_g",mod=0,size=6,span=7
line	id=0,file=0,line=3,span=2
line	id=1,file=0,line=4,span=3
line	id=2,file=0,line=8,span=4
line	id=3,file=0,line=9,span=5
line	id=4,file=0,line=10,span=6
line	id=5,file=0,line=14,span=7
sym	id=0,name="_main",addrsize=absolute,size=4,scope=0,val=0x1000,seg=0,type=lab
sym	id=1,name="_fact",addrsize=absolute,size=5,scope=1,val=0x1010,seg=0,type=lab
sym	id=2,name="_g",addrsize=absolute,size=6,scope=2,val=0x1020,seg=0,type=lab
`

const factMap = `Exports list by value:
----------------------
incsp2                    000B00 RLA

Imports list:
`

var factCode = map[uint16][]byte{
	0x1000: {0x20, 0x10, 0x10, 0x60},
	0x1010: {0xea, 0x20, 0x10, 0x10, 0x60},
	0x1020: {0x4c, 0x10, 0x10, 0x4c, 0x00, 0x0b},
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

type fixture struct {
	dbg *debugfile.DebugFile
	g   *grip.Grip
	f   *monitortest.Fake
	m   *callstack.Manager
}

func setup(t *testing.T) fixture {
	t.Helper()

	var fx fixture
	var err error

	fx.dbg, err = debugfile.Parse(factDbg, "/src")
	test.DemandSuccess(t, err)
	mf, err := mapfile.Parse(factMap)
	test.DemandSuccess(t, err)

	fx.f, err = monitortest.NewFake()
	test.DemandSuccess(t, err)
	t.Cleanup(func() { fx.f.Close() })

	for a, b := range factCode {
		fx.f.SetMemory(a, b)
	}

	fx.g = grip.NewGrip(&grip.Vice{})
	test.DemandSuccess(t, fx.g.Connect(timeout(t), fx.f.Port()))
	t.Cleanup(func() { fx.g.Disconnect() })

	fx.m = callstack.NewManager(fx.g, fx.dbg, mf)

	// every hit of a tracing checkpoint is given to the manager
	_, err = fx.g.Subscribe(transport.CheckpointHit, func(e transport.Event) {
		ci := e.Response.(*monitor.CheckpointInfo)
		start := int(ci.Start)
		fx.m.AddFrame(ci, func() *debugfile.Line {
			return fx.dbg.LineFromAddress(start)
		})
	})
	test.DemandSuccess(t, err)

	fx.f.SetTrace([]monitortest.Step{
		{PC: 0x1000}, {PC: 0x1010}, {PC: 0x1011}, {PC: 0x1010}, {PC: 0x1011}, {PC: 0x1010},
		{PC: 0x1014}, {PC: 0x1014}, {PC: 0x1014}, {PC: 0x1003}, {PC: 0x2000},
	})

	ctx := timeout(t)
	test.DemandSuccess(t, fx.m.Reset(ctx, 0x1000, fx.dbg.LineFromAddress(0x1000)))

	return fx
}

// run until the next stop and return the depth of the stack
func (fx fixture) run(t *testing.T) int {
	t.Helper()
	ctx := timeout(t)
	w, err := fx.g.ExpectStop()
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, fx.g.Exit(ctx))
	_, err = w.Wait(ctx)
	test.DemandSuccess(t, err)
	fx.m.Flush()
	return len(fx.m.Frames())
}

func TestStaticAnalysis(t *testing.T) {
	dbg, err := debugfile.Parse(factDbg, "/src")
	test.DemandSuccess(t, err)
	mf, err := mapfile.Parse(factMap)
	test.DemandSuccess(t, err)

	g := dbg.ScopeByName("_g")
	sc := callstack.FindStackChangesForScope(dbg, mf, g, g, factCode[0x1020])
	test.DemandEquality(t, len(sc.Descendants), 1)
	test.ExpectEquality(t, sc.Descendants[0].Name, "_fact")
	test.DemandEquality(t, len(sc.Exits), 1)
	test.ExpectEquality(t, sc.Exits[0].Address, 0x1023)
	test.ExpectEquality(t, len(sc.Calls), 0)

	fact := dbg.ScopeByName("_fact")
	sc = callstack.FindStackChangesForScope(dbg, mf, fact, fact, factCode[0x1010])
	test.ExpectEquality(t, len(sc.Descendants), 0)
	test.DemandEquality(t, len(sc.Exits), 1)
	test.ExpectEquality(t, sc.Exits[0].Address, 0x1014)
	test.DemandEquality(t, len(sc.Calls), 1)
	test.ExpectEquality(t, sc.Calls[0].Address, 0x1011)
	test.ExpectEquality(t, sc.Calls[0].Scope, fact)

	// a truncated JSR is not a call
	sc = callstack.FindStackChangesForScope(dbg, mf, fact, fact, factCode[0x1010][:3])
	test.ExpectEquality(t, len(sc.Calls), 0)
}

func TestRecursion(t *testing.T) {
	fx := setup(t)

	frames := fx.m.Frames()
	test.DemandEquality(t, len(frames), 1)
	test.ExpectEquality(t, frames[0].Scope.Name, "_main")

	stop, err := fx.g.CheckpointSet(timeout(t), monitor.CheckpointSet{
		Start: 0x1010, End: 0x1010, Stop: true, Enabled: true, Operation: monitor.OpExec,
	})
	test.DemandSuccess(t, err)

	var depths []int
	for i := 0; i < 3; i++ {
		depths = append(depths, fx.run(t))
	}

	// the innermost call site is the JSR in the second frame of _fact
	frames = fx.m.Frames()
	test.DemandEquality(t, len(frames), 4)
	test.ExpectEquality(t, frames[2].Line, fx.dbg.LineFromAddress(0x1011))
	test.ExpectEquality(t, frames[3].Line, fx.dbg.LineFromAddress(0x1010))
	test.ExpectEquality(t, frames[0].Line, fx.dbg.LineFromAddress(0x1000))

	stack := fx.m.PrettyStack(0x1010, "/src/fact.c", 7, 0)
	test.DemandEquality(t, len(stack), 5)
	test.ExpectEquality(t, stack[1].Name, "fact")
	test.ExpectEquality(t, stack[3].Line, 8)
	test.ExpectEquality(t, stack[4].Name, "main")
	test.ExpectEquality(t, stack[4].Index, 4)

	test.DemandSuccess(t, fx.g.CheckpointDelete(timeout(t), stop.ID))
	_, err = fx.g.CheckpointSet(timeout(t), monitor.CheckpointSet{
		Start: 0x1014, End: 0x1014, Stop: true, Enabled: true, Operation: monitor.OpExec,
	})
	test.DemandSuccess(t, err)

	for i := 0; i < 3; i++ {
		depths = append(depths, fx.run(t))
	}

	expected := []int{2, 3, 4, 3, 2, 1}
	test.DemandEquality(t, len(depths), len(expected))
	for i := range expected {
		test.ExpectEquality(t, depths[i], expected[i], i)
	}
}

func TestRecursionSingleFlush(t *testing.T) {
	fx := setup(t)

	// stop on the return from main. every call to _fact and every return from
	// it is queued before the stack is flushed
	_, err := fx.g.CheckpointSet(timeout(t), monitor.CheckpointSet{
		Start: 0x1003, End: 0x1003, Stop: true, Enabled: true, Operation: monitor.OpExec,
	})
	test.DemandSuccess(t, err)

	// each start of _fact is matched with its own return so no frame for
	// _fact survives. the return from main removes the last frame
	test.ExpectEquality(t, fx.run(t), 0)
	for _, fr := range fx.m.Frames() {
		test.ExpectInequality(t, fr.Scope.Name, "_fact")
	}
	test.ExpectEquality(t, len(fx.m.PrettyStack(0x1003, "/src/fact.c", 3, 0)), 1)
}

func TestReturnToLastStackFrame(t *testing.T) {
	fx := setup(t)
	ctx := timeout(t)

	// there is no caller for main
	ok, err := fx.m.ReturnToLastStackFrame(ctx)
	test.ExpectSuccess(t, err)
	test.ExpectFailure(t, ok)

	stop, err := fx.g.CheckpointSet(ctx, monitor.CheckpointSet{
		Start: 0x1010, End: 0x1010, Stop: true, Enabled: true, Operation: monitor.OpExec,
	})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, fx.run(t), 2)

	// the checkpoint on _fact is disabled while returning so the recursive
	// calls don't stop the emulation
	ok, err = fx.m.ReturnToLastStackFrame(ctx)
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, fx.f.Register(monitortest.RegPC), uint16(0x1003))

	// the user's checkpoint was re-enabled and the temporary one is gone
	var found bool
	for _, ci := range fx.f.Checkpoints() {
		if ci.ID == stop.ID {
			found = true
			test.ExpectSuccess(t, ci.Enabled)
		}
		test.ExpectEquality(t, ci.End, ci.Start)
	}
	test.ExpectSuccess(t, found)
}

func TestExitAddressesAndCleanup(t *testing.T) {
	fx := setup(t)
	ctx := timeout(t)

	exits, err := fx.m.ExitAddresses(ctx)
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(exits), 1)
	test.ExpectEquality(t, exits[0], 0x1003)

	test.ExpectInequality(t, len(fx.f.Checkpoints()), 0)

	// frame breaks are disabled until they're needed
	err = fx.m.WithFrameBreaksEnabled(ctx, func() error {
		var n int
		for _, ci := range fx.f.Checkpoints() {
			if ci.Stop && ci.Enabled {
				n++
			}
		}
		test.ExpectEquality(t, n, 3)
		return nil
	})
	test.ExpectSuccess(t, err)
	for _, ci := range fx.f.Checkpoints() {
		test.ExpectFailure(t, ci.Stop && ci.Enabled)
	}

	test.ExpectSuccess(t, fx.m.Cleanup(ctx))
	test.ExpectEquality(t, len(fx.f.Checkpoints()), 0)
}
