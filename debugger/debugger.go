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


package debugger

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jetsetilly/cc65dbg/callstack"
	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/debugger/govern"
	"github.com/jetsetilly/cc65dbg/grip"
	"github.com/jetsetilly/cc65dbg/launch"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/mapfile"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/telemetry"
	"github.com/jetsetilly/cc65dbg/transport"
	"github.com/jetsetilly/cc65dbg/variables"
)

// Sentinel error patterns.
const (
	NotLoaded     = "debugger: no program has been loaded"
	NotConnected  = "debugger: not connected to an emulator"
	SessionEnded  = "debugger: the session has ended"
	CannotStepOut = "Can't step out here!"
	UnknownAction = "debugger: invalid action %s"
	NoDebugInfo   = "debugger: Could not load debug symbols file from cc65 (%v). It must have the same name as your program and end in .dbg"
	NoMapInfo     = "debugger: Could not load map file from cc65 (%v). Make sure it's being generated or set the mapFile in the launch configuration"
)

// the longest time spent interpreting a single emulator event
const handleTimeout = 10 * time.Second

// Debugger is the execution controller for one debugging session.
type Debugger struct {
	prefs *Preferences
	emit  func(Event)

	// the launch configuration with the missing values inferred
	cfg launch.Config

	machine machine.Type

	// options that can be overridden by the launch configuration
	runAhead    bool
	stopOnEntry bool
	stopOnExit  bool

	// Launcher is used to start emulator processes. it is given to the Grip
	// when the program is loaded
	Launcher grip.Launcher

	grip  *grip.Grip
	vars  *variables.Manager
	tele  *telemetry.Manager
	types variables.Types

	// the names of the registers by ID and the register metadata. set once
	// the emulator has started and not changed afterwards
	regNames map[uint8]string
	regMeta  *monitor.RegistersAvailableResponse

	// state is an atomic value because it is read from the read goroutine of
	// the connection and by the user interface
	state  atomic.Value // govern.State
	reason atomic.Value // govern.StopReason

	// serialises the event loop and the public operations
	op sync.Mutex

	// crit protects the fields that are accessed from the read goroutine of
	// the connection
	crit        sync.Mutex
	dbg         *debugfile.DebugFile
	mf          *mapfile.Mapfile
	stack       *callstack.Manager
	address     int
	registers   map[string]uint16
	breakpoints []*Breakpoint

	// the ID given to the next breakpoint
	nextBreakpoint int

	// events are not interpreted while set. used during run-ahead
	ignoreEvents atomic.Bool

	// count of stop events and of hits of stopping checkpoints
	stops atomic.Uint64
	hits  atomic.Uint64

	// stop events with a sequence number at or below consumed have been
	// dealt with by an operation. only accessed by the holder of op
	consumed uint64

	queue eventQueue
	subs  []transport.Subscription

	// the checkpoints guarding the end of the program and the code segment.
	// zero if there is no code segment guard
	exitGuards   []uint32
	codeSegGuard uint32
	entryGuard   uint32

	// the breakpoint hit most recently. the hit is reported before the stop
	userBreak *Breakpoint

	// the program has reached an exit guard with stopOnExit set. the
	// session ends when the emulator next resumes
	exitQueued bool

	// the event loop
	cancel context.CancelFunc
	done   chan struct{}
	ticker *time.Timer

	watcher *watcher
}

// NewDebugger is the preferred method of initialisation for the Debugger
// type. The emit function receives every Event. It must not block and it must
// not call the Debugger.
func NewDebugger(prefs *Preferences, emit func(Event)) *Debugger {
	if emit == nil {
		emit = func(Event) {}
	}

	d := &Debugger{
		prefs:     prefs,
		emit:      emit,
		Launcher:  grip.ExecLauncher,
		registers: make(map[string]uint16),
	}
	d.state.Store(govern.Starting)
	d.reason.Store(govern.NoReason)
	d.queue.signal = make(chan struct{}, 1)
	d.resetRegisters()

	return d
}

// State returns the current state of the session.
func (d *Debugger) State() govern.State {
	return d.state.Load().(govern.State)
}

// Reason returns the reason for the most recent stop.
func (d *Debugger) Reason() govern.StopReason {
	return d.reason.Load().(govern.StopReason)
}

// Machine returns the type of the machine being debugged.
func (d *Debugger) Machine() machine.Type {
	return d.machine
}

// Config returns the launch configuration.
func (d *Debugger) Config() launch.Config {
	return d.cfg
}

// DebugInfo returns the debug information of the program. Returns nil if no
// program has been loaded.
func (d *Debugger) DebugInfo() *debugfile.DebugFile {
	d.crit.Lock()
	defer d.crit.Unlock()
	return d.dbg
}

// Grip returns the Grip controlling the emulator. Returns nil if no program
// has been loaded.
func (d *Debugger) Grip() *grip.Grip {
	return d.grip
}

// setState changes the state if the transition is allowed.
func (d *Debugger) setState(s govern.State) bool {
	for {
		cur := d.state.Load().(govern.State)
		if !govern.Transition(cur, s) {
			return false
		}
		if d.state.CompareAndSwap(cur, s) {
			return true
		}
	}
}

// follow the state of the emulator. the state is not changed during startup
// or once the session has ended
func (d *Debugger) follow(s govern.State) {
	for {
		cur := d.state.Load().(govern.State)
		if cur != govern.Running && cur != govern.Stopped {
			return
		}
		if d.state.CompareAndSwap(cur, s) {
			return
		}
	}
}

func (d *Debugger) message(level MessageLevel, text string, actions ...string) {
	logger.Logf(logger.Allow, "debugger", "%s: %s", level, text)
	d.emit(Event{Kind: Message, Level: level, Text: text, Actions: actions})
}

func (d *Debugger) resetRegisters() {
	d.crit.Lock()
	defer d.crit.Unlock()
	for _, r := range []string{"a", "x", "y", "sp", "lin"} {
		d.registers[r] = 0xff
	}
	d.registers["pc"] = 0xffff
}

func (d *Debugger) register(name string) uint16 {
	d.crit.Lock()
	defer d.crit.Unlock()
	return d.registers[name]
}

func (d *Debugger) currentAddress() int {
	d.crit.Lock()
	defer d.crit.Unlock()
	return d.address
}

func (d *Debugger) setAddress(address int) {
	d.crit.Lock()
	defer d.crit.Unlock()
	d.address = address
}

func (d *Debugger) callstack() *callstack.Manager {
	d.crit.Lock()
	defer d.crit.Unlock()
	return d.stack
}

// Load the program described by the launch configuration. Missing file names
// are inferred. The debug file, map file and type tables are read
// concurrently.
func (d *Debugger) Load(ctx context.Context, cfg launch.Config) error {
	d.op.Lock()
	defer d.op.Unlock()

	if d.State() != govern.Starting {
		return curated.Errorf(SessionEnded)
	}

	if err := cfg.CheckProgramType(); err != nil {
		return err
	}
	if err := cfg.Infer(); err != nil {
		return err
	}
	d.cfg = cfg

	var dbg *debugfile.DebugFile
	var mf *mapfile.Mapfile
	var tabs []*variables.TableFile
	var tabErr error

	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		dbg, err = debugfile.Load(cfg.DebugFile, cfg.BuildDir)
		if err != nil {
			return curated.Errorf(NoDebugInfo, err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		mf, err = mapfile.Load(cfg.MapFile)
		if err != nil {
			return curated.Errorf(NoMapInfo, err)
		}
		return nil
	})
	eg.Go(func() error {
		tabs, tabErr = variables.LoadTableFiles(cfg.BuildDir)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	return d.prepare(cfg, dbg, mf, tabs, tabErr)
}

// prepare the session for the debug information. the debugger is not
// connected to an emulator yet
func (d *Debugger) prepare(cfg launch.Config, dbg *debugfile.DebugFile, mf *mapfile.Mapfile, tabs []*variables.TableFile, tabErr error) error {
	d.cfg = cfg

	if len(dbg.CSyms) == 0 {
		d.message(Error, "csyms are missing from your debug file. Did you add the -g switch to your linker and compiler? (CFLAGS and LDFLAGS at the top of the standard cc65 Makefile)")
	}

	d.machine = cfg.Machine
	if d.machine == machine.Unknown {
		d.machine = dbg.MachineType
	}
	if d.machine == machine.Unknown {
		d.machine = machine.C64
	}
	logger.Logf(logger.Allow, "debugger", "%s program. entry address $%04x", d.machine, dbg.EntryAddress)

	d.runAhead = d.prefs.RunAhead.Get().(bool)
	if cfg.RunAhead != nil {
		d.runAhead = *cfg.RunAhead
	}
	d.stopOnEntry = d.prefs.StopOnEntry.Get().(bool)
	if cfg.StopOnEntry != nil {
		d.stopOnEntry = *cfg.StopOnEntry
	}
	d.stopOnExit = d.prefs.StopOnExit.Get().(bool)
	if cfg.StopOnExit != nil {
		d.stopOnExit = *cfg.StopOnExit
	}

	switch d.machine {
	case machine.Apple2:
		d.message(Warning, "Apple2 support is not finished yet!")
	case machine.NES:
	default:
		d.message(Warning, "To avoid problems, make sure you're using VICE 3.6 or later.")
	}

	// run-ahead can't step through the serial routine of machines without a
	// known resume address
	if _, ok := d.machine.SerialRoutine(); !ok {
		d.runAhead = false
	}

	d.grip = grip.NewGrip(grip.NewFamily(d.machine))
	d.grip.Launcher = d.Launcher

	d.crit.Lock()
	d.dbg = dbg
	d.mf = mf
	d.stack = callstack.NewManager(d.grip, dbg, mf)
	d.crit.Unlock()

	d.resetRegisters()

	d.vars = variables.NewManager(d.grip, dbg)
	switch {
	case tabErr != nil:
		d.message(Warning, tabErr.Error())
	case len(tabs) == 0:
		d.message(Warning, "No .tab files found. Compile with the -T switch for type information.")
	}
	d.types = variables.NewTypes(tabs)
	d.vars.SetTypes(d.types)

	d.tele = telemetry.NewManager(d.grip, d.machine, func(ev telemetry.Event) {
		d.emit(Event{Kind: Telemetry, Telemetry: &ev})
	})

	return nil
}

// EnableTelemetry turns the publishing of Telemetry events on or off.
func (d *Debugger) EnableTelemetry(enable bool) error {
	if d.tele == nil {
		return curated.Errorf(NotLoaded)
	}
	d.tele.Enable(enable)
	return nil
}

// lineFromAddress returns the source line for the address. The line of a
// verified breakpoint at exactly that address is preferred.
func (d *Debugger) lineFromAddress(address int) *debugfile.Line {
	d.crit.Lock()
	defer d.crit.Unlock()

	for _, bp := range d.breakpoints {
		if bp.line != nil && bp.line.Span != nil && bp.line.Span.AbsoluteAddress == address {
			return bp.line
		}
	}

	if d.dbg == nil {
		return nil
	}
	return d.dbg.LineFromAddress(address)
}

func (d *Debugger) currentLine() *debugfile.Line {
	return d.lineFromAddress(d.currentAddress())
}

// the scope containing the line
func (d *Debugger) scopeOf(ln *debugfile.Line) *debugfile.Scope {
	if ln == nil || ln.Span == nil {
		return nil
	}
	return d.dbg.ScopeFromAddress(ln.Span.AbsoluteAddress)
}

func (d *Debugger) currentScope() *debugfile.Scope {
	return d.scopeOf(d.currentLine())
}

// Position returns the current position in the program.
func (d *Debugger) Position() Position {
	p := Position{Address: d.currentAddress(), Line: -1}
	if ln := d.lineFromAddress(p.Address); ln != nil {
		p.Line = ln.Num
		if ln.File != nil {
			p.File = ln.File.Name
		}
	}
	return p
}

// sameFile returns true if the two names refer to the same source file. One
// of the names may be a suffix of the other.
func sameFile(a string, b string) bool {
	a = filepath.Clean(a)
	b = filepath.Clean(b)
	if a == b {
		return true
	}
	sep := string(filepath.Separator)
	return len(a) > len(b) && a[len(a)-len(b)-1:] == sep+b ||
		len(b) > len(a) && b[len(b)-len(a)-1:] == sep+a
}
