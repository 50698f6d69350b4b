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
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/debugger/govern"
	"github.com/jetsetilly/cc65dbg/disassembly"
	"github.com/jetsetilly/cc65dbg/grip"
	"github.com/jetsetilly/cc65dbg/instructions"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
)

// Autostart is the action offered while waiting for the program to start.
const Autostart = "Autostart"

func (d *Debugger) connected() bool {
	return d.grip != nil && d.grip.Conn() != nil
}

// userOp runs an operation on behalf of the user. Operations are serialised
// with each other and with the handling of emulator events.
func (d *Debugger) userOp(ctx context.Context, f func() error) error {
	d.op.Lock()
	defer d.op.Unlock()

	if d.State() == govern.Terminated {
		return curated.Errorf(SessionEnded)
	}
	if d.grip == nil {
		return curated.Errorf(NotLoaded)
	}
	if !d.connected() {
		return curated.Errorf(NotConnected)
	}

	return d.grip.Lock(ctx, f)
}

// emulatorPath returns the path of the emulator executable. A path in the
// launch configuration is preferred over the preferences. A directory is
// searched for the executable suitable for the machine.
func (d *Debugger) emulatorPath() (string, error) {
	exe := d.cfg.Emulator
	if exe == "" {
		switch d.grip.Family().(type) {
		case *grip.AppleWin:
			exe = d.prefs.AppleWinExecutable.String()
		case *grip.Mesen:
			exe = d.prefs.MesenExecutable.String()
		default:
			exe = d.prefs.ViceDirectory.String()
		}
	}

	if exe != "" {
		st, err := os.Stat(exe)
		if err == nil && !st.IsDir() {
			return exe, nil
		}
	}

	return grip.FindExecutable(d.machine, exe, d.prefs.PreferX64.Get().(bool))
}

// systemDir returns the directory of the emulator's support files
func (d *Debugger) systemDir(exe string) string {
	dir := filepath.Dir(exe)
	switch d.grip.Family().(type) {
	case *grip.Vice:
		data := filepath.Join(dir, "..", "data")
		if st, err := os.Stat(data); err == nil && st.IsDir() {
			return filepath.Clean(data)
		}
		return ""
	case *grip.Mesen:
		return dir
	}
	return ""
}

// Start launches the emulator, autostarts the program and runs it to the
// entry address.
func (d *Debugger) Start(ctx context.Context) error {
	d.op.Lock()
	defer d.op.Unlock()

	if d.grip == nil {
		return curated.Errorf(NotLoaded)
	}
	if d.State() != govern.Starting {
		return curated.Errorf(SessionEnded)
	}

	exe, err := d.emulatorPath()
	if err != nil {
		return err
	}

	opts := grip.StartOptions{
		Port:       d.cfg.Port,
		Dir:        d.cfg.BuildDir,
		Machine:    d.machine,
		Executable: exe,
		Args:       d.cfg.EmulatorArgs,
		LabelFile:  d.cfg.LabelFile,
		SystemDir:  d.systemDir(exe),
		Sound:      d.prefs.ViceSound.Get().(bool),
	}

	start := time.Now()

	if err := d.grip.Start(ctx, opts); err != nil {
		return err
	}

	// some emulators are not connected until the program has been loaded
	if d.connected() {
		if err := d.postEmulatorStart(ctx); err != nil {
			return err
		}
		entry := uint16(d.dbg.EntryAddress)
		w, err := d.grip.ExpectStopAt(entry, entry, true)
		if err != nil {
			return err
		}
		if err := d.grip.Autostart(ctx, d.cfg.Program); err != nil {
			w.Cancel()
			return err
		}
		if _, err := w.Wait(ctx); err != nil {
			return err
		}
	} else {
		if err := d.grip.Autostart(ctx, d.cfg.Program); err != nil {
			return err
		}
		if err := d.postEmulatorStart(ctx); err != nil {
			return err
		}
		entry := uint16(d.dbg.EntryAddress)
		w, err := d.grip.ExpectStopAt(entry, entry, true)
		if err != nil {
			return err
		}
		if err := d.grip.Exit(ctx); err != nil {
			w.Cancel()
			return err
		}
		if _, err := w.Wait(ctx); err != nil {
			return err
		}
	}

	logger.Logf(logger.Allow, "debugger", "emulator started in %v", time.Since(start))

	return d.postFullStart(ctx)
}

// Attach to an emulator that is already running with its binary monitor on
// the port in the launch configuration. If the program has not been loaded
// yet the debugger waits for it.
func (d *Debugger) Attach(ctx context.Context) error {
	d.op.Lock()
	defer d.op.Unlock()

	if d.grip == nil {
		return curated.Errorf(NotLoaded)
	}
	if d.State() != govern.Starting {
		return curated.Errorf(SessionEnded)
	}

	if err := d.grip.Connect(ctx, d.cfg.Port); err != nil {
		return err
	}
	if err := d.postEmulatorStart(ctx); err != nil {
		return err
	}
	if err := d.attachWait(ctx); err != nil {
		return err
	}

	return d.postFullStart(ctx)
}

// postEmulatorStart is called once the debugger is connected to the emulator
func (d *Debugger) postEmulatorStart(ctx context.Context) error {
	meta, err := d.grip.RegistersAvailable(ctx)
	if err != nil {
		return err
	}

	d.crit.Lock()
	d.regMeta = meta
	d.regNames = make(map[uint8]string, len(meta.Registers))
	for _, r := range meta.Registers {
		d.regNames[r.ID] = strings.ToLower(r.Name)
	}
	d.crit.Unlock()

	if err := d.tele.PostEmulatorStart(ctx); err != nil {
		logger.Logf(logger.Allow, "debugger", "telemetry: %v", err)
	}

	if err := d.subscribe(); err != nil {
		return err
	}

	lctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	d.ticker = time.NewTimer(time.Hour)
	d.ticker.Stop()
	go d.loop(lctx, d.grip.Conn())

	entry := uint16(d.dbg.EntryAddress)
	ci, err := d.grip.CheckpointSet(ctx, monitor.CheckpointSet{
		Start:     entry,
		End:       entry,
		Stop:      true,
		Enabled:   true,
		Operation: monitor.OpExec,
	})
	if err != nil {
		return err
	}
	d.entryGuard = ci.ID

	return d.updateUI(ctx)
}

// the scopes checked to see if the program has been loaded
func (d *Debugger) loadScopes() []*debugfile.Scope {
	var l []*debugfile.Scope
	for _, sc := range d.dbg.Scopes {
		if sc.CodeSpan != nil && len(sc.Name) > 0 && sc.Name[0] == '_' && sc.Size > instructions.MaxBytes {
			l = append(l, sc)
		}
	}
	if len(l) <= 1 {
		return l
	}
	first := l[0]
	last := l[len(l)-1]
	if first == last {
		return []*debugfile.Scope{first}
	}
	return []*debugfile.Scope{first, last}
}

// validateLoad returns true if the memory of the scopes contains the code
// described by the debug file
func (d *Debugger) validateLoad(ctx context.Context, scopes []*debugfile.Scope) (bool, error) {
	if d.dbg.CodeSeg == nil {
		return true, nil
	}
	for _, sc := range scopes {
		mem, err := d.grip.MemoryGet(ctx, uint16(sc.CodeSpan.AbsoluteAddress), sc.Size, 0)
		if err != nil {
			return false, err
		}
		if !disassembly.VerifyScope(d.dbg, sc, mem) {
			return false, nil
		}
	}
	return true, nil
}

// attachWait waits for the program to be loaded into the emulator
func (d *Debugger) attachWait(ctx context.Context) error {
	if d.dbg.CodeSeg == nil {
		return nil
	}

	scopes := d.loadScopes()
	ok, err := d.validateLoad(ctx, scopes)
	if err != nil {
		return err
	}

	if !ok {
		var actions []string
		if d.cfg.Program != "" {
			actions = append(actions, Autostart)
		}
		d.message(Information, "Waiting for program to start...", actions...)

		err := d.grip.WithAllBreaksDisabled(ctx, func() error {
			var cps []monitor.CheckpointSet
			for _, sc := range scopes {
				for _, a := range []int{sc.CodeSpan.AbsoluteAddress, sc.CodeSpan.AbsoluteAddress + sc.CodeSpan.Size - 1} {
					cps = append(cps, monitor.CheckpointSet{
						Start:     uint16(a),
						End:       uint16(a),
						Stop:      true,
						Enabled:   true,
						Operation: monitor.OpStore,
					})
				}
			}
			infos, err := d.grip.CheckpointSetBatch(ctx, cps)
			if err != nil {
				return err
			}
			ids := make([]uint32, 0, len(infos))
			for _, ci := range infos {
				ids = append(ids, ci.ID)
			}

			// the store checkpoints are removed however the wait ends. the
			// caller's context may already be cancelled at that point
			defer func() {
				if err := d.grip.CheckpointDelete(context.WithoutCancel(ctx), ids...); err != nil {
					logger.Logf(logger.Allow, "debugger", "delete load checkpoints: %v", err)
				}
			}()

			d.ignoreEvents.Store(true)
			defer d.ignoreEvents.Store(false)

			for {
				if _, err := d.exitAndWait(ctx); err != nil {
					return err
				}
				ok, err := d.validateLoad(ctx, scopes)
				if err != nil {
					return err
				}
				if ok {
					return nil
				}
			}
		})
		if err != nil {
			return err
		}
	}

	if err := d.grip.Exit(ctx); err != nil {
		return err
	}
	if err := d.grip.Ping(ctx); err != nil {
		return err
	}

	d.message(Information, "Program started.")
	return nil
}

// postFullStart is called once the program has reached the entry address
func (d *Debugger) postFullStart(ctx context.Context) error {
	address := d.currentAddress()
	line := d.lineFromAddress(address)
	stack := d.callstack()

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return stack.Reset(gctx, address, line)
	})
	eg.Go(func() error {
		return d.setExitGuard(gctx)
	})
	eg.Go(func() error {
		return d.guardCodeSeg(gctx)
	})
	eg.Go(func() error {
		return d.vars.PostStart(gctx)
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	if d.entryGuard != 0 {
		if err := d.grip.CheckpointDelete(ctx, d.entryGuard); err != nil {
			return err
		}
		d.entryGuard = 0
	}

	if err := d.grip.Ping(ctx); err != nil {
		return err
	}
	d.setState(govern.Stopped)

	if err := d.verify(ctx); err != nil {
		return err
	}

	if d.stopOnEntry {
		if err := d.runToInitComplete(ctx); err != nil {
			logger.Logf(logger.Allow, "debugger", "initialisation: %v", err)
		}
		d.consumeStops()
		d.runAheadUpdate(ctx)
		d.stop(StopOnEntry, govern.Entry)
	} else {
		d.consumeStops()
		if err := d.resume(ctx); err != nil {
			return err
		}
	}

	d.resetTicker()
	d.startWatch()

	d.emit(Event{Kind: Started, Position: d.Position()})
	return nil
}

// hasPrologue returns true if the code calls one of the stack initialisation
// routines
func (d *Debugger) hasPrologue(mem []byte) bool {
	inits := d.mf.Filter(disassembly.StackInitialisation)
	if len(inits) == 0 {
		return false
	}

	_, found := disassembly.OpCodeFind(mem, func(ins disassembly.Instruction) bool {
		if ins.Defn.OpCode != instructions.JSR && ins.Defn.OpCode != instructions.JMP {
			return false
		}
		if ins.Truncated() {
			return false
		}
		for _, e := range inits {
			if e.Address == ins.OperandValue() {
				return true
			}
		}
		return false
	})
	return found
}

// runToInitComplete runs the main function past its prologue
func (d *Debugger) runToInitComplete(ctx context.Context) error {
	main := d.dbg.MainScope
	if main == nil || main.CodeSpan == nil {
		return nil
	}

	mem, err := d.grip.MemoryGet(ctx, uint16(main.CodeSpan.AbsoluteAddress), main.CodeSpan.Size, 0)
	if err != nil {
		return err
	}
	if !d.hasPrologue(mem) {
		return nil
	}

	ln := disassembly.FindInitializationCompleteLine(d.mf, main, mem)
	if ln == nil || ln.Span == nil {
		return nil
	}

	address := uint16(ln.Span.AbsoluteAddress)
	return d.grip.WithAllBreaksDisabled(ctx, func() error {
		_, err := d.grip.CheckpointSet(ctx, monitor.CheckpointSet{
			Start:     address,
			End:       address,
			Stop:      true,
			Enabled:   true,
			Operation: monitor.OpExec,
			Temporary: true,
		})
		if err != nil {
			return err
		}
		w, err := d.grip.ExpectStopAt(address, address, false)
		if err != nil {
			return err
		}
		if err := d.grip.Exit(ctx); err != nil {
			w.Cancel()
			return err
		}
		_, err = w.Wait(ctx)
		return err
	})
}

// Cleanup deletes every checkpoint placed by the debugger.
func (d *Debugger) Cleanup(ctx context.Context) error {
	return d.userOp(ctx, func() error {
		return d.cleanup(ctx)
	})
}

func (d *Debugger) cleanup(ctx context.Context) error {
	var errs []error
	if stack := d.callstack(); stack != nil {
		if err := stack.Cleanup(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.unverifyBreakpoints(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := d.removeGuards(ctx); err != nil {
		errs = append(errs, err)
	}
	if d.entryGuard != 0 {
		if err := d.grip.CheckpointDelete(ctx, d.entryGuard); err != nil {
			errs = append(errs, err)
		}
		d.entryGuard = 0
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Terminate ends the session and closes the emulator.
func (d *Debugger) Terminate(ctx context.Context) error {
	d.op.Lock()
	defer d.op.Unlock()
	return d.terminate(ctx)
}

// terminate is the lockless implementation of Terminate. it is safe to call
// more than once
func (d *Debugger) terminate(ctx context.Context) error {
	if d.State() == govern.Terminated {
		return nil
	}
	d.state.Store(govern.Terminated)
	d.exitQueued = false

	d.stopWatch()
	if d.ticker != nil {
		d.ticker.Stop()
	}

	var err error
	if d.grip != nil {
		d.unsubscribe()
		err = d.grip.Terminate(ctx)
	}
	if d.cancel != nil {
		d.cancel()
	}

	d.emit(Event{Kind: End})
	return err
}

// Disconnect removes the debugger's checkpoints and disconnects, leaving the
// emulator running.
func (d *Debugger) Disconnect(ctx context.Context) error {
	d.op.Lock()
	defer d.op.Unlock()

	if d.State() == govern.Terminated {
		return nil
	}

	var err error
	if d.connected() {
		err = d.grip.Lock(ctx, func() error {
			return d.silenced(ctx, func() error {
				if err := d.grip.Ping(ctx); err != nil {
					return err
				}
				return d.cleanup(ctx)
			})
		})
		if d.State() == govern.Stopped {
			if rerr := d.grip.Exit(ctx); rerr != nil && err == nil {
				err = rerr
			}
		}
	}

	d.state.Store(govern.Terminated)
	d.stopWatch()
	if d.ticker != nil {
		d.ticker.Stop()
	}
	if d.grip != nil {
		d.unsubscribe()
		if derr := d.grip.Disconnect(); derr != nil && err == nil {
			err = derr
		}
	}
	if d.cancel != nil {
		d.cancel()
	}

	d.emit(Event{Kind: End})
	return err
}

// Action performs one of the actions offered by a Message event.
func (d *Debugger) Action(ctx context.Context, action string) error {
	switch action {
	case Autostart:
		if d.cfg.Program == "" {
			return curated.Errorf(UnknownAction, action)
		}
		return d.grip.Autostart(ctx, d.cfg.Program)
	}
	return curated.Errorf(UnknownAction, action)
}
