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

	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/debugger/govern"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
)

// Continue resumes the emulation.
func (d *Debugger) Continue(ctx context.Context) error {
	return d.userOp(ctx, func() error {
		starting := d.State() == govern.Starting
		d.consumeStops()
		if err := d.resume(ctx); err != nil {
			return err
		}
		if !starting {
			d.emit(Event{Kind: Continued, Position: d.Position()})
		}
		return nil
	})
}

// Next runs to the next line of the current function, stepping over calls to
// other functions.
func (d *Debugger) Next(ctx context.Context) error {
	return d.userOp(ctx, func() error {
		if d.State() == govern.Running {
			return nil
		}

		if err := d.next(ctx); err != nil {
			return err
		}

		d.consumeStops()
		d.runAheadUpdate(ctx)
		d.stop(StopOnStep, govern.Step)
		return nil
	})
}

func (d *Debugger) next(ctx context.Context) error {
	cur := d.currentLine()
	nxt := d.nextLine(cur)

	if cur == nil || nxt == nil || isAssembly(cur) {
		return d.advance(ctx, true)
	}

	if d.scopeOf(nxt) != d.scopeOf(cur) {
		_, err := d.stepOut(ctx)
		return err
	}

	guard, err := d.setLineGuard(ctx, cur, nxt)
	if err != nil {
		return err
	}

	if len(guard) == 0 {
		address := uint16(nxt.Span.AbsoluteAddress)
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
		_, err = d.exitAndWait(ctx)
		return err
	}

	_, err = d.exitAndWait(ctx)
	if derr := d.grip.CheckpointDelete(ctx, guard...); derr != nil && err == nil {
		err = derr
	}
	return err
}

// StepIn runs to the next line, stepping into calls to other functions.
func (d *Debugger) StepIn(ctx context.Context) error {
	return d.userOp(ctx, func() error {
		if d.State() == govern.Running {
			return nil
		}
		if d.dbg.CodeSeg == nil {
			return nil
		}

		if err := d.stepIn(ctx); err != nil {
			return err
		}

		d.consumeStops()
		d.runAheadUpdate(ctx)
		d.stop(StopOnStep, govern.Step)
		return nil
	})
}

func (d *Debugger) stepIn(ctx context.Context) error {
	cur := d.currentLine()
	if cur == nil || isAssembly(cur) {
		return d.advance(ctx, false)
	}

	return d.callstack().WithFrameBreaksEnabled(ctx, func() error {
		guard, err := d.setLineGuard(ctx, cur, d.nextLine(cur))
		if err != nil {
			return err
		}
		_, err = d.exitAndWait(ctx)
		if len(guard) > 0 {
			if derr := d.grip.CheckpointDelete(ctx, guard...); derr != nil && err == nil {
				err = derr
			}
		}
		return err
	})
}

// StepOut runs until the current function returns to its caller. If that is
// not possible a warning is sent and the emulator is left where it is.
func (d *Debugger) StepOut(ctx context.Context) error {
	return d.userOp(ctx, func() error {
		if d.State() == govern.Running {
			return nil
		}

		ok, err := d.stepOut(ctx)
		if err != nil {
			return err
		}
		if !ok {
			d.message(Warning, CannotStepOut)
		}

		d.consumeStops()
		d.runAheadUpdate(ctx)
		d.stop(StopOnStep, govern.Step)
		return nil
	})
}

func (d *Debugger) stepOut(ctx context.Context) (bool, error) {
	ok, err := d.callstack().ReturnToLastStackFrame(ctx)
	if err != nil || ok {
		return ok, err
	}

	cur := d.currentLine()
	if cur != nil && !isAssembly(cur) {
		return false, nil
	}

	w, err := d.grip.ExpectStop()
	if err != nil {
		return false, err
	}
	if err := d.grip.ExecuteUntilReturn(ctx); err != nil {
		w.Cancel()
		return false, err
	}
	if _, err := w.Wait(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Pause stops the emulator wherever it is.
func (d *Debugger) Pause(ctx context.Context) error {
	return d.userOp(ctx, func() error {
		if err := d.grip.Ping(ctx); err != nil {
			return err
		}
		d.consumeStops()
		d.runAheadUpdate(ctx)
		d.stop(StopOnStep, govern.Step)
		return nil
	})
}

// advance a single instruction
func (d *Debugger) advance(ctx context.Context, stepOver bool) error {
	w, err := d.grip.ExpectStop()
	if err != nil {
		return err
	}
	if err := d.grip.Advance(ctx, stepOver, 1); err != nil {
		w.Cancel()
		return err
	}
	_, err = w.Wait(ctx)
	return err
}

// nextLine returns the line following the current line in the same file
func (d *Debugger) nextLine(cur *debugfile.Line) *debugfile.Line {
	if cur == nil || cur.File == nil {
		return nil
	}
	for _, ln := range cur.File.Lines {
		if ln.Num > cur.Num && ln.Span != nil {
			return ln
		}
	}
	return nil
}

func isAssembly(ln *debugfile.Line) bool {
	return ln.File != nil && ln.File.Type == debugfile.Assembly
}

// setLineGuard places a stopping checkpoint on every line of the function from
// the next line onwards. returns the IDs of the checkpoints
func (d *Debugger) setLineGuard(ctx context.Context, cur *debugfile.Line, nxt *debugfile.Line) ([]uint32, error) {
	if cur == nil || nxt == nil || cur.Span == nil {
		return nil, nil
	}

	scope := d.scopeOf(cur)
	if scope == nil || scope.CodeSpan == nil {
		return nil, nil
	}

	seen := make(map[int]bool)
	var cps []monitor.CheckpointSet
	for _, ln := range scope.CodeSpan.Lines {
		if ln.File != cur.File || ln.Span == nil || ln.Num < nxt.Num {
			continue
		}
		a := ln.Span.AbsoluteAddress
		if seen[a] {
			continue
		}
		seen[a] = true
		cps = append(cps, monitor.CheckpointSet{
			Start:     uint16(a),
			End:       uint16(a),
			Stop:      true,
			Enabled:   true,
			Operation: monitor.OpExec,
		})
	}

	if len(cps) == 0 {
		return nil, nil
	}

	infos, err := d.grip.CheckpointSetBatch(ctx, cps)
	if err != nil {
		return nil, err
	}
	logger.Logf(logger.Allow, "debugger", "line guard of %d checkpoints", len(infos))

	ids := make([]uint32, 0, len(infos))
	for _, ci := range infos {
		ids = append(ids, ci.ID)
	}
	return ids, nil
}
