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
	"fmt"
	"os"

	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
)

// runAheadUpdate refreshes the user interface and, if enabled, runs the
// emulator one frame ahead before restoring it to its current state
func (d *Debugger) runAheadUpdate(ctx context.Context) {
	if err := d.updateUI(ctx); err != nil {
		logger.Logf(logger.Allow, "runahead", "update: %v", err)
	}
	if !d.runAhead {
		return
	}
	if err := d.runAheadFrame(ctx); err != nil {
		logger.Logf(logger.Allow, "runahead", "%v", err)
	}
}

// run the emulator until the raster line has changed and come back around
// to where it started. the machine state is saved beforehand and restored
// afterwards. stepping stops early at the serial routine of the machine
func (d *Debugger) runAheadFrame(ctx context.Context) error {
	serial, ok := d.machine.SerialRoutine()
	if !ok {
		return nil
	}

	f, err := os.CreateTemp("", "cc65-vice-*")
	if err != nil {
		return err
	}
	dump := f.Name()
	f.Close()
	defer os.Remove(dump)

	if err := d.grip.Dump(ctx, dump); err != nil {
		return err
	}

	lin := d.register("lin")

	d.ignoreEvents.Store(true)
	err = d.grip.WithAllBreaksDisabled(ctx, func() error {
		cps, err := d.grip.CheckpointSetBatch(ctx, []monitor.CheckpointSet{
			{Start: serial, End: serial, Stop: true, Enabled: true, Operation: monitor.OpExec},
			{Start: 0x0000, End: 0xffff, Stop: true, Enabled: true, Operation: monitor.OpExec},
		})
		if err != nil {
			return err
		}
		frame := cps[1].ID
		defer func() {
			if err := d.grip.CheckpointDelete(context.WithoutCancel(ctx), cps[0].ID, frame); err != nil {
				logger.Logf(logger.Allow, "runahead", "delete: %v", err)
			}
		}()

		if err := d.grip.ConditionSet(ctx, frame, fmt.Sprintf("RL != $%x", lin)); err != nil {
			return err
		}
		pc, err := d.exitAndWait(ctx)
		if err != nil {
			return err
		}
		if pc == serial {
			return nil
		}

		if err := d.grip.ConditionSet(ctx, frame, fmt.Sprintf("RL == $%x", lin)); err != nil {
			return err
		}
		_, err = d.exitAndWait(ctx)
		return err
	})
	d.ignoreEvents.Store(false)

	if err == nil && d.tele != nil && d.tele.Enabled() {
		if err := d.tele.UpdateRunAhead(ctx); err != nil {
			logger.Logf(logger.Allow, "runahead", "frame: %v", err)
		}
	}

	pc, uerr := d.grip.Undump(ctx, dump)
	if uerr != nil {
		return uerr
	}
	d.setAddress(int(pc))

	return err
}

// exitAndWait resumes the emulator and waits for the next stop. returns the
// program counter at the stop
func (d *Debugger) exitAndWait(ctx context.Context) (uint16, error) {
	w, err := d.grip.ExpectStop()
	if err != nil {
		return 0, err
	}
	if err := d.grip.Exit(ctx); err != nil {
		w.Cancel()
		return 0, err
	}
	s, err := w.Wait(ctx)
	if err != nil {
		return 0, err
	}
	return s.PC, nil
}
