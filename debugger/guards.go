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

	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
)

// setExitGuard places stopping checkpoints at the addresses where the main
// function returns
func (d *Debugger) setExitGuard(ctx context.Context) error {
	exits, err := d.callstack().ExitAddresses(ctx)
	if err != nil {
		return err
	}
	if len(exits) == 0 {
		logger.Log(logger.Allow, "debugger", "no exit addresses found for the program")
		return nil
	}

	seen := make(map[int]bool)
	var cps []monitor.CheckpointSet
	for _, a := range exits {
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

	infos, err := d.grip.CheckpointSetBatch(ctx, cps)
	if err != nil {
		return err
	}
	for _, ci := range infos {
		d.exitGuards = append(d.exitGuards, ci.ID)
	}

	logger.Logf(logger.Allow, "debugger", "exit guard on %d addresses", len(infos))
	return nil
}

// guardCodeSeg places a stopping checkpoint on writes to the CODE segment
func (d *Debugger) guardCodeSeg(ctx context.Context) error {
	seg := d.dbg.CodeSeg
	if seg == nil || seg.Size == 0 {
		return nil
	}

	ci, err := d.grip.CheckpointSet(ctx, monitor.CheckpointSet{
		Start:     uint16(seg.Start),
		End:       uint16(seg.Start + seg.Size - 1),
		Stop:      true,
		Enabled:   true,
		Operation: monitor.OpStore,
	})
	if err != nil {
		return err
	}
	d.codeSegGuard = ci.ID

	return nil
}

// removeGuards deletes the exit guard and the code segment guard
func (d *Debugger) removeGuards(ctx context.Context) error {
	ids := append([]uint32{}, d.exitGuards...)
	if d.codeSegGuard != 0 {
		ids = append(ids, d.codeSegGuard)
	}
	d.exitGuards = nil
	d.codeSegGuard = 0

	if len(ids) == 0 {
		return nil
	}
	return d.grip.CheckpointDelete(ctx, ids...)
}
