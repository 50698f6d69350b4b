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
	"path/filepath"
	"strings"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/debugger/govern"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
)

// Breakpoint is a user breakpoint on a source line.
type Breakpoint struct {
	ID int

	// the file as given by the user and the zero based line number. once
	// verified the line is the one the breakpoint was placed on
	File string
	Line int

	Condition  string
	LogMessage string

	// the breakpoint has a checkpoint in the emulator
	Verified   bool
	Checkpoint uint32

	line *debugfile.Line
}

func (bp Breakpoint) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("#%d %s:%d", bp.ID, filepath.Base(bp.File), bp.Line+1))
	if bp.line != nil && bp.line.Span != nil {
		s.WriteString(fmt.Sprintf(" ($%04x)", bp.line.Span.AbsoluteAddress))
	}
	if !bp.Verified {
		s.WriteString(" unverified")
	}
	if bp.Condition != "" {
		s.WriteString(fmt.Sprintf(" if %s", bp.Condition))
	}
	if bp.LogMessage != "" {
		s.WriteString(fmt.Sprintf(" log %q", bp.LogMessage))
	}
	return s.String()
}

// BreakpointSpec describes a breakpoint to be set. The line number is zero
// based.
type BreakpointSpec struct {
	Line       int
	Condition  string
	LogMessage string
}

// Breakpoints returns a copy of every breakpoint.
func (d *Debugger) Breakpoints() []Breakpoint {
	d.crit.Lock()
	defer d.crit.Unlock()

	l := make([]Breakpoint, 0, len(d.breakpoints))
	for _, bp := range d.breakpoints {
		l = append(l, *bp)
	}
	return l
}

// SetBreakpoint adds breakpoints to the file. The breakpoints are verified
// immediately if the emulator is running the program. Otherwise they are
// verified once the program has started. Breakpoints can be set before
// Load().
func (d *Debugger) SetBreakpoint(ctx context.Context, file string, specs ...BreakpointSpec) ([]Breakpoint, error) {
	d.op.Lock()
	defer d.op.Unlock()

	if d.State() == govern.Terminated {
		return nil, curated.Errorf(SessionEnded)
	}

	added := make([]*Breakpoint, 0, len(specs))

	d.crit.Lock()
	for _, s := range specs {
		d.nextBreakpoint++
		bp := &Breakpoint{
			ID:         d.nextBreakpoint,
			File:       file,
			Line:       s.Line,
			Condition:  s.Condition,
			LogMessage: s.LogMessage,
		}
		d.breakpoints = append(d.breakpoints, bp)
		added = append(added, bp)
	}
	d.crit.Unlock()

	if d.connected() && d.State() != govern.Starting {
		err := d.grip.Lock(ctx, func() error {
			return d.verify(ctx)
		})
		if err != nil {
			return nil, err
		}
	}

	d.crit.Lock()
	defer d.crit.Unlock()
	l := make([]Breakpoint, 0, len(added))
	for _, bp := range added {
		l = append(l, *bp)
	}
	return l, nil
}

// VerifyBreakpoints places a checkpoint for every unverified breakpoint that
// can be resolved to a source line. Verified breakpoints are left as they are
// so calling VerifyBreakpoints more than once is safe.
func (d *Debugger) VerifyBreakpoints(ctx context.Context) error {
	return d.userOp(ctx, func() error {
		return d.verify(ctx)
	})
}

// verify is the lockless implementation of VerifyBreakpoints
func (d *Debugger) verify(ctx context.Context) error {
	d.crit.Lock()
	dbg := d.dbg
	var pending []*Breakpoint
	var cps []monitor.CheckpointSet
	for _, bp := range d.breakpoints {
		if bp.Verified || dbg == nil {
			continue
		}
		ln := dbg.FindLine(bp.File, bp.Line)
		if ln == nil || ln.Span == nil {
			continue
		}
		bp.line = ln
		address := uint16(ln.Span.AbsoluteAddress)
		pending = append(pending, bp)
		cps = append(cps, monitor.CheckpointSet{
			Start:     address,
			End:       address,
			Stop:      true,
			Enabled:   true,
			Operation: monitor.OpExec,
		})
	}
	d.crit.Unlock()

	if len(pending) == 0 {
		return nil
	}

	var infos []*monitor.CheckpointInfo
	err := d.silenced(ctx, func() error {
		if err := d.grip.Ping(ctx); err != nil {
			return err
		}
		var err error
		infos, err = d.grip.CheckpointSetBatch(ctx, cps)
		return err
	})
	if err != nil {
		return err
	}

	d.crit.Lock()
	for i, bp := range pending {
		bp.Verified = true
		bp.Checkpoint = infos[i].ID
		bp.Line = bp.line.Num
	}
	d.crit.Unlock()

	for _, bp := range pending {
		logger.Logf(logger.Allow, "debugger", "breakpoint %s", bp)
		d.emit(Event{Kind: BreakpointValidated, Breakpoint: *bp})
	}

	return nil
}

// ClearBreakpoints removes every breakpoint in the file.
func (d *Debugger) ClearBreakpoints(ctx context.Context, file string) error {
	d.op.Lock()
	defer d.op.Unlock()

	var ids []uint32
	seen := make(map[uint32]bool)

	d.crit.Lock()
	keep := d.breakpoints[:0]
	for _, bp := range d.breakpoints {
		if !sameFile(bp.File, file) {
			keep = append(keep, bp)
			continue
		}
		if bp.Verified && bp.Checkpoint > 0 && !seen[bp.Checkpoint] {
			seen[bp.Checkpoint] = true
			ids = append(ids, bp.Checkpoint)
		}
	}
	for i := len(keep); i < len(d.breakpoints); i++ {
		d.breakpoints[i] = nil
	}
	d.breakpoints = keep
	d.crit.Unlock()

	if len(ids) == 0 || !d.connected() || d.State() == govern.Terminated {
		return nil
	}

	return d.grip.Lock(ctx, func() error {
		return d.silenced(ctx, func() error {
			if err := d.grip.Ping(ctx); err != nil {
				return err
			}
			return d.grip.CheckpointDelete(ctx, ids...)
		})
	})
}

// unverifyBreakpoints deletes the checkpoints of every verified breakpoint.
// the breakpoints are kept and can be verified again
func (d *Debugger) unverifyBreakpoints(ctx context.Context) error {
	var ids []uint32
	seen := make(map[uint32]bool)

	d.crit.Lock()
	for _, bp := range d.breakpoints {
		if bp.Verified && bp.Checkpoint > 0 && !seen[bp.Checkpoint] {
			seen[bp.Checkpoint] = true
			ids = append(ids, bp.Checkpoint)
		}
		bp.Verified = false
		bp.Checkpoint = 0
		bp.line = nil
	}
	d.crit.Unlock()

	if len(ids) == 0 {
		return nil
	}
	return d.grip.CheckpointDelete(ctx, ids...)
}
