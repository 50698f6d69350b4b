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

package callstack

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/grip"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/mapfile"
	"github.com/jetsetilly/cc65dbg/monitor"
)

// the number of checkpoint hits that can be queued before the queue is
// flushed
const queueLength = 1000

// Emulator is the part of the grip.Grip API used by the Manager.
type Emulator interface {
	MemoryGet(ctx context.Context, address uint16, length int, bank uint16) ([]byte, error)
	CheckpointSet(ctx context.Context, cp monitor.CheckpointSet) (*monitor.CheckpointInfo, error)
	CheckpointSetBatch(ctx context.Context, cps []monitor.CheckpointSet) ([]*monitor.CheckpointInfo, error)
	CheckpointDelete(ctx context.Context, ids ...uint32) error
	CheckpointToggle(ctx context.Context, enabled bool, ids ...uint32) error
	WithAllBreaksDisabled(ctx context.Context, f func() error) error
	ExpectStopAt(start, end uint16, continueIfUnmatched bool) (*grip.StopWaiter, error)
	Exit(ctx context.Context) error
}

// Frame is a single entry in the reconstructed call stack.
type Frame struct {
	Scope *debugfile.Scope

	// for the top frame this is the line at which the function was entered.
	// for every other frame it is the line of the call to the next frame
	Line *debugfile.Line
}

// LineFunc returns the source line of a checkpoint hit. It is called when the
// hit is interpreted, not when the hit happens.
type LineFunc func() *debugfile.Line

type queued struct {
	id      uint32
	address int
	line    LineFunc
}

// Manager reconstructs the call stack.
type Manager struct {
	emu Emulator
	dbg *debugfile.DebugFile
	mf  *mapfile.Mapfile

	crit sync.Mutex

	// checkpoint IDs of the tracing checkpoints. the scope is the scope that
	// is started, ended or called
	starts map[uint32]*debugfile.Scope
	ends   map[uint32]*debugfile.Scope
	calls  map[uint32]*debugfile.Scope

	// checkpoint IDs of the disabled stopping checkpoints on each scope start
	breaks []uint32

	frames []Frame

	queue [queueLength]queued
	count int

	// address of the top of the hardware stack. zero if it is not known
	cpuStackTop int
}

// NewManager is the preferred method of initialisation for the Manager type.
// The map file can be nil.
func NewManager(emu Emulator, dbg *debugfile.DebugFile, mf *mapfile.Mapfile) *Manager {
	return &Manager{
		emu:    emu,
		dbg:    dbg,
		mf:     mf,
		starts: make(map[uint32]*debugfile.Scope),
		ends:   make(map[uint32]*debugfile.Scope),
		calls:  make(map[uint32]*debugfile.Scope),
	}
}

// Reset analyses the program and installs the tracing checkpoints. Any
// existing frames are forgotten. If the current address is the start of a
// scope then the stack begins with that scope.
//
// Checkpoints installed by a previous call to Reset() should be removed with
// Cleanup() first.
func (m *Manager) Reset(ctx context.Context, currentAddress int, currentLine *debugfile.Line) error {
	m.crit.Lock()
	m.starts = make(map[uint32]*debugfile.Scope)
	m.ends = make(map[uint32]*debugfile.Scope)
	m.calls = make(map[uint32]*debugfile.Scope)
	m.breaks = m.breaks[:0]
	m.frames = m.frames[:0]
	m.count = 0
	m.crit.Unlock()

	seg := m.dbg.CodeSeg
	if seg == nil {
		return nil
	}

	code, err := m.emu.MemoryGet(ctx, uint16(seg.Start), seg.Size, 0)
	if err != nil {
		return err
	}

	var starts, ends, calls []ScopeAddress
	for _, sc := range m.dbg.Scopes {
		fr, ok := framesForScope(m.dbg, m.mf, sc, sc, code, make(map[*debugfile.Scope]bool))
		if !ok {
			continue
		}
		starts = append(starts, fr.starts...)
		ends = append(ends, fr.ends...)
		calls = append(calls, fr.calls...)
	}

	trace := func(addresses []ScopeAddress, stop bool) []monitor.CheckpointSet {
		cps := make([]monitor.CheckpointSet, len(addresses))
		for i, a := range addresses {
			cps[i] = monitor.CheckpointSet{
				Start:     uint16(a.Address),
				End:       uint16(a.Address),
				Stop:      stop,
				Enabled:   !stop,
				Operation: monitor.OpExec,
			}
		}
		return cps
	}

	// one batch for every checkpoint. the replies are in the same order
	var cps []monitor.CheckpointSet
	cps = append(cps, trace(starts, false)...)
	cps = append(cps, trace(ends, false)...)
	cps = append(cps, trace(calls, false)...)
	cps = append(cps, trace(starts, true)...)

	infos, err := m.emu.CheckpointSetBatch(ctx, cps)
	if err != nil {
		return err
	}

	m.crit.Lock()

	var current *monitor.CheckpointInfo

	i := 0
	for _, a := range starts {
		m.starts[infos[i].ID] = a.Scope
		if a.Address == currentAddress && current == nil {
			current = infos[i]
		}
		i++
	}
	for _, a := range ends {
		m.ends[infos[i].ID] = a.Scope
		i++
	}
	for _, a := range calls {
		m.calls[infos[i].ID] = a.Scope
		i++
	}
	for range starts {
		m.breaks = append(m.breaks, infos[i].ID)
		i++
	}

	m.crit.Unlock()

	logger.Logf(logger.Allow, "callstack", "%d starts, %d ends, %d calls", len(starts), len(ends), len(calls))

	if current != nil {
		m.AddFrame(current, func() *debugfile.Line { return currentLine })
		m.Flush()
	}

	return nil
}

// AddFrame queues a checkpoint hit. Hits of stopping checkpoints and of
// checkpoints that are not execution checkpoints are ignored. The queue is
// flushed if it is full.
//
// The CheckpointInfo is not retained and it is safe to call AddFrame() from
// a transport subscriber.
func (m *Manager) AddFrame(ci *monitor.CheckpointInfo, line LineFunc) {
	if ci.Stop || ci.Operation != monitor.OpExec {
		return
	}

	m.crit.Lock()
	defer m.crit.Unlock()

	m.queue[m.count] = queued{
		id:      ci.ID,
		address: int(ci.Start),
		line:    line,
	}
	m.count++

	if m.count == len(m.queue) {
		m.flush()
	}
}

// Flush interprets every queued checkpoint hit.
func (m *Manager) Flush() {
	m.crit.Lock()
	defer m.crit.Unlock()
	m.flush()
}

func (m *Manager) flush() {
	for f := 0; f < m.count; f++ {
		item := &m.queue[f]
		if item.line == nil {
			continue
		}

		if scope, ok := m.starts[item.id]; ok {
			// if the function is returned from later in the queue then it
			// doesn't get a frame. calls to the same function in between are
			// matched with their own returns
			nesting := 1
			returned := false
			for e := f + 1; e < m.count && !returned; e++ {
				end := &m.queue[e]
				if end.line == nil {
					continue
				}
				if m.starts[end.id] == scope {
					nesting++
					continue
				}
				if m.ends[end.id] == scope {
					nesting--
					if nesting == 0 {
						*end = queued{}
						returned = true
					}
				}
			}
			if !returned {
				m.frames = append(m.frames, Frame{Scope: scope, Line: item.line()})
			}

		} else if scope, ok := m.ends[item.id]; ok {
			for i := len(m.frames) - 1; i >= 0; i-- {
				if m.frames[i].Scope.ID == scope.ID {
					m.frames = append(m.frames[:i], m.frames[i+1:]...)
					break
				}
			}

		} else if _, ok := m.calls[item.id]; ok {
			for i := len(m.frames) - 1; i >= 0; i-- {
				cs := m.frames[i].Scope.CodeSpan
				if cs != nil && cs.Contains(item.address) {
					m.frames[i].Line = item.line()
					m.frames = m.frames[:i+1]
					break
				}
			}
		}
	}

	for f := 0; f < m.count; f++ {
		m.queue[f] = queued{}
	}
	m.count = 0
}

// Frames returns a copy of the reconstructed stack, the outermost frame
// first. Queued hits are not flushed.
func (m *Manager) Frames() []Frame {
	m.crit.Lock()
	defer m.crit.Unlock()
	l := make([]Frame, len(m.frames))
	copy(l, m.frames)
	return l
}

// SetCPUStackTop records the address of the top of the hardware stack. It
// should be 0x100 plus the value of the SP register.
func (m *Manager) SetCPUStackTop(address int) {
	m.crit.Lock()
	defer m.crit.Unlock()
	m.cpuStackTop = address
}

// ExitAddresses returns the addresses at which the main function returns. If
// main can't be analysed the return address on the hardware stack is used.
func (m *Manager) ExitAddresses(ctx context.Context) ([]int, error) {
	m.crit.Lock()
	top := m.cpuStackTop
	m.crit.Unlock()

	var def []int
	if top != 0 {
		b, err := m.emu.MemoryGet(ctx, uint16(top+1), 2, 0)
		if err != nil {
			return nil, err
		}
		if len(b) == 2 {
			def = append(def, int(binary.LittleEndian.Uint16(b))+1)
		}
	}

	seg := m.dbg.CodeSeg
	if seg == nil || m.dbg.MainScope == nil {
		return def, nil
	}

	code, err := m.emu.MemoryGet(ctx, uint16(seg.Start), seg.Size, 0)
	if err != nil {
		return nil, err
	}

	fr, ok := framesForScope(m.dbg, m.mf, m.dbg.MainScope, m.dbg.MainScope, code, make(map[*debugfile.Scope]bool))
	if !ok {
		return def, nil
	}

	exits := make([]int, 0, len(fr.ends))
	for _, e := range fr.ends {
		exits = append(exits, e.Address)
	}
	return exits, nil
}

func (m *Manager) toggleBreaks(ctx context.Context, enabled bool) error {
	m.crit.Lock()
	ids := append([]uint32{}, m.breaks...)
	m.crit.Unlock()
	return m.emu.CheckpointToggle(ctx, enabled, ids...)
}

// WithFrameBreaksEnabled runs the function with the stopping checkpoints on
// the start of every scope enabled.
func (m *Manager) WithFrameBreaksEnabled(ctx context.Context, f func() error) error {
	if err := m.toggleBreaks(ctx, true); err != nil {
		return err
	}
	ferr := f()
	if err := m.toggleBreaks(ctx, false); err != nil && ferr == nil {
		return err
	}
	return ferr
}

// ReturnToLastStackFrame runs the emulation until execution is back inside
// the calling function. Returns false if there is no calling function.
func (m *Manager) ReturnToLastStackFrame(ctx context.Context) (bool, error) {
	m.Flush()

	m.crit.Lock()
	if len(m.frames) < 2 {
		m.crit.Unlock()
		return false, nil
	}
	caller := m.frames[len(m.frames)-2]
	m.crit.Unlock()

	cs := caller.Scope.CodeSpan
	if cs == nil {
		return false, nil
	}
	begin := uint16(cs.AbsoluteAddress)
	end := uint16(cs.End() - 1)

	err := m.emu.WithAllBreaksDisabled(ctx, func() error {
		brk, err := m.emu.CheckpointSet(ctx, monitor.CheckpointSet{
			Start:     begin,
			End:       end,
			Stop:      true,
			Enabled:   true,
			Operation: monitor.OpExec,
		})
		if err != nil {
			return err
		}

		w, err := m.emu.ExpectStopAt(begin, end, false)
		if err == nil {
			if err = m.emu.Exit(ctx); err == nil {
				_, err = w.Wait(ctx)
			} else {
				w.Cancel()
			}
		}

		if derr := m.emu.CheckpointDelete(ctx, brk.ID); derr != nil && err == nil {
			err = derr
		}
		return err
	})

	return err == nil, err
}

// Cleanup deletes every checkpoint installed by the Manager.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.crit.Lock()
	var ids []uint32
	ids = append(ids, m.breaks...)
	for id := range m.calls {
		ids = append(ids, id)
	}
	for id := range m.starts {
		ids = append(ids, id)
	}
	for id := range m.ends {
		ids = append(ids, id)
	}
	m.breaks = m.breaks[:0]
	m.starts = make(map[uint32]*debugfile.Scope)
	m.ends = make(map[uint32]*debugfile.Scope)
	m.calls = make(map[uint32]*debugfile.Scope)
	m.crit.Unlock()

	return m.emu.CheckpointDelete(ctx, ids...)
}

// Entry is a frame of the stack as presented to the user.
type Entry struct {
	Index int
	Name  string
	File  string

	// zero based line number
	Line int
}

func (e Entry) String() string {
	return fmt.Sprintf("#%d %s %s:%d", e.Index, e.Name, filepath.Base(e.File), e.Line+1)
}

var assemblySource = regexp.MustCompile(`(?i)\.s$`)

// PrettyStack returns the stack for presentation, the innermost frame first.
// The first entry is the current position. If the current position is in an
// assembly file the C line that contains the address is also included.
// Indexing begins at startIndex.
func (m *Manager) PrettyStack(currentAddress int, currentFile string, currentLine int, startIndex int) []Entry {
	var entries []Entry
	i := startIndex

	name := fmt.Sprintf("0x%04x", currentAddress)

	if assemblySource.MatchString(currentFile) {
		for _, ln := range m.dbg.Lines {
			if ln.IsC() && ln.Span != nil && ln.Span.Contains(currentAddress) {
				entries = append(entries, Entry{Index: i, Name: name, File: ln.File.Name, Line: ln.Num})
				i++
				break
			}
		}
	}

	entries = append(entries, Entry{Index: i, Name: name, File: currentFile, Line: currentLine})
	i++

	frames := m.Frames()
	for j := len(frames) - 1; j >= 0; j-- {
		f := frames[j]
		e := Entry{Index: i, Name: strings.TrimPrefix(f.Scope.Name, "_")}
		if f.Line != nil {
			if f.Line.File != nil {
				e.File = f.Line.File.Name
			}
			e.Line = f.Line.Num
		}
		entries = append(entries, e)
		i++
	}

	return entries
}
