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
	"sync"

	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/debugger/govern"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/transport"
)

// the maximum number of events waiting to be handled. events are dropped once
// the queue is full
const maxQueuedEvents = 256

// queued is an event waiting for the event loop. the sequence number is only
// meaningful for stop events
type queued struct {
	ev  transport.Event
	seq uint64
}

type eventQueue struct {
	crit   sync.Mutex
	events []queued
	signal chan struct{}
}

func (q *eventQueue) push(e queued) {
	q.crit.Lock()
	if len(q.events) < maxQueuedEvents {
		q.events = append(q.events, e)
	} else {
		logger.Logf(logger.Allow, "debugger", "event queue full. dropping %s", e.ev.Kind)
	}
	q.crit.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []queued {
	q.crit.Lock()
	defer q.crit.Unlock()
	l := q.events
	q.events = nil
	return l
}

// subscribe to the events from the emulator
func (d *Debugger) subscribe() error {
	for _, k := range []transport.EventKind{
		transport.CheckpointHit,
		transport.Registers,
		transport.Stopped,
		transport.Resumed,
		transport.Jam,
		transport.Failure,
	} {
		s, err := d.grip.Subscribe(k, d.receive)
		if err != nil {
			return err
		}
		d.subs = append(d.subs, s)
	}
	return nil
}

func (d *Debugger) unsubscribe() {
	for _, s := range d.subs {
		d.grip.Unsubscribe(s)
	}
	d.subs = nil
}

// receive is called on the read goroutine of the connection. it must not send
// commands to the emulator
func (d *Debugger) receive(e transport.Event) {
	if d.ignoreEvents.Load() {
		return
	}

	switch e.Kind {
	case transport.CheckpointHit:
		ci := e.Response.(*monitor.CheckpointInfo)
		if !ci.Hit {
			return
		}
		if stack := d.callstack(); stack != nil {
			stack.AddFrame(ci, func() *debugfile.Line {
				return d.lineFromAddress(d.currentAddress())
			})
		}
		if ci.Stop {
			d.hits.Add(1)
			d.queue.push(queued{ev: e.Retain()})
		}

	case transport.Registers:
		info := e.Response.(*monitor.RegisterInfo)
		var sp uint16
		var hasSP bool
		d.crit.Lock()
		for _, r := range info.Registers {
			name, ok := d.regNames[r.ID]
			if !ok {
				continue
			}
			d.registers[name] = r.Value
			switch name {
			case "pc":
				d.address = int(r.Value)
			case "sp":
				sp = r.Value
				hasSP = true
			}
		}
		stack := d.stack
		d.crit.Unlock()
		if hasSP && stack != nil {
			stack.SetCPUStackTop(0x100 + int(sp&0xff))
		}

	case transport.Stopped:
		seq := d.stops.Add(1)
		if pc, ok := e.PC(); ok {
			d.setAddress(int(pc))
		}
		d.follow(govern.Stopped)
		d.queue.push(queued{ev: e, seq: seq})

	case transport.Resumed:
		d.follow(govern.Running)
		d.queue.push(queued{ev: e})

	case transport.Jam, transport.Failure:
		d.queue.push(queued{ev: e})
	}
}

// consumeStops marks every stop received so far as handled. called by
// operations that stop the emulator themselves
func (d *Debugger) consumeStops() {
	d.consumed = d.stops.Load()
}

// loop handles queued events and the update timer until the context is
// cancelled or the connection fails
func (d *Debugger) loop(ctx context.Context, conn *transport.Conn) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			return

		case <-conn.Done():
			d.op.Lock()
			if d.State() != govern.Terminated {
				if err := conn.Err(); err != nil {
					logger.Logf(logger.Allow, "debugger", "connection lost: %v", err)
				}
				d.terminate(context.Background())
			}
			d.op.Unlock()
			return

		case <-d.queue.signal:
			for _, q := range d.queue.drain() {
				d.op.Lock()
				if d.State() != govern.Terminated {
					hctx, cancel := context.WithTimeout(ctx, handleTimeout)
					d.handle(hctx, q)
					cancel()
				}
				d.op.Unlock()
			}

		case <-d.ticker.C:
			d.op.Lock()
			d.tick(ctx)
			d.op.Unlock()
			d.resetTicker()
		}
	}
}

// handle a single event. called with the op mutex held
func (d *Debugger) handle(ctx context.Context, q queued) {
	switch q.ev.Kind {
	case transport.CheckpointHit:
		ci := q.ev.Response.(*monitor.CheckpointInfo)
		d.checkpointHit(ctx, ci)

	case transport.Stopped:
		if q.seq <= d.consumed {
			d.userBreak = nil
			return
		}
		d.consumed = q.seq
		d.stopped(ctx)

	case transport.Resumed:
		if d.exitQueued {
			d.terminate(ctx)
		}

	case transport.Jam:
		pc, _ := q.ev.PC()
		d.message(Error, fmt.Sprintf("The CPU jammed at $%04x", pc))

	case transport.Failure:
		logger.Logf(logger.Allow, "debugger", "emulator failure: %v", q.ev.Err)
		d.terminate(ctx)
	}
}

func (d *Debugger) checkpointHit(ctx context.Context, ci *monitor.CheckpointInfo) {
	if d.codeSegGuard != 0 && ci.ID == d.codeSegGuard {
		if err := d.grip.CheckpointDelete(ctx, ci.ID); err != nil {
			logger.Logf(logger.Allow, "debugger", "code segment guard: %v", err)
		}
		d.codeSegGuard = 0
		d.message(Error, "CODE segment was modified. Your program may be broken!")
		return
	}

	for _, id := range d.exitGuards {
		if ci.ID == id {
			if d.stopOnExit {
				d.exitQueued = true
			} else {
				d.terminate(ctx)
			}
			return
		}
	}

	d.userBreak = nil
	d.crit.Lock()
	for _, bp := range d.breakpoints {
		if bp.Verified && bp.Checkpoint == ci.ID {
			d.userBreak = bp
			break
		}
	}
	d.crit.Unlock()
}

// stopped interprets a stop that was not caused by an operation
func (d *Debugger) stopped(ctx context.Context) {
	d.setState(govern.Stopped)

	if d.exitQueued {
		d.exitQueued = false
		d.runAheadUpdate(ctx)
		d.stop(StopOnExit, govern.Exit)
		return
	}

	if bp := d.userBreak; bp != nil {
		d.userBreak = nil
		d.runAheadUpdate(ctx)

		if bp.LogMessage != "" {
			text := d.interpolate(ctx, bp.LogMessage)
			d.emit(Event{Kind: Output, Text: text + "\n", Breakpoint: *bp})
		}

		if bp.Condition != "" {
			ok, err := d.condition(ctx, bp.Condition)
			if err != nil {
				d.message(Warning, err.Error())
			} else if !ok {
				if err := d.resume(ctx); err != nil {
					logger.Logf(logger.Allow, "debugger", "resume after condition: %v", err)
				}
				return
			}
		}

		d.emit(Event{Kind: StopOnBreakpoint, Position: d.Position(), Breakpoint: *bp})
		d.reason.Store(govern.Breakpoint)
		return
	}

	d.updateUI(ctx)
	d.stop(StopOnStep, govern.Step)
}

// stop records the reason for stopping and tells the user interface
func (d *Debugger) stop(kind EventKind, reason govern.StopReason) {
	d.setState(govern.Stopped)
	d.reason.Store(reason)
	d.emit(Event{Kind: kind, Position: d.Position()})
}

// resume the emulator
func (d *Debugger) resume(ctx context.Context) error {
	d.reason.Store(govern.NoReason)
	if err := d.grip.Exit(ctx); err != nil {
		return err
	}
	d.setState(govern.Running)
	return nil
}
