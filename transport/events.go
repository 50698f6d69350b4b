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

package transport

import (
	"context"

	"github.com/jetsetilly/cc65dbg/monitor"
)

// EventKind classifies the responses that are not replies to a command.
type EventKind int

// List of valid EventKind values.
const (
	Stopped EventKind = iota
	Resumed
	Jam
	CheckpointHit
	Registers

	// the connection failed or the stream could not be framed. the Err field
	// of the Event is set
	Failure
)

func (k EventKind) String() string {
	switch k {
	case Stopped:
		return "stopped"
	case Resumed:
		return "resumed"
	case Jam:
		return "jam"
	case CheckpointHit:
		return "checkpoint"
	case Registers:
		return "registers"
	case Failure:
		return "failure"
	}
	return "unknown event"
}

// Event is delivered to subscribers.
type Event struct {
	Kind     EventKind
	Response monitor.Response
	Err      error
}

// PC returns the program counter of a stopped, resumed or jam event.
func (e Event) PC() (uint16, bool) {
	switch r := e.Response.(type) {
	case *monitor.Stopped:
		return r.PC, true
	case *monitor.Resumed:
		return r.PC, true
	case *monitor.Jam:
		return r.PC, true
	}
	return 0, false
}

// Retain returns a copy of the event that is safe to keep after the
// subscriber function has returned.
func (e Event) Retain() Event {
	if ci, ok := e.Response.(*monitor.CheckpointInfo); ok {
		c := *ci
		e.Response = &c
	}
	return e
}

func eventKind(t monitor.ResponseType) (EventKind, bool) {
	switch t {
	case monitor.RespStopped:
		return Stopped, true
	case monitor.RespResumed:
		return Resumed, true
	case monitor.RespJam:
		return Jam, true
	case monitor.RespCheckpointInfo:
		return CheckpointHit, true
	case monitor.RespRegisterInfo:
		return Registers, true
	}
	return 0, false
}

// Subscription identifies a subscriber function.
type Subscription uint64

type subscriber struct {
	id Subscription
	f  func(Event)
}

// Subscribe registers a function that is called for every event of the kind.
func (c *Conn) Subscribe(kind EventKind, f func(Event)) Subscription {
	c.crit.Lock()
	defer c.crit.Unlock()
	c.nextSub++
	c.subs[kind] = append(c.subs[kind], subscriber{id: c.nextSub, f: f})
	return c.nextSub
}

// Unsubscribe removes a subscriber function.
func (c *Conn) Unsubscribe(s Subscription) {
	c.crit.Lock()
	defer c.crit.Unlock()
	for k, l := range c.subs {
		for i := range l {
			if l[i].id == s {
				c.subs[k] = append(l[:i:i], l[i+1:]...)
				return
			}
		}
	}
}

func (c *Conn) broadcast(e Event) {
	c.crit.Lock()
	l := c.subs[e.Kind]
	c.crit.Unlock()

	// the slice may be replaced by Subscribe() or Unsubscribe() but the
	// backing array of l is never written to after it is shared
	for _, s := range l {
		s.f(e)
	}
}

// Waiter waits for an event. Create one with Expect() before sending the
// command that is expected to cause the event.
type Waiter struct {
	c     *Conn
	ch    chan Event
	subs  []Subscription
	match func(Event) bool
}

// Expect returns a Waiter for the next event of the kind that satisfies the
// match function. A nil match function accepts every event.
func (c *Conn) Expect(kind EventKind, match func(Event) bool) *Waiter {
	w := &Waiter{
		c:     c,
		ch:    make(chan Event, 1),
		match: match,
	}

	w.subs = append(w.subs, c.Subscribe(kind, func(e Event) {
		if w.match == nil || w.match(e) {
			select {
			case w.ch <- e.Retain():
			default:
			}
		}
	}))

	w.subs = append(w.subs, c.Subscribe(Failure, func(e Event) {
		select {
		case w.ch <- e:
		default:
		}
	}))

	return w
}

// Wait for the event. The Waiter is cancelled when Wait() returns.
func (w *Waiter) Wait(ctx context.Context) (Event, error) {
	defer w.Cancel()

	select {
	case e := <-w.ch:
		if e.Err != nil {
			return e, e.Err
		}
		return e, nil
	case <-w.c.done:
		return Event{}, w.c.Err()
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Cancel stops waiting. It is safe to call Cancel() more than once.
func (w *Waiter) Cancel() {
	for _, s := range w.subs {
		w.c.Unsubscribe(s)
	}
	w.subs = nil
}
