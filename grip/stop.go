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

package grip

import (
	"context"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/transport"
)

// StopWaiter waits for the emulator to stop. Create it with ExpectStop() or
// ExpectStopAt() before sending the command that is expected to stop the
// emulator.
type StopWaiter struct {
	g    *Grip
	conn *transport.Conn
	ch   chan transport.Event
	subs []transport.Subscription

	// the range of addresses accepted. any address is accepted if the range
	// is not set
	ranged     bool
	start, end uint16

	// resume the emulator when it stops outside the range
	continueIfUnmatched bool
}

// ExpectStop returns a StopWaiter for the next stop at any address.
func (g *Grip) ExpectStop() (*StopWaiter, error) {
	return g.expectStop(false, 0, 0, false)
}

// ExpectStopAt returns a StopWaiter for the next stop between start and end
// inclusive. If continueIfUnmatched is true the emulator is resumed whenever
// it stops outside the range.
func (g *Grip) ExpectStopAt(start, end uint16, continueIfUnmatched bool) (*StopWaiter, error) {
	return g.expectStop(true, start, end, continueIfUnmatched)
}

func (g *Grip) expectStop(ranged bool, start, end uint16, continueIfUnmatched bool) (*StopWaiter, error) {
	conn := g.Conn()
	if conn == nil {
		return nil, curated.Errorf(NotConnected)
	}

	w := &StopWaiter{
		g:                   g,
		conn:                conn,
		ch:                  make(chan transport.Event, 16),
		ranged:              ranged,
		start:               start,
		end:                 end,
		continueIfUnmatched: continueIfUnmatched,
	}

	push := func(e transport.Event) {
		select {
		case w.ch <- e:
		default:
		}
	}
	w.subs = append(w.subs, conn.Subscribe(transport.Stopped, push))
	w.subs = append(w.subs, conn.Subscribe(transport.Failure, push))

	return w, nil
}

// Wait for a matching stop. Returns the stopped event. The StopWaiter is
// cancelled when Wait() returns.
func (w *StopWaiter) Wait(ctx context.Context) (*monitor.Stopped, error) {
	defer w.Cancel()

	for {
		select {
		case e := <-w.ch:
			if e.Err != nil {
				return nil, e.Err
			}
			s := e.Response.(*monitor.Stopped)
			if !w.ranged || (s.PC >= w.start && s.PC <= w.end) {
				return s, nil
			}
			if w.continueIfUnmatched {
				logger.Logf(logger.Allow, "grip", "stop at $%04x is outside $%04x-$%04x. continuing", s.PC, w.start, w.end)
				if err := w.g.Exit(ctx); err != nil {
					return nil, err
				}
			}
		case <-w.conn.Done():
			return nil, w.conn.Err()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Cancel stops waiting. It is safe to call Cancel() more than once.
func (w *StopWaiter) Cancel() {
	for _, s := range w.subs {
		w.conn.Unsubscribe(s)
	}
	w.subs = nil
}
