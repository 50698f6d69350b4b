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
	"strings"
	"time"

	"github.com/jetsetilly/cc65dbg/debugger/govern"
	"github.com/jetsetilly/cc65dbg/expression"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/variables"
)

func (d *Debugger) updateInterval() time.Duration {
	ms, _ := d.prefs.UpdateInterval.Get().(int)
	if ms <= 0 {
		ms = 1000
	}
	return time.Duration(ms) * time.Millisecond
}

func (d *Debugger) resetTicker() {
	if d.ticker != nil && d.State() != govern.Terminated {
		d.ticker.Reset(d.updateInterval())
	}
}

// tick refreshes the user interface while the program is running. called with
// the op mutex held
func (d *Debugger) tick(ctx context.Context) {
	if d.State() != govern.Running {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	err := d.grip.Lock(ctx, func() error {
		return d.silenced(ctx, func() error {
			return d.updateUI(ctx)
		})
	})
	if err != nil {
		logger.Logf(logger.Allow, "debugger", "update: %v", err)
	}
}

// updateUI fetches the registers and publishes telemetry
func (d *Debugger) updateUI(ctx context.Context) error {
	if err := d.grip.Ping(ctx); err != nil {
		return err
	}
	if d.tele == nil || !d.tele.Enabled() {
		return nil
	}
	return d.tele.Update(ctx)
}

// silenced runs the function with the emulator in whatever state it was in
// beforehand. The stops caused by the function are consumed. A running
// emulator is resumed unless a stopping checkpoint was hit in the meantime.
func (d *Debugger) silenced(ctx context.Context, f func() error) error {
	wasRunning := d.State() == govern.Running
	hits := d.hits.Load()

	err := f()

	if wasRunning && d.hits.Load() == hits {
		d.consumeStops()
		if rerr := d.resume(ctx); rerr != nil && err == nil {
			err = rerr
		}
	}

	return err
}

// registerInfo returns the most recent register values
func (d *Debugger) registerInfo() *monitor.RegisterInfo {
	d.crit.Lock()
	defer d.crit.Unlock()

	info := &monitor.RegisterInfo{}
	for id, name := range d.regNames {
		if v, ok := d.registers[name]; ok {
			info.Registers = append(info.Registers, monitor.RegisterValue{ID: id, Value: v})
		}
	}
	return info
}

func (d *Debugger) registerVariables() []variables.Variable {
	return variables.Registers(d.registerInfo(), d.regMeta)
}

func (d *Debugger) resolver() expression.Resolver {
	return d.vars.Resolver(d.currentScope(), d.registerVariables(), nil)
}

// interpolate the expressions in braces in a log message
func (d *Debugger) interpolate(ctx context.Context, msg string) string {
	return expression.Interpolate(ctx, msg, d.resolver())
}

// condition evaluates a breakpoint condition
func (d *Debugger) condition(ctx context.Context, cond string) (bool, error) {
	v, err := expression.Evaluate(ctx, strings.TrimSpace(cond), d.resolver())
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}
