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

	"github.com/jetsetilly/cc65dbg/callstack"
	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/disassembly"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/variables"
)

// Sentinel error patterns.
const (
	UnknownRegister = "debugger: unknown register %s"
	UnknownScope    = "debugger: unknown scope %s"
	UnknownBank     = "debugger: unknown memory bank %s"
)

// inspect runs a function that reads or writes the emulator. a running
// emulator is resumed afterwards
func (d *Debugger) inspect(ctx context.Context, f func() error) error {
	return d.userOp(ctx, func() error {
		return d.silenced(ctx, f)
	})
}

// Stack returns the reconstructed call stack, the current position first.
func (d *Debugger) Stack() []callstack.Entry {
	stack := d.callstack()
	if stack == nil {
		return nil
	}
	stack.Flush()
	p := d.Position()
	return stack.PrettyStack(p.Address, p.File, p.Line, 0)
}

// Registers returns the CPU registers.
func (d *Debugger) Registers(ctx context.Context) ([]variables.Variable, error) {
	var vars []variables.Variable
	err := d.inspect(ctx, func() error {
		info, err := d.grip.Registers(ctx)
		if err != nil {
			return err
		}
		vars = variables.Registers(info, d.regMeta)
		return nil
	})
	return vars, err
}

// SetRegister changes the value of the named register.
func (d *Debugger) SetRegister(ctx context.Context, name string, value uint16) error {
	return d.inspect(ctx, func() error {
		id, ok := d.regMeta.Find(name)
		if !ok {
			return curated.Errorf(UnknownRegister, name)
		}
		if _, err := d.grip.RegistersSet(ctx, monitor.RegisterValue{ID: id, Value: value}); err != nil {
			return err
		}

		d.crit.Lock()
		n := strings.ToLower(name)
		d.registers[n] = value
		if n == "pc" {
			d.address = int(value)
		}
		d.crit.Unlock()
		return nil
	})
}

// Locals returns the automatic variables of the current function.
func (d *Debugger) Locals(ctx context.Context) ([]variables.Variable, error) {
	var vars []variables.Variable
	err := d.inspect(ctx, func() error {
		var err error
		vars, err = d.vars.Locals(ctx, d.currentScope())
		return err
	})
	return vars, err
}

// Statics returns the static variables of the current function.
func (d *Debugger) Statics(ctx context.Context) ([]variables.Variable, error) {
	var vars []variables.Variable
	err := d.inspect(ctx, func() error {
		var err error
		vars, err = d.vars.Statics(ctx, d.currentScope())
		return err
	})
	return vars, err
}

// Globals returns the global variables of the program.
func (d *Debugger) Globals(ctx context.Context) ([]variables.Variable, error) {
	var vars []variables.Variable
	err := d.inspect(ctx, func() error {
		var err error
		vars, err = d.vars.Globals(ctx)
		return err
	})
	return vars, err
}

// TypeFields returns the members of a struct, union or array at the address.
func (d *Debugger) TypeFields(ctx context.Context, address int, typeName string) ([]variables.Variable, error) {
	var vars []variables.Variable
	err := d.inspect(ctx, func() error {
		var err error
		vars, err = d.vars.TypeFields(ctx, address, typeName)
		return err
	})
	return vars, err
}

// SetGlobal changes the value of a global variable.
func (d *Debugger) SetGlobal(ctx context.Context, name string, value int) (variables.Variable, error) {
	var v variables.Variable
	err := d.inspect(ctx, func() error {
		var err error
		v, err = d.vars.SetGlobal(ctx, name, value)
		return err
	})
	return v, err
}

// Evaluate an expression in the current scope.
func (d *Debugger) Evaluate(ctx context.Context, exp string) (variables.Variable, error) {
	var v variables.Variable
	err := d.inspect(ctx, func() error {
		var err error
		v, err = d.vars.Evaluate(ctx, exp, d.currentScope(), d.registerVariables())
		return err
	})
	return v, err
}

// Bank returns the ID of the named memory bank.
func (d *Debugger) Bank(ctx context.Context, name string) (uint16, error) {
	var id uint16
	err := d.inspect(ctx, func() error {
		banks, err := d.grip.BanksAvailable(ctx)
		if err != nil {
			return err
		}
		var ok bool
		id, ok = banks.Find(name)
		if !ok {
			return curated.Errorf(UnknownBank, name)
		}
		return nil
	})
	return id, err
}

// Memory reads memory from the bank.
func (d *Debugger) Memory(ctx context.Context, address uint16, length int, bank uint16) ([]byte, error) {
	var mem []byte
	err := d.inspect(ctx, func() error {
		var err error
		mem, err = d.grip.MemoryGet(ctx, address, length, bank)
		return err
	})
	return mem, err
}

// SetMemory writes data to memory.
func (d *Debugger) SetMemory(ctx context.Context, address uint16, data []byte) error {
	return d.inspect(ctx, func() error {
		return d.grip.MemorySet(ctx, address, data)
	})
}

// Keypress types the text into the emulated machine.
func (d *Debugger) Keypress(ctx context.Context, text string) error {
	return d.inspect(ctx, func() error {
		return d.grip.KeyboardFeed(ctx, text)
	})
}

// ControllerSet sets the state of the joystick or controller.
func (d *Debugger) ControllerSet(ctx context.Context, value uint16) error {
	var port uint16 = 1
	if d.machine == machine.NES {
		port = 0
	}
	return d.inspect(ctx, func() error {
		return d.grip.JoyportSet(ctx, port, value)
	})
}

// SetMemoryWindow changes the memory published by Telemetry events.
func (d *Debugger) SetMemoryWindow(ctx context.Context, offset int, bank uint16) error {
	if d.tele == nil {
		return curated.Errorf(NotLoaded)
	}
	d.tele.SetMemoryWindow(offset, bank)
	if !d.tele.Enabled() {
		return nil
	}
	return d.inspect(ctx, func() error {
		return d.tele.Update(ctx)
	})
}

// Disassemble the named scope. If the name is empty the scope containing the
// current position is disassembled.
func (d *Debugger) Disassemble(ctx context.Context, scope string) ([]disassembly.Entry, error) {
	var entries []disassembly.Entry
	err := d.inspect(ctx, func() error {
		sc := d.currentScope()
		if scope != "" {
			sc = d.dbg.ScopeByName(scope)
		}
		if sc == nil || sc.CodeSpan == nil {
			return curated.Errorf(UnknownScope, scope)
		}

		start := uint16(sc.CodeSpan.AbsoluteAddress)
		mem, err := d.grip.MemoryGet(ctx, start, sc.CodeSpan.Size, 0)
		if err != nil {
			return err
		}
		entries = disassembly.Listing(mem, start, d.dbg, d.mf)
		return nil
	})
	return entries, err
}
