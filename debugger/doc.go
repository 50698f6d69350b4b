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


// Package debugger is the execution controller. It drives a single debugging
// session: loading the debug information for a program, starting or attaching
// to the emulator, stepping, breakpoints and the inspection of variables.
//
// Emulator events arrive on the read goroutine of the connection. The
// subscriber functions do only the minimum work required to keep the call
// stack and registers current and then queue the event. Queued events are
// interpreted by the event loop. The event loop and the public operations all
// hold the same mutex so only one of them ever talks to the emulator at a
// time.
//
// The debugger reports everything of interest to the caller through the emit
// function given to NewDebugger(). The emit function is called with the
// operation mutex held so it must not call back into the Debugger. Forward
// the Event to another goroutine if that is required.
//
// Stops caused by an operation (stepping for example) are consumed by that
// operation. The operation emits its own event once it is complete and the
// event loop discards the stop.
package debugger
