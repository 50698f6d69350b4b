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
	"fmt"
	"path/filepath"

	"github.com/jetsetilly/cc65dbg/telemetry"
)

// EventKind identifies the type of Event.
type EventKind int

// List of valid EventKind values.
const (
	StopOnEntry EventKind = iota
	StopOnExit
	StopOnStep
	StopOnBreakpoint
	Continued
	BreakpointValidated
	Started
	End
	Output
	Message
	Telemetry
)

func (k EventKind) String() string {
	switch k {
	case StopOnEntry:
		return "stopOnEntry"
	case StopOnExit:
		return "stopOnExit"
	case StopOnStep:
		return "stopOnStep"
	case StopOnBreakpoint:
		return "stopOnBreakpoint"
	case Continued:
		return "continued"
	case BreakpointValidated:
		return "breakpointValidated"
	case Started:
		return "started"
	case End:
		return "end"
	case Output:
		return "output"
	case Message:
		return "message"
	case Telemetry:
		return "telemetry"
	}
	return "unknown"
}

// MessageLevel is the severity of a Message event.
type MessageLevel int

// List of valid MessageLevel values.
const (
	Information MessageLevel = iota
	Warning
	Error
)

func (l MessageLevel) String() string {
	switch l {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "information"
}

// Position in the program.
type Position struct {
	Address int
	File    string

	// zero based line number. -1 if the address has no source line
	Line int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("$%04x", p.Address)
	}
	return fmt.Sprintf("$%04x %s:%d", p.Address, filepath.Base(p.File), p.Line+1)
}

// Event is sent to the emit function given to NewDebugger().
type Event struct {
	Kind EventKind

	// the current position for the stop events
	Position Position

	// for BreakpointValidated and StopOnBreakpoint
	Breakpoint Breakpoint

	// the text of Output and Message events
	Text  string
	Level MessageLevel

	// actions that the user can choose in response to a Message. see the
	// Action() function
	Actions []string

	// for Telemetry events
	Telemetry *telemetry.Event
}

func (ev Event) String() string {
	switch ev.Kind {
	case StopOnEntry, StopOnExit, StopOnStep:
		return fmt.Sprintf("%s %s", ev.Kind, ev.Position)
	case StopOnBreakpoint:
		return fmt.Sprintf("%s #%d %s", ev.Kind, ev.Breakpoint.ID, ev.Position)
	case BreakpointValidated:
		return fmt.Sprintf("%s %s", ev.Kind, ev.Breakpoint)
	case Output:
		return ev.Text
	case Message:
		return fmt.Sprintf("%s: %s", ev.Level, ev.Text)
	case Telemetry:
		if ev.Telemetry != nil {
			return fmt.Sprintf("%s %s", ev.Kind, ev.Telemetry.Kind)
		}
	}
	return ev.Kind.String()
}
