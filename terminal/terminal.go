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


package terminal

import (
	"fmt"
	"strings"
)

// Sentinal errors. Returned by TermRead() if caught whilst waiting for input.
const (
	UserInterrupt = "user interrupt"
	UserAbort     = "user abort"
)

// Style is used to hint at how a line of output should be presented.
type Style int

// List of valid Style values.
const (
	// the user input echoed back. terminals that echo input as it is typed
	// can ignore lines of this style
	StyleEcho Style = iota

	// the response to a command
	StyleFeedback

	// help text
	StyleHelp

	// program output. eg. the log message of a breakpoint
	StyleOutput

	// a change of position in the program
	StyleLocation

	// messages from the debugger that are not a response to a command
	StyleMessage

	StyleError
)

// Prompt describes the prompt shown when input is requested.
type Prompt struct {
	Content string

	// the emulation is running. the user may still enter commands
	Running bool
}

// String returns the prompt with "standard" decoration.
func (p Prompt) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("[ %s ]", strings.TrimSpace(p.Content)))
	if p.Running {
		s.WriteString(" . ")
	} else {
		s.WriteString(" >> ")
	}
	return s.String()
}

// Input defines the operations required by an interface that allows input.
type Input interface {
	// TermRead returns the next line of input, without the line ending. The
	// UserInterrupt and UserAbort errors are returned if the user interrupts
	// or closes the input.
	TermRead(prompt Prompt) (string, error)

	// IsInteractive() should return true for implementations that require
	// user interaction.
	IsInteractive() bool
}

// Output defines the operations required by an interface that allows output.
type Output interface {
	TermPrintLine(Style, string)
}

// Terminal defines the operations required by the console.
type Terminal interface {
	Input
	Output

	// Initialise the terminal. not all terminal implementations will need to
	// do anything.
	Initialise() error

	// Restore the terminal to its original state, if possible.
	CleanUp()

	// Register a tab completion implementation to use with the terminal. Not
	// all implementations need to respond meaningfully to this.
	RegisterTabCompletion(TabCompletion)

	// Silence all output except error messages.
	Silence(silenced bool)
}

// TabCompletion defines the operations required for tab completion. An
// implementation can be found in the commandline sub-package.
type TabCompletion interface {
	Complete(input string) string
	Reset()
}
