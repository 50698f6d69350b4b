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


// Package console is the command line front end of the cc65dbg debugger. It
// reads commands from a terminal.Terminal, runs them against a
// debugger.Debugger and prints the events the debugger emits.
package console

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/debugger"
	"github.com/jetsetilly/cc65dbg/debugger/govern"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/terminal"
	"github.com/jetsetilly/cc65dbg/terminal/commandline"
)

// Console connects a terminal to the debugger.
type Console struct {
	term terminal.Terminal
	dbg  *debugger.Debugger
	cmds *commandline.Commands

	// the session has ended. the input loop finishes once the user has
	// seen the final events
	ended atomic.Bool

	// the actions offered by the most recent Message event
	actions atomic.Value

	scribe scribe
}

// NewConsole is the preferred method of initialisation for the Console type.
// The terminal should already be initialised.
func NewConsole(term terminal.Terminal) (*Console, error) {
	c := &Console{term: term}
	c.actions.Store([]string{})

	var err error
	c.cmds, err = commandline.NewCommands(commandTable)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Emit prints a debugger event. It is suitable for use as the emit function
// given to debugger.NewDebugger().
func (c *Console) Emit(ev debugger.Event) {
	switch ev.Kind {
	case debugger.StopOnEntry:
		c.term.TermPrintLine(terminal.StyleLocation, fmt.Sprintf("program entry at %s", ev.Position))
	case debugger.StopOnExit:
		c.term.TermPrintLine(terminal.StyleLocation, fmt.Sprintf("program exit at %s", ev.Position))
	case debugger.StopOnStep:
		c.term.TermPrintLine(terminal.StyleLocation, ev.Position.String())
	case debugger.StopOnBreakpoint:
		c.term.TermPrintLine(terminal.StyleLocation, fmt.Sprintf("breakpoint #%d at %s", ev.Breakpoint.ID, ev.Position))
	case debugger.Continued:
		c.term.TermPrintLine(terminal.StyleFeedback, "running")
	case debugger.BreakpointValidated:
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("breakpoint %s", ev.Breakpoint))
	case debugger.Started:
		c.term.TermPrintLine(terminal.StyleFeedback, "program started")
	case debugger.End:
		c.ended.Store(true)
		c.term.TermPrintLine(terminal.StyleFeedback, "session ended")
	case debugger.Output:
		c.term.TermPrintLine(terminal.StyleOutput, strings.TrimRight(ev.Text, "\n"))
	case debugger.Message:
		c.actions.Store(ev.Actions)
		s := ev.Text
		if len(ev.Actions) > 0 {
			s = fmt.Sprintf("%s [%s]", s, strings.Join(ev.Actions, ", "))
		}
		if ev.Level == debugger.Error {
			c.term.TermPrintLine(terminal.StyleError, s)
		} else {
			c.term.TermPrintLine(terminal.StyleMessage, s)
		}
	case debugger.Telemetry:
		logger.Logf(logger.Allow, "console", "%s", ev)
	}
}

// Attach the debugger to the console. Must be called before Run() or
// Execute().
func (c *Console) Attach(dbg *debugger.Debugger) {
	c.dbg = dbg
	c.term.RegisterTabCompletion(commandline.NewTabCompletion(c.cmds, c.complete))
}

// Run reads and executes commands until the user quits or the input ends.
// The debugger session is terminated before returning.
func (c *Console) Run(ctx context.Context) error {
	if c.dbg == nil {
		return curated.Errorf("console: no debugger attached")
	}

	defer func() {
		if err := c.scribe.endSession(); err != nil {
			c.term.TermPrintLine(terminal.StyleError, err.Error())
		}
		_ = c.dbg.Terminate(context.Background())
	}()

	for {
		input, err := c.term.TermRead(c.prompt())
		if err != nil {
			if curated.Is(err, terminal.UserInterrupt) {
				c.Interrupt(ctx)
				continue
			}
			if curated.Is(err, terminal.UserAbort) {
				return nil
			}
			return err
		}

		c.term.TermPrintLine(terminal.StyleEcho, input)
		c.scribe.writeInput(input)

		quit, err := c.Execute(ctx, input)
		if err != nil {
			c.scribe.rollback()
			c.term.TermPrintLine(terminal.StyleError, err.Error())
		} else if err := c.scribe.commit(); err != nil {
			c.term.TermPrintLine(terminal.StyleError, err.Error())
		}
		if quit {
			return nil
		}
	}
}

// Interrupt stops the program if it is running. Suitable for use as the
// handler of an interrupt signal.
func (c *Console) Interrupt(ctx context.Context) {
	if c.dbg.State() != govern.Running {
		c.term.TermPrintLine(terminal.StyleFeedback, "use QUIT to end the session")
		return
	}
	if err := c.dbg.Pause(ctx); err != nil {
		c.term.TermPrintLine(terminal.StyleError, err.Error())
	}
}

func (c *Console) prompt() terminal.Prompt {
	p := terminal.Prompt{}

	switch c.dbg.State() {
	case govern.Running:
		p.Running = true
		p.Content = "running"
	case govern.Stopped:
		p.Content = c.dbg.Position().String()
	default:
		p.Content = strings.ToLower(c.dbg.State().String())
	}

	return p
}

// complete supplies the arguments for tab completion.
func (c *Console) complete(arg commandline.ArgType) []string {
	dbg := c.dbg.DebugInfo()
	if dbg == nil {
		return nil
	}

	var s []string
	switch arg {
	case commandline.ArgFile:
		for _, f := range dbg.Files {
			s = append(s, filepath.Base(f.Name)+":")
		}
	case commandline.ArgSymbol:
		for _, cs := range dbg.CSyms {
			if cs.SC == debugfile.Ext || cs.SC == debugfile.Static {
				s = append(s, cs.Name)
			}
		}
	}
	return s
}
