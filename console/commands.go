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


package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugger"
	"github.com/jetsetilly/cc65dbg/terminal"
	"github.com/jetsetilly/cc65dbg/terminal/commandline"
	"github.com/jetsetilly/cc65dbg/variables"
)

// Sentinal errors.
const (
	MissingArgument = "%s: missing argument"
	InvalidArgument = "%s: invalid argument (%s)"
)

// command keywords.
const (
	cmdAutostart = "AUTOSTART"
	cmdBreak     = "BREAK"
	cmdClear     = "CLEAR"
	cmdContinue  = "CONTINUE"
	cmdDetach    = "DETACH"
	cmdDisasm    = "DISASM"
	cmdGlobals   = "GLOBALS"
	cmdHelp      = "HELP"
	cmdJoystick  = "JOYSTICK"
	cmdKeys      = "KEYS"
	cmdLocals    = "LOCALS"
	cmdMemory    = "MEMORY"
	cmdNext      = "NEXT"
	cmdOut       = "OUT"
	cmdPause     = "PAUSE"
	cmdPoke      = "POKE"
	cmdPrint     = "PRINT"
	cmdQuit      = "QUIT"
	cmdRegs      = "REGS"
	cmdReload    = "RELOAD"
	cmdScript    = "SCRIPT"
	cmdSet       = "SET"
	cmdStack     = "STACK"
	cmdStatics   = "STATICS"
	cmdStep      = "STEP"
	cmdTelemetry = "TELEMETRY"
	cmdType      = "TYPE"
	cmdWhere     = "WHERE"
)

var commandTable = []commandline.Command{
	{Keyword: cmdAutostart, Help: "load and run the program in an emulator that is waiting for it"},
	{Keyword: cmdBreak, Aliases: []string{"B"}, Usage: "[file:line [IF condition] [LOG message]]", Arg: commandline.ArgFile,
		Help: "set a breakpoint or list the breakpoints\n\nThe condition is checked when the breakpoint is hit. The message is printed\nwhen the breakpoint is hit and can include expressions between braces."},
	{Keyword: cmdClear, Usage: "file", Arg: commandline.ArgFile, Help: "remove all breakpoints in a file"},
	{Keyword: cmdContinue, Aliases: []string{"C"}, Help: "continue execution"},
	{Keyword: cmdDetach, Help: "disconnect from the emulator and leave it running"},
	{Keyword: cmdDisasm, Usage: "[function]", Arg: commandline.ArgSymbol, Help: "disassemble the current function or the named function"},
	{Keyword: cmdGlobals, Help: "list the global variables"},
	{Keyword: cmdHelp, Aliases: []string{"?"}, Usage: "[command]", Arg: commandline.ArgCommand, Help: "list commands or show the help for a command"},
	{Keyword: cmdJoystick, Usage: "value", Help: "set the state of the joystick or controller"},
	{Keyword: cmdKeys, Usage: "text", Arg: commandline.ArgAny, Help: "type text into the emulated machine"},
	{Keyword: cmdLocals, Help: "list the local variables of the current function"},
	{Keyword: cmdMemory, Aliases: []string{"X"}, Usage: "address [length] [bank]", Help: "show the contents of memory"},
	{Keyword: cmdNext, Aliases: []string{"N"}, Help: "step over the current line"},
	{Keyword: cmdOut, Help: "step out of the current function"},
	{Keyword: cmdPause, Help: "stop a running program"},
	{Keyword: cmdPoke, Usage: "address value...", Help: "write bytes to memory"},
	{Keyword: cmdPrint, Aliases: []string{"P"}, Usage: "expression", Arg: commandline.ArgSymbol, Help: "evaluate an expression"},
	{Keyword: cmdQuit, Aliases: []string{"Q", "EXIT"}, Help: "end the debugging session"},
	{Keyword: cmdRegs, Usage: "[register value]", Help: "show the CPU registers or change one of them"},
	{Keyword: cmdReload, Help: "reload the debug information"},
	{Keyword: cmdScript, Usage: "(RECORD file|END|file)", Arg: commandline.ArgAny,
		Help: "record the commands that follow to a file or run the commands in a file\n\nRecording continues until SCRIPT END. Lines beginning with # are ignored\nwhen a script is run."},
	{Keyword: cmdSet, Usage: "variable value", Arg: commandline.ArgSymbol, Help: "change the value of a global variable"},
	{Keyword: cmdStack, Aliases: []string{"BT"}, Help: "show the call stack"},
	{Keyword: cmdStatics, Help: "list the static variables of the current file"},
	{Keyword: cmdStep, Aliases: []string{"S"}, Help: "step into the current line"},
	{Keyword: cmdTelemetry, Usage: "(ON|OFF)", Help: "stream run-time information from the emulator"},
	{Keyword: cmdType, Usage: "address type", Help: "show the fields of a struct, union or array"},
	{Keyword: cmdWhere, Help: "show the current position"},
}

// Execute a single command. Returns true if the console should quit.
func (c *Console) Execute(ctx context.Context, input string) (bool, error) {
	toks := commandline.TokeniseInput(input)

	kw, ok := toks.Get()
	if !ok {
		return false, nil
	}

	cmd, err := c.cmds.Lookup(kw)
	if err != nil {
		return false, err
	}

	switch cmd.Keyword {
	case cmdQuit:
		return true, c.dbg.Terminate(ctx)

	case cmdDetach:
		return true, c.dbg.Disconnect(ctx)

	case cmdHelp:
		arg, ok := toks.Get()
		if !ok {
			c.term.TermPrintLine(terminal.StyleHelp, c.cmds.HelpOverview())
			return false, nil
		}
		h, err := c.cmds.Help(arg)
		if err != nil {
			return false, err
		}
		c.term.TermPrintLine(terminal.StyleHelp, h)

	case cmdContinue:
		return false, c.dbg.Continue(ctx)
	case cmdNext:
		return false, c.dbg.Next(ctx)
	case cmdStep:
		return false, c.dbg.StepIn(ctx)
	case cmdOut:
		return false, c.dbg.StepOut(ctx)
	case cmdPause:
		return false, c.dbg.Pause(ctx)
	case cmdReload:
		return false, c.dbg.Reload(ctx)
	case cmdAutostart:
		return false, c.dbg.Action(ctx, debugger.Autostart)

	case cmdScript:
		arg, ok := toks.Get()
		if !ok {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		switch strings.ToUpper(arg) {
		case "RECORD":
			file, ok := toks.Get()
			if !ok {
				return false, curated.Errorf(MissingArgument, cmd.Keyword)
			}
			if err := c.scribe.startSession(file); err != nil {
				return false, err
			}
			c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("recording to %s", file))
		case "END":
			if !c.scribe.isActive() {
				return false, curated.Errorf(ScriptError, "not recording")
			}
			return false, c.scribe.endSession()
		default:
			return c.PlayScript(ctx, arg)
		}

	case cmdWhere:
		c.term.TermPrintLine(terminal.StyleLocation, c.dbg.Position().String())

	case cmdBreak:
		return false, c.breakpoint(ctx, toks)

	case cmdClear:
		file, ok := toks.Get()
		if !ok {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		return false, c.dbg.ClearBreakpoints(ctx, strings.TrimSuffix(file, ":"))

	case cmdStack:
		for _, e := range c.dbg.Stack() {
			c.term.TermPrintLine(terminal.StyleFeedback, e.String())
		}

	case cmdRegs:
		if toks.IsEnd() {
			return false, c.printVariables(c.dbg.Registers(ctx))
		}
		name, _ := toks.Get()
		v, ok := toks.Get()
		if !ok {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		n, err := parseNumber(v)
		if err != nil {
			return false, curated.Errorf(InvalidArgument, cmd.Keyword, v)
		}
		return false, c.dbg.SetRegister(ctx, name, uint16(n))

	case cmdLocals:
		return false, c.printVariables(c.dbg.Locals(ctx))
	case cmdStatics:
		return false, c.printVariables(c.dbg.Statics(ctx))
	case cmdGlobals:
		return false, c.printVariables(c.dbg.Globals(ctx))

	case cmdType:
		a, ok := toks.Get()
		if !ok {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		address, err := parseNumber(a)
		if err != nil {
			return false, curated.Errorf(InvalidArgument, cmd.Keyword, a)
		}
		if toks.IsEnd() {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		return false, c.printVariables(c.dbg.TypeFields(ctx, address, toks.Remainder()))

	case cmdSet:
		name, ok := toks.Get()
		if !ok {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		v, ok := toks.Get()
		if !ok {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		n, err := parseNumber(v)
		if err != nil {
			return false, curated.Errorf(InvalidArgument, cmd.Keyword, v)
		}
		r, err := c.dbg.SetGlobal(ctx, name, n)
		if err != nil {
			return false, err
		}
		c.printVariable(r)

	case cmdPrint:
		if toks.IsEnd() {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		r, err := c.dbg.Evaluate(ctx, toks.Remainder())
		if err != nil {
			return false, err
		}
		c.printVariable(r)

	case cmdMemory:
		return false, c.memory(ctx, toks)

	case cmdPoke:
		a, ok := toks.Get()
		if !ok || toks.IsEnd() {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		address, err := parseNumber(a)
		if err != nil {
			return false, curated.Errorf(InvalidArgument, cmd.Keyword, a)
		}
		var data []byte
		for v, ok := toks.Get(); ok; v, ok = toks.Get() {
			n, err := parseNumber(v)
			if err != nil || n > 0xff {
				return false, curated.Errorf(InvalidArgument, cmd.Keyword, v)
			}
			data = append(data, byte(n))
		}
		return false, c.dbg.SetMemory(ctx, uint16(address), data)

	case cmdDisasm:
		scope, _ := toks.Get()
		entries, err := c.dbg.Disassemble(ctx, scope)
		if err != nil {
			return false, err
		}
		for _, e := range entries {
			c.term.TermPrintLine(terminal.StyleFeedback, e.String())
		}

	case cmdKeys:
		if toks.IsEnd() {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		return false, c.dbg.Keypress(ctx, unescape(toks.Remainder()))

	case cmdJoystick:
		v, ok := toks.Get()
		if !ok {
			return false, curated.Errorf(MissingArgument, cmd.Keyword)
		}
		n, err := parseNumber(v)
		if err != nil {
			return false, curated.Errorf(InvalidArgument, cmd.Keyword, v)
		}
		return false, c.dbg.ControllerSet(ctx, uint16(n))

	case cmdTelemetry:
		v, _ := toks.Get()
		switch strings.ToUpper(v) {
		case "ON":
			return false, c.dbg.EnableTelemetry(true)
		case "OFF":
			return false, c.dbg.EnableTelemetry(false)
		}
		return false, curated.Errorf(InvalidArgument, cmd.Keyword, v)
	}

	return false, nil
}

// breakpoint lists the breakpoints or adds one.
func (c *Console) breakpoint(ctx context.Context, toks *commandline.Tokens) error {
	loc, ok := toks.Get()
	if !ok {
		for _, bp := range c.dbg.Breakpoints() {
			c.term.TermPrintLine(terminal.StyleFeedback, bp.String())
		}
		return nil
	}

	i := strings.LastIndexByte(loc, ':')
	if i < 1 {
		return curated.Errorf(InvalidArgument, cmdBreak, loc)
	}
	line, err := strconv.Atoi(loc[i+1:])
	if err != nil || line < 1 {
		return curated.Errorf(InvalidArgument, cmdBreak, loc)
	}

	// line numbers are one based for the user
	spec := debugger.BreakpointSpec{Line: line - 1}

	for kw, ok := toks.Get(); ok; kw, ok = toks.Get() {
		switch strings.ToUpper(kw) {
		case "IF":
			spec.Condition = toks.Until("LOG")
		case "LOG":
			spec.LogMessage = toks.Until("IF")
		default:
			return curated.Errorf(InvalidArgument, cmdBreak, kw)
		}
	}

	bps, err := c.dbg.SetBreakpoint(ctx, loc[:i], spec)
	if err != nil {
		return err
	}

	// verified breakpoints are reported by the BreakpointValidated event
	for _, bp := range bps {
		if !bp.Verified {
			c.term.TermPrintLine(terminal.StyleFeedback, bp.String())
		}
	}

	return nil
}

func (c *Console) memory(ctx context.Context, toks *commandline.Tokens) error {
	a, ok := toks.Get()
	if !ok {
		return curated.Errorf(MissingArgument, cmdMemory)
	}
	address, err := parseNumber(a)
	if err != nil || address > 0xffff {
		return curated.Errorf(InvalidArgument, cmdMemory, a)
	}

	length := 64
	if v, ok := toks.Get(); ok {
		length, err = parseNumber(v)
		if err != nil || length < 1 {
			return curated.Errorf(InvalidArgument, cmdMemory, v)
		}
	}

	var bank uint16
	if v, ok := toks.Get(); ok {
		bank, err = c.dbg.Bank(ctx, v)
		if err != nil {
			return err
		}
	}

	data, err := c.dbg.Memory(ctx, uint16(address), length, bank)
	if err != nil {
		return err
	}

	for _, l := range hexDump(uint16(address), data) {
		c.term.TermPrintLine(terminal.StyleFeedback, l)
	}

	return nil
}

func (c *Console) printVariables(vars []variables.Variable, err error) error {
	if err != nil {
		return err
	}
	for _, v := range vars {
		c.printVariable(v)
	}
	return nil
}

func (c *Console) printVariable(v variables.Variable) {
	// the result of an expression that names no variable
	if v.Name == "" {
		c.term.TermPrintLine(terminal.StyleFeedback, v.Value)
		return
	}

	s := fmt.Sprintf("%s = %s", v.Name, v.Value)
	if v.Type != "" {
		s = fmt.Sprintf("%s (%s at $%04x)", s, v.Type, v.Address)
	}
	c.term.TermPrintLine(terminal.StyleFeedback, s)
}

// parseNumber accepts decimal numbers and hexadecimal numbers with a $ or 0x
// prefix.
func parseNumber(s string) (int, error) {
	if strings.HasPrefix(s, "$") {
		s = "0x" + s[1:]
	}
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative number")
	}
	return int(n), nil
}

// unescape replaces the \n and \r escape sequences with the control
// characters they name.
func unescape(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\r`, "\r").Replace(s)
}

// hexDump formats the data as lines of sixteen bytes.
func hexDump(address uint16, data []byte) []string {
	var lines []string
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		s := strings.Builder{}
		s.WriteString(fmt.Sprintf("$%04x ", address+uint16(i)))
		for _, b := range data[i:end] {
			s.WriteString(fmt.Sprintf(" %02x", b))
		}
		lines = append(lines, s.String())
	}
	return lines
}
