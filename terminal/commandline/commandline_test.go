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


package commandline_test

import (
	"testing"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/terminal/commandline"
	"github.com/jetsetilly/cc65dbg/test"
)

func testCommands(t *testing.T) *commandline.Commands {
	t.Helper()
	cmds, err := commandline.NewCommands([]commandline.Command{
		{Keyword: "continue", Aliases: []string{"c"}, Help: "continue execution"},
		{Keyword: "clear", Usage: "file", Arg: commandline.ArgFile},
		{Keyword: "break", Aliases: []string{"b"}, Usage: "file:line", Arg: commandline.ArgFile},
		{Keyword: "print", Arg: commandline.ArgSymbol},
		{Keyword: "help", Arg: commandline.ArgCommand},
	})
	test.DemandSuccess(t, err)
	return cmds
}

func TestTokeniser(t *testing.T) {
	toks := commandline.TokeniseInput(`  break  main.c:12 if x == 1 log "hit  {x}"`)
	test.ExpectEquality(t, toks.Remaining(), 8)

	kw, ok := toks.Get()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, kw, "break")

	loc, _ := toks.Get()
	test.ExpectEquality(t, loc, "main.c:12")

	p, _ := toks.Peek()
	test.ExpectEquality(t, p, "if")
	toks.Get()

	cond := toks.Until("log")
	test.ExpectEquality(t, cond, "x == 1")

	toks.Get()
	msg, _ := toks.Get()
	test.ExpectEquality(t, msg, "hit  {x}")
	test.ExpectSuccess(t, toks.IsEnd())

	toks.Unget()
	test.ExpectEquality(t, toks.Remainder(), "hit  {x}")

	toks.Reset()
	test.ExpectEquality(t, toks.Remaining(), 8)

	toks = commandline.TokeniseInput("")
	test.ExpectSuccess(t, toks.IsEnd())
	_, ok = toks.Get()
	test.ExpectFailure(t, ok)
}

func TestLookup(t *testing.T) {
	cmds := testCommands(t)

	c, err := cmds.Lookup("c")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, c.Keyword, "CONTINUE")

	c, err = cmds.Lookup("CONT")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, c.Keyword, "CONTINUE")

	c, err = cmds.Lookup("cl")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, c.Keyword, "CLEAR")

	_, err = cmds.Lookup("co")
	test.ExpectSuccess(t, err)

	_, err = cmds.Lookup("foo")
	test.ExpectSuccess(t, curated.Is(err, commandline.UnknownCommand))

	_, err = commandline.NewCommands([]commandline.Command{
		{Keyword: "step", Aliases: []string{"s"}},
		{Keyword: "s"},
	})
	test.ExpectFailure(t, err)
}

func TestAmbiguous(t *testing.T) {
	cmds, err := commandline.NewCommands([]commandline.Command{
		{Keyword: "step"},
		{Keyword: "stack"},
	})
	test.DemandSuccess(t, err)

	_, err = cmds.Lookup("st")
	test.ExpectSuccess(t, curated.Is(err, commandline.AmbiguousCommand))

	c, err := cmds.Lookup("ste")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, c.Keyword, "STEP")
}

func TestHelp(t *testing.T) {
	cmds := testCommands(t)

	h, err := cmds.Help("b")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, h, "BREAK file:line\n  aliases: b")

	h, err = cmds.Help("continue")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, h, "CONTINUE\n  aliases: c\n\ncontinue execution")

	o := cmds.HelpOverview()
	test.ExpectEquality(t, o[:len("BREAK   ")], "BREAK   ")
}

func TestTabCompletion(t *testing.T) {
	cmds := testCommands(t)

	files := func(arg commandline.ArgType) []string {
		switch arg {
		case commandline.ArgFile:
			return []string{"main.c:", "menu.s:", "util.c:"}
		case commandline.ArgSymbol:
			return []string{"counter", "score"}
		}
		return nil
	}

	tc := commandline.NewTabCompletion(cmds, files)

	completion := tc.Complete("c")
	test.ExpectEquality(t, completion, "CLEAR ")

	// next completion option
	completion = tc.Complete(completion)
	test.ExpectEquality(t, completion, "CONTINUE ")

	// cycle back to the first completion option
	completion = tc.Complete(completion)
	test.ExpectEquality(t, completion, "CLEAR ")

	tc.Reset()
	completion = tc.Complete("break m")
	test.ExpectEquality(t, completion, "break main.c:")
	completion = tc.Complete(completion)
	test.ExpectEquality(t, completion, "break menu.s:")

	tc.Reset()
	completion = tc.Complete("print s")
	test.ExpectEquality(t, completion, "print score ")

	tc.Reset()
	completion = tc.Complete("help br")
	test.ExpectEquality(t, completion, "help BREAK ")

	// commands without arguments are not completed
	tc.Reset()
	completion = tc.Complete("continue x")
	test.ExpectEquality(t, completion, "continue x")

	// no match
	tc.Reset()
	completion = tc.Complete("print z")
	test.ExpectEquality(t, completion, "print z")
}
