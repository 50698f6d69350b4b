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


// Package commandline facilitates parsing of console input. A Commands
// instance is a table of keywords, each with a usage string and help text.
// Input is divided into Tokens with TokeniseInput() and the first token is
// resolved to a command with Commands.Lookup(). Keywords are matched case
// insensitively and may be abbreviated so long as the abbreviation is
// unambiguous.
//
//	cmds, _ := commandline.NewCommands([]commandline.Command{
//		{Keyword: "CONTINUE", Aliases: []string{"C"}, Help: "continue execution"},
//		{Keyword: "BREAK", Usage: "file:line [IF cond] [LOG message]"},
//	})
//	toks := commandline.TokeniseInput("cont")
//	kw, _ := toks.Get()
//	cmd, err := cmds.Lookup(kw)
//
// The TabCompletion type implements the terminal.TabCompletion interface.
// Keywords are completed from the command table and arguments from the
// Completer function given to NewTabCompletion().
package commandline
