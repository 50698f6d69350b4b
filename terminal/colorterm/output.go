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

//go:build !windows

package colorterm

import (
	"github.com/jetsetilly/cc65dbg/terminal"
	"github.com/jetsetilly/cc65dbg/terminal/easyterm/ansi"
)

// TermPrintLine implements the terminal.Output interface.
func (ct *ColorTerminal) TermPrintLine(style terminal.Style, s string) {
	if ct.silenced && style != terminal.StyleError {
		return
	}

	// input is echoed as it is typed
	if style == terminal.StyleEcho {
		return
	}

	ct.crit.Lock()
	defer ct.crit.Unlock()

	var pen, prefix string
	switch style {
	case terminal.StyleHelp, terminal.StyleFeedback:
		pen = ansi.DimPens["white"]
	case terminal.StyleOutput:
		pen = ansi.Pens["cyan"]
	case terminal.StyleLocation:
		pen = ansi.Pens["yellow"]
	case terminal.StyleMessage:
		pen = ansi.Pens["blue"]
		prefix = "! "
	case terminal.StyleError:
		pen = ansi.Pens["red"]
		prefix = "* "
	}

	ct.Write("\r" + ansi.ClearLine + pen + prefix + s + ansi.NormalPen + "\n")

	if ct.reading {
		ct.redraw()
	}
}

// redraw the prompt and the current input. the crit lock must be held.
func (ct *ColorTerminal) redraw() {
	ct.Write("\r" + ansi.ClearLine + ansi.Bold + ct.prompt + ansi.NormalPen)
	ct.Write(string(ct.input))
	ct.Write(ansi.CursorMove(ct.cursor - len(ct.input)))
}
