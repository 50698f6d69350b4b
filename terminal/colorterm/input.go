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
	"unicode"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/terminal"
	"github.com/jetsetilly/cc65dbg/terminal/easyterm"
)

// TermRead implements the terminal.Input interface.
func (ct *ColorTerminal) TermRead(prompt terminal.Prompt) (string, error) {
	ct.CBreakMode()
	defer ct.CanonicalMode()

	if ct.tabCompleter != nil {
		ct.tabCompleter.Reset()
	}

	ct.crit.Lock()
	ct.reading = true
	ct.prompt = prompt.String()
	ct.input = ct.input[:0]
	ct.cursor = 0
	ct.redraw()
	ct.crit.Unlock()

	defer func() {
		ct.crit.Lock()
		ct.reading = false
		ct.crit.Unlock()
	}()

	history := len(ct.commandHistory)

	// the latest input is kept when we scroll through history so that the
	// user can return to it
	var buffInput []rune

	for {
		r, _, err := ct.reader.ReadRune()
		if err != nil {
			return "", err
		}

		ct.crit.Lock()

		if r != easyterm.KeyTab && ct.tabCompleter != nil {
			ct.tabCompleter.Reset()
		}

		switch r {
		case easyterm.KeyTab:
			if ct.tabCompleter != nil {
				s := []rune(ct.tabCompleter.Complete(string(ct.input[:ct.cursor])))
				tail := append([]rune{}, ct.input[ct.cursor:]...)
				ct.input = append(s, tail...)
				ct.cursor = len(s)
			}

		case easyterm.KeyInterrupt:
			ct.Print("\n")
			ct.crit.Unlock()
			return "", curated.Errorf(terminal.UserInterrupt)

		case easyterm.KeyEOF:
			if len(ct.input) == 0 {
				ct.Print("\n")
				ct.crit.Unlock()
				return "", curated.Errorf(terminal.UserAbort)
			}

		case easyterm.KeyCarriageReturn, easyterm.KeyLineFeed:
			s := string(ct.input)

			// a line that matches the last history entry is not added again
			if len(ct.input) > 0 {
				l := len(ct.commandHistory)
				if l == 0 || string(ct.commandHistory[l-1]) != s {
					ct.commandHistory = append(ct.commandHistory, append([]rune{}, ct.input...))
				}
			}

			ct.Print("\n")
			ct.crit.Unlock()
			return s, nil

		case easyterm.KeyEsc:
			ct.crit.Unlock()
			r, _, err := ct.reader.ReadRune()
			if err != nil {
				return "", err
			}
			if r != easyterm.EscCursor {
				ct.crit.Lock()
				break
			}
			r, _, err = ct.reader.ReadRune()
			if err != nil {
				return "", err
			}
			ct.crit.Lock()

			switch r {
			case easyterm.CursorUp:
				if history > 0 {
					if history == len(ct.commandHistory) {
						buffInput = append(buffInput[:0], ct.input...)
					}
					history--
					ct.input = append(ct.input[:0], ct.commandHistory[history]...)
					ct.cursor = len(ct.input)
				}
			case easyterm.CursorDown:
				if history < len(ct.commandHistory)-1 {
					history++
					ct.input = append(ct.input[:0], ct.commandHistory[history]...)
					ct.cursor = len(ct.input)
				} else if history == len(ct.commandHistory)-1 {
					history++
					ct.input = append(ct.input[:0], buffInput...)
					ct.cursor = len(ct.input)
				}
			case easyterm.CursorForward:
				if ct.cursor < len(ct.input) {
					ct.cursor++
				}
			case easyterm.CursorBackward:
				if ct.cursor > 0 {
					ct.cursor--
				}
			case easyterm.EscDelete:
				// the delete sequence ends with a tilde
				ct.crit.Unlock()
				_, _, err := ct.reader.ReadRune()
				if err != nil {
					return "", err
				}
				ct.crit.Lock()
				if ct.cursor < len(ct.input) {
					ct.input = append(ct.input[:ct.cursor], ct.input[ct.cursor+1:]...)
					history = len(ct.commandHistory)
				}
			}

		case easyterm.KeyBackspace, '\b':
			if ct.cursor > 0 {
				ct.input = append(ct.input[:ct.cursor-1], ct.input[ct.cursor:]...)
				ct.cursor--
				history = len(ct.commandHistory)
			}

		default:
			if unicode.IsPrint(r) {
				ct.input = append(ct.input, 0)
				copy(ct.input[ct.cursor+1:], ct.input[ct.cursor:])
				ct.input[ct.cursor] = r
				ct.cursor++
				history = len(ct.commandHistory)
			}
		}

		ct.redraw()
		ct.crit.Unlock()
	}
}
