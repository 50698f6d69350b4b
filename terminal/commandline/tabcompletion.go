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


package commandline

import (
	"sort"
	"strings"
)

// Completer returns the candidates for an argument of the type. The
// TabCompletion type filters the candidates by the partial input.
type Completer func(arg ArgType) []string

// TabCompletion keeps track of the most recent tab completion attempt.
type TabCompletion struct {
	cmds      *Commands
	completer Completer

	matches []string
	match   int

	// the input up to the word being completed
	base string

	// the string returned by the most recent call to Complete()
	last string
}

// NewTabCompletion initialises a new TabCompletion instance. The completer
// can be nil in which case only keywords are completed.
func NewTabCompletion(cmds *Commands, completer Completer) *TabCompletion {
	tc := &TabCompletion{cmds: cmds, completer: completer}
	tc.Reset()
	return tc
}

// Complete transforms the input such that the last word in the input is
// expanded to meet the closest match. Repeated calls with the previous
// result cycle through the possible completions.
func (tc *TabCompletion) Complete(input string) string {
	if len(tc.matches) > 0 && input == tc.last {
		tc.match++
		if tc.match >= len(tc.matches) {
			tc.match = 0
		}
		tc.last = tc.base + decorate(tc.matches[tc.match])
		return tc.last
	}

	tc.Reset()

	// the word being completed begins after the last space
	start := strings.LastIndexAny(input, " \t") + 1
	tc.base = input[:start]
	partial := input[start:]

	toks := tokeniseInput(tc.base)

	var candidates []string
	if len(toks) == 0 {
		candidates = tc.cmds.Keywords()
		partial = strings.ToUpper(partial)
	} else {
		cmd, err := tc.cmds.Lookup(toks[0])
		if err != nil || len(toks) > 1 {
			return input
		}
		switch cmd.Arg {
		case ArgNone, ArgAny:
			return input
		case ArgCommand:
			candidates = tc.cmds.Keywords()
			partial = strings.ToUpper(partial)
		default:
			if tc.completer == nil {
				return input
			}
			candidates = tc.completer(cmd.Arg)
		}
	}

	for _, c := range candidates {
		if strings.HasPrefix(c, partial) {
			tc.matches = append(tc.matches, c)
		}
	}

	if len(tc.matches) == 0 {
		return input
	}

	sort.Strings(tc.matches)
	tc.last = tc.base + decorate(tc.matches[0])
	return tc.last
}

// Reset is used to clear an outstanding completion session.
func (tc *TabCompletion) Reset() {
	tc.matches = tc.matches[:0]
	tc.match = 0
	tc.base = ""
	tc.last = ""
}

// a completion is followed by a space unless more input is expected
// immediately after it
func decorate(s string) string {
	if strings.HasSuffix(s, ":") || strings.HasSuffix(s, "/") {
		return s
	}
	return s + " "
}
