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
	"strings"
)

// Tokens represents tokenised input. Can be used to walk through the input
// string (using Get()) for eas(ier) parsing.
type Tokens struct {
	input  string
	tokens []string
	curr   int
}

func (tk *Tokens) String() string {
	return tk.input
}

// Reset begins the token traversal process from the beginning.
func (tk *Tokens) Reset() {
	tk.curr = 0
}

// IsEnd returns true if we're at the end of the token list.
func (tk Tokens) IsEnd() bool {
	return tk.curr >= len(tk.tokens)
}

// Remainder returns the remaining tokens as a string.
func (tk Tokens) Remainder() string {
	return strings.Join(tk.tokens[tk.curr:], " ")
}

// Remaining returns the count of remaining tokens in the token list.
func (tk Tokens) Remaining() int {
	return len(tk.tokens) - tk.curr
}

// Get returns the next token in the list, and a success boolean. If the end
// of the token list has been reached, the function returns false.
func (tk *Tokens) Get() (string, bool) {
	if tk.curr >= len(tk.tokens) {
		return "", false
	}
	tk.curr++
	return tk.tokens[tk.curr-1], true
}

// Unget walks backwards in the token list.
func (tk *Tokens) Unget() {
	if tk.curr > 0 {
		tk.curr--
	}
}

// Peek returns the next token in the list without advancing the list.
func (tk Tokens) Peek() (string, bool) {
	if tk.curr >= len(tk.tokens) {
		return "", false
	}
	return tk.tokens[tk.curr], true
}

// Until returns the remaining tokens up to, but not including, the first
// token that matches one of the keywords. The keywords are matched case
// insensitively. The matched keyword is left as the next token.
func (tk *Tokens) Until(keywords ...string) string {
	start := tk.curr
	for ; tk.curr < len(tk.tokens); tk.curr++ {
		for _, k := range keywords {
			if strings.EqualFold(tk.tokens[tk.curr], k) {
				return strings.Join(tk.tokens[start:tk.curr], " ")
			}
		}
	}
	return strings.Join(tk.tokens[start:], " ")
}

// TokeniseInput creates and returns a new Tokens instance.
func TokeniseInput(input string) *Tokens {
	input = strings.TrimSpace(input)
	return &Tokens{
		input:  input,
		tokens: tokeniseInput(input),
	}
}

// tokeniseInput divides the input at whitespace. Text inside double quotes
// is a single token with the quotes removed.
func tokeniseInput(input string) []string {
	var toks []string
	var tok strings.Builder
	var quoted bool
	var inToken bool

	for _, r := range input {
		switch {
		case r == '"':
			quoted = !quoted
			inToken = true
		case !quoted && (r == ' ' || r == '\t'):
			if inToken {
				toks = append(toks, tok.String())
				tok.Reset()
				inToken = false
			}
		default:
			tok.WriteRune(r)
			inToken = true
		}
	}

	if inToken {
		toks = append(toks, tok.String())
	}

	return toks
}
