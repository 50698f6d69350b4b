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


package expression

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/jetsetilly/cc65dbg/curated"
)

// Sentinel errors.
const (
	SyntaxError       = "expression: %v"
	UnknownIdentifier = "expression: unknown identifier %s"
	UnsupportedOp     = "expression: unsupported operator %s"
)

// words that are passed to Lua as they are
var keywords = map[string]bool{
	"and":   true,
	"or":    true,
	"not":   true,
	"true":  true,
	"false": true,
	"nil":   true,
}

// reference is an identifier chain found in an expression.
type reference struct {
	chain []string

	// the Lua global the chain is replaced by
	global string
}

// translation is an expression rewritten as Lua.
type translation struct {
	lua  string
	refs []reference
}

func isIdentStart(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdent(r byte) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isHex(r byte) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// translate rewrites a C-like expression as a Lua expression.
func translate(exp string) (translation, error) {
	var tr translation
	var s strings.Builder

	// index of each distinct chain in refs
	seen := make(map[string]int)

	i := 0
	for i < len(exp) {
		c := exp[i]

		switch {
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(exp) && exp[j] != c {
				if exp[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(exp) {
				return tr, curated.Errorf(SyntaxError, "unterminated string")
			}
			s.WriteString(exp[i : j+1])
			i = j + 1

		case c == '$':
			j := i + 1
			for j < len(exp) && isHex(exp[j]) {
				j++
			}
			if j == i+1 {
				return tr, curated.Errorf(SyntaxError, "$ without hex digits")
			}
			s.WriteString("0x")
			s.WriteString(exp[i+1 : j])
			i = j

		case c >= '0' && c <= '9':
			j := i
			for j < len(exp) && (isIdent(exp[j]) || exp[j] == '.') {
				j++
			}
			s.WriteString(exp[i:j])
			i = j

		case isIdentStart(c):
			chain, j := scanChain(exp, i)

			// calls are left for Lua to resolve
			k := j
			for k < len(exp) && exp[k] == ' ' {
				k++
			}
			if (k < len(exp) && exp[k] == '(') || keywords[chain[0]] {
				s.WriteString(strings.Join(chain, "."))
				i = j
				continue
			}

			key := strings.Join(chain, ".")
			n, ok := seen[key]
			if !ok {
				n = len(tr.refs)
				seen[key] = n
				tr.refs = append(tr.refs, reference{
					chain:  chain,
					global: "__ref" + strconv.Itoa(n),
				})
			}
			s.WriteString(tr.refs[n].global)
			i = j

		case strings.HasPrefix(exp[i:], "!="):
			s.WriteString("~=")
			i += 2
		case strings.HasPrefix(exp[i:], "&&"):
			s.WriteString(" and ")
			i += 2
		case strings.HasPrefix(exp[i:], "||"):
			s.WriteString(" or ")
			i += 2
		case strings.HasPrefix(exp[i:], "<<") || strings.HasPrefix(exp[i:], ">>"):
			return tr, curated.Errorf(UnsupportedOp, exp[i:i+2])
		case c == '!':
			s.WriteString(" not ")
			i++
		case c == '&' || c == '|':
			return tr, curated.Errorf(UnsupportedOp, string(c))
		default:
			if c > unicode.MaxASCII {
				return tr, curated.Errorf(SyntaxError, "unexpected character")
			}
			s.WriteByte(c)
			i++
		}
	}

	tr.lua = s.String()
	return tr, nil
}

// scanChain reads an identifier followed by any number of .member or
// ->member parts. It returns the parts and the index after the chain.
func scanChain(exp string, i int) ([]string, int) {
	var chain []string

	for {
		j := i
		for j < len(exp) && isIdent(exp[j]) {
			j++
		}
		chain = append(chain, exp[i:j])
		i = j

		k := i
		for k < len(exp) && exp[k] == ' ' {
			k++
		}
		switch {
		case strings.HasPrefix(exp[k:], "->"):
			k += 2
		case strings.HasPrefix(exp[k:], ".") && !strings.HasPrefix(exp[k:], ".."):
			k++
		default:
			return chain, i
		}
		for k < len(exp) && exp[k] == ' ' {
			k++
		}
		if k >= len(exp) || !isIdentStart(exp[k]) {
			return chain, i
		}
		i = k
	}
}
