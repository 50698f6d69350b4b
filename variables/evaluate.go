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


package variables

import (
	"context"
	"strconv"
	"strings"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/expression"
)

// NotANumber is returned when an expression names a variable whose value
// can't be used in arithmetic.
const NotANumber = "variables: %s is not a number"

// parseValue converts a rendered value back to a number.
func parseValue(s string) (int, bool) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(f[0], 0, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// Resolver returns an expression.Resolver for the variables visible in the
// scope. Registers are matched by name, ignoring case, when no variable has
// the name. The most recently resolved variable is stored in last, which
// may be nil.
func (m *Manager) Resolver(scope *debugfile.Scope, registers []Variable, last *Variable) expression.Resolver {
	var vars []Variable
	var loaded bool

	return func(ctx context.Context, chain []string) (int, bool, error) {
		if !loaded {
			var err error
			vars, err = m.All(ctx, scope)
			if err != nil {
				return 0, false, err
			}
			loaded = true
		}

		v, ok, err := m.match(ctx, chain, vars)
		if err != nil {
			return 0, false, err
		}
		if !ok && len(chain) == 1 {
			for _, r := range registers {
				if strings.EqualFold(r.Name, chain[0]) {
					v, ok = r, true
					break
				}
			}
		}
		if !ok {
			return 0, false, nil
		}

		n, ok := parseValue(v.Value)
		if !ok {
			return 0, false, curated.Errorf(NotANumber, strings.Join(chain, "."))
		}

		if last != nil {
			*last = v
		}

		return n, true, nil
	}
}

// match follows a member chain from the list of variables.
func (m *Manager) match(ctx context.Context, chain []string, vars []Variable) (Variable, bool, error) {
	var v Variable

	for i, part := range chain {
		found := false
		for _, c := range vars {
			if c.Name == part {
				v = c
				found = true
				break
			}
		}
		if !found {
			return v, false, nil
		}

		if i < len(chain)-1 {
			var err error
			vars, err = m.TypeFields(ctx, v.Address, v.Type)
			if err != nil {
				return v, false, err
			}
		}
	}

	return v, true, nil
}

// Evaluate an expression in the scope. The name, address and type of the
// result are those of the last variable named in the expression.
func (m *Manager) Evaluate(ctx context.Context, exp string, scope *debugfile.Scope, registers []Variable) (Variable, error) {
	var last Variable

	res, err := expression.Evaluate(ctx, exp, m.Resolver(scope, registers, &last))
	if err != nil {
		return Variable{}, err
	}

	if !res.Nil() {
		last.Value = res.String()
	}

	return last, nil
}
