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
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jetsetilly/cc65dbg/curated"
	lua "github.com/yuin/gopher-lua"
)

// the longest time an expression may run for
const timeout = time.Second

// Resolver returns the value of an identifier chain. The boolean is false if
// the chain doesn't name anything.
type Resolver func(ctx context.Context, chain []string) (int, bool, error)

// Value is the result of an expression.
type Value struct {
	lv lua.LValue
}

// Nil is true if the expression produced no value.
func (v Value) Nil() bool {
	return v.lv == nil || v.lv == lua.LNil
}

// Number returns the value as a number. The boolean is false if the value is
// not a number.
func (v Value) Number() (float64, bool) {
	if n, ok := v.lv.(lua.LNumber); ok {
		return float64(n), true
	}
	return 0, false
}

// Truthy is true for the boolean true and for non-zero numbers. Strings are
// true if they are not empty.
func (v Value) Truthy() bool {
	switch lv := v.lv.(type) {
	case lua.LBool:
		return bool(lv)
	case lua.LNumber:
		return lv != 0
	case lua.LString:
		return lv != ""
	}
	return false
}

func (v Value) String() string {
	switch lv := v.lv.(type) {
	case lua.LNumber:
		f := float64(lv)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%g", f)
	case nil:
		return "nil"
	}
	return v.lv.String()
}

// Evaluate runs the expression. Identifiers are resolved with the resolver,
// which may be nil if the expression is not expected to name variables.
func Evaluate(ctx context.Context, exp string, r Resolver) (Value, error) {
	tr, err := translate(exp)
	if err != nil {
		return Value{}, err
	}

	L := newState()
	defer L.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, ref := range tr.refs {
		lv, err := resolve(ctx, L, r, ref.chain)
		if err != nil {
			return Value{}, err
		}
		L.SetGlobal(ref.global, lv)
	}

	L.SetContext(ctx)

	fn, err := L.LoadString("return " + tr.lua)
	if err != nil {
		return Value{}, curated.Errorf(SyntaxError, err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return Value{}, curated.Errorf(SyntaxError, err)
	}

	lv := L.Get(-1)
	L.Pop(1)

	return Value{lv: lv}, nil
}

// resolve finds the value of a chain. Chains that the resolver doesn't know
// are looked up in the Lua globals, so that math.pi can be used.
func resolve(ctx context.Context, L *lua.LState, r Resolver, chain []string) (lua.LValue, error) {
	if r != nil {
		v, ok, err := r(ctx, chain)
		if err != nil {
			return lua.LNil, err
		}
		if ok {
			return lua.LNumber(v), nil
		}
	}

	lv := L.GetGlobal(chain[0])
	for _, p := range chain[1:] {
		t, ok := lv.(*lua.LTable)
		if !ok {
			lv = lua.LNil
			break
		}
		lv = t.RawGetString(p)
	}

	if lv == lua.LNil {
		return lua.LNil, curated.Errorf(UnknownIdentifier, strings.Join(chain, "."))
	}

	return lv, nil
}

var template = regexp.MustCompile(`\{([^{}]*)\}`)

// Interpolate replaces every {expression} in the template with its value.
// An expression that fails is replaced by its error.
func Interpolate(ctx context.Context, tmpl string, r Resolver) string {
	return template.ReplaceAllStringFunc(tmpl, func(m string) string {
		exp := strings.TrimSpace(m[1 : len(m)-1])
		if exp == "" {
			return m
		}
		v, err := Evaluate(ctx, exp, r)
		if err != nil {
			return err.Error()
		}
		return v.String()
	})
}
