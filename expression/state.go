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
	lua "github.com/yuin/gopher-lua"
)

// newState creates a Lua state with the base, string and math libraries and
// with nothing that can reach the filesystem.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	lua.OpenBase(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}

	registerBitwise(L)

	return L
}

func registerBitwise(L *lua.LState) {
	binary := func(op func(a, b uint32) uint32) lua.LGFunction {
		return func(L *lua.LState) int {
			a := uint32(L.CheckInt64(1))
			b := uint32(L.CheckInt64(2))
			L.Push(lua.LNumber(op(a, b)))
			return 1
		}
	}

	L.SetGlobal("band", L.NewFunction(binary(func(a, b uint32) uint32 { return a & b })))
	L.SetGlobal("bor", L.NewFunction(binary(func(a, b uint32) uint32 { return a | b })))
	L.SetGlobal("bxor", L.NewFunction(binary(func(a, b uint32) uint32 { return a ^ b })))
	L.SetGlobal("lshift", L.NewFunction(binary(func(a, b uint32) uint32 { return a << (b & 31) })))
	L.SetGlobal("rshift", L.NewFunction(binary(func(a, b uint32) uint32 { return a >> (b & 31) })))
	L.SetGlobal("bnot", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(^uint32(L.CheckInt64(1))))
		return 1
	}))
}
