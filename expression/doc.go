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

// Package expression evaluates the C-like expressions used in breakpoint
// conditions, logged breakpoint messages and the print command.
//
// An expression is translated to Lua and run in a restricted gopher-lua
// state. Identifiers, including member chains such as p->x or s.a.b, are
// resolved to numbers by a Resolver before the expression is run. Calls
// are passed to Lua unchanged so the functions of the math library and the
// bitwise helpers band, bor, bxor, bnot, lshift and rshift can be used.
//
// Hex constants may be written as 0xff or $ff. The C operators !=, &&, ||
// and ! are accepted alongside their Lua equivalents.
package expression
