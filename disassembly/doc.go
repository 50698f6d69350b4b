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

// Package disassembly decodes 6502 machine code. OpCodeFind() is the basic
// walker and is used both to list every instruction in a buffer and to find
// the first instruction that satisfies a condition.
//
// The remaining functions in the package use the debug symbol and linker map
// information to relate instructions to source lines and to label addresses
// with symbol names.
package disassembly
