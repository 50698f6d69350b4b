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

// Package instructions defines the table of 6502 instructions. The table
// includes the undocumented opcodes because programs compiled by cc65 can be
// linked with hand written assembly that uses them, and because a stream of
// data misread as code must still decode to something sensible.
//
// The table is indexed by opcode:
//
//	defn := instructions.Definitions[0xa9]
//	defn.Mnemonic == "LDA"
//	defn.AddressingMode == instructions.Immediate
//	defn.Bytes == 2
//
// The KIL (or JAM) opcodes halt the CPU. They are given a length of one byte
// so that a disassembler walking through memory always advances.
package instructions
