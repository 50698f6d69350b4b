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

package disassembly

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/cc65dbg/instructions"
)

// Instruction is a single decoded instruction.
type Instruction struct {
	// offset into the buffer being walked
	Offset int

	Defn *instructions.Definition

	// the bytes following the opcode byte. for an instruction that is
	// truncated by the end of the buffer the operand will be shorter than the
	// definition requires
	Operand []byte
}

// Truncated returns true if the buffer ended before the instruction was
// complete.
func (ins Instruction) Truncated() bool {
	return len(ins.Operand) < ins.Defn.Bytes-1
}

// OperandValue returns the value of the operand as a 16 bit number. Missing
// bytes of a truncated instruction are treated as zero.
func (ins Instruction) OperandValue() uint16 {
	var v uint16
	for i, b := range ins.Operand {
		v |= uint16(b) << (8 * i)
	}
	return v
}

// Bytes returns the opcode and operand bytes.
func (ins Instruction) Bytes() []byte {
	b := make([]byte, 0, 1+len(ins.Operand))
	b = append(b, ins.Defn.OpCode)
	return append(b, ins.Operand...)
}

// Format the instruction as an assembly language statement. The address is
// the memory location of the instruction and is required for the correct
// display of branch targets.
func (ins Instruction) Format(address uint16) string {
	if ins.Truncated() {
		return fmt.Sprintf("%s ???", ins.Defn.Mnemonic)
	}

	v := ins.OperandValue()

	var operand string
	switch ins.Defn.AddressingMode {
	case instructions.Implied:
		return ins.Defn.Mnemonic
	case instructions.Immediate:
		operand = fmt.Sprintf("#$%02x", v)
	case instructions.Relative:
		target := address + 2 + uint16(int8(uint8(v)))
		operand = fmt.Sprintf("$%04x", target)
	case instructions.Absolute:
		operand = fmt.Sprintf("$%04x", v)
	case instructions.ZeroPage:
		operand = fmt.Sprintf("$%02x", v)
	case instructions.Indirect:
		operand = fmt.Sprintf("($%04x)", v)
	case instructions.IndexedIndirect:
		operand = fmt.Sprintf("($%02x,X)", v)
	case instructions.IndirectIndexed:
		operand = fmt.Sprintf("($%02x),Y", v)
	case instructions.AbsoluteIndexedX:
		operand = fmt.Sprintf("$%04x,X", v)
	case instructions.AbsoluteIndexedY:
		operand = fmt.Sprintf("$%04x,Y", v)
	case instructions.ZeroPageIndexedX:
		operand = fmt.Sprintf("$%02x,X", v)
	case instructions.ZeroPageIndexedY:
		operand = fmt.Sprintf("$%02x,Y", v)
	}

	return fmt.Sprintf("%s %s", ins.Defn.Mnemonic, operand)
}

func (ins Instruction) String() string {
	s := strings.Builder{}
	for _, b := range ins.Bytes() {
		s.WriteString(fmt.Sprintf("%02x ", b))
	}
	return strings.TrimSpace(s.String())
}

// OpCodeFind walks through the buffer one instruction at a time, calling the
// function for each instruction. The walk stops early if the function returns
// true and the instruction that caused the stop is returned.
//
// A buffer that ends part way through an instruction does not cause a panic.
// The final instruction is delivered with a short operand and it is up to the
// caller to check for Truncated() if that matters.
func OpCodeFind(mem []byte, f func(Instruction) bool) (Instruction, bool) {
	cursor := 0
	for cursor < len(mem) {
		defn := &instructions.Definitions[mem[cursor]]

		end := cursor + defn.Bytes
		if end > len(mem) {
			end = len(mem)
		}

		ins := Instruction{
			Offset:  cursor,
			Defn:    defn,
			Operand: mem[cursor+1 : end],
		}

		if f(ins) {
			return ins, true
		}

		cursor += defn.Bytes
	}

	return Instruction{}, false
}

// Decode returns every instruction in the buffer.
func Decode(mem []byte) []Instruction {
	var l []Instruction
	OpCodeFind(mem, func(ins Instruction) bool {
		l = append(l, ins)
		return false
	})
	return l
}

// Cycles counts the number of base cycles for every complete instruction in
// the buffer.
func Cycles(mem []byte) int {
	var n int
	OpCodeFind(mem, func(ins Instruction) bool {
		if !ins.Truncated() {
			n += ins.Defn.Cycles
		}
		return false
	})
	return n
}
