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

	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/instructions"
	"github.com/jetsetilly/cc65dbg/mapfile"
)

// Entry is a single line of a disassembly listing.
type Entry struct {
	Address uint16
	Bytes   []byte

	// the instruction and operand with a comment naming the symbol the
	// operand refers to, if there is one
	Instruction string

	// the source line that the instruction belongs to. the line number is
	// zero based and the filename may be empty
	Filename string
	Line     int

	Cycles int
}

func (e Entry) String() string {
	b := strings.Builder{}
	for _, v := range e.Bytes {
		b.WriteString(fmt.Sprintf("%02x ", v))
	}
	return fmt.Sprintf("$%04x  %-9s %s", e.Address, b.String(), e.Instruction)
}

// Listing disassembles the memory, which is assumed to begin at the start
// address. Absolute operands are annotated with a label from the debug file or
// failing that, an entry in the map file. Either of dbg or mf can be nil.
func Listing(mem []byte, start uint16, dbg *debugfile.DebugFile, mf *mapfile.Mapfile) []Entry {
	var entries []Entry

	OpCodeFind(mem, func(ins Instruction) bool {
		address := start + uint16(ins.Offset)

		e := Entry{
			Address:     address,
			Bytes:       ins.Bytes(),
			Instruction: ins.Format(address),
			Line:        -1,
		}

		if !ins.Truncated() {
			e.Cycles = ins.Defn.Cycles
		}

		if len(ins.Operand) == 2 && ins.Defn.AddressingMode != instructions.Relative {
			if name := symbolName(ins.OperandValue(), dbg, mf); name != "" {
				e.Instruction = fmt.Sprintf("%-14s ; %s", e.Instruction, name)
			}
		}

		if dbg != nil {
			if ln := dbg.LineFromAddress(int(address)); ln != nil {
				if ln.File != nil {
					e.Filename = ln.File.Name
				}
				e.Line = ln.Num
			}
		}

		entries = append(entries, e)
		return false
	})

	return entries
}

func symbolName(address uint16, dbg *debugfile.DebugFile, mf *mapfile.Mapfile) string {
	if dbg != nil {
		if labs := dbg.LabelsAtAddress(int(address)); len(labs) > 0 {
			return labs[0].Name
		}
	}
	if mf != nil {
		if e, ok := mf.FindAddress(address); ok {
			return e.Name
		}
	}
	return ""
}

// TotalCycles returns the sum of the base cycles of the listing.
func TotalCycles(entries []Entry) int {
	var n int
	for _, e := range entries {
		n += e.Cycles
	}
	return n
}
