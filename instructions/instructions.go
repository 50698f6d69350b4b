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

package instructions

import "fmt"

// Opcodes that are referred to by name elsewhere in the debugger.
const (
	JSR = 0x20
	JMP = 0x4c
	RTS = 0x60
)

// Definition defines each instruction in the instruction set; one per opcode.
type Definition struct {
	OpCode         uint8
	Mnemonic       string
	Bytes          int
	Cycles         int
	AddressingMode AddressingMode
	PageSensitive  bool
	Effect         Category
	Undocumented   bool
}

func (defn Definition) String() string {
	return fmt.Sprintf("%02x %s +%dbytes (%d cycles) [mode=%s pagesens=%t effect=%s]",
		defn.OpCode, defn.Mnemonic, defn.Bytes, defn.Cycles, defn.AddressingMode, defn.PageSensitive, defn.Effect)
}

// IsBranch returns true if instruction is a branch instruction.
func (defn Definition) IsBranch() bool {
	return defn.AddressingMode == Relative && defn.Effect == Flow
}

// IsJam returns true if the instruction halts the CPU.
func (defn Definition) IsJam() bool {
	return defn.Mnemonic == "KIL"
}

// Definitions is the table of all 256 instruction definitions, indexed by
// opcode.
var Definitions [256]Definition

// MaxBytes is the length of the longest instruction.
const MaxBytes = 3

var mnemonics = [256]string{
	"BRK", "ORA", "KIL", "SLO", "NOP", "ORA", "ASL", "SLO", "PHP", "ORA", "ASL", "ANC", "NOP", "ORA", "ASL", "SLO",
	"BPL", "ORA", "KIL", "SLO", "NOP", "ORA", "ASL", "SLO", "CLC", "ORA", "NOP", "SLO", "NOP", "ORA", "ASL", "SLO",
	"JSR", "AND", "KIL", "RLA", "BIT", "AND", "ROL", "RLA", "PLP", "AND", "ROL", "ANC", "BIT", "AND", "ROL", "RLA",
	"BMI", "AND", "KIL", "RLA", "NOP", "AND", "ROL", "RLA", "SEC", "AND", "NOP", "RLA", "NOP", "AND", "ROL", "RLA",
	"RTI", "EOR", "KIL", "SRE", "NOP", "EOR", "LSR", "SRE", "PHA", "EOR", "LSR", "ALR", "JMP", "EOR", "LSR", "SRE",
	"BVC", "EOR", "KIL", "SRE", "NOP", "EOR", "LSR", "SRE", "CLI", "EOR", "NOP", "SRE", "NOP", "EOR", "LSR", "SRE",
	"RTS", "ADC", "KIL", "RRA", "NOP", "ADC", "ROR", "RRA", "PLA", "ADC", "ROR", "ARR", "JMP", "ADC", "ROR", "RRA",
	"BVS", "ADC", "KIL", "RRA", "NOP", "ADC", "ROR", "RRA", "SEI", "ADC", "NOP", "RRA", "NOP", "ADC", "ROR", "RRA",
	"NOP", "STA", "NOP", "SAX", "STY", "STA", "STX", "SAX", "DEY", "NOP", "TXA", "XAA", "STY", "STA", "STX", "SAX",
	"BCC", "STA", "KIL", "AHX", "STY", "STA", "STX", "SAX", "TYA", "STA", "TXS", "TAS", "SHY", "STA", "SHX", "AHX",
	"LDY", "LDA", "LDX", "LAX", "LDY", "LDA", "LDX", "LAX", "TAY", "LDA", "TAX", "LAX", "LDY", "LDA", "LDX", "LAX",
	"BCS", "LDA", "KIL", "LAX", "LDY", "LDA", "LDX", "LAX", "CLV", "LDA", "TSX", "LAS", "LDY", "LDA", "LDX", "LAX",
	"CPY", "CMP", "NOP", "DCP", "CPY", "CMP", "DEC", "DCP", "INY", "CMP", "DEX", "AXS", "CPY", "CMP", "DEC", "DCP",
	"BNE", "CMP", "KIL", "DCP", "NOP", "CMP", "DEC", "DCP", "CLD", "CMP", "NOP", "DCP", "NOP", "CMP", "DEC", "DCP",
	"CPX", "SBC", "NOP", "ISC", "CPX", "SBC", "INC", "ISC", "INX", "SBC", "NOP", "SBC", "CPX", "SBC", "INC", "ISC",
	"BEQ", "SBC", "KIL", "ISC", "NOP", "SBC", "INC", "ISC", "SED", "SBC", "NOP", "ISC", "NOP", "SBC", "INC", "ISC",
}

// base cycle counts. page sensitive instructions take one more cycle when a
// page boundary is crossed and branches take one or two more when taken
var cycles = [256]int{
	7, 6, 0, 8, 3, 3, 5, 5, 3, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	6, 6, 0, 8, 3, 3, 5, 5, 4, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	6, 6, 0, 8, 3, 3, 5, 5, 3, 2, 2, 2, 3, 4, 6, 6,
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	6, 6, 0, 8, 3, 3, 5, 5, 4, 2, 2, 2, 5, 4, 6, 6,
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4,
	2, 6, 0, 6, 4, 4, 4, 4, 2, 5, 2, 5, 5, 5, 5, 5,
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4,
	2, 5, 0, 5, 4, 4, 4, 4, 2, 4, 2, 4, 4, 4, 4, 4,
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
}

var documented = map[string]bool{
	"ADC": true, "AND": true, "ASL": true, "BCC": true, "BCS": true, "BEQ": true, "BIT": true, "BMI": true,
	"BNE": true, "BPL": true, "BRK": true, "BVC": true, "BVS": true, "CLC": true, "CLD": true, "CLI": true,
	"CLV": true, "CMP": true, "CPX": true, "CPY": true, "DEC": true, "DEX": true, "DEY": true, "EOR": true,
	"INC": true, "INX": true, "INY": true, "JMP": true, "JSR": true, "LDA": true, "LDX": true, "LDY": true,
	"LSR": true, "NOP": true, "ORA": true, "PHA": true, "PHP": true, "PLA": true, "PLP": true, "ROL": true,
	"ROR": true, "RTI": true, "RTS": true, "SBC": true, "SEC": true, "SED": true, "SEI": true, "STA": true,
	"STX": true, "STY": true, "TAX": true, "TAY": true, "TSX": true, "TXA": true, "TXS": true, "TYA": true,
}

// the addressing mode of an opcode follows from its column (low nibble) and
// whether the row (high nibble) is odd or even. the exceptions are dealt with
// explicitly
func addressingMode(op uint8) AddressingMode {
	row := op >> 4
	col := op & 0x0f
	odd := row&0x01 == 0x01

	switch op {
	case 0x20:
		return Absolute
	case 0x6c:
		return Indirect
	case 0x96, 0x97, 0xb6, 0xb7:
		return ZeroPageIndexedY
	case 0x9e, 0x9f, 0xbe, 0xbf:
		return AbsoluteIndexedY
	}

	switch col {
	case 0x00:
		if odd {
			return Relative
		}
		if row >= 0x08 {
			return Immediate
		}
		return Implied
	case 0x01, 0x03:
		if odd {
			return IndirectIndexed
		}
		return IndexedIndirect
	case 0x02:
		if !odd && row >= 0x08 {
			return Immediate
		}
		return Implied
	case 0x04, 0x05, 0x06, 0x07:
		if odd {
			return ZeroPageIndexedX
		}
		return ZeroPage
	case 0x08, 0x0a:
		return Implied
	case 0x09, 0x0b:
		if odd {
			return AbsoluteIndexedY
		}
		return Immediate
	}

	// columns 0x0c to 0x0f
	if odd {
		return AbsoluteIndexedX
	}
	return Absolute
}

func effect(op uint8, mnemonic string, mode AddressingMode) Category {
	switch mnemonic {
	case "BRK", "RTI":
		return Interrupt
	case "JSR", "RTS":
		return Subroutine
	case "JMP", "BPL", "BMI", "BVC", "BVS", "BCC", "BCS", "BNE", "BEQ":
		return Flow
	case "STA", "STX", "STY", "SAX", "AHX", "SHX", "SHY", "TAS":
		return Write
	case "ASL", "LSR", "ROL", "ROR":
		if mode == Implied {
			return Read
		}
		return Modify
	case "INC", "DEC", "SLO", "RLA", "SRE", "RRA", "DCP", "ISC":
		return Modify
	}
	return Read
}

func init() {
	for i := range Definitions {
		op := uint8(i)
		mnemonic := mnemonics[op]
		mode := addressingMode(op)
		eff := effect(op, mnemonic, mode)

		defn := Definition{
			OpCode:         op,
			Mnemonic:       mnemonic,
			Bytes:          1 + mode.OperandBytes(),
			Cycles:         cycles[op],
			AddressingMode: mode,
			Effect:         eff,
			Undocumented:   !documented[mnemonic] || (mnemonic == "NOP" && op != 0xea) || op == 0xeb,
		}

		// KIL opcodes advance by one byte regardless of their nominal mode
		if mnemonic == "KIL" {
			defn.Bytes = 1
			defn.AddressingMode = Implied
		}

		switch mode {
		case AbsoluteIndexedX, AbsoluteIndexedY, IndirectIndexed:
			defn.PageSensitive = eff == Read
		}

		Definitions[op] = defn
	}
}
