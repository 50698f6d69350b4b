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

package instructions_test

import (
	"testing"

	"github.com/jetsetilly/cc65dbg/instructions"
	"github.com/jetsetilly/cc65dbg/test"
)

func TestSizes(t *testing.T) {
	for i, defn := range instructions.Definitions {
		test.ExpectEquality(t, int(defn.OpCode), i)
		test.ExpectSuccess(t, defn.Bytes >= 1 && defn.Bytes <= instructions.MaxBytes, defn)
	}

	test.ExpectEquality(t, instructions.Definitions[0x01].Bytes, 2)
	test.ExpectEquality(t, instructions.Definitions[0x5e].Bytes, 3)
	test.ExpectEquality(t, instructions.Definitions[0x0b].Bytes, 2)
	test.ExpectEquality(t, instructions.Definitions[0x93].Bytes, 2)
	test.ExpectEquality(t, instructions.Definitions[instructions.JSR].Bytes, 3)
	test.ExpectEquality(t, instructions.Definitions[instructions.RTS].Bytes, 1)
	test.ExpectEquality(t, instructions.Definitions[0x6c].AddressingMode, instructions.Indirect)
	test.ExpectEquality(t, instructions.Definitions[0xb6].AddressingMode, instructions.ZeroPageIndexedY)
	test.ExpectEquality(t, instructions.Definitions[0xbe].AddressingMode, instructions.AbsoluteIndexedY)
}

func TestJam(t *testing.T) {
	for _, op := range []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xb2, 0xd2, 0xf2} {
		defn := instructions.Definitions[op]
		test.ExpectSuccess(t, defn.IsJam(), op)
		test.ExpectEquality(t, defn.Bytes, 1, op)
	}

	// LDX immediate is not a jam
	test.ExpectFailure(t, instructions.Definitions[0xa2].IsJam())
	test.ExpectEquality(t, instructions.Definitions[0xa2].Bytes, 2)
}

func TestCategories(t *testing.T) {
	test.ExpectSuccess(t, instructions.Definitions[0xd0].IsBranch())
	test.ExpectFailure(t, instructions.Definitions[instructions.JMP].IsBranch())
	test.ExpectEquality(t, instructions.Definitions[instructions.JMP].Effect, instructions.Flow)
	test.ExpectEquality(t, instructions.Definitions[0x8d].Effect, instructions.Write)
	test.ExpectEquality(t, instructions.Definitions[0x0a].Effect, instructions.Read)
	test.ExpectEquality(t, instructions.Definitions[0x0e].Effect, instructions.Modify)
	test.ExpectSuccess(t, instructions.Definitions[0xbd].PageSensitive)
	test.ExpectFailure(t, instructions.Definitions[0x9d].PageSensitive)
	test.ExpectFailure(t, instructions.Definitions[0xea].Undocumented)
	test.ExpectSuccess(t, instructions.Definitions[0x1a].Undocumented)
}
