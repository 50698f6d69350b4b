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
	"encoding/binary"

	"github.com/jetsetilly/cc65dbg/monitor"
)

// Registers renders the CPU registers as variables. Registers of eight bits
// or less are rendered as unsigned char and wider registers as unsigned int.
// The Address field is the register ID.
func Registers(info *monitor.RegisterInfo, meta *monitor.RegistersAvailableResponse) []Variable {
	if info == nil || meta == nil {
		return nil
	}

	vars := make([]Variable, 0, len(meta.Registers))
	for _, r := range meta.Registers {
		v, ok := info.Value(r.ID)
		if !ok {
			continue
		}

		t := ParseTypeExpression("unsigned char")
		if r.Bits > 8 {
			t = ParseTypeExpression("unsigned int")
		}

		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)

		vars = append(vars, Variable{
			Name:    r.Name,
			Value:   RenderValue(t, b[:]),
			Address: int(r.ID),
		})
	}

	return vars
}
