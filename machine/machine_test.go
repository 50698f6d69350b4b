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

package machine_test

import (
	"testing"

	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/test"
)

func TestFromLibrary(t *testing.T) {
	m, ok := machine.FromLibrary("/usr/share/cc65/lib/c64.lib")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, m, machine.C64)

	m, ok = machine.FromLibrary(`C:\cc65\lib\cbm510.lib`)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, m, machine.CBM5x0)

	m, ok = machine.FromLibrary("/usr/share/cc65/lib/atari.lib")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, m, machine.C64)

	_, ok = machine.FromLibrary("mylib.lib")
	test.ExpectFailure(t, ok)
}

func TestProgram(t *testing.T) {
	test.ExpectSuccess(t, machine.ProgramFiletypes.MatchString("hello.c64"))
	test.ExpectSuccess(t, machine.ProgramFiletypes.MatchString("disk.d64"))
	test.ExpectSuccess(t, machine.ProgramFiletypes.MatchString("HELLO.PRG"))
	test.ExpectFailure(t, machine.ProgramFiletypes.MatchString("hello.c"))

	test.ExpectEquality(t, machine.FromProgram("hello.vic20"), machine.VIC20)
	test.ExpectEquality(t, machine.FromProgram("hello.prg"), machine.Unknown)
}

func TestSerialRoutine(t *testing.T) {
	a, ok := machine.C64.SerialRoutine()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, a, uint16(0xedab))

	_, ok = machine.NES.SerialRoutine()
	test.ExpectFailure(t, ok)
	_, ok = machine.Apple2.SerialRoutine()
	test.ExpectFailure(t, ok)
}
