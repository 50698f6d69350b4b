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

package disassembly_test

import (
	"strings"
	"testing"

	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/disassembly"
	"github.com/jetsetilly/cc65dbg/mapfile"
	"github.com/jetsetilly/cc65dbg/test"
)

// LDA #$05 ; JSR decsp4 ; INX ; STA $d000 ; RTS
var scopeMem = []byte{0xa9, 0x05, 0x20, 0x10, 0x0b, 0xe8, 0x8d, 0x00, 0xd0, 0x60}

const scopeDbg = `version	major=2,minor=0
file	id=0,name="main.c",size=100,mtime=0x5C8A1E30,mod=0
seg	id=0,name="CODE",start=0x001000,size=0x000A,addrsize=absolute,type=ro
span	id=0,seg=0,start=0,size=10
span	id=1,seg=0,start=0,size=2
span	id=2,seg=0,start=2,size=3
span	id=3,seg=0,start=5,size=1
span	id=4,seg=0,start=6,size=3
span	id=5,seg=0,start=9,size=1
span	id=6,seg=0,start=0,size=5
span	id=7,seg=0,start=5,size=4
span	id=8,seg=0,start=9,size=1
scope	id=0,name="_f",mod=0,size=10,span=0
line	id=0,file=0,line=1,span=6
line	id=1,file=0,line=2,span=7
line	id=2,file=0,line=3,span=8
sym	id=0,name="_f",addrsize=absolute,size=10,scope=0,val=0x1000,seg=0,type=lab
`

const scopeMap = `Exports list by value:
----------------------
decsp4                    000B10 RLA    pusha                     000B20 RLA

Imports list:
`

func scopeSetup(t *testing.T) (*debugfile.DebugFile, *mapfile.Mapfile, *debugfile.Scope) {
	t.Helper()
	dbg, err := debugfile.Parse(scopeDbg, "/src")
	test.DemandSuccess(t, err)
	mf, err := mapfile.Parse(scopeMap)
	test.DemandSuccess(t, err)
	sc := dbg.ScopeByName("_f")
	test.DemandSuccess(t, sc != nil)
	return dbg, mf, sc
}

func TestInstructionSpans(t *testing.T) {
	dbg, _, sc := scopeSetup(t)

	spans := disassembly.GetInstructionSpans(dbg, sc)
	test.DemandEquality(t, len(spans), 5)

	expected := []int{0x1000, 0x1002, 0x1005, 0x1006, 0x1009}
	for i, sp := range spans {
		test.ExpectEquality(t, sp.AbsoluteAddress, expected[i], i)
	}
	test.ExpectEquality(t, spans[2].Size, 1)
}

func TestVerifyScope(t *testing.T) {
	dbg, _, sc := scopeSetup(t)
	test.ExpectSuccess(t, disassembly.VerifyScope(dbg, sc, scopeMem))

	// the first instruction is now a single byte NOP
	modified := append([]byte{0xea}, scopeMem[1:]...)
	test.ExpectFailure(t, disassembly.VerifyScope(dbg, sc, modified))
}

func TestInitializationCompleteLine(t *testing.T) {
	_, mf, sc := scopeSetup(t)

	ln := disassembly.FindInitializationCompleteLine(mf, sc, scopeMem)
	test.DemandSuccess(t, ln != nil)
	test.ExpectEquality(t, ln.Num, 2)
}

func TestStackInitialisation(t *testing.T) {
	for _, n := range []string{"pusha", "pushax", "pusha0", "decsp1", "decsp4", "decsp8", "subysp", "decsp"} {
		test.ExpectSuccess(t, disassembly.StackInitialisation.MatchString(n), n)
	}
	for _, n := range []string{"_decsp4", "_main", "incsp2", "pushwysp", "addysp"} {
		test.ExpectFailure(t, disassembly.StackInitialisation.MatchString(n), n)
	}
}

func TestListing(t *testing.T) {
	dbg, mf, sc := scopeSetup(t)

	l := disassembly.Listing(scopeMem, uint16(sc.CodeSpan.AbsoluteAddress), dbg, mf)
	test.DemandEquality(t, len(l), 5)

	test.ExpectEquality(t, l[0].Instruction, "LDA #$05")
	test.ExpectSuccess(t, strings.HasSuffix(l[1].Instruction, "; decsp4"))
	test.ExpectEquality(t, l[3].Instruction, "STA $d000")
	test.ExpectEquality(t, l[1].Address, uint16(0x1002))
	test.ExpectEquality(t, l[4].Filename, "/src/main.c")
	test.ExpectEquality(t, l[4].Line, 2)

	test.ExpectEquality(t, disassembly.TotalCycles(l), 20)
	test.ExpectSuccess(t, strings.HasPrefix(l[0].String(), "$1000  a9 05"))
}
