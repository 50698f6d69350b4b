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

package debugfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/test"
)

const sample = `version	major=2,minor=0
info	csym=3,file=3,lib=1,line=6,mod=2,scope=3,seg=3,span=6,sym=4,type=2
file	id=0,name="src/main.c",size=200,mtime=0x5C8A1E30,mod=0
file	id=1,name="src/util.s",size=100,mtime=0x5C8A1E30,mod=1
file	id=2,name="/usr/share/cc65/include/stdio.h",size=300,mtime=0x5C8A1E30,mod=0
lib	id=0,name="/usr/share/cc65/lib/c64.lib"
mod	id=0,name="main.o",file=0
mod	id=1,name="util.o",file=1,lib=0
seg	id=0,name="CODE",start=0x000810,size=0x0040,addrsize=absolute,type=ro,oname="hello.c64",ooffs=17
seg	id=1,name="ZEROPAGE",start=0x000002,size=0x001A,addrsize=zeropage,type=rw
seg	id=2,name="DATA",start=0x000900,size=0x0010,addrsize=absolute,type=rw,oname="hello.c64",ooffs=257
span	id=0,seg=0,start=0,size=32,type=0
span	id=1,seg=0,start=4,size=3
span	id=2,seg=0,start=7,size=010
span	id=3,seg=0,start=32,size=32
span	id=4,seg=0,start=40,size=2
span	id=5,seg=2,start=0,size=2
scope	id=0,name="",mod=0,size=64
scope	id=1,name="_main",mod=0,type=scope,size=32,parent=0,sym=0,span=0
scope	id=2,name="_helper",mod=0,type=scope,size=32,parent=0,sym=1,span=3
csym	id=0,name="b",scope=1,type=0,sc=auto,offs=2
csym	id=1,name="a",scope=1,type=0,sc=auto,offs=0
csym	id=2,name="counter",scope=1,type=1,sc=static,sym=3
line	id=0,file=0,line=5,span=1
line	id=1,file=0,line=6,span=2
line	id=2,file=1,line=20,span=1,type=1
line	id=3,file=0,line=10,span=4
line	id=4,file=0,line=1
line	id=5,file=1,line=3,span=3
sym	id=0,name="_main",addrsize=absolute,size=32,scope=0,def=1,ref=2,val=0x810,seg=0,type=lab
sym	id=1,name="_helper",addrsize=absolute,scope=0,def=3,val=0x830,seg=0,type=lab
sym	id=2,name="sp",addrsize=zeropage,scope=0,def=4,type=imp
sym	id=3,name="_counter",addrsize=absolute,scope=0,def=5,val=0x900,seg=2,type=lab
type	id=0,val="800420"
type	id=1,val="800520"
`

func parseSample(t *testing.T) *debugfile.DebugFile {
	t.Helper()
	dbg, err := debugfile.Parse(sample, "/home/user/hello")
	test.DemandSuccess(t, err)
	return dbg
}

func TestParse(t *testing.T) {
	dbg := parseSample(t)

	test.ExpectEquality(t, dbg.Version, debugfile.Version{Major: 2, Minor: 0})
	test.ExpectEquality(t, len(dbg.Files), 3)
	test.ExpectEquality(t, len(dbg.Segs), 3)
	test.ExpectEquality(t, len(dbg.Spans), 6)
	test.ExpectEquality(t, len(dbg.Syms), 4)
	test.ExpectEquality(t, len(dbg.Labs), 3)

	// leading zeroes are decimal and not octal
	var span2 *debugfile.Span
	for _, sp := range dbg.Spans {
		if sp.ID == 2 {
			span2 = sp
		}
	}
	test.DemandSuccess(t, span2 != nil)
	test.ExpectEquality(t, span2.Size, 10)
	test.ExpectEquality(t, span2.AbsoluteAddress, 0x0817)

	test.DemandSuccess(t, dbg.CodeSeg != nil)
	test.ExpectEquality(t, dbg.CodeSeg.Name, "CODE")
	test.ExpectEquality(t, dbg.CodeSeg.Type, debugfile.ReadOnly)
	test.ExpectEquality(t, dbg.Segs[1].Type, debugfile.ReadWrite)
	test.ExpectEquality(t, dbg.Segs[1].Addrsize, debugfile.ZeroPage)

	test.ExpectEquality(t, dbg.MachineType, machine.C64)
	test.DemandSuccess(t, dbg.SystemLib != nil)
	test.ExpectEquality(t, dbg.Mods[1].Lib, dbg.SystemLib)
}

func TestFiles(t *testing.T) {
	dbg := parseSample(t)

	// C files are sorted ahead of assembly files
	test.ExpectEquality(t, dbg.Files[0].Name, "/home/user/hello/src/main.c")
	test.ExpectEquality(t, dbg.Files[0].Type, debugfile.C)
	test.ExpectEquality(t, dbg.Files[1].Name, "/usr/share/cc65/include/stdio.h")
	test.ExpectEquality(t, dbg.Files[2].Type, debugfile.Assembly)

	fl := dbg.FindFile("src/main.c")
	test.DemandSuccess(t, fl != nil)
	test.ExpectEquality(t, len(fl.Lines), 4)

	// line numbers are zero based
	test.ExpectEquality(t, fl.Lines[0].Num, 0)
	test.ExpectEquality(t, fl.Lines[1].Num, 4)

	// only lines with a span are returned
	test.ExpectEquality(t, len(dbg.LinesForFile("src/main.c")), 3)

	ln := dbg.FindLine("src/main.c", 6)
	test.DemandSuccess(t, ln != nil)
	test.ExpectEquality(t, ln.Num, 9)
	test.ExpectEquality(t, ln.Span.AbsoluteAddress, 0x0838)

	test.ExpectSuccess(t, dbg.FindFile("nothing.c") == nil)
}

func TestScopes(t *testing.T) {
	dbg := parseSample(t)

	test.DemandSuccess(t, dbg.MainScope != nil)
	test.DemandSuccess(t, dbg.MainLab != nil)
	test.ExpectEquality(t, dbg.EntryAddress, 0x0810)

	test.DemandEquality(t, len(dbg.MainScope.Autos), 2)
	test.ExpectEquality(t, dbg.MainScope.Autos[0].Name, "a")
	test.ExpectEquality(t, dbg.MainScope.Autos[1].Name, "b")
	test.ExpectEquality(t, len(dbg.MainScope.CSyms), 3)
	test.DemandSuccess(t, dbg.MainScope.CSyms[1].Sym != nil)
	test.ExpectEquality(t, dbg.MainScope.CSyms[1].Sym.Name, "_counter")

	// scopes with code are sorted ahead, highest address first
	test.ExpectEquality(t, dbg.Scopes[0].Name, "_helper")
	test.ExpectEquality(t, dbg.Scopes[1].Name, "_main")
	test.ExpectSuccess(t, dbg.Scopes[2].CodeSpan == nil)

	test.ExpectEquality(t, dbg.ScopeFromAddress(0x0815), dbg.MainScope)
	test.ExpectEquality(t, dbg.ScopeFromAddress(0x0840).Name, "_helper")
	test.ExpectSuccess(t, dbg.ScopeFromAddress(0x0900) == nil)
}

func TestSpans(t *testing.T) {
	dbg := parseSample(t)

	// highest address first and then smallest size first
	for i := 1; i < len(dbg.Spans); i++ {
		a := dbg.Spans[i-1]
		b := dbg.Spans[i]
		test.ExpectSuccess(t, a.AbsoluteAddress > b.AbsoluteAddress ||
			(a.AbsoluteAddress == b.AbsoluteAddress && a.Size <= b.Size))
	}

	// the enclosing span of _main gathers the lines of the spans it contains.
	// C lines come before assembly lines
	sc := dbg.MainScope.CodeSpan
	test.DemandEquality(t, len(sc.Lines), 3)
	test.ExpectEquality(t, sc.Lines[0].Num, 4)
	test.ExpectEquality(t, sc.Lines[1].Num, 5)
	test.ExpectEquality(t, sc.Lines[2].Num, 19)

	// a line is never duplicated in its own span
	for _, sp := range dbg.Spans {
		seen := make(map[*debugfile.Line]bool)
		for _, ln := range sp.Lines {
			test.ExpectFailure(t, seen[ln])
			seen[ln] = true
		}
	}
}

func TestLineFromAddress(t *testing.T) {
	dbg := parseSample(t)

	ln := dbg.LineFromAddress(0x0814)
	test.DemandSuccess(t, ln != nil)
	test.ExpectEquality(t, ln.Num, 4)

	ln = dbg.LineFromAddress(0x0818)
	test.DemandSuccess(t, ln != nil)
	test.ExpectEquality(t, ln.Num, 5)

	ln = dbg.LineFromAddress(0x083a)
	test.DemandSuccess(t, ln != nil)
	test.ExpectEquality(t, ln.Num, 9)
	test.ExpectEquality(t, ln.String(), "/home/user/hello/src/main.c:10")
}

func TestSymbols(t *testing.T) {
	dbg := parseSample(t)

	// sorted by segment, descending
	test.ExpectEquality(t, dbg.Syms[0].Name, "_counter")
	test.ExpectEquality(t, dbg.Labs[0].Name, "_counter")

	lab := dbg.LabelByName("_helper")
	test.DemandSuccess(t, lab != nil)
	test.ExpectEquality(t, lab.Val, 0x0830)
	test.ExpectEquality(t, len(dbg.LabelsAtAddress(0x0830)), 1)
	test.ExpectEquality(t, dbg.SymbolByID(2).Addrsize, debugfile.ZeroPage)
}

func TestEmpty(t *testing.T) {
	_, err := debugfile.Parse("", "/")
	test.ExpectFailure(t, err)
}

func TestFindDebugFile(t *testing.T) {
	dir := t.TempDir()
	program := filepath.Join(dir, "hello.c64")
	test.DemandSuccess(t, os.WriteFile(program, []byte{0x01, 0x08}, 0o644))
	test.DemandSuccess(t, os.WriteFile(filepath.Join(dir, "hello.c64.dbg"), []byte(sample), 0o644))

	fn, err := debugfile.FindDebugFile(program)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, fn, filepath.Join(dir, "hello.c64.dbg"))

	dbg, err := debugfile.Load(fn, dir)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, dbg.EntryAddress, 0x0810)

	_, err = debugfile.FindDebugFile(filepath.Join(dir, "other.c64"))
	test.ExpectFailure(t, err)
}
