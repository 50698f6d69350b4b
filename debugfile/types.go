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

package debugfile

import (
	"fmt"
	"time"
)

// Version of the debug file format.
type Version struct {
	Major int
	Minor int
}

// Addrsize is the addressing size of a segment or symbol.
type Addrsize int

// List of valid Addrsize values.
const (
	Absolute Addrsize = iota
	ZeroPage
	Far
)

func parseAddrsize(s string) Addrsize {
	switch s {
	case "zeropage":
		return ZeroPage
	case "far", "long":
		return Far
	}
	return Absolute
}

// SegType indicates whether a segment is read only or read/write.
type SegType int

// List of valid SegType values.
const (
	ReadOnly SegType = iota
	ReadWrite
)

// FileType classifies source files.
type FileType int

// List of valid FileType values.
const (
	Unknown FileType = iota
	Assembly
	C
)

func (t FileType) String() string {
	switch t {
	case Assembly:
		return "asm"
	case C:
		return "c"
	}
	return "unknown"
}

// StorageClass of a C symbol.
type StorageClass int

// List of valid StorageClass values.
const (
	Auto StorageClass = iota
	Ext
	Static
	Register
)

func parseStorageClass(s string) StorageClass {
	switch s {
	case "ext":
		return Ext
	case "static":
		return Static
	case "reg", "register":
		return Register
	}
	return Auto
}

// Lib is a library used when linking the program.
type Lib struct {
	ID   int
	Name string
}

// Mod is an object module.
type Mod struct {
	ID     int
	Name   string
	FileID int
	LibID  int
	Lib    *Lib
}

// Segment is a named region of memory.
type Segment struct {
	ID       int
	Name     string
	OName    string
	Start    int
	Size     int
	OOffs    int
	Addrsize Addrsize
	Type     SegType
}

// Contains returns true if address is inside the segment.
func (seg *Segment) Contains(address int) bool {
	return address >= seg.Start && address < seg.Start+seg.Size
}

func (seg *Segment) String() string {
	return fmt.Sprintf("%s $%04x-$%04x", seg.Name, seg.Start, seg.Start+seg.Size-1)
}

// Span is a contiguous range of memory in a segment.
type Span struct {
	ID    int
	SegID int
	Seg   *Segment

	// start of the span relative to the segment
	Start int

	// start of the span in memory. computed at link time
	AbsoluteAddress int

	Size int
	Type int

	// lines that map onto the span. C lines are sorted ahead of assembly
	// lines
	Lines []*Line
}

// Contains returns true if address is inside the span.
func (sp *Span) Contains(address int) bool {
	return address >= sp.AbsoluteAddress && address < sp.AbsoluteAddress+sp.Size
}

// End returns the address immediately after the span.
func (sp *Span) End() int {
	return sp.AbsoluteAddress + sp.Size
}

// Line is a line in a source file.
type Line struct {
	ID int

	// zero based line number
	Num int

	FileID int
	File   *File
	SpanID int
	Span   *Span

	Type  int
	Count int
}

func (ln *Line) String() string {
	if ln.File == nil {
		return fmt.Sprintf("?:%d", ln.Num+1)
	}
	return fmt.Sprintf("%s:%d", ln.File.Name, ln.Num+1)
}

// IsC returns true if the line belongs to a C source file.
func (ln *Line) IsC() bool {
	return ln.File != nil && ln.File.Type == C
}

// File is a source file.
type File struct {
	ID    int
	Name  string
	Mod   string
	Size  int
	MTime time.Time
	Type  FileType

	// lines sorted by line number
	Lines []*Line
}

// Scope is a function or other lexical scope.
type Scope struct {
	ID   int
	Name string
	Size int

	SpanIDs []int
	Spans   []*Span

	// the span that lies in the CODE segment, if any
	CodeSpan *Span

	// C symbols sorted by offset
	CSyms []*CSym

	// the subset of CSyms that are automatic variables (on the parameter
	// stack)
	Autos []*CSym
}

func (sc *Scope) String() string {
	return sc.Name
}

// CSym is a C symbol. The offset of an automatic variable is relative to the
// parameter stack frame of its scope.
type CSym struct {
	ID      int
	Name    string
	Offs    int
	SC      StorageClass
	ScopeID int
	Scope   *Scope
	SymID   int
	Sym     *Sym
	TypeID  int
}

// Sym is an assembler or linker symbol. Symbols of type "lab" are labels and
// their Val field is an address.
type Sym struct {
	ID       int
	Name     string
	Addrsize Addrsize
	SegID    int
	Seg      *Segment
	ScopeID  int
	Scope    *Scope
	Size     int
	Val      int
	Type     string
}

// IsLabel returns true if symbol is a label.
func (sym *Sym) IsLabel() bool {
	return sym.Type == "lab"
}
