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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jetsetilly/cc65dbg/machine"
)

// DebugFile is the parsed and linked contents of a debug information file.
type DebugFile struct {
	Version Version

	Libs   []*Lib
	Mods   []*Mod
	Scopes []*Scope
	CSyms  []*CSym
	Syms   []*Sym
	Labs   []*Sym
	Segs   []*Segment
	Spans  []*Span
	Lines  []*Line
	Files  []*File

	// the segment named CODE
	CodeSeg *Segment

	// the cc65 system library, if one was linked
	SystemLib *Lib

	// machine type inferred from the system library
	MachineType machine.Type

	MainScope *Scope
	MainLab   *Sym

	// address of the _main label, or the start of the CODE segment if there
	// is no _main label
	EntryAddress int
}

// assembly source file extensions. all other files are treated as C
var assemblyFile = regexp.MustCompile(`(?i)\.(s|asm|inc|a65|mac)$`)

// Load and parse a debug file. The build directory is used to resolve relative
// filenames in the file records.
func Load(filename string, buildDir string) (*DebugFile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("debugfile: %w", err)
	}
	defer f.Close()

	dbg, err := parse(bufio.NewScanner(f), buildDir)
	if err != nil {
		return nil, fmt.Errorf("debugfile: %s: %w", filename, err)
	}

	return dbg, nil
}

// Parse the text of a debug file. The build directory is used to resolve
// relative filenames in the file records.
func Parse(text string, buildDir string) (*DebugFile, error) {
	dbg, err := parse(bufio.NewScanner(strings.NewReader(text)), buildDir)
	if err != nil {
		return nil, fmt.Errorf("debugfile: %w", err)
	}
	return dbg, nil
}

// FindDebugFile looks for a debug file in the same directory as the program,
// with a name that begins with the program's base name.
func FindDebugFile(program string) (string, error) {
	dir := filepath.Dir(program)
	base := strings.TrimSuffix(filepath.Base(program), filepath.Ext(program))

	fls, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("debugfile: %w", err)
	}

	for _, f := range fls {
		if !f.IsDir() && filepath.Ext(f.Name()) == ".dbg" && strings.HasPrefix(f.Name(), base) {
			return filepath.Join(dir, f.Name()), nil
		}
	}

	return "", fmt.Errorf("debugfile: no .dbg file for %s", program)
}

type property struct {
	key   string
	value string
}

// split the properties part of a record. values may be quoted. quoted values
// never contain a comma or a quote
func splitProperties(s string) ([]property, error) {
	var props []property
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("malformed property (%s)", p)
		}
		props = append(props, property{
			key:   strings.TrimSpace(k),
			value: strings.Trim(strings.TrimSpace(v), `"`),
		})
	}
	return props, nil
}

// integers in the debug file are decimal unless prefixed with 0x. a leading
// zero does not indicate octal
func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, _ := strconv.ParseInt(s[2:], 16, 64)
		return int(v)
	}
	v, _ := strconv.ParseInt(s, 10, 64)
	return int(v)
}

func parseIntList(s string) []int {
	var l []int
	for _, v := range strings.Split(s, "+") {
		l = append(l, parseInt(v))
	}
	return l
}

func parse(scanner *bufio.Scanner, buildDir string) (*DebugFile, error) {
	dbg := &DebugFile{
		Version: Version{Major: -1, Minor: -1},
	}

	// lines in a debug file can be very long
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records int

	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}

		kind, rest, ok := strings.Cut(s, "\t")
		if !ok {
			kind, rest, ok = strings.Cut(s, " ")
			if !ok {
				continue
			}
		}

		props, err := splitProperties(rest)
		if err != nil {
			return nil, err
		}
		if len(props) == 0 {
			return nil, fmt.Errorf("record has no properties (%s)", s)
		}

		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "version":
			for _, p := range props {
				switch p.key {
				case "major":
					dbg.Version.Major = parseInt(p.value)
				case "minor":
					dbg.Version.Minor = parseInt(p.value)
				}
			}
		case "lib":
			lib := &Lib{}
			for _, p := range props {
				switch p.key {
				case "id":
					lib.ID = parseInt(p.value)
				case "name":
					lib.Name = p.value
				}
			}
			dbg.Libs = append(dbg.Libs, lib)
		case "mod":
			mod := &Mod{FileID: -1, LibID: -1}
			for _, p := range props {
				switch p.key {
				case "id":
					mod.ID = parseInt(p.value)
				case "name":
					mod.Name = p.value
				case "file":
					mod.FileID = parseInt(p.value)
				case "lib":
					mod.LibID = parseInt(p.value)
				}
			}
			dbg.Mods = append(dbg.Mods, mod)
		case "scope":
			scope := &Scope{}
			for _, p := range props {
				switch p.key {
				case "id":
					scope.ID = parseInt(p.value)
				case "size":
					scope.Size = parseInt(p.value)
				case "span":
					scope.SpanIDs = parseIntList(p.value)
				case "name":
					scope.Name = p.value
				}
			}
			dbg.Scopes = append(dbg.Scopes, scope)
		case "csym":
			csym := &CSym{ScopeID: -1, SymID: -1, TypeID: -1}
			for _, p := range props {
				switch p.key {
				case "id":
					csym.ID = parseInt(p.value)
				case "offs":
					csym.Offs = parseInt(p.value)
				case "sc":
					csym.SC = parseStorageClass(p.value)
				case "scope":
					csym.ScopeID = parseInt(p.value)
				case "sym":
					csym.SymID = parseInt(p.value)
				case "type":
					csym.TypeID = parseInt(p.value)
				case "name":
					csym.Name = p.value
				}
			}
			dbg.CSyms = append(dbg.CSyms, csym)
		case "sym":
			sym := &Sym{SegID: -1, ScopeID: -1}
			for _, p := range props {
				switch p.key {
				case "id":
					sym.ID = parseInt(p.value)
				case "name":
					sym.Name = p.value
				case "addrsize":
					sym.Addrsize = parseAddrsize(p.value)
				case "val":
					sym.Val = parseInt(p.value)
				case "size":
					sym.Size = parseInt(p.value)
				case "type":
					sym.Type = p.value
				case "scope":
					sym.ScopeID = parseInt(p.value)
				case "seg":
					sym.SegID = parseInt(p.value)
				}
			}
			dbg.Syms = append(dbg.Syms, sym)
			if sym.IsLabel() {
				dbg.Labs = append(dbg.Labs, sym)
			}
		case "file":
			fl := &File{Type: C}
			for _, p := range props {
				switch p.key {
				case "id":
					fl.ID = parseInt(p.value)
				case "size":
					fl.Size = parseInt(p.value)
				case "mtime":
					fl.MTime = time.Unix(int64(parseInt(p.value)), 0)
				case "mod":
					fl.Mod = p.value
				case "name":
					if filepath.IsAbs(p.value) {
						fl.Name = filepath.Clean(p.value)
					} else {
						fl.Name = filepath.Clean(filepath.Join(buildDir, p.value))
					}
					if assemblyFile.MatchString(fl.Name) {
						fl.Type = Assembly
					} else {
						fl.Type = C
					}
				}
			}
			dbg.Files = append(dbg.Files, fl)
		case "seg":
			seg := &Segment{}
			for _, p := range props {
				switch p.key {
				case "id":
					seg.ID = parseInt(p.value)
				case "name":
					seg.Name = p.value
				case "oname":
					seg.OName = p.value
				case "start":
					seg.Start = parseInt(p.value)
				case "size":
					seg.Size = parseInt(p.value)
				case "ooffs":
					seg.OOffs = parseInt(p.value)
				case "addrsize":
					seg.Addrsize = parseAddrsize(p.value)
				case "type":
					if p.value == "rw" {
						seg.Type = ReadWrite
					}
				}
			}
			dbg.Segs = append(dbg.Segs, seg)
			if seg.Name == "CODE" {
				dbg.CodeSeg = seg
			}
		case "span":
			span := &Span{SegID: -1}
			for _, p := range props {
				switch p.key {
				case "id":
					span.ID = parseInt(p.value)
				case "seg":
					span.SegID = parseInt(p.value)
				case "start":
					span.Start = parseInt(p.value)
				case "size":
					span.Size = parseInt(p.value)
				case "type":
					span.Type = parseInt(p.value)
				}
			}
			dbg.Spans = append(dbg.Spans, span)
		case "line":
			ln := &Line{FileID: -1, SpanID: -1}
			for _, p := range props {
				switch p.key {
				case "id":
					ln.ID = parseInt(p.value)
				case "line":
					ln.Num = parseInt(p.value) - 1
				case "file":
					ln.FileID = parseInt(p.value)
				case "span":
					// a line can map to more than one span. the first is
					// enough to find the others by address
					ln.SpanID = parseIntList(p.value)[0]
				case "type":
					ln.Type = parseInt(p.value)
				case "count":
					ln.Count = parseInt(p.value)
				}
			}
			dbg.Lines = append(dbg.Lines, ln)
		case "info", "type":
			// nothing in these records is used by the debugger
		default:
			continue
		}

		records++
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if records == 0 {
		return nil, fmt.Errorf("debug file doesn't contain any object definitions")
	}

	for _, lib := range dbg.Libs {
		if m, ok := machine.FromLibrary(lib.Name); ok {
			dbg.SystemLib = lib
			dbg.MachineType = m
			break
		}
	}

	dbg.link()
	dbg.sort()

	for _, lab := range dbg.Labs {
		if lab.Name == "_main" {
			dbg.MainLab = lab
			break
		}
	}
	dbg.MainScope = dbg.ScopeByName("_main")

	if dbg.MainLab != nil {
		dbg.EntryAddress = dbg.MainLab.Val
	} else if dbg.CodeSeg != nil {
		dbg.EntryAddress = dbg.CodeSeg.Start
	}

	return dbg, nil
}
