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
	"sort"
)

// resolve the ID references between records into pointers
func (dbg *DebugFile) link() {
	libs := make(map[int]*Lib, len(dbg.Libs))
	for _, lib := range dbg.Libs {
		libs[lib.ID] = lib
	}
	segs := make(map[int]*Segment, len(dbg.Segs))
	for _, seg := range dbg.Segs {
		segs[seg.ID] = seg
	}
	scopes := make(map[int]*Scope, len(dbg.Scopes))
	for _, sc := range dbg.Scopes {
		scopes[sc.ID] = sc
	}
	files := make(map[int]*File, len(dbg.Files))
	for _, fl := range dbg.Files {
		files[fl.ID] = fl
	}
	spans := make(map[int]*Span, len(dbg.Spans))
	for _, sp := range dbg.Spans {
		spans[sp.ID] = sp
	}
	syms := make(map[int]*Sym, len(dbg.Syms))
	for _, sym := range dbg.Syms {
		syms[sym.ID] = sym
	}

	for _, mod := range dbg.Mods {
		mod.Lib = libs[mod.LibID]
	}

	for _, sp := range dbg.Spans {
		if seg, ok := segs[sp.SegID]; ok {
			sp.Seg = seg
			sp.AbsoluteAddress = seg.Start + sp.Start
		}
	}

	for _, csym := range dbg.CSyms {
		csym.Sym = syms[csym.SymID]
		sc, ok := scopes[csym.ScopeID]
		if !ok {
			continue
		}
		csym.Scope = sc
		sc.CSyms = append(sc.CSyms, csym)
		if csym.SC == Auto {
			sc.Autos = append(sc.Autos, csym)
		}
	}

	for _, sc := range dbg.Scopes {
		sort.SliceStable(sc.CSyms, func(i, j int) bool {
			return sc.CSyms[i].Offs < sc.CSyms[j].Offs
		})
		sort.SliceStable(sc.Autos, func(i, j int) bool {
			return sc.Autos[i].Offs < sc.Autos[j].Offs
		})

		for _, id := range sc.SpanIDs {
			sp, ok := spans[id]
			if !ok {
				continue
			}
			sc.Spans = append(sc.Spans, sp)
			if dbg.CodeSeg != nil && sp.Seg == dbg.CodeSeg {
				sc.CodeSpan = sp
			}
		}
	}

	for _, ln := range dbg.Lines {
		if fl, ok := files[ln.FileID]; ok {
			ln.File = fl
			fl.Lines = append(fl.Lines, ln)
		}

		sp, ok := spans[ln.SpanID]
		if !ok {
			continue
		}
		ln.Span = sp
		sp.Lines = append(sp.Lines, ln)

		// any other span that covers the start of the line's span also maps
		// onto the line
		for _, other := range dbg.Spans {
			if other != sp && other.Contains(sp.AbsoluteAddress) {
				other.Lines = append(other.Lines, ln)
			}
		}
	}

	for _, sym := range dbg.Syms {
		sym.Seg = segs[sym.SegID]
		sym.Scope = scopes[sym.ScopeID]
	}
}

// C lines ahead of assembly lines, then by line number
func sortLines(lines []*Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		ci := lines[i].File == nil || lines[i].File.Type == C
		cj := lines[j].File == nil || lines[j].File.Type == C
		if ci != cj {
			return ci
		}
		return lines[i].Num < lines[j].Num
	})
}

// the order of the lists is important. address lookups take the first match
// in a list so higher addresses and smaller regions must come first
func (dbg *DebugFile) sort() {
	for _, fl := range dbg.Files {
		sortLines(fl.Lines)
	}
	for _, sp := range dbg.Spans {
		sortLines(sp.Lines)
	}

	sort.SliceStable(dbg.Files, func(i, j int) bool {
		return dbg.Files[i].Type == C && dbg.Files[j].Type != C
	})

	sort.SliceStable(dbg.Scopes, func(i, j int) bool {
		a := dbg.Scopes[i]
		b := dbg.Scopes[j]
		if (a.CodeSpan == nil) != (b.CodeSpan == nil) {
			return a.CodeSpan != nil
		}
		if a.CodeSpan != nil {
			if a.CodeSpan.AbsoluteAddress != b.CodeSpan.AbsoluteAddress {
				return a.CodeSpan.AbsoluteAddress > b.CodeSpan.AbsoluteAddress
			}
			if a.CodeSpan.Size != b.CodeSpan.Size {
				return a.CodeSpan.Size < b.CodeSpan.Size
			}
		}
		return len(a.Autos) > len(b.Autos)
	})

	sort.SliceStable(dbg.Lines, func(i, j int) bool {
		a := dbg.Lines[i]
		b := dbg.Lines[j]
		if (a.Span == nil) != (b.Span == nil) {
			return a.Span != nil
		}
		if a.Span != nil {
			return a.Span.AbsoluteAddress > b.Span.AbsoluteAddress
		}
		return false
	})

	sort.SliceStable(dbg.Spans, func(i, j int) bool {
		a := dbg.Spans[i]
		b := dbg.Spans[j]
		if a.AbsoluteAddress != b.AbsoluteAddress {
			return a.AbsoluteAddress > b.AbsoluteAddress
		}
		return a.Size < b.Size
	})

	sort.SliceStable(dbg.Syms, func(i, j int) bool {
		return dbg.Syms[i].SegID > dbg.Syms[j].SegID
	})
	sort.SliceStable(dbg.Labs, func(i, j int) bool {
		return dbg.Labs[i].SegID > dbg.Labs[j].SegID
	})
}
