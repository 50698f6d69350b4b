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
	"path/filepath"
	"strings"
)

// LineFromAddress returns the source line for an address. The highest span
// starting at or below the address that maps onto a line in a known file is
// used. If there is no such span the span with the highest address is used.
//
// Returns nil if the debug file has no spans or the chosen span has no lines.
func (dbg *DebugFile) LineFromAddress(address int) *Line {
	var span *Span

	for _, sp := range dbg.Spans {
		if sp.AbsoluteAddress <= address && lineWithFile(sp.Lines) != nil {
			span = sp
			break
		}
	}

	if span == nil {
		if len(dbg.Spans) == 0 {
			return nil
		}
		span = dbg.Spans[0]
	}

	return SpanLine(span)
}

// SpanLine returns the preferred line for a span. A line with a file is
// preferred over one without.
func SpanLine(span *Span) *Line {
	if ln := lineWithFile(span.Lines); ln != nil {
		return ln
	}
	if len(span.Lines) > 0 {
		return span.Lines[0]
	}
	return nil
}

func lineWithFile(lines []*Line) *Line {
	for _, ln := range lines {
		if ln.File != nil {
			return ln
		}
	}
	return nil
}

// ScopeFromAddress returns the innermost scope with a code span that contains
// the address. Returns nil if there is no such scope.
func (dbg *DebugFile) ScopeFromAddress(address int) *Scope {
	for _, sc := range dbg.Scopes {
		if sc.CodeSpan != nil && sc.CodeSpan.Contains(address) {
			return sc
		}
	}
	return nil
}

// ScopeByName returns the first scope with the name. Returns nil if there is
// no such scope.
func (dbg *DebugFile) ScopeByName(name string) *Scope {
	for _, sc := range dbg.Scopes {
		if sc.Name == name {
			return sc
		}
	}
	return nil
}

// LabelByName returns the label with the name. Returns nil if there is no
// such label.
func (dbg *DebugFile) LabelByName(name string) *Sym {
	for _, lab := range dbg.Labs {
		if lab.Name == name {
			return lab
		}
	}
	return nil
}

// LabelsAtAddress returns all labels with a value equal to the address.
func (dbg *DebugFile) LabelsAtAddress(address int) []*Sym {
	var labs []*Sym
	for _, lab := range dbg.Labs {
		if lab.Val == address {
			labs = append(labs, lab)
		}
	}
	return labs
}

// SymbolByID returns the symbol with the ID. Returns nil if there is no such
// symbol.
func (dbg *DebugFile) SymbolByID(id int) *Sym {
	for _, sym := range dbg.Syms {
		if sym.ID == id {
			return sym
		}
	}
	return nil
}

// FindFile returns the file record for the filename. The filename can be
// absolute or it can be a suffix of the recorded name. Returns nil if the file
// is unknown.
func (dbg *DebugFile) FindFile(filename string) *File {
	clean := filepath.Clean(filename)
	for _, fl := range dbg.Files {
		if fl.Name == clean {
			return fl
		}
	}

	if filepath.IsAbs(clean) {
		return nil
	}

	suffix := string(filepath.Separator) + clean
	for _, fl := range dbg.Files {
		if strings.HasSuffix(fl.Name, suffix) {
			return fl
		}
	}

	return nil
}

// LinesForFile returns the lines of the named file that map onto memory.
// Returns nil if the file is unknown.
func (dbg *DebugFile) LinesForFile(filename string) []*Line {
	fl := dbg.FindFile(filename)
	if fl == nil {
		return nil
	}

	var lines []*Line
	for _, ln := range fl.Lines {
		if ln.Span != nil {
			lines = append(lines, ln)
		}
	}
	return lines
}

// FindLine returns the line in the file with the zero based line number. If
// the exact line does not map onto memory, the next line after it that does
// is returned. Returns nil if no such line exists.
func (dbg *DebugFile) FindLine(filename string, num int) *Line {
	var best *Line
	for _, ln := range dbg.LinesForFile(filename) {
		if ln.Num < num {
			continue
		}
		if best == nil || ln.Num < best.Num {
			best = ln
		}
	}
	return best
}
