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

package callstack

import (
	"regexp"

	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/disassembly"
	"github.com/jetsetilly/cc65dbg/instructions"
	"github.com/jetsetilly/cc65dbg/mapfile"
)

// StackAdjustment matches the names of the runtime routines that the C
// compiler jumps to when leaving a function that has used the parameter
// stack.
var StackAdjustment = regexp.MustCompile(`(?i)^[^_].*sp[0-9]?$`)

// ScopeAddress is an address of interest and the scope it belongs to.
type ScopeAddress struct {
	Scope   *debugfile.Scope
	Address int
}

// StackChanges is the result of the static analysis of a single scope.
type StackChanges struct {
	// addresses at which the parent scope is left
	Exits []ScopeAddress

	// JSR instructions to the start of a known scope. the scope is the
	// scope being called
	Calls []ScopeAddress

	// scopes that are reached with a JMP. the exits of these scopes are
	// exits of the parent scope
	Descendants []*debugfile.Scope
}

// FindStackChangesForScope disassembles the code of the search scope and
// returns the places where the stack of the parent scope changes. The memory
// should contain only the search scope's code.
//
// The search scope and the parent scope are the same except when following
// a JMP into a descendant.
func FindStackChangesForScope(dbg *debugfile.DebugFile, mf *mapfile.Mapfile, search *debugfile.Scope, parent *debugfile.Scope, mem []byte) StackChanges {
	var sc StackChanges

	if search.CodeSpan == nil {
		return sc
	}

	begin := search.CodeSpan.AbsoluteAddress
	end := search.CodeSpan.End()

	var adjustments []mapfile.Entry
	if mf != nil {
		adjustments = mf.Filter(StackAdjustment)
	}
	isAdjustment := func(address uint16) bool {
		for _, e := range adjustments {
			if e.Address == address {
				return true
			}
		}
		return false
	}

	disassembly.OpCodeFind(mem, func(ins disassembly.Instruction) bool {
		address := begin + ins.Offset

		switch ins.Defn.OpCode {
		case instructions.RTS:
			sc.Exits = append(sc.Exits, ScopeAddress{Scope: parent, Address: address})

		case instructions.JMP:
			if ins.Truncated() {
				return false
			}
			target := ins.OperandValue()

			if isAdjustment(target) {
				sc.Exits = append(sc.Exits, ScopeAddress{Scope: parent, Address: address})
				return false
			}

			if int(target) >= begin && int(target) < end {
				return false
			}

			// jumps outside of the CODE segment are ignored
			if dbg.CodeSeg == nil || int(target) < dbg.CodeSeg.Start || int(target) > dbg.CodeSeg.Start+dbg.CodeSeg.Size {
				return false
			}

			if next := scopeWithSpanAt(dbg, int(target)); next != nil {
				sc.Descendants = append(sc.Descendants, next)
				return false
			}

			for _, lab := range dbg.Labs {
				if lab.Val == int(target) && lab.Scope != nil && lab.Scope != parent && lab.Scope != search {
					sc.Descendants = append(sc.Descendants, lab.Scope)
					break
				}
			}

		case instructions.JSR:
			if ins.Truncated() {
				return false
			}
			target := int(ins.OperandValue())
			for _, s := range dbg.Scopes {
				if s.CodeSpan != nil && s.CodeSpan.AbsoluteAddress == target {
					sc.Calls = append(sc.Calls, ScopeAddress{Scope: s, Address: address})
					break
				}
			}
		}

		return false
	})

	return sc
}

func scopeWithSpanAt(dbg *debugfile.DebugFile, address int) *debugfile.Scope {
	for _, s := range dbg.Scopes {
		for _, sp := range s.Spans {
			if sp.AbsoluteAddress == address {
				return s
			}
		}
	}
	return nil
}

// frames is the complete set of interesting addresses for a scope, after
// following descendants.
type frames struct {
	starts []ScopeAddress
	ends   []ScopeAddress
	calls  []ScopeAddress
}

// framesForScope returns the start, exit and call addresses of the parent
// scope. The code is the memory of the entire CODE segment. Returns false if
// the scope contributes nothing.
func framesForScope(dbg *debugfile.DebugFile, mf *mapfile.Mapfile, search *debugfile.Scope, parent *debugfile.Scope, code []byte, visited map[*debugfile.Scope]bool) (frames, bool) {
	var fr frames

	// only scopes created by the C compiler have a frame
	if len(parent.Name) == 0 || parent.Name[0] != '_' {
		return fr, false
	}

	span := search.CodeSpan
	if span == nil || span.Start < 0 || span.Start+span.Size > len(code) {
		return fr, false
	}

	if visited[search] {
		return fr, false
	}
	visited[search] = true

	sc := FindStackChangesForScope(dbg, mf, search, parent, code[span.Start:span.Start+span.Size])

	fr.ends = append(fr.ends, sc.Exits...)

	// a call is recorded against the C line that makes the call
	for _, c := range sc.Calls {
		for _, sp := range dbg.Spans {
			if sp.AbsoluteAddress <= c.Address && spanHasC(sp) {
				c.Address = sp.AbsoluteAddress
				break
			}
		}
		fr.calls = append(fr.calls, c)
	}

	for _, d := range sc.Descendants {
		if dfr, ok := framesForScope(dbg, mf, d, parent, code, visited); ok {
			fr.ends = append(fr.ends, dfr.ends...)
		}
	}

	// fall back to the highest span inside the parent
	if len(fr.ends) == 0 && parent.CodeSpan != nil {
		pcs := parent.CodeSpan
		for _, sp := range dbg.Spans {
			if pcs.Contains(sp.AbsoluteAddress) {
				fr.ends = append(fr.ends, ScopeAddress{Scope: parent, Address: sp.AbsoluteAddress})
				break
			}
		}
	}

	fr.starts = []ScopeAddress{{Scope: parent, Address: span.AbsoluteAddress}}
	fr.ends = uniqueAddresses(fr.ends)
	fr.calls = uniqueAddresses(fr.calls)

	return fr, true
}

func spanHasC(sp *debugfile.Span) bool {
	for _, ln := range sp.Lines {
		if ln.IsC() {
			return true
		}
	}
	return false
}

func uniqueAddresses(l []ScopeAddress) []ScopeAddress {
	seen := make(map[int]bool, len(l))
	u := l[:0]
	for _, a := range l {
		if !seen[a.Address] {
			seen[a.Address] = true
			u = append(u, a)
		}
	}
	return u
}
