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

package disassembly

import (
	"regexp"

	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/instructions"
	"github.com/jetsetilly/cc65dbg/mapfile"
)

// StackInitialisation matches the names of the runtime routines that the C
// compiler calls in a function prologue to reserve space on the parameter
// stack. C functions carry a leading underscore and never match.
var StackInitialisation = regexp.MustCompile(`(?i)^(pusha.?.?|(dec|sub)y?sp[0-9]?)$`)

// GetInstructionSpans returns the spans of the scope that are likely to
// correspond to individual instructions. The spans are in ascending address
// order and there is at most one span per address.
func GetInstructionSpans(dbg *debugfile.DebugFile, scope *debugfile.Scope) []*debugfile.Span {
	cs := scope.CodeSpan
	if cs == nil {
		return nil
	}

	// spans are sorted by descending address and then by ascending size.
	// the first span at an address is therefore the smallest
	var spans []*debugfile.Span
	var prev *debugfile.Span
	for _, sp := range dbg.Spans {
		if sp.AbsoluteAddress >= cs.End() {
			prev = sp
			continue
		}
		if sp.AbsoluteAddress < cs.AbsoluteAddress {
			break
		}
		if sp.Size <= instructions.MaxBytes && (prev == nil || prev.AbsoluteAddress != sp.AbsoluteAddress) {
			spans = append(spans, sp)
		}
		prev = sp
	}

	for i, j := 0, len(spans)-1; i < j; i, j = i+1, j-1 {
		spans[i], spans[j] = spans[j], spans[i]
	}

	return spans
}

// VerifyScope checks that the memory of a scope matches what the debug file
// says should be there, by comparing the size of each instruction with the
// size of the corresponding instruction span. The memory should contain only
// the scope's code.
func VerifyScope(dbg *debugfile.DebugFile, scope *debugfile.Scope, mem []byte) bool {
	spans := GetInstructionSpans(dbg, scope)

	var i int
	_, mismatch := OpCodeFind(mem, func(ins Instruction) bool {
		if i >= len(spans) || spans[i].Size != ins.Defn.Bytes {
			return true
		}
		i++
		return false
	})

	return !mismatch
}

// FindInitializationCompleteLine returns the first line of the scope after the
// function prologue. The prologue is the code leading up to and including the
// line that calls one of the stack initialisation routines. The memory should
// contain only the scope's code.
//
// Returns nil if no such line can be found.
func FindInitializationCompleteLine(mf *mapfile.Mapfile, scope *debugfile.Scope, mem []byte) *debugfile.Line {
	cs := scope.CodeSpan
	if cs == nil {
		return nil
	}

	inits := mf.Filter(StackInitialisation)
	isInit := func(address uint16) bool {
		for _, e := range inits {
			if e.Address == address {
				return true
			}
		}
		return false
	}

	lineAt := func(address int) *debugfile.Line {
		for _, ln := range cs.Lines {
			if ln.Span != nil && ln.Span.Contains(address) {
				return ln
			}
		}
		return nil
	}

	var lastFound *debugfile.Line
	var current *debugfile.Line
	var complete *debugfile.Line

	OpCodeFind(mem, func(ins Instruction) bool {
		ln := lineAt(cs.AbsoluteAddress + ins.Offset)

		switch ins.Defn.OpCode {
		case instructions.JMP, instructions.JSR:
			if !ins.Truncated() && isInit(ins.OperandValue()) {
				lastFound = ln
			}
		}

		if current != nil && ln != current && lastFound != current && ln != nil {
			complete = ln
			return true
		}

		current = ln
		return false
	})

	return complete
}
