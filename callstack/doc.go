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

// Package callstack reconstructs the call stack of a program compiled with
// cc65. The 6502 has no frame pointer and the hardware stack is shared by
// every routine, so frames are discovered by static analysis of the program's
// code and then tracked as the program runs.
//
// The static phase disassembles every scope in the CODE segment. RTS
// instructions and jumps to the compiler's stack adjustment helpers are exits
// from the scope. JSR instructions to the start of a scope are calls. A JMP to
// another scope is a tail call and the exits of the target belong to the
// scope making the jump.
//
// A non-stopping execution checkpoint is installed on every start, exit and
// call address. Each time one of these is hit the Manager is told with
// AddFrame(). Hits are queued and only interpreted when the stack is needed or
// when the queue is full, with Flush().
//
// A second set of checkpoints, disabled and stopping, is installed on the
// start of every scope. These are enabled with WithFrameBreaksEnabled() when
// stepping into a function.
package callstack
