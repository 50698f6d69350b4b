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

// Package variables resolves C variables in a running cc65 program.
//
// Type information comes from the symbol tables the cc65 compiler writes
// when it is run with the -T switch (files with the .tab extension). The
// tables describe the variables of every function, the global variables
// and the layout of every struct and union. Values are read from the
// target's memory through the Memory interface and rendered as text.
//
// Local variables live on the C parameter stack. The stack pointer is held
// in the first two bytes of the ZEROPAGE segment.
package variables
