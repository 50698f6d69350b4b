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


// Package terminal defines the interfaces used by the cc65dbg console to
// read commands and to print output. The plainterm and colorterm packages
// contain implementations.
//
// The commandline sub-package tokenises and validates user input and
// provides tab completion, which terminal implementations can use through
// the TabCompletion interface.
package terminal
