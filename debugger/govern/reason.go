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


package govern

// StopReason is the reason the emulator most recently stopped. It is only
// meaningful when the State is Stopped.
type StopReason int

// List of valid StopReason values.
const (
	NoReason StopReason = iota
	Entry
	Step
	Breakpoint
	Exit
	DataBreakpoint
)

func (r StopReason) String() string {
	switch r {
	case Entry:
		return "entry"
	case Step:
		return "step"
	case Breakpoint:
		return "breakpoint"
	case Exit:
		return "exit"
	case DataBreakpoint:
		return "data breakpoint"
	}
	return ""
}
