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

// State indicates the emulator's state.
type State int

// List of possible emulator states.
//
// Starting covers everything from loading the debug information until the
// program has reached its entry point. Events are not reported to the user
// while Starting.
//
// Terminated is final. A session cannot be restarted once it is Terminated.
const (
	Starting State = iota
	Running
	Stopped
	Terminated
)

func (s State) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Terminated:
		return "Terminated"
	}

	return ""
}

// Transition returns true if a change from one state to the other is allowed.
func Transition(from State, to State) bool {
	switch from {
	case Starting:
		return true
	case Running:
		return to != Starting
	case Stopped:
		return to != Starting
	case Terminated:
		return to == Terminated
	}
	return false
}
