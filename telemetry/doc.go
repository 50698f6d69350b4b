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

// Package telemetry publishes the state of the target machine for display by
// a user interface. On every update the registers, a window of memory, the
// available banks and the current frame are published. For the C64 the
// eight hardware sprites and the text screen are also published.
//
// Frames are encoded as PNG images and can be scaled down to a thumbnail
// width to reduce the size of the event.
//
// The Manager does not run its own timer. The debugger calls Update from its
// UI ticker and UpdateRunAhead after each run-ahead cycle.
package telemetry
