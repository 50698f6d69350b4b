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

// Package grip launches, connects to and controls an emulator. The commands
// that every emulator family understands are implemented once by the Grip
// type. The parts that differ between families (launching the process, the
// version handshake, autostarting a program and fetching the display) are
// implemented by types that satisfy the Family interface.
//
// Three families are provided: VICE for the Commodore machines, AppleWin for
// the Apple II and Mesen for the NES. The VICE family is complete. The other
// two return errors with the NotImplemented pattern for the commands that they
// do not yet support.
package grip
