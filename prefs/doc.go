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

// Package prefs facilitates the storage of preferences to disk. Preference
// values are declared with one of the types in this package (Bool, String,
// Int) and added to a Disk instance with a key:
//
//	dsk, err := prefs.NewDisk(pth)
//	var runAhead prefs.Bool
//	err = dsk.Add("debugger.runahead", &runAhead)
//	err = dsk.Load()
//
// The file on disk is a simple list of "key :: value" lines. Entries in the
// file that do not belong to the Disk instance are preserved when the Disk is
// saved. This means that more than one Disk instance can share the same file.
//
// Values can also be specified on the command line. The command line stack is
// consulted by Disk.Load() after the file has been read, so command line values
// take priority over the values on disk. See PushCommandLineStack().
package prefs
