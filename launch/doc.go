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

// Package launch reads and writes launch configurations. A launch
// configuration names the program to debug and the files and emulator used to
// debug it. The file is JSON, either a single configuration object or an
// editor style file with a "configurations" array, in which case a
// configuration is chosen by its "name" field.
//
// Fields that are missing from the file are inferred from the program by
// Infer().
package launch
