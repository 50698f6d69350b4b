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

// Package machine identifies the target machine that a program was built for.
// The machine type decides which emulator is launched and how some of the
// debugger's features behave.
package machine

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Type of target machine.
type Type int

// List of machine types.
const (
	Unknown Type = iota
	NES
	C128
	CBM5x0
	PET
	Plus4
	VIC20
	C64
	Apple2
)

func (m Type) String() string {
	switch m {
	case NES:
		return "nes"
	case C128:
		return "c128"
	case CBM5x0:
		return "cbm5x0"
	case PET:
		return "pet"
	case Plus4:
		return "plus4"
	case VIC20:
		return "vic20"
	case C64:
		return "c64"
	case Apple2:
		return "apple2"
	}
	return "unknown"
}

// Parse the name of a machine type. The names are the same as those returned
// by String(). An unrecognised name returns Unknown.
func Parse(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nes":
		return NES
	case "c128":
		return C128
	case "cbm5x0", "cbm510":
		return CBM5x0
	case "pet":
		return PET
	case "plus4", "c16":
		return Plus4
	case "vic20":
		return VIC20
	case "c64":
		return C64
	case "apple2", "apple2enh":
		return Apple2
	}
	return Unknown
}

// the system libraries that ship with cc65
var systemLib = regexp.MustCompile(`(?i)lib[/\\](apple2enh|apple2|atari2600|atari5200|atari|atarixl|atmos|c128|c16|c64|cbm510|cbm610|creativision|gamate|geos-apple|geos-cbm|lynx|nes|none|osic1p|pce|pet|plus4|sim6502|sim65c02|supervision|telestrat|vic20)\.lib$`)

// FromLibrary returns the machine type for the name of a library used when
// linking. The second return value is false if the library is not a cc65
// system library. System libraries that have no specific machine type are
// treated as C64.
func FromLibrary(name string) (Type, bool) {
	m := systemLib.FindStringSubmatch(name)
	if m == nil {
		return Unknown, false
	}

	switch strings.ToLower(m[1]) {
	case "nes":
		return NES, true
	case "c128":
		return C128, true
	case "cbm510":
		return CBM5x0, true
	case "pet":
		return PET, true
	case "plus4":
		return Plus4, true
	case "vic20":
		return VIC20, true
	case "apple2":
		return Apple2, true
	}

	return C64, true
}

// ProgramFiletypes matches the file extensions of runnable programs.
var ProgramFiletypes = regexp.MustCompile(`(?i)\.((d[0-9]{2}|prg)|(vic20|c16|c64|c128|plus4|cbm510|cbm610|pet))$`)

// FromProgram returns the machine type suggested by the extension of the
// program file. Unknown is returned for extensions that say nothing about the
// machine (.prg and disk images).
func FromProgram(program string) Type {
	return Parse(strings.TrimPrefix(filepath.Ext(program), "."))
}

// SerialRoutine returns the address in the KERNAL to resume at when run-ahead
// would otherwise interrupt the serial bus routines. Only the machines listed
// have a known address. Run-ahead should be disabled for all others.
func (m Type) SerialRoutine() (uint16, bool) {
	switch m {
	case C64, C128:
		return 0xedab, true
	case Plus4:
		return 0xe1e7, true
	case VIC20:
		return 0xeeb2, true
	}
	return 0, false
}

// ViceExecutables returns the names of the VICE executables for the machine
// type, in order of preference.
func (m Type) ViceExecutables() []string {
	switch m {
	case C128:
		return []string{"x128"}
	case CBM5x0:
		return []string{"xcbm5x0"}
	case PET:
		return []string{"xpet"}
	case Plus4:
		return []string{"xplus4"}
	case VIC20:
		return []string{"xvic"}
	}
	return []string{"x64sc", "x64"}
}
