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


// Package modalflag is a wrapper for the flag package in the Go standard
// library. It handles program modes, each with its own set of flags, in the
// manner of the go command.
//
// Arguments are given with NewArgs() and parsed with Parse(). Sub-modes added
// with AddSubModes() are looked for in the first argument after the flags.
// The first sub-mode is the default.
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "ATTACH")
//	p, err := md.Parse()
//
// Once the mode has been decided, NewMode() begins a new set of flags which
// apply to the remaining arguments:
//
//	md.NewMode()
//	port := md.AddInt("port", 6502, "binary monitor port")
//	runAhead := md.AddOptionalBool("runahead", "run one frame ahead on every stop")
//	p, err = md.Parse()
//
// OptionalBool flags distinguish between a flag that is false and a flag
// that was not given. The latter is represented by a nil pointer from
// OptionalBool.Ptr(), which cc65dbg uses to fall back to the preferences.
//
// Help messages are printed to Output when the -help flag is given. In that
// case Parse() returns ParseHelp.
package modalflag
