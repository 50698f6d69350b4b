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

// Package curated wraps the plain Go error type with a pattern based error.
//
// Curated errors are created with Errorf(). The pattern string given to
// Errorf() identifies the error and can be tested for with Is() and Has().
//
//	err := curated.Errorf("checkpoint: no such id (%d)", id)
//
//	if curated.Is(err, "checkpoint: no such id (%d)") {
//		...
//	}
//
// Is() only matches the outermost error. Has() searches the chain of wrapped
// values too:
//
//	e := curated.Errorf(NotRunning)
//	f := curated.Errorf("transport: %v", e)
//	curated.Has(f, NotRunning) == true
//	curated.Is(f, NotRunning) == false
//
// Sentinel errors are best declared as exported string constants in the
// package that raises them. The constant is the pattern.
//
// The Error() function normalises the message so that duplicate adjacent
// parts do not appear. Parts are separated by ": ". This means that an error
// can be wrapped with the same prefix at every level without repeating
// itself:
//
//	transport: transport: target is not running
//
// becomes
//
//	transport: target is not running
//
// Curated errors also implement Unwrap() so that they cooperate with the
// errors package in the standard library. For example errors.Is(err,
// io.EOF) works if io.EOF was one of the values given to Errorf().
package curated
