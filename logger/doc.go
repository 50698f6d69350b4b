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

// Package logger is the central log for the debugger. There is only one log
// for the entire application and it is accessed through the package level
// functions.
//
// Entries are made up of a tag and a detail string. The tag should be short
// and lowercase, usually the name of the package or sub-system making the
// entry. For example:
//
//	logger.Logf(logger.Allow, "vice", "version %s (api %d)", ver, api)
//
// Consecutive identical entries are collapsed into one entry with a repeat
// count.
//
// The Permission argument allows the caller to prevent logging in some
// contexts. For example, the run-ahead process does not want its speculative
// execution to make entries in the log. Use logger.Allow when the entry should
// always be made.
package logger
