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

// Package debugfile parses the debug information file produced by the cc65
// toolchain (ld65 --dbgfile). The file is line oriented. Each line is a record
// made up of a keyword and a comma separated list of key=value properties:
//
//	seg	id=0,name="CODE",start=0x000801,size=0x0A8B,addrsize=absolute,type=ro
//	span	id=12,seg=0,start=69,size=3
//	line	id=40,file=1,line=12,span=12
//	scope	id=3,name="_main",mod=0,type=global,size=53,parent=0,sym=14,span=12+13
//
// Records refer to each other by ID and may refer forwards, so parsing is done
// in two passes. The first pass creates every object. The second pass links the
// objects together and builds the sorted indices that the debugger uses for
// address and line lookups.
//
// Line numbers are stored zero based.
package debugfile
