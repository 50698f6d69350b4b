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

// Package monitor implements the binary monitor protocol spoken by VICE and
// by the emulators that copy its protocol.
//
// A request frame is an 11 byte header followed by the command body:
//
//	0x02 | api version u8 | body length u32 | request ID u32 | command u8 | body
//
// A response frame is a 12 byte header followed by the response body:
//
//	0x02 | api version u8 | body length u32 | response u8 | error u8 | request ID u32 | body
//
// All integers are little endian. Commands are values that implement the
// Command interface and responses are values that implement the Response
// interface. The Encode() and Decoder.Decode() functions translate between the
// two and the byte stream.
//
// Responses with a request ID of EventID are not replies to a command. The
// most common of these is the checkpoint info response, which is sent every
// time a checkpoint is hit. Decoding of that response does not allocate. The
// Decoder reuses the same CheckpointInfo value for every such event and
// the value is only valid until the next call to Decode().
//
// The DecodeCommand() and EncodeResponse() functions are the opposite of
// Encode() and Decode(). They are used by the monitortest package to emulate a
// monitor.
package monitor
