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

// Package transport owns the connection to a binary monitor. It reassembles
// response frames from the byte stream, correlates replies with the commands
// that caused them and broadcasts events to subscribers.
//
// Every command is assigned a request ID. The reply to a command is the
// response with the same ID. For commands that produce more than one response
// (see monitor.Terminal()) the responses that arrive before the terminal
// response are collected as the related responses of the reply.
//
// Responses with the event ID are not replies. They are delivered to the
// functions registered with Subscribe(), in the order in which they arrive.
// Subscriber functions are called from the goroutine that reads the
// connection. They must not block and they must not send commands. In
// particular, a checkpoint event is only valid for the duration of the call
// and must be copied if it is to be retained.
//
// Sequences of commands that must not be interleaved with other sequences
// should be run with Lock().
package transport
