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

package transport

import (
	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/monitor"
)

// BadFrame is the curated error pattern for a stream that can't be framed.
const BadFrame = "transport: bad frame: %v"

// Reassembler accumulates bytes from a stream and yields complete response
// frames. The zero value is ready to use.
type Reassembler struct {
	buf []byte
}

// Write adds bytes to the reassembler. The frame function is called for every
// frame that is complete as a result. The body slice is only valid for the
// duration of the call.
//
// A frame that does not begin with the start marker makes the remainder of
// the stream unusable. The buffered bytes are discarded and an error is
// returned.
func (r *Reassembler) Write(p []byte, frame func(h monitor.Header, body []byte)) error {
	r.buf = append(r.buf, p...)

	consumed := 0
	for {
		rest := r.buf[consumed:]
		if len(rest) == 0 {
			break
		}

		if rest[0] != monitor.StartMarker {
			r.buf = r.buf[:0]
			return curated.Errorf(BadFrame, curated.Errorf("start marker is %#02x", rest[0]))
		}

		if len(rest) < monitor.ResponseHeaderSize {
			break
		}

		h, n, err := monitor.ParseHeader(rest)
		if err != nil {
			r.buf = r.buf[:0]
			return curated.Errorf(BadFrame, err)
		}

		if len(rest) < monitor.ResponseHeaderSize+n {
			break
		}

		frame(h, rest[monitor.ResponseHeaderSize:monitor.ResponseHeaderSize+n])
		consumed += monitor.ResponseHeaderSize + n
	}

	// move the incomplete tail to the front of the buffer
	if consumed > 0 {
		n := copy(r.buf, r.buf[consumed:])
		r.buf = r.buf[:n]
	}

	return nil
}

// Pending returns the number of buffered bytes that do not yet form a complete
// frame.
func (r *Reassembler) Pending() int {
	return len(r.buf)
}
