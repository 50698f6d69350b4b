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

package monitor

import (
	"encoding/binary"
	"fmt"
)

// reader extracts little endian values from a body. reading past the end of
// the body sets the error and returns zero values
type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.off+n > len(r.b) {
		r.err = fmt.Errorf("body too short (%d bytes, need %d at offset %d)", len(r.b), n, r.off)
		return false
	}
	return true
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := make([]byte, n)
	copy(v, r.b[r.off:])
	r.off += n
	return v
}

func (r *reader) bool() bool {
	return r.u8() != 0
}

func (r *reader) str() string {
	return string(r.bytes(int(r.u8())))
}

func (r *reader) seek(off int) {
	r.off = off
}

func (r *reader) remaining() int {
	return len(r.b) - r.off
}

// ParseHeader parses the header of a response frame. The slice must be at
// least ResponseHeaderSize bytes long. Also returns the length of the body.
func ParseHeader(b []byte) (Header, int, error) {
	if len(b) < ResponseHeaderSize {
		return Header{}, 0, fmt.Errorf("monitor: header too short (%d bytes)", len(b))
	}
	if b[0] != StartMarker {
		return Header{}, 0, fmt.Errorf("monitor: bad start marker (%#02x)", b[0])
	}
	h := Header{
		APIVersion: b[1],
		Type:       ResponseType(b[6]),
		Error:      b[7],
		RequestID:  binary.LittleEndian.Uint32(b[8:]),
	}
	return h, int(binary.LittleEndian.Uint32(b[2:])), nil
}

// Decoder decodes response bodies. The zero value is ready to use. A Decoder
// is not safe for concurrent use.
type Decoder struct {
	// reused for every checkpoint info event
	scratch CheckpointInfo
}

// Decode the body of a response.
//
// Checkpoint info events are decoded into a value owned by the Decoder. The
// returned value is only valid until the next call to Decode() and must be
// copied if it is to be retained.
func (d *Decoder) Decode(h Header, body []byte) (Response, error) {
	if h.Error != 0 {
		return &Empty{Header: h}, nil
	}

	r := &reader{b: body}

	if h.Type == RespCheckpointInfo && h.RequestID == EventID {
		d.scratch = CheckpointInfo{Header: h}
		decodeCheckpointInfo(r, &d.scratch)
		if r.err != nil {
			return nil, fmt.Errorf("monitor: %s: %w", h.Type, r.err)
		}
		return &d.scratch, nil
	}

	var resp Response

	switch h.Type {
	case RespMemoryGet:
		n := int(r.u16())
		resp = &MemoryGetResponse{Header: h, Data: r.bytes(n)}
	case RespCheckpointInfo:
		ci := &CheckpointInfo{Header: h}
		decodeCheckpointInfo(r, ci)
		resp = ci
	case RespCheckpointList:
		resp = &CheckpointListResponse{Header: h, Count: r.u32()}
	case RespRegisterInfo:
		ri := &RegisterInfo{Header: h}
		r.u16()
		for r.err == nil && r.remaining() > 0 {
			start := r.off
			size := int(r.u8())
			ri.Registers = append(ri.Registers, RegisterValue{ID: r.u8(), Value: r.u16()})
			r.seek(start + size + 1)
		}
		resp = ri
	case RespUndump:
		resp = &UndumpResponse{Header: h, PC: r.u16()}
	case RespResourceGet:
		rg := &ResourceGetResponse{Header: h, ResourceType: ResourceType(r.u8())}
		n := int(r.u8())
		switch rg.ResourceType {
		case ResourceInt:
			switch n {
			case 1:
				rg.IntValue = uint32(r.u8())
			case 2:
				rg.IntValue = uint32(r.u16())
			case 4:
				rg.IntValue = r.u32()
			default:
				return nil, fmt.Errorf("monitor: %s: invalid int length (%d)", h.Type, n)
			}
		case ResourceString:
			rg.StringValue = string(r.bytes(n))
		default:
			return nil, fmt.Errorf("monitor: %s: invalid resource type (%d)", h.Type, rg.ResourceType)
		}
		resp = rg
	case RespBanksAvailable:
		ba := &BanksAvailableResponse{Header: h}
		r.u16()
		for r.err == nil && r.remaining() > 0 {
			start := r.off
			size := int(r.u8())
			ba.Banks = append(ba.Banks, BankMeta{ID: r.u16(), Name: r.str()})
			r.seek(start + size + 1)
		}
		resp = ba
	case RespRegistersAvailable:
		ra := &RegistersAvailableResponse{Header: h}
		r.u16()
		for r.err == nil && r.remaining() > 0 {
			start := r.off
			size := int(r.u8())
			ra.Registers = append(ra.Registers, RegisterMeta{ID: r.u8(), Bits: r.u8(), Name: r.str()})
			r.seek(start + size + 1)
		}
		resp = ra
	case RespDisplayGet:
		resp = decodeDisplay(r, h)
	case RespEmulatorInfo:
		ei := &EmulatorInfoResponse{Header: h}
		ei.Version = r.bytes(int(r.u8()))
		n := int(r.u8())
		if n >= 4 {
			ei.SVNRevision = r.u32()
		}
		resp = ei
	case RespPaletteGet:
		pg := &PaletteGetResponse{Header: h}
		r.u16()
		for r.err == nil && r.remaining() > 0 {
			start := r.off
			size := int(r.u8())
			e := PaletteEntry{Red: r.u8(), Green: r.u8(), Blue: r.u8()}
			if size > 3 {
				e.Dither = r.u8()
			}
			pg.Entries = append(pg.Entries, e)
			r.seek(start + size + 1)
		}
		resp = pg
	case RespStopped:
		resp = &Stopped{Header: h, PC: r.u16()}
	case RespResumed:
		resp = &Resumed{Header: h, PC: r.u16()}
	case RespJam:
		resp = &Jam{Header: h, PC: r.u16()}
	case RespMemorySet, RespCheckpointDelete, RespCheckpointToggle, RespConditionSet,
		RespDump, RespResourceSet, RespAdvanceInstructions, RespKeyboardFeed,
		RespExecuteUntilReturn, RespPing, RespJoyportSet, RespExit, RespQuit,
		RespReset, RespAutostart:
		resp = &Empty{Header: h}
	default:
		b := make([]byte, len(body))
		copy(b, body)
		resp = &Unknown{Header: h, Body: b}
	}

	if r.err != nil {
		return nil, fmt.Errorf("monitor: %s: %w", h.Type, r.err)
	}

	return resp, nil
}

func decodeCheckpointInfo(r *reader, ci *CheckpointInfo) {
	ci.ID = r.u32()
	ci.Hit = r.bool()
	ci.Start = r.u16()
	ci.End = r.u16()
	ci.Stop = r.bool()
	ci.Enabled = r.bool()
	ci.Operation = Operation(r.u8())
	ci.Temporary = r.bool()
	ci.HitCount = r.u32()
	ci.IgnoreCount = r.u32()
	ci.HasCondition = r.bool()
}

func decodeDisplay(r *reader, h Header) *DisplayGetResponse {
	dg := &DisplayGetResponse{Header: h}

	if h.APIVersion >= 2 {
		meta := int(r.u32())
		dg.DebugWidth = r.u16()
		dg.DebugHeight = r.u16()
		dg.OffsetX = r.u16()
		dg.OffsetY = r.u16()
		dg.InnerWidth = r.u16()
		dg.InnerHeight = r.u16()
		dg.BPP = r.u8()
		r.seek(4 + meta)
		dg.Data = r.bytes(int(r.u32()))
		return dg
	}

	// older monitors prefix the image with a header of their own. the raw
	// image is at the end of the body
	if !r.need(25) {
		return dg
	}
	headerLen := int(binary.LittleEndian.Uint32(r.b[4:]))
	rawLen := int(binary.LittleEndian.Uint32(r.b[8:]))
	r.seek(12)
	dg.DebugWidth = r.u16()
	dg.DebugHeight = r.u16()
	dg.OffsetX = r.u16()
	dg.OffsetY = r.u16()
	dg.InnerWidth = r.u16()
	dg.InnerHeight = r.u16()
	dg.BPP = r.u8()

	start := 12 + headerLen
	if start > len(r.b) || rawLen > len(r.b)-start {
		r.err = fmt.Errorf("display buffer out of range")
		return dg
	}
	dg.Data = make([]byte, rawLen)
	copy(dg.Data, r.b[len(r.b)-rawLen:])
	return dg
}
