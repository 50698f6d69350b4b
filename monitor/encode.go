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

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// strings in the protocol are prefixed with a single length byte
func appendString(b []byte, s string) []byte {
	if len(s) > 0xff {
		s = s[:0xff]
	}
	b = append(b, uint8(len(s)))
	return append(b, s...)
}

// EncodeBody returns the body of a command.
//
// Encoding a command that is not one of the types in this package is a
// programming error and causes a panic.
func EncodeBody(cmd Command) []byte {
	le := binary.LittleEndian
	var b []byte

	switch c := cmd.(type) {
	case MemoryGet:
		b = append(b, boolByte(c.SideEffects))
		b = le.AppendUint16(b, c.Start)
		b = le.AppendUint16(b, c.End)
		b = append(b, uint8(c.Memspace))
		b = le.AppendUint16(b, c.Bank)
	case MemorySet:
		b = append(b, boolByte(c.SideEffects))
		b = le.AppendUint16(b, c.Start)
		b = le.AppendUint16(b, c.End)
		b = append(b, uint8(c.Memspace))
		b = le.AppendUint16(b, c.Bank)
		b = append(b, c.Data...)
	case CheckpointGet:
		b = le.AppendUint32(b, c.ID)
	case CheckpointSet:
		b = le.AppendUint16(b, c.Start)
		b = le.AppendUint16(b, c.End)
		b = append(b, boolByte(c.Stop), boolByte(c.Enabled), uint8(c.Operation), boolByte(c.Temporary))
	case CheckpointDelete:
		b = le.AppendUint32(b, c.ID)
	case CheckpointToggle:
		b = le.AppendUint32(b, c.ID)
		b = append(b, boolByte(c.Enabled))
	case ConditionSet:
		b = le.AppendUint32(b, c.ID)
		b = appendString(b, c.Condition)
	case RegistersGet:
		b = append(b, uint8(c.Memspace))
	case RegistersSet:
		b = append(b, uint8(c.Memspace))
		b = le.AppendUint16(b, uint16(len(c.Registers)))
		for _, r := range c.Registers {
			b = append(b, 3, r.ID)
			b = le.AppendUint16(b, r.Value)
		}
	case Dump:
		b = append(b, boolByte(c.SaveROMs), boolByte(c.SaveDisks))
		b = appendString(b, c.Filename)
	case Undump:
		b = appendString(b, c.Filename)
	case ResourceGet:
		b = appendString(b, c.Name)
	case ResourceSet:
		b = append(b, uint8(c.ResourceType))
		b = appendString(b, c.Name)
		switch c.ResourceType {
		case ResourceInt:
			b = append(b, 4)
			b = le.AppendUint32(b, c.IntValue)
		case ResourceString:
			b = appendString(b, c.StringValue)
		default:
			panic(fmt.Sprintf("monitor: invalid resource type (%d)", c.ResourceType))
		}
	case AdvanceInstructions:
		b = append(b, boolByte(c.StepOver))
		b = le.AppendUint16(b, c.Count)
	case KeyboardFeed:
		b = appendString(b, c.Text)
	case RegistersAvailable:
		b = append(b, uint8(c.Memspace))
	case DisplayGet:
		b = append(b, boolByte(c.UseVICII), uint8(c.Format))
	case PaletteGet:
		b = append(b, boolByte(c.UseVICII))
	case JoyportSet:
		b = le.AppendUint16(b, c.Port)
		b = le.AppendUint16(b, c.Value)
	case Reset:
		b = append(b, uint8(c.Method))
	case Autostart:
		b = append(b, boolByte(c.Run))
		b = le.AppendUint16(b, c.Index)
		b = appendString(b, c.Filename)
	case CheckpointList, ExecuteUntilReturn, Ping, BanksAvailable, EmulatorInfo, Exit, Quit:
	default:
		panic(fmt.Sprintf("monitor: cannot encode command of type %T", cmd))
	}

	return b
}

// Encode returns the complete request frame for a command.
func Encode(cmd Command, apiVersion uint8, requestID uint32) []byte {
	body := EncodeBody(cmd)
	return AppendFrame(make([]byte, 0, RequestHeaderSize+len(body)), cmd.Type(), apiVersion, requestID, body)
}

// AppendFrame appends a request frame to b. The body should be the result of
// EncodeBody() for a command of the specified type.
func AppendFrame(b []byte, t CommandType, apiVersion uint8, requestID uint32, body []byte) []byte {
	b = append(b, StartMarker, apiVersion)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(body)))
	b = binary.LittleEndian.AppendUint32(b, requestID)
	b = append(b, uint8(t))
	return append(b, body...)
}

// EncodeResponse returns the complete response frame for a response. The
// header fields of the response are used to build the frame header.
func EncodeResponse(resp Response) []byte {
	le := binary.LittleEndian
	h := resp.Head()

	var body []byte

	switch r := resp.(type) {
	case *Empty:
	case *Unknown:
		body = append(body, r.Body...)
	case *MemoryGetResponse:
		body = le.AppendUint16(body, uint16(len(r.Data)))
		body = append(body, r.Data...)
	case *CheckpointInfo:
		body = le.AppendUint32(body, r.ID)
		body = append(body, boolByte(r.Hit))
		body = le.AppendUint16(body, r.Start)
		body = le.AppendUint16(body, r.End)
		body = append(body, boolByte(r.Stop), boolByte(r.Enabled), uint8(r.Operation), boolByte(r.Temporary))
		body = le.AppendUint32(body, r.HitCount)
		body = le.AppendUint32(body, r.IgnoreCount)
		body = append(body, boolByte(r.HasCondition))
	case *CheckpointListResponse:
		body = le.AppendUint32(body, r.Count)
	case *RegisterInfo:
		body = le.AppendUint16(body, uint16(len(r.Registers)))
		for _, reg := range r.Registers {
			body = append(body, 3, reg.ID)
			body = le.AppendUint16(body, reg.Value)
		}
	case *UndumpResponse:
		body = le.AppendUint16(body, r.PC)
	case *ResourceGetResponse:
		body = append(body, uint8(r.ResourceType))
		if r.ResourceType == ResourceInt {
			body = append(body, 4)
			body = le.AppendUint32(body, r.IntValue)
		} else {
			body = appendString(body, r.StringValue)
		}
	case *BanksAvailableResponse:
		body = le.AppendUint16(body, uint16(len(r.Banks)))
		for _, bk := range r.Banks {
			body = append(body, uint8(3+len(bk.Name)))
			body = le.AppendUint16(body, bk.ID)
			body = appendString(body, bk.Name)
		}
	case *RegistersAvailableResponse:
		body = le.AppendUint16(body, uint16(len(r.Registers)))
		for _, reg := range r.Registers {
			body = append(body, uint8(3+len(reg.Name)), reg.ID, reg.Bits)
			body = appendString(body, reg.Name)
		}
	case *DisplayGetResponse:
		// always the layout of api version 2 and later
		body = le.AppendUint32(body, 13)
		body = le.AppendUint16(body, r.DebugWidth)
		body = le.AppendUint16(body, r.DebugHeight)
		body = le.AppendUint16(body, r.OffsetX)
		body = le.AppendUint16(body, r.OffsetY)
		body = le.AppendUint16(body, r.InnerWidth)
		body = le.AppendUint16(body, r.InnerHeight)
		body = append(body, r.BPP)
		body = le.AppendUint32(body, uint32(len(r.Data)))
		body = append(body, r.Data...)
	case *EmulatorInfoResponse:
		body = append(body, uint8(len(r.Version)))
		body = append(body, r.Version...)
		body = append(body, 4)
		body = le.AppendUint32(body, r.SVNRevision)
	case *PaletteGetResponse:
		body = le.AppendUint16(body, uint16(len(r.Entries)))
		for _, e := range r.Entries {
			body = append(body, 4, e.Red, e.Green, e.Blue, e.Dither)
		}
	case *Stopped:
		body = le.AppendUint16(body, r.PC)
	case *Resumed:
		body = le.AppendUint16(body, r.PC)
	case *Jam:
		body = le.AppendUint16(body, r.PC)
	default:
		panic(fmt.Sprintf("monitor: cannot encode response of type %T", resp))
	}

	b := make([]byte, 0, ResponseHeaderSize+len(body))
	b = append(b, StartMarker, h.APIVersion)
	b = le.AppendUint32(b, uint32(len(body)))
	b = append(b, uint8(h.Type), h.Error)
	b = le.AppendUint32(b, h.RequestID)
	return append(b, body...)
}
