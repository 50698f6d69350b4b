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

// Request is a decoded request frame.
type Request struct {
	APIVersion uint8
	RequestID  uint32
	Command    Command
}

// ParseRequestHeader parses the header of a request frame. Returns the
// command type, the API version, the request ID and the length of the body.
func ParseRequestHeader(b []byte) (CommandType, uint8, uint32, int, error) {
	if len(b) < RequestHeaderSize {
		return 0, 0, 0, 0, fmt.Errorf("monitor: request header too short (%d bytes)", len(b))
	}
	if b[0] != StartMarker {
		return 0, 0, 0, 0, fmt.Errorf("monitor: bad start marker (%#02x)", b[0])
	}
	n := int(binary.LittleEndian.Uint32(b[2:]))
	id := binary.LittleEndian.Uint32(b[6:])
	return CommandType(b[10]), b[1], id, n, nil
}

// DecodeCommand decodes a complete request frame.
func DecodeCommand(frame []byte) (Request, error) {
	t, api, id, n, err := ParseRequestHeader(frame)
	if err != nil {
		return Request{}, err
	}
	if len(frame) < RequestHeaderSize+n {
		return Request{}, fmt.Errorf("monitor: request frame too short")
	}

	req := Request{
		APIVersion: api,
		RequestID:  id,
	}

	r := &reader{b: frame[RequestHeaderSize : RequestHeaderSize+n]}

	switch t {
	case CmdMemoryGet:
		req.Command = MemoryGet{
			SideEffects: r.bool(),
			Start:       r.u16(),
			End:         r.u16(),
			Memspace:    Memspace(r.u8()),
			Bank:        r.u16(),
		}
	case CmdMemorySet:
		c := MemorySet{
			SideEffects: r.bool(),
			Start:       r.u16(),
			End:         r.u16(),
			Memspace:    Memspace(r.u8()),
			Bank:        r.u16(),
		}
		c.Data = r.bytes(r.remaining())
		req.Command = c
	case CmdCheckpointGet:
		req.Command = CheckpointGet{ID: r.u32()}
	case CmdCheckpointSet:
		req.Command = CheckpointSet{
			Start:     r.u16(),
			End:       r.u16(),
			Stop:      r.bool(),
			Enabled:   r.bool(),
			Operation: Operation(r.u8()),
			Temporary: r.bool(),
		}
	case CmdCheckpointDelete:
		req.Command = CheckpointDelete{ID: r.u32()}
	case CmdCheckpointList:
		req.Command = CheckpointList{}
	case CmdCheckpointToggle:
		req.Command = CheckpointToggle{ID: r.u32(), Enabled: r.bool()}
	case CmdConditionSet:
		req.Command = ConditionSet{ID: r.u32(), Condition: r.str()}
	case CmdRegistersGet:
		req.Command = RegistersGet{Memspace: Memspace(r.u8())}
	case CmdRegistersSet:
		c := RegistersSet{Memspace: Memspace(r.u8())}
		count := int(r.u16())
		for i := 0; i < count && r.err == nil; i++ {
			start := r.off
			size := int(r.u8())
			c.Registers = append(c.Registers, RegisterValue{ID: r.u8(), Value: r.u16()})
			r.seek(start + size + 1)
		}
		req.Command = c
	case CmdDump:
		req.Command = Dump{SaveROMs: r.bool(), SaveDisks: r.bool(), Filename: r.str()}
	case CmdUndump:
		req.Command = Undump{Filename: r.str()}
	case CmdResourceGet:
		req.Command = ResourceGet{Name: r.str()}
	case CmdResourceSet:
		c := ResourceSet{ResourceType: ResourceType(r.u8()), Name: r.str()}
		if c.ResourceType == ResourceInt {
			switch r.u8() {
			case 1:
				c.IntValue = uint32(r.u8())
			case 2:
				c.IntValue = uint32(r.u16())
			default:
				c.IntValue = r.u32()
			}
		} else {
			c.StringValue = r.str()
		}
		req.Command = c
	case CmdAdvanceInstructions:
		req.Command = AdvanceInstructions{StepOver: r.bool(), Count: r.u16()}
	case CmdKeyboardFeed:
		req.Command = KeyboardFeed{Text: r.str()}
	case CmdExecuteUntilReturn:
		req.Command = ExecuteUntilReturn{}
	case CmdPing:
		req.Command = Ping{}
	case CmdBanksAvailable:
		req.Command = BanksAvailable{}
	case CmdRegistersAvailable:
		req.Command = RegistersAvailable{Memspace: Memspace(r.u8())}
	case CmdDisplayGet:
		req.Command = DisplayGet{UseVICII: r.bool(), Format: DisplayFormat(r.u8())}
	case CmdEmulatorInfo:
		req.Command = EmulatorInfo{}
	case CmdPaletteGet:
		req.Command = PaletteGet{UseVICII: r.bool()}
	case CmdJoyportSet:
		req.Command = JoyportSet{Port: r.u16(), Value: r.u16()}
	case CmdExit:
		req.Command = Exit{}
	case CmdQuit:
		req.Command = Quit{}
	case CmdReset:
		req.Command = Reset{Method: ResetMethod(r.u8())}
	case CmdAutostart:
		req.Command = Autostart{Run: r.bool(), Index: r.u16(), Filename: r.str()}
	default:
		return req, fmt.Errorf("monitor: unknown command type (%s)", t)
	}

	if r.err != nil {
		return req, fmt.Errorf("monitor: %s: %w", t, r.err)
	}

	return req, nil
}
