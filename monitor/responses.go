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
	"fmt"
	"strings"
)

// Header is the part of a response frame that precedes the body.
type Header struct {
	APIVersion uint8
	Type       ResponseType
	Error      uint8
	RequestID  uint32
}

// Head returns the response header.
func (h *Header) Head() *Header {
	return h
}

// IsEvent returns true if the response is not a reply to a command.
func (h *Header) IsEvent() bool {
	return h.RequestID == EventID
}

func (h *Header) String() string {
	if h.Error != 0 {
		return fmt.Sprintf("%s [id=%#x error=%#02x]", h.Type, h.RequestID, h.Error)
	}
	return fmt.Sprintf("%s [id=%#x]", h.Type, h.RequestID)
}

// Response is implemented by every decoded response.
type Response interface {
	Head() *Header
}

// Empty is a response with no body. Many commands receive an empty response
// and any response with a non-zero error byte is decoded as an Empty.
type Empty struct {
	Header
}

// Unknown is a response of a type that the decoder doesn't recognise.
type Unknown struct {
	Header
	Body []byte
}

// MemoryGetResponse is the reply to MemoryGet.
type MemoryGetResponse struct {
	Header
	Data []byte
}

// CheckpointInfo is the reply to CheckpointGet and CheckpointSet. It is also
// sent as an event whenever a checkpoint is hit and for every checkpoint in
// reply to CheckpointList.
type CheckpointInfo struct {
	Header
	ID           uint32
	Hit          bool
	Start        uint16
	End          uint16
	Stop         bool
	Enabled      bool
	Operation    Operation
	Temporary    bool
	HitCount     uint32
	IgnoreCount  uint32
	HasCondition bool
}

func (ci *CheckpointInfo) String() string {
	return fmt.Sprintf("checkpoint %d: $%04x-$%04x %s stop=%v enabled=%v temp=%v hits=%d",
		ci.ID, ci.Start, ci.End, ci.Operation, ci.Stop, ci.Enabled, ci.Temporary, ci.HitCount)
}

// CheckpointListResponse is the terminal reply to CheckpointList.
type CheckpointListResponse struct {
	Header
	Count uint32
}

// RegisterInfo is the reply to RegistersGet and RegistersSet.
type RegisterInfo struct {
	Header
	Registers []RegisterValue
}

// Value returns the value of the register with the ID.
func (ri *RegisterInfo) Value(id uint8) (uint16, bool) {
	for _, r := range ri.Registers {
		if r.ID == id {
			return r.Value, true
		}
	}
	return 0, false
}

// UndumpResponse is the reply to Undump.
type UndumpResponse struct {
	Header
	PC uint16
}

// ResourceGetResponse is the reply to ResourceGet.
type ResourceGetResponse struct {
	Header
	ResourceType ResourceType
	StringValue  string
	IntValue     uint32
}

// BankMeta describes a memory bank.
type BankMeta struct {
	ID   uint16
	Name string
}

// BanksAvailableResponse is the reply to BanksAvailable.
type BanksAvailableResponse struct {
	Header
	Banks []BankMeta
}

// Find returns the ID of the bank with the name.
func (ba *BanksAvailableResponse) Find(name string) (uint16, bool) {
	for _, b := range ba.Banks {
		if b.Name == name {
			return b.ID, true
		}
	}
	return 0, false
}

// RegisterMeta describes a register.
type RegisterMeta struct {
	ID   uint8
	Bits uint8
	Name string
}

// RegistersAvailableResponse is the reply to RegistersAvailable.
type RegistersAvailableResponse struct {
	Header
	Registers []RegisterMeta
}

// Find returns the ID of the register with the name. The name comparison is
// case insensitive.
func (ra *RegistersAvailableResponse) Find(name string) (uint8, bool) {
	for _, r := range ra.Registers {
		if strings.EqualFold(r.Name, name) {
			return r.ID, true
		}
	}
	return 0, false
}

// DisplayGetResponse is the reply to DisplayGet. The debug dimensions are the
// size of the full buffer, including the borders. The inner dimensions and
// offset locate the visible screen inside the buffer.
type DisplayGetResponse struct {
	Header
	DebugWidth  uint16
	DebugHeight uint16
	OffsetX     uint16
	OffsetY     uint16
	InnerWidth  uint16
	InnerHeight uint16
	BPP         uint8
	Data        []byte
}

// EmulatorInfoResponse is the reply to EmulatorInfo.
type EmulatorInfoResponse struct {
	Header
	Version     []byte
	SVNRevision uint32
}

// VersionString returns the emulator version as a dotted string. The last byte
// of the version is not part of the release number and is not included.
func (ei *EmulatorInfoResponse) VersionString() string {
	if len(ei.Version) == 0 {
		return ""
	}
	v := ei.Version[:len(ei.Version)-1]
	if len(v) == 0 {
		v = ei.Version
	}
	s := make([]string, len(v))
	for i, b := range v {
		s[i] = fmt.Sprintf("%d", b)
	}
	return strings.Join(s, ".")
}

// PaletteEntry is a single colour of the palette.
type PaletteEntry struct {
	Red    uint8
	Green  uint8
	Blue   uint8
	Dither uint8
}

// PaletteGetResponse is the reply to PaletteGet.
type PaletteGetResponse struct {
	Header
	Entries []PaletteEntry
}

// Stopped is the event sent when emulation stops.
type Stopped struct {
	Header
	PC uint16
}

// Resumed is the event sent when emulation resumes.
type Resumed struct {
	Header
	PC uint16
}

// Jam is the event sent when the CPU executes a jam instruction.
type Jam struct {
	Header
	PC uint16
}
