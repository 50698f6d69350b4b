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


package telemetry

import (
	"image/color"

	"github.com/jetsetilly/cc65dbg/monitor"
)

// Kind identifies the contents of an Event.
type Kind int

// List of event kinds.
const (
	Registers Kind = iota
	Memory
	Banks
	Palette
	Current
	RunAhead
	Sprites
	ScreenText
)

func (k Kind) String() string {
	switch k {
	case Registers:
		return "registers"
	case Memory:
		return "memory"
	case Banks:
		return "banks"
	case Palette:
		return "palette"
	case Current:
		return "current"
	case RunAhead:
		return "runahead"
	case Sprites:
		return "sprites"
	case ScreenText:
		return "screenText"
	}
	return "unknown"
}

// Frame is a display buffer encoded as PNG.
type Frame struct {
	Width  int
	Height int
	PNG    []byte
}

// Sprite is one C64 hardware sprite. Data is the 63 bytes of the sprite
// pattern and the unused padding byte.
type Sprite struct {
	Key        int
	Data       []byte
	Enabled    bool
	Multicolor bool
	Color      int
	Color1     int
	Color3     int
}

// Text is the contents of a 40x25 text screen.
type Text struct {
	Width  int
	Height int
	Data   []byte
	Colors []byte
}

// Event is sent by the Manager. Only the fields named by Kind are set.
type Event struct {
	Kind Kind

	Registers []monitor.RegisterValue
	Metas     []monitor.RegisterMeta

	Memory       []byte
	MemoryOffset int
	MemoryBank   uint16

	Banks []monitor.BankMeta

	Palette []color.RGBA

	Frame *Frame

	Sprites []Sprite

	Text *Text
}
