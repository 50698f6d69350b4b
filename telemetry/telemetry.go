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
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"golang.org/x/image/draw"

	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/monitor"
)

// the default size of the memory window
const memoryLength = 0x1000

const spriteCount = 8

// Target is the part of the target machine that telemetry reads.
type Target interface {
	MemoryGet(ctx context.Context, address uint16, length int, bank uint16) ([]byte, error)
	Registers(ctx context.Context) (*monitor.RegisterInfo, error)
	RegistersAvailable(ctx context.Context) (*monitor.RegistersAvailableResponse, error)
	BanksAvailable(ctx context.Context) (*monitor.BanksAvailableResponse, error)
	Palette(ctx context.Context) (*monitor.PaletteGetResponse, error)
	DisplayRGBA(ctx context.Context) (*monitor.DisplayGetResponse, error)
}

// Manager collects and publishes telemetry.
type Manager struct {
	target  Target
	machine machine.Type
	emit    func(Event)

	crit sync.Mutex

	enabled bool

	// frames wider than this are scaled down. zero means no scaling
	thumbnail int

	memOffset int
	memBank   uint16

	banks  []monitor.BankMeta
	metas  []monitor.RegisterMeta
	ioBank uint16
	ram    uint16
}

// NewManager creates a Manager. Events are not sent until Enable is called.
func NewManager(target Target, m machine.Type, emit func(Event)) *Manager {
	return &Manager{
		target:  target,
		machine: m,
		emit:    emit,
	}
}

// Enable or disable the sending of events.
func (t *Manager) Enable(enable bool) {
	t.crit.Lock()
	defer t.crit.Unlock()
	t.enabled = enable
}

// Enabled returns true if events are being sent.
func (t *Manager) Enabled() bool {
	t.crit.Lock()
	defer t.crit.Unlock()
	return t.enabled
}

// SetThumbnail sets the maximum width of published frames.
func (t *Manager) SetThumbnail(width int) {
	t.crit.Lock()
	defer t.crit.Unlock()
	t.thumbnail = width
}

// SetMemoryWindow changes the memory published by Update.
func (t *Manager) SetMemoryWindow(offset int, bank uint16) {
	t.crit.Lock()
	defer t.crit.Unlock()
	t.memOffset = offset & 0xffff
	t.memBank = bank
}

func (t *Manager) send(ev Event) {
	t.crit.Lock()
	enabled := t.enabled
	t.crit.Unlock()
	if enabled && t.emit != nil {
		t.emit(ev)
	}
}

// PostEmulatorStart reads the banks and registers the target makes available
// and publishes the palette.
func (t *Manager) PostEmulatorStart(ctx context.Context) error {
	banks, err := t.target.BanksAvailable(ctx)
	if err != nil {
		return err
	}
	regs, err := t.target.RegistersAvailable(ctx)
	if err != nil {
		return err
	}

	t.crit.Lock()
	t.banks = banks.Banks
	t.metas = regs.Registers
	for _, b := range t.banks {
		switch strings.ToLower(b.Name) {
		case "io":
			t.ioBank = b.ID
		case "ram":
			t.ram = b.ID
		}
	}
	t.crit.Unlock()

	pal, err := t.target.Palette(ctx)
	if err != nil {
		logger.Logf(logger.Allow, "telemetry", "palette: %v", err)
		return nil
	}

	p := make([]color.RGBA, 0, len(pal.Entries))
	for _, e := range pal.Entries {
		p = append(p, color.RGBA{R: e.Red, G: e.Green, B: e.Blue, A: 0xff})
	}
	t.send(Event{Kind: Palette, Palette: p})

	return nil
}

// Update publishes the registers, memory window, banks and current frame. For
// the C64 the sprites and text screen are also published.
func (t *Manager) Update(ctx context.Context) error {
	regs, err := t.target.Registers(ctx)
	if err != nil {
		return err
	}

	t.crit.Lock()
	metas := t.metas
	banks := t.banks
	offset := t.memOffset
	bank := t.memBank
	t.crit.Unlock()

	t.send(Event{Kind: Registers, Registers: regs.Registers, Metas: metas})

	frame, err := t.frame(ctx)
	if err != nil {
		return err
	}
	t.send(Event{Kind: Current, Frame: frame})

	length := memoryLength
	if offset+length > 0x10000 {
		length = 0x10000 - offset
	}
	mem, err := t.target.MemoryGet(ctx, uint16(offset), length, bank)
	if err != nil {
		return err
	}
	t.send(Event{Kind: Memory, Memory: mem, MemoryOffset: offset, MemoryBank: bank})

	t.send(Event{Kind: Banks, Banks: banks})

	if t.machine != machine.C64 {
		return nil
	}

	io, err := t.target.MemoryGet(ctx, 0xd000, 0x1000, t.ioBank)
	if err != nil {
		return err
	}

	if err := t.updateSprites(ctx, io); err != nil {
		return err
	}
	return t.updateText(ctx, io)
}

// UpdateRunAhead publishes the current frame as the run-ahead frame.
func (t *Manager) UpdateRunAhead(ctx context.Context) error {
	frame, err := t.frame(ctx)
	if err != nil {
		return err
	}
	t.send(Event{Kind: RunAhead, Frame: frame})
	return nil
}

func (t *Manager) frame(ctx context.Context) (*Frame, error) {
	disp, err := t.target.DisplayRGBA(ctx)
	if err != nil {
		return nil, err
	}

	t.crit.Lock()
	thumbnail := t.thumbnail
	t.crit.Unlock()

	return encodeFrame(disp, thumbnail)
}

// encodeFrame converts an RGBA display buffer to PNG.
func encodeFrame(disp *monitor.DisplayGetResponse, thumbnail int) (*Frame, error) {
	w := int(disp.DebugWidth)
	h := int(disp.DebugHeight)

	var img image.Image
	rgba := &image.RGBA{
		Pix:    disp.Data,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	if len(disp.Data) < w*h*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		copy(rgba.Pix, disp.Data)
	}
	img = rgba

	if thumbnail > 0 && w > thumbnail {
		sh := h * thumbnail / w
		scaled := image.NewRGBA(image.Rect(0, 0, thumbnail, sh))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), rgba, rgba.Bounds(), draw.Src, nil)
		img = scaled
		w, h = thumbnail, sh
	}

	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return nil, err
	}

	return &Frame{Width: w, Height: h, PNG: b.Bytes()}, nil
}

// screenStart returns the start of VIC bank and of screen memory.
func screenStart(io []byte) (int, int) {
	bank := int(^io[0xd00]&0b11) * 0x4000
	screen := bank + int((io[0x018]>>4)&0b1111)*0x400
	return bank, screen
}

func (t *Manager) updateText(ctx context.Context, io []byte) error {
	_, screen := screenStart(io)

	data, err := t.target.MemoryGet(ctx, uint16(screen), 40*25, t.ram)
	if err != nil {
		return err
	}

	t.send(Event{Kind: ScreenText, Text: &Text{
		Width:  40,
		Height: 25,
		Data:   data,
		Colors: io[0x800 : 0x800+40*25],
	}})

	return nil
}

func (t *Manager) updateSprites(ctx context.Context, io []byte) error {
	bank, screen := screenStart(io)

	pointers, err := t.target.MemoryGet(ctx, uint16(screen+0x3f8), spriteCount, t.ram)
	if err != nil {
		return err
	}

	multicolor := io[0x01c]
	enabled := io[0x015]
	color1 := int(io[0x025] & 0xf)
	color3 := int(io[0x026] & 0xf)
	colors := io[0x027 : 0x027+spriteCount]

	// the range of sprite pointers in use by the enabled sprites
	lo, hi := -1, -1
	for i, p := range pointers {
		if enabled&(1<<i) == 0 {
			continue
		}
		if lo == -1 || int(p) < lo {
			lo = int(p)
		}
		if int(p) > hi {
			hi = int(p)
		}
	}
	if lo == -1 {
		lo, hi = 0, 0
	}

	data, err := t.target.MemoryGet(ctx, uint16(bank+0x40*lo), 0x40*(hi-lo+1), t.ram)
	if err != nil {
		return err
	}

	sprites := make([]Sprite, 0, len(data)/0x40)
	for i := 0; i < len(data)/0x40; i++ {
		s := Sprite{
			Key:    lo + i,
			Data:   data[i*0x40 : (i+1)*0x40],
			Color:  -1,
			Color1: color1,
			Color3: color3,
		}

		slot := -1
		for j, p := range pointers {
			if int(p) == lo+i {
				slot = j
				break
			}
		}
		if slot != -1 {
			mask := byte(1 << slot)
			s.Enabled = enabled&mask != 0
			s.Multicolor = multicolor&mask != 0
			s.Color = int(colors[slot] & 0xf)
		}

		sprites = append(sprites, s)
	}

	t.send(Event{Kind: Sprites, Sprites: sprites})

	return nil
}
