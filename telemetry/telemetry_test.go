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


package telemetry_test

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"time"

	"github.com/jetsetilly/cc65dbg/grip"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/monitor/monitortest"
	"github.com/jetsetilly/cc65dbg/telemetry"
	"github.com/jetsetilly/cc65dbg/test"
)

func setup(t *testing.T, m machine.Type) (context.Context, *telemetry.Manager, *monitortest.Fake, *[]telemetry.Event) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	f, err := monitortest.NewFake()
	test.DemandSuccess(t, err)
	t.Cleanup(func() { f.Close() })

	g := grip.NewGrip(&grip.Vice{})
	test.DemandSuccess(t, g.Connect(ctx, f.Port()))
	t.Cleanup(func() { g.Disconnect() })

	var events []telemetry.Event
	tm := telemetry.NewManager(g, m, func(ev telemetry.Event) {
		events = append(events, ev)
	})

	return ctx, tm, f, &events
}

func kinds(events []telemetry.Event) []telemetry.Kind {
	k := make([]telemetry.Kind, 0, len(events))
	for _, ev := range events {
		k = append(k, ev.Kind)
	}
	return k
}

func TestDisabled(t *testing.T) {
	ctx, tm, _, events := setup(t, machine.PET)
	test.DemandSuccess(t, tm.PostEmulatorStart(ctx))
	test.DemandSuccess(t, tm.Update(ctx))
	test.ExpectEquality(t, len(*events), 0)
}

func TestUpdate(t *testing.T) {
	ctx, tm, f, events := setup(t, machine.PET)
	tm.Enable(true)

	test.DemandSuccess(t, tm.PostEmulatorStart(ctx))
	test.DemandEquality(t, len(*events), 1)
	test.ExpectEquality(t, (*events)[0].Kind, telemetry.Palette)
	test.ExpectEquality(t, len((*events)[0].Palette), 16)
	test.ExpectEquality(t, (*events)[0].Palette[2].R, uint8(32))

	*events = nil
	f.SetMemory(0x1000, []byte{0xde, 0xad})
	tm.SetMemoryWindow(0x1000, 0)
	test.DemandSuccess(t, tm.Update(ctx))

	k := kinds(*events)
	test.DemandEquality(t, len(k), 4)
	test.ExpectEquality(t, k[0], telemetry.Registers)
	test.ExpectEquality(t, k[1], telemetry.Current)
	test.ExpectEquality(t, k[2], telemetry.Memory)
	test.ExpectEquality(t, k[3], telemetry.Banks)

	mem := (*events)[2]
	test.ExpectEquality(t, mem.MemoryOffset, 0x1000)
	test.ExpectEquality(t, len(mem.Memory), 0x1000)
	test.ExpectEquality(t, mem.Memory[1], uint8(0xad))

	// the memory window is clipped to the end of the address space
	*events = nil
	tm.SetMemoryWindow(0xff00, 0)
	test.DemandSuccess(t, tm.Update(ctx))
	test.ExpectEquality(t, len((*events)[2].Memory), 0x100)

	frame := (*events)[1].Frame
	test.DemandSuccess(t, frame != nil)
	img, err := png.Decode(bytes.NewReader(frame.PNG))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, img.Bounds().Dx(), 8)
	test.ExpectEquality(t, img.Bounds().Dy(), 4)
	r, _, _, _ := img.At(3, 0).RGBA()
	test.ExpectEquality(t, r>>8, uint32(48))
}

func TestThumbnail(t *testing.T) {
	ctx, tm, _, events := setup(t, machine.PET)
	tm.Enable(true)
	tm.SetThumbnail(4)

	test.DemandSuccess(t, tm.UpdateRunAhead(ctx))
	test.DemandEquality(t, len(*events), 1)
	ev := (*events)[0]
	test.ExpectEquality(t, ev.Kind, telemetry.RunAhead)
	test.ExpectEquality(t, ev.Frame.Width, 4)
	test.ExpectEquality(t, ev.Frame.Height, 2)
}

func TestC64(t *testing.T) {
	ctx, tm, f, events := setup(t, machine.C64)
	tm.Enable(true)
	test.DemandSuccess(t, tm.PostEmulatorStart(ctx))
	*events = nil

	// VIC bank 0, screen at $0400, sprite 0 enabled with its pattern at $2000
	f.SetMemory(0xdd00, []byte{0x03})
	f.SetMemory(0xd018, []byte{0x15})
	f.SetMemory(0xd015, []byte{0x01})
	f.SetMemory(0xd01c, []byte{0x01})
	f.SetMemory(0xd027, []byte{0x17})
	f.SetMemory(0x07f8, []byte{0x80})
	f.SetMemory(0x2000, []byte{0xff, 0x00, 0xff})
	f.SetMemory(0x0400, []byte{0x08, 0x05, 0x0c})
	f.SetMemory(0xd800, []byte{0x01, 0x02})

	test.DemandSuccess(t, tm.Update(ctx))
	k := kinds(*events)
	test.DemandEquality(t, len(k), 6)
	test.ExpectEquality(t, k[4], telemetry.Sprites)
	test.ExpectEquality(t, k[5], telemetry.ScreenText)

	sprites := (*events)[4].Sprites
	test.DemandEquality(t, len(sprites), 1)
	test.ExpectEquality(t, sprites[0].Key, 0x80)
	test.ExpectEquality(t, sprites[0].Enabled, true)
	test.ExpectEquality(t, sprites[0].Multicolor, true)
	test.ExpectEquality(t, sprites[0].Color, 7)
	test.ExpectEquality(t, sprites[0].Data[2], uint8(0xff))

	text := (*events)[5].Text
	test.ExpectEquality(t, len(text.Data), 1000)
	test.ExpectEquality(t, text.Data[1], uint8(0x05))
	test.ExpectEquality(t, text.Colors[1], uint8(0x02))
}
