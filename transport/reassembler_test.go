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

package transport_test

import (
	"math/rand"
	"testing"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/test"
	"github.com/jetsetilly/cc65dbg/transport"
)

type frame struct {
	header monitor.Header
	body   string
}

func sampleStream() []byte {
	var b []byte
	b = append(b, monitor.EncodeResponse(&monitor.Stopped{
		Header: monitor.Header{APIVersion: 2, Type: monitor.RespStopped, RequestID: monitor.EventID},
		PC:     0x080d,
	})...)
	b = append(b, monitor.EncodeResponse(&monitor.MemoryGetResponse{
		Header: monitor.Header{APIVersion: 2, Type: monitor.RespMemoryGet, RequestID: 7},
		Data:   []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17},
	})...)
	b = append(b, monitor.EncodeResponse(&monitor.Empty{
		Header: monitor.Header{APIVersion: 2, Type: monitor.RespPing, RequestID: 8},
	})...)
	b = append(b, monitor.EncodeResponse(&monitor.CheckpointInfo{
		Header: monitor.Header{APIVersion: 2, Type: monitor.RespCheckpointInfo, RequestID: monitor.EventID},
		ID:     3,
		Hit:    true,
		Start:  0x0810,
		End:    0x0810,
	})...)
	return b
}

func collect(t *testing.T, chunks [][]byte) []frame {
	t.Helper()
	var r transport.Reassembler
	var frames []frame
	for _, c := range chunks {
		err := r.Write(c, func(h monitor.Header, body []byte) {
			frames = append(frames, frame{header: h, body: string(body)})
		})
		test.DemandSuccess(t, err)
	}
	test.ExpectEquality(t, r.Pending(), 0)
	return frames
}

func TestReassemblerChunking(t *testing.T) {
	stream := sampleStream()

	whole := collect(t, [][]byte{stream})
	test.DemandEquality(t, len(whole), 4)
	test.ExpectEquality(t, whole[0].header.Type, monitor.RespStopped)
	test.ExpectEquality(t, whole[1].header.RequestID, uint32(7))
	test.ExpectEquality(t, len(whole[1].body), 19)
	test.ExpectEquality(t, whole[2].header.Type, monitor.RespPing)
	test.ExpectEquality(t, whole[3].header.Type, monitor.RespCheckpointInfo)

	var bytewise [][]byte
	for i := range stream {
		bytewise = append(bytewise, stream[i:i+1])
	}
	single := collect(t, bytewise)
	test.DemandEquality(t, len(single), len(whole))
	for i := range whole {
		test.ExpectEquality(t, single[i], whole[i], "bytewise", i)
	}

	rnd := rand.New(rand.NewSource(65))
	for trial := 0; trial < 50; trial++ {
		var chunks [][]byte
		for p := 0; p < len(stream); {
			n := 1 + rnd.Intn(30)
			if p+n > len(stream) {
				n = len(stream) - p
			}
			chunks = append(chunks, stream[p:p+n])
			p += n
		}
		random := collect(t, chunks)
		test.DemandEquality(t, len(random), len(whole), "trial", trial)
		for i := range whole {
			test.ExpectEquality(t, random[i], whole[i], "trial", trial, i)
		}
	}
}

func TestReassemblerBadStart(t *testing.T) {
	var r transport.Reassembler
	stream := sampleStream()
	stream[0] = 0x03

	n := 0
	err := r.Write(stream, func(monitor.Header, []byte) { n++ })
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, transport.BadFrame))
	test.ExpectEquality(t, n, 0)
	test.ExpectEquality(t, r.Pending(), 0)

	// the reassembler is usable again after the error
	err = r.Write(sampleStream(), func(monitor.Header, []byte) { n++ })
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, n, 4)
}
