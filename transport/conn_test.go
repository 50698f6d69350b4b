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
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/monitor/monitortest"
	"github.com/jetsetilly/cc65dbg/test"
	"github.com/jetsetilly/cc65dbg/transport"
)

func readRequest(conn net.Conn) (monitor.Request, error) {
	hdr := make([]byte, monitor.RequestHeaderSize)
	if _, err := io.ReadFull(conn, hdr); err != nil {
		return monitor.Request{}, err
	}
	_, _, _, n, err := monitor.ParseRequestHeader(hdr)
	if err != nil {
		return monitor.Request{}, err
	}
	frame := make([]byte, monitor.RequestHeaderSize+n)
	copy(frame, hdr)
	if _, err := io.ReadFull(conn, frame[monitor.RequestHeaderSize:]); err != nil {
		return monitor.Request{}, err
	}
	return monitor.DecodeCommand(frame)
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// memoryGet requests are answered in the reverse order to the order they
// arrive. each reply contains the start address of the request
func TestCorrelation(t *testing.T) {
	const n = 8

	client, server := net.Pipe()
	conn := transport.New(client, 2)
	defer conn.Close()

	go func() {
		var reqs []monitor.Request
		for len(reqs) < n {
			req, err := readRequest(server)
			if err != nil {
				return
			}
			reqs = append(reqs, req)
		}

		var out []byte
		for i := len(reqs) - 1; i >= 0; i-- {
			cmd := reqs[i].Command.(monitor.MemoryGet)
			out = append(out, monitor.EncodeResponse(&monitor.MemoryGetResponse{
				Header: monitor.Header{APIVersion: 2, Type: monitor.RespMemoryGet, RequestID: reqs[i].RequestID},
				Data:   []byte{uint8(cmd.Start)},
			})...)
		}
		server.Write(out)
	}()

	ctx := timeout(t)

	var wg sync.WaitGroup
	results := make([]uint8, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := transport.Call[*monitor.MemoryGetResponse](ctx, conn, monitor.MemoryGet{
				Start: uint16(i),
				End:   uint16(i),
			})
			errs[i] = err
			if err == nil {
				results[i] = r.Data[0]
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		test.ExpectSuccess(t, errs[i], i)
		test.ExpectEquality(t, results[i], uint8(i), i)
	}
}

// the checkpoint list reply collects the checkpoint info responses that
// arrive before it. a reply to a different command arrives in the middle
func TestRelated(t *testing.T) {
	client, server := net.Pipe()
	conn := transport.New(client, 2)
	defer conn.Close()

	go func() {
		list, err := readRequest(server)
		if err != nil {
			return
		}
		ping, err := readRequest(server)
		if err != nil {
			return
		}

		var out []byte
		for _, id := range []uint32{5, 2, 9} {
			out = append(out, monitor.EncodeResponse(&monitor.CheckpointInfo{
				Header: monitor.Header{APIVersion: 2, Type: monitor.RespCheckpointInfo, RequestID: list.RequestID},
				ID:     id,
			})...)
			if id == 2 {
				out = append(out, monitor.EncodeResponse(&monitor.Empty{
					Header: monitor.Header{APIVersion: 2, Type: monitor.RespPing, RequestID: ping.RequestID},
				})...)
			}
		}
		out = append(out, monitor.EncodeResponse(&monitor.CheckpointListResponse{
			Header: monitor.Header{APIVersion: 2, Type: monitor.RespCheckpointList, RequestID: list.RequestID},
			Count:  3,
		})...)
		server.Write(out)
	}()

	ctx := timeout(t)

	replies, err := conn.ExecBatchReplies(ctx, []monitor.Command{monitor.CheckpointList{}, monitor.Ping{}})
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(replies), 2)

	lr := test.DemandImplements[*monitor.CheckpointListResponse](t, replies[0].Response)
	test.ExpectEquality(t, lr.Count, uint32(3))
	test.DemandEquality(t, len(replies[0].Related), 3)
	for i, id := range []uint32{5, 2, 9} {
		ci := test.DemandImplements[*monitor.CheckpointInfo](t, replies[0].Related[i])
		test.ExpectEquality(t, ci.ID, id, i)
	}

	test.ExpectEquality(t, replies[1].Response.Head().Type, monitor.RespPing)
	test.ExpectEquality(t, len(replies[1].Related), 0)
}

func TestResponseError(t *testing.T) {
	client, server := net.Pipe()
	conn := transport.New(client, 2)
	defer conn.Close()

	go func() {
		req, err := readRequest(server)
		if err != nil {
			return
		}
		server.Write(monitor.EncodeResponse(&monitor.Empty{
			Header: monitor.Header{APIVersion: 2, Type: monitor.RespCheckpointDelete, Error: 0x01, RequestID: req.RequestID},
		}))
	}()

	_, err := conn.Exec(timeout(t), monitor.CheckpointDelete{ID: 99})
	test.DemandFailure(t, err)

	var rerr *transport.ResponseError
	test.DemandSuccess(t, errors.As(err, &rerr))
	test.ExpectEquality(t, rerr.Command.Type(), monitor.CmdCheckpointDelete)
	test.ExpectEquality(t, rerr.Response.Head().Error, uint8(0x01))
	test.ExpectEquality(t, rerr.Command.(monitor.CheckpointDelete).ID, uint32(99))
}

func TestNotRunning(t *testing.T) {
	client, server := net.Pipe()
	conn := transport.New(client, 2)

	done := make(chan error, 1)
	go func() {
		_, err := conn.Exec(context.Background(), monitor.Ping{})
		done <- err
	}()

	// the request is read but never answered
	_, err := readRequest(server)
	test.DemandSuccess(t, err)
	server.Close()

	select {
	case err := <-done:
		test.ExpectSuccess(t, curated.Is(err, transport.NotRunning))
	case <-time.After(5 * time.Second):
		t.Fatal("waiting command was not failed")
	}

	<-conn.Done()
	_, err = conn.Exec(context.Background(), monitor.Ping{})
	test.ExpectSuccess(t, curated.Is(err, transport.NotRunning))
	test.ExpectEquality(t, err.Error(), "target is not running")
}

func TestBadFrameFailsWaiters(t *testing.T) {
	client, server := net.Pipe()
	conn := transport.New(client, 2)
	defer conn.Close()

	w := conn.Expect(transport.Stopped, nil)

	go func() {
		if _, err := readRequest(server); err != nil {
			return
		}
		server.Write([]byte{0x07, 0x02, 0, 0, 0, 0, 0x81, 0, 0, 0, 0, 0})
	}()

	ctx := timeout(t)

	_, err := conn.Exec(ctx, monitor.Ping{})
	test.ExpectSuccess(t, curated.Is(err, transport.BadFrame))

	_, err = w.Wait(ctx)
	test.ExpectSuccess(t, curated.Is(err, transport.BadFrame))
}

func TestLock(t *testing.T) {
	f, err := monitortest.NewFake()
	test.DemandSuccess(t, err)
	defer f.Close()

	ctx := timeout(t)
	conn, err := transport.Dial(ctx, f.Addr(), 2)
	test.DemandSuccess(t, err)
	defer conn.Close()

	var crit sync.Mutex
	inside := 0
	maximum := 0

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := conn.Lock(ctx, func() error {
				crit.Lock()
				inside++
				if inside > maximum {
					maximum = inside
				}
				crit.Unlock()

				_, err := conn.Exec(ctx, monitor.Ping{})

				crit.Lock()
				inside--
				crit.Unlock()
				return err
			})
			test.ExpectSuccess(t, err)
		}()
	}
	wg.Wait()

	test.ExpectEquality(t, maximum, 1)
	test.ExpectEquality(t, f.Count(monitor.CmdPing), 4)
}

func TestEvents(t *testing.T) {
	f, err := monitortest.NewFake()
	test.DemandSuccess(t, err)
	defer f.Close()

	f.SetTrace([]monitortest.Step{{PC: 0x1000}, {PC: 0x1002}, {PC: 0x1004}, {PC: 0x1005}})

	ctx := timeout(t)
	conn, err := transport.Dial(ctx, f.Addr(), 2)
	test.DemandSuccess(t, err)
	defer conn.Close()

	ci, err := transport.Call[*monitor.CheckpointInfo](ctx, conn, monitor.CheckpointSet{
		Start:     0x1004,
		End:       0x1004,
		Stop:      true,
		Enabled:   true,
		Operation: monitor.OpExec,
	})
	test.DemandSuccess(t, err)

	var crit sync.Mutex
	var hits []uint32
	conn.Subscribe(transport.CheckpointHit, func(e transport.Event) {
		crit.Lock()
		defer crit.Unlock()
		hits = append(hits, e.Response.(*monitor.CheckpointInfo).ID)
	})

	resumed := conn.Expect(transport.Resumed, nil)
	stopped := conn.Expect(transport.Stopped, nil)

	_, err = conn.Exec(ctx, monitor.Exit{})
	test.DemandSuccess(t, err)

	e, err := resumed.Wait(ctx)
	test.DemandSuccess(t, err)
	pc, _ := e.PC()
	test.ExpectEquality(t, pc, uint16(0x1000))

	e, err = stopped.Wait(ctx)
	test.DemandSuccess(t, err)
	pc, _ = e.PC()
	test.ExpectEquality(t, pc, uint16(0x1004))

	crit.Lock()
	defer crit.Unlock()
	test.DemandEquality(t, len(hits), 1)
	test.ExpectEquality(t, hits[0], ci.ID)
}
