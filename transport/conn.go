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
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
)

// Sentinel error patterns.
const (
	NotRunning         = "target is not running"
	LockTimeout        = "transport: lock not acquired after %v"
	UnexpectedResponse = "transport: unexpected response to %s: %T"
	ConnectFailed      = "transport: cannot connect to %s: %v"
)

// Timing values.
const (
	// the maximum time spent waiting for Lock()
	LockWait = 5 * time.Second

	// the time spent waiting for the monitor port to accept a connection,
	// for every connection attempt
	ConnectWait = 10 * time.Second

	// the number of connection attempts made by Dial()
	ConnectAttempts = 3

	// the interval between tries when waiting for the port
	connectInterval = 100 * time.Millisecond
)

// Reply is the complete reply to a command.
type Reply struct {
	Response monitor.Response

	// responses with the same request ID that arrived before the terminal
	// response, in the order they arrived
	Related []monitor.Response
}

// ResponseError is returned when the monitor replies to a command with a
// non-zero error code.
type ResponseError struct {
	Command  monitor.Command
	Response monitor.Response
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("transport: %s failed: error code %#02x", e.Command.Type(), e.Response.Head().Error)
}

type result struct {
	reply Reply
	err   error
}

type waiter struct {
	cmd         monitor.Command
	terminal    monitor.ResponseType
	hasTerminal bool
	related     []monitor.Response
	ch          chan result
}

// Conn is a connection to a binary monitor.
type Conn struct {
	conn net.Conn

	// the API version sent with every command
	apiVersion uint8

	// the API version of the most recent response
	remoteAPI atomic.Uint32

	// serialises writes so that batches are not interleaved
	writeCrit sync.Mutex

	crit    sync.Mutex
	nextID  uint32
	waiting map[uint32]*waiter
	subs    map[EventKind][]subscriber
	nextSub Subscription
	err     error

	// only used by the read loop
	dec monitor.Decoder
	asm Reassembler

	lock chan struct{}
	done chan struct{}
}

// New wraps an existing connection. The Conn takes ownership of the
// connection and starts reading from it immediately.
func New(conn net.Conn, apiVersion uint8) *Conn {
	c := &Conn{
		conn:       conn,
		apiVersion: apiVersion,
		waiting:    make(map[uint32]*waiter),
		subs:       make(map[EventKind][]subscriber),
		lock:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go c.read()
	return c
}

// Dial connects to a binary monitor at the address. The port is polled until
// it accepts a connection or ConnectWait has elapsed. The whole process is
// tried ConnectAttempts times.
func Dial(ctx context.Context, address string, apiVersion uint8) (*Conn, error) {
	var err error
	for attempt := 1; attempt <= ConnectAttempts; attempt++ {
		var conn net.Conn
		conn, err = waitPort(ctx, address)
		if err == nil {
			logger.Logf(logger.Allow, "transport", "connected to %s", address)
			return New(conn, apiVersion), nil
		}
		if ctx.Err() != nil {
			break
		}
		logger.Logf(logger.Allow, "transport", "connection attempt %d to %s failed: %v", attempt, address, err)
	}
	return nil, curated.Errorf(ConnectFailed, address, err)
}

func waitPort(ctx context.Context, address string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, ConnectWait)
	defer cancel()

	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", address)
		if err == nil {
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(connectInterval):
		}
	}
}

// APIVersion returns the API version used when sending commands.
func (c *Conn) APIVersion() uint8 {
	return c.apiVersion
}

// RemoteAPIVersion returns the API version of the most recent response.
// Returns zero if no response has been received.
func (c *Conn) RemoteAPIVersion() uint8 {
	return uint8(c.remoteAPI.Load())
}

// Close the connection. Commands waiting for a reply fail with the
// NotRunning error.
func (c *Conn) Close() error {
	err := c.conn.Close()
	<-c.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Done returns a channel that is closed when the connection has ended.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the connection ended. Returns nil if the connection
// is still open.
func (c *Conn) Err() error {
	c.crit.Lock()
	defer c.crit.Unlock()
	return c.err
}

// Exec sends a command and waits for the reply.
func (c *Conn) Exec(ctx context.Context, cmd monitor.Command) (monitor.Response, error) {
	r, err := c.ExecReply(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return r.Response, nil
}

// ExecReply sends a command and waits for the complete reply, including any
// related responses.
func (c *Conn) ExecReply(ctx context.Context, cmd monitor.Command) (Reply, error) {
	r, err := c.ExecBatchReplies(ctx, []monitor.Command{cmd})
	if err != nil {
		return Reply{}, err
	}
	return r[0], nil
}

// ExecBatch sends every command in a single write and waits for all the
// replies. The responses are returned in the order of the commands.
func (c *Conn) ExecBatch(ctx context.Context, cmds []monitor.Command) ([]monitor.Response, error) {
	r, err := c.ExecBatchReplies(ctx, cmds)
	if err != nil {
		return nil, err
	}
	resps := make([]monitor.Response, len(r))
	for i := range r {
		resps[i] = r[i].Response
	}
	return resps, nil
}

// ExecBatchReplies is the same as ExecBatch() but returns the complete
// replies.
func (c *Conn) ExecBatchReplies(ctx context.Context, cmds []monitor.Command) ([]Reply, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	ids := make([]uint32, len(cmds))
	ws := make([]*waiter, len(cmds))

	var frames []byte

	c.crit.Lock()
	if c.err != nil {
		c.crit.Unlock()
		return nil, c.err
	}
	for i, cmd := range cmds {
		ids[i] = c.requestID()
		w := &waiter{
			cmd: cmd,
			ch:  make(chan result, 1),
		}
		w.terminal, w.hasTerminal = monitor.Terminal(cmd)
		ws[i] = w
		c.waiting[ids[i]] = w
		frames = append(frames, monitor.Encode(cmd, c.apiVersion, ids[i])...)
	}
	c.crit.Unlock()

	c.writeCrit.Lock()
	_, err := c.conn.Write(frames)
	c.writeCrit.Unlock()

	if err != nil {
		c.forget(ids)
		return nil, curated.Errorf(NotRunning)
	}

	replies := make([]Reply, len(cmds))
	for i, w := range ws {
		select {
		case r := <-w.ch:
			if r.err != nil {
				c.forget(ids[i+1:])
				return nil, r.err
			}
			replies[i] = r.reply
		case <-ctx.Done():
			c.forget(ids[i:])
			return nil, ctx.Err()
		}
	}

	return replies, nil
}

// must be called with crit locked
func (c *Conn) requestID() uint32 {
	id := c.nextID
	c.nextID++
	if c.nextID > monitor.MaxRequestID {
		c.nextID = 0
	}
	return id
}

func (c *Conn) forget(ids []uint32) {
	c.crit.Lock()
	defer c.crit.Unlock()
	for _, id := range ids {
		delete(c.waiting, id)
	}
}

// Call sends a command and returns the reply as the expected response type.
// A reply of any other type is an error.
func Call[T monitor.Response](ctx context.Context, c *Conn, cmd monitor.Command) (T, error) {
	var zero T
	resp, err := c.Exec(ctx, cmd)
	if err != nil {
		return zero, err
	}
	r, ok := resp.(T)
	if !ok {
		return zero, curated.Errorf(UnexpectedResponse, cmd.Type(), resp)
	}
	return r, nil
}

// CallBatch sends every command in a single write and returns the replies as
// the expected response type.
func CallBatch[T monitor.Response](ctx context.Context, c *Conn, cmds []monitor.Command) ([]T, error) {
	resps, err := c.ExecBatch(ctx, cmds)
	if err != nil {
		return nil, err
	}
	l := make([]T, len(resps))
	for i := range resps {
		r, ok := resps[i].(T)
		if !ok {
			return nil, curated.Errorf(UnexpectedResponse, cmds[i].Type(), resps[i])
		}
		l[i] = r
	}
	return l, nil
}

// Lock runs the function once no other function is running under Lock(). If
// the lock can't be acquired within LockWait the function is not run and the
// LockTimeout error is returned. Lock() is not reentrant.
func (c *Conn) Lock(ctx context.Context, f func() error) error {
	t := time.NewTimer(LockWait)
	defer t.Stop()

	select {
	case c.lock <- struct{}{}:
	case <-t.C:
		return curated.Errorf(LockTimeout, LockWait)
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.lock }()

	return f()
}

func (c *Conn) read() {
	buf := make([]byte, 64*1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			if ferr := c.asm.Write(buf[:n], c.dispatch); ferr != nil {
				logger.Log(logger.Allow, "transport", ferr.Error())
				c.failAll(ferr)
				c.broadcast(Event{Kind: Failure, Err: ferr})
			}
		}
		if err != nil {
			c.shutdown(err)
			return
		}
	}
}

func (c *Conn) shutdown(err error) {
	logger.Logf(logger.Allow, "transport", "connection ended: %v", err)

	c.crit.Lock()
	c.err = curated.Errorf(NotRunning)
	c.crit.Unlock()

	c.failAll(c.err)
	c.broadcast(Event{Kind: Failure, Err: c.err})
	close(c.done)
}

func (c *Conn) failAll(err error) {
	c.crit.Lock()
	w := c.waiting
	c.waiting = make(map[uint32]*waiter)
	c.crit.Unlock()

	for _, w := range w {
		w.ch <- result{err: err}
	}
}

func (c *Conn) dispatch(h monitor.Header, body []byte) {
	c.remoteAPI.Store(uint32(h.APIVersion))

	resp, err := c.dec.Decode(h, body)

	if kind, ok := eventKind(h.Type); ok && (h.RequestID == monitor.EventID || kind == Stopped || kind == Resumed) {
		if err != nil {
			logger.Logf(logger.Allow, "transport", "%s: %v", h.Type, err)
		} else {
			c.broadcast(Event{Kind: kind, Response: resp})
		}
	}

	if h.RequestID == monitor.EventID {
		return
	}

	c.crit.Lock()
	w, ok := c.waiting[h.RequestID]
	if !ok {
		c.crit.Unlock()
		logger.Logf(logger.Allow, "transport", "no command waiting for %s", h.String())
		return
	}

	if err != nil {
		delete(c.waiting, h.RequestID)
		c.crit.Unlock()
		w.ch <- result{err: err}
		return
	}

	if h.Error != 0 {
		delete(c.waiting, h.RequestID)
		c.crit.Unlock()
		w.ch <- result{err: &ResponseError{Command: w.cmd, Response: resp}}
		return
	}

	if w.hasTerminal && h.Type != w.terminal {
		w.related = append(w.related, resp)
		c.crit.Unlock()
		return
	}

	delete(c.waiting, h.RequestID)
	c.crit.Unlock()

	w.ch <- result{reply: Reply{Response: resp, Related: w.related}}
}
