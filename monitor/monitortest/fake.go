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

// Package monitortest provides an in-process fake of the binary monitor. The
// Fake listens on a loopback TCP port and speaks the wire protocol with real
// frames, so it can stand in for an emulator in tests of the transport, grip,
// call stack and debugger packages.
//
// Program execution is modelled by a trace: a list of steps, each giving the
// address of an executed instruction and the addresses it writes to. The
// current position is always the step the CPU is about to execute. Resuming
// moves forward through the trace, reporting checkpoint hits along the way,
// until a stopping checkpoint is hit or the trace is exhausted.
package monitortest

import (
	"io"
	"net"
	"strings"
	"sync"

	"github.com/jetsetilly/cc65dbg/monitor"
)

// Step is one executed instruction.
type Step struct {
	PC     uint16
	Writes []uint16
}

// Handler replaces the Fake's behaviour for a command type. The responses
// returned are sent in order. Responses with a zero request ID are given the
// request's ID.
type Handler func(req monitor.Request) []monitor.Response

// Register IDs used by the Fake. These are the same IDs that VICE uses for the
// 6502.
const (
	RegA   = 0x00
	RegX   = 0x01
	RegY   = 0x02
	RegPC  = 0x03
	RegSP  = 0x04
	RegFL  = 0x05
	RegLIN = 0x35
	RegCYC = 0x36
)

type checkpoint struct {
	info      monitor.CheckpointInfo
	condition string
}

type snapshot struct {
	memory    [0x10000]byte
	registers map[uint8]uint16
	position  int
}

// Fake is an in-process binary monitor.
type Fake struct {
	ln net.Listener

	crit sync.Mutex

	conns []net.Conn

	// the API version used in every response
	APIVersion uint8

	// the version reported by the emulatorInfo command
	Version []byte

	memory    [0x10000]byte
	registers map[uint8]uint16

	checkpoints map[uint32]*checkpoint
	nextID      uint32

	resources map[string]monitor.ResourceGetResponse
	snapshots map[string]snapshot

	trace    []Step
	position int
	running  bool

	handlers map[monitor.CommandType]Handler
	received []monitor.Request
	keys     strings.Builder
	joyport  map[uint16]uint16
}

// NewFake starts a Fake listening on a free loopback port.
func NewFake() (*Fake, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	f := &Fake{
		ln:          ln,
		APIVersion:  2,
		Version:     []byte{3, 7, 1, 0},
		checkpoints: make(map[uint32]*checkpoint),
		nextID:      1,
		resources:   make(map[string]monitor.ResourceGetResponse),
		snapshots:   make(map[string]snapshot),
		handlers:    make(map[monitor.CommandType]Handler),
		joyport:     make(map[uint16]uint16),
		registers: map[uint8]uint16{
			RegA:   0,
			RegX:   0,
			RegY:   0,
			RegPC:  0,
			RegSP:  0xff,
			RegFL:  0x20,
			RegLIN: 0,
			RegCYC: 0,
		},
	}

	f.resources["MonitorServer"] = monitor.ResourceGetResponse{ResourceType: monitor.ResourceInt, IntValue: 1}
	f.resources["MonitorServerAddress"] = monitor.ResourceGetResponse{ResourceType: monitor.ResourceString, StringValue: "ip4://127.0.0.1:6510"}

	go f.accept()

	return f, nil
}

// Addr returns the address the Fake is listening on.
func (f *Fake) Addr() string {
	return f.ln.Addr().String()
}

// Port returns the port the Fake is listening on.
func (f *Fake) Port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

// Close stops listening and closes every connection.
func (f *Fake) Close() error {
	err := f.ln.Close()
	f.crit.Lock()
	defer f.crit.Unlock()
	for _, c := range f.conns {
		c.Close()
	}
	f.conns = nil
	return err
}

// SetTrace replaces the trace and moves to the first step. The Fake is
// stopped afterwards.
func (f *Fake) SetTrace(trace []Step) {
	f.crit.Lock()
	defer f.crit.Unlock()
	f.trace = trace
	f.position = 0
	f.running = false
	if len(trace) > 0 {
		f.registers[RegPC] = trace[0].PC
	}
}

// Position returns the index of the current step in the trace.
func (f *Fake) Position() int {
	f.crit.Lock()
	defer f.crit.Unlock()
	return f.position
}

// Running returns true if the Fake considers the CPU to be running.
func (f *Fake) Running() bool {
	f.crit.Lock()
	defer f.crit.Unlock()
	return f.running
}

// SetMemory writes data to memory at address.
func (f *Fake) SetMemory(address uint16, data []byte) {
	f.crit.Lock()
	defer f.crit.Unlock()
	copy(f.memory[address:], data)
}

// Memory returns a copy of memory.
func (f *Fake) Memory() []byte {
	f.crit.Lock()
	defer f.crit.Unlock()
	m := make([]byte, len(f.memory))
	copy(m, f.memory[:])
	return m
}

// SetRegister sets the value of a register.
func (f *Fake) SetRegister(id uint8, value uint16) {
	f.crit.Lock()
	defer f.crit.Unlock()
	f.registers[id] = value
}

// Register returns the value of a register.
func (f *Fake) Register(id uint8) uint16 {
	f.crit.Lock()
	defer f.crit.Unlock()
	return f.registers[id]
}

// SetResource sets the value of an emulator resource.
func (f *Fake) SetResource(name string, value monitor.ResourceGetResponse) {
	f.crit.Lock()
	defer f.crit.Unlock()
	f.resources[name] = value
}

// Handle installs a handler that overrides the Fake's behaviour for a command
// type. A nil handler restores the default behaviour.
func (f *Fake) Handle(t monitor.CommandType, h Handler) {
	f.crit.Lock()
	defer f.crit.Unlock()
	if h == nil {
		delete(f.handlers, t)
		return
	}
	f.handlers[t] = h
}

// Received returns every request received so far, in order.
func (f *Fake) Received() []monitor.Request {
	f.crit.Lock()
	defer f.crit.Unlock()
	r := make([]monitor.Request, len(f.received))
	copy(r, f.received)
	return r
}

// Count returns the number of requests received of a command type.
func (f *Fake) Count(t monitor.CommandType) int {
	f.crit.Lock()
	defer f.crit.Unlock()
	n := 0
	for _, r := range f.received {
		if r.Command.Type() == t {
			n++
		}
	}
	return n
}

// Checkpoints returns a copy of every checkpoint, in no particular order.
func (f *Fake) Checkpoints() []monitor.CheckpointInfo {
	f.crit.Lock()
	defer f.crit.Unlock()
	l := make([]monitor.CheckpointInfo, 0, len(f.checkpoints))
	for _, cp := range f.checkpoints {
		l = append(l, cp.info)
	}
	return l
}

// Condition returns the condition attached to a checkpoint.
func (f *Fake) Condition(id uint32) string {
	f.crit.Lock()
	defer f.crit.Unlock()
	if cp, ok := f.checkpoints[id]; ok {
		return cp.condition
	}
	return ""
}

// Keys returns the text received by keyboardFeed commands.
func (f *Fake) Keys() string {
	f.crit.Lock()
	defer f.crit.Unlock()
	return f.keys.String()
}

// Joyport returns the last value set for a joystick port.
func (f *Fake) Joyport(port uint16) uint16 {
	f.crit.Lock()
	defer f.crit.Unlock()
	return f.joyport[port]
}

// Push sends a response to every connection. Use it to send events that the
// Fake would not otherwise generate.
func (f *Fake) Push(resp monitor.Response) {
	f.crit.Lock()
	defer f.crit.Unlock()
	h := resp.Head()
	h.APIVersion = f.APIVersion
	b := monitor.EncodeResponse(resp)
	for _, c := range f.conns {
		c.Write(b)
	}
}

func (f *Fake) accept() {
	for {
		c, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.crit.Lock()
		f.conns = append(f.conns, c)
		f.crit.Unlock()
		go f.serve(c)
	}
}

func (f *Fake) serve(c net.Conn) {
	defer func() {
		c.Close()
		f.crit.Lock()
		defer f.crit.Unlock()
		for i := range f.conns {
			if f.conns[i] == c {
				f.conns = append(f.conns[:i], f.conns[i+1:]...)
				break
			}
		}
	}()

	hdr := make([]byte, monitor.RequestHeaderSize)
	for {
		if _, err := io.ReadFull(c, hdr); err != nil {
			return
		}
		_, _, _, n, err := monitor.ParseRequestHeader(hdr)
		if err != nil {
			return
		}
		frame := make([]byte, monitor.RequestHeaderSize+n)
		copy(frame, hdr)
		if _, err := io.ReadFull(c, frame[monitor.RequestHeaderSize:]); err != nil {
			return
		}

		req, err := monitor.DecodeCommand(frame)
		if err != nil {
			return
		}

		var out []byte
		for _, resp := range f.process(req) {
			h := resp.Head()
			h.APIVersion = f.APIVersion
			out = append(out, monitor.EncodeResponse(resp)...)
		}

		if _, err := c.Write(out); err != nil {
			return
		}
	}
}

// process a single request and return every response it causes, including
// events.
func (f *Fake) process(req monitor.Request) []monitor.Response {
	f.crit.Lock()
	defer f.crit.Unlock()

	f.received = append(f.received, req)

	var out []monitor.Response

	// any command other than exit stops a running CPU, the same as the
	// monitor of a real emulator
	t := req.Command.Type()
	if f.running && t != monitor.CmdExit {
		f.running = false
		out = append(out, f.stopEvents()...)
	}

	if h, ok := f.handlers[t]; ok {
		for _, resp := range h(req) {
			if resp.Head().RequestID == 0 {
				resp.Head().RequestID = req.RequestID
			}
			out = append(out, resp)
		}
		return out
	}

	return append(out, f.command(req)...)
}

func (f *Fake) reply(req monitor.Request, t monitor.ResponseType) monitor.Header {
	return monitor.Header{Type: t, RequestID: req.RequestID}
}

func (f *Fake) fail(req monitor.Request, t monitor.ResponseType) monitor.Response {
	return &monitor.Empty{Header: monitor.Header{Type: t, Error: 0x01, RequestID: req.RequestID}}
}

func (f *Fake) registerInfo(h monitor.Header) *monitor.RegisterInfo {
	ri := &monitor.RegisterInfo{Header: h}
	for _, id := range []uint8{RegA, RegX, RegY, RegPC, RegSP, RegFL, RegLIN, RegCYC} {
		ri.Registers = append(ri.Registers, monitor.RegisterValue{ID: id, Value: f.registers[id]})
	}
	return ri
}

// the events sent when the CPU stops
func (f *Fake) stopEvents() []monitor.Response {
	return []monitor.Response{
		f.registerInfo(monitor.Header{Type: monitor.RespRegisterInfo, RequestID: monitor.EventID}),
		&monitor.Stopped{Header: monitor.Header{Type: monitor.RespStopped, RequestID: monitor.EventID}, PC: f.registers[RegPC]},
	}
}

func (f *Fake) command(req monitor.Request) []monitor.Response {
	switch cmd := req.Command.(type) {
	case monitor.MemoryGet:
		if cmd.End < cmd.Start {
			return []monitor.Response{f.fail(req, monitor.RespMemoryGet)}
		}
		data := make([]byte, int(cmd.End)-int(cmd.Start)+1)
		copy(data, f.memory[cmd.Start:])
		return []monitor.Response{&monitor.MemoryGetResponse{Header: f.reply(req, monitor.RespMemoryGet), Data: data}}

	case monitor.MemorySet:
		copy(f.memory[cmd.Start:], cmd.Data)
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespMemorySet)}}

	case monitor.CheckpointGet:
		cp, ok := f.checkpoints[cmd.ID]
		if !ok {
			return []monitor.Response{f.fail(req, monitor.RespCheckpointInfo)}
		}
		ci := cp.info
		ci.Header = f.reply(req, monitor.RespCheckpointInfo)
		return []monitor.Response{&ci}

	case monitor.CheckpointSet:
		cp := &checkpoint{
			info: monitor.CheckpointInfo{
				ID:        f.nextID,
				Start:     cmd.Start,
				End:       cmd.End,
				Stop:      cmd.Stop,
				Enabled:   cmd.Enabled,
				Operation: cmd.Operation,
				Temporary: cmd.Temporary,
			},
		}
		f.nextID++
		f.checkpoints[cp.info.ID] = cp
		ci := cp.info
		ci.Header = f.reply(req, monitor.RespCheckpointInfo)
		return []monitor.Response{&ci}

	case monitor.CheckpointDelete:
		if _, ok := f.checkpoints[cmd.ID]; !ok {
			return []monitor.Response{f.fail(req, monitor.RespCheckpointDelete)}
		}
		delete(f.checkpoints, cmd.ID)
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespCheckpointDelete)}}

	case monitor.CheckpointList:
		var out []monitor.Response
		for id := uint32(1); id < f.nextID; id++ {
			cp, ok := f.checkpoints[id]
			if !ok {
				continue
			}
			ci := cp.info
			ci.Header = f.reply(req, monitor.RespCheckpointInfo)
			out = append(out, &ci)
		}
		out = append(out, &monitor.CheckpointListResponse{
			Header: f.reply(req, monitor.RespCheckpointList),
			Count:  uint32(len(out)),
		})
		return out

	case monitor.CheckpointToggle:
		cp, ok := f.checkpoints[cmd.ID]
		if !ok {
			return []monitor.Response{f.fail(req, monitor.RespCheckpointToggle)}
		}
		cp.info.Enabled = cmd.Enabled
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespCheckpointToggle)}}

	case monitor.ConditionSet:
		cp, ok := f.checkpoints[cmd.ID]
		if !ok {
			return []monitor.Response{f.fail(req, monitor.RespConditionSet)}
		}
		cp.condition = cmd.Condition
		cp.info.HasCondition = cmd.Condition != ""
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespConditionSet)}}

	case monitor.RegistersGet:
		return []monitor.Response{f.registerInfo(f.reply(req, monitor.RespRegisterInfo))}

	case monitor.RegistersSet:
		for _, r := range cmd.Registers {
			f.registers[r.ID] = r.Value
		}
		return []monitor.Response{f.registerInfo(f.reply(req, monitor.RespRegisterInfo))}

	case monitor.Dump:
		s := snapshot{
			memory:    f.memory,
			registers: make(map[uint8]uint16, len(f.registers)),
			position:  f.position,
		}
		for k, v := range f.registers {
			s.registers[k] = v
		}
		f.snapshots[cmd.Filename] = s
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespDump)}}

	case monitor.Undump:
		s, ok := f.snapshots[cmd.Filename]
		if !ok {
			return []monitor.Response{f.fail(req, monitor.RespUndump)}
		}
		f.memory = s.memory
		f.registers = make(map[uint8]uint16, len(s.registers))
		for k, v := range s.registers {
			f.registers[k] = v
		}
		f.position = s.position
		return []monitor.Response{&monitor.UndumpResponse{Header: f.reply(req, monitor.RespUndump), PC: f.registers[RegPC]}}

	case monitor.ResourceGet:
		v, ok := f.resources[cmd.Name]
		if !ok {
			return []monitor.Response{f.fail(req, monitor.RespResourceGet)}
		}
		v.Header = f.reply(req, monitor.RespResourceGet)
		return []monitor.Response{&v}

	case monitor.ResourceSet:
		f.resources[cmd.Name] = monitor.ResourceGetResponse{
			ResourceType: cmd.ResourceType,
			StringValue:  cmd.StringValue,
			IntValue:     cmd.IntValue,
		}
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespResourceSet)}}

	case monitor.AdvanceInstructions:
		n := int(cmd.Count)
		if n < 1 {
			n = 1
		}
		f.step(n)
		out := []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespAdvanceInstructions)}}
		return append(out, f.stopEvents()...)

	case monitor.ExecuteUntilReturn:
		for f.position < len(f.trace)-1 {
			rts := f.memory[f.trace[f.position].PC] == 0x60
			f.step(1)
			if rts {
				break
			}
		}
		out := []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespExecuteUntilReturn)}}
		return append(out, f.stopEvents()...)

	case monitor.KeyboardFeed:
		f.keys.WriteString(cmd.Text)
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespKeyboardFeed)}}

	case monitor.Ping:
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespPing)}}

	case monitor.BanksAvailable:
		return []monitor.Response{&monitor.BanksAvailableResponse{
			Header: f.reply(req, monitor.RespBanksAvailable),
			Banks: []monitor.BankMeta{
				{ID: 0, Name: "default"},
				{ID: 1, Name: "cpu"},
				{ID: 2, Name: "ram"},
				{ID: 3, Name: "rom"},
				{ID: 4, Name: "io"},
			},
		}}

	case monitor.RegistersAvailable:
		return []monitor.Response{&monitor.RegistersAvailableResponse{
			Header: f.reply(req, monitor.RespRegistersAvailable),
			Registers: []monitor.RegisterMeta{
				{ID: RegA, Bits: 8, Name: "A"},
				{ID: RegX, Bits: 8, Name: "X"},
				{ID: RegY, Bits: 8, Name: "Y"},
				{ID: RegPC, Bits: 16, Name: "PC"},
				{ID: RegSP, Bits: 8, Name: "SP"},
				{ID: RegFL, Bits: 8, Name: "FL"},
				{ID: RegLIN, Bits: 16, Name: "LIN"},
				{ID: RegCYC, Bits: 16, Name: "CYC"},
			},
		}}

	case monitor.DisplayGet:
		const w, h = 8, 4
		data := make([]byte, w*h)
		for i := range data {
			data[i] = byte(i % 16)
		}
		return []monitor.Response{&monitor.DisplayGetResponse{
			Header:      f.reply(req, monitor.RespDisplayGet),
			DebugWidth:  w,
			DebugHeight: h,
			InnerWidth:  w,
			InnerHeight: h,
			BPP:         8,
			Data:        data,
		}}

	case monitor.EmulatorInfo:
		return []monitor.Response{&monitor.EmulatorInfoResponse{
			Header:      f.reply(req, monitor.RespEmulatorInfo),
			Version:     f.Version,
			SVNRevision: 0,
		}}

	case monitor.PaletteGet:
		p := &monitor.PaletteGetResponse{Header: f.reply(req, monitor.RespPaletteGet)}
		for i := 0; i < 16; i++ {
			v := uint8(i * 16)
			p.Entries = append(p.Entries, monitor.PaletteEntry{Red: v, Green: v, Blue: v})
		}
		return []monitor.Response{p}

	case monitor.JoyportSet:
		f.joyport[cmd.Port] = cmd.Value
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespJoyportSet)}}

	case monitor.Exit:
		out := []monitor.Response{
			&monitor.Empty{Header: f.reply(req, monitor.RespExit)},
			&monitor.Resumed{Header: monitor.Header{Type: monitor.RespResumed, RequestID: monitor.EventID}, PC: f.registers[RegPC]},
		}
		return append(out, f.run()...)

	case monitor.Quit:
		f.running = false
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespQuit)}}

	case monitor.Reset:
		f.position = 0
		if len(f.trace) > 0 {
			f.registers[RegPC] = f.trace[0].PC
		}
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespReset)}}

	case monitor.Autostart:
		return []monitor.Response{&monitor.Empty{Header: f.reply(req, monitor.RespAutostart)}}
	}

	return []monitor.Response{f.fail(req, monitor.ResponseType(req.Command.Type()))}
}

// move n steps forward without reporting checkpoints
func (f *Fake) step(n int) {
	for ; n > 0 && f.position < len(f.trace)-1; n-- {
		f.position++
		f.advance()
	}
}

// update registers for the current step
func (f *Fake) advance() {
	s := f.trace[f.position]
	f.registers[RegPC] = s.PC
	f.registers[RegCYC] += 2
	if f.position%8 == 0 {
		f.registers[RegLIN]++
	}
}

// run forward from the current step, reporting checkpoint hits, until a
// stopping checkpoint is hit or the end of the trace is reached. if the end of
// the trace is reached the CPU is left running.
func (f *Fake) run() []monitor.Response {
	var out []monitor.Response

	f.running = true

	for f.position < len(f.trace)-1 {
		f.position++
		f.advance()

		s := f.trace[f.position]
		stop := false

		for id := uint32(1); id < f.nextID; id++ {
			cp, ok := f.checkpoints[id]
			if !ok || !cp.info.Enabled {
				continue
			}

			hit := false
			if cp.info.Operation&monitor.OpExec == monitor.OpExec {
				hit = s.PC >= cp.info.Start && s.PC <= cp.info.End
			}
			if !hit && cp.info.Operation&monitor.OpStore == monitor.OpStore {
				for _, w := range s.Writes {
					if w >= cp.info.Start && w <= cp.info.End {
						hit = true
						break
					}
				}
			}
			if !hit {
				continue
			}

			cp.info.HitCount++
			ci := cp.info
			ci.Header = monitor.Header{Type: monitor.RespCheckpointInfo, RequestID: monitor.EventID}
			ci.Hit = true
			out = append(out, &ci)

			if cp.info.Temporary {
				delete(f.checkpoints, id)
			}
			if cp.info.Stop {
				stop = true
			}
		}

		if stop {
			f.running = false
			return append(out, f.stopEvents()...)
		}
	}

	return out
}
