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

package grip

import (
	"context"
	"sync"
	"time"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/transport"
)

// the time allowed for the emulator to quit before it is killed
const killDelay = time.Second

// Grip controls one emulator.
type Grip struct {
	family Family

	// used to launch emulator processes
	Launcher Launcher

	crit  sync.Mutex
	conn  *transport.Conn
	procs []Process

	// the port of the text monitor. zero if there is no text monitor
	TextPort int
}

// NewGrip is the preferred method of initialisation for the Grip type.
func NewGrip(family Family) *Grip {
	return &Grip{
		family:   family,
		Launcher: ExecLauncher,
	}
}

// Family returns the emulator family.
func (g *Grip) Family() Family {
	return g.family
}

// Conn returns the current connection. Returns nil if not connected.
func (g *Grip) Conn() *transport.Conn {
	g.crit.Lock()
	defer g.crit.Unlock()
	return g.conn
}

func (g *Grip) attach(conn *transport.Conn) {
	g.crit.Lock()
	defer g.crit.Unlock()
	g.conn = conn
}

func (g *Grip) launch(ctx context.Context, cmd Command) error {
	logger.Logf(logger.Allow, "grip", "starting %s", cmd)
	p, err := g.Launcher(ctx, cmd)
	if err != nil {
		return curated.Errorf(LaunchFailed, cmd.Title, cmd.String(), err)
	}
	g.crit.Lock()
	g.procs = append(g.procs, p)
	g.crit.Unlock()
	return nil
}

// Connect to an emulator that is already running.
func (g *Grip) Connect(ctx context.Context, port int) error {
	conn, err := g.family.Connect(ctx, port)
	if err != nil {
		return err
	}
	g.attach(conn)
	return nil
}

// Start the emulator and connect to it.
func (g *Grip) Start(ctx context.Context, opts StartOptions) error {
	conn, err := g.family.Start(ctx, g, opts)
	if err != nil {
		return err
	}
	if conn != nil {
		g.attach(conn)
	}
	return nil
}

// Autostart a program.
func (g *Grip) Autostart(ctx context.Context, program string) error {
	if err := g.family.Autostart(ctx, g, program); err != nil {
		return curated.Errorf(AutostartFailed, program, err)
	}
	return nil
}

// DisplayRGBA returns the current display with four bytes per pixel.
func (g *Grip) DisplayRGBA(ctx context.Context) (*monitor.DisplayGetResponse, error) {
	return g.family.DisplayRGBA(ctx, g)
}

// Capabilities of the emulator.
func (g *Grip) Capabilities() Capabilities {
	return g.family.Capabilities()
}

func (g *Grip) connected(t monitor.CommandType) (*transport.Conn, error) {
	if !g.family.Supports(t) {
		return nil, curated.Errorf(NotImplemented, g.family.Name(), t)
	}
	conn := g.Conn()
	if conn == nil {
		return nil, curated.Errorf(NotConnected)
	}
	return conn, nil
}

// Exec sends a command and waits for the reply.
func (g *Grip) Exec(ctx context.Context, cmd monitor.Command) (monitor.Response, error) {
	conn, err := g.connected(cmd.Type())
	if err != nil {
		return nil, err
	}
	return conn.Exec(ctx, cmd)
}

// ExecBatch sends the commands in a single write and waits for the replies.
func (g *Grip) ExecBatch(ctx context.Context, cmds []monitor.Command) ([]monitor.Response, error) {
	if len(cmds) == 0 {
		return nil, nil
	}
	for _, c := range cmds {
		if _, err := g.connected(c.Type()); err != nil {
			return nil, err
		}
	}
	return g.Conn().ExecBatch(ctx, cmds)
}

func call[T monitor.Response](ctx context.Context, g *Grip, cmd monitor.Command) (T, error) {
	var zero T
	conn, err := g.connected(cmd.Type())
	if err != nil {
		return zero, err
	}
	return transport.Call[T](ctx, conn, cmd)
}

// Lock runs the function while holding the connection's lock. See
// transport.Conn.Lock().
func (g *Grip) Lock(ctx context.Context, f func() error) error {
	conn := g.Conn()
	if conn == nil {
		return curated.Errorf(NotConnected)
	}
	return conn.Lock(ctx, f)
}

// Subscribe to events. See transport.Conn.Subscribe().
func (g *Grip) Subscribe(kind transport.EventKind, f func(transport.Event)) (transport.Subscription, error) {
	conn := g.Conn()
	if conn == nil {
		return 0, curated.Errorf(NotConnected)
	}
	return conn.Subscribe(kind, f), nil
}

// Unsubscribe from events.
func (g *Grip) Unsubscribe(s transport.Subscription) {
	if conn := g.Conn(); conn != nil {
		conn.Unsubscribe(s)
	}
}

// MemoryGet reads length bytes of memory from the bank, starting at address.
func (g *Grip) MemoryGet(ctx context.Context, address uint16, length int, bank uint16) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}
	end := int(address) + length - 1
	if end > 0xffff {
		end = 0xffff
	}
	r, err := call[*monitor.MemoryGetResponse](ctx, g, monitor.MemoryGet{
		Start:    address,
		End:      uint16(end),
		Memspace: monitor.MainMemspace,
		Bank:     bank,
	})
	if err != nil {
		return nil, err
	}
	return r.Data, nil
}

// MemorySet writes data to memory starting at address.
func (g *Grip) MemorySet(ctx context.Context, address uint16, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	_, err := g.Exec(ctx, monitor.MemorySet{
		Start:    address,
		End:      address + uint16(len(data)-1),
		Memspace: monitor.MainMemspace,
		Data:     data,
	})
	return err
}

// CheckpointSet creates a checkpoint.
func (g *Grip) CheckpointSet(ctx context.Context, cp monitor.CheckpointSet) (*monitor.CheckpointInfo, error) {
	return call[*monitor.CheckpointInfo](ctx, g, cp)
}

// CheckpointSetBatch creates the checkpoints in a single write.
func (g *Grip) CheckpointSetBatch(ctx context.Context, cps []monitor.CheckpointSet) ([]*monitor.CheckpointInfo, error) {
	if len(cps) == 0 {
		return nil, nil
	}
	cmds := make([]monitor.Command, len(cps))
	for i := range cps {
		cmds[i] = cps[i]
	}
	conn, err := g.connected(monitor.CmdCheckpointSet)
	if err != nil {
		return nil, err
	}
	return transport.CallBatch[*monitor.CheckpointInfo](ctx, conn, cmds)
}

// CheckpointDelete deletes the checkpoints in a single write.
func (g *Grip) CheckpointDelete(ctx context.Context, ids ...uint32) error {
	cmds := make([]monitor.Command, len(ids))
	for i := range ids {
		cmds[i] = monitor.CheckpointDelete{ID: ids[i]}
	}
	_, err := g.ExecBatch(ctx, cmds)
	return err
}

// CheckpointToggle enables or disables the checkpoints in a single write.
func (g *Grip) CheckpointToggle(ctx context.Context, enabled bool, ids ...uint32) error {
	cmds := make([]monitor.Command, len(ids))
	for i := range ids {
		cmds[i] = monitor.CheckpointToggle{ID: ids[i], Enabled: enabled}
	}
	_, err := g.ExecBatch(ctx, cmds)
	return err
}

// CheckpointList returns every checkpoint.
func (g *Grip) CheckpointList(ctx context.Context) ([]*monitor.CheckpointInfo, error) {
	conn, err := g.connected(monitor.CmdCheckpointList)
	if err != nil {
		return nil, err
	}
	r, err := conn.ExecReply(ctx, monitor.CheckpointList{})
	if err != nil {
		return nil, err
	}
	l := make([]*monitor.CheckpointInfo, 0, len(r.Related))
	for _, rel := range r.Related {
		if ci, ok := rel.(*monitor.CheckpointInfo); ok {
			l = append(l, ci)
		}
	}
	return l, nil
}

// ConditionSet attaches a condition to a checkpoint.
func (g *Grip) ConditionSet(ctx context.Context, id uint32, condition string) error {
	_, err := g.Exec(ctx, monitor.ConditionSet{ID: id, Condition: condition})
	return err
}

// Registers returns the value of every register.
func (g *Grip) Registers(ctx context.Context) (*monitor.RegisterInfo, error) {
	return call[*monitor.RegisterInfo](ctx, g, monitor.RegistersGet{Memspace: monitor.MainMemspace})
}

// RegistersSet changes the value of registers. Returns the value of every
// register after the change.
func (g *Grip) RegistersSet(ctx context.Context, regs ...monitor.RegisterValue) (*monitor.RegisterInfo, error) {
	return call[*monitor.RegisterInfo](ctx, g, monitor.RegistersSet{Memspace: monitor.MainMemspace, Registers: regs})
}

// RegistersAvailable returns the description of every register.
func (g *Grip) RegistersAvailable(ctx context.Context) (*monitor.RegistersAvailableResponse, error) {
	return call[*monitor.RegistersAvailableResponse](ctx, g, monitor.RegistersAvailable{Memspace: monitor.MainMemspace})
}

// BanksAvailable returns the description of every memory bank.
func (g *Grip) BanksAvailable(ctx context.Context) (*monitor.BanksAvailableResponse, error) {
	return call[*monitor.BanksAvailableResponse](ctx, g, monitor.BanksAvailable{})
}

// Dump saves a snapshot of the machine to the file.
func (g *Grip) Dump(ctx context.Context, filename string) error {
	_, err := g.Exec(ctx, monitor.Dump{Filename: filename})
	return err
}

// Undump restores a snapshot of the machine from the file. Returns the
// program counter after the snapshot has been restored.
func (g *Grip) Undump(ctx context.Context, filename string) (uint16, error) {
	r, err := call[*monitor.UndumpResponse](ctx, g, monitor.Undump{Filename: filename})
	if err != nil {
		return 0, err
	}
	return r.PC, nil
}

// ResourceGet returns the value of an emulator resource.
func (g *Grip) ResourceGet(ctx context.Context, name string) (*monitor.ResourceGetResponse, error) {
	return call[*monitor.ResourceGetResponse](ctx, g, monitor.ResourceGet{Name: name})
}

// ResourceSetString sets the value of a string resource.
func (g *Grip) ResourceSetString(ctx context.Context, name string, value string) error {
	_, err := g.Exec(ctx, monitor.ResourceSet{ResourceType: monitor.ResourceString, Name: name, StringValue: value})
	return err
}

// ResourceSetInt sets the value of an integer resource.
func (g *Grip) ResourceSetInt(ctx context.Context, name string, value uint32) error {
	_, err := g.Exec(ctx, monitor.ResourceSet{ResourceType: monitor.ResourceInt, Name: name, IntValue: value})
	return err
}

// Advance executes count instructions. Subroutines are executed as a single
// instruction if stepOver is true.
func (g *Grip) Advance(ctx context.Context, stepOver bool, count uint16) error {
	_, err := g.Exec(ctx, monitor.AdvanceInstructions{StepOver: stepOver, Count: count})
	return err
}

// ExecuteUntilReturn runs until the current subroutine returns.
func (g *Grip) ExecuteUntilReturn(ctx context.Context) error {
	_, err := g.Exec(ctx, monitor.ExecuteUntilReturn{})
	return err
}

// KeyboardFeed types text into the keyboard buffer.
func (g *Grip) KeyboardFeed(ctx context.Context, text string) error {
	_, err := g.Exec(ctx, monitor.KeyboardFeed{Text: text})
	return err
}

// JoyportSet sets the value of a joystick port. Emulators that can't set the
// joystick port ignore the request.
func (g *Grip) JoyportSet(ctx context.Context, port uint16, value uint16) error {
	if !g.family.Capabilities().Joyport {
		logger.Logf(logger.Allow, "grip", "%s cannot set the joystick port", g.family.Name())
		return nil
	}
	_, err := g.Exec(ctx, monitor.JoyportSet{Port: port, Value: value})
	return err
}

// Palette returns the colour palette.
func (g *Grip) Palette(ctx context.Context) (*monitor.PaletteGetResponse, error) {
	return call[*monitor.PaletteGetResponse](ctx, g, monitor.PaletteGet{})
}

// Display returns the current display in the requested format.
func (g *Grip) Display(ctx context.Context, format monitor.DisplayFormat) (*monitor.DisplayGetResponse, error) {
	return call[*monitor.DisplayGetResponse](ctx, g, monitor.DisplayGet{Format: format})
}

// EmulatorInfo returns the version of the emulator.
func (g *Grip) EmulatorInfo(ctx context.Context) (*monitor.EmulatorInfoResponse, error) {
	return call[*monitor.EmulatorInfoResponse](ctx, g, monitor.EmulatorInfo{})
}

// Ping the emulator. The emulator replies even when it is running.
func (g *Grip) Ping(ctx context.Context) error {
	_, err := g.Exec(ctx, monitor.Ping{})
	return err
}

// Exit the monitor, resuming execution.
func (g *Grip) Exit(ctx context.Context) error {
	_, err := g.Exec(ctx, monitor.Exit{})
	return err
}

// Reset the machine.
func (g *Grip) Reset(ctx context.Context, method monitor.ResetMethod) error {
	_, err := g.Exec(ctx, monitor.Reset{Method: method})
	return err
}

// WithAllBreaksDisabled runs the function with every enabled stopping
// checkpoint disabled. Afterwards, the checkpoints that still exist are enabled
// again.
func (g *Grip) WithAllBreaksDisabled(ctx context.Context, f func() error) error {
	pre, err := g.CheckpointList(ctx)
	if err != nil {
		return err
	}

	var ids []uint32
	for _, ci := range pre {
		if ci.Stop && ci.Enabled {
			ids = append(ids, ci.ID)
		}
	}

	if err := g.CheckpointToggle(ctx, false, ids...); err != nil {
		return err
	}

	ferr := f()

	post, err := g.CheckpointList(ctx)
	if err != nil {
		if ferr != nil {
			return ferr
		}
		return err
	}

	remaining := make(map[uint32]bool, len(post))
	for _, ci := range post {
		remaining[ci.ID] = true
	}

	var restore []uint32
	for _, id := range ids {
		if remaining[id] {
			restore = append(restore, id)
		}
	}

	if err := g.CheckpointToggle(ctx, true, restore...); err != nil && ferr == nil {
		return err
	}

	return ferr
}

// Disconnect from the emulator without stopping it.
func (g *Grip) Disconnect() error {
	g.crit.Lock()
	conn := g.conn
	g.conn = nil
	g.procs = nil
	g.crit.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Terminate asks the emulator to quit and disconnects. Emulator processes
// started by the Grip are killed if they are still running a short time
// later.
func (g *Grip) Terminate(ctx context.Context) error {
	if conn := g.Conn(); conn != nil {
		if _, err := conn.Exec(ctx, monitor.Quit{}); err != nil {
			logger.Logf(logger.Allow, "grip", "quit: %v", err)
		}
	}

	g.crit.Lock()
	procs := g.procs
	g.crit.Unlock()

	if len(procs) > 0 {
		time.AfterFunc(killDelay, func() {
			for _, p := range procs {
				if p != nil {
					_ = p.Kill()
				}
			}
		})
	}

	return g.Disconnect()
}
