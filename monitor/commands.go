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

// Command is implemented by every command that can be sent to the monitor.
type Command interface {
	Type() CommandType
}

// Terminal returns the response type that completes the command, for commands
// that produce more than one response. Responses of any other type that share
// the command's request ID arrive before the terminal response and are
// related to it.
func Terminal(cmd Command) (ResponseType, bool) {
	if cmd.Type() == CmdCheckpointList {
		return RespCheckpointList, true
	}
	return RespInvalid, false
}

// MemoryGet reads memory from Start to End inclusive.
type MemoryGet struct {
	SideEffects bool
	Start       uint16
	End         uint16
	Memspace    Memspace
	Bank        uint16
}

// MemorySet writes Data to memory beginning at Start. End should be
// Start+len(Data)-1.
type MemorySet struct {
	SideEffects bool
	Start       uint16
	End         uint16
	Memspace    Memspace
	Bank        uint16
	Data        []byte
}

// CheckpointGet requests information about a single checkpoint.
type CheckpointGet struct {
	ID uint32
}

// CheckpointSet creates a checkpoint covering Start to End inclusive.
type CheckpointSet struct {
	Start     uint16
	End       uint16
	Stop      bool
	Enabled   bool
	Operation Operation
	Temporary bool
}

// CheckpointDelete removes a checkpoint.
type CheckpointDelete struct {
	ID uint32
}

// CheckpointList requests information about every checkpoint. A CheckpointInfo
// response is sent for each checkpoint before the CheckpointList response.
type CheckpointList struct{}

// CheckpointToggle enables or disables a checkpoint.
type CheckpointToggle struct {
	ID      uint32
	Enabled bool
}

// ConditionSet attaches a condition expression to a checkpoint. The expression
// is in the monitor's own syntax.
type ConditionSet struct {
	ID        uint32
	Condition string
}

// RegistersGet requests the value of every register.
type RegistersGet struct {
	Memspace Memspace
}

// RegisterValue is a register ID and its value.
type RegisterValue struct {
	ID    uint8
	Value uint16
}

// RegistersSet changes the value of the listed registers.
type RegistersSet struct {
	Memspace  Memspace
	Registers []RegisterValue
}

// Dump saves a snapshot of the machine state.
type Dump struct {
	SaveROMs  bool
	SaveDisks bool
	Filename  string
}

// Undump restores a snapshot of the machine state.
type Undump struct {
	Filename string
}

// ResourceGet requests the value of an emulator resource.
type ResourceGet struct {
	Name string
}

// ResourceSet changes the value of an emulator resource. Only one of
// StringValue and IntValue is used, depending on the resource type.
type ResourceSet struct {
	ResourceType ResourceType
	Name         string
	StringValue  string
	IntValue     uint32
}

// AdvanceInstructions executes Count instructions.
type AdvanceInstructions struct {
	StepOver bool
	Count    uint16
}

// KeyboardFeed types text into the emulated keyboard buffer.
type KeyboardFeed struct {
	Text string
}

// ExecuteUntilReturn runs the CPU until the current subroutine returns.
type ExecuteUntilReturn struct{}

// Ping does nothing but is always answered, even while the emulation is
// running.
type Ping struct{}

// BanksAvailable requests the list of memory banks.
type BanksAvailable struct{}

// RegistersAvailable requests the list of registers for the memspace.
type RegistersAvailable struct {
	Memspace Memspace
}

// DisplayGet requests the current display buffer.
type DisplayGet struct {
	UseVICII bool
	Format   DisplayFormat
}

// EmulatorInfo requests the emulator version.
type EmulatorInfo struct{}

// PaletteGet requests the current palette.
type PaletteGet struct {
	UseVICII bool
}

// JoyportSet sets the state of a joystick port.
type JoyportSet struct {
	Port  uint16
	Value uint16
}

// Exit resumes emulation.
type Exit struct{}

// Quit terminates the emulator.
type Quit struct{}

// Reset resets the machine or one of its drives.
type Reset struct {
	Method ResetMethod
}

// Autostart loads a program and optionally runs it. Index is the file index
// for disk images.
type Autostart struct {
	Run      bool
	Index    uint16
	Filename string
}

func (MemoryGet) Type() CommandType           { return CmdMemoryGet }
func (MemorySet) Type() CommandType           { return CmdMemorySet }
func (CheckpointGet) Type() CommandType       { return CmdCheckpointGet }
func (CheckpointSet) Type() CommandType       { return CmdCheckpointSet }
func (CheckpointDelete) Type() CommandType    { return CmdCheckpointDelete }
func (CheckpointList) Type() CommandType      { return CmdCheckpointList }
func (CheckpointToggle) Type() CommandType    { return CmdCheckpointToggle }
func (ConditionSet) Type() CommandType        { return CmdConditionSet }
func (RegistersGet) Type() CommandType        { return CmdRegistersGet }
func (RegistersSet) Type() CommandType        { return CmdRegistersSet }
func (Dump) Type() CommandType                { return CmdDump }
func (Undump) Type() CommandType              { return CmdUndump }
func (ResourceGet) Type() CommandType         { return CmdResourceGet }
func (ResourceSet) Type() CommandType         { return CmdResourceSet }
func (AdvanceInstructions) Type() CommandType { return CmdAdvanceInstructions }
func (KeyboardFeed) Type() CommandType        { return CmdKeyboardFeed }
func (ExecuteUntilReturn) Type() CommandType  { return CmdExecuteUntilReturn }
func (Ping) Type() CommandType                { return CmdPing }
func (BanksAvailable) Type() CommandType      { return CmdBanksAvailable }
func (RegistersAvailable) Type() CommandType  { return CmdRegistersAvailable }
func (DisplayGet) Type() CommandType          { return CmdDisplayGet }
func (EmulatorInfo) Type() CommandType        { return CmdEmulatorInfo }
func (PaletteGet) Type() CommandType          { return CmdPaletteGet }
func (JoyportSet) Type() CommandType          { return CmdJoyportSet }
func (Exit) Type() CommandType                { return CmdExit }
func (Quit) Type() CommandType                { return CmdQuit }
func (Reset) Type() CommandType               { return CmdReset }
func (Autostart) Type() CommandType           { return CmdAutostart }
