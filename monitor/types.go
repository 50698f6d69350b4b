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

import "fmt"

// StartMarker is the first byte of every frame.
const StartMarker = 0x02

// Header sizes in bytes.
const (
	RequestHeaderSize  = 11
	ResponseHeaderSize = 12
)

// EventID is the request ID of responses that are not replies to a command.
const EventID = 0xffffffff

// MaxRequestID is the highest request ID that will be assigned to a command.
// IDs above this value are reserved.
const MaxRequestID = 0x8fffffff

// CommandType identifies a command.
type CommandType uint8

// List of valid CommandType values.
const (
	CmdMemoryGet           CommandType = 0x01
	CmdMemorySet           CommandType = 0x02
	CmdCheckpointGet       CommandType = 0x11
	CmdCheckpointSet       CommandType = 0x12
	CmdCheckpointDelete    CommandType = 0x13
	CmdCheckpointList      CommandType = 0x14
	CmdCheckpointToggle    CommandType = 0x15
	CmdConditionSet        CommandType = 0x22
	CmdRegistersGet        CommandType = 0x31
	CmdRegistersSet        CommandType = 0x32
	CmdDump                CommandType = 0x41
	CmdUndump              CommandType = 0x42
	CmdResourceGet         CommandType = 0x51
	CmdResourceSet         CommandType = 0x52
	CmdAdvanceInstructions CommandType = 0x71
	CmdKeyboardFeed        CommandType = 0x72
	CmdExecuteUntilReturn  CommandType = 0x73
	CmdPing                CommandType = 0x81
	CmdBanksAvailable      CommandType = 0x82
	CmdRegistersAvailable  CommandType = 0x83
	CmdDisplayGet          CommandType = 0x84
	CmdEmulatorInfo        CommandType = 0x85
	CmdPaletteGet          CommandType = 0x91
	CmdJoyportSet          CommandType = 0xa2
	CmdExit                CommandType = 0xaa
	CmdQuit                CommandType = 0xbb
	CmdReset               CommandType = 0xcc
	CmdAutostart           CommandType = 0xdd
)

var commandNames = map[CommandType]string{
	CmdMemoryGet:           "memoryGet",
	CmdMemorySet:           "memorySet",
	CmdCheckpointGet:       "checkpointGet",
	CmdCheckpointSet:       "checkpointSet",
	CmdCheckpointDelete:    "checkpointDelete",
	CmdCheckpointList:      "checkpointList",
	CmdCheckpointToggle:    "checkpointToggle",
	CmdConditionSet:        "conditionSet",
	CmdRegistersGet:        "registersGet",
	CmdRegistersSet:        "registersSet",
	CmdDump:                "dump",
	CmdUndump:              "undump",
	CmdResourceGet:         "resourceGet",
	CmdResourceSet:         "resourceSet",
	CmdAdvanceInstructions: "advanceInstructions",
	CmdKeyboardFeed:        "keyboardFeed",
	CmdExecuteUntilReturn:  "executeUntilReturn",
	CmdPing:                "ping",
	CmdBanksAvailable:      "banksAvailable",
	CmdRegistersAvailable:  "registersAvailable",
	CmdDisplayGet:          "displayGet",
	CmdEmulatorInfo:        "emulatorInfo",
	CmdPaletteGet:          "paletteGet",
	CmdJoyportSet:          "joyportSet",
	CmdExit:                "exit",
	CmdQuit:                "quit",
	CmdReset:               "reset",
	CmdAutostart:           "autostart",
}

func (t CommandType) String() string {
	if s, ok := commandNames[t]; ok {
		return s
	}
	return fmt.Sprintf("command(%#02x)", uint8(t))
}

// ResponseType identifies a response.
type ResponseType uint8

// List of valid ResponseType values. Most response types have the same value
// as the command that caused them.
const (
	RespInvalid             ResponseType = 0x00
	RespMemoryGet           ResponseType = 0x01
	RespMemorySet           ResponseType = 0x02
	RespCheckpointInfo      ResponseType = 0x11
	RespCheckpointDelete    ResponseType = 0x13
	RespCheckpointList      ResponseType = 0x14
	RespCheckpointToggle    ResponseType = 0x15
	RespConditionSet        ResponseType = 0x22
	RespRegisterInfo        ResponseType = 0x31
	RespDump                ResponseType = 0x41
	RespUndump              ResponseType = 0x42
	RespResourceGet         ResponseType = 0x51
	RespResourceSet         ResponseType = 0x52
	RespJam                 ResponseType = 0x61
	RespStopped             ResponseType = 0x62
	RespResumed             ResponseType = 0x63
	RespAdvanceInstructions ResponseType = 0x71
	RespKeyboardFeed        ResponseType = 0x72
	RespExecuteUntilReturn  ResponseType = 0x73
	RespPing                ResponseType = 0x81
	RespBanksAvailable      ResponseType = 0x82
	RespRegistersAvailable  ResponseType = 0x83
	RespDisplayGet          ResponseType = 0x84
	RespEmulatorInfo        ResponseType = 0x85
	RespPaletteGet          ResponseType = 0x91
	RespJoyportSet          ResponseType = 0xa2
	RespExit                ResponseType = 0xaa
	RespQuit                ResponseType = 0xbb
	RespReset               ResponseType = 0xcc
	RespAutostart           ResponseType = 0xdd
)

var responseNames = map[ResponseType]string{
	RespInvalid:             "invalid",
	RespMemoryGet:           "memoryGet",
	RespMemorySet:           "memorySet",
	RespCheckpointInfo:      "checkpointInfo",
	RespCheckpointDelete:    "checkpointDelete",
	RespCheckpointList:      "checkpointList",
	RespCheckpointToggle:    "checkpointToggle",
	RespConditionSet:        "conditionSet",
	RespRegisterInfo:        "registerInfo",
	RespDump:                "dump",
	RespUndump:              "undump",
	RespResourceGet:         "resourceGet",
	RespResourceSet:         "resourceSet",
	RespJam:                 "jam",
	RespStopped:             "stopped",
	RespResumed:             "resumed",
	RespAdvanceInstructions: "advanceInstructions",
	RespKeyboardFeed:        "keyboardFeed",
	RespExecuteUntilReturn:  "executeUntilReturn",
	RespPing:                "ping",
	RespBanksAvailable:      "banksAvailable",
	RespRegistersAvailable:  "registersAvailable",
	RespDisplayGet:          "displayGet",
	RespEmulatorInfo:        "emulatorInfo",
	RespPaletteGet:          "paletteGet",
	RespJoyportSet:          "joyportSet",
	RespExit:                "exit",
	RespQuit:                "quit",
	RespReset:               "reset",
	RespAutostart:           "autostart",
}

func (t ResponseType) String() string {
	if s, ok := responseNames[t]; ok {
		return s
	}
	return fmt.Sprintf("response(%#02x)", uint8(t))
}

// Memspace selects the CPU whose memory or registers are being accessed.
type Memspace uint8

// List of valid Memspace values.
const (
	MainMemspace Memspace = iota
	Drive8
	Drive9
	Drive10
	Drive11
)

// Operation is the type of memory access that triggers a checkpoint. Values
// can be combined.
type Operation uint8

// List of valid Operation values.
const (
	OpLoad  Operation = 0x01
	OpStore Operation = 0x02
	OpExec  Operation = 0x04
)

func (op Operation) String() string {
	s := ""
	if op&OpLoad == OpLoad {
		s += "load "
	}
	if op&OpStore == OpStore {
		s += "store "
	}
	if op&OpExec == OpExec {
		s += "exec "
	}
	if s == "" {
		return "none"
	}
	return s[:len(s)-1]
}

// ResourceType is the type of an emulator resource value.
type ResourceType uint8

// List of valid ResourceType values.
const (
	ResourceString ResourceType = 0x00
	ResourceInt    ResourceType = 0x01
)

// DisplayFormat is the pixel format requested of displayGet.
type DisplayFormat uint8

// List of valid DisplayFormat values.
const (
	Indexed8 DisplayFormat = iota
	RGB
	BGR
	RGBA
	BGRA
)

// ResetMethod is the type of reset performed by the reset command.
type ResetMethod uint8

// List of valid ResetMethod values.
const (
	ResetSoft    ResetMethod = 0x00
	ResetHard    ResetMethod = 0x01
	ResetDrive8  ResetMethod = 0x08
	ResetDrive9  ResetMethod = 0x09
	ResetDrive10 ResetMethod = 0x0a
	ResetDrive11 ResetMethod = 0x0b
)
