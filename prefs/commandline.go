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

package prefs

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// the separator between a key and its value on the command line
const commandLineSep = "::"

// groups of preferences given on the command line. the most recent group is
// consulted by Disk.Load()
var commandLine struct {
	crit  sync.Mutex
	stack []map[string]Value
}

// SizeCommandLineStack returns the number of groups that have been added with
// PushCommandLineStack().
func SizeCommandLineStack() int {
	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()
	return len(commandLine.stack)
}

// PushCommandLineStack parses a command line and adds it as a new group. The
// command line is a list of key::value pairs separated by semi-colons.
//
//	debugger.runahead::false; debugger.stopOnEntry::true
//
// Entries that are not key::value pairs are ignored.
func PushCommandLineStack(prefs string) {
	group := make(map[string]Value)
	for _, p := range strings.Split(prefs, ";") {
		k, v, ok := strings.Cut(p, commandLineSep)
		if !ok {
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			group[k] = strings.TrimSpace(v)
		}
	}

	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()
	commandLine.stack = append(commandLine.stack, group)
}

// PopCommandLineStack forgets the most recent group added by
// PushCommandLineStack(). The preferences of the group that were never used
// are returned in the command line format, sorted by key.
func PopCommandLineStack() string {
	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()

	n := len(commandLine.stack)
	if n == 0 {
		return ""
	}
	group := commandLine.stack[n-1]
	commandLine.stack = commandLine.stack[:n-1]

	unused := make([]string, 0, len(group))
	for k, v := range group {
		unused = append(unused, fmt.Sprintf("%s%s%v", k, commandLineSep, v))
	}
	sort.Strings(unused)

	return strings.Join(unused, "; ")
}

// GetCommandLinePref value from current group. The value is deleted when it
// is returned so that each value is used once.
func GetCommandLinePref(key string) (bool, Value) {
	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()

	n := len(commandLine.stack)
	if n == 0 {
		return false, nil
	}

	v, ok := commandLine.stack[n-1][key]
	if ok {
		delete(commandLine.stack[n-1], key)
	}
	return ok, v
}
