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


package commandline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jetsetilly/cc65dbg/curated"
)

// Sentinal errors returned by Lookup().
const (
	UnknownCommand   = "unrecognised command (%s)"
	AmbiguousCommand = "ambiguous command (%s could be %s)"
)

// ArgType hints at how the arguments of a command should be completed.
type ArgType int

// List of valid ArgType values.
const (
	ArgNone ArgType = iota
	ArgFile
	ArgSymbol
	ArgCommand
	ArgAny
)

// Command is a single entry in the command table.
type Command struct {
	Keyword string
	Aliases []string

	// short description of the arguments
	Usage string

	Help string

	// how the first argument is completed
	Arg ArgType
}

func (c Command) String() string {
	if c.Usage == "" {
		return c.Keyword
	}
	return fmt.Sprintf("%s %s", c.Keyword, c.Usage)
}

// Commands is the table of commands.
type Commands struct {
	cmds  []Command
	index map[string]int
}

// NewCommands is the preferred method of initialisation for the Commands
// type. Keywords and aliases must be unique.
func NewCommands(cmds []Command) (*Commands, error) {
	c := &Commands{
		cmds:  make([]Command, len(cmds)),
		index: make(map[string]int),
	}
	copy(c.cmds, cmds)

	sort.SliceStable(c.cmds, func(i, j int) bool {
		return c.cmds[i].Keyword < c.cmds[j].Keyword
	})

	for i := range c.cmds {
		c.cmds[i].Keyword = strings.ToUpper(c.cmds[i].Keyword)
		names := append([]string{c.cmds[i].Keyword}, c.cmds[i].Aliases...)
		for _, n := range names {
			n = strings.ToUpper(n)
			if _, ok := c.index[n]; ok {
				return nil, curated.Errorf("commandline: %s: already defined", n)
			}
			c.index[n] = i
		}
	}

	return c, nil
}

// Lookup returns the command for the keyword. Keywords and aliases are
// matched exactly. Otherwise a keyword can be abbreviated if the
// abbreviation is unambiguous.
func (cmds *Commands) Lookup(keyword string) (Command, error) {
	keyword = strings.ToUpper(keyword)

	if i, ok := cmds.index[keyword]; ok {
		return cmds.cmds[i], nil
	}

	m := cmds.matches(keyword)
	switch len(m) {
	case 0:
		return Command{}, curated.Errorf(UnknownCommand, keyword)
	case 1:
		return m[0], nil
	}

	names := make([]string, len(m))
	for i := range m {
		names[i] = m[i].Keyword
	}
	return Command{}, curated.Errorf(AmbiguousCommand, keyword, strings.Join(names, ", "))
}

// matches returns the commands with a keyword that begins with prefix.
func (cmds *Commands) matches(prefix string) []Command {
	var m []Command
	for _, c := range cmds.cmds {
		if strings.HasPrefix(c.Keyword, prefix) {
			m = append(m, c)
		}
	}
	return m
}

// Keywords returns the sorted list of command keywords.
func (cmds *Commands) Keywords() []string {
	k := make([]string, len(cmds.cmds))
	for i := range cmds.cmds {
		k[i] = cmds.cmds[i].Keyword
	}
	return k
}

// HelpOverview returns a columnised list of all help entries.
func (cmds *Commands) HelpOverview() string {
	longest := 0
	for _, c := range cmds.cmds {
		if len(c.Keyword) > longest {
			longest = len(c.Keyword)
		}
	}

	s := strings.Builder{}
	for _, c := range cmds.cmds {
		s.WriteString(fmt.Sprintf("%-*s  %s\n", longest, c.Keyword, firstLine(c.Help)))
	}
	return strings.TrimRight(s.String(), "\n")
}

// Help returns the help string for the specified command.
func (cmds *Commands) Help(keyword string) (string, error) {
	c, err := cmds.Lookup(keyword)
	if err != nil {
		return "", err
	}

	s := strings.Builder{}
	s.WriteString(c.String())
	if len(c.Aliases) > 0 {
		s.WriteString(fmt.Sprintf("\n  aliases: %s", strings.ToLower(strings.Join(c.Aliases, ", "))))
	}
	if c.Help != "" {
		s.WriteString("\n\n")
		s.WriteString(c.Help)
	}
	return s.String(), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
