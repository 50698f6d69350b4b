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

// Package mapfile parses the map file produced by the ld65 linker. Only the
// "Exports list by value" section is of interest. The entries in that section
// give the address of the compiler runtime routines, which the debugger needs
// in order to recognise stack manipulation and prologue code.
package mapfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Entry is a single exported symbol in the map file.
type Entry struct {
	Name    string
	Address uint16
}

func (e Entry) String() string {
	return fmt.Sprintf("%s $%04x", e.Name, e.Address)
}

// Mapfile contains the parsed information from the map file. Entries are in
// the order in which they appear in the file.
type Mapfile struct {
	Entries []Entry
}

// the heading for the section of the map file that we're interested in and the
// heading that always follows it
const (
	sectionStart = "exports list by value"
	sectionEnd   = "imports list"
)

// two entries can appear on the same line. the flags field is made up of
// three characters, the middle of which must be L and the last of which must
// be A
var entryRegex = regexp.MustCompile(`(?i)\b(\w+)\s+([0-9a-f]+)\s[R\s]LA`)

// FindMapFile looks for a map file in the same directory as the program, with
// a name that begins with the program's base name.
func FindMapFile(program string) (string, error) {
	return findSibling(program, ".map")
}

func findSibling(program string, ext string) (string, error) {
	dir := filepath.Dir(program)
	base := strings.TrimSuffix(filepath.Base(program), filepath.Ext(program))

	fls, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("mapfile: %w", err)
	}

	for _, f := range fls {
		if f.IsDir() {
			continue
		}
		if filepath.Ext(f.Name()) == ext && strings.HasPrefix(f.Name(), base) {
			return filepath.Join(dir, f.Name()), nil
		}
	}

	return "", fmt.Errorf("mapfile: no %s file for %s", ext, program)
}

// Load and parse a map file.
func Load(filename string) (*Mapfile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("mapfile: %w", err)
	}
	return Parse(string(data))
}

// Parse the text of a map file.
func Parse(text string) (*Mapfile, error) {
	mf := &Mapfile{
		Entries: make([]Entry, 0, 64),
	}

	// find the start of mapfile that we're interested in. everything we skip
	// is of no interest or misleading
	lower := strings.ToLower(text)
	idx := strings.Index(lower, sectionStart)
	if idx == -1 {
		return mf, nil
	}
	text = text[idx+len(sectionStart):]
	lower = lower[idx+len(sectionStart):]
	if end := strings.Index(lower, sectionEnd); end != -1 {
		text = text[:end]
	}

	for _, m := range entryRegex.FindAllStringSubmatch(text, -1) {
		address, err := strconv.ParseUint(m[2], 16, 16)
		if err != nil {
			return nil, fmt.Errorf("mapfile: processing error: %w", err)
		}
		mf.Entries = append(mf.Entries, Entry{
			Name:    m[1],
			Address: uint16(address),
		})
	}

	return mf, nil
}

// Filter returns all entries with a name that matches the regular expression.
func (mf *Mapfile) Filter(rx *regexp.Regexp) []Entry {
	var l []Entry
	for _, e := range mf.Entries {
		if rx.MatchString(e.Name) {
			l = append(l, e)
		}
	}
	return l
}

// FindAddress returns the first entry with the specified address.
func (mf *Mapfile) FindAddress(address uint16) (Entry, bool) {
	for _, e := range mf.Entries {
		if e.Address == address {
			return e, true
		}
	}
	return Entry{}, false
}

// FindName returns the entry with the specified name.
func (mf *Mapfile) FindName(name string) (Entry, bool) {
	for _, e := range mf.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// FindEntry returns the entry with the highest address that is not greater
// than the supplied address. Useful for naming the routine that an address is
// part of.
func (mf *Mapfile) FindEntry(address uint16) (Entry, bool) {
	sorted := make([]Entry, len(mf.Entries))
	copy(sorted, mf.Entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Address < sorted[j].Address
	})

	var re Entry
	var found bool
	for _, e := range sorted {
		if address < e.Address {
			break
		}
		re = e
		found = true
	}

	return re, found
}
