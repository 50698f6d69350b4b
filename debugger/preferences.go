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


package debugger

import (
	"github.com/jetsetilly/cc65dbg/paths"
	"github.com/jetsetilly/cc65dbg/prefs"
)

// Preferences defines and collates all the preference values used by the
// debugger.
type Preferences struct {
	dsk *prefs.Disk

	// run the emulation one frame ahead on every stop
	RunAhead prefs.Bool

	StopOnEntry prefs.Bool
	StopOnExit  prefs.Bool

	// milliseconds between telemetry updates while the emulator is running
	UpdateInterval prefs.Int

	// directory containing the VICE executables. the PATH is searched if it
	// is empty
	ViceDirectory prefs.String
	ViceSound     prefs.Bool

	// use x64 rather than x64sc for the C64
	PreferX64 prefs.Bool

	// path of the AppleWin and Mesen executables or of the directories
	// containing them
	AppleWinExecutable prefs.String
	MesenExecutable    prefs.String
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Values are loaded from the named file. The default
// preferences file is used if the filename is empty.
func NewPreferences(filename string) (*Preferences, error) {
	p := &Preferences{}
	p.SetDefaults()

	var err error

	if filename == "" {
		filename, err = paths.ResourcePath("", prefs.DefaultPrefsFile)
		if err != nil {
			return nil, err
		}
	}

	p.dsk, err = prefs.NewDisk(filename)
	if err != nil {
		return nil, err
	}

	err = p.dsk.Add("debugger.runahead", &p.RunAhead)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("debugger.stopOnEntry", &p.StopOnEntry)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("debugger.stopOnExit", &p.StopOnExit)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("debugger.updateInterval", &p.UpdateInterval)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("vice.directory", &p.ViceDirectory)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("vice.sound", &p.ViceSound)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("vice.preferX64", &p.PreferX64)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("applewin.executable", &p.AppleWinExecutable)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("mesen.executable", &p.MesenExecutable)
	if err != nil {
		return nil, err
	}

	if err := p.dsk.Load(); err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all preferences to the default values.
func (p *Preferences) SetDefaults() {
	_ = p.RunAhead.Set(true)
	_ = p.StopOnEntry.Set(false)
	_ = p.StopOnExit.Set(false)
	_ = p.UpdateInterval.Set(1000)
	_ = p.ViceDirectory.Set("")
	_ = p.ViceSound.Set(false)
	_ = p.PreferX64.Set(false)
	_ = p.AppleWinExecutable.Set("")
	_ = p.MesenExecutable.Set("")
}

// Load preferences from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load()
}

// Save preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}
