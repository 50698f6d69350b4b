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


package launch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/mapfile"
)

// Sentinel errors.
const (
	InvalidFile      = "launch: %s is not valid JSON"
	NoConfiguration  = "launch: no configuration named %q"
	NoProgram        = "launch: no program specified"
	WrongProgramType = "launch: %s: File must be a Commodore Disk image or PRoGram."
	NoDebugFile      = "launch: Could not load debug symbols file from cc65 (%s). It must have the same name as your program and end in .dbg"
	NoMapFile        = "launch: Could not load map file from cc65 (%s). It must have the same name as your program and end in .map"
)

// DefaultPort is the first port tried for the binary monitor.
const DefaultPort = 29784

// Config is a launch configuration.
type Config struct {
	Name string

	Program   string
	DebugFile string
	MapFile   string
	LabelFile string

	// the directory the program was built in. relative file names in the
	// debug file are relative to this directory. .tab files are found here
	BuildDir string

	Machine machine.Type

	// path to the emulator executable or the directory containing it
	Emulator     string
	EmulatorArgs []string

	Port int

	// nil if the preference value should be used
	RunAhead    *bool
	StopOnEntry *bool
	StopOnExit  *bool
}

// Load the named configuration from the file. If the file has only one
// configuration the name may be empty.
func Load(path string, name string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, curated.Errorf("launch: %v", err)
	}

	cfg, err := Parse(b, name)
	if err != nil {
		return Config{}, err
	}

	// relative paths are relative to the directory of the launch file
	dir := filepath.Dir(path)
	for _, p := range []*string{&cfg.Program, &cfg.DebugFile, &cfg.MapFile, &cfg.LabelFile, &cfg.BuildDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	if cfg.BuildDir == "" {
		cfg.BuildDir = dir
	}

	return cfg, nil
}

// Parse a launch file.
func Parse(data []byte, name string) (Config, error) {
	if !gjson.ValidBytes(data) {
		return Config{}, curated.Errorf(InvalidFile, "launch file")
	}

	root := gjson.ParseBytes(data)

	conf := root
	if list := root.Get("configurations"); list.IsArray() {
		found := false
		for _, c := range list.Array() {
			if name == "" || c.Get("name").String() == name {
				conf = c
				found = true
				break
			}
		}
		if !found {
			return Config{}, curated.Errorf(NoConfiguration, name)
		}
	}

	cfg := Config{
		Name:      conf.Get("name").String(),
		Program:   conf.Get("program").String(),
		DebugFile: conf.Get("debugFile").String(),
		MapFile:   conf.Get("mapFile").String(),
		LabelFile: conf.Get("labelFile").String(),
		BuildDir:  conf.Get("buildCwd").String(),
		Machine:   machine.Parse(conf.Get("machineType").String()),
		Emulator:  conf.Get("emulatorPath").String(),
		Port:      int(conf.Get("port").Int()),
	}

	args := conf.Get("emulatorArgs")
	switch {
	case args.IsArray():
		for _, a := range args.Array() {
			cfg.EmulatorArgs = append(cfg.EmulatorArgs, a.String())
		}
	case args.Type == gjson.String:
		cfg.EmulatorArgs = strings.Fields(args.String())
	}

	optBool := func(key string) *bool {
		v := conf.Get(key)
		if !v.Exists() {
			return nil
		}
		b := v.Bool()
		return &b
	}
	cfg.RunAhead = optBool("runAhead")
	cfg.StopOnEntry = optBool("stopOnEntry")
	cfg.StopOnExit = optBool("stopOnExit")

	return cfg, nil
}

// Infer fills in the fields of the configuration that can be worked out from
// the program.
func (cfg *Config) Infer() error {
	if cfg.Program == "" {
		return curated.Errorf(NoProgram)
	}

	if cfg.Machine == machine.Unknown || cfg.Machine == machine.C64 {
		if m := machine.FromProgram(cfg.Program); m != machine.Unknown {
			cfg.Machine = m
		}
	}

	if cfg.BuildDir == "" {
		cfg.BuildDir = filepath.Dir(cfg.Program)
	}

	if cfg.DebugFile == "" {
		p, err := debugfile.FindDebugFile(cfg.Program)
		if err != nil {
			return curated.Errorf(NoDebugFile, cfg.Program)
		}
		cfg.DebugFile = p
	}

	if cfg.MapFile == "" {
		p, err := mapfile.FindMapFile(cfg.Program)
		if err != nil {
			return curated.Errorf(NoMapFile, cfg.Program)
		}
		cfg.MapFile = p
	}

	if cfg.LabelFile == "" {
		cfg.LabelFile = strings.TrimSuffix(cfg.Program, filepath.Ext(cfg.Program)) + ".lbl"
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	return nil
}

// CheckProgramType returns an error if the program can't be run by VICE.
func (cfg *Config) CheckProgramType() error {
	if !machine.ProgramFiletypes.MatchString(cfg.Program) {
		return curated.Errorf(WrongProgramType, cfg.Program)
	}
	return nil
}

// Marshal the configuration as a JSON object. Optional fields that are not
// set are omitted.
func (cfg Config) Marshal() ([]byte, error) {
	out := []byte("{}")

	set := func(key string, v interface{}) {
		if out2, err := sjson.SetBytes(out, key, v); err == nil {
			out = out2
		}
	}

	if cfg.Name != "" {
		set("name", cfg.Name)
	}
	set("program", cfg.Program)
	for key, v := range map[string]string{
		"debugFile":    cfg.DebugFile,
		"mapFile":      cfg.MapFile,
		"labelFile":    cfg.LabelFile,
		"buildCwd":     cfg.BuildDir,
		"emulatorPath": cfg.Emulator,
	} {
		if v != "" {
			set(key, v)
		}
	}
	if cfg.Machine != machine.Unknown {
		set("machineType", cfg.Machine.String())
	}
	if len(cfg.EmulatorArgs) > 0 {
		set("emulatorArgs", cfg.EmulatorArgs)
	}
	if cfg.Port != 0 {
		set("port", cfg.Port)
	}
	for key, v := range map[string]*bool{
		"runAhead":    cfg.RunAhead,
		"stopOnEntry": cfg.StopOnEntry,
		"stopOnExit":  cfg.StopOnExit,
	} {
		if v != nil {
			set(key, *v)
		}
	}

	return out, nil
}

// Save the configuration to a file.
func Save(path string, cfg Config) error {
	b, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return curated.Errorf("launch: %v", err)
	}
	return nil
}
