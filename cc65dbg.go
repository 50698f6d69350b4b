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


package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jetsetilly/cc65dbg/console"
	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/debugger"
	"github.com/jetsetilly/cc65dbg/disassembly"
	"github.com/jetsetilly/cc65dbg/launch"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/machine"
	"github.com/jetsetilly/cc65dbg/mapfile"
	"github.com/jetsetilly/cc65dbg/modalflag"
	"github.com/jetsetilly/cc65dbg/prefs"
	"github.com/jetsetilly/cc65dbg/statsview"
	"github.com/jetsetilly/cc65dbg/terminal"
	"github.com/jetsetilly/cc65dbg/terminal/colorterm"
	"github.com/jetsetilly/cc65dbg/terminal/plainterm"
	"github.com/jetsetilly/cc65dbg/version"
)

func main() {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.AddSubModes("RUN", "ATTACH", "DISASM", "SYMBOLS", "PREFS", "VERSION")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		os.Exit(0)
	case modalflag.ParseError:
		fmt.Printf("* error: %v\n", err)
		os.Exit(10)
	}

	switch md.Mode() {
	case "RUN":
		err = session(md, false)
	case "ATTACH":
		err = session(md, true)
	case "DISASM":
		err = disasm(md)
	case "SYMBOLS":
		err = symbols(md)
	case "PREFS":
		err = preferences(md)
	case "VERSION":
		err = showVersion(md)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %s\n", md.String(), err)
		os.Exit(20)
	}
}

// sessionFlags are the flags shared by the RUN and ATTACH modes.
type sessionFlags struct {
	launchFile  *string
	launchName  *string
	debugFile   *string
	mapFile     *string
	labelFile   *string
	buildDir    *string
	machine     *string
	emulator    *string
	emulatorArg *[]string
	port        *int
	runAhead    *modalflag.OptionalBool
	stopOnEntry *modalflag.OptionalBool
	stopOnExit  *modalflag.OptionalBool
}

func addSessionFlags(md *modalflag.Modes, attach bool) sessionFlags {
	f := sessionFlags{}
	f.launchFile = md.AddString("launch", "", "launch file (JSON) describing the program")
	f.launchName = md.AddString("config", "", "name of the configuration in the launch file")
	f.debugFile = md.AddString("dbg", "", "cc65 debug file. found next to the program if not given")
	f.mapFile = md.AddString("map", "", "ld65 map file. found next to the program if not given")
	f.labelFile = md.AddString("labels", "", "VICE label file")
	f.buildDir = md.AddString("builddir", "", "directory the program was built in")
	f.machine = md.AddString("machine", "", "target machine: c64, c128, vic20, pet, plus4, cbm5x0, apple2, nes")
	if attach {
		f.port = md.AddInt("port", launch.DefaultPort, "binary monitor port of the running emulator")
	} else {
		f.emulator = md.AddString("emulator", "", "emulator executable or the directory containing it")
		f.emulatorArg = md.AddStringList("arg", "additional emulator argument. can be given more than once")
		f.port = md.AddInt("port", 0, "binary monitor port. a free port is chosen if zero")
	}
	f.runAhead = md.AddOptionalBool("runahead", "run one frame ahead on every stop to show the screen")
	f.stopOnEntry = md.AddOptionalBool("stoponentry", "stop at the entry point of the program")
	f.stopOnExit = md.AddOptionalBool("stoponexit", "stop when the program exits")
	return f
}

// config builds a launch configuration from the flags and the remaining
// argument. flags take precedence over the launch file.
func (f sessionFlags) config(md *modalflag.Modes) (launch.Config, error) {
	var cfg launch.Config
	var err error

	if *f.launchFile != "" {
		cfg, err = launch.Load(*f.launchFile, *f.launchName)
		if err != nil {
			return cfg, err
		}
	}

	switch len(md.RemainingArgs()) {
	case 0:
		if cfg.Program == "" {
			return cfg, fmt.Errorf("program required for %s mode", md)
		}
	case 1:
		cfg.Program, err = filepath.Abs(md.GetArg(0))
		if err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("too many arguments for %s mode", md)
	}

	set := func(dst *string, src *string) {
		if src != nil && *src != "" {
			*dst = *src
		}
	}
	set(&cfg.DebugFile, f.debugFile)
	set(&cfg.MapFile, f.mapFile)
	set(&cfg.LabelFile, f.labelFile)
	set(&cfg.BuildDir, f.buildDir)
	set(&cfg.Emulator, f.emulator)

	if *f.machine != "" {
		cfg.Machine = machine.Parse(*f.machine)
		if cfg.Machine == machine.Unknown {
			return cfg, fmt.Errorf("unknown machine type (%s)", *f.machine)
		}
	}
	if f.emulatorArg != nil && len(*f.emulatorArg) > 0 {
		cfg.EmulatorArgs = append(cfg.EmulatorArgs, *f.emulatorArg...)
	}
	if *f.port != 0 {
		cfg.Port = *f.port
	}
	if v := f.runAhead.Ptr(); v != nil {
		cfg.RunAhead = v
	}
	if v := f.stopOnEntry.Ptr(); v != nil {
		cfg.StopOnEntry = v
	}
	if v := f.stopOnExit.Ptr(); v != nil {
		cfg.StopOnExit = v
	}

	return cfg, nil
}

func session(md *modalflag.Modes, attach bool) error {
	md.NewMode()

	flags := addSessionFlags(md, attach)
	termType := md.AddString("term", "COLOR", "terminal type to use: COLOR, PLAIN")
	prefsCmd := md.AddString("prefs", "", "preferences for this session. eg. debugger.runahead::false")
	initScript := md.AddString("initscript", "", "script of console commands to run once the program has started")
	telemetry := md.AddBool("telemetry", false, "stream run-time information from the emulator")
	stats := md.AddBool("statsview", false, fmt.Sprintf("run stats server (%s)", statsview.DefaultAddress))
	log := md.AddBool("log", false, "echo debugging log to stdout")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *log {
		logger.SetEcho(os.Stdout, false)
	} else {
		logger.SetEcho(nil, false)
	}

	if *stats {
		if !statsview.Available() {
			return fmt.Errorf("statsview not available in this build")
		}
		defer statsview.Launch(os.Stdout, "")()
	}

	cfg, err := flags.config(md)
	if err != nil {
		return err
	}

	if *prefsCmd != "" {
		prefs.PushCommandLineStack(*prefsCmd)
		defer prefs.PopCommandLineStack()
	}

	dbgPrefs, err := debugger.NewPreferences("")
	if err != nil {
		return err
	}

	var term terminal.Terminal
	switch strings.ToUpper(*termType) {
	case "COLOR":
		term = &colorterm.ColorTerminal{}
	case "PLAIN":
		term = plainterm.NewPlainTerminal(nil, nil)
	default:
		return fmt.Errorf("unknown terminal type (%s)", *termType)
	}

	if err := term.Initialise(); err != nil {
		// the plain terminal works everywhere
		logger.Logf(logger.Allow, "cc65dbg", "%v: using plain terminal", err)
		term = plainterm.NewPlainTerminal(nil, nil)
		if err := term.Initialise(); err != nil {
			return err
		}
	}
	defer term.CleanUp()

	con, err := console.NewConsole(term)
	if err != nil {
		return err
	}

	dbg := debugger.NewDebugger(dbgPrefs, con.Emit)
	con.Attach(dbg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// interrupt pauses a running program
	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)
	defer signal.Stop(intChan)
	go func() {
		for {
			select {
			case <-intChan:
				con.Interrupt(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := dbg.Load(ctx, cfg); err != nil {
		return err
	}

	if *telemetry {
		if err := dbg.EnableTelemetry(true); err != nil {
			return err
		}
	}

	if attach {
		err = dbg.Attach(ctx)
	} else {
		err = dbg.Start(ctx)
	}
	if err != nil {
		_ = dbg.Terminate(ctx)
		return err
	}

	if *initScript != "" {
		quit, err := con.PlayScript(ctx, *initScript)
		if err != nil {
			term.TermPrintLine(terminal.StyleError, err.Error())
		}
		if quit {
			return nil
		}
	}

	return con.Run(ctx)
}

// loadDebugInfo loads the debug and map files for the program.
func loadDebugInfo(md *modalflag.Modes) (*debugfile.DebugFile, *mapfile.Mapfile, string, error) {
	md.NewMode()
	debugFile := md.AddString("dbg", "", "cc65 debug file. found next to the program if not given")
	mapFile := md.AddString("map", "", "ld65 map file. found next to the program if not given")
	buildDir := md.AddString("builddir", "", "directory the program was built in")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return nil, nil, "", err
	}

	if len(md.RemainingArgs()) != 1 {
		return nil, nil, "", fmt.Errorf("%s mode requires exactly one program", md)
	}

	cfg := launch.Config{
		Program:   md.GetArg(0),
		DebugFile: *debugFile,
		MapFile:   *mapFile,
		BuildDir:  *buildDir,
	}
	if err := cfg.Infer(); err != nil {
		return nil, nil, "", err
	}

	dbg, err := debugfile.Load(cfg.DebugFile, cfg.BuildDir)
	if err != nil {
		return nil, nil, "", err
	}
	mf, err := mapfile.Load(cfg.MapFile)
	if err != nil {
		return nil, nil, "", err
	}

	return dbg, mf, cfg.Program, nil
}

// disasm lists the CODE segment of a program using the debug information to
// annotate it.
func disasm(md *modalflag.Modes) error {
	dbg, mf, program, err := loadDebugInfo(md)
	if err != nil || dbg == nil {
		return err
	}

	if dbg.CodeSeg == nil {
		return curated.Errorf("no CODE segment in debug file")
	}

	data, err := os.ReadFile(program)
	if err != nil {
		return err
	}

	seg := dbg.CodeSeg
	if seg.OOffs+seg.Size > len(data) {
		return curated.Errorf("%s: CODE segment lies outside of the program file", filepath.Base(program))
	}

	for _, e := range disassembly.Listing(data[seg.OOffs:seg.OOffs+seg.Size], uint16(seg.Start), dbg, mf) {
		fmt.Println(e.String())
	}

	return nil
}

// symbols lists the C functions and the global C symbols of a program.
func symbols(md *modalflag.Modes) error {
	dbg, _, _, err := loadDebugInfo(md)
	if err != nil || dbg == nil {
		return err
	}

	scopes := make([]*debugfile.Scope, 0, len(dbg.Scopes))
	for _, sc := range dbg.Scopes {
		if sc.CodeSpan != nil {
			scopes = append(scopes, sc)
		}
	}
	sort.Slice(scopes, func(i, j int) bool {
		return scopes[i].CodeSpan.AbsoluteAddress < scopes[j].CodeSpan.AbsoluteAddress
	})

	fmt.Println("functions:")
	for _, sc := range scopes {
		fmt.Printf("  $%04x %5d  %s\n", sc.CodeSpan.AbsoluteAddress, sc.CodeSpan.Size, sc.Name)
	}

	fmt.Println("globals:")
	for _, cs := range dbg.CSyms {
		if cs.SC != debugfile.Ext || cs.Sym == nil {
			continue
		}
		fmt.Printf("  $%04x  %s\n", cs.Sym.Val, cs.Name)
	}

	return nil
}

// preferences prints the current preferences. Preferences given with the
// -set flag are saved.
func preferences(md *modalflag.Modes) error {
	md.NewMode()
	set := md.AddString("set", "", "preferences to save. eg. vice.directory::/usr/bin")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *set != "" {
		prefs.PushCommandLineStack(*set)
		defer prefs.PopCommandLineStack()
	}

	dbgPrefs, err := debugger.NewPreferences("")
	if err != nil {
		return err
	}

	if *set != "" {
		if err := dbgPrefs.Save(); err != nil {
			return err
		}
	}

	fmt.Print(dbgPrefs.String())
	return nil
}

func showVersion(md *modalflag.Modes) error {
	md.NewMode()
	revision := md.AddBool("revision", false, "display revision information from version control system (if available)")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	ver, rev, _ := version.Version()
	fmt.Printf("%s %s\n", version.ApplicationName, ver)
	if *revision {
		if rev == "" {
			rev = "no revision information"
		}
		fmt.Println(rev)
	}

	return nil
}
