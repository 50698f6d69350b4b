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
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/jetsetilly/cc65dbg/callstack"
	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/debugger/govern"
	"github.com/jetsetilly/cc65dbg/logger"
	"github.com/jetsetilly/cc65dbg/mapfile"
	"github.com/jetsetilly/cc65dbg/variables"
)

// the delay between the last change to the debug file and the reload. the
// linker writes the file in more than one go
const reloadDelay = 250 * time.Millisecond

type watcher struct {
	w      *fsnotify.Watcher
	target string

	crit    sync.Mutex
	pending *time.Timer
}

// startWatch watches the debug file for changes. errors are logged and
// otherwise ignored
func (d *Debugger) startWatch() {
	if d.cfg.DebugFile == "" || d.watcher != nil {
		return
	}

	target, err := filepath.Abs(d.cfg.DebugFile)
	if err != nil {
		logger.Logf(logger.Allow, "watch", "%v", err)
		return
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Logf(logger.Allow, "watch", "%v", err)
		return
	}

	// the directory is watched because the file may be replaced rather than
	// written to
	if err := fw.Add(filepath.Dir(target)); err != nil {
		logger.Logf(logger.Allow, "watch", "%v", err)
		fw.Close()
		return
	}

	w := &watcher{w: fw, target: target}
	d.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != w.target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				w.crit.Lock()
				if w.pending != nil {
					w.pending.Stop()
				}
				w.pending = time.AfterFunc(reloadDelay, func() {
					ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
					defer cancel()
					if err := d.Reload(ctx); err != nil {
						logger.Logf(logger.Allow, "watch", "reload: %v", err)
					}
				})
				w.crit.Unlock()
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.Logf(logger.Allow, "watch", "%v", err)
			}
		}
	}()

	logger.Logf(logger.Allow, "watch", "watching %s", target)
}

func (d *Debugger) stopWatch() {
	w := d.watcher
	if w == nil {
		return
	}
	d.watcher = nil

	w.crit.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.crit.Unlock()

	if err := w.w.Close(); err != nil {
		logger.Logf(logger.Allow, "watch", "%v", err)
	}
}

// Reload the debug file and the map file. The checkpoints placed by the
// debugger are replaced and the breakpoints are verified again against the
// new debug information.
func (d *Debugger) Reload(ctx context.Context) error {
	var dbg *debugfile.DebugFile
	var mf *mapfile.Mapfile

	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		dbg, err = debugfile.Load(d.cfg.DebugFile, d.cfg.BuildDir)
		if err != nil {
			return curated.Errorf(NoDebugInfo, err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		mf, err = mapfile.Load(d.cfg.MapFile)
		if err != nil {
			return curated.Errorf(NoMapInfo, err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	return d.userOp(ctx, func() error {
		if d.State() == govern.Starting {
			return nil
		}
		return d.silenced(ctx, func() error {
			return d.reload(ctx, dbg, mf)
		})
	})
}

func (d *Debugger) reload(ctx context.Context, dbg *debugfile.DebugFile, mf *mapfile.Mapfile) error {
	if err := d.grip.Ping(ctx); err != nil {
		return err
	}

	if err := d.callstack().Cleanup(ctx); err != nil {
		return err
	}
	if err := d.unverifyBreakpoints(ctx); err != nil {
		return err
	}
	if err := d.removeGuards(ctx); err != nil {
		return err
	}

	stack := callstack.NewManager(d.grip, dbg, mf)
	d.crit.Lock()
	d.dbg = dbg
	d.mf = mf
	d.stack = stack
	sp := d.registers["sp"]
	d.crit.Unlock()
	stack.SetCPUStackTop(0x100 + int(sp&0xff))

	address := d.currentAddress()
	if err := stack.Reset(ctx, address, d.lineFromAddress(address)); err != nil {
		return err
	}

	vars := variables.NewManager(d.grip, dbg)
	vars.SetTypes(d.types)
	if err := vars.PostStart(ctx); err != nil {
		return err
	}
	d.vars = vars

	if err := d.setExitGuard(ctx); err != nil {
		return err
	}
	if err := d.guardCodeSeg(ctx); err != nil {
		return err
	}
	if err := d.verify(ctx); err != nil {
		return err
	}

	d.message(Information, "Debug information reloaded.")
	return nil
}
