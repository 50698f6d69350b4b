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


package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/terminal"
)

// Sentinal errors for scripts.
const (
	ScriptError = "script: %v"
)

// comment lines in a script begin with this string.
const scriptComment = "#"

// scribe records the commands entered by the user to a script file.
type scribe struct {
	file io.WriteCloser

	// the depth of script playback. commands from a script are not
	// recorded
	playbackDepth int

	// the most recent command. written on the next call to commit()
	inputLine string
}

func (scr *scribe) isActive() bool {
	return scr.file != nil
}

func (scr *scribe) startSession(scriptfile string) error {
	if scr.isActive() {
		return curated.Errorf(ScriptError, "already recording")
	}

	if _, err := os.Stat(scriptfile); err == nil {
		return curated.Errorf(ScriptError, fmt.Sprintf("%s already exists", scriptfile))
	}

	f, err := os.Create(scriptfile)
	if err != nil {
		return curated.Errorf(ScriptError, err)
	}
	scr.file = f

	return nil
}

func (scr *scribe) endSession() error {
	if !scr.isActive() {
		return nil
	}

	// the command that ended the session is not recorded
	scr.rollback()

	err := scr.file.Close()
	scr.file = nil
	scr.playbackDepth = 0
	if err != nil {
		return curated.Errorf(ScriptError, err)
	}
	return nil
}

// writeInput notes the command. it is written to the file with the next
// call to commit()
func (scr *scribe) writeInput(command string) {
	if !scr.isActive() || scr.playbackDepth > 0 {
		return
	}
	scr.inputLine = command
}

// rollback forgets the most recent command. used when a command fails
func (scr *scribe) rollback() {
	scr.inputLine = ""
}

func (scr *scribe) commit() error {
	if !scr.isActive() || scr.inputLine == "" {
		return nil
	}
	defer scr.rollback()

	if _, err := io.WriteString(scr.file, scr.inputLine+"\n"); err != nil {
		return curated.Errorf(ScriptError, err)
	}
	return nil
}

// PlayScript runs the commands in the script file. Empty lines and lines
// beginning with # are ignored. Playback stops at the first command that
// fails or that quits the console.
func (c *Console) PlayScript(ctx context.Context, scriptfile string) (bool, error) {
	f, err := os.Open(scriptfile)
	if err != nil {
		return false, curated.Errorf(ScriptError, err)
	}
	defer f.Close()

	c.scribe.playbackDepth++
	defer func() {
		c.scribe.playbackDepth--
	}()

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, scriptComment) {
			continue
		}

		c.term.TermPrintLine(terminal.StyleEcho, line)

		quit, err := c.Execute(ctx, line)
		if err != nil {
			return false, curated.Errorf(ScriptError, fmt.Errorf("line %d: %w", n, err))
		}
		if quit {
			return true, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return false, curated.Errorf(ScriptError, err)
	}

	return false, nil
}
