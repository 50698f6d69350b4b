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

// Package ansi defines ANSI control codes for styles and colours.
package ansi

import (
	"fmt"
	"strings"
)

// ansi color.
var colors = map[string]int{
	"black":   0,
	"red":     1,
	"green":   2,
	"yellow":  3,
	"blue":    4,
	"magenta": 5,
	"cyan":    6,
	"white":   7,
	"":        9,
}

// ansi target.
const (
	targetPen       = 3
	targetBrightPen = 9
)

// ansi attribute.
const (
	attrBold      = 1
	attrUnderline = 4
	attrInverse   = 7
)

// Pens is the table of colors to be used for text.
var Pens map[string]string

// DimPens is the table of pastel colors to be used for text.
var DimPens map[string]string

// NormalPen is the CSI sequence for regular text.
var NormalPen = "\033[0m"

// Bold is the CSI sequence for bold text.
var Bold = fmt.Sprintf("\033[%dm", attrBold)

// Inverse is the CSI sequence for reversed text.
var Inverse = fmt.Sprintf("\033[%dm", attrInverse)

func init() {
	Pens = make(map[string]string)
	DimPens = make(map[string]string)

	for name := range colors {
		if name == "" {
			continue
		}
		Pens[name], _ = ColorBuild(name, true)
		DimPens[name], _ = ColorBuild(name, false)
	}
}

// ColorBuild creates the CSI sequence for the named pen color.
func ColorBuild(pen string, bright bool) (string, error) {
	c, ok := colors[strings.ToLower(pen)]
	if !ok {
		return "", fmt.Errorf("ansi: unknown color (%s)", pen)
	}

	target := targetPen
	if bright {
		target = targetBrightPen
	}

	return fmt.Sprintf("\033[%d%dm", target, c), nil
}

// Cursor and line control sequences.
const (
	ClearLine         = "\033[2K"
	CursorStore       = "\0337"
	CursorRestore     = "\0338"
	CursorForwardOne  = "\033[1C"
	CursorBackwardOne = "\033[1D"
)

// CursorMove returns the CSI sequence that moves the cursor horizontally by
// n columns. Negative values move the cursor backwards.
func CursorMove(n int) string {
	switch {
	case n > 0:
		return fmt.Sprintf("\033[%dC", n)
	case n < 0:
		return fmt.Sprintf("\033[%dD", -n)
	}
	return ""
}
