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

// Package paths contains functions to prepare paths for the debugger's
// resources. The base path is the user's configuration directory unless a
// directory named .cc65dbg exists in the current working directory.
package paths

import (
	"os"
	"path/filepath"
)

const baseResourcePath = ".cc65dbg"

// ResourcePath returns the resource path, creating the base directory if
// necessary. The resource arguments are joined to the base path.
func ResourcePath(resource ...string) (string, error) {
	base, err := getBasePath()
	if err != nil {
		return "", err
	}

	p := make([]string, 0, len(resource)+1)
	p = append(p, base)
	p = append(p, resource...)

	return filepath.Join(p...), nil
}

func getBasePath() (string, error) {
	if _, err := os.Stat(baseResourcePath); err == nil {
		return baseResourcePath, nil
	}

	cfg, err := os.UserConfigDir()
	if err != nil {
		return baseResourcePath, nil
	}

	p := filepath.Join(cfg, baseResourcePath[1:])
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", err
	}

	return p, nil
}
