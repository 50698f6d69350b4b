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

// Package version reports the version of cc65dbg. The version number is
// set at link time or, for programs installed with go install, taken from
// the module version recorded in the binary.
//
//	go build -ldflags "-X github.com/jetsetilly/cc65dbg/version.number=v0.2.0"
package version

import (
	"fmt"
	"runtime/debug"

	"github.com/Masterminds/semver/v3"
)

// The name to use when referring to the application
const ApplicationName = "cc65dbg"

// set at link time
var number string

var (
	version  string
	revision string
	release  bool
)

// Version returns the version string, the revision string and whether this is
// a numbered release version.
//
// The version is "unreleased" if there is vcs information but no version
// number and "local" if there is neither. The revision is suffixed with
// "+dirty" if the source had uncommitted changes when it was built.
func Version() (string, string, bool) {
	return version, revision, release
}

func init() {
	version, revision, release = fromBuildInfo(number, debug.ReadBuildInfo)
}

func fromBuildInfo(number string, read func() (*debug.BuildInfo, bool)) (string, string, bool) {
	var vcs bool
	var rev string
	var modified bool

	info, ok := read()
	if ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs":
				vcs = true
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				modified = s.Value == "true"
			}
		}

		if number == "" && info.Main.Version != "(devel)" {
			number = info.Main.Version
		}
	}

	if rev != "" && modified {
		rev = fmt.Sprintf("%s+dirty", rev)
	}

	if number != "" {
		v, err := semver.NewVersion(number)
		if err == nil {
			return fmt.Sprintf("v%s", v), rev, v.Prerelease() == "" && !modified
		}
		return number, rev, false
	}

	if vcs {
		return "unreleased", rev, false
	}
	return "local", rev, false
}
