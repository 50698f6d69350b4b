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


package version

import (
	"runtime/debug"
	"testing"

	"github.com/jetsetilly/cc65dbg/test"
)

func buildInfo(main string, settings ...debug.BuildSetting) func() (*debug.BuildInfo, bool) {
	return func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main:     debug.Module{Path: "github.com/jetsetilly/cc65dbg", Version: main},
			Settings: settings,
		}, true
	}
}

func TestVersionNumber(t *testing.T) {
	v, rev, rel := fromBuildInfo("0.2.0", buildInfo("(devel)"))
	test.ExpectEquality(t, v, "v0.2.0")
	test.ExpectEquality(t, rev, "")
	test.ExpectSuccess(t, rel)

	v, _, rel = fromBuildInfo("v0.3.0-rc.1", buildInfo("(devel)"))
	test.ExpectEquality(t, v, "v0.3.0-rc.1")
	test.ExpectFailure(t, rel)

	v, _, rel = fromBuildInfo("nightly", buildInfo("(devel)"))
	test.ExpectEquality(t, v, "nightly")
	test.ExpectFailure(t, rel)
}

func TestModuleVersion(t *testing.T) {
	v, _, rel := fromBuildInfo("", buildInfo("v1.0.1"))
	test.ExpectEquality(t, v, "v1.0.1")
	test.ExpectSuccess(t, rel)
}

func TestVCS(t *testing.T) {
	read := buildInfo("(devel)",
		debug.BuildSetting{Key: "vcs", Value: "git"},
		debug.BuildSetting{Key: "vcs.revision", Value: "abc123"},
		debug.BuildSetting{Key: "vcs.modified", Value: "true"},
	)
	v, rev, rel := fromBuildInfo("", read)
	test.ExpectEquality(t, v, "unreleased")
	test.ExpectEquality(t, rev, "abc123+dirty")
	test.ExpectFailure(t, rel)

	v, _, _ = fromBuildInfo("", func() (*debug.BuildInfo, bool) { return nil, false })
	test.ExpectEquality(t, v, "local")
}
