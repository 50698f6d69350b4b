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


package variables

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/logger"
)

// LexicalType is the kind of lexical level a table describes.
type LexicalType int

// List of valid LexicalType values.
const (
	LexUnknown LexicalType = iota
	LexFunc
	LexStruct
	LexGlobal
	LexUnion
)

// TableType distinguishes symbol tables from tag tables.
type TableType int

// List of valid TableType values.
const (
	TableUnknown TableType = iota
	TableSymbol
	TableTag
)

// Flags are the storage class flags of a table entry.
type Flags int

// List of storage class flags.
const (
	FlagConst       Flags = 0x01
	FlagDef         Flags = 0x02
	FlagRef         Flags = 0x04
	FlagAuto        Flags = 0x08
	FlagStatic      Flags = 0x10
	FlagExtern      Flags = 0x20
	FlagTypedef     Flags = 0x40
	FlagDecl        Flags = 0x80
	FlagFunc        Flags = 0x100
	FlagStructField Flags = 0x200
	FlagParam       Flags = 0x400
)

var flagNames = map[string]Flags{
	"SC_CONST":       FlagConst,
	"SC_DEF":         FlagDef,
	"SC_REF":         FlagRef,
	"SC_AUTO":        FlagAuto,
	"SC_STATIC":      FlagStatic,
	"SC_EXTERN":      FlagExtern,
	"SC_TYPEDEF":     FlagTypedef,
	"SC_DECL":        FlagDecl,
	"SC_FUNC":        FlagFunc,
	"SC_STRUCTFIELD": FlagStructField,
	"SC_PARAM":       FlagParam,
}

// TableEntry is one symbol in a table.
type TableEntry struct {
	Name string

	// the name the symbol has in the assembler output. empty if the compiler
	// did not give one
	AsmName string

	Flags Flags
	Type  string
}

// Table is one lexical level of a table file.
type Table struct {
	Lexical LexicalType
	Type    TableType

	// empty for global tables
	Name string

	Entries []TableEntry
}

// TableFile is the parsed contents of one .tab file.
type TableFile struct {
	Path   string
	Tables []Table
}

var tableMatch = regexp.MustCompile(`(?im)((SC_FUNC|SC_STRUCT|SC_UNION)\s*:\s*(\S+)\b[^\n\r]*|Global\s+(\w+)\s+table)\s+=+\s+([\S\s]*?)[\n\r]{2,}`)
var entryMatch = regexp.MustCompile(`(?im)(\w+):\s+(AsmName\s*:\s*(\S+)\s+)?Flags\s*:\s*(((SC_\w+\b|0x[0-9a-f]+)[\t ]*)+)\s+Type\s*:\s*([^\n\r]+)\s*`)

// ParseTableFile parses the text of a .tab file. Text that doesn't look like
// a table is ignored.
func ParseTableFile(path string, text string) *TableFile {
	tf := &TableFile{Path: path}

	// a table body is terminated by a blank line. make sure the final table
	// has one
	text = strings.ReplaceAll(text, "\r\n", "\n") + "\n\n"

	for _, m := range tableMatch.FindAllStringSubmatch(text, -1) {
		tb := Table{Name: m[3]}

		switch m[2] {
		case "SC_FUNC":
			tb.Lexical = LexFunc
			tb.Type = TableSymbol
		case "SC_STRUCT":
			tb.Lexical = LexStruct
			tb.Type = TableTag
		case "SC_UNION":
			tb.Lexical = LexUnion
			tb.Type = TableTag
		default:
			tb.Lexical = LexGlobal
			switch strings.ToLower(m[4]) {
			case "symbol":
				tb.Type = TableSymbol
			case "tag":
				tb.Type = TableTag
			}
		}

		for _, e := range entryMatch.FindAllStringSubmatch(m[5], -1) {
			tb.Entries = append(tb.Entries, TableEntry{
				Name:    e[1],
				AsmName: e[3],
				Flags:   parseFlags(e[4]),
				Type:    strings.TrimSpace(e[7]),
			})
		}

		tf.Tables = append(tf.Tables, tb)
	}

	return tf
}

func parseFlags(s string) Flags {
	var f Flags
	for _, n := range strings.Fields(s) {
		if v, ok := flagNames[strings.ToUpper(n)]; ok {
			f |= v
			continue
		}
		if strings.HasPrefix(strings.ToLower(n), "0x") {
			if v, err := strconv.ParseInt(n[2:], 16, 32); err == nil {
				f |= Flags(v)
			}
		}
	}
	return f
}

// FindTableFiles returns the path of every .tab file under the build
// directory.
func FindTableFiles(buildDir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(buildDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".tab") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, curated.Errorf("variables: %v", err)
	}

	return files, nil
}

// LoadTableFiles reads and parses every .tab file under the build directory.
// A file that can't be read is logged and skipped.
func LoadTableFiles(buildDir string) ([]*TableFile, error) {
	paths, err := FindTableFiles(buildDir)
	if err != nil {
		return nil, err
	}

	var tfs []*TableFile
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			logger.Logf(logger.Allow, "variables", "%v", err)
			continue
		}
		tfs = append(tfs, ParseTableFile(p, string(b)))
	}

	return tfs, nil
}
