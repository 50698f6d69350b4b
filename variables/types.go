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
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TypeInfo is the parsed form of a C type expression taken from a table
// file.
type TypeInfo struct {
	Name string

	Struct bool
	Union  bool
	String bool
	Long   bool
	Int    bool
	Char   bool
	Signed bool

	// non-nil if the type is a function. the value is the return type
	Function *string

	// non-nil if the type is a pointer. the value is the type pointed to
	Pointer *string

	// non-nil if the type is an array
	Array *ArrayInfo
}

// ArrayInfo describes an array type.
type ArrayInfo struct {
	Length   int
	ItemType string
}

// Field is a named member of a struct, union or scope.
type Field struct {
	Name    string
	AsmName string
	Type    TypeInfo
}

// Types maps a type or scope key to its fields. Struct and union keys have
// the form "struct name" and "union name". Function scopes have the form
// "name()". The global scope has the key GlobalScope.
type Types map[string][]Field

// GlobalScope is the key of the global variables in Types.
const GlobalScope = "__GLOBAL__()"

// ScopeKey returns the Types key for a function.
func ScopeKey(function string) string {
	return function + "()"
}

var (
	noneType     = regexp.MustCompile(`(?i)^\s*\(none\)\s*$`)
	functionType = regexp.MustCompile(`^(\s*.[^(]*?)(\s*\(.*\)\s*)?$`)
	unionType    = regexp.MustCompile(`^\s*union\b`)
	structType   = regexp.MustCompile(`^\s*struct\b`)
	stringType   = regexp.MustCompile(`\bchar\s+\*`)
	charType     = regexp.MustCompile(`\bchar\s*$`)
	intType      = regexp.MustCompile(`\bint\s*$`)
	longType     = regexp.MustCompile(`\blong\s*$`)
	signedType   = regexp.MustCompile(`^\s*signed\b`)
	arrayType    = regexp.MustCompile(`^([^\[]+)(\[([0-9]*)\])$`)
)

// ParseTypeExpression parses a type as it is written in a table file.
func ParseTypeExpression(expression string) TypeInfo {
	if strings.TrimSpace(expression) == "" || noneType.MatchString(expression) {
		return TypeInfo{}
	}

	if m := functionType.FindStringSubmatch(expression); m != nil && m[2] != "" {
		ret := m[1]
		return TypeInfo{Name: expression, Function: &ret}
	}

	t := TypeInfo{
		Name:   expression,
		Union:  unionType.MatchString(expression),
		Struct: structType.MatchString(expression),
		String: stringType.MatchString(expression),
		Char:   charType.MatchString(expression),
		Int:    intType.MatchString(expression),
		Long:   longType.MatchString(expression),
		Signed: signedType.MatchString(expression),
	}

	if m := arrayType.FindStringSubmatch(expression); m != nil {
		n, _ := strconv.Atoi(m[3])
		t.Array = &ArrayInfo{Length: n, ItemType: m[1]}
		return t
	}

	parts := strings.Fields(expression)
	if len(parts) > 1 && parts[len(parts)-1] == "*" {
		base := strings.Join(parts[:len(parts)-1], " ")
		t.Pointer = &base
	}

	return t
}

// isReserved is true for compiler generated names like __fixargs__.
func isReserved(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// NewTypes collects the types and scopes of the table files.
func NewTypes(tfs []*TableFile) Types {
	types := make(Types)

	for _, tf := range tfs {
		for _, tb := range tf.Tables {
			fields := make([]Field, 0, len(tb.Entries))
			for _, e := range tb.Entries {
				if isReserved(e.Name) {
					continue
				}
				fields = append(fields, Field{
					Name:    e.Name,
					AsmName: e.AsmName,
					Type:    ParseTypeExpression(e.Type),
				})
			}

			switch {
			case tb.Type == TableSymbol && tb.Lexical == LexFunc:
				types[ScopeKey(tb.Name)] = fields
			case tb.Type == TableSymbol && tb.Lexical == LexGlobal:
				types[GlobalScope] = append(types[GlobalScope], fields...)
			case tb.Type == TableTag && tb.Lexical == LexStruct:
				types["struct "+tb.Name] = fields
			case tb.Type == TableTag && tb.Lexical == LexUnion:
				types["union "+tb.Name] = fields
			}
		}
	}

	return types
}

// FieldSizes returns the size in bytes of each field. Sizing stops at the
// first field whose type is unknown so the result may be shorter than the
// list of fields. Sizes of the fields before the unknown field are correct.
func (types Types) FieldSizes(fields []Field) []int {
	return types.fieldSizes(fields, 0)
}

// nested types deeper than this are assumed to be recursive
const maxTypeDepth = 16

func (types Types) fieldSizes(fields []Field, depth int) []int {
	sizes := make([]int, 0, len(fields))

	for _, f := range fields {
		t := f.Type
		switch {
		case t.Array != nil:
			item := types.fieldSizes([]Field{{Type: ParseTypeExpression(t.Array.ItemType)}}, depth+1)
			if len(item) == 0 {
				return sizes
			}
			sizes = append(sizes, item[0]*t.Array.Length)
		case t.Char:
			sizes = append(sizes, 1)
		case t.Int || t.Pointer != nil:
			sizes = append(sizes, 2)
		case t.Long:
			sizes = append(sizes, 4)
		default:
			sub, ok := types[t.Name]
			if !ok || depth >= maxTypeDepth {
				return sizes
			}
			s := types.fieldSizes(sub, depth+1)
			if t.Union {
				sizes = append(sizes, maxOf(s))
			} else {
				sizes = append(sizes, sumOf(s))
			}
		}
	}

	return sizes
}

// Size returns the size in bytes of the type. The boolean is false if the
// size can't be determined.
func (types Types) Size(t TypeInfo) (int, bool) {
	s := types.FieldSizes([]Field{{Type: t}})
	if len(s) == 0 {
		return 0, false
	}
	return s[0], true
}

// Offsets returns the offset of each sized field of a struct or union.
func (types Types) Offsets(t TypeInfo) []int {
	fields := types[t.Name]
	sizes := types.FieldSizes(fields)
	offsets := make([]int, len(sizes))
	if t.Union {
		return offsets
	}
	pos := 0
	for i, s := range sizes {
		offsets[i] = pos
		pos += s
	}
	return offsets
}

func sumOf(v []int) int {
	n := 0
	for _, x := range v {
		n += x
	}
	return n
}

func maxOf(v []int) int {
	n := 0
	for _, x := range v {
		if x > n {
			n = x
		}
	}
	return n
}

// RawHex formats bytes as hex pairs in groups of four.
func RawHex(b []byte) string {
	var s strings.Builder
	for i, v := range b {
		if i > 0 {
			s.WriteByte(' ')
			if i%4 == 0 {
				s.WriteByte(' ')
			}
		}
		fmt.Fprintf(&s, "%02x", v)
	}
	return s.String()
}

// pad makes sure there are at least n bytes to decode.
func pad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	p := make([]byte, n)
	copy(p, b)
	return p
}

func signedHex(v int64, digits int) string {
	if v < 0 {
		return fmt.Sprintf("-0x%0*x", digits, -v)
	}
	return fmt.Sprintf("0x%0*x", digits, v)
}

// RenderValue formats the bytes of a value according to its type. For
// strings the bytes are the characters pointed to, not the pointer.
func RenderValue(t TypeInfo, b []byte) string {
	switch {
	case t.String:
		s := b
		for i, c := range b {
			if c == 0x00 {
				s = b[:i]
				break
			}
		}
		return fmt.Sprintf("%s (%s)", s, RawHex(b))
	case t.Pointer != nil:
		b = pad(b, 2)
		return fmt.Sprintf("0x%04x", binary.LittleEndian.Uint16(b))
	case t.Char:
		b = pad(b, 1)
		if t.Signed {
			return signedHex(int64(int8(b[0])), 2)
		}
		return fmt.Sprintf("0x%02x", b[0])
	case t.Int:
		b = pad(b, 2)
		v := binary.LittleEndian.Uint16(b)
		if t.Signed {
			return signedHex(int64(int16(v)), 4)
		}
		return fmt.Sprintf("0x%04x", v)
	case t.Long:
		b = pad(b, 4)
		v := binary.LittleEndian.Uint32(b)
		if t.Signed {
			return signedHex(int64(int32(v)), 8)
		}
		return fmt.Sprintf("0x%08x", v)
	case t.Struct || t.Union:
		return t.Name
	}

	b = pad(b, 2)
	return fmt.Sprintf("0x%04x", binary.LittleEndian.Uint16(b))
}
