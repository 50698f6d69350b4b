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
	"context"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/logger"
)

// Sentinel errors returned by SetGlobal.
const (
	UnknownVariable  = "variables: no variable named %s"
	UnsupportedWrite = "variables: cannot set %s of type %s"
)

// the number of bytes read when rendering a char pointer as a string
const stringLength = 24

// Memory is the part of the target used to read and write variables.
type Memory interface {
	MemoryGet(ctx context.Context, address uint16, length int, bank uint16) ([]byte, error)
	MemorySet(ctx context.Context, address uint16, data []byte) error
}

// Variable is a rendered variable.
type Variable struct {
	Name    string
	Value   string
	Address int

	// the type of the variable if it can be inspected further with
	// TypeFields. empty otherwise
	Type string
}

// Manager resolves the variables of a program.
type Manager struct {
	mem Memory

	// address of the C parameter stack pointer
	stackPointer    int
	hasStackPointer bool

	// the value of the parameter stack pointer when the program started and
	// its most recent value
	stackBottom int
	stackTop    int

	staticLabs []*debugfile.Sym
	globalLabs []*debugfile.Sym

	types Types
}

// NewManager creates a Manager for the program described by the debug file.
func NewManager(mem Memory, dbg *debugfile.DebugFile) *Manager {
	m := &Manager{mem: mem}

	for _, seg := range dbg.Segs {
		if seg.Name == "ZEROPAGE" {
			m.stackPointer = seg.Start
			m.hasStackPointer = true
			break
		}
	}

	for _, lab := range dbg.Labs {
		if lab.Seg != nil && (lab.Seg.Name == "BSS" || lab.Seg.Name == "DATA") {
			m.staticLabs = append(m.staticLabs, lab)
		}
		if strings.HasPrefix(lab.Name, "_") && (lab.Seg == nil || lab.Seg != dbg.CodeSeg) {
			m.globalLabs = append(m.globalLabs, lab)
		}
	}

	return m
}

// PreStart loads the type information from the .tab files in the build
// directory. Problems are returned as warnings and are not fatal.
func (m *Manager) PreStart(buildDir string) []string {
	tfs, err := LoadTableFiles(buildDir)
	if err != nil {
		return []string{err.Error()}
	}
	m.SetTypes(NewTypes(tfs))
	if len(tfs) == 0 {
		return []string{"No .tab files found. Compile with the -T switch for type information."}
	}
	logger.Logf(logger.Allow, "variables", "%d table files, %d types", len(tfs), len(m.types))
	return nil
}

// SetTypes replaces the type information.
func (m *Manager) SetTypes(types Types) {
	m.types = types
}

// Types returns the current type information.
func (m *Manager) Types() Types {
	return m.types
}

// PostStart records the bottom of the parameter stack. It should be called
// once the program has reached its entry point.
func (m *Manager) PostStart(ctx context.Context) error {
	return m.updateStack(ctx)
}

func (m *Manager) updateStack(ctx context.Context) error {
	if !m.hasStackPointer {
		return nil
	}

	b, err := m.mem.MemoryGet(ctx, uint16(m.stackPointer), 2, 0)
	if err != nil {
		return err
	}
	pos := int(binary.LittleEndian.Uint16(pad(b, 2)))

	if m.stackBottom == 0 {
		m.stackBottom = pos
	}
	m.stackTop = pos

	return nil
}

func (m *Manager) read(ctx context.Context, address int, length int) ([]byte, error) {
	b, err := m.mem.MemoryGet(ctx, uint16(address), length, 0)
	if err != nil {
		return nil, err
	}
	return pad(b, length), nil
}

// knownType returns the type name if it can be inspected with TypeFields.
func (m *Manager) knownType(t TypeInfo) string {
	if _, ok := m.types[t.Name]; ok || t.Pointer != nil || t.Array != nil {
		return t.Name
	}
	return ""
}

func (m *Manager) render(ctx context.Context, scope string, name string, address int) (Variable, error) {
	v := Variable{Name: name, Address: address}

	b, err := m.read(ctx, address, 2)
	if err != nil {
		return v, err
	}

	fields, ok := m.types[scope]
	if !ok {
		v.Value = RawHex(b)
		return v, nil
	}

	var field *Field
	for i := range fields {
		if fields[i].Name == name || (fields[i].AsmName != "" && fields[i].AsmName == name) {
			field = &fields[i]
			break
		}
	}

	if field == nil {
		t := ParseTypeExpression("unsigned int")
		v.Value = RenderValue(t, b)
		v.Type = t.Name
		return v, nil
	}

	v.Name = field.Name
	t := field.Type
	ptr := binary.LittleEndian.Uint16(b)

	switch {
	case t.Array != nil:
		v.Value = t.Name
	case t.String && ptr != 0:
		s, err := m.read(ctx, int(ptr), stringLength)
		if err != nil {
			return v, err
		}
		v.Value = RenderValue(t, s)
	case t.Long:
		l, err := m.read(ctx, address, 4)
		if err != nil {
			return v, err
		}
		v.Value = RenderValue(t, l)
	default:
		v.Value = RenderValue(t, b)
	}

	v.Type = m.knownType(t)

	return v, nil
}

// Locals returns the automatic variables of the scope.
func (m *Manager) Locals(ctx context.Context, scope *debugfile.Scope) ([]Variable, error) {
	if scope == nil || len(scope.Autos) == 0 {
		return nil, nil
	}

	if err := m.updateStack(ctx); err != nil {
		return nil, err
	}
	if m.stackTop == 0 || m.stackBottom <= m.stackTop {
		return nil, nil
	}

	key := ScopeKey(strings.TrimPrefix(scope.Name, "_"))
	first := scope.Autos[0].Offs

	vars := make([]Variable, 0, len(scope.Autos))
	for _, a := range scope.Autos {
		v, err := m.render(ctx, key, a.Name, m.stackTop+a.Offs-first)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}

	return vars, nil
}

// Globals returns the global variables of the program.
func (m *Manager) Globals(ctx context.Context) ([]Variable, error) {
	vars := make([]Variable, 0, len(m.globalLabs))
	for _, lab := range m.globalLabs {
		v, err := m.render(ctx, GlobalScope, strings.TrimPrefix(lab.Name, "_"), lab.Val)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// Statics returns the static variables of the scope.
func (m *Manager) Statics(ctx context.Context, scope *debugfile.Scope) ([]Variable, error) {
	if scope == nil {
		return nil, nil
	}

	key := ScopeKey(strings.TrimPrefix(scope.Name, "_"))

	var vars []Variable
	for _, lab := range m.staticLabs {
		if lab.Scope != scope {
			continue
		}
		v, err := m.render(ctx, key, lab.Name, lab.Val)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// All returns the locals, globals and statics visible in the scope.
func (m *Manager) All(ctx context.Context, scope *debugfile.Scope) ([]Variable, error) {
	var vars []Variable
	for _, f := range []func() ([]Variable, error){
		func() ([]Variable, error) { return m.Locals(ctx, scope) },
		func() ([]Variable, error) { return m.Globals(ctx) },
		func() ([]Variable, error) { return m.Statics(ctx, scope) },
	} {
		v, err := f()
		if err != nil {
			return nil, err
		}
		vars = append(vars, v...)
	}
	return vars, nil
}

// TypeFields returns the members of the value of the named type at the
// address. Arrays return their items and pointers are dereferenced.
func (m *Manager) TypeFields(ctx context.Context, address int, typeName string) ([]Variable, error) {
	if m.types == nil {
		return nil, nil
	}

	t := ParseTypeExpression(typeName)

	if t.Array != nil {
		item := ParseTypeExpression(t.Array.ItemType)
		size, ok := m.types.Size(item)
		if !ok {
			return nil, nil
		}

		vars := make([]Variable, 0, t.Array.Length)
		for i := 0; i < t.Array.Length; i++ {
			addr := address + i*size
			b, err := m.read(ctx, addr, max(size, 2))
			if err != nil {
				return nil, err
			}
			vars = append(vars, Variable{
				Name:    strconv.Itoa(i),
				Value:   RenderValue(item, b),
				Address: addr,
				Type:    m.knownType(item),
			})
		}
		return vars, nil
	}

	var fields []Field

	if t.Pointer != nil {
		b, err := m.read(ctx, address, 2)
		if err != nil {
			return nil, err
		}
		address = int(binary.LittleEndian.Uint16(b))

		var ok bool
		fields, ok = m.types[*t.Pointer]
		if !ok {
			base := ParseTypeExpression(*t.Pointer)
			v, err := m.read(ctx, address, 4)
			if err != nil {
				return nil, err
			}
			return []Variable{{
				Name:    base.Name,
				Value:   RenderValue(base, v),
				Address: address,
				Type:    base.Name,
			}}, nil
		}
		t = ParseTypeExpression(*t.Pointer)
	} else {
		var ok bool
		fields, ok = m.types[t.Name]
		if !ok {
			return nil, nil
		}
	}

	sizes := m.types.FieldSizes(fields)
	total := sumOf(sizes)
	if t.Union {
		total = maxOf(sizes)
	}

	// fields are decoded from a padded copy so that the last field can be
	// rendered as a 16bit value
	mem, err := m.read(ctx, address, total)
	if err != nil {
		return nil, err
	}
	mem = pad(mem, total+4)

	vars := make([]Variable, 0, len(sizes))
	pos := 0
	for i, size := range sizes {
		f := fields[i]
		vars = append(vars, Variable{
			Name:    f.Name,
			Value:   RenderValue(f.Type, mem[pos:]),
			Address: address + pos,
			Type:    m.knownType(f.Type),
		})
		if !t.Union {
			pos += size
		}
	}

	return vars, nil
}

// SetGlobal writes a value to a global variable and returns the variable as
// it now reads. Only scalar variables can be set.
func (m *Manager) SetGlobal(ctx context.Context, name string, value int) (Variable, error) {
	var field *Field
	for i, f := range m.types[GlobalScope] {
		if f.Name == name {
			field = &m.types[GlobalScope][i]
			break
		}
	}
	if field == nil {
		return Variable{}, curated.Errorf(UnknownVariable, name)
	}

	t := field.Type
	if t.Pointer != nil || t.Union || t.String || t.Struct || t.Array != nil || t.Function != nil {
		return Variable{}, curated.Errorf(UnsupportedWrite, name, t.Name)
	}

	size, ok := m.types.Size(t)
	if !ok || (size != 1 && size != 2) {
		return Variable{}, curated.Errorf(UnsupportedWrite, name, t.Name)
	}

	var lab *debugfile.Sym
	for _, l := range m.globalLabs {
		if l.Name == "_"+name {
			lab = l
			break
		}
	}
	if lab == nil {
		return Variable{}, curated.Errorf(UnknownVariable, name)
	}

	b := make([]byte, size)
	if size == 1 {
		b[0] = uint8(value)
	} else {
		binary.LittleEndian.PutUint16(b, uint16(value))
	}

	if err := m.mem.MemorySet(ctx, uint16(lab.Val), b); err != nil {
		return Variable{}, err
	}

	return m.render(ctx, GlobalScope, name, lab.Val)
}
