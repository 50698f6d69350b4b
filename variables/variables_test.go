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


package variables_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jetsetilly/cc65dbg/curated"
	"github.com/jetsetilly/cc65dbg/debugfile"
	"github.com/jetsetilly/cc65dbg/expression"
	"github.com/jetsetilly/cc65dbg/monitor"
	"github.com/jetsetilly/cc65dbg/test"
	"github.com/jetsetilly/cc65dbg/variables"
)

const progTab = `Global symbol table
===================
mode: AsmName: _mode Flags: SC_STATIC SC_DEF Type: unsigned char
count: AsmName: _count Flags: SC_STATIC SC_DEF Type: signed int
pos: AsmName: _pos Flags: SC_STATIC SC_DEF Type: struct point
name: AsmName: _name Flags: SC_STATIC SC_DEF Type: char *
__fixargs__: Flags: SC_STATIC 0x8000 Type: unsigned int

SC_STRUCT: point
================
x: Flags: SC_STRUCTFIELD Type: unsigned char
y: Flags: SC_STRUCTFIELD Type: unsigned int
z: Flags: SC_STRUCTFIELD Type: struct pair

SC_STRUCT: pair
===============
a: Flags: SC_STRUCTFIELD Type: unsigned char
b: Flags: SC_STRUCTFIELD Type: unsigned char

SC_FUNC: main (level 1)
=======================
i: Flags: SC_AUTO SC_DEF Type: int
c: Flags: SC_AUTO SC_DEF Type: signed char
total: AsmName: M0001 Flags: SC_STATIC SC_DEF Type: unsigned int
`

const progDbg = `version	major=2,minor=0
file	id=0,name="prog.c",size=100,mtime=0x5C8A1E30,mod=0
seg	id=0,name="CODE",start=0x001000,size=0x000030,addrsize=absolute,type=ro
seg	id=1,name="ZEROPAGE",start=0x000002,size=0x00001A,addrsize=zeropage,type=rw
seg	id=2,name="BSS",start=0x000900,size=0x000020,addrsize=absolute,type=rw
span	id=0,seg=0,start=0,size=4
scope	id=0,name="_main",mod=0,size=4,span=0
csym	id=0,name="i",scope=0,type=0,sc=auto,offs=0
csym	id=1,name="c",scope=0,type=0,sc=auto,offs=2
sym	id=0,name="_main",addrsize=absolute,size=4,scope=0,val=0x1000,seg=0,type=lab
sym	id=1,name="_mode",addrsize=absolute,size=1,val=0x900,seg=2,type=lab
sym	id=2,name="_count",addrsize=absolute,size=2,val=0x901,seg=2,type=lab
sym	id=3,name="_pos",addrsize=absolute,size=5,val=0x903,seg=2,type=lab
sym	id=4,name="_name",addrsize=absolute,size=2,val=0x908,seg=2,type=lab
sym	id=5,name="M0001",addrsize=absolute,size=2,scope=0,val=0x90a,seg=2,type=lab
`

type ram struct {
	mem    [0x10000]byte
	writes [][]byte
}

func (r *ram) MemoryGet(_ context.Context, address uint16, length int, _ uint16) ([]byte, error) {
	b := make([]byte, length)
	for i := range b {
		b[i] = r.mem[(int(address)+i)&0xffff]
	}
	return b, nil
}

func (r *ram) MemorySet(_ context.Context, address uint16, data []byte) error {
	copy(r.mem[address:], data)
	r.writes = append(r.writes, append([]byte(nil), data...))
	return nil
}

func types() variables.Types {
	return variables.NewTypes([]*variables.TableFile{variables.ParseTableFile("prog.tab", progTab)})
}

func setup(t *testing.T) (*variables.Manager, *ram, *debugfile.DebugFile) {
	t.Helper()

	dbg, err := debugfile.Parse(progDbg, "")
	test.DemandSuccess(t, err)

	r := &ram{}
	copy(r.mem[0x903:], []byte{0x01, 0x34, 0x12, 0x05, 0x06})
	copy(r.mem[0x908:], []byte{0x00, 0x0a})
	copy(r.mem[0x0a00:], []byte("HELLO\x00"))

	m := variables.NewManager(r, dbg)
	m.SetTypes(types())

	return m, r, dbg
}

func find(vars []variables.Variable, name string) (variables.Variable, bool) {
	for _, v := range vars {
		if v.Name == name {
			return v, true
		}
	}
	return variables.Variable{}, false
}

func TestParseTableFile(t *testing.T) {
	tf := variables.ParseTableFile("prog.tab", progTab)
	test.DemandEquality(t, len(tf.Tables), 4)

	g := tf.Tables[0]
	test.ExpectEquality(t, g.Lexical, variables.LexGlobal)
	test.ExpectEquality(t, g.Type, variables.TableSymbol)
	test.DemandEquality(t, len(g.Entries), 5)
	test.ExpectEquality(t, g.Entries[0].Name, "mode")
	test.ExpectEquality(t, g.Entries[0].AsmName, "_mode")
	test.ExpectEquality(t, g.Entries[0].Flags, variables.FlagStatic|variables.FlagDef)
	test.ExpectEquality(t, g.Entries[3].Type, "char *")
	test.ExpectEquality(t, g.Entries[4].Flags, variables.FlagStatic|variables.Flags(0x8000))

	test.ExpectEquality(t, tf.Tables[1].Lexical, variables.LexStruct)
	test.ExpectEquality(t, tf.Tables[1].Type, variables.TableTag)
	test.ExpectEquality(t, tf.Tables[1].Name, "point")

	f := tf.Tables[3]
	test.ExpectEquality(t, f.Lexical, variables.LexFunc)
	test.ExpectEquality(t, f.Name, "main")
	test.DemandEquality(t, len(f.Entries), 3)
	test.ExpectEquality(t, f.Entries[2].AsmName, "M0001")

	ty := types()
	_, ok := ty[variables.GlobalScope]
	test.ExpectSuccess(t, ok)
	_, ok = ty["struct pair"]
	test.ExpectSuccess(t, ok)
	_, ok = ty[variables.ScopeKey("main")]
	test.ExpectSuccess(t, ok)

	// compiler generated names are not variables
	test.ExpectEquality(t, len(ty[variables.GlobalScope]), 4)
}

func TestStructLayout(t *testing.T) {
	ty := types()

	point := variables.ParseTypeExpression("struct point")
	size, ok := ty.Size(point)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, size, 5)

	offsets := ty.Offsets(point)
	test.DemandEquality(t, len(offsets), 3)
	test.ExpectEquality(t, offsets[0], 0)
	test.ExpectEquality(t, offsets[1], 1)
	test.ExpectEquality(t, offsets[2], 3)

	// an unknown type stops sizing but earlier fields keep their sizes
	ty["struct broken"] = []variables.Field{
		{Name: "a", Type: variables.ParseTypeExpression("unsigned char")},
		{Name: "b", Type: variables.ParseTypeExpression("struct missing")},
		{Name: "c", Type: variables.ParseTypeExpression("int")},
	}
	sizes := ty.FieldSizes(ty["struct broken"])
	test.DemandEquality(t, len(sizes), 1)
	test.ExpectEquality(t, sizes[0], 1)

	ty["union u"] = []variables.Field{
		{Name: "a", Type: variables.ParseTypeExpression("unsigned char")},
		{Name: "b", Type: variables.ParseTypeExpression("unsigned char[3]")},
		{Name: "c", Type: variables.ParseTypeExpression("long")},
	}
	size, ok = ty.Size(variables.ParseTypeExpression("union u"))
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, size, 4)
}

func TestParseTypeExpression(t *testing.T) {
	ti := variables.ParseTypeExpression("(none)")
	test.ExpectEquality(t, ti.Name, "")

	ti = variables.ParseTypeExpression("int (int, char *)")
	test.DemandSuccess(t, ti.Function != nil)
	test.ExpectEquality(t, *ti.Function, "int")

	ti = variables.ParseTypeExpression("unsigned char[16]")
	test.DemandSuccess(t, ti.Array != nil)
	test.ExpectEquality(t, ti.Array.Length, 16)
	test.ExpectEquality(t, ti.Array.ItemType, "unsigned char")

	ti = variables.ParseTypeExpression("struct point *")
	test.DemandSuccess(t, ti.Pointer != nil)
	test.ExpectEquality(t, *ti.Pointer, "struct point")
	test.ExpectEquality(t, ti.Struct, true)

	ti = variables.ParseTypeExpression("char *")
	test.ExpectEquality(t, ti.String, true)
	test.ExpectEquality(t, ti.Char, false)

	ti = variables.ParseTypeExpression("signed char")
	test.ExpectEquality(t, ti.Char, true)
	test.ExpectEquality(t, ti.Signed, true)
}

func TestRenderValue(t *testing.T) {
	sc := variables.ParseTypeExpression("signed char")
	test.ExpectEquality(t, variables.RenderValue(sc, []byte{0xff}), "-0x01")
	uc := variables.ParseTypeExpression("unsigned char")
	test.ExpectEquality(t, variables.RenderValue(uc, []byte{0xff}), "0xff")
	si := variables.ParseTypeExpression("signed int")
	test.ExpectEquality(t, variables.RenderValue(si, []byte{0xfe, 0xff}), "-0x0002")
	ui := variables.ParseTypeExpression("unsigned int")
	test.ExpectEquality(t, variables.RenderValue(ui, []byte{0x34, 0x12}), "0x1234")
	st := variables.ParseTypeExpression("struct point")
	test.ExpectEquality(t, variables.RenderValue(st, nil), "struct point")

	// a pointer to a struct is an address and not the struct
	sp := variables.ParseTypeExpression("struct point *")
	test.DemandSuccess(t, sp.Pointer != nil)
	test.ExpectEquality(t, variables.RenderValue(sp, []byte{0x03, 0x09}), "0x0903")
	up := variables.ParseTypeExpression("union u *")
	test.ExpectEquality(t, variables.RenderValue(up, []byte{0x10}), "0x0010")

	s := variables.ParseTypeExpression("char *")
	test.ExpectEquality(t, variables.RenderValue(s, []byte("HI\x00\x01\x02")), "HI (48 49 00 01  02)")
}

func TestGlobals(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setup(t)

	vars, err := m.Globals(ctx)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(vars), 4)

	pos, ok := find(vars, "pos")
	test.DemandSuccess(t, ok)
	test.ExpectEquality(t, pos.Value, "struct point")
	test.ExpectEquality(t, pos.Type, "struct point")
	test.ExpectEquality(t, pos.Address, 0x903)

	name, ok := find(vars, "name")
	test.DemandSuccess(t, ok)
	test.ExpectSuccess(t, strings.HasPrefix(name.Value, "HELLO (48 45 4c 4c  4f 00"))
	test.ExpectEquality(t, name.Type, "char *")

	// scalars can't be inspected further
	mode, ok := find(vars, "mode")
	test.DemandSuccess(t, ok)
	test.ExpectEquality(t, mode.Type, "")
}

func TestTypeFields(t *testing.T) {
	ctx := context.Background()
	m, r, _ := setup(t)

	fields, err := m.TypeFields(ctx, 0x903, "struct point")
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(fields), 3)
	test.ExpectEquality(t, fields[0].Value, "0x01")
	test.ExpectEquality(t, fields[1].Value, "0x1234")
	test.ExpectEquality(t, fields[1].Address, 0x904)
	test.ExpectEquality(t, fields[2].Type, "struct pair")
	test.ExpectEquality(t, fields[2].Address, 0x906)

	sub, err := m.TypeFields(ctx, fields[2].Address, fields[2].Type)
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(sub), 2)
	test.ExpectEquality(t, sub[1].Value, "0x06")

	// a pointer is dereferenced
	copy(r.mem[0x0920:], []byte{0x03, 0x09})
	fields, err = m.TypeFields(ctx, 0x0920, "struct point *")
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(fields), 3)
	test.ExpectEquality(t, fields[0].Address, 0x903)

	items, err := m.TypeFields(ctx, 0x903, "unsigned char[3]")
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(items), 3)
	test.ExpectEquality(t, items[2].Name, "2")
	test.ExpectEquality(t, items[2].Value, "0x12")
}

func TestLocalsAndStatics(t *testing.T) {
	ctx := context.Background()
	m, r, dbg := setup(t)
	main := dbg.ScopeByName("_main")
	test.DemandSuccess(t, main != nil)

	copy(r.mem[0x0002:], []byte{0x00, 0x90})
	test.DemandSuccess(t, m.PostStart(ctx))

	// the function has pushed four bytes
	copy(r.mem[0x0002:], []byte{0xfc, 0x8f})
	copy(r.mem[0x8ffc:], []byte{0x10, 0x00, 0xfe, 0x00})

	vars, err := m.Locals(ctx, main)
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(vars), 2)
	test.ExpectEquality(t, vars[0].Name, "i")
	test.ExpectEquality(t, vars[0].Value, "0x0010")
	test.ExpectEquality(t, vars[1].Name, "c")
	test.ExpectEquality(t, vars[1].Value, "-0x02")
	test.ExpectEquality(t, vars[1].Address, 0x8ffe)

	copy(r.mem[0x090a:], []byte{0x2c, 0x01})
	statics, err := m.Statics(ctx, main)
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(statics), 1)
	test.ExpectEquality(t, statics[0].Name, "total")
	test.ExpectEquality(t, statics[0].Value, "0x012c")
}

func TestSetGlobal(t *testing.T) {
	ctx := context.Background()
	m, r, _ := setup(t)

	v, err := m.SetGlobal(ctx, "mode", 0x42)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, v.Value, "0x42")
	test.DemandEquality(t, len(r.writes), 1)
	test.ExpectEquality(t, len(r.writes[0]), 1)

	v, err = m.SetGlobal(ctx, "count", -2)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, v.Value, "-0x0002")
	test.ExpectEquality(t, len(r.writes[1]), 2)
	test.ExpectEquality(t, r.mem[0x901], uint8(0xfe))
	test.ExpectEquality(t, r.mem[0x902], uint8(0xff))

	_, err = m.SetGlobal(ctx, "pos", 1)
	test.ExpectSuccess(t, curated.Is(err, variables.UnsupportedWrite))
	_, err = m.SetGlobal(ctx, "name", 1)
	test.ExpectSuccess(t, curated.Is(err, variables.UnsupportedWrite))
	_, err = m.SetGlobal(ctx, "nothing", 1)
	test.ExpectSuccess(t, curated.Is(err, variables.UnknownVariable))
	test.ExpectEquality(t, len(r.writes), 2)
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setup(t)

	v, err := m.Evaluate(ctx, "pos.y + 1", nil, nil)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, v.Value, "4661")
	test.ExpectEquality(t, v.Name, "y")
	test.ExpectEquality(t, v.Address, 0x904)

	v, err = m.Evaluate(ctx, "pos.z.b * 2", nil, nil)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, v.Value, "12")

	_, err = m.SetGlobal(ctx, "mode", 0x42)
	test.DemandSuccess(t, err)
	v, err = m.Evaluate(ctx, "mode == $42 && count == 0", nil, nil)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, v.Value, "true")

	_, err = m.Evaluate(ctx, "pos", nil, nil)
	test.ExpectSuccess(t, curated.Is(err, variables.NotANumber))

	_, err = m.Evaluate(ctx, "nothing + 1", nil, nil)
	test.ExpectSuccess(t, curated.Is(err, expression.UnknownIdentifier))

	info := &monitor.RegisterInfo{Registers: []monitor.RegisterValue{{ID: 0, Value: 5}, {ID: 1, Value: 3}, {ID: 3, Value: 0x1234}}}
	meta := &monitor.RegistersAvailableResponse{Registers: []monitor.RegisterMeta{
		{ID: 0, Bits: 8, Name: "A"},
		{ID: 1, Bits: 8, Name: "X"},
		{ID: 3, Bits: 16, Name: "PC"},
	}}
	regs := variables.Registers(info, meta)
	test.DemandEquality(t, len(regs), 3)
	test.ExpectEquality(t, regs[2].Value, "0x1234")

	v, err = m.Evaluate(ctx, "a + x", nil, regs)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, v.Value, "8")
}
