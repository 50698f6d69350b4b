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


package prefs

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jetsetilly/cc65dbg/curated"
)

// Value is the Go value of a preference.
type Value = any

// pref is implemented by every preference type that can be added to a Disk.
type pref interface {
	String() string
	Set(value Value) error
	Get() Value
	Reset() error
}

// sentinel error returned when a value cannot be converted to the type of the
// preference.
const cannotConvert = "prefs: cannot convert %T to %s"

// hooks are called around a store. They run even when the value is unchanged.
type hooks struct {
	pre  func(value Value) error
	post func(value Value) error
}

// SetHookPre sets the function called before a new value is stored. If the
// function returns an error the value is not stored.
func (h *hooks) SetHookPre(f func(value Value) error) {
	h.pre = f
}

// SetHookPost sets the function called after a new value is stored.
func (h *hooks) SetHookPost(f func(value Value) error) {
	h.post = f
}

func (h *hooks) apply(nv Value, store func()) error {
	if h.pre != nil {
		if err := h.pre(nv); err != nil {
			return err
		}
	}
	store()
	if h.post != nil {
		return h.post(nv)
	}
	return nil
}

// Bool is a boolean preference.
type Bool struct {
	hooks
	value atomic.Bool
}

func (p *Bool) String() string {
	return strconv.FormatBool(p.value.Load())
}

// Set accepts a bool or a string. Any string other than "true", ignoring case
// and surrounding space, is false.
func (p *Bool) Set(v Value) error {
	var nv bool
	switch v := v.(type) {
	case bool:
		nv = v
	case string:
		nv = strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return curated.Errorf(cannotConvert, v, "bool")
	}
	return p.apply(nv, func() { p.value.Store(nv) })
}

// Get returns the value as a bool.
func (p *Bool) Get() Value {
	return p.value.Load()
}

// Reset sets the value to false.
func (p *Bool) Reset() error {
	return p.Set(false)
}

// String is a string preference. Values are stored with surrounding space
// removed.
type String struct {
	hooks
	value atomic.Pointer[string]
}

func (p *String) String() string {
	if s := p.value.Load(); s != nil {
		return *s
	}
	return ""
}

// Set accepts a string or a fmt.Stringer.
func (p *String) Set(v Value) error {
	var nv string
	switch v := v.(type) {
	case string:
		nv = v
	case interface{ String() string }:
		nv = v.String()
	default:
		return curated.Errorf(cannotConvert, v, "string")
	}
	nv = strings.TrimSpace(nv)
	return p.apply(nv, func() { p.value.Store(&nv) })
}

// Get returns the value as a string.
func (p *String) Get() Value {
	return p.String()
}

// Reset sets the value to the empty string.
func (p *String) Reset() error {
	return p.Set("")
}

// Int is an integer preference.
type Int struct {
	hooks
	value atomic.Int64
}

func (p *Int) String() string {
	return strconv.FormatInt(p.value.Load(), 10)
}

// Set accepts any of the signed integer types, uint16 or a string. Strings
// may use the 0x prefix for hexadecimal.
func (p *Int) Set(v Value) error {
	var nv int64
	switch v := v.(type) {
	case int:
		nv = int64(v)
	case int32:
		nv = int64(v)
	case int64:
		nv = v
	case uint16:
		nv = int64(v)
	case string:
		var err error
		nv, err = strconv.ParseInt(strings.TrimSpace(v), 0, 64)
		if err != nil {
			return curated.Errorf("prefs: int: %v", err)
		}
	default:
		return curated.Errorf(cannotConvert, v, "int")
	}
	return p.apply(int(nv), func() { p.value.Store(nv) })
}

// Get returns the value as an int.
func (p *Int) Get() Value {
	return int(p.value.Load())
}

// Reset sets the value to zero.
func (p *Int) Reset() error {
	return p.Set(0)
}
