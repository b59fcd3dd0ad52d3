// Package ident hands out stable, printable identifiers for object
// references. The same reference always maps to the same id for the
// lifetime of the registry, and ids are never reused.
package ident

import (
	"reflect"
	"strconv"
	"sync"
)

// DefaultPrefix is kept apart from the "ember<n>" ids that object
// strings such as "<App.PostView:ember195>" carry, so a registry id never
// equals one read from an object string.
const DefaultPrefix = "view"

// Default is the process-wide registry.
var Default = New(DefaultPrefix)

// ID returns the identifier of v in the Default registry.
func ID(v any) (string, bool) {
	return Default.ID(v)
}

type refKey struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// Registry assigns ids. The zero value uses no prefix.
type Registry struct {
	mu     sync.Mutex
	prefix string
	next   uint64
	ids    map[any]string
	// Maps and slices are keyed by address and retained so the address
	// stays live and cannot be handed to another object.
	pinned []any
}

func New(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		ids:    make(map[any]string),
	}
}

// ID returns the identifier for v, assigning one on first sight. It
// returns false for nil and for values that have neither a usable
// address nor comparable contents, funcs included.
func (r *Registry) ID(v any) (string, bool) {
	k, pin, ok := key(v)
	if !ok {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[k]; ok {
		return id, true
	}
	if r.ids == nil {
		r.ids = make(map[any]string)
	}
	r.next++
	id := r.prefix + strconv.FormatUint(r.next, 10)
	r.ids[k] = id
	if pin {
		r.pinned = append(r.pinned, v)
	}
	return id, true
}

// Len reports how many references have been assigned an id.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

func key(v any) (k any, pin bool, ok bool) {
	if v == nil {
		return nil, false, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return nil, false, false
		}
		return v, false, true
	case reflect.Map:
		if rv.IsNil() {
			return nil, false, false
		}
		return refKey{typ: rv.Type(), ptr: rv.Pointer()}, true, true
	case reflect.Slice:
		if rv.IsNil() {
			return nil, false, false
		}
		return refKey{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}, true, true
	}
	if !rv.Type().Comparable() || !hashable(rv) {
		return nil, false, false
	}
	return v, false, true
}

// hashable reports whether using rv as a map key is safe. Interface
// fields can hide uncomparable dynamic values that only fail at runtime.
func hashable(rv reflect.Value) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]struct{}{rv.Interface(): {}}
	return true
}
