// Package datamodel provides an in-memory data model that binding
// expressions read from and assign to.
//
// A Model implements [types.Binding]. Root variables hold scalars, nested
// maps and lists (as decoded from YAML), pointers to host variables, or
// read-only computed values. Every read can be tracked to learn what an
// expression depends on, and every write marks its root variable dirty so
// that the views depending on it are re-evaluated by Update.
//
// # Example
//
//	radius := 8.7
//	m := datamodel.New()
//	_ = m.Bind("radius", &radius)
//	expr, _ := parser.ParseAssignment("radius = 15", m, functions.NewRegistry())
//	_ = interpreter.ForExpression(expr, m).Run() // radius == 15
package datamodel

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/tevino/abool/v2"

	"github.com/sandrolain/dataexpr/pkg/types"
)

// Model is an in-memory data model.
//
// Model is not safe for concurrent use, with the exception of IsDirty,
// which may be polled from any goroutine.
type Model struct {
	vars     map[string]interface{}
	dirty    map[string]struct{}
	anyDirty *abool.AtomicBool
	tracking map[string]struct{}
	views    []*View
	logger   *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// New creates an empty model.
func New(opts ...Option) *Model {
	m := &Model{
		vars:     make(map[string]interface{}),
		dirty:    make(map[string]struct{}),
		anyDirty: abool.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// hostVariable is a root variable backed by host storage.
type hostVariable interface {
	get() types.Value
	set(v types.Value) bool
}

type float64Var struct{ p *float64 }

func (v float64Var) get() types.Value { return types.NewNumber(*v.p) }
func (v float64Var) set(x types.Value) bool {
	*v.p = x.ToNumber()
	return true
}

type float32Var struct{ p *float32 }

func (v float32Var) get() types.Value { return types.NewNumber(float64(*v.p)) }
func (v float32Var) set(x types.Value) bool {
	*v.p = float32(x.ToNumber())
	return true
}

type intVar struct{ p *int }

func (v intVar) get() types.Value { return types.NewNumber(float64(*v.p)) }
func (v intVar) set(x types.Value) bool {
	f := x.ToNumber()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	*v.p = int(math.Round(f))
	return true
}

type stringVar struct{ p *string }

func (v stringVar) get() types.Value { return types.NewString(*v.p) }
func (v stringVar) set(x types.Value) bool {
	*v.p = x.ToString()
	return true
}

type boolVar struct{ p *bool }

func (v boolVar) get() types.Value { return types.NewBool(*v.p) }
func (v boolVar) set(x types.Value) bool {
	*v.p = x.ToBool()
	return true
}

// funcVar is a read-only computed variable.
type funcVar struct{ fn func() types.Value }

func (v funcVar) get() types.Value     { return v.fn() }
func (v funcVar) set(types.Value) bool { return false }

// Bind binds a root variable to host storage. ptr must be a *float64,
// *float32, *int, *string or *bool.
func (m *Model) Bind(name string, ptr interface{}) error {
	var hv hostVariable
	switch p := ptr.(type) {
	case *float64:
		hv = float64Var{p}
	case *float32:
		hv = float32Var{p}
	case *int:
		hv = intVar{p}
	case *string:
		hv = stringVar{p}
	case *bool:
		hv = boolVar{p}
	default:
		return fmt.Errorf("datamodel: cannot bind %q to %T", name, ptr)
	}
	return m.define(name, hv)
}

// BindFunc binds a read-only root variable whose value is computed on
// every read. Assignments to it fail.
func (m *Model) BindFunc(name string, fn func() types.Value) error {
	if fn == nil {
		return fmt.Errorf("datamodel: nil getter for %q", name)
	}
	return m.define(name, funcVar{fn})
}

// Define adds a root variable holding a plain value: a scalar, a
// map[string]interface{} or a []interface{}.
func (m *Model) Define(name string, value interface{}) error {
	return m.define(name, value)
}

func (m *Model) define(name string, value interface{}) error {
	addr, err := types.ParseAddress(name)
	if err != nil || len(addr) != 1 {
		return fmt.Errorf("datamodel: invalid variable name %q", name)
	}
	if _, exists := m.vars[name]; exists {
		return fmt.Errorf("datamodel: variable %q already defined", name)
	}
	m.vars[name] = value
	return nil
}

// Variables returns the root variable names in sorted order.
func (m *Model) Variables() []string {
	names := make([]string, 0, len(m.vars))
	for name := range m.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve implements [types.Binding]. The name must lead to a scalar or a
// bound variable.
func (m *Model) Resolve(name string) (types.Address, error) {
	addr, err := types.ParseAddress(name)
	if err != nil {
		return nil, err
	}
	leaf, ok := m.lookup(addr)
	if !ok {
		return nil, fmt.Errorf("datamodel: no variable at %q", addr.String())
	}
	if !isScalar(leaf) {
		return nil, fmt.Errorf("datamodel: %q is not a scalar (%T)", addr.String(), leaf)
	}
	return addr, nil
}

// Get implements [types.Binding]. The read is recorded while Track runs.
func (m *Model) Get(addr types.Address) (types.Value, bool) {
	if len(addr) == 0 {
		return types.Value{}, false
	}
	if m.tracking != nil {
		m.tracking[addr.Root()] = struct{}{}
	}
	leaf, ok := m.lookup(addr)
	if !ok {
		return types.Value{}, false
	}
	return leafValue(leaf)
}

// Set implements [types.Binding]. A successful write marks the root
// variable dirty. Plain leaves keep their kind: a number stays a number.
func (m *Model) Set(addr types.Address, v types.Value) bool {
	if len(addr) == 0 {
		return false
	}
	root := addr.Root()
	cur, ok := m.vars[root]
	if !ok {
		return false
	}

	if len(addr) == 1 {
		if hv, isHost := cur.(hostVariable); isHost {
			if !hv.set(v) {
				return false
			}
		} else {
			nv, ok := coerceLike(cur, v)
			if !ok {
				return false
			}
			m.vars[root] = nv
		}
		m.DirtyVariable(root)
		return true
	}

	parent, ok := m.lookup(addr[:len(addr)-1])
	if !ok {
		return false
	}
	last := addr[len(addr)-1]
	switch c := parent.(type) {
	case map[string]interface{}:
		old, exists := c[last.Name]
		if last.Name == "" || !exists {
			return false
		}
		nv, ok := coerceLike(old, v)
		if !ok {
			return false
		}
		c[last.Name] = nv
	case []interface{}:
		if last.Name != "" || last.Index >= len(c) {
			return false
		}
		nv, ok := coerceLike(c[last.Index], v)
		if !ok {
			return false
		}
		c[last.Index] = nv
	default:
		return false
	}
	m.DirtyVariable(root)
	return true
}

// lookup walks addr from its root variable.
func (m *Model) lookup(addr types.Address) (interface{}, bool) {
	if len(addr) == 0 {
		return nil, false
	}
	cur, ok := m.vars[addr[0].Name]
	if !ok {
		return nil, false
	}
	for _, e := range addr[1:] {
		if e.Name != "" {
			obj, isMap := cur.(map[string]interface{})
			if !isMap {
				return nil, false
			}
			if cur, ok = obj[e.Name]; !ok {
				return nil, false
			}
			continue
		}
		list, isList := cur.([]interface{})
		if !isList || e.Index < 0 || e.Index >= len(list) {
			return nil, false
		}
		cur = list[e.Index]
	}
	return cur, true
}

// isScalar reports whether leaf can be read as a Value without reading
// host storage.
func isScalar(leaf interface{}) bool {
	if _, ok := leaf.(hostVariable); ok {
		return true
	}
	_, ok := types.FromNative(leaf)
	return ok
}

// leafValue converts a stored leaf into a Value.
func leafValue(leaf interface{}) (types.Value, bool) {
	if hv, ok := leaf.(hostVariable); ok {
		return hv.get(), true
	}
	return types.FromNative(leaf)
}

// coerceLike converts v to the Go kind of the value it replaces.
func coerceLike(old interface{}, v types.Value) (interface{}, bool) {
	switch old.(type) {
	case map[string]interface{}, []interface{}:
		return nil, false
	case string:
		return v.ToString(), true
	case bool:
		return v.ToBool(), true
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v.ToNumber(), true
	default:
		return v.Native(), true
	}
}

// Track runs fn and returns the sorted root variable names read through
// Get while it ran.
func (m *Model) Track(fn func()) []string {
	prev := m.tracking
	m.tracking = make(map[string]struct{})
	defer func() {
		reads := m.tracking
		m.tracking = prev
		for name := range reads {
			if prev != nil {
				prev[name] = struct{}{}
			}
		}
	}()

	fn()

	names := make([]string, 0, len(m.tracking))
	for name := range m.tracking {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DirtyVariable marks a root variable as changed.
func (m *Model) DirtyVariable(name string) {
	m.dirty[name] = struct{}{}
	m.anyDirty.Set()
}

// IsVariableDirty reports whether the root variable changed since the last
// ClearDirty.
func (m *Model) IsVariableDirty(name string) bool {
	_, ok := m.dirty[name]
	return ok
}

// IsDirty reports whether any variable changed since the last ClearDirty.
// It is safe to call from any goroutine.
func (m *Model) IsDirty() bool {
	return m.anyDirty.IsSet()
}

// DirtyVariables returns the changed root variable names in sorted order.
func (m *Model) DirtyVariables() []string {
	names := make([]string, 0, len(m.dirty))
	for name := range m.dirty {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearDirty forgets all changes.
func (m *Model) ClearDirty() {
	m.dirty = make(map[string]struct{})
	m.anyDirty.UnSet()
}
