// Package runtime materializes finished programs into live callables and
// executes their statement bodies over a chain of variable scopes.
package runtime

import (
	"github.com/jbvsmo/funcbuilder/pkg/types"
)

// Lookup resolves names that are not bound in any scope frame, such as
// builtins and previously deployed namespace entries.
type Lookup interface {
	Lookup(name string) (types.Value, bool)
}

// lookups tries each Lookup in order.
type lookups []Lookup

func (ls lookups) Lookup(name string) (types.Value, bool) {
	for _, l := range ls {
		if l == nil {
			continue
		}
		if v, ok := l.Lookup(name); ok {
			return v, true
		}
	}
	return types.Null, false
}

// Scope is one frame of the variable chain. Lookup walks from the current
// frame outward and falls back to the root's Lookup; assignment always
// binds in the current frame, never a parent.
type Scope struct {
	parent   *Scope
	vars     map[string]types.Value
	fallback Lookup // consulted at the root only
}

// NewScope creates a root scope with an optional fallback resolver.
func NewScope(fallback Lookup) *Scope {
	return &Scope{
		vars:     make(map[string]types.Value),
		fallback: fallback,
	}
}

// NewChild creates a child frame chained to this scope.
func (s *Scope) NewChild() *Scope {
	return &Scope{
		parent: s,
		vars:   make(map[string]types.Value),
	}
}

// Get retrieves a variable, searching up the scope chain and finally the
// root fallback. An unresolvable name is a NameError.
func (s *Scope) Get(name string) (types.Value, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, nil
		}
		if cur.parent == nil && cur.fallback != nil {
			if v, ok := cur.fallback.Lookup(name); ok {
				return v, nil
			}
		}
	}
	return types.Null, types.NewNameError(name)
}

// Set binds a variable in this frame. Outer bindings of the same name are
// shadowed, not updated.
func (s *Scope) Set(name string, value types.Value) {
	s.vars[name] = value
}

// Exists checks whether a name resolves in this scope or any parent.
func (s *Scope) Exists(name string) bool {
	_, err := s.Get(name)
	return err == nil
}

// GetVariable implements expr.Scope.
func (s *Scope) GetVariable(name string) (types.Value, error) {
	return s.Get(name)
}
