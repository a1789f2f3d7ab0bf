package types

import (
	set "github.com/hashicorp/go-set/v2"
)

// Env is a persistent association from variable name to Scheme. Binding
// prepends a new frame and never mutates an existing one, which gives
// correct lexical shadowing and cheap environment forking for nested
// scopes. A nil *Env is the empty environment.
type Env struct {
	name   string
	scheme Scheme
	parent *Env
}

// EmptyEnv returns the empty environment.
func EmptyEnv() *Env {
	return nil
}

// Extend returns a new environment with name bound to scheme. The receiver
// is unchanged.
func (e *Env) Extend(name string, scheme Scheme) *Env {
	return &Env{
		name:   name,
		scheme: scheme,
		parent: e,
	}
}

// Lookup finds the innermost binding for name. Lookup is O(depth), which is
// acceptable because compiler scopes stay shallow.
func (e *Env) Lookup(name string) (Scheme, bool) {
	for frame := e; frame != nil; frame = frame.parent {
		if frame.name == name {
			return frame.scheme, true
		}
	}
	return Scheme{}, false
}

// apply rewrites every scheme in the environment under s, returning a fresh
// environment. Frames are rebuilt outermost-last so sharing is preserved
// where nothing changed.
func (e *Env) apply(s Subst) *Env {
	if e == nil || len(s) == 0 {
		return e
	}
	return &Env{
		name:   e.name,
		scheme: s.ApplyScheme(e.scheme),
		parent: e.parent.apply(s),
	}
}

// freeVars collects the type variables free in any scheme of the
// environment: variables appearing in a scheme body minus that scheme's
// bound variables.
func (e *Env) freeVars() *set.Set[int] {
	free := set.New[int](0)
	for frame := e; frame != nil; frame = frame.parent {
		schemeFree := freeTypeVars(frame.scheme.Body)
		bound := set.From(frame.scheme.Vars)
		for _, id := range schemeFree.Slice() {
			if !bound.Contains(id) {
				free.Insert(id)
			}
		}
	}
	return free
}

// freeTypeVars collects the variable ids occurring in t.
func freeTypeVars(t Type) *set.Set[int] {
	free := set.New[int](0)
	collectFreeVars(t, free)
	return free
}

func collectFreeVars(t Type, acc *set.Set[int]) {
	switch tt := t.(type) {
	case *Var:
		acc.Insert(tt.ID)
	case *Fun:
		collectFreeVars(tt.Param, acc)
		collectFreeVars(tt.Result, acc)
	}
}
