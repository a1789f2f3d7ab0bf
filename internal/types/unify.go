package types

import (
	"github.com/cinder-lang/cinder/internal/lexer"
)

// Unify computes the most general substitution making t1 and t2
// structurally equal. The span names the source site the unification was
// demanded by, for error reporting only.
func Unify(t1, t2 Type, span lexer.Span) (Subst, *Error) {
	switch a := t1.(type) {
	case *Primitive:
		if b, ok := t2.(*Primitive); ok && a.Kind == b.Kind {
			return Subst{}, nil
		}
		if _, ok := t2.(*Var); ok {
			return bindVar(t2.(*Var), t1, span)
		}
	case *Var:
		return bindVar(a, t2, span)
	case *Fun:
		if v, ok := t2.(*Var); ok {
			return bindVar(v, t1, span)
		}
		if b, ok := t2.(*Fun); ok {
			s1, err := Unify(a.Param, b.Param, span)
			if err != nil {
				return nil, err
			}
			s2, err := Unify(s1.Apply(a.Result), s1.Apply(b.Result), span)
			if err != nil {
				return nil, err
			}
			return s2.Compose(s1), nil
		}
	}

	return nil, &Error{
		Kind:    ErrTypeMismatch,
		Message: "type mismatch: cannot unify " + t1.String() + " with " + t2.String(),
		Span:    span,
	}
}

// bindVar maps a variable to a type after the occurs check. Binding a
// variable to itself is the identity substitution.
func bindVar(v *Var, t Type, span lexer.Span) (Subst, *Error) {
	if other, ok := t.(*Var); ok && other.ID == v.ID {
		return Subst{}, nil
	}

	if occursIn(v.ID, t) {
		return nil, &Error{
			Kind:    ErrOccursCheck,
			Message: "occurs check failed: " + v.String() + " would be infinite in " + t.String(),
			Span:    span,
		}
	}

	return Subst{v.ID: t}, nil
}

// occursIn reports whether variable id occurs anywhere inside t. Without
// this guard unification would happily construct an infinite type.
func occursIn(id int, t Type) bool {
	switch tt := t.(type) {
	case *Var:
		return tt.ID == id
	case *Fun:
		return occursIn(id, tt.Param) || occursIn(id, tt.Result)
	default:
		return false
	}
}
