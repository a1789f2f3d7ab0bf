package types

import (
	"sort"
	"strconv"
	"strings"
)

// Type represents a type in the Cinder type system.
type Type interface {
	String() string
	// IsType is a marker method to ensure type safety.
	IsType()
}

// PrimitiveKind represents the kind of a primitive type.
type PrimitiveKind string

const (
	Int    PrimitiveKind = "int"
	Bool   PrimitiveKind = "bool"
	String PrimitiveKind = "string"
	Unit   PrimitiveKind = "unit"
)

// Primitive represents a primitive type.
type Primitive struct {
	Kind PrimitiveKind
}

func (p *Primitive) String() string { return string(p.Kind) }
func (p *Primitive) IsType()        {}

// Common primitive instances
var (
	TypeInt    = &Primitive{Kind: Int}
	TypeBool   = &Primitive{Kind: Bool}
	TypeString = &Primitive{Kind: String}
	TypeUnit   = &Primitive{Kind: Unit}
)

// Var represents a unification variable. IDs are unique within one
// inference run; the Inferencer owns the counter.
type Var struct {
	ID int
}

func (v *Var) String() string { return "t" + strconv.Itoa(v.ID) }
func (v *Var) IsType()        {}

// Fun represents a single-parameter function type. Multi-parameter
// functions are curried chains of Fun.
type Fun struct {
	Param  Type
	Result Type
}

func (f *Fun) String() string {
	param := f.Param.String()
	if _, nested := f.Param.(*Fun); nested {
		param = "(" + param + ")"
	}
	return param + " -> " + f.Result.String()
}
func (f *Fun) IsType() {}

// NewFun builds a curried function type from a parameter list. A function
// with no parameters takes unit.
func NewFun(params []Type, result Type) Type {
	if len(params) == 0 {
		return &Fun{Param: TypeUnit, Result: result}
	}
	t := result
	for i := len(params) - 1; i >= 0; i-- {
		t = &Fun{Param: params[i], Result: t}
	}
	return t
}

// Scheme represents a possibly-polymorphic type: a body quantified over a
// set of bound variable ids. An empty Vars slice is a monomorphic scheme.
type Scheme struct {
	Vars []int
	Body Type
}

// Mono wraps a type in a scheme with no quantified variables.
func Mono(t Type) Scheme {
	return Scheme{Body: t}
}

// Poly quantifies body over the given variable ids.
func Poly(vars []int, body Type) Scheme {
	sorted := append([]int(nil), vars...)
	sort.Ints(sorted)
	return Scheme{Vars: sorted, Body: body}
}

// IsPoly reports whether the scheme quantifies over any variables.
func (s Scheme) IsPoly() bool {
	return len(s.Vars) > 0
}

func (s Scheme) String() string {
	if !s.IsPoly() {
		return s.Body.String()
	}
	var b strings.Builder
	b.WriteString("forall")
	for _, v := range s.Vars {
		b.WriteString(" t")
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteString(". ")
	b.WriteString(s.Body.String())
	return b.String()
}

// Equal reports structural equality of two types.
func Equal(a, b Type) bool {
	switch ta := a.(type) {
	case *Primitive:
		tb, ok := b.(*Primitive)
		return ok && ta.Kind == tb.Kind
	case *Var:
		tb, ok := b.(*Var)
		return ok && ta.ID == tb.ID
	case *Fun:
		tb, ok := b.(*Fun)
		return ok && Equal(ta.Param, tb.Param) && Equal(ta.Result, tb.Result)
	}
	return false
}
