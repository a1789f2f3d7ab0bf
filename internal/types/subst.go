package types

// Subst maps type-variable ids to types. Substitutions are built
// incrementally by unification and composed, never merged destructively.
type Subst map[int]Type

// Apply rewrites t under the substitution. A fully-applied substitution is
// idempotent: applying it to its own output is a no-op.
func (s Subst) Apply(t Type) Type {
	if len(s) == 0 {
		return t
	}

	switch tt := t.(type) {
	case *Var:
		if replacement, ok := s[tt.ID]; ok {
			// Chase chains so the result contains no mapped variables.
			return s.Apply(replacement)
		}
		return tt
	case *Fun:
		param := s.Apply(tt.Param)
		result := s.Apply(tt.Result)
		if param == tt.Param && result == tt.Result {
			return tt
		}
		return &Fun{Param: param, Result: result}
	default:
		return t
	}
}

// ApplyScheme rewrites the scheme body, leaving quantified variables
// untouched.
func (s Subst) ApplyScheme(scheme Scheme) Scheme {
	if len(s) == 0 || len(scheme.Vars) == 0 {
		return Scheme{Vars: scheme.Vars, Body: s.Apply(scheme.Body)}
	}

	// Quantified variables are bound; shadow them out of the substitution.
	trimmed := make(Subst, len(s))
	for id, t := range s {
		trimmed[id] = t
	}
	for _, v := range scheme.Vars {
		delete(trimmed, v)
	}
	return Scheme{Vars: scheme.Vars, Body: trimmed.Apply(scheme.Body)}
}

// Compose returns a substitution equivalent to applying other first and the
// receiver second: (s ∘ other)(t) == s.Apply(other.Apply(t)).
func (s Subst) Compose(other Subst) Subst {
	if len(other) == 0 {
		return s
	}
	if len(s) == 0 {
		return other
	}

	out := make(Subst, len(s)+len(other))
	for id, t := range other {
		out[id] = s.Apply(t)
	}
	for id, t := range s {
		if _, shadowed := out[id]; !shadowed {
			out[id] = t
		}
	}
	return out
}
