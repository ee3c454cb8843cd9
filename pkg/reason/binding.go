package reason

// Binding maps rule variable names to constant terms. A zero-value
// Binding is not usable; construct with NewBinding.
type Binding map[string]Term

// NewBinding returns an empty binding.
func NewBinding() Binding {
	return make(Binding)
}

// Clone returns a shallow copy of b (terms are immutable values, so a
// shallow copy of the map is a full logical copy).
func (b Binding) Clone() Binding {
	out := make(Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Get returns the term bound to name, and whether it was present.
func (b Binding) Get(name string) (Term, bool) {
	t, ok := b[name]
	return t, ok
}

// Consistent reports whether b and other agree on every variable bound
// in both.
func (b Binding) Consistent(other Binding) bool {
	for k, v := range other {
		if existing, ok := b[k]; ok && !existing.Equal(v) {
			return false
		}
	}
	return true
}

// Extend returns the unique extension of b that additionally binds name
// to value. If name is already bound to an unequal value, extension
// fails (ok=false) and b is returned unmodified; if it is already bound
// to an equal value, b is returned unmodified with ok=true. Extend never
// mutates b.
func (b Binding) Extend(name string, value Term) (Binding, bool) {
	if existing, ok := b[name]; ok {
		if !existing.Equal(value) {
			return b, false
		}
		return b, true
	}
	out := b.Clone()
	out[name] = value
	return out, true
}

// Merge returns the unique consistent union of b and other, or ok=false
// if they disagree on some shared variable.
func (b Binding) Merge(other Binding) (Binding, bool) {
	if !b.Consistent(other) {
		return nil, false
	}
	out := b.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out, true
}

// substitute replaces a Variable term by its bound value in b, leaving
// any other term (including an unbound Variable) unchanged.
func substitute(t Term, b Binding) Term {
	if v, ok := t.(Variable); ok {
		if bound, ok := b.Get(v.Name); ok {
			return bound
		}
	}
	return t
}

// substitutePattern applies substitute position-wise.
func substitutePattern(p Pattern, b Binding) Pattern {
	return Pattern{
		Subject:   substitute(p.Subject, b),
		Predicate: substitute(p.Predicate, b),
		Object:    substitute(p.Object, b),
	}
}

// Substitute is the exported form of substitute (substitute(term, bindings)).
func Substitute(t Term, b Binding) Term { return substitute(t, b) }

// SubstitutePattern is the exported form of substitutePattern.
func SubstitutePattern(p Pattern, b Binding) Pattern { return substitutePattern(p, b) }

// groundPattern reports whether p has no unbound-variable position.
// ground?(pattern): a pattern
// that still contains a bare Variable (not yet substituted) is not
// ground.
func groundPattern(p Pattern) bool {
	return p.Ground()
}

// Ground is the exported form of groundPattern.
func Ground(p Pattern) bool { return groundPattern(p) }
