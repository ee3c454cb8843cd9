package reason

import "context"

// LookupFunc is the capability the delta/pattern matcher and the
// semi-naive engine are handed by their caller: given a
// pattern, return every matching triple from whichever fact set the
// caller has bound it to (explicit, derived, both, or a delta slice).
type LookupFunc func(ctx context.Context, pattern Pattern) ([]Triple, error)

// MatchesTerm reports whether a ground term value matches a pattern
// position: a Variable position always matches (binding is the
// caller's job); a constant position matches iff it is equal to value.
func MatchesTerm(patternTerm Term, value Term) bool {
	if patternTerm.IsVar() {
		return true
	}
	return patternTerm.Equal(value)
}

// MatchesTriple reports whether t matches p structurally, ignoring
// variable bindings (a pure positional check, used by FilterMatching
// and by the lookup overlays in engine.go and incremental.go).
func MatchesTriple(p Pattern, t Triple) bool {
	return MatchesTerm(p.Subject, t.Subject) &&
		MatchesTerm(p.Predicate, t.Predicate) &&
		MatchesTerm(p.Object, t.Object)
}

// FilterMatching returns the subset of triples that match p
// structurally.
func FilterMatching(p Pattern, triples []Triple) []Triple {
	out := make([]Triple, 0, len(triples))
	for _, t := range triples {
		if MatchesTriple(p, t) {
			out = append(out, t)
		}
	}
	return out
}

// unifyPosition extends binding b so that pattern position pt matches
// value, position-wise: a Variable position binds-or-checks; a
// constant position requires exact equality. Returns ok=false on
// conflict.
func unifyPosition(pt Term, value Term, b Binding) (Binding, bool) {
	if v, ok := pt.(Variable); ok {
		return b.Extend(v.Name, value)
	}
	if !pt.Equal(value) {
		return b, false
	}
	return b, true
}

// unifyTriple extends b against a single ground triple matching
// pattern p, position by position, short-circuiting on the first
// conflict.
func unifyTriple(p Pattern, t Triple, b Binding) (Binding, bool) {
	b, ok := unifyPosition(p.Subject, t.Subject, b)
	if !ok {
		return b, false
	}
	b, ok = unifyPosition(p.Predicate, t.Predicate, b)
	if !ok {
		return b, false
	}
	b, ok = unifyPosition(p.Object, t.Object, b)
	if !ok {
		return b, false
	}
	return b, true
}

// extendBindings matches pattern p against every triple in candidates,
// for every binding already in bindings, producing the cross product of
// successful extensions. This is the per-body-pattern step of the
// delta join.
func extendBindings(p Pattern, candidates []Triple, bindings []Binding) []Binding {
	out := make([]Binding, 0, len(bindings)*2)
	for _, b := range bindings {
		for _, t := range candidates {
			if nb, ok := unifyTriple(p, t, b); ok {
				out = append(out, nb)
			}
		}
	}
	return out
}

// ApplyRuleDelta computes the set of new head-ground triples
// obtainable by matches in which at least one body pattern matches a
// triple in delta (semi-naive incrementality), the other body patterns
// matching against all_existing via lookupFn (lookupFn is scoped by the
// caller to search exactly the all_existing set for this iteration).
// The caller (engine.go) is responsible for subtracting triples already
// present in all_existing from the result.
func ApplyRuleDelta(ctx context.Context, lookupFn LookupFunc, r Rule, delta []Triple) ([]Triple, error) {
	if r.Name == "eq-ref" {
		// eq-ref is catalog-only; never executed.
		return nil, nil
	}
	bodyPatterns := r.BodyPatterns()
	if len(bodyPatterns) == 0 {
		return nil, nil
	}

	results := make(map[string]Triple)

	for deltaIdx := range bodyPatterns {
		bindings := []Binding{NewBinding()}
		for j, p := range bodyPatterns {
			if len(bindings) == 0 {
				break
			}
			var candidates []Triple
			var err error
			if j == deltaIdx {
				candidates = FilterMatching(p, delta)
			} else {
				candidates, err = lookupFn(ctx, p)
				if err != nil {
					return nil, wrapBackendError(err)
				}
			}
			bindings = extendBindings(p, candidates, bindings)
		}

		for _, b := range bindings {
			if !EvaluateConditions(r, b) {
				continue
			}
			head := substitutePattern(r.Head, b)
			if !head.Ground() {
				// Safety invariant guarantees this cannot happen for
				// a well-formed rule; skip defensively rather than panic.
				continue
			}
			t := NewTriple(head.Subject, head.Predicate, head.Object)
			results[t.String()] = t
		}
	}

	out := make([]Triple, 0, len(results))
	for _, t := range results {
		out = append(out, t)
	}
	return out, nil
}
