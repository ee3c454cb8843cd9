package reason

// Rule is head :- body, where body is an ordered list of patterns and
// conditions. Name is a stable catalog identifier; Profile tags
// which rule family the rule belongs to (catalog rules use rdfs or
// owl2rl).
type Rule struct {
	Name        string
	Profile     Profile
	Description string
	Head        Pattern
	Body        []BodyElement
}

// Profile names a rule family (GLOSSARY: rdfs, owl2rl, custom, none).
type Profile string

const (
	ProfileRDFS   Profile = "rdfs"
	ProfileOWL2RL Profile = "owl2rl"
	ProfileCustom Profile = "custom"
	ProfileNone   Profile = "none"
)

// BodyPatterns returns the Pattern elements of r.Body, in order.
func (r Rule) BodyPatterns() []Pattern {
	var out []Pattern
	for _, e := range r.Body {
		if e.IsPattern() {
			out = append(out, *e.Pattern)
		}
	}
	return out
}

// BodyConditions returns the Condition elements of r.Body, in order.
func (r Rule) BodyConditions() []Condition {
	var out []Condition
	for _, e := range r.Body {
		if e.IsCondition() {
			out = append(out, *e.Condition)
		}
	}
	return out
}

// Variables returns the distinct variable names appearing anywhere in
// the rule (head and body), first occurrence wins, head first.
func (r Rule) Variables() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(r.Head.Variables())
	for _, e := range r.Body {
		if e.IsPattern() {
			add(e.Pattern.Variables())
		} else if e.IsCondition() {
			add(e.Condition.Variables())
		}
	}
	return out
}

// HeadVariables returns the distinct variable names in r.Head.
func (r Rule) HeadVariables() []string {
	return r.Head.Variables()
}

// BodyVariables returns the distinct variable names appearing in any
// body pattern (conditions do not introduce bindings, only consume
// them, so they are excluded from the safety check's body-variable set).
func (r Rule) BodyVariables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.BodyPatterns() {
		for _, n := range p.Variables() {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// Safe reports whether every head variable also occurs in some body
// pattern.
func (r Rule) Safe() bool {
	bodyVars := make(map[string]bool)
	for _, n := range r.BodyVariables() {
		bodyVars[n] = true
	}
	for _, n := range r.HeadVariables() {
		if !bodyVars[n] {
			return false
		}
	}
	return true
}

// EvaluateCondition reports whether c holds under binding b.
func EvaluateCondition(c Condition, b Binding) bool {
	switch c.Kind {
	case CondNotEqual:
		return !substitute(c.Arg1, b).Equal(substitute(c.Arg2, b))
	case CondIsIRI:
		return isIRITerm(substitute(c.Arg1, b))
	case CondIsBlank:
		return isBlankTerm(substitute(c.Arg1, b))
	case CondIsLiteral:
		return isLiteralTerm(substitute(c.Arg1, b))
	case CondBound:
		_, ok := b.Get(c.Var.Name)
		return ok
	default:
		return false
	}
}

// EvaluateConditions reports whether every condition in r.Body holds
// under b.
func EvaluateConditions(r Rule, b Binding) bool {
	for _, c := range r.BodyConditions() {
		if !EvaluateCondition(c, b) {
			return false
		}
	}
	return true
}
