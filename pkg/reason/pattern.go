package reason

import "fmt"

// Triple is an ordered (subject, predicate, object) tuple of ground terms.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewTriple constructs a ground triple.
func NewTriple(s, p, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

func (t Triple) String() string {
	return fmt.Sprintf("(%s %s %s)", t.Subject, t.Predicate, t.Object)
}

// Equal reports whether two triples denote the same fact.
func (t Triple) Equal(o Triple) bool {
	return t.Subject.Equal(o.Subject) && t.Predicate.Equal(o.Predicate) && t.Object.Equal(o.Object)
}

// Ground reports whether no position of t is a Variable.
func (t Triple) Ground() bool {
	return !t.Subject.IsVar() && !t.Predicate.IsVar() && !t.Object.IsVar()
}

// Pattern is a triple whose positions may each be a Variable or a
// constant Term. Shared variable names across patterns in a rule body
// express joins.
type Pattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewPattern constructs a pattern.
func NewPattern(s, p, o Term) Pattern {
	return Pattern{Subject: s, Predicate: p, Object: o}
}

func (p Pattern) String() string {
	return fmt.Sprintf("(%s %s %s)", p.Subject, p.Predicate, p.Object)
}

// Ground reports whether p has no Variable position.
func (p Pattern) Ground() bool {
	return !p.Subject.IsVar() && !p.Predicate.IsVar() && !p.Object.IsVar()
}

// Variables returns the distinct variable names appearing in p, in
// subject/predicate/object order, first occurrence wins.
func (p Pattern) Variables() []string {
	var out []string
	seen := make(map[string]bool, 3)
	for _, t := range []Term{p.Subject, p.Predicate, p.Object} {
		if v, ok := t.(Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v.Name)
		}
	}
	return out
}

// ConditionKind enumerates the condition forms. Conditions depend only
// on bindings, never on the database.
type ConditionKind int

const (
	// CondNotEqual holds iff the two substituted terms are unequal.
	CondNotEqual ConditionKind = iota
	// CondIsIRI holds iff the substituted term is an IRI.
	CondIsIRI
	// CondIsBlank holds iff the substituted term is a blank node.
	CondIsBlank
	// CondIsLiteral holds iff the substituted term is any literal kind.
	CondIsLiteral
	// CondBound holds iff Var appears in the binding map.
	CondBound
)

// Condition is a filter evaluated against a Binding. For CondNotEqual,
// Arg1/Arg2 are used; for the unary is_* and bound conditions, only Arg1
// (or Var for CondBound) is used.
type Condition struct {
	Kind ConditionKind
	Arg1 Term
	Arg2 Term
	// Var is used only by CondBound, where bound-ness rather than value
	// is being tested (a Variable may be unbound and thus absent from
	// the binding map entirely).
	Var Variable
}

// NotEqual builds a not_equal(t1, t2) condition.
func NotEqual(t1, t2 Term) Condition { return Condition{Kind: CondNotEqual, Arg1: t1, Arg2: t2} }

// IsIRI builds an is_iri(t) condition.
func IsIRI(t Term) Condition { return Condition{Kind: CondIsIRI, Arg1: t} }

// IsBlank builds an is_blank(t) condition.
func IsBlank(t Term) Condition { return Condition{Kind: CondIsBlank, Arg1: t} }

// IsLiteral builds an is_literal(t) condition.
func IsLiteral(t Term) Condition { return Condition{Kind: CondIsLiteral, Arg1: t} }

// Bound builds a bound(var) condition.
func Bound(v Variable) Condition { return Condition{Kind: CondBound, Var: v} }

func (c Condition) String() string {
	switch c.Kind {
	case CondNotEqual:
		return fmt.Sprintf("not_equal(%s, %s)", c.Arg1, c.Arg2)
	case CondIsIRI:
		return fmt.Sprintf("is_iri(%s)", c.Arg1)
	case CondIsBlank:
		return fmt.Sprintf("is_blank(%s)", c.Arg1)
	case CondIsLiteral:
		return fmt.Sprintf("is_literal(%s)", c.Arg1)
	case CondBound:
		return fmt.Sprintf("bound(%s)", c.Var)
	default:
		return "unknown_condition"
	}
}

// Variables returns the distinct variable names a condition depends on.
func (c Condition) Variables() []string {
	var out []string
	add := func(t Term) {
		if v, ok := t.(Variable); ok {
			out = append(out, v.Name)
		}
	}
	switch c.Kind {
	case CondNotEqual:
		add(c.Arg1)
		add(c.Arg2)
	case CondIsIRI, CondIsBlank, CondIsLiteral:
		add(c.Arg1)
	case CondBound:
		out = append(out, c.Var.Name)
	}
	return out
}

// BodyElement is a single element of a rule body: either a Pattern or a
// Condition, as an explicit sum type with a Pattern variant and a
// Condition variant; callers type-switch on it.
type BodyElement struct {
	Pattern   *Pattern
	Condition *Condition
}

// PatternElem wraps a pattern as a body element.
func PatternElem(p Pattern) BodyElement { return BodyElement{Pattern: &p} }

// ConditionElem wraps a condition as a body element.
func ConditionElem(c Condition) BodyElement { return BodyElement{Condition: &c} }

// IsPattern reports whether the element is a pattern.
func (e BodyElement) IsPattern() bool { return e.Pattern != nil }

// IsCondition reports whether the element is a condition.
func (e BodyElement) IsCondition() bool { return e.Condition != nil }

func (e BodyElement) String() string {
	if e.IsPattern() {
		return e.Pattern.String()
	}
	if e.IsCondition() {
		return e.Condition.String()
	}
	return "<empty body element>"
}
