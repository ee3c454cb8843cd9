package reason

// Canonical vocabulary IRIs used by the fixed rule bodies. Kept as typed IRI constants so callers can
// compare directly against schema-extraction results.
const (
	RDFType            IRI = "rdf:type"
	RDFSSubClassOf     IRI = "rdfs:subClassOf"
	RDFSSubPropertyOf  IRI = "rdfs:subPropertyOf"
	RDFSDomain         IRI = "rdfs:domain"
	RDFSRange          IRI = "rdfs:range"
	OWLSameAs          IRI = "owl:sameAs"
	OWLInverseOf       IRI = "owl:inverseOf"
	OWLTransitiveProp  IRI = "owl:TransitiveProperty"
	OWLSymmetricProp   IRI = "owl:SymmetricProperty"
	OWLFunctionalProp  IRI = "owl:FunctionalProperty"
	OWLInverseFuncProp IRI = "owl:InverseFunctionalProperty"
	OWLHasValue        IRI = "owl:hasValue"
	OWLOnProperty      IRI = "owl:onProperty"
	OWLSomeValuesFrom  IRI = "owl:someValuesFrom"
	OWLAllValuesFrom   IRI = "owl:allValuesFrom"
	OWLThing           IRI = "owl:Thing"
)

// propertyCharacteristicClasses is the set of the four characteristic
// class IRIs the TBox-update detection must recognize as
// rdf:type objects.
var propertyCharacteristicClasses = map[IRI]bool{
	OWLTransitiveProp:  true,
	OWLSymmetricProp:   true,
	OWLFunctionalProp:  true,
	OWLInverseFuncProp: true,
}

// tboxPredicates is the set of predicates that make a triple
// TBox-modifying on their own, independent of object.
var tboxPredicates = map[IRI]bool{
	RDFSSubClassOf:    true,
	RDFSSubPropertyOf: true,
	OWLInverseOf:      true,
	RDFSDomain:        true,
	RDFSRange:         true,
}

// specializationSpec describes how a generic property-characteristic or
// inverse-property rule is turned into a specialized, property-bound
// rule: which body element is the type-declaration (or
// inverseOf) pattern to drop, and which variable name(s) are replaced by
// a concrete property IRI.
type specializationSpec struct {
	dropIndex int
	propVars  []string
}

// rules catalog: one constructor per stable rule name. Each
// returns a fresh Rule value; rules are otherwise stateless data so
// callers may freely copy and mutate (e.g. during specialization)
// without synchronization.

func ruleSCMSCO() Rule {
	c1, c2, c3 := Var("c1"), Var("c2"), Var("c3")
	return Rule{
		Name: "scm-sco", Profile: ProfileRDFS,
		Description: "subClassOf is transitive",
		Head:        NewPattern(c1, RDFSSubClassOf, c3),
		Body: []BodyElement{
			PatternElem(NewPattern(c1, RDFSSubClassOf, c2)),
			PatternElem(NewPattern(c2, RDFSSubClassOf, c3)),
		},
	}
}

func ruleSCMSPO() Rule {
	p1, p2, p3 := Var("p1"), Var("p2"), Var("p3")
	return Rule{
		Name: "scm-spo", Profile: ProfileRDFS,
		Description: "subPropertyOf is transitive",
		Head:        NewPattern(p1, RDFSSubPropertyOf, p3),
		Body: []BodyElement{
			PatternElem(NewPattern(p1, RDFSSubPropertyOf, p2)),
			PatternElem(NewPattern(p2, RDFSSubPropertyOf, p3)),
		},
	}
}

func ruleCAXSCO() Rule {
	x, c1, c2 := Var("x"), Var("c1"), Var("c2")
	return Rule{
		Name: "cax-sco", Profile: ProfileRDFS,
		Description: "instances of a subclass are instances of the superclass",
		Head:        NewPattern(x, RDFType, c2),
		Body: []BodyElement{
			PatternElem(NewPattern(x, RDFType, c1)),
			PatternElem(NewPattern(c1, RDFSSubClassOf, c2)),
		},
	}
}

func rulePRPSPO1() Rule {
	p1, p2, x, y := Var("p1"), Var("p2"), Var("x"), Var("y")
	return Rule{
		Name: "prp-spo1", Profile: ProfileRDFS,
		Description: "subproperty triples entail superproperty triples",
		Head:        NewPattern(x, p2, y),
		Body: []BodyElement{
			PatternElem(NewPattern(p1, RDFSSubPropertyOf, p2)),
			PatternElem(NewPattern(x, p1, y)),
		},
	}
}

func rulePRPDOM() Rule {
	p, c, x, y := Var("p"), Var("c"), Var("x"), Var("y")
	return Rule{
		Name: "prp-dom", Profile: ProfileRDFS,
		Description: "a property's domain typing applies to its subjects",
		Head:        NewPattern(x, RDFType, c),
		Body: []BodyElement{
			PatternElem(NewPattern(p, RDFSDomain, c)),
			PatternElem(NewPattern(x, p, y)),
		},
	}
}

func rulePRPRNG() Rule {
	p, c, x, y := Var("p"), Var("c"), Var("x"), Var("y")
	return Rule{
		Name: "prp-rng", Profile: ProfileRDFS,
		Description: "a property's range typing applies to its objects",
		Head:        NewPattern(y, RDFType, c),
		Body: []BodyElement{
			PatternElem(NewPattern(p, RDFSRange, c)),
			PatternElem(NewPattern(x, p, y)),
		},
	}
}

func rulePRPTRP() Rule {
	p, x, y, z := Var("p"), Var("x"), Var("y"), Var("z")
	return Rule{
		Name: "prp-trp", Profile: ProfileOWL2RL,
		Description: "transitive properties compose",
		Head:        NewPattern(x, p, z),
		Body: []BodyElement{
			PatternElem(NewPattern(p, RDFType, OWLTransitiveProp)),
			PatternElem(NewPattern(x, p, y)),
			PatternElem(NewPattern(y, p, z)),
		},
	}
}

func rulePRPSYMP() Rule {
	p, x, y := Var("p"), Var("x"), Var("y")
	return Rule{
		Name: "prp-symp", Profile: ProfileOWL2RL,
		Description: "symmetric properties hold in both directions",
		Head:        NewPattern(y, p, x),
		Body: []BodyElement{
			PatternElem(NewPattern(p, RDFType, OWLSymmetricProp)),
			PatternElem(NewPattern(x, p, y)),
		},
	}
}

func rulePRPINV1() Rule {
	p1, p2, x, y := Var("p1"), Var("p2"), Var("x"), Var("y")
	return Rule{
		Name: "prp-inv1", Profile: ProfileOWL2RL,
		Description: "inverseOf propagates forward",
		Head:        NewPattern(y, p2, x),
		Body: []BodyElement{
			PatternElem(NewPattern(p1, OWLInverseOf, p2)),
			PatternElem(NewPattern(x, p1, y)),
		},
	}
}

func rulePRPINV2() Rule {
	p1, p2, x, y := Var("p1"), Var("p2"), Var("x"), Var("y")
	return Rule{
		Name: "prp-inv2", Profile: ProfileOWL2RL,
		Description: "inverseOf propagates backward",
		Head:        NewPattern(y, p1, x),
		Body: []BodyElement{
			PatternElem(NewPattern(p1, OWLInverseOf, p2)),
			PatternElem(NewPattern(x, p2, y)),
		},
	}
}

func rulePRPFP() Rule {
	p, x, y1, y2 := Var("p"), Var("x"), Var("y1"), Var("y2")
	return Rule{
		Name: "prp-fp", Profile: ProfileOWL2RL,
		Description: "functional properties identify their values",
		Head:        NewPattern(y1, OWLSameAs, y2),
		Body: []BodyElement{
			PatternElem(NewPattern(p, RDFType, OWLFunctionalProp)),
			PatternElem(NewPattern(x, p, y1)),
			PatternElem(NewPattern(x, p, y2)),
			ConditionElem(NotEqual(y1, y2)),
		},
	}
}

func rulePRPIFP() Rule {
	p, x1, x2, y := Var("p"), Var("x1"), Var("x2"), Var("y")
	return Rule{
		Name: "prp-ifp", Profile: ProfileOWL2RL,
		Description: "inverse-functional properties identify their subjects",
		Head:        NewPattern(x1, OWLSameAs, x2),
		Body: []BodyElement{
			PatternElem(NewPattern(p, RDFType, OWLInverseFuncProp)),
			PatternElem(NewPattern(x1, p, y)),
			PatternElem(NewPattern(x2, p, y)),
			ConditionElem(NotEqual(x1, x2)),
		},
	}
}

// ruleEQREF is present in the catalog purely for enumeration: its body matches any triple, which is why it
// must never be compiled into a runnable rule. compiler.go's
// applicability filter always keeps it (so it is visible in
// introspection) but optimizer.go's dead-rule/materialization path
// never receives it, and engine.go never executes it.
func ruleEQREF() Rule {
	s, p, o := Var("s"), Var("p"), Var("o")
	return Rule{
		Name: "eq-ref", Profile: ProfileOWL2RL,
		Description: "reflexive sameAs (placeholder only, never materialized)",
		Head:        NewPattern(s, OWLSameAs, s),
		Body: []BodyElement{
			PatternElem(NewPattern(s, p, o)),
		},
	}
}

func ruleEQSYM() Rule {
	x, y := Var("x"), Var("y")
	return Rule{
		Name: "eq-sym", Profile: ProfileOWL2RL,
		Description: "sameAs is symmetric",
		Head:        NewPattern(y, OWLSameAs, x),
		Body:        []BodyElement{PatternElem(NewPattern(x, OWLSameAs, y))},
	}
}

func ruleEQTRANS() Rule {
	x, y, z := Var("x"), Var("y"), Var("z")
	return Rule{
		Name: "eq-trans", Profile: ProfileOWL2RL,
		Description: "sameAs is transitive",
		Head:        NewPattern(x, OWLSameAs, z),
		Body: []BodyElement{
			PatternElem(NewPattern(x, OWLSameAs, y)),
			PatternElem(NewPattern(y, OWLSameAs, z)),
		},
	}
}

func ruleEQREPS() Rule {
	s, s2, p, o := Var("s"), Var("s2"), Var("p"), Var("o")
	return Rule{
		Name: "eq-rep-s", Profile: ProfileOWL2RL,
		Description: "sameAs substitutes in subject position",
		Head:        NewPattern(s2, p, o),
		Body: []BodyElement{
			PatternElem(NewPattern(s, OWLSameAs, s2)),
			PatternElem(NewPattern(s, p, o)),
		},
	}
}

func ruleEQREPP() Rule {
	s, p, p2, o := Var("s"), Var("p"), Var("p2"), Var("o")
	return Rule{
		Name: "eq-rep-p", Profile: ProfileOWL2RL,
		Description: "sameAs substitutes in predicate position",
		Head:        NewPattern(s, p2, o),
		Body: []BodyElement{
			PatternElem(NewPattern(p, OWLSameAs, p2)),
			PatternElem(NewPattern(s, p, o)),
		},
	}
}

func ruleEQREPO() Rule {
	s, p, o, o2 := Var("s"), Var("p"), Var("o"), Var("o2")
	return Rule{
		Name: "eq-rep-o", Profile: ProfileOWL2RL,
		Description: "sameAs substitutes in object position",
		Head:        NewPattern(s, p, o2),
		Body: []BodyElement{
			PatternElem(NewPattern(o, OWLSameAs, o2)),
			PatternElem(NewPattern(s, p, o)),
		},
	}
}

func ruleCLSHV1() Rule {
	c, y, p, x := Var("c"), Var("y"), Var("p"), Var("x")
	return Rule{
		Name: "cls-hv1", Profile: ProfileOWL2RL,
		Description: "hasValue restriction entails membership",
		Head:        NewPattern(x, RDFType, c),
		Body: []BodyElement{
			PatternElem(NewPattern(c, OWLHasValue, y)),
			PatternElem(NewPattern(c, OWLOnProperty, p)),
			PatternElem(NewPattern(x, p, y)),
		},
	}
}

func ruleCLSHV2() Rule {
	c, y, p, x := Var("c"), Var("y"), Var("p"), Var("x")
	return Rule{
		Name: "cls-hv2", Profile: ProfileOWL2RL,
		Description: "membership in a hasValue restriction entails the value triple",
		Head:        NewPattern(x, p, y),
		Body: []BodyElement{
			PatternElem(NewPattern(c, OWLHasValue, y)),
			PatternElem(NewPattern(c, OWLOnProperty, p)),
			PatternElem(NewPattern(x, RDFType, c)),
		},
	}
}

func ruleCLSSVF1() Rule {
	x, y, p, u, v := Var("x"), Var("y"), Var("p"), Var("u"), Var("v")
	return Rule{
		Name: "cls-svf1", Profile: ProfileOWL2RL,
		Description: "someValuesFrom restriction entails membership",
		Head:        NewPattern(u, RDFType, x),
		Body: []BodyElement{
			PatternElem(NewPattern(x, OWLSomeValuesFrom, y)),
			PatternElem(NewPattern(x, OWLOnProperty, p)),
			PatternElem(NewPattern(u, p, v)),
			PatternElem(NewPattern(v, RDFType, y)),
		},
	}
}

func ruleCLSSVF2() Rule {
	x, p, u, v := Var("x"), Var("p"), Var("u"), Var("v")
	return Rule{
		Name: "cls-svf2", Profile: ProfileOWL2RL,
		Description: "someValuesFrom owl:Thing restriction entails membership",
		Head:        NewPattern(u, RDFType, x),
		Body: []BodyElement{
			PatternElem(NewPattern(x, OWLSomeValuesFrom, OWLThing)),
			PatternElem(NewPattern(x, OWLOnProperty, p)),
			PatternElem(NewPattern(u, p, v)),
		},
	}
}

func ruleCLSAVF() Rule {
	x, y, p, u, v := Var("x"), Var("y"), Var("p"), Var("u"), Var("v")
	return Rule{
		Name: "cls-avf", Profile: ProfileOWL2RL,
		Description: "allValuesFrom restriction propagates the filler class",
		Head:        NewPattern(v, RDFType, y),
		Body: []BodyElement{
			PatternElem(NewPattern(x, OWLAllValuesFrom, y)),
			PatternElem(NewPattern(x, OWLOnProperty, p)),
			PatternElem(NewPattern(u, RDFType, x)),
			PatternElem(NewPattern(u, p, v)),
		},
	}
}

// catalogEntry pairs a rule constructor with its specialization spec
// (nil if the rule is never specialized).
type catalogEntry struct {
	build func() Rule
	spec  *specializationSpec
}

// catalog is the fixed table of every known rule name, in a
// stable order used as the tie-break for optimizer.go's reordering.
var catalog = []catalogEntry{
	{build: ruleSCMSCO},
	{build: ruleSCMSPO},
	{build: ruleCAXSCO},
	{build: rulePRPSPO1},
	{build: rulePRPDOM},
	{build: rulePRPRNG},
	{build: rulePRPTRP, spec: &specializationSpec{dropIndex: 0, propVars: []string{"p"}}},
	{build: rulePRPSYMP, spec: &specializationSpec{dropIndex: 0, propVars: []string{"p"}}},
	{build: rulePRPINV1, spec: &specializationSpec{dropIndex: 0, propVars: []string{"p1", "p2"}}},
	{build: rulePRPINV2, spec: &specializationSpec{dropIndex: 0, propVars: []string{"p1", "p2"}}},
	{build: rulePRPFP, spec: &specializationSpec{dropIndex: 0, propVars: []string{"p"}}},
	{build: rulePRPIFP, spec: &specializationSpec{dropIndex: 0, propVars: []string{"p"}}},
	{build: ruleEQREF},
	{build: ruleEQSYM},
	{build: ruleEQTRANS},
	{build: ruleEQREPS},
	{build: ruleEQREPP},
	{build: ruleEQREPO},
	{build: ruleCLSHV1},
	{build: ruleCLSHV2},
	{build: ruleCLSSVF1},
	{build: ruleCLSSVF2},
	{build: ruleCLSAVF},
}

// catalogIndex maps a rule name to its catalog entry for O(1) lookup.
var catalogIndex = func() map[string]catalogEntry {
	m := make(map[string]catalogEntry, len(catalog))
	for _, e := range catalog {
		m[e.build().Name] = e
	}
	return m
}()

// CatalogRule looks up a fixed rule by stable name.
func CatalogRule(name string) (Rule, error) {
	e, ok := catalogIndex[name]
	if !ok {
		return Rule{}, newError(ErrUnknownRule, "catalog: unknown rule %q", name)
	}
	return e.build(), nil
}

// CatalogRuleNames returns every stable rule name the catalog defines,
// in catalog order.
func CatalogRuleNames() []string {
	out := make([]string, len(catalog))
	for i, e := range catalog {
		out[i] = e.build().Name
	}
	return out
}

// ProfileRuleNames returns the rule names belonging to profile.
func ProfileRuleNames(p Profile) []string {
	var out []string
	for _, e := range catalog {
		r := e.build()
		if r.Profile == p {
			out = append(out, r.Name)
		}
	}
	return out
}
