package reason

import (
	"context"
	"sort"
)

// defaultTBoxMaxIterations caps the class/property hierarchy transitive
// closure at the same 1000-iteration ceiling the materialization
// engine uses, so a pathologically deep ontology fails loudly. A cycle
// converges on its own: transitiveClose never adds a self-edge or the
// same edge twice.
const defaultTBoxMaxIterations = 1000

// defaultTBoxMaxProperties bounds the subClassOf/subPropertyOf/inverseOf
// enumerations feeding closure computation.
const defaultTBoxMaxProperties = 10000

// TBox is the cached class and property hierarchy: the
// transitive closure of rdfs:subClassOf and rdfs:subPropertyOf, plus a
// single-pass extraction of property characteristics and declared
// inverses. It implements registry.go's Snapshot interface so it can be
// published into a process-wide Registry alongside compiled rule sets.
type TBox struct {
	Version string
	Stats   TBoxStats

	classSuper map[IRI]map[IRI]bool
	classSub   map[IRI]map[IRI]bool
	propSuper  map[IRI]map[IRI]bool
	propSub    map[IRI]map[IRI]bool

	transitive        map[IRI]bool
	symmetric         map[IRI]bool
	functional        map[IRI]bool
	inverseFunctional map[IRI]bool
	inverseOf         map[IRI]IRI
}

func (t *TBox) SnapshotVersion() string { return t.Version }

// TBoxStats summarizes a built hierarchy snapshot.
type TBoxStats struct {
	ClassCount             int
	PropertyCount          int
	TransitiveCount        int
	SymmetricCount         int
	FunctionalCount        int
	InverseFunctionalCount int
	InversePairCount       int
}

func newEmptyTBox() *TBox {
	return &TBox{
		classSuper:        make(map[IRI]map[IRI]bool),
		classSub:          make(map[IRI]map[IRI]bool),
		propSuper:         make(map[IRI]map[IRI]bool),
		propSub:           make(map[IRI]map[IRI]bool),
		transitive:        make(map[IRI]bool),
		symmetric:         make(map[IRI]bool),
		functional:        make(map[IRI]bool),
		inverseFunctional: make(map[IRI]bool),
		inverseOf:         make(map[IRI]IRI),
	}
}

func addEdge(m map[IRI]map[IRI]bool, from, to IRI) bool {
	set, ok := m[from]
	if !ok {
		set = make(map[IRI]bool)
		m[from] = set
	}
	if set[to] {
		return false
	}
	set[to] = true
	return true
}

// transitiveClose repeatedly adds (a, c) whenever (a, b) and (b, c) are
// both present, until a pass adds nothing new or maxIterations passes
// have run.
func transitiveClose(direct map[IRI]map[IRI]bool, maxIterations int) error {
	for i := 0; i < maxIterations; i++ {
		changed := false
		for a, bs := range direct {
			for b := range bs {
				for c := range direct[b] {
					if c == a {
						continue
					}
					if addEdge(direct, a, c) {
						changed = true
					}
				}
			}
		}
		if !changed {
			return nil
		}
	}
	return newError(ErrMaxIterationsExceeded, "tbox: hierarchy closure exceeded %d iterations", maxIterations)
}

func invert(direct map[IRI]map[IRI]bool) map[IRI]map[IRI]bool {
	out := make(map[IRI]map[IRI]bool)
	for a, bs := range direct {
		for b := range bs {
			addEdge(out, b, a)
		}
	}
	return out
}

// BuildTBox implements the extraction: enumerate subClassOf and
// subPropertyOf edges, close each transitively, extract property
// characteristics and declared inverses in a single pass each.
// maxIterations <= 0 uses defaultTBoxMaxIterations; maxProperties <= 0
// uses defaultTBoxMaxProperties.
func BuildTBox(ctx context.Context, q QueryInterface, maxIterations, maxProperties int) (*TBox, error) {
	if maxIterations <= 0 {
		maxIterations = defaultTBoxMaxIterations
	}
	if maxProperties <= 0 {
		maxProperties = defaultTBoxMaxProperties
	}

	out := newEmptyTBox()
	any := Var("_a")
	anyB := Var("_b")

	subClass, err := q.Enumerate(ctx, NewPattern(any, RDFSSubClassOf, anyB), maxProperties)
	if err != nil {
		return nil, wrapBackendError(err)
	}
	for _, t := range subClass {
		sub, ok1 := t.Subject.(IRI)
		sup, ok2 := t.Object.(IRI)
		if ok1 && ok2 {
			addEdge(out.classSuper, sub, sup)
			// A class appearing only as a super still gets an entry, with
			// an empty super-set, so enumeration sees every known class.
			if _, ok := out.classSuper[sup]; !ok {
				out.classSuper[sup] = make(map[IRI]bool)
			}
		}
	}
	if err := transitiveClose(out.classSuper, maxIterations); err != nil {
		return nil, err
	}
	out.classSub = invert(out.classSuper)

	subProp, err := q.Enumerate(ctx, NewPattern(any, RDFSSubPropertyOf, anyB), maxProperties)
	if err != nil {
		return nil, wrapBackendError(err)
	}
	for _, t := range subProp {
		sub, ok1 := t.Subject.(IRI)
		sup, ok2 := t.Object.(IRI)
		if ok1 && ok2 {
			addEdge(out.propSuper, sub, sup)
		}
	}
	if err := transitiveClose(out.propSuper, maxIterations); err != nil {
		return nil, err
	}
	out.propSub = invert(out.propSuper)

	enumChar := func(class IRI, into map[IRI]bool) error {
		triples, err := q.Enumerate(ctx, NewPattern(any, RDFType, class), maxProperties)
		if err != nil {
			return wrapBackendError(err)
		}
		for _, t := range triples {
			if p, ok := t.Subject.(IRI); ok {
				into[p] = true
			}
		}
		return nil
	}
	if err := enumChar(OWLTransitiveProp, out.transitive); err != nil {
		return nil, err
	}
	if err := enumChar(OWLSymmetricProp, out.symmetric); err != nil {
		return nil, err
	}
	if err := enumChar(OWLFunctionalProp, out.functional); err != nil {
		return nil, err
	}
	if err := enumChar(OWLInverseFuncProp, out.inverseFunctional); err != nil {
		return nil, err
	}

	invs, err := q.Enumerate(ctx, NewPattern(any, OWLInverseOf, anyB), maxProperties)
	if err != nil {
		return nil, wrapBackendError(err)
	}
	for _, t := range invs {
		p1, ok1 := t.Subject.(IRI)
		p2, ok2 := t.Object.(IRI)
		if ok1 && ok2 {
			out.inverseOf[p1] = p2
			out.inverseOf[p2] = p1
		}
	}

	out.Stats = TBoxStats{
		ClassCount:             len(out.classSuper),
		PropertyCount:          len(out.propSuper),
		TransitiveCount:        len(out.transitive),
		SymmetricCount:         len(out.symmetric),
		FunctionalCount:        len(out.functional),
		InverseFunctionalCount: len(out.inverseFunctional),
		InversePairCount:       len(out.inverseOf),
	}
	out.Version, err = newVersionID()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NeedsRecomputation implements the TBox-modifying-triple detection:
// a triple invalidates the cached hierarchy if its predicate alone
// determines membership in the hierarchy-shaping vocabulary
// (rdfs:subClassOf, rdfs:subPropertyOf, owl:inverseOf, rdfs:domain,
// rdfs:range), or if it declares a property characteristic
// (rdf:type pointing at one of the four characteristic classes).
func NeedsRecomputation(t Triple) bool {
	pred, ok := t.Predicate.(IRI)
	if !ok {
		return false
	}
	if tboxPredicates[pred] {
		return true
	}
	if pred == RDFType {
		if obj, ok := t.Object.(IRI); ok {
			return propertyCharacteristicClasses[obj]
		}
	}
	return false
}

// RecomputationNeed categorizes a batch of modified triples by which
// cached structure they invalidate: the class hierarchy, the property
// hierarchy (including characteristics and inverses), or any TBox
// structure at all (which additionally covers rdfs:domain/rdfs:range,
// whose triples shape rule applicability but neither hierarchy).
type RecomputationNeed struct {
	Class    bool
	Property bool
	Any      bool
}

// NeedsRecomputationBatch categorizes modified without mutating any
// state.
func NeedsRecomputationBatch(modified []Triple) RecomputationNeed {
	var need RecomputationNeed
	for _, t := range modified {
		pred, ok := t.Predicate.(IRI)
		if !ok {
			continue
		}
		switch pred {
		case RDFSSubClassOf:
			need.Class = true
			need.Any = true
		case RDFSSubPropertyOf, OWLInverseOf:
			need.Property = true
			need.Any = true
		case RDFSDomain, RDFSRange:
			need.Any = true
		case RDFType:
			if obj, ok := t.Object.(IRI); ok && propertyCharacteristicClasses[obj] {
				need.Property = true
				need.Any = true
			}
		}
	}
	return need
}

// HandleTBoxUpdate implements the invalidation/recomputation policy:
// if any triple in changed is TBox-modifying, the entire hierarchy is
// rebuilt from q (closures are not maintained incrementally — a full
// rebuild is the documented, simpler behavior for a structure that
// changes rarely relative to instance data); otherwise current is
// returned unchanged.
func HandleTBoxUpdate(ctx context.Context, current *TBox, changed []Triple, q QueryInterface, maxIterations, maxProperties int) (*TBox, error) {
	if current == nil || NeedsRecomputationBatch(changed).Any {
		return BuildTBox(ctx, q, maxIterations, maxProperties)
	}
	return current, nil
}

func sortedIRISet(m map[IRI]bool) []IRI {
	out := make([]IRI, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Superclasses returns every class transitively super to c, sorted for
// deterministic output.
func (t *TBox) Superclasses(c IRI) []IRI { return sortedIRISet(t.classSuper[c]) }

// Subclasses returns every class transitively sub to c.
func (t *TBox) Subclasses(c IRI) []IRI { return sortedIRISet(t.classSub[c]) }

// Superproperties returns every property transitively super to p.
func (t *TBox) Superproperties(p IRI) []IRI { return sortedIRISet(t.propSuper[p]) }

// Subproperties returns every property transitively sub to p.
func (t *TBox) Subproperties(p IRI) []IRI { return sortedIRISet(t.propSub[p]) }

// TransitiveProperty reports whether p is declared owl:TransitiveProperty.
func (t *TBox) TransitiveProperty(p IRI) bool { return t.transitive[p] }

// SymmetricProperty reports whether p is declared owl:SymmetricProperty.
func (t *TBox) SymmetricProperty(p IRI) bool { return t.symmetric[p] }

// FunctionalProperty reports whether p is declared owl:FunctionalProperty.
func (t *TBox) FunctionalProperty(p IRI) bool { return t.functional[p] }

// InverseFunctionalProperty reports whether p is declared
// owl:InverseFunctionalProperty.
func (t *TBox) InverseFunctionalProperty(p IRI) bool { return t.inverseFunctional[p] }

// InverseOf returns the property p is declared owl:inverseOf, if any.
func (t *TBox) InverseOf(p IRI) (IRI, bool) {
	v, ok := t.inverseOf[p]
	return v, ok
}
