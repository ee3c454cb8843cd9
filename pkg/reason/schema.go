package reason

import "context"

// SchemaInfo captures the schema features the applicability filter
// and specialization steps need. It is derived once from the current
// Explicit+Derived state and carries a version for cache invalidation.
type SchemaInfo struct {
	Version string

	HasSubclass     bool
	HasSubproperty  bool
	HasDomain       bool
	HasRange        bool
	HasSameAs       bool
	HasRestrictions bool

	TransitiveProperties  map[IRI]bool
	SymmetricProperties   map[IRI]bool
	FunctionalProperties  map[IRI]bool
	InverseFunctionalProp map[IRI]bool

	// InversePairs maps a property IRI to the IRI of its declared
	// inverse, both directions recorded.
	InversePairs map[IRI]IRI
}

// newEmptySchemaInfo returns a zero-valued SchemaInfo with initialized
// maps.
func newEmptySchemaInfo() *SchemaInfo {
	return &SchemaInfo{
		TransitiveProperties:  make(map[IRI]bool),
		SymmetricProperties:   make(map[IRI]bool),
		FunctionalProperties:  make(map[IRI]bool),
		InverseFunctionalProp: make(map[IRI]bool),
		InversePairs:          make(map[IRI]IRI),
	}
}

// maxProperties bounds schema-extraction enumerations
// to avoid unbounded memory use on pathological ontologies.
const defaultMaxProperties = 10000

// QueryInterface is the narrow read surface schema extraction needs
// over the current fact set: existence and enumeration queries against
// explicit+derived triples. A caller may supply a precomputed
// SchemaInfo instead of a QueryInterface ("Inputs: a schema info
// snapshot (or a live query interface to compute one)").
type QueryInterface interface {
	// Exists reports whether any triple matches pattern.
	Exists(ctx context.Context, pattern Pattern) (bool, error)
	// Enumerate returns up to limit ground triples matching pattern.
	Enumerate(ctx context.Context, pattern Pattern, limit int) ([]Triple, error)
}

// ExtractSchemaInfo scans the current fact set for the schema features
// applicability and specialization need. maxProperties bounds the
// characteristic-property enumerations; zero means defaultMaxProperties.
func ExtractSchemaInfo(ctx context.Context, q QueryInterface, maxProperties int) (*SchemaInfo, error) {
	if maxProperties <= 0 {
		maxProperties = defaultMaxProperties
	}
	info := newEmptySchemaInfo()

	any := Var("_a")
	anyB := Var("_b")
	anyC := Var("_c")

	checks := []struct {
		pattern Pattern
		flag    *bool
	}{
		{NewPattern(any, RDFSSubClassOf, anyB), &info.HasSubclass},
		{NewPattern(any, RDFSSubPropertyOf, anyB), &info.HasSubproperty},
		{NewPattern(any, RDFSDomain, anyB), &info.HasDomain},
		{NewPattern(any, RDFSRange, anyB), &info.HasRange},
		{NewPattern(any, OWLSameAs, anyB), &info.HasSameAs},
	}
	for _, c := range checks {
		ok, err := q.Exists(ctx, c.pattern)
		if err != nil {
			return nil, wrapBackendError(err)
		}
		*c.flag = ok
	}

	restrictionChecks := []Pattern{
		NewPattern(any, OWLHasValue, anyB),
		NewPattern(any, OWLSomeValuesFrom, anyB),
		NewPattern(any, OWLAllValuesFrom, anyB),
	}
	for _, p := range restrictionChecks {
		ok, err := q.Exists(ctx, p)
		if err != nil {
			return nil, wrapBackendError(err)
		}
		if ok {
			info.HasRestrictions = true
			break
		}
	}

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
	if err := enumChar(OWLTransitiveProp, info.TransitiveProperties); err != nil {
		return nil, err
	}
	if err := enumChar(OWLSymmetricProp, info.SymmetricProperties); err != nil {
		return nil, err
	}
	if err := enumChar(OWLFunctionalProp, info.FunctionalProperties); err != nil {
		return nil, err
	}
	if err := enumChar(OWLInverseFuncProp, info.InverseFunctionalProp); err != nil {
		return nil, err
	}

	invs, err := q.Enumerate(ctx, NewPattern(any, OWLInverseOf, anyC), maxProperties)
	if err != nil {
		return nil, wrapBackendError(err)
	}
	for _, t := range invs {
		p1, ok1 := t.Subject.(IRI)
		p2, ok2 := t.Object.(IRI)
		if ok1 && ok2 {
			info.InversePairs[p1] = p2
			info.InversePairs[p2] = p1
		}
	}

	info.Version, err = newVersionID()
	if err != nil {
		return nil, err
	}
	return info, nil
}
