package reason

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// forbiddenIRIChars is the "IRI safety" denylist: any IRI destined
// for a dynamic query string (here: a specialized rule name) must be
// rejected if it contains one of these.
const forbiddenIRIChars = "<>{};\n\r"

// ValidIRI reports whether iri is safe to incorporate into a dynamically
// constructed identifier or query string.
func ValidIRI(iri IRI) bool {
	return !strings.ContainsAny(string(iri), forbiddenIRIChars)
}

// CompilerOptions configures the pipeline.
type CompilerOptions struct {
	MaxProperties      int             // default 10000
	MaxSpecializations int             // default 1000
	Include            map[string]bool // nil = no restriction
	Exclude            map[string]bool // nil = no restriction
	// PredicateStats, when available, sharpens the optimizer's
	// selectivity estimates for constant predicates; nil falls back to
	// the flat per-position table.
	PredicateStats *PredicateStats
	Logger         hclog.Logger
}

const defaultMaxSpecializations = 1000

func (o CompilerOptions) logger() hclog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return hclog.NewNullLogger()
}

// SpecializedRule pairs a specialized rule with the property IRI it was
// bound to, for introspection and dead-rule re-checking.
type SpecializedRule struct {
	Rule     Rule
	Property IRI
}

// CompiledRuleSet is the immutable output of a compile: applicable
// generic rules, specialized instantiations, the originating profile,
// the schema snapshot, and a content-addressed version. Implements
// registry.go's Snapshot interface so it can be published into the
// process-wide registry.
type CompiledRuleSet struct {
	Profile     Profile
	Generic     []Rule
	Specialized []SpecializedRule
	Schema      *SchemaInfo
	Version     string
	// Optimized is the runnable rule list: every generic rule and
	// surviving specialization after selectivity reordering, condition
	// re-placement, and dead-rule filtering, in a stable name order.
	// This is what the engine executes; Generic/Specialized are kept as
	// compile provenance (introspection, dead-rule re-checks).
	Optimized []Rule
	// Batches groups Optimized by head predicate with the shared-pattern
	// classification, so the engine may share intermediate results.
	Batches []RuleBatch
	// instanceID disambiguates two CompiledRuleSets that hash to the
	// same content version (e.g. recompiled back-to-back with no schema
	// change) but were published as distinct registry entries.
	instanceID string
}

func (c *CompiledRuleSet) SnapshotVersion() string { return c.Version }

// AllRules returns every runnable rule in the set, already optimized,
// in a stable name order. eq-ref is never included here: it is
// catalog-only and never emitted as a runnable rule.
func (c *CompiledRuleSet) AllRules() []Rule {
	return c.Optimized
}

// runnableRules assembles the pre-optimization rule list: generic rules
// minus the eq-ref placeholder, then every specialized instantiation.
func (c *CompiledRuleSet) runnableRules() []Rule {
	out := make([]Rule, 0, len(c.Generic)+len(c.Specialized))
	for _, r := range c.Generic {
		if r.Name == "eq-ref" {
			continue
		}
		out = append(out, r)
	}
	for _, s := range c.Specialized {
		out = append(out, s.Rule)
	}
	return out
}

// applicable reports whether r's required schema feature is present;
// a rule is kept iff the feature holds. Unknown rules are kept
// conservatively.
func applicable(r Rule, info *SchemaInfo) bool {
	switch r.Name {
	case "scm-sco", "cax-sco":
		return info.HasSubclass
	case "scm-spo", "prp-spo1":
		return info.HasSubproperty
	case "prp-dom":
		return info.HasDomain
	case "prp-rng":
		return info.HasRange
	case "prp-trp":
		return len(info.TransitiveProperties) > 0
	case "prp-symp":
		return len(info.SymmetricProperties) > 0
	case "prp-inv1", "prp-inv2":
		return len(info.InversePairs) > 0
	case "prp-fp":
		return len(info.FunctionalProperties) > 0
	case "prp-ifp":
		return len(info.InverseFunctionalProp) > 0
	case "eq-ref":
		return true
	case "eq-sym", "eq-trans", "eq-rep-s", "eq-rep-p", "eq-rep-o":
		return info.HasSameAs
	case "cls-hv1", "cls-hv2", "cls-svf1", "cls-svf2", "cls-avf":
		return info.HasRestrictions
	default:
		return true
	}
}

// specializationEnumeration returns the property IRIs a specializable
// rule should be instantiated against, per its required schema feature.
func specializationEnumeration(name string, info *SchemaInfo) []IRI {
	switch name {
	case "prp-trp":
		return sortedIRIKeys(info.TransitiveProperties)
	case "prp-symp":
		return sortedIRIKeys(info.SymmetricProperties)
	case "prp-fp":
		return sortedIRIKeys(info.FunctionalProperties)
	case "prp-ifp":
		return sortedIRIKeys(info.InverseFunctionalProp)
	case "prp-inv1", "prp-inv2":
		return sortedIRIKeys(info.InversePairs)
	default:
		return nil
	}
}

func sortedIRIKeys[V any](m map[IRI]V) []IRI {
	out := make([]IRI, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sanitizeLocalName turns an IRI's local part into a name-safe token,
// then appends a short content hash of the full IRI to rule out
// collisions between IRIs that differ only in non-alphanumeric parts.
func sanitizeLocalName(iri IRI) string {
	s := string(iri)
	local := s
	if i := strings.LastIndexAny(s, "/#:"); i >= 0 && i+1 < len(s) {
		local = s[i+1:]
	}
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%s_%s", b.String(), hex.EncodeToString(sum[:4]))
}

// specializeRule specializes r to a single (rule, property) pair:
// drop the type-declaration (or inverseOf) body pattern and
// substitute the property variable(s) throughout the remaining body and
// the head.
func specializeRule(r Rule, spec *specializationSpec, prop IRI) (Rule, error) {
	if !ValidIRI(prop) {
		return Rule{}, newError(ErrInvalidIRI, "compiler: property IRI %q contains forbidden characters", prop)
	}
	b := NewBinding()
	b[spec.propVars[0]] = prop

	newBody := make([]BodyElement, 0, len(r.Body)-1)
	for i, e := range r.Body {
		if i == spec.dropIndex {
			continue
		}
		if e.IsPattern() {
			newBody = append(newBody, PatternElem(substitutePattern(*e.Pattern, b)))
		} else {
			c := *e.Condition
			newBody = append(newBody, ConditionElem(Condition{
				Kind: c.Kind,
				Arg1: substitute(c.Arg1, b),
				Arg2: substitute(c.Arg2, b),
				Var:  c.Var,
			}))
		}
	}

	localName := sanitizeLocalName(prop)
	out := Rule{
		Name:        r.Name + "$" + localName,
		Profile:     r.Profile,
		Description: r.Description,
		Head:        substitutePattern(r.Head, b),
		Body:        newBody,
	}
	return out, nil
}

// specializeInverseRule handles prp-inv1/prp-inv2, whose two property
// variables (p1, p2) must both be bound to concrete, distinct IRIs
// drawn from a single inverse-pair.
func specializeInverseRule(r Rule, spec *specializationSpec, p1, p2 IRI) (Rule, error) {
	if !ValidIRI(p1) || !ValidIRI(p2) {
		return Rule{}, newError(ErrInvalidIRI, "compiler: inverse property pair (%q, %q) contains forbidden characters", p1, p2)
	}
	b := NewBinding()
	b[spec.propVars[0]] = p1
	b[spec.propVars[1]] = p2

	newBody := make([]BodyElement, 0, len(r.Body)-1)
	for i, e := range r.Body {
		if i == spec.dropIndex {
			continue
		}
		if e.IsPattern() {
			newBody = append(newBody, PatternElem(substitutePattern(*e.Pattern, b)))
		}
	}
	out := Rule{
		Name:        r.Name + "$" + sanitizeLocalName(p1) + "_" + sanitizeLocalName(p2),
		Profile:     r.Profile,
		Description: r.Description,
		Head:        substitutePattern(r.Head, b),
		Body:        newBody,
	}
	return out, nil
}

// Compile implements the full pipeline: schema extraction (if info
// is nil), applicability filtering, specialization, and publication
// into reg under a fresh registry key. Returns the registry key and the
// compiled set.
func Compile(ctx context.Context, reg *Registry[*CompiledRuleSet], profile Profile, info *SchemaInfo, q QueryInterface, opts CompilerOptions, tel *Telemetry) (string, *CompiledRuleSet, error) {
	log := opts.logger()
	start := tel.CompileStart(profile)

	var err error
	if info == nil {
		if q == nil {
			return "", nil, newError(ErrBackendError, "compiler: neither schema info nor a query interface was supplied")
		}
		info, err = ExtractSchemaInfo(ctx, q, opts.MaxProperties)
		if err != nil {
			tel.CompileException(err)
			return "", nil, err
		}
	}

	maxSpec := opts.MaxSpecializations
	if maxSpec <= 0 {
		maxSpec = defaultMaxSpecializations
	}

	out := &CompiledRuleSet{Profile: profile, Schema: info}
	var nameHash strings.Builder

	names := catalogNamesForProfile(profile)
	for _, name := range names {
		if opts.Include != nil && !opts.Include[name] {
			continue
		}
		if opts.Exclude != nil && opts.Exclude[name] {
			continue
		}
		entry, ok := catalogIndex[name]
		if !ok {
			log.Warn("compiler: unknown rule in profile list, skipping", "rule", name)
			continue
		}
		r := entry.build()
		if !applicable(r, info) {
			continue
		}
		if entry.spec == nil {
			out.Generic = append(out.Generic, r)
			fmt.Fprintf(&nameHash, "%s;", r.Name)
			continue
		}
		if name == "prp-inv1" || name == "prp-inv2" {
			// Sorted iteration keeps the specialization order and the
			// content-address hash stable across runs.
			count := 0
			for _, p1 := range sortedIRIKeys(info.InversePairs) {
				p2 := info.InversePairs[p1]
				if count >= maxSpec {
					log.Warn("compiler: specialization cap reached", "rule", name, "cap", maxSpec)
					break
				}
				sr, serr := specializeInverseRule(r, entry.spec, p1, p2)
				if serr != nil {
					log.Warn("compiler: skipping invalid specialization", "rule", name, "property", p1, "error", serr)
					continue
				}
				out.Specialized = append(out.Specialized, SpecializedRule{Rule: sr, Property: p1})
				fmt.Fprintf(&nameHash, "%s$%s;", name, p1)
				count++
			}
			continue
		}
		props := specializationEnumeration(name, info)
		for i, p := range props {
			if i >= maxSpec {
				log.Warn("compiler: specialization cap reached", "rule", name, "cap", maxSpec)
				break
			}
			sr, serr := specializeRule(r, entry.spec, p)
			if serr != nil {
				log.Warn("compiler: skipping invalid specialization", "rule", name, "property", p, "error", serr)
				continue
			}
			out.Specialized = append(out.Specialized, SpecializedRule{Rule: sr, Property: p})
			fmt.Fprintf(&nameHash, "%s$%s;", name, p)
		}
	}

	// Optimizer pass over the compiled rules before publication: drop
	// specializations the schema can no longer support (a re-check that
	// matters when a caller supplied a schema snapshot older than the
	// enumeration the specializations came from), then reorder bodies by
	// selectivity, re-place conditions, and batch by head predicate.
	optStart := tel.OptimizeStart()
	alive, dead := FilterDeadRules(out.Specialized, info)
	if len(dead) > 0 {
		log.Warn("compiler: dropping dead specialized rules", "count", len(dead))
	}
	out.Specialized = alive
	out.Optimized, out.Batches = OptimizeRuleSet(out.runnableRules(), opts.PredicateStats)
	tel.OptimizeStop(optStart)

	sum := sha256.Sum256([]byte(nameHash.String()))
	out.Version = hex.EncodeToString(sum[:])
	instanceID, verr := newVersionID()
	if verr != nil {
		tel.CompileException(verr)
		return "", nil, verr
	}
	out.instanceID = instanceID

	key := string(profile) + ":" + instanceID
	reg.Store(key, out)

	tel.CompileStop(start, profile, len(out.AllRules()))
	return key, out, nil
}

// catalogNamesForProfile returns the catalog rule names belonging to a
// profile request. ProfileOWL2RL includes the RDFS rules too, since
// OWL 2 RL entailment is a strict superset of RDFS entailment.
func catalogNamesForProfile(p Profile) []string {
	switch p {
	case ProfileRDFS:
		return ProfileRuleNames(ProfileRDFS)
	case ProfileOWL2RL:
		names := ProfileRuleNames(ProfileRDFS)
		names = append(names, ProfileRuleNames(ProfileOWL2RL)...)
		return names
	case ProfileCustom:
		return CatalogRuleNames()
	default:
		return nil
	}
}
