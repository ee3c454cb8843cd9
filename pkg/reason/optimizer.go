package reason

import (
	"sort"
	"strings"
)

// Stats needed by the predicate-selectivity override: when available,
// the fraction of the database a given predicate occupies replaces the
// flat IRI-constant-in-predicate-position estimate.
type PredicateStats struct {
	// Count maps predicate IRI to its occurrence count.
	Count map[IRI]int
	Total int
}

// selectivity implements the table: the product of independent
// per-position selectivities, lower meaning more selective (more
// restrictive, matches fewer triples).
func selectivity(p Pattern, bound map[string]bool, stats *PredicateStats) float64 {
	return posSelectivity(p.Subject, bound, false, stats) *
		posSelectivity(p.Predicate, bound, true, stats) *
		posSelectivity(p.Object, bound, false, stats)
}

func posSelectivity(t Term, bound map[string]bool, isPredicate bool, stats *PredicateStats) float64 {
	if v, ok := t.(Variable); ok {
		if bound[v.Name] {
			return 0.01
		}
		if isPredicate {
			return 0.01
		}
		return 0.1
	}
	if isLiteralTerm(t) {
		return 0.001
	}
	if iri, ok := t.(IRI); ok && isPredicate {
		if stats != nil && stats.Total > 0 {
			if c, ok := stats.Count[iri]; ok {
				return float64(c) / float64(stats.Total)
			}
		}
		return 0.001
	}
	// IRI or blank-node constant in subject/object position.
	return 0.01
}

// ReorderBody implements "Pattern reordering by selectivity":
// greedy, starting from an empty bound-variable set, repeatedly pick
// the unplaced pattern with minimum estimated selectivity given
// currently bound variables, and add its variables to the bound set.
// Ties are broken by original order (stable).
func ReorderBody(patterns []Pattern, stats *PredicateStats) []Pattern {
	n := len(patterns)
	placed := make([]bool, n)
	bound := make(map[string]bool)
	out := make([]Pattern, 0, n)

	for len(out) < n {
		best := -1
		bestScore := 0.0
		for i, p := range patterns {
			if placed[i] {
				continue
			}
			s := selectivity(p, bound, stats)
			if best == -1 || s < bestScore {
				best = i
				bestScore = s
			}
		}
		placed[best] = true
		out = append(out, patterns[best])
		for _, v := range patterns[best].Variables() {
			bound[v] = true
		}
	}
	return out
}

// PlaceConditions implements "Condition placement": after
// reordering, each condition is placed at the earliest body position
// where all its variables are already bound by patterns up to and
// including that position; remaining conditions go at the end. The
// original list's relative order is preserved among conditions that tie
// on placement position.
func PlaceConditions(orderedPatterns []Pattern, conditions []Condition) []BodyElement {
	boundAfter := make([]map[string]bool, len(orderedPatterns))
	cur := make(map[string]bool)
	for i, p := range orderedPatterns {
		for _, v := range p.Variables() {
			cur[v] = true
		}
		snapshot := make(map[string]bool, len(cur))
		for k := range cur {
			snapshot[k] = true
		}
		boundAfter[i] = snapshot
	}

	placementPos := make([]int, len(conditions))
	for ci, c := range conditions {
		vars := c.Variables()
		pos := len(orderedPatterns) // default: at the end
		for i := range orderedPatterns {
			ok := true
			for _, v := range vars {
				if !boundAfter[i][v] {
					ok = false
					break
				}
			}
			if ok {
				pos = i
				break
			}
		}
		placementPos[ci] = pos
	}

	byPos := make(map[int][]int) // position -> condition indices, in original order
	for ci, pos := range placementPos {
		byPos[pos] = append(byPos[pos], ci)
	}

	out := make([]BodyElement, 0, len(orderedPatterns)+len(conditions))
	for i, p := range orderedPatterns {
		out = append(out, PatternElem(p))
		for _, ci := range byPos[i] {
			out = append(out, ConditionElem(conditions[ci]))
		}
	}
	for _, ci := range byPos[len(orderedPatterns)] {
		out = append(out, ConditionElem(conditions[ci]))
	}
	return out
}

// OptimizeRule reorders r's body patterns by selectivity and re-places
// its conditions, returning a new Rule with the same head and name.
func OptimizeRule(r Rule, stats *PredicateStats) Rule {
	reordered := ReorderBody(r.BodyPatterns(), stats)
	body := PlaceConditions(reordered, r.BodyConditions())
	out := r
	out.Body = body
	return out
}

// BatchType classifies how a group of rules sharing a head predicate
// relate to each other.
type BatchType int

const (
	BatchIndependent BatchType = iota
	BatchSamePredicate
	BatchSameHead
)

func (b BatchType) String() string {
	switch b {
	case BatchSamePredicate:
		return "same_predicate"
	case BatchSameHead:
		return "same_head"
	default:
		return "independent"
	}
}

// RuleBatch groups rules that share a head predicate.
type RuleBatch struct {
	Predicate Term // head predicate (may itself be a concrete IRI after specialization)
	Rules     []Rule
	Type      BatchType
}

// headSkeleton reduces a pattern to its variable/constant shape: each
// position becomes either "_" (variable) or its constant's string form,
// used to test "same_head".
func headSkeleton(p Pattern) [3]string {
	pos := func(t Term) string {
		if t.IsVar() {
			return "_"
		}
		return t.String()
	}
	return [3]string{pos(p.Subject), pos(p.Predicate), pos(p.Object)}
}

func patternSetsIntersect(a, b []Rule) bool {
	seen := make(map[string]bool)
	for _, r := range a {
		for _, p := range r.BodyPatterns() {
			seen[p.String()] = true
		}
	}
	for _, r := range b {
		for _, p := range r.BodyPatterns() {
			if seen[p.String()] {
				return true
			}
		}
	}
	return false
}

// Batch implements "Batching": group rules by head predicate, then
// classify each group's batch_type.
func Batch(rules []Rule) []RuleBatch {
	order := make([]Term, 0)
	groups := make(map[string][]Rule)
	for _, r := range rules {
		key := r.Head.Predicate.String()
		if _, ok := groups[key]; !ok {
			order = append(order, r.Head.Predicate)
		}
		groups[key] = append(groups[key], r)
	}

	out := make([]RuleBatch, 0, len(order))
	for _, pred := range order {
		key := pred.String()
		grp := groups[key]
		bt := BatchIndependent
		if len(grp) > 1 {
			if allSameSkeleton(grp) {
				bt = BatchSameHead
			} else if groupPatternsIntersect(grp) {
				bt = BatchSamePredicate
			}
		}
		out = append(out, RuleBatch{Predicate: pred, Rules: grp, Type: bt})
	}
	return out
}

func allSameSkeleton(rules []Rule) bool {
	first := headSkeleton(rules[0].Head)
	for _, r := range rules[1:] {
		if headSkeleton(r.Head) != first {
			return false
		}
	}
	return true
}

func groupPatternsIntersect(rules []Rule) bool {
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			if patternSetsIntersect([]Rule{rules[i]}, []Rule{rules[j]}) {
				return true
			}
		}
	}
	return false
}

// DeadRule reports whether r cannot fire under the current schema.
// For a specialized rule, prop must be the property it was bound to;
// pass "" for a generic rule.
func DeadRule(name string, prop IRI, info *SchemaInfo) bool {
	base := Rule{Name: name}
	if !applicable(base, info) {
		return true
	}
	if prop == "" {
		return false
	}
	enum := specializationEnumeration(name, info)
	for _, p := range enum {
		if p == prop {
			return false
		}
	}
	if name == "prp-inv1" || name == "prp-inv2" {
		_, ok := info.InversePairs[prop]
		return !ok
	}
	return true
}

// FilterDeadRules removes dead specialized rules from a compiled set's
// specialized-rule list, returning the surviving rules and the names
// (with property, if any) of the ones removed, for reporting.
func FilterDeadRules(specialized []SpecializedRule, info *SchemaInfo) (alive []SpecializedRule, dead []SpecializedRule) {
	for _, s := range specialized {
		baseName := s.Rule.Name
		if idx := strings.IndexRune(baseName, '$'); idx >= 0 {
			baseName = baseName[:idx]
		}
		if DeadRule(baseName, s.Property, info) {
			dead = append(dead, s)
		} else {
			alive = append(alive, s)
		}
	}
	return alive, dead
}

// OptimizeRuleSet applies reordering+condition-placement to every rule
// in rules, in the prescribed order (reorder first, batching
// computed over the result), returning the optimized rules in a stable
// order and the computed batches.
func OptimizeRuleSet(rules []Rule, stats *PredicateStats) ([]Rule, []RuleBatch) {
	optimized := make([]Rule, len(rules))
	for i, r := range rules {
		optimized[i] = OptimizeRule(r, stats)
	}
	sort.SliceStable(optimized, func(i, j int) bool { return optimized[i].Name < optimized[j].Name })
	return optimized, Batch(optimized)
}
