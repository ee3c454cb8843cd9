// Command example demonstrates the reasoning core end to end: configure
// a reasoner against a small RDFS/OWL 2 RL fact set, materialize its
// closure, add a fact that triggers new derivations, preview a
// hypothetical addition without committing it, then delete a fact and
// watch dependent derivations fall away.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gitrdm/owlreasoner/internal/store"
	"github.com/gitrdm/owlreasoner/pkg/reason"
)

const (
	rdfType  = reason.IRI("rdf:type")
	rdfsSub  = reason.IRI("rdfs:subClassOf")
	exPerson = reason.IRI("ex:Person")
	exAgent  = reason.IRI("ex:Agent")
	exAlice  = reason.IRI("ex:alice")
	exBob    = reason.IRI("ex:bob")
)

func main() {
	ctx := context.Background()

	backend := store.NewMemoryBackend()
	explicit := store.NewMemoryTripleIndex()
	dict := store.NewMemoryDictionary()

	r := reason.NewReasoner(reason.ReasonerConfig{
		Backend:  backend,
		Explicit: explicit,
		Dict:     dict,
	})

	seed := []reason.Triple{
		reason.NewTriple(exPerson, rdfsSub, exAgent),
		reason.NewTriple(exAlice, rdfType, exPerson),
	}
	seedIDs := mustIDTriples(ctx, dict, seed)
	if err := explicit.InsertTriples(ctx, seedIDs); err != nil {
		log.Fatalf("insert seed facts: %v", err)
	}

	if err := r.Configure(ctx, reason.ProfileRDFS, reason.ModeMaterialized); err != nil {
		log.Fatalf("configure: %v", err)
	}

	stats, err := r.Materialize(ctx)
	if err != nil {
		log.Fatalf("materialize: %v", err)
	}
	fmt.Printf("materialized %d derived facts in %d iterations (status=%s)\n",
		stats.TotalDerived, stats.Iterations, r.ReasoningStatus())

	printEveryType(ctx, r, "after initial materialize")

	preview, err := r.PreviewAdd(ctx, []reason.Triple{
		reason.NewTriple(exBob, rdfType, exPerson),
	})
	if err != nil {
		log.Fatalf("preview_add: %v", err)
	}
	fmt.Printf("preview_add(bob a Person) would derive %d new fact(s): %v\n",
		len(preview.Derived), preview.Derived)

	addResult, err := r.Add(ctx, []reason.Triple{
		reason.NewTriple(exBob, rdfType, exPerson),
	})
	if err != nil {
		log.Fatalf("add: %v", err)
	}
	fmt.Printf("add(bob a Person): %d novel input triple(s), %d derived\n",
		addResult.NovelCount, addResult.Stats.TotalDerived)

	printEveryType(ctx, r, "after adding bob")

	deleteStats, err := r.Delete(ctx, []reason.Triple{
		reason.NewTriple(exAlice, rdfType, exPerson),
	})
	if err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Printf("delete(alice a Person): explicit=%d derived_deleted=%d derived_kept=%d\n",
		deleteStats.ExplicitDeleted, deleteStats.DerivedDeleted, deleteStats.DerivedKept)

	printEveryType(ctx, r, "after deleting alice")

	report, err := r.Status(ctx)
	if err != nil {
		log.Fatalf("reasoning_status: %v", err)
	}
	fmt.Printf("status: profile=%s mode=%s explicit=%d derived=%d state=%s\n",
		report.Profile, report.Mode, report.ExplicitCount, report.DerivedCount, report.State)
}

func printEveryType(ctx context.Context, r *reason.Reasoner, label string) {
	pattern := reason.NewPattern(reason.Var("s"), rdfType, reason.Var("t"))
	out, _, err := r.Query(ctx, pattern)
	if err != nil {
		log.Fatalf("query (%s): %v", label, err)
	}
	fmt.Printf("rdf:type facts %s:\n", label)
	for _, t := range out {
		fmt.Printf("  %s\n", t)
	}
}

func mustIDTriples(ctx context.Context, dict reason.Dictionary, triples []reason.Triple) []reason.IDTriple {
	out := make([]reason.IDTriple, 0, len(triples))
	for _, t := range triples {
		sid, err := dict.ToID(ctx, t.Subject)
		if err != nil {
			log.Fatalf("dict.ToID(subject): %v", err)
		}
		pid, err := dict.ToID(ctx, t.Predicate)
		if err != nil {
			log.Fatalf("dict.ToID(predicate): %v", err)
		}
		oid, err := dict.ToID(ctx, t.Object)
		if err != nil {
			log.Fatalf("dict.ToID(object): %v", err)
		}
		out = append(out, reason.IDTriple{Subject: sid, Predicate: pid, Object: oid})
	}
	return out
}
