package testkit

import (
	"testing"

	"xdao.co/progload/program"
	"xdao.co/progload/resolver"
)

// World describes the programs a conformance subject must be able to see:
//
//	swap.aleo       the main program, importing token.aleo, missing.aleo, credits.aleo
//	token.aleo      resolvable import
//	credits.aleo    resolvable import
//	missing.aleo    absent everywhere
//
// NewResolver builds a resolver over that world.
type NewResolver func(t *testing.T) resolver.Resolver

var (
	MainName    = "swap.aleo"
	MainImports = []string{"token.aleo", "missing.aleo", "credits.aleo"}
	Present     = []string{"token.aleo", "credits.aleo"}
)

// RunResolverConformance checks the behavior every configured strategy shares.
func RunResolverConformance(t *testing.T, newResolver NewResolver) {
	t.Helper()

	t.Run("LoadProgram", func(t *testing.T) {
		r := newResolver(t)
		id := program.MustParseID(program.Testnet, MainName)
		p, err := r.LoadProgram(id)
		if err != nil {
			t.Fatalf("LoadProgram: %v", err)
		}
		if p.ID() != id {
			t.Fatalf("LoadProgram returned %s, want %s", p.ID(), id)
		}
	})

	t.Run("ImportsPreserveOrderAndReportPartialFailure", func(t *testing.T) {
		r := newResolver(t)
		main := MustParse(t, Source(MainName, MainImports...))
		results, err := r.ResolveProgramImports(main)
		if err != nil {
			t.Fatalf("ResolveProgramImports: %v", err)
		}
		if len(results) != len(MainImports) {
			t.Fatalf("expected %d results, got %d", len(MainImports), len(results))
		}
		for i, name := range MainImports {
			if results[i].ID.String() != name {
				t.Fatalf("result[%d] is %s, want %s", i, results[i].ID, name)
			}
		}
		failed := resolver.Failed(results)
		if len(failed) != 1 || failed[0].ID.String() != "missing.aleo" {
			t.Fatalf("expected only missing.aleo to fail, got %+v", failed)
		}
		if !program.IsKind(failed[0].Err, program.KindNotFound) {
			t.Fatalf("expected KindNotFound for missing import, got %v", failed[0].Err)
		}
		for _, res := range results {
			if res.OK() && res.Program.ID() != res.ID {
				t.Fatalf("import %s resolved to %s", res.ID, res.Program.ID())
			}
		}
	})

	t.Run("ImportsDoNotMutateInput", func(t *testing.T) {
		r := newResolver(t)
		main := MustParse(t, Source(MainName, MainImports...))
		before := main.Imports()
		if _, err := r.ResolveProgramImports(main); err != nil {
			t.Fatalf("ResolveProgramImports: %v", err)
		}
		after := main.Imports()
		if len(before) != len(after) {
			t.Fatalf("imports changed length")
		}
		for i := range before {
			if before[i] != after[i] {
				t.Fatalf("imports changed at %d", i)
			}
		}
	})

	t.Run("NoImports", func(t *testing.T) {
		r := newResolver(t)
		results, err := r.ResolveProgramImports(MustParse(t, Source("leaf.aleo")))
		if err != nil {
			t.Fatalf("ResolveProgramImports: %v", err)
		}
		if len(results) != 0 {
			t.Fatalf("expected no results, got %d", len(results))
		}
	})

	t.Run("NilProgram", func(t *testing.T) {
		r := newResolver(t)
		if _, err := r.ResolveProgramImports(nil); !program.IsKind(err, program.KindConfiguration) {
			t.Fatalf("expected KindConfiguration, got %v", err)
		}
	})

	t.Run("RecordsNeverNil", func(t *testing.T) {
		r := newResolver(t)
		recs, err := r.FindRecords()
		if err != nil {
			t.Fatalf("FindRecords: %v", err)
		}
		if recs == nil {
			t.Fatalf("FindRecords returned nil slice")
		}
		unspent, err := r.FindUnspentRecords()
		if err != nil {
			t.Fatalf("FindUnspentRecords: %v", err)
		}
		if unspent == nil {
			t.Fatalf("FindUnspentRecords returned nil slice")
		}
	})
}
