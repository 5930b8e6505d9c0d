package resolver_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/progload/internal/testkit"
	"xdao.co/progload/program"
	"xdao.co/progload/resolver"
)

func TestHybridConformanceLocalOnly(t *testing.T) {
	testkit.RunResolverConformance(t, func(t *testing.T) resolver.Resolver {
		r, err := resolver.NewHybrid(newLocalWorld(t), testkit.NewMemRemote())
		if err != nil {
			t.Fatalf("NewHybrid: %v", err)
		}
		return r
	})
}

func TestHybridConformanceRemoteOnly(t *testing.T) {
	testkit.RunResolverConformance(t, func(t *testing.T) resolver.Resolver {
		r, err := resolver.NewHybrid(t.TempDir(), newRemoteWorld())
		if err != nil {
			t.Fatalf("NewHybrid: %v", err)
		}
		return r
	})
}

func TestNewHybridRejectsBadRoot(t *testing.T) {
	r, err := resolver.NewHybrid(filepath.Join(t.TempDir(), "absent"), testkit.NewMemRemote())
	if !program.IsKind(err, program.KindConfiguration) || r != nil {
		t.Fatalf("expected KindConfiguration and no resolver, got %v", err)
	}
}

func TestHybridUnconfiguredFailsEveryOperation(t *testing.T) {
	r, err := resolver.NewHybrid(newLocalWorld(t), nil)
	if err != nil {
		t.Fatalf("NewHybrid: %v", err)
	}
	if r.Configured() {
		t.Fatalf("expected unconfigured hybrid")
	}
	id := program.MustParseID(program.Testnet, testkit.MainName)

	p, err := r.LoadProgram(id)
	assertUnconfigured(t, "LoadProgram", err)
	if p != nil {
		t.Fatalf("LoadProgram returned a program")
	}

	results, err := r.ResolveProgramImports(testkit.MustParse(t, testkit.Source(testkit.MainName, "token.aleo")))
	assertUnconfigured(t, "ResolveProgramImports", err)
	if results != nil {
		t.Fatalf("ResolveProgramImports returned results")
	}

	recs, err := r.FindRecords()
	assertUnconfigured(t, "FindRecords", err)
	if recs != nil {
		t.Fatalf("FindRecords returned records")
	}

	unspent, err := r.FindUnspentRecords()
	assertUnconfigured(t, "FindUnspentRecords", err)
	if unspent != nil {
		t.Fatalf("FindUnspentRecords returned records")
	}
}

func assertUnconfigured(t *testing.T, op string, err error) {
	t.Helper()
	if !program.IsKind(err, program.KindConfiguration) {
		t.Fatalf("%s: expected KindConfiguration, got %v", op, err)
	}
	if !strings.Contains(err.Error(), "functional resolver is required") {
		t.Fatalf("%s: unexpected message %q", op, err.Error())
	}
}

func TestHybridPrefersLocal(t *testing.T) {
	remote := newRemoteWorld()
	r, err := resolver.NewHybrid(newLocalWorld(t), remote)
	if err != nil {
		t.Fatalf("NewHybrid: %v", err)
	}
	if _, err := r.LoadProgram(program.MustParseID(program.Testnet, testkit.MainName)); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if remote.Calls() != 0 {
		t.Fatalf("expected no network calls, got %d", remote.Calls())
	}
}

func TestHybridFallsBackOnIdentityMismatch(t *testing.T) {
	remote := testkit.NewMemRemote()
	remote.AddProgram("token.aleo", testkit.Source("token.aleo"))
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r, err := resolver.NewHybrid(newLocalWorld(t), remote, resolver.WithLogger(logger))
	if err != nil {
		t.Fatalf("NewHybrid: %v", err)
	}
	p, err := r.LoadProgram(program.MustParseID(program.Testnet, "token.aleo"))
	if err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if p.ID().String() != "token.aleo" {
		t.Fatalf("unexpected program %s", p.ID())
	}
	if !strings.Contains(logs.String(), "kind=IdentityMismatch") {
		t.Fatalf("expected fallback to be logged, got %q", logs.String())
	}
}

func TestHybridReturnsNetworkFailureVerbatim(t *testing.T) {
	remote := testkit.NewMemRemote()
	boom := errors.New("network unreachable")
	remote.Err = boom
	r, err := resolver.NewHybrid(t.TempDir(), remote)
	if err != nil {
		t.Fatalf("NewHybrid: %v", err)
	}
	_, err = r.LoadProgram(program.MustParseID(program.Testnet, "token.aleo"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected network error, got %v", err)
	}

	results, err := r.ResolveProgramImports(testkit.MustParse(t, testkit.Source("swap.aleo", "token.aleo")))
	if err != nil {
		t.Fatalf("ResolveProgramImports: %v", err)
	}
	if !errors.Is(results[0].Err, boom) {
		t.Fatalf("expected per-import network error, got %v", results[0].Err)
	}
}

func TestHybridImportsMixLocalAndRemote(t *testing.T) {
	root := t.TempDir()
	testkit.WriteImport(t, root, "token.aleo")
	remote := testkit.NewMemRemote()
	remote.AddProgram("credits.aleo", testkit.Source("credits.aleo"))
	// The local copy wins over the remote copy of the same import.
	remote.AddProgram("token.aleo", testkit.Source("impostor.aleo"))

	r, err := resolver.NewHybrid(root, remote)
	if err != nil {
		t.Fatalf("NewHybrid: %v", err)
	}
	results, err := r.ResolveProgramImports(testkit.MustParse(t, testkit.Source("swap.aleo", "token.aleo", "credits.aleo", "missing.aleo")))
	if err != nil {
		t.Fatalf("ResolveProgramImports: %v", err)
	}
	if !results[0].OK() || !results[1].OK() {
		t.Fatalf("expected token and credits to resolve: %v / %v", results[0].Err, results[1].Err)
	}
	if !program.IsKind(results[2].Err, program.KindNotFound) {
		t.Fatalf("expected KindNotFound for missing.aleo, got %v", results[2].Err)
	}
}

func TestHybridRecordsUnion(t *testing.T) {
	remote := testkit.NewMemRemote()
	remote.AddRecords([]string{"record1aa", "record1bb", "record1aa"}, []string{"{ a: 1u8.private }"})
	r, err := resolver.NewHybrid(t.TempDir(), remote)
	if err != nil {
		t.Fatalf("NewHybrid: %v", err)
	}
	recs, err := r.FindRecords()
	if err != nil {
		t.Fatalf("FindRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected duplicates to collapse, got %v", recs)
	}
	unspent, err := r.FindUnspentRecords()
	if err != nil {
		t.Fatalf("FindUnspentRecords: %v", err)
	}
	if len(unspent) != 1 {
		t.Fatalf("unexpected unspent %v", unspent)
	}
}

func TestHybridAccessors(t *testing.T) {
	root := t.TempDir()
	r, err := resolver.NewHybrid(root, testkit.NewMemRemote())
	if err != nil {
		t.Fatalf("NewHybrid: %v", err)
	}
	if r.Name() != "hybrid" || r.Root() != root {
		t.Fatalf("unexpected accessors %q %q", r.Name(), r.Root())
	}
	if r.ImportDirectory() != filepath.Join(root, "imports") {
		t.Fatalf("unexpected import directory %q", r.ImportDirectory())
	}
	if _, err := os.Stat(r.Root()); err != nil {
		t.Fatalf("root missing: %v", err)
	}
}
