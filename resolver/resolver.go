// Package resolver locates programs, their direct imports and the records
// known to a backing source.
//
// Three strategies implement Resolver:
//   - FileSystem reads a package directory and its imports/ siblings.
//   - Network fetches programs and records from a Remote (see package registry).
//   - Hybrid tries its FileSystem half first and falls back to its Network half.
//
// Strategies are configured once and hold no mutable state afterwards, so a
// single value may be shared by concurrent callers.
package resolver

import (
	"xdao.co/progload/program"
	"xdao.co/progload/record"
)

// Resolver is the capability every strategy provides.
type Resolver interface {
	// Name identifies the strategy in logs and diagnostics.
	Name() string

	// LoadProgram returns the program whose identity equals id.
	LoadProgram(id program.ID) (*program.Program, error)

	// ResolveProgramImports returns one ImportResult per import declared by p,
	// in declaration order. A failure to load one import is reported in that
	// element only; the returned error is reserved for failures that prevent
	// any resolution from being attempted.
	ResolveProgramImports(p *program.Program) ([]ImportResult, error)

	// FindRecords enumerates encrypted records. An empty slice is a valid result.
	FindRecords() ([]record.Ciphertext, error)

	// FindUnspentRecords enumerates decrypted, spendable records.
	FindUnspentRecords() ([]record.Plaintext, error)
}

// ImportLoader loads a single imported program by id. Every strategy in this
// package implements it; ResolveImportsConcurrently depends on it.
type ImportLoader interface {
	LoadImport(id program.ID) (*program.Program, error)
}

// ImportResult is the outcome of resolving one import.
// Exactly one of Program or Err is set.
type ImportResult struct {
	ID      program.ID
	Program *program.Program
	Err     error
}

// OK reports whether the import was resolved.
func (r ImportResult) OK() bool { return r.Err == nil && r.Program != nil }

// Failed returns the results that did not resolve, preserving order.
func Failed(results []ImportResult) []ImportResult {
	var out []ImportResult
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Remote is the network-facing source used by Network and Hybrid.
//
// Contract:
//   - Program returns the raw source stored for id, or an error of
//     program.KindNotFound when the remote has no such program.
//   - Records and UnspentRecords return encoded records; an empty slice is valid.
type Remote interface {
	Program(id program.ID) ([]byte, error)
	Records() ([]string, error)
	UnspentRecords() ([]string, error)
}

func resolveImports(op string, l ImportLoader, p *program.Program) ([]ImportResult, error) {
	if p == nil {
		return nil, program.NewError(program.KindConfiguration, op, "a program is required to resolve imports")
	}
	ids := p.Imports()
	out := make([]ImportResult, 0, len(ids))
	for _, id := range ids {
		prog, err := l.LoadImport(id)
		out = append(out, newImportResult(id, prog, err))
	}
	return out, nil
}

func newImportResult(id program.ID, prog *program.Program, err error) ImportResult {
	if err != nil {
		return ImportResult{ID: id, Err: err}
	}
	return ImportResult{ID: id, Program: prog}
}
