package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"xdao.co/progload/program"
)

// ResolveImportsConcurrently resolves the imports of p with up to limit
// loads in flight (limit <= 0 means unbounded). Results are in declaration
// order, exactly as ResolveProgramImports returns them.
//
// Per-import failures are reported per element. The returned error is
// non-nil only if p is nil, l reports that it is not configured, or ctx is
// done before all loads start.
func ResolveImportsConcurrently(ctx context.Context, l ImportLoader, p *program.Program, limit int) ([]ImportResult, error) {
	if p == nil {
		return nil, program.NewError(program.KindConfiguration, "resolve_program_imports", "a program is required to resolve imports")
	}
	if c, ok := l.(interface{ Configured() bool }); ok && !c.Configured() {
		return nil, unconfigured("resolve_program_imports", "resolve imports")
	}
	ids := p.Imports()
	out := make([]ImportResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			prog, err := l.LoadImport(id)
			out[i] = newImportResult(id, prog, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
