package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xdao.co/progload/cidutil"
	"xdao.co/progload/program"
	"xdao.co/progload/resolver"
)

func (a *app) parseID(name string) (program.ID, error) {
	cfg, err := a.config()
	if err != nil {
		return program.ID{}, err
	}
	network, err := cfg.ProgramNetwork()
	if err != nil {
		return program.ID{}, err
	}
	id, err := program.ParseID(network, name)
	if err != nil {
		return program.ID{}, usageError{err}
	}
	return id, nil
}

func newLoadCmd(a *app) *cobra.Command {
	var showSource bool
	cmd := &cobra.Command{
		Use:   "load <name.aleo>",
		Short: "Load a program and print its identity and imports",
		Args:  exactArgs(1, "load <name.aleo>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.parseID(args[0])
			if err != nil {
				return err
			}
			r, closeFn, err := a.resolver()
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := r.LoadProgram(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "program: %s\n", p.ID())
			fmt.Fprintf(a.out, "network: %s\n", p.ID().Network)
			fmt.Fprintf(a.out, "cid: %s\n", p.CID())
			fmt.Fprintf(a.out, "resolver: %s\n", r.Name())
			for _, imp := range p.Imports() {
				fmt.Fprintf(a.out, "import: %s\n", imp)
			}
			if showSource {
				fmt.Fprintln(a.out)
				_, _ = a.out.Write(p.Source())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSource, "source", false, "Also print the program source")
	return cmd
}

func newImportsCmd(a *app) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "imports <name.aleo>",
		Short: "Resolve the direct imports of a program",
		Long: `Resolve each direct import of a program and print one line per import,
in declaration order. Exits 1 if any import failed to resolve.`,
		Args: exactArgs(1, "imports <name.aleo> [--concurrency N]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 0 {
				return usagef("--concurrency must not be negative")
			}
			id, err := a.parseID(args[0])
			if err != nil {
				return err
			}
			r, closeFn, err := a.resolver()
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := r.LoadProgram(id)
			if err != nil {
				return err
			}
			results, err := resolveImports(cmd.Context(), r, p, concurrency)
			if err != nil {
				return err
			}
			for _, res := range results {
				if res.OK() {
					fmt.Fprintf(a.out, "ok\t%s\t%s\n", res.ID, res.Program.CID())
					continue
				}
				fmt.Fprintf(a.out, "error\t%s\t%s: %v\n", res.ID, program.KindOf(res.Err), res.Err)
			}
			if failed := resolver.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d imports failed to resolve", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Load imports in parallel with this many workers (0 resolves sequentially)")
	return cmd
}

func resolveImports(ctx context.Context, r resolver.Resolver, p *program.Program, concurrency int) ([]resolver.ImportResult, error) {
	if concurrency == 0 {
		return r.ResolveProgramImports(p)
	}
	l, ok := r.(resolver.ImportLoader)
	if !ok {
		return r.ResolveProgramImports(p)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return resolver.ResolveImportsConcurrently(ctx, l, p, concurrency)
}

func newRecordsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "List encrypted records known to the resolver",
		Args:  exactArgs(0, "records"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, closeFn, err := a.resolver()
			if err != nil {
				return err
			}
			defer closeFn()
			recs, err := r.FindRecords()
			if err != nil {
				return err
			}
			for _, rec := range recs {
				fmt.Fprintln(a.out, rec)
			}
			return nil
		},
	}
}

func newUnspentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unspent",
		Short: "List spendable plaintext records known to the resolver",
		Args:  exactArgs(0, "unspent"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, closeFn, err := a.resolver()
			if err != nil {
				return err
			}
			defer closeFn()
			recs, err := r.FindUnspentRecords()
			if err != nil {
				return err
			}
			for _, rec := range recs {
				fmt.Fprintln(a.out, rec)
			}
			return nil
		},
	}
}

func newCIDCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cid <file>",
		Short: "Print the content id of a file",
		Args:  exactArgs(1, "cid <file>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			id, err := cidutil.ContentID(b)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	}
}
