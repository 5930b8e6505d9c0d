package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"xdao.co/progload/manifest"
	"xdao.co/progload/pkgdir"
	"xdao.co/progload/program"
	"xdao.co/progload/record"
)

// FileSystem resolves programs from a local package directory.
//
// The root holds the manifest and main program; imports are read from
// root/imports by identifier. FileSystem has no record store, so record
// enumeration always returns empty slices.
type FileSystem struct {
	root    string
	network program.Network
	log     *slog.Logger
}

var (
	_ Resolver     = (*FileSystem)(nil)
	_ ImportLoader = (*FileSystem)(nil)
)

// NewFileSystem returns a FileSystem rooted at root. root must exist and be
// a directory; otherwise a program.KindConfiguration error is returned and
// no resolver is constructed.
func NewFileSystem(root string, opts ...Option) (*FileSystem, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	return &FileSystem{root: filepath.Clean(root), network: o.network, log: o.logger}, nil
}

func checkRoot(root string) error {
	if root == "" {
		return program.NewError(program.KindConfiguration, "new_resolver", "a program directory is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return program.WrapError(program.KindConfiguration, "new_resolver", fmt.Sprintf("path %q does not exist", root), err)
		}
		return program.WrapError(program.KindConfiguration, "new_resolver", fmt.Sprintf("path %q is not accessible", root), err)
	}
	if !info.IsDir() {
		return program.NewError(program.KindConfiguration, "new_resolver", fmt.Sprintf("path %q is not a directory", root))
	}
	return nil
}

func (r *FileSystem) Name() string { return "filesystem" }

// Root returns the package directory.
func (r *FileSystem) Root() string { return r.root }

// ImportDirectory returns the directory imports are read from.
func (r *FileSystem) ImportDirectory() string { return filepath.Join(r.root, pkgdir.ImportsDir) }

func (r *FileSystem) LoadProgram(id program.ID) (*program.Program, error) {
	const op = "load_program"
	if info, err := os.Stat(r.root); err != nil || !info.IsDir() {
		return nil, program.WrapError(program.KindNotFound, op, fmt.Sprintf("program directory %q does not exist", r.root), err)
	}
	if !manifest.ExistsAt(r.root) {
		return nil, program.NewError(program.KindNotFound, op,
			fmt.Sprintf("ensure the manifest file exists in the program directory (missing %q at %q)", manifest.FileName, r.root))
	}
	m, err := manifest.Open(r.network, r.root)
	if err != nil {
		return nil, err
	}
	if m.ProgramID() != id {
		return nil, program.NewError(program.KindIdentityMismatch, op,
			fmt.Sprintf("the manifest at %q names %s, not the requested %s", r.root, m.ProgramID(), id))
	}
	pkg, err := pkgdir.Open(r.network, r.root)
	if err != nil {
		return nil, err
	}
	r.log.Debug("program loaded", slog.String("resolver", r.Name()), slog.String("program", id.String()), slog.String("root", r.root))
	return pkg.Program(), nil
}

// LoadImport opens id from the import directory.
func (r *FileSystem) LoadImport(id program.ID) (*program.Program, error) {
	return pkgdir.OpenFile(r.ImportDirectory(), id)
}

func (r *FileSystem) ResolveProgramImports(p *program.Program) ([]ImportResult, error) {
	return resolveImports("resolve_program_imports", r, p)
}

func (r *FileSystem) FindRecords() ([]record.Ciphertext, error) {
	return []record.Ciphertext{}, nil
}

func (r *FileSystem) FindUnspentRecords() ([]record.Plaintext, error) {
	return []record.Plaintext{}, nil
}
