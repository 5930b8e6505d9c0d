// Package pkgdir opens programs from the on-disk package layout:
//
//	root/program.json       manifest naming the main program
//	root/main.aleo          main program source
//	root/imports/<id>       one file per imported program, e.g. token.aleo
package pkgdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"xdao.co/progload/manifest"
	"xdao.co/progload/program"
)

const (
	// MainFile holds the source of the package's main program.
	MainFile = "main.aleo"
	// ImportsDir holds imported program sources as siblings.
	ImportsDir = "imports"
)

// Package is an opened program directory.
type Package struct {
	Root     string
	Manifest manifest.Manifest
	program  *program.Program
}

// Program returns the package's main program.
func (p *Package) Program() *program.Program { return p.program }

// Open opens the package rooted at root. The main program must declare the
// same id as the manifest.
func Open(network program.Network, root string) (*Package, error) {
	m, err := manifest.Open(network, root)
	if err != nil {
		return nil, err
	}
	prog, err := readProgram(network, filepath.Join(root, MainFile))
	if err != nil {
		return nil, err
	}
	if prog.ID() != m.ProgramID() {
		return nil, program.NewError(program.KindIdentityMismatch, "open_package",
			fmt.Sprintf("%s declares %s but the manifest names %s", MainFile, prog.ID(), m.ProgramID()))
	}
	return &Package{Root: root, Manifest: m, program: prog}, nil
}

// OpenFile opens the program stored for id in dir (dir/<id>). The file must
// declare id itself.
func OpenFile(dir string, id program.ID) (*program.Program, error) {
	prog, err := readProgram(id.Network, filepath.Join(dir, id.FileName()))
	if err != nil {
		return nil, err
	}
	if prog.ID() != id {
		return nil, program.NewError(program.KindIdentityMismatch, "open_file",
			fmt.Sprintf("%s declares %s", id.FileName(), prog.ID()))
	}
	return prog, nil
}

// WriteFile stores source for a program in dir under the program's file name.
func WriteFile(dir string, prog *program.Program) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, prog.ID().FileName())
	return path, os.WriteFile(path, prog.Source(), 0o644)
}

func readProgram(network program.Network, path string) (*program.Program, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, program.WrapError(program.KindNotFound, "read_program", fmt.Sprintf("program file %q not found", path), err)
		}
		return nil, program.WrapError(program.KindInternal, "read_program", fmt.Sprintf("read %q", path), err)
	}
	prog, err := program.Parse(network, b)
	if err != nil {
		return nil, program.WrapError(program.KindParse, "read_program", fmt.Sprintf("parse %q", path), err)
	}
	return prog, nil
}
