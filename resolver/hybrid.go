package resolver

import (
	"fmt"
	"log/slog"

	"xdao.co/progload/program"
	"xdao.co/progload/record"
)

// Hybrid resolves from the local filesystem first and falls back to the
// network when the local half cannot satisfy a request.
//
// A Hybrid constructed without a Remote is unconfigured: every operation
// fails with a program.KindConfiguration error instead of returning empty
// results.
type Hybrid struct {
	local  *FileSystem
	remote *Network
	log    *slog.Logger
}

var (
	_ Resolver     = (*Hybrid)(nil)
	_ ImportLoader = (*Hybrid)(nil)
)

// NewHybrid returns a Hybrid rooted at root. root is validated eagerly, as
// for NewFileSystem. remote may be nil, which yields the unconfigured form.
func NewHybrid(root string, remote Remote, opts ...Option) (*Hybrid, error) {
	local, err := NewFileSystem(root, opts...)
	if err != nil {
		return nil, err
	}
	h := &Hybrid{local: local, log: local.log}
	if remote != nil {
		h.remote, err = NewNetwork(remote, opts...)
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hybrid) Name() string { return "hybrid" }

// Configured reports whether a network fallback is attached.
func (h *Hybrid) Configured() bool { return h.remote != nil }

// Root returns the local package directory.
func (h *Hybrid) Root() string { return h.local.Root() }

// ImportDirectory returns the local import directory.
func (h *Hybrid) ImportDirectory() string { return h.local.ImportDirectory() }

func unconfigured(op, action string) error {
	return program.NewError(program.KindConfiguration, op,
		fmt.Sprintf("a functional resolver is required to %s, please configure one", action))
}

func (h *Hybrid) LoadProgram(id program.ID) (*program.Program, error) {
	if !h.Configured() {
		return nil, unconfigured("load_program", "load programs")
	}
	prog, err := h.local.LoadProgram(id)
	if err == nil {
		return prog, nil
	}
	h.fallback("load_program", id, err)
	return h.remote.LoadProgram(id)
}

// LoadImport tries the local import directory, then the network. The
// network result is returned verbatim.
func (h *Hybrid) LoadImport(id program.ID) (*program.Program, error) {
	if !h.Configured() {
		return nil, unconfigured("load_import", "resolve imports")
	}
	prog, err := h.local.LoadImport(id)
	if err == nil {
		return prog, nil
	}
	h.fallback("load_import", id, err)
	return h.remote.LoadImport(id)
}

func (h *Hybrid) ResolveProgramImports(p *program.Program) ([]ImportResult, error) {
	if !h.Configured() {
		return nil, unconfigured("resolve_program_imports", "resolve imports")
	}
	return resolveImports("resolve_program_imports", h, p)
}

// FindRecords returns the local records followed by network records not
// already present locally.
func (h *Hybrid) FindRecords() ([]record.Ciphertext, error) {
	if !h.Configured() {
		return nil, unconfigured("find_records", "find records")
	}
	local, err := h.local.FindRecords()
	if err != nil {
		return nil, err
	}
	remote, err := h.remote.FindRecords()
	if err != nil {
		return nil, err
	}
	return union(local, remote), nil
}

func (h *Hybrid) FindUnspentRecords() ([]record.Plaintext, error) {
	if !h.Configured() {
		return nil, unconfigured("find_unspent_records", "find records")
	}
	local, err := h.local.FindUnspentRecords()
	if err != nil {
		return nil, err
	}
	remote, err := h.remote.FindUnspentRecords()
	if err != nil {
		return nil, err
	}
	return union(local, remote), nil
}

func (h *Hybrid) fallback(op string, id program.ID, localErr error) {
	h.log.Debug("local resolution failed, trying network",
		slog.String("op", op),
		slog.String("program", id.String()),
		slog.String("kind", string(program.KindOf(localErr))),
		slog.String("error", localErr.Error()),
	)
}

func union[T fmt.Stringer](first, second []T) []T {
	out := make([]T, 0, len(first)+len(second))
	seen := make(map[string]struct{}, len(first)+len(second))
	for _, list := range [][]T{first, second} {
		for _, r := range list {
			k := r.String()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
