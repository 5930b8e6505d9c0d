package resolver

import (
	"fmt"
	"log/slog"

	"xdao.co/progload/program"
	"xdao.co/progload/record"
)

// Network resolves programs and records through a Remote.
type Network struct {
	remote  Remote
	network program.Network
	log     *slog.Logger
}

var (
	_ Resolver     = (*Network)(nil)
	_ ImportLoader = (*Network)(nil)
)

// NewNetwork returns a Network backed by remote. A nil remote is a
// configuration error.
func NewNetwork(remote Remote, opts ...Option) (*Network, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if remote == nil {
		return nil, program.NewError(program.KindConfiguration, "new_resolver", "a remote is required for network resolution")
	}
	return &Network{remote: remote, network: o.network, log: o.logger}, nil
}

func (r *Network) Name() string { return "network" }

func (r *Network) LoadProgram(id program.ID) (*program.Program, error) {
	return r.fetch("load_program", id)
}

// LoadImport fetches id from the remote. Imports and top-level programs
// share one namespace on the network.
func (r *Network) LoadImport(id program.ID) (*program.Program, error) {
	return r.fetch("load_import", id)
}

func (r *Network) fetch(op string, id program.ID) (*program.Program, error) {
	src, err := r.remote.Program(id)
	if err != nil {
		if program.KindOf(err) != "" {
			return nil, err
		}
		return nil, program.WrapError(program.KindInternal, op, fmt.Sprintf("fetch %s", id), err)
	}
	prog, err := program.Parse(r.network, src)
	if err != nil {
		return nil, program.WrapError(program.KindParse, op, fmt.Sprintf("parse %s from network", id), err)
	}
	if prog.ID() != id {
		return nil, program.NewError(program.KindIdentityMismatch, op,
			fmt.Sprintf("network returned %s for requested %s", prog.ID(), id))
	}
	r.log.Debug("program fetched", slog.String("resolver", r.Name()), slog.String("program", id.String()), slog.String("cid", prog.CID()))
	return prog, nil
}

func (r *Network) ResolveProgramImports(p *program.Program) ([]ImportResult, error) {
	return resolveImports("resolve_program_imports", r, p)
}

func (r *Network) FindRecords() ([]record.Ciphertext, error) {
	raw, err := r.remote.Records()
	if err != nil {
		return nil, wrapRemote("find_records", err)
	}
	out := make([]record.Ciphertext, 0, len(raw))
	for i, s := range raw {
		c, err := record.ParseCiphertext(s)
		if err != nil {
			return nil, program.WrapError(program.KindParse, "find_records", fmt.Sprintf("record[%d]", i), err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Network) FindUnspentRecords() ([]record.Plaintext, error) {
	raw, err := r.remote.UnspentRecords()
	if err != nil {
		return nil, wrapRemote("find_unspent_records", err)
	}
	out := make([]record.Plaintext, 0, len(raw))
	for i, s := range raw {
		p, err := record.ParsePlaintext(s)
		if err != nil {
			return nil, program.WrapError(program.KindParse, "find_unspent_records", fmt.Sprintf("record[%d]", i), err)
		}
		out = append(out, p)
	}
	return out, nil
}

func wrapRemote(op string, err error) error {
	if program.KindOf(err) != "" {
		return err
	}
	return program.WrapError(program.KindInternal, op, "remote request failed", err)
}
