// Package testkit provides fixtures and a conformance suite shared by
// resolver strategy tests.
package testkit

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"xdao.co/progload/manifest"
	"xdao.co/progload/pkgdir"
	"xdao.co/progload/program"
)

// Source returns program text declaring name with the given imports.
func Source(name string, imports ...string) []byte {
	var b []byte
	for _, imp := range imports {
		b = append(b, "import "+imp+";\n"...)
	}
	b = append(b, "\nprogram "+name+";\n\nfunction main:\n    input r0 as u64.private;\n"...)
	return b
}

// WritePackage writes a manifest naming manifestID and a main program
// declaring name with imports into root.
func WritePackage(t *testing.T, root, manifestID, name string, imports ...string) {
	t.Helper()
	if err := manifest.Write(root, manifest.Manifest{Program: manifestID, Version: "0.1.0"}); err != nil {
		t.Fatalf("manifest.Write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, pkgdir.MainFile), Source(name, imports...), 0o644); err != nil {
		t.Fatalf("write main: %v", err)
	}
}

// WriteImport writes an imported program into root/imports.
func WriteImport(t *testing.T, root, name string, imports ...string) {
	t.Helper()
	dir := filepath.Join(root, pkgdir.ImportsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir imports: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), Source(name, imports...), 0o644); err != nil {
		t.Fatalf("write import: %v", err)
	}
}

// MustParse parses src on the test network.
func MustParse(t *testing.T, src []byte) *program.Program {
	t.Helper()
	p, err := program.Parse(program.Testnet, src)
	if err != nil {
		t.Fatalf("program.Parse: %v", err)
	}
	return p
}

// MemRemote is an in-memory resolver.Remote.
type MemRemote struct {
	mu       sync.Mutex
	programs map[string][]byte
	records  []string
	unspent  []string
	calls    int
	// Err, when set, is returned by every method.
	Err error
}

// NewMemRemote returns an empty MemRemote.
func NewMemRemote() *MemRemote {
	return &MemRemote{programs: make(map[string][]byte)}
}

// AddProgram stores src under name.
func (m *MemRemote) AddProgram(name string, src []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programs[name] = append([]byte(nil), src...)
}

// AddRecords appends encoded ciphertext and plaintext records.
func (m *MemRemote) AddRecords(ciphertexts, plaintexts []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, ciphertexts...)
	m.unspent = append(m.unspent, plaintexts...)
}

// Calls returns the number of requests served so far.
func (m *MemRemote) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemRemote) Program(id program.ID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	b, ok := m.programs[id.String()]
	if !ok {
		return nil, program.NewError(program.KindNotFound, "remote_program", id.String()+" not found on network")
	}
	return append([]byte(nil), b...), nil
}

func (m *MemRemote) Records() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]string{}, m.records...), nil
}

func (m *MemRemote) UnspentRecords() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]string{}, m.unspent...), nil
}
