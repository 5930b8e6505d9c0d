package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"xdao.co/progload/program"
)

func TestWriteOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if ExistsAt(dir) {
		t.Fatalf("expected no manifest in empty dir")
	}
	if err := Write(dir, Manifest{Program: "token.aleo", Version: "0.1.0"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !ExistsAt(dir) {
		t.Fatalf("expected manifest after Write")
	}
	m, err := Open(program.Testnet, dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if m.ProgramID() != program.MustParseID(program.Testnet, "token.aleo") {
		t.Fatalf("unexpected id %s", m.ProgramID())
	}
	if m.Version != "0.1.0" {
		t.Fatalf("unexpected version %q", m.Version)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(program.Testnet, t.TempDir())
	if !program.IsKind(err, program.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestOpenInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(program.Testnet, dir); !program.IsKind(err, program.KindParse) {
		t.Fatalf("expected KindParse, got %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(`{"program":"Bad"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(program.Testnet, dir); !program.IsKind(err, program.KindParse) {
		t.Fatalf("expected KindParse, got %v", err)
	}
}
