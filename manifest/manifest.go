// Package manifest reads and writes the descriptor that binds a program
// directory to exactly one program id.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"xdao.co/progload/program"
)

// FileName is the manifest file stored at the root of a program directory.
const FileName = "program.json"

// Manifest describes a program directory.
type Manifest struct {
	Program     string `json:"program"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	License     string `json:"license,omitempty"`

	id program.ID
}

// ProgramID returns the parsed program id the manifest declares.
func (m Manifest) ProgramID() program.ID { return m.id }

// ExistsAt reports whether dir contains a manifest file.
func ExistsAt(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil && info.Mode().IsRegular()
}

// Open reads and validates the manifest in dir.
func Open(network program.Network, dir string) (Manifest, error) {
	var m Manifest
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, program.WrapError(program.KindNotFound, "open_manifest", fmt.Sprintf("missing %q at %q", FileName, dir), err)
		}
		return m, program.WrapError(program.KindInternal, "open_manifest", fmt.Sprintf("read %q", path), err)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, program.WrapError(program.KindParse, "open_manifest", fmt.Sprintf("decode %q", path), err)
	}
	if m.Program == "" {
		return m, program.NewError(program.KindParse, "open_manifest", fmt.Sprintf("%q has no program id", path))
	}
	id, err := program.ParseID(network, m.Program)
	if err != nil {
		return m, err
	}
	m.id = id
	return m, nil
}

// Write stores m in dir, creating dir if needed.
func Write(dir string, m Manifest) error {
	if m.Program == "" {
		return errors.New("manifest: program id is required")
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), append(b, '\n'), 0o644)
}
