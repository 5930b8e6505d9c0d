package registry

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"xdao.co/progload/pkgdir"
	"xdao.co/progload/program"
	"xdao.co/progload/record"
)

// Store is the backing data a Server exposes.
//
// Program returns an error wrapping ErrNotFound (or of program.KindNotFound)
// when id is unknown.
type Store interface {
	Program(id program.ID) ([]byte, error)
	Records() ([]string, error)
	UnspentRecords() ([]string, error)
}

const (
	ProgramsDir = "programs"
	RecordsFile = "records"
	UnspentFile = "unspent"
)

// DirStore is a Store laid out on disk as:
//
//	<root>/programs/<name>.aleo
//	<root>/records   one encrypted record per line
//	<root>/unspent   one plaintext record per line
type DirStore struct {
	root string
	mu   sync.Mutex
}

var _ Store = (*DirStore)(nil)

// NewDirStore opens root, which must be an existing directory.
func NewDirStore(root string) (*DirStore, error) {
	if root == "" {
		return nil, errors.New("registry: store root is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("registry: store root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("registry: store root %s is not a directory", root)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) Root() string { return s.root }

func (s *DirStore) Program(id program.ID) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(s.root, ProgramsDir, id.FileName()))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, err
}

// PutProgram publishes p under its own identity and returns its path.
func (s *DirStore) PutProgram(p *program.Program) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pkgdir.WriteFile(filepath.Join(s.root, ProgramsDir), p)
}

func (s *DirStore) Records() ([]string, error) {
	return s.readLines(RecordsFile)
}

func (s *DirStore) UnspentRecords() ([]string, error) {
	return s.readLines(UnspentFile)
}

// AddRecords appends encrypted records.
func (s *DirStore) AddRecords(rs ...record.Ciphertext) error {
	lines := make([]string, 0, len(rs))
	for _, r := range rs {
		lines = append(lines, r.String())
	}
	return s.appendLines(RecordsFile, lines)
}

// AddUnspentRecords appends plaintext records. Each must fit on one line.
func (s *DirStore) AddUnspentRecords(rs ...record.Plaintext) error {
	lines := make([]string, 0, len(rs))
	for _, r := range rs {
		if strings.ContainsAny(r.String(), "\r\n") {
			return fmt.Errorf("registry: plaintext record spans multiple lines")
		}
		lines = append(lines, r.String())
	}
	return s.appendLines(UnspentFile, lines)
}

func (s *DirStore) readLines(name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(filepath.Join(s.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []string{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func (s *DirStore) appendLines(name string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return err
	}
	return f.Close()
}
