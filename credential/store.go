package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xdao.co/progload/keys"
	"xdao.co/progload/program"
)

const (
	PlaintextFileName  = "private.key"
	CiphertextFileName = "private.key.enc"
)

// Store keeps named credentials on the local filesystem, one directory per
// name holding private.key, private.key.enc, or (misconfigured) both.
type Store struct {
	Directory string
}

// Entry describes one stored credential.
type Entry struct {
	Name      string
	Plaintext bool
	Encrypted bool
}

func DefaultDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".progload", "keys"), nil
}

// OpenStore returns a Store rooted at directory, or at DefaultDirectory when
// directory is empty.
func OpenStore(directory string) (*Store, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &Store{Directory: directory}, nil
}

func CheckName(name string) error {
	if name == "" {
		return errors.New("credential name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in credential name", char)
	}
	return nil
}

func (s *Store) path(name, file string) string {
	return filepath.Join(s.Directory, name, file)
}

// SavePrivateKey writes k in the clear. With overwrite false an existing
// file is an error.
func (s *Store) SavePrivateKey(name string, k keys.PrivateKey, overwrite bool) (string, error) {
	if k.IsZero() {
		return "", errors.New("refusing to store an empty private key")
	}
	return s.save(name, PlaintextFileName, k.Text(), overwrite)
}

// SaveCiphertext writes an encrypted key.
func (s *Store) SaveCiphertext(name string, c keys.Ciphertext, overwrite bool) (string, error) {
	if c.IsZero() {
		return "", errors.New("refusing to store an empty ciphertext")
	}
	return s.save(name, CiphertextFileName, c.String(), overwrite)
}

// RemovePrivateKey deletes the plaintext file, typically after encrypting it.
func (s *Store) RemovePrivateKey(name string) error {
	return s.remove(name, PlaintextFileName)
}

// RemoveCiphertext deletes the encrypted file.
func (s *Store) RemoveCiphertext(name string) error {
	return s.remove(name, CiphertextFileName)
}

func (s *Store) remove(name, file string) error {
	if err := CheckName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name, file))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) save(name, file, text string, overwrite bool) (string, error) {
	if err := CheckName(name); err != nil {
		return "", err
	}
	path := s.path(name, file)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(text + "\n"); err != nil {
		return "", err
	}
	return path, f.Close()
}

// Load reads the raw two-field form for name. Both files present is
// reported later by Config.Source or ResolvePrivateKey; neither present is a
// program.KindNotFound error.
func (s *Store) Load(name string) (Config, error) {
	const op = "credential_store"
	if err := CheckName(name); err != nil {
		return Config{}, program.WrapError(program.KindConfiguration, op, "invalid credential name", err)
	}
	var cfg Config
	var found bool
	for _, f := range []struct {
		file string
		dst  *string
	}{
		{PlaintextFileName, &cfg.PrivateKey},
		{CiphertextFileName, &cfg.PrivateKeyCiphertext},
	} {
		data, err := os.ReadFile(s.path(name, f.file))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, program.WrapError(program.KindInternal, op, "read "+f.file, err)
		}
		*f.dst = strings.TrimSpace(string(data))
		found = true
	}
	if !found {
		return Config{}, program.NewError(program.KindNotFound, op, fmt.Sprintf("no credential named %q", name))
	}
	return cfg, nil
}

// Manager loads name and returns a Manager for it on network.
func (s *Store) Manager(network program.Network, name string) (*Manager, error) {
	cfg, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	return NewManagerFromConfig(network, cfg)
}

// List returns stored credentials sorted by name.
func (s *Store) List() ([]Entry, error) {
	dirs, err := os.ReadDir(s.Directory)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []Entry{}
	for _, d := range dirs {
		if !d.IsDir() || CheckName(d.Name()) != nil {
			continue
		}
		e := Entry{Name: d.Name()}
		if _, err := os.Stat(s.path(d.Name(), PlaintextFileName)); err == nil {
			e.Plaintext = true
		}
		if _, err := os.Stat(s.path(d.Name(), CiphertextFileName)); err == nil {
			e.Encrypted = true
		}
		if e.Plaintext || e.Encrypted {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
