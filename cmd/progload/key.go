package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xdao.co/progload/credential"
	"xdao.co/progload/keys"
	"xdao.co/progload/program"
)

// passwordFlags selects where a password is read from. A password is never
// accepted as a literal flag value.
type passwordFlags struct {
	env  string
	file string
}

func (p *passwordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.env, "password-env", "", "Read the password from this environment variable")
	cmd.Flags().StringVar(&p.file, "password-file", "", "Read the password from the first line of this file")
}

// read returns "" when no source was given.
func (p *passwordFlags) read() (string, error) {
	switch {
	case p.env != "" && p.file != "":
		return "", usagef("use only one of --password-env and --password-file")
	case p.env != "":
		return os.Getenv(p.env), nil
	case p.file != "":
		b, err := os.ReadFile(p.file)
		if err != nil {
			return "", fmt.Errorf("read password file: %w", err)
		}
		line, _, _ := strings.Cut(string(b), "\n")
		return strings.TrimRight(line, "\r"), nil
	default:
		return "", nil
	}
}

func (a *app) store() (*credential.Store, error) {
	return credential.OpenStore(a.keyDir)
}

func (a *app) network() (program.Network, error) {
	cfg, err := a.config()
	if err != nil {
		return "", err
	}
	return cfg.ProgramNetwork()
}

// manager returns the manager for a stored key, or for the credential in the
// loaded configuration when name is empty.
func (a *app) manager(name string) (*credential.Manager, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return cfg.CredentialManager()
	}
	network, err := cfg.ProgramNetwork()
	if err != nil {
		return nil, err
	}
	ks, err := a.store()
	if err != nil {
		return nil, err
	}
	return ks.Manager(network, name)
}

func parseScheme(s string) (keys.Scheme, error) {
	switch keys.Scheme(s) {
	case keys.SchemeEd25519, keys.SchemeDilithium3:
		return keys.Scheme(s), nil
	default:
		return "", usagef("unknown --scheme %q (want ed25519 or dilithium3)", s)
	}
}

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage local private keys",
		Long: `Keys are stored under <key-dir>/<name>/ as private.key (plaintext) or
private.key.enc (encrypted with a password). Having both files for one name
is a configuration error.`,
	}
	cmd.AddCommand(newKeyNewCmd(a))
	cmd.AddCommand(newKeyEncryptCmd(a))
	cmd.AddCommand(newKeyShowCmd(a))
	cmd.AddCommand(newKeyListCmd(a))
	cmd.AddCommand(newKeySignCmd(a))
	return cmd
}

func newKeyNewCmd(a *app) *cobra.Command {
	var (
		name  string
		seed  string
		force bool
		pw    passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "new --name <name>",
		Short: "Create a private key, encrypted when a password is given",
		Args:  exactArgs(0, "key new --name <name> [--password-env VAR | --password-file FILE] [--force]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := credential.CheckName(name); err != nil {
				return usagef("invalid --name: %v", err)
			}
			password, err := pw.read()
			if err != nil {
				return err
			}
			var k keys.PrivateKey
			if seed != "" {
				k, err = keys.ParsePrivateKey(seed)
				if err != nil {
					return usagef("invalid --from: %v", err)
				}
			} else if k, err = keys.GeneratePrivateKey(rand.Reader); err != nil {
				return err
			}
			ks, err := a.store()
			if err != nil {
				return err
			}
			if !force {
				if _, lerr := ks.Load(name); lerr == nil {
					return fmt.Errorf("key %s already exists (use --force to replace it)", name)
				}
			}

			var path string
			if password == "" {
				path, err = ks.SavePrivateKey(name, k, force)
				if err == nil && force {
					err = ks.RemoveCiphertext(name)
				}
			} else {
				network, nerr := a.network()
				if nerr != nil {
					return nerr
				}
				ct, eerr := keys.EncryptPrivateKey(rand.Reader, network, k, password)
				if eerr != nil {
					return eerr
				}
				path, err = ks.SaveCiphertext(name, ct, force)
				if err == nil && force {
					err = ks.RemovePrivateKey(name)
				}
			}
			if err != nil {
				return fmt.Errorf("write key: %w", err)
			}
			addr, err := k.Address(keys.SchemeEd25519)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created key: %s\n", addr)
			fmt.Fprintf(a.out, "Stored at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Key name (directory under the key store)")
	cmd.Flags().StringVar(&seed, "from", "", "Import an existing pk1... private key instead of generating one")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing key files")
	pw.register(cmd)
	return cmd
}

func newKeyEncryptCmd(a *app) *cobra.Command {
	var (
		name string
		keep bool
		pw   passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "encrypt --name <name>",
		Short: "Encrypt a stored plaintext key with a password",
		Args:  exactArgs(0, "key encrypt --name <name> (--password-env VAR | --password-file FILE) [--keep-plaintext]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := credential.CheckName(name); err != nil {
				return usagef("invalid --name: %v", err)
			}
			password, err := pw.read()
			if err != nil {
				return err
			}
			if password == "" {
				return usagef("a password is required (--password-env or --password-file)")
			}
			ks, err := a.store()
			if err != nil {
				return err
			}
			cfg, err := ks.Load(name)
			if err != nil {
				return err
			}
			if cfg.PrivateKey == "" {
				return errors.New("key " + name + " is already encrypted")
			}
			network, err := a.network()
			if err != nil {
				return err
			}
			k, err := credential.ResolvePrivateKey(network, credential.Config{PrivateKey: cfg.PrivateKey}, "")
			if err != nil {
				return err
			}
			ct, err := keys.EncryptPrivateKey(rand.Reader, network, k, password)
			if err != nil {
				return err
			}
			path, err := ks.SaveCiphertext(name, ct, true)
			if err != nil {
				return fmt.Errorf("write key: %w", err)
			}
			if !keep {
				if err := ks.RemovePrivateKey(name); err != nil {
					return fmt.Errorf("remove plaintext key: %w", err)
				}
			}
			fmt.Fprintf(a.out, "Encrypted key stored at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Key name")
	cmd.Flags().BoolVar(&keep, "keep-plaintext", false, "Keep private.key next to the encrypted file (makes the key unusable until one is removed)")
	pw.register(cmd)
	return cmd
}

func newKeyShowCmd(a *app) *cobra.Command {
	var (
		name   string
		scheme string
		pw     passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "show [--name <name>]",
		Short: "Resolve a key and print its address",
		Long: `Resolve a stored key (or, without --name, the credential from the
configuration) and print its public address. Encrypted keys need a password.`,
		Args: exactArgs(0, "key show [--name <name>] [--scheme ed25519|dilithium3] [--password-env VAR | --password-file FILE]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := parseScheme(scheme)
			if err != nil {
				return err
			}
			password, err := pw.read()
			if err != nil {
				return err
			}
			m, err := a.manager(name)
			if err != nil {
				return err
			}
			addr, err := m.Address(password, s)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Key name (default: credential from configuration)")
	cmd.Flags().StringVar(&scheme, "scheme", string(keys.SchemeEd25519), "Address scheme: ed25519 or dilithium3")
	pw.register(cmd)
	return cmd
}

func newKeyListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  exactArgs(0, "key list"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := a.store()
			if err != nil {
				return err
			}
			entries, err := ks.List()
			if err != nil {
				return err
			}
			for _, e := range entries {
				state := "plaintext"
				switch {
				case e.Plaintext && e.Encrypted:
					state = "conflict"
				case e.Encrypted:
					state = "encrypted"
				}
				fmt.Fprintf(a.out, "%s\t%s\n", e.Name, state)
			}
			return nil
		},
	}
}

func newKeySignCmd(a *app) *cobra.Command {
	var (
		name    string
		scheme  string
		hashAlg string
		pw      passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "sign <file>",
		Short: "Sign a file with a resolved key",
		Args:  exactArgs(1, "key sign <file> [--name <name>] [--scheme ed25519|dilithium3] [--hash sha256|sha512|sha3-256]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseScheme(scheme)
			if err != nil {
				return err
			}
			msg, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			password, err := pw.read()
			if err != nil {
				return err
			}
			m, err := a.manager(name)
			if err != nil {
				return err
			}
			sig, err := m.Sign(password, s, hashAlg, msg)
			if err != nil {
				return err
			}
			addr, err := m.Address(password, s)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "address: %s\n", addr)
			fmt.Fprintf(a.out, "hash: %s\n", hashAlg)
			fmt.Fprintf(a.out, "signature: %s\n", sig)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Key name (default: credential from configuration)")
	cmd.Flags().StringVar(&scheme, "scheme", string(keys.SchemeEd25519), "Signature scheme: ed25519 or dilithium3")
	cmd.Flags().StringVar(&hashAlg, "hash", "sha256", "Digest: sha256, sha512 or sha3-256")
	pw.register(cmd)
	return cmd
}
