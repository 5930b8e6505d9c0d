// Command progload loads programs and their imports through a configured
// resolver strategy and manages the credential used to act on them.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"xdao.co/progload/config"
	"xdao.co/progload/internal/logging"
	"xdao.co/progload/resolver"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks failures caused by how the command was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	root := newRootCmd(out, errOut)
	if len(args) == 0 {
		root.SetOut(errOut)
		_ = root.Usage()
		return 2
	}
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return 2
	}
	return 1
}

// app carries global flags and output streams to subcommands.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	logFormat  string
	logLevel   string
	keyDir     string

	flags *pflag.FlagSet
	log   *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:   "progload",
		Short: "Locate programs and their imports, resolve credentials",
		Long: `progload loads a program by name through a resolver strategy
(filesystem, network or hybrid), resolves the program's direct imports one
by one, lists records known to the source and manages the private key used
to act on behalf of an account.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.New(a.errOut, a.logFormat, a.logLevel)
			if err != nil {
				return usageError{err}
			}
			a.log = log
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (yaml, json or toml)")
	pf.String("strategy", "", "Resolver strategy: filesystem, network or hybrid")
	pf.String("root", "", "Package root directory")
	pf.String("network", "", "Network: mainnet or testnet")
	pf.String("registry", "", "Registry gRPC target for network and hybrid strategies")
	pf.Duration("registry-timeout", 0, "Per-request registry timeout")
	pf.StringVar(&a.keyDir, "key-dir", "", "Key store directory (default ~/.progload/keys)")
	pf.StringVar(&a.logFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	a.flags = pf

	root.AddCommand(newLoadCmd(a))
	root.AddCommand(newImportsCmd(a))
	root.AddCommand(newRecordsCmd(a))
	root.AddCommand(newUnspentCmd(a))
	root.AddCommand(newCIDCmd(a))
	root.AddCommand(newKeyCmd(a))
	return root
}

func (a *app) config() (config.Config, error) {
	return config.Load(a.configPath, map[string]*pflag.Flag{
		"strategy":         a.flags.Lookup("strategy"),
		"root":             a.flags.Lookup("root"),
		"network":          a.flags.Lookup("network"),
		"registry.target":  a.flags.Lookup("registry"),
		"registry.timeout": a.flags.Lookup("registry-timeout"),
	})
}

func (a *app) resolver() (resolver.Resolver, func() error, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	return cfg.Open(resolver.WithLogger(a.log))
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: progload %s", usage)
		}
		return nil
	}
}
