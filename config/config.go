// Package config selects and opens a resolver strategy and the credential
// used with it.
//
// Values come, in increasing precedence, from built-in defaults, a config
// file (yaml, json or toml), PROGLOAD_* environment variables and bound
// command-line flags.
//
// Example (yaml):
//
//	strategy: hybrid
//	network: testnet
//	root: ./swap
//	registry:
//	  target: 127.0.0.1:7788
//	  timeout: 10s
//	credential:
//	  private_key_ciphertext: pkct1:...
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"xdao.co/progload/credential"
	"xdao.co/progload/program"
	"xdao.co/progload/registry"
	"xdao.co/progload/resolver"
)

// EnvPrefix is prepended to environment variable names, with dots in keys
// replaced by underscores (PROGLOAD_REGISTRY_TARGET).
const EnvPrefix = "PROGLOAD"

type Strategy string

const (
	StrategyFileSystem Strategy = "filesystem"
	StrategyNetwork    Strategy = "network"
	StrategyHybrid     Strategy = "hybrid"
)

type Config struct {
	Strategy   Strategy          `mapstructure:"strategy" yaml:"strategy"`
	Network    string            `mapstructure:"network" yaml:"network"`
	Root       string            `mapstructure:"root" yaml:"root,omitempty"`
	Registry   RegistryConfig    `mapstructure:"registry" yaml:"registry,omitempty"`
	Credential credential.Config `mapstructure:"credential" yaml:"credential,omitempty"`
}

type RegistryConfig struct {
	// Target is a gRPC dial target. Empty leaves a hybrid resolver
	// without its network half.
	Target      string        `mapstructure:"target" yaml:"target,omitempty"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout,omitempty"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
	MaxMsgBytes int           `mapstructure:"max_msg_bytes" yaml:"max_msg_bytes,omitempty"`
}

// Defaults are applied before any file, environment or flag value.
func Defaults() map[string]any {
	return map[string]any{
		"strategy":                          string(StrategyFileSystem),
		"network":                           string(program.Testnet),
		"root":                              ".",
		"registry.target":                   "",
		"registry.dial_timeout":             "5s",
		"registry.timeout":                  "10s",
		"registry.max_msg_bytes":            0,
		"credential.private_key":            "",
		"credential.private_key_ciphertext": "",
	}
}

// Load reads path (optional) and the environment, then applies flags.
// flags maps config keys such as "registry.target" to the flag that sets
// them; a flag only wins when it was set on the command line.
func Load(path string, flags map[string]*pflag.Flag) (Config, error) {
	var c Config
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, program.WrapError(program.KindConfiguration, "load_config", fmt.Sprintf("read config %s", path), err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return c, program.WrapError(program.KindConfiguration, "load_config", "bind flag "+flag.Name, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, program.WrapError(program.KindConfiguration, "load_config", "decode config", err)
	}
	return c, c.Validate()
}

func invalid(format string, args ...any) error {
	return program.NewError(program.KindConfiguration, "validate_config", fmt.Sprintf(format, args...))
}

func (c Config) Validate() error {
	if _, err := program.ParseNetwork(c.Network); err != nil {
		return err
	}
	switch c.Strategy {
	case StrategyFileSystem, StrategyHybrid:
		if c.Root == "" {
			return invalid("root is required for the %s strategy", c.Strategy)
		}
	case StrategyNetwork:
		if c.Registry.Target == "" {
			return invalid("registry.target is required for the network strategy")
		}
	default:
		return invalid("invalid strategy %q", c.Strategy)
	}
	if c.Registry.DialTimeout < 0 || c.Registry.Timeout < 0 {
		return invalid("registry timeouts must not be negative")
	}
	if c.Registry.MaxMsgBytes < 0 {
		return invalid("registry.max_msg_bytes must not be negative")
	}
	if _, err := c.Credential.Source(); err != nil {
		return err
	}
	return nil
}

// ProgramNetwork returns the validated network.
func (c Config) ProgramNetwork() (program.Network, error) {
	return program.ParseNetwork(c.Network)
}

// DialRegistry connects to the configured registry.
func (c Config) DialRegistry() (*registry.Client, error) {
	network, err := c.ProgramNetwork()
	if err != nil {
		return nil, err
	}
	client, err := registry.Dial(c.Registry.Target, registry.DialOptions{
		Network:     network,
		Timeout:     c.Registry.DialTimeout,
		MaxMsgBytes: c.Registry.MaxMsgBytes,
	})
	if err != nil {
		return nil, err
	}
	client.Timeout = c.Registry.Timeout
	return client, nil
}

// Open builds the configured resolver. The returned close function releases
// the registry connection, if any, and is never nil on success.
func (c Config) Open(opts ...resolver.Option) (resolver.Resolver, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	network, err := c.ProgramNetwork()
	if err != nil {
		return nil, nil, err
	}
	opts = append([]resolver.Option{resolver.WithNetwork(network)}, opts...)
	noop := func() error { return nil }

	switch c.Strategy {
	case StrategyFileSystem:
		r, err := resolver.NewFileSystem(c.Root, opts...)
		if err != nil {
			return nil, nil, err
		}
		return r, noop, nil

	case StrategyNetwork:
		client, err := c.DialRegistry()
		if err != nil {
			return nil, nil, err
		}
		r, err := resolver.NewNetwork(client, opts...)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return r, client.Close, nil

	case StrategyHybrid:
		if c.Registry.Target == "" {
			r, err := resolver.NewHybrid(c.Root, nil, opts...)
			if err != nil {
				return nil, nil, err
			}
			return r, noop, nil
		}
		client, err := c.DialRegistry()
		if err != nil {
			return nil, nil, err
		}
		r, err := resolver.NewHybrid(c.Root, client, opts...)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return r, client.Close, nil

	default:
		return nil, nil, invalid("invalid strategy %q", c.Strategy)
	}
}

// CredentialManager returns a manager for the configured credential.
func (c Config) CredentialManager() (*credential.Manager, error) {
	network, err := c.ProgramNetwork()
	if err != nil {
		return nil, err
	}
	return credential.NewManagerFromConfig(network, c.Credential)
}

// WriteFile renders c as yaml. The file may hold a private key, so it is
// written with mode 0600.
func (c Config) WriteFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
