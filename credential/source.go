// Package credential decides which private key acts on behalf of a user.
//
// A Source holds at most one of a plaintext key or an encrypted key. The
// "both" case cannot be constructed from a Source; it can only arise from
// the raw two-field Config, where it is rejected as a configuration error.
package credential

import (
	"xdao.co/progload/keys"
	"xdao.co/progload/program"
)

type state uint8

const (
	stateUnset state = iota
	statePlaintext
	stateCiphertext
)

// Source is where a Manager obtains its key. The zero Source is Unset.
type Source struct {
	state      state
	key        keys.PrivateKey
	ciphertext keys.Ciphertext
}

// Unset returns a Source with no credential.
func Unset() Source { return Source{} }

// FromPrivateKey returns a Source holding k in the clear.
func FromPrivateKey(k keys.PrivateKey) Source {
	return Source{state: statePlaintext, key: k}
}

// FromCiphertext returns a Source holding an encrypted key.
func FromCiphertext(c keys.Ciphertext) Source {
	return Source{state: stateCiphertext, ciphertext: c}
}

// IsSet reports whether the source holds a credential.
func (s Source) IsSet() bool { return s.state != stateUnset }

// Encrypted reports whether a password is needed to use the source.
func (s Source) Encrypted() bool { return s.state == stateCiphertext }

// Config is the raw form read from files, flags and the environment: two
// independent optional fields.
type Config struct {
	PrivateKey           string `mapstructure:"private_key" yaml:"private_key,omitempty" json:"private_key,omitempty"`
	PrivateKeyCiphertext string `mapstructure:"private_key_ciphertext" yaml:"private_key_ciphertext,omitempty" json:"private_key_ciphertext,omitempty"`
}

// Source converts c into a Source. Setting both fields is a
// program.KindConfiguration error.
func (c Config) Source() (Source, error) {
	key, ct, err := c.parse()
	if err != nil {
		return Source{}, err
	}
	switch {
	case key != nil && ct != nil:
		return Source{}, errConflict()
	case key != nil:
		return FromPrivateKey(*key), nil
	case ct != nil:
		return FromCiphertext(*ct), nil
	default:
		return Unset(), nil
	}
}

func (c Config) parse() (*keys.PrivateKey, *keys.Ciphertext, error) {
	var key *keys.PrivateKey
	var ct *keys.Ciphertext
	if c.PrivateKey != "" {
		k, err := keys.ParsePrivateKey(c.PrivateKey)
		if err != nil {
			return nil, nil, program.WrapError(program.KindConfiguration, "credential_config", "invalid private key", err)
		}
		key = &k
	}
	if c.PrivateKeyCiphertext != "" {
		parsed, err := keys.ParseCiphertext(c.PrivateKeyCiphertext)
		if err != nil {
			return nil, nil, program.WrapError(program.KindConfiguration, "credential_config", "invalid private key ciphertext", err)
		}
		ct = &parsed
	}
	return key, ct, nil
}

func errConflict() error {
	return program.NewError(program.KindConfiguration, "private_key",
		"private key ciphertext is also configured, cannot have both private key and private key ciphertext")
}
