package credential

import (
	"xdao.co/progload/keys"
	"xdao.co/progload/program"
)

// Manager resolves the private key for one account on one network.
// The password is supplied per call and never stored.
type Manager struct {
	network program.Network
	source  Source
}

// NewManager returns a Manager for source on network.
func NewManager(network program.Network, source Source) *Manager {
	return &Manager{network: network, source: source}
}

// NewManagerFromConfig is NewManager for the raw two-field form.
func NewManagerFromConfig(network program.Network, cfg Config) (*Manager, error) {
	source, err := cfg.Source()
	if err != nil {
		return nil, err
	}
	return NewManager(network, source), nil
}

// Source returns the configured source.
func (m *Manager) Source() Source { return m.source }

// PrivateKey returns the usable key. An empty password means no password
// was supplied; it is ignored when the key is stored in the clear.
func (m *Manager) PrivateKey(password string) (keys.PrivateKey, error) {
	switch m.source.state {
	case statePlaintext:
		return decide(m.network, &m.source.key, nil, password)
	case stateCiphertext:
		return decide(m.network, nil, &m.source.ciphertext, password)
	default:
		return decide(m.network, nil, nil, password)
	}
}

// Address returns the public identity of the resolved key.
func (m *Manager) Address(password string, scheme keys.Scheme) (string, error) {
	k, err := m.PrivateKey(password)
	if err != nil {
		return "", err
	}
	return k.Address(scheme)
}

// Sign signs message with the resolved key.
func (m *Manager) Sign(password string, scheme keys.Scheme, hashAlg string, message []byte) (string, error) {
	k, err := m.PrivateKey(password)
	if err != nil {
		return "", err
	}
	return keys.Sign(k, scheme, hashAlg, message)
}

// ResolvePrivateKey runs the key decision directly on the raw two-field form.
func ResolvePrivateKey(network program.Network, cfg Config, password string) (keys.PrivateKey, error) {
	key, ct, err := cfg.parse()
	if err != nil {
		return keys.PrivateKey{}, err
	}
	return decide(network, key, ct, password)
}

func decide(network program.Network, key *keys.PrivateKey, ct *keys.Ciphertext, password string) (keys.PrivateKey, error) {
	const op = "private_key"
	if key == nil && ct == nil {
		return keys.PrivateKey{}, program.NewError(program.KindConfiguration, op, "private key is not configured")
	}
	if key != nil {
		if ct != nil {
			return keys.PrivateKey{}, errConflict()
		}
		return *key, nil
	}
	if ct != nil {
		if password == "" {
			return keys.PrivateKey{}, program.NewError(program.KindDecryption, op, "private key is encrypted, password is required")
		}
		k, err := keys.DecryptPrivateKey(network, *ct, password)
		if err != nil {
			return keys.PrivateKey{}, program.WrapError(program.KindDecryption, op, "decrypt private key", err)
		}
		return k, nil
	}
	return keys.PrivateKey{}, program.NewError(program.KindConfiguration, op, "private key configuration error")
}
