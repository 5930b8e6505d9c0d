package program

import (
	"fmt"
	"strings"
)

// Network scopes identifiers, keys and records. Two programs with the same
// name on different networks are different programs.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// Valid reports whether n is a known network.
func (n Network) Valid() bool {
	switch n {
	case Mainnet, Testnet:
		return true
	default:
		return false
	}
}

// ParseNetwork parses a network name. The empty string selects Testnet.
func ParseNetwork(s string) (Network, error) {
	if s == "" {
		return Testnet, nil
	}
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", NewError(KindConfiguration, "parse_network", fmt.Sprintf("unknown network %q", s))
	}
	return n, nil
}

// Domain is the fixed suffix of every program identifier.
const Domain = "aleo"

// ID identifies a program on a network. IDs are comparable with ==.
type ID struct {
	Network Network
	Name    string
}

// ParseID parses "name.aleo" on the given network.
func ParseID(network Network, s string) (ID, error) {
	if !network.Valid() {
		return ID{}, NewError(KindParse, "parse_id", fmt.Sprintf("unknown network %q", network))
	}
	name, domain, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || domain != Domain {
		return ID{}, NewError(KindParse, "parse_id", fmt.Sprintf("invalid program id %q: expected <name>.%s", s, Domain))
	}
	if err := checkName(name); err != nil {
		return ID{}, WrapError(KindParse, "parse_id", fmt.Sprintf("invalid program id %q", s), err)
	}
	return ID{Network: network, Name: name}, nil
}

// MustParseID is like ParseID but panics on error. Intended for tests and
// package-level constants.
func MustParseID(network Network, s string) ID {
	id, err := ParseID(network, s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the "name.aleo" form. The network is not part of the text.
func (id ID) String() string {
	if id.Name == "" {
		return ""
	}
	return id.Name + "." + Domain
}

// IsZero reports whether id is the zero ID.
func (id ID) IsZero() bool { return id == ID{} }

// FileName is the file an imported program is stored under.
func (id ID) FileName() string { return id.String() }

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	for i, char := range name {
		if char >= 'a' && char <= 'z' {
			continue
		}
		if i > 0 && ((char >= '0' && char <= '9') || char == '_') {
			continue
		}
		return fmt.Errorf("invalid character %q in name", char)
	}
	return nil
}
