package keys

import (
	"crypto/ed25519"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// SeedSize is the size of the secret a PrivateKey is derived from.
const SeedSize = ed25519.SeedSize

// PrivateKeyPrefix starts the text encoding of a PrivateKey.
const PrivateKeyPrefix = "pk1"

// PrivateKey is the signing credential of an account.
//
// String and GoString redact the key; use Text for the real encoding.
type PrivateKey struct {
	seed [SeedSize]byte
}

// NewPrivateKeyFromSeed returns the key for a 32-byte seed.
func NewPrivateKeyFromSeed(seed []byte) (PrivateKey, error) {
	var k PrivateKey
	if len(seed) != SeedSize {
		return k, fmt.Errorf("keys: seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	copy(k.seed[:], seed)
	return k, nil
}

// GeneratePrivateKey reads a fresh seed from rand.
func GeneratePrivateKey(rand io.Reader) (PrivateKey, error) {
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(rand, seed); err != nil {
		return PrivateKey{}, fmt.Errorf("keys: read seed: %w", err)
	}
	return NewPrivateKeyFromSeed(seed)
}

// ParsePrivateKey parses the Text encoding ("pk1" followed by 64 hex chars).
func ParsePrivateKey(s string) (PrivateKey, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, PrivateKeyPrefix) {
		return PrivateKey{}, fmt.Errorf("keys: private key must start with %q", PrivateKeyPrefix)
	}
	seed, err := hex.DecodeString(strings.TrimPrefix(s, PrivateKeyPrefix))
	if err != nil {
		return PrivateKey{}, fmt.Errorf("keys: invalid private key encoding: %w", err)
	}
	return NewPrivateKeyFromSeed(seed)
}

// Text returns the encoded key. Treat the result as secret.
func (k PrivateKey) Text() string {
	return PrivateKeyPrefix + hex.EncodeToString(k.seed[:])
}

func (k PrivateKey) String() string   { return "[PRIVATE KEY]" }
func (k PrivateKey) GoString() string { return "keys.PrivateKey{[PRIVATE KEY]}" }

// IsZero reports whether k is the zero key.
func (k PrivateKey) IsZero() bool { return k == PrivateKey{} }

// Equal compares two keys in constant time.
func (k PrivateKey) Equal(other PrivateKey) bool {
	return subtle.ConstantTimeCompare(k.seed[:], other.seed[:]) == 1
}

func (k PrivateKey) ed25519() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(k.seed[:])
}

// dilithium3 derives the post-quantum keypair from a domain-separated seed.
func (k PrivateKey) dilithium3() (*mode3.PublicKey, *mode3.PrivateKey) {
	h := sha3.New256()
	_, _ = h.Write([]byte("progload-dilithium3-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(k.seed[:])
	var seed [mode3.SeedSize]byte
	copy(seed[:], h.Sum(nil))
	return mode3.NewKeyFromSeed(&seed)
}

// Address returns the public identity for a signature scheme:
// "<scheme>:" followed by base64 of the public key.
func (k PrivateKey) Address(scheme Scheme) (string, error) {
	switch scheme {
	case SchemeEd25519:
		pub := k.ed25519().Public().(ed25519.PublicKey)
		return string(scheme) + ":" + base64.StdEncoding.EncodeToString(pub), nil
	case SchemeDilithium3:
		pub, _ := k.dilithium3()
		b, err := pub.MarshalBinary()
		if err != nil {
			return "", err
		}
		return string(scheme) + ":" + base64.StdEncoding.EncodeToString(b), nil
	default:
		return "", fmt.Errorf("keys: unsupported scheme %q", scheme)
	}
}
