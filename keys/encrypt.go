package keys

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"xdao.co/progload/program"
)

// CiphertextPrefix starts the text encoding of an encrypted private key.
const CiphertextPrefix = "pkct1:"

var (
	// ErrDecrypt is returned when the password is wrong or the ciphertext
	// has been tampered with; the AEAD cannot tell the two apart.
	ErrDecrypt = errors.New("keys: wrong password or corrupt private key ciphertext")
	// ErrMalformedCiphertext is returned for ciphertexts that cannot be decoded.
	ErrMalformedCiphertext = errors.New("keys: malformed private key ciphertext")
)

const (
	saltSize     = 16
	argonTime    = 1
	argonMemory  = 19 * 1024
	argonThreads = 1
)

// Ciphertext is a PrivateKey encrypted under a password-derived secret.
//
// Layout after the prefix: base64(salt || nonce || sealed seed).
type Ciphertext struct {
	raw string
}

// ParseCiphertext validates the outer encoding of an encrypted key.
func ParseCiphertext(s string) (Ciphertext, error) {
	s = strings.TrimSpace(s)
	if _, _, _, err := splitCiphertext(s); err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{raw: s}, nil
}

func (c Ciphertext) String() string { return c.raw }

// IsZero reports whether c is the zero Ciphertext.
func (c Ciphertext) IsZero() bool { return c.raw == "" }

func splitCiphertext(s string) (salt, nonce, sealed []byte, err error) {
	if !strings.HasPrefix(s, CiphertextPrefix) {
		return nil, nil, nil, fmt.Errorf("%w: missing %q prefix", ErrMalformedCiphertext, CiphertextPrefix)
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, CiphertextPrefix))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	want := saltSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead + SeedSize
	if len(b) != want {
		return nil, nil, nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedCiphertext, want, len(b))
	}
	salt = b[:saltSize]
	nonce = b[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	sealed = b[saltSize+chacha20poly1305.NonceSizeX:]
	return salt, nonce, sealed, nil
}

func deriveSecret(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// associatedData binds a ciphertext to the network it was created for.
func associatedData(network program.Network) []byte {
	return []byte("progload-private-key-v1:" + string(network))
}

// EncryptPrivateKey seals k under password for network, reading salt and
// nonce from rand.
func EncryptPrivateKey(rand io.Reader, network program.Network, k PrivateKey, password string) (Ciphertext, error) {
	if password == "" {
		return Ciphertext{}, errors.New("keys: password is required to encrypt a private key")
	}
	if k.IsZero() {
		return Ciphertext{}, errors.New("keys: missing private key")
	}
	buf := make([]byte, saltSize+chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return Ciphertext{}, fmt.Errorf("keys: read randomness: %w", err)
	}
	salt, nonce := buf[:saltSize], buf[saltSize:]
	aead, err := chacha20poly1305.NewX(deriveSecret(password, salt))
	if err != nil {
		return Ciphertext{}, err
	}
	out := aead.Seal(buf, nonce, k.seed[:], associatedData(network))
	return Ciphertext{raw: CiphertextPrefix + base64.StdEncoding.EncodeToString(out)}, nil
}

// DecryptPrivateKey opens c with password for network. A wrong password, a
// different network or a tampered ciphertext all yield ErrDecrypt.
func DecryptPrivateKey(network program.Network, c Ciphertext, password string) (PrivateKey, error) {
	salt, nonce, sealed, err := splitCiphertext(c.raw)
	if err != nil {
		return PrivateKey{}, err
	}
	aead, err := chacha20poly1305.NewX(deriveSecret(password, salt))
	if err != nil {
		return PrivateKey{}, err
	}
	seed, err := aead.Open(nil, nonce, sealed, associatedData(network))
	if err != nil {
		return PrivateKey{}, ErrDecrypt
	}
	return NewPrivateKeyFromSeed(seed)
}
