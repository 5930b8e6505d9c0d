package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// Scheme names a signature scheme.
type Scheme string

const (
	SchemeEd25519    Scheme = "ed25519"
	SchemeDilithium3 Scheme = "dilithium3"
)

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("keys: unsupported hash algorithm %q", hashAlg)
	}
}

// Sign returns a base64 signature over hash(message).
// hashAlg must be one of: sha256, sha512, sha3-256.
func Sign(k PrivateKey, scheme Scheme, hashAlg string, message []byte) (string, error) {
	if k.IsZero() {
		return "", fmt.Errorf("keys: missing private key")
	}
	digest, err := digestFor(hashAlg, message)
	if err != nil {
		return "", err
	}
	switch scheme {
	case SchemeEd25519:
		return base64.StdEncoding.EncodeToString(ed25519.Sign(k.ed25519(), digest)), nil
	case SchemeDilithium3:
		_, sk := k.dilithium3()
		sig := make([]byte, mode3.SignatureSize)
		mode3.SignTo(sk, digest, sig)
		return base64.StdEncoding.EncodeToString(sig), nil
	default:
		return "", fmt.Errorf("keys: unsupported scheme %q", scheme)
	}
}

// Verify checks a signature produced by Sign against an Address.
func Verify(address, hashAlg string, message []byte, signature string) error {
	alg, enc, ok := strings.Cut(address, ":")
	if !ok {
		return fmt.Errorf("keys: invalid address %q", address)
	}
	pub, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return fmt.Errorf("keys: invalid address encoding: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("keys: invalid signature encoding: %w", err)
	}
	digest, err := digestFor(hashAlg, message)
	if err != nil {
		return err
	}
	switch Scheme(alg) {
	case SchemeEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return fmt.Errorf("keys: invalid ed25519 public key length")
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), digest, sig) {
			return fmt.Errorf("keys: signature did not verify")
		}
		return nil
	case SchemeDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("keys: invalid dilithium3 public key: %w", err)
		}
		if !mode3.Verify(&pk, digest, sig) {
			return fmt.Errorf("keys: signature did not verify")
		}
		return nil
	default:
		return fmt.Errorf("keys: unsupported scheme %q", alg)
	}
}
