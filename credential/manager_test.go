package credential

import (
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"xdao.co/progload/keys"
	"xdao.co/progload/program"
)

func newKey(t *testing.T) keys.PrivateKey {
	t.Helper()
	k, err := keys.GeneratePrivateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	return k
}

func encrypt(t *testing.T, k keys.PrivateKey, password string) keys.Ciphertext {
	t.Helper()
	ct, err := keys.EncryptPrivateKey(rand.Reader, program.Testnet, k, password)
	if err != nil {
		t.Fatalf("EncryptPrivateKey: %v", err)
	}
	return ct
}

func TestUnsetIsConfigurationError(t *testing.T) {
	m := NewManager(program.Testnet, Unset())
	_, err := m.PrivateKey("anything")
	if !program.IsKind(err, program.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var zero Source
	if zero.IsSet() {
		t.Fatalf("zero Source must be unset")
	}
}

func TestPlaintextIgnoresPassword(t *testing.T) {
	k := newKey(t)
	m := NewManager(program.Testnet, FromPrivateKey(k))
	for _, password := range []string{"", "ignored"} {
		got, err := m.PrivateKey(password)
		if err != nil {
			t.Fatalf("PrivateKey(%q): %v", password, err)
		}
		if !got.Equal(k) {
			t.Fatalf("PrivateKey(%q) returned a different key", password)
		}
	}
}

func TestCiphertextWithoutPassword(t *testing.T) {
	m := NewManager(program.Testnet, FromCiphertext(encrypt(t, newKey(t), "pw")))
	_, err := m.PrivateKey("")
	if !program.IsKind(err, program.KindDecryption) {
		t.Fatalf("expected decryption error, got %v", err)
	}
	if !strings.Contains(err.Error(), "password is required") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCiphertextWithPassword(t *testing.T) {
	k := newKey(t)
	m := NewManager(program.Testnet, FromCiphertext(encrypt(t, k, "pw")))
	got, err := m.PrivateKey("pw")
	if err != nil {
		t.Fatalf("PrivateKey: %v", err)
	}
	if !got.Equal(k) {
		t.Fatalf("decrypted key differs")
	}
}

func TestCiphertextWrongPasswordPropagatesDecryptError(t *testing.T) {
	m := NewManager(program.Testnet, FromCiphertext(encrypt(t, newKey(t), "pw")))
	_, err := m.PrivateKey("nope")
	if !program.IsKind(err, program.KindDecryption) {
		t.Fatalf("expected decryption error, got %v", err)
	}
	if !errors.Is(err, keys.ErrDecrypt) {
		t.Fatalf("expected keys.ErrDecrypt in chain, got %v", err)
	}
}

func TestCiphertextIsBoundToNetwork(t *testing.T) {
	m := NewManager(program.Mainnet, FromCiphertext(encrypt(t, newKey(t), "pw")))
	if _, err := m.PrivateKey("pw"); !errors.Is(err, keys.ErrDecrypt) {
		t.Fatalf("expected keys.ErrDecrypt across networks, got %v", err)
	}
}

func TestConfigBothSetIsConflict(t *testing.T) {
	k := newKey(t)
	cfg := Config{PrivateKey: k.Text(), PrivateKeyCiphertext: encrypt(t, k, "pw").String()}

	if _, err := cfg.Source(); !program.IsKind(err, program.KindConfiguration) {
		t.Fatalf("Source: expected configuration error, got %v", err)
	}
	for _, password := range []string{"", "pw"} {
		_, err := ResolvePrivateKey(program.Testnet, cfg, password)
		if !program.IsKind(err, program.KindConfiguration) {
			t.Fatalf("ResolvePrivateKey(%q): expected configuration error, got %v", password, err)
		}
		if !strings.Contains(err.Error(), "cannot have both") {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}
	if _, err := NewManagerFromConfig(program.Testnet, cfg); err == nil {
		t.Fatalf("expected NewManagerFromConfig to reject both fields")
	}
}

func TestResolvePrivateKeyFromConfig(t *testing.T) {
	k := newKey(t)

	if _, err := ResolvePrivateKey(program.Testnet, Config{}, "pw"); !program.IsKind(err, program.KindConfiguration) {
		t.Fatalf("empty config: expected configuration error, got %v", err)
	}

	got, err := ResolvePrivateKey(program.Testnet, Config{PrivateKey: k.Text()}, "")
	if err != nil || !got.Equal(k) {
		t.Fatalf("plaintext config: got err %v", err)
	}

	ct := Config{PrivateKeyCiphertext: encrypt(t, k, "pw").String()}
	if _, err := ResolvePrivateKey(program.Testnet, ct, ""); !program.IsKind(err, program.KindDecryption) {
		t.Fatalf("ciphertext without password: got %v", err)
	}
	got, err = ResolvePrivateKey(program.Testnet, ct, "pw")
	if err != nil || !got.Equal(k) {
		t.Fatalf("ciphertext with password: got err %v", err)
	}
}

func TestConfigRejectsMalformedValues(t *testing.T) {
	for _, cfg := range []Config{
		{PrivateKey: "not-a-key"},
		{PrivateKeyCiphertext: "pkct1:%%%"},
	} {
		if _, err := cfg.Source(); !program.IsKind(err, program.KindConfiguration) {
			t.Fatalf("%+v: expected configuration error, got %v", cfg, err)
		}
	}
}

func TestManagerSignVerifies(t *testing.T) {
	k := newKey(t)
	m := NewManager(program.Testnet, FromCiphertext(encrypt(t, k, "pw")))
	msg := []byte("transfer 10 credits")
	addr, err := m.Address("pw", keys.SchemeEd25519)
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	sig, err := m.Sign("pw", keys.SchemeEd25519, "sha256", msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := keys.Verify(addr, "sha256", msg, sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := m.Sign("", keys.SchemeEd25519, "sha256", msg); !program.IsKind(err, program.KindDecryption) {
		t.Fatalf("Sign without password: got %v", err)
	}
}
