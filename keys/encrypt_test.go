package keys

import (
	"errors"
	"strings"
	"testing"

	"xdao.co/progload/program"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	k := testKey(t)
	ct, err := EncryptPrivateKey(&deterministicReader{b: 7}, program.Testnet, k, "correct horse")
	if err != nil {
		t.Fatalf("EncryptPrivateKey: %v", err)
	}
	if !strings.HasPrefix(ct.String(), CiphertextPrefix) {
		t.Fatalf("unexpected ciphertext %q", ct.String())
	}
	parsed, err := ParseCiphertext(ct.String())
	if err != nil {
		t.Fatalf("ParseCiphertext: %v", err)
	}
	got, err := DecryptPrivateKey(program.Testnet, parsed, "correct horse")
	if err != nil {
		t.Fatalf("DecryptPrivateKey: %v", err)
	}
	if !got.Equal(k) {
		t.Fatalf("decrypted key differs from original")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	ct, err := EncryptPrivateKey(&deterministicReader{}, program.Testnet, testKey(t), "right")
	if err != nil {
		t.Fatalf("EncryptPrivateKey: %v", err)
	}
	if _, err := DecryptPrivateKey(program.Testnet, ct, "wrong"); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestDecryptOtherNetwork(t *testing.T) {
	ct, err := EncryptPrivateKey(&deterministicReader{}, program.Testnet, testKey(t), "pw")
	if err != nil {
		t.Fatalf("EncryptPrivateKey: %v", err)
	}
	if _, err := DecryptPrivateKey(program.Mainnet, ct, "pw"); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt across networks, got %v", err)
	}
}

func TestDecryptTampered(t *testing.T) {
	ct, err := EncryptPrivateKey(&deterministicReader{}, program.Testnet, testKey(t), "pw")
	if err != nil {
		t.Fatalf("EncryptPrivateKey: %v", err)
	}
	raw := []byte(ct.String())
	i := len(raw) / 2
	if raw[i] == 'A' {
		raw[i] = 'B'
	} else {
		raw[i] = 'A'
	}
	tampered, err := ParseCiphertext(string(raw))
	if err != nil {
		t.Fatalf("ParseCiphertext: %v", err)
	}
	if _, err := DecryptPrivateKey(program.Testnet, tampered, "pw"); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestParseCiphertextMalformed(t *testing.T) {
	for _, s := range []string{"", "pkct1:", "pkct1:!!!", "other:AAAA", CiphertextPrefix + "AAAA"} {
		if _, err := ParseCiphertext(s); !errors.Is(err, ErrMalformedCiphertext) {
			t.Fatalf("%q: expected ErrMalformedCiphertext, got %v", s, err)
		}
	}
}

func TestEncryptRequiresPassword(t *testing.T) {
	if _, err := EncryptPrivateKey(&deterministicReader{}, program.Testnet, testKey(t), ""); err == nil {
		t.Fatalf("expected error for empty password")
	}
	if _, err := EncryptPrivateKey(&deterministicReader{}, program.Testnet, PrivateKey{}, "pw"); err == nil {
		t.Fatalf("expected error for zero key")
	}
}
