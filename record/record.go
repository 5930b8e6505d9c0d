// Package record holds the two opaque record forms a resolver can enumerate:
// encrypted records as they appear on chain, and decrypted records that the
// owner can spend.
package record

import (
	"fmt"
	"strings"

	"xdao.co/progload/cidutil"
	"xdao.co/progload/program"
)

// CiphertextPrefix starts every encoded encrypted record.
const CiphertextPrefix = "record1"

// Ciphertext is an encrypted record. Its contents are not interpreted here.
type Ciphertext struct {
	raw string
}

// ParseCiphertext validates the outer encoding of an encrypted record.
func ParseCiphertext(s string) (Ciphertext, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, CiphertextPrefix) || len(s) == len(CiphertextPrefix) {
		return Ciphertext{}, program.NewError(program.KindParse, "parse_record", fmt.Sprintf("invalid ciphertext record: expected %q prefix", CiphertextPrefix))
	}
	for _, char := range s[len(CiphertextPrefix):] {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') {
			continue
		}
		return Ciphertext{}, program.NewError(program.KindParse, "parse_record", fmt.Sprintf("invalid character %q in ciphertext record", char))
	}
	return Ciphertext{raw: s}, nil
}

func (c Ciphertext) String() string { return c.raw }

// CID returns the content id of the encoded record.
func (c Ciphertext) CID() string { return cidutil.ContentIDString([]byte(c.raw)) }

// Plaintext is a decrypted, spendable record.
type Plaintext struct {
	raw string
}

// ParsePlaintext validates that s is a brace-delimited record body.
func ParsePlaintext(s string) (Plaintext, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return Plaintext{}, program.NewError(program.KindParse, "parse_record", "invalid plaintext record: expected '{ ... }'")
	}
	if strings.Count(s, "{") != strings.Count(s, "}") {
		return Plaintext{}, program.NewError(program.KindParse, "parse_record", "invalid plaintext record: unbalanced braces")
	}
	return Plaintext{raw: s}, nil
}

func (p Plaintext) String() string { return p.raw }

// CID returns the content id of the record body.
func (p Plaintext) CID() string { return cidutil.ContentIDString([]byte(p.raw)) }
