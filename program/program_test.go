package program

import (
	"errors"
	"testing"
)

func TestParseIDRoundTrip(t *testing.T) {
	id, err := ParseID(Testnet, "token_v2.aleo")
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if id.String() != "token_v2.aleo" {
		t.Fatalf("unexpected string %q", id.String())
	}
	if id != MustParseID(Testnet, " token_v2.aleo ") {
		t.Fatalf("expected ids to be equal")
	}
	if id == MustParseID(Mainnet, "token_v2.aleo") {
		t.Fatalf("expected ids on different networks to differ")
	}
}

func TestParseIDRejectsInvalid(t *testing.T) {
	for _, s := range []string{"", "token", "token.eth", "Token.aleo", "1token.aleo", "to-ken.aleo"} {
		_, err := ParseID(Testnet, s)
		if !IsKind(err, KindParse) {
			t.Fatalf("%q: expected KindParse, got %v", s, err)
		}
	}
	if _, err := ParseID(Network("devnet"), "token.aleo"); err == nil {
		t.Fatalf("expected unknown network to fail")
	}
}

func TestParseNetwork(t *testing.T) {
	n, err := ParseNetwork("")
	if err != nil || n != Testnet {
		t.Fatalf("expected default testnet, got %q %v", n, err)
	}
	n, err = ParseNetwork("MAINNET")
	if err != nil || n != Mainnet {
		t.Fatalf("expected mainnet, got %q %v", n, err)
	}
	if _, err := ParseNetwork("devnet"); !IsKind(err, KindConfiguration) {
		t.Fatalf("expected KindConfiguration, got %v", err)
	}
}

func TestParseProgramImportsInOrder(t *testing.T) {
	src := []byte(`// swap program
import token.aleo;
import credits.aleo;
import oracle.aleo;

program swap.aleo;

function main:
    input r0 as u64.private;
`)
	p, err := Parse(Testnet, src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.ID() != MustParseID(Testnet, "swap.aleo") {
		t.Fatalf("unexpected id %s", p.ID())
	}
	want := []string{"token.aleo", "credits.aleo", "oracle.aleo"}
	got := p.Imports()
	if len(got) != len(want) {
		t.Fatalf("expected %d imports, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("import[%d]: got %s want %s", i, got[i], want[i])
		}
	}
	if string(p.Source()) != string(src) {
		t.Fatalf("source not preserved")
	}
	if p.CID() == "" {
		t.Fatalf("expected content id")
	}
}

func TestProgramAccessorsReturnCopies(t *testing.T) {
	p, err := Parse(Testnet, []byte("import a.aleo;\nprogram b.aleo;\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	imports := p.Imports()
	imports[0] = MustParseID(Testnet, "z.aleo")
	if p.Imports()[0].String() != "a.aleo" {
		t.Fatalf("Imports exposed internal slice")
	}
	src := p.Source()
	src[0] = 'X'
	if p.Source()[0] != 'i' {
		t.Fatalf("Source exposed internal buffer")
	}
}

func TestParseProgramErrors(t *testing.T) {
	cases := map[string]string{
		"missing program":  "import a.aleo;\n",
		"missing semi":     "program a.aleo\n",
		"duplicate import": "import a.aleo;\nimport a.aleo;\nprogram b.aleo;\n",
		"self import":      "import b.aleo;\nprogram b.aleo;\n",
		"garbage":          "function main:\nprogram b.aleo;\n",
		"bad import id":    "import a.eth;\nprogram b.aleo;\n",
	}
	for name, src := range cases {
		_, err := Parse(Testnet, []byte(src))
		if !IsKind(err, KindParse) {
			t.Fatalf("%s: expected KindParse, got %v", name, err)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(KindInternal, "op", "failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find cause")
	}
	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if KindOf(err) != KindInternal {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
	if KindOf(cause) != "" {
		t.Fatalf("expected empty kind for plain error")
	}
}
