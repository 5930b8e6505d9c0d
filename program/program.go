package program

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"xdao.co/progload/cidutil"
)

// Program is a parsed program definition.
//
// A Program is never mutated after Parse returns; accessors return copies.
type Program struct {
	id      ID
	imports []ID
	source  []byte
}

// Parse parses program source on the given network.
//
// Source layout:
//
//	import token.aleo;
//	import credits.aleo;
//
//	program swap.aleo;
//	...body...
//
// Blank lines and "//" comments are ignored before the program line.
// Everything after the program line is kept verbatim but not interpreted.
func Parse(network Network, source []byte) (*Program, error) {
	p := &Program{source: append([]byte(nil), source...)}
	seen := make(map[ID]struct{})

	sc := bufio.NewScanner(bytes.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		keyword, rest, _ := strings.Cut(line, " ")
		switch keyword {
		case "import":
			id, err := parseStatement(network, rest)
			if err != nil {
				return nil, parseError(lineNo, "invalid import", err)
			}
			if _, dup := seen[id]; dup {
				return nil, parseError(lineNo, fmt.Sprintf("duplicate import %s", id), nil)
			}
			seen[id] = struct{}{}
			p.imports = append(p.imports, id)
		case "program":
			id, err := parseStatement(network, rest)
			if err != nil {
				return nil, parseError(lineNo, "invalid program declaration", err)
			}
			if _, self := seen[id]; self {
				return nil, parseError(lineNo, fmt.Sprintf("program %s imports itself", id), nil)
			}
			p.id = id
			return p, nil
		default:
			return nil, parseError(lineNo, fmt.Sprintf("unexpected %q before program declaration", keyword), nil)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, WrapError(KindParse, "parse_program", "read source", err)
	}
	return nil, NewError(KindParse, "parse_program", "missing program declaration")
}

func parseStatement(network Network, rest string) (ID, error) {
	rest = strings.TrimSpace(rest)
	if !strings.HasSuffix(rest, ";") {
		return ID{}, fmt.Errorf("missing ';'")
	}
	return ParseID(network, strings.TrimSuffix(rest, ";"))
}

func parseError(line int, msg string, cause error) error {
	return WrapError(KindParse, "parse_program", fmt.Sprintf("line %d: %s", line, msg), cause)
}

// ID returns the identifier the program declares for itself.
func (p *Program) ID() ID { return p.id }

// Imports returns the imported program ids in declaration order.
func (p *Program) Imports() []ID {
	return append([]ID(nil), p.imports...)
}

// Source returns a copy of the source the program was parsed from.
func (p *Program) Source() []byte {
	return append([]byte(nil), p.source...)
}

// CID returns the content id of the program source.
func (p *Program) CID() string {
	return cidutil.ContentIDString(p.source)
}
