package demangle

import (
	"fmt"

	"github.com/appsworld/swiftbind/internal/punycode"
	"github.com/appsworld/swiftbind/swift"
)

// maxNatural bounds lengths and indexes; no symbol comes close.
const maxNatural = 1 << 20

// substitution is one back-reference target. Modules only set path; nominal
// types and protocols set both; associated types only set typ.
type substitution struct {
	path   swift.EntityPath
	typ    swift.SignatureType
	module bool
}

type parser struct {
	symbol string
	data   []byte
	pos    int
	subst  []substitution
}

func newParser(symbol string, start int) *parser {
	return &parser{
		symbol: symbol,
		data:   []byte(symbol),
		pos:    start,
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.data)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.data[p.pos]
}

func (p *parser) peekAt(off int) byte {
	if p.pos+off >= len(p.data) {
		return 0
	}
	return p.data[p.pos+off]
}

func (p *parser) consume() byte {
	if p.eof() {
		return 0
	}
	b := p.data[p.pos]
	p.pos++
	return b
}

// consumeIf advances past b when it is next.
func (p *parser) consumeIf(b byte) bool {
	if !p.eof() && p.data[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(b byte) error {
	if p.eof() {
		return p.fail(ErrUnexpectedEnd)
	}
	if p.data[p.pos] != b {
		return p.failf(ErrUnexpectedChar, "%q, expected %q", p.data[p.pos], b)
	}
	p.pos++
	return nil
}

type parserState struct {
	pos   int
	subst int
}

func (p *parser) saveState() parserState {
	return parserState{pos: p.pos, subst: len(p.subst)}
}

func (p *parser) restoreState(s parserState) {
	p.pos = s.pos
	p.subst = p.subst[:s.subst]
}

func (p *parser) fail(err error) error {
	return &Error{Symbol: p.symbol, Pos: p.pos, Err: err}
}

func (p *parser) failf(err error, format string, args ...any) error {
	return &Error{Symbol: p.symbol, Pos: p.pos, Err: fmt.Errorf("%w %s", err, fmt.Sprintf(format, args...))}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (p *parser) readNatural() (int, error) {
	if p.eof() {
		return 0, p.fail(ErrUnexpectedEnd)
	}
	if !isDigit(p.peek()) {
		return 0, p.failf(ErrUnexpectedChar, "%q, expected digit", p.peek())
	}
	n := 0
	for !p.eof() && isDigit(p.peek()) {
		n = n*10 + int(p.consume()-'0')
		if n > maxNatural {
			return 0, p.fail(ErrNumberOverflow)
		}
	}
	return n, nil
}

// readIndex reads '_' as 0 or natural '_' as natural+1.
func (p *parser) readIndex() (int, error) {
	if p.consumeIf('_') {
		return 0, nil
	}
	n, err := p.readNatural()
	if err != nil {
		return 0, err
	}
	if err := p.expect('_'); err != nil {
		return 0, err
	}
	return n + 1, nil
}

func (p *parser) readChars(n int) (string, error) {
	if n > len(p.data)-p.pos {
		p.pos = len(p.data)
		return "", p.fail(ErrUnexpectedEnd)
	}
	s := string(p.data[p.pos : p.pos+n])
	p.pos += n
	return s, nil
}

// operatorChars maps each operator letter to its glyph. Zero means the
// letter is unassigned.
var operatorChars = [26]byte{
	'a' - 'a': '&',
	'c' - 'a': '@',
	'd' - 'a': '/',
	'e' - 'a': '=',
	'g' - 'a': '>',
	'l' - 'a': '<',
	'm' - 'a': '*',
	'n' - 'a': '!',
	'o' - 'a': '|',
	'p' - 'a': '+',
	'q' - 'a': '?',
	'r' - 'a': '%',
	's' - 'a': '-',
	't' - 'a': '~',
	'x' - 'a': '^',
	'z' - 'a': '.',
}

// canStartIdentifier reports whether the cursor is at an identifier.
func (p *parser) canStartIdentifier() bool {
	c := p.peek()
	return isDigit(c) || (c == 'X' && isDigit(p.peekAt(1))) || c == 'o'
}

// parseIdentifier reads a plain, compressed or operator identifier.
func (p *parser) parseIdentifier() (swift.Identifier, error) {
	switch c := p.peek(); {
	case c == 0:
		return swift.Identifier{}, p.fail(ErrUnexpectedEnd)
	case c == 'X':
		p.consume()
		n, err := p.readNatural()
		if err != nil {
			return swift.Identifier{}, err
		}
		start := p.pos
		raw, err := p.readChars(n)
		if err != nil {
			return swift.Identifier{}, err
		}
		text, err := punycode.Decode(raw)
		if err != nil {
			return swift.Identifier{}, &Error{Symbol: p.symbol, Pos: start, Err: err}
		}
		return swift.Identifier{Name: text, Compressed: text != raw}, nil
	case c == 'o':
		p.consume()
		var kind swift.OperatorKind
		switch p.consume() {
		case 'p':
			kind = swift.PrefixOperator
		case 'P':
			kind = swift.PostfixOperator
		case 'i':
			kind = swift.InfixOperator
		case 0:
			return swift.Identifier{}, p.fail(ErrUnexpectedEnd)
		default:
			p.pos--
			return swift.Identifier{}, p.failf(ErrUnexpectedChar, "%q, expected operator fixity", p.peek())
		}
		n, err := p.readNatural()
		if err != nil {
			return swift.Identifier{}, err
		}
		start := p.pos
		raw, err := p.readChars(n)
		if err != nil {
			return swift.Identifier{}, err
		}
		glyphs := make([]byte, len(raw))
		for i := 0; i < len(raw); i++ {
			l := raw[i]
			if l < 'a' || l > 'z' || operatorChars[l-'a'] == 0 {
				return swift.Identifier{}, &Error{
					Symbol: p.symbol,
					Pos:    start + i,
					Err:    fmt.Errorf("%w %q", ErrInvalidOperator, l),
				}
			}
			glyphs[i] = operatorChars[l-'a']
		}
		return swift.Identifier{Name: string(glyphs), Operator: kind}, nil
	case isDigit(c):
		n, err := p.readNatural()
		if err != nil {
			return swift.Identifier{}, err
		}
		name, err := p.readChars(n)
		if err != nil {
			return swift.Identifier{}, err
		}
		return swift.Ident(name), nil
	default:
		return swift.Identifier{}, p.failf(ErrUnexpectedChar, "%q, expected identifier", c)
	}
}

// parseDeclName reads an identifier, a private name ('P' discriminator
// name) or a local name ('L' index name).
func (p *parser) parseDeclName() (swift.Identifier, error) {
	switch p.peek() {
	case 'P':
		p.consume()
		if _, err := p.parseIdentifier(); err != nil {
			return swift.Identifier{}, err
		}
	case 'L':
		p.consume()
		if _, err := p.readIndex(); err != nil {
			return swift.Identifier{}, err
		}
	}
	return p.parseIdentifier()
}

func (p *parser) push(s substitution) {
	p.subst = append(p.subst, s)
}

// readSubstitution reads the index after an 'S' and returns its target.
func (p *parser) readSubstitution() (substitution, error) {
	start := p.pos
	idx, err := p.readIndex()
	if err != nil {
		return substitution{}, err
	}
	if idx >= len(p.subst) {
		return substitution{}, &Error{
			Symbol: p.symbol,
			Pos:    start,
			Err:    fmt.Errorf("%w: index %d with %d entries", ErrBadSubstitution, idx, len(p.subst)),
		}
	}
	return p.subst[idx], nil
}
