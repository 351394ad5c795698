package frontend

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// lexer is a hand-written scanner over the source text. Unlike the
// teacher's Pike-style concurrent lexer (built to feed a goyacc grammar via
// channels), this grammar is small enough that a single-pass, non-channel
// scanner producing a slice of tokens is the simpler and more idiomatic
// choice -- the same simplification the teacher itself reaches for in its
// hand-rolled literal parsing helpers (frontend/tree.go).
type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

// multi-character punctuation must be tried before their single-character
// prefixes.
var punctuators = []string{
	"<=", ">=", "==", "!=",
	"(", ")", "{", "}", ";", ",", "=", "+", "-", "*", "/", "<", ">", "&",
}

// Lex scans src into a flat token slice terminated by an EOF token. It
// returns an error wrapping the offending line and column on any
// unrecognised character, per the §7 "lexical / syntactic" error category.
func Lex(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if unicode.IsSpace(r) {
			for i := 0; i < size; i++ {
				l.advance()
			}
			continue
		}
		if strings.HasPrefix(l.src[l.pos:], "//") {
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

func (l *lexer) next() (Token, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Line: l.line, Col: l.col}, nil
	}

	line, col := l.line, l.col
	c := l.peekByte()

	switch {
	case c >= '0' && c <= '9':
		start := l.pos
		for l.pos < len(l.src) && l.peekByte() >= '0' && l.peekByte() <= '9' {
			l.advance()
		}
		lit := l.src[start:l.pos]
		var v int64
		for _, r := range lit {
			v = v*10 + int64(r-'0')
		}
		return Token{Kind: Num, Lit: lit, Num: int32(v), Line: line, Col: col}, nil

	case isIdentStart(rune(c)):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(rune(l.peekByte())) {
			l.advance()
		}
		lit := l.src[start:l.pos]
		if kw, ok := keywords[lit]; ok {
			return Token{Kind: kw, Lit: lit, Line: line, Col: col}, nil
		}
		return Token{Kind: Ident, Lit: lit, Line: line, Col: col}, nil

	default:
		for _, p := range punctuators {
			if strings.HasPrefix(l.src[l.pos:], p) {
				for range p {
					l.advance()
				}
				return Token{Kind: Punct, Lit: p, Line: line, Col: col}, nil
			}
		}
		return Token{}, l.errorAt(line, col, errors.Errorf("unrecognised character %q", c))
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// errorAt builds the §6 diagnostic: the echoed source line followed by a
// caret marker under the failing column.
func (l *lexer) errorAt(line, col int, cause error) error {
	return errors.Wrap(cause, caretMessage(l.src, line, col))
}

// caretMessage renders the offending source line and a caret under column
// col (1-indexed), the format every diagnostic in this package shares.
func caretMessage(src string, line, col int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return "<unknown position>"
	}
	text := lines[line-1]
	caret := strings.Repeat(" ", max(col-1, 0)) + "^"
	return text + "\n" + caret
}
