// Package ir implements the Textual IR: a lexer, a recursive-descent
// parser, and a canonical printer for the human
// readable computation grammar.
package ir

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kkloberdanz/moose/internal/mooseerr"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokHex
	tokSymbol // one of = { } ( ) , : -> @ [ ]
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	src []rune
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (l *lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	return r
}

func (l *lexer) skipWhitespaceAndComments() {
	for {
		r, ok := l.peekRune()
		if !ok {
			return
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			l.pos++
			continue
		}
		if r == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		return
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// next lexes and returns the next token, or a ParseError if the input is
// malformed at the current position.
func (l *lexer) next() (token, error) {
	l.skipWhitespaceAndComments()
	start := l.pos
	r, ok := l.peekRune()
	if !ok {
		return token{kind: tokEOF, pos: start}, nil
	}

	switch {
	case isIdentStart(r):
		for {
			r, ok := l.peekRune()
			if !ok || !isIdentCont(r) {
				break
			}
			l.pos++
		}
		return token{kind: tokIdent, text: string(l.src[start:l.pos]), pos: start}, nil

	case r == '"':
		return l.lexString(start)

	case isDigit(r) || (r == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.lexNumberOrHex(start)

	case r == '-' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '>':
		l.pos += 2
		return token{kind: tokSymbol, text: "->", pos: start}, nil

	case strings.ContainsRune("={}(),:@[]", r):
		l.pos++
		return token{kind: tokSymbol, text: string(r), pos: start}, nil

	default:
		return token{}, mooseerr.New(mooseerr.ParseError, "unexpected character %q at position %d", r, start)
	}
}

func (l *lexer) lexString(start int) (token, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok {
			return token{}, mooseerr.New(mooseerr.ParseError, "unterminated string starting at position %d", start)
		}
		if r == '"' {
			l.pos++
			return token{kind: tokString, text: b.String(), pos: start}, nil
		}
		if r == '\\' {
			l.pos++
			esc, ok := l.peekRune()
			if !ok {
				return token{}, mooseerr.New(mooseerr.ParseError, "unterminated escape at position %d", l.pos)
			}
			switch esc {
			case 'n':
				b.WriteRune('\n')
				l.pos++
			case 't':
				b.WriteRune('\t')
				l.pos++
			case 'r':
				b.WriteRune('\r')
				l.pos++
			case '"', '\\', '/':
				b.WriteRune(esc)
				l.pos++
			case 'u':
				l.pos++
				if l.pos+4 > len(l.src) {
					return token{}, mooseerr.New(mooseerr.ParseError, "truncated \\u escape at position %d", l.pos)
				}
				hex := string(l.src[l.pos : l.pos+4])
				code, err := strconv.ParseUint(hex, 16, 32)
				if err != nil {
					return token{}, mooseerr.New(mooseerr.ParseError, "invalid \\u escape %q at position %d", hex, l.pos)
				}
				var buf [utf8.UTFMax]byte
				n := utf8.EncodeRune(buf[:], rune(code))
				b.Write(buf[:n])
				l.pos += 4
			default:
				return token{}, mooseerr.New(mooseerr.ParseError, "invalid escape \\%c at position %d", esc, l.pos)
			}
			continue
		}
		b.WriteRune(r)
		l.pos++
	}
}

func (l *lexer) lexNumberOrHex(start int) (token, error) {
	if l.src[l.pos] == '0' && l.pos+1 < len(l.src) && (l.src[l.pos+1] == 'x' || l.src[l.pos+1] == 'X') {
		l.pos += 2
		hexStart := l.pos
		for {
			r, ok := l.peekRune()
			if !ok || !isHexDigit(r) {
				break
			}
			l.pos++
		}
		if (l.pos-hexStart)%2 != 0 {
			return token{}, mooseerr.New(mooseerr.ParseError, "hex literal at position %d has an odd number of digits", start)
		}
		return token{kind: tokHex, text: string(l.src[hexStart:l.pos]), pos: start}, nil
	}
	if l.src[l.pos] == '-' {
		l.pos++
	}
	for {
		r, ok := l.peekRune()
		if !ok || !isDigit(r) {
			break
		}
		l.pos++
	}
	if r, ok := l.peekRune(); ok && r == '.' {
		l.pos++
		for {
			r, ok := l.peekRune()
			if !ok || !isDigit(r) {
				break
			}
			l.pos++
		}
	}
	if r, ok := l.peekRune(); ok && (r == 'e' || r == 'E') {
		l.pos++
		if r, ok := l.peekRune(); ok && (r == '+' || r == '-') {
			l.pos++
		}
		for {
			r, ok := l.peekRune()
			if !ok || !isDigit(r) {
				break
			}
			l.pos++
		}
	}
	return token{kind: tokNumber, text: string(l.src[start:l.pos]), pos: start}, nil
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}
