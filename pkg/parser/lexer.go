package parser

import (
	"unicode"

	"borrowlisp/interpreter-go/pkg/ast"
)

type tokenKind int

const (
	tokenLParen tokenKind = iota
	tokenRParen
	tokenAtom
	tokenEOF
)

type token struct {
	kind  tokenKind
	text  string
	start ast.Position
	end   ast.Position
}

// lexer splits source into parentheses and atoms, tracking 1-based line and column.
type lexer struct {
	input  []rune
	pos    int
	line   int
	column int
}

func newLexer(source string) *lexer {
	return &lexer{input: []rune(source), line: 1, column: 1}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r := l.input[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *lexer) position() ast.Position {
	return ast.Position{Line: l.line, Column: l.column}
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		c := l.peek()
		if c == ';' {
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		} else if unicode.IsSpace(c) {
			l.advance()
		} else {
			break
		}
	}
}

func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', ';':
		return true
	}
	return unicode.IsSpace(r)
}

func (l *lexer) next() token {
	l.skipWhitespace()
	start := l.position()
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, start: start, end: start}
	}
	switch l.peek() {
	case '(', '[':
		l.advance()
		return token{kind: tokenLParen, text: "(", start: start, end: l.position()}
	case ')', ']':
		l.advance()
		return token{kind: tokenRParen, text: ")", start: start, end: l.position()}
	}
	begin := l.pos
	for l.pos < len(l.input) && !isDelimiter(l.peek()) {
		l.advance()
	}
	return token{kind: tokenAtom, text: string(l.input[begin:l.pos]), start: start, end: l.position()}
}
