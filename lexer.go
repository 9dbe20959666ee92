package tmplx

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// segmentType distinguishes the two things a lexer emits: raw text that
// passes through untouched, and the inner text of a {{ ... }} placeholder.
type segmentType int

const (
	segLiteral segmentType = iota
	segPlaceholder
)

// segment is one lexed piece of template source.
type segment struct {
	typ  segmentType
	text string // literal text, or the trimmed inner text of a placeholder
	pos  int    // byte offset of the segment's start in the original source
	raw  string // for segPlaceholder, the full "{{ ... }}" source span
}

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

const eof rune = -1

// lexer splits template source into literal and placeholder segments
// over a channel, one state function at a time, tracking quote state so
// a }} inside a string literal does not terminate the placeholder
// early. Modeled directly on go-goods-tmpl's lex.go: a lexerState
// function type, next/backup/emit primitives, and a goroutine driving
// state transitions until it emits nil, generalized from {% %} call/
// push/pop tokens to {{ }} literal/placeholder segments.
type lexer struct {
	src     string
	pos     int
	tail    int
	width   int
	phStart int // byte offset of the "{{" that opened the placeholder being scanned
	out     chan segment
	err     error
}

type lexerState func(l *lexer) lexerState

// lex tokenizes the given template source into an ordered list of
// segments. A TemplateParseError is returned for an unterminated
// placeholder.
func lex(src string) ([]segment, error) {
	l := &lexer{src: src, out: make(chan segment)}
	go l.run()

	var segs []segment
	for s := range l.out {
		segs = append(segs, s)
	}
	if l.err != nil {
		return nil, l.err
	}
	return segs, nil
}

func (l *lexer) run() {
	for state := lexText; state != nil; {
		state = state(l)
	}
	close(l.out)
}

func (l *lexer) next() rune {
	if l.pos >= len(l.src) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.src[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *lexer) backup() {
	l.pos -= l.width
	l.width = 0
}

func (l *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.src[l.pos:], s)
}

// emitLiteral flushes src[tail:pos] as a literal segment, if non-empty,
// and advances tail to pos.
func (l *lexer) emitLiteral() {
	if l.pos > l.tail {
		l.out <- segment{typ: segLiteral, text: l.src[l.tail:l.pos], pos: l.tail}
	}
	l.tail = l.pos
}

// emitPlaceholder flushes the placeholder that opened at phStart and
// closes at pos (just before "}}"), and advances past the close
// delimiter.
func (l *lexer) emitPlaceholder() {
	inner := l.src[l.tail:l.pos]
	end := l.pos + len(closeDelim)
	l.out <- segment{
		typ:  segPlaceholder,
		text: trimSpace(inner),
		pos:  l.phStart,
		raw:  l.src[l.phStart:end],
	}
	l.pos = end
	l.tail = end
}

func lexText(l *lexer) lexerState {
	for {
		if l.hasPrefix(openDelim) {
			l.emitLiteral()
			return lexOpenDelim
		}
		if l.next() == eof {
			break
		}
	}
	l.emitLiteral()
	return nil
}

func lexOpenDelim(l *lexer) lexerState {
	l.phStart = l.pos
	l.pos += len(openDelim)
	l.tail = l.pos
	return lexInsideDelims
}

// lexInsideDelims scans for the closing "}}", treating a }} inside a
// single- or double-quoted string as ordinary text so an argument like
// '}}' does not terminate the placeholder.
func lexInsideDelims(l *lexer) lexerState {
	var quote rune
	inQuote := false

	for {
		if !inQuote && l.hasPrefix(closeDelim) {
			l.emitPlaceholder()
			return lexText
		}

		r := l.next()
		if r == eof {
			l.err = &TemplateParseError{
				Offset:  l.phStart,
				Message: "unterminated placeholder",
			}
			return nil
		}

		if inQuote {
			if r == quote {
				inQuote = false
			}
			continue
		}
		switch r {
		case '\'', '"':
			inQuote = true
			quote = r
		}
	}
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func (s segment) String() string {
	if s.typ == segLiteral {
		return fmt.Sprintf("literal(%q)", s.text)
	}
	return fmt.Sprintf("placeholder(%q)", s.text)
}
