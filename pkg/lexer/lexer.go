// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/evie-calico/evscript/pkg/source"
)

// Lexer scans a source.File one Token at a time.
type Lexer struct {
	file *source.File
	src  []byte
	pos  int
}

// New constructs a Lexer over file's contents.
func New(file *source.File) *Lexer {
	return &Lexer{file: file, src: file.Contents()}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}

	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}

	return l.src[l.pos+offset]
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		switch c := l.peek(); {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekAt(1) == '*':
			l.pos += 2
			for l.pos < len(l.src) && !(l.peek() == '*' && l.peekAt(1) == '/') {
				l.pos++
			}

			l.pos += 2
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Next reads and returns the next Token, or a *source.CompileError on a
// malformed literal or unrecognized character.
func (l *Lexer) Next() (Token, error) {
	l.skipTrivia()

	start := l.pos

	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Span: source.Span{Start: start, End: start}}, nil
	}

	c := l.peek()

	switch {
	case c == '#':
		return l.lexInlineAssembly(start)
	case isIdentStart(c):
		return l.lexIdentifier(start), nil
	case isDigit(c):
		return l.lexNumber(start)
	case c == '"':
		return l.lexString(start)
	default:
		return l.lexOperator(start)
	}
}

func (l *Lexer) lexIdentifier(start int) Token {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}

	text := string(l.src[start:l.pos])
	span := source.Span{Start: start, End: l.pos}

	if kw, ok := keywords[text]; ok {
		return Token{Kind: kw, Text: text, Span: span}
	}

	return Token{Kind: Identifier, Text: text, Span: span}
}

func (l *Lexer) lexNumber(start int) (Token, error) {
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.pos += 2
		digitsStart := l.pos

		for l.pos < len(l.src) && isHexDigit(l.src[l.pos]) {
			l.pos++
		}

		text := string(l.src[start:l.pos])
		v, err := strconv.ParseInt(string(l.src[digitsStart:l.pos]), 16, 64)
		if err != nil {
			return Token{}, l.file.Error(source.Span{Start: start, End: l.pos}, fmt.Sprintf("invalid hex literal %q", text))
		}

		return Token{Kind: Int, Text: text, Value: v, Span: source.Span{Start: start, End: l.pos}}, nil
	}

	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}

	text := string(l.src[start:l.pos])

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, l.file.Error(source.Span{Start: start, End: l.pos}, fmt.Sprintf("invalid integer literal %q", text))
	}

	return Token{Kind: Int, Text: text, Value: v, Span: source.Span{Start: start, End: l.pos}}, nil
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (l *Lexer) lexString(start int) (Token, error) {
	l.pos++ // opening quote

	var b strings.Builder

	for {
		if l.pos >= len(l.src) {
			return Token{}, l.file.Error(source.Span{Start: start, End: l.pos}, "unterminated string literal")
		}

		c := l.src[l.pos]

		if c == '"' {
			l.pos++
			break
		}

		if c == '\\' {
			l.pos++

			switch l.peek() {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				return Token{}, l.file.Error(source.Span{Start: l.pos, End: l.pos + 1}, fmt.Sprintf("unknown escape sequence \\%c", l.peek()))
			}

			l.pos++

			continue
		}

		b.WriteByte(c)
		l.pos++
	}

	return Token{Kind: Str, Text: b.String(), Span: source.Span{Start: start, End: l.pos}}, nil
}

// lexInlineAssembly handles a "#asm ... #end" block, returning everything
// between the two directives verbatim as a single InlineAssembly token.
func (l *Lexer) lexInlineAssembly(start int) (Token, error) {
	const openDirective = "#asm"

	if !strings.HasPrefix(string(l.src[l.pos:]), openDirective) {
		return Token{}, l.file.Error(source.Span{Start: start, End: start + 1}, "unexpected '#'; only #asm blocks use '#'")
	}

	l.pos += len(openDirective)

	bodyStart := l.pos
	endDirective := "#end"
	idx := strings.Index(string(l.src[l.pos:]), endDirective)

	if idx < 0 {
		return Token{}, l.file.Error(source.Span{Start: start, End: len(l.src)}, "unterminated #asm block: missing #end")
	}

	bodyEnd := l.pos + idx
	l.pos = bodyEnd + len(endDirective)

	text := strings.Trim(string(l.src[bodyStart:bodyEnd]), "\n\r")

	return Token{Kind: InlineAssembly, Text: text, Span: source.Span{Start: start, End: l.pos}}, nil
}

func (l *Lexer) lexOperator(start int) (Token, error) {
	two := func(second byte, kind Kind) (Token, bool) {
		if l.peekAt(1) == second {
			l.pos += 2

			return Token{Kind: kind, Span: source.Span{Start: start, End: l.pos}}, true
		}

		return Token{}, false
	}

	c := l.peek()

	switch c {
	case '(':
		l.pos++
		return Token{Kind: LeftParen, Span: source.Span{Start: start, End: l.pos}}, nil
	case ')':
		l.pos++
		return Token{Kind: RightParen, Span: source.Span{Start: start, End: l.pos}}, nil
	case '{':
		l.pos++
		return Token{Kind: LeftBrace, Span: source.Span{Start: start, End: l.pos}}, nil
	case '}':
		l.pos++
		return Token{Kind: RightBrace, Span: source.Span{Start: start, End: l.pos}}, nil
	case ';':
		l.pos++
		return Token{Kind: Semicolon, Span: source.Span{Start: start, End: l.pos}}, nil
	case ',':
		l.pos++
		return Token{Kind: Comma, Span: source.Span{Start: start, End: l.pos}}, nil
	case '.':
		l.pos++
		return Token{Kind: Dot, Span: source.Span{Start: start, End: l.pos}}, nil
	case '~':
		l.pos++
		return Token{Kind: Tilde, Span: source.Span{Start: start, End: l.pos}}, nil
	case '$':
		l.pos++
		return Token{Kind: Dollar, Span: source.Span{Start: start, End: l.pos}}, nil
	case '+':
		l.pos++
		return Token{Kind: Plus, Span: source.Span{Start: start, End: l.pos}}, nil
	case '-':
		l.pos++
		return Token{Kind: Minus, Span: source.Span{Start: start, End: l.pos}}, nil
	case '*':
		l.pos++
		return Token{Kind: Star, Span: source.Span{Start: start, End: l.pos}}, nil
	case '/':
		l.pos++
		return Token{Kind: Slash, Span: source.Span{Start: start, End: l.pos}}, nil
	case '%':
		l.pos++
		return Token{Kind: Percent, Span: source.Span{Start: start, End: l.pos}}, nil
	case '^':
		l.pos++
		return Token{Kind: Caret, Span: source.Span{Start: start, End: l.pos}}, nil
	case '<':
		if tok, ok := two('<', ShiftLeft); ok {
			return tok, nil
		}

		if tok, ok := two('=', LessEq); ok {
			return tok, nil
		}

		l.pos++

		return Token{Kind: Less, Span: source.Span{Start: start, End: l.pos}}, nil
	case '>':
		if tok, ok := two('>', ShiftRight); ok {
			return tok, nil
		}

		if tok, ok := two('=', GreaterEq); ok {
			return tok, nil
		}

		l.pos++

		return Token{Kind: Greater, Span: source.Span{Start: start, End: l.pos}}, nil
	case '&':
		if tok, ok := two('&', AmpAmp); ok {
			return tok, nil
		}

		l.pos++

		return Token{Kind: Amp, Span: source.Span{Start: start, End: l.pos}}, nil
	case '|':
		if tok, ok := two('|', PipePipe); ok {
			return tok, nil
		}

		l.pos++

		return Token{Kind: Pipe, Span: source.Span{Start: start, End: l.pos}}, nil
	case '=':
		if tok, ok := two('=', EqEq); ok {
			return tok, nil
		}

		l.pos++

		return Token{Kind: Assign, Span: source.Span{Start: start, End: l.pos}}, nil
	case '!':
		if tok, ok := two('=', NotEq); ok {
			return tok, nil
		}

		return Token{}, l.file.Error(source.Span{Start: start, End: start + 1}, "'!' is only valid as part of '!='")
	default:
		return Token{}, l.file.Error(source.Span{Start: start, End: start + 1}, fmt.Sprintf("unexpected character %q", c))
	}
}
