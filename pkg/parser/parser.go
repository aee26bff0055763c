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

// Package parser implements a recursive-descent parser producing pkg/ast
// trees from the token stream pkg/lexer produces.
package parser

import (
	"fmt"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/lexer"
	"github.com/evie-calico/evscript/pkg/source"
)

// Parser consumes a token stream and builds a []ast.Root.
type Parser struct {
	file *source.File
	lex  *lexer.Lexer
	tok  lexer.Token
}

// Parse tokenizes and parses an entire source file into a list of Roots in
// declaration order.
func Parse(file *source.File) ([]ast.Root, error) {
	p := &Parser{file: file, lex: lexer.New(file)}

	if err := p.advance(); err != nil {
		return nil, err
	}

	var roots []ast.Root

	for p.tok.Kind != lexer.EOF {
		root, err := p.parseRoot()
		if err != nil {
			return nil, err
		}

		roots = append(roots, root)
	}

	return roots, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}

	p.tok = tok

	return nil
}

func (p *Parser) errorf(span source.Span, format string, args ...any) error {
	return p.file.Error(span, fmt.Sprintf(format, args...))
}

func (p *Parser) unexpected(want string) error {
	return p.errorf(p.tok.Span, "unexpected token (wanted %s)", want)
}

// expect consumes the current token if it has kind, or fails.
func (p *Parser) expect(kind lexer.Kind, want string) (lexer.Token, error) {
	if p.tok.Kind != kind {
		return lexer.Token{}, p.unexpected(want)
	}

	tok := p.tok

	return tok, p.advance()
}

func (p *Parser) expectIdentifier() (lexer.Token, error) {
	return p.expect(lexer.Identifier, "an identifier")
}

// parseDottedSuffix extends name with any ".member" accesses that follow it,
// producing the dotted path pkg/pool.Table.Lookup resolves against struct
// layouts (e.g. "pos.x").
func (p *Parser) parseDottedSuffix(name string) (string, error) {
	for p.tok.Kind == lexer.Dot {
		if err := p.advance(); err != nil {
			return "", err
		}

		member, err := p.expectIdentifier()
		if err != nil {
			return "", err
		}

		name += "." + member.Text
	}

	return name, nil
}

// parseTypeName parses a bare type name optionally followed by one or more
// trailing '*' pointer markers, returning the combined name (e.g. "Entity*")
// as pkg/types.Table.Lookup expects it.
func (p *Parser) parseTypeName() (string, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return "", err
	}

	text := name.Text

	for p.tok.Kind == lexer.Star {
		text += "*"

		if err := p.advance(); err != nil {
			return "", err
		}
	}

	return text, nil
}

func (p *Parser) parseRoot() (ast.Root, error) {
	switch p.tok.Kind {
	case lexer.KwEnv:
		return p.parseEnvironment()
	case lexer.KwInclude:
		return p.parseInclude()
	case lexer.KwTypedef:
		return p.parseTypedef()
	case lexer.KwStruct:
		return p.parseStructDecl()
	case lexer.InlineAssembly:
		tok := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}

		return ast.Assembly{Text: tok.Text}, nil
	case lexer.Identifier:
		return p.parseFunction()
	default:
		return nil, p.unexpected("a top-level declaration")
	}
}

func (p *Parser) parseInclude() (ast.Root, error) {
	start := p.tok.Span
	if err := p.advance(); err != nil {
		return nil, err
	}

	path, err := p.expect(lexer.Str, "a string literal path")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Semicolon, "';'"); err != nil {
		return nil, err
	}

	return ast.Include{Path: path.Text, Span: source.Span{Start: start.Start, End: path.Span.End}}, nil
}

func (p *Parser) parseTypedef() (ast.Root, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Assign, "'='"); err != nil {
		return nil, err
	}

	underlying, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Semicolon, "';'"); err != nil {
		return nil, err
	}

	return ast.Typedef{Name: name.Text, Underlying: underlying}, nil
}

func (p *Parser) parseStructDecl() (ast.Root, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LeftBrace, "'{'"); err != nil {
		return nil, err
	}

	var members []ast.StructMember

	for p.tok.Kind != lexer.RightBrace {
		typeName, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}

		fieldName, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.Semicolon, "';'"); err != nil {
			return nil, err
		}

		members = append(members, ast.StructMember{Name: fieldName.Text, TypeName: typeName})
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	return ast.StructDecl{Name: name.Text, Members: members}, nil
}

func (p *Parser) parseEnvironment() (ast.Root, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LeftBrace, "'{'"); err != nil {
		return nil, err
	}

	var body []ast.Statement

	for p.tok.Kind != lexer.RightBrace {
		stmt, err := p.parseEnvironmentStatement()
		if err != nil {
			return nil, err
		}

		body = append(body, stmt)
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	return ast.Environment{Name: name.Text, Body: body}, nil
}

func (p *Parser) parseFunction() (ast.Root, error) {
	envName, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.KwFn, "'fn'"); err != nil {
		return nil, err
	}

	fnName, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LeftBrace, "'{'"); err != nil {
		return nil, err
	}

	var body []ast.Statement

	for p.tok.Kind != lexer.RightBrace {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		body = append(body, stmt)
	}

	end := p.tok.Span

	if err := p.advance(); err != nil {
		return nil, err
	}

	return ast.Function{
		EnvironmentName: envName.Text,
		Name:            fnName.Text,
		Body:            body,
		Span:            source.Span{Start: envName.Span.Start, End: end.End},
	}, nil
}
