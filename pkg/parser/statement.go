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

package parser

import (
	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/lexer"
	"github.com/evie-calico/evscript/pkg/source"
)

// parseStatement parses one statement permitted inside a function body.
func (p *Parser) parseStatement() (ast.Statement, error) {
	start := p.tok.Span

	switch p.tok.Kind {
	case lexer.KwIf:
		return p.parseIf(start)
	case lexer.KwWhile:
		return p.parseWhile(start)
	case lexer.KwDo:
		return p.parseDo(start)
	case lexer.KwFor:
		return p.parseFor(start)
	case lexer.KwRepeat:
		return p.parseRepeat(start)
	case lexer.KwLoop:
		return p.parseLoop(start)
	case lexer.InlineAssembly:
		text := p.tok.Text
		if err := p.advance(); err != nil {
			return ast.Statement{}, err
		}

		return ast.Statement{Type: ast.Asm{Text: text}, Span: start}, nil
	case lexer.Identifier:
		return p.parseIdentifierLedStatement(start)
	default:
		return p.parseExpressionStatement(start)
	}
}

// parseIdentifierLedStatement disambiguates declarations ("u8 x;", "u8* x;",
// "u8 x = 1;") from plain expression statements ("foo();", "x = 1;") by
// trying a declaration first: declarations always start with a type name
// immediately followed by another identifier (optionally with a '*'
// between them).
func (p *Parser) parseIdentifierLedStatement(start source.Span) (ast.Statement, error) {
	typeName, err := p.parseTypeName()
	if err != nil {
		return ast.Statement{}, err
	}

	if p.tok.Kind == lexer.Dot {
		// "pos.x = 1;" — a dotted path can only be a member access, never a
		// type name, so this is an expression statement.
		name, err := p.parseDottedSuffix(typeName)
		if err != nil {
			return ast.Statement{}, err
		}

		return p.finishExpressionFromTypeName(start, name)
	}

	if p.tok.Kind != lexer.Identifier {
		return p.finishExpressionFromTypeName(start, typeName)
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return ast.Statement{}, err
	}

	pointer := false
	base := typeName

	if len(typeName) > 0 && typeName[len(typeName)-1] == '*' {
		pointer = true
		base = typeName[:len(typeName)-1]
	}

	if p.tok.Kind == lexer.Assign {
		if err := p.advance(); err != nil {
			return ast.Statement{}, err
		}

		value, err := p.parseExpr(0)
		if err != nil {
			return ast.Statement{}, err
		}

		end, err := p.expect(lexer.Semicolon, "';'")
		if err != nil {
			return ast.Statement{}, err
		}

		span := source.Span{Start: start.Start, End: end.Span.End}

		if pointer {
			return ast.Statement{Type: ast.PointerDeclareAssign{TypeName: base, Name: name.Text, Expr: value}, Span: span}, nil
		}

		return ast.Statement{Type: ast.DeclareAssign{TypeName: base, Name: name.Text, Expr: value}, Span: span}, nil
	}

	end, err := p.expect(lexer.Semicolon, "';'")
	if err != nil {
		return ast.Statement{}, err
	}

	span := source.Span{Start: start.Start, End: end.Span.End}

	if pointer {
		return ast.Statement{Type: ast.PointerDeclaration{TypeName: base, Name: name.Text}, Span: span}, nil
	}

	return ast.Statement{Type: ast.Declaration{TypeName: base, Name: name.Text}, Span: span}, nil
}

// finishExpressionFromTypeName handles the case where an identifier at
// statement-start turned out not to introduce a declaration: typeName is
// really a bare variable/call name, so re-enter expression parsing with it
// as the already-consumed left operand.
func (p *Parser) finishExpressionFromTypeName(start source.Span, name string) (ast.Statement, error) {
	var expr ast.Rpn

	switch {
	case p.tok.Kind == lexer.LeftParen:
		args, err := p.parseArgList()
		if err != nil {
			return ast.Statement{}, err
		}

		expr = ast.Call{Name: name, Args: args}
	case p.tok.Kind == lexer.Assign:
		if err := p.advance(); err != nil {
			return ast.Statement{}, err
		}

		value, err := p.parseExpr(0)
		if err != nil {
			return ast.Statement{}, err
		}

		expr = ast.Set{Name: name, Value: value}
	default:
		expr = ast.Variable{Name: name}
	}

	expr, err := p.continueBinary(expr, 0)
	if err != nil {
		return ast.Statement{}, err
	}

	end, err := p.expect(lexer.Semicolon, "';'")
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{Type: ast.Expression{Expr: expr}, Span: source.Span{Start: start.Start, End: end.Span.End}}, nil
}

// continueBinary resumes precedence climbing with left already parsed,
// used when a statement needed to look past the first identifier to decide
// it wasn't a declaration.
func (p *Parser) continueBinary(left ast.Rpn, minPrec int) (ast.Rpn, error) {
	for {
		op, ok := binaryOps[p.tok.Kind]
		if !ok || op.prec < minPrec {
			return left, nil
		}

		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseExpr(op.prec + 1)
		if err != nil {
			return nil, err
		}

		left = ast.BinaryOp{Operator: op.op, Left: left, Right: right}
	}
}

func (p *Parser) parseExpressionStatement(start source.Span) (ast.Statement, error) {
	expr, err := p.parseExpr(0)
	if err != nil {
		return ast.Statement{}, err
	}

	end, err := p.expect(lexer.Semicolon, "';'")
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{Type: ast.Expression{Expr: expr}, Span: source.Span{Start: start.Start, End: end.Span.End}}, nil
}

func (p *Parser) parseBlock() ([]ast.Statement, error) {
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

	return body, p.advance()
}

func (p *Parser) parseParenExpr() (ast.Rpn, error) {
	if _, err := p.expect(lexer.LeftParen, "'('"); err != nil {
		return nil, err
	}

	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	_, err = p.expect(lexer.RightParen, "')'")

	return expr, err
}

func (p *Parser) parseIf(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	cond, err := p.parseParenExpr()
	if err != nil {
		return ast.Statement{}, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return ast.Statement{}, err
	}

	var elseBody []ast.Statement

	end := start

	if p.tok.Kind == lexer.KwElse {
		if err := p.advance(); err != nil {
			return ast.Statement{}, err
		}

		if p.tok.Kind == lexer.KwIf {
			elseIfStart := p.tok.Span

			elseIf, err := p.parseIf(elseIfStart)
			if err != nil {
				return ast.Statement{}, err
			}

			elseBody = []ast.Statement{elseIf}
			end = elseIf.Span
		} else {
			elseBody, err = p.parseBlock()
			if err != nil {
				return ast.Statement{}, err
			}

			if elseBody == nil {
				// An empty else block still lowers to its labels and jump.
				elseBody = []ast.Statement{}
			}
		}
	}

	return ast.Statement{Type: ast.If{Cond: cond, Then: then, Else: elseBody}, Span: source.Span{Start: start.Start, End: end.End}}, nil
}

func (p *Parser) parseWhile(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	cond, err := p.parseParenExpr()
	if err != nil {
		return ast.Statement{}, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{Type: ast.While{Cond: cond, Body: body}, Span: start}, nil
}

func (p *Parser) parseDo(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return ast.Statement{}, err
	}

	if _, err := p.expect(lexer.KwWhile, "'while'"); err != nil {
		return ast.Statement{}, err
	}

	cond, err := p.parseParenExpr()
	if err != nil {
		return ast.Statement{}, err
	}

	end, err := p.expect(lexer.Semicolon, "';'")
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{Type: ast.Do{Cond: cond, Body: body}, Span: source.Span{Start: start.Start, End: end.Span.End}}, nil
}

func (p *Parser) parseFor(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	if _, err := p.expect(lexer.LeftParen, "'('"); err != nil {
		return ast.Statement{}, err
	}

	prologue, err := p.parseStatement()
	if err != nil {
		return ast.Statement{}, err
	}

	cond, err := p.parseExpr(0)
	if err != nil {
		return ast.Statement{}, err
	}

	if _, err := p.expect(lexer.Semicolon, "';'"); err != nil {
		return ast.Statement{}, err
	}

	epilogueStart := p.tok.Span

	epilogue, err := p.parseExpressionStatementNoSemicolon(epilogueStart)
	if err != nil {
		return ast.Statement{}, err
	}

	if _, err := p.expect(lexer.RightParen, "')'"); err != nil {
		return ast.Statement{}, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{
		Type: ast.For{Prologue: &prologue, Cond: cond, Epilogue: &epilogue, Body: body},
		Span: start,
	}, nil
}

// parseExpressionStatementNoSemicolon parses a bare expression as a
// statement without requiring a trailing ';' — used for a for-loop's
// epilogue clause, which is followed by ')' rather than ';'.
func (p *Parser) parseExpressionStatementNoSemicolon(start source.Span) (ast.Statement, error) {
	expr, err := p.parseExpr(0)
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{Type: ast.Expression{Expr: expr}, Span: source.Span{Start: start.Start, End: p.tok.Span.Start}}, nil
}

func (p *Parser) parseRepeat(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	count, err := p.parseExpr(0)
	if err != nil {
		return ast.Statement{}, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{Type: ast.Repeat{Count: count, Body: body}, Span: start}, nil
}

func (p *Parser) parseLoop(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{Type: ast.Loop{Body: body}, Span: start}, nil
}
