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
	"strconv"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/lexer"
	"github.com/evie-calico/evscript/pkg/source"
)

// parseEnvironmentStatement parses one of the statement forms permitted
// inside an `env { ... }` body: use, def, alias, mac, or pool.
func (p *Parser) parseEnvironmentStatement() (ast.Statement, error) {
	start := p.tok.Span

	switch p.tok.Kind {
	case lexer.KwUse:
		return p.parseUse(start)
	case lexer.KwDef:
		return p.parseDef(start)
	case lexer.KwAlias:
		return p.parseAlias(start)
	case lexer.KwMac:
		return p.parseMacro(start)
	case lexer.KwPool:
		return p.parsePool(start)
	default:
		return ast.Statement{}, p.unexpected("use, def, alias, mac, or pool")
	}
}

func (p *Parser) parseUse(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return ast.Statement{}, err
	}

	end, err := p.expect(lexer.Semicolon, "';'")
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{Type: ast.Use{Name: name.Text}, Span: source.Span{Start: start.Start, End: end.Span.End}}, nil
}

func (p *Parser) parsePool(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	if _, err := p.expect(lexer.Assign, "'='"); err != nil {
		return ast.Statement{}, err
	}

	expr, err := p.parseExpr(0)
	if err != nil {
		return ast.Statement{}, err
	}

	end, err := p.expect(lexer.Semicolon, "';'")
	if err != nil {
		return ast.Statement{}, err
	}

	return ast.Statement{Type: ast.Pool{Expr: expr}, Span: source.Span{Start: start.Start, End: end.Span.End}}, nil
}

func (p *Parser) parseDef(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return ast.Statement{}, err
	}

	params, err := p.parseParamList()
	if err != nil {
		return ast.Statement{}, err
	}

	end, err := p.expect(lexer.Semicolon, "';'")
	if err != nil {
		return ast.Statement{}, err
	}

	def := ast.DefinitionStatement{Name: name.Text, Definition: ast.Def{Args: params}}

	return ast.Statement{Type: def, Span: source.Span{Start: start.Start, End: end.Span.End}}, nil
}

func (p *Parser) parseAlias(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return ast.Statement{}, err
	}

	params, err := p.parseParamList()
	if err != nil {
		return ast.Statement{}, err
	}

	if _, err := p.expect(lexer.Assign, "'='"); err != nil {
		return ast.Statement{}, err
	}

	target, err := p.expectIdentifier()
	if err != nil {
		return ast.Statement{}, err
	}

	targetArgs, err := p.parseAliasArgList()
	if err != nil {
		return ast.Statement{}, err
	}

	end, err := p.expect(lexer.Semicolon, "';'")
	if err != nil {
		return ast.Statement{}, err
	}

	def := ast.DefinitionStatement{
		Name: name.Text,
		Definition: ast.Alias{
			Args:       params,
			Target:     target.Text,
			TargetArgs: targetArgs,
		},
	}

	return ast.Statement{Type: def, Span: source.Span{Start: start.Start, End: end.Span.End}}, nil
}

func (p *Parser) parseMacro(start source.Span) (ast.Statement, error) {
	if err := p.advance(); err != nil {
		return ast.Statement{}, err
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return ast.Statement{}, err
	}

	params, err := p.parseParamList()
	if err != nil {
		return ast.Statement{}, err
	}

	if _, err := p.expect(lexer.Assign, "'='"); err != nil {
		return ast.Statement{}, err
	}

	target, err := p.expectIdentifier()
	if err != nil {
		return ast.Statement{}, err
	}

	end, err := p.expect(lexer.Semicolon, "';'")
	if err != nil {
		return ast.Statement{}, err
	}

	def := ast.DefinitionStatement{Name: name.Text, Definition: ast.Macro{Args: params, Target: target.Text}}

	return ast.Statement{Type: def, Span: source.Span{Start: start.Start, End: end.Span.End}}, nil
}

// parseParamList parses "(const u8, return u16, Entity*)" into a []ast.Param.
func (p *Parser) parseParamList() ([]ast.Param, error) {
	if _, err := p.expect(lexer.LeftParen, "'('"); err != nil {
		return nil, err
	}

	var params []ast.Param

	for p.tok.Kind != lexer.RightParen {
		if len(params) > 0 {
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return nil, err
			}
		}

		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}

		params = append(params, param)
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	return params, nil
}

func (p *Parser) parseParam() (ast.Param, error) {
	switch p.tok.Kind {
	case lexer.KwConst:
		if err := p.advance(); err != nil {
			return nil, err
		}

		name, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}

		return ast.ConstParam{TypeName: name}, nil
	case lexer.KwReturn:
		if err := p.advance(); err != nil {
			return nil, err
		}

		name, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}

		return ast.ReturnParam{TypeName: name}, nil
	default:
		name, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}

		return ast.TypeParam{TypeName: name}, nil
	}
}

// parseAliasArgList parses "($1, const 4, x + 1)" into a []ast.AliasParam.
func (p *Parser) parseAliasArgList() ([]ast.AliasParam, error) {
	if _, err := p.expect(lexer.LeftParen, "'('"); err != nil {
		return nil, err
	}

	var args []ast.AliasParam

	for p.tok.Kind != lexer.RightParen {
		if len(args) > 0 {
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return nil, err
			}
		}

		arg, err := p.parseAliasArg()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	return args, nil
}

func (p *Parser) parseAliasArg() (ast.AliasParam, error) {
	switch p.tok.Kind {
	case lexer.Dollar:
		if err := p.advance(); err != nil {
			return nil, err
		}

		idx, err := p.expect(lexer.Int, "an argument index")
		if err != nil {
			return nil, err
		}

		n, convErr := strconv.Atoi(idx.Text)
		if convErr != nil {
			return nil, p.errorf(idx.Span, "invalid argument index %q", idx.Text)
		}

		return ast.ArgId{Index: n}, nil
	case lexer.KwConst:
		if err := p.advance(); err != nil {
			return nil, err
		}

		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}

		return ast.AliasConst{Value: expr}, nil
	default:
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}

		return ast.AliasExpression{Value: expr}, nil
	}
}
