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
)

// binaryOp describes one infix operator's precedence and the ast.Rpn
// operator it builds.
type binaryOp struct {
	prec int
	op   ast.BinaryOperator
}

// precedence table, highest-binds-tightest: multiplicative, additive, shifts,
// then &, ^, |, then relational, equality, && and ||. Unlike C, the bitwise
// operators bind tighter than the comparisons.
var binaryOps = map[lexer.Kind]binaryOp{
	lexer.Star:       {10, ast.Mul},
	lexer.Slash:      {10, ast.Div},
	lexer.Percent:    {10, ast.Mod},
	lexer.Plus:       {9, ast.Add},
	lexer.Minus:      {9, ast.Sub},
	lexer.ShiftLeft:  {8, ast.ShiftLeft},
	lexer.ShiftRight: {8, ast.ShiftRight},
	lexer.Amp:        {7, ast.BinaryAnd},
	lexer.Caret:      {6, ast.BinaryXor},
	lexer.Pipe:       {5, ast.BinaryOr},
	lexer.Less:       {4, ast.LessThan},
	lexer.Greater:    {4, ast.GreaterThan},
	lexer.LessEq:     {4, ast.LessThanEqu},
	lexer.GreaterEq:  {4, ast.GreaterThanEqu},
	lexer.EqEq:       {3, ast.Equ},
	lexer.NotEq:      {3, ast.NotEqu},
	lexer.AmpAmp:     {2, ast.LogicalAnd},
	lexer.PipePipe:   {1, ast.LogicalOr},
}

// parseExpr implements precedence climbing: minPrec is the lowest-precedence
// operator this call is allowed to consume.
func (p *Parser) parseExpr(minPrec int) (ast.Rpn, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

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

func (p *Parser) parseUnary() (ast.Rpn, error) {
	switch p.tok.Kind {
	case lexer.Minus:
		if err := p.advance(); err != nil {
			return nil, err
		}

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return ast.Negate{Operand: operand}, nil
	case lexer.Tilde:
		if err := p.advance(); err != nil {
			return nil, err
		}

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return ast.Not{Operand: operand}, nil
	case lexer.Star:
		if err := p.advance(); err != nil {
			return nil, err
		}

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return ast.Deref{Operand: operand}, nil
	case lexer.Amp:
		if err := p.advance(); err != nil {
			return nil, err
		}

		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}

		return ast.Address{Name: name.Text}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Rpn, error) {
	switch p.tok.Kind {
	case lexer.Int:
		v := p.tok.Value
		if err := p.advance(); err != nil {
			return nil, err
		}

		return ast.Signed{Value: v}, nil
	case lexer.Str:
		v := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}

		return ast.String{Value: v}, nil
	case lexer.LeftParen:
		if err := p.advance(); err != nil {
			return nil, err
		}

		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.RightParen, "')'"); err != nil {
			return nil, err
		}

		return inner, nil
	case lexer.Identifier:
		name := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}

		if p.tok.Kind == lexer.LeftParen {
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}

			return ast.Call{Name: name, Args: args}, nil
		}

		name, err := p.parseDottedSuffix(name)
		if err != nil {
			return nil, err
		}

		if p.tok.Kind == lexer.Assign {
			if err := p.advance(); err != nil {
				return nil, err
			}

			value, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}

			return ast.Set{Name: name, Value: value}, nil
		}

		return ast.Variable{Name: name}, nil
	default:
		return nil, p.unexpected("an expression")
	}
}

func (p *Parser) parseArgList() ([]ast.Rpn, error) {
	if _, err := p.expect(lexer.LeftParen, "'('"); err != nil {
		return nil, err
	}

	var args []ast.Rpn

	for p.tok.Kind != lexer.RightParen {
		if len(args) > 0 {
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return nil, err
			}
		}

		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}

		args = append(args, arg)
	}

	return args, p.advance()
}
