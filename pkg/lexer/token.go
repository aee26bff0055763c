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

// Package lexer tokenizes evscript source text for pkg/parser.
package lexer

import "github.com/evie-calico/evscript/pkg/source"

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota
	Identifier
	Int
	Str
	InlineAssembly

	// Keywords.
	KwEnv
	KwFn
	KwUse
	KwDef
	KwAlias
	KwMac
	KwPool
	KwAsm
	KwInclude
	KwTypedef
	KwStruct
	KwIf
	KwElse
	KwWhile
	KwDo
	KwFor
	KwRepeat
	KwLoop
	KwConst
	KwReturn

	// Punctuation and operators.
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	Semicolon
	Comma
	Dot
	Star
	Slash
	Percent
	Plus
	Minus
	ShiftLeft
	ShiftRight
	Amp
	Caret
	Pipe
	AmpAmp
	PipePipe
	EqEq
	NotEq
	Less
	Greater
	LessEq
	GreaterEq
	Assign
	Tilde
	Dollar
)

var keywords = map[string]Kind{
	"env":     KwEnv,
	"fn":      KwFn,
	"use":     KwUse,
	"def":     KwDef,
	"alias":   KwAlias,
	"mac":     KwMac,
	"pool":    KwPool,
	"asm":     KwAsm,
	"include": KwInclude,
	"typedef": KwTypedef,
	"struct":  KwStruct,
	"if":      KwIf,
	"else":    KwElse,
	"while":   KwWhile,
	"do":      KwDo,
	"for":     KwFor,
	"repeat":  KwRepeat,
	"loop":    KwLoop,
	"const":   KwConst,
	"return":  KwReturn,
}

// Token is one lexical unit together with the source span it was read from.
type Token struct {
	Kind  Kind
	Text  string
	Value int64
	Span  source.Span
}
