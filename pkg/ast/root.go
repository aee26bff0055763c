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

package ast

import "github.com/evie-calico/evscript/pkg/source"

// Root is a single top-level declaration, produced by the parser in source
// order and consumed once by the top-level driver in that same order.
type Root interface {
	isRoot()
}

// Environment declares a named Environment body.
type Environment struct {
	Name string
	Body []Statement
}

func (Environment) isRoot() {}

// Function declares a function body that runs against EnvironmentName's
// resolved Environment.
type Function struct {
	EnvironmentName string
	Name            string
	Body            []Statement
	Span            source.Span
}

func (Function) isRoot() {}

// Assembly passes Text through to the output verbatim.
type Assembly struct {
	Text string
}

func (Assembly) isRoot() {}

// Include recursively parses and compiles the file at Path, inheriting the
// current EnvironmentTable and TypeTable.
type Include struct {
	Path string
	Span source.Span
}

func (Include) isRoot() {}

// Typedef registers Name as an alias for the type named by Underlying in the
// current TypeTable.
type Typedef struct {
	Name       string
	Underlying string
}

func (Typedef) isRoot() {}

// StructMember is one named, typed field of a StructDecl, in declaration
// order.
type StructMember struct {
	Name     string
	TypeName string
}

// StructDecl registers Name as a new Struct type built from Members,
// resolved against the current TypeTable in declaration order.
type StructDecl struct {
	Name    string
	Members []StructMember
}

func (StructDecl) isRoot() {}
