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

// Package source provides the error and span types shared by every stage of
// the evscript pipeline, along with the source file abstraction used to
// render a byte range back into a highlighted line of text.
package source

import (
	"fmt"
	"os"
)

// Span identifies a half-open byte range [Start,End) within a source file.
type Span struct {
	Start int
	End   int
}

// Length returns the number of bytes covered by this span.
func (s Span) Length() int {
	return s.End - s.Start
}

// File represents a single source file read from disk.
type File struct {
	filename string
	contents []byte
}

// NewFile constructs a source file from its name and raw bytes.
func NewFile(filename string, contents []byte) *File {
	return &File{filename, contents}
}

// ReadFile reads a file from disk into a source.File.
func ReadFile(filename string) (*File, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return NewFile(filename, bytes), nil
}

// Filename returns the name this file was read from (or constructed with).
func (f *File) Filename() string {
	return f.filename
}

// Contents returns the raw bytes of this file.
func (f *File) Contents() []byte {
	return f.contents
}

// Error constructs a CompileError anchored at the given span of this file.
func (f *File) Error(span Span, msg string) *CompileError {
	return &CompileError{File: f, Span: &span, Msg: msg}
}

// Line describes a single physical line of a source file, numbered from 1.
type Line struct {
	text   []byte
	span   Span
	number int
}

// String returns the text of this line.
func (l Line) String() string {
	return string(l.text[l.span.Start:l.span.End])
}

// Number returns this line's 1-based line number.
func (l Line) Number() int {
	return l.number
}

// Start returns the byte offset of the start of this line within the file.
func (l Line) Start() int {
	return l.span.Start
}

// Length returns the number of bytes in this line.
func (l Line) Length() int {
	return l.span.Length()
}

// FindFirstEnclosingLine returns the first line that encloses the start of
// span. If span starts beyond the end of the file, the last line is returned.
func (f *File) FindFirstEnclosingLine(span Span) Line {
	var (
		num   = 1
		start = 0
	)

	for i := 0; i < len(f.contents); i++ {
		if i == span.Start {
			return Line{f.contents, Span{start, endOfLine(f.contents, i)}, num}
		} else if f.contents[i] == '\n' {
			num++
			start = i + 1
		}
	}

	return Line{f.contents, Span{start, len(f.contents)}, num}
}

func endOfLine(text []byte, index int) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}

	return len(text)
}

// CompileError is a structured error carrying an optional source span. Every
// fallible operation in the evscript pipeline returns one of these (or a
// plain error, which the nearest enclosing Statement wraps into one).
type CompileError struct {
	File *File
	Span *Span
	Msg  string
}

// NewError constructs a CompileError with no attached span. Callers further
// up the pipeline (typically statement lowering) attach a span later via
// WithSpan.
func NewError(format string, args ...any) *CompileError {
	return &CompileError{Msg: fmt.Sprintf(format, args...)}
}

// WithSpan returns a copy of this error with the given span attached, unless
// the error already carries one (the innermost span wins).
func (e *CompileError) WithSpan(file *File, span Span) *CompileError {
	if e.Span != nil {
		return e
	}

	return &CompileError{File: file, Span: &span, Msg: e.Msg}
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Span == nil {
		return e.Msg
	}

	name := "<input>"
	if e.File != nil {
		name = e.File.Filename()
	}

	return fmt.Sprintf("%s:%d-%d: %s", name, e.Span.Start, e.Span.End, e.Msg)
}

// Render returns a span-highlighted rendering of this error, in the style
// of "file:line:col-col message" followed by the offending source line and a
// caret underline. highlight controls whether ANSI highlighting is emitted.
func (e *CompileError) Render(highlight bool) string {
	if e.File == nil || e.Span == nil {
		return e.Msg
	}

	var (
		line       = e.File.FindFirstEnclosingLine(*e.Span)
		lineOffset = e.Span.Start - line.Start()
		length     = min(line.Length()-lineOffset, e.Span.Length())
	)

	if length < 0 {
		length = 0
	}

	underline := repeat('^', length)
	if highlight {
		underline = "\x1b[31m" + underline + "\x1b[0m"
	}

	return fmt.Sprintf("%s:%d:%d-%d %s\n\n%s\n%s%s\n",
		e.File.Filename(), line.Number(), 1+lineOffset, 1+lineOffset+length, e.Msg,
		line.String(), repeat(' ', lineOffset), underline)
}

func repeat(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}

	return string(out)
}
