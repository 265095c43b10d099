/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package errors

import (
	"fmt"
)

// Error is an error carrying a CodeError, a message, and optional parents.
// It implements error, and is compatible with errors.Is/errors.As via
// Unwrap() []error.
type Error interface {
	error

	Is(err error) bool
	IsCode(code CodeError) bool
	IsError(err error) bool

	HasCode(code CodeError) bool
	HasError(err error) bool
	HasParent() bool

	GetCode() CodeError
	GetParentCode() []CodeError
	GetParent(withMainError bool) []error
	GetError() error

	Add(parent ...error)
	SetParent(parent ...error)

	ContainsString(s string) bool

	Code() uint16
	Unwrap() []error
}

// Is reports whether e itself is a Tudou Error; wrapped errors are not
// unwrapped.
func Is(e error) bool {
	_, ok := e.(Error)
	return ok
}

// Get extracts the Error from e, wrapping it if necessary.
func Get(e error) Error {
	if e == nil {
		return nil
	}
	if er, ok := e.(Error); ok {
		return er
	}
	return &ers{e: e.Error()}
}

// Has reports whether e carries code, directly or via a parent.
func Has(e error, code CodeError) bool {
	if e == nil {
		return false
	}
	if er, ok := e.(Error); ok {
		return er.HasCode(code)
	}
	return false
}

// IsCode reports whether e's own code (not parents) equals code.
func IsCode(e error, code CodeError) bool {
	if e == nil {
		return false
	}
	if er, ok := e.(Error); ok {
		return er.IsCode(code)
	}
	return false
}

// ContainsString reports whether e or any parent's message contains s.
func ContainsString(e error, s string) bool {
	if e == nil {
		return false
	}
	if er, ok := e.(Error); ok {
		return er.ContainsString(s)
	}
	return false
}

// Make wraps a plain error into an Error, or returns it unchanged if it
// already is one. Returns nil for a nil input.
func Make(e error) Error {
	if e == nil {
		return nil
	}
	if er, ok := e.(Error); ok {
		return er
	}
	return &ers{e: e.Error()}
}

// MakeIfError returns the first non-nil error among err, wrapped as Error,
// or nil if every argument is nil.
func MakeIfError(err ...error) Error {
	for _, e := range err {
		if e != nil {
			return Make(e)
		}
	}
	return nil
}

// AddOrNew adds errSub and parent to errMain, first wrapping errMain as an
// Error if it is not one already. It returns nil when errMain is nil.
func AddOrNew(errMain, errSub error, parent ...error) Error {
	if errMain == nil {
		return nil
	}

	if er, ok := errMain.(Error); ok {
		er.Add(errSub)
		er.Add(parent...)
		return er
	}

	e := Make(errMain)
	e.Add(errSub)
	e.Add(parent...)
	return e
}

// New builds an Error with the given code, message, and parents.
func New(code uint16, message string, parent ...error) Error {
	e := &ers{c: code, e: message}
	e.Add(parent...)
	return e
}

// Newf builds an Error, formatting pattern with args.
func Newf(code uint16, pattern string, args ...any) Error {
	return New(code, fmt.Sprintf(pattern, args...))
}

// IfError returns a new Error only if at least one non-nil parent is
// given; otherwise it returns nil.
func IfError(code uint16, message string, parent ...error) Error {
	filtered := make([]error, 0, len(parent))
	for _, p := range parent {
		if p != nil {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		return nil
	}

	return New(code, message, filtered...)
}
