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

package errors_test

import (
	stderr "errors"

	"github.com/nabbar/tudou/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const testMinPkg errors.CodeError = 9000

const (
	errTestFoo errors.CodeError = iota + testMinPkg
	errTestBar
)

func init() {
	errors.RegisterIdFctMessage(errTestFoo, func(code errors.CodeError) string {
		switch code {
		case errTestFoo:
			return "test foo failure"
		case errTestBar:
			return "test bar failure"
		}
		return ""
	})
}

var _ = Describe("CodeError", func() {
	It("resolves the registered message for a code", func() {
		Expect(errTestFoo.Message()).To(Equal("test foo failure"))
		Expect(errTestBar.Message()).To(Equal("test bar failure"))
	})

	It("falls back to UnknownMessage for an unregistered code", func() {
		Expect(errors.CodeError(64000).Message()).To(Equal(errors.UnknownMessage))
	})

	It("builds an Error carrying its code", func() {
		e := errTestFoo.Error()
		Expect(e.GetCode()).To(Equal(errTestFoo))
		Expect(e.Error()).To(Equal("test foo failure"))
	})
})

var _ = Describe("Error", func() {
	It("IsCode matches its own CodeError and no other", func() {
		e := errTestFoo.Error()
		Expect(e.IsCode(errTestFoo)).To(BeTrue())
		Expect(e.IsCode(errTestBar)).To(BeFalse())
	})

	It("chains parents and finds codes transitively", func() {
		parent := errTestBar.Error()
		child := errTestFoo.Error(parent)

		Expect(child.HasCode(errTestBar)).To(BeTrue())
		Expect(child.GetParentCode()).To(ContainElement(errTestBar))
	})

	It("supports stdlib errors.As into the Error interface", func() {
		parent := errTestBar.Error()
		child := errTestFoo.Error(parent)

		var target errors.Error
		Expect(stderr.As(child, &target)).To(BeTrue())
	})

	It("IfError returns nil when every parent is nil", func() {
		Expect(errTestFoo.IfError(nil, nil)).To(BeNil())
	})

	It("IfError returns a populated Error when a parent is non-nil", func() {
		e := errTestFoo.IfError(stderr.New("boom"))
		Expect(e).ToNot(BeNil())
		Expect(e.ContainsString("boom")).To(BeTrue())
	})
})
