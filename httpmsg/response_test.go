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

package httpmsg_test

import (
	"strings"

	"github.com/nabbar/tudou/httpmsg"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Response", func() {
	It("defaults to HTTP/1.1 200 OK with no close", func() {
		r := httpmsg.NewResponse()
		Expect(r.Version()).To(Equal("HTTP/1.1"))
		Expect(r.StatusCode()).To(Equal(200))
		Expect(r.StatusMessage()).To(Equal("OK"))
		Expect(r.Close()).To(BeFalse())
	})

	It("serializes the status line, headers and body", func() {
		r := httpmsg.NewResponse()
		r.SetStatus(404, "Not Found")
		r.AddHeader("Content-Type", "text/plain")
		r.SetBody([]byte("Not Found"))

		out := string(r.Serialize())

		Expect(out).To(HavePrefix("HTTP/1.1 404 Not Found\r\n"))
		Expect(out).To(ContainSubstring("Content-Type: text/plain\r\n"))
		Expect(out).To(HaveSuffix("\r\n\r\nNot Found"))
	})

	It("separates headers from the body with a blank line even when empty", func() {
		r := httpmsg.NewResponse()
		out := string(r.Serialize())
		Expect(strings.Count(out, "\r\n\r\n")).To(Equal(1))
	})
})
