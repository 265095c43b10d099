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

package httpparser_test

import (
	"github.com/nabbar/tudou/httpparser"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parser", func() {
	It("parses a GET request with a body in one shot", func() {
		raw := "GET /hello?name=world HTTP/1.1\r\nHost: example.com\r\nUser-Agent: TudouTest\r\nContent-Length: 5\r\n\r\nHello"

		p := httpparser.New()
		ok, consumed := p.Parse([]byte(raw))

		Expect(ok).To(BeTrue())
		Expect(consumed).To(Equal(len(raw)))
		Expect(p.Complete()).To(BeTrue())

		req := p.Request()
		Expect(req.Method()).To(Equal("GET"))
		Expect(req.URL()).To(Equal("/hello?name=world"))
		Expect(req.Path()).To(Equal("/hello"))
		Expect(req.Query()).To(Equal("name=world"))
		Expect(req.Version()).To(Equal("HTTP/1.1"))
		Expect(req.Header("Host")).To(Equal("example.com"))
		Expect(req.Header("User-Agent")).To(Equal("TudouTest"))
		Expect(req.Header("Content-Length")).To(Equal("5"))
		Expect(string(req.Body())).To(Equal("Hello"))
	})

	It("parses a GET request without a query string or body", func() {
		raw := "GET /index.html HTTP/1.1\r\nHost: localhost\r\n\r\n"

		p := httpparser.New()
		ok, consumed := p.Parse([]byte(raw))

		Expect(ok).To(BeTrue())
		Expect(consumed).To(Equal(len(raw)))
		Expect(p.Complete()).To(BeTrue())

		req := p.Request()
		Expect(req.Path()).To(Equal("/index.html"))
		Expect(req.Query()).To(Equal(""))
		Expect(req.Body()).To(BeEmpty())
	})

	It("stays incomplete across a split request line and headers", func() {
		p := httpparser.New()

		ok, consumed := p.Parse([]byte("GET /spl"))
		Expect(ok).To(BeTrue())
		Expect(consumed).To(Equal(len("GET /spl")))
		Expect(p.Complete()).To(BeFalse())

		ok, consumed = p.Parse([]byte("it HTTP/1.1\r\nHost: x\r\n\r\n"))
		Expect(ok).To(BeTrue())
		Expect(consumed).To(Equal(len("it HTTP/1.1\r\nHost: x\r\n\r\n")))
		Expect(p.Complete()).To(BeTrue())
		Expect(p.Request().Path()).To(Equal("/split"))
	})

	It("waits for the full body across multiple Parse calls", func() {
		p := httpparser.New()

		head := "POST /submit HTTP/1.1\r\nContent-Length: 10\r\n\r\n"
		ok, _ := p.Parse([]byte(head))
		Expect(ok).To(BeTrue())
		Expect(p.Complete()).To(BeFalse())

		ok, _ = p.Parse([]byte("01234"))
		Expect(ok).To(BeTrue())
		Expect(p.Complete()).To(BeFalse())

		ok, _ = p.Parse([]byte("56789"))
		Expect(ok).To(BeTrue())
		Expect(p.Complete()).To(BeTrue())
		Expect(string(p.Request().Body())).To(Equal("0123456789"))
	})

	It("fails on a malformed request line", func() {
		p := httpparser.New()
		ok, consumed := p.Parse([]byte("NOTAREQUESTLINE\r\n\r\n"))
		Expect(ok).To(BeFalse())
		Expect(consumed).To(Equal(0))
	})

	It("fails on a malformed header line", func() {
		p := httpparser.New()
		ok, _ := p.Parse([]byte("GET / HTTP/1.1\r\nNoColonHere\r\n\r\n"))
		Expect(ok).To(BeFalse())
	})

	It("resets cleanly to parse a second request on the same connection", func() {
		p := httpparser.New()

		ok, _ := p.Parse([]byte("GET /first HTTP/1.1\r\n\r\n"))
		Expect(ok).To(BeTrue())
		Expect(p.Complete()).To(BeTrue())
		Expect(p.Request().Path()).To(Equal("/first"))

		p.Reset()
		Expect(p.Complete()).To(BeFalse())

		ok, _ = p.Parse([]byte("GET /second HTTP/1.1\r\n\r\n"))
		Expect(ok).To(BeTrue())
		Expect(p.Complete()).To(BeTrue())
		Expect(p.Request().Path()).To(Equal("/second"))
	})

	It("keeps a second pipelined request's bytes across Reset", func() {
		p := httpparser.New()

		both := "GET /first HTTP/1.1\r\n\r\nGET /second HTTP/1.1\r\n\r\n"
		ok, consumed := p.Parse([]byte(both))
		Expect(ok).To(BeTrue())
		Expect(consumed).To(Equal(len(both)))
		Expect(p.Complete()).To(BeTrue())
		Expect(p.Request().Path()).To(Equal("/first"))

		p.Reset()
		Expect(p.Complete()).To(BeFalse())

		// No new bytes handed in: the second request was already
		// sitting in the residual buffer from the first Parse call.
		ok, _ = p.Parse(nil)
		Expect(ok).To(BeTrue())
		Expect(p.Complete()).To(BeTrue())
		Expect(p.Request().Path()).To(Equal("/second"))
	})
})
