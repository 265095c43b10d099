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

// Package httpserver layers HTTP/1.x request/response semantics on top
// of a tcp.TcpServer: one httpparser.Parser per connection fd, a single
// user HttpHandler, and the request/response/serialize pipeline.
package httpserver

import (
	liberr "github.com/nabbar/tudou/errors"
)

const (
	ErrorServerConstruct liberr.CodeError = iota + liberr.MinPkgHttpServer
)

func init() {
	liberr.RegisterIdFctMessage(ErrorServerConstruct, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorServerConstruct:
		return "http server construction failed"
	}
	return ""
}
