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

// Package httpparser implements a streaming HTTP/1.x request parser.
// A non-copyable engine is driven internally through six callbacks
// (message-begin, url, header-field, header-value, body,
// message-complete) that assemble an httpmsg.Request incrementally,
// tolerating partial reads across multiple Parse calls.
package httpparser

import (
	liberr "github.com/nabbar/tudou/errors"
)

const (
	ErrorMalformedRequestLine liberr.CodeError = iota + liberr.MinPkgHttpParser
	ErrorMalformedHeaderLine
	ErrorInvalidContentLength
)

func init() {
	liberr.RegisterIdFctMessage(ErrorMalformedRequestLine, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorMalformedRequestLine:
		return "malformed HTTP request line"
	case ErrorMalformedHeaderLine:
		return "malformed HTTP header line"
	case ErrorInvalidContentLength:
		return "invalid Content-Length header"
	}
	return ""
}
