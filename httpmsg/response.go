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

package httpmsg

import (
	"strconv"
	"strings"
)

// Response is filled by a handler and serialized onto the wire.
// NewResponse defaults to version HTTP/1.1, status 200 OK, empty
// headers/body and close=false.
type Response struct {
	version string
	code    int
	reason  string
	headers map[string]string
	body    []byte
	close   bool
}

func NewResponse() *Response {
	return &Response{
		version: "HTTP/1.1",
		code:    200,
		reason:  "OK",
		headers: make(map[string]string),
	}
}

func (r *Response) SetVersion(v string) { r.version = v }
func (r *Response) Version() string     { return r.version }

func (r *Response) SetStatus(code int, reason string) {
	r.code = code
	r.reason = reason
}

func (r *Response) StatusCode() int      { return r.code }
func (r *Response) StatusMessage() string { return r.reason }

func (r *Response) AddHeader(field, value string) {
	r.headers[field] = value
}

func (r *Response) Header(field string) string {
	return r.headers[field]
}

func (r *Response) Headers() map[string]string {
	return r.headers
}

func (r *Response) SetBody(b []byte) {
	r.body = b
}

func (r *Response) Body() []byte {
	return r.body
}

func (r *Response) SetClose(on bool) { r.close = on }
func (r *Response) Close() bool      { return r.close }

// Serialize emits the status line, each header in an unspecified
// (map-iteration) order, the blank separator line and the body.
func (r *Response) Serialize() []byte {
	var b strings.Builder

	b.WriteString(r.version)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(r.code))
	b.WriteByte(' ')
	b.WriteString(r.reason)
	b.WriteString("\r\n")

	for field, value := range r.headers {
		b.WriteString(field)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	b.WriteString("\r\n")

	out := make([]byte, 0, b.Len()+len(r.body))
	out = append(out, b.String()...)
	out = append(out, r.body...)
	return out
}
