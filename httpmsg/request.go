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

// Request is a plain data carrier assembled incrementally by a parser:
// method, URL (split into path/query), version, headers and body.
type Request struct {
	method  string
	url     string
	path    string
	query   string
	version string
	headers map[string]string
	body    []byte
}

// NewRequest returns a zero-valued Request ready for Clear-equivalent use.
func NewRequest() *Request {
	return &Request{headers: make(map[string]string)}
}

func (r *Request) SetMethod(m string)  { r.method = m }
func (r *Request) Method() string      { return r.method }
func (r *Request) SetURL(u string)     { r.url = u }
func (r *Request) URL() string         { return r.url }
func (r *Request) SetPath(p string)    { r.path = p }
func (r *Request) Path() string        { return r.path }
func (r *Request) SetQuery(q string)   { r.query = q }
func (r *Request) Query() string       { return r.query }
func (r *Request) SetVersion(v string) { r.version = v }
func (r *Request) Version() string     { return r.version }

func (r *Request) AddHeader(field, value string) {
	r.headers[field] = value
}

// Header returns an empty string for a missing key.
func (r *Request) Header(field string) string {
	return r.headers[field]
}

func (r *Request) Headers() map[string]string {
	return r.headers
}

func (r *Request) AppendBody(data []byte) {
	r.body = append(r.body, data...)
}

func (r *Request) SetBody(b []byte) {
	r.body = b
}

func (r *Request) Body() []byte {
	return r.body
}

// Clear resets every field, including the header map, so the same
// Request instance can be reused across a keep-alive connection.
func (r *Request) Clear() {
	r.method = ""
	r.url = ""
	r.path = ""
	r.query = ""
	r.version = ""
	r.headers = make(map[string]string)
	r.body = nil
}
