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

package httpparser

import (
	"strconv"
	"strings"

	"github.com/nabbar/tudou/buffer"
	"github.com/nabbar/tudou/httpmsg"
)

type state int

const (
	stateRequestLine state = iota
	stateHeaders
	stateBody
	stateDone
)

// Parser is non-copyable by convention: its residual buffer and
// in-progress Request are only meaningful through the instance that
// owns them, and the engine must never be shared between connections.
// Pass it by pointer; never duplicate a Parser value.
type Parser struct {
	residual *buffer.Buffer
	req      *httpmsg.Request

	st state

	fieldScratch  strings.Builder
	valueScratch  strings.Builder
	lastWasValue  bool
	contentLength int
	complete      bool
}

// New returns a fresh Parser positioned to read a request line.
func New() *Parser {
	p := &Parser{
		residual: buffer.New(),
		req:      httpmsg.NewRequest(),
	}
	p.onMessageBegin()
	return p
}

// Request returns the in-progress or just-completed request.
func (p *Parser) Request() *httpmsg.Request {
	return p.req
}

// Complete reports whether the current request has been fully parsed.
func (p *Parser) Complete() bool {
	return p.complete
}

// Reset clears the assembled request and scratch state so the same
// Parser can handle the next request on a keep-alive connection. The
// residual buffer is left untouched: a pipelined connection may have
// already delivered bytes belonging to the next request past the one
// just completed, and discarding them here would silently drop that
// request.
func (p *Parser) Reset() {
	p.req = httpmsg.NewRequest()
	p.st = stateRequestLine
	p.contentLength = 0
	p.onMessageBegin()
}

// Parse feeds data into the engine. On success it always reports
// ok=true and consumed=len(data): every byte handed in is absorbed,
// either processed immediately or retained in the residual buffer for
// the next call. ok=false, consumed=0 indicates a malformed
// request/header line that the caller should turn into a 400 response.
func (p *Parser) Parse(data []byte) (ok bool, consumed int) {
	p.residual.Write(data)

	for {
		switch p.st {
		case stateRequestLine:
			if !p.consumeRequestLine() {
				return false, 0
			}
			if p.st == stateRequestLine {
				return true, len(data)
			}

		case stateHeaders:
			if !p.consumeHeaderLine() {
				return false, 0
			}
			if p.st == stateHeaders {
				return true, len(data)
			}

		case stateBody:
			if !p.consumeBody() {
				return true, len(data)
			}

		case stateDone:
			return true, len(data)
		}
	}
}

func (p *Parser) consumeRequestLine() bool {
	idx := p.residual.IndexCRLF()
	if idx < 0 {
		return true
	}

	line := string(p.residual.Peek()[:idx])
	p.residual.Retrieve(idx + 2)

	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return false
	}

	p.onURL(parts[0], parts[1])
	p.st = stateHeaders
	return true
}

// onURL resolves method from parser state, stores the raw URL, splits
// it on '?' into path and query, and sets the version to HTTP/1.1.
func (p *Parser) onURL(method, url string) {
	p.req.SetMethod(method)
	p.req.SetURL(url)

	if i := strings.IndexByte(url, '?'); i >= 0 {
		p.req.SetPath(url[:i])
		p.req.SetQuery(url[i+1:])
	} else {
		p.req.SetPath(url)
		p.req.SetQuery("")
	}

	p.req.SetVersion("HTTP/1.1")
}

// consumeHeaderLine drains every complete header line currently
// buffered, stopping only once it runs out of data (state stays
// stateHeaders) or the blank terminator line arrives (state becomes
// stateBody). false means a malformed header line.
func (p *Parser) consumeHeaderLine() bool {
	for {
		idx := p.residual.IndexCRLF()
		if idx < 0 {
			return true
		}

		if idx == 0 {
			p.residual.Retrieve(2)
			if p.lastWasValue {
				p.flushHeaderPair()
			}
			return p.onHeadersComplete()
		}

		line := string(p.residual.Peek()[:idx])
		p.residual.Retrieve(idx + 2)

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return false
		}

		field := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])

		p.onHeaderField(field)
		p.onHeaderValue(value)
	}
}

// onHeaderField flushes a pending field/value pair if the previous
// token seen was a value, then starts accumulating the next field.
func (p *Parser) onHeaderField(field string) {
	if p.lastWasValue {
		p.flushHeaderPair()
	}
	p.fieldScratch.WriteString(field)
	p.lastWasValue = false
}

func (p *Parser) onHeaderValue(value string) {
	p.valueScratch.WriteString(value)
	p.lastWasValue = true
}

func (p *Parser) flushHeaderPair() {
	p.req.AddHeader(p.fieldScratch.String(), p.valueScratch.String())
	p.fieldScratch.Reset()
	p.valueScratch.Reset()
	p.lastWasValue = false
}

// onHeadersComplete validates Content-Length and moves to stateBody.
// It returns false only for a malformed header value; the body itself
// is consumed afterward by the Parse loop's stateBody case.
func (p *Parser) onHeadersComplete() bool {
	cl := p.req.Header("Content-Length")
	if cl == "" {
		p.contentLength = 0
		p.st = stateBody
		return true
	}

	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 {
		return false
	}

	p.contentLength = n
	p.st = stateBody
	return true
}

// consumeBody reports whether the full body has arrived. false means
// "need more data", not an error.
func (p *Parser) consumeBody() bool {
	if p.residual.ReadableBytes() < p.contentLength {
		return false
	}

	if p.contentLength > 0 {
		p.onBody(p.residual.Read(p.contentLength))
	}

	p.onMessageComplete()
	return true
}

func (p *Parser) onBody(data []byte) {
	p.req.AppendBody(data)
}

func (p *Parser) onMessageBegin() {
	p.st = stateRequestLine
	p.fieldScratch.Reset()
	p.valueScratch.Reset()
	p.lastWasValue = false
	p.complete = false
}

func (p *Parser) onMessageComplete() {
	if p.lastWasValue {
		p.flushHeaderPair()
	}
	p.complete = true
	p.st = stateDone
}
