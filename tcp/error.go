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

// Package tcp implements the Acceptor/Connection/TcpServer trio: socket
// lifecycle, the per-connection read/write buffers, and the fd-to-
// connection registry a server needs to fan work across a LoopPool.
package tcp

import (
	liberr "github.com/nabbar/tudou/errors"
)

const (
	ErrorConfigInvalid liberr.CodeError = iota + liberr.MinPkgTcp
	ErrorSocketCreate
	ErrorSocketBind
	ErrorSocketListen
	ErrorAccept
	ErrorGetsockname
	ErrorConnectionClosed
)

func init() {
	liberr.RegisterIdFctMessage(ErrorConfigInvalid, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorConfigInvalid:
		return "tcp server configuration is invalid"
	case ErrorSocketCreate:
		return "socket creation failed"
	case ErrorSocketBind:
		return "socket bind failed"
	case ErrorSocketListen:
		return "socket listen failed"
	case ErrorAccept:
		return "accept failed"
	case ErrorGetsockname:
		return "getsockname failed"
	case ErrorConnectionClosed:
		return "operation attempted on a closed connection"
	}
	return ""
}
