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

package tcp

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/tudou/address"
	"github.com/nabbar/tudou/channel"
	liberr "github.com/nabbar/tudou/errors"
	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/logger/level"
	"github.com/nabbar/tudou/reactor"
)

// Acceptor owns the listening socket on the main loop. It accepts at
// most one connection per read event and relies on level-triggered
// epoll to re-fire for any remaining backlog, the same simplification
// the original design calls out explicitly.
type Acceptor struct {
	log logger.Logger

	loop       *reactor.Loop
	listenFd   int
	listenAddr address.Address
	ch         *channel.Channel

	acceptedFd   int
	acceptedPeer address.Address

	// onConnect receives the Acceptor itself, not the fd directly: the
	// callback is expected to retrieve it via TakeAcceptedFd, which
	// resets internal state so the same accepted fd cannot be consumed
	// twice.
	onConnect func(a *Acceptor)
}

// NewAcceptor creates a non-blocking IPv4 stream socket, binds addr,
// listens with backlog SOMAXCONN, and registers its Channel on loop
// without yet enabling read interest (call Start for that).
func NewAcceptor(log logger.Logger, loop *reactor.Loop, addr address.Address) (*Acceptor, liberr.Error) {
	fd, e := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if e != nil {
		return nil, ErrorSocketCreate.Error(e)
	}

	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)

	if e = unix.Bind(fd, addr.ToSockaddrInet4()); e != nil {
		_ = unix.Close(fd)
		return nil, ErrorSocketBind.Error(e)
	}

	if e = unix.Listen(fd, unix.SOMAXCONN); e != nil {
		_ = unix.Close(fd)
		return nil, ErrorSocketListen.Error(e)
	}

	a := &Acceptor{
		log:        log,
		loop:       loop,
		listenFd:   fd,
		listenAddr: addr,
		acceptedFd: -1,
	}

	a.ch = loop.NewChannel(fd)
	a.ch.SetReadCallback(a.handleRead)
	a.ch.SetWriteCallback(a.handleWrite)
	a.ch.SetCloseCallback(a.handleClose)
	a.ch.SetErrorCallback(a.handleError)

	return a, nil
}

func (a *Acceptor) ListenFd() int {
	return a.listenFd
}

// SetConnectCallback registers the handler invoked on every successful
// accept. The handler must call TakeAcceptedFd to claim the fd.
func (a *Acceptor) SetConnectCallback(cb func(a *Acceptor)) {
	a.onConnect = cb
}

// Start enables read interest, beginning to accept connections.
func (a *Acceptor) Start() {
	a.ch.EnableReading()
}

// Close deregisters the Channel and closes the listening socket.
func (a *Acceptor) Close() {
	a.ch.DisableAll()
	a.ch.Remove()
	_ = unix.Close(a.listenFd)
}

// TakeAcceptedFd returns the most recently accepted fd and resets
// internal state so it cannot be reused by a later call.
func (a *Acceptor) TakeAcceptedFd() (int, address.Address) {
	fd := a.acceptedFd
	peer := a.acceptedPeer
	a.acceptedFd = -1
	return fd, peer
}

func (a *Acceptor) handleRead() {
	connFd, sa, e := unix.Accept4(a.listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if e != nil {
		if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
			return
		}
		a.log.CheckError(level.ErrorLevel, level.NilLevel, "accept failed", ErrorAccept.Error(e))
		return
	}

	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		_ = unix.Close(connFd)
		return
	}

	a.acceptedFd = connFd
	a.acceptedPeer = address.FromSockaddrInet4(sa4)

	if a.onConnect != nil {
		a.onConnect(a)
	}
}

func (a *Acceptor) handleWrite() {
	a.log.Entry(level.WarnLevel, "unexpected write event on listening socket").Log()
}

func (a *Acceptor) handleClose() {
	a.log.Entry(level.WarnLevel, "unexpected close event on listening socket").Log()
}

func (a *Acceptor) handleError() {
	a.log.Entry(level.ErrorLevel, "unexpected error event on listening socket").Log()
}
