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

	libatm "github.com/nabbar/tudou/atomic"
	"github.com/nabbar/tudou/address"
	"github.com/nabbar/tudou/buffer"
	"github.com/nabbar/tudou/channel"
	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/logger/level"
	"github.com/nabbar/tudou/reactor"
)

// Connection is a single established TCP session: its fd, Channel and
// read/write Buffers, plus the callbacks wiring it to a TcpServer.
// Mutating methods, Send included, must run on the owning Loop's
// thread; cross-thread callers post through Loop.RunInLoop, as
// TcpServer.Send does.
type Connection struct {
	log logger.Logger

	loop  *reactor.Loop
	ch    *channel.Channel
	fd    int
	local address.Address
	peer  address.Address

	readBuf  *buffer.Buffer
	writeBuf *buffer.Buffer

	highWater         int64
	closed            libatm.Value[bool]
	shutdownAfterSend bool

	metrics MetricsSink

	onMessage       func(c *Connection, data []byte)
	onClose         func(c *Connection)
	onError         func(c *Connection, err error)
	onWriteComplete func(c *Connection)
	onHighWater     func(c *Connection, pending int)
}

// SetMetrics installs an optional sink for byte counters. A nil sink
// (the default) disables instrumentation entirely.
func (c *Connection) SetMetrics(m MetricsSink) {
	c.metrics = m
}

// NewConnection creates a Connection, its Channel and buffers, and
// enables read interest. It does not tie the Channel; Established does
// that once the connection has been published into the server's map.
func NewConnection(log logger.Logger, loop *reactor.Loop, fd int, local, peer address.Address) *Connection {
	c := &Connection{
		log:       log,
		loop:      loop,
		fd:        fd,
		local:     local,
		peer:      peer,
		readBuf:   buffer.New(),
		writeBuf:  buffer.New(),
		highWater: 64 * 1024 * 1024,
		closed:    libatm.NewValue[bool](),
	}
	// Prime the underlying atomic.Value with a concrete bool so the
	// first handleClose's CompareAndSwap has a typed value to compare
	// against instead of an empty interface.
	c.closed.Store(false)

	c.ch = loop.NewChannel(fd)
	c.ch.SetReadCallback(c.handleRead)
	c.ch.SetWriteCallback(c.handleWrite)
	c.ch.SetCloseCallback(c.handleClose)
	c.ch.SetErrorCallback(c.handleError)
	c.ch.EnableReading()

	return c
}

func (c *Connection) Fd() int                    { return c.fd }
func (c *Connection) LocalAddr() address.Address { return c.local }
func (c *Connection) PeerAddr() address.Address  { return c.peer }
func (c *Connection) IsClosed() bool             { return c.closed.Load() }

func (c *Connection) SetMessageCallback(cb func(c *Connection, data []byte)) { c.onMessage = cb }
func (c *Connection) SetCloseCallback(cb func(c *Connection))               { c.onClose = cb }
func (c *Connection) SetErrorCallback(cb func(c *Connection, err error))    { c.onError = cb }
func (c *Connection) SetWriteCompleteCallback(cb func(c *Connection))       { c.onWriteComplete = cb }
func (c *Connection) SetHighWaterCallback(cb func(c *Connection, pending int)) {
	c.onHighWater = cb
}

// SetHighWaterMark overrides the default 64MiB backpressure threshold.
func (c *Connection) SetHighWaterMark(n int64) {
	c.highWater = n
}

// Established ties the Channel's dispatch to this Connection's
// liveness, matching the contract that destruction must not race an
// in-flight callback.
func (c *Connection) Established() {
	c.ch.Tie(func() bool { return !c.IsClosed() })
}

// Send appends data to the write buffer, fires the high-water callback
// on the old<high<=new transition, and enables write interest. Must be
// called on the owning loop's thread; cross-thread callers should post
// through Loop.RunInLoop.
func (c *Connection) Send(data []byte) {
	if c.IsClosed() {
		return
	}

	before := c.writeBuf.ReadableBytes()
	c.writeBuf.Write(data)
	after := c.writeBuf.ReadableBytes()

	if int64(before) < c.highWater && int64(after) >= c.highWater && c.onHighWater != nil {
		c.onHighWater(c, after)
	}

	c.ch.EnableWriting()
}

// SendAndClose sends data like Send, but closes the connection once
// the write buffer has fully drained instead of leaving it open.
func (c *Connection) SendAndClose(data []byte) {
	c.shutdownAfterSend = true
	c.Send(data)
	if c.writeBuf.ReadableBytes() == 0 {
		c.handleClose()
	}
}

// Receive drains and returns every readable byte currently buffered.
func (c *Connection) Receive() []byte {
	return c.readBuf.ReadAll()
}

// Close tears the connection down immediately. Must be called on the
// owning loop's thread; cross-thread callers should post through
// Loop.RunInLoop.
func (c *Connection) Close() {
	c.handleClose()
}

func (c *Connection) handleRead() {
	n, eof, err := c.readBuf.ReadFromFd(c.fd)
	if err != nil {
		c.fireError(err)
		c.handleClose()
		return
	}

	if eof {
		c.handleClose()
		return
	}

	if n == 0 {
		// EAGAIN/EWOULDBLOCK: no data available right now, return to
		// the event loop and retry on the next readable event.
		return
	}

	if c.metrics != nil {
		c.metrics.AddBytesIn(int64(n))
	}
	if c.onMessage != nil {
		c.onMessage(c, c.readBuf.Peek())
	}
	c.readBuf.RetrieveAll()
}

func (c *Connection) handleWrite() {
	if !c.ch.IsWriting() {
		return
	}

	n, err := c.writeBuf.WriteToFd(c.fd)
	if err != nil {
		c.fireError(err)
		c.handleClose()
		return
	}
	if n > 0 && c.metrics != nil {
		c.metrics.AddBytesOut(int64(n))
	}

	if c.writeBuf.ReadableBytes() == 0 {
		c.ch.DisableWriting()
		if c.shutdownAfterSend {
			c.handleClose()
			return
		}
		if c.onWriteComplete != nil {
			c.onWriteComplete(c)
		}
	}
}

func (c *Connection) handleClose() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.ch.DisableAll()
	c.ch.Remove()
	_ = unix.Close(c.fd)

	if c.onClose != nil {
		c.onClose(c)
	}
}

func (c *Connection) handleError() {
	errno := getSocketError(c.fd)
	c.fireError(ErrorConnectionClosed.Error(errno))
	c.handleClose()
}

func (c *Connection) fireError(err error) {
	c.log.CheckError(level.ErrorLevel, level.NilLevel, "connection error", err)
	if c.onError != nil {
		c.onError(c, err)
	}
}

func getSocketError(fd int) error {
	errno, e := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if e != nil {
		return e
	}
	if errno == 0 {
		return nil
	}
	return unix.Errno(errno)
}
