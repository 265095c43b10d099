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

// Package channel binds a file descriptor's interest mask and the
// callbacks fired when the owning EventLoop's Poller reports it ready.
// A Channel never closes its fd; that remains the enclosing
// Connection/Acceptor's responsibility.
package channel

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Interest is the read/write bitmask a Channel registers with its loop.
type Interest uint32

const (
	InterestNone  Interest = 0
	InterestRead  Interest = unix.EPOLLIN | unix.EPOLLPRI
	InterestWrite Interest = unix.EPOLLOUT
)

// LoopUpdater is the subset of EventLoop a Channel needs: forwarding its
// own interest changes and removal to the loop's Poller. Implemented by
// *reactor.Loop; kept as an interface here so channel has no dependency
// on the reactor package (reactor depends on channel, not vice versa).
type LoopUpdater interface {
	UpdateChannel(ch *Channel)
	RemoveChannel(ch *Channel)
	AssertInLoopThread()
}

// Channel is a mutable per-fd record owned by exactly one loop. fd never
// changes after construction. All mutator methods must run on the
// owning loop's thread; AssertInLoopThread enforces this the same way
// the reactor package enforces thread affinity everywhere else.
type Channel struct {
	loop     LoopUpdater
	fd       int
	interest Interest
	received uint32

	onRead  func()
	onWrite func()
	onClose func()
	onError func()

	mu      sync.Mutex
	tied    bool
	tieLive func() bool
}

// New creates a Channel for fd on loop, with no interest registered yet.
func New(loop LoopUpdater, fd int) *Channel {
	return &Channel{
		loop: loop,
		fd:   fd,
	}
}

func (c *Channel) Fd() int {
	return c.fd
}

func (c *Channel) Interest() Interest {
	return c.interest
}

func (c *Channel) IsNoneEvent() bool {
	return c.interest == InterestNone
}

// SetReceived records the last poll's event mask for this fd, to be
// consumed by the next HandleEvents call.
func (c *Channel) SetReceived(mask uint32) {
	c.received = mask
}

func (c *Channel) SetReadCallback(cb func())  { c.onRead = cb }
func (c *Channel) SetWriteCallback(cb func()) { c.onWrite = cb }
func (c *Channel) SetCloseCallback(cb func()) { c.onClose = cb }
func (c *Channel) SetErrorCallback(cb func()) { c.onError = cb }

func (c *Channel) EnableReading() {
	c.interest |= InterestRead
	c.update()
}

func (c *Channel) EnableWriting() {
	c.interest |= InterestWrite
	c.update()
}

func (c *Channel) DisableWriting() {
	c.interest &^= InterestWrite
	c.update()
}

func (c *Channel) DisableAll() {
	c.interest = InterestNone
	c.update()
}

func (c *Channel) IsWriting() bool {
	return c.interest&InterestWrite != 0
}

func (c *Channel) update() {
	c.loop.UpdateChannel(c)
}

// Remove deregisters the Channel from its loop's Poller. Does not close
// the fd.
func (c *Channel) Remove() {
	c.loop.RemoveChannel(c)
}

// Tie binds the Channel's dispatch to the liveness of some owning
// object. isLive is consulted, under the Channel's own mutex, at the
// start of every HandleEvents call; when it reports false the owner has
// gone away and the dispatch is skipped entirely. This plays the role
// the original implementation gives a weak-to-strong reference upgrade:
// a plain liveness flag checked under lock, since Go has no equivalent
// of a weak_ptr promotion.
func (c *Channel) Tie(isLive func() bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tied = true
	c.tieLive = isLive
}

// HandleEvents dispatches the last received event mask to the
// registered callbacks:
//
//  1. HUP without IN -> close callback.
//  2. Else ERR -> error callback.
//  3. Else: IN|PRI -> read callback; OUT -> write callback (both may fire).
func (c *Channel) HandleEvents() {
	if c.tied {
		c.mu.Lock()
		live := c.tieLive == nil || c.tieLive()
		c.mu.Unlock()

		if !live {
			return
		}
	}

	revents := c.received

	if revents&unix.EPOLLHUP != 0 && revents&unix.EPOLLIN == 0 {
		if c.onClose != nil {
			c.onClose()
		}
		return
	}

	if revents&unix.EPOLLERR != 0 {
		if c.onError != nil {
			c.onError()
		}
		return
	}

	if revents&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		if c.onRead != nil {
			c.onRead()
		}
	}

	if revents&unix.EPOLLOUT != 0 {
		if c.onWrite != nil {
			c.onWrite()
		}
	}
}
