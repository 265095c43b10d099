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

// Package poller wraps Linux epoll behind the registry every EventLoop
// uses to multiplex its Channels: fd interest registration and a single
// poll call per loop iteration that resolves ready fds back to their
// Watcher.
package poller

import (
	"sync"

	"golang.org/x/sys/unix"

	liberr "github.com/nabbar/tudou/errors"
)

const (
	ErrorEpollCreate liberr.CodeError = iota + liberr.MinPkgPoller
	ErrorEpollCtl
	ErrorEpollWait
)

func init() {
	liberr.RegisterIdFctMessage(ErrorEpollCreate, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorEpollCreate:
		return "epoll_create1 failed"
	case ErrorEpollCtl:
		return "epoll_ctl failed"
	case ErrorEpollWait:
		return "epoll_wait failed"
	}
	return ""
}

const (
	initialEventCap = 16
	growThreshold   = 0.90
	shrinkThreshold = 0.25
	growFactor      = 1.5
	shrinkFactor    = 0.5
)

// Interest is the read/write/none bitmask a Watcher registers.
type Interest uint32

const (
	InterestNone  Interest = 0
	InterestRead  Interest = unix.EPOLLIN
	InterestWrite Interest = unix.EPOLLOUT
)

// Event is the translated outcome of one ready fd: the fd itself, the
// raw kernel event mask, and the Watcher that owns the fd.
type Event struct {
	Fd      int
	Mask    uint32
	Watcher Watcher
}

// Watcher is implemented by whatever owns an fd registered with the
// Poller (a Channel, in the layer above). The Poller only needs to hand
// ready events back to their owner; it never calls back into Watcher
// itself — that dispatch is the caller's job, after poll returns.
type Watcher interface {
	Fd() int
}

// Poller is the fd -> Watcher registry plus the epoll handle driving it.
// Every method takes an internal mutex, so Size and Contains may be
// called from any thread; Update and Remove are reached through the
// owning EventLoop, which asserts its own thread first.
type Poller struct {
	mu       sync.Mutex
	epfd     int
	watchers map[int]Watcher
	eventBuf []unix.EpollEvent
}

// New creates an epoll instance with close-on-exec set.
func New() (*Poller, liberr.Error) {
	epfd, e := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if e != nil {
		return nil, ErrorEpollCreate.Error(e)
	}

	return &Poller{
		epfd:     epfd,
		watchers: make(map[int]Watcher),
		eventBuf: make([]unix.EpollEvent, initialEventCap),
	}, nil
}

// Close releases the epoll handle. The fds themselves are not touched;
// each Watcher's owner is responsible for closing its own fd.
func (p *Poller) Close() liberr.Error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e := unix.Close(p.epfd); e != nil {
		return ErrorEpollCtl.Error(e)
	}
	p.watchers = make(map[int]Watcher)
	return nil
}

// Contains reports whether w's fd is currently registered.
func (p *Poller) Contains(w Watcher) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.watchers[w.Fd()]
	return ok
}

// Update registers w for the given interest (ADD if unseen, MOD otherwise).
func (p *Poller) Update(w Watcher, interest Interest) liberr.Error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fd := w.Fd()
	_, exists := p.watchers[fd]

	ev := unix.EpollEvent{
		Events: uint32(interest),
		Fd:     int32(fd),
	}

	op := unix.EPOLL_CTL_MOD
	if !exists {
		op = unix.EPOLL_CTL_ADD
	}

	if e := unix.EpollCtl(p.epfd, op, fd, &ev); e != nil {
		return ErrorEpollCtl.Error(e)
	}

	p.watchers[fd] = w
	return nil
}

// Remove deregisters w's fd (DEL + map erase). It is not an error to
// remove a fd that was never registered.
func (p *Poller) Remove(w Watcher) liberr.Error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fd := w.Fd()
	if _, exists := p.watchers[fd]; !exists {
		return nil
	}

	if e := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); e != nil {
		return ErrorEpollCtl.Error(e)
	}

	delete(p.watchers, fd)
	return nil
}

// Poll waits up to timeoutMs for ready fds, translates each to its
// Event and resizes the adaptive event buffer afterward. Preserves the
// kernel's returned order; callers must not assume any relation between
// fd value and position.
func (p *Poller) Poll(timeoutMs int) ([]Event, liberr.Error) {
	p.mu.Lock()
	buf := p.eventBuf
	p.mu.Unlock()

	n, e := unix.EpollWait(p.epfd, buf, timeoutMs)
	if e != nil {
		if e == unix.EINTR {
			return nil, nil
		}
		return nil, ErrorEpollWait.Error(e)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		fd := int(buf[i].Fd)
		if w, ok := p.watchers[fd]; ok {
			out = append(out, Event{Fd: fd, Mask: buf[i].Events, Watcher: w})
		}
	}

	p.resizeEventBuf(n, len(buf))

	return out, nil
}

// resizeEventBuf grows the event buffer when a poll filled it past
// growThreshold, and shrinks it when usage drops below shrinkThreshold
// and it is still above the initial size.
func (p *Poller) resizeEventBuf(filled, cap int) {
	ratio := float64(filled) / float64(cap)

	switch {
	case ratio >= growThreshold:
		newCap := int(float64(cap) * growFactor)
		p.eventBuf = make([]unix.EpollEvent, newCap)
	case ratio <= shrinkThreshold && cap > initialEventCap:
		newCap := int(float64(cap) * shrinkFactor)
		if newCap < initialEventCap {
			newCap = initialEventCap
		}
		p.eventBuf = make([]unix.EpollEvent, newCap)
	}
}

// Size returns the number of fds currently registered.
func (p *Poller) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.watchers)
}
