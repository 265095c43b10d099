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

// Package reactor drives the poll -> dispatch -> drain cycle: an
// EventLoop bound to exactly one OS thread, a LoopThread that starts
// one, and a LoopPool that fans I/O work across several.
package reactor

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	libatm "github.com/nabbar/tudou/atomic"
	"github.com/nabbar/tudou/channel"
	liberr "github.com/nabbar/tudou/errors"
	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/logger/level"
	"github.com/nabbar/tudou/poller"
)

const (
	ErrorEventLoopCreate liberr.CodeError = iota + liberr.MinPkgReactor
	ErrorEventFdCreate
	ErrorThreadAffinity
)

func init() {
	liberr.RegisterIdFctMessage(ErrorEventLoopCreate, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorEventLoopCreate:
		return "event loop creation failed"
	case ErrorEventFdCreate:
		return "eventfd creation failed"
	case ErrorThreadAffinity:
		return "loop method called from outside its owning thread"
	}
	return ""
}

const defaultPollTimeoutMs = 10000

// Stats is a point-in-time snapshot of a Loop's activity, exposed so
// tcp.TcpServer and the metrics package can report depth without
// reaching into loop internals.
type Stats struct {
	RegisteredChannels int
	PendingTasks       int
	Iterations         uint64
}

// Loop is a single-threaded reactor: one Poller, one wakeup eventfd,
// one mutex-guarded pending-task queue. All mutation methods besides
// RunInLoop/QueueInLoop/Quit must run on the owning OS thread;
// UpdateChannel and RemoveChannel call AssertInLoopThread first, which
// logs-and-aborts on violation, mirroring the original implementation's
// debug assertion.
type Loop struct {
	log logger.Logger

	poller      *poller.Poller
	wakeupFd    int
	wakeupChan  *channel.Channel
	pollTimeout int

	tid int32 // OS thread id this loop is bound to, set once run() starts

	mu       sync.Mutex
	pending  []func()
	draining bool
	quit     libatm.Value[bool]

	iterations uint64
}

// New creates a Loop with its own epoll instance and wakeup eventfd.
// The Loop is not yet bound to a thread; call Run from the goroutine
// that should own it (normally via LoopThread or the caller of a
// zero-I/O-thread LoopPool's main loop).
func New(log logger.Logger) (*Loop, liberr.Error) {
	p, err := poller.New()
	if err != nil {
		return nil, err
	}

	efd, e := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if e != nil {
		return nil, ErrorEventFdCreate.Error(e)
	}

	l := &Loop{
		log:         log,
		poller:      p,
		wakeupFd:    efd,
		pollTimeout: defaultPollTimeoutMs,
		quit:        libatm.NewValue[bool](),
	}

	l.wakeupChan = channel.New(l, efd)
	l.wakeupChan.SetReadCallback(l.handleWakeup)
	l.wakeupChan.EnableReading()

	return l, nil
}

// Tid returns the OS thread id bound to this loop, or 0 before Run starts.
func (l *Loop) Tid() int32 {
	return atomic.LoadInt32(&l.tid)
}

// AssertInLoopThread logs-and-aborts when called from any thread other
// than the one running this loop, mirroring the original implementation's
// debug assertion. Locking the calling goroutine's OS thread (as
// LoopThread does) makes unix.Gettid() a reliable stand-in for the C++
// implementation's std::this_thread::get_id() comparison. The abort
// goes through Logger.Entry at FatalLevel rather than a bare panic or
// os.Exit, so it still gets written out with the same fields and
// formatting as every other log line before the process exits.
func (l *Loop) AssertInLoopThread() {
	tid := l.Tid()
	if tid == 0 {
		return
	}
	if int32(unix.Gettid()) != tid {
		l.log.Entry(level.FatalLevel, "loop method invoked off its owning thread").
			FieldAdd("loopTid", tid).
			FieldAdd("callerTid", unix.Gettid()).
			Log()
	}
}

// Run binds the loop to the calling OS thread and repeatedly polls,
// dispatches ready channels, and drains pending tasks until Quit is
// called. It calls runtime.LockOSThread() itself before recording the
// thread id, and never unlocks the thread.
func (l *Loop) Run() {
	runtime.LockOSThread()
	atomic.StoreInt32(&l.tid, int32(unix.Gettid()))

	for !l.quit.Load() {
		events, err := l.poller.Poll(l.pollTimeout)
		if err != nil {
			l.log.CheckError(level.ErrorLevel, level.NilLevel, "poll failed", err)
			continue
		}

		for _, ev := range events {
			ch, ok := ev.Watcher.(*channel.Channel)
			if !ok {
				continue
			}
			ch.SetReceived(ev.Mask)
			ch.HandleEvents()
		}

		atomic.AddUint64(&l.iterations, 1)
		l.drainPending()
	}
}

// Quit requests the loop to stop after its current iteration. Safe
// from any thread; when called off the owning thread it also wakes the
// loop so a blocked Poller.Poll returns promptly.
func (l *Loop) Quit() {
	l.quit.Store(true)

	if int32(unix.Gettid()) != l.Tid() {
		l.wakeup()
	}
}

// RunInLoop executes task immediately if called from the loop's own
// thread, or enqueues it via QueueInLoop otherwise.
func (l *Loop) RunInLoop(task func()) {
	if int32(unix.Gettid()) == l.Tid() {
		task()
		return
	}
	l.QueueInLoop(task)
}

// QueueInLoop appends task to the pending queue under the mutex, then
// wakes the loop if the caller is foreign or the loop is currently
// draining pending tasks (re-entrant enqueues must not wait for the
// next poll timeout).
func (l *Loop) QueueInLoop(task func()) {
	l.mu.Lock()
	l.pending = append(l.pending, task)
	shouldWake := int32(unix.Gettid()) != l.Tid() || l.draining
	l.mu.Unlock()

	if shouldWake {
		l.wakeup()
	}
}

func (l *Loop) drainPending() {
	l.mu.Lock()
	tasks := l.pending
	l.pending = nil
	l.draining = true
	l.mu.Unlock()

	for _, t := range tasks {
		t()
	}

	l.mu.Lock()
	l.draining = false
	l.mu.Unlock()
}

// Stats returns a snapshot safe to read from any thread.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	pending := len(l.pending)
	l.mu.Unlock()

	return Stats{
		RegisteredChannels: l.poller.Size(),
		PendingTasks:       pending,
		Iterations:         atomic.LoadUint64(&l.iterations),
	}
}

// UpdateChannel registers or modifies ch's interest with the Poller.
// Implements channel.LoopUpdater.
func (l *Loop) UpdateChannel(ch *channel.Channel) {
	l.AssertInLoopThread()

	interest := poller.Interest(ch.Interest())
	if ch.IsNoneEvent() {
		_ = l.poller.Remove(ch)
		return
	}

	if err := l.poller.Update(ch, interest); err != nil {
		l.log.CheckError(level.ErrorLevel, level.NilLevel, "poller update failed", err)
	}
}

// RemoveChannel deregisters ch from the Poller. Implements channel.LoopUpdater.
func (l *Loop) RemoveChannel(ch *channel.Channel) {
	l.AssertInLoopThread()

	if err := l.poller.Remove(ch); err != nil {
		l.log.CheckError(level.ErrorLevel, level.NilLevel, "poller remove failed", err)
	}
}

func (l *Loop) wakeup() {
	var buf [8]byte
	buf[7] = 1
	_, _ = unix.Write(l.wakeupFd, buf[:])
}

func (l *Loop) handleWakeup() {
	var buf [8]byte
	_, _ = unix.Read(l.wakeupFd, buf[:])
}

// NewChannel is a convenience constructor binding a Channel to this loop.
func (l *Loop) NewChannel(fd int) *channel.Channel {
	return channel.New(l, fd)
}
