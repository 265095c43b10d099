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

package reactor

import (
	"sync"

	liberr "github.com/nabbar/tudou/errors"
	"github.com/nabbar/tudou/logger"
)

// InitHook runs once on the new loop's own goroutine, before Run starts
// polling, so it can register channels or perform other per-thread setup.
type InitHook func(*Loop)

// LoopThread starts a single OS thread (via a goroutine pinned with
// runtime.LockOSThread inside Loop.Run), constructs a Loop on it, and
// publishes the Loop pointer once it is safe to use. Start blocks until
// that publication happens, so the caller never observes a nil Loop.
type LoopThread struct {
	log  logger.Logger
	hook InitHook

	mu   sync.Mutex
	cond *sync.Cond
	loop *Loop
}

// NewLoopThread creates a LoopThread; hook may be nil.
func NewLoopThread(log logger.Logger, hook InitHook) *LoopThread {
	t := &LoopThread{
		log:  log,
		hook: hook,
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Start spawns the thread's goroutine and blocks until its Loop is
// constructed and the hook has run, then returns it. The goroutine
// starts Run right after, so the Loop may not be polling yet.
func (t *LoopThread) Start() (*Loop, liberr.Error) {
	loopCh := make(chan *Loop, 1)
	errCh := make(chan liberr.Error, 1)

	go func() {
		l, err := New(t.log)
		if err != nil {
			errCh <- err
			return
		}

		if t.hook != nil {
			t.hook(l)
		}

		t.mu.Lock()
		t.loop = l
		t.mu.Unlock()
		t.cond.Broadcast()

		loopCh <- l

		l.Run()
	}()

	select {
	case l := <-loopCh:
		return l, nil
	case err := <-errCh:
		return nil, err
	}
}

// Loop returns the thread's Loop, blocking until Start has published it.
func (t *LoopThread) Loop() *Loop {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.loop == nil {
		t.cond.Wait()
	}
	return t.loop
}
