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
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	liberr "github.com/nabbar/tudou/errors"
	"github.com/nabbar/tudou/logger"
)

// LoopPool owns a main loop, constructed in the caller's goroutine, and
// N started LoopThreads. NextLoop hands out I/O loops round-robin; with
// zero I/O loops every caller is handed the main loop instead, so a
// single-threaded deployment still works.
type LoopPool struct {
	log logger.Logger

	main    *Loop
	threads []*LoopThread
	loops   []*Loop

	idx uint64
}

// NewLoopPool constructs the main loop (on the calling goroutine) but
// does not yet start any I/O threads; call Start for that.
func NewLoopPool(log logger.Logger) (*LoopPool, liberr.Error) {
	main, err := New(log)
	if err != nil {
		return nil, err
	}

	return &LoopPool{
		log:  log,
		main: main,
	}, nil
}

// MainLoop returns the pool's main loop, where the Acceptor runs.
func (p *LoopPool) MainLoop() *Loop {
	return p.main
}

// Start spawns ioLoopCount LoopThreads and blocks until every one of
// them has published its Loop; each Loop starts running right after
// it is published. hook, if non-nil, runs once on
// each new loop's own goroutine before it starts polling.
func (p *LoopPool) Start(ioLoopCount int, hook InitHook) liberr.Error {
	p.threads = make([]*LoopThread, ioLoopCount)
	p.loops = make([]*Loop, ioLoopCount)

	g := &errgroup.Group{}

	for i := 0; i < ioLoopCount; i++ {
		i := i
		t := NewLoopThread(p.log, hook)
		p.threads[i] = t

		g.Go(func() error {
			l, err := t.Start()
			if err != nil {
				return err
			}
			p.loops[i] = l
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if le, ok := err.(liberr.Error); ok {
			return le
		}
		return liberr.Make(err)
	}

	return nil
}

// NextLoop returns the next I/O loop in round-robin order, or the main
// loop if no I/O loops were started.
func (p *LoopPool) NextLoop() *Loop {
	if len(p.loops) == 0 {
		return p.main
	}

	n := atomic.AddUint64(&p.idx, 1)
	return p.loops[n%uint64(len(p.loops))]
}

// AllLoops returns every I/O loop, excluding the main loop.
func (p *LoopPool) AllLoops() []*Loop {
	return p.loops
}

// Stop signals every I/O loop and the main loop to quit.
func (p *LoopPool) Stop() {
	for _, l := range p.loops {
		l.Quit()
	}
	p.main.Quit()
}
