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

package reactor_test

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/reactor"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Loop", func() {
	var log logger.Logger

	BeforeEach(func() {
		log = logger.New()
	})

	It("runs and quits cleanly", func() {
		l, err := reactor.New(log)
		Expect(err).To(BeNil())

		done := make(chan struct{})
		go func() {
			l.Run()
			close(done)
		}()

		Eventually(func() int32 { return l.Tid() }, time.Second).ShouldNot(BeZero())

		l.Quit()

		Eventually(done, time.Second).Should(BeClosed())
	})

	It("RunInLoop executes a foreign-thread task via QueueInLoop and wakes promptly", func() {
		l, err := reactor.New(log)
		Expect(err).To(BeNil())

		go l.Run()
		Eventually(func() int32 { return l.Tid() }, time.Second).ShouldNot(BeZero())
		defer l.Quit()

		var ran int32
		var wg sync.WaitGroup
		wg.Add(1)
		l.RunInLoop(func() {
			atomic.StoreInt32(&ran, 1)
			wg.Done()
		})

		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()

		Eventually(done, time.Second).Should(BeClosed())
		Expect(atomic.LoadInt32(&ran)).To(Equal(int32(1)))
	})

	It("reports a registered channel and pending task count in Stats", func() {
		l, err := reactor.New(log)
		Expect(err).To(BeNil())

		fds := make([]int, 2)
		Expect(unix.Pipe2(fds, unix.O_NONBLOCK)).To(Succeed())
		defer unix.Close(fds[0])
		defer unix.Close(fds[1])

		ch := l.NewChannel(fds[0])
		ch.EnableReading()
		l.QueueInLoop(func() {})

		stats := l.Stats()
		Expect(stats.RegisteredChannels).To(BeNumerically(">=", 1))
		Expect(stats.PendingTasks).To(Equal(1))
	})
})
