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

package poller_test

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/tudou/poller"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeWatcher struct {
	fd int
}

func (f fakeWatcher) Fd() int {
	return f.fd
}

var _ = Describe("Poller", func() {
	var (
		p         *poller.Poller
		readFd    int
		writeFd   int
		readWatch fakeWatcher
	)

	BeforeEach(func() {
		var err error
		p, err = poller.New()
		Expect(err).To(BeNil())

		fds := make([]int, 2)
		Expect(unix.Pipe2(fds, unix.O_NONBLOCK)).To(Succeed())
		readFd, writeFd = fds[0], fds[1]
		readWatch = fakeWatcher{fd: readFd}
	})

	AfterEach(func() {
		_ = p.Close()
		_ = unix.Close(readFd)
		_ = unix.Close(writeFd)
	})

	It("starts empty", func() {
		Expect(p.Size()).To(Equal(0))
	})

	It("registers a watcher via Update and Contains reports it", func() {
		err := p.Update(readWatch, poller.InterestRead)
		Expect(err).To(BeNil())
		Expect(p.Contains(readWatch)).To(BeTrue())
		Expect(p.Size()).To(Equal(1))
	})

	It("Remove deregisters a watcher", func() {
		_ = p.Update(readWatch, poller.InterestRead)
		Expect(p.Remove(readWatch)).To(BeNil())
		Expect(p.Contains(readWatch)).To(BeFalse())
	})

	It("Remove on an unregistered watcher is a no-op", func() {
		Expect(p.Remove(readWatch)).To(BeNil())
	})

	It("Poll reports a readable fd once data is written", func() {
		_ = p.Update(readWatch, poller.InterestRead)

		_, werr := unix.Write(writeFd, []byte("x"))
		Expect(werr).To(BeNil())

		events, err := p.Poll(1000)
		Expect(err).To(BeNil())
		Expect(events).To(HaveLen(1))
		Expect(events[0].Fd).To(Equal(readFd))
		Expect(events[0].Mask & unix.EPOLLIN).ToNot(BeZero())
	})

	It("Poll times out with no events when nothing is ready", func() {
		_ = p.Update(readWatch, poller.InterestRead)

		events, err := p.Poll(10)
		Expect(err).To(BeNil())
		Expect(events).To(BeEmpty())
	})
})
