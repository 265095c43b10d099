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

package channel_test

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/tudou/channel"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeLoop struct {
	updated int
	removed int
}

func (f *fakeLoop) UpdateChannel(ch *channel.Channel) { f.updated++ }
func (f *fakeLoop) RemoveChannel(ch *channel.Channel) { f.removed++ }
func (f *fakeLoop) AssertInLoopThread()               {}

var _ = Describe("Channel", func() {
	var (
		loop *fakeLoop
		ch   *channel.Channel
	)

	BeforeEach(func() {
		loop = &fakeLoop{}
		ch = channel.New(loop, 42)
	})

	It("reports its fd", func() {
		Expect(ch.Fd()).To(Equal(42))
	})

	It("starts with no interest", func() {
		Expect(ch.IsNoneEvent()).To(BeTrue())
	})

	It("EnableReading sets read interest and notifies the loop", func() {
		ch.EnableReading()
		Expect(ch.Interest() & channel.InterestRead).ToNot(BeZero())
		Expect(loop.updated).To(Equal(1))
	})

	It("EnableWriting then DisableWriting clears only the write bit", func() {
		ch.EnableReading()
		ch.EnableWriting()
		Expect(ch.IsWriting()).To(BeTrue())

		ch.DisableWriting()
		Expect(ch.IsWriting()).To(BeFalse())
		Expect(ch.Interest() & channel.InterestRead).ToNot(BeZero())
	})

	It("DisableAll clears every interest", func() {
		ch.EnableReading()
		ch.EnableWriting()
		ch.DisableAll()
		Expect(ch.IsNoneEvent()).To(BeTrue())
	})

	It("Remove forwards to the loop", func() {
		ch.Remove()
		Expect(loop.removed).To(Equal(1))
	})

	It("dispatches the read callback on IN", func() {
		called := false
		ch.SetReadCallback(func() { called = true })
		ch.SetReceived(unix.EPOLLIN)
		ch.HandleEvents()
		Expect(called).To(BeTrue())
	})

	It("dispatches both read and write callbacks when both fire", func() {
		var readCalled, writeCalled bool
		ch.SetReadCallback(func() { readCalled = true })
		ch.SetWriteCallback(func() { writeCalled = true })
		ch.SetReceived(unix.EPOLLIN | unix.EPOLLOUT)
		ch.HandleEvents()
		Expect(readCalled).To(BeTrue())
		Expect(writeCalled).To(BeTrue())
	})

	It("dispatches the close callback on HUP without IN", func() {
		var closeCalled, readCalled bool
		ch.SetCloseCallback(func() { closeCalled = true })
		ch.SetReadCallback(func() { readCalled = true })
		ch.SetReceived(unix.EPOLLHUP)
		ch.HandleEvents()
		Expect(closeCalled).To(BeTrue())
		Expect(readCalled).To(BeFalse())
	})

	It("prefers the error callback over read/write when ERR is set", func() {
		var errCalled, readCalled bool
		ch.SetErrorCallback(func() { errCalled = true })
		ch.SetReadCallback(func() { readCalled = true })
		ch.SetReceived(unix.EPOLLERR | unix.EPOLLIN)
		ch.HandleEvents()
		Expect(errCalled).To(BeTrue())
		Expect(readCalled).To(BeFalse())
	})

	It("skips dispatch entirely once Tie reports the owner is gone", func() {
		called := false
		ch.SetReadCallback(func() { called = true })
		ch.Tie(func() bool { return false })
		ch.SetReceived(unix.EPOLLIN)
		ch.HandleEvents()
		Expect(called).To(BeFalse())
	})

	It("dispatches normally while Tie reports the owner alive", func() {
		called := false
		ch.SetReadCallback(func() { called = true })
		ch.Tie(func() bool { return true })
		ch.SetReceived(unix.EPOLLIN)
		ch.HandleEvents()
		Expect(called).To(BeTrue())
	})
})
