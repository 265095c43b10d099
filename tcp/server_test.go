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

package tcp_test

import (
	"net"
	"strconv"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/tcp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TcpServer", func() {
	var log logger.Logger

	BeforeEach(func() {
		log = logger.New()
	})

	It("accepts a connection, echoes a message and reports the close", func() {
		cfg := tcp.DefaultConfig()
		cfg.ListenPort = 0
		cfg.IOLoopCount = 1

		s, err := tcp.New(log, cfg)
		Expect(err).To(BeNil())

		var connected, message, closed int32

		s.SetConnectionCallback(func(fd int) {
			atomic.StoreInt32(&connected, 1)
		})
		s.SetMessageCallback(func(fd int, data []byte) {
			atomic.StoreInt32(&message, 1)
			s.Send(fd, data)
		})
		s.SetCloseCallback(func(fd int) {
			atomic.StoreInt32(&closed, 1)
		})

		go func() {
			defer GinkgoRecover()
			_ = s.Start()
		}()
		defer s.Stop()

		port := waitForPort(s)

		client, derr := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		Expect(derr).To(BeNil())
		defer client.Close()

		Eventually(func() int32 { return atomic.LoadInt32(&connected) }).Should(Equal(int32(1)))

		_, werr := client.Write([]byte("ping"))
		Expect(werr).To(BeNil())

		Eventually(func() int32 { return atomic.LoadInt32(&message) }).Should(Equal(int32(1)))

		buf := make([]byte, 4)
		_, rerr := client.Read(buf)
		Expect(rerr).To(BeNil())
		Expect(string(buf)).To(Equal("ping"))

		Expect(s.ConnectionCount()).To(Equal(1))

		_ = client.Close()
		Eventually(func() int32 { return atomic.LoadInt32(&closed) }).Should(Equal(int32(1)))
		Eventually(s.ConnectionCount).Should(Equal(0))
	})
})

func waitForPort(s *tcp.TcpServer) int {
	var fd int
	Eventually(func() int {
		fd = s.AcceptorFd()
		return fd
	}).Should(BeNumerically(">", 0))

	sa, err := unix.Getsockname(fd)
	Expect(err).To(BeNil())
	sa4, ok := sa.(*unix.SockaddrInet4)
	Expect(ok).To(BeTrue())
	return sa4.Port
}
