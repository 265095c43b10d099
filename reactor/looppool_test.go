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
	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/reactor"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoopPool", func() {
	var log logger.Logger

	BeforeEach(func() {
		log = logger.New()
	})

	It("with zero I/O loops, NextLoop always returns the main loop", func() {
		p, err := reactor.NewLoopPool(log)
		Expect(err).To(BeNil())

		Expect(p.Start(0, nil)).To(BeNil())
		defer p.Stop()

		Expect(p.NextLoop()).To(Equal(p.MainLoop()))
		Expect(p.NextLoop()).To(Equal(p.MainLoop()))
	})

	It("Start blocks until every I/O loop has a running Loop published", func() {
		p, err := reactor.NewLoopPool(log)
		Expect(err).To(BeNil())

		Expect(p.Start(3, nil)).To(BeNil())
		defer p.Stop()

		Expect(p.AllLoops()).To(HaveLen(3))
		for _, l := range p.AllLoops() {
			Expect(l).ToNot(BeNil())
			Eventually(l.Tid).ShouldNot(BeZero())
		}
	})

	It("NextLoop round-robins across the I/O loops", func() {
		p, err := reactor.NewLoopPool(log)
		Expect(err).To(BeNil())

		Expect(p.Start(2, nil)).To(BeNil())
		defer p.Stop()

		first := p.NextLoop()
		second := p.NextLoop()
		third := p.NextLoop()

		Expect(first).ToNot(Equal(second))
		Expect(first).To(Equal(third))
	})
})
