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

package throttle_test

import (
	"time"

	"github.com/nabbar/eventdance/size"
	. "github.com/nabbar/eventdance/throttle"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Throttle", func() {
	Context("unthrottled", func() {
		It("grants the full request with no delay", func() {
			th := New()
			g := th.RequestRead(4096)
			Expect(g.Granted).To(Equal(4096))
			Expect(g.Delay).To(Equal(time.Duration(0)))
		})
	})

	Context("bandwidth cap", func() {
		It("grants up to the remaining per-second quota", func() {
			th := Config{BandwidthOut: 100 * size.SizeUnit}.New()

			g1 := th.RequestWrite(60)
			Expect(g1.Granted).To(Equal(60))
			Expect(g1.Delay).To(Equal(time.Duration(0)))

			g2 := th.RequestWrite(60)
			Expect(g2.Granted).To(Equal(40))
		})

		It("grants nothing and reports a delay once the quota is exhausted", func() {
			th := Config{BandwidthOut: 10 * size.SizeUnit}.New()

			first := th.RequestWrite(10)
			Expect(first.Granted).To(Equal(10))

			second := th.RequestWrite(10)
			Expect(second.Granted).To(Equal(0))
			Expect(second.Delay).To(BeNumerically(">", 0))
		})
	})

	Context("latency floor", func() {
		It("reports a delay when called again before the minimum gap elapses", func() {
			th := Config{LatencyOut: 50 * time.Millisecond}.New()

			first := th.RequestWrite(10)
			Expect(first.Granted).To(Equal(10))

			second := th.RequestWrite(10)
			Expect(second.Granted).To(Equal(0))
			Expect(second.Delay).To(BeNumerically(">", 0))
			Expect(second.Delay).To(BeNumerically("<=", 50*time.Millisecond))
		})
	})

	Context("setters", func() {
		It("take effect on the next request", func() {
			th := New()
			th.SetBandwidthOut(5 * size.SizeUnit)

			g := th.RequestWrite(10)
			Expect(g.Granted).To(Equal(5))
		})
	})

	Describe("Group", func() {
		It("grants the minimum across members", func() {
			tight := Config{BandwidthOut: 5 * size.SizeUnit}.New()
			loose := Config{BandwidthOut: 100 * size.SizeUnit}.New()

			g := Group{tight, loose}.RequestWrite(10)
			Expect(g.Granted).To(Equal(5))
		})

		It("behaves as unthrottled when empty", func() {
			g := Group{}.RequestRead(10)
			Expect(g.Granted).To(Equal(10))
		})

		It("skips nil members", func() {
			g := Group{nil, New()}.RequestRead(10)
			Expect(g.Granted).To(Equal(10))
		})
	})
})
