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

package stream_test

import (
	. "github.com/nabbar/eventdance/stream"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BufferedInput", func() {
	It("returns unread bytes before anything from below, in order", func() {
		below := &memLayer{}
		below.feed([]byte("GETHTT"))

		in := NewBufferedInput(below)

		buf := make([]byte, 3)
		n := 0
		for n < 3 {
			r := in.Read(buf[n:])
			n += r.N
		}
		Expect(string(buf)).To(Equal("GET"))

		in.Unread(buf)

		full := make([]byte, 6)
		got := 0
		for got < 6 {
			r := in.Read(full[got:])
			if r.Status == StatusWouldBlock {
				break
			}
			got += r.N
		}
		Expect(string(full[:got])).To(Equal("GETHTT"))
	})

	It("withholds delivery while frozen and resumes after Thaw", func() {
		below := &memLayer{}
		in := NewBufferedInput(below)

		in.Freeze()
		Expect(in.Frozen()).To(BeTrue())

		below.feed([]byte("data"))
		r := in.Read(make([]byte, 4))
		Expect(r.Status).To(Equal(StatusWouldBlock))

		in.Thaw()
		Expect(in.Frozen()).To(BeFalse())

		r = in.Read(make([]byte, 4))
		Expect(r.Status).To(Equal(StatusOK))
		Expect(r.N).To(Equal(4))
	})
})

var _ = Describe("BufferedOutput", func() {
	It("buffers writes below capacity without short-writes", func() {
		below := &memLayer{}
		out := NewBufferedOutput(below)

		r := out.Write([]byte("hello world"))
		Expect(r.Status).To(Equal(StatusOK))
		Expect(r.N).To(Equal(11))
		Expect(below.out.String()).To(Equal("hello world"))
	})

	It("reports full once capacity is exceeded", func() {
		below := &memLayer{}
		out := NewBufferedOutput(below)

		small := make([]byte, DefaultOutputCapacity+1)
		r := out.Write(small)
		Expect(r.Status).To(Equal(StatusFull))
	})
})
