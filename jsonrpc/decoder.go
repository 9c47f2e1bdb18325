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

package jsonrpc

// boundaryDecoder is the streaming JSON object boundary detector of
// spec.md §4.F: it accumulates bytes and, each time Feed is called,
// returns every whole top-level JSON object completed so far, leaving
// any partial trailing object buffered for the next Feed call. Depth
// and in-string tracking replace a single delimiter byte since the
// boundary here is a balanced '{'/'}' pair, not a fixed separator.
type boundaryDecoder struct {
	buf     []byte
	depth   int
	inStr   bool
	escaped bool
	started bool
}

// feed appends p to the decoder and returns every complete JSON object
// found, in order. A depth that goes negative (a stray '}') is reported
// as a malformed-frame error and resets the decoder, so one bad byte
// does not wedge the connection permanently.
func (d *boundaryDecoder) feed(p []byte) (objects [][]byte, err error) {
	d.buf = append(d.buf, p...)

	start := 0
	for i := 0; i < len(d.buf); i++ {
		c := d.buf[i]

		if d.inStr {
			switch {
			case d.escaped:
				d.escaped = false
			case c == '\\':
				d.escaped = true
			case c == '"':
				d.inStr = false
			}
			continue
		}

		switch c {
		case '"':
			d.inStr = true
		case '{':
			d.depth++
			d.started = true
		case '}':
			d.depth--
			if d.depth < 0 {
				d.reset()
				return objects, errMalformedFrame()
			}
			if d.depth == 0 {
				obj := make([]byte, i+1-start)
				copy(obj, d.buf[start:i+1])
				objects = append(objects, obj)
				start = i + 1
			}
		}
	}

	d.buf = append([]byte(nil), d.buf[start:]...)
	return objects, nil
}

func (d *boundaryDecoder) reset() {
	d.buf = nil
	d.depth = 0
	d.inStr = false
	d.escaped = false
	d.started = false
}
