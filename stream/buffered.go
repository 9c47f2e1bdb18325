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

package stream

import (
	"bytes"
	"sync"
)

// BufferedInput is the user-facing read side of the stack: it adds
// unread (peek-and-push-back) and freeze/thaw on top of whatever sits
// below it (Throttled, or Tls when enabled).
type BufferedInput struct {
	mx sync.Mutex

	below  Layer
	pushed bytes.Buffer // unread() bytes, consumed before anything from below
	frozen bool

	onDrained NotifyFunc
}

// NewBufferedInput wraps below as the top of the read-direction stack.
func NewBufferedInput(below Layer) *BufferedInput {
	b := &BufferedInput{below: below}
	below.OnDrained(func() { b.fireDrained() })
	return b
}

func (b *BufferedInput) fireDrained() {
	b.mx.Lock()
	frozen := b.frozen
	fn := b.onDrained
	b.mx.Unlock()

	if !frozen && fn != nil {
		fn()
	}
}

func (b *BufferedInput) Read(p []byte) Result {
	b.mx.Lock()
	if b.frozen {
		b.mx.Unlock()
		return Result{Status: StatusWouldBlock}
	}

	if b.pushed.Len() > 0 {
		n, _ := b.pushed.Read(p)
		b.mx.Unlock()
		return Result{N: n, Status: StatusOK}
	}
	b.mx.Unlock()

	return b.below.Read(p)
}

func (b *BufferedInput) Write(p []byte) Result {
	return Result{Status: StatusError, Err: errWriteOnInput}
}

func (b *BufferedInput) Close() error {
	return b.below.Close()
}

func (b *BufferedInput) OnDrained(fn NotifyFunc) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.onDrained = fn
}

func (b *BufferedInput) OnFilled(NotifyFunc) {}

// Unread prepends p back onto the stream: a service selector reads n
// bytes of protocol preamble, classifies it, then hands them back so the
// next full read sees them again, in order (spec.md §4.B, §8 scenario 6).
func (b *BufferedInput) Unread(p []byte) {
	b.mx.Lock()
	defer b.mx.Unlock()

	if len(p) == 0 {
		return
	}

	old := b.pushed.Bytes()
	merged := make([]byte, 0, len(p)+len(old))
	merged = append(merged, p...)
	merged = append(merged, old...)

	b.pushed.Reset()
	b.pushed.Write(merged)
}

// Freeze stops propagating freshly-arrived bytes upward; reads return
// WouldBlock until Thaw, even if the layer below has data ready.
func (b *BufferedInput) Freeze() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.frozen = true
}

// Thaw resumes delivery; callers resume at the socket's current
// priority, per spec.md §4.B.
func (b *BufferedInput) Thaw() {
	b.mx.Lock()
	b.frozen = false
	fn := b.onDrained
	b.mx.Unlock()

	if fn != nil {
		fn()
	}
}

func (b *BufferedInput) Frozen() bool {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.frozen
}

// BufferedOutput is the user-facing write side: writes accumulate in an
// internal buffer so short-writes never happen from the application's
// point of view while the buffer is below capacity; the layer below is
// drained opportunistically on a writable edge.
type BufferedOutput struct {
	mx sync.Mutex

	below    Layer
	capacity int
	pending  bytes.Buffer

	onFilled NotifyFunc
}

// DefaultOutputCapacity bounds BufferedOutput's backlog before Write
// starts reporting StatusFull.
const DefaultOutputCapacity = 1 << 20

// NewBufferedOutput wraps below as the top of the write-direction stack.
func NewBufferedOutput(below Layer) *BufferedOutput {
	o := &BufferedOutput{below: below, capacity: DefaultOutputCapacity}
	below.OnFilled(func() { o.Flush() })
	return o
}

func (o *BufferedOutput) Read(p []byte) Result {
	return Result{Status: StatusError, Err: errReadOnOutput}
}

func (o *BufferedOutput) Write(p []byte) Result {
	o.mx.Lock()
	defer o.mx.Unlock()

	if o.pending.Len()+len(p) > o.capacity {
		return Result{Status: StatusFull}
	}

	n, _ := o.pending.Write(p)
	o.flushLocked()

	return Result{N: n, Status: StatusOK}
}

// Flush attempts to push buffered bytes down to the layer below; call on
// a writable edge once the application has nothing more to hand in.
func (o *BufferedOutput) Flush() {
	o.mx.Lock()
	defer o.mx.Unlock()
	o.flushLocked()
}

func (o *BufferedOutput) flushLocked() {
	for o.pending.Len() > 0 {
		res := o.below.Write(o.pending.Bytes())
		if res.N > 0 {
			o.pending.Next(res.N)
		}
		if res.Status != StatusOK || res.N == 0 {
			break
		}
	}
}

func (o *BufferedOutput) Close() error {
	o.Flush()
	return o.below.Close()
}

func (o *BufferedOutput) OnDrained(NotifyFunc) {}

func (o *BufferedOutput) OnFilled(fn NotifyFunc) {
	o.mx.Lock()
	defer o.mx.Unlock()
	o.onFilled = fn
}

// Pending returns the number of bytes still buffered, for tests and
// diagnostics.
func (o *BufferedOutput) Pending() int {
	o.mx.Lock()
	defer o.mx.Unlock()
	return o.pending.Len()
}
