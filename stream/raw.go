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
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// Raw is the bottom of the stack: it issues exactly one non-blocking
// read/write attempt per call against the underlying fd, translating
// net.Conn's blocking semantics into the Layer contract by arming the
// connection's read/write deadline to "now" immediately before each
// attempt - a read already queued by the kernel still completes, but a
// read with nothing pending returns a timeout instead of parking the
// calling goroutine, exactly simulating O_NONBLOCK.
type Raw struct {
	mx sync.Mutex

	conn net.Conn

	onDrained NotifyFunc
	onFilled  NotifyFunc
}

// NewRaw wraps conn as the bottom Layer of a stream stack.
func NewRaw(conn net.Conn) *Raw {
	return &Raw{conn: conn}
}

func (r *Raw) Read(p []byte) Result {
	_ = r.conn.SetReadDeadline(time.Now())
	n, err := r.conn.Read(p)

	if n > 0 {
		return Result{N: n, Status: StatusOK}
	}

	st := classifyNetErr(err)
	if st == StatusError {
		return Result{Status: st, Err: err}
	}
	return Result{Status: st}
}

func (r *Raw) Write(p []byte) Result {
	_ = r.conn.SetWriteDeadline(time.Now())
	n, err := r.conn.Write(p)

	if n > 0 {
		return Result{N: n, Status: StatusOK}
	}

	st := classifyNetErr(err)
	if st == StatusError {
		return Result{Status: st, Err: err}
	}
	return Result{Status: st}
}

func (r *Raw) Close() error {
	return r.conn.Close()
}

func (r *Raw) OnDrained(fn NotifyFunc) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.onDrained = fn
}

func (r *Raw) OnFilled(fn NotifyFunc) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.onFilled = fn
}

// ReportReadable is invoked by the owning socket when the reactor
// delivers a readable edge for the underlying fd; it fires the
// registered Drained callback so the layer above retries its Read.
func (r *Raw) ReportReadable() {
	r.mx.Lock()
	fn := r.onDrained
	r.mx.Unlock()

	if fn != nil {
		fn()
	}
}

// ReportWritable is ReportReadable's write-direction counterpart, fired
// on a writable edge so the layer above retries its Write.
func (r *Raw) ReportWritable() {
	r.mx.Lock()
	fn := r.onFilled
	r.mx.Unlock()

	if fn != nil {
		fn()
	}
}

// classifyNetErr maps net.Conn's error surface onto the Layer's Status
// enum: a nil error or a timeout (the owning socket's non-blocking
// simulation) becomes WouldBlock, io.EOF becomes EOF, net.ErrClosed
// becomes Closed, everything else is a hard Error.
func classifyNetErr(err error) Status {
	if err == nil {
		return StatusWouldBlock
	}

	if errors.Is(err, io.EOF) {
		return StatusEOF
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return StatusWouldBlock
	}

	if errors.Is(err, net.ErrClosed) {
		return StatusClosed
	}

	return StatusError
}
