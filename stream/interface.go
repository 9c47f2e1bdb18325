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

// Package stream implements the layered filter stack of spec.md §4.B:
// Raw -> Throttled -> (Tls) -> Buffered on read, the mirror on write. Each
// layer exposes a uniform Read/Write contract plus the two upward
// notifications (Drained, Filled) the owning socket uses to decide which
// bits of its watched mask stay armed - the no-spinning-on-edge-triggered-
// readiness contract of spec.md §4.B.
package stream

import "time"

// Status is the outcome of one Layer.Read or Layer.Write call.
type Status uint8

const (
	// StatusOK means N bytes were transferred; the caller may try for more.
	StatusOK Status = iota
	// StatusWouldBlock means nothing was transferred because the layer
	// below has no data (read) or no room (write) right now.
	StatusWouldBlock
	// StatusEOF means the layer below is permanently exhausted (read).
	StatusEOF
	// StatusFull means the layer cannot accept more bytes right now but
	// is not (necessarily) closed (write).
	StatusFull
	// StatusClosed means the layer has been closed and will never
	// transfer more bytes in either direction.
	StatusClosed
	// StatusError means an unexpected, non-retryable error occurred; see
	// the accompanying Result.Err.
	StatusError
)

// Result is returned by every Layer.Read/Layer.Write call.
type Result struct {
	N      int
	Status Status
	Err    error
}

// NotifyFunc is a zero-argument upward notification: Drained fires when
// the layer below reports fresh data to read (a readable edge), Filled
// when it can accept writes again (a writable edge). Neither fires when
// the layer below runs empty or becomes full.
type NotifyFunc func()

// DelayFunc is the throttle-specific upward notification carrying the
// millisecond hint spec.md §4.B's delay-read/delay-write describe.
type DelayFunc func(d time.Duration)

// Layer is the capability set every stack element implements: Raw,
// Throttled, Tls and Buffered. This is the "capability trait set" spec.md
// §9 asks for in place of a Socket/SocketBase class hierarchy.
type Layer interface {
	// Read attempts to move up to len(p) bytes from the layer into p.
	Read(p []byte) Result
	// Write attempts to move up to len(p) bytes from p into the layer.
	Write(p []byte) Result
	// Close tears the layer down; outstanding buffered input remains
	// readable until drained. Buffered output gets one flush attempt, and
	// whatever the layer below does not take is discarded.
	Close() error

	// OnDrained registers the callback fired when a Read that previously
	// returned StatusWouldBlock becomes satisfiable again because the
	// layer below reported fresh data.
	OnDrained(fn NotifyFunc)
	// OnFilled registers the callback fired when a Write that previously
	// returned StatusFull/StatusWouldBlock becomes satisfiable again
	// because the layer below drained some of its backlog.
	OnFilled(fn NotifyFunc)
}

// Throttleable is implemented by layers whose read/write admission is
// rate-limited; only stream.Throttled does today, but the interface keeps
// the throttle-specific callbacks out of the base Layer contract.
type Throttleable interface {
	Layer

	// OnDelayRead registers the callback fired when a read is granted
	// fewer bytes than requested because of the throttle; the argument
	// is the hint the caller should wait before retrying.
	OnDelayRead(fn DelayFunc)
	// OnDelayWrite is OnDelayRead's write-direction counterpart.
	OnDelayWrite(fn DelayFunc)
}

// Unreadable is implemented by input layers that support peeking:
// Buffered input reads protocol preamble bytes and can hand them back to
// the head of the stream for later re-consumption (spec.md §4.B).
type Unreadable interface {
	// Unread prepends p back onto the stream so the next Read sees it
	// first, in the order it was given.
	Unread(p []byte)
}

// Freezable is implemented by Buffered input: while frozen, bytes
// arriving from the layer below are held back instead of being surfaced
// to Read; Thaw resumes delivery.
type Freezable interface {
	Freeze()
	Thaw()
	Frozen() bool
}
