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

// Package reactor implements spec.md §4.A's single-threaded, edge-
// triggered readiness multiplexer: a mailbox fed by a platform poller
// (real epoll on Linux, a bounded-interval fallback elsewhere), drained
// by one goroutine that invokes each socket's condition handler at its
// configured priority. No handler runs concurrently with itself, and no
// other operation is legal on the reactor goroutine except the callback
// boundaries spec.md §5 names.
package reactor

import (
	"context"
	"syscall"

	"github.com/nabbar/eventdance/socket/config"
)

// Condition is the readiness bitmask a watched fd can report, matching
// spec.md §3's "watched condition mask / last-observed condition mask".
type Condition uint8

const (
	Readable Condition = 1 << iota
	Writable
	Hangup
	ErrorCond
)

func (c Condition) Has(flag Condition) bool { return c&flag != 0 }

// Pollable is the capability a socket.Socket's underlying connection
// must expose for the reactor to register it: access to the raw fd via
// the standard library's syscall.Conn, which *net.TCPConn, *net.UnixConn
// and *net.TCPListener all implement.
type Pollable interface {
	SyscallConn() (syscall.RawConn, error)
}

// Handler is invoked by the reactor's dispatch loop with the OR'd
// condition mask observed since the last dispatch for this token.
// Handlers never reenter: the reactor does not invoke a handler for a
// given token again until the previous call returns.
type Handler func(cond Condition)

// Token identifies one registration with the reactor; returned by Watch,
// consumed by Rearm/Unwatch/Post.
type Token uint64

// Reactor is the engine of component A. A process typically owns one
// default Reactor (see Default/SetDefault) but nothing prevents creating
// an explicit one per test or per isolated worker context.
type Reactor interface {
	// Watch registers conn for condition notifications at the given
	// priority; mask is the initial watched set (spec.md §3: always a
	// subset of {Readable, Writable}). handler is invoked on the reactor
	// goroutine once per coalesced dispatch.
	Watch(conn Pollable, mask Condition, prio config.Priority, handler Handler) (Token, error)

	// Rearm changes the watched mask for an existing registration. This
	// is how a socket implements spec.md §4.B's back-pressure contract:
	// a bit stays watched iff some layer has work to do in that
	// direction.
	Rearm(tok Token, mask Condition) error

	// SetPriority changes a registration's dispatch priority without
	// touching its watched mask - used when a listening or connecting
	// socket returns to its user-configured default priority once
	// Connected (spec.md §4.A).
	SetPriority(tok Token, prio config.Priority)

	// Unwatch removes a registration; its fd is no longer polled. Safe
	// to call more than once.
	Unwatch(tok Token)

	// Post injects a synthetic condition for tok directly into the
	// mailbox, bypassing the poller. Used by timers (connect-timeout,
	// throttle delay) and by worker-pool completions (background TLS
	// handshake steps) to wake the reactor goroutine, per spec.md §5.
	Post(tok Token, cond Condition)

	// Offload runs fn on a bounded background worker instead of the
	// reactor goroutine, per spec.md §5's "Background work" rule for
	// CPU-bound crypto (TLS handshake steps). When the worker pool is
	// saturated, Offload posts a zero-condition self-wakeup for tok so
	// the caller's handler retries on the next dispatch turn rather than
	// blocking the reactor goroutine waiting for a free slot. fn must
	// call Post itself once it has a result to deliver.
	Offload(tok Token, fn func())

	// Run drains the mailbox and dispatches handlers until ctx is
	// cancelled, then stops the poller and returns after any in-flight
	// handler finishes.
	Run(ctx context.Context) error
}

// New creates a Reactor with its own mailbox, poller and priority queue.
func New() Reactor {
	return newReactor()
}

var defaultReactor Reactor

// Default lazily creates and returns a process-wide Reactor, matching
// spec.md §9's guidance to re-express a GObject-style singleton as
// explicit constructors plus a lazy module-level accessor (the teacher's
// certificates.Default convention). Tests must not rely on state
// observed across runs; construct an explicit Reactor with New() instead.
func Default() Reactor {
	if defaultReactor == nil {
		defaultReactor = New()
	}
	return defaultReactor
}
