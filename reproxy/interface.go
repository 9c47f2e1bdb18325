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

// Package reproxy implements the reverse-proxy backend bridge pool of
// spec.md §4.D: a bounded set of upstream connections ("bridges") shared
// across incoming clients so a reverse proxy never exhausts file
// descriptors nor blocks on upstream connect latency.
package reproxy

import (
	"context"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// State is a bridge's position in spec.md §4.D's lifecycle.
type State uint8

const (
	StateConnecting State = iota
	StateFree
	StateBusy
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateFree:
		return "free"
	case StateBusy:
		return "busy"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Backend is one upstream bridge connection.
type Backend interface {
	Conn() net.Conn
	State() State
	// LastActivity reports when the bridge was last known active (paired,
	// released, or explicitly touched via Pool.RecordActivity).
	LastActivity() time.Time
	// Doubtful reports whether this bridge's inactive time exceeds the
	// pool's current learned idle-timeout (spec.md §4.D).
	Doubtful(idleTimeout time.Duration) bool
	Close() error
}

// DialFunc opens one upstream bridge connection. The pool calls it from a
// background goroutine. A failed dial is not retried: its slot is
// released, and a later Acquire, or a Release that needs a replacement,
// dials again.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Pool is the engine of component G: spec.md §4.D's bridge lifecycle,
// pairing, proactive growth and idle-timeout calibration.
type Pool interface {
	// Start pre-connects MinPoolSize bridges and begins background growth.
	// The pool stops all background goroutines when ctx is cancelled.
	Start(ctx context.Context)

	// Acquire returns an immediately-free bridge, or blocks until one
	// becomes available or ctx is cancelled.
	Acquire(ctx context.Context) (Backend, error)

	// Release hands b back once its client is done with it. Release always
	// closes b; a replacement is dialed when a client is waiting in Acquire
	// or fewer than MinPoolSize bridges remain. A non-nil err signals a
	// bridge-local failure: it narrows the learned idle-timeout and closes
	// the free bridges that have become doubtful. A nil err only refreshes
	// b's last-activity time.
	Release(b Backend, err error)

	// RecordActivity marks b as active right now, widening the learned
	// idle-timeout if this bridge had been idle longer than the current
	// value (spec.md §4.D: "On any activity on a live bridge...").
	RecordActivity(b Backend)

	// Stats reports current bridge counts by state, for tests and the
	// Prometheus gauges Collectors exposes.
	Stats() (connecting, free, busy int)

	// IdleTimeout returns the pool's current learned idle-timeout.
	IdleTimeout() time.Duration

	// Collectors returns the pool's Prometheus gauges (connecting/free/
	// busy counts, idle-timeout seconds) for the caller to register with
	// whichever prometheus.Registerer it uses; Pool never registers
	// itself, to avoid duplicate-registration panics across pools/tests.
	Collectors() []prometheus.Collector

	// Stop closes every free bridge and stops background growth; bridges
	// currently held by Acquire callers are not closed.
	Stop() error
}

// New creates a Pool that dials new bridges with dial, configured by cfg
// (nil uses NewPoolConfig()'s defaults).
func New(dial DialFunc, cfg *PoolConfig) Pool {
	if cfg == nil {
		cfg = NewPoolConfig()
	}
	return newPool(dial, cfg)
}
