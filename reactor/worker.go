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

package reactor

import "golang.org/x/sync/semaphore"

// defaultCryptoWorkers bounds how many background crypto operations
// (TLS handshake steps, per spec.md §5's "Background work" rule) may run
// concurrently off the reactor goroutine. Four is a conservative default:
// handshakes are bursty (accept storms, reconnect storms) but each step
// is short-lived, so a small bound keeps worst-case goroutine growth flat
// without serializing unrelated connections' handshakes behind one lock.
const defaultCryptoWorkers = 4

// cryptoPool gates background crypto work with a weighted semaphore
// rather than an unbounded goroutine-per-handshake-step fan-out.
type cryptoPool struct {
	sem *semaphore.Weighted
}

func newCryptoPool() *cryptoPool {
	return &cryptoPool{sem: semaphore.NewWeighted(defaultCryptoWorkers)}
}

// offload runs fn on a pooled goroutine when a slot is free. When the
// pool is saturated it posts a zero-condition self-wakeup for tok instead
// of blocking: the caller's handler re-enters on the reactor's next
// dispatch turn and retries, so the reactor goroutine itself never waits
// on a crypto operation.
func (p *cryptoPool) offload(r *reactor, tok Token, fn func()) {
	if !p.sem.TryAcquire(1) {
		r.Post(tok, 0)
		return
	}

	go func() {
		defer p.sem.Release(1)
		fn()
	}()
}
