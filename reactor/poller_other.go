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

//go:build !linux

package reactor

import (
	"sync"
	"time"
)

// portablePoller is the non-Linux fallback: it owns no real readiness
// primitive, so instead of polling the fd it simply re-asserts every
// watched registration's full mask on a fixed tick. Correctness still
// holds because stream.Raw always attempts the syscall and reports
// StatusWouldBlock on EAGAIN; this backend only affects how promptly a
// ready fd is discovered, not whether a not-ready fd is misreported as
// ready.
type portablePoller struct {
	mx      sync.Mutex
	entries map[Token]Condition
	ticker  *time.Ticker
	stopped chan struct{}
}

// pollerState holds the platform poller's lazily-created backend.
type pollerState struct {
	once sync.Once
	p    *portablePoller
}

const portablePollInterval = 15 * time.Millisecond

func (r *reactor) poller() *portablePoller {
	r.poll.once.Do(func() {
		p := &portablePoller{
			entries: make(map[Token]Condition),
			ticker:  time.NewTicker(portablePollInterval),
			stopped: make(chan struct{}),
		}
		r.poll.p = p
		go r.runPortableLoop(p)
	})
	return r.poll.p
}

func (r *reactor) startPoller(conn Pollable, tok Token, mask Condition) (func(), error) {
	p := r.poller()

	p.mx.Lock()
	p.entries[tok] = mask
	p.mx.Unlock()

	stop := func() {
		p.mx.Lock()
		delete(p.entries, tok)
		p.mx.Unlock()
	}

	return stop, nil
}

func (r *reactor) rearmPoller(tok Token, mask Condition) error {
	p := r.poll.p
	if p == nil {
		return nil
	}

	p.mx.Lock()
	if _, ok := p.entries[tok]; ok {
		p.entries[tok] = mask
	}
	p.mx.Unlock()

	return nil
}

func (r *reactor) stopPoller() {
	if p := r.poll.p; p != nil {
		close(p.stopped)
	}
}

func (r *reactor) runPortableLoop(p *portablePoller) {
	for {
		select {
		case <-p.stopped:
			p.ticker.Stop()
			return
		case <-p.ticker.C:
			p.mx.Lock()
			snapshot := make(map[Token]Condition, len(p.entries))
			for t, c := range p.entries {
				snapshot[t] = c
			}
			p.mx.Unlock()

			for tok, mask := range snapshot {
				r.Post(tok, mask)
			}
		}
	}
}
