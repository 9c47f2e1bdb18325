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
	"sync"

	"github.com/nabbar/eventdance/throttle"
)

// Throttled sits between Raw and the optional Tls layer, consulting a
// throttle.Throttle (or throttle.Group) before forwarding a read/write of
// a given size down to the layer below.
type Throttled struct {
	mx sync.Mutex

	below Layer
	grp   throttle.Group

	onDrained    NotifyFunc
	onFilled     NotifyFunc
	onDelayRead  DelayFunc
	onDelayWrite DelayFunc
}

// NewThrottled wraps below with the given throttles (shared or
// per-connection, per spec.md §4.B's "may be shared between multiple
// sockets" note); an empty set of throttles makes this layer a pass-through.
func NewThrottled(below Layer, throttles ...throttle.Throttle) *Throttled {
	t := &Throttled{below: below, grp: throttle.Group(throttles)}

	below.OnDrained(func() { t.fireDrained() })
	below.OnFilled(func() { t.fireFilled() })

	return t
}

func (t *Throttled) fireDrained() {
	t.mx.Lock()
	fn := t.onDrained
	t.mx.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *Throttled) fireFilled() {
	t.mx.Lock()
	fn := t.onFilled
	t.mx.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *Throttled) Read(p []byte) Result {
	grant := t.grp.RequestRead(len(p))

	if grant.Granted == 0 {
		t.mx.Lock()
		fn := t.onDelayRead
		t.mx.Unlock()
		if fn != nil && grant.Delay > 0 {
			fn(grant.Delay)
		}
		return Result{Status: StatusWouldBlock}
	}

	res := t.below.Read(p[:grant.Granted])

	if res.Status == StatusOK && grant.Granted < len(p) && grant.Delay > 0 {
		t.mx.Lock()
		fn := t.onDelayRead
		t.mx.Unlock()
		if fn != nil {
			fn(grant.Delay)
		}
	}

	return res
}

func (t *Throttled) Write(p []byte) Result {
	grant := t.grp.RequestWrite(len(p))

	if grant.Granted == 0 {
		t.mx.Lock()
		fn := t.onDelayWrite
		t.mx.Unlock()
		if fn != nil && grant.Delay > 0 {
			fn(grant.Delay)
		}
		return Result{Status: StatusWouldBlock}
	}

	res := t.below.Write(p[:grant.Granted])

	if res.Status == StatusOK && grant.Granted < len(p) && grant.Delay > 0 {
		t.mx.Lock()
		fn := t.onDelayWrite
		t.mx.Unlock()
		if fn != nil {
			fn(grant.Delay)
		}
	}

	return res
}

func (t *Throttled) Close() error {
	return t.below.Close()
}

func (t *Throttled) OnDrained(fn NotifyFunc) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.onDrained = fn
}

func (t *Throttled) OnFilled(fn NotifyFunc) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.onFilled = fn
}

func (t *Throttled) OnDelayRead(fn DelayFunc) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.onDelayRead = fn
}

func (t *Throttled) OnDelayWrite(fn DelayFunc) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.onDelayWrite = fn
}
