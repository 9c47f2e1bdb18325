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

package throttle

import (
	"sync"
	"time"

	"github.com/nabbar/eventdance/size"
)

// throttle buckets bandwidth per calendar second: each direction tracks
// how many bytes it has already granted during the current wall-clock
// second, resetting the counter the moment the second rolls over.
type throttle struct {
	mx sync.Mutex

	bwIn  int64
	bwOut int64
	ltIn  time.Duration
	ltOut time.Duration

	secIn  int64
	usedIn int64
	lastIn time.Time

	secOut  int64
	usedOut int64
	lastOut time.Time
}

func (t *throttle) SetBandwidthIn(bw size.Size) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.bwIn = bw.Int64()
}

func (t *throttle) SetBandwidthOut(bw size.Size) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.bwOut = bw.Int64()
}

func (t *throttle) SetLatencyIn(lt time.Duration) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.ltIn = lt
}

func (t *throttle) SetLatencyOut(lt time.Duration) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.ltOut = lt
}

func (t *throttle) RequestRead(n int) Grant {
	t.mx.Lock()
	defer t.mx.Unlock()

	return request(n, t.bwIn, t.ltIn, &t.secIn, &t.usedIn, &t.lastIn)
}

func (t *throttle) RequestWrite(n int) Grant {
	t.mx.Lock()
	defer t.mx.Unlock()

	return request(n, t.bwOut, t.ltOut, &t.secOut, &t.usedOut, &t.lastOut)
}

// request grants up to n bytes against a per-second bandwidth cap and a
// minimum-latency gap. Per spec.md §4.B the two checks are mutually
// exclusive, not independent gates: a too-early call under the latency
// floor grants 0 bytes outright and never reaches the bandwidth check.
func request(n int, bw int64, lt time.Duration, sec *int64, used *int64, last *time.Time) Grant {
	now := time.Now()

	if lt > 0 && !last.IsZero() {
		if elapsed := now.Sub(*last); elapsed < lt {
			return Grant{Granted: 0, Delay: lt - elapsed}
		}
	}

	granted := n
	var delay time.Duration

	if bw > 0 {
		nowSec := now.Unix()
		if nowSec != *sec {
			*sec = nowSec
			*used = 0
		}

		remaining := bw - *used
		if remaining <= 0 {
			granted = 0
			delay = time.Unix(nowSec+1, 0).Sub(now)
		} else if int64(n) > remaining {
			granted = int(remaining)
			delay = time.Unix(nowSec+1, 0).Sub(now)
		}
	}

	if granted > 0 {
		*used += int64(granted)
		*last = now
	}

	return Grant{Granted: granted, Delay: delay}
}
