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

package peer

import (
	"sync"
	"time"
)

// peerImpl is Peer's concrete implementation: an id, a weak reference to
// its carrying transport, a bounded FIFO backlog and a liveness
// timestamp, all guarded by one mutex since peers are low-traffic
// bookkeeping objects, not a hot path.
type peerImpl struct {
	mx sync.Mutex

	id          string
	transport   TransportRef
	backlog     [][]byte
	backlogMax  int
	last        time.Time
	closing     bool
	userData    interface{}
	peerTimeout time.Duration
}

func newPeer(id string, t TransportRef, backlogMax int, peerTimeout time.Duration) *peerImpl {
	return &peerImpl{
		id:          id,
		transport:   t,
		backlogMax:  backlogMax,
		last:        time.Now(),
		peerTimeout: peerTimeout,
	}
}

func (p *peerImpl) ID() string { return p.id }

func (p *peerImpl) Transport() TransportRef {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.transport
}

func (p *peerImpl) Send(buf []byte) bool {
	p.mx.Lock()
	t := p.transport
	p.mx.Unlock()

	if t == nil {
		return false
	}

	return t.Send(p, buf)
}

func (p *peerImpl) Receive() []byte {
	p.mx.Lock()
	t := p.transport
	p.mx.Unlock()

	if t == nil {
		return nil
	}

	return t.Receive(p)
}

// BacklogPush implements spec.md §4.E's bounded backlog: once full, the
// oldest frame is dropped to make room for the new one rather than
// growing without bound (spec.md §1's non-goal on durable persistence).
func (p *peerImpl) BacklogPush(frame []byte) {
	p.mx.Lock()
	defer p.mx.Unlock()

	if p.backlogMax > 0 && len(p.backlog) >= p.backlogMax {
		p.backlog = p.backlog[1:]
	}
	p.backlog = append(p.backlog, frame)
}

func (p *peerImpl) BacklogPop() ([]byte, bool) {
	p.mx.Lock()
	defer p.mx.Unlock()

	if len(p.backlog) == 0 {
		return nil, false
	}

	f := p.backlog[0]
	p.backlog = p.backlog[1:]
	return f, true
}

func (p *peerImpl) BacklogLen() int {
	p.mx.Lock()
	defer p.mx.Unlock()
	return len(p.backlog)
}

func (p *peerImpl) Touch() {
	p.mx.Lock()
	p.last = time.Now()
	p.mx.Unlock()
}

func (p *peerImpl) LastActivity() time.Time {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.last
}

// IsAlive implements spec.md §3 exactly: connected transport OR a fresh
// enough activity timestamp.
func (p *peerImpl) IsAlive() bool {
	p.mx.Lock()
	t := p.transport
	last := p.last
	timeout := p.peerTimeout
	p.mx.Unlock()

	if t != nil && t.PeerIsConnected(p) {
		return true
	}

	return time.Since(last) < timeout
}

func (p *peerImpl) MarkClosing() bool {
	p.mx.Lock()
	defer p.mx.Unlock()

	if p.closing {
		return false
	}
	p.closing = true
	return true
}

func (p *peerImpl) Closing() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.closing
}

func (p *peerImpl) Close(gracefully bool) error {
	if !p.MarkClosing() {
		return nil
	}

	p.mx.Lock()
	t := p.transport
	p.mx.Unlock()

	if t == nil {
		return nil
	}

	return t.ClosePeer(p, gracefully)
}

func (p *peerImpl) UserData() interface{} {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.userData
}

func (p *peerImpl) SetUserData(v interface{}) {
	p.mx.Lock()
	p.userData = v
	p.mx.Unlock()
}
