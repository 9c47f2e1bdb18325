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

package inmemory

import (
	"sync"

	"github.com/nabbar/eventdance/peer"
)

type half struct {
	mx sync.Mutex

	mgr           peer.Manager
	peer          peer.Peer
	peerTransport *half
	current       []byte
	closed        bool

	onReceive    func(p peer.Peer)
	onNewPeer    func(p peer.Peer)
	onPeerClosed func(p peer.Peer, gracefully bool)
}

func newHalf(mgr peer.Manager) *half {
	return &half{mgr: mgr}
}

// connectPeers registers a and b's peers with their respective managers
// and fires each half's new-peer signal once its peer exists, per
// spec.md §4.E's "Signals the transport MUST emit: ... new-peer(peer)".
// Factored out of NewPair so the firing order is reachable from a
// whitebox test against raw halves, not just the public two-return-value
// constructor.
func connectPeers(a, b *half, mgrA, mgrB peer.Manager) (peer.Peer, peer.Peer, error) {
	pa, err := mgrA.NewPeer(a)
	if err != nil {
		return nil, nil, err
	}
	pb, err := mgrB.NewPeer(b)
	if err != nil {
		return nil, nil, err
	}

	a.mx.Lock()
	a.peer = pa
	fnA := a.onNewPeer
	a.mx.Unlock()

	b.mx.Lock()
	b.peer = pb
	fnB := b.onNewPeer
	b.mx.Unlock()

	if fnA != nil {
		fnA(pa)
	}
	if fnB != nil {
		fnB(pb)
	}

	return pa, pb, nil
}

func (h *half) Peer() peer.Peer {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.peer
}

// Send hands buf straight to the other half's Receive/OnReceive pair,
// synchronously on the caller's goroutine - there is no reactor on
// either side of an in-memory pipe to schedule the delivery onto.
func (h *half) Send(_ peer.Peer, buf []byte) bool {
	h.mx.Lock()
	other := h.peerTransport
	closed := h.closed
	h.mx.Unlock()

	if closed || other == nil {
		return false
	}

	other.mx.Lock()
	if other.closed {
		other.mx.Unlock()
		return false
	}
	other.current = buf
	fn := other.onReceive
	op := other.peer
	other.mx.Unlock()

	if fn != nil && op != nil {
		fn(op)
	}

	other.mx.Lock()
	other.current = nil
	other.mx.Unlock()

	if op != nil {
		op.Touch()
	}

	return true
}

func (h *half) PeerIsConnected(_ peer.Peer) bool {
	h.mx.Lock()
	defer h.mx.Unlock()
	return !h.closed && h.peerTransport != nil && !h.peerTransport.closed
}

func (h *half) Receive(_ peer.Peer) []byte {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.current
}

// ClosePeer and Close both collapse to finishClose: an in-memory pipe
// carries exactly one peer per half, so there is nothing to distinguish
// "close this one peer" from "shut the transport down".
func (h *half) ClosePeer(_ peer.Peer, gracefully bool) error {
	return h.finishClose(gracefully)
}

func (h *half) Close() error {
	return h.finishClose(false)
}

// finishClose is gated on h.closed rather than peer.MarkClosing, the
// same reasoning as transport/tcp's finishClose: Peer.Close already
// calls MarkClosing before reaching ClosePeer, so re-checking it here
// would make every close silently do nothing. Closing one half also
// closes its paired other half, since a pipe cannot stay half-open.
func (h *half) finishClose(gracefully bool) error {
	h.mx.Lock()
	if h.closed {
		h.mx.Unlock()
		return nil
	}
	h.closed = true
	pr := h.peer
	other := h.peerTransport
	fn := h.onPeerClosed
	h.mx.Unlock()

	if pr != nil {
		pr.MarkClosing()
		h.mgr.Remove(pr.ID())
	}
	if fn != nil && pr != nil {
		fn(pr, gracefully)
	}
	if other != nil {
		_ = other.finishClose(false)
	}

	return nil
}

func (h *half) OnReceive(fn func(p peer.Peer)) {
	h.mx.Lock()
	h.onReceive = fn
	h.mx.Unlock()
}

func (h *half) OnNewPeer(fn func(p peer.Peer)) {
	h.mx.Lock()
	h.onNewPeer = fn
	h.mx.Unlock()
}

func (h *half) OnPeerClosed(fn func(p peer.Peer, gracefully bool)) {
	h.mx.Lock()
	h.onPeerClosed = fn
	h.mx.Unlock()
}
