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

package peer_test

import (
	"time"

	. "github.com/nabbar/eventdance/peer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeTransport is a minimal TransportRef stub a test can flip the
// connected flag on, to drive Peer.IsAlive's two branches independently.
type fakeTransport struct {
	connected bool
	sent      [][]byte
	closed    []bool
}

func (f *fakeTransport) Send(p Peer, buf []byte) bool {
	f.sent = append(f.sent, buf)
	return true
}
func (f *fakeTransport) PeerIsConnected(p Peer) bool { return f.connected }
func (f *fakeTransport) ClosePeer(p Peer, gracefully bool) error {
	f.closed = append(f.closed, gracefully)
	return nil
}
func (f *fakeTransport) Receive(p Peer) []byte { return []byte("current") }

var _ = Describe("Manager", func() {
	It("creates peers with unique ids and fires OnNewPeer", func() {
		m := NewManager(New())
		var created []Peer
		m.OnNewPeer(func(p Peer) { created = append(created, p) })

		ft := &fakeTransport{connected: true}
		p1, err := m.NewPeer(ft)
		Expect(err).ToNot(HaveOccurred())
		p2, err := m.NewPeer(ft)
		Expect(err).ToNot(HaveOccurred())

		Expect(p1.ID()).ToNot(Equal(p2.ID()))
		Expect(created).To(HaveLen(2))
	})

	It("finds a connected peer alive even with stale activity", func() {
		cfg := New()
		cfg.PeerTimeout = time.Millisecond
		m := NewManager(cfg)

		ft := &fakeTransport{connected: true}
		p, _ := m.NewPeer(ft)
		time.Sleep(5 * time.Millisecond)

		Expect(p.IsAlive()).To(BeTrue())

		got, ok := m.Lookup(p.ID())
		Expect(ok).To(BeTrue())
		Expect(got.ID()).To(Equal(p.ID()))
	})

	It("purges a dead peer on Lookup", func() {
		cfg := New()
		cfg.PeerTimeout = time.Millisecond
		m := NewManager(cfg)

		var closedIDs []string
		m.OnPeerClosed(func(p Peer) { closedIDs = append(closedIDs, p.ID()) })

		ft := &fakeTransport{connected: false}
		p, _ := m.NewPeer(ft)
		time.Sleep(5 * time.Millisecond)

		_, ok := m.Lookup(p.ID())
		Expect(ok).To(BeFalse())
		Expect(closedIDs).To(ConsistOf(p.ID()))

		_, ok = m.Lookup(p.ID())
		Expect(ok).To(BeFalse())
		Expect(closedIDs).To(HaveLen(1), "peer-closed fires exactly once (spec.md §8 idempotence)")
	})

	It("backlog drains in FIFO order", func() {
		cfg := New()
		cfg.BacklogSize = 4
		m := NewManager(cfg)
		p, _ := m.NewPeer(&fakeTransport{})

		p.BacklogPush([]byte("a"))
		p.BacklogPush([]byte("b"))
		p.BacklogPush([]byte("c"))

		f1, ok := p.BacklogPop()
		Expect(ok).To(BeTrue())
		Expect(string(f1)).To(Equal("a"))

		f2, _ := p.BacklogPop()
		Expect(string(f2)).To(Equal("b"))
	})

	It("bounds the backlog by dropping the oldest frame", func() {
		cfg := New()
		cfg.BacklogSize = 2
		m := NewManager(cfg)
		p, _ := m.NewPeer(&fakeTransport{})

		p.BacklogPush([]byte("a"))
		p.BacklogPush([]byte("b"))
		p.BacklogPush([]byte("c"))

		Expect(p.BacklogLen()).To(Equal(2))
		f, _ := p.BacklogPop()
		Expect(string(f)).To(Equal("b"))
	})

	It("close is idempotent and emits ClosePeer exactly once", func() {
		ft := &fakeTransport{}
		m := NewManager(New())
		p, _ := m.NewPeer(ft)

		Expect(p.Close(true)).ToNot(HaveOccurred())
		Expect(p.Close(true)).ToNot(HaveOccurred())
		Expect(p.Close(true)).ToNot(HaveOccurred())

		Expect(ft.closed).To(HaveLen(1))
	})
})
