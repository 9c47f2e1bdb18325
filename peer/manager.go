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
	"context"
	"sync"
	"time"

	libuuid "github.com/hashicorp/go-uuid"

	"github.com/nabbar/eventdance/atomic"
)

// manager is Manager's concrete implementation: peers live in an
// atomic.MapTyped (the teacher's generics-based concurrent map) keyed by
// id, with a lazily-gated sweep timer mirroring evd-peer-manager.c's
// GTimer-driven cleanup_peers.
type manager struct {
	mx sync.Mutex

	cfg *ManagerConfig

	peers atomic.MapTyped[string, Peer]

	onNewPeer    func(p Peer)
	onPeerClosed func(p Peer)

	cancel context.CancelFunc
}

func newManager(cfg *ManagerConfig) *manager {
	return &manager{
		cfg:   cfg,
		peers: atomic.NewMapTyped[string, Peer](),
	}
}

func (m *manager) NewPeer(t TransportRef) (Peer, error) {
	id, er := libuuid.GenerateUUID()
	if er != nil {
		return nil, ErrorUUIDGenerate.Error(er)
	}

	m.mx.Lock()
	cfg := m.cfg
	m.mx.Unlock()

	p := newPeer(id, t, cfg.BacklogSize, cfg.PeerTimeout)
	m.peers.Store(id, p)

	m.mx.Lock()
	fn := m.onNewPeer
	m.mx.Unlock()

	if fn != nil {
		fn(p)
	}

	return p, nil
}

func (m *manager) Lookup(id string) (Peer, bool) {
	p, ok := m.peers.Load(id)
	if !ok {
		return nil, false
	}

	if !p.IsAlive() {
		m.Remove(id)
		return nil, false
	}

	return p, true
}

func (m *manager) GetAllPeers() []Peer {
	var (
		dead  []string
		alive []Peer
	)

	m.peers.Range(func(id string, p Peer) bool {
		if p.IsAlive() {
			alive = append(alive, p)
		} else {
			dead = append(dead, id)
		}
		return true
	})

	for _, id := range dead {
		m.Remove(id)
	}

	return alive
}

func (m *manager) OnNewPeer(fn func(p Peer)) {
	m.mx.Lock()
	m.onNewPeer = fn
	m.mx.Unlock()
}

func (m *manager) OnPeerClosed(fn func(p Peer)) {
	m.mx.Lock()
	m.onPeerClosed = fn
	m.mx.Unlock()
}

func (m *manager) Remove(id string) {
	p, ok := m.peers.LoadAndDelete(id)
	if !ok {
		return
	}

	m.mx.Lock()
	fn := m.onPeerClosed
	m.mx.Unlock()

	if fn != nil {
		fn(p)
	}
}

// Start begins the background sweep loop: at least once every
// CleanupInterval, every registered peer that is no longer alive is
// removed and OnPeerClosed fires for each (spec.md §4.E, §8 scenario 5).
func (m *manager) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)

	m.mx.Lock()
	m.cancel = cancel
	interval := m.cfg.CleanupInterval
	m.mx.Unlock()

	if interval <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-t.C:
				m.sweep()
			}
		}
	}()
}

func (m *manager) sweep() {
	var dead []string

	m.peers.Range(func(id string, p Peer) bool {
		if !p.IsAlive() {
			dead = append(dead, id)
		}
		return true
	})

	for _, id := range dead {
		m.Remove(id)
	}
}

func (m *manager) Stop() {
	m.mx.Lock()
	cancel := m.cancel
	m.mx.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (m *manager) PeerTimeout() time.Duration {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.cfg.PeerTimeout
}
