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

package tcp

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/nabbar/eventdance/peer"
	"github.com/nabbar/eventdance/socket"
	"github.com/nabbar/eventdance/stream"
	libtransport "github.com/nabbar/eventdance/transport"
)

const lengthPrefixSize = 4

type transportImpl struct {
	mx sync.Mutex

	mgr      peer.Manager
	maxFrame int
	closed   bool

	conns   map[string]socket.Conn
	inbound map[string]*bytes.Buffer
	current map[string][]byte

	onReceive    func(p peer.Peer)
	onNewPeer    func(p peer.Peer)
	onPeerClosed func(p peer.Peer, gracefully bool)
}

func newTransport(mgr peer.Manager, maxFrameSize int) *transportImpl {
	return &transportImpl{
		mgr:      mgr,
		maxFrame: maxFrameSize,
		conns:    make(map[string]socket.Conn),
		inbound:  make(map[string]*bytes.Buffer),
		current:  make(map[string][]byte),
	}
}

func (t *transportImpl) Accept(conn socket.Conn) (peer.Peer, error) {
	p, err := t.mgr.NewPeer(t)
	if err != nil {
		return nil, err
	}

	t.mx.Lock()
	if t.closed {
		t.mx.Unlock()
		return nil, libtransport.ErrorTransportClosed.Error(nil)
	}
	t.conns[p.ID()] = conn
	t.inbound[p.ID()] = &bytes.Buffer{}
	fn := t.onNewPeer
	t.mx.Unlock()

	conn.OnReadable(func() { t.drain(p, conn) })
	conn.OnError(func(error) { t.teardown(p, false) })
	conn.OnClose(func() { t.teardown(p, false) })

	if fn != nil {
		fn(p)
	}

	t.drain(p, conn)

	return p, nil
}

// drain pulls every byte Conn currently has buffered into this peer's
// accumulation buffer, then hands complete frames to dispatchFrames.
func (t *transportImpl) drain(p peer.Peer, conn socket.Conn) {
	buf := make([]byte, 4096)

	for {
		res := conn.Read(buf)
		if res.N > 0 {
			t.mx.Lock()
			acc := t.inbound[p.ID()]
			if acc != nil {
				acc.Write(buf[:res.N])
			}
			t.mx.Unlock()
		}
		if res.Status != stream.StatusOK {
			break
		}
	}

	t.dispatchFrames(p)
}

func (t *transportImpl) dispatchFrames(p peer.Peer) {
	for {
		frame, ok, err := t.popFrame(p.ID())
		if err != nil {
			t.teardown(p, false)
			return
		}
		if !ok {
			return
		}

		t.mx.Lock()
		t.current[p.ID()] = frame
		fn := t.onReceive
		t.mx.Unlock()

		if fn != nil {
			fn(p)
		}

		t.mx.Lock()
		delete(t.current, p.ID())
		t.mx.Unlock()

		p.Touch()
	}
}

func (t *transportImpl) popFrame(id string) (frame []byte, ok bool, err error) {
	t.mx.Lock()
	defer t.mx.Unlock()

	acc := t.inbound[id]
	if acc == nil {
		return nil, false, nil
	}

	if acc.Len() < lengthPrefixSize {
		return nil, false, nil
	}

	n := binary.BigEndian.Uint32(acc.Bytes()[:lengthPrefixSize])
	if int(n) > t.maxFrame {
		return nil, false, libtransport.ErrorFrameTooLarge.Error(nil)
	}
	if acc.Len() < lengthPrefixSize+int(n) {
		return nil, false, nil
	}

	acc.Next(lengthPrefixSize)
	frame = make([]byte, n)
	acc.Read(frame)

	return frame, true, nil
}

// Send implements peer.TransportRef: it frames buf with its length
// prefix and writes it through the peer's Conn. BufferedOutput.Write is
// all-or-nothing against its capacity (stream/buffered.go), so StatusOK
// here always means the whole frame was accepted.
func (t *transportImpl) Send(p peer.Peer, buf []byte) bool {
	t.mx.Lock()
	conn := t.conns[p.ID()]
	t.mx.Unlock()

	if conn == nil {
		p.BacklogPush(buf)
		return false
	}

	frame := make([]byte, lengthPrefixSize+len(buf))
	binary.BigEndian.PutUint32(frame, uint32(len(buf)))
	copy(frame[lengthPrefixSize:], buf)

	res := conn.Write(frame)
	if res.Status == stream.StatusOK {
		p.Touch()
		return true
	}

	p.BacklogPush(buf)
	return false
}

func (t *transportImpl) PeerIsConnected(p peer.Peer) bool {
	t.mx.Lock()
	conn := t.conns[p.ID()]
	t.mx.Unlock()

	if conn == nil {
		return false
	}

	return conn.State() == socket.StateConnected
}

// ClosePeer implements spec.md §4.E's idempotent close. Peer.Close
// already calls MarkClosing before reaching here, so the gate this
// method relies on is its own conns map: whichever caller (an explicit
// ClosePeer, or the Conn's own OnError/OnClose firing teardown) finds
// and removes the live entry is the one that actually runs cleanup.
func (t *transportImpl) ClosePeer(p peer.Peer, gracefully bool) error {
	return t.finishClose(p, gracefully)
}

func (t *transportImpl) teardown(p peer.Peer, gracefully bool) {
	_ = t.finishClose(p, gracefully)
}

func (t *transportImpl) finishClose(p peer.Peer, gracefully bool) error {
	t.mx.Lock()
	conn, ok := t.conns[p.ID()]
	if !ok {
		t.mx.Unlock()
		return nil
	}
	delete(t.conns, p.ID())
	delete(t.inbound, p.ID())
	delete(t.current, p.ID())
	fn := t.onPeerClosed
	t.mx.Unlock()

	p.MarkClosing()

	var err error
	if conn != nil {
		err = conn.Close()
	}

	t.mgr.Remove(p.ID())

	if fn != nil {
		fn(p, gracefully)
	}

	return err
}

func (t *transportImpl) Receive(p peer.Peer) []byte {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.current[p.ID()]
}

func (t *transportImpl) OnReceive(fn func(p peer.Peer)) {
	t.mx.Lock()
	t.onReceive = fn
	t.mx.Unlock()
}

func (t *transportImpl) OnNewPeer(fn func(p peer.Peer)) {
	t.mx.Lock()
	t.onNewPeer = fn
	t.mx.Unlock()
}

func (t *transportImpl) OnPeerClosed(fn func(p peer.Peer, gracefully bool)) {
	t.mx.Lock()
	t.onPeerClosed = fn
	t.mx.Unlock()
}

func (t *transportImpl) Close() error {
	t.mx.Lock()
	if t.closed {
		t.mx.Unlock()
		return nil
	}
	t.closed = true
	conns := t.conns
	t.conns = make(map[string]socket.Conn)
	t.mx.Unlock()

	var firstErr error
	for _, c := range conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
