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

// Package inmemory implements transport.Transport as a paired pipe: two
// Transport halves created together by NewPair deliver whatever one
// side Sends directly to the other's OnReceive, with no socket, no
// framing and no network involved. It exists for engine-to-engine
// testing - jsonrpc's own test suite runs its call/response scenarios
// over this transport instead of a real TCP loopback.
package inmemory

import (
	"github.com/nabbar/eventdance/peer"
	"github.com/nabbar/eventdance/transport"
)

// Transport is one half of an in-memory pipe. It carries exactly one
// peer - the pipe's other endpoint - for the pipe's entire lifetime.
type Transport interface {
	transport.Transport

	// Peer returns the single peer.Peer this half carries.
	Peer() peer.Peer
}

// NewPair creates two linked Transport halves, registering one peer with
// mgrA and one with mgrB.
func NewPair(mgrA peer.Manager, mgrB peer.Manager) (Transport, Transport, error) {
	a := newHalf(mgrA)
	b := newHalf(mgrB)
	a.peerTransport = b
	b.peerTransport = a

	if _, _, err := connectPeers(a, b, mgrA, mgrB); err != nil {
		return nil, nil, err
	}

	return a, b, nil
}
