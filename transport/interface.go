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

// Package transport declares spec.md §4.E's component J: the uniform
// send/receive/close contract every pluggable carrier (TCP, TCP+TLS,
// in-memory) implements, plus the three signals (receive, new-peer,
// peer-closed) every implementation MUST emit. Subpackages tcp and
// inmemory provide the two concrete carriers this module ships.
package transport

import "github.com/nabbar/eventdance/peer"

// Transport is spec.md §4.E's component J. It embeds peer.TransportRef
// so every Transport implementation is automatically usable anywhere a
// Peer's carrier reference is needed, without peer importing transport.
type Transport interface {
	peer.TransportRef

	// OnReceive registers the callback fired once per inbound message,
	// with p's current message available via Receive(p) only for the
	// duration of the callback (spec.md §3's "Transport-level message").
	OnReceive(fn func(p peer.Peer))
	// OnNewPeer registers the callback fired when this transport creates
	// a peer (an accepted connection, or the paired side of an
	// in-memory pipe).
	OnNewPeer(fn func(p peer.Peer))
	// OnPeerClosed registers the callback fired once a peer carried by
	// this transport finishes closing.
	OnPeerClosed(fn func(p peer.Peer, gracefully bool))

	// Close shuts the transport down, closing every peer it still
	// carries.
	Close() error
}
