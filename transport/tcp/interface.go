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

// Package tcp implements transport.Transport over package socket's
// non-blocking Conn: each message is framed with a 4-byte big-endian
// length prefix ahead of its payload, read off Conn's buffered input
// stream on the OnReadable callback socket.Conn exposes for exactly this
// purpose, and written through Conn's BufferedOutput the same way any
// other caller would.
package tcp

import (
	"github.com/nabbar/eventdance/peer"
	"github.com/nabbar/eventdance/socket"
	"github.com/nabbar/eventdance/transport"
)

// DefaultMaxFrameSize bounds one inbound message so a misbehaving or
// malicious peer cannot make this transport grow an unbounded
// accumulation buffer (spec.md §7's "Peer-local" error taxonomy - the
// offending connection is torn down, others are unaffected).
const DefaultMaxFrameSize = 16 << 20

// New creates a tcp Transport that registers new peers with mgr and
// bounds inbound frames at maxFrameSize (DefaultMaxFrameSize if <= 0).
func New(mgr peer.Manager, maxFrameSize int) transport.Transport {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return newTransport(mgr, maxFrameSize)
}

// Accepter is implemented by the returned Transport; it is split out
// from transport.Transport because accepting/adopting a socket.Conn is
// tcp-specific, not part of the uniform component J contract.
type Accepter interface {
	// Accept registers conn as a new peer's carrier - call this from a
	// listening socket.Socket's OnNewConnection, or once a client
	// socket.Socket's Connect call succeeds.
	Accept(conn socket.Conn) (peer.Peer, error)
}
