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

// Package socket implements the non-blocking socket state machine of
// spec.md §4.A on top of package reactor's readiness multiplexer and
// package stream's layered byte stack. A Socket is either a listener
// (Listen) or a client (Connect); both produce Conn values carrying a
// Buffered stream stack and, once TLS autostart applies, a handshaking
// session underneath.
package socket

import (
	"context"
	"net"

	"github.com/nabbar/eventdance/certificates"
	"github.com/nabbar/eventdance/reactor"
	"github.com/nabbar/eventdance/socket/config"
	"github.com/nabbar/eventdance/stream"
)

// State is the socket's position in spec.md §3's state machine.
type State uint8

const (
	StateClosed State = iota
	StateResolving
	StateBound
	StateListening
	StateConnecting
	StateConnected
	StateTlsHandshaking
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateResolving:
		return "resolving"
	case StateBound:
		return "bound"
	case StateListening:
		return "listening"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateTlsHandshaking:
		return "tls-handshaking"
	case StateClosing:
		return "closing"
	}
	return "unknown"
}

// ConnectResultFunc is invoked once a Connect attempt either succeeds
// (err == nil, the socket is Connected) or fails terminally.
type ConnectResultFunc func(err error)

// NewConnectionFunc is invoked by a listening Socket for each accepted
// child connection, on the reactor goroutine.
type NewConnectionFunc func(conn Conn)

// ErrorFunc reports an asynchronous socket-level error (spec.md §7's
// "Resource" and "Peer-local" taxonomy); the socket closes immediately
// after this fires.
type ErrorFunc func(err error)

// CloseFunc is invoked exactly once when a socket finishes closing,
// matching spec.md §8's idempotence property.
type CloseFunc func()

// Conn is the user-visible I/O object of spec.md §2 component F: a
// bundled input+output stream pair plus connection metadata. Reads and
// writes go through the Buffered layer at the top of the stream stack.
type Conn interface {
	// Read attempts to deliver up to len(p) already-buffered bytes;
	// returns stream.StatusWouldBlock when nothing is available.
	Read(p []byte) stream.Result
	// Write appends p to the output buffer, flushing opportunistically.
	Write(p []byte) stream.Result
	// Unread prepends p back to the head of the input buffer.
	Unread(p []byte)

	// StartTLS begins the single TLS handshake this connection will ever
	// run, in the given mode, using cfg as credentials.
	StartTLS(mode Mode, cfg certificates.TLSConfig, requirePeerCert bool) error
	// TLSSession returns the underlying session once StartTLS has been
	// called, or nil before that.
	TLSSession() TLSSessionAccessor

	State() State
	LocalAddr() net.Addr
	RemoteAddr() net.Addr

	SetPriority(prio config.Priority)
	Priority() config.Priority

	// OnReadable registers the callback fired whenever the input stream
	// gains data (or re-gains it after draining to empty); package
	// transport's implementations use this instead of polling Read in a
	// loop to decide when to pull message frames out of the buffer.
	OnReadable(fn func())

	OnError(fn ErrorFunc)
	OnClose(fn CloseFunc)

	Close() error
}

// Mode mirrors tlssession.Mode without importing it into every caller's
// namespace; socket/model.go converts at the boundary.
type Mode uint8

const (
	ModeClient Mode = iota
	ModeServer
)

// TLSSessionAccessor exposes the post-handshake verification surface a
// caller needs without depending on package tlssession directly.
type TLSSessionAccessor interface {
	HandshakeComplete() bool
	VerifyPeer() uint16
}

// Socket is the engine of spec.md §2 component B. A Socket is created
// in StateClosed and transitions exactly as the state diagram in
// spec.md §4.A describes.
type Socket interface {
	// Listen binds and listens on address (spec.md §6's two address
	// shapes, classified by socket/config.ClassifyAddress).
	Listen(address string) error
	// Connect resolves and connects to address; ctx governs resolution
	// cancellation, ConnectTimeout in cfg governs the connect itself.
	Connect(ctx context.Context, address string) error

	State() State
	Priority() config.Priority
	SetPriority(prio config.Priority)

	// SetTLSAutostart enables automatic server-mode handshake on every
	// accepted child (listener) or client-mode handshake once Connected
	// (client socket).
	SetTLSAutostart(cfg certificates.TLSConfig, requirePeerCert bool)

	OnNewConnection(fn NewConnectionFunc)
	OnConnectResult(fn ConnectResultFunc)
	OnError(fn ErrorFunc)
	OnClose(fn CloseFunc)

	// Conn returns the Conn produced by a successful Connect call, or nil
	// before that (and always nil for a listening Socket, which instead
	// delivers one Conn per accepted child via OnNewConnection).
	Conn() Conn

	Close() error
}

// New creates a Socket driven by r, configured by cfg (nil uses
// config.New()'s defaults).
func New(r reactor.Reactor, cfg *config.Config) Socket {
	if cfg == nil {
		cfg = config.New()
	}
	return newSocket(r, cfg)
}
