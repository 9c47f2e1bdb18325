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

package socket

import (
	"net"
	"sync"

	"github.com/nabbar/eventdance/certificates"
	"github.com/nabbar/eventdance/reactor"
	"github.com/nabbar/eventdance/socket/config"
	"github.com/nabbar/eventdance/stream"
	"github.com/nabbar/eventdance/throttle"
	"github.com/nabbar/eventdance/tlssession"
)

// conn implements Conn: a raw net.Conn, its reactor registration, and a
// single read/write stream chain (spec.md §4.B: Raw -> Throttled ->
// (Tls) -> Buffered) shared by the BufferedInput/BufferedOutput facades
// that make up its user-visible Read/Write surface.
type conn struct {
	mx sync.Mutex

	r    reactor.Reactor
	raw  net.Conn
	tok  reactor.Token
	prio config.Priority

	state State

	rawLayer *stream.Raw
	below    stream.Layer

	in  *stream.BufferedInput
	out *stream.BufferedOutput

	tlsLayer      *stream.Tls
	session       tlssession.Session
	handshakeBusy bool

	onErr      ErrorFunc
	onClose    CloseFunc
	onReadable func()
	closed     bool
}

func newConn(r reactor.Reactor, raw net.Conn, prio config.Priority, throttles throttle.Group) *conn {
	c := &conn{r: r, raw: raw, prio: prio, state: StateConnected}

	c.rawLayer = stream.NewRaw(raw)

	var below stream.Layer = c.rawLayer
	if len(throttles) > 0 {
		below = stream.NewThrottled(below, throttles...)
	}
	c.below = below

	c.in = stream.NewBufferedInput(below)
	c.out = stream.NewBufferedOutput(below)
	c.wireReadable()

	c.watch(reactor.Readable | reactor.Writable)

	return c
}

// wireReadable re-subscribes OnReadable to whichever BufferedInput is
// currently current - StartTLS swaps c.in for a TLS-backed one partway
// through a connection's life.
func (c *conn) wireReadable() {
	c.in.OnDrained(func() {
		c.mx.Lock()
		fn := c.onReadable
		c.mx.Unlock()

		if fn != nil {
			fn()
		}
	})
}

func (c *conn) OnReadable(fn func()) {
	c.mx.Lock()
	c.onReadable = fn
	c.mx.Unlock()
}

func (c *conn) watch(cond reactor.Condition) {
	pollable, ok := c.raw.(reactor.Pollable)
	if !ok {
		return
	}

	c.mx.Lock()
	tok := c.tok
	c.mx.Unlock()

	if tok == 0 {
		newTok, err := c.r.Watch(pollable, cond, c.prio, c.handleCondition)
		if err == nil {
			c.mx.Lock()
			c.tok = newTok
			c.mx.Unlock()
		}
	} else {
		_ = c.r.Rearm(tok, cond)
	}
}

// handleCondition runs on the reactor goroutine: it reports readiness to
// the raw layer, which notifies the layers above it (Drained/Filled), and
// while a handshake is in flight it drives that handshake directly, since
// nothing else will call into the Tls layer until the application issues
// its own Read/Write (spec.md §4.A's TlsHandshaking state).
func (c *conn) handleCondition(cond reactor.Condition) {
	if cond.Has(reactor.ErrorCond) {
		c.reportError(errConnectionReset)
		return
	}

	if cond.Has(reactor.Readable) {
		c.rawLayer.ReportReadable()
	}
	if cond.Has(reactor.Writable) {
		c.rawLayer.ReportWritable()
	}

	c.mx.Lock()
	handshaking := c.state == StateTlsHandshaking
	c.mx.Unlock()

	if handshaking {
		c.continueHandshake()
	}

	if cond.Has(reactor.Hangup) {
		c.reportError(errPeerHangup)
	}
}

// continueHandshake drives the single TLS handshake to its next blocking
// point on the reactor's background crypto pool (spec.md §5), rearming
// the watched mask to whichever direction the session now needs, and
// transitioning to Connected once it completes. The handshake step itself
// never runs on the reactor goroutine: continueHandshake only kicks it
// off and returns immediately. handshakeBusy guards against launching a
// second concurrent Handshake() call for the same session: a readiness
// edge can re-enter continueHandshake before the in-flight offloaded step
// finishes, and crypto/tls.Conn.Handshake is not safe for concurrent
// calls on the same connection.
func (c *conn) continueHandshake() {
	c.mx.Lock()
	if c.handshakeBusy {
		c.mx.Unlock()
		return
	}
	c.handshakeBusy = true
	layer := c.tlsLayer
	tok := c.tok
	c.mx.Unlock()

	if layer == nil {
		c.mx.Lock()
		c.handshakeBusy = false
		c.mx.Unlock()
		return
	}

	c.r.Offload(tok, func() {
		dir, err := layer.Handshake()
		c.finishHandshakeStep(dir, err)
	})
}

// finishHandshakeStep applies one handshake step's result once the
// background crypto worker completes it; it is the completion half of
// both continueHandshake and StartTLS's initial step.
func (c *conn) finishHandshakeStep(dir tlssession.Direction, err error) {
	c.mx.Lock()
	c.handshakeBusy = false
	c.mx.Unlock()

	if err != nil {
		c.reportError(err)
		return
	}

	switch dir {
	case tlssession.DirectionNeedWrite:
		c.watch(reactor.Writable)
	case tlssession.DirectionNeedRead:
		c.watch(reactor.Readable)
	case tlssession.DirectionNone:
		c.mx.Lock()
		c.state = StateConnected
		c.mx.Unlock()
		c.watch(reactor.Readable | reactor.Writable)
	}
}

func (c *conn) Read(p []byte) stream.Result {
	return c.in.Read(p)
}

func (c *conn) Write(p []byte) stream.Result {
	return c.out.Write(p)
}

func (c *conn) Unread(p []byte) {
	c.in.Unread(p)
}

func (c *conn) StartTLS(mode Mode, cfg certificates.TLSConfig, requirePeerCert bool) error {
	c.mx.Lock()

	if c.session != nil {
		c.mx.Unlock()
		return ErrorInvalidState.Error(nil)
	}

	c.state = StateTlsHandshaking

	sessMode := tlssession.ModeClient
	if mode == ModeServer {
		sessMode = tlssession.ModeServer
	}

	sess := tlssession.New(sessMode)
	sess.SetCredentials(cfg)
	sess.SetRequirePeerCert(requirePeerCert)

	c.session = sess
	c.tlsLayer = stream.NewTls(c.below, sess)
	c.in = stream.NewBufferedInput(c.tlsLayer)
	c.out = stream.NewBufferedOutput(c.tlsLayer)

	layer := c.tlsLayer
	tok := c.tok
	c.handshakeBusy = true
	c.mx.Unlock()

	c.wireReadable()

	c.r.Offload(tok, func() {
		dir, err := layer.Handshake()
		c.finishHandshakeStep(dir, err)
	})

	return nil
}

func (c *conn) TLSSession() TLSSessionAccessor {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.session == nil {
		return nil
	}
	return tlsSessionAccessor{c.session}
}

type tlsSessionAccessor struct {
	s tlssession.Session
}

func (a tlsSessionAccessor) HandshakeComplete() bool { return a.s.HandshakeComplete() }
func (a tlsSessionAccessor) VerifyPeer() uint16      { return uint16(a.s.VerifyPeer()) }

func (c *conn) State() State {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.state
}

func (c *conn) LocalAddr() net.Addr  { return c.raw.LocalAddr() }
func (c *conn) RemoteAddr() net.Addr { return c.raw.RemoteAddr() }

func (c *conn) SetPriority(prio config.Priority) {
	c.mx.Lock()
	c.prio = prio
	tok := c.tok
	c.mx.Unlock()

	if tok != 0 {
		c.r.SetPriority(tok, prio)
	}
}

func (c *conn) Priority() config.Priority {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.prio
}

func (c *conn) OnError(fn ErrorFunc) { c.mx.Lock(); c.onErr = fn; c.mx.Unlock() }
func (c *conn) OnClose(fn CloseFunc) { c.mx.Lock(); c.onClose = fn; c.mx.Unlock() }

func (c *conn) reportError(err error) {
	c.mx.Lock()
	fn := c.onErr
	c.mx.Unlock()

	if fn != nil {
		fn(err)
	}
	_ = c.Close()
}

func (c *conn) Close() error {
	c.mx.Lock()
	if c.closed {
		c.mx.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateClosing
	tok := c.tok
	fn := c.onClose
	c.mx.Unlock()

	if tok != 0 {
		c.r.Unwatch(tok)
	}

	err := c.raw.Close()

	c.mx.Lock()
	c.state = StateClosed
	c.mx.Unlock()

	if fn != nil {
		fn()
	}

	return err
}
