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
	"context"
	"net"
	"sync"
	"time"

	"github.com/nabbar/eventdance/certificates"
	"github.com/nabbar/eventdance/reactor"
	"github.com/nabbar/eventdance/socket/config"
	"github.com/nabbar/eventdance/throttle"
)

// deadlineListener is the subset of net.Listener that *net.TCPListener
// and *net.UnixListener both satisfy, letting accept loop bound its
// blocking the same way stream.Raw bounds Read/Write.
type deadlineListener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// acceptPollInterval bounds how long one Accept call may block while
// waiting for a pending connection before the accept loop re-checks for
// StateClosing; a real readiness edge almost always makes Accept return
// well before this elapses.
const acceptPollInterval = 50 * time.Millisecond

type socket struct {
	mx sync.Mutex

	r   reactor.Reactor
	cfg *config.Config

	state State
	ln    deadlineListener
	lnTok reactor.Token

	tlsAutostart    bool
	tlsCfg          certificates.TLSConfig
	tlsRequirePeer  bool

	throttles throttle.Group

	clientConn *conn

	onNewConn       NewConnectionFunc
	onConnectResult ConnectResultFunc
	onErr           ErrorFunc
	onClose         CloseFunc

	connectCancel context.CancelFunc
	closeOnce     sync.Once
}

func newSocket(r reactor.Reactor, cfg *config.Config) *socket {
	s := &socket{r: r, cfg: cfg, state: StateClosed}

	if cfg.BandwidthIn != 0 || cfg.BandwidthOut != 0 || cfg.LatencyIn != 0 || cfg.LatencyOut != 0 {
		t := throttle.Config{
			BandwidthIn:  cfg.BandwidthIn,
			BandwidthOut: cfg.BandwidthOut,
			LatencyIn:    cfg.LatencyIn,
			LatencyOut:   cfg.LatencyOut,
		}.New()
		s.throttles = throttle.Group{t}
	}

	return s
}

func (s *socket) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.state
}

func (s *socket) Priority() config.Priority {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.cfg.Priority
}

func (s *socket) SetPriority(prio config.Priority) {
	s.mx.Lock()
	s.cfg.Priority = prio
	tok := s.lnTok
	s.mx.Unlock()

	if tok != 0 {
		s.r.SetPriority(tok, prio)
	}
}

func (s *socket) SetTLSAutostart(cfg certificates.TLSConfig, requirePeerCert bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.tlsAutostart = true
	s.tlsCfg = cfg
	s.tlsRequirePeer = requirePeerCert
}

func (s *socket) OnNewConnection(fn NewConnectionFunc) { s.mx.Lock(); s.onNewConn = fn; s.mx.Unlock() }
func (s *socket) OnConnectResult(fn ConnectResultFunc) {
	s.mx.Lock()
	s.onConnectResult = fn
	s.mx.Unlock()
}
func (s *socket) OnError(fn ErrorFunc) { s.mx.Lock(); s.onErr = fn; s.mx.Unlock() }
func (s *socket) OnClose(fn CloseFunc) { s.mx.Lock(); s.onClose = fn; s.mx.Unlock() }

func (s *socket) Conn() Conn {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.clientConn == nil {
		return nil
	}
	return s.clientConn
}

func network(addr string) string {
	if config.ClassifyAddress(addr) == config.AddressUnix {
		return "unix"
	}
	return "tcp"
}

// Listen implements the Closed -> Bound -> Listening transition of
// spec.md §4.A. Listening sockets dispatch one priority step above the
// configured default, per the Priorities rule.
func (s *socket) Listen(address string) error {
	s.mx.Lock()
	if s.state != StateClosed {
		s.mx.Unlock()
		return ErrorInvalidState.Error(nil)
	}
	s.state = StateBound
	s.mx.Unlock()

	ln, err := net.Listen(network(address), address)
	if err != nil {
		s.mx.Lock()
		s.state = StateClosed
		s.mx.Unlock()
		return ErrorListenFailed.Error(err)
	}

	dln, ok := ln.(deadlineListener)
	if !ok {
		_ = ln.Close()
		return ErrorListenFailed.Error(nil)
	}

	s.mx.Lock()
	s.ln = dln
	s.state = StateListening
	prio := s.cfg.Priority.Step(1)
	s.mx.Unlock()

	if pollable, ok := ln.(reactor.Pollable); ok {
		tok, werr := s.r.Watch(pollable, reactor.Readable, prio, s.handleListenerReady)
		if werr == nil {
			s.mx.Lock()
			s.lnTok = tok
			s.mx.Unlock()
		}
	}

	return nil
}

// handleListenerReady runs on the reactor goroutine: accept until
// WouldBlock, per spec.md §4.A's accept policy.
func (s *socket) handleListenerReady(cond reactor.Condition) {
	s.mx.Lock()
	ln := s.ln
	closing := s.state == StateClosing || s.state == StateClosed
	s.mx.Unlock()

	if ln == nil || closing {
		return
	}

	for {
		_ = ln.SetDeadline(time.Now().Add(acceptPollInterval))
		c, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return
			}
			s.reportError(ErrorAcceptFailed.Error(err))
			return
		}

		s.acceptChild(c)
	}
}

func (s *socket) acceptChild(raw net.Conn) {
	s.mx.Lock()
	prio := s.cfg.Priority
	throttles := s.throttles
	autostart := s.tlsAutostart
	tlsCfg := s.tlsCfg
	requirePeer := s.tlsRequirePeer
	onNew := s.onNewConn
	s.mx.Unlock()

	child := newConn(s.r, raw, prio, throttles)

	if autostart {
		_ = child.StartTLS(ModeServer, tlsCfg, requirePeer)
	}

	if onNew != nil {
		onNew(child)
	}
}

// Connect implements the Closed -> Resolving -> Connecting -> Connected
// transition. Resolution and connect-timeout are both handled by
// net.Dialer.DialContext: ctx governs cancellable resolution, and the
// dialer derives its own connect deadline from cfg.ConnectTimeout,
// matching the "armed timer" policy without a hand-rolled timer.
func (s *socket) Connect(ctx context.Context, address string) error {
	s.mx.Lock()
	if s.state != StateClosed {
		s.mx.Unlock()
		return ErrorInvalidState.Error(nil)
	}
	s.state = StateResolving
	prio := s.cfg.Priority.Step(2)
	timeout := s.cfg.ConnectTimeout
	s.mx.Unlock()

	dialCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
	}

	s.mx.Lock()
	s.connectCancel = cancel
	s.state = StateConnecting
	s.mx.Unlock()

	go s.dial(dialCtx, cancel, address, prio)

	return nil
}

func (s *socket) dial(ctx context.Context, cancel context.CancelFunc, address string, prio config.Priority) {
	defer func() {
		if cancel != nil {
			cancel()
		}
	}()

	d := net.Dialer{}
	raw, err := d.DialContext(ctx, network(address), address)

	s.mx.Lock()
	throttles := s.throttles
	autostart := s.tlsAutostart
	tlsCfg := s.tlsCfg
	requirePeer := s.tlsRequirePeer
	onResult := s.onConnectResult
	defaultPrio := s.cfg.Priority
	s.mx.Unlock()

	if err != nil {
		s.mx.Lock()
		s.state = StateClosed
		s.mx.Unlock()

		wrapped := ErrorConnectFailed.Error(err)
		if ctx.Err() != nil {
			wrapped = ErrorConnectTimeout.Error(err)
		}

		if onResult != nil {
			onResult(wrapped)
		}
		return
	}

	c := newConn(s.r, raw, prio, throttles)

	s.mx.Lock()
	s.clientConn = c
	s.state = StateConnected
	s.mx.Unlock()

	c.SetPriority(defaultPrio)

	if autostart {
		_ = c.StartTLS(ModeClient, tlsCfg, requirePeer)
	}

	if onResult != nil {
		onResult(nil)
	}
}

func (s *socket) reportError(err error) {
	s.mx.Lock()
	fn := s.onErr
	s.mx.Unlock()

	if fn != nil {
		fn(err)
	}
	_ = s.Close()
}

// Close transitions to Closing then Closed, exactly once, matching
// spec.md §8's idempotence property.
func (s *socket) Close() error {
	var err error

	s.closeOnce.Do(func() {
		s.mx.Lock()
		s.state = StateClosing
		ln := s.ln
		lnTok := s.lnTok
		cancel := s.connectCancel
		clientConn := s.clientConn
		fn := s.onClose
		s.mx.Unlock()

		if cancel != nil {
			cancel()
		}

		if lnTok != 0 {
			s.r.Unwatch(lnTok)
		}

		if ln != nil {
			err = ln.Close()
		}

		if clientConn != nil {
			_ = clientConn.Close()
		}

		s.mx.Lock()
		s.state = StateClosed
		s.mx.Unlock()

		if fn != nil {
			fn()
		}
	})

	return err
}
