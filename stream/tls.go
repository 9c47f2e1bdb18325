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

package stream

import (
	"sync"

	"github.com/nabbar/eventdance/tlssession"
)

// Tls is the optional handshake-aware layer between Throttled and
// Buffered: it pulls/pushes ciphertext through the layer below via
// tlssession.Session and surfaces plaintext to the layer above.
type Tls struct {
	mx sync.Mutex

	below   Layer
	session tlssession.Session

	onDrained NotifyFunc
	onFilled  NotifyFunc
}

// NewTls wraps below with a TLS record engine. The session must already
// have its mode and credentials configured; the first Handshake call
// invokes StartTLS, and Read/Write do not start the session themselves.
func NewTls(below Layer, session tlssession.Session) *Tls {
	t := &Tls{below: below, session: session}

	below.OnDrained(func() { t.fireDrained() })
	below.OnFilled(func() { t.fireFilled() })

	return t
}

func (t *Tls) fireDrained() {
	t.mx.Lock()
	fn := t.onDrained
	t.mx.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *Tls) fireFilled() {
	t.mx.Lock()
	fn := t.onFilled
	t.mx.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *Tls) pull(p []byte) (int, error) {
	res := t.below.Read(p)

	switch res.Status {
	case StatusOK:
		return res.N, nil
	case StatusWouldBlock:
		return 0, tlssession.ErrWouldBlock
	case StatusEOF:
		return 0, errTlsNotReady
	default:
		if res.Err != nil {
			return 0, res.Err
		}
		return 0, errTlsNotReady
	}
}

func (t *Tls) push(p []byte) (int, error) {
	res := t.below.Write(p)

	switch res.Status {
	case StatusOK:
		return res.N, nil
	case StatusWouldBlock, StatusFull:
		return 0, tlssession.ErrWouldBlock
	default:
		if res.Err != nil {
			return 0, res.Err
		}
		return 0, errTlsNotReady
	}
}

// Handshake drives (or resumes) the session's single handshake, returning
// the direction the owning socket should watch the fd for. Called by the
// socket's TlsHandshaking state handler (spec.md §4.A).
func (t *Tls) Handshake() (tlssession.Direction, error) {
	if !t.session.HandshakeComplete() && t.session.Direction() == tlssession.DirectionNone {
		return t.session.StartTLS(t.pull, t.push)
	}
	return t.session.Continue()
}

func (t *Tls) Read(p []byte) Result {
	n, dir, err := t.session.Read(p)

	if err != nil {
		return Result{Status: StatusError, Err: err}
	}

	if n == 0 {
		if dir == tlssession.DirectionNeedWrite {
			return Result{Status: StatusWouldBlock}
		}
		return Result{Status: StatusWouldBlock}
	}

	return Result{N: n, Status: StatusOK}
}

func (t *Tls) Write(p []byte) Result {
	n, dir, err := t.session.Write(p)

	if err != nil {
		return Result{Status: StatusError, Err: err}
	}

	if n == 0 {
		if dir == tlssession.DirectionNeedRead {
			return Result{Status: StatusWouldBlock}
		}
		return Result{Status: StatusFull}
	}

	return Result{N: n, Status: StatusOK}
}

func (t *Tls) Close() error {
	_ = t.session.Close()
	return t.below.Close()
}

func (t *Tls) OnDrained(fn NotifyFunc) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.onDrained = fn
}

func (t *Tls) OnFilled(fn NotifyFunc) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.onFilled = fn
}

// Session exposes the underlying tlssession.Session for callers that
// need VerifyPeer/PeerCertificates after the handshake completes.
func (t *Tls) Session() tlssession.Session {
	return t.session
}
