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

// Package tlssession implements the handshake-driven TLS record engine of
// spec.md §4.C: a single handshake per session, pulling/pushing plaintext
// through caller-supplied callbacks against the stream layer below, and
// surfacing a need-read/need-write direction hint the owning socket turns
// into a watched-mask update instead of spinning.
package tlssession

import (
	"crypto/x509"
	"errors"

	"github.com/nabbar/eventdance/certificates"
)

// Mode selects the session's handshake role.
type Mode uint8

const (
	ModeClient Mode = iota
	ModeServer
)

// Direction is the hint returned by StartTLS/Read/Write/Continue: which
// way the owning socket should watch its fd before calling back in.
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionNeedRead
	DirectionNeedWrite
)

// ErrWouldBlock is what a caller-supplied PullFunc/PushFunc returns when
// the layer below has no data (pull) or no room (push) right now; the
// session translates it into a Direction hint instead of propagating it.
var ErrWouldBlock = errors.New("tlssession: would block")

// PullFunc reads plaintext-direction bytes (i.e. TLS record bytes coming
// off the wire) from the stream layer below the TLS layer. Returns
// ErrWouldBlock when nothing is available yet.
type PullFunc func(p []byte) (n int, err error)

// PushFunc writes TLS record bytes to the stream layer below. Returns
// ErrWouldBlock when the layer below cannot accept more right now.
type PushFunc func(p []byte) (n int, err error)

// VerifyResult is the bitfield spec.md §4.C's VerifyPeer returns; it is
// advisory only - the application decides on tear-down.
type VerifyResult uint16

const (
	VerifyOk                 VerifyResult = 0
	VerifyNoCert             VerifyResult = 1 << iota
	VerifyInvalid
	VerifyRevoked
	VerifySignerNotFound
	VerifySignerNotCa
	VerifyInsecureAlgorithm
	VerifyExpired
	VerifyNotActivated
)

// Session is the public operation set of spec.md §4.C.
type Session interface {
	// SetCredentials binds the certificates.TLSConfig this session builds
	// its *tls.Config from. If the credentials are not yet ready (no
	// certificate/CA material loaded), StartTLS suspends until they are.
	SetCredentials(cfg certificates.TLSConfig)
	// SetMode selects client or server role; must be called before
	// StartTLS.
	SetMode(mode Mode)
	// SetRequirePeerCert toggles mandatory client-certificate
	// verification for a server-mode session.
	SetRequirePeerCert(require bool)
	// SetServerName sets the SNI server name used for a client-mode
	// session's certificate verification.
	SetServerName(name string)

	// StartTLS begins the single handshake this session will ever run,
	// driving it through pull/push until it either blocks (returning a
	// Direction hint) or completes.
	StartTLS(pull PullFunc, push PushFunc) (Direction, error)
	// Continue resumes a handshake previously suspended on a Direction
	// hint (or on the credentials' readiness).
	Continue() (Direction, error)

	// Read decrypts up to len(p) plaintext bytes. Returns DirectionNone
	// once the handshake is complete and n > 0; otherwise returns the
	// Direction the caller should wait for.
	Read(p []byte) (n int, dir Direction, err error)
	// Write encrypts and pushes up to len(p) plaintext bytes.
	Write(p []byte) (n int, dir Direction, err error)

	// HandshakeComplete reports whether the single handshake has
	// finished successfully.
	HandshakeComplete() bool
	// Direction returns the last direction hint stored by StartTLS,
	// Continue, or a Read/Write made before the handshake completed;
	// Read/Write after the handshake return their hint without storing it.
	Direction() Direction

	// Close performs a bidirectional TLS close-notify.
	Close() error
	// ShutdownWrite sends a write-side close-notify only, keeping the
	// read half open until the peer closes.
	ShutdownWrite() error

	// CopyProperties copies mode, credentials and require-peer-cert from
	// src, the way an accepted child socket inherits its listener's TLS
	// autostart settings (spec.md §4.A's accept policy).
	CopyProperties(src Session)

	// PeerCertificates returns the certificate chain presented by the
	// peer, if any.
	PeerCertificates() []*x509.Certificate
	// VerifyPeer performs the chain verification plus per-certificate
	// validity-window check of spec.md §4.C.
	VerifyPeer() VerifyResult
}

// New creates a Session in the given mode, unbound to any credentials
// until SetCredentials is called.
func New(mode Mode) Session {
	return &session{mode: mode}
}
