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

package tlssession

import (
	"crypto/tls"
	"crypto/x509"
	"sync"
	"time"

	"github.com/nabbar/eventdance/certificates"
)

type session struct {
	mx sync.Mutex

	mode            Mode
	cred            certificates.TLSConfig
	requirePeerCert bool
	serverName      string

	conn      *callbackConn
	tls       *tls.Conn
	dir       Direction
	completed bool
}

func (s *session) SetCredentials(cfg certificates.TLSConfig) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.cred = cfg
}

func (s *session) SetMode(mode Mode) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.mode = mode
}

func (s *session) SetRequirePeerCert(require bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.requirePeerCert = require
}

func (s *session) SetServerName(name string) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.serverName = name
}

// credentialsReady mirrors spec.md §4.C's "subscribe to the credentials'
// ready notification and suspend": certificates.TLSConfig exposes no
// readiness event, so this polls LenCertificatePair for server mode
// (client mode needs no certificate to start a handshake).
func (s *session) credentialsReady() bool {
	if s.cred == nil {
		return false
	}
	if s.mode == ModeServer {
		return s.cred.LenCertificatePair() > 0
	}
	return true
}

func (s *session) buildTlsConfig() *tls.Config {
	cfg := s.cred.TlsConfig(s.serverName)

	if s.mode == ModeServer && s.requirePeerCert {
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return cfg
}

func (s *session) StartTLS(pull PullFunc, push PushFunc) (Direction, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.conn = &callbackConn{pull: pull, push: push}

	if !s.credentialsReady() {
		s.dir = DirectionNeedRead
		return s.dir, nil
	}

	cfg := s.buildTlsConfig()

	if s.mode == ModeClient {
		s.tls = tls.Client(s.conn, cfg)
	} else {
		s.tls = tls.Server(s.conn, cfg)
	}

	return s.handshakeLocked()
}

func (s *session) Continue() (Direction, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.completed {
		return DirectionNone, nil
	}

	if s.tls == nil {
		if !s.credentialsReady() {
			s.dir = DirectionNeedRead
			return s.dir, nil
		}

		cfg := s.buildTlsConfig()
		if s.mode == ModeClient {
			s.tls = tls.Client(s.conn, cfg)
		} else {
			s.tls = tls.Server(s.conn, cfg)
		}
	}

	return s.handshakeLocked()
}

func (s *session) handshakeLocked() (Direction, error) {
	s.conn.lastDir = DirectionNone

	err := s.tls.Handshake()
	if err == nil {
		s.completed = true
		s.dir = DirectionNone
		return DirectionNone, nil
	}

	if err == ErrWouldBlock || s.conn.lastDir != DirectionNone {
		s.dir = s.conn.lastDir
		if s.dir == DirectionNone {
			s.dir = DirectionNeedRead
		}
		return s.dir, nil
	}

	return DirectionNone, ErrorTlsHandshake.Error(err)
}

func (s *session) Read(p []byte) (int, Direction, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if !s.completed {
		dir, err := s.handshakeLocked()
		return 0, dir, err
	}

	s.conn.lastDir = DirectionNone
	n, err := s.tls.Read(p)

	if err == ErrWouldBlock || (err == nil && n == 0 && s.conn.lastDir != DirectionNone) {
		return 0, DirectionNeedRead, nil
	}

	if err != nil {
		return n, DirectionNone, err
	}

	return n, DirectionNone, nil
}

func (s *session) Write(p []byte) (int, Direction, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if !s.completed {
		dir, err := s.handshakeLocked()
		return 0, dir, err
	}

	s.conn.lastDir = DirectionNone
	n, err := s.tls.Write(p)

	if err == ErrWouldBlock || (err == nil && n == 0 && s.conn.lastDir != DirectionNone) {
		return 0, DirectionNeedWrite, nil
	}

	if err != nil {
		return n, DirectionNone, err
	}

	return n, DirectionNone, nil
}

func (s *session) HandshakeComplete() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.completed
}

func (s *session) Direction() Direction {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.dir
}

func (s *session) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.tls == nil {
		return nil
	}
	return s.tls.Close()
}

func (s *session) ShutdownWrite() error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.tls == nil {
		return nil
	}
	return s.tls.CloseWrite()
}

func (s *session) CopyProperties(src Session) {
	o, ok := src.(*session)
	if !ok {
		return
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	o.mx.Lock()
	defer o.mx.Unlock()

	s.mode = o.mode
	s.cred = o.cred
	s.requirePeerCert = o.requirePeerCert
	s.serverName = o.serverName
}

func (s *session) PeerCertificates() []*x509.Certificate {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.tls == nil {
		return nil
	}
	return s.tls.ConnectionState().PeerCertificates
}

func (s *session) VerifyPeer() VerifyResult {
	s.mx.Lock()
	tlsConn := s.tls
	s.mx.Unlock()

	if tlsConn == nil {
		return VerifyNoCert
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return VerifyNoCert
	}

	var result VerifyResult
	now := time.Now()

	for _, c := range state.PeerCertificates {
		if now.Before(c.NotBefore) {
			result |= VerifyNotActivated
		}
		if now.After(c.NotAfter) {
			result |= VerifyExpired
		}
	}

	opts := x509.VerifyOptions{
		Roots:         nil,
		Intermediates: x509.NewCertPool(),
		CurrentTime:   now,
	}
	for _, c := range state.PeerCertificates[1:] {
		opts.Intermediates.AddCert(c)
	}

	if _, err := state.PeerCertificates[0].Verify(opts); err != nil {
		switch err.(type) {
		case x509.UnknownAuthorityError:
			result |= VerifySignerNotFound
		case x509.CertificateInvalidError:
			result |= VerifyInvalid
		default:
			result |= VerifyInvalid
		}
	}

	return result
}
