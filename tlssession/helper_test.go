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

package tlssession_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"time"

	"github.com/nabbar/eventdance/certificates"
	"github.com/nabbar/eventdance/tlssession"
	. "github.com/onsi/gomega"
)

var wouldBlock = tlssession.ErrWouldBlock

// selfSignedPair generates an ephemeral EC self-signed "localhost"
// certificate and returns its key/cert PEM blocks.
func selfSignedPair() (keyPEM, crtPEM string) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).ToNot(HaveOccurred())

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:         true,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	Expect(err).ToNot(HaveOccurred())

	keyDer, err := x509.MarshalECPrivateKey(priv)
	Expect(err).ToNot(HaveOccurred())

	crtPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDer}))

	return keyPEM, crtPEM
}

// serverCredentials builds a certificates.TLSConfig carrying the given
// cert pair, ready for a server-mode session.
func serverCredentials(keyPEM, crtPEM string) certificates.TLSConfig {
	cfg := certificates.New()
	err := cfg.AddCertificatePairString(keyPEM, crtPEM)
	Expect(err).ToNot(HaveOccurred())
	return cfg
}

// clientCredentials builds a certificates.TLSConfig trusting crtPEM as a
// root, ready for a client-mode session verifying that server.
func clientCredentials(crtPEM string) certificates.TLSConfig {
	cfg := certificates.New()
	ok := cfg.AddRootCAString(crtPEM)
	Expect(ok).To(BeTrue())
	return cfg
}

// deadlineConn wraps a net.Conn pair end, translating the blocking
// pipe's timeout errors into would-block semantics for the pull/push
// callbacks tlssession.Session expects.
type deadlineConn struct {
	net.Conn
}

const pollDeadline = 5 * time.Millisecond

func (d deadlineConn) pull(p []byte) (int, error) {
	_ = d.Conn.SetReadDeadline(time.Now().Add(pollDeadline))
	n, err := d.Conn.Read(p)
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return 0, wouldBlock
	}
	return n, err
}

func (d deadlineConn) push(p []byte) (int, error) {
	_ = d.Conn.SetWriteDeadline(time.Now().Add(pollDeadline))
	n, err := d.Conn.Write(p)
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return 0, wouldBlock
	}
	return n, err
}
