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
	"net"
	"time"
)

// callbackConn adapts a pair of PullFunc/PushFunc into the net.Conn shape
// crypto/tls.Conn expects, so the standard library's handshake/record
// state machine can be driven directly against our stream layer instead
// of a real socket. Read/Write propagate ErrWouldBlock verbatim; the
// owning session inspects it to produce a Direction hint, and retries
// Handshake()/Read()/Write() later - the same deadline-retry idiom
// applications use to run crypto/tls non-blocking over a net.Conn with
// SetReadDeadline.
type callbackConn struct {
	pull PullFunc
	push PushFunc

	lastDir Direction
}

func (c *callbackConn) Read(p []byte) (int, error) {
	n, err := c.pull(p)
	if err == ErrWouldBlock {
		c.lastDir = DirectionNeedRead
	}
	return n, err
}

func (c *callbackConn) Write(p []byte) (int, error) {
	n, err := c.push(p)
	if err == ErrWouldBlock {
		c.lastDir = DirectionNeedWrite
	}
	return n, err
}

func (c *callbackConn) Close() error                       { return nil }
func (c *callbackConn) LocalAddr() net.Addr                 { return callbackAddr{} }
func (c *callbackConn) RemoteAddr() net.Addr                { return callbackAddr{} }
func (c *callbackConn) SetDeadline(t time.Time) error       { return nil }
func (c *callbackConn) SetReadDeadline(t time.Time) error   { return nil }
func (c *callbackConn) SetWriteDeadline(t time.Time) error  { return nil }

type callbackAddr struct{}

func (callbackAddr) Network() string { return "eventdance" }
func (callbackAddr) String() string  { return "eventdance-tls-session" }
