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

package errors

const (
	MinPkgCertificate = 300
	MinPkgLogger      = 1600

	// MinPkgReactor is the code range for the reactor package (event loop,
	// readiness mailbox, priority dispatch).
	MinPkgReactor = 4100
	// MinPkgSocket is the code range for the socket package (state machine,
	// connect/listen/accept/close).
	MinPkgSocket = 4200
	// MinPkgStream is the code range for the stream package (raw, throttled,
	// tls and buffered layers).
	MinPkgStream = 4300
	// MinPkgThrottle is the code range for the throttle package.
	MinPkgThrottle = 4400
	// MinPkgTLSSession is the code range for the tlssession package.
	MinPkgTLSSession = 4500
	// MinPkgReproxy is the code range for the reproxy backend pool package.
	MinPkgReproxy = 4600
	// MinPkgPeer is the code range for the peer and peer manager package.
	MinPkgPeer = 4700
	// MinPkgTransport is the code range for the transport package.
	MinPkgTransport = 4800
	// MinPkgJsonRpc is the code range for the jsonrpc engine package.
	MinPkgJsonRpc = 4900
	// MinPkgDBusFrame is the code range for the dbusframe wire codec package.
	MinPkgDBusFrame = 5000

	MinAvailable = 5100

	// MIN_AVAILABLE @Deprecated use MinAvailable constant
	MIN_AVAILABLE = MinAvailable
)
