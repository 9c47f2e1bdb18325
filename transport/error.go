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

package transport

import (
	liberr "github.com/nabbar/eventdance/errors"
)

// Error codes shared by every transport implementation (tcp, inmemory):
// transport-local failures are peer-local per spec.md §7's taxonomy,
// surfaced on the offending peer without affecting others.
const (
	ErrorParamEmpty liberr.CodeError = iota + liberr.MinPkgTransport
	ErrorPeerNotFound
	ErrorFrameTooLarge
	ErrorMalformedFrame
	ErrorTransportClosed
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorParamEmpty)
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
	liberr.RegisterIdFctMessage(ErrorPeerNotFound, getMessage)
	liberr.RegisterIdFctMessage(ErrorFrameTooLarge, getMessage)
	liberr.RegisterIdFctMessage(ErrorMalformedFrame, getMessage)
	liberr.RegisterIdFctMessage(ErrorTransportClosed, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorParamEmpty:
		return "transport: missing required parameter"
	case ErrorPeerNotFound:
		return "transport: peer not found on this transport"
	case ErrorFrameTooLarge:
		return "transport: inbound frame exceeds the configured maximum size"
	case ErrorMalformedFrame:
		return "transport: malformed frame length prefix"
	case ErrorTransportClosed:
		return "transport: transport is closed"
	}

	return ""
}
