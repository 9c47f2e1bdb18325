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
	"errors"

	liberr "github.com/nabbar/eventdance/errors"
)

// errConnectionReset and errPeerHangup are the two asynchronous
// conditions spec.md §4.A's error policy distinguishes from a
// synchronous read/write error.
var (
	errConnectionReset = errors.New("socket: connection reset")
	errPeerHangup      = errors.New("socket: peer hangup")
)

const (
	ErrorInvalidState liberr.CodeError = iota + liberr.MinPkgSocket
	ErrorListenFailed
	ErrorConnectFailed
	ErrorConnectTimeout
	ErrorAcceptFailed
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorInvalidState)
	liberr.RegisterIdFctMessage(ErrorInvalidState, getMessage)
	liberr.RegisterIdFctMessage(ErrorListenFailed, getMessage)
	liberr.RegisterIdFctMessage(ErrorConnectFailed, getMessage)
	liberr.RegisterIdFctMessage(ErrorConnectTimeout, getMessage)
	liberr.RegisterIdFctMessage(ErrorAcceptFailed, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorInvalidState:
		return "socket: invalid state for this operation"
	case ErrorListenFailed:
		return "socket: listen failed"
	case ErrorConnectFailed:
		return "socket: connect failed"
	case ErrorConnectTimeout:
		return "socket: connect timed out"
	case ErrorAcceptFailed:
		return "socket: accept failed"
	}

	return ""
}
