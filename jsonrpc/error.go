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

package jsonrpc

import (
	liberr "github.com/nabbar/eventdance/errors"
)

// Error codes for component K: malformed framing/wire content is
// peer-local per spec.md §7's taxonomy, everything else here is a
// programmer-facing misuse of the Engine API.
const (
	ErrorParamEmpty liberr.CodeError = iota + liberr.MinPkgJsonRpc
	ErrorMalformedFrame
	ErrorNoTransport
	ErrorInvocationNotFound
	ErrorInvalidResponse
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorParamEmpty)
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
	liberr.RegisterIdFctMessage(ErrorMalformedFrame, getMessage)
	liberr.RegisterIdFctMessage(ErrorNoTransport, getMessage)
	liberr.RegisterIdFctMessage(ErrorInvocationNotFound, getMessage)
	liberr.RegisterIdFctMessage(ErrorInvalidResponse, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorParamEmpty:
		return "jsonrpc: missing required parameter"
	case ErrorMalformedFrame:
		return "jsonrpc: malformed JSON object framing"
	case ErrorNoTransport:
		return "jsonrpc: no transport associated with this call"
	case ErrorInvocationNotFound:
		return "jsonrpc: invocation handle not found"
	case ErrorInvalidResponse:
		return "jsonrpc: response has both or neither of result/error"
	}

	return ""
}

func errMalformedFrame() error {
	return ErrorMalformedFrame.Error(nil)
}
