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

package reproxy

import (
	"fmt"

	liberr "github.com/nabbar/eventdance/errors"
)

const (
	ErrorValidatorError liberr.CodeError = iota + liberr.MinPkgReproxy
	ErrorParamEmpty
	ErrorPoolClosed
	ErrorDialFailed
	ErrorAcquireCanceled
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorValidatorError)
	liberr.RegisterIdFctMessage(ErrorValidatorError, getMessage)
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
	liberr.RegisterIdFctMessage(ErrorPoolClosed, getMessage)
	liberr.RegisterIdFctMessage(ErrorDialFailed, getMessage)
	liberr.RegisterIdFctMessage(ErrorAcquireCanceled, getMessage)
}

//nolint goerr113
func errFieldConstraint(namespace, tag string) error {
	return fmt.Errorf("config field '%s' is not validated by constraint '%s'", namespace, tag)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorValidatorError:
		return "reproxy: invalid pool configuration"
	case ErrorParamEmpty:
		return "reproxy: missing required parameter"
	case ErrorPoolClosed:
		return "reproxy: pool is closed"
	case ErrorDialFailed:
		return "reproxy: bridge dial failed"
	case ErrorAcquireCanceled:
		return "reproxy: acquire canceled before a bridge became available"
	}

	return ""
}
